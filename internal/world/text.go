package world

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title capitalises every word of s. Casers are stateful, so each call
// gets its own.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// JoinAnd renders items as "a, b and c".
func JoinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// JoinTitled is JoinAnd over titled items.
func JoinTitled(items []string) string {
	titled := make([]string, len(items))
	for i, it := range items {
		titled[i] = Title(it)
	}
	return JoinAnd(titled)
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
