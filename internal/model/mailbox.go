package model

import (
	"strings"
	"sync"
)

// Role is a vessel crew channel or one of the shared channels.
type Role string

const (
	RoleCaptain   Role = "captain"
	RoleEngineer  Role = "engineer"
	RoleScientist Role = "scientist"

	// RoleControl and RoleNews are shared channels, not crew roles.
	RoleControl Role = "control"
	RoleNews    Role = "news"
)

// CrewRoles lists the per-vessel channels in report order.
var CrewRoles = []Role{RoleCaptain, RoleEngineer, RoleScientist}

// Mailbox accumulates lines per crew role until they are flushed.
type Mailbox struct {
	mu    sync.Mutex
	lines map[Role][]string
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{lines: make(map[Role][]string)}
}

// Post appends a line for role. Empty lines are dropped.
func (m *Mailbox) Post(role Role, line string) {
	line = strings.TrimRight(line, "\n")
	if line == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[role] = append(m.lines[role], line)
}

// PostAll appends a line for every crew role.
func (m *Mailbox) PostAll(line string) {
	for _, r := range CrewRoles {
		m.Post(r, line)
	}
}

// Drain returns the accumulated text per role and empties the mailbox.
func (m *Mailbox) Drain() map[Role]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Role]string, len(m.lines))
	for r, lines := range m.lines {
		out[r] = strings.Join(lines, "\n")
	}
	m.lines = make(map[Role][]string)
	return out
}

// Pending reports whether anything is waiting for role.
func (m *Mailbox) Pending(role Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines[role]) > 0
}

// Bulletin collects messages for the shared control and news channels.
type Bulletin struct {
	mu      sync.Mutex
	control []string
	news    []string
}

// NewBulletin creates an empty bulletin.
func NewBulletin() *Bulletin {
	return &Bulletin{}
}

// Control posts to the game-master channel.
func (b *Bulletin) Control(msg string) {
	if b == nil || msg == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.control = append(b.control, msg)
}

// News posts to the public news channel.
func (b *Bulletin) News(msg string) {
	if b == nil || msg == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.news = append(b.news, msg)
}

// Drain returns and clears both channels.
func (b *Bulletin) Drain() (control, news []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	control, news = b.control, b.news
	b.control, b.news = nil, nil
	return control, news
}
