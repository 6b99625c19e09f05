package testutil

import (
	"github.com/udisondev/deepwatch/internal/model"
)

// Fixtures содержит общие тестовые данные, чтобы не дублировать их в тестах.
var Fixtures = struct {
	// Загадки для model.PuzzleBank
	Puzzles []model.Puzzle
}{
	Puzzles: []model.Puzzle{
		{Name: "What has keys but opens no locks?", Answers: []string{"piano", "a piano"}},
		{Name: "2 + 2", Answers: []string{"4", "four"}},
	},
}

// Channels возвращает id каналов вида "<team>-<role>" для каждой роли экипажа.
func Channels(team string) map[model.Role]string {
	out := make(map[model.Role]string, len(model.CrewRoles))
	for _, r := range model.CrewRoles {
		out[r] = team + "-" + string(r)
	}
	return out
}
