package progression

import "github.com/brkpoint/tournament-platform/models"

// RoundRobin: продвижения нет, у групповых матчей нет forward-рёбер.
// Таблица результатов считается отдельно по накопленным сетам.
type RoundRobin struct{}

func (r *RoundRobin) Name() string { return string(models.BracketRoundRobin) }

func (r *RoundRobin) Advance(_ *models.Match, _, _ int) []SlotAssignment {
	return nil
}
