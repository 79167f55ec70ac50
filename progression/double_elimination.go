package progression

import "github.com/brkpoint/tournament-platform/models"

// DoubleElimination: победитель идёт в next_match; проигравший падает в
// loser_next_match. Поражение в сетке проигравших без дальнейшего
// назначения означает выбывание — loser_next_match у такого матча пуст.
type DoubleElimination struct{}

func (d *DoubleElimination) Name() string { return string(models.BracketDoubleElimination) }

func (d *DoubleElimination) Advance(m *models.Match, winnerID, loserID int) []SlotAssignment {
	assignments := make([]SlotAssignment, 0, 2)
	if a := winnerAssignment(m, winnerID); a != nil {
		assignments = append(assignments, *a)
	}
	if m.Bracket == models.BracketSideLoser && m.LoserNextMatchID == nil {
		// Выбывание из сетки проигравших.
		return assignments
	}
	if a := loserAssignment(m, loserID); a != nil {
		assignments = append(assignments, *a)
	}
	return assignments
}
