package progression

import "github.com/brkpoint/tournament-platform/models"

// SingleElimination: победитель идёт в next_match; если у стадии есть матч
// за третье место, проигравший полуфинала идёт туда по loser_next_match.
type SingleElimination struct{}

func (s *SingleElimination) Name() string { return string(models.BracketSingleElimination) }

func (s *SingleElimination) Advance(m *models.Match, winnerID, loserID int) []SlotAssignment {
	assignments := make([]SlotAssignment, 0, 2)
	if a := winnerAssignment(m, winnerID); a != nil {
		assignments = append(assignments, *a)
	}
	if a := loserAssignment(m, loserID); a != nil {
		assignments = append(assignments, *a)
	}
	return assignments
}
