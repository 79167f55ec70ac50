package progression

import (
	"fmt"

	"github.com/brkpoint/tournament-platform/models"
)

// SlotAssignment — указание поместить участника в слот целевого матча.
// Slot == 0 означает "определить слот по backward-рёбрам целевого матча".
type SlotAssignment struct {
	MatchID       int
	Slot          int
	ParticipantID int
}

// Strategy вычисляет продвижение победителя/проигравшего по завершении
// матча. Реализации чистые: только структура матча и его рёбра, никакого
// доступа к хранилищу. Повторный вызов с теми же входами даёт те же
// назначения, перезапись идентичного значения состояние не портит.
type Strategy interface {
	Name() string
	Advance(m *models.Match, winnerID, loserID int) []SlotAssignment
}

// ForBracketType выбирает стратегию по типу стадии. Выбирается один раз
// на стадию и переиспользуется.
func ForBracketType(t models.BracketType) (Strategy, error) {
	switch t {
	case models.BracketSingleElimination:
		return &SingleElimination{}, nil
	case models.BracketDoubleElimination:
		return &DoubleElimination{}, nil
	case models.BracketRoundRobin:
		return &RoundRobin{}, nil
	default:
		return nil, fmt.Errorf("unsupported bracket type %q", t)
	}
}

func winnerAssignment(m *models.Match, winnerID int) *SlotAssignment {
	if m.NextMatchID == nil {
		return nil
	}
	a := &SlotAssignment{MatchID: *m.NextMatchID, ParticipantID: winnerID}
	if m.NextSlot != nil {
		a.Slot = *m.NextSlot
	}
	return a
}

func loserAssignment(m *models.Match, loserID int) *SlotAssignment {
	if m.LoserNextMatchID == nil {
		return nil
	}
	a := &SlotAssignment{MatchID: *m.LoserNextMatchID, ParticipantID: loserID}
	if m.LoserNextSlot != nil {
		a.Slot = *m.LoserNextSlot
	}
	return a
}
