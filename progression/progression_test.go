package progression

import (
	"testing"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intRef(v int) *int { return &v }

func TestForBracketType(t *testing.T) {
	for _, bt := range []models.BracketType{
		models.BracketSingleElimination,
		models.BracketDoubleElimination,
		models.BracketRoundRobin,
	} {
		strategy, err := ForBracketType(bt)
		require.NoError(t, err)
		assert.Equal(t, string(bt), strategy.Name())
	}

	_, err := ForBracketType(models.BracketType("swiss"))
	assert.Error(t, err)
}

func TestSingleEliminationAdvance(t *testing.T) {
	strategy := &SingleElimination{}

	t.Run("winner moves to next match slot", func(t *testing.T) {
		m := &models.Match{
			ID:          1,
			NextMatchID: intRef(5),
			NextSlot:    intRef(2),
		}
		got := strategy.Advance(m, 10, 11)
		require.Len(t, got, 1)
		assert.Equal(t, SlotAssignment{MatchID: 5, Slot: 2, ParticipantID: 10}, got[0])
	})

	t.Run("semifinal loser goes to third place match", func(t *testing.T) {
		m := &models.Match{
			ID:               2,
			NextMatchID:      intRef(5),
			NextSlot:         intRef(1),
			LoserNextMatchID: intRef(6),
			LoserNextSlot:    intRef(1),
		}
		got := strategy.Advance(m, 10, 11)
		require.Len(t, got, 2)
		assert.Equal(t, SlotAssignment{MatchID: 5, Slot: 1, ParticipantID: 10}, got[0])
		assert.Equal(t, SlotAssignment{MatchID: 6, Slot: 1, ParticipantID: 11}, got[1])
	})

	t.Run("final produces no assignments", func(t *testing.T) {
		assert.Empty(t, strategy.Advance(&models.Match{ID: 5}, 10, 11))
	})

	t.Run("missing slot hint defers resolution", func(t *testing.T) {
		m := &models.Match{ID: 1, NextMatchID: intRef(5)}
		got := strategy.Advance(m, 10, 11)
		require.Len(t, got, 1)
		assert.Zero(t, got[0].Slot)
	})

	t.Run("repeat call is identical", func(t *testing.T) {
		m := &models.Match{ID: 1, NextMatchID: intRef(5), NextSlot: intRef(1)}
		assert.Equal(t, strategy.Advance(m, 10, 11), strategy.Advance(m, 10, 11))
	})
}

func TestDoubleEliminationAdvance(t *testing.T) {
	strategy := &DoubleElimination{}

	t.Run("winner bracket loser drops to loser bracket", func(t *testing.T) {
		m := &models.Match{
			ID:               1,
			Bracket:          models.BracketSideWinner,
			NextMatchID:      intRef(5),
			NextSlot:         intRef(1),
			LoserNextMatchID: intRef(8),
			LoserNextSlot:    intRef(2),
		}
		got := strategy.Advance(m, 10, 11)
		require.Len(t, got, 2)
		assert.Equal(t, SlotAssignment{MatchID: 5, Slot: 1, ParticipantID: 10}, got[0])
		assert.Equal(t, SlotAssignment{MatchID: 8, Slot: 2, ParticipantID: 11}, got[1])
	})

	t.Run("loser bracket defeat eliminates", func(t *testing.T) {
		m := &models.Match{
			ID:          8,
			Bracket:     models.BracketSideLoser,
			NextMatchID: intRef(9),
			NextSlot:    intRef(2),
		}
		got := strategy.Advance(m, 11, 12)
		require.Len(t, got, 1, "eliminated loser gets no assignment")
		assert.Equal(t, 11, got[0].ParticipantID)
	})

	t.Run("loser bracket winner keeps advancing", func(t *testing.T) {
		m := &models.Match{
			ID:               8,
			Bracket:          models.BracketSideLoser,
			NextMatchID:      intRef(9),
			NextSlot:         intRef(1),
			LoserNextMatchID: intRef(10),
			LoserNextSlot:    intRef(1),
		}
		got := strategy.Advance(m, 11, 12)
		require.Len(t, got, 2)
	})
}

func TestRoundRobinAdvance(t *testing.T) {
	strategy := &RoundRobin{}
	m := &models.Match{
		ID:          1,
		Bracket:     models.BracketSideWinner,
		NextMatchID: intRef(5),
	}
	// Групповой матч никуда не продвигает, даже при заполненных рёбрах.
	assert.Nil(t, strategy.Advance(m, 10, 11))
}
