package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intRef(v int) *int { return &v }

func TestMatchStatusIsTerminal(t *testing.T) {
	assert.False(t, MatchStatusPending.IsTerminal())
	assert.False(t, MatchStatusOngoing.IsTerminal())
	assert.True(t, MatchStatusFinished.IsTerminal())
	assert.True(t, MatchStatusWalkover.IsTerminal())
}

func TestBracketSideSortOrder(t *testing.T) {
	assert.Less(t, BracketSideWinner.SortOrder(), BracketSideLoser.SortOrder())
	assert.Less(t, BracketSideLoser.SortOrder(), BracketSideConsolation.SortOrder())
}

func TestMatchCanStart(t *testing.T) {
	player1 := &Participant{ID: 1, UserID: intRef(100)}
	player2 := &Participant{ID: 2, UserID: intRef(101)}
	bye := &Participant{ID: 3}

	t.Run("both slots filled with real players", func(t *testing.T) {
		m := &Match{P1ParticipantID: intRef(1), P2ParticipantID: intRef(2)}
		assert.True(t, m.CanStart(player1, player2))
	})

	t.Run("missing slot", func(t *testing.T) {
		m := &Match{P1ParticipantID: intRef(1)}
		assert.False(t, m.CanStart(player1, nil))
	})

	t.Run("bye opponent blocks start", func(t *testing.T) {
		m := &Match{P1ParticipantID: intRef(1), P2ParticipantID: intRef(3)}
		assert.False(t, m.CanStart(player1, bye))
	})
}

func TestMatchOpponentOf(t *testing.T) {
	m := &Match{P1ParticipantID: intRef(1), P2ParticipantID: intRef(2)}

	assert.Equal(t, 2, *m.OpponentOf(1))
	assert.Equal(t, 1, *m.OpponentOf(2))
	assert.Nil(t, m.OpponentOf(99))

	assert.True(t, m.HasParticipant(1))
	assert.False(t, m.HasParticipant(99))
}

func TestParticipantIsBye(t *testing.T) {
	assert.True(t, (&Participant{ID: 1}).IsBye())
	assert.False(t, (&Participant{ID: 2, UserID: intRef(5)}).IsBye())
	assert.False(t, (&Participant{ID: 3, TeamID: intRef(7)}).IsBye())
}
