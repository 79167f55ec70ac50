package scheduling

import (
	"testing"
	"time"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/stretchr/testify/assert"
)

func intRef(v int) *int { return &v }

func TestTableIsFree(t *testing.T) {
	slots := []models.ScheduleSlot{
		{ID: 1, TableID: 1, StartAt: at(9, 0), EndAt: at(9, 45)},
		{ID: 2, TableID: 2, StartAt: at(9, 0), EndAt: at(9, 45)},
	}

	assert.False(t, TableIsFree(slots, 1, NewInterval(at(9, 30), 45*time.Minute)))
	// Стык впритык — не конфликт.
	assert.True(t, TableIsFree(slots, 1, NewInterval(at(9, 45), 45*time.Minute)))
	// Чужой стол не мешает.
	assert.True(t, TableIsFree(slots, 3, NewInterval(at(9, 0), 45*time.Minute)))
}

func TestPlayerIsFree(t *testing.T) {
	scheduledAt := at(9, 0)
	matches := []*models.Match{
		{
			ID:              1,
			P1ParticipantID: intRef(10),
			P2ParticipantID: intRef(11),
			ScheduledAt:     &scheduledAt,
		},
		{
			// Незапланированный матч не занимает игрока.
			ID:              2,
			P1ParticipantID: intRef(12),
			P2ParticipantID: intRef(13),
		},
	}

	duration := 45 * time.Minute
	rest := 30 * time.Minute

	// Игрок занят матчем 09:00-09:45 и отдыхает до 10:15.
	assert.False(t, PlayerIsFree(matches, 10, NewInterval(at(9, 50), duration), duration, rest))
	assert.False(t, PlayerIsFree(matches, 11, NewInterval(at(10, 0), duration), duration, rest))
	assert.True(t, PlayerIsFree(matches, 10, NewInterval(at(10, 15), duration), duration, rest))

	// Участник без назначенных матчей свободен всегда.
	assert.True(t, PlayerIsFree(matches, 12, NewInterval(at(9, 0), duration), duration, rest))
	assert.True(t, PlayerIsFree(matches, 99, NewInterval(at(9, 0), duration), duration, rest))
}
