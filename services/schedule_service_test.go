package services

import (
	"context"
	"testing"
	"time"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    ScheduleOptions
		wantErr error
	}{
		{
			name: "typical options",
			opts: ScheduleOptions{MatchDurationMinutes: 45, RestTimeMinutes: 30},
		},
		{
			name: "minimum duration",
			opts: ScheduleOptions{MatchDurationMinutes: 15, RestTimeMinutes: 0},
		},
		{
			name:    "duration too short",
			opts:    ScheduleOptions{MatchDurationMinutes: 10, RestTimeMinutes: 30},
			wantErr: ErrInvalidMatchDuration,
		},
		{
			name:    "duration too long",
			opts:    ScheduleOptions{MatchDurationMinutes: 240, RestTimeMinutes: 30},
			wantErr: ErrInvalidMatchDuration,
		},
		{
			name:    "rest time too long",
			opts:    ScheduleOptions{MatchDurationMinutes: 45, RestTimeMinutes: 180},
			wantErr: ErrInvalidRestTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduleOptionsToScheduling(t *testing.T) {
	feature := 3
	opts := ScheduleOptions{
		MatchDurationMinutes: 45,
		RestTimeMinutes:      30,
		FeatureTableID:       &feature,
	}

	converted := opts.toScheduling()
	assert.Equal(t, 45*time.Minute, converted.MatchDuration)
	assert.Equal(t, 30*time.Minute, converted.RestTime)
	assert.Equal(t, &feature, converted.FeatureTableID)
}

// Два прогона планировщика подряд: первый раскладывает полуфиналы, второй —
// финал. Отдых победителей считается и от уже сыгранных матчей, поэтому
// финал не может встать раньше чем через rest после конца полуфиналов.
func TestRerunCountsRestFromPlayedMatches(t *testing.T) {
	ctx := context.Background()
	opts := ScheduleOptions{MatchDurationMinutes: 45, RestTimeMinutes: 30}
	tables := []models.Table{
		{ID: 1, TournamentID: 1, Name: "Стол 1"},
		{ID: 2, TournamentID: 1, Name: "Стол 2"},
	}

	semi1 := &models.Match{ID: 1, StageID: 1, Round: 1, Status: models.MatchStatusPending,
		P1ParticipantID: intRefT(10), P2ParticipantID: intRefT(11)}
	semi2 := &models.Match{ID: 2, StageID: 1, Round: 1, Status: models.MatchStatusPending,
		P1ParticipantID: intRefT(12), P2ParticipantID: intRefT(13)}

	slots := &fakeSlotRepo{}
	svc := &scheduleService{
		slotRepo:  slots,
		matchRepo: newFakeMatchRepo(semi1, semi2),
		logger:    testLogger(),
	}

	// Первый прогон: пустое состояние, оба полуфинала встают на 09:00.
	run1, err := svc.buildContext(ctx, 1, tables, tAt(9, 0), opts)
	require.NoError(t, err)
	for _, m := range []*models.Match{semi1, semi2} {
		placement, ok := run1.FindEarliestSlot(m, nil)
		require.True(t, ok)
		assert.Equal(t, tAt(9, 0), placement.Start)

		require.NoError(t, slots.Create(ctx, nil, &models.ScheduleSlot{
			TournamentID: 1,
			TableID:      placement.TableID,
			MatchID:      &m.ID,
			StartAt:      placement.Start,
			EndAt:        placement.End,
		}))
		m.TableID = &placement.TableID
		m.ScheduledAt = timeRefT(placement.Start)
		run1.Commit(m, placement)
	}

	// Полуфиналы сыграны: один по сетам, второй волковером. Терминальный
	// статус не отменяет отдых после матча.
	semi1.Status = models.MatchStatusFinished
	semi1.WinnerParticipantID = intRefT(10)
	semi2.Status = models.MatchStatusWalkover
	semi2.WinnerParticipantID = intRefT(12)

	run2, err := svc.buildContext(ctx, 1, tables, tAt(9, 45), opts)
	require.NoError(t, err)

	final := &models.Match{ID: 3, StageID: 1, Round: 2, Status: models.MatchStatusPending,
		P1ParticipantID: intRefT(10), P2ParticipantID: intRefT(12)}
	placement, ok := run2.FindEarliestSlot(final, nil)
	require.True(t, ok)
	assert.Equal(t, tAt(10, 15), placement.Start,
		"финал должен ждать отдых победителей: 09:45 + 30 минут")
}
