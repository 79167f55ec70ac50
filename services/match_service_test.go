package services

import (
	"context"
	"testing"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intRefT(v int) *int { return &v }

// fourPlayerBracket — полуфиналы кормят финал через backward-рёбра,
// номер слота в forward-ребре не задан.
func fourPlayerBracket() (*fakeMatchRepo, *models.Match, *models.Match, *models.Match) {
	semi1 := &models.Match{ID: 1, StageID: 7, Round: 1, Status: models.MatchStatusOngoing,
		P1ParticipantID: intRefT(1), P2ParticipantID: intRefT(2), NextMatchID: intRefT(3)}
	semi2 := &models.Match{ID: 2, StageID: 7, Round: 1, Status: models.MatchStatusOngoing,
		P1ParticipantID: intRefT(3), P2ParticipantID: intRefT(4), NextMatchID: intRefT(3)}
	final := &models.Match{ID: 3, StageID: 7, Round: 2, Status: models.MatchStatusPending,
		PrevMatch1ID: intRefT(1), PrevMatch2ID: intRefT(2)}
	return newFakeMatchRepo(semi1, semi2, final), semi1, semi2, final
}

func newTestMatchService(repo *fakeMatchRepo, bracket models.BracketType) *matchService {
	return &matchService{
		matchRepo: repo,
		stageRepo: &fakeStageRepo{stage: &models.Stage{ID: 7, BracketType: bracket}},
		logger:    testLogger(),
	}
}

func TestTallySets(t *testing.T) {
	svc := &matchService{}
	match := &models.Match{
		ID:              1,
		P1ParticipantID: intRefT(10),
		P2ParticipantID: intRefT(11),
	}

	t.Run("clear winner", func(t *testing.T) {
		sets, p1Won, p2Won := svc.tallySets(match, []SetInput{
			{SetNo: 1, P1Score: 11, P2Score: 7},
			{SetNo: 2, P1Score: 9, P2Score: 11},
			{SetNo: 3, P1Score: 11, P2Score: 5},
		})
		require.Len(t, sets, 3)
		assert.Equal(t, 2, p1Won)
		assert.Equal(t, 1, p2Won)
		assert.Equal(t, 10, *sets[0].WinnerParticipantID)
		assert.Equal(t, 11, *sets[1].WinnerParticipantID)
	})

	t.Run("drawn set counts for neither player", func(t *testing.T) {
		sets, p1Won, p2Won := svc.tallySets(match, []SetInput{
			{SetNo: 1, P1Score: 10, P2Score: 10},
		})
		require.Len(t, sets, 1)
		assert.Nil(t, sets[0].WinnerParticipantID)
		assert.Zero(t, p1Won)
		assert.Zero(t, p2Won)
	})

	t.Run("tied tally", func(t *testing.T) {
		_, p1Won, p2Won := svc.tallySets(match, []SetInput{
			{SetNo: 1, P1Score: 11, P2Score: 3},
			{SetNo: 2, P1Score: 8, P2Score: 11},
		})
		assert.Equal(t, p1Won, p2Won, "a tied tally must be reported as tied")
	})
}

// Сетка на четырёх участников доигрывается до одного победителя: слоты
// финала заполняются по backward-рёбрам, у самого финала forward-рёбер
// нет и продвигать из него некуда.
func TestApplyProgressionSingleElimination(t *testing.T) {
	ctx := context.Background()
	repo, semi1, semi2, final := fourPlayerBracket()
	svc := newTestMatchService(repo, models.BracketSingleElimination)

	require.NoError(t, svc.applyProgression(ctx, nil, semi1, 1, 2))
	require.NoError(t, svc.applyProgression(ctx, nil, semi2, 4, 3))

	got, err := repo.GetByID(ctx, nil, final.ID)
	require.NoError(t, err)
	require.NotNil(t, got.P1ParticipantID)
	require.NotNil(t, got.P2ParticipantID)
	assert.Equal(t, 1, *got.P1ParticipantID, "победитель первого полуфинала идёт в слот 1")
	assert.Equal(t, 4, *got.P2ParticipantID, "победитель второго полуфинала идёт в слот 2")

	// Завершение финала назначений не порождает.
	require.NoError(t, svc.applyProgression(ctx, nil, got, 4, 1))
	assert.Len(t, repo.slotWrites, 2)
}

func TestApplyProgressionRepeatIsHarmless(t *testing.T) {
	ctx := context.Background()
	repo, semi1, _, final := fourPlayerBracket()
	svc := newTestMatchService(repo, models.BracketSingleElimination)

	require.NoError(t, svc.applyProgression(ctx, nil, semi1, 1, 2))
	require.NoError(t, svc.applyProgression(ctx, nil, semi1, 1, 2))

	got, err := repo.GetByID(ctx, nil, final.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *got.P1ParticipantID)
	assert.Nil(t, got.P2ParticipantID, "повтор не должен занять второй слот")
}

// Волковер продвигает объявленного победителя ровно так же, как завершение
// по счёту продвигает победителя по сетам: одинаковые записи в целевом
// матче при одном и том же исходе.
func TestWalkoverAdvancesLikeFinish(t *testing.T) {
	ctx := context.Background()

	byScore := func() []participantSlotWrite {
		repo, semi1, _, _ := fourPlayerBracket()
		svc := newTestMatchService(repo, models.BracketSingleElimination)

		_, p1Won, p2Won := svc.tallySets(semi1, []SetInput{
			{SetNo: 1, P1Score: 11, P2Score: 7},
			{SetNo: 2, P1Score: 11, P2Score: 9},
		})
		require.Greater(t, p1Won, p2Won)
		winnerID := *semi1.P1ParticipantID
		loserID := semi1.OpponentOf(winnerID)
		require.NoError(t, svc.applyProgression(ctx, nil, semi1, winnerID, *loserID))
		return repo.slotWrites
	}

	byWalkover := func() []participantSlotWrite {
		repo, semi1, _, _ := fourPlayerBracket()
		svc := newTestMatchService(repo, models.BracketSingleElimination)

		winnerID := 1 // соперник не явился
		loserID := semi1.OpponentOf(winnerID)
		require.NoError(t, svc.applyProgression(ctx, nil, semi1, winnerID, *loserID))
		return repo.slotWrites
	}

	assert.Equal(t, byScore(), byWalkover())
}

// Целевой матч без backward-рёбер: слот берётся первым свободным, и второе
// продвижение обязано видеть запись первого — иначе оба победителя
// оказались бы в слоте 1.
func TestResolveSlotSeesEarlierWrite(t *testing.T) {
	ctx := context.Background()
	semi1 := &models.Match{ID: 1, StageID: 7, Round: 1, Status: models.MatchStatusOngoing,
		P1ParticipantID: intRefT(1), P2ParticipantID: intRefT(2), NextMatchID: intRefT(3)}
	semi2 := &models.Match{ID: 2, StageID: 7, Round: 1, Status: models.MatchStatusOngoing,
		P1ParticipantID: intRefT(3), P2ParticipantID: intRefT(4), NextMatchID: intRefT(3)}
	final := &models.Match{ID: 3, StageID: 7, Round: 2, Status: models.MatchStatusPending}
	repo := newFakeMatchRepo(semi1, semi2, final)
	svc := newTestMatchService(repo, models.BracketSingleElimination)

	require.NoError(t, svc.applyProgression(ctx, nil, semi1, 2, 1))
	require.NoError(t, svc.applyProgression(ctx, nil, semi2, 3, 4))

	got, err := repo.GetByID(ctx, nil, final.ID)
	require.NoError(t, err)
	require.NotNil(t, got.P1ParticipantID)
	require.NotNil(t, got.P2ParticipantID)
	assert.Equal(t, 2, *got.P1ParticipantID)
	assert.Equal(t, 3, *got.P2ParticipantID)
}
