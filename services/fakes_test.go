package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/brkpoint/tournament-platform/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func timeRefT(v time.Time) *time.Time { return &v }

// tAt — момент турнирного дня в UTC.
func tAt(hour, minute int) time.Time {
	return time.Date(2026, 9, 12, hour, minute, 0, 0, time.UTC)
}

// participantSlotWrite — одна запись продвижения, как её зафиксировал
// fakeMatchRepo.
type participantSlotWrite struct {
	MatchID       int
	Slot          int
	ParticipantID int
}

// fakeMatchRepo держит матчи в памяти. GetByID и UpdateParticipantSlot
// работают с одним состоянием, поэтому чтение видит более ранние записи
// того же прогона — как реальный репозиторий внутри одной транзакции.
type fakeMatchRepo struct {
	matches    map[int]*models.Match
	slotWrites []participantSlotWrite
}

func newFakeMatchRepo(matches ...*models.Match) *fakeMatchRepo {
	repo := &fakeMatchRepo{matches: make(map[int]*models.Match)}
	for _, m := range matches {
		repo.matches[m.ID] = m
	}
	return repo
}

func (f *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	f.matches[match.ID] = match
	return nil
}

func (f *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMatchRepo) ListByStage(_ context.Context, stageID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range f.matches {
		if m.StageID != stageID {
			continue
		}
		if statusFilter != nil && m.Status != *statusFilter {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchRepo) ListSchedulable(_ context.Context, stageID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range f.matches {
		if m.StageID != stageID || m.Status != models.MatchStatusPending {
			continue
		}
		if m.P1ParticipantID == nil || m.P2ParticipantID == nil || m.ScheduledAt != nil {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if a.Bracket.SortOrder() != b.Bracket.SortOrder() {
			return a.Bracket.SortOrder() < b.Bracket.SortOrder()
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (f *fakeMatchRepo) ListScheduledByTournament(_ context.Context, _ int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range f.matches {
		if m.ScheduledAt != nil {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchRepo) UpdateSchedule(_ context.Context, _ repositories.SQLExecutor, matchID int, tableID *int, scheduledAt *time.Time) error {
	m, ok := f.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.TableID = tableID
	m.ScheduledAt = scheduledAt
	return nil
}

func (f *fakeMatchRepo) UpdateStatusWinner(_ context.Context, _ repositories.SQLExecutor, matchID int, status models.MatchStatus, winnerParticipantID *int) error {
	m, ok := f.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	m.WinnerParticipantID = winnerParticipantID
	return nil
}

func (f *fakeMatchRepo) UpdateParticipantSlot(_ context.Context, _ repositories.SQLExecutor, matchID int, slot int, participantID int) error {
	m, ok := f.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if slot == 1 {
		m.P1ParticipantID = &participantID
	} else {
		m.P2ParticipantID = &participantID
	}
	f.slotWrites = append(f.slotWrites, participantSlotWrite{MatchID: matchID, Slot: slot, ParticipantID: participantID})
	return nil
}

func (f *fakeMatchRepo) UpdateForwardEdges(_ context.Context, _ repositories.SQLExecutor, matchID int, m *models.Match) error {
	stored, ok := f.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	stored.NextMatchID = m.NextMatchID
	stored.NextSlot = m.NextSlot
	stored.LoserNextMatchID = m.LoserNextMatchID
	stored.LoserNextSlot = m.LoserNextSlot
	return nil
}

func (f *fakeMatchRepo) DeletePendingByStage(_ context.Context, _ repositories.SQLExecutor, stageID int) (int, error) {
	deleted := 0
	for id, m := range f.matches {
		if m.StageID == stageID && m.Status == models.MatchStatusPending {
			delete(f.matches, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeMatchRepo) ReplaceSets(_ context.Context, _ repositories.SQLExecutor, matchID int, sets []models.MatchSet) error {
	m, ok := f.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Sets = sets
	return nil
}

func (f *fakeMatchRepo) ListSets(_ context.Context, matchID int) ([]models.MatchSet, error) {
	m, ok := f.matches[matchID]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return m.Sets, nil
}

type fakeSlotRepo struct {
	slots []models.ScheduleSlot
}

func (f *fakeSlotRepo) Create(_ context.Context, _ repositories.SQLExecutor, slot *models.ScheduleSlot) error {
	slot.ID = len(f.slots) + 1
	f.slots = append(f.slots, *slot)
	return nil
}

func (f *fakeSlotRepo) ListByTournament(_ context.Context, _ int) ([]models.ScheduleSlot, error) {
	return f.slots, nil
}

func (f *fakeSlotRepo) ListByTable(_ context.Context, tableID int) ([]models.ScheduleSlot, error) {
	var out []models.ScheduleSlot
	for _, s := range f.slots {
		if s.TableID == tableID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) DeleteByTableAndStart(_ context.Context, _ repositories.SQLExecutor, tableID int, startAt time.Time) error {
	kept := f.slots[:0]
	for _, s := range f.slots {
		if s.TableID == tableID && s.StartAt.Equal(startAt) {
			continue
		}
		kept = append(kept, s)
	}
	f.slots = kept
	return nil
}

func (f *fakeSlotRepo) DeleteByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) error {
	kept := f.slots[:0]
	for _, s := range f.slots {
		if s.MatchID != nil && *s.MatchID == matchID {
			continue
		}
		kept = append(kept, s)
	}
	f.slots = kept
	return nil
}

type fakeStageRepo struct {
	stage *models.Stage
}

func (f *fakeStageRepo) Create(_ context.Context, _ *models.Stage) error {
	panic("not implemented")
}

func (f *fakeStageRepo) GetByID(_ context.Context, id int) (*models.Stage, error) {
	if f.stage == nil || f.stage.ID != id {
		return nil, repositories.ErrStageNotFound
	}
	return f.stage, nil
}

func (f *fakeStageRepo) ListByTournament(_ context.Context, _ int) ([]*models.Stage, error) {
	return []*models.Stage{f.stage}, nil
}
