package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/brkpoint/tournament-platform/realtime"
	"github.com/brkpoint/tournament-platform/repositories"
	"github.com/brkpoint/tournament-platform/scheduling"
)

const (
	minMatchDuration = 15 * time.Minute
	maxMatchDuration = 180 * time.Minute
	maxRestTime      = 120 * time.Minute

	// Пауза между стадиями при турнирном автопланировании.
	interStageBuffer = time.Hour

	// Толерантность сравнения интервалов игроков в предпросмотре конфликтов.
	conflictSlop = 5 * time.Minute
)

// ScheduleOptions — параметры одного вызова планировщика.
type ScheduleOptions struct {
	MatchDurationMinutes int  `json:"match_duration_minutes"`
	RestTimeMinutes      int  `json:"rest_time_minutes"`
	FeatureTableID       *int `json:"feature_table_id,omitempty"`
}

func (o ScheduleOptions) validate() error {
	d := time.Duration(o.MatchDurationMinutes) * time.Minute
	if d < minMatchDuration || d > maxMatchDuration {
		return ErrInvalidMatchDuration
	}
	r := time.Duration(o.RestTimeMinutes) * time.Minute
	if r < 0 || r > maxRestTime {
		return ErrInvalidRestTime
	}
	return nil
}

func (o ScheduleOptions) toScheduling() scheduling.Options {
	return scheduling.Options{
		MatchDuration:  time.Duration(o.MatchDurationMinutes) * time.Minute,
		RestTime:       time.Duration(o.RestTimeMinutes) * time.Minute,
		FeatureTableID: o.FeatureTableID,
	}
}

// Типы конфликтов в предпросмотре / при ручном назначении.
const (
	ConflictTypeTable  = "table"
	ConflictTypePlayer = "player"
)

type ScheduleConflict struct {
	Type          string    `json:"type"`
	TableID       *int      `json:"table_id,omitempty"`
	ParticipantID *int      `json:"participant_id,omitempty"`
	SlotID        *int      `json:"slot_id,omitempty"`
	MatchID       *int      `json:"match_id,omitempty"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
}

type ScheduleService interface {
	// AutoScheduleStage размещает все планируемые матчи стадии одной
	// транзакцией. Возвращает размещённые матчи в порядке размещения;
	// матч, для которого не нашлось слота, остаётся pending и в ответ
	// не попадает.
	AutoScheduleStage(ctx context.Context, stageID int, startTime time.Time, opts ScheduleOptions) ([]*models.Match, error)
	// AutoScheduleTournament прогоняет стадии последовательно, поднимая
	// нижнюю границу старта следующей стадии.
	AutoScheduleTournament(ctx context.Context, tournamentID int, startTime time.Time, opts ScheduleOptions) ([]*models.Match, error)
	// ScheduleMatch вручную назначает матч на (стол, время). Конфликты
	// возвращаются данными, не ошибкой.
	ScheduleMatch(ctx context.Context, matchID, tableID int, startAt time.Time, opts ScheduleOptions) (*models.Match, []ScheduleConflict, error)
	RescheduleMatch(ctx context.Context, matchID, tableID int, startAt time.Time, opts ScheduleOptions) (*models.Match, []ScheduleConflict, error)
	// FindScheduleConflicts — предпросмотр конфликтов без записи.
	FindScheduleConflicts(ctx context.Context, matchID, tableID int, proposedAt time.Time, opts ScheduleOptions) ([]ScheduleConflict, error)
}

type scheduleService struct {
	db              *sql.DB
	stageRepo       repositories.StageRepository
	tableRepo       repositories.TableRepository
	slotRepo        repositories.SlotRepository
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	hub             *realtime.Hub
	logger          *slog.Logger
}

func NewScheduleService(
	db *sql.DB,
	stageRepo repositories.StageRepository,
	tableRepo repositories.TableRepository,
	slotRepo repositories.SlotRepository,
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	hub *realtime.Hub,
	logger *slog.Logger,
) ScheduleService {
	return &scheduleService{
		db:              db,
		stageRepo:       stageRepo,
		tableRepo:       tableRepo,
		slotRepo:        slotRepo,
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		hub:             hub,
		logger:          logger,
	}
}

func (s *scheduleService) AutoScheduleStage(ctx context.Context, stageID int, startTime time.Time, opts ScheduleOptions) ([]*models.Match, error) {
	if startTime.IsZero() {
		return nil, ErrScheduleStartRequired
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	stage, err := s.stageRepo.GetByID(ctx, stageID)
	if err != nil {
		if errors.Is(err, repositories.ErrStageNotFound) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}

	tables, err := s.loadTables(ctx, stage.TournamentID)
	if err != nil {
		return nil, err
	}

	queue, err := s.matchRepo.ListSchedulable(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedulable matches for stage %d: %w", stageID, err)
	}
	if len(queue) == 0 {
		return []*models.Match{}, nil
	}

	schedCtx, err := s.buildContext(ctx, stage.TournamentID, tables, startTime, opts)
	if err != nil {
		return nil, err
	}

	seeds, err := s.loadSeeds(ctx, stageID)
	if err != nil {
		return nil, err
	}

	placed := make([]*models.Match, 0, len(queue))

	// Все размещения прогона коммитятся одной транзакцией; advisory-лок
	// сериализует конкурентные прогоны по одному турниру.
	txErr := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if _, lockErr := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(stage.TournamentID)); lockErr != nil {
			return fmt.Errorf("failed to acquire tournament scheduling lock: %w", lockErr)
		}

		for _, m := range queue {
			placement, ok := schedCtx.FindEarliestSlot(m, seeds)
			if !ok {
				// Неразмещаемый матч не ошибка: остаётся pending.
				s.logger.Info("match skipped by auto-scheduler",
					slog.Int("match_id", m.ID), slog.Int("stage_id", stageID))
				continue
			}

			slot := &models.ScheduleSlot{
				TournamentID: stage.TournamentID,
				TableID:      placement.TableID,
				MatchID:      intPtr(m.ID),
				StartAt:      placement.Start,
				EndAt:        placement.End,
			}
			if createErr := s.slotRepo.Create(ctx, tx, slot); createErr != nil {
				return createErr
			}
			if updErr := s.matchRepo.UpdateSchedule(ctx, tx, m.ID, intPtr(placement.TableID), &placement.Start); updErr != nil {
				return updErr
			}

			schedCtx.Commit(m, placement)
			m.TableID = intPtr(placement.TableID)
			start := placement.Start
			m.ScheduledAt = &start
			placed = append(placed, m)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.logger.Info("stage auto-scheduled",
		slog.Int("stage_id", stageID),
		slog.Int("queued", len(queue)),
		slog.Int("placed", len(placed)))

	if len(placed) > 0 {
		s.hub.BroadcastToRoom(realtime.TournamentRoom(stage.TournamentID), realtime.Event{
			Type:    realtime.EventScheduleUpdated,
			Payload: placed,
			RoomID:  realtime.TournamentRoom(stage.TournamentID),
		})
	}
	return placed, nil
}

func (s *scheduleService) AutoScheduleTournament(ctx context.Context, tournamentID int, startTime time.Time, opts ScheduleOptions) ([]*models.Match, error) {
	if startTime.IsZero() {
		return nil, ErrScheduleStartRequired
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	stages, err := s.stageRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages for tournament %d: %w", tournamentID, err)
	}

	duration := time.Duration(opts.MatchDurationMinutes) * time.Minute
	floor := startTime
	allPlaced := make([]*models.Match, 0)

	for _, stage := range stages {
		placed, stageErr := s.AutoScheduleStage(ctx, stage.ID, floor, opts)
		if stageErr != nil {
			return nil, stageErr
		}
		allPlaced = append(allPlaced, placed...)

		if len(placed) > 0 {
			last := placed[len(placed)-1]
			lastEnd := last.ScheduledAt.Add(duration)
			floor = lastEnd.Add(duration + interStageBuffer)
		}
	}
	return allPlaced, nil
}

func (s *scheduleService) ScheduleMatch(ctx context.Context, matchID, tableID int, startAt time.Time, opts ScheduleOptions) (*models.Match, []ScheduleConflict, error) {
	match, err := s.loadStartableMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}

	stage, err := s.stageRepo.GetByID(ctx, match.StageID)
	if err != nil {
		return nil, nil, err
	}
	table, err := s.tableRepo.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrTableNotFound) {
			return nil, nil, ErrTableNotFound
		}
		return nil, nil, err
	}

	// Ручной путь обходит инкрементальные трекеры, поэтому точный слот
	// перепроверяется против закоммиченного состояния.
	conflicts, err := s.collectConflicts(ctx, match, stage.TournamentID, table.ID, startAt, opts, 0)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, conflicts, nil
	}

	end := startAt.Add(time.Duration(opts.MatchDurationMinutes) * time.Minute)
	txErr := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		slot := &models.ScheduleSlot{
			TournamentID: stage.TournamentID,
			TableID:      table.ID,
			MatchID:      intPtr(match.ID),
			StartAt:      startAt,
			EndAt:        end,
		}
		if createErr := s.slotRepo.Create(ctx, tx, slot); createErr != nil {
			return createErr
		}
		return s.matchRepo.UpdateSchedule(ctx, tx, match.ID, intPtr(table.ID), &startAt)
	})
	if txErr != nil {
		return nil, nil, txErr
	}

	match.TableID = intPtr(table.ID)
	match.ScheduledAt = &startAt
	s.hub.BroadcastToRoom(realtime.TournamentRoom(stage.TournamentID), realtime.Event{
		Type:    realtime.EventScheduleUpdated,
		Payload: match,
		RoomID:  realtime.TournamentRoom(stage.TournamentID),
	})
	return match, nil, nil
}

func (s *scheduleService) RescheduleMatch(ctx context.Context, matchID, tableID int, startAt time.Time, opts ScheduleOptions) (*models.Match, []ScheduleConflict, error) {
	match, err := s.loadStartableMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if match.ScheduledAt == nil || match.TableID == nil {
		return nil, nil, ErrMatchNotScheduled
	}

	stage, err := s.stageRepo.GetByID(ctx, match.StageID)
	if err != nil {
		return nil, nil, err
	}
	table, err := s.tableRepo.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrTableNotFound) {
			return nil, nil, ErrTableNotFound
		}
		return nil, nil, err
	}

	conflicts, err := s.collectConflicts(ctx, match, stage.TournamentID, table.ID, startAt, opts, 0)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, conflicts, nil
	}

	prevTableID := *match.TableID
	prevStart := *match.ScheduledAt
	end := startAt.Add(time.Duration(opts.MatchDurationMinutes) * time.Minute)

	txErr := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if delErr := s.slotRepo.DeleteByTableAndStart(ctx, tx, prevTableID, prevStart); delErr != nil {
			return delErr
		}
		slot := &models.ScheduleSlot{
			TournamentID: stage.TournamentID,
			TableID:      table.ID,
			MatchID:      intPtr(match.ID),
			StartAt:      startAt,
			EndAt:        end,
		}
		if createErr := s.slotRepo.Create(ctx, tx, slot); createErr != nil {
			return createErr
		}
		return s.matchRepo.UpdateSchedule(ctx, tx, match.ID, intPtr(table.ID), &startAt)
	})
	if txErr != nil {
		return nil, nil, txErr
	}

	match.TableID = intPtr(table.ID)
	match.ScheduledAt = &startAt
	s.propagateScheduleChanges(ctx, match)

	s.hub.BroadcastToRoom(realtime.TournamentRoom(stage.TournamentID), realtime.Event{
		Type:    realtime.EventScheduleUpdated,
		Payload: match,
		RoomID:  realtime.TournamentRoom(stage.TournamentID),
	})
	return match, nil, nil
}

// propagateScheduleChanges должен подталкивать время зависимых матчей при
// сдвиге родительского. Осознанная заглушка: затронутые матчи сейчас
// корректируются повторным прогоном auto-scheduler'а.
func (s *scheduleService) propagateScheduleChanges(_ context.Context, _ *models.Match) {
}

func (s *scheduleService) FindScheduleConflicts(ctx context.Context, matchID, tableID int, proposedAt time.Time, opts ScheduleOptions) ([]ScheduleConflict, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	match, err := s.matchRepo.GetByID(ctx, s.db, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	stage, err := s.stageRepo.GetByID(ctx, match.StageID)
	if err != nil {
		return nil, err
	}
	return s.collectConflicts(ctx, match, stage.TournamentID, tableID, proposedAt, opts, conflictSlop)
}

// collectConflicts собирает структурированный список конфликтов стола и
// игроков для предполагаемого слота. slop > 0 сжимает интервалы игроков
// с обеих сторон для толерантного сравнения в предпросмотре.
func (s *scheduleService) collectConflicts(
	ctx context.Context,
	match *models.Match,
	tournamentID, tableID int,
	startAt time.Time,
	opts ScheduleOptions,
	slop time.Duration,
) ([]ScheduleConflict, error) {
	duration := time.Duration(opts.MatchDurationMinutes) * time.Minute
	rest := time.Duration(opts.RestTimeMinutes) * time.Minute
	proposed := scheduling.NewInterval(startAt, duration)

	conflicts := make([]ScheduleConflict, 0)

	slots, err := s.slotRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		if slot.MatchID != nil && *slot.MatchID == match.ID {
			continue // собственный слот матча конфликтом не считается
		}
		if slot.TableID != tableID {
			continue
		}
		if proposed.Overlaps(scheduling.Interval{Start: slot.StartAt, End: slot.EndAt}) {
			id := slot.ID
			tID := slot.TableID
			conflicts = append(conflicts, ScheduleConflict{
				Type:    ConflictTypeTable,
				TableID: &tID,
				SlotID:  &id,
				MatchID: slot.MatchID,
				StartAt: slot.StartAt,
				EndAt:   slot.EndAt,
			})
		}
	}

	scheduled, err := s.matchRepo.ListScheduledByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	playerWindow := proposed
	if slop > 0 {
		playerWindow = proposed.Shrink(slop)
	}
	for _, other := range scheduled {
		if other.ID == match.ID || other.ScheduledAt == nil {
			continue
		}
		for _, pid := range []*int{match.P1ParticipantID, match.P2ParticipantID} {
			if pid == nil || !other.HasParticipant(*pid) {
				continue
			}
			busy := scheduling.Interval{
				Start: *other.ScheduledAt,
				End:   other.ScheduledAt.Add(duration + rest),
			}
			if slop > 0 {
				busy = busy.Shrink(slop)
			}
			if playerWindow.Overlaps(busy) {
				otherID := other.ID
				conflicts = append(conflicts, ScheduleConflict{
					Type:          ConflictTypePlayer,
					ParticipantID: pid,
					MatchID:       &otherID,
					StartAt:       *other.ScheduledAt,
					EndAt:         other.ScheduledAt.Add(duration),
				})
			}
		}
	}
	return conflicts, nil
}

// loadStartableMatch грузит матч и проверяет предикат canStart: оба слота
// заполнены, ни один участник не bye, статус не терминальный.
func (s *scheduleService) loadStartableMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, s.db, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if match.Status.IsTerminal() {
		return nil, ErrMatchAlreadyFinished
	}
	if match.P1ParticipantID == nil || match.P2ParticipantID == nil {
		return nil, ErrMatchNotStartable
	}
	p1, err := s.participantRepo.GetByID(ctx, *match.P1ParticipantID)
	if err != nil {
		return nil, err
	}
	p2, err := s.participantRepo.GetByID(ctx, *match.P2ParticipantID)
	if err != nil {
		return nil, err
	}
	if !match.CanStart(p1, p2) {
		return nil, ErrMatchNotStartable
	}
	return match, nil
}

func (s *scheduleService) loadTables(ctx context.Context, tournamentID int) ([]models.Table, error) {
	tablePtrs, err := s.tableRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tables for tournament %d: %w", tournamentID, err)
	}
	if len(tablePtrs) == 0 {
		return nil, ErrNoTablesConfigured
	}
	tables := make([]models.Table, len(tablePtrs))
	for i, t := range tablePtrs {
		tables[i] = *t
	}
	return tables, nil
}

// buildContext засевает трекеры доступности закоммиченным состоянием, чтобы
// повторный прогон видел эффект предыдущих и не двоил столы и игроков.
func (s *scheduleService) buildContext(ctx context.Context, tournamentID int, tables []models.Table, startTime time.Time, opts ScheduleOptions) (*scheduling.Context, error) {
	schedCtx := scheduling.NewContext(tables, startTime, opts.toScheduling())

	slots, err := s.slotRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		schedCtx.ObserveSlot(slot.TableID, slot.EndAt)
	}

	duration := time.Duration(opts.MatchDurationMinutes) * time.Minute
	scheduled, err := s.matchRepo.ListScheduledByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	// Сыгранные матчи тоже считаются: отдых после завершённого матча
	// действует на следующий прогон так же, как после ещё не сыгранного.
	for _, m := range scheduled {
		matchEnd := m.ScheduledAt.Add(duration)
		for _, pid := range []*int{m.P1ParticipantID, m.P2ParticipantID} {
			if pid != nil {
				schedCtx.ObservePlayerBusy(*pid, matchEnd)
			}
		}
	}
	return schedCtx, nil
}

func (s *scheduleService) loadSeeds(ctx context.Context, stageID int) (map[int]int, error) {
	participants, err := s.participantRepo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants for stage %d: %w", stageID, err)
	}
	seeds := make(map[int]int, len(participants))
	for _, p := range participants {
		seeds[p.ID] = p.Seed
	}
	return seeds, nil
}
