package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/brkpoint/tournament-platform/progression"
	"github.com/brkpoint/tournament-platform/realtime"
	"github.com/brkpoint/tournament-platform/repositories"
)

// SetInput — результат одного сета при вводе счёта.
type SetInput struct {
	SetNo   int `json:"set_no"`
	P1Score int `json:"p1_score"`
	P2Score int `json:"p2_score"`
}

type MatchService interface {
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListByStage(ctx context.Context, stageID int, status *models.MatchStatus) ([]*models.Match, error)
	// StartMatch переводит pending → ongoing. Требует canStart.
	StartMatch(ctx context.Context, matchID int) (*models.Match, error)
	// SubmitScore записывает сеты. Матч завершается только при complete:
	// частичный счёт можно вносить по ходу игры. Завершение требует
	// строгого победителя по сетам и запускает продвижение.
	SubmitScore(ctx context.Context, matchID int, sets []SetInput, complete bool) (*models.Match, error)
	// Walkover завершает матч без игры с объявленным победителем и
	// запускает то же продвижение, что и обычное завершение.
	Walkover(ctx context.Context, matchID int, winnerParticipantID int) (*models.Match, error)
}

type matchService struct {
	db              *sql.DB
	matchRepo       repositories.MatchRepository
	stageRepo       repositories.StageRepository
	participantRepo repositories.ParticipantRepository
	hub             *realtime.Hub
	logger          *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	stageRepo repositories.StageRepository,
	participantRepo repositories.ParticipantRepository,
	hub *realtime.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:              db,
		matchRepo:       matchRepo,
		stageRepo:       stageRepo,
		participantRepo: participantRepo,
		hub:             hub,
		logger:          logger,
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, s.db, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	sets, err := s.matchRepo.ListSets(ctx, matchID)
	if err != nil {
		return nil, err
	}
	match.Sets = sets
	return match, nil
}

func (s *matchService) ListByStage(ctx context.Context, stageID int, status *models.MatchStatus) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByStage(ctx, stageID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for stage %d: %w", stageID, err)
	}
	return matches, nil
}

func (s *matchService) StartMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusPending {
		return nil, ErrInvalidStatusChange
	}
	p1, p2, err := s.loadParticipants(ctx, match)
	if err != nil {
		return nil, err
	}
	if !match.CanStart(p1, p2) {
		return nil, ErrMatchNotStartable
	}

	if err := s.matchRepo.UpdateStatusWinner(ctx, s.db, matchID, models.MatchStatusOngoing, nil); err != nil {
		return nil, err
	}
	match.Status = models.MatchStatusOngoing
	s.broadcast(ctx, match)
	return match, nil
}

func (s *matchService) SubmitScore(ctx context.Context, matchID int, sets []SetInput, complete bool) (*models.Match, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status.IsTerminal() {
		return nil, ErrMatchAlreadyFinished
	}
	if len(sets) == 0 {
		return nil, ErrNoSetsSubmitted
	}
	if match.P1ParticipantID == nil || match.P2ParticipantID == nil {
		return nil, ErrMatchMissingSlot
	}

	matchSets, p1Won, p2Won := s.tallySets(match, sets)

	var winnerID, loserID *int
	if p1Won > p2Won {
		winnerID, loserID = match.P1ParticipantID, match.P2ParticipantID
	} else if p2Won > p1Won {
		winnerID, loserID = match.P2ParticipantID, match.P1ParticipantID
	}

	if complete && winnerID == nil {
		return nil, ErrScoreTied
	}

	txErr := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if setErr := s.matchRepo.ReplaceSets(ctx, tx, matchID, matchSets); setErr != nil {
			return setErr
		}
		if !complete {
			// Промежуточный счёт: статус и продвижение не трогаем,
			// фиксируем только текущего лидера по сетам.
			return s.matchRepo.UpdateStatusWinner(ctx, tx, matchID, match.Status, nil)
		}
		if updErr := s.matchRepo.UpdateStatusWinner(ctx, tx, matchID, models.MatchStatusFinished, winnerID); updErr != nil {
			return updErr
		}
		return s.applyProgression(ctx, tx, match, *winnerID, *loserID)
	})
	if txErr != nil {
		return nil, txErr
	}

	match.Sets = matchSets
	if complete {
		match.Status = models.MatchStatusFinished
		match.WinnerParticipantID = winnerID
	}
	s.broadcast(ctx, match)
	return match, nil
}

func (s *matchService) Walkover(ctx context.Context, matchID int, winnerParticipantID int) (*models.Match, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status.IsTerminal() {
		return nil, ErrMatchAlreadyFinished
	}
	if match.P1ParticipantID == nil || match.P2ParticipantID == nil {
		return nil, ErrMatchMissingSlot
	}
	if !match.HasParticipant(winnerParticipantID) {
		return nil, ErrWinnerNotInMatch
	}
	loserID := match.OpponentOf(winnerParticipantID)

	txErr := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if updErr := s.matchRepo.UpdateStatusWinner(ctx, tx, matchID, models.MatchStatusWalkover, &winnerParticipantID); updErr != nil {
			return updErr
		}
		// Волкавер продвигает объявленного победителя ровно так же, как
		// обычное завершение продвигает победителя по сетам.
		return s.applyProgression(ctx, tx, match, winnerParticipantID, *loserID)
	})
	if txErr != nil {
		return nil, txErr
	}

	match.Status = models.MatchStatusWalkover
	match.WinnerParticipantID = &winnerParticipantID
	s.broadcast(ctx, match)
	return match, nil
}

// applyProgression выбирает стратегию по типу стадии и применяет
// вычисленные назначения слотов. Повторное применение идентичного
// назначения безвредно: запись перезаписывает то же значение.
func (s *matchService) applyProgression(ctx context.Context, tx *sql.Tx, match *models.Match, winnerID, loserID int) error {
	stage, err := s.stageRepo.GetByID(ctx, match.StageID)
	if err != nil {
		return err
	}
	strategy, err := progression.ForBracketType(stage.BracketType)
	if err != nil {
		return err
	}

	assignments := strategy.Advance(match, winnerID, loserID)
	for _, a := range assignments {
		slot := a.Slot
		if slot == 0 {
			slot, err = s.resolveSlot(ctx, tx, match.ID, a.MatchID)
			if err != nil {
				return err
			}
		}
		if err := s.matchRepo.UpdateParticipantSlot(ctx, tx, a.MatchID, slot, a.ParticipantID); err != nil {
			return err
		}
		s.logger.Info("participant advanced",
			slog.Int("from_match_id", match.ID),
			slog.Int("to_match_id", a.MatchID),
			slog.Int("slot", slot),
			slog.Int("participant_id", a.ParticipantID))
	}
	return nil
}

// resolveSlot определяет слот целевого матча по его backward-рёбрам, когда
// forward-ребро не несёт номер слота: источник prev_match_1 кормит слот 1,
// prev_match_2 — слот 2, иначе берётся первый свободный. Читает целевой
// матч через exec: два назначения в одной транзакции должны видеть
// записи друг друга.
func (s *matchService) resolveSlot(ctx context.Context, exec repositories.SQLExecutor, sourceMatchID, targetMatchID int) (int, error) {
	target, err := s.matchRepo.GetByID(ctx, exec, targetMatchID)
	if err != nil {
		return 0, err
	}
	switch {
	case target.PrevMatch1ID != nil && *target.PrevMatch1ID == sourceMatchID:
		return 1, nil
	case target.PrevMatch2ID != nil && *target.PrevMatch2ID == sourceMatchID:
		return 2, nil
	case target.P1ParticipantID == nil:
		return 1, nil
	case target.P2ParticipantID == nil:
		return 2, nil
	}
	return 0, fmt.Errorf("no open slot in match %d for winner of match %d", targetMatchID, sourceMatchID)
}

func (s *matchService) tallySets(match *models.Match, sets []SetInput) ([]models.MatchSet, int, int) {
	matchSets := make([]models.MatchSet, 0, len(sets))
	p1Won, p2Won := 0, 0
	for _, in := range sets {
		set := models.MatchSet{
			MatchID: match.ID,
			SetNo:   in.SetNo,
			P1Score: in.P1Score,
			P2Score: in.P2Score,
		}
		if in.P1Score > in.P2Score {
			set.WinnerParticipantID = match.P1ParticipantID
			p1Won++
		} else if in.P2Score > in.P1Score {
			set.WinnerParticipantID = match.P2ParticipantID
			p2Won++
		}
		matchSets = append(matchSets, set)
	}
	return matchSets, p1Won, p2Won
}

func (s *matchService) loadParticipants(ctx context.Context, match *models.Match) (*models.Participant, *models.Participant, error) {
	var p1, p2 *models.Participant
	var err error
	if match.P1ParticipantID != nil {
		p1, err = s.participantRepo.GetByID(ctx, *match.P1ParticipantID)
		if err != nil {
			return nil, nil, err
		}
	}
	if match.P2ParticipantID != nil {
		p2, err = s.participantRepo.GetByID(ctx, *match.P2ParticipantID)
		if err != nil {
			return nil, nil, err
		}
	}
	return p1, p2, nil
}

func (s *matchService) broadcast(ctx context.Context, match *models.Match) {
	stage, err := s.stageRepo.GetByID(ctx, match.StageID)
	if err != nil {
		s.logger.Warn("failed to resolve stage for broadcast",
			slog.Int("match_id", match.ID), slog.Any("error", err))
		return
	}
	room := realtime.TournamentRoom(stage.TournamentID)
	s.hub.BroadcastToRoom(room, realtime.Event{
		Type:    realtime.EventMatchUpdated,
		Payload: match,
		RoomID:  room,
	})
}
