package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/brkpoint/tournament-platform/repositories"
	"github.com/brkpoint/tournament-platform/storage"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

type CreateStageInput struct {
	Name        string             `json:"name"`
	BracketType models.BracketType `json:"bracket_type"`
	StageOrder  int                `json:"stage_order"`
}

type CreateTableInput struct {
	Name       string  `json:"name"`
	ClothSpeed *string `json:"cloth_speed,omitempty"`
}

// BracketMatchInput — один матч из выгрузки внешнего генератора сетки.
// Рёбра ссылаются на Ref других матчей того же запроса, движок сам
// переводит их в ID после вставки.
type BracketMatchInput struct {
	Ref               string             `json:"ref"`
	Round             int                `json:"round"`
	Bracket           models.BracketSide `json:"bracket"`
	IsGrandFinal      bool               `json:"is_grand_final"`
	P1ParticipantID   *int               `json:"p1_participant_id,omitempty"`
	P2ParticipantID   *int               `json:"p2_participant_id,omitempty"`
	PrevMatch1Ref     *string            `json:"prev_match_1_ref,omitempty"`
	PrevMatch2Ref     *string            `json:"prev_match_2_ref,omitempty"`
	NextMatchRef      *string            `json:"next_match_ref,omitempty"`
	NextSlot          *int               `json:"next_slot,omitempty"`
	LoserNextMatchRef *string            `json:"loser_next_match_ref,omitempty"`
	LoserNextSlot     *int               `json:"loser_next_slot,omitempty"`
}

// StageBracket — полные данные стадии для отображения сетки.
type StageBracket struct {
	Stage        *models.Stage         `json:"stage"`
	Participants []models.Participant  `json:"participants"`
	Matches      []models.Match        `json:"matches"`
	Slots        []models.ScheduleSlot `json:"slots"`
	Tables       []models.Table        `json:"tables"`
}

type TournamentService interface {
	Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	UploadLogo(ctx context.Context, tournamentID int, contentType string, reader io.Reader) (*models.Tournament, error)

	CreateStage(ctx context.Context, tournamentID int, input CreateStageInput) (*models.Stage, error)
	CreateTable(ctx context.Context, tournamentID int, input CreateTableInput) (*models.Table, error)
	AddParticipant(ctx context.Context, stageID int, seed int, userID, teamID *int) (*models.Participant, error)

	// ImportBracket принимает выгрузку внешнего генератора сетки: pending
	// матчи со слотами участников и рёбрами, одной транзакцией.
	ImportBracket(ctx context.Context, stageID int, inputs []BracketMatchInput) ([]*models.Match, error)
	// ResetStage удаляет pending матчи стадии вместе с их слотами;
	// сыгранные матчи не трогаются.
	ResetStage(ctx context.Context, stageID int) (int, error)
	GetStageBracket(ctx context.Context, stageID int) (*StageBracket, error)

	// AutoUpdateStatusesByDates переводит турниры по датам:
	// soon → active после StartDate, active → completed после EndDate.
	// Вызывается фоновым тикером.
	AutoUpdateStatusesByDates(ctx context.Context) error
}

type tournamentService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	stageRepo       repositories.StageRepository
	tableRepo       repositories.TableRepository
	slotRepo        repositories.SlotRepository
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	stageRepo repositories.StageRepository,
	tableRepo repositories.TableRepository,
	slotRepo repositories.SlotRepository,
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		stageRepo:       stageRepo,
		tableRepo:       tableRepo,
		slotRepo:        slotRepo,
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() || !input.StartDate.Before(input.EndDate) {
		return nil, fmt.Errorf("%w: start date must be before end date", ErrValidationFailed)
	}

	tournament := &models.Tournament{
		Name:        input.Name,
		Description: input.Description,
		Location:    input.Location,
		OrganizerID: organizerID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      models.StatusSoon,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameTaken
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.populateLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, tournamentID int, contentType string, reader io.Reader) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	key := fmt.Sprintf("tournaments/%d/logo%s", tournamentID, ext)

	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament logo: %w", err)
	}
	if err := s.tournamentRepo.UpdateLogoKey(ctx, tournamentID, &result.Key); err != nil {
		return nil, err
	}
	tournament.LogoKey = &result.Key
	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) CreateStage(ctx context.Context, tournamentID int, input CreateStageInput) (*models.Stage, error) {
	switch input.BracketType {
	case models.BracketSingleElimination, models.BracketDoubleElimination, models.BracketRoundRobin:
	default:
		return nil, ErrStageHasNoBracketType
	}
	if _, err := s.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}

	stage := &models.Stage{
		TournamentID: tournamentID,
		Name:         input.Name,
		BracketType:  input.BracketType,
		StageOrder:   input.StageOrder,
	}
	if err := s.stageRepo.Create(ctx, stage); err != nil {
		return nil, fmt.Errorf("failed to create stage: %w", err)
	}
	return stage, nil
}

func (s *tournamentService) CreateTable(ctx context.Context, tournamentID int, input CreateTableInput) (*models.Table, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: table name is required", ErrValidationFailed)
	}
	if _, err := s.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}

	table := &models.Table{
		TournamentID: tournamentID,
		Name:         input.Name,
		ClothSpeed:   input.ClothSpeed,
	}
	if err := s.tableRepo.Create(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return table, nil
}

func (s *tournamentService) AddParticipant(ctx context.Context, stageID int, seed int, userID, teamID *int) (*models.Participant, error) {
	if _, err := s.stageRepo.GetByID(ctx, stageID); err != nil {
		if errors.Is(err, repositories.ErrStageNotFound) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}
	participant := &models.Participant{
		StageID: stageID,
		Seed:    seed,
		UserID:  userID,
		TeamID:  teamID,
	}
	if err := s.participantRepo.Create(ctx, s.db, participant); err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}
	return participant, nil
}

func (s *tournamentService) ImportBracket(ctx context.Context, stageID int, inputs []BracketMatchInput) ([]*models.Match, error) {
	if _, err := s.stageRepo.GetByID(ctx, stageID); err != nil {
		if errors.Is(err, repositories.ErrStageNotFound) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: bracket import requires at least one match", ErrValidationFailed)
	}

	created := make([]*models.Match, 0, len(inputs))
	txErr := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		// Первый проход: вставляем матчи и запоминаем ID по Ref.
		refToID := make(map[string]int, len(inputs))
		for _, in := range inputs {
			if in.Ref == "" {
				return fmt.Errorf("%w: bracket match ref is required", ErrValidationFailed)
			}
			if _, dup := refToID[in.Ref]; dup {
				return fmt.Errorf("%w: duplicate bracket match ref %q", ErrValidationFailed, in.Ref)
			}
			m := &models.Match{
				StageID:         stageID,
				Round:           in.Round,
				Bracket:         in.Bracket,
				Status:          models.MatchStatusPending,
				IsGrandFinal:    in.IsGrandFinal,
				P1ParticipantID: in.P1ParticipantID,
				P2ParticipantID: in.P2ParticipantID,
			}
			if err := s.matchRepo.Create(ctx, tx, m); err != nil {
				return err
			}
			refToID[in.Ref] = m.ID
			created = append(created, m)
		}

		// Второй проход: переводим Ref-рёбра в ID и проставляем их.
		resolve := func(ref *string) (*int, error) {
			if ref == nil {
				return nil, nil
			}
			id, ok := refToID[*ref]
			if !ok {
				return nil, fmt.Errorf("%w: unknown bracket match ref %q", ErrValidationFailed, *ref)
			}
			return &id, nil
		}
		for i, in := range inputs {
			m := created[i]
			var err error
			if m.PrevMatch1ID, err = resolve(in.PrevMatch1Ref); err != nil {
				return err
			}
			if m.PrevMatch2ID, err = resolve(in.PrevMatch2Ref); err != nil {
				return err
			}
			if m.NextMatchID, err = resolve(in.NextMatchRef); err != nil {
				return err
			}
			if m.LoserNextMatchID, err = resolve(in.LoserNextMatchRef); err != nil {
				return err
			}
			m.NextSlot = in.NextSlot
			m.LoserNextSlot = in.LoserNextSlot
			if err = s.matchRepo.UpdateForwardEdges(ctx, tx, m.ID, m); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.logger.Info("bracket imported", slog.Int("stage_id", stageID), slog.Int("matches", len(created)))
	return created, nil
}

func (s *tournamentService) ResetStage(ctx context.Context, stageID int) (int, error) {
	if _, err := s.stageRepo.GetByID(ctx, stageID); err != nil {
		if errors.Is(err, repositories.ErrStageNotFound) {
			return 0, ErrStageNotFound
		}
		return 0, err
	}

	pendingStatus := models.MatchStatusPending
	pending, err := s.matchRepo.ListByStage(ctx, stageID, &pendingStatus)
	if err != nil {
		return 0, err
	}

	deleted := 0
	txErr := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		for _, m := range pending {
			if delErr := s.slotRepo.DeleteByMatch(ctx, tx, m.ID); delErr != nil {
				return delErr
			}
		}
		var delErr error
		deleted, delErr = s.matchRepo.DeletePendingByStage(ctx, tx, stageID)
		return delErr
	})
	if txErr != nil {
		return 0, txErr
	}
	return deleted, nil
}

// GetStageBracket грузит составляющие сетки параллельно.
func (s *tournamentService) GetStageBracket(ctx context.Context, stageID int) (*StageBracket, error) {
	stage, err := s.stageRepo.GetByID(ctx, stageID)
	if err != nil {
		if errors.Is(err, repositories.ErrStageNotFound) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}

	bracket := &StageBracket{Stage: stage}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		participants, pErr := s.participantRepo.ListByStage(gCtx, stageID)
		if pErr != nil {
			return fmt.Errorf("failed to fetch stage participants: %w", pErr)
		}
		bracket.Participants = make([]models.Participant, len(participants))
		for i, p := range participants {
			if p != nil {
				bracket.Participants[i] = *p
			}
		}
		return nil
	})

	g.Go(func() error {
		matches, mErr := s.matchRepo.ListByStage(gCtx, stageID, nil)
		if mErr != nil {
			return fmt.Errorf("failed to fetch stage matches: %w", mErr)
		}
		bracket.Matches = make([]models.Match, len(matches))
		for i, m := range matches {
			if m != nil {
				bracket.Matches[i] = *m
			}
		}
		return nil
	})

	g.Go(func() error {
		slots, sErr := s.slotRepo.ListByTournament(gCtx, stage.TournamentID)
		if sErr != nil {
			return fmt.Errorf("failed to fetch schedule slots: %w", sErr)
		}
		bracket.Slots = slots
		return nil
	})

	g.Go(func() error {
		tables, tErr := s.tableRepo.ListByTournament(gCtx, stage.TournamentID)
		if tErr != nil {
			return fmt.Errorf("failed to fetch tables: %w", tErr)
		}
		bracket.Tables = make([]models.Table, len(tables))
		for i, t := range tables {
			if t != nil {
				bracket.Tables[i] = *t
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bracket, nil
}

func (s *tournamentService) AutoUpdateStatusesByDates(ctx context.Context) error {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tournaments for status update: %w", err)
	}

	now := time.Now()
	for _, t := range tournaments {
		var next models.TournamentStatus
		switch {
		case (t.Status == models.StatusSoon || t.Status == models.StatusRegistration) && !now.Before(t.StartDate):
			next = models.StatusActive
		case t.Status == models.StatusActive && now.After(t.EndDate):
			next = models.StatusCompleted
		default:
			continue
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, t.ID, next); err != nil {
			s.logger.Error("failed to update tournament status",
				slog.Int("tournament_id", t.ID),
				slog.String("status", string(next)),
				slog.Any("error", err))
			continue
		}
		s.logger.Info("tournament status updated",
			slog.Int("tournament_id", t.ID),
			slog.String("from", string(t.Status)),
			slog.String("to", string(next)))
	}
	return nil
}

func (s *tournamentService) populateLogoURL(t *models.Tournament) {
	if t == nil || t.LogoKey == nil || *t.LogoKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*t.LogoKey); url != "" {
		t.LogoURL = &url
	}
}

func extensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("unsupported logo content type %q", contentType)
	}
}
