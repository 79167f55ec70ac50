package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/lib/pq"
)

var (
	ErrStageNotFound          = errors.New("stage not found")
	ErrStageTournamentInvalid = errors.New("stage tournament conflict or invalid")
)

type StageRepository interface {
	Create(ctx context.Context, stage *models.Stage) error
	GetByID(ctx context.Context, id int) (*models.Stage, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error)
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

func (r *postgresStageRepository) Create(ctx context.Context, stage *models.Stage) error {
	query := `
		INSERT INTO stages (tournament_id, name, bracket_type, stage_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		stage.TournamentID,
		stage.Name,
		stage.BracketType,
		stage.StageOrder,
	).Scan(&stage.ID, &stage.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Constraint == "stages_tournament_id_fkey" {
			return ErrStageTournamentInvalid
		}
	}
	return err
}

func (r *postgresStageRepository) GetByID(ctx context.Context, id int) (*models.Stage, error) {
	query := `
		SELECT id, tournament_id, name, bracket_type, stage_order, created_at
		FROM stages WHERE id = $1`

	stage := &models.Stage{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&stage.ID,
		&stage.TournamentID,
		&stage.Name,
		&stage.BracketType,
		&stage.StageOrder,
		&stage.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to scan stage by id %d: %w", id, err)
	}
	return stage, nil
}

func (r *postgresStageRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error) {
	query := `
		SELECT id, tournament_id, name, bracket_type, stage_order, created_at
		FROM stages
		WHERE tournament_id = $1
		ORDER BY stage_order ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		stage := &models.Stage{}
		if scanErr := rows.Scan(
			&stage.ID,
			&stage.TournamentID,
			&stage.Name,
			&stage.BracketType,
			&stage.StageOrder,
			&stage.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan stage row: %w", scanErr)
		}
		stages = append(stages, stage)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during stage rows iteration: %w", err)
	}
	return stages, nil
}
