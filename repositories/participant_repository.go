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
	ErrParticipantNotFound     = errors.New("participant not found")
	ErrParticipantStageInvalid = errors.New("participant stage conflict or invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	ListByStage(ctx context.Context, stageID int) ([]*models.Participant, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := `
		INSERT INTO participants (stage_id, seed, user_id, team_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		p.StageID,
		p.Seed,
		p.UserID,
		p.TeamID,
	).Scan(&p.ID, &p.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Constraint == "participants_stage_id_fkey" {
			return ErrParticipantStageInvalid
		}
	}
	return err
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT id, stage_id, seed, user_id, team_id, created_at FROM participants WHERE id = $1`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.StageID,
		&p.Seed,
		&p.UserID,
		&p.TeamID,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant by id %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByStage(ctx context.Context, stageID int) ([]*models.Participant, error) {
	query := `
		SELECT id, stage_id, seed, user_id, team_id, created_at
		FROM participants
		WHERE stage_id = $1
		ORDER BY seed ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for stage %d: %w", stageID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p := &models.Participant{}
		if scanErr := rows.Scan(
			&p.ID,
			&p.StageID,
			&p.Seed,
			&p.UserID,
			&p.TeamID,
			&p.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}
