package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brkpoint/tournament-platform/models"
)

var ErrTableNotFound = errors.New("table not found")

type TableRepository interface {
	Create(ctx context.Context, table *models.Table) error
	GetByID(ctx context.Context, id int) (*models.Table, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Table, error)
}

type postgresTableRepository struct {
	db *sql.DB
}

func NewPostgresTableRepository(db *sql.DB) TableRepository {
	return &postgresTableRepository{db: db}
}

func (r *postgresTableRepository) Create(ctx context.Context, table *models.Table) error {
	query := `
		INSERT INTO tables (tournament_id, name, cloth_speed)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		table.TournamentID,
		table.Name,
		table.ClothSpeed,
	).Scan(&table.ID, &table.CreatedAt)
}

func (r *postgresTableRepository) GetByID(ctx context.Context, id int) (*models.Table, error) {
	query := `SELECT id, tournament_id, name, cloth_speed, created_at FROM tables WHERE id = $1`

	table := &models.Table{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&table.ID,
		&table.TournamentID,
		&table.Name,
		&table.ClothSpeed,
		&table.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to scan table by id %d: %w", id, err)
	}
	return table, nil
}

func (r *postgresTableRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Table, error) {
	// Стабильный порядок обхода столов — часть контракта планировщика.
	query := `
		SELECT id, tournament_id, name, cloth_speed, created_at
		FROM tables
		WHERE tournament_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	tables := make([]*models.Table, 0)
	for rows.Next() {
		table := &models.Table{}
		if scanErr := rows.Scan(
			&table.ID,
			&table.TournamentID,
			&table.Name,
			&table.ClothSpeed,
			&table.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", scanErr)
		}
		tables = append(tables, table)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during table rows iteration: %w", err)
	}
	return tables, nil
}
