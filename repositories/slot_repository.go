package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/lib/pq"
)

var (
	ErrSlotNotFound     = errors.New("schedule slot not found")
	ErrSlotOverlap      = errors.New("schedule slot overlaps an existing slot on this table")
	ErrSlotTableInvalid = errors.New("schedule slot table conflict or invalid")
)

type SlotRepository interface {
	Create(ctx context.Context, exec SQLExecutor, slot *models.ScheduleSlot) error
	ListByTournament(ctx context.Context, tournamentID int) ([]models.ScheduleSlot, error)
	ListByTable(ctx context.Context, tableID int) ([]models.ScheduleSlot, error)
	DeleteByTableAndStart(ctx context.Context, exec SQLExecutor, tableID int, startAt time.Time) error
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error
}

type postgresSlotRepository struct {
	db *sql.DB
}

func NewPostgresSlotRepository(db *sql.DB) SlotRepository {
	return &postgresSlotRepository{db: db}
}

func (r *postgresSlotRepository) Create(ctx context.Context, exec SQLExecutor, slot *models.ScheduleSlot) error {
	// Пересечение слотов на одном столе запрещено EXCLUDE-констрейнтом
	// (tstzrange) на стороне БД; нарушение откатывает всю транзакцию прогона.
	query := `
		INSERT INTO schedule_slots (tournament_id, table_id, match_id, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		slot.TournamentID,
		slot.TableID,
		slot.MatchID,
		slot.StartAt,
		slot.EndAt,
	).Scan(&slot.ID, &slot.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "schedule_slots_table_no_overlap":
			return ErrSlotOverlap
		case "schedule_slots_table_id_fkey":
			return ErrSlotTableInvalid
		}
	}
	return err
}

func (r *postgresSlotRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.ScheduleSlot, error) {
	return r.list(ctx, `
		SELECT id, tournament_id, table_id, match_id, start_at, end_at, created_at
		FROM schedule_slots
		WHERE tournament_id = $1
		ORDER BY start_at ASC, id ASC`, tournamentID)
}

func (r *postgresSlotRepository) ListByTable(ctx context.Context, tableID int) ([]models.ScheduleSlot, error) {
	return r.list(ctx, `
		SELECT id, tournament_id, table_id, match_id, start_at, end_at, created_at
		FROM schedule_slots
		WHERE table_id = $1
		ORDER BY start_at ASC, id ASC`, tableID)
}

func (r *postgresSlotRepository) list(ctx context.Context, query string, arg interface{}) ([]models.ScheduleSlot, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule slots: %w", err)
	}
	defer rows.Close()

	slots := make([]models.ScheduleSlot, 0)
	for rows.Next() {
		var slot models.ScheduleSlot
		if scanErr := rows.Scan(
			&slot.ID,
			&slot.TournamentID,
			&slot.TableID,
			&slot.MatchID,
			&slot.StartAt,
			&slot.EndAt,
			&slot.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan schedule slot row: %w", scanErr)
		}
		slots = append(slots, slot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during schedule slot rows iteration: %w", err)
	}
	return slots, nil
}

func (r *postgresSlotRepository) DeleteByTableAndStart(ctx context.Context, exec SQLExecutor, tableID int, startAt time.Time) error {
	query := `DELETE FROM schedule_slots WHERE table_id = $1 AND start_at = $2`
	result, err := exec.ExecContext(ctx, query, tableID, startAt)
	if err != nil {
		return err
	}
	// Отсутствие прежнего слота не ошибка: ручное расписание могло и не
	// проходить через auto-scheduler.
	_, err = result.RowsAffected()
	return err
}

func (r *postgresSlotRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM schedule_slots WHERE match_id = $1`, matchID)
	return err
}
