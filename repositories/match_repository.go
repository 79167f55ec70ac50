package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchStageInvalid       = errors.New("match stage conflict or invalid")
	ErrMatchParticipantInvalid = errors.New("match participant conflict or invalid")
)

const matchColumns = `
	id, stage_id, round, bracket, status, is_grand_final,
	p1_participant_id, p2_participant_id, winner_participant_id,
	scheduled_at, table_id,
	prev_match_1_id, prev_match_2_id, next_match_id, next_slot,
	loser_next_match_id, loser_next_slot, created_at`

// bracketOrder раскладывает сетки в порядок планирования: winner, loser,
// consolation. Должен совпадать с models.BracketSide.SortOrder.
const bracketOrder = `CASE bracket
	WHEN 'winner' THEN 0
	WHEN 'loser' THEN 1
	WHEN 'consolation' THEN 2
	ELSE 3 END`

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	// GetByID читает через exec, чтобы внутри транзакции были видны
	// незакоммиченные записи того же tx.
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByStage(ctx context.Context, stageID int, statusFilter *models.MatchStatus) ([]*models.Match, error)
	// ListSchedulable возвращает pending-матчи стадии с обоими заполненными
	// слотами и без назначенного времени, в фиксированном порядке
	// (round, bracket) — это и есть очередь auto-scheduler'а.
	ListSchedulable(ctx context.Context, stageID int) ([]*models.Match, error)
	ListScheduledByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	UpdateSchedule(ctx context.Context, exec SQLExecutor, matchID int, tableID *int, scheduledAt *time.Time) error
	UpdateStatusWinner(ctx context.Context, exec SQLExecutor, matchID int, status models.MatchStatus, winnerParticipantID *int) error
	UpdateParticipantSlot(ctx context.Context, exec SQLExecutor, matchID int, slot int, participantID int) error
	UpdateForwardEdges(ctx context.Context, exec SQLExecutor, matchID int, m *models.Match) error
	DeletePendingByStage(ctx context.Context, exec SQLExecutor, stageID int) (int, error)
	ReplaceSets(ctx context.Context, exec SQLExecutor, matchID int, sets []models.MatchSet) error
	ListSets(ctx context.Context, matchID int) ([]models.MatchSet, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		INSERT INTO matches
			(stage_id, round, bracket, status, is_grand_final,
			 p1_participant_id, p2_participant_id,
			 prev_match_1_id, prev_match_2_id, next_match_id, next_slot,
			 loser_next_match_id, loser_next_slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		m.StageID,
		m.Round,
		m.Bracket,
		m.Status,
		m.IsGrandFinal,
		m.P1ParticipantID,
		m.P2ParticipantID,
		m.PrevMatch1ID,
		m.PrevMatch2ID,
		m.NextMatchID,
		m.NextSlot,
		m.LoserNextMatchID,
		m.LoserNextSlot,
	).Scan(&m.ID, &m.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m := &models.Match{}
	err := scanMatch(exec.QueryRowContext(ctx, query, id), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, stageID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE stage_id = $1`)

	args := []interface{}{stageID}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *statusFilter)
	}
	queryBuilder.WriteString(" ORDER BY round ASC, " + bracketOrder + " ASC, id ASC")

	return r.listMatches(ctx, queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) ListSchedulable(ctx context.Context, stageID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE stage_id = $1
		  AND status = $2
		  AND p1_participant_id IS NOT NULL
		  AND p2_participant_id IS NOT NULL
		  AND scheduled_at IS NULL
		ORDER BY round ASC, ` + bracketOrder + ` ASC, id ASC`

	return r.listMatches(ctx, query, stageID, models.MatchStatusPending)
}

func (r *postgresMatchRepository) ListScheduledByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT
			m.id, m.stage_id, m.round, m.bracket, m.status, m.is_grand_final,
			m.p1_participant_id, m.p2_participant_id, m.winner_participant_id,
			m.scheduled_at, m.table_id,
			m.prev_match_1_id, m.prev_match_2_id, m.next_match_id, m.next_slot,
			m.loser_next_match_id, m.loser_next_slot, m.created_at
		FROM matches m
		JOIN stages s ON s.id = m.stage_id
		WHERE s.tournament_id = $1 AND m.scheduled_at IS NOT NULL
		ORDER BY m.scheduled_at ASC, m.id ASC`

	return r.listMatches(ctx, query, tournamentID)
}

func (r *postgresMatchRepository) listMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m := &models.Match{}
		if scanErr := scanMatch(rows, m); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner, m *models.Match) error {
	return row.Scan(
		&m.ID,
		&m.StageID,
		&m.Round,
		&m.Bracket,
		&m.Status,
		&m.IsGrandFinal,
		&m.P1ParticipantID,
		&m.P2ParticipantID,
		&m.WinnerParticipantID,
		&m.ScheduledAt,
		&m.TableID,
		&m.PrevMatch1ID,
		&m.PrevMatch2ID,
		&m.NextMatchID,
		&m.NextSlot,
		&m.LoserNextMatchID,
		&m.LoserNextSlot,
		&m.CreatedAt,
	)
}

func (r *postgresMatchRepository) UpdateSchedule(ctx context.Context, exec SQLExecutor, matchID int, tableID *int, scheduledAt *time.Time) error {
	query := `UPDATE matches SET table_id = $1, scheduled_at = $2 WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, tableID, scheduledAt, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatusWinner(ctx context.Context, exec SQLExecutor, matchID int, status models.MatchStatus, winnerParticipantID *int) error {
	query := `UPDATE matches SET status = $1, winner_participant_id = $2 WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, status, winnerParticipantID, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateParticipantSlot(ctx context.Context, exec SQLExecutor, matchID int, slot int, participantID int) error {
	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET p1_participant_id = $1 WHERE id = $2`
	case 2:
		query = `UPDATE matches SET p2_participant_id = $1 WHERE id = $2`
	default:
		return fmt.Errorf("invalid participant slot %d for match %d", slot, matchID)
	}
	result, err := exec.ExecContext(ctx, query, participantID, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateForwardEdges(ctx context.Context, exec SQLExecutor, matchID int, m *models.Match) error {
	query := `
		UPDATE matches
		SET prev_match_1_id = $1, prev_match_2_id = $2,
		    next_match_id = $3, next_slot = $4,
		    loser_next_match_id = $5, loser_next_slot = $6
		WHERE id = $7`
	result, err := exec.ExecContext(ctx, query,
		m.PrevMatch1ID,
		m.PrevMatch2ID,
		m.NextMatchID,
		m.NextSlot,
		m.LoserNextMatchID,
		m.LoserNextSlot,
		matchID,
	)
	if err != nil {
		return fmt.Errorf("UpdateForwardEdges: failed to execute query for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeletePendingByStage(ctx context.Context, exec SQLExecutor, stageID int) (int, error) {
	result, err := exec.ExecContext(ctx,
		`DELETE FROM matches WHERE stage_id = $1 AND status = $2`,
		stageID, models.MatchStatusPending)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(affected), nil
}

func (r *postgresMatchRepository) ReplaceSets(ctx context.Context, exec SQLExecutor, matchID int, sets []models.MatchSet) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM match_sets WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("ReplaceSets: failed to clear sets for match %d: %w", matchID, err)
	}
	query := `
		INSERT INTO match_sets (match_id, set_no, p1_score, p2_score, winner_participant_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	for i := range sets {
		set := &sets[i]
		set.MatchID = matchID
		if err := exec.QueryRowContext(ctx, query,
			set.MatchID,
			set.SetNo,
			set.P1Score,
			set.P2Score,
			set.WinnerParticipantID,
		).Scan(&set.ID, &set.CreatedAt); err != nil {
			return fmt.Errorf("ReplaceSets: failed to insert set %d for match %d: %w", set.SetNo, matchID, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) ListSets(ctx context.Context, matchID int) ([]models.MatchSet, error) {
	query := `
		SELECT id, match_id, set_no, p1_score, p2_score, winner_participant_id, created_at
		FROM match_sets
		WHERE match_id = $1
		ORDER BY set_no ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets for match %d: %w", matchID, err)
	}
	defer rows.Close()

	sets := make([]models.MatchSet, 0)
	for rows.Next() {
		var set models.MatchSet
		if scanErr := rows.Scan(
			&set.ID,
			&set.MatchID,
			&set.SetNo,
			&set.P1Score,
			&set.P2Score,
			&set.WinnerParticipantID,
			&set.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match set row: %w", scanErr)
		}
		sets = append(sets, set)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match set rows iteration: %w", err)
	}
	return sets, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_stage_id_fkey":
			return ErrMatchStageInvalid
		case "matches_p1_participant_id_fkey", "matches_p2_participant_id_fkey",
			"matches_winner_participant_id_fkey":
			return ErrMatchParticipantInvalid
		}
	}
	return err
}
