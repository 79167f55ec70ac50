package models

import "time"

// ScheduleSlot — закоммиченная бронь (стол, интервал) в рамках турнира.
// Инвариант: на одном столе слоты не пересекаются.
type ScheduleSlot struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	TableID      int       `json:"table_id" db:"table_id"`
	MatchID      *int      `json:"match_id,omitempty" db:"match_id"`
	StartAt      time.Time `json:"start_at" db:"start_at"`
	EndAt        time.Time `json:"end_at" db:"end_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
