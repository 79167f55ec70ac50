package models

import "time"

// Table — физический стол турнира. ClothSpeed информационное поле,
// планировщик его не использует.
type Table struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	ClothSpeed   *string   `json:"cloth_speed,omitempty" db:"cloth_speed"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
