package models

import "time"

// BracketType определяет топологию стадии и стратегию продвижения победителей.
type BracketType string

const (
	BracketSingleElimination BracketType = "SingleElimination"
	BracketDoubleElimination BracketType = "DoubleElimination"
	BracketRoundRobin        BracketType = "RoundRobin"
)

type Stage struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Name         string      `json:"name" db:"name"`
	BracketType  BracketType `json:"bracket_type" db:"bracket_type"`
	StageOrder   int         `json:"stage_order" db:"stage_order"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}
