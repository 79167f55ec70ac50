package models

import "time"

type Participant struct {
	ID        int       `json:"id" db:"id"`
	StageID   int       `json:"stage_id" db:"stage_id"`
	Seed      int       `json:"seed" db:"seed"`
	UserID    *int      `json:"user_id,omitempty" db:"user_id"`
	TeamID    *int      `json:"team_id,omitempty" db:"team_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}

// IsBye — участник без привязки к пользователю или команде никогда не играет.
func (p *Participant) IsBye() bool {
	return p.UserID == nil && p.TeamID == nil
}
