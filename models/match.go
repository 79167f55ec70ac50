package models

import "time"

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusOngoing  MatchStatus = "ongoing"
	MatchStatusFinished MatchStatus = "finished"
	MatchStatusWalkover MatchStatus = "walkover"
)

// IsTerminal — из finished и walkover переходов нет.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusFinished || s == MatchStatusWalkover
}

// BracketSide различает пулы матчей в double elimination.
type BracketSide string

const (
	BracketSideWinner      BracketSide = "winner"
	BracketSideLoser       BracketSide = "loser"
	BracketSideConsolation BracketSide = "consolation"
)

// SortOrder задаёт порядок планирования внутри раунда: сетка победителей
// раньше сетки проигравших, утешительные матчи последними.
func (b BracketSide) SortOrder() int {
	switch b {
	case BracketSideWinner:
		return 0
	case BracketSideLoser:
		return 1
	case BracketSideConsolation:
		return 2
	}
	return 3
}

type Match struct {
	ID           int         `json:"id" db:"id"`
	StageID      int         `json:"stage_id" db:"stage_id"`
	Round        int         `json:"round" db:"round"`
	Bracket      BracketSide `json:"bracket" db:"bracket"`
	Status       MatchStatus `json:"status" db:"status"`
	IsGrandFinal bool        `json:"is_grand_final" db:"is_grand_final"`

	P1ParticipantID     *int `json:"p1_participant_id,omitempty" db:"p1_participant_id"`
	P2ParticipantID     *int `json:"p2_participant_id,omitempty" db:"p2_participant_id"`
	WinnerParticipantID *int `json:"winner_participant_id,omitempty" db:"winner_participant_id"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	TableID     *int       `json:"table_id,omitempty" db:"table_id"`

	// Рёбра топологии сетки. Заполняются генератором, движок продвижения
	// ходит только по forward-рёбрам.
	PrevMatch1ID     *int `json:"prev_match_1_id,omitempty" db:"prev_match_1_id"`
	PrevMatch2ID     *int `json:"prev_match_2_id,omitempty" db:"prev_match_2_id"`
	NextMatchID      *int `json:"next_match_id,omitempty" db:"next_match_id"`
	NextSlot         *int `json:"next_slot,omitempty" db:"next_slot"`
	LoserNextMatchID *int `json:"loser_next_match_id,omitempty" db:"loser_next_match_id"`
	LoserNextSlot    *int `json:"loser_next_slot,omitempty" db:"loser_next_slot"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Sets []MatchSet `json:"sets,omitempty" db:"-"`
}

// CanStart — матч может быть запланирован или начат только когда оба слота
// заполнены и ни один из участников не bye.
func (m *Match) CanStart(p1, p2 *Participant) bool {
	if m.P1ParticipantID == nil || m.P2ParticipantID == nil {
		return false
	}
	if p1 == nil || p2 == nil {
		return false
	}
	return !p1.IsBye() && !p2.IsBye()
}

// HasParticipant — входит ли участник в матч.
func (m *Match) HasParticipant(participantID int) bool {
	if m.P1ParticipantID != nil && *m.P1ParticipantID == participantID {
		return true
	}
	if m.P2ParticipantID != nil && *m.P2ParticipantID == participantID {
		return true
	}
	return false
}

// OpponentOf возвращает второго участника матча относительно заданного.
func (m *Match) OpponentOf(participantID int) *int {
	if m.P1ParticipantID != nil && *m.P1ParticipantID == participantID {
		return m.P2ParticipantID
	}
	if m.P2ParticipantID != nil && *m.P2ParticipantID == participantID {
		return m.P1ParticipantID
	}
	return nil
}

type MatchSet struct {
	ID                  int       `json:"id" db:"id"`
	MatchID             int       `json:"match_id" db:"match_id"`
	SetNo               int       `json:"set_no" db:"set_no"`
	P1Score             int       `json:"p1_score" db:"p1_score"`
	P2Score             int       `json:"p2_score" db:"p2_score"`
	WinnerParticipantID *int      `json:"winner_participant_id,omitempty" db:"winner_participant_id"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}
