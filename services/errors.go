package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrTournamentNameTaken   = errors.New("tournament name already exists")
	ErrStageHasNoBracketType = errors.New("stage bracket type is required")

	// Ошибки конфигурации планировщика
	ErrNoTablesConfigured    = errors.New("no tables configured for this tournament")
	ErrInvalidMatchDuration  = errors.New("match duration must be between 15 and 180 minutes")
	ErrInvalidRestTime       = errors.New("rest time must be between 0 and 120 minutes")
	ErrScheduleStartRequired = errors.New("schedule start time is required")

	// Ошибки жизненного цикла матча
	ErrMatchAlreadyFinished   = errors.New("match is already finished")
	ErrMatchNotStartable      = errors.New("match cannot start: both participant slots must be filled and neither may be a bye")
	ErrMatchMissingSlot       = errors.New("match is missing a participant slot")
	ErrWinnerNotInMatch       = errors.New("declared winner is not a participant of this match")
	ErrScoreTied              = errors.New("set tally is tied: a completed match requires a strict winner")
	ErrNoSetsSubmitted        = errors.New("at least one set result is required")
	ErrInvalidStatusChange    = errors.New("invalid match status transition")
	ErrScheduleSlotOccupied   = errors.New("requested table and time conflict with the existing schedule")
	ErrMatchNotScheduled      = errors.New("match has no schedule to change")
	ErrParticipantStageStale  = errors.New("participant does not belong to the match's stage")
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound        = errors.New("user not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrStageNotFound       = errors.New("stage not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrParticipantNotFound = errors.New("participant not found")
)
