package handlers

import (
	"errors"
	"net/http"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/brkpoint/tournament-platform/services"
)

var errInvalidStatusFilter = errors.New("status must be one of pending, ongoing, finished, walkover")

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// GetByID godoc
// @Summary Матч со счётом по сетам
// @Tags matches
// @Produce json
// @Param matchID path int true "ID матча"
// @Success 200 {object} models.Match
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByStage godoc
// @Summary Матчи стадии, опционально по статусу
// @Tags matches
// @Produce json
// @Param stageID path int true "ID стадии"
// @Param status query string false "pending|ongoing|finished|walkover"
// @Success 200 {array} models.Match
// @Router /stages/{stageID}/matches [get]
func (h *MatchHandler) ListByStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := idParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.MatchStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.MatchStatus(raw)
		switch s {
		case models.MatchStatusPending, models.MatchStatusOngoing, models.MatchStatusFinished, models.MatchStatusWalkover:
			status = &s
		default:
			badRequestResponse(w, r, errInvalidStatusFilter)
			return
		}
	}

	matches, err := h.matchService.ListByStage(r.Context(), stageID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Start godoc
// @Summary Начать матч (pending → ongoing)
// @Tags matches
// @Produce json
// @Param matchID path int true "ID матча"
// @Success 200 {object} models.Match
// @Security ApiKeyAuth
// @Router /matches/{matchID}/start [post]
func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.StartMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type submitScoreRequest struct {
	Sets     []services.SetInput `json:"sets"`
	Complete bool                `json:"complete"`
}

// SubmitScore godoc
// @Summary Внести счёт по сетам; complete=true завершает матч
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "ID матча"
// @Param input body submitScoreRequest true "Сеты и флаг завершения"
// @Success 200 {object} models.Match
// @Security ApiKeyAuth
// @Router /matches/{matchID}/score [post]
func (h *MatchHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input submitScoreRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SubmitScore(r.Context(), matchID, input.Sets, input.Complete)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type walkoverRequest struct {
	WinnerParticipantID int `json:"winner_participant_id"`
}

// Walkover godoc
// @Summary Завершить матч техническим поражением
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "ID матча"
// @Param input body walkoverRequest true "Победитель"
// @Success 200 {object} models.Match
// @Security ApiKeyAuth
// @Router /matches/{matchID}/walkover [post]
func (h *MatchHandler) Walkover(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input walkoverRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Walkover(r.Context(), matchID, input.WinnerParticipantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
