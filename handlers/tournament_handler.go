package handlers

import (
	"net/http"

	"github.com/brkpoint/tournament-platform/middleware"
	"github.com/brkpoint/tournament-platform/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(tournamentService services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService}
}

// Create godoc
// @Summary Создать турнир
// @Tags tournaments
// @Accept json
// @Produce json
// @Param input body services.CreateTournamentInput true "Данные турнира"
// @Success 201 {object} models.Tournament
// @Security ApiKeyAuth
// @Router /tournaments [post]
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	organizerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), organizerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByID godoc
// @Summary Получить турнир по ID
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "ID турнира"
// @Success 200 {object} models.Tournament
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List godoc
// @Summary Список турниров
// @Tags tournaments
// @Produce json
// @Success 200 {array} models.Tournament
// @Router /tournaments [get]
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadLogo godoc
// @Summary Загрузить логотип турнира
// @Tags tournaments
// @Accept image/png
// @Produce json
// @Param tournamentID path int true "ID турнира"
// @Success 200 {object} models.Tournament
// @Security ApiKeyAuth
// @Router /tournaments/{tournamentID}/logo [put]
func (h *TournamentHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contentType := r.Header.Get("Content-Type")
	tournament, err := h.tournamentService.UploadLogo(r.Context(), tournamentID, contentType, r.Body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateStage godoc
// @Summary Добавить стадию турнира
// @Tags stages
// @Accept json
// @Produce json
// @Param tournamentID path int true "ID турнира"
// @Param input body services.CreateStageInput true "Данные стадии"
// @Success 201 {object} models.Stage
// @Security ApiKeyAuth
// @Router /tournaments/{tournamentID}/stages [post]
func (h *TournamentHandler) CreateStage(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateStageInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stage, err := h.tournamentService.CreateStage(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"stage": stage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateTable godoc
// @Summary Добавить стол турнира
// @Tags tables
// @Accept json
// @Produce json
// @Param tournamentID path int true "ID турнира"
// @Param input body services.CreateTableInput true "Данные стола"
// @Success 201 {object} models.Table
// @Security ApiKeyAuth
// @Router /tournaments/{tournamentID}/tables [post]
func (h *TournamentHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateTableInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	table, err := h.tournamentService.CreateTable(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"table": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type addParticipantRequest struct {
	Seed   int  `json:"seed"`
	UserID *int `json:"user_id,omitempty"`
	TeamID *int `json:"team_id,omitempty"`
}

// AddParticipant godoc
// @Summary Добавить участника в стадию (user, team или bye)
// @Tags stages
// @Accept json
// @Produce json
// @Param stageID path int true "ID стадии"
// @Success 201 {object} models.Participant
// @Security ApiKeyAuth
// @Router /stages/{stageID}/participants [post]
func (h *TournamentHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	stageID, err := idParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input addParticipantRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.tournamentService.AddParticipant(r.Context(), stageID, input.Seed, input.UserID, input.TeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type importBracketRequest struct {
	Matches []services.BracketMatchInput `json:"matches"`
}

// ImportBracket godoc
// @Summary Импорт сетки стадии из внешнего генератора
// @Tags stages
// @Accept json
// @Produce json
// @Param stageID path int true "ID стадии"
// @Success 201 {array} models.Match
// @Security ApiKeyAuth
// @Router /stages/{stageID}/bracket [post]
func (h *TournamentHandler) ImportBracket(w http.ResponseWriter, r *http.Request) {
	stageID, err := idParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input importBracketRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.tournamentService.ImportBracket(r.Context(), stageID, input.Matches)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetStage godoc
// @Summary Удалить все несыгранные матчи стадии вместе с расписанием
// @Tags stages
// @Produce json
// @Param stageID path int true "ID стадии"
// @Success 200 {object} map[string]int
// @Security ApiKeyAuth
// @Router /stages/{stageID}/matches [delete]
func (h *TournamentHandler) ResetStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := idParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deleted, err := h.tournamentService.ResetStage(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"deleted_matches": deleted}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStageBracket godoc
// @Summary Полные данные сетки стадии
// @Tags stages
// @Produce json
// @Param stageID path int true "ID стадии"
// @Success 200 {object} services.StageBracket
// @Router /stages/{stageID}/bracket [get]
func (h *TournamentHandler) GetStageBracket(w http.ResponseWriter, r *http.Request) {
	stageID, err := idParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.tournamentService.GetStageBracket(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
