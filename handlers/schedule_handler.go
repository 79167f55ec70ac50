package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/brkpoint/tournament-platform/services"
)

type ScheduleHandler struct {
	scheduleService services.ScheduleService
}

func NewScheduleHandler(scheduleService services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

type autoScheduleRequest struct {
	StartTime time.Time                `json:"start_time"`
	Options   services.ScheduleOptions `json:"options"`
}

type manualScheduleRequest struct {
	TableID int                      `json:"table_id"`
	StartAt time.Time                `json:"start_at"`
	Options services.ScheduleOptions `json:"options"`
}

// AutoScheduleStage godoc
// @Summary Авторасписание всех готовых матчей стадии
// @Tags schedule
// @Accept json
// @Produce json
// @Param stageID path int true "ID стадии"
// @Param input body autoScheduleRequest true "Время старта и параметры"
// @Success 200 {array} models.Match
// @Security ApiKeyAuth
// @Router /stages/{stageID}/autoschedule [post]
func (h *ScheduleHandler) AutoScheduleStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := idParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input autoScheduleRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	placed, err := h.scheduleService.AutoScheduleStage(r.Context(), stageID, input.StartTime, input.Options)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	// Пустой список — валидный ответ: планировать было нечего либо
	// ни один матч не поместился.
	if err := writeJSON(w, http.StatusOK, jsonResponse{"scheduled": placed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AutoScheduleTournament godoc
// @Summary Авторасписание всего турнира, стадии по порядку
// @Tags schedule
// @Accept json
// @Produce json
// @Param tournamentID path int true "ID турнира"
// @Param input body autoScheduleRequest true "Время старта и параметры"
// @Success 200 {array} models.Match
// @Security ApiKeyAuth
// @Router /tournaments/{tournamentID}/autoschedule [post]
func (h *ScheduleHandler) AutoScheduleTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input autoScheduleRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	placed, err := h.scheduleService.AutoScheduleTournament(r.Context(), tournamentID, input.StartTime, input.Options)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"scheduled": placed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ScheduleMatch godoc
// @Summary Назначить матч на стол и время вручную
// @Tags schedule
// @Accept json
// @Produce json
// @Param matchID path int true "ID матча"
// @Param input body manualScheduleRequest true "Стол, время, параметры"
// @Success 200 {object} models.Match
// @Failure 422 {object} map[string]interface{} "Конфликты расписания"
// @Security ApiKeyAuth
// @Router /matches/{matchID}/schedule [post]
func (h *ScheduleHandler) ScheduleMatch(w http.ResponseWriter, r *http.Request) {
	h.placeMatch(w, r, h.scheduleService.ScheduleMatch)
}

// RescheduleMatch godoc
// @Summary Перенести уже назначенный матч
// @Tags schedule
// @Accept json
// @Produce json
// @Param matchID path int true "ID матча"
// @Param input body manualScheduleRequest true "Новый стол, время, параметры"
// @Success 200 {object} models.Match
// @Failure 422 {object} map[string]interface{} "Конфликты расписания"
// @Security ApiKeyAuth
// @Router /matches/{matchID}/schedule [put]
func (h *ScheduleHandler) RescheduleMatch(w http.ResponseWriter, r *http.Request) {
	h.placeMatch(w, r, h.scheduleService.RescheduleMatch)
}

type placeFunc func(ctx context.Context, matchID, tableID int, startAt time.Time, opts services.ScheduleOptions) (*models.Match, []services.ScheduleConflict, error)

func (h *ScheduleHandler) placeMatch(w http.ResponseWriter, r *http.Request, place placeFunc) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input manualScheduleRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, conflicts, err := place(r.Context(), matchID, input.TableID, input.StartAt, input.Options)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if len(conflicts) > 0 {
		if err := writeJSON(w, http.StatusUnprocessableEntity, jsonResponse{"conflicts": conflicts}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FindConflicts godoc
// @Summary Предпросмотр конфликтов для предполагаемого назначения
// @Tags schedule
// @Produce json
// @Param matchID path int true "ID матча"
// @Param table_id query int true "ID стола"
// @Param start_at query string true "Время начала, RFC3339"
// @Success 200 {array} services.ScheduleConflict
// @Router /matches/{matchID}/conflicts [get]
func (h *ScheduleHandler) FindConflicts(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	query := r.URL.Query()
	tableID, err := queryInt(query.Get("table_id"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	startAt, err := time.Parse(time.RFC3339, query.Get("start_at"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	opts := services.ScheduleOptions{
		MatchDurationMinutes: queryIntDefault(query.Get("match_duration_minutes"), 45),
		RestTimeMinutes:      queryIntDefault(query.Get("rest_time_minutes"), 30),
	}

	conflicts, err := h.scheduleService.FindScheduleConflicts(r.Context(), matchID, tableID, startAt, opts)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"conflicts": conflicts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func queryInt(raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid integer query parameter %q", raw)
	}
	return value, nil
}

func queryIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		return value
	}
	return fallback
}
