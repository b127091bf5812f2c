package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nv0110/bosstracker/internal/middleware"
	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/services"
)

type PitchedHandler struct {
	pitched *services.PitchedItemService
}

func NewPitchedHandler(pitched *services.PitchedItemService) *PitchedHandler {
	return &PitchedHandler{pitched: pitched}
}

func (handler *PitchedHandler) List(w http.ResponseWriter, r *http.Request) {
	week := models.WeekKey(r.URL.Query().Get("week"))
	items, err := handler.pitched.ListForWeek(r.Context(), middleware.GetUserID(r.Context()), week)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (handler *PitchedHandler) Add(w http.ResponseWriter, r *http.Request) {
	var input services.PitchedItemInput
	if !decodeJSON(w, r, &input) {
		return
	}

	item, err := handler.pitched.Add(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (handler *PitchedHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := handler.pitched.Remove(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (handler *PitchedHandler) RemoveMany(w http.ResponseWriter, r *http.Request) {
	var request struct {
		IDs []string `json:"ids"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}

	removed, err := handler.pitched.RemoveMany(r.Context(), middleware.GetUserID(r.Context()), request.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removedCount": removed})
}

func (handler *PitchedHandler) ClearWeek(w http.ResponseWriter, r *http.Request) {
	week := models.WeekKey(r.URL.Query().Get("week"))
	removed, err := handler.pitched.ClearForWeek(r.Context(), middleware.GetUserID(r.Context()), week)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removedCount": removed})
}

func (handler *PitchedHandler) PurgeAll(w http.ResponseWriter, r *http.Request) {
	removed, err := handler.pitched.PurgeAll(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removedCount": removed})
}

func (handler *PitchedHandler) Stats(w http.ResponseWriter, r *http.Request) {
	year := 0
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "year must be an integer"})
			return
		}
		year = parsed
	}

	stats, err := handler.pitched.YearlyStats(r.Context(), middleware.GetUserID(r.Context()), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
