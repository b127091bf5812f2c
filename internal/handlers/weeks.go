package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nv0110/bosstracker/internal/middleware"
	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/services"
	"github.com/nv0110/bosstracker/internal/weekclock"
)

type WeekHandler struct {
	weekly   *services.WeeklyService
	accounts *services.AccountService
}

func NewWeekHandler(weekly *services.WeeklyService, accounts *services.AccountService) *WeekHandler {
	return &WeekHandler{
		weekly:   weekly,
		accounts: accounts,
	}
}

func (handler *WeekHandler) Current(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "offset must be an integer"})
			return
		}
		offset = parsed
	}

	start := weekclock.WeekStartWithOffset(offset)
	end, err := weekclock.WeekEnd(start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.WeekKey{
		"weekStart": start,
		"weekEnd":   end,
	})
}

func (handler *WeekHandler) List(w http.ResponseWriter, r *http.Request) {
	weeks, err := handler.weekly.ListWeeks(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weeks)
}

func (handler *WeekHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := handler.weekly.Fetch(r.Context(), middleware.GetUserID(r.Context()), weekParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if record == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no record for week"})
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (handler *WeekHandler) AddCharacter(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}

	id, err := handler.weekly.AddCharacter(r.Context(), middleware.GetUserID(r.Context()), weekParam(r), request.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]models.CharacterID{"characterIndex": id})
}

// DeleteCharacter removes the character from the week and cleans its clear
// status and pitched items out of the account blob.
func (handler *WeekHandler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := characterParam(w, r)
	if !ok {
		return
	}

	stats, err := handler.accounts.DeleteCharacter(r.Context(), middleware.GetUserID(r.Context()), weekParam(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (handler *WeekHandler) RenameCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := characterParam(w, r)
	if !ok {
		return
	}
	var request struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}

	if err := handler.accounts.RenameCharacter(r.Context(), middleware.GetUserID(r.Context()), weekParam(r), id, request.Name); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (handler *WeekHandler) SetBossConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := characterParam(w, r)
	if !ok {
		return
	}
	var request struct {
		Config string `json:"config"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}

	if err := handler.weekly.SetBossConfig(r.Context(), middleware.GetUserID(r.Context()), weekParam(r), id, request.Config); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (handler *WeekHandler) SetClears(w http.ResponseWriter, r *http.Request) {
	id, ok := characterParam(w, r)
	if !ok {
		return
	}
	var request struct {
		Clears string `json:"clears"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}

	if err := handler.weekly.SetWeeklyClears(r.Context(), middleware.GetUserID(r.Context()), weekParam(r), id, request.Clears); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (handler *WeekHandler) MarkAll(w http.ResponseWriter, r *http.Request) {
	id, ok := characterParam(w, r)
	if !ok {
		return
	}
	if err := handler.weekly.MarkAllForCharacter(r.Context(), middleware.GetUserID(r.Context()), weekParam(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (handler *WeekHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	id, ok := characterParam(w, r)
	if !ok {
		return
	}
	if err := handler.weekly.ClearAllForCharacter(r.Context(), middleware.GetUserID(r.Context()), weekParam(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (handler *WeekHandler) ToggleClear(w http.ResponseWriter, r *http.Request) {
	id, ok := characterParam(w, r)
	if !ok {
		return
	}
	var request struct {
		Cleared bool `json:"cleared"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}

	err := handler.weekly.ToggleBossClear(r.Context(), middleware.GetUserID(r.Context()), weekParam(r), id, chi.URLParam(r, "code"), request.Cleared)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// CopyForward seeds the target week, the following week by default, from this one.
func (handler *WeekHandler) CopyForward(w http.ResponseWriter, r *http.Request) {
	var request struct {
		To models.WeekKey `json:"to"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &request) {
		return
	}

	from := weekParam(r)
	to := request.To
	if to == "" {
		next, err := weekclock.Shift(from, 1)
		if err != nil {
			writeError(w, r, services.ErrInvalidWeekStart)
			return
		}
		to = next
	}

	record, err := handler.weekly.CopyCharactersForward(r.Context(), middleware.GetUserID(r.Context()), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func weekParam(r *http.Request) models.WeekKey {
	return models.WeekKey(chi.URLParam(r, "week"))
}

func characterParam(w http.ResponseWriter, r *http.Request) (models.CharacterID, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "character id must be a non-negative integer"})
		return 0, false
	}
	return models.CharacterID(id), true
}
