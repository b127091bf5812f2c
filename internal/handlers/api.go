package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nv0110/bosstracker/internal/bossconfig"
	"github.com/nv0110/bosstracker/internal/middleware"
	"github.com/nv0110/bosstracker/internal/services"
)

// APIHandler serves the boss registry and the caller's API tokens.
type APIHandler struct {
	registry *services.RegistryService
	tokens   *services.TokenService
}

func NewAPIHandler(registry *services.RegistryService, tokens *services.TokenService) *APIHandler {
	return &APIHandler{
		registry: registry,
		tokens:   tokens,
	}
}

func (handler *APIHandler) ListRegistry(w http.ResponseWriter, r *http.Request) {
	entries, err := handler.registry.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type tokenView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (handler *APIHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := handler.tokens.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]tokenView, 0, len(tokens))
	for _, token := range tokens {
		views = append(views, tokenView{ID: token.ID, Name: token.Name, ExpiresAt: token.ExpiresAt, CreatedAt: token.CreatedAt})
	}
	writeJSON(w, http.StatusOK, views)
}

func (handler *APIHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name          string `json:"name"`
		ExpiresInDays int    `json:"expiresInDays"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}
	if request.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	ttl := time.Duration(request.ExpiresInDays) * 24 * time.Hour
	created, rawToken, err := handler.tokens.Create(r.Context(), middleware.GetUserID(r.Context()), request.Name, ttl)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":    created.ID,
		"name":  created.Name,
		"token": rawToken,
	})
}

func (handler *APIHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := handler.tokens.Revoke(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps a service error to its status code. Store failures get a
// generic message and are logged with the underlying cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *bossconfig.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationErr.Error()})
	case errors.Is(err, services.ErrMissingParameters),
		errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInvalidWeekStart),
		errors.Is(err, bossconfig.ErrMalformedConfig):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrNoneMatched):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateName), errors.Is(err, services.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("handling request", "method", r.Method, "path", r.URL.Path, "error", err)
		message := "failed to save, try again"
		if r.Method == http.MethodGet {
			message = "failed to load, try again"
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": message})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}
