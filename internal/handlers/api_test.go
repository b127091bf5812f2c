package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nv0110/bosstracker/internal/bossconfig"
	"github.com/nv0110/bosstracker/internal/middleware"
	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/repository"
	"github.com/nv0110/bosstracker/internal/services"
	"github.com/nv0110/bosstracker/internal/testutil"
)

const testUserID = "user-1"

func setupAPIHandler(t *testing.T) (*APIHandler, *repository.SQLiteAPITokenRepository) {
	t.Helper()
	database := testutil.NewTestDatabase(t)
	tokenRepo := repository.NewAPITokenRepository(database)
	registryRepo := testutil.SeedRegistry(t, database, testutil.LotusHard)
	handler := NewAPIHandler(services.NewRegistryService(registryRepo), services.NewTokenService(tokenRepo))
	return handler, tokenRepo
}

func TestAPITokenAuth(t *testing.T) {
	_, tokenRepo := setupAPIHandler(t)
	ctx := context.Background()

	expired := time.Now().Add(-time.Hour)
	for _, token := range []models.APIToken{
		{Name: "valid", TokenHash: repository.HashToken("valid-token"), UserID: testUserID},
		{Name: "expired", TokenHash: repository.HashToken("expired-token"), UserID: testUserID, ExpiresAt: &expired},
	} {
		if _, err := tokenRepo.Create(ctx, token); err != nil {
			t.Fatalf("creating %s token: %v", token.Name, err)
		}
	}

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middleware.APITokenAuth(tokenRepo))
		r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(middleware.GetUserID(r.Context())))
		})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer valid-token", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer token", "valid-token", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"expired token", "Bearer expired-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, request)

			if recorder.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, recorder.Code)
			}
			if tt.wantStatus == http.StatusOK && recorder.Body.String() != testUserID {
				t.Errorf("expected user id %q, got %q", testUserID, recorder.Body.String())
			}
		})
	}
}

func TestCreateAndDeleteToken(t *testing.T) {
	handler, tokenRepo := setupAPIHandler(t)

	router := chi.NewRouter()
	router.Use(withUser(testUserID))
	router.Post("/api/tokens", handler.CreateToken)
	router.Delete("/api/tokens/{id}", handler.DeleteToken)

	request := httptest.NewRequest(http.MethodPost, "/api/tokens", strings.NewReader(`{"name":"cli","expiresInDays":30}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var created struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	found, err := tokenRepo.FindByTokenHash(context.Background(), repository.HashToken(created.Token))
	if err != nil || found == nil {
		t.Fatalf("expected the returned token to authenticate, got %v, %v", found, err)
	}

	request = httptest.NewRequest(http.MethodDelete, "/api/tokens/"+created.ID, nil)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	tokens, err := tokenRepo.FindByUserID(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("listing tokens after delete: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("expected 0 tokens after revoke, got %d", len(tokens))
	}

	request = httptest.NewRequest(http.MethodPost, "/api/tokens", strings.NewReader(`{}`))
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 without a name, got %d", recorder.Code)
	}
}

func TestListRegistry(t *testing.T) {
	handler, _ := setupAPIHandler(t)

	router := chi.NewRouter()
	router.Get("/api/registry", handler.ListRegistry)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/registry", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var entries []models.BossRegistryEntry
	if err := json.NewDecoder(recorder.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(entries) != 1 || entries[0].BossCode != "LH" {
		t.Errorf("unexpected registry %+v", entries)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"missing parameters", http.MethodPost, services.ErrMissingParameters, http.StatusBadRequest, ""},
		{"validation", http.MethodPut, &bossconfig.ValidationError{Kind: bossconfig.ErrInvalidPartySize, Code: "DH", Max: 3}, http.StatusBadRequest, "Invalid party size for DH. Must be between 1 and 3."},
		{"not found", http.MethodDelete, fmt.Errorf("%w: character 3", services.ErrNotFound), http.StatusNotFound, ""},
		{"none matched", http.MethodPost, services.ErrNoneMatched, http.StatusNotFound, ""},
		{"duplicate", http.MethodPost, services.ErrDuplicateName, http.StatusConflict, ""},
		{"conflict", http.MethodPut, services.ErrConflict, http.StatusConflict, ""},
		{"store failure on read", http.MethodGet, &services.StoreError{Op: "loading", Err: errors.New("disk I/O error")}, http.StatusInternalServerError, "failed to load, try again"},
		{"store failure on write", http.MethodPost, &services.StoreError{Op: "saving", Err: errors.New("disk I/O error")}, http.StatusInternalServerError, "failed to save, try again"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			writeError(recorder, httptest.NewRequest(tt.method, "/", nil), tt.err)

			if recorder.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, recorder.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if tt.wantMessage != "" && body["error"] != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, body["error"])
			}
			if strings.Contains(body["error"], "disk I/O") {
				t.Errorf("expected store internals to stay hidden, got %q", body["error"])
			}
		})
	}
}

func withUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), userID)))
		})
	}
}
