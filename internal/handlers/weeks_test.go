package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/repository"
	"github.com/nv0110/bosstracker/internal/services"
	"github.com/nv0110/bosstracker/internal/testutil"
)

const testWeek = "2024-12-26"

func setupWeekRouter(t *testing.T) *chi.Mux {
	t.Helper()
	database := testutil.NewTestDatabase(t)
	registryRepo := testutil.SeedRegistry(t, database, testutil.LotusHard, testutil.DamienHard)

	userDataRepo := repository.NewUserDataRepository(database)
	weekly := services.NewWeeklyService(repository.NewWeeklyRecordRepository(database), registryRepo)
	accounts := services.NewAccountService(userDataRepo, repository.NewAccountRepository(database), weekly)
	handler := NewWeekHandler(weekly, accounts)

	router := chi.NewRouter()
	router.Use(withUser(testUserID))
	router.Get("/api/weeks", handler.List)
	router.Get("/api/weeks/current", handler.Current)
	router.Get("/api/weeks/{week}", handler.Get)
	router.Post("/api/weeks/{week}/copy-forward", handler.CopyForward)
	router.Post("/api/weeks/{week}/characters", handler.AddCharacter)
	router.Delete("/api/weeks/{week}/characters/{id}", handler.DeleteCharacter)
	router.Put("/api/weeks/{week}/characters/{id}/name", handler.RenameCharacter)
	router.Put("/api/weeks/{week}/characters/{id}/bosses", handler.SetBossConfig)
	router.Put("/api/weeks/{week}/characters/{id}/clears", handler.SetClears)
	router.Delete("/api/weeks/{week}/characters/{id}/clears", handler.ClearAll)
	router.Post("/api/weeks/{week}/characters/{id}/clears/all", handler.MarkAll)
	router.Post("/api/weeks/{week}/characters/{id}/clears/{code}", handler.ToggleClear)
	return router
}

func serve(t *testing.T, router http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, path, reader))
	return recorder
}

func decodeRecord(t *testing.T, recorder *httptest.ResponseRecorder) models.WeeklyRecord {
	t.Helper()
	var record models.WeeklyRecord
	if err := json.NewDecoder(recorder.Body).Decode(&record); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	return record
}

func TestWeekHandler_Current(t *testing.T) {
	router := setupWeekRouter(t)

	recorder := serve(t, router, http.MethodGet, "/api/weeks/current?offset=-1", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var week map[string]string
	if err := json.NewDecoder(recorder.Body).Decode(&week); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if week["weekStart"] == "" || week["weekEnd"] <= week["weekStart"] {
		t.Errorf("unexpected week bounds %v", week)
	}

	if recorder := serve(t, router, http.MethodGet, "/api/weeks/current?offset=abc", ""); recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for a bad offset, got %d", recorder.Code)
	}
}

func TestWeekHandler_ListWithoutRecords(t *testing.T) {
	router := setupWeekRouter(t)

	recorder := serve(t, router, http.MethodGet, "/api/weeks", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if body := strings.TrimSpace(recorder.Body.String()); body != "[]" {
		t.Errorf("expected an empty JSON array, got %s", body)
	}
}

func TestWeekHandler_CharacterLifecycle(t *testing.T) {
	router := setupWeekRouter(t)
	base := "/api/weeks/" + testWeek

	if recorder := serve(t, router, http.MethodGet, base, ""); recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for a new week, got %d", recorder.Code)
	}

	recorder := serve(t, router, http.MethodPost, base+"/characters", `{"name":"Bera"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var added map[string]int
	if err := json.NewDecoder(recorder.Body).Decode(&added); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if added["characterIndex"] != 0 {
		t.Errorf("expected index 0, got %d", added["characterIndex"])
	}

	if recorder := serve(t, router, http.MethodPost, base+"/characters", `{"name":"bera"}`); recorder.Code != http.StatusConflict {
		t.Errorf("expected status 409 for a duplicate, got %d", recorder.Code)
	}

	steps := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"set bosses", http.MethodPut, base + "/characters/0/bosses", `{"config":"LH:50000000:2,DH:40000000:1"}`, http.StatusOK},
		{"invalid party size", http.MethodPut, base + "/characters/0/bosses", `{"config":"LH:50000000:9"}`, http.StatusBadRequest},
		{"toggle clear", http.MethodPost, base + "/characters/0/clears/LH", `{"cleared":true}`, http.StatusOK},
		{"unknown clears", http.MethodPut, base + "/characters/0/clears", `{"clears":"LH,X1"}`, http.StatusBadRequest},
		{"rename", http.MethodPut, base + "/characters/0/name", `{"name":"Luna"}`, http.StatusOK},
		{"bad character id", http.MethodPut, base + "/characters/x/name", `{"name":"Luna"}`, http.StatusBadRequest},
		{"missing character", http.MethodPut, base + "/characters/7/name", `{"name":"Nova"}`, http.StatusNotFound},
		{"bad body", http.MethodPut, base + "/characters/0/name", `{`, http.StatusBadRequest},
		{"non thursday week", http.MethodPost, "/api/weeks/2024-12-25/characters", `{"name":"Nova"}`, http.StatusBadRequest},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			recorder := serve(t, router, step.method, step.path, step.body)
			if recorder.Code != step.wantStatus {
				t.Errorf("expected status %d, got %d: %s", step.wantStatus, recorder.Code, recorder.Body.String())
			}
		})
	}

	recorder = serve(t, router, http.MethodGet, base, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	record := decodeRecord(t, recorder)
	if record.CharMap[0] != "Luna" {
		t.Errorf("expected renamed character, got %v", record.CharMap)
	}
	if record.WeeklyClears[0] != "LH" {
		t.Errorf("expected LH cleared, got %q", record.WeeklyClears[0])
	}

	if recorder := serve(t, router, http.MethodPost, base+"/characters/0/clears/all", ""); recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200 marking all, got %d", recorder.Code)
	}
	record = decodeRecord(t, serve(t, router, http.MethodGet, base, ""))
	if record.WeeklyClears[0] != "LH,DH" {
		t.Errorf("expected every configured boss cleared, got %q", record.WeeklyClears[0])
	}

	if recorder := serve(t, router, http.MethodDelete, base+"/characters/0/clears", ""); recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200 clearing all, got %d", recorder.Code)
	}

	if recorder := serve(t, router, http.MethodDelete, base+"/characters/0", ""); recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200 deleting, got %d: %s", recorder.Code, recorder.Body.String())
	}
	record = decodeRecord(t, serve(t, router, http.MethodGet, base, ""))
	if len(record.CharMap) != 0 {
		t.Errorf("expected no characters, got %v", record.CharMap)
	}
}

func TestWeekHandler_CopyForwardDefaultsToNextWeek(t *testing.T) {
	router := setupWeekRouter(t)
	base := "/api/weeks/" + testWeek

	if recorder := serve(t, router, http.MethodPost, base+"/characters", `{"name":"Bera"}`); recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", recorder.Code)
	}

	recorder := serve(t, router, http.MethodPost, base+"/copy-forward", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	record := decodeRecord(t, recorder)
	if record.WeekStart != "2025-01-02" || record.CharMap[0] != "Bera" {
		t.Errorf("unexpected copied record %+v", record)
	}

	recorder = serve(t, router, http.MethodGet, "/api/weeks", "")
	var weeks []string
	if err := json.NewDecoder(recorder.Body).Decode(&weeks); err != nil {
		t.Fatalf("decoding weeks: %v", err)
	}
	if len(weeks) != 2 || weeks[0] != "2025-01-02" {
		t.Errorf("expected newest week first, got %v", weeks)
	}
}
