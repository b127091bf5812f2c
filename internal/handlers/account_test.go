package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/nv0110/bosstracker/internal/repository"
	"github.com/nv0110/bosstracker/internal/services"
	"github.com/nv0110/bosstracker/internal/testutil"
)

func setupAccountRouter(t *testing.T) (*chi.Mux, *services.PitchedItemService) {
	t.Helper()
	database := testutil.NewTestDatabase(t)
	userDataRepo := repository.NewUserDataRepository(database)
	weekly := services.NewWeeklyService(repository.NewWeeklyRecordRepository(database), testutil.SeedRegistry(t, database))
	handler := NewAccountHandler(services.NewAccountService(userDataRepo, repository.NewAccountRepository(database), weekly))

	router := chi.NewRouter()
	router.Use(withUser(testUserID))
	router.Get("/api/account", handler.Load)
	router.Put("/api/account", handler.Save)
	return router, services.NewPitchedItemService(userDataRepo)
}

func TestAccountHandler_SaveThenLoad(t *testing.T) {
	router, pitched := setupAccountRouter(t)

	if recorder := serve(t, router, http.MethodPut, "/api/account", `{"characters":[{"name":"Bera"}],"currentWeekKey":"2024-12-25"}`); recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for a non-Thursday week, got %d", recorder.Code)
	}
	if recorder := serve(t, router, http.MethodPut, "/api/account", `{`); recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for a bad body, got %d", recorder.Code)
	}

	recorder := serve(t, router, http.MethodPut, "/api/account", `{"characters":[{"name":"Bera"}],"weeklyBossClearHistory":{}}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	if _, err := pitched.Add(context.Background(), testUserID, services.PitchedItemInput{Character: "Bera", Boss: "Lotus", Item: "Berserked"}); err != nil {
		t.Fatalf("adding pitched item: %v", err)
	}

	recorder = serve(t, router, http.MethodGet, "/api/account", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var loaded services.LoadResult
	if err := json.NewDecoder(recorder.Body).Decode(&loaded); err != nil {
		t.Fatalf("decoding account: %v", err)
	}
	if len(loaded.Blob.Characters) != 1 || loaded.Blob.Characters[0].Name != "Bera" {
		t.Errorf("expected the saved characters, got %+v", loaded.Blob.Characters)
	}
	if len(loaded.PitchedItems) != 1 {
		t.Errorf("expected the saved character's pitched item to be kept, got %+v", loaded.PitchedItems)
	}
}
