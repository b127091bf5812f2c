package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nv0110/bosstracker/internal/config"
	"github.com/nv0110/bosstracker/internal/handlers"
	"github.com/nv0110/bosstracker/internal/middleware"
	"github.com/nv0110/bosstracker/internal/repository"
	"github.com/nv0110/bosstracker/internal/services"
)

type Server struct {
	router *chi.Mux
	config config.Config
}

func New(database *sql.DB, cfg config.Config) *Server {
	weeklyRepo := repository.NewWeeklyRecordRepository(database)
	userDataRepo := repository.NewUserDataRepository(database)
	registryRepo := repository.NewBossRegistryRepository(database)
	tokenRepo := repository.NewAPITokenRepository(database)
	accountRepo := repository.NewAccountRepository(database)

	weeklyService := services.NewWeeklyService(weeklyRepo, registryRepo).WithStrictVersioning(cfg.StrictVersioning)
	accountService := services.NewAccountService(userDataRepo, accountRepo, weeklyService)
	pitchedService := services.NewPitchedItemService(userDataRepo)
	registryService := services.NewRegistryService(registryRepo)
	tokenService := services.NewTokenService(tokenRepo)

	weekHandler := handlers.NewWeekHandler(weeklyService, accountService)
	pitchedHandler := handlers.NewPitchedHandler(pitchedService)
	accountHandler := handlers.NewAccountHandler(accountService)
	apiHandler := handlers.NewAPIHandler(registryService, tokenService)

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Compress(5))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.APITokenAuth(tokenRepo))

		r.Get("/api/registry", apiHandler.ListRegistry)

		r.Get("/api/tokens", apiHandler.ListTokens)
		r.Post("/api/tokens", apiHandler.CreateToken)
		r.Delete("/api/tokens/{id}", apiHandler.DeleteToken)

		r.Get("/api/weeks", weekHandler.List)
		r.Get("/api/weeks/current", weekHandler.Current)
		r.Route("/api/weeks/{week}", func(r chi.Router) {
			r.Get("/", weekHandler.Get)
			r.Post("/copy-forward", weekHandler.CopyForward)
			r.Post("/characters", weekHandler.AddCharacter)

			r.Route("/characters/{id}", func(r chi.Router) {
				r.Delete("/", weekHandler.DeleteCharacter)
				r.Put("/name", weekHandler.RenameCharacter)
				r.Put("/bosses", weekHandler.SetBossConfig)
				r.Put("/clears", weekHandler.SetClears)
				r.Delete("/clears", weekHandler.ClearAll)
				r.Post("/clears/all", weekHandler.MarkAll)
				r.Post("/clears/{code}", weekHandler.ToggleClear)
			})
		})

		r.Get("/api/pitched", pitchedHandler.List)
		r.Post("/api/pitched", pitchedHandler.Add)
		r.Delete("/api/pitched", pitchedHandler.ClearWeek)
		r.Get("/api/pitched/stats", pitchedHandler.Stats)
		r.Post("/api/pitched/remove", pitchedHandler.RemoveMany)
		r.Delete("/api/pitched/all", pitchedHandler.PurgeAll)
		r.Delete("/api/pitched/{id}", pitchedHandler.Remove)

		r.Get("/api/account", accountHandler.Load)
		r.Put("/api/account", accountHandler.Save)
		r.Delete("/api/account", accountHandler.Delete)
		r.Post("/api/account/purge-legacy", accountHandler.PurgeLegacy)
	})

	server := &Server{
		router: router,
		config: cfg,
	}

	return server
}

func (server *Server) Handler() http.Handler {
	return server.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (server *Server) Start(ctx context.Context) error {
	address := ":" + server.config.Port
	httpServer := &http.Server{
		Addr:              address,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", address)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
