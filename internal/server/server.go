// Package server exposes the game engine over HTTP.
//
// Routing and JSON shaping live here; all rules live in the service
// layer. Responses are JSON except the cell image endpoint, which
// serves the sliced image file itself.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"kufr-game/internal/config"
	"kufr-game/internal/game/guess"
	"kufr-game/internal/game/level"
	"kufr-game/internal/repository"
	"kufr-game/internal/service"
)

// Dependencies bundles everything the server needs.
type Dependencies struct {
	Config    *config.Config
	Sessions  *service.SessionService
	Results   *service.ResultsService
	Things    *repository.ThingRepository
	Responder *guess.Responder
}

// Server wires the router to the services.
type Server struct {
	r    *chi.Mux
	deps *Dependencies
	http *http.Server
}

// New constructs a Server, installs middleware, and registers routes.
func New(deps *Dependencies) *Server {
	s := &Server{r: chi.NewRouter(), deps: deps}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(deps.Config.Server.RequestTimeout))
	s.r.Use(requestLogger)

	s.r.Get("/health", s.handleHealth)

	s.r.Route("/games", func(r chi.Router) {
		r.Post("/", s.handleCreateGame)
		r.Route("/{slug}", func(r chi.Router) {
			r.Get("/", s.handleCurrentLevel)
			r.Post("/guess", s.handleGuess)
			r.Post("/reveals", s.handleReveal)
			r.Post("/hint", s.handleHint)
			r.Post("/advance", s.handleAdvance)
			r.Get("/results", s.handleResults)
			r.Get("/cells/{x}/{y}", s.handleCellImage)
		})
	})

	s.r.Get("/leaderboard", s.handleLeaderboard)

	s.r.Route("/things", func(r chi.Router) {
		r.Get("/", s.handleListThings)
		r.Post("/", s.handleCreateThing)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetThing)
			r.Put("/", s.handleUpdateThing)
			r.Delete("/", s.handleDeleteThing)
		})
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on the configured address.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    s.deps.Config.Server.Addr,
		Handler: s.r,
	}
	log.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, letting in-flight requests finish.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// requestLogger logs one line per request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeServiceError maps engine errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrGameNotFound),
		errors.Is(err, repository.ErrThingNotFound),
		errors.Is(err, repository.ErrLevelNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, repository.ErrNoOpenLevel):
		writeError(w, http.StatusConflict, "game_finished")
	case errors.Is(err, level.ErrAlreadySolved):
		writeError(w, http.StatusConflict, "already_solved")
	case errors.Is(err, service.ErrEmptyGuess):
		writeError(w, http.StatusBadRequest, "empty_guess")
	case errors.Is(err, repository.ErrNotEnoughThings):
		writeError(w, http.StatusConflict, "catalog_too_small")
	default:
		log.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}
