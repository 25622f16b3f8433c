// Package api serves the leaderboard, the profit calculators and the
// saved dashboard preferences over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GiantWizard/wiz/mutations/internal/config"
	"github.com/GiantWizard/wiz/mutations/internal/leaderboard"
	"github.com/GiantWizard/wiz/mutations/internal/prefs"
)

const maxBody = 64 << 10

type Server struct {
	Boards *leaderboard.Service
	Prefs  *prefs.Preferences
	Log    *slog.Logger
}

func (s *Server) Router() http.Handler {
	if s.Log == nil {
		s.Log = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"name":    config.AppName,
			"version": config.Version,
		})
	})

	r.Get("/api/leaderboard", s.handleLeaderboard)

	r.Route("/api/profit", func(r chi.Router) {
		r.Post("/asap", s.handleASAP)
		r.Post("/afk", s.handleAFK)
	})
	r.Post("/api/rebase", s.handleRebase)
	r.Post("/api/stages", s.handleStages)
	r.Post("/api/scenario", s.handleScenario)

	r.Post("/api/fortune/toggle", s.handleFortuneToggle)
	r.Post("/api/fortune/change", s.handleFortuneChange)

	if s.Prefs != nil {
		r.Route("/api/prefs", func(r chi.Router) {
			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handlePutSettings)
			r.Patch("/settings", s.handlePatchSettings)
			r.Get("/maxed", s.handleGetMaxed)
			r.Put("/maxed", s.handlePutMaxed)
		})
	}
	return r
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
