// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/dummy-evm/cliparse"
	"github.com/danielhkuo/dummy-evm/events"
	"github.com/danielhkuo/dummy-evm/guard"
	"github.com/danielhkuo/dummy-evm/handlers"
	"github.com/danielhkuo/dummy-evm/media"
	"github.com/danielhkuo/dummy-evm/metrics"
	"github.com/danielhkuo/dummy-evm/middleware"
	"github.com/danielhkuo/dummy-evm/pubsub"
	"github.com/danielhkuo/dummy-evm/registry"
	"github.com/danielhkuo/dummy-evm/session"
)

// Services are the long-lived components the handlers drive
type Services struct {
	Guard    *guard.Guard
	Sessions *session.Manager
	Hub      *pubsub.Hub
	Media    *media.Store
	Events   events.Publisher
	Metrics  *metrics.Metrics
}

func NewRouter(db *sql.DB, cfg cliparse.Config, svc Services) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	reg := registry.New(db)
	candidateHandler := handlers.NewCandidateHandler(reg, svc.Media, cfg)
	panelHandler := handlers.NewPanelHandler(reg, svc.Media, cfg)
	sessionHandler := handlers.NewSessionHandler(db, cfg, svc.Sessions)
	voteHandler := handlers.NewVoteHandler(db, cfg, reg, svc.Guard, svc.Sessions, svc.Events, svc.Metrics)
	liveHandler := handlers.NewLiveHandler(db, svc.Hub)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKey, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", svc.Metrics.Handler())
	mux.Handle("GET "+media.URLPrefix, svc.Media.Handler())

	// Candidates
	mux.HandleFunc("POST /candidates", admin(candidateHandler.Register))
	mux.HandleFunc("GET /candidates", middleware.WithLogging(candidateHandler.List))
	mux.HandleFunc("GET /candidates/{id}", middleware.WithLogging(candidateHandler.Get))
	mux.HandleFunc("GET /candidates/{id}/race", middleware.WithLogging(candidateHandler.Race))
	mux.HandleFunc("DELETE /candidates/{id}", admin(candidateHandler.Delete))

	// Panels
	mux.HandleFunc("POST /panel", admin(panelHandler.Register))
	mux.HandleFunc("GET /panel", middleware.WithLogging(panelHandler.List))
	mux.HandleFunc("GET /panel/{id}", middleware.WithLogging(panelHandler.Get))
	mux.HandleFunc("GET /panel/{id}/ballot", middleware.WithLogging(panelHandler.Ballot))
	mux.HandleFunc("DELETE /panel/{id}", admin(panelHandler.Delete))

	// Voter sessions
	mux.HandleFunc("POST /sessions", middleware.WithLogging(sessionHandler.Open))
	mux.HandleFunc("DELETE /sessions", middleware.WithLogging(sessionHandler.Close))
	mux.HandleFunc("POST /sessions/poster", middleware.WithLogging(sessionHandler.MarkPoster))
	mux.HandleFunc("GET /sessions/me", middleware.WithLogging(sessionHandler.GetMe))

	// Voting
	mux.HandleFunc("POST /candidates/vote/{id}", middleware.WithLogging(voteHandler.CastCandidate))
	mux.HandleFunc("PATCH /candidates/vote/{id}", middleware.WithLogging(voteHandler.CastCandidate))
	mux.HandleFunc("POST /panel/vote/{id}/{seat}", middleware.WithLogging(voteHandler.CastPanel))
	mux.HandleFunc("PATCH /panel/vote/{id}/{seat}", middleware.WithLogging(voteHandler.CastPanel))
	mux.HandleFunc("DELETE /guard/{raceID}", admin(voteHandler.ResetGuard))

	// Live streams
	mux.HandleFunc("GET /ws/races/{id}", middleware.WithLogging(liveHandler.Race))
	mux.HandleFunc("GET /ws/sessions/{token}", middleware.WithLogging(liveHandler.Session))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dummy-evm API v1"))
	})

	return mux
}
