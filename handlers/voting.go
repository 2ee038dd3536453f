// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/dummy-evm/auth"
	"github.com/danielhkuo/dummy-evm/cliparse"
	"github.com/danielhkuo/dummy-evm/events"
	"github.com/danielhkuo/dummy-evm/guard"
	"github.com/danielhkuo/dummy-evm/ledger"
	"github.com/danielhkuo/dummy-evm/metrics"
	"github.com/danielhkuo/dummy-evm/middleware"
	"github.com/danielhkuo/dummy-evm/models"
	"github.com/danielhkuo/dummy-evm/registry"
	"github.com/danielhkuo/dummy-evm/session"
)

type VoteHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	reg      *registry.Registry
	guard    *guard.Guard
	sessions *session.Manager
	events   events.Publisher
	metrics  *metrics.Metrics
}

func NewVoteHandler(db *sql.DB, cfg cliparse.Config, reg *registry.Registry, g *guard.Guard,
	sessions *session.Manager, pub events.Publisher, m *metrics.Metrics) *VoteHandler {
	if pub == nil {
		pub = events.Nop{}
	}
	return &VoteHandler{
		db:       db,
		cfg:      cfg,
		reg:      reg,
		guard:    g,
		sessions: sessions,
		events:   pub,
		metrics:  m,
	}
}

// CastCandidate handles POST|PATCH /candidates/vote/{id}
func (h *VoteHandler) CastCandidate(w http.ResponseWriter, r *http.Request) {
	key := models.RaceKey{RaceID: r.PathValue("id"), Seat: models.SeatSingle}
	h.cast(w, r, key)
}

// CastPanel handles POST|PATCH /panel/vote/{id}/{seat}
func (h *VoteHandler) CastPanel(w http.ResponseWriter, r *http.Request) {
	seat, ok := models.ParseSeat(r.PathValue("seat"))
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "seat must be one of A, B, ADHYAKSH")
		return
	}
	h.cast(w, r, models.RaceKey{RaceID: r.PathValue("id"), Seat: seat})
}

func (h *VoteHandler) cast(w http.ResponseWriter, r *http.Request, key models.RaceKey) {
	token, err := activeSession(r, h.db)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	// Body is optional; a client-side count is accepted but not trusted
	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	raceType, multiple, err := h.reg.Lookup(r.Context(), key)
	if err != nil {
		writeError(w, err, "Race not found")
		return
	}

	ballot := session.Ballot{Key: key, MultipleVotes: multiple}
	if raceType == models.RacePanel {
		ballot.Eligible = models.PanelSeats
	}

	ctrl, err := liveController(r.Context(), h.db, h.sessions, token)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	out, err := ctrl.Cast(r.Context(), ballot)
	if err != nil {
		var perr *ledger.PersistenceError
		var serr *guard.StoreError
		if errors.As(err, &perr) || errors.As(err, &serr) {
			h.metrics.VoteFailed(raceType, string(key.Seat))
		}
		writeError(w, err, "Race not found")
		return
	}

	if !out.Allowed {
		h.metrics.VoteDuplicate(raceType, string(key.Seat))
		middleware.ErrorResponse(w, http.StatusConflict, "You have already voted")
		return
	}

	h.metrics.VoteCast(raceType, string(key.Seat))
	ev := models.VoteEvent{
		RaceID:    key.RaceID,
		Seat:      key.Seat,
		RaceType:  raceType,
		Votes:     out.Votes,
		VoterHash: auth.HashVoterToken(token, h.cfg.IPHashSalt),
		Timestamp: time.Now().UTC(),
	}
	if err := h.events.Publish(r.Context(), ev); err != nil {
		slog.Warn("failed to publish vote event", "race", key.String(), "error", err)
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteResponse{
		RaceID: key.RaceID,
		Seat:   key.Seat,
		Result: models.ResultAllowed,
		Votes:  out.Votes,
		State:  out.State.String(),
	})
}

// ResetGuard handles DELETE /guard/{raceID} (admin)
// Clears duplicate-vote marks so a race can be voted again
func (h *VoteHandler) ResetGuard(w http.ResponseWriter, r *http.Request) {
	raceID := r.PathValue("raceID")
	cleared, err := h.guard.Reset(r.Context(), raceID)
	if err != nil {
		writeError(w, err, "")
		return
	}

	slog.Info("guard reset", "race_id", raceID, "cleared", cleared)
	middleware.JSONResponse(w, http.StatusOK, models.GuardResetResponse{Cleared: cleared})
}
