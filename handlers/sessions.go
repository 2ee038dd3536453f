// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/dummy-evm/auth"
	"github.com/danielhkuo/dummy-evm/cliparse"
	"github.com/danielhkuo/dummy-evm/middleware"
	"github.com/danielhkuo/dummy-evm/models"
	"github.com/danielhkuo/dummy-evm/session"
)

var errNoSession = errors.New("unknown or closed voting session")

type SessionHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	sessions *session.Manager
}

func NewSessionHandler(db *sql.DB, cfg cliparse.Config, sessions *session.Manager) *SessionHandler {
	return &SessionHandler{db: db, cfg: cfg, sessions: sessions}
}

// Open handles POST /sessions
// Issues a new voter token; the client sends it back as X-Voter-Token
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	token, err := auth.GenerateVoterToken()
	if err != nil {
		slog.Error("failed to generate voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to open session")
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.IPHashSalt)
	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO voter_session (token, ip_hash, user_agent, poster_shown, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, token, ipHash, r.UserAgent(), false, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert voter session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to open session")
		return
	}

	h.sessions.Open(token)
	slog.Info("voter session opened", "ip_hash", ipHash)

	middleware.JSONResponse(w, http.StatusCreated, models.OpenSessionResponse{VoterToken: token})
}

// Close handles DELETE /sessions
// Pending reveals are cancelled; recorded votes stay recorded
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	token, err := activeSession(r, h.db)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		UPDATE voter_session SET closed_at = $1 WHERE token = $2
	`, time.Now().UTC(), token)
	if err != nil {
		slog.Error("failed to close voter session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.sessions.Close(token)
	middleware.MessageResponse(w, http.StatusOK, "Session closed")
}

// MarkPoster handles POST /sessions/poster
// Records that the poster interstitial was shown for this session
func (h *SessionHandler) MarkPoster(w http.ResponseWriter, r *http.Request) {
	token, err := activeSession(r, h.db)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		UPDATE voter_session SET poster_shown = $1 WHERE token = $2
	`, true, token)
	if err != nil {
		slog.Error("failed to update poster flag", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SessionInfo{PosterShown: true})
}

// GetMe handles GET /sessions/me
func (h *SessionHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	token, err := activeSession(r, h.db)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	var info models.SessionInfo
	err = h.db.QueryRowContext(r.Context(), `
		SELECT poster_shown, created_at FROM voter_session WHERE token = $1
	`, token).Scan(&info.PosterShown, &info.CreatedAt)
	if err != nil {
		slog.Error("failed to query voter session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, info)
}

// activeSession returns the request's voter token if it names an open session
func activeSession(r *http.Request, db *sql.DB) (string, error) {
	token := r.Header.Get(middleware.VoterTokenHeader)
	if err := openSession(r.Context(), db, token); err != nil {
		return "", err
	}
	return token, nil
}

func openSession(ctx context.Context, db *sql.DB, token string) error {
	if err := auth.ValidateVoterToken(token); err != nil {
		return errNoSession
	}

	var closedAt sql.NullTime
	err := db.QueryRowContext(ctx, `
		SELECT closed_at FROM voter_session WHERE token = $1
	`, token).Scan(&closedAt)
	if err == sql.ErrNoRows || closedAt.Valid {
		return errNoSession
	}
	return err
}

// liveController returns the controller for an open session. A session
// closed after the caller's check gets its new controller torn down
// again.
func liveController(ctx context.Context, db *sql.DB, sessions *session.Manager, token string) (*session.Controller, error) {
	if ctrl, ok := sessions.Get(token); ok {
		return ctrl, nil
	}
	ctrl := sessions.Open(token)
	if err := openSession(ctx, db, token); err != nil {
		if errors.Is(err, errNoSession) {
			sessions.Close(token)
		}
		return nil, err
	}
	return ctrl, nil
}

func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNoSession) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token must name an open session")
		return
	}
	slog.Error("failed to look up voter session", "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}
