// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/dummy-evm/guard"
	"github.com/danielhkuo/dummy-evm/ledger"
	"github.com/danielhkuo/dummy-evm/media"
	"github.com/danielhkuo/dummy-evm/middleware"
	"github.com/danielhkuo/dummy-evm/registry"
	"github.com/danielhkuo/dummy-evm/session"
)

// writeError maps domain errors to status codes. notFound is the
// message used for a missing record.
func writeError(w http.ResponseWriter, err error, notFound string) {
	var verr *registry.ValidationError
	var cerr *registry.ConflictError
	var perr *ledger.PersistenceError
	var serr *guard.StoreError

	switch {
	case errors.As(err, &verr):
		middleware.ErrorResponse(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &cerr):
		middleware.ErrorResponse(w, http.StatusConflict, cerr.Error())
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, ledger.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, notFound)
	case errors.Is(err, media.ErrTooLarge):
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, media.ErrUnsupported):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrBusy):
		middleware.ErrorResponse(w, http.StatusTooManyRequests, "A vote for this seat is already in progress")
	case errors.Is(err, session.ErrClosed):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Voting session is closed")
	case errors.As(err, &perr), errors.As(err, &serr):
		slog.Warn("vote not recorded", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Failed to record vote, please try again")
	default:
		slog.Error("request failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}
