// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/dummy-evm/pubsub"
)

type LiveHandler struct {
	db  *sql.DB
	hub *pubsub.Hub
}

func NewLiveHandler(db *sql.DB, hub *pubsub.Hub) *LiveHandler {
	return &LiveHandler{db: db, hub: hub}
}

// Race handles GET /ws/races/{id}
// Streams tally updates for the race as votes settle
func (h *LiveHandler) Race(w http.ResponseWriter, r *http.Request) {
	h.hub.Serve(w, r, pubsub.RaceTopic(r.PathValue("id")))
}

// Session handles GET /ws/sessions/{token}
// Streams vote progress events for one voter.
// The token is in the path because browsers cannot set headers on a
// websocket handshake.
func (h *LiveHandler) Session(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if err := openSession(r.Context(), h.db, token); err != nil {
		writeSessionError(w, err)
		return
	}
	h.hub.Serve(w, r, pubsub.SessionTopic(token))
}
