// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the dummy EVM API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, router.Services{...})

Services carries the long-lived components built in main: the guard,
the session manager, the websocket hub, the media store, the vote event
publisher and the metrics registry.

# Endpoints

Health and operations:

	GET /health
	GET /metrics
	GET /media/{file}

Registration (admin, requires X-Admin-Key):

	POST   /candidates      - Register a candidate (multipart)
	DELETE /candidates/{id} - Remove a candidate
	POST   /panel           - Register a three-seat panel (multipart)
	DELETE /panel/{id}      - Remove a panel
	DELETE /guard/{raceID}  - Clear duplicate-vote marks for a race

Ballots (public):

	GET /candidates
	GET /candidates/{id}
	GET /candidates/{id}/race - EVM ballot for the candidate's ward
	GET /panel
	GET /panel/{id}
	GET /panel/{id}/ballot    - EVM ballot for the panel

Voting (requires X-Voter-Token):

	POST       /sessions                - Open a session
	DELETE     /sessions                - Close the session
	POST       /sessions/poster         - Mark the poster as shown
	GET        /sessions/me             - Session info
	POST|PATCH /candidates/vote/{id}    - Vote for a candidate
	POST|PATCH /panel/vote/{id}/{seat}  - Vote for one panel seat

Live streams (websocket):

	GET /ws/races/{id}       - Tally updates
	GET /ws/sessions/{token} - One voter's vote progress
*/
package router
