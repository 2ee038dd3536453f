// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the dummy EVM API.

# Handler Types

Each handler is a struct holding the components it drives:

  - CandidateHandler: single-candidate registration and race ballots
  - PanelHandler: three-seat panel registration and panel ballots
  - SessionHandler: voter sessions and the poster flag
  - VoteHandler: vote casting and the admin guard reset
  - LiveHandler: websocket streams for sessions and races

Handlers are created via constructor functions:

	candidates := handlers.NewCandidateHandler(reg, store, cfg)

# Registration

Candidates and panels are registered with multipart forms carrying text
fields and images. Text fields are validated before any file is written,
and every saved file is discarded if the registration fails.

	POST /candidates → CandidateHandler.Register
	POST /panel      → PanelHandler.Register

Admin operations require the X-Admin-Key header.

# Voting Flow

	POST   /sessions                    → SessionHandler.Open (returns voter_token)
	POST   /candidates/vote/{id}        → VoteHandler.CastCandidate
	POST   /panel/vote/{id}/{seat}      → VoteHandler.CastPanel
	GET    /ws/sessions/{token}         → LiveHandler.Session
	DELETE /sessions                    → SessionHandler.Close

Voter operations require the X-Voter-Token header. A successful cast
returns the new count in state "confirming"; the reveal arrives on the
session stream after the settle delay.

# Status Codes

	400 validation failure or bad seat
	401 missing, unknown or closed session
	404 unknown race
	409 duplicate serial number, or already voted
	413 upload too large
	429 a vote for the same seat is still in flight
	503 the vote could not be recorded after retries
*/
package handlers
