// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - Candidate: a contestant in a single-candidate race
  - Panel: a slate with three seats (A, B, ADHYAKSH) tallied independently
  - PanelSeat: one seat of a panel with its own counter
  - RaceKey: (race id, seat) address of one counter

# Seats

	SeatSingle   = "SINGLE"    candidate races
	SeatA        = "A"         ward seat, serial 1-50
	SeatB        = "B"         ward seat, serial 1-50
	SeatAdhyaksh = "ADHYAKSH"  executive seat, serial 1-20

Single races allow serial 1-19 (MaxSerial).

# Ballot Layout

  - BallotRow: one EVM button row, empty rows have no Entry
  - RaceBallot: candidates of one race with rows and total
  - PanelBallot: panel with per-seat rows and total

# Envelope

Every JSON response is wrapped:

	{"success": true, "data": {...}}
	{"success": false, "message": "..."}

# Events

  - SessionEvent: confirmed, revealed, thank_you, failed
  - TallyUpdate: live count for a race seat
  - VoteEvent: durable vote published to the event stream
*/
package models
