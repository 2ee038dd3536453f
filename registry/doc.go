// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package registry stores candidates and panels.

A candidate belongs to the single race of its (constituency, ward). A
panel is its own race with three seats: two ward seats (A, B) and the
executive seat (ADHYAKSH).

# Registration

	c, err := reg.RegisterCandidate(ctx, registry.CandidateInput{...})
	p, err := reg.RegisterPanel(ctx, registry.PanelInput{...})

Inputs are validated first and a *ValidationError is returned for a
missing field or a serial outside its bound (single 1-19, A/B 1-50,
ADHYAKSH 1-20). A serial already used in the same race returns a
*ConflictError; the check is a UNIQUE constraint, so concurrent
registrations cannot both succeed.

# Lookup

	reg.GetCandidate(ctx, id)    // ErrNotFound if missing
	reg.Race(ctx, candidateID)   // all candidates in the same race
	reg.GetPanel(ctx, id)
	reg.Lookup(ctx, raceKey)     // race type and multiple-votes flag

# Ballot Layout

BuildRaceBallot and BuildPanelBallot turn records into EVM button rows.
*/
package registry
