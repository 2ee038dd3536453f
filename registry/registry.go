// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/dummy-evm/db"
	"github.com/danielhkuo/dummy-evm/models"
)

var ErrNotFound = errors.New("record not found")

// ConflictError reports a serial number already taken in the same race
type ConflictError struct {
	Seat     models.Seat
	SerialNo int
}

func (e *ConflictError) Error() string {
	if e.Seat == models.SeatSingle {
		return fmt.Sprintf("serial number %d is already taken in this race", e.SerialNo)
	}
	return fmt.Sprintf("serial number %d is already taken for seat %s in this race", e.SerialNo, e.Seat)
}

// Registry stores candidate and panel records. Vote counters live on the
// same rows but are only ever changed by the ledger.
type Registry struct {
	db *sql.DB
}

func New(db *sql.DB) *Registry {
	return &Registry{db: db}
}

const candidateColumns = `id, name, symbol_name, party, constituency, ward_no, serial_no,
	multiple_votes, photo, symbol_image, poster, votes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (models.Candidate, error) {
	var c models.Candidate
	var poster sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.SymbolName, &c.Party, &c.Constituency, &c.WardNo,
		&c.SerialNo, &c.MultipleVotes, &c.Photo, &c.SymbolImage, &poster, &c.Votes,
		&c.CreatedAt, &c.UpdatedAt)
	if poster.Valid {
		c.Poster = &poster.String
	}
	return c, err
}

// RegisterCandidate validates and stores a single-race candidate
func (r *Registry) RegisterCandidate(ctx context.Context, in CandidateInput) (models.Candidate, error) {
	if err := in.Validate(); err != nil {
		return models.Candidate{}, err
	}

	now := time.Now().UTC()
	c := models.Candidate{
		ID:            uuid.NewString(),
		Name:          in.Name,
		SymbolName:    in.SymbolName,
		Party:         in.Party,
		Constituency:  in.Constituency,
		WardNo:        in.WardNo,
		SerialNo:      in.SerialNo,
		MultipleVotes: in.MultipleVotes,
		Photo:         in.Photo,
		SymbolImage:   in.SymbolImage,
		Poster:        in.Poster,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO candidate (id, name, symbol_name, party, constituency, ward_no, serial_no,
			multiple_votes, photo, symbol_image, poster, votes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $13)
	`, c.ID, c.Name, c.SymbolName, c.Party, c.Constituency, c.WardNo, c.SerialNo,
		c.MultipleVotes, c.Photo, c.SymbolImage, nullString(c.Poster), now, now)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.Candidate{}, &ConflictError{Seat: models.SeatSingle, SerialNo: c.SerialNo}
		}
		return models.Candidate{}, fmt.Errorf("failed to insert candidate: %w", err)
	}

	slog.Info("candidate registered", "candidate_id", c.ID, "constituency", c.Constituency,
		"ward", c.WardNo, "serial", c.SerialNo)
	return c, nil
}

// GetCandidate returns one candidate or ErrNotFound
func (r *Registry) GetCandidate(ctx context.Context, id string) (models.Candidate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidate WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return models.Candidate{}, ErrNotFound
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to query candidate: %w", err)
	}
	return c, nil
}

// ListCandidates returns every candidate grouped by race and serial
func (r *Registry) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	return r.queryCandidates(ctx, `
		SELECT `+candidateColumns+` FROM candidate
		ORDER BY constituency, ward_no, serial_no
	`)
}

// Race returns every candidate sharing the given candidate's constituency
// and ward, ordered by serial number.
func (r *Registry) Race(ctx context.Context, candidateID string) ([]models.Candidate, error) {
	c, err := r.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return r.queryCandidates(ctx, `
		SELECT `+candidateColumns+` FROM candidate
		WHERE constituency = $1 AND ward_no = $2
		ORDER BY serial_no
	`, c.Constituency, c.WardNo)
}

func (r *Registry) queryCandidates(ctx context.Context, query string, args ...any) ([]models.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// DeleteCandidate removes a candidate. Administrative only; guard markers
// for the race are left in place.
func (r *Registry) DeleteCandidate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM candidate WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.Info("candidate deleted", "candidate_id", id)
	return nil
}

// RegisterPanel validates and stores a panel with its three seats
func (r *Registry) RegisterPanel(ctx context.Context, in PanelInput) (models.Panel, error) {
	if err := in.Validate(); err != nil {
		return models.Panel{}, err
	}

	now := time.Now().UTC()
	p := models.Panel{
		ID:            uuid.NewString(),
		Constituency:  in.Constituency,
		WardNo:        in.WardNo,
		MultipleVotes: in.MultipleVotes,
		Poster:        in.Poster,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Panel{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO panel (id, constituency, ward_no, multiple_votes, poster, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Constituency, p.WardNo, p.MultipleVotes, nullString(p.Poster), true, now, now)
	if err != nil {
		return models.Panel{}, fmt.Errorf("failed to insert panel: %w", err)
	}

	for _, seat := range models.PanelSeats {
		s := in.Seats[seat]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO panel_seat (panel_id, seat, constituency, ward_no, name, serial_no,
				party, symbol_name, photo, symbol_image, votes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0)
		`, p.ID, string(seat), p.Constituency, p.WardNo, s.Name, s.SerialNo,
			s.Party, s.SymbolName, s.Photo, s.SymbolImage)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return models.Panel{}, &ConflictError{Seat: seat, SerialNo: s.SerialNo}
			}
			return models.Panel{}, fmt.Errorf("failed to insert panel seat %s: %w", seat, err)
		}
		p.Seats = append(p.Seats, models.PanelSeat{
			Seat:        seat,
			Name:        s.Name,
			SerialNo:    s.SerialNo,
			Party:       s.Party,
			SymbolName:  s.SymbolName,
			Photo:       s.Photo,
			SymbolImage: s.SymbolImage,
		})
	}

	if err := tx.Commit(); err != nil {
		return models.Panel{}, fmt.Errorf("failed to commit panel: %w", err)
	}

	slog.Info("panel registered", "panel_id", p.ID, "constituency", p.Constituency, "ward", p.WardNo,
		"multiple_votes", p.MultipleVotes)
	return p, nil
}

// GetPanel returns a panel with its seats or ErrNotFound
func (r *Registry) GetPanel(ctx context.Context, id string) (models.Panel, error) {
	var p models.Panel
	var poster sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, constituency, ward_no, multiple_votes, poster, is_active, created_at, updated_at
		FROM panel WHERE id = $1
	`, id).Scan(&p.ID, &p.Constituency, &p.WardNo, &p.MultipleVotes, &poster, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Panel{}, ErrNotFound
	}
	if err != nil {
		return models.Panel{}, fmt.Errorf("failed to query panel: %w", err)
	}
	if poster.Valid {
		p.Poster = &poster.String
	}

	seats, err := r.panelSeats(ctx, p.ID)
	if err != nil {
		return models.Panel{}, err
	}
	p.Seats = seats
	return p, nil
}

// ListPanels returns every panel with seats, newest first
func (r *Registry) ListPanels(ctx context.Context) ([]models.Panel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM panel ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query panels: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan panel: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read panels: %w", err)
	}

	panels := []models.Panel{}
	for _, id := range ids {
		p, err := r.GetPanel(ctx, id)
		if err != nil {
			return nil, err
		}
		panels = append(panels, p)
	}
	return panels, nil
}

func (r *Registry) panelSeats(ctx context.Context, panelID string) ([]models.PanelSeat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seat, name, serial_no, party, symbol_name, photo, symbol_image, votes
		FROM panel_seat WHERE panel_id = $1
	`, panelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query panel seats: %w", err)
	}
	defer rows.Close()

	bySeat := make(map[models.Seat]models.PanelSeat)
	for rows.Next() {
		var s models.PanelSeat
		var seat string
		if err := rows.Scan(&seat, &s.Name, &s.SerialNo, &s.Party, &s.SymbolName,
			&s.Photo, &s.SymbolImage, &s.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan panel seat: %w", err)
		}
		s.Seat = models.Seat(seat)
		bySeat[s.Seat] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read panel seats: %w", err)
	}

	// Ballot order, not storage order
	seats := make([]models.PanelSeat, 0, len(bySeat))
	for _, seat := range models.PanelSeats {
		if s, ok := bySeat[seat]; ok {
			seats = append(seats, s)
		}
	}
	return seats, nil
}

// DeletePanel removes a panel and its seats
func (r *Registry) DeletePanel(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM panel_seat WHERE panel_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete panel seats: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM panel WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete panel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit panel delete: %w", err)
	}
	slog.Info("panel deleted", "panel_id", id)
	return nil
}

// Lookup resolves a race key to its race type and multiple-votes flag.
// Panel seat keys must name an existing seat.
func (r *Registry) Lookup(ctx context.Context, key models.RaceKey) (raceType string, multipleVotes bool, err error) {
	if key.Seat == models.SeatSingle {
		err = r.db.QueryRowContext(ctx, `SELECT multiple_votes FROM candidate WHERE id = $1`, key.RaceID).Scan(&multipleVotes)
		raceType = models.RaceCandidate
	} else {
		err = r.db.QueryRowContext(ctx, `
			SELECT p.multiple_votes FROM panel p
			JOIN panel_seat s ON s.panel_id = p.id
			WHERE p.id = $1 AND s.seat = $2
		`, key.RaceID, string(key.Seat)).Scan(&multipleVotes)
		raceType = models.RacePanel
	}
	if err == sql.ErrNoRows {
		return "", false, ErrNotFound
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up race %s: %w", key, err)
	}
	return raceType, multipleVotes, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
