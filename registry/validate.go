// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registry

import (
	"fmt"
	"strings"

	"github.com/danielhkuo/dummy-evm/models"
)

// ValidationError reports a missing field or an out-of-range value.
// Nothing is written when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// CandidateInput is a single-race registration. Photo, SymbolImage and
// Poster are media references (stored paths).
type CandidateInput struct {
	Name          string
	SymbolName    string
	Party         string
	Constituency  string
	WardNo        string
	SerialNo      int
	MultipleVotes bool
	Photo         string
	SymbolImage   string
	Poster        *string
}

func (in CandidateInput) Validate() error {
	if err := required(map[string]string{
		"candidateName": in.Name,
		"symbolName":    in.SymbolName,
		"party":         in.Party,
		"constituency":  in.Constituency,
		"wardNo":        in.WardNo,
	}); err != nil {
		return err
	}
	if err := checkSerial("serialNo", models.SeatSingle, in.SerialNo); err != nil {
		return err
	}
	if in.Photo == "" {
		return invalid("candidatePhoto", "photo is required")
	}
	if in.SymbolImage == "" {
		return invalid("symbolImage", "symbol image is required")
	}
	return nil
}

// SeatInput is one seat of a panel registration
type SeatInput struct {
	Name        string
	SerialNo    int
	Party       string
	SymbolName  string
	Photo       string
	SymbolImage string
}

type PanelInput struct {
	Constituency  string
	WardNo        string
	MultipleVotes bool
	Poster        *string
	Seats         map[models.Seat]SeatInput
}

func (in PanelInput) Validate() error {
	if err := required(map[string]string{
		"constituency": in.Constituency,
		"wardNo":       in.WardNo,
	}); err != nil {
		return err
	}

	for _, seat := range models.PanelSeats {
		s, ok := in.Seats[seat]
		prefix := SeatFieldPrefix(seat)
		if !ok {
			return invalid(prefix, "seat %s is missing", seat)
		}
		if err := required(map[string]string{
			prefix + "Name":       s.Name,
			prefix + "Party":      s.Party,
			prefix + "SymbolName": s.SymbolName,
		}); err != nil {
			return err
		}
		if err := checkSerial(prefix+"SerialNo", seat, s.SerialNo); err != nil {
			return err
		}
		if s.Photo == "" {
			return invalid(prefix+"Photo", "photo is required")
		}
		if s.SymbolImage == "" {
			return invalid(prefix+"SymbolImage", "symbol image is required")
		}
	}
	return nil
}

// SeatFieldPrefix returns the multipart field prefix for a panel seat,
// e.g. candidateA, candidateAdhyaksh.
func SeatFieldPrefix(seat models.Seat) string {
	if seat == models.SeatAdhyaksh {
		return "candidateAdhyaksh"
	}
	return "candidate" + string(seat)
}

func checkSerial(field string, seat models.Seat, serial int) error {
	max := models.MaxSerial(seat)
	if serial < 1 || serial > max {
		return invalid(field, "serial number must be between 1 and %d", max)
	}
	return nil
}

// required checks fields in a stable order so the reported field is deterministic
func required(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	first := missing[0]
	for _, m := range missing[1:] {
		if m < first {
			first = m
		}
	}
	return invalid(first, "%s is required", first)
}
