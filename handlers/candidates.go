// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/dummy-evm/cliparse"
	"github.com/danielhkuo/dummy-evm/media"
	"github.com/danielhkuo/dummy-evm/middleware"
	"github.com/danielhkuo/dummy-evm/models"
	"github.com/danielhkuo/dummy-evm/registry"
)

type CandidateHandler struct {
	reg   *registry.Registry
	media *media.Store
	cfg   cliparse.Config
}

func NewCandidateHandler(reg *registry.Registry, store *media.Store, cfg cliparse.Config) *CandidateHandler {
	return &CandidateHandler{reg: reg, media: store, cfg: cfg}
}

// Register handles POST /candidates (admin, multipart)
func (h *CandidateHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.media); err != nil {
		writeFormError(w, err, h.media)
		return
	}

	up := &uploads{store: h.media, r: r}
	c, err := h.register(r, up)
	if err != nil {
		up.discard()
		writeError(w, err, "Candidate not found")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, c)
}

func (h *CandidateHandler) register(r *http.Request, up *uploads) (models.Candidate, error) {
	serial, err := formInt(r, "serialNo")
	if err != nil {
		return models.Candidate{}, err
	}

	in := registry.CandidateInput{
		Name:          formText(r, "candidateName"),
		SymbolName:    formText(r, "symbolName"),
		Party:         formText(r, "party"),
		Constituency:  formText(r, "constituency"),
		WardNo:        formText(r, "wardNo"),
		SerialNo:      serial,
		MultipleVotes: formBool(r, "multipleVotes"),
	}

	// Reject bad text fields before writing any file
	probe := in
	probe.Photo, probe.SymbolImage = "-", "-"
	if err := probe.Validate(); err != nil {
		return models.Candidate{}, err
	}

	if in.Photo, err = up.file("candidatePhoto"); err != nil {
		return models.Candidate{}, err
	}
	if in.SymbolImage, err = up.file("symbolImage"); err != nil {
		return models.Candidate{}, err
	}
	if in.Poster, err = up.optional("candidatePoster"); err != nil {
		return models.Candidate{}, err
	}

	return h.reg.RegisterCandidate(r.Context(), in)
}

// List handles GET /candidates
func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.reg.ListCandidates(r.Context())
	if err != nil {
		writeError(w, err, "")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, candidates)
}

// Get handles GET /candidates/{id}
func (h *CandidateHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.reg.GetCandidate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Candidate not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, c)
}

// Race handles GET /candidates/{id}/race
// Returns the EVM ballot for the candidate's constituency and ward
func (h *CandidateHandler) Race(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.reg.Race(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Candidate not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, registry.BuildRaceBallot(candidates))
}

// Delete handles DELETE /candidates/{id} (admin)
func (h *CandidateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := h.reg.GetCandidate(r.Context(), id)
	if err != nil {
		writeError(w, err, "Candidate not found")
		return
	}

	if err := h.reg.DeleteCandidate(r.Context(), id); err != nil {
		writeError(w, err, "Candidate not found")
		return
	}

	refs := []string{c.Photo, c.SymbolImage}
	if c.Poster != nil {
		refs = append(refs, *c.Poster)
	}
	for _, ref := range refs {
		if err := h.media.Remove(ref); err != nil {
			slog.Warn("failed to remove candidate media", "candidate_id", id, "error", err)
		}
	}

	middleware.MessageResponse(w, http.StatusOK, "Candidate deleted")
}

// writeFormError reports a multipart body that could not be parsed
func writeFormError(w http.ResponseWriter, err error, store *media.Store) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge,
			"Upload exceeds "+humanize.Bytes(uint64(store.MaxBytes()))+" per file")
		return
	}
	middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid multipart form")
}
