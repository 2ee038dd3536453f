// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/dummy-evm/cliparse"
	"github.com/danielhkuo/dummy-evm/media"
	"github.com/danielhkuo/dummy-evm/middleware"
	"github.com/danielhkuo/dummy-evm/models"
	"github.com/danielhkuo/dummy-evm/registry"
)

type PanelHandler struct {
	reg   *registry.Registry
	media *media.Store
	cfg   cliparse.Config
}

func NewPanelHandler(reg *registry.Registry, store *media.Store, cfg cliparse.Config) *PanelHandler {
	return &PanelHandler{reg: reg, media: store, cfg: cfg}
}

// Register handles POST /panel (admin, multipart)
// Fields per seat are prefixed candidateA, candidateB, candidateAdhyaksh
func (h *PanelHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.media); err != nil {
		writeFormError(w, err, h.media)
		return
	}

	up := &uploads{store: h.media, r: r}
	p, err := h.register(r, up)
	if err != nil {
		up.discard()
		writeError(w, err, "Panel not found")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, p)
}

func (h *PanelHandler) register(r *http.Request, up *uploads) (models.Panel, error) {
	in := registry.PanelInput{
		Constituency:  formText(r, "constituency"),
		WardNo:        formText(r, "wardNo"),
		MultipleVotes: formBool(r, "multipleVotes"),
		Seats:         make(map[models.Seat]registry.SeatInput, len(models.PanelSeats)),
	}

	for _, seat := range models.PanelSeats {
		prefix := registry.SeatFieldPrefix(seat)
		serial, err := formInt(r, prefix+"SerialNo")
		if err != nil {
			return models.Panel{}, err
		}
		in.Seats[seat] = registry.SeatInput{
			Name:        formText(r, prefix+"Name"),
			SerialNo:    serial,
			Party:       formText(r, prefix+"Party"),
			SymbolName:  formText(r, prefix+"SymbolName"),
			Photo:       "-",
			SymbolImage: "-",
		}
	}

	// Reject bad text fields before writing any file
	if err := in.Validate(); err != nil {
		return models.Panel{}, err
	}

	for _, seat := range models.PanelSeats {
		prefix := registry.SeatFieldPrefix(seat)
		s := in.Seats[seat]
		var err error
		if s.Photo, err = up.file(prefix + "Photo"); err != nil {
			return models.Panel{}, err
		}
		if s.SymbolImage, err = up.file(prefix + "SymbolImage"); err != nil {
			return models.Panel{}, err
		}
		in.Seats[seat] = s
	}

	var err error
	if in.Poster, err = up.optional("candidatePoster"); err != nil {
		return models.Panel{}, err
	}

	return h.reg.RegisterPanel(r.Context(), in)
}

// List handles GET /panel
func (h *PanelHandler) List(w http.ResponseWriter, r *http.Request) {
	panels, err := h.reg.ListPanels(r.Context())
	if err != nil {
		writeError(w, err, "")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, panels)
}

// Get handles GET /panel/{id}
func (h *PanelHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.reg.GetPanel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Panel not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, p)
}

// Ballot handles GET /panel/{id}/ballot
func (h *PanelHandler) Ballot(w http.ResponseWriter, r *http.Request) {
	p, err := h.reg.GetPanel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Panel not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, registry.BuildPanelBallot(p))
}

// Delete handles DELETE /panel/{id} (admin)
func (h *PanelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.reg.GetPanel(r.Context(), id)
	if err != nil {
		writeError(w, err, "Panel not found")
		return
	}
	if err := h.reg.DeletePanel(r.Context(), id); err != nil {
		writeError(w, err, "Panel not found")
		return
	}

	var refs []string
	for _, s := range p.Seats {
		refs = append(refs, s.Photo, s.SymbolImage)
	}
	if p.Poster != nil {
		refs = append(refs, *p.Poster)
	}
	for _, ref := range refs {
		if err := h.media.Remove(ref); err != nil {
			slog.Warn("failed to remove panel media", "panel_id", id, "error", err)
		}
	}

	middleware.MessageResponse(w, http.StatusOK, "Panel deleted")
}
