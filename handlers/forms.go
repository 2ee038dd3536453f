// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielhkuo/dummy-evm/media"
	"github.com/danielhkuo/dummy-evm/registry"
)

// Files in a registration: up to three images per seat plus a poster
const maxFilesPerForm = 10

// uploads saves the files of one multipart form and can discard them
// all if the registration fails.
type uploads struct {
	store *media.Store
	r     *http.Request
	saved []string
}

// parseMultipart bounds the request body to the form's worst case
func parseMultipart(w http.ResponseWriter, r *http.Request, store *media.Store) error {
	limit := store.MaxBytes()*maxFilesPerForm + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return r.ParseMultipartForm(32 << 20)
}

// file saves the upload in field and returns its reference, or "" if
// the field is empty
func (u *uploads) file(field string) (string, error) {
	_, fh, err := u.r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", &registry.ValidationError{Field: field, Message: "could not read upload"}
	}
	ref, err := u.store.Save(fh)
	if err != nil {
		return "", err
	}
	u.saved = append(u.saved, ref)
	return ref, nil
}

// optional is file for fields that may be absent; returns nil if absent
func (u *uploads) optional(field string) (*string, error) {
	ref, err := u.file(field)
	if err != nil || ref == "" {
		return nil, err
	}
	return &ref, nil
}

func (u *uploads) discard() {
	for _, ref := range u.saved {
		if err := u.store.Remove(ref); err != nil {
			slog.Warn("failed to discard upload", "ref", ref, "error", err)
		}
	}
	u.saved = nil
}

func formText(r *http.Request, field string) string {
	return strings.TrimSpace(r.FormValue(field))
}

// formInt parses an integer field; 0 (rejected by serial validation)
// when absent
func formInt(r *http.Request, field string) (int, error) {
	v := formText(r, field)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &registry.ValidationError{Field: field, Message: "must be a number"}
	}
	return n, nil
}

// formBool accepts true/false, 1/0 and on (HTML checkbox)
func formBool(r *http.Request, field string) bool {
	v := strings.ToLower(formText(r, field))
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
