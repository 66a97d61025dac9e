package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teuglobal/htsgate/internal/rules"
	"github.com/teuglobal/htsgate/internal/storage"
)

func handleListEntries(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := deps.Store.ListEntries()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing entries: %v", err)
			return
		}
		if entries == nil {
			entries = []storage.ManualEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleCreateEntry(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeEntryInput(w, r)
		if !ok {
			return
		}

		now := time.Now().UTC()
		entry := storage.ManualEntry{
			ID:          uuid.New().String(),
			Code:        in.Code,
			Category:    in.Category,
			Description: in.Description,
			MetalType:   in.MetalType,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := deps.Store.SaveEntry(entry); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving entry: %v", err)
			return
		}

		writeJSON(w, http.StatusCreated, entry)
	}
}

func handleUpdateEntry(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		existing, err := deps.Store.GetEntry(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading entry: %v", err)
			return
		}

		in, ok := decodeEntryInput(w, r)
		if !ok {
			return
		}

		// The ID is immutable; every other field is replaceable.
		existing.Code = in.Code
		existing.Category = in.Category
		existing.Description = in.Description
		existing.MetalType = in.MetalType
		existing.UpdatedAt = time.Now().UTC()

		if err := deps.Store.SaveEntry(existing); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving entry: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, existing)
	}
}

func handleDeleteEntry(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteEntry(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting entry: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// decodeEntryInput decodes and validates an entry body, writing the error
// response itself when validation fails. Nothing is persisted on rejection.
func decodeEntryInput(w http.ResponseWriter, r *http.Request) (rules.EntryInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var in rules.EntryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return rules.EntryInput{}, false
	}

	validated, err := rules.ValidateEntry(in)
	if err != nil {
		var verr *rules.ValidationError
		if errors.As(err, &verr) {
			httpError(w, http.StatusBadRequest, "validation_error", "%s: %s", verr.Field, verr.Message)
		} else {
			httpError(w, http.StatusBadRequest, "validation_error", "%v", err)
		}
		return rules.EntryInput{}, false
	}

	return validated, true
}
