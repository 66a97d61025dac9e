package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/teuglobal/htsgate/internal/composer"
	"github.com/teuglobal/htsgate/internal/provider"
	"github.com/teuglobal/htsgate/internal/report"
	"github.com/teuglobal/htsgate/internal/rules"
	"github.com/teuglobal/htsgate/internal/storage"
)

// AnalyzeRequest is the single documented gateway schema. Context and
// manualEntries are optional; when omitted the stored records are used.
type AnalyzeRequest struct {
	Mode          string                   `json:"mode"`
	HTSCode       string                   `json:"htsCode"`
	Context       *storage.DocumentContext `json:"context,omitempty"`
	ManualEntries []storage.ManualEntry    `json:"manualEntries,omitempty"`
}

func handleAnalyze(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if !composer.ValidMode(req.Mode) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "mode must be compliance, lookup, or headings")
			return
		}

		code := rules.SanitizeCode(req.HTSCode)
		if code == "" && req.Mode != composer.ModeHeadings {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "htsCode is required")
			return
		}

		ctx, entries, err := resolveInputs(deps, req)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading stored records: %v", err)
			return
		}

		// With no document context and no override entries there is nothing
		// to classify against; the system is uninitialized.
		if req.Mode == composer.ModeCompliance && ctx == nil && len(entries) == 0 {
			httpError(w, http.StatusConflict, "uninitialized", "no document context or manual entries configured")
			return
		}

		built, err := composer.Build(req.Mode, ctx, entries, code)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "building request: %v", err)
			return
		}

		raw, err := deps.Classifier.Classify(r.Context(), built)
		if err != nil {
			writeClassifyError(w, err)
			return
		}

		// Successful compliance searches feed the rolling history; the found
		// flag is best-effort since the payload is not schema-validated.
		if req.Mode == composer.ModeCompliance && deps.History != nil {
			if rep, perr := report.Present(req.Mode, raw); perr == nil {
				deps.History.Record(code, rep.Analysis.Found)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(raw)
	}
}

// writeClassifyError maps provider failures onto HTTP responses. Provider
// statuses and bodies pass through verbatim so quota and auth failures stay
// diagnosable; timeouts and transport failures get their own statuses.
func writeClassifyError(w http.ResponseWriter, err error) {
	var statusErr *provider.APIStatusError
	if errors.As(err, &statusErr) {
		slog.Warn("provider error", "status", statusErr.StatusCode)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusErr.StatusCode)
		w.Write(statusErr.Body)
		return
	}

	var terr *provider.TransportError
	if errors.As(err, &terr) && terr.Timeout {
		slog.Warn("provider timeout", "error", err)
		httpError(w, http.StatusGatewayTimeout, "timeout_error", "provider call timed out")
		return
	}

	slog.Error("provider unreachable", "error", err)
	httpError(w, http.StatusBadGateway, "api_error", "upstream error: %v", err)
}

// resolveInputs fills missing request fields from the record store. A request
// that carries its own context or entries wins, keeping request construction
// a function of explicit inputs.
func resolveInputs(deps Deps, req AnalyzeRequest) (*storage.DocumentContext, []storage.ManualEntry, error) {
	ctx := req.Context
	if ctx == nil && deps.Store != nil {
		stored, err := deps.Store.GetContext()
		switch {
		case err == nil:
			ctx = &stored
		case errors.Is(err, storage.ErrNotFound):
			// Uninitialized context is a valid state.
		default:
			return nil, nil, err
		}
	}

	entries := req.ManualEntries
	if entries == nil && req.Mode == composer.ModeCompliance && deps.Store != nil {
		stored, err := deps.Store.ListEntries()
		if err != nil {
			return nil, nil, err
		}
		entries = stored
	}

	return ctx, entries, nil
}

func handleHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := []report.HistoryEntry{}
		if deps.History != nil {
			entries = deps.History.Recent()
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
