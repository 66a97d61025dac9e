package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/teuglobal/htsgate/internal/extract"
	"github.com/teuglobal/htsgate/internal/storage"
)

// ContextRequest is the PUT /api/context body.
type ContextRequest struct {
	Kind     string `json:"type"`
	Content  string `json:"content"`
	MimeType string `json:"mimeType,omitempty"`
	Name     string `json:"name"`
}

func handleGetContext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, err := deps.Store.GetContext()
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no document context set")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "reading context: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, ctx)
	}
}

func handlePutContext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ContextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if req.Content == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "content is required")
			return
		}
		if req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}

		ctx := storage.DocumentContext{
			Kind:      req.Kind,
			Content:   req.Content,
			MimeType:  req.MimeType,
			Name:      req.Name,
			UpdatedAt: time.Now().UTC(),
		}

		// mimeType is set iff the context is a file.
		switch req.Kind {
		case storage.ContextKindText:
			if req.MimeType != "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "mimeType is only valid for file contexts")
				return
			}
		case storage.ContextKindFile:
			if req.MimeType == "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "mimeType is required for file contexts")
				return
			}
			data, err := base64.StdEncoding.DecodeString(req.Content)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "content must be base64 for file contexts")
				return
			}
			if req.MimeType == extract.PDFMimeType {
				text, err := extract.PDFText(data)
				if err != nil {
					// Extraction is best-effort; the binary still goes
					// upstream inline.
					slog.Warn("pdf text extraction failed", "name", req.Name, "error", err)
				} else {
					ctx.ExtractedText = text
				}
			}
		default:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "type must be file or text")
			return
		}

		if err := deps.Store.SetContext(ctx); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving context: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, ctx)
	}
}

func handleDeleteContext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Store.ClearContext(); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "clearing context: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}
