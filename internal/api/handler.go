// Package api exposes the browser-facing HTTP surface: the mode-based
// analyze gateway plus document-context and manual-entry management.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/teuglobal/htsgate/internal/composer"
	"github.com/teuglobal/htsgate/internal/report"
	"github.com/teuglobal/htsgate/internal/storage"
)

// maxRequestBodySize matches the 5MB payload ceiling inherited from the
// browser client (base64 PDFs ride in request bodies).
const maxRequestBodySize = 5 << 20

// Classifier is the pluggable classification capability behind the gateway.
type Classifier interface {
	Classify(ctx context.Context, req composer.Request) (json.RawMessage, error)
}

type Deps struct {
	Store      *storage.Store
	Classifier Classifier
	History    *report.History

	// AllowedOrigin is the single origin CORS admits. Empty disables CORS
	// handling (used by the CLI-only tests).
	AllowedOrigin string

	// Token guards the mutating admin routes. Empty disables auth (tests).
	Token string
}

// NewHandler builds the chi router for the whole HTTP surface.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	if deps.AllowedOrigin != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:     []string{deps.AllowedOrigin},
			AllowedMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:     []string{"Content-Type", "Authorization"},
			MaxAge:             300,
			OptionsPassthrough: true,
		}))
		r.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	}

	r.Get("/health", handleHealth)
	r.Post("/api/analyze", handleAnalyze(deps))
	r.Get("/api/history", handleHistory(deps))
	r.Get("/api/context", handleGetContext(deps))
	r.Get("/api/entries", handleListEntries(deps))

	// Admin routes: mutations require real server-side authorization, not a
	// client-side password check.
	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Put("/api/context", handlePutContext(deps))
		r.Delete("/api/context", handleDeleteContext(deps))
		r.Post("/api/entries", handleCreateEntry(deps))
		r.Put("/api/entries/{id}", handleUpdateEntry(deps))
		r.Delete("/api/entries/{id}", handleDeleteEntry(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// BearerAuth rejects requests without the expected bearer token.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) || subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(token)) != 1 {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
