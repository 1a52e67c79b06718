// Package server exposes the diagnostics HTTP surface: a health probe and a
// token-introspection endpoint running the session-less gate. The protocol
// server itself lives in the host; this surface is for operators.
package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/uastack/authgate/internal/services/iam"
	"github.com/uastack/authgate/internal/status"
)

// RouterOptions configures the diagnostics router.
type RouterOptions struct {
	Gate        *iam.SessionlessRequestGate
	CORSOptions *cors.Options
}

// DefaultCORSOptions returns the permissive defaults for the diagnostics
// surface.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
}

// NewRouter builds the diagnostics router.
func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/v1/introspect", handleIntrospect(opts.Gate))
	return r
}

type introspectRequest struct {
	Token             string `json:"token"`
	EndpointURL       string `json:"endpointUrl"`
	SecurityPolicyURI string `json:"securityPolicyUri"`
	SecurityMode      int    `json:"securityMode"`
}

type introspectResponse struct {
	DisplayName string   `json:"displayName"`
	Kind        string   `json:"kind"`
	Roles       []string `json:"roles"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleIntrospect runs the session-less gate against the supplied token and
// channel descriptor and reports the resolved identity or the typed failure.
func handleIntrospect(gate *iam.SessionlessRequestGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req introspectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		ch := iam.ChannelSecurity{
			SecurityPolicyURI: req.SecurityPolicyURI,
			Mode:              iam.MessageSecurityMode(req.SecurityMode),
			EndpointURL:       req.EndpointURL,
		}
		tok := iam.RequestToken{Identifier: req.Token}

		ident, err := gate.Authorize(r.Context(), ch, tok)
		if err != nil {
			writeStatusError(w, err)
			return
		}

		roles := ident.Roles()
		names := make([]string, len(roles))
		for i, role := range roles {
			names[i] = string(role)
		}
		writeJSON(w, http.StatusOK, introspectResponse{
			DisplayName: ident.DisplayName(),
			Kind:        ident.Kind().String(),
			Roles:       names,
		})
	}
}

func writeStatusError(w http.ResponseWriter, err error) {
	se, ok := status.FromError(err)
	if !ok {
		log.Printf("introspect: untyped error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	code := http.StatusUnauthorized
	switch se.Kind {
	case status.KindSecurityPolicyViolation:
		code = http.StatusForbidden
	case status.KindConfiguration, status.KindInternalInconsistency:
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, errorResponse{
		Kind:    se.Kind.String(),
		Code:    string(se.Code),
		Message: se.Message,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("introspect: encode response: %v", err)
	}
}
