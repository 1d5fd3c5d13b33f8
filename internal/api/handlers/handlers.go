// Package handlers implements the HTTP handlers for the agent gateway.
// The RPC handler is the bridge between transport and protocol: it
// resolves the bearer credential upstream of the dispatcher, then hands
// the raw body and route username to the JSON-RPC layer.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linkforge/linkforge/agent-gateway/internal/auth"
	"github.com/linkforge/linkforge/agent-gateway/internal/rpc"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
	"github.com/rs/zerolog/log"
)

// Handlers holds the handler dependencies.
type Handlers struct {
	Validator  *auth.Validator
	Dispatcher *rpc.Dispatcher
	Version    string
}

// New creates a Handlers instance.
func New(v *auth.Validator, d *rpc.Dispatcher, version string) *Handlers {
	return &Handlers{Validator: v, Dispatcher: d, Version: version}
}

// RPC serves POST /mcp/{username}: one JSON-RPC request per call.
//
// Header-level authorization failures (invalid key, deactivated key,
// exceeded quota) are resolved here, before the dispatcher; a request
// without an Authorization header proceeds anonymously and only hits the
// -32001 gate if it calls a write tool.
func (h *Handlers) RPC(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var authCtx *models.AuthContext
	if header := r.Header.Get("Authorization"); header != "" {
		ac, err := h.Validator.Validate(r.Context(), header)
		if err != nil {
			h.respondAuthError(w, err)
			return
		}
		authCtx = ac
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondJSON(w, http.StatusOK, models.RPCResponse{
			Jsonrpc: "2.0",
			Error: &models.RPCError{
				Code:    rpc.CodeParseError,
				Message: "Parse error",
				Data:    err.Error(),
			},
			ID: nil,
		})
		return
	}

	log.Debug().Str("username", username).Msg("rpc request received")

	resp := h.Dispatcher.Handle(r.Context(), body, &rpc.Call{Username: username, Auth: authCtx})
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) respondAuthError(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	code := "unauthorized"
	if errors.Is(err, auth.ErrRateLimited) {
		// Distinct status and language so callers back off instead of
		// re-authenticating.
		status = http.StatusTooManyRequests
		code = "rate_limit_exceeded"
	}

	w.Header().Set("WWW-Authenticate", `Bearer realm="linkforge"`)
	respondJSON(w, status, map[string]string{
		"error":   code,
		"message": err.Error(),
	})
}

// Health serves GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "linkforge-agent-gateway",
	})
}

// VersionInfo serves GET /version.
func (h *Handlers) VersionInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"version": h.Version,
		"service": "linkforge-agent-gateway",
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}
