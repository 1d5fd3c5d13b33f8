package rpc

import (
	"context"
	"encoding/json"

	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
	"github.com/rs/zerolog/log"
)

// ServerInfo identifies the gateway in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Initialize returns the handler for the initialize handshake. The
// instructions string tells agents which tools require authorization.
func Initialize(info ServerInfo, instructions string) HandlerFunc {
	return func(ctx context.Context, call *Call, params json.RawMessage) (any, *models.RPCError) {
		return map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
			},
			"serverInfo":   info,
			"instructions": instructions,
		}, nil
	}
}

// Ping returns the trivial liveness handler.
func Ping() HandlerFunc {
	return func(ctx context.Context, call *Call, params json.RawMessage) (any, *models.RPCError) {
		return map[string]string{"status": "pong"}, nil
	}
}

// Initialized returns the handler for the notifications/initialized
// notification. It produces no response.
func Initialized() HandlerFunc {
	return func(ctx context.Context, call *Call, params json.RawMessage) (any, *models.RPCError) {
		log.Debug().Str("username", call.Username).Msg("agent client initialized")
		return nil, nil
	}
}
