// Package rpc implements the JSON-RPC 2.0 dispatcher for the agent
// gateway. It parses the envelope, routes methods through a handler map
// and assembles protocol-compliant responses and errors. The dispatcher
// is stateless; each call is independent and there is no retry or
// backoff inside it.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
	"github.com/rs/zerolog/log"
)

// ProtocolVersion is the protocol revision announced by initialize.
const ProtocolVersion = "2024-11-05"

// JSON-RPC error codes. CodeAuthRequired is the gateway's custom code for
// permission failures on tools/call.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeAuthRequired   = -32001
)

// Call carries the per-request context handlers see: the route's username
// and, when a valid credential was presented, the caller's authorization.
type Call struct {
	Username string
	Auth     *models.AuthContext
}

// HandlerFunc handles one JSON-RPC method. Returning (nil, nil) means the
// method is a notification and gets no response.
type HandlerFunc func(ctx context.Context, call *Call, params json.RawMessage) (any, *models.RPCError)

// Dispatcher routes JSON-RPC methods to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Register binds a method name to a handler. Registration happens once at
// startup; the map is read-only afterward.
func (d *Dispatcher) Register(method string, h HandlerFunc) {
	d.handlers[method] = h
}

// Handle processes one raw JSON-RPC request body. A nil return means the
// request was a notification and no response body should be sent.
func (d *Dispatcher) Handle(ctx context.Context, body []byte, call *Call) *models.RPCResponse {
	var req models.RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResponse(nil, CodeParseError, "Parse error", err.Error())
	}

	if req.Jsonrpc != "2.0" {
		return errorResponse(req.ID, CodeInvalidRequest, "Invalid request", `jsonrpc must be "2.0"`)
	}
	// Zero is a valid id; only a truly absent (or null) id is rejected.
	if len(req.ID) == 0 || string(req.ID) == "null" {
		return errorResponse(nil, CodeInvalidRequest, "Invalid request", "id is required")
	}
	if req.Method == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "Invalid request", "method must be a non-empty string")
	}

	handler, ok := d.handlers[req.Method]
	if !ok {
		return errorResponse(req.ID, CodeMethodNotFound, "Method not found",
			fmt.Sprintf("Method '%s' is not supported by the agent gateway", req.Method))
	}

	result, rpcErr := d.invoke(ctx, handler, call, req.Params, req.Method)
	if rpcErr != nil {
		return &models.RPCResponse{Jsonrpc: "2.0", Error: rpcErr, ID: req.ID}
	}
	if result == nil {
		// Notification: no response.
		return nil
	}
	return &models.RPCResponse{Jsonrpc: "2.0", Result: result, ID: req.ID}
}

// invoke runs a handler with panic containment so a broken handler
// surfaces as INTERNAL_ERROR instead of killing the request goroutine.
func (d *Dispatcher) invoke(ctx context.Context, handler HandlerFunc, call *Call, params json.RawMessage, method string) (result any, rpcErr *models.RPCError) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("method", method).Any("panic", rec).Msg("handler panicked")
			result = nil
			rpcErr = &models.RPCError{
				Code:    CodeInternalError,
				Message: "Internal error",
				Data:    fmt.Sprint(rec),
			}
		}
	}()

	return handler(ctx, call, params)
}

// Errorf builds an *models.RPCError for handlers.
func Errorf(code int, message string, data any) *models.RPCError {
	return &models.RPCError{Code: code, Message: message, Data: data}
}

func errorResponse(id json.RawMessage, code int, message string, data any) *models.RPCResponse {
	return &models.RPCResponse{
		Jsonrpc: "2.0",
		Error:   &models.RPCError{Code: code, Message: message, Data: data},
		ID:      id,
	}
}
