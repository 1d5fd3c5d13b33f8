// Package tools declares the callable operations the gateway exposes to
// agents and executes them against the profile store. Tools are classified
// read vs. write; write tools persist inquiries and are gated on the
// "inquire" permission scope before their handler ever runs.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/linkforge/linkforge/agent-gateway/internal/rpc"
	"github.com/linkforge/linkforge/agent-gateway/internal/store"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
)

// handlerFunc executes one tool. A returned error is a gateway/internal
// failure and maps to a protocol-level error; business failures come back
// as a ToolResult with IsError set.
type handlerFunc func(ctx context.Context, call *rpc.Call, args json.RawMessage) (*models.ToolResult, error)

// Registry holds the static tool definitions and their handlers.
type Registry struct {
	store        store.Store
	demoUsername string

	defs     []models.ToolInfo
	handlers map[string]handlerFunc
	write    map[string]bool
}

// NewRegistry builds the tool registry. demoUsername designates the
// sandbox profile whose write tools never persist anything.
func NewRegistry(s store.Store, demoUsername string) *Registry {
	r := &Registry{
		store:        s,
		demoUsername: demoUsername,
		handlers:     make(map[string]handlerFunc),
		write:        make(map[string]bool),
	}

	r.register(models.ToolInfo{
		Name:        "get_profile",
		Description: "Get the profile's identity, bio, avatar, verification status and content counts.",
		InputSchema: emptySchema(),
	}, r.getProfile, false)

	r.register(models.ToolInfo{
		Name:        "list_links",
		Description: "List the profile's active links in display order.",
		InputSchema: emptySchema(),
	}, r.listLinks, false)

	r.register(models.ToolInfo{
		Name:        "list_services",
		Description: "List the profile's active services in display order.",
		InputSchema: emptySchema(),
	}, r.listServices, false)

	r.register(models.ToolInfo{
		Name:        "send_message",
		Description: "Send a message about a service. Requires an API key with the 'inquire' scope.",
		InputSchema: inquirySchema("message", "The message to send."),
	}, r.sendMessage, true)

	r.register(models.ToolInfo{
		Name:        "request_quote",
		Description: "Request a quote for a service. Requires an API key with the 'inquire' scope.",
		InputSchema: inquirySchema("project_description", "A description of the project to quote."),
	}, r.requestQuote, true)

	return r
}

func (r *Registry) register(def models.ToolInfo, h handlerFunc, isWrite bool) {
	r.defs = append(r.defs, def)
	r.handlers[def.Name] = h
	r.write[def.Name] = isWrite
}

// Instructions describes the registry's authorization requirements for the
// initialize handshake.
func (r *Registry) Instructions() string {
	return "Read tools (get_profile, list_links, list_services) and all resources are public. " +
		"Write tools (send_message, request_quote) require an API key with the 'inquire' scope, " +
		"passed as 'Authorization: Bearer <key>'."
}

// HandleList serves tools/list: the static registry, verbatim.
func (r *Registry) HandleList(ctx context.Context, call *rpc.Call, params json.RawMessage) (any, *models.RPCError) {
	return map[string]any{"tools": r.defs}, nil
}

// HandleCall serves tools/call. The permission gate runs before the
// handler, so an unauthorized call has no side effect.
func (r *Registry) HandleCall(ctx context.Context, call *rpc.Call, params json.RawMessage) (any, *models.RPCError) {
	var p models.ToolCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, rpc.Errorf(rpc.CodeInvalidParams, "Invalid params", err.Error())
	}
	if p.Name == "" {
		return nil, rpc.Errorf(rpc.CodeInvalidParams, "Invalid params", "name is required")
	}

	handler, ok := r.handlers[p.Name]
	if !ok {
		return nil, rpc.Errorf(rpc.CodeInvalidParams, "Invalid params",
			fmt.Sprintf("Unknown tool '%s'", p.Name))
	}

	if r.write[p.Name] && !call.Auth.HasScope(models.ScopeInquire) {
		return nil, rpc.Errorf(rpc.CodeAuthRequired, "Authentication required",
			fmt.Sprintf("The '%s' tool requires an API key with the 'inquire' scope", p.Name))
	}

	result, err := handler(ctx, call, p.Arguments)
	if err != nil {
		return nil, rpc.Errorf(rpc.CodeInternalError, "Internal error", err.Error())
	}
	return result, nil
}

// ── Result helpers ──────────────────────────────────────────

func textResult(format string, args ...any) *models.ToolResult {
	return &models.ToolResult{
		Content: []models.ContentBlock{{Type: "text", Text: fmt.Sprintf(format, args...)}},
	}
}

func errorResult(format string, args ...any) *models.ToolResult {
	return &models.ToolResult{
		Content: []models.ContentBlock{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// ── Schema helpers ──────────────────────────────────────────

func emptySchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func inquirySchema(bodyField, bodyDescription string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"service_id": map[string]any{
				"type":        "string",
				"description": "ID of the service the inquiry is about.",
			},
			"sender_name": map[string]any{
				"type":        "string",
				"description": "Name of the person or agent principal sending the inquiry.",
			},
			"sender_email": map[string]any{
				"type":        "string",
				"description": "Reply-to email address.",
			},
			bodyField: map[string]any{
				"type":        "string",
				"description": bodyDescription,
			},
		},
		"required": []string{"service_id", "sender_name", "sender_email", bodyField},
	}
}
