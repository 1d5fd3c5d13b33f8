// Package models defines the shared data types for the LinkForge agent
// gateway: the profile/link/service records served to agents, the inquiry
// records agents create, the API key and usage rows backing authorization,
// and the JSON-RPC 2.0 envelope types of the wire protocol.
package models

import (
	"encoding/json"
	"time"
)

// ── Profile Data ─────────────────────────────────────────────

// Profile is a public LinkForge profile, resolved by username.
// Links and Socials are loaded alongside the profile.
type Profile struct {
	ID          string    `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Bio         string    `json:"bio,omitempty" db:"bio"`
	AvatarURL   string    `json:"avatar_url,omitempty" db:"avatar_url"`
	Verified    bool      `json:"verified" db:"verified"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Links   []Link          `json:"links,omitempty"`
	Socials []SocialAccount `json:"socials,omitempty"`
}

// Link is a single link on a profile page.
type Link struct {
	ID        string `json:"id" db:"id"`
	ProfileID string `json:"profile_id" db:"profile_id"`
	Title     string `json:"title" db:"title"`
	URL       string `json:"url" db:"url"`
	Position  int    `json:"position" db:"position"`
	Active    bool   `json:"active" db:"active"`
}

// SocialAccount is a linked social media account on a profile.
type SocialAccount struct {
	ID        string `json:"id" db:"id"`
	ProfileID string `json:"profile_id" db:"profile_id"`
	Platform  string `json:"platform" db:"platform"`
	Handle    string `json:"handle" db:"handle"`
	URL       string `json:"url,omitempty" db:"url"`
	Position  int    `json:"position" db:"position"`
}

// Service is a bookable/quotable offering on a profile.
type Service struct {
	ID          string `json:"id" db:"id"`
	ProfileID   string `json:"profile_id" db:"profile_id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
	Price       string `json:"price,omitempty" db:"price"`
	Position    int    `json:"position" db:"position"`
	Active      bool   `json:"active" db:"active"`
}

// ── Inquiries ────────────────────────────────────────────────

// InquiryKind distinguishes a plain message from a quote request.
type InquiryKind string

const (
	InquiryMessage InquiryKind = "message"
	InquiryQuote   InquiryKind = "quote"
)

// InquirySource records whether an inquiry came from a human-facing form
// or from a software agent through the gateway.
type InquirySource string

const (
	SourceHuman InquirySource = "human"
	SourceAgent InquirySource = "agent"
)

// Inquiry is a structured message submitted against a service.
// Created once by a successful mutating tool call, never mutated afterward.
type Inquiry struct {
	ID          string        `json:"id" db:"id"`
	ServiceID   string        `json:"service_id" db:"service_id"`
	ProfileID   string        `json:"profile_id" db:"profile_id"`
	SenderName  string        `json:"sender_name" db:"sender_name"`
	SenderEmail string        `json:"sender_email" db:"sender_email"`
	Message     string        `json:"message" db:"message"`
	Kind        InquiryKind   `json:"kind" db:"kind"`
	Source      InquirySource `json:"source" db:"source"`
	AgentName   string        `json:"agent_name,omitempty" db:"agent_name"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// ── API Keys & Usage ─────────────────────────────────────────

// Permission scopes a key may carry.
const (
	ScopeRead    = "read"
	ScopeWrite   = "write"
	ScopeInquire = "inquire"
)

// APIKey is an agent credential owned by a profile. Only the SHA-256 digest
// of the secret is ever stored; the raw secret is shown once at creation.
type APIKey struct {
	ID               string     `json:"id" db:"id"`
	ProfileID        string     `json:"profile_id" db:"profile_id"`
	Name             string     `json:"name" db:"name"`
	KeyHash          string     `json:"-" db:"key_hash"`
	Scopes           []string   `json:"scopes"`
	RateLimitPerHour int        `json:"rate_limit_per_hour" db:"rate_limit_per_hour"`
	Active           bool       `json:"active" db:"active"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// HasScope reports whether the key carries the given permission scope.
func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// UsageRecord is one accepted call for a key. Append-only; consulted only
// to compute the trailing-window usage count.
type UsageRecord struct {
	ID        string    `json:"id" db:"id"`
	KeyID     string    `json:"key_id" db:"key_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AuthContext is the authorization decision attached to an authenticated
// call: the key's identity, its owning profile, and its permission scopes.
type AuthContext struct {
	KeyID     string   `json:"key_id"`
	KeyName   string   `json:"key_name"`
	ProfileID string   `json:"profile_id"`
	Username  string   `json:"username"`
	Scopes    []string `json:"scopes"`
}

// HasScope reports whether the authenticated key carries the given scope.
func (a *AuthContext) HasScope(scope string) bool {
	if a == nil {
		return false
	}
	for _, s := range a.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ── JSON-RPC 2.0 Envelope ────────────────────────────────────

// RPCRequest is the transient per-call request envelope. The ID is kept raw
// so the dispatcher can distinguish an absent id from a zero id.
type RPCRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// RPCResponse is the transient per-call response envelope.
type RPCResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// RPCError is a protocol-level JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ── Tool & Resource Protocol Types ───────────────────────────

// ToolInfo describes a callable tool: name, human description and the
// JSON-schema-shaped input contract. Immutable, declared at startup.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// ToolCallParams are the params of a tools/call request. Arguments stay raw
// so each tool can parse them into its own typed argument struct.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolResult is the result of a tool invocation. IsError marks a
// recoverable business failure, not a protocol failure.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is one piece of tool or resource output.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ResourceInfo describes a URI-addressed read-only document scoped to one
// profile. Generated per request from the route's username.
type ResourceInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContents is the resolved content of one resource URI.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}
