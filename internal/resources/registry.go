// Package resources declares and resolves the URI-addressed read-only
// documents the gateway exposes. Resources are generated per request and
// scoped to the route's username: a URI naming any other username fails
// closed, which is the cross-tenant isolation boundary.
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/linkforge/linkforge/agent-gateway/internal/rpc"
	"github.com/linkforge/linkforge/agent-gateway/internal/store"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
)

// Scheme is the URI scheme of gateway resources:
// linkforge://{username}/{kind}.
const Scheme = "linkforge"

const mimeText = "text/plain"

var kinds = []struct {
	path        string
	name        string
	description string
}{
	{"profile", "Profile", "Identity, bio and verification status of the profile."},
	{"links", "Links", "The profile's active links in display order."},
	{"services", "Services", "The profile's active services in display order."},
	{"social", "Social accounts", "The profile's linked social media accounts."},
}

// Registry resolves resource URIs against the profile store.
type Registry struct {
	store store.Store
}

// NewRegistry creates a resource registry.
func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

// HandleList serves resources/list for the route's username.
func (r *Registry) HandleList(ctx context.Context, call *rpc.Call, params json.RawMessage) (any, *models.RPCError) {
	out := make([]models.ResourceInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, models.ResourceInfo{
			URI:         fmt.Sprintf("%s://%s/%s", Scheme, call.Username, k.path),
			Name:        k.name,
			Description: k.description,
			MimeType:    mimeText,
		})
	}
	return map[string]any{"resources": out}, nil
}

// HandleRead serves resources/read. Any URI that does not resolve for the
// route's username, including one naming another user, is invalid params.
func (r *Registry) HandleRead(ctx context.Context, call *rpc.Call, params json.RawMessage) (any, *models.RPCError) {
	var p struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, rpc.Errorf(rpc.CodeInvalidParams, "Invalid params", err.Error())
	}
	if p.URI == "" {
		return nil, rpc.Errorf(rpc.CodeInvalidParams, "Invalid params", "uri is required")
	}

	contents, err := r.resolve(ctx, call.Username, p.URI)
	if err != nil {
		return nil, rpc.Errorf(rpc.CodeInternalError, "Internal error", err.Error())
	}
	if contents == nil {
		return nil, rpc.Errorf(rpc.CodeInvalidParams, "Invalid params",
			fmt.Sprintf("Unknown resource URI '%s'", p.URI))
	}
	return map[string]any{"contents": []models.ResourceContents{*contents}}, nil
}

// resolve maps a URI to its text document. A nil return with nil error
// means the URI does not resolve for this username.
func (r *Registry) resolve(ctx context.Context, username, uri string) (*models.ResourceContents, error) {
	rest, ok := strings.CutPrefix(uri, Scheme+"://")
	if !ok {
		return nil, nil
	}
	user, path, ok := strings.Cut(rest, "/")
	if !ok || user == "" || path == "" || strings.Contains(path, "/") {
		return nil, nil
	}
	if !strings.EqualFold(user, username) {
		return nil, nil
	}

	profile, err := r.store.GetProfileByUsername(ctx, username)
	if err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve profile: %w", err)
	}

	var text string
	switch path {
	case "profile":
		text = formatProfile(profile)
	case "links":
		text = formatLinks(profile)
	case "services":
		services, err := r.store.ListActiveServices(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("list services: %w", err)
		}
		text = formatServices(services)
	case "social":
		text = formatSocials(profile)
	default:
		return nil, nil
	}

	return &models.ResourceContents{URI: uri, MimeType: mimeText, Text: text}, nil
}

// ── Formatters ──────────────────────────────────────────────
// Each flattens its slice of profile data into a compact text document.

func formatProfile(p *models.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Username: %s\n", p.Username)
	fmt.Fprintf(&b, "Name: %s\n", p.DisplayName)
	if p.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", p.Bio)
	}
	verified := "no"
	if p.Verified {
		verified = "yes"
	}
	fmt.Fprintf(&b, "Verified: %s", verified)
	return b.String()
}

func formatLinks(p *models.Profile) string {
	var lines []string
	for _, l := range p.Links {
		if l.Active {
			lines = append(lines, fmt.Sprintf("%s: %s", l.Title, l.URL))
		}
	}
	if len(lines) == 0 {
		return "No links."
	}
	return strings.Join(lines, "\n")
}

func formatServices(services []models.Service) string {
	if len(services) == 0 {
		return "No services."
	}
	lines := make([]string, 0, len(services))
	for _, s := range services {
		line := fmt.Sprintf("%s [id: %s]", s.Name, s.ID)
		if s.Price != "" {
			line += fmt.Sprintf(" (%s)", s.Price)
		}
		if s.Description != "" {
			line += ": " + s.Description
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatSocials(p *models.Profile) string {
	if len(p.Socials) == 0 {
		return "No social accounts."
	}
	lines := make([]string, 0, len(p.Socials))
	for _, s := range p.Socials {
		line := fmt.Sprintf("%s: %s", s.Platform, s.Handle)
		if s.URL != "" {
			line += fmt.Sprintf(" (%s)", s.URL)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
