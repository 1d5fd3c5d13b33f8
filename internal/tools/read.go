package tools

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

// getProfile aggregates identity, bio, avatar, verification flag and
// content counts for the route's profile.
func (r *Registry) getProfile(ctx context.Context, call *rpc.Call, args json.RawMessage) (*models.ToolResult, error) {
	profile, result, err := r.resolveProfile(ctx, call.Username)
	if profile == nil {
		return result, err
	}

	services, err := r.store.ListActiveServices(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Username: %s\n", profile.Username)
	fmt.Fprintf(&b, "Name: %s\n", profile.DisplayName)
	if profile.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", profile.Bio)
	}
	if profile.AvatarURL != "" {
		fmt.Fprintf(&b, "Avatar: %s\n", profile.AvatarURL)
	}
	fmt.Fprintf(&b, "Verified: %s\n", yesNo(profile.Verified))
	fmt.Fprintf(&b, "Links: %d | Social accounts: %d | Services: %d",
		len(activeLinks(profile)), len(profile.Socials), len(services))

	return textResult("%s", b.String()), nil
}

// listLinks enumerates the profile's active links in display order.
func (r *Registry) listLinks(ctx context.Context, call *rpc.Call, args json.RawMessage) (*models.ToolResult, error) {
	profile, result, err := r.resolveProfile(ctx, call.Username)
	if profile == nil {
		return result, err
	}

	links := activeLinks(profile)
	if len(links) == 0 {
		return textResult("No links found."), nil
	}

	var b strings.Builder
	for i, l := range links {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s (%s)", i+1, l.Title, l.URL)
	}
	return textResult("%s", b.String()), nil
}

// listServices enumerates the profile's active services in display order.
func (r *Registry) listServices(ctx context.Context, call *rpc.Call, args json.RawMessage) (*models.ToolResult, error) {
	profile, result, err := r.resolveProfile(ctx, call.Username)
	if profile == nil {
		return result, err
	}

	services, err := r.store.ListActiveServices(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	if len(services) == 0 {
		return textResult("No services found."), nil
	}

	var b strings.Builder
	for i, s := range services {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s [id: %s]", i+1, s.Name, s.ID)
		if s.Description != "" {
			fmt.Fprintf(&b, " - %s", s.Description)
		}
		if s.Price != "" {
			fmt.Fprintf(&b, " (%s)", s.Price)
		}
	}
	return textResult("%s", b.String()), nil
}

// resolveProfile looks up the route's profile. A missing profile is a
// business-level failure, returned as an isError result; anything else
// from the store propagates as an internal error.
func (r *Registry) resolveProfile(ctx context.Context, username string) (*models.Profile, *models.ToolResult, error) {
	profile, err := r.store.GetProfileByUsername(ctx, username)
	if err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, errorResult("Profile '%s' not found.", username), nil
		}
		return nil, nil, fmt.Errorf("resolve profile: %w", err)
	}
	return profile, nil, nil
}

func activeLinks(p *models.Profile) []models.Link {
	out := make([]models.Link, 0, len(p.Links))
	for _, l := range p.Links {
		if l.Active {
			out = append(out, l)
		}
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
