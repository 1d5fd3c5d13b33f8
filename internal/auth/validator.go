// Package auth turns bearer credentials into authorization decisions for
// the agent gateway: digest lookup, active check, sliding-window rate
// limiting and permission scope resolution. Usage accounting happens on a
// background recorder so it never blocks the decision.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linkforge/linkforge/agent-gateway/internal/store"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
)

// Validation failures, ordered by when they are detected. Rate-limit
// breaches get their own error so callers can back off instead of
// re-authenticating.
var (
	ErrMissingHeader  = errors.New("missing or invalid authorization header")
	ErrInvalidKey     = errors.New("invalid API key")
	ErrKeyDeactivated = errors.New("API key has been deactivated")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

// RateWindow is the trailing lookback for the hourly quota. Sliding, not
// calendar-aligned: the count covers created_at >= now-1h.
const RateWindow = time.Hour

// Validator authorizes bearer credentials against the key store.
type Validator struct {
	store    store.Store
	prefix   string
	recorder *UsageRecorder
	now      func() time.Time
}

// NewValidator creates a validator. prefix is the fixed literal every
// LinkForge key secret starts with; keys without it are rejected before
// any lookup.
func NewValidator(s store.Store, prefix string, recorder *UsageRecorder) *Validator {
	return &Validator{
		store:    s,
		prefix:   prefix,
		recorder: recorder,
		now:      time.Now,
	}
}

// Validate authorizes the Authorization header value and returns the
// caller's auth context. On success the usage record and last_used_at
// writes are enqueued on the background recorder; their failure never
// surfaces here.
func (v *Validator) Validate(ctx context.Context, header string) (*models.AuthContext, error) {
	secret, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || !strings.HasPrefix(secret, v.prefix) {
		return nil, ErrMissingHeader
	}

	key, err := v.store.GetAPIKeyByHash(ctx, HashSecret(secret))
	if err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			// Unknown digest and wrong secret are indistinguishable on
			// purpose; no oracle for key enumeration.
			return nil, ErrInvalidKey
		}
		return nil, fmt.Errorf("look up api key: %w", err)
	}

	if !key.Active {
		return nil, ErrKeyDeactivated
	}

	now := v.now().UTC()
	count, err := v.store.CountUsageSince(ctx, key.ID, now.Add(-RateWindow))
	if err != nil {
		return nil, fmt.Errorf("count key usage: %w", err)
	}
	if count >= int64(key.RateLimitPerHour) {
		return nil, ErrRateLimited
	}

	profile, err := v.store.GetProfile(ctx, key.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("resolve key owner: %w", err)
	}

	if v.recorder != nil {
		v.recorder.Record(key.ID, now)
	}

	return &models.AuthContext{
		KeyID:     key.ID,
		KeyName:   key.Name,
		ProfileID: key.ProfileID,
		Username:  profile.Username,
		Scopes:    key.Scopes,
	}, nil
}

// HashSecret returns the hex SHA-256 digest of a raw key secret. The raw
// secret is never stored or compared directly.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// GenerateSecret mints a new raw key secret with the given prefix.
func GenerateSecret(prefix string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key secret: %w", err)
	}
	return prefix + hex.EncodeToString(buf), nil
}
