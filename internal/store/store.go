// Package store provides the storage interface and implementations for the
// LinkForge agent gateway. The gateway consumes profile data through this
// narrow contract and writes only inquiries, usage records and key
// last-used timestamps.
package store

import (
	"context"
	"time"

	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
)

// Store is the data gateway the protocol layer depends on. Handler code
// depends on this interface, making it easy to swap between in-memory
// (tests, demo) and PostgreSQL (production) implementations.
type Store interface {
	ProfileStore
	ServiceStore
	InquiryStore
	APIKeyStore
	UsageStore

	// Ping checks if the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error

	// Migrate creates or updates the backing schema.
	Migrate(ctx context.Context) error
}

// ── Profile Store ───────────────────────────────────────────

// ProfileStore resolves public profiles. GetProfileByUsername loads the
// profile together with its links and social accounts.
type ProfileStore interface {
	GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error
}

// ── Service Store ───────────────────────────────────────────

type ServiceStore interface {
	ListActiveServices(ctx context.Context, profileID string) ([]models.Service, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	CreateService(ctx context.Context, service *models.Service) error
}

// ── Inquiry Store ───────────────────────────────────────────

// InquiryStore accepts inquiry writes. The gateway only ever inserts;
// reading inquiries belongs to the dashboard, not this subsystem.
type InquiryStore interface {
	CreateInquiry(ctx context.Context, inquiry *models.Inquiry) error
}

// ── API Key Store ───────────────────────────────────────────

type APIKeyStore interface {
	// GetAPIKeyByHash looks a key up by the SHA-256 digest of its secret.
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, profileID string) ([]models.APIKey, error)
	DeactivateAPIKey(ctx context.Context, id string) error

	// TouchAPIKey updates the key's last_used_at timestamp.
	TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error
}

// ── Usage Store ─────────────────────────────────────────────

type UsageStore interface {
	// CreateUsageRecord appends one accepted-call row for a key.
	CreateUsageRecord(ctx context.Context, record *models.UsageRecord) error

	// CountUsageSince counts usage rows for a key with created_at >= since.
	CountUsageSince(ctx context.Context, keyID string, since time.Time) (int64, error)
}

// ── Errors ──────────────────────────────────────────────────

// ErrNotFound is returned when a requested entity does not exist.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}
