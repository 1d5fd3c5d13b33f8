// In-memory Store implementation.
// Used when PostgreSQL is not configured (local dev, demo mode, tests).
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
)

// MemoryStore implements Store with mutex-guarded maps.
type MemoryStore struct {
	mu        sync.RWMutex
	profiles  map[string]*models.Profile // key: lowercase username
	byID      map[string]string          // profile id → username
	services  map[string]*models.Service // key: id
	inquiries []*models.Inquiry          // append-only
	keys      map[string]*models.APIKey  // key: id
	keyByHash map[string]string          // key hash → key id
	usage     map[string][]time.Time     // key id → accepted-call timestamps
}

// NewMemoryStore creates a new empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:  make(map[string]*models.Profile),
		byID:      make(map[string]string),
		services:  make(map[string]*models.Service),
		keys:      make(map[string]*models.APIKey),
		keyByHash: make(map[string]string),
		usage:     make(map[string][]time.Time),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error    { return nil }
func (m *MemoryStore) Close() error                      { return nil }
func (m *MemoryStore) Migrate(ctx context.Context) error { return nil }

// ── Profiles ────────────────────────────────────────────────

func (m *MemoryStore) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[strings.ToLower(username)]
	if !ok {
		return nil, &ErrNotFound{Entity: "profile", Key: username}
	}
	return copyProfile(p), nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	username, ok := m.byID[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "profile", Key: id}
	}
	return copyProfile(m.profiles[username]), nil
}

func (m *MemoryStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := copyProfile(profile)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.profiles[strings.ToLower(p.Username)] = p
	m.byID[p.ID] = strings.ToLower(p.Username)
	return nil
}

// ── Services ────────────────────────────────────────────────

func (m *MemoryStore) ListActiveServices(ctx context.Context, profileID string) ([]models.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Service, 0)
	for _, s := range m.services {
		if s.ProfileID == profileID && s.Active {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *MemoryStore) GetService(ctx context.Context, id string) (*models.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.services[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "service", Key: id}
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) CreateService(ctx context.Context, service *models.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *service
	m.services[cp.ID] = &cp
	return nil
}

// ── Inquiries ───────────────────────────────────────────────

func (m *MemoryStore) CreateInquiry(ctx context.Context, inquiry *models.Inquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *inquiry
	m.inquiries = append(m.inquiries, &cp)
	return nil
}

// Inquiries returns a snapshot of all stored inquiries. Test helper; the
// Store interface itself is insert-only for inquiries.
func (m *MemoryStore) Inquiries() []models.Inquiry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Inquiry, 0, len(m.inquiries))
	for _, i := range m.inquiries {
		out = append(out, *i)
	}
	return out
}

// ── API Keys ────────────────────────────────────────────────

func (m *MemoryStore) GetAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.keyByHash[keyHash]
	if !ok {
		return nil, &ErrNotFound{Entity: "api key", Key: keyHash}
	}
	return copyKey(m.keys[id]), nil
}

func (m *MemoryStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := copyKey(key)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.keys[cp.ID] = cp
	m.keyByHash[cp.KeyHash] = cp.ID
	return nil
}

func (m *MemoryStore) ListAPIKeys(ctx context.Context, profileID string) ([]models.APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.APIKey, 0)
	for _, k := range m.keys {
		if k.ProfileID == profileID {
			out = append(out, *copyKey(k))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) DeactivateAPIKey(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.keys[id]
	if !ok {
		return &ErrNotFound{Entity: "api key", Key: id}
	}
	k.Active = false
	return nil
}

func (m *MemoryStore) TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.keys[id]
	if !ok {
		return &ErrNotFound{Entity: "api key", Key: id}
	}
	t := usedAt
	k.LastUsedAt = &t
	return nil
}

// ── Usage ───────────────────────────────────────────────────

func (m *MemoryStore) CreateUsageRecord(ctx context.Context, record *models.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.usage[record.KeyID] = append(m.usage[record.KeyID], record.CreatedAt)
	return nil
}

func (m *MemoryStore) CountUsageSince(ctx context.Context, keyID string, since time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, ts := range m.usage[keyID] {
		if !ts.Before(since) {
			n++
		}
	}
	return n, nil
}

// ── Copy helpers ────────────────────────────────────────────
// Callers get copies so they can't mutate shared state behind the lock.

func copyProfile(p *models.Profile) *models.Profile {
	cp := *p
	cp.Links = append([]models.Link(nil), p.Links...)
	cp.Socials = append([]models.SocialAccount(nil), p.Socials...)
	return &cp
}

func copyKey(k *models.APIKey) *models.APIKey {
	cp := *k
	cp.Scopes = append([]string(nil), k.Scopes...)
	if k.LastUsedAt != nil {
		t := *k.LastUsedAt
		cp.LastUsedAt = &t
	}
	return &cp
}
