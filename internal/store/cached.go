package store

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
)

// Cache sizing. Profile pages are small and read-heavy; a short TTL keeps
// dashboard edits visible to agents without a cache invalidation channel.
const (
	cacheProfileEntries = 1024
	cacheServiceEntries = 1024
)

// CachedStore is a read-through cache over profile and service reads.
// All other operations pass through to the wrapped store.
type CachedStore struct {
	Store

	profiles *expirable.LRU[string, *models.Profile]
	services *expirable.LRU[string, []models.Service]
}

// NewCachedStore wraps s with TTL-bounded LRU caches for the hot read paths.
func NewCachedStore(s Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store:    s,
		profiles: expirable.NewLRU[string, *models.Profile](cacheProfileEntries, nil, ttl),
		services: expirable.NewLRU[string, []models.Service](cacheServiceEntries, nil, ttl),
	}
}

func (c *CachedStore) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	key := strings.ToLower(username)
	if p, ok := c.profiles.Get(key); ok {
		return p, nil
	}

	p, err := c.Store.GetProfileByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	c.profiles.Add(key, p)
	return p, nil
}

func (c *CachedStore) ListActiveServices(ctx context.Context, profileID string) ([]models.Service, error) {
	if s, ok := c.services.Get(profileID); ok {
		return s, nil
	}

	s, err := c.Store.ListActiveServices(ctx, profileID)
	if err != nil {
		return nil, err
	}
	c.services.Add(profileID, s)
	return s, nil
}

// CreateProfile passes through and drops any stale cache entry for the
// profile's username.
func (c *CachedStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if err := c.Store.CreateProfile(ctx, profile); err != nil {
		return err
	}
	c.profiles.Remove(strings.ToLower(profile.Username))
	return nil
}

// CreateService passes through and invalidates the owning profile's
// service list.
func (c *CachedStore) CreateService(ctx context.Context, service *models.Service) error {
	if err := c.Store.CreateService(ctx, service); err != nil {
		return err
	}
	c.services.Remove(service.ProfileID)
	return nil
}
