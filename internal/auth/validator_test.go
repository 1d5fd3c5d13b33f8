package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/agent-gateway/internal/store"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
)

const testPrefix = "lfk_"

func seedKey(t *testing.T, s *store.MemoryStore, secret string, mutate func(*models.APIKey)) *models.APIKey {
	t.Helper()

	profile := &models.Profile{
		ID:          uuid.NewString(),
		Username:    "alice",
		DisplayName: "Alice",
	}
	if err := s.CreateProfile(context.Background(), profile); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	key := &models.APIKey{
		ID:               uuid.NewString(),
		ProfileID:        profile.ID,
		Name:             "test key",
		KeyHash:          HashSecret(secret),
		Scopes:           []string{models.ScopeRead, models.ScopeInquire},
		RateLimitPerHour: 5,
		Active:           true,
		CreatedAt:        time.Now().UTC(),
	}
	if mutate != nil {
		mutate(key)
	}
	if err := s.CreateAPIKey(context.Background(), key); err != nil {
		t.Fatalf("create api key: %v", err)
	}
	return key
}

func TestValidate_MissingBearerPrefix(t *testing.T) {
	v := NewValidator(store.NewMemoryStore(), testPrefix, nil)

	for _, header := range []string{"", "lfk_abc", "Basic lfk_abc", "Bearer sk_wrongprefix"} {
		if _, err := v.Validate(context.Background(), header); !errors.Is(err, ErrMissingHeader) {
			t.Errorf("header %q: got %v, want ErrMissingHeader", header, err)
		}
	}
}

func TestValidate_UnknownKey(t *testing.T) {
	v := NewValidator(store.NewMemoryStore(), testPrefix, nil)

	_, err := v.Validate(context.Background(), "Bearer lfk_nosuchkey")
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("got %v, want ErrInvalidKey", err)
	}
}

func TestValidate_DeactivatedKey(t *testing.T) {
	s := store.NewMemoryStore()
	secret := "lfk_deadbeef"
	seedKey(t, s, secret, func(k *models.APIKey) { k.Active = false })

	v := NewValidator(s, testPrefix, nil)
	_, err := v.Validate(context.Background(), "Bearer "+secret)
	if !errors.Is(err, ErrKeyDeactivated) {
		t.Fatalf("got %v, want ErrKeyDeactivated", err)
	}
}

func TestValidate_Success(t *testing.T) {
	s := store.NewMemoryStore()
	secret := "lfk_goodkey"
	key := seedKey(t, s, secret, nil)

	v := NewValidator(s, testPrefix, nil)
	auth, err := v.Validate(context.Background(), "Bearer "+secret)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if auth.KeyID != key.ID {
		t.Errorf("key id = %q, want %q", auth.KeyID, key.ID)
	}
	if auth.Username != "alice" {
		t.Errorf("username = %q, want alice", auth.Username)
	}
	if !auth.HasScope(models.ScopeInquire) {
		t.Error("expected inquire scope on auth context")
	}
	if auth.HasScope(models.ScopeWrite) {
		t.Error("did not expect write scope on auth context")
	}
}

func TestValidate_RateLimitBoundary(t *testing.T) {
	s := store.NewMemoryStore()
	secret := "lfk_limited"
	key := seedKey(t, s, secret, func(k *models.APIKey) { k.RateLimitPerHour = 3 })

	v := NewValidator(s, testPrefix, nil)
	now := time.Now().UTC()

	// Two calls inside the window leave one slot free.
	for i := 0; i < 2; i++ {
		record := &models.UsageRecord{ID: uuid.NewString(), KeyID: key.ID, CreatedAt: now.Add(-10 * time.Minute)}
		if err := s.CreateUsageRecord(context.Background(), record); err != nil {
			t.Fatalf("seed usage: %v", err)
		}
	}
	if _, err := v.Validate(context.Background(), "Bearer "+secret); err != nil {
		t.Fatalf("call under limit rejected: %v", err)
	}

	// Filling the last slot tips the key over.
	record := &models.UsageRecord{ID: uuid.NewString(), KeyID: key.ID, CreatedAt: now.Add(-time.Minute)}
	if err := s.CreateUsageRecord(context.Background(), record); err != nil {
		t.Fatalf("seed usage: %v", err)
	}
	if _, err := v.Validate(context.Background(), "Bearer "+secret); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("got %v, want ErrRateLimited", err)
	}
}

func TestValidate_OldUsageFallsOutOfWindow(t *testing.T) {
	s := store.NewMemoryStore()
	secret := "lfk_sliding"
	key := seedKey(t, s, secret, func(k *models.APIKey) { k.RateLimitPerHour = 1 })

	record := &models.UsageRecord{ID: uuid.NewString(), KeyID: key.ID, CreatedAt: time.Now().UTC().Add(-2 * time.Hour)}
	if err := s.CreateUsageRecord(context.Background(), record); err != nil {
		t.Fatalf("seed usage: %v", err)
	}

	v := NewValidator(s, testPrefix, nil)
	if _, err := v.Validate(context.Background(), "Bearer "+secret); err != nil {
		t.Fatalf("stale usage should not count: %v", err)
	}
}

func TestValidate_RecordsUsage(t *testing.T) {
	s := store.NewMemoryStore()
	secret := "lfk_recorded"
	key := seedKey(t, s, secret, nil)

	recorder := NewUsageRecorder(s, 8)
	recorder.Start()

	v := NewValidator(s, testPrefix, recorder)
	if _, err := v.Validate(context.Background(), "Bearer "+secret); err != nil {
		t.Fatalf("validate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	recorder.Stop(ctx)

	count, err := s.CountUsageSince(context.Background(), key.ID, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("count usage: %v", err)
	}
	if count != 1 {
		t.Fatalf("usage count = %d, want 1", count)
	}
}

func TestHashSecret_Deterministic(t *testing.T) {
	a := HashSecret("lfk_abc")
	b := HashSecret("lfk_abc")
	if a != b {
		t.Fatal("same secret produced different digests")
	}
	if a == HashSecret("lfk_abd") {
		t.Fatal("different secrets produced the same digest")
	}
	if len(a) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(a))
	}
}

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret(testPrefix)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(secret) != len(testPrefix)+64 {
		t.Fatalf("secret length = %d, want %d", len(secret), len(testPrefix)+64)
	}
	other, err := GenerateSecret(testPrefix)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if secret == other {
		t.Fatal("two generated secrets collided")
	}
}
