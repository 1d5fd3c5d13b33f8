// PostgreSQL Store implementation backed by pgx.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
	"github.com/rs/zerolog/log"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and verifies the connection.
func NewPostgresStore(ctx context.Context, connURL string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	log.Info().Int32("max_conns", cfg.MaxConns).Msg("postgres store initialized")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates the gateway tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS profiles (
			id           TEXT PRIMARY KEY,
			username     TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			bio          TEXT NOT NULL DEFAULT '',
			avatar_url   TEXT NOT NULL DEFAULT '',
			verified     BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS links (
			id         TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL REFERENCES profiles(id),
			title      TEXT NOT NULL,
			url        TEXT NOT NULL,
			position   INT NOT NULL DEFAULT 0,
			active     BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE TABLE IF NOT EXISTS social_accounts (
			id         TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL REFERENCES profiles(id),
			platform   TEXT NOT NULL,
			handle     TEXT NOT NULL,
			url        TEXT NOT NULL DEFAULT '',
			position   INT NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS services (
			id          TEXT PRIMARY KEY,
			profile_id  TEXT NOT NULL REFERENCES profiles(id),
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price       TEXT NOT NULL DEFAULT '',
			position    INT NOT NULL DEFAULT 0,
			active      BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE TABLE IF NOT EXISTS inquiries (
			id           TEXT PRIMARY KEY,
			service_id   TEXT NOT NULL REFERENCES services(id),
			profile_id   TEXT NOT NULL REFERENCES profiles(id),
			sender_name  TEXT NOT NULL,
			sender_email TEXT NOT NULL,
			message      TEXT NOT NULL,
			kind         TEXT NOT NULL,
			source       TEXT NOT NULL,
			agent_name   TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS api_keys (
			id                  TEXT PRIMARY KEY,
			profile_id          TEXT NOT NULL REFERENCES profiles(id),
			name                TEXT NOT NULL,
			key_hash            TEXT NOT NULL UNIQUE,
			scopes              TEXT[] NOT NULL DEFAULT '{}',
			rate_limit_per_hour INT NOT NULL,
			active              BOOLEAN NOT NULL DEFAULT TRUE,
			last_used_at        TIMESTAMPTZ,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS api_key_usage (
			id         TEXT PRIMARY KEY,
			key_id     TEXT NOT NULL REFERENCES api_keys(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_links_profile ON links (profile_id, position);
		CREATE INDEX IF NOT EXISTS idx_socials_profile ON social_accounts (profile_id, position);
		CREATE INDEX IF NOT EXISTS idx_services_profile ON services (profile_id, position);
		CREATE INDEX IF NOT EXISTS idx_usage_key_time ON api_key_usage (key_id, created_at);
	`
	_, err := s.pool.Exec(ctx, ddl)
	return err
}

// ── Profiles ────────────────────────────────────────────────

func (s *PostgresStore) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return s.loadProfile(ctx,
		`SELECT id, username, display_name, bio, avatar_url, verified, created_at
		 FROM profiles WHERE LOWER(username) = LOWER($1)`, username)
}

func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return s.loadProfile(ctx,
		`SELECT id, username, display_name, bio, avatar_url, verified, created_at
		 FROM profiles WHERE id = $1`, id)
}

func (s *PostgresStore) loadProfile(ctx context.Context, query, arg string) (*models.Profile, error) {
	var p models.Profile
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Username, &p.DisplayName, &p.Bio, &p.AvatarURL, &p.Verified, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "profile", Key: arg}
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	if p.Links, err = s.loadLinks(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Socials, err = s.loadSocials(ctx, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) loadLinks(ctx context.Context, profileID string) ([]models.Link, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, profile_id, title, url, position, active
		 FROM links WHERE profile_id = $1 ORDER BY position`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.ID, &l.ProfileID, &l.Title, &l.URL, &l.Position, &l.Active); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (s *PostgresStore) loadSocials(ctx context.Context, profileID string) ([]models.SocialAccount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, profile_id, platform, handle, url, position
		 FROM social_accounts WHERE profile_id = $1 ORDER BY position`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query socials: %w", err)
	}
	defer rows.Close()

	var socials []models.SocialAccount
	for rows.Next() {
		var a models.SocialAccount
		if err := rows.Scan(&a.ID, &a.ProfileID, &a.Platform, &a.Handle, &a.URL, &a.Position); err != nil {
			return nil, err
		}
		socials = append(socials, a)
	}
	return socials, rows.Err()
}

func (s *PostgresStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO profiles (id, username, display_name, bio, avatar_url, verified, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		profile.ID, profile.Username, profile.DisplayName, profile.Bio,
		profile.AvatarURL, profile.Verified, createdAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	for _, l := range profile.Links {
		if _, err := tx.Exec(ctx,
			`INSERT INTO links (id, profile_id, title, url, position, active)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			l.ID, profile.ID, l.Title, l.URL, l.Position, l.Active); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
	}
	for _, a := range profile.Socials {
		if _, err := tx.Exec(ctx,
			`INSERT INTO social_accounts (id, profile_id, platform, handle, url, position)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ID, profile.ID, a.Platform, a.Handle, a.URL, a.Position); err != nil {
			return fmt.Errorf("insert social account: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ── Services ────────────────────────────────────────────────

func (s *PostgresStore) ListActiveServices(ctx context.Context, profileID string) ([]models.Service, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, profile_id, name, description, price, position, active
		 FROM services WHERE profile_id = $1 AND active ORDER BY position`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	out := make([]models.Service, 0)
	for rows.Next() {
		var sv models.Service
		if err := rows.Scan(&sv.ID, &sv.ProfileID, &sv.Name, &sv.Description, &sv.Price, &sv.Position, &sv.Active); err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetService(ctx context.Context, id string) (*models.Service, error) {
	var sv models.Service
	err := s.pool.QueryRow(ctx,
		`SELECT id, profile_id, name, description, price, position, active
		 FROM services WHERE id = $1`, id).Scan(
		&sv.ID, &sv.ProfileID, &sv.Name, &sv.Description, &sv.Price, &sv.Position, &sv.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "service", Key: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query service: %w", err)
	}
	return &sv, nil
}

func (s *PostgresStore) CreateService(ctx context.Context, service *models.Service) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO services (id, profile_id, name, description, price, position, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		service.ID, service.ProfileID, service.Name, service.Description,
		service.Price, service.Position, service.Active)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

// ── Inquiries ───────────────────────────────────────────────

func (s *PostgresStore) CreateInquiry(ctx context.Context, inquiry *models.Inquiry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO inquiries (id, service_id, profile_id, sender_name, sender_email, message, kind, source, agent_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inquiry.ID, inquiry.ServiceID, inquiry.ProfileID, inquiry.SenderName,
		inquiry.SenderEmail, inquiry.Message, inquiry.Kind, inquiry.Source,
		inquiry.AgentName, inquiry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert inquiry: %w", err)
	}
	return nil
}

// ── API Keys ────────────────────────────────────────────────

func (s *PostgresStore) GetAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	var k models.APIKey
	err := s.pool.QueryRow(ctx,
		`SELECT id, profile_id, name, key_hash, scopes, rate_limit_per_hour, active, last_used_at, created_at
		 FROM api_keys WHERE key_hash = $1`, keyHash).Scan(
		&k.ID, &k.ProfileID, &k.Name, &k.KeyHash, &k.Scopes,
		&k.RateLimitPerHour, &k.Active, &k.LastUsedAt, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "api key", Key: keyHash}
	}
	if err != nil {
		return nil, fmt.Errorf("query api key: %w", err)
	}
	return &k, nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	createdAt := key.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, profile_id, name, key_hash, scopes, rate_limit_per_hour, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.ProfileID, key.Name, key.KeyHash, key.Scopes,
		key.RateLimitPerHour, key.Active, createdAt)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, profileID string) ([]models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, profile_id, name, key_hash, scopes, rate_limit_per_hour, active, last_used_at, created_at
		 FROM api_keys WHERE profile_id = $1 ORDER BY created_at`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query api keys: %w", err)
	}
	defer rows.Close()

	out := make([]models.APIKey, 0)
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.ProfileID, &k.Name, &k.KeyHash, &k.Scopes,
			&k.RateLimitPerHour, &k.Active, &k.LastUsedAt, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeactivateAPIKey(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE api_keys SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: "api key", Key: id}
	}
	return nil
}

func (s *PostgresStore) TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, usedAt)
	return err
}

// ── Usage ───────────────────────────────────────────────────

func (s *PostgresStore) CreateUsageRecord(ctx context.Context, record *models.UsageRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_key_usage (id, key_id, created_at) VALUES ($1, $2, $3)`,
		record.ID, record.KeyID, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountUsageSince(ctx context.Context, keyID string, since time.Time) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM api_key_usage WHERE key_id = $1 AND created_at >= $2`,
		keyID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return n, nil
}
