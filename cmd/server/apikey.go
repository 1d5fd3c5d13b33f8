package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/agent-gateway/internal/auth"
	"github.com/linkforge/linkforge/agent-gateway/internal/config"
	"github.com/linkforge/linkforge/agent-gateway/internal/store"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
	"github.com/linkforge/linkforge/agent-gateway/pkg/server"
	"github.com/spf13/cobra"
)

var (
	apikeyScopes    string
	apikeyRateLimit int
	apikeyName      string
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage agent API keys",
}

var apikeyGenerateCmd = &cobra.Command{
	Use:   "generate <username>",
	Short: "Generate an API key for a profile; the secret is printed once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, s, err := openStoreForKeyCommands()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		profile, err := s.GetProfileByUsername(ctx, args[0])
		if err != nil {
			return fmt.Errorf("profile %q: %w", args[0], err)
		}

		secret, err := auth.GenerateSecret(cfg.Auth.KeyPrefix)
		if err != nil {
			return err
		}

		rateLimit := apikeyRateLimit
		if rateLimit <= 0 {
			rateLimit = cfg.Auth.DefaultRateLimit
		}
		name := apikeyName
		if name == "" {
			name = "agent key"
		}

		key := &models.APIKey{
			ID:               uuid.NewString(),
			ProfileID:        profile.ID,
			Name:             name,
			KeyHash:          auth.HashSecret(secret),
			Scopes:           splitScopes(apikeyScopes),
			RateLimitPerHour: rateLimit,
			Active:           true,
			CreatedAt:        time.Now().UTC(),
		}
		if err := s.CreateAPIKey(ctx, key); err != nil {
			return err
		}

		fmt.Printf("key_id: %s\n", key.ID)
		fmt.Printf("username: %s\n", profile.Username)
		fmt.Printf("scopes: %s\n", strings.Join(key.Scopes, ","))
		fmt.Printf("rate_limit_per_hour: %d\n", key.RateLimitPerHour)
		fmt.Printf("api_key: %s\n", secret)
		fmt.Println("Store this key now; only its digest is persisted.")
		return nil
	},
}

var apikeyListCmd = &cobra.Command{
	Use:   "list <username>",
	Short: "List a profile's API keys",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := openStoreForKeyCommands()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		profile, err := s.GetProfileByUsername(ctx, args[0])
		if err != nil {
			return fmt.Errorf("profile %q: %w", args[0], err)
		}

		keys, err := s.ListAPIKeys(ctx, profile.ID)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Println("no API keys")
			return nil
		}

		for _, k := range keys {
			lastUsed := "never"
			if k.LastUsedAt != nil {
				lastUsed = k.LastUsedAt.Format(time.RFC3339)
			}
			fmt.Printf("%s  name=%q scopes=%s limit=%d/h active=%t last_used=%s\n",
				k.ID, k.Name, strings.Join(k.Scopes, ","), k.RateLimitPerHour, k.Active, lastUsed)
		}
		return nil
	},
}

var apikeyDeactivateCmd = &cobra.Command{
	Use:   "deactivate <key_id>",
	Short: "Deactivate an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := openStoreForKeyCommands()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeactivateAPIKey(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deactivated %s\n", args[0])
		return nil
	},
}

func init() {
	apikeyGenerateCmd.Flags().StringVar(&apikeyScopes, "scopes", "read,inquire", "comma-separated permission scopes")
	apikeyGenerateCmd.Flags().IntVar(&apikeyRateLimit, "rate-limit", 0, "hourly rate limit (0 = configured default)")
	apikeyGenerateCmd.Flags().StringVar(&apikeyName, "name", "", "human-readable key name")

	apikeyCmd.AddCommand(apikeyGenerateCmd)
	apikeyCmd.AddCommand(apikeyListCmd)
	apikeyCmd.AddCommand(apikeyDeactivateCmd)
	rootCmd.AddCommand(apikeyCmd)
}

func openStoreForKeyCommands() (*config.Config, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	s, err := server.OpenStore(context.Background(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

func splitScopes(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
