// Package server provides the public entry point for initializing the
// LinkForge agent gateway: configuration, telemetry, store selection,
// credential validation, the tool and resource registries, the JSON-RPC
// dispatcher and the HTTP router, wired once at startup with explicit
// dependency injection.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/agent-gateway/internal/api"
	"github.com/linkforge/linkforge/agent-gateway/internal/api/handlers"
	"github.com/linkforge/linkforge/agent-gateway/internal/auth"
	"github.com/linkforge/linkforge/agent-gateway/internal/config"
	"github.com/linkforge/linkforge/agent-gateway/internal/resources"
	"github.com/linkforge/linkforge/agent-gateway/internal/rpc"
	"github.com/linkforge/linkforge/agent-gateway/internal/store"
	"github.com/linkforge/linkforge/agent-gateway/internal/telemetry"
	"github.com/linkforge/linkforge/agent-gateway/internal/tools"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
	"github.com/rs/zerolog/log"
)

// Server holds the initialized agent gateway.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the data gateway backing the protocol layer.
	Store store.Store

	// Config is the loaded configuration.
	Config *config.Config

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc drains the usage recorder and flushes telemetry.
	ShutdownFunc func(context.Context) error
}

// New loads configuration and initializes all gateway components.
func New(ctx context.Context) (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig initializes the gateway with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	telemetryShutdown, err := telemetry.Init(cfg.Telemetry, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	dataStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cached := store.NewCachedStore(dataStore, time.Duration(cfg.Store.CacheTTLSeconds)*time.Second)

	recorder := auth.NewUsageRecorder(dataStore, cfg.Auth.UsageQueueSize)
	recorder.Start()

	validator := auth.NewValidator(cached, cfg.Auth.KeyPrefix, recorder)
	toolReg := tools.NewRegistry(cached, cfg.Demo.Username)
	resourceReg := resources.NewRegistry(cached)

	dispatcher := rpc.NewDispatcher()
	dispatcher.Register("initialize", rpc.Initialize(rpc.ServerInfo{
		Name:    "linkforge-agent-gateway",
		Version: cfg.Version,
	}, toolReg.Instructions()))
	dispatcher.Register("ping", rpc.Ping())
	dispatcher.Register("notifications/initialized", rpc.Initialized())
	dispatcher.Register("tools/list", toolReg.HandleList)
	dispatcher.Register("tools/call", toolReg.HandleCall)
	dispatcher.Register("resources/list", resourceReg.HandleList)
	dispatcher.Register("resources/read", resourceReg.HandleRead)

	h := handlers.New(validator, dispatcher, cfg.Version)
	router := api.NewRouter(h)

	log.Info().Str("driver", cfg.Store.Driver).Msg("agent gateway initialized")

	shutdown := func(ctx context.Context) error {
		recorder.Stop(ctx)
		return telemetryShutdown(ctx)
	}

	return &Server{
		Handler:      router,
		Store:        dataStore,
		Config:       cfg,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}

// OpenStore opens the configured backing store. The memory driver seeds
// the demo profile so the gateway is usable with zero configuration.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		s, err := store.NewPostgresStore(ctx, cfg.Store.URL, int32(cfg.Store.MaxConnections))
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return s, nil

	case "memory", "":
		s := store.NewMemoryStore()
		if err := seedDemoProfile(ctx, s, cfg.Demo.Username); err != nil {
			return nil, fmt.Errorf("seed demo profile: %w", err)
		}
		log.Info().Msg("in-memory store initialized")
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func seedDemoProfile(ctx context.Context, s store.Store, username string) error {
	profileID := uuid.NewString()
	demo := &models.Profile{
		ID:          profileID,
		Username:    username,
		DisplayName: "LinkForge Demo",
		Bio:         "A sandbox profile for trying out the agent gateway.",
		Verified:    true,
		CreatedAt:   time.Now().UTC(),
		Links: []models.Link{
			{ID: uuid.NewString(), ProfileID: profileID, Title: "LinkForge", URL: "https://linkforge.example", Position: 0, Active: true},
			{ID: uuid.NewString(), ProfileID: profileID, Title: "Docs", URL: "https://linkforge.example/docs", Position: 1, Active: true},
		},
		Socials: []models.SocialAccount{
			{ID: uuid.NewString(), ProfileID: profileID, Platform: "github", Handle: "linkforge", URL: "https://github.com/linkforge", Position: 0},
		},
	}
	if err := s.CreateProfile(ctx, demo); err != nil {
		return err
	}

	return s.CreateService(ctx, &models.Service{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Name:      "Consulting call",
		Price:     "$100/hr",
		Position:  0,
		Active:    true,
	})
}
