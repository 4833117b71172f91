package app

import (
	"fmt"
	"log/slog"
	"os"

	"exchange_go/internal/domain"
	"exchange_go/internal/infra"
	"exchange_go/internal/infra/storage"

	"github.com/google/uuid"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (Config, Logger, DB, seed admin).
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping exchange...")

	// 1. Load Config
	configPath := os.Getenv("EXCHANGE_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Database.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized", slog.String("path", cfg.Database.Path))

	// 4. Seed admin user
	if err := b.seedAdmin(); err != nil {
		return fmt.Errorf("admin seed: %w", err)
	}

	return nil
}

// seedAdmin ensures the configured admin account exists. The token comes
// from config (or env override); when absent a fresh one is minted and
// logged once so operators can pick it up.
func (b *Bootstrap) seedAdmin() error {
	existing, err := b.Storage.GetUserByUsername(b.Config.Exchange.AdminUsername)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	token := b.Config.Exchange.AdminToken
	generated := false
	if token == "" {
		token = uuid.NewString()
		generated = true
	}

	admin := &domain.User{
		ExternalID: uuid.NewString(),
		Username:   b.Config.Exchange.AdminUsername,
		Token:      token,
		IsAdmin:    true,
	}
	if err := b.Storage.CreateUser(admin); err != nil {
		return err
	}

	if generated {
		slog.Info("✅ Admin account created", slog.String("token", token))
	} else {
		slog.Info("✅ Admin account created")
	}
	return nil
}
