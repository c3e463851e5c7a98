// Package bootstrap wires configuration into live database, cache and tracing handles.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"civichub/internal/cache"
	"civichub/internal/config"
	"civichub/internal/database"
	"civichub/internal/models"
	"civichub/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime holds the process-wide handles built from configuration.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	// ShutdownTracing flushes pending spans.
	ShutdownTracing func(context.Context) error
}

// InitRuntime starts tracing, connects to the database and Redis, and in
// development ensures the bootstrap admin account exists.
func InitRuntime(cfg *config.Config) (*Runtime, error) {
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "civichub",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)

	if err := EnsureDevAdmin(cfg, db); err != nil {
		return nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	return &Runtime{DB: db, Redis: cache.GetClient(), ShutdownTracing: shutdown}, nil
}

// EnsureDevAdmin creates the configured admin account, or promotes it when it
// already exists. It does nothing unless DEV_BOOTSTRAP_ADMIN is set outside production.
func EnsureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if cfg.IsProduction() || !cfg.DevBootstrapAdmin {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = "admin"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@civichub.local"
	}
	if cfg.DevAdminPassword == "" {
		return errors.New("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	var created bool
	err := db.Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.Where("username = ?", username).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{Username: username, Email: email, Role: models.RoleAdmin}
			if err := admin.SetPassword(cfg.DevAdminPassword); err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			created = true
			return tx.Create(&admin).Error
		case findErr != nil:
			return findErr
		case admin.Role != models.RoleAdmin:
			return tx.Model(&admin).Update("role", models.RoleAdmin).Error
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("development admin bootstrap ensured for %s (created=%v)", username, created)
	return nil
}
