package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/twofa/internal/twofa/domain"
	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/aussiebroadwan/twofa/internal/twofa/store/drivers/memory"
	redisstore "github.com/aussiebroadwan/twofa/internal/twofa/store/drivers/redis"
	"github.com/aussiebroadwan/twofa/internal/twofa/store/drivers/sqlite"
	"github.com/aussiebroadwan/twofa/pkg/clock"
	"github.com/aussiebroadwan/twofa/pkg/cryptox"
)

// OpenStore builds the configured driver and applies its migrations.
func OpenStore(ctx context.Context, cfg Config, c clock.Clock, logger *slog.Logger) (store.Store, error) {
	var st store.Store

	switch cfg.StoreDriver {
	case DriverMemory:
		st = memory.NewStore(c)
		logger.Warn("using in-memory store, state is lost on restart")

	case DriverSQLite:
		db, err := sqlite.NewStore(cfg.DatabaseFile, c)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		st = db

	case DriverRedis:
		rdb, err := redisstore.Connect(ctx, redisstore.Config{ConnectionURL: cfg.RedisURL})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		st = redisstore.NewStore(rdb, c)

	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, cfg.StoreDriver)
	}

	if cfg.StoreDriver != DriverMemory && cfg.MasterKeyPath == "" && os.Getenv(cryptox.MasterKeyEnv) == "" {
		logger.Warn("no master key configured, sealed secrets will not survive a restart",
			"env", cryptox.MasterKeyEnv)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("store ready", "driver", cfg.StoreDriver)
	return st, nil
}

// SeedUser creates the configured credential if it does not exist yet. A
// generated password is logged exactly once, when the user is created.
func SeedUser(ctx context.Context, st store.Store, cfg Config, logger *slog.Logger) error {
	_, err := st.Users().GetUser(ctx, cfg.UserIdentifier)
	switch {
	case err == nil:
		logger.Info("user already exists", "identifier", cfg.UserIdentifier)
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("look up seed user: %w", err)
	}

	password := cfg.UserPassword
	generated := password == ""
	if generated {
		password, err = cryptox.GeneratePassword()
		if err != nil {
			return err
		}
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	err = st.Users().CreateUser(ctx, domain.User{
		Credential: domain.Credential{Identifier: cfg.UserIdentifier, PasswordHash: hash},
		TwoFactor:  domain.Disabled(),
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create seed user: %w", err)
	}

	if generated {
		logger.Warn("seed user created with a generated password, it will not be shown again",
			"identifier", cfg.UserIdentifier, "generated_password", password)
	} else {
		logger.Info("seed user created", "identifier", cfg.UserIdentifier)
	}
	return nil
}
