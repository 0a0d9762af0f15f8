package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/twofa/internal/twofa/otpauth"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

var ErrUnknownDriver = errors.New("unknown store driver")

type Config struct {
	Issuer       string `env:"TWOFA_ISSUER"        envDefault:"proto-google-auth"`
	SecretLength int    `env:"TWOFA_SECRET_LENGTH" envDefault:"20"` // bytes; below 16 is raised to 20

	StoreDriver  string `env:"TWOFA_STORE_DRIVER"  envDefault:"memory"` // memory, sqlite, redis
	DatabaseFile string `env:"TWOFA_DATABASE_FILE" envDefault:"twofa.db"`
	RedisURL     string `env:"TWOFA_REDIS_URL"     envDefault:"redis://localhost:6379/0"`

	PepperFile     string        `env:"TWOFA_PEPPER_FILE"      envDefault:"pepper"`
	MasterKeyPath  string        `env:"TWOFA_MASTER_KEY_PATH"`  // Optional: falls back to TWOFA_MASTER_KEY, then an ephemeral key
	SigningKeyFile string        `env:"TWOFA_SIGNING_KEY_FILE"` // Optional: Ed25519 PKCS8 PEM, generated if empty
	AccessTokenTTL time.Duration `env:"TWOFA_ACCESS_TOKEN_TTL" envDefault:"15m"`

	UserIdentifier string `env:"TWOFA_USER_IDENTIFIER" envDefault:"andrewthian@gmail.com"`
	UserPassword   string `env:"TWOFA_USER_PASSWORD"` // Optional: generated and logged once if empty

	Env                 string        `env:"ENV"                   envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig reads the process environment, after loading a .env file from
// the working directory if there is one.
func LoadConfig() (Config, error) {
	// Ignore errors - the .env file might not exist and that's ok
	_ = godotenv.Load()
	return parseConfig(env.Options{})
}

// LoadConfigFrom parses vars instead of the process environment.
func LoadConfigFrom(vars map[string]string) (Config, error) {
	return parseConfig(env.Options{Environment: vars})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.SecretLength = otpauth.EffectiveSecretLength(cfg.SecretLength)

	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite, DriverRedis:
	default:
		return Config{}, fmt.Errorf("%w %q", ErrUnknownDriver, cfg.StoreDriver)
	}
	if cfg.AccessTokenTTL <= 0 {
		return Config{}, errors.New("TWOFA_ACCESS_TOKEN_TTL must be positive")
	}
	return cfg, nil
}
