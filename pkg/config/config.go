// Package config loads schemactl and reconciler settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"prompterly/pkg/access"
	"prompterly/pkg/db"
	"prompterly/pkg/s3"
)

// Config holds runtime configuration shared by the binaries.
type Config struct {
	DB         Database
	Log        Log
	Snapshot   Snapshot
	Reconciler Reconciler
	S3         s3.Config

	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	PushgatewayURL string `env:"METRICS_PUSHGATEWAY_URL"`
	NATSURL        string `env:"NATS_URL"`
	BillingPolicy  string `env:"BILLING_ACCESS_POLICY"`
}

type Database struct {
	Driver          string        `env:"DB_DRIVER,default=postgres"`
	DSN             string        `env:"DB_DSN,required"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`
	HistoryTable    string        `env:"DB_MIGRATIONS_TABLE"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=console"`
}

type Snapshot struct {
	Bucket       string `env:"SNAPSHOT_BUCKET"`
	AgeSecretKey string `env:"AGE_SECRET_KEY"`
	AgePublicKey string `env:"AGE_PUBLIC_KEY"`
	AgeRecipient string `env:"AGE_RECIPIENT"`
}

type Reconciler struct {
	Addr           string        `env:"ADDR,default=:8080"`
	Interval       time.Duration `env:"RECONCILE_INTERVAL,default=5m"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	UnlockCapsules bool          `env:"RECONCILE_UNLOCK_CAPSULES,default=false"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith populates a Config from l and validates the enumerated values.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.DB.DSN) == "" {
		return Config{}, errors.New("DB_DSN is required")
	}
	if _, err := db.ParseDriver(cfg.DB.Driver); err != nil {
		return Config{}, err
	}
	if cfg.BillingPolicy != "" {
		if _, err := access.ParsePolicy(cfg.BillingPolicy); err != nil {
			return Config{}, fmt.Errorf("BILLING_ACCESS_POLICY: %w", err)
		}
	}
	if cfg.Reconciler.Interval <= 0 {
		return Config{}, fmt.Errorf("RECONCILE_INTERVAL must be positive, got %s", cfg.Reconciler.Interval)
	}
	return cfg, nil
}

// Connection converts the database settings for db.Connect.
func (d Database) Connection() (db.Config, error) {
	driver, err := db.ParseDriver(d.Driver)
	if err != nil {
		return db.Config{}, err
	}
	return db.Config{
		Driver:          driver,
		DSN:             d.DSN,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
	}, nil
}

// Policy returns the configured billing policy. An unset policy yields the
// empty Policy, which access.Check reports as undecided for paid lounges.
func (c Config) Policy() access.Policy {
	p, _ := access.ParsePolicy(c.BillingPolicy)
	return p
}
