package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompterly/pkg/access"
	"prompterly/pkg/db"
)

func TestLoadWith(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, cfg Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{"DB_DSN": "postgres://localhost/prompterly"},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "postgres", cfg.DB.Driver)
				assert.Equal(t, 25, cfg.DB.MaxOpenConns)
				assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
				assert.Equal(t, "info", cfg.Log.Level)
				assert.Equal(t, ":8080", cfg.Reconciler.Addr)
				assert.Equal(t, 5*time.Minute, cfg.Reconciler.Interval)
				assert.Equal(t, []string{"http://localhost:5173"}, cfg.Reconciler.AllowedOrigins)
				assert.Equal(t, "us-east-1", cfg.S3.Region)
				assert.True(t, cfg.S3.ForcePathStyle)
				assert.False(t, cfg.S3.Enabled())
				assert.Equal(t, access.Policy(""), cfg.Policy())
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"DB_DRIVER":             "sqlite",
				"DB_DSN":                "file:dev.db",
				"BILLING_ACCESS_POLICY": "Either",
				"RECONCILE_INTERVAL":    "30s",
				"CORS_ALLOWED_ORIGINS":  "https://a.example,https://b.example",
				"S3_ENDPOINT":           "minio:9000",
				"SNAPSHOT_BUCKET":       "snapshots",
			},
			check: func(t *testing.T, cfg Config) {
				conn, err := cfg.DB.Connection()
				require.NoError(t, err)
				assert.Equal(t, db.SQLite, conn.Driver)
				assert.Equal(t, access.PolicyEither, cfg.Policy())
				assert.Equal(t, 30*time.Second, cfg.Reconciler.Interval)
				assert.Len(t, cfg.Reconciler.AllowedOrigins, 2)
				assert.True(t, cfg.S3.Enabled())
				assert.Equal(t, "snapshots", cfg.Snapshot.Bucket)
			},
		},
		{
			name:    "missing dsn",
			env:     map[string]string{},
			wantErr: "DB_DSN",
		},
		{
			name:    "empty dsn",
			env:     map[string]string{"DB_DSN": "  "},
			wantErr: "DB_DSN is required",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"DB_DSN": "x", "DB_DRIVER": "oracle"},
			wantErr: "unsupported db driver",
		},
		{
			name:    "unknown policy",
			env:     map[string]string{"DB_DSN": "x", "BILLING_ACCESS_POLICY": "whatever"},
			wantErr: "BILLING_ACCESS_POLICY",
		},
		{
			name:    "zero interval",
			env:     map[string]string{"DB_DSN": "x", "RECONCILE_INTERVAL": "0s"},
			wantErr: "RECONCILE_INTERVAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(tt.env))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
