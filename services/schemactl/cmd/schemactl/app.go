package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"prompterly/pkg/bus"
	"prompterly/pkg/config"
	"prompterly/pkg/db"
	"prompterly/pkg/db/migrate"
	"prompterly/pkg/db/migrations"
	"prompterly/pkg/metrics"
	"prompterly/pkg/schema"
	"prompterly/pkg/telemetry"
)

const serviceName = "schemactl"

// app holds the lazily opened dependencies shared by the subcommands.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	handle   *db.Handle
	reg      *schema.Registry
	runner   *migrate.Runner
	bus      *bus.Bus
	shutdown func(context.Context) error
}

func (a *app) open(ctx context.Context) error {
	if a.handle != nil {
		return nil
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.log = telemetry.NewLogger(serviceName, cfg.Log.Format, cfg.Log.Level)

	a.shutdown, err = telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}

	conn, err := cfg.DB.Connection()
	if err != nil {
		return err
	}
	a.handle, err = db.Connect(ctx, conn)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	a.reg, err = schema.Canonical()
	if err != nil {
		return err
	}
	if err := a.reg.Register(a.handle.ORM); err != nil {
		return err
	}

	a.runner, err = migrate.New(a.handle.ORM, migrations.All(), migrate.WithLogger(a.log), migrate.WithHistoryTable(a.cfg.DB.HistoryTable))
	if err != nil {
		return err
	}

	if cfg.NATSURL != "" {
		a.bus, err = bus.New(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
	}
	return nil
}

// publisher returns the bus as a Publisher, or nil when none is configured.
func (a *app) publisher() bus.Publisher {
	if a.bus == nil {
		return nil
	}
	return a.bus
}

func (a *app) publishMigrated(ctx context.Context, from, to int64, dir migrate.Direction) {
	if a.bus == nil || from == to {
		return
	}
	evt := bus.SchemaMigrated{From: from, To: to, Direction: string(dir)}
	if err := a.bus.Publish(ctx, bus.SubjectSchemaMigrated, evt); err != nil {
		a.log.Warn().Err(err).Msg("publish schema.migrated")
	}
}

func (a *app) pushMetrics(ctx context.Context) {
	if err := metrics.Push(ctx, a.cfg.PushgatewayURL, serviceName); err != nil {
		a.log.Warn().Err(err).Msg("push metrics")
	}
}

func (a *app) close(ctx context.Context) error {
	var err error
	if a.bus != nil {
		a.bus.Close()
		a.bus = nil
	}
	if a.handle != nil {
		err = multierr.Append(err, a.handle.Close())
		a.handle = nil
	}
	if a.shutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		err = multierr.Append(err, a.shutdown(shutdownCtx))
		a.shutdown = nil
	}
	return err
}
