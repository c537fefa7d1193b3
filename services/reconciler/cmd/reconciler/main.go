package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"prompterly/pkg/bus"
	"prompterly/pkg/config"
	"prompterly/pkg/db"
	"prompterly/pkg/db/migrate"
	"prompterly/pkg/db/migrations"
	"prompterly/pkg/schema"
	"prompterly/pkg/telemetry"
	"prompterly/services/reconciler"
)

const serviceName = "prompterly-reconciler"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := telemetry.NewLogger(serviceName, cfg.Log.Format, cfg.Log.Level)
	log.Logger = logger

	cleanup, err := telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init otel")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown otel")
		}
	}()

	conn, err := cfg.DB.Connection()
	if err != nil {
		log.Fatal().Err(err).Msg("database config")
	}
	handle, err := db.Connect(ctx, conn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer func() {
		if err := handle.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	reg, err := schema.Canonical()
	if err != nil {
		log.Fatal().Err(err).Msg("build schema registry")
	}
	if err := reg.Register(handle.ORM); err != nil {
		log.Fatal().Err(err).Msg("register schema callbacks")
	}
	runner, err := migrate.New(handle.ORM, migrations.All(), migrate.WithLogger(logger), migrate.WithHistoryTable(cfg.DB.HistoryTable))
	if err != nil {
		log.Fatal().Err(err).Msg("migration runner")
	}

	var events *bus.Bus
	if cfg.NATSURL != "" {
		events, err = bus.New(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect nats")
		}
		defer events.Close()
	}

	var pub bus.Publisher
	if events != nil {
		pub = events
	}
	svc, err := reconciler.New(handle.ORM, runner, pub, reconciler.Config{
		Interval:       cfg.Reconciler.Interval,
		UnlockCapsules: cfg.Reconciler.UnlockCapsules,
		AllowedOrigins: cfg.Reconciler.AllowedOrigins,
	}, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("init reconciler")
	}

	if events != nil {
		sub, err := events.Subscribe(ctx, bus.SubjectSchemaMigrated, "reconciler", svc.OnSchemaMigrated)
		if err != nil {
			log.Fatal().Err(err).Msg("subscribe schema events")
		}
		defer sub.Close()
	}

	go func() {
		if err := svc.Run(ctx); err != nil {
			log.Error().Err(err).Msg("reconcile loop")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Reconciler.Addr,
		Handler:           svc.Router(serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Reconciler.Addr).Bool("unlock_capsules", cfg.Reconciler.UnlockCapsules).Msg("starting reconciler")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
}
