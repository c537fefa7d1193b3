// Package reconciler serves consistency reports and runs the periodic check
// and, when enabled, the capsule unlock job.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"prompterly/pkg/bus"
	"prompterly/pkg/consistency"
	"prompterly/pkg/db/migrate"
)

const defaultInterval = 5 * time.Minute

// Versioner reads the schema version marker. *migrate.Runner implements it.
type Versioner interface {
	Version(ctx context.Context) (migrate.Marker, error)
}

// Config controls the background loop and the HTTP surface.
type Config struct {
	Interval       time.Duration
	Grace          time.Duration
	UnlockCapsules bool
	AllowedOrigins []string
}

// Service owns the latest consistency report.
type Service struct {
	db        *gorm.DB
	versioner Versioner
	checker   *consistency.Checker
	unlocker  *consistency.Reconciler
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time

	mu   sync.RWMutex
	last *consistency.Report
}

// New wires a Service. pub may be nil; unlock events are then not published.
func New(gdb *gorm.DB, versioner Versioner, pub bus.Publisher, cfg Config, log zerolog.Logger) (*Service, error) {
	if gdb == nil {
		return nil, errors.New("db is required")
	}
	if versioner == nil {
		return nil, errors.New("versioner is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Grace <= 0 {
		cfg.Grace = consistency.DefaultGrace
	}

	checker, err := consistency.NewChecker(gdb, consistency.WithLogger(log), consistency.WithGrace(cfg.Grace))
	if err != nil {
		return nil, err
	}
	s := &Service{
		db:        gdb,
		versioner: versioner,
		checker:   checker,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
	if cfg.UnlockCapsules {
		s.unlocker, err = consistency.NewReconciler(gdb, pub, log)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Run ticks immediately and then every Interval until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("reconcile tick")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick unlocks due capsules when enabled and then refreshes the report, so a
// report taken right after a tick reflects the unlocks.
func (s *Service) Tick(ctx context.Context) error {
	now := s.now()
	if s.unlocker != nil {
		unlocked, err := s.unlocker.UnlockDue(ctx, now)
		if err != nil {
			return fmt.Errorf("unlock capsules: %w", err)
		}
		if len(unlocked) > 0 {
			s.log.Info().Int("capsules", len(unlocked)).Msg("capsules unlocked")
		}
	}
	_, err := s.refresh(ctx, now)
	return err
}

func (s *Service) refresh(ctx context.Context, now time.Time) (*consistency.Report, error) {
	report, err := s.checker.Run(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("consistency check: %w", err)
	}
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	return report, nil
}

// Report returns the latest report, running a check first when none exists
// or fresh is set.
func (s *Service) Report(ctx context.Context, fresh bool) (*consistency.Report, error) {
	if !fresh {
		s.mu.RLock()
		last := s.last
		s.mu.RUnlock()
		if last != nil {
			return last, nil
		}
	}
	return s.refresh(ctx, s.now())
}

// OnSchemaMigrated re-runs the check once the schema changes under the service.
func (s *Service) OnSchemaMigrated(ctx context.Context, evt bus.Event) error {
	var payload bus.SchemaMigrated
	if err := evt.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s: %w", evt.Subject, err)
	}
	s.log.Info().Int64("from", payload.From).Int64("to", payload.To).Str("direction", payload.Direction).Msg("schema migrated")
	_, err := s.refresh(ctx, s.now())
	return err
}

// Ready reports whether the store answers and the version marker is clean.
func (s *Service) Ready(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	marker, err := s.versioner.Version(ctx)
	if err != nil {
		return err
	}
	if marker.Version == 0 {
		return errors.New("schema is not migrated")
	}
	if marker.Dirty {
		return fmt.Errorf("%w: %s", migrate.ErrMigrationInProgress, marker.ID())
	}
	return nil
}
