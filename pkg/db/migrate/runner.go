package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/pressly/goose/v3/lock"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prompterly/pkg/db"
	"prompterly/pkg/metrics"
)

// DefaultHistoryTable is the goose version table.
const DefaultHistoryTable = "schema_migrations"

// Direction of a migration run.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Migration is one declared schema version. Down undoes Up. NoTx forces the
// step-recording mode even on dialects with transactional DDL.
type Migration struct {
	Version int64
	Name    string
	Up      []Operation
	Down    []Operation
	NoTx    bool
}

func (m Migration) ID() string { return migrationID(m.Version, m.Name) }

func migrationID(version int64, name string) string {
	return fmt.Sprintf("%04d_%s", version, name)
}

// Result reports one applied or rolled back migration.
type Result struct {
	Version   int64
	Name      string
	Direction Direction
	Duration  time.Duration
}

func (r Result) ID() string { return migrationID(r.Version, r.Name) }

// Status of one declared migration.
type Status struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
}

type Option func(*Runner)

func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func WithHistoryTable(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.historyTable = name
		}
	}
}

// WithClock overrides the time source used for the version marker.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Runner applies a declared migration history through a goose provider. On
// postgres runs are serialised with a session advisory lock.
type Runner struct {
	gdb          *gorm.DB
	sqlDB        *sql.DB
	driver       db.Driver
	migrations   []Migration
	index        map[int64]int
	provider     *goose.Provider
	store        database.Store
	historyTable string
	log          zerolog.Logger
	now          func() time.Time
	tracer       trace.Tracer
}

// New validates the declaration and builds the goose provider.
func New(gdb *gorm.DB, migrations []Migration, opts ...Option) (*Runner, error) {
	if gdb == nil {
		return nil, errors.New("db is required")
	}
	r := &Runner{
		historyTable: DefaultHistoryTable,
		log:          zerolog.Nop(),
		now:          time.Now,
		tracer:       otel.Tracer("prompterly/migrate"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := validateDeclaration(migrations); err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	r.sqlDB = sqlDB
	r.driver = db.DriverOf(gdb)
	r.gdb = gdb.Session(&gorm.Session{Logger: gdb.Logger.LogMode(logger.Silent)})
	r.migrations = append([]Migration(nil), migrations...)
	r.index = make(map[int64]int, len(migrations))
	for i, m := range r.migrations {
		r.index[m.Version] = i
	}

	dialect := gooseDialect(r.driver)
	store, err := database.NewStore(dialect, r.historyTable)
	if err != nil {
		return nil, fmt.Errorf("migrate: history store: %w", err)
	}
	r.store = store

	goMigrations := make([]*goose.Migration, 0, len(r.migrations))
	for i := range r.migrations {
		goMigrations = append(goMigrations, r.gooseMigration(i))
	}
	providerOpts := []goose.ProviderOption{
		goose.WithGoMigrations(goMigrations...),
		goose.WithDisableGlobalRegistry(true),
		goose.WithTableName(r.historyTable),
	}
	if r.driver == db.Postgres {
		locker, err := lock.NewPostgresSessionLocker(lock.WithLockID(lock.DefaultLockID))
		if err != nil {
			return nil, fmt.Errorf("migrate: session locker: %w", err)
		}
		providerOpts = append(providerOpts, goose.WithSessionLocker(locker))
	}
	provider, err := goose.NewProvider(dialect, sqlDB, nil, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("migrate: provider: %w", err)
	}
	r.provider = provider
	return r, nil
}

func gooseDialect(d db.Driver) goose.Dialect {
	switch d {
	case db.Postgres:
		return goose.DialectPostgres
	case db.MySQL:
		return goose.DialectMySQL
	default:
		return goose.DialectSQLite3
	}
}

func validateDeclaration(migrations []Migration) error {
	if len(migrations) == 0 {
		return &SequenceError{Reason: ReasonDeclaration, Detail: "no migrations declared"}
	}
	var prev int64
	for _, m := range migrations {
		switch {
		case m.Version <= 0:
			return &SequenceError{Reason: ReasonDeclaration, Version: m.Version, Detail: "versions must be positive"}
		case m.Version <= prev:
			return &SequenceError{Reason: ReasonDeclaration, Version: m.Version, Detail: fmt.Sprintf("declared after %d", prev)}
		case m.Name == "":
			return &SequenceError{Reason: ReasonDeclaration, Version: m.Version, Detail: "name is required"}
		}
		prev = m.Version
	}
	return nil
}

func (r *Runner) transactional(m Migration) bool {
	return r.driver.TransactionalDDL() && !m.NoTx
}

func (r *Runner) gooseMigration(i int) *goose.Migration {
	m := r.migrations[i]
	if r.transactional(m) {
		return goose.NewGoMigration(m.Version,
			&goose.GoFunc{RunTx: func(ctx context.Context, tx *sql.Tx) error {
				return r.run(ctx, tx, i, DirectionUp, true)
			}},
			&goose.GoFunc{RunTx: func(ctx context.Context, tx *sql.Tx) error {
				return r.run(ctx, tx, i, DirectionDown, true)
			}},
		)
	}
	return goose.NewGoMigration(m.Version,
		&goose.GoFunc{RunDB: func(ctx context.Context, sqlDB *sql.DB) error {
			return r.run(ctx, sqlDB, i, DirectionUp, false)
		}},
		&goose.GoFunc{RunDB: func(ctx context.Context, sqlDB *sql.DB) error {
			return r.run(ctx, sqlDB, i, DirectionDown, false)
		}},
	)
}

// previous is the version the marker records once migration i is rolled back.
func (r *Runner) previous(i int) (int64, string) {
	if i == 0 {
		return 0, ""
	}
	p := r.migrations[i-1]
	return p.Version, p.Name
}

func (r *Runner) run(ctx context.Context, conn gorm.ConnPool, i int, dir Direction, inTx bool) (err error) {
	m := r.migrations[i]
	ctx, span := r.tracer.Start(ctx, "migrate."+string(dir), trace.WithAttributes(
		attribute.Int64("migration.version", m.Version),
		attribute.String("migration.name", m.Name),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	log := r.log.With().Int64("version", m.Version).Str("migration", m.ID()).Str("direction", string(dir)).Logger()
	s := &Session{DB: db.WithConn(ctx, r.gdb, conn), Driver: r.driver, Log: log}

	ops := m.Up
	target, targetName := m.Version, m.Name
	if dir == DirectionDown {
		ops = m.Down
		target, targetName = r.previous(i)
	}

	if !inTx {
		if err := writeMarker(s.DB, m.Version, m.Name, true, r.now()); err != nil {
			return err
		}
	}
	completed := make([]string, 0, len(ops))
	for _, op := range ops {
		log.Debug().Str("step", op.Describe()).Msg("apply step")
		if err := op.Apply(ctx, s); err != nil {
			if inTx {
				return fmt.Errorf("%s: %w", op.Describe(), err)
			}
			return &PartialState{Version: m.Version, Name: m.Name, Direction: dir, Completed: completed, Failed: op.Describe(), Err: err}
		}
		completed = append(completed, op.Describe())
	}
	if err := writeMarker(s.DB, target, targetName, false, r.now()); err != nil {
		if inTx {
			return err
		}
		return &PartialState{Version: m.Version, Name: m.Name, Direction: dir, Completed: completed, Failed: "record version marker", Err: err}
	}

	elapsed := time.Since(start)
	metrics.MigrationsApplied.WithLabelValues(string(dir)).Inc()
	metrics.MigrationDuration.WithLabelValues(string(dir)).Observe(elapsed.Seconds())
	log.Info().Int("steps", len(ops)).Dur("duration", elapsed).Msg("migration complete")
	return nil
}

// prepare creates the marker table and refuses to run against a history it
// cannot reconcile.
func (r *Runner) prepare(ctx context.Context) error {
	if err := ensureMarker(ctx, r.gdb); err != nil {
		return err
	}
	return r.checkSequence(ctx)
}

func (r *Runner) appliedVersions(ctx context.Context) (map[int64]bool, error) {
	applied := make(map[int64]bool)
	if !r.gdb.WithContext(ctx).Migrator().HasTable(r.historyTable) {
		return applied, nil
	}
	rows, err := r.store.ListMigrations(ctx, r.sqlDB)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	for _, row := range rows {
		if row.Version > 0 && row.IsApplied {
			applied[row.Version] = true
		}
	}
	return applied, nil
}

func (r *Runner) checkSequence(ctx context.Context) error {
	marker, err := ReadMarker(ctx, r.gdb)
	if err != nil {
		return err
	}
	if marker.Dirty {
		return &SequenceError{Reason: ReasonDirty, Version: marker.Version, Detail: "run repair after recovering " + marker.ID()}
	}

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return err
	}
	var head int64
	versions := make([]int64, 0, len(applied))
	for v := range applied {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	for _, v := range versions {
		if _, ok := r.index[v]; !ok {
			return &SequenceError{Reason: ReasonUnknown, Version: v}
		}
		head = v
	}
	for _, m := range r.migrations {
		if m.Version < head && !applied[m.Version] {
			return &SequenceError{Reason: ReasonGap, Version: m.Version, Detail: fmt.Sprintf("store is at %d", head)}
		}
	}
	return nil
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) ([]Result, error) {
	if err := r.prepare(ctx); err != nil {
		return nil, err
	}
	res, err := r.provider.Up(ctx)
	return r.results(res), r.unwrap(err)
}

// UpTo applies pending migrations up to and including version.
func (r *Runner) UpTo(ctx context.Context, version int64) ([]Result, error) {
	if _, ok := r.index[version]; !ok {
		return nil, fmt.Errorf("migration version %d is not declared", version)
	}
	if err := r.prepare(ctx); err != nil {
		return nil, err
	}
	res, err := r.provider.UpTo(ctx, version)
	return r.results(res), r.unwrap(err)
}

// Down rolls back the most recent migration. It returns nil, nil when nothing
// is applied.
func (r *Runner) Down(ctx context.Context) (*Result, error) {
	if err := r.prepare(ctx); err != nil {
		return nil, err
	}
	res, err := r.provider.Down(ctx)
	if errors.Is(err, goose.ErrNoNextVersion) {
		return nil, nil
	}
	if err != nil {
		return nil, r.unwrap(err)
	}
	out := r.results([]*goose.MigrationResult{res})
	return &out[0], nil
}

// DownTo rolls back every migration above version. Zero rolls back everything.
func (r *Runner) DownTo(ctx context.Context, version int64) ([]Result, error) {
	if err := r.prepare(ctx); err != nil {
		return nil, err
	}
	res, err := r.provider.DownTo(ctx, version)
	return r.results(res), r.unwrap(err)
}

// Status lists every declared migration with its applied state.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	res, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	out := make([]Status, 0, len(res))
	for _, st := range res {
		s := Status{
			Version:   st.Source.Version,
			Name:      r.nameOf(st.Source.Version),
			Applied:   st.State == goose.StateApplied,
			AppliedAt: st.AppliedAt,
		}
		out = append(out, s)
	}
	return out, nil
}

// Version reads the schema version marker.
func (r *Runner) Version(ctx context.Context) (Marker, error) {
	return ReadMarker(ctx, r.gdb)
}

// Migrations returns the declared history.
func (r *Runner) Migrations() []Migration {
	return append([]Migration(nil), r.migrations...)
}

// Repair records version as the current state after an operator recovered a
// partially applied migration by hand, and clears the dirty flag. Pass the
// failed version if it was completed manually, or the one before it if its
// changes were reverted.
func (r *Runner) Repair(ctx context.Context, version int64) error {
	if err := ensureMarker(ctx, r.gdb); err != nil {
		return err
	}
	name := ""
	if version != 0 {
		i, ok := r.index[version]
		if !ok {
			return fmt.Errorf("migration version %d is not declared", version)
		}
		name = r.migrations[i].Name
	}
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return err
	}
	for v := range applied {
		if v > version {
			return fmt.Errorf("repair to %d: version %d is recorded as applied; roll it back first", version, v)
		}
	}
	if version != 0 && !applied[version] {
		if !r.gdb.WithContext(ctx).Migrator().HasTable(r.historyTable) {
			if err := r.store.CreateVersionTable(ctx, r.sqlDB); err != nil {
				return fmt.Errorf("create %s: %w", r.historyTable, err)
			}
		}
		if err := r.store.Insert(ctx, r.sqlDB, database.InsertRequest{Version: version}); err != nil {
			return fmt.Errorf("record version %d: %w", version, err)
		}
	}
	if err := writeMarker(r.gdb.WithContext(ctx), version, name, false, r.now()); err != nil {
		return err
	}
	r.log.Warn().Int64("version", version).Str("migration", name).Msg("version marker repaired")
	return nil
}

// Quiesce fails with ErrMigrationInProgress while a migration is running or
// left the marker dirty. On postgres the advisory lock is held until release
// is called, so no migration can start in the meantime.
func (r *Runner) Quiesce(ctx context.Context) (release func(), err error) {
	marker, err := ReadMarker(ctx, r.gdb)
	if err != nil {
		return nil, err
	}
	if marker.Dirty {
		return nil, fmt.Errorf("%w: %s left the version marker dirty", ErrMigrationInProgress, marker.ID())
	}
	if r.driver != db.Postgres {
		return func() {}, nil
	}

	locker, err := lock.NewPostgresSessionLocker(lock.WithLockID(lock.DefaultLockID), lock.WithLockTimeout(1, 1))
	if err != nil {
		return nil, err
	}
	conn, err := r.sqlDB.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if err := locker.SessionLock(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrMigrationInProgress, err)
	}
	return func() {
		if err := locker.SessionUnlock(context.Background(), conn); err != nil {
			r.log.Error().Err(err).Msg("release migration lock")
		}
		_ = conn.Close()
	}, nil
}

func (r *Runner) nameOf(version int64) string {
	if i, ok := r.index[version]; ok {
		return r.migrations[i].Name
	}
	return ""
}

func (r *Runner) results(res []*goose.MigrationResult) []Result {
	out := make([]Result, 0, len(res))
	for _, mr := range res {
		if mr == nil || mr.Source == nil {
			continue
		}
		out = append(out, Result{
			Version:   mr.Source.Version,
			Name:      r.nameOf(mr.Source.Version),
			Direction: Direction(mr.Direction),
			Duration:  mr.Duration,
		})
	}
	return out
}

// unwrap surfaces the failing migration from goose's PartialError.
func (r *Runner) unwrap(err error) error {
	if err == nil {
		return nil
	}
	var ps *PartialState
	if errors.As(err, &ps) {
		return ps
	}
	var pe *goose.PartialError
	if errors.As(err, &pe) && pe.Failed != nil && pe.Failed.Source != nil {
		v := pe.Failed.Source.Version
		return &MigrationError{Version: v, Name: r.nameOf(v), Direction: Direction(pe.Failed.Direction), Err: pe.Err}
	}
	return err
}
