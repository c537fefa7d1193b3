package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/glebarez/sqlite"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/multierr"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DefaultTimeout is used when executing queries to avoid leaking resources on hung calls.
	DefaultTimeout = 5 * time.Second
)

// Driver names a supported relational store.
type Driver string

const (
	Postgres Driver = "postgres"
	MySQL    Driver = "mysql"
	SQLite   Driver = "sqlite"
)

// ParseDriver validates a driver name.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case Postgres, MySQL, SQLite:
		return d, nil
	case "postgresql", "pgx":
		return Postgres, nil
	case "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported db driver %q", s)
}

// TransactionalDDL reports whether schema changes roll back with the surrounding transaction.
func (d Driver) TransactionalDDL() bool {
	return d == Postgres || d == SQLite
}

// Config holds connection settings. Zero pool values fall back to the defaults below.
type Config struct {
	Driver          Driver
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LogLevel        logger.LogLevel
}

func (c Config) withDefaults() Config {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 30 * time.Minute
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.LogLevel == 0 {
		c.LogLevel = logger.Warn
	}
	return c
}

// Handle bundles the gorm session with the underlying database/sql handle.
type Handle struct {
	ORM    *gorm.DB
	SQL    *sql.DB
	Driver Driver

	pool *pgxpool.Pool
}

// Close releases the database/sql handle and, on postgres, the pgx pool behind it.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	var err error
	if h.SQL != nil {
		err = multierr.Append(err, h.SQL.Close())
	}
	if h.pool != nil {
		h.pool.Close()
	}
	return err
}

// OpenPool creates a new pgx connection pool using the provided DSN.
func OpenPool(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	// Prefer simple protocol for compatibility with tools like goose.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// Connect opens a gorm session for the configured driver.
func Connect(ctx context.Context, cfg Config) (*Handle, error) {
	if cfg.DSN == "" {
		return nil, errors.New("dsn is required")
	}
	cfg = cfg.withDefaults()

	h := &Handle{Driver: cfg.Driver}
	var dialector gorm.Dialector
	switch cfg.Driver {
	case Postgres:
		pool, err := OpenPool(ctx, cfg.DSN, cfg.MaxOpenConns)
		if err != nil {
			return nil, fmt.Errorf("open pgx pool: %w", err)
		}
		h.pool = pool
		dialector = postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)})
	case MySQL:
		dsn, err := mysqlDSN(cfg.DSN)
		if err != nil {
			return nil, err
		}
		dialector = mysql.Open(dsn)
	case SQLite:
		dialector = sqlite.Open(SQLiteDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
	})
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	h.ORM = gdb

	sqlDB, err := gdb.DB()
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	h.SQL = sqlDB

	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := Ping(ctx, sqlDB); err != nil {
		_ = h.Close()
		return nil, err
	}
	return h, nil
}

// mysqlDSN forces the options the migration runner and seed loader depend on.
func mysqlDSN(dsn string) (string, error) {
	c, err := mysqldrv.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	c.ParseTime = true
	return c.FormatDSN(), nil
}

// SQLiteDSN enables foreign key enforcement and a busy timeout unless the DSN sets them.
func SQLiteDSN(dsn string) string {
	var extra []string
	if !strings.Contains(dsn, "foreign_keys") {
		extra = append(extra, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		extra = append(extra, "_pragma=busy_timeout(5000)")
	}
	if len(extra) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(extra, "&")
}

// DriverOf reports the driver behind a gorm session.
func DriverOf(gdb *gorm.DB) Driver {
	switch gdb.Dialector.Name() {
	case "postgres":
		return Postgres
	case "mysql":
		return MySQL
	default:
		return SQLite
	}
}

// WithConn returns a session on gdb that runs its statements on conn, typically a
// *sql.Tx or *sql.Conn handed out by the migration engine. Registered callbacks are kept.
func WithConn(ctx context.Context, gdb *gorm.DB, conn gorm.ConnPool) *gorm.DB {
	tx := gdb.Session(&gorm.Session{Context: ctx, NewDB: true, SkipDefaultTransaction: true})
	tx.Statement.ConnPool = conn
	return tx
}

// Rebind rewrites ? placeholders to $n for postgres. Quoted literals are left alone.
func Rebind(driver Driver, query string) string {
	if driver != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteString("$" + strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Exec executes a statement with the default timeout applied.
func Exec(ctx context.Context, gdb *gorm.DB, query string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	res, err := gdb.Statement.ConnPool.ExecContext(ctx, Rebind(DriverOf(gdb), query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Get retrieves a single row into dest with the default timeout applied.
func Get(ctx context.Context, gdb *gorm.DB, dest any, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	return sqlscan.Get(ctx, gdb.Statement.ConnPool, dest, Rebind(DriverOf(gdb), query), args...)
}

// Select retrieves multiple rows into dest with the default timeout applied.
func Select(ctx context.Context, gdb *gorm.DB, dest any, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	return sqlscan.Select(ctx, gdb.Statement.ConnPool, dest, Rebind(DriverOf(gdb), query), args...)
}

// WithTimeout applies a custom timeout when executing operations using the provided function.
func WithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// Ping ensures the database is reachable with the default timeout.
func Ping(ctx context.Context, sqlDB *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// IsNoRows reports whether err means a single-row query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || sqlscan.NotFound(err) || errors.Is(err, gorm.ErrRecordNotFound)
}
