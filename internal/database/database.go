// FilePath: internal/database/database.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/itsatony/hydrohub/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour behind a connection
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB is an interface that both SQLite and PostgreSQL connections implement
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetDB() *sqlx.DB
	Dialect() Dialect
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Rebind(query string) string
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Repository represents common repository operations
type Repository interface {
	BeginTx(ctx context.Context) (Transaction, error)
}

// SQLDB wraps a sqlx connection together with its dialect
type SQLDB struct {
	db      *sqlx.DB
	dialect Dialect
}

// Wrap adapts an existing sqlx handle, mostly useful for tests
func Wrap(db *sqlx.DB, dialect Dialect) *SQLDB {
	return &SQLDB{db: db, dialect: dialect}
}

// Open connects to the database selected by cfg.Driver
func Open(cfg config.DatabaseConfig) (DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgresDB(cfg.Postgres)
	case config.DriverSQLite, "":
		return NewSQLiteDB(cfg.SQLite)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg config.PostgresConfig) (*SQLDB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}

	nuts.L.Infof("[PostgresDB] Connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &SQLDB{db: db, dialect: DialectPostgres}, nil
}

// NewSQLiteDB opens (and creates) an embedded SQLite database.
// SQLite allows one writer, so the pool is pinned to a single connection.
func NewSQLiteDB(cfg config.SQLiteConfig) (*SQLDB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating sqlite directory: %w", err)
		}
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cfg.Path, busy.Milliseconds())

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening SQLite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to SQLite: %w", err)
	}

	nuts.L.Infof("[SQLiteDB] Opened %s", cfg.Path)
	return &SQLDB{db: db, dialect: DialectSQLite}, nil
}

func (d *SQLDB) Close() error {
	return d.db.Close()
}

func (d *SQLDB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *SQLDB) GetDB() *sqlx.DB {
	return d.db
}

func (d *SQLDB) Dialect() Dialect {
	return d.dialect
}
