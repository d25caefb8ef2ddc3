package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/jikku/coffeehouse/internal/config"
)

// DB wraps the connection pool together with the engine it talks to
type DB struct {
	*sqlx.DB
	engine string
	logger *zap.Logger
}

// Open connects to the configured database and runs migrations
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	if cfg.Engine == config.EngineSQLite {
		dir := filepath.Dir(config.ExpandPath(cfg.Path))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sqlx.ConnectContext(ctx, cfg.Engine, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := New(conn, cfg.Engine, logger)
	if err := db.init(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("Database initialized", zap.String("engine", cfg.Engine))
	return db, nil
}

// New wraps an existing connection. The caller is responsible for migrations.
func New(conn *sqlx.DB, engine string, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{DB: conn, engine: engine, logger: logger}
}

func (db *DB) init(ctx context.Context) error {
	if db.engine == config.EngineSQLite {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)

		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Migrate creates the tables used by the application if they are missing
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations(db.engine) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	db.logger.Debug("Migrations completed")
	return nil
}

// Engine returns the driver name in use
func (db *DB) Engine() string {
	return db.engine
}

// HealthCheck verifies the database connection is working
func (db *DB) HealthCheck(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return db.PingContext(ctx)
}

func migrations(engine string) []string {
	if engine == config.EnginePostgres {
		return []string{
			`CREATE TABLE IF NOT EXISTS visits (
				id BIGSERIAL PRIMARY KEY,
				store_id TEXT NOT NULL,
				path TEXT NOT NULL,
				hours TEXT NOT NULL DEFAULT '',
				map TEXT NOT NULL DEFAULT '',
				user_agent TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_visits_store_id ON visits (store_id)`,
			`CREATE TABLE IF NOT EXISTS certificates (
				key TEXT PRIMARY KEY,
				value BYTEA NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
		}
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			store_id TEXT NOT NULL,
			path TEXT NOT NULL,
			hours TEXT NOT NULL DEFAULT '',
			map TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_store_id ON visits (store_id)`,
		`CREATE TABLE IF NOT EXISTS certificates (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}
