// Package postgres opens the shared database/sql pool over the pgx driver
// and applies the schemas the stores need.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"carehub/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

// Open connects and pings. The caller owns the returned pool.
func Open(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate executes each schema statement block in order. Blocks must be
// idempotent (CREATE ... IF NOT EXISTS).
func Migrate(ctx context.Context, db *sql.DB, schemas ...string) error {
	for i, schema := range schemas {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("apply schema %d: %w", i, err)
		}
	}
	return nil
}
