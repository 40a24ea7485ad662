package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"invoice-system/internal/platform/database/migrations"
	"invoice-system/internal/retry"
)

var pingPolicy = retry.Policy{
	Attempts:  6,
	BaseDelay: 500 * time.Millisecond,
	MaxDelay:  5 * time.Second,
}

// NewPostgres opens a pgx-backed pool and waits for the server to answer,
// logging every failed ping.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	policy := pingPolicy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("postgres not ready",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", policy.Attempts),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)
	}
	err = policy.Do(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
