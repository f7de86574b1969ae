package database

import (
	"context"
	"database/sql"
	"fmt"

	"isp-tracker/pkg/config"
	"isp-tracker/pkg/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type DB struct {
	*bun.DB
}

// NewDB opens a connection scoped to a single operation. Callers must
// Close; the collector deliberately does not pool or reuse connections
// across cycles.
func NewDB(cfg *config.Config) (*DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	return &DB{db}, nil
}

// InitSchema creates the tracker schema and result table if they don't exist
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS tracker"); err != nil {
		return fmt.Errorf("failed to create schema: %v", err)
	}

	_, err := db.NewCreateTable().
		Model((*models.SpeedResult)(nil)).
		IfNotExists().
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	return nil
}

// InsertSpeedResult appends one measurement row inside a transaction.
func (db *DB) InsertSpeedResult(ctx context.Context, result *models.SpeedResult) error {
	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(result).
			Exec(ctx)
		return err
	})

	if err != nil {
		return fmt.Errorf("error inserting speed result: %v", err)
	}

	return nil
}

// RecentResults returns the newest measurements, most recent first.
func (db *DB) RecentResults(ctx context.Context, limit int) ([]models.SpeedResult, error) {
	var results []models.SpeedResult
	err := db.NewSelect().
		Model(&results).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("error getting recent results: %v", err)
	}

	return results, nil
}
