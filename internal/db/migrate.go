package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quintalabs/storefront/internal/db/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded schema migrations. Goose needs a
// database/sql handle, so a short-lived one is opened next to the pool.
func RunMigrations(ctx context.Context, dbURL string) error {
	sqlDB, err := sql.Open("pgx", dbURL)

	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	defer sqlDB.Close()

	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
