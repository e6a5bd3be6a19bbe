// Package dbmigrate applies the embedded goose migrations to a database/sql handle.
package dbmigrate

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/legacy-import/migrations"
)

// goose keeps its settings in package globals.
var mu sync.Mutex

func configure(table string, logger logrus.FieldLogger) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	if table != "" {
		goose.SetTableName(table)
	}
	if logger != nil {
		goose.SetLogger(logger)
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, table string, logger logrus.FieldLogger) error {
	mu.Lock()
	defer mu.Unlock()
	if err := configure(table, logger); err != nil {
		return err
	}
	return errors.Wrap(goose.UpContext(ctx, db, "."), "apply migrations")
}

// Status logs the state of every migration through logger.
func Status(ctx context.Context, db *sql.DB, table string, logger logrus.FieldLogger) error {
	mu.Lock()
	defer mu.Unlock()
	if err := configure(table, logger); err != nil {
		return err
	}
	return errors.Wrap(goose.StatusContext(ctx, db, "."), "migration status")
}

// Version returns the current schema version.
func Version(ctx context.Context, db *sql.DB, table string) (int64, error) {
	mu.Lock()
	defer mu.Unlock()
	if err := configure(table, nil); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	return v, errors.Wrap(err, "read schema version")
}
