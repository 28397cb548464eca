// Package db applies the archive schema and bridges archive notifications
// between replicas.
//
// Migration files live in internal/db/migrations/ and are embedded via
// //go:embed. RunMigrations applies all pending migrations with goose on
// startup when a database is configured.
package db

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/dbpool"
)

// RunMigrations applies every pending goose migration in fsys through the
// archive pool and returns the resulting schema version.
func RunMigrations(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, fsys fs.FS) (int64, error) {
	sqlDB := pool.SQLDB()
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return 0, fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("applying migrations: %w", err)
	}

	for _, r := range results {
		log.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration.String(),
		}).Info("archive.migrated")
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	log.WithFields(logrus.Fields{
		"schema_version": version,
		"applied":        len(results),
	}).Debug("archive.schema")

	return version, nil
}
