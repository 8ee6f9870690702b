// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package migrations

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Source describes one embedded migration set and the table that tracks it.
type Source struct {
	Name           string
	Files          fs.FS
	MigrationTable string
}

// LatestVersion returns the highest version found among "<version>_<name>.up.sql" files.
func LatestVersion(files fs.FS) (uint, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var maxVersion uint
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		version, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		if uint(version) > maxVersion {
			maxVersion = uint(version)
		}
	}

	if maxVersion == 0 {
		return 0, errors.New("no valid migration files found")
	}
	return maxVersion, nil
}

func newMigrate(pool *pgxpool.Pool, src Source) (*migrate.Migrate, func(), error) {
	sourceDriver, err := iofs.New(src.Files, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	dbDriver, err := pgx.WithInstance(sqlDB, &pgx.Config{
		MigrationsTable: src.MigrationTable,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to create pgx driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		_ = dbDriver.Close()
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	cleanup := func() {
		_ = dbDriver.Close()
		_ = sqlDB.Close()
	}
	return m, cleanup, nil
}

// Up applies every pending up migration.
func Up(ctx context.Context, pool *pgxpool.Pool, src Source) error {
	m, cleanup, err := newMigrate(pool, src)
	if err != nil {
		return err
	}
	defer cleanup()

	_, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("%s migration is dirty, please fix it before proceeding", src.Name)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	slog.Info("Migrations applied", slog.String("database", src.Name))
	return nil
}

// CurrentVersion reports the applied schema version. A database without any
// applied migration reports version 0.
func CurrentVersion(ctx context.Context, pool *pgxpool.Pool, src Source) (uint, bool, error) {
	m, cleanup, err := newMigrate(pool, src)
	if err != nil {
		return 0, false, err
	}
	defer cleanup()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, dirty, nil
}

// CheckVersion compares the applied schema version with the embedded one
// according to the resolved options.
func CheckVersion(ctx context.Context, pool *pgxpool.Pool, src Source, opts CheckOptions) error {
	if opts.Mode == CheckModeSkip {
		slog.Debug("Migration version checking disabled", slog.String("database", src.Name))
		return nil
	}

	expected, err := LatestVersion(src.Files)
	if err != nil {
		return fmt.Errorf("failed to extract expected migration version for %s: %w", src.Name, err)
	}

	slog.Info("Checking migration version",
		slog.String("database", src.Name),
		slog.Uint64("expected_version", uint64(expected)),
		slog.String("mode", opts.Mode.String()))

	deadline := time.Now().Add(opts.Timeout)
	ticker := time.NewTicker(opts.RetryInterval)
	defer ticker.Stop()

	for {
		current, dirty, err := CurrentVersion(ctx, pool, src)
		if err != nil {
			return fmt.Errorf("failed to get current migration version for %s: %w", src.Name, err)
		}

		if dirty && !opts.AllowDirty {
			return fmt.Errorf("database %s migration is in dirty state, please fix before proceeding", src.Name)
		}

		if current == expected {
			slog.Info("Migration version check passed",
				slog.String("database", src.Name),
				slog.Uint64("version", uint64(current)))
			return nil
		}

		if current > expected {
			if opts.Mode == CheckModeWarn {
				slog.Warn("Database schema is newer than this binary",
					slog.String("database", src.Name),
					slog.Uint64("current_version", uint64(current)),
					slog.Uint64("expected_version", uint64(expected)))
				return nil
			}
			return fmt.Errorf("database %s version %d is newer than expected version %d - you may need to update the application",
				src.Name, current, expected)
		}

		if opts.Mode == CheckModeWarn {
			slog.Warn("Database schema is behind this binary",
				slog.String("database", src.Name),
				slog.Uint64("current_version", uint64(current)),
				slog.Uint64("expected_version", uint64(expected)))
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for %s migration to complete: current version %d, expected %d",
				src.Name, current, expected)
		}

		slog.Info("Waiting for migrations to complete",
			slog.String("database", src.Name),
			slog.Uint64("current_version", uint64(current)),
			slog.Uint64("expected_version", uint64(expected)),
			slog.Duration("remaining_timeout", time.Until(deadline)))

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for %s migrations", src.Name)
		case <-ticker.C:
		}
	}
}
