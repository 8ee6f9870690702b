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

// Package dbopen builds PostgreSQL connection pools from environment
// variables.
package dbopen

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgx-contrib/pgxotel"

	"github.com/cardinalhq/settingsd/migrations"
)

var ErrDatabaseNotConfigured = errors.New("database connection configuration is unavailable")

const defaultApplicationName = "settingsd"

// GetDatabaseURLFromEnv returns PREFIX_URL when set. Otherwise it assembles a
// postgresql:// URL from PREFIX_HOST and PREFIX_DBNAME (required) and
// PREFIX_PORT, PREFIX_USER, PREFIX_PASSWORD, PREFIX_SSLMODE (optional).
func GetDatabaseURLFromEnv(prefix string) (string, error) {
	prefix = strings.TrimSuffix(prefix, "_") + "_"
	env := func(name string) string { return os.Getenv(prefix + name) }

	if urlStr := env("URL"); urlStr != "" {
		return urlStr, nil
	}

	host, dbname := env("HOST"), env("DBNAME")
	var missing []string
	if host == "" {
		missing = append(missing, prefix+"HOST")
	}
	if dbname == "" {
		missing = append(missing, prefix+"DBNAME")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	port := env("PORT")
	if port == "" {
		port = "5432"
	}

	u := &url.URL{
		Scheme: "postgresql",
		Host:   host + ":" + port,
		Path:   dbname,
	}
	if user := env("USER"); user != "" {
		if pass := env("PASSWORD"); pass != "" {
			u.User = url.UserPassword(user, pass)
		} else {
			u.User = url.User(user)
		}
	}

	q := u.Query()
	if sslmode := env("SSLMODE"); sslmode != "" {
		q.Set("sslmode", sslmode)
	}
	q.Set("application_name", applicationName())
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// applicationName derives a postgres-safe application_name from
// OTEL_SERVICE_NAME, falling back to the binary name.
func applicationName() string {
	appName := os.Getenv("OTEL_SERVICE_NAME")
	if appName == "" {
		return defaultApplicationName
	}
	appName = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, appName)
	if len(appName) > 63 {
		appName = appName[:63]
	}
	return appName
}

// NewConnectionPool opens a pgx pool with query tracing named after the database.
func NewConnectionPool(ctx context.Context, dbName, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}

	cfg.ConnConfig.Tracer = &pgxotel.QueryTracer{
		Name: dbName,
	}

	return pgxpool.NewWithConfig(ctx, cfg)
}

// Options tune how a connection is opened.
type Options struct {
	MigrationCheckOptions []migrations.CheckOption
}

// SkipMigrationCheck opens the database without checking the schema version.
func SkipMigrationCheck() Options {
	return Options{MigrationCheckOptions: []migrations.CheckOption{
		migrations.WithCheckMode(migrations.CheckModeSkip),
	}}
}

// WarnOnMigrationMismatch logs a schema mismatch instead of failing.
// CLI tools use this so they keep working against a newer or older schema.
func WarnOnMigrationMismatch() Options {
	return Options{MigrationCheckOptions: []migrations.CheckOption{
		migrations.WithCheckMode(migrations.CheckModeWarn),
	}}
}

// WaitForMigrations blocks until the schema reaches the embedded version.
func WaitForMigrations() Options {
	return Options{MigrationCheckOptions: []migrations.CheckOption{
		migrations.WithCheckMode(migrations.CheckModeWait),
	}}
}
