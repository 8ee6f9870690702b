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

// Package migrations embeds the settingsdb schema.
package migrations

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/settingsd/migrations"
)

//go:embed *.sql
var migrationFiles embed.FS

// Source describes the settingsdb migration set.
var Source = migrations.Source{
	Name:           "settingsdb",
	Files:          migrationFiles,
	MigrationTable: "gomigrate_settingsdb",
}

// RunMigrationsUp applies all up migrations using embedded migration files.
func RunMigrationsUp(ctx context.Context, pool *pgxpool.Pool) error {
	return migrations.Up(ctx, pool, Source)
}

// CheckVersion verifies the settingsdb schema version.
func CheckVersion(ctx context.Context, pool *pgxpool.Pool, opts ...migrations.CheckOption) error {
	return migrations.CheckVersion(ctx, pool, Source, migrations.ResolveCheckOptions("SETTINGSDB", opts...))
}
