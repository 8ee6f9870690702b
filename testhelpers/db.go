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

package testhelpers

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	settingsdbmigrations "github.com/cardinalhq/settingsd/settingsdb/migrations"
)

// SetupTestSettingsDB creates a clean test settings database with migrations applied.
// Returns a connection pool and registers cleanup with t.Cleanup.
func SetupTestSettingsDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	dbName := fmt.Sprintf("test_settingsdb_%d_%d", time.Now().Unix(), rand.Intn(10000))

	host := getEnvOrDefault("SETTINGSDB_HOST", "localhost")
	port := getEnvOrDefault("SETTINGSDB_PORT", "5432")
	user := getEnvOrDefault("SETTINGSDB_USER", os.Getenv("USER"))
	baseDB := getEnvOrDefault("SETTINGSDB_DBNAME", "testing_settingsdb")
	password := os.Getenv("SETTINGSDB_PASSWORD")

	basePool, err := pgxpool.New(ctx, connString(user, password, host, port, baseDB))
	if err != nil {
		t.Fatalf("Failed to connect to base settingsdb: %v", err)
	}

	if _, err := basePool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		basePool.Close()
		t.Fatalf("Failed to create test settingsdb %s: %v", dbName, err)
	}

	testPool, err := pgxpool.New(ctx, connString(user, password, host, port, dbName))
	if err != nil {
		t.Fatalf("Failed to connect to test settingsdb: %v", err)
	}

	if err := settingsdbmigrations.RunMigrationsUp(ctx, testPool); err != nil {
		testPool.Close()
		t.Fatalf("Failed to run settingsdb migrations: %v", err)
	}

	t.Cleanup(func() {
		testPool.Close()

		_, err := basePool.Exec(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName))
		if err != nil {
			slog.Error("Failed to drop test settingsdb", slog.String("dbName", dbName), slog.Any("error", err))
		}

		basePool.Close()
	})

	return testPool
}

func connString(user, password, host, port, dbName string) string {
	if password != "" {
		return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbName)
	}
	return fmt.Sprintf("postgresql://%s@%s:%s/%s", user, host, port, dbName)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
