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

package dbopen

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/settingsd/migrations"
)

func clearEnv(t *testing.T, prefix string) {
	for _, name := range []string{"URL", "HOST", "PORT", "USER", "PASSWORD", "DBNAME", "SSLMODE"} {
		t.Setenv(prefix+"_"+name, "")
	}
	t.Setenv("OTEL_SERVICE_NAME", "")
}

func TestGetDatabaseURLFromEnv_URLWins(t *testing.T) {
	clearEnv(t, "TESTDB")
	t.Setenv("TESTDB_URL", "postgresql://example/db")
	t.Setenv("TESTDB_HOST", "ignored")

	got, err := GetDatabaseURLFromEnv("TESTDB")
	require.NoError(t, err)
	assert.Equal(t, "postgresql://example/db", got)
}

func TestGetDatabaseURLFromEnv_Missing(t *testing.T) {
	clearEnv(t, "TESTDB")

	_, err := GetDatabaseURLFromEnv("TESTDB_")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TESTDB_HOST")
	assert.Contains(t, err.Error(), "TESTDB_DBNAME")
}

func TestGetDatabaseURLFromEnv_Assembled(t *testing.T) {
	clearEnv(t, "TESTDB")
	t.Setenv("TESTDB_HOST", "db.internal")
	t.Setenv("TESTDB_DBNAME", "settings")
	t.Setenv("TESTDB_USER", "alice")
	t.Setenv("TESTDB_PASSWORD", "s3cret")
	t.Setenv("TESTDB_SSLMODE", "require")
	t.Setenv("OTEL_SERVICE_NAME", "settings api/eu")

	got, err := GetDatabaseURLFromEnv("TESTDB")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", u.Scheme)
	assert.Equal(t, "db.internal:5432", u.Host)
	assert.Equal(t, "/settings", u.Path)
	assert.Equal(t, "alice", u.User.Username())
	pass, _ := u.User.Password()
	assert.Equal(t, "s3cret", pass)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
	assert.Equal(t, "settings_api_eu", u.Query().Get("application_name"))
}

func TestApplicationNameTruncated(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", strings.Repeat("x", 100))
	assert.Len(t, applicationName(), 63)
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want migrations.CheckMode
	}{
		{"Skip", SkipMigrationCheck(), migrations.CheckModeSkip},
		{"Warn", WarnOnMigrationMismatch(), migrations.CheckModeWarn},
		{"Wait", WaitForMigrations(), migrations.CheckModeWait},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotEmpty(t, tt.opts.MigrationCheckOptions)
			resolved := migrations.DefaultCheckOptions()
			for _, o := range tt.opts.MigrationCheckOptions {
				o(&resolved)
			}
			assert.Equal(t, tt.want, resolved.Mode)
		})
	}
}
