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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/settingsd/internal/apikey"
	"github.com/cardinalhq/settingsd/internal/settings"
)

var (
	tenantA = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	tenantB = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")
	aliceID = uuid.MustParse("aaaaaaaa-0000-0000-0000-0000000000a1")
	bobID   = uuid.MustParse("aaaaaaaa-0000-0000-0000-0000000000b2")
)

type stubKeys map[string]*settings.Principal

func (s stubKeys) Authenticate(_ context.Context, key string) (*settings.Principal, error) {
	if key == "broken" {
		return nil, errors.New("database unavailable")
	}
	p, ok := s[key]
	if !ok {
		return nil, apikey.ErrInvalidAPIKey
	}
	copied := *p
	return &copied, nil
}

var testKeys = stubKeys{
	"admin-key":  {ID: "admin", Name: "admin", Roles: []string{settings.RoleAdmin}},
	"tadmin-key": {ID: "tadmin", Name: "tadmin", TenantID: tenantA, UserID: bobID, Roles: []string{settings.RoleTenantAdmin}},
	"alice-key":  {ID: "alice", Name: "alice", TenantID: tenantA, UserID: aliceID},
}

func testDefinitions() []settings.Definition {
	return []settings.Definition{
		{Key: "site.name", Type: settings.TypeGlobal, Default: "settingsd", Rules: "required,min=1,max=50", Group: "site"},
		{Key: "site.max_upload_mb", Type: settings.TypeGlobal, Default: 10, Rules: "min=1,max=1000", Group: "site"},
		{Key: "mail.password", Type: settings.TypeGlobal, Default: "", Encrypted: true, Group: "mail"},
		{
			Key: "user.theme", Type: settings.TypeUser, Default: "light", Group: "preferences",
			Field: settings.Field{Type: settings.FieldSelect, Options: []settings.Option{{Value: "light"}, {Value: "dark"}}},
		},
		{Key: "user.page_size", Type: settings.TypeUser, Default: 25, Rules: "min=10,max=200", Group: "preferences"},
		{Key: "tenant.display_name", Type: settings.TypeTenant, Default: "", Rules: "max=40", Group: "tenant"},
	}
}

type fixture struct {
	srv   *httptest.Server
	mgr   *settings.Manager
	store *settings.MemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := settings.NewRegistry()
	require.NoError(t, reg.Register(testDefinitions()...))
	store := settings.NewMemoryRepository()
	mgr := settings.NewManager(reg, settings.Standard(reg, store, settings.StandardOptions{}))
	srv := httptest.NewServer(NewServer(mgr, testKeys, nil).Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, mgr: mgr, store: store}
}

func (f *fixture) do(t *testing.T, method, path, key, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/settings", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, ErrUnauthorized, decode[APIError](t, body).Code)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/settings", "nope", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/settings", "broken", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/api/v1/settings", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer alice-key")
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health endpoints need no key")
}

func TestGetAndSetGlobal(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/settings/site.name", "alice-key", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[settings.Value](t, body)
	assert.Equal(t, "settingsd", v.Value)
	assert.Equal(t, settings.SourceDefinition, v.Source)

	resp, body = f.do(t, http.MethodPut, "/api/v1/settings/site.name", "alice-key", `{"value":"Acme"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(body))

	resp, body = f.do(t, http.MethodPut, "/api/v1/settings/site.name", "admin-key", `{"value":"Acme"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	v = decode[settings.Value](t, body)
	assert.Equal(t, "Acme", v.Value)
	assert.Equal(t, settings.SourceStored, v.Source)

	resp, _ = f.do(t, http.MethodDelete, "/api/v1/settings/site.name", "admin-key", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body = f.do(t, http.MethodGet, "/api/v1/settings/site.name", "alice-key", "")
	assert.Equal(t, "settingsd", decode[settings.Value](t, body).Value)
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   APIErrorCode
	}{
		{"unknown setting", http.MethodGet, "/api/v1/settings/nope.nothing", "", http.StatusNotFound, ErrUnknownSetting},
		{"scope mismatch", http.MethodGet, "/api/v1/settings/site.name?type=tenant&tenant=" + tenantA.String(), "", http.StatusBadRequest, ErrScopeMismatch},
		{"bad json", http.MethodPut, "/api/v1/settings/site.name", `{"value":`, http.StatusBadRequest, InvalidJSON},
		{"missing value", http.MethodPut, "/api/v1/settings/site.name", `{}`, http.StatusBadRequest, ErrBadRequest},
		{"empty body", http.MethodPut, "/api/v1/settings/site.name", "", http.StatusBadRequest, ErrBadRequest},
		{"bad type", http.MethodGet, "/api/v1/settings?type=planet", "", http.StatusBadRequest, ErrBadRequest},
		{"bad tenant", http.MethodGet, "/api/v1/settings?type=tenant&tenant=xyz", "", http.StatusBadRequest, ErrBadRequest},
		{"global with tenant", http.MethodGet, "/api/v1/settings?tenant=" + tenantA.String(), "", http.StatusBadRequest, ErrBadRequest},
		{"validation", http.MethodPut, "/api/v1/settings/site.max_upload_mb", `{"value":5000}`, http.StatusUnprocessableEntity, ErrValidationFailed},
		{"encryption not configured", http.MethodPut, "/api/v1/settings/mail.password", `{"value":"hunter2"}`, http.StatusInternalServerError, ErrInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, tt.method, tt.path, "admin-key", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			apiErr := decode[APIError](t, body)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestValidationErrorBody(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/v1/settings", "admin-key",
		`{"values":{"site.name":"","site.max_upload_mb":0}}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	apiErr := decode[APIError](t, body)
	assert.Contains(t, apiErr.Errors, "site.name")
	assert.Contains(t, apiErr.Errors, "site.max_upload_mb")

	_, body = f.do(t, http.MethodGet, "/api/v1/settings/site.max_upload_mb", "admin-key", "")
	assert.Equal(t, float64(10), decode[settings.Value](t, body).Value, "nothing written")
}

func TestSetMany(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/v1/settings", "admin-key",
		`{"values":{"site.name":"Acme","site.max_upload_mb":50}}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	_, body = f.do(t, http.MethodGet, "/api/v1/settings", "alice-key", "")
	list := decode[listResponse](t, body)
	byKey := map[string]any{}
	for _, v := range list.Values {
		byKey[v.Key] = v.Value
	}
	assert.Equal(t, "Acme", byKey["site.name"])
	assert.Equal(t, float64(50), byKey["site.max_upload_mb"])
	assert.NotContains(t, byKey, "user.theme")

	resp, _ = f.do(t, http.MethodPost, "/api/v1/settings", "admin-key",
		`{"values":{"site.name":"Acme","user.theme":"dark"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/settings", "admin-key", `{"values":{"nope":1}}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/settings", "admin-key", `{"values":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUserSettingsFallback(t *testing.T) {
	f := newFixture(t)

	// Tenant admin sets the tenant-wide default for users.
	resp, body := f.do(t, http.MethodPut, "/api/v1/settings/user.theme?default=true&tenant="+tenantA.String(), "tadmin-key", `{"value":"dark"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	_, body = f.do(t, http.MethodGet, "/api/v1/settings/user.theme", "alice-key", "")
	v := decode[settings.Value](t, body)
	assert.Equal(t, "dark", v.Value)
	assert.Equal(t, settings.SourceTenantDefault, v.Source)

	resp, _ = f.do(t, http.MethodPut, "/api/v1/settings/user.theme", "alice-key", `{"value":"light"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, body = f.do(t, http.MethodGet, "/api/v1/settings/user.theme", "alice-key", "")
	assert.Equal(t, settings.SourceStored, decode[settings.Value](t, body).Source)

	// Alice cannot touch Bob's settings or the system default.
	resp, _ = f.do(t, http.MethodPut, "/api/v1/settings/user.theme?user="+bobID.String(), "alice-key", `{"value":"dark"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPut, "/api/v1/settings/user.theme?default=true", "alice-key", `{"value":"dark"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = f.do(t, http.MethodPut, "/api/v1/settings/user.theme", "alice-key", `{"value":"purple"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
}

func TestTenantSettings(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPut, "/api/v1/settings/tenant.display_name", "tadmin-key", `{"value":"Team A"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	_, body = f.do(t, http.MethodGet, "/api/v1/settings/tenant.display_name", "alice-key", "")
	assert.Equal(t, "Team A", decode[settings.Value](t, body).Value)

	resp, _ = f.do(t, http.MethodPut, "/api/v1/settings/tenant.display_name", "alice-key", `{"value":"Mine"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/settings/tenant.display_name?tenant="+tenantB.String(), "alice-key", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/settings/tenant.display_name", "admin-key", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "admin has no tenant of its own")
}

func TestForm(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/settings/form?type=user", "alice-key", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	form := decode[formResponse](t, body)
	require.Len(t, form.Groups, 1)
	assert.Equal(t, "preferences", form.Groups[0].Name)
	require.Len(t, form.Groups[0].Fields, 2)
	assert.Equal(t, settings.FieldSelect, form.Groups[0].Fields[1].Type)
	assert.Equal(t, aliceID, form.Scope.UserID)
}

func TestDefinitions(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodGet, "/api/v1/definitions", "alice-key", "")
	all := decode[definitionsResponse](t, body)
	assert.Len(t, all.Definitions, len(testDefinitions()))

	_, body = f.do(t, http.MethodGet, "/api/v1/definitions?type=tenant", "alice-key", "")
	tenant := decode[definitionsResponse](t, body)
	require.Len(t, tenant.Definitions, 1)
	assert.Equal(t, "tenant.display_name", tenant.Definitions[0].Key)

	resp, _ := f.do(t, http.MethodGet, "/api/v1/definitions?type=x", "alice-key", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
