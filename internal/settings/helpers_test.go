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

package settings

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// mockRepository counts calls to the wrapped MemoryRepository.
type mockRepository struct {
	*MemoryRepository
	getCallCount     atomic.Int32
	setCallCount     atomic.Int32
	setManyCallCount atomic.Int32
	getErr           error
	setErr           error
}

func newMockRepository() *mockRepository {
	return &mockRepository{MemoryRepository: NewMemoryRepository()}
}

func (m *mockRepository) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	m.getCallCount.Add(1)
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.MemoryRepository.Get(ctx, key)
}

func (m *mockRepository) Set(ctx context.Context, key Key, value json.RawMessage) error {
	m.setCallCount.Add(1)
	if m.setErr != nil {
		return m.setErr
	}
	return m.MemoryRepository.Set(ctx, key, value)
}

func (m *mockRepository) SetMany(ctx context.Context, values []KeyValue) error {
	m.setManyCallCount.Add(1)
	if m.setErr != nil {
		return m.setErr
	}
	return m.MemoryRepository.SetMany(ctx, values)
}

// mapCache is a Cache without expiry.
type mapCache struct {
	mu            sync.Mutex
	entries       map[Key]CacheEntry
	invalidations atomic.Int32
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[Key]CacheEntry)}
}

func (c *mapCache) Fetch(ctx context.Context, key Key, load LoadFunc) (CacheEntry, bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return e, true, nil
	}
	e, err := load(ctx)
	if err != nil {
		return CacheEntry{}, false, err
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return e, false, nil
}

func (c *mapCache) Invalidate(_ context.Context, keys ...Key) {
	c.invalidations.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
}

func (c *mapCache) Close() error { return nil }

func (c *mapCache) peek(key Key) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// fakeEncrypter hex-encodes plaintext and binds it to the associated data.
type fakeEncrypter struct{}

func (fakeEncrypter) Encrypt(plaintext, ad []byte) ([]byte, error) {
	out := append([]byte{}, ad...)
	out = append(out, '|')
	return append(out, hex.EncodeToString(plaintext)...), nil
}

func (fakeEncrypter) Decrypt(ciphertext, ad []byte) ([]byte, error) {
	prefix, body, ok := bytes.Cut(ciphertext, []byte("|"))
	if !ok || !bytes.Equal(prefix, ad) {
		return nil, errors.New("associated data mismatch")
	}
	return hex.DecodeString(string(body))
}

var (
	testTenant = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testUser   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	otherUser  = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func testDefinitions() []Definition {
	return []Definition{
		{
			Key: "site.name", Type: TypeGlobal, Default: "Acme", Rules: "required,max=32", Group: "site",
			Field: Field{Label: "Site name", Order: 1},
		},
		{
			Key: "site.max_users", Type: TypeGlobal, Default: 10, Rules: "min=1,max=1000", Group: "site",
			Field: Field{Order: 2},
		},
		{
			Key: "site.links", Type: TypeGlobal, Default: map[string]any{"home": "/"}, Group: "site",
			Field: Field{Order: 3},
		},
		{Key: "site.ops_flag", Type: TypeGlobal, Default: false, Group: "site", ReadRoles: []string{"ops"}},
		{Key: "mail.password", Type: TypeGlobal, Encrypted: true, Group: "mail"},
		{Key: "mail.api_token", Type: TypeGlobal, Encrypted: true, Group: "mail"},
		{
			Key: "user.theme", Type: TypeUser, Default: "light", Group: "appearance",
			Field: Field{Type: FieldSelect, Options: []Option{{Value: "light"}, {Value: "dark"}}},
		},
		{Key: "user.notifications", Type: TypeUser, Default: true, Group: "appearance"},
		{Key: "tenant.quota", Type: TypeTenant, Default: 100, Expressions: []string{"value >= 10.0"}},
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register(testDefinitions()...))
	return reg
}

func adminCtx() context.Context {
	return WithPrincipal(context.Background(), &Principal{Name: "root", Roles: []string{RoleAdmin}})
}

func userCtx(roles ...string) context.Context {
	return WithPrincipal(context.Background(), &Principal{
		Name:     "alice",
		TenantID: testTenant,
		UserID:   testUser,
		Roles:    roles,
	})
}
