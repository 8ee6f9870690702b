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
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[Key]Entry
	now  func() time.Time
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Batcher    = (*MemoryRepository)(nil)
)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows: make(map[Key]Entry),
		now:  time.Now,
	}
}

func (m *MemoryRepository) Get(_ context.Context, key Key) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.rows[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(e.Value), nil
}

func (m *MemoryRepository) Set(_ context.Context, key Key, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key] = Entry{Name: key.Name, Value: slices.Clone(value), UpdatedAt: m.now()}
	return nil
}

func (m *MemoryRepository) SetMany(_ context.Context, values []KeyValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for _, kv := range values {
		m.rows[kv.Key] = Entry{Name: kv.Key.Name, Value: slices.Clone(kv.Value), UpdatedAt: now}
	}
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, key)
	return nil
}

func (m *MemoryRepository) List(_ context.Context, scope Scope) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for k, e := range m.rows {
		if k.Scope == scope {
			e.Value = slices.Clone(e.Value)
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
