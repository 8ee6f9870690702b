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

package fly

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/settingsd/internal/settings"
)

type recordingProducer struct {
	mu      sync.Mutex
	topic   string
	batches [][]Message
	err     error
	closed  bool
}

func (p *recordingProducer) Send(ctx context.Context, topic string, message Message) error {
	return p.BatchSend(ctx, topic, []Message{message})
}

func (p *recordingProducer) BatchSend(_ context.Context, topic string, messages []Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.batches = append(p.batches, messages)
	return nil
}

func (p *recordingProducer) Close() error {
	p.closed = true
	return nil
}

func TestEventPublisher_Publish(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewEventPublisher(producer, "")

	tenant := uuid.New()
	events := []settings.ChangeEvent{
		{
			ID:     "01J0000000000000000000000A",
			Key:    "tenant.max_users",
			Scope:  settings.TenantScope(tenant),
			Action: settings.ActionSet,
			Value:  json.RawMessage(`50`),
			Actor:  "ops",
			Time:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			ID:     "01J0000000000000000000000B",
			Key:    "site.name",
			Scope:  settings.GlobalScope(),
			Action: settings.ActionReset,
		},
	}
	require.NoError(t, pub.Publish(context.Background(), events...))

	require.Len(t, producer.batches, 1)
	assert.Equal(t, DefaultTopic, producer.topic)
	batch := producer.batches[0]
	require.Len(t, batch, 2)

	assert.Equal(t, []byte("tenant.max_users"), batch[0].Key)
	assert.Equal(t, "set", batch[0].Headers["action"])
	assert.Equal(t, "tenant", batch[0].Headers["scope-type"])
	assert.Equal(t, events[0].ID, batch[0].Headers["event-id"])

	var decoded settings.ChangeEvent
	require.NoError(t, json.Unmarshal(batch[0].Value, &decoded))
	assert.Equal(t, tenant, decoded.Scope.TenantID)
	assert.JSONEq(t, `50`, string(decoded.Value))
	assert.Equal(t, "ops", decoded.Actor)

	assert.Equal(t, "reset", batch[1].Headers["action"])
	assert.NotContains(t, string(batch[1].Value), `"value"`)
}

func TestEventPublisher_Errors(t *testing.T) {
	producer := &recordingProducer{err: errors.New("broker unavailable")}
	pub := NewEventPublisher(producer, "custom.topic")

	err := pub.Publish(context.Background(), settings.ChangeEvent{ID: "x", Key: "site.name"})
	assert.ErrorContains(t, err, "custom.topic")
	assert.ErrorContains(t, err, "broker unavailable")

	assert.NoError(t, pub.Publish(context.Background()))

	require.NoError(t, pub.Close())
	assert.True(t, producer.closed)
}
