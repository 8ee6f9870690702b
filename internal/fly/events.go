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
	"fmt"

	"github.com/cardinalhq/settingsd/internal/settings"
)

// EventPublisher sends setting change events to a Kafka topic, keyed by
// setting key.
type EventPublisher struct {
	producer Producer
	topic    string
}

var _ settings.Publisher = (*EventPublisher)(nil)

func NewEventPublisher(producer Producer, topic string) *EventPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &EventPublisher{producer: producer, topic: topic}
}

func (p *EventPublisher) Publish(ctx context.Context, events ...settings.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]Message, 0, len(events))
	for _, ev := range events {
		body, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to encode change event %s: %w", ev.ID, err)
		}
		msgs = append(msgs, Message{
			Key:   []byte(ev.Key),
			Value: body,
			Headers: map[string]string{
				"event-id":   ev.ID,
				"action":     string(ev.Action),
				"scope-type": string(ev.Scope.Type),
			},
		})
	}
	if err := p.producer.BatchSend(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("failed to send %d change events to %s: %w", len(msgs), p.topic, err)
	}
	return nil
}

func (p *EventPublisher) Close() error {
	return p.producer.Close()
}
