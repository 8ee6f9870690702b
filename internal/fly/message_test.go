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
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestMessage_ToKafkaMessage(t *testing.T) {
	msg := Message{
		Key:   []byte("site.name"),
		Value: []byte(`{"key":"site.name"}`),
		Headers: map[string]string{
			"action":     "set",
			"scope-type": "global",
		},
	}
	got := msg.ToKafkaMessage()
	assert.Equal(t, msg.Key, got.Key)
	assert.Equal(t, msg.Value, got.Value)
	assert.ElementsMatch(t, []kafka.Header{
		{Key: "action", Value: []byte("set")},
		{Key: "scope-type", Value: []byte("global")},
	}, got.Headers)

	empty := (&Message{}).ToKafkaMessage()
	assert.Empty(t, empty.Headers)
	assert.Nil(t, empty.Key)
}
