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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/cardinalhq/settingsd/internal/settings")

var (
	readCounter  metric.Int64Counter
	writeCounter metric.Int64Counter
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/settingsd/internal/settings")

	var err error
	readCounter, err = meter.Int64Counter(
		"settingsd.settings.reads",
		metric.WithDescription("Number of setting values resolved"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create settings.reads counter: %w", err))
	}

	writeCounter, err = meter.Int64Counter(
		"settingsd.settings.writes",
		metric.WithDescription("Number of setting values written or reset"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create settings.writes counter: %w", err))
	}

	cacheHits, err = meter.Int64Counter(
		"settingsd.cache.hits",
		metric.WithDescription("Setting lookups answered from the cache"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create cache.hits counter: %w", err))
	}

	cacheMisses, err = meter.Int64Counter(
		"settingsd.cache.misses",
		metric.WithDescription("Setting lookups that went to storage"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create cache.misses counter: %w", err))
	}
}

func recordCacheLookup(ctx context.Context, key Key, hit bool) {
	attrs := metric.WithAttributes(attribute.String("type", string(key.Scope.Type)))
	if hit {
		cacheHits.Add(ctx, 1, attrs)
	} else {
		cacheMisses.Add(ctx, 1, attrs)
	}
}

func recordRead(ctx context.Context, def *Definition, source Source) {
	readCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(def.Type)),
		attribute.String("source", string(source)),
	))
}

func recordWrite(ctx context.Context, def *Definition, action Action) {
	writeCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(def.Type)),
		attribute.String("action", string(action)),
	))
}

func startSpan(ctx context.Context, name, key string, scope Scope) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("setting.key", key),
		attribute.String("setting.scope", scope.String()),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
