// Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/clients/tenantcfgsvc"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/tenants"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

func newTestIngestor(t *testing.T, cfg config.IngestConfig) (*Ingestor, *tenants.Registry) {
	t.Helper()
	resolver := tenantcfgsvc.NewResolver(config.TenantConfigResolution{},
		tenantcfgsvc.StoreSettings{Backend: "memory"}, nil)
	registry := tenants.NewRegistry(resolver, analytics.NewCatalog(), tenants.Options{})
	return NewIngestor(registry, cfg), registry
}

func testSpan(traceID, spanID, service string, start, end time.Time) models.Span {
	return models.Span{
		Context:   models.SpanContext{TraceID: traceID, SpanID: spanID},
		Name:      "step",
		Kind:      models.SpanKindInternal,
		StartTime: start,
		EndTime:   end,
		Status:    models.SpanStatusOK,
		Resource:  models.SpanResource{ServiceName: service},
	}
}

func TestIngestSpansPersistsSpansAndTrace(t *testing.T) {
	ing, registry := newTestIngestor(t, config.IngestConfig{})
	ctx := context.Background()

	start := time.Now().UTC().Add(-time.Minute).Truncate(time.Millisecond)
	first := testSpan("T1", "S1", "checkout", start, start.Add(time.Second))
	second := testSpan("T1", "S2", "checkout", start.Add(time.Second), start.Add(3*time.Second))
	second.Status = models.SpanStatusError
	second.RawAttributes = map[string]any{"gen_ai.agent.name": "planner"}

	traceIDs, err := ing.IngestSpans(ctx, "acme", "otlp_http", []models.Span{first, second})
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, traceIDs)

	c, err := registry.Get(ctx, "acme")
	require.NoError(t, err)

	spans, err := c.DataManager.GetSpans(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, "S1", spans[0].ElementID)
	assert.Equal(t, "T1", spans[0].RootID)

	trace, err := c.DataManager.GetByID(ctx, "T1", models.KindTrace, "")
	require.NoError(t, err)
	require.NotNil(t, trace)
	require.NotNil(t, trace.Trace)
	assert.Equal(t, "checkout", trace.Trace.ServiceName)
	assert.Equal(t, 2, trace.Trace.NumOfSpans)
	assert.True(t, trace.Trace.StartTime.Equal(start))
	assert.True(t, trace.Trace.EndTime.Equal(start.Add(3*time.Second)))
	assert.Equal(t, []string{"planner"}, trace.Trace.AgentIDs)
	assert.Equal(t, map[string]int{models.SpanStatusError: 1}, trace.Trace.Failures)
}

func TestIngestSpansAccumulatesAcrossBatches(t *testing.T) {
	ing, registry := newTestIngestor(t, config.IngestConfig{})
	ctx := context.Background()
	start := time.Now().UTC().Add(-time.Minute)

	_, err := ing.IngestSpans(ctx, "acme", "otlp_grpc",
		[]models.Span{testSpan("T1", "S1", "checkout", start, start.Add(time.Second))})
	require.NoError(t, err)
	_, err = ing.IngestSpans(ctx, "acme", "otlp_grpc",
		[]models.Span{testSpan("T1", "S2", "checkout", start.Add(time.Second), start.Add(2*time.Second))})
	require.NoError(t, err)

	c, err := registry.Get(ctx, "acme")
	require.NoError(t, err)
	trace, err := c.DataManager.GetByID(ctx, "T1", models.KindTrace, "")
	require.NoError(t, err)
	assert.Equal(t, 2, trace.Trace.NumOfSpans)
	assert.True(t, trace.Trace.EndTime.Equal(start.Add(2*time.Second).UTC()))
}

func TestIngestSpansIsIdempotentOnReExport(t *testing.T) {
	ing, registry := newTestIngestor(t, config.IngestConfig{})
	ctx := context.Background()
	start := time.Now().UTC().Add(-time.Minute)
	batch := []models.Span{testSpan("T1", "S1", "checkout", start, start.Add(time.Second))}

	_, err := ing.IngestSpans(ctx, "acme", "otlp_http", batch)
	require.NoError(t, err)
	_, err = ing.IngestSpans(ctx, "acme", "otlp_http", batch)
	require.NoError(t, err)

	c, err := registry.Get(ctx, "acme")
	require.NoError(t, err)
	spans, err := c.DataManager.GetSpans(ctx, "T1")
	require.NoError(t, err)
	assert.Len(t, spans, 1)
	trace, err := c.DataManager.GetByID(ctx, "T1", models.KindTrace, "")
	require.NoError(t, err)
	assert.Equal(t, 1, trace.Trace.NumOfSpans)
}

func TestIngestSpansRejectsMissingIDs(t *testing.T) {
	ing, _ := newTestIngestor(t, config.IngestConfig{})
	_, err := ing.IngestSpans(context.Background(), "acme", "import",
		[]models.Span{{Name: "orphan"}})
	require.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestIngestSpansRewritesOldTraces(t *testing.T) {
	ing, registry := newTestIngestor(t, config.IngestConfig{RewriteOldSpans: true})
	ctx := context.Background()

	start := time.Now().UTC().AddDate(0, 0, -90)
	batch := []models.Span{
		testSpan("T1", "S1", "checkout", start, start.Add(time.Second)),
		testSpan("T1", "S2", "checkout", start.Add(time.Second), start.Add(3*time.Second)),
	}
	_, err := ing.IngestSpans(ctx, "acme", "import", batch)
	require.NoError(t, err)

	c, err := registry.Get(ctx, "acme")
	require.NoError(t, err)
	spans, err := c.DataManager.GetSpans(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, spans, 2)

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	for _, el := range spans {
		assert.WithinDuration(t, yesterday, el.Span.EndTime, time.Minute)
	}
	// Relative offsets between spans survive the rewrite.
	assert.Equal(t, time.Second, spans[1].Span.StartTime.Sub(spans[0].Span.StartTime))
	assert.Equal(t, 2*time.Second, spans[1].Span.EndTime.Sub(spans[0].Span.EndTime))
}

func TestIngestSpansKeepsRecentTracesUntouched(t *testing.T) {
	ing, registry := newTestIngestor(t, config.IngestConfig{RewriteOldSpans: true})
	ctx := context.Background()
	start := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

	_, err := ing.IngestSpans(ctx, "acme", "import",
		[]models.Span{testSpan("T1", "S1", "checkout", start, start.Add(time.Second))})
	require.NoError(t, err)

	c, err := registry.Get(ctx, "acme")
	require.NoError(t, err)
	spans, err := c.DataManager.GetSpans(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Span.StartTime.Equal(start))
}

func TestIngestSpansDefaultsTenant(t *testing.T) {
	ing, registry := newTestIngestor(t, config.IngestConfig{})
	ctx := context.Background()
	start := time.Now().UTC().Add(-time.Minute)

	_, err := ing.IngestSpans(ctx, "", "otlp_http",
		[]models.Span{testSpan("T1", "S1", "checkout", start, start.Add(time.Second))})
	require.NoError(t, err)

	c, err := registry.Get(ctx, DefaultTenant)
	require.NoError(t, err)
	spans, err := c.DataManager.GetSpans(ctx, "T1")
	require.NoError(t, err)
	assert.Len(t, spans, 1)
}
