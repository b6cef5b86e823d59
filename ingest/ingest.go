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

// Package ingest receives spans over OTLP (HTTP+protobuf and gRPC) and the
// concatenated-JSON log import, persists them and maintains the per-trace
// aggregates. Spans are written once here and never mutated afterward.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/observability"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/tenants"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// DefaultTenant receives exports that carry no X-Tenant-Id.
const DefaultTenant = "default"

const (
	agentNameAttr = "gen_ai.agent.name"
	oldSpanCutoff = 30 * 24 * time.Hour
)

// Ingestor persists incoming spans and upserts the owning trace aggregate
// (span count, time bounds, agent ids, failure counts).
type Ingestor struct {
	tenants       *tenants.Registry
	rewriteOld    bool
	exportTimeout time.Duration
}

// NewIngestor creates an ingestor over the tenant registry.
func NewIngestor(registry *tenants.Registry, cfg config.IngestConfig) *Ingestor {
	timeout := time.Duration(cfg.ExportTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Ingestor{
		tenants:       registry,
		rewriteOld:    cfg.RewriteOldSpans,
		exportTimeout: timeout,
	}
}

// IngestSpans persists the batch for the tenant and returns the distinct
// trace ids it touched. Duplicate span ids are ignored so repeated exports
// stay idempotent.
func (i *Ingestor) IngestSpans(ctx context.Context, tenantID, transport string, spans []models.Span) ([]string, error) {
	if len(spans) == 0 {
		return nil, nil
	}
	for idx := range spans {
		if spans[idx].Context.TraceID == "" || spans[idx].Context.SpanID == "" {
			return nil, fmt.Errorf("%w: span %d is missing its trace or span id", utils.ErrInvalidInput, idx)
		}
	}
	if tenantID == "" {
		tenantID = DefaultTenant
	}

	ctx, cancel := context.WithTimeout(ctx, i.exportTimeout)
	defer cancel()

	c, err := i.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	byTrace := groupByTrace(spans)
	if i.rewriteOld {
		for _, group := range byTrace {
			rewriteOldTrace(group)
		}
	}

	elements := make([]models.Element, 0, len(spans))
	traceIDs := make([]string, 0, len(byTrace))
	for traceID, group := range byTrace {
		traceIDs = append(traceIDs, traceID)
		for _, span := range group {
			elements = append(elements, models.Element{
				ElementID: span.Context.SpanID,
				Kind:      models.KindSpan,
				RootID:    traceID,
				Name:      span.Name,
				Span:      span,
			})
		}
	}

	storedIDs, err := c.DataManager.BulkStore(ctx, elements, true)
	if err != nil {
		return nil, fmt.Errorf("storing spans: %w", err)
	}
	stored := make(map[string]bool, len(storedIDs))
	for _, id := range storedIDs {
		stored[id] = true
	}

	// Only spans stored in this call count towards the aggregates, so a
	// re-exported batch leaves the trace unchanged.
	for traceID, group := range byTrace {
		fresh := group[:0:0]
		for _, span := range group {
			if stored[span.Context.SpanID] {
				fresh = append(fresh, span)
			}
		}
		if len(fresh) == 0 {
			continue
		}
		if err := i.upsertTrace(ctx, c, traceID, fresh); err != nil {
			return nil, err
		}
	}

	observability.SpansIngested.WithLabelValues(tenantID, transport).Add(float64(len(spans)))
	logger.GetLogger(ctx).Debug("ingested span batch",
		slog.String("tenant_id", tenantID),
		slog.String("transport", transport),
		slog.Int("spans", len(spans)),
		slog.Int("traces", len(traceIDs)))
	return traceIDs, nil
}

// upsertTrace folds the batch into the trace aggregate. Exporters flush a
// trace across several batches, so the aggregate widens monotonically.
func (i *Ingestor) upsertTrace(ctx context.Context, c *tenants.Components, traceID string, spans []*models.Span) error {
	existing, err := c.DataManager.GetByID(ctx, traceID, models.KindTrace, "")
	if err != nil {
		return err
	}

	if existing == nil || existing.Trace == nil {
		el := &models.Element{
			ElementID: traceID,
			Kind:      models.KindTrace,
			Trace:     summarizeSpans(spans),
		}
		if _, err := c.DataManager.Store(ctx, el); err != nil {
			return fmt.Errorf("storing trace %s: %w", traceID, err)
		}
		return nil
	}

	mergeTrace(existing.Trace, summarizeSpans(spans))
	if _, err := c.DataManager.Update(ctx, existing); err != nil {
		return fmt.Errorf("updating trace %s: %w", traceID, err)
	}
	return nil
}

func summarizeSpans(spans []*models.Span) *models.Trace {
	tr := &models.Trace{}
	for _, span := range spans {
		if tr.ServiceName == "" {
			tr.ServiceName = span.Resource.ServiceName
		}
		if tr.StartTime.IsZero() || span.StartTime.Before(tr.StartTime) {
			tr.StartTime = span.StartTime
		}
		if span.EndTime.After(tr.EndTime) {
			tr.EndTime = span.EndTime
		}
		tr.NumOfSpans++
		if agent := span.StringAttribute(agentNameAttr); agent != "" {
			tr.AgentIDs = appendUnique(tr.AgentIDs, agent)
		}
		if span.Status == models.SpanStatusError {
			if tr.Failures == nil {
				tr.Failures = make(map[string]int)
			}
			tr.Failures[models.SpanStatusError]++
		}
	}
	return tr
}

func mergeTrace(dst, batch *models.Trace) {
	if dst.ServiceName == "" {
		dst.ServiceName = batch.ServiceName
	}
	if dst.StartTime.IsZero() || (!batch.StartTime.IsZero() && batch.StartTime.Before(dst.StartTime)) {
		dst.StartTime = batch.StartTime
	}
	if batch.EndTime.After(dst.EndTime) {
		dst.EndTime = batch.EndTime
	}
	dst.NumOfSpans += batch.NumOfSpans
	for _, id := range batch.AgentIDs {
		dst.AgentIDs = appendUnique(dst.AgentIDs, id)
	}
	for severity, count := range batch.Failures {
		if dst.Failures == nil {
			dst.Failures = make(map[string]int)
		}
		dst.Failures[severity] += count
	}
}

// rewriteOldTrace shifts a trace whose newest span ended more than 30 days
// ago so it ends yesterday, preserving the relative offsets between spans.
func rewriteOldTrace(spans []*models.Span) {
	var maxEnd time.Time
	for _, span := range spans {
		if span.EndTime.After(maxEnd) {
			maxEnd = span.EndTime
		}
	}
	if maxEnd.IsZero() || time.Since(maxEnd) <= oldSpanCutoff {
		return
	}
	delta := time.Now().UTC().AddDate(0, 0, -1).Sub(maxEnd)
	for _, span := range spans {
		span.StartTime = span.StartTime.Add(delta)
		span.EndTime = span.EndTime.Add(delta)
		for idx := range span.Events {
			span.Events[idx].Timestamp = span.Events[idx].Timestamp.Add(delta)
		}
	}
}

func groupByTrace(spans []models.Span) map[string][]*models.Span {
	byTrace := make(map[string][]*models.Span)
	for idx := range spans {
		traceID := spans[idx].Context.TraceID
		byTrace[traceID] = append(byTrace[traceID], &spans[idx])
	}
	return byTrace
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
