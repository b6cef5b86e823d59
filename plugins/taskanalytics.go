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

package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/visitors"
)

// defaultTraceConcurrency bounds the per-trace fan-out of one TaskAnalytics
// invocation.
const defaultTraceConcurrency = 20

// TaskAnalytics extracts the task graph from trace spans: it runs the
// visitor pipeline per trace, persists the resulting tasks and actions, and
// returns both lists. Idempotent per trace: traces that already have tasks
// are skipped.
type TaskAnalytics struct {
	deps analytics.Deps
}

// NewTaskAnalytics creates the plugin bound to tenant components.
func NewTaskAnalytics(deps analytics.Deps) *TaskAnalytics {
	return &TaskAnalytics{deps: deps}
}

func (p *TaskAnalytics) InputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "trace_id", Type: models.FieldTypeString, Description: "single trace to analyze"},
		{Name: "trace_ids", Type: models.FieldTypeArray, ArrayType: models.FieldTypeString},
		{Name: "trace_group_id", Type: models.FieldTypeString},
		{Name: "spans", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny,
			Description: "explicit span payloads; wins over fetched spans for their trace"},
		{Name: "max_concurrency", Type: models.FieldTypeInteger},
	}
}

func (p *TaskAnalytics) OutputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "tasks", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny},
		{Name: "actions", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny},
	}
}

func (p *TaskAnalytics) DefaultConfig() map[string]any {
	return map[string]any{"max_concurrency": defaultTraceConcurrency}
}

func (p *TaskAnalytics) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	log := logger.GetLogger(ctx)

	explicit, err := explicitSpansByTrace(input)
	if err != nil {
		return nil, err
	}
	traceIDs := p.collectTraceIDs(ctx, input, explicit)
	if len(traceIDs) == 0 {
		return nil, fmt.Errorf("%w: one of trace_id, trace_ids, trace_group_id or spans is required", utils.ErrInvalidInput)
	}

	limit := inputInt(input, "max_concurrency", defaultTraceConcurrency)
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	var (
		mu         sync.Mutex
		allTasks   []*models.Element
		allActions []*models.Element
		firstErr   error
	)
	var wg sync.WaitGroup
	for _, traceID := range traceIDs {
		wg.Add(1)
		go func(traceID string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			tasks, actions, err := p.analyzeTrace(ctx, traceID, explicit[traceID], log)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
				return
			}
			allTasks = append(allTasks, tasks...)
			allActions = append(allActions, actions...)
		}(traceID)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	return map[string]any{
		"tasks":   encodeElements(allTasks),
		"actions": encodeElements(allActions),
	}, nil
}

// collectTraceIDs resolves the union of the id-bearing inputs, preserving
// first-mention order without duplicates.
func (p *TaskAnalytics) collectTraceIDs(ctx context.Context, input map[string]any, explicit map[string][]models.Span) []string {
	var ids []string
	seen := map[string]bool{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	add(inputString(input, "trace_id"))
	for _, id := range inputStrings(input, "trace_ids") {
		add(id)
	}
	if groupID := inputString(input, "trace_group_id"); groupID != "" {
		traces, err := p.deps.DataManager.GetTracesForTraceGroup(ctx, groupID)
		if err != nil {
			logger.GetLogger(ctx).Warn("failed to resolve trace group",
				slog.String("trace_group_id", groupID), slog.String("error", err.Error()))
		}
		for _, t := range traces {
			add(t.ElementID)
		}
	}
	for traceID := range explicit {
		add(traceID)
	}
	return ids
}

// analyzeTrace runs the pipeline for one trace. Explicit spans win over
// fetched ones for their trace.
func (p *TaskAnalytics) analyzeTrace(ctx context.Context, traceID string, explicit []models.Span, log *slog.Logger) ([]*models.Element, []*models.Element, error) {
	existing, err := p.deps.DataManager.GetChildren(ctx, traceID, models.KindTask, "")
	if err != nil {
		return nil, nil, err
	}
	if len(existing) > 0 {
		log.Info("trace already analyzed, skipping", slog.String("trace_id", traceID))
		tasks := make([]*models.Element, 0, len(existing))
		for i := range existing {
			tasks = append(tasks, &existing[i])
		}
		return tasks, nil, nil
	}

	spans := explicit
	if len(spans) == 0 {
		spanEls, err := p.deps.DataManager.GetSpans(ctx, traceID)
		if err != nil {
			return nil, nil, err
		}
		for _, el := range spanEls {
			if el.Span != nil {
				spans = append(spans, *el.Span)
			}
		}
	}
	if len(spans) == 0 {
		log.Warn("no spans for trace", slog.String("trace_id", traceID))
		return nil, nil, nil
	}

	if err := p.ensureTraceElement(ctx, traceID, spans); err != nil {
		return nil, nil, err
	}

	tasks, actions := visitors.ExtractTaskGraph(ctx, spans, p.deps.Dedup)

	var toStore []models.Element
	for _, t := range tasks {
		toStore = append(toStore, *t)
	}
	for _, a := range actions {
		toStore = append(toStore, *a)
	}
	if len(toStore) > 0 {
		// Actions may already exist from concurrent traces sharing a code id.
		if _, err := p.deps.DataManager.BulkStore(ctx, toStore, true); err != nil {
			return nil, nil, err
		}
	}
	log.Info("task extraction complete",
		slog.String("trace_id", traceID),
		slog.Int("tasks", len(tasks)),
		slog.Int("actions", len(actions)))
	return tasks, actions, nil
}

// ensureTraceElement persists the Trace element when the spans arrived
// without one, e.g. via the explicit spans input.
func (p *TaskAnalytics) ensureTraceElement(ctx context.Context, traceID string, spans []models.Span) error {
	existing, err := p.deps.DataManager.GetByID(ctx, traceID, models.KindTrace, "")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	trace := models.Trace{NumOfSpans: len(spans)}
	var start, end time.Time
	for _, s := range spans {
		if start.IsZero() || s.StartTime.Before(start) {
			start = s.StartTime
		}
		if s.EndTime.After(end) {
			end = s.EndTime
		}
		if trace.ServiceName == "" {
			trace.ServiceName = s.Resource.ServiceName
		}
	}
	trace.StartTime = start
	trace.EndTime = end

	_, err = p.deps.DataManager.Store(ctx, &models.Element{
		ElementID: traceID,
		Kind:      models.KindTrace,
		Name:      trace.ServiceName,
		Trace:     &trace,
	})
	return err
}

// explicitSpansByTrace decodes the optional spans input and groups by trace.
func explicitSpansByTrace(input map[string]any) (map[string][]models.Span, error) {
	raw, ok := input["spans"]
	if !ok || raw == nil {
		return nil, nil
	}
	var spans []models.Span
	if typed, ok := raw.([]models.Span); ok {
		spans = typed
	} else if err := decodeInto(raw, &spans); err != nil {
		return nil, fmt.Errorf("%w: spans: %v", utils.ErrInvalidInput, err)
	}
	grouped := make(map[string][]models.Span)
	for _, s := range spans {
		if s.Context.TraceID == "" {
			return nil, fmt.Errorf("%w: span %s has no trace id", utils.ErrInvalidInput, s.Context.SpanID)
		}
		grouped[s.Context.TraceID] = append(grouped[s.Context.TraceID], s)
	}
	return grouped, nil
}

func encodeElements(els []*models.Element) []any {
	return encodeList(els)
}
