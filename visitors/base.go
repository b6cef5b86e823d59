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

package visitors

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/traversal"
)

// frameworkHooks is what a concrete framework visitor contributes on top of
// the shared task-graph mechanics.
type frameworkHooks interface {
	Name() string
	// IsFrameworkSpan is the framework detector. Visitors run in registered
	// order and the first detector that claims a span builds its task.
	IsFrameworkSpan(span *models.Span, tctx *traversal.Context) bool
	// BuildTask constructs the task element for a claimed span, or nil when
	// the span should not become a task (pure bookkeeping spans).
	BuildTask(ctx context.Context, span *models.Span, tctx *traversal.Context) *models.Element
}

// baseVisitor carries the mechanics every task-graph visitor shares: task
// registration, the ancestor stack, the per-parent children graph, and
// sibling dependency detection once a root task closes.
type baseVisitor struct {
	hooks frameworkHooks
}

func (b *baseVisitor) Name() string { return b.hooks.Name() }

func (b *baseVisitor) ShouldProcess(span *models.Span, tctx *traversal.Context) bool {
	return b.hooks.IsFrameworkSpan(span, tctx)
}

func (b *baseVisitor) Process(ctx context.Context, span *models.Span, phase traversal.Phase, tctx *traversal.Context) error {
	spanID := span.Context.SpanID
	switch phase {
	case traversal.BeforeChildren:
		// First matching visitor wins; a task already extracted by an
		// earlier visitor of the chain is left untouched.
		if TaskForSpan(tctx, spanID) != nil {
			return nil
		}
		task := b.hooks.BuildTask(ctx, span, tctx)
		if task == nil {
			return nil
		}
		parentKey := ""
		if parent := currentParent(tctx); parent != nil {
			task.Task.ParentID = parent.ElementID
			parentKey = parent.ElementID
		}
		recordChild(tctx, parentKey, task.ElementID)
		registerTask(tctx, spanID, b.hooks.Name(), task)
		pushParent(tctx, task)

	case traversal.AfterChildren:
		if taskCreator(tctx, spanID) != b.hooks.Name() {
			return nil
		}
		popParent(tctx)
		if len(parentStack(tctx)) == 0 {
			detectDependencies(tctx)
		}
	}
	return nil
}

func (b *baseVisitor) AfterTraversal(context.Context, *traversal.Context) error { return nil }

// detectDependencies assigns dependent_ids between siblings: a task depends
// on the earlier siblings that finished before it started, reduced so a
// prerequisite of a prerequisite is not repeated. Overlapping siblings get
// no edge (they ran in parallel). Recomputation is deterministic, so running
// once per closing root task is safe.
func detectDependencies(tctx *traversal.Context) {
	byID := make(map[string]*models.Element)
	for _, task := range Tasks(tctx) {
		byID[task.ElementID] = task
	}
	for _, childIDs := range childrenGraph(tctx) {
		siblings := make([]*models.Element, 0, len(childIDs))
		for _, id := range childIDs {
			if t := byID[id]; t != nil {
				siblings = append(siblings, t)
			}
		}
		sort.SliceStable(siblings, func(i, j int) bool {
			if siblings[i].Task.StartTime.Equal(siblings[j].Task.StartTime) {
				return siblings[i].ElementID < siblings[j].ElementID
			}
			return siblings[i].Task.StartTime.Before(siblings[j].Task.StartTime)
		})
		for i, task := range siblings {
			// Dependencies declared by the source (manual schema, crew
			// process order, graph triggers) win over detected ones.
			if len(task.Task.DependentIDs) > 0 {
				continue
			}
			var prereqs []*models.Element
			for _, earlier := range siblings[:i] {
				if !earlier.Task.EndTime.After(task.Task.StartTime) {
					prereqs = append(prereqs, earlier)
				}
			}
			// Transitive reduction: drop prerequisites already implied by a
			// later prerequisite.
			task.Task.DependentIDs = nil
			for _, p := range prereqs {
				implied := false
				for _, q := range prereqs {
					if p != q && !p.Task.EndTime.After(q.Task.StartTime) {
						implied = true
						break
					}
				}
				if !implied {
					task.Task.DependentIDs = append(task.Task.DependentIDs, p.ElementID)
				}
			}
		}
	}
}

// Traceloop-style span names carry their entity kind as the final dotted
// segment: "search.tool", "pipeline.workflow", "joke_agent.agent".
var spanNameKindSuffixes = map[string]models.TaskKind{
	"task":       models.TaskKindChain,
	"workflow":   models.TaskKindChain,
	"chain":      models.TaskKindChain,
	"tool":       models.TaskKindTool,
	"chat":       models.TaskKindLLM,
	"completion": models.TaskKindLLM,
	"agent":      models.TaskKindAgent,
	"embedding":  models.TaskKindEmbedding,
	"retriever":  models.TaskKindRetriever,
}

// spanNameKind returns the task kind hinted by the span-name suffix.
func spanNameKind(name string) (models.TaskKind, bool) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", false
	}
	kind, ok := spanNameKindSuffixes[name[idx+1:]]
	return kind, ok
}

// stripSpanNameSuffix removes a trailing kind segment from a span name, so
// "tool.search.tool" becomes "tool.search" and "agent.task" becomes "agent".
func stripSpanNameSuffix(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name
	}
	if _, ok := spanNameKindSuffixes[name[idx+1:]]; ok {
		return name[:idx]
	}
	return name
}

// taskElementID derives the stable task id for a span.
func taskElementID(spanID string) string {
	return fmt.Sprintf("%s-%s", models.KindTask, spanID)
}

// newTaskElement builds the canonical task shared by all visitors: stable
// element id from the span id, root_id = trace id, name stripped of the kind
// suffix, timestamps, events, and the back-reference into the raw log.
func newTaskElement(span *models.Span, kind models.TaskKind) *models.Element {
	status := models.TaskStatusUnknown
	switch span.Status {
	case models.SpanStatusOK:
		status = models.TaskStatusSuccess
	case models.SpanStatusError:
		status = models.TaskStatusFailure
	}
	task := &models.Element{
		ElementID: taskElementID(span.Context.SpanID),
		Kind:      models.KindTask,
		RootID:    span.Context.TraceID,
		Name:      stripSpanNameSuffix(spanName(span)),
		Task: &models.Task{
			Kind:      kind,
			State:     models.TaskStateCompleted,
			Status:    status,
			StartTime: span.StartTime,
			EndTime:   span.EndTime,
			Events:    span.Events,
			LogReference: models.LogReference{
				TraceID: span.Context.TraceID,
				SpanID:  span.Context.SpanID,
			},
		},
	}
	task.AddTag(strings.ToLower(string(kind)) + "_task")
	return task
}

// spanName is the span's name, falling back to the span id for unnamed spans.
func spanName(span *models.Span) string {
	if span.Name != "" {
		return span.Name
	}
	return span.Context.SpanID
}

// normalizeValue stringifies primitives and keeps maps/lists as JSON-shaped
// structures, matching the canonical task input/output form.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case map[string]any:
		return normalizeMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return fmt.Sprintf("%v", t)
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

// parseJSONMap decodes a JSON object string, or wraps a non-object payload
// under "value".
func parseJSONMap(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err == nil {
		return normalizeMap(m)
	}
	return map[string]any{"value": raw}
}

// parseJSONAny decodes arbitrary JSON, returning the raw string when the
// payload is not valid JSON.
func parseJSONAny(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// parseJSONList decodes a JSON array of strings, tolerating a plain
// comma-separated fallback.
func parseJSONList(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list
	}
	var anyList []any
	if err := json.Unmarshal([]byte(raw), &anyList); err == nil {
		out := make([]string, 0, len(anyList))
		for _, e := range anyList {
			out = append(out, fmt.Sprintf("%v", e))
		}
		return out
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
