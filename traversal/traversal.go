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

// Package traversal walks a span forest depth-first and dispatches each span
// to a registered chain of processors in two phases: once before descending
// into the span's children and once after.
package traversal

import (
	"context"
	"log/slog"
	"sort"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
)

// Phase marks which side of the child recursion a Process call is on.
type Phase int

const (
	BeforeChildren Phase = iota
	AfterChildren
)

func (p Phase) String() string {
	if p == BeforeChildren {
		return "BEFORE_CHILDREN"
	}
	return "AFTER_CHILDREN"
}

// Conventional shared-context keys used by the task-extraction processors.
const (
	// KeyLastParents holds the stack of ancestor tasks currently in scope.
	KeyLastParents = "LAST_PARENTS"
	// KeySpanIDToTask maps span ids to the task extracted from them.
	KeySpanIDToTask = "SPAN_ID_TO_TASK"
	// KeyTasks accumulates every task produced during the traversal.
	KeyTasks = "TASKS"
	// KeyActions accumulates every action produced during the traversal.
	KeyActions = "ACTIONS"
)

// Context is the string-keyed state shared by all processors of one
// traversal. It is not safe for concurrent use; one traversal runs on one
// goroutine.
type Context struct {
	values map[string]any
}

// NewContext creates an empty shared context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Get returns the value under key, or nil.
func (c *Context) Get(key string) any {
	return c.values[key]
}

// Set stores a value under key.
func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

// Processor is one span-tree visitor. ShouldProcess gates both phases;
// Process runs per phase; AfterTraversal runs once after the whole forest.
type Processor interface {
	Name() string
	ShouldProcess(span *models.Span, tctx *Context) bool
	Process(ctx context.Context, span *models.Span, phase Phase, tctx *Context) error
	AfterTraversal(ctx context.Context, tctx *Context) error
}

// Traverse walks the span forest and dispatches the processors.
//
// Children of a parent are visited in start-time order with ties broken by
// span id; roots likewise. A span whose parent_id is absent from the input
// set is treated as a root. Processor errors are logged and traversal
// continues; the shared context keeps whatever state the failing processor
// left behind.
func Traverse(ctx context.Context, spans []models.Span, processors []Processor, tctx *Context) {
	log := logger.GetLogger(ctx)

	byID := make(map[string]*models.Span, len(spans))
	for i := range spans {
		byID[spans[i].Context.SpanID] = &spans[i]
	}

	children := make(map[string][]*models.Span)
	var roots []*models.Span
	for i := range spans {
		span := &spans[i]
		if span.ParentID == "" || byID[span.ParentID] == nil {
			roots = append(roots, span)
			continue
		}
		children[span.ParentID] = append(children[span.ParentID], span)
	}
	sortSpans(roots)
	for _, siblings := range children {
		sortSpans(siblings)
	}

	visited := make(map[string]bool, len(spans))
	for _, root := range roots {
		visit(ctx, root, children, processors, tctx, visited, log)
	}

	for _, p := range processors {
		if err := p.AfterTraversal(ctx, tctx); err != nil {
			log.Error("span processor after-traversal failed",
				slog.String("processor", p.Name()),
				slog.String("error", err.Error()))
		}
	}
}

func visit(ctx context.Context, span *models.Span, children map[string][]*models.Span,
	processors []Processor, tctx *Context, visited map[string]bool, log *slog.Logger) {
	if visited[span.Context.SpanID] {
		return
	}
	visited[span.Context.SpanID] = true

	// Earlier-registered processors see the span first going down and last
	// coming back up, like nested scopes.
	active := make([]Processor, 0, len(processors))
	for _, p := range processors {
		if p.ShouldProcess(span, tctx) {
			active = append(active, p)
		}
	}

	for _, p := range active {
		dispatch(ctx, p, span, BeforeChildren, tctx, log)
	}

	for _, child := range children[span.Context.SpanID] {
		visit(ctx, child, children, processors, tctx, visited, log)
	}

	for i := len(active) - 1; i >= 0; i-- {
		dispatch(ctx, active[i], span, AfterChildren, tctx, log)
	}
}

func dispatch(ctx context.Context, p Processor, span *models.Span, phase Phase, tctx *Context, log *slog.Logger) {
	if err := p.Process(ctx, span, phase, tctx); err != nil {
		log.Error("span processor failed",
			slog.String("processor", p.Name()),
			slog.String("span_id", span.Context.SpanID),
			slog.String("phase", phase.String()),
			slog.String("error", err.Error()))
	}
}

func sortSpans(spans []*models.Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].StartTime.Equal(spans[j].StartTime) {
			return spans[i].Context.SpanID < spans[j].Context.SpanID
		}
		return spans[i].StartTime.Before(spans[j].StartTime)
	})
}
