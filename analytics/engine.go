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

package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics/cache"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/observability"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// Error type names recorded in ExecutionResult.Error.Type.
const (
	errTypeInput      = "InputError"
	errTypeDependency = "DependencyFailure"
	errTypeProcessing = "ProcessingError"
)

// Engine builds and runs the per-request execution DAG. One engine instance
// serves one tenant.
type Engine struct {
	registry *Registry
	catalog  *Catalog
	results  *ResultStore
	deps     Deps
	cache    cache.ResultCache
	// cacheEnabled gates the optional result cache lookups.
	cacheEnabled bool
}

// NewEngine creates an engine over the tenant's registry, catalog and
// result store. The cache may be cache.Noop{}.
func NewEngine(registry *Registry, catalog *Catalog, results *ResultStore, deps Deps, rc cache.ResultCache, cacheEnabled bool) *Engine {
	if rc == nil {
		rc = cache.Noop{}
	}
	return &Engine{
		registry:     registry,
		catalog:      catalog,
		results:      results,
		deps:         deps,
		cache:        rc,
		cacheEnabled: cacheEnabled,
	}
}

// node is one plugin invocation inside a DAG run.
type node struct {
	meta  *models.PluginMetadata
	preds []string
}

// execState is the state shared by all nodes of one run. Results merge
// commutatively: every node writes only its own key.
type execState struct {
	mu      sync.Mutex
	results map[string]*models.ExecutionResult
}

func (s *execState) put(id string, result *models.ExecutionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[id] = result
}

func (s *execState) get(id string) *models.ExecutionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[id]
}

// Execute runs the plugin and everything its dependency edges pull in, and
// returns the requested plugin's result. Graph-level problems (unknown
// plugin, cyclic edges) surface as errors; plugin-level failures are
// recorded inside the returned ExecutionResult.
func (e *Engine) Execute(ctx context.Context, analyticsID string, input map[string]any) (*models.ExecutionResult, error) {
	log := logger.GetLogger(ctx).With(slog.String("analytics_id", analyticsID))

	nodes, err := e.buildExecutionSet(ctx, analyticsID)
	if err != nil {
		return nil, err
	}
	order, err := topologicalOrder(nodes)
	if err != nil {
		return nil, err
	}
	log.Info("executing analytics DAG", slog.Int("plugins", len(order)))

	state := &execState{results: make(map[string]*models.ExecutionResult, len(order))}

	// Predecessor-count barrier: each node holds a channel closed on
	// completion; a node waits for all predecessor channels before running.
	done := make(map[string]chan struct{}, len(order))
	for id := range nodes {
		done[id] = make(chan struct{})
	}

	var wg sync.WaitGroup
	for _, id := range order {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer close(done[id])
			n := nodes[id]
			for _, pred := range n.preds {
				select {
				case <-done[pred]:
				case <-ctx.Done():
					state.put(id, e.cancelledResult(n.meta, ctx.Err()))
					return
				}
			}
			state.put(id, e.runNode(ctx, n, input, state, log))
		}(id)
	}
	wg.Wait()

	result := state.get(analyticsID)
	if result == nil {
		return nil, fmt.Errorf("%w: no result produced for %s", utils.ErrProcessing, analyticsID)
	}
	return result, nil
}

// buildExecutionSet traverses the plugin graph from the requested plugin in
// both directions: backward over dependsOn and forward over triggers. The
// predecessor map it returns encodes "A triggers B" as an edge A -> B even
// when B never declared A. Cycles are not rejected here: expansion walks
// edges in both directions, so only the direction-aware topological sort
// can tell a cycle from a diamond.
func (e *Engine) buildExecutionSet(ctx context.Context, analyticsID string) (map[string]*node, error) {
	nodes := make(map[string]*node)

	var expand func(id string) error
	expand = func(id string) error {
		if _, seen := nodes[id]; seen {
			return nil
		}
		meta, err := e.registry.Get(ctx, id)
		if err != nil {
			return err
		}
		if meta == nil {
			return fmt.Errorf("%w: %s", utils.ErrPluginNotFound, id)
		}
		nodes[id] = &node{meta: meta}

		for _, dep := range meta.Controller.DependsOn {
			if err := expand(dep); err != nil {
				return err
			}
		}
		for _, triggered := range meta.Controller.Triggers {
			if err := expand(triggered); err != nil {
				return err
			}
		}
		return nil
	}
	if err := expand(analyticsID); err != nil {
		return nil, err
	}

	for id, n := range nodes {
		for _, dep := range n.meta.Controller.DependsOn {
			if _, inSet := nodes[dep]; inSet {
				n.preds = append(n.preds, dep)
			}
		}
		for _, triggered := range n.meta.Controller.Triggers {
			if t, inSet := nodes[triggered]; inSet && !contains(t.preds, id) {
				t.preds = append(t.preds, id)
			}
		}
	}
	return nodes, nil
}

// topologicalOrder runs Kahn's algorithm. Leftover in-degree after the
// queue drains means a cycle; nothing executes in that case.
func topologicalOrder(nodes map[string]*node) ([]string, error) {
	indegree := make(map[string]int, len(nodes))
	successors := make(map[string][]string, len(nodes))
	for id, n := range nodes {
		indegree[id] += 0
		for _, pred := range n.preds {
			indegree[id]++
			successors[pred] = append(successors[pred], id)
		}
	}

	var queue []string
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue) // deterministic order among ready nodes

	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		var ready []string
		for _, succ := range successors[id] {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}
	if len(order) != len(nodes) {
		var stuck []string
		for id, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: unresolvable order among %v", utils.ErrCyclicDependency, stuck)
	}
	return order, nil
}

// runNode executes one plugin invocation: dependency check, input merge,
// spec validation, invocation with panic confinement, result persistence.
func (e *Engine) runNode(ctx context.Context, n *node, callerInput map[string]any, state *execState, log *slog.Logger) *models.ExecutionResult {
	meta := n.meta
	start := time.Now().UTC()
	result := &models.ExecutionResult{
		ResultID:    models.NewResultID(meta.ID, start),
		AnalyticsID: meta.ID,
		StartTime:   start,
		ConfigUsed:  meta.Config,
	}

	var failedPreds []string
	for _, pred := range n.preds {
		if r := state.get(pred); r != nil && r.Failed() {
			failedPreds = append(failedPreds, pred)
		}
	}
	if len(failedPreds) > 0 {
		sort.Strings(failedPreds)
		result.Status = models.ExecutionFailure
		result.Error = &models.ExecutionError{
			Type:               errTypeDependency,
			Message:            fmt.Sprintf("dependencies failed: %v", failedPreds),
			FailedDependencies: failedPreds,
		}
		e.finish(ctx, result, start, log)
		return result
	}

	merged := e.mergeInput(meta, callerInput, n.preds, state)
	result.InputDataUsed = merged

	if err := validateInput(meta.InputSpec, merged); err != nil {
		result.Status = models.ExecutionFailure
		result.Error = &models.ExecutionError{Type: errTypeInput, Message: err.Error()}
		e.finish(ctx, result, start, log)
		return result
	}

	if e.cacheEnabled {
		if cached, err := e.cache.Get(ctx, meta.ID, merged); err != nil {
			log.Warn("result cache lookup failed", slog.String("error", err.Error()))
		} else if cached != nil {
			log.Info("result cache hit", slog.String("plugin", meta.ID))
			return cached
		}
	}

	output, err := e.invoke(ctx, meta, merged)
	if err != nil {
		result.Status = models.ExecutionFailure
		result.Error = &models.ExecutionError{
			Type:    errTypeProcessing,
			Message: err.Error(),
			Stack:   string(debug.Stack()),
		}
	} else {
		result.Status = models.ExecutionSuccess
		result.OutputResult = output
	}
	e.finish(ctx, result, start, log)

	if e.cacheEnabled && result.Status == models.ExecutionSuccess {
		if err := e.cache.Set(ctx, result); err != nil {
			log.Warn("result cache write failed", slog.String("error", err.Error()))
		}
	}
	return result
}

// invoke resolves the factory and runs the plugin, converting panics into
// errors so one plugin cannot take the whole DAG down.
func (e *Engine) invoke(ctx context.Context, meta *models.PluginMetadata, input map[string]any) (output map[string]any, err error) {
	factory, ferr := e.catalog.Resolve(meta.Runtime)
	if ferr != nil {
		return nil, ferr
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("plugin %s panicked: %v", meta.ID, rec)
		}
	}()
	return factory(e.deps).Execute(ctx, input)
}

// mergeInput layers the node input: config defaults under the caller's
// payload, predecessor outputs on top. Overwrite order among parallel
// predecessors is unspecified; plugins must not rely on it for equal keys.
func (e *Engine) mergeInput(meta *models.PluginMetadata, callerInput map[string]any, preds []string, state *execState) map[string]any {
	merged := make(map[string]any)
	for k, v := range meta.Config {
		merged[k] = v
	}
	for k, v := range callerInput {
		merged[k] = v
	}
	for _, pred := range preds {
		if r := state.get(pred); r != nil {
			for k, v := range r.OutputResult {
				merged[k] = v
			}
		}
	}
	return merged
}

func (e *Engine) finish(ctx context.Context, result *models.ExecutionResult, start time.Time, log *slog.Logger) {
	result.EndTime = time.Now().UTC()
	result.ExecutionTime = result.EndTime.Sub(start)
	observability.ObservePluginRun(result.AnalyticsID, string(result.Status), result.ExecutionTime)
	if err := e.results.Save(ctx, result); err != nil {
		log.Error("failed to persist execution result",
			slog.String("result_id", result.ResultID),
			slog.String("error", err.Error()))
	}
	if result.Error != nil {
		log.Warn("plugin execution failed",
			slog.String("plugin", result.AnalyticsID),
			slog.String("error_type", result.Error.Type),
			slog.String("error", result.Error.Message))
	}
}

func (e *Engine) cancelledResult(meta *models.PluginMetadata, cause error) *models.ExecutionResult {
	now := time.Now().UTC()
	return &models.ExecutionResult{
		ResultID:    models.NewResultID(meta.ID, now),
		AnalyticsID: meta.ID,
		Status:      models.ExecutionTimeout,
		Error:       &models.ExecutionError{Type: errTypeProcessing, Message: cause.Error()},
		StartTime:   now,
		EndTime:     now,
	}
}

// validateInput checks the merged payload against the input spec.
func validateInput(specs []models.FieldSpec, input map[string]any) error {
	for _, f := range specs {
		value, present := input[f.Name]
		if !present || value == nil {
			if f.Required && f.Default == nil {
				return fmt.Errorf("%w: missing required input %q", utils.ErrInvalidInput, f.Name)
			}
			continue
		}
		if !f.Type.CheckValue(value) {
			return fmt.Errorf("%w: input %q does not match type %s", utils.ErrInvalidInput, f.Name, f.Type)
		}
	}
	return nil
}
