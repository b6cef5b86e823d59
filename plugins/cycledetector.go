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
	"sort"
	"time"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

const defaultMinOccurrences = 2

// CycleDetector finds repetition loops in the task dependency graph of a
// trace: an agent bouncing between the same tools is a latency and cost
// smell. One WARNING Issue is emitted per maximal cycle.
type CycleDetector struct {
	deps analytics.Deps
}

func NewCycleDetector(deps analytics.Deps) *CycleDetector {
	return &CycleDetector{deps: deps}
}

func (p *CycleDetector) InputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "trace_id", Type: models.FieldTypeString, Required: true},
		{Name: "min_occurrences", Type: models.FieldTypeInteger},
	}
}

func (p *CycleDetector) OutputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "issues", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny},
	}
}

func (p *CycleDetector) DefaultConfig() map[string]any {
	return map[string]any{"min_occurrences": defaultMinOccurrences}
}

func (p *CycleDetector) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	traceID := inputString(input, "trace_id")
	if traceID == "" {
		return nil, fmt.Errorf("%w: trace_id is required", utils.ErrInvalidInput)
	}
	minOccurrences := inputInt(input, "min_occurrences", defaultMinOccurrences)

	taskEls, err := p.deps.DataManager.GetChildren(ctx, traceID, models.KindTask, "")
	if err != nil {
		return nil, err
	}

	nameByID := make(map[string]string, len(taskEls))
	// Edges follow execution order: dependency -> dependent.
	edges := make(map[string][]string)
	for i := range taskEls {
		el := &taskEls[i]
		nameByID[el.ElementID] = el.Name
		if el.Task == nil {
			continue
		}
		for _, dep := range el.Task.DependentIDs {
			edges[dep] = append(edges[dep], el.ElementID)
		}
	}

	cycles := simpleCycles(edges)
	cycles = filterByRepetition(cycles, nameByID, minOccurrences)
	cycles = maximalCycles(cycles)

	var issues []models.Element
	for i, cycle := range cycles {
		names := make([]string, 0, len(cycle))
		for _, id := range cycle {
			names = append(names, nameByID[id])
		}
		issue := models.Element{
			ElementID: models.NewElementID(models.KindIssue),
			Kind:      models.KindIssue,
			RootID:    traceID,
			Name:      fmt.Sprintf("task_cycle.cycle_no.%d.length.%d", i+1, len(cycle)),
			Attributes: map[string]any{
				"cycle_task_names": names,
				"cycle_length":     len(cycle),
			},
			Issue: &models.Issue{
				Level:     models.IssueLevelWarning,
				Effect:    names,
				Timestamp: time.Now().UTC(),
			},
		}
		for _, id := range cycle {
			issue.AddRelation(id, models.KindTask)
		}
		issues = append(issues, issue)
	}

	if len(issues) > 0 {
		if _, err := p.deps.DataManager.BulkStore(ctx, issues, true); err != nil {
			return nil, err
		}
	}
	return map[string]any{"issues": encodeList(issues)}, nil
}

// simpleCycles enumerates the simple cycles of the graph by DFS from every
// node, recording a cycle when the path returns to its origin. Cycles are
// canonicalized by rotating the smallest node id to the front so the same
// loop found from different origins counts once.
func simpleCycles(edges map[string][]string) [][]string {
	seen := map[string]bool{}
	var cycles [][]string

	var nodes []string
	for from := range edges {
		nodes = append(nodes, from)
	}
	sort.Strings(nodes)

	for _, origin := range nodes {
		var path []string
		onPath := map[string]bool{}

		var dfs func(node string)
		dfs = func(node string) {
			path = append(path, node)
			onPath[node] = true
			for _, next := range edges[node] {
				if next == origin {
					cycle := canonicalizeCycle(path)
					key := fmt.Sprint(cycle)
					if !seen[key] {
						seen[key] = true
						cycles = append(cycles, cycle)
					}
					continue
				}
				if !onPath[next] {
					dfs(next)
				}
			}
			onPath[node] = false
			path = path[:len(path)-1]
		}
		dfs(origin)
	}
	return cycles
}

// canonicalizeCycle rotates the lexicographically smallest element to the
// front, preserving the cyclic order.
func canonicalizeCycle(path []string) []string {
	minIdx := 0
	for i, id := range path {
		if id < path[minIdx] {
			minIdx = i
		}
	}
	cycle := make([]string, 0, len(path))
	cycle = append(cycle, path[minIdx:]...)
	cycle = append(cycle, path[:minIdx]...)
	return cycle
}

// filterByRepetition keeps cycles in which some task name recurs at least
// minOccurrences times along the closed walk. The walk revisits its origin,
// so a name's occurrence count is its count inside the cycle plus one.
func filterByRepetition(cycles [][]string, nameByID map[string]string, minOccurrences int) [][]string {
	if minOccurrences <= 1 {
		return cycles
	}
	var kept [][]string
	for _, cycle := range cycles {
		counts := map[string]int{}
		for _, id := range cycle {
			counts[nameByID[id]]++
		}
		for _, count := range counts {
			if count+1 >= minOccurrences {
				kept = append(kept, cycle)
				break
			}
		}
	}
	return kept
}

// maximalCycles drops cycles that are proper subsequences of a longer kept
// cycle.
func maximalCycles(cycles [][]string) [][]string {
	sort.Slice(cycles, func(i, j int) bool { return len(cycles[i]) > len(cycles[j]) })
	var kept [][]string
	for _, candidate := range cycles {
		contained := false
		for _, larger := range kept {
			if len(larger) > len(candidate) && isSubsequence(candidate, larger) {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// isSubsequence reports whether small appears in order (not necessarily
// contiguously) within large.
func isSubsequence(small, large []string) bool {
	i := 0
	for _, id := range large {
		if i < len(small) && small[i] == id {
			i++
		}
	}
	return i == len(small)
}
