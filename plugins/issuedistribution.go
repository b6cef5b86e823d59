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
	"time"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// IssueDistributionTrace rolls issue severities up the task parent tree:
// each task gets a DISTRIBUTION metric counting the issue levels of itself
// and all its descendants.
type IssueDistributionTrace struct {
	deps analytics.Deps
}

func NewIssueDistributionTrace(deps analytics.Deps) *IssueDistributionTrace {
	return &IssueDistributionTrace{deps: deps}
}

func (p *IssueDistributionTrace) InputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "trace_id", Type: models.FieldTypeString, Required: true},
	}
}

func (p *IssueDistributionTrace) OutputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "metrics", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny},
	}
}

func (p *IssueDistributionTrace) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	traceID := inputString(input, "trace_id")
	if traceID == "" {
		return nil, fmt.Errorf("%w: trace_id is required", utils.ErrInvalidInput)
	}

	taskEls, err := p.deps.DataManager.GetChildren(ctx, traceID, models.KindTask, "")
	if err != nil {
		return nil, err
	}
	if len(taskEls) == 0 {
		return map[string]any{"metrics": []any{}}, nil
	}

	children := map[string][]string{}
	for i := range taskEls {
		el := &taskEls[i]
		if el.Task != nil && el.Task.ParentID != "" {
			children[el.Task.ParentID] = append(children[el.Task.ParentID], el.ElementID)
		}
	}

	// Direct issue counts per task, from the backward relation query.
	direct := map[string]map[string]int{}
	for i := range taskEls {
		el := &taskEls[i]
		issues, err := p.deps.DataManager.GetElementsRelatedToArtifactAndType(ctx, el, models.KindIssue)
		if err != nil {
			return nil, err
		}
		counts := map[string]int{}
		for j := range issues {
			if issues[j].Issue != nil {
				counts[string(issues[j].Issue.Level)]++
			}
		}
		direct[el.ElementID] = counts
	}

	// Rollup with memoization; the task tree is acyclic by construction.
	rolled := map[string]map[string]int{}
	var rollup func(taskID string) map[string]int
	rollup = func(taskID string) map[string]int {
		if counts, done := rolled[taskID]; done {
			return counts
		}
		counts := map[string]int{}
		for level, n := range direct[taskID] {
			counts[level] += n
		}
		for _, child := range children[taskID] {
			for level, n := range rollup(child) {
				counts[level] += n
			}
		}
		rolled[taskID] = counts
		return counts
	}

	now := time.Now().UTC()
	var metrics []models.Element
	for i := range taskEls {
		el := &taskEls[i]
		counts := rollup(el.ElementID)
		if len(counts) == 0 {
			continue
		}
		metric := models.Element{
			ElementID: models.NewElementID(models.KindMetric),
			Kind:      models.KindMetric,
			RootID:    el.ElementID,
			Name:      "issue_distribution",
			Metric: &models.Metric{
				MetricType: models.MetricTypeDistribution,
				Value:      models.MetricValue{Distribution: counts},
				Timestamp:  now,
			},
		}
		metric.AddRelation(el.ElementID, models.KindTask)
		metrics = append(metrics, metric)
	}

	if len(metrics) > 0 {
		if _, err := p.deps.DataManager.BulkStore(ctx, metrics, true); err != nil {
			return nil, err
		}
	}
	return map[string]any{"metrics": encodeList(metrics)}, nil
}
