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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// actionQuery matches every stored action.
func actionQuery() store.Query { return store.Query{} }

func TestTaskAnalyticsExtractsAndPersists(t *testing.T) {
	deps := newTestDeps(t)
	seedSpan(t, deps, "T1", "S1", "", "agent.task", 0, 100,
		map[string]any{"gen_ai.task.id": "Task-A"}, nil)
	seedSpan(t, deps, "T1", "S2", "S1", "tool.search.tool", 10, 50, nil, nil)

	p := NewTaskAnalytics(deps)
	out, err := p.Execute(context.Background(), map[string]any{"trace_id": "T1"})
	require.NoError(t, err)
	assert.Len(t, out["tasks"], 2)
	assert.Len(t, out["actions"], 2)

	tasks, err := deps.DataManager.GetChildren(context.Background(), "T1", models.KindTask, "")
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	byID := map[string]*models.Element{}
	for i := range tasks {
		byID[tasks[i].ElementID] = &tasks[i]
	}
	require.Contains(t, byID, "Task-A")
	require.Contains(t, byID, "Task-S2")
	assert.Equal(t, "Task-A", byID["Task-S2"].Task.ParentID)
	assert.Equal(t, "T1", byID["Task-A"].RootID)

	actions, err := deps.DataManager.Search(context.Background(), models.KindAction, actionQuery())
	require.NoError(t, err)
	require.Len(t, actions, 2)
	var toolAction *models.Element
	for i := range actions {
		if actions[i].Action.CodeID == "tool.search" {
			toolAction = &actions[i]
		}
	}
	require.NotNil(t, toolAction)
	assert.Equal(t, models.ActionKindTool, toolAction.Action.Kind)
	assert.True(t, toolAction.Action.IsGenerated)
}

func TestTaskAnalyticsIdempotentPerTrace(t *testing.T) {
	deps := newTestDeps(t)
	seedSpan(t, deps, "T1", "S1", "", "agent.task", 0, 100,
		map[string]any{"gen_ai.task.id": "Task-A"}, nil)

	p := NewTaskAnalytics(deps)
	_, err := p.Execute(context.Background(), map[string]any{"trace_id": "T1"})
	require.NoError(t, err)

	out, err := p.Execute(context.Background(), map[string]any{"trace_id": "T1"})
	require.NoError(t, err)
	// The second run skips extraction and reports the existing tasks.
	assert.Len(t, out["tasks"], 1)

	tasks, err := deps.DataManager.GetChildren(context.Background(), "T1", models.KindTask, "")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestTaskAnalyticsExplicitSpansCreateTrace(t *testing.T) {
	deps := newTestDeps(t)
	spans := []models.Span{
		{
			Context:   models.SpanContext{TraceID: "T9", SpanID: "S1"},
			Name:      "agent.task",
			Kind:      models.SpanKindInternal,
			StartTime: testEpoch,
			EndTime:   testEpoch.Add(100 * time.Millisecond),
			Resource:  models.SpanResource{ServiceName: "checkout-agent"},
			RawAttributes: map[string]any{
				"gen_ai.task.id": "Task-X",
			},
		},
	}

	p := NewTaskAnalytics(deps)
	out, err := p.Execute(context.Background(), map[string]any{"spans": spans})
	require.NoError(t, err)
	assert.Len(t, out["tasks"], 1)

	trace, err := deps.DataManager.GetByID(context.Background(), "T9", models.KindTrace, "")
	require.NoError(t, err)
	require.NotNil(t, trace)
	assert.Equal(t, "checkout-agent", trace.Trace.ServiceName)
	assert.Equal(t, 1, trace.Trace.NumOfSpans)
}

func TestTaskAnalyticsTraceGroupInput(t *testing.T) {
	deps := newTestDeps(t)
	for _, traceID := range []string{"T1", "T2"} {
		_, err := deps.DataManager.Store(context.Background(), &models.Element{
			ElementID: traceID,
			Kind:      models.KindTrace,
			Trace:     &models.Trace{ServiceName: "checkout-agent"},
		})
		require.NoError(t, err)
		seedSpan(t, deps, traceID, traceID+"-S1", "", "agent.task", 0, 100,
			map[string]any{"gen_ai.task.id": "Task-" + traceID}, nil)
	}
	_, err := deps.DataManager.Store(context.Background(), &models.Element{
		ElementID:  "G1",
		Kind:       models.KindTraceGroup,
		TraceGroup: &models.TraceGroup{ServiceName: "checkout-agent", TraceIDs: []string{"T1", "T2"}},
	})
	require.NoError(t, err)

	p := NewTaskAnalytics(deps)
	out, err := p.Execute(context.Background(), map[string]any{"trace_group_id": "G1"})
	require.NoError(t, err)
	assert.Len(t, out["tasks"], 2)
}

func TestTaskAnalyticsRequiresSomeInput(t *testing.T) {
	deps := newTestDeps(t)
	p := NewTaskAnalytics(deps)
	_, err := p.Execute(context.Background(), map[string]any{})
	require.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestTaskAnalyticsDedupAcrossConcurrentTraces(t *testing.T) {
	deps := newTestDeps(t)
	for _, traceID := range []string{"TA", "TB"} {
		seedSpan(t, deps, traceID, traceID+"-S1", "", "lib.search", 0, 100,
			map[string]any{
				"gen_ai.task.id":        "Task-" + traceID,
				"gen_ai.action.code.id": "lib.search:42:run",
			}, nil)
	}

	p := NewTaskAnalytics(deps)
	out, err := p.Execute(context.Background(), map[string]any{
		"trace_ids":       []string{"TA", "TB"},
		"max_concurrency": 2,
	})
	require.NoError(t, err)
	assert.Len(t, out["tasks"], 2)

	actions, err := deps.DataManager.Search(context.Background(), models.KindAction, actionQuery())
	require.NoError(t, err)
	require.Len(t, actions, 1, "equal code ids collapse to one action")
	assert.Equal(t, "lib.search:42:run", actions[0].Action.CodeID)

	actionID := actions[0].ElementID
	for _, traceID := range []string{"TA", "TB"} {
		tasks, err := deps.DataManager.GetChildren(context.Background(), traceID, models.KindTask, "")
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, actionID, tasks[0].Task.ActionID)
	}
}
