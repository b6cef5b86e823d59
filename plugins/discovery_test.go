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
)

func TestCausalDiscoveryMinesSequentialModel(t *testing.T) {
	deps := newTestDeps(t)
	traceIDs := []string{"T1", "T2"}
	for i, traceID := range traceIDs {
		start := testEpoch.Add(time.Duration(i) * time.Minute)
		_, err := deps.DataManager.Store(context.Background(), &models.Element{
			ElementID: traceID,
			Kind:      models.KindTrace,
			Trace: &models.Trace{
				ServiceName: "checkout-agent",
				StartTime:   start,
			},
		})
		require.NoError(t, err)
		seedTask(t, deps, traceID, traceID+"-plan", "plan", "", nil, 0)
		seedTask(t, deps, traceID, traceID+"-search", "search", "", nil, 10)
		seedTask(t, deps, traceID, traceID+"-answer", "answer", "", nil, 20)
	}
	_, err := deps.DataManager.Store(context.Background(), &models.Element{
		ElementID:  "G1",
		Kind:       models.KindTraceGroup,
		TraceGroup: &models.TraceGroup{ServiceName: "checkout-agent", TraceIDs: traceIDs},
	})
	require.NoError(t, err)

	p := NewCausalDiscoveryLight(deps)
	out, err := p.Execute(context.Background(), map[string]any{"trace_group_id": "G1"})
	require.NoError(t, err)
	assert.Equal(t, 3, out["node_count"])
	assert.Equal(t, 2, out["edge_count"])

	workflowID, ok := out["workflow_id"].(string)
	require.True(t, ok)
	workflow, err := deps.DataManager.GetByID(context.Background(), workflowID, models.KindWorkflow, "")
	require.NoError(t, err)
	require.NotNil(t, workflow)
	assert.Len(t, workflow.Workflow.NodeIDs, 3)
	assert.Len(t, workflow.Workflow.EdgeIDs, 2)
	assert.Len(t, workflow.Workflow.EntryNodeIDs, 1)
	assert.Len(t, workflow.Workflow.ExitNodeIDs, 1)

	nodes, err := deps.DataManager.GetChildren(context.Background(), workflowID, models.KindWorkflowNode, "")
	require.NoError(t, err)
	activities := map[string]int{}
	for _, n := range nodes {
		activities[n.WorkflowNode.Activity] = n.WorkflowNode.Support
	}
	assert.Equal(t, map[string]int{"plan": 2, "search": 2, "answer": 2}, activities)

	edges, err := deps.DataManager.GetChildren(context.Background(), workflowID, models.KindWorkflowEdge, "")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	for _, e := range edges {
		assert.Equal(t, models.EdgeSequence, e.WorkflowEdge.EdgeType)
		assert.Equal(t, 2, e.WorkflowEdge.Support)
	}

	// The trace workflow ties the model back to the group and its traces.
	tw, err := deps.DataManager.GetByID(context.Background(), out["trace_workflow_id"].(string), models.KindTraceWorkflow, "")
	require.NoError(t, err)
	require.NotNil(t, tw)
	assert.Equal(t, "G1", tw.TraceWorkflow.TraceGroupID)
	assert.Equal(t, workflowID, tw.TraceWorkflow.WorkflowID)
	assert.ElementsMatch(t, traceIDs, tw.TraceWorkflow.TraceIDs)
}

func TestMineAlphaClassifiesBranches(t *testing.T) {
	// a is followed by b or c exclusively -> XOR split; b and c never
	// co-occur so no AND edge appears.
	model := mineAlpha([][]string{
		{"a", "b", "d"},
		{"a", "c", "d"},
	})
	byPair := map[string]models.WorkflowEdgeType{}
	for _, e := range model.edges {
		byPair[e.from+">"+e.to] = e.edgeType
	}
	assert.Equal(t, models.EdgeXor, byPair["a>b"])
	assert.Equal(t, models.EdgeXor, byPair["a>c"])
	assert.Equal(t, models.EdgeSequence, byPair["b>d"])
	assert.Equal(t, models.EdgeSequence, byPair["c>d"])

	// b and c observed in both orders -> parallel AND pair.
	model = mineAlpha([][]string{
		{"a", "b", "c", "d"},
		{"a", "c", "b", "d"},
	})
	var andEdges int
	for _, e := range model.edges {
		if e.edgeType == models.EdgeAnd {
			andEdges++
			assert.ElementsMatch(t, []string{"b", "c"}, []string{e.from, e.to})
		}
	}
	assert.Equal(t, 1, andEdges)
}

func TestIssueDistributionRollsUpParentTree(t *testing.T) {
	deps := newTestDeps(t)
	seedTask(t, deps, "T1", "root", "root", "", nil, 0)
	seedTask(t, deps, "T1", "child", "child", "root", nil, 10)

	storeIssue := func(id, taskID string, level models.IssueLevel) {
		issue := models.Element{
			ElementID: id,
			Kind:      models.KindIssue,
			RootID:    "T1",
			Issue:     &models.Issue{Level: level, Timestamp: testEpoch},
		}
		issue.AddRelation(taskID, models.KindTask)
		_, err := deps.DataManager.Store(context.Background(), &issue)
		require.NoError(t, err)
	}
	storeIssue("I1", "root", models.IssueLevelWarning)
	storeIssue("I2", "child", models.IssueLevelError)

	p := NewIssueDistributionTrace(deps)
	out, err := p.Execute(context.Background(), map[string]any{"trace_id": "T1"})
	require.NoError(t, err)
	assert.Len(t, out["metrics"], 2)

	distributionFor := func(taskID string) map[string]int {
		metrics, err := deps.DataManager.GetChildren(context.Background(), taskID, models.KindMetric, "")
		require.NoError(t, err)
		require.Len(t, metrics, 1)
		return metrics[0].Metric.Value.Distribution
	}
	assert.Equal(t, map[string]int{"WARNING": 1, "ERROR": 1}, distributionFor("root"))
	assert.Equal(t, map[string]int{"ERROR": 1}, distributionFor("child"))
}
