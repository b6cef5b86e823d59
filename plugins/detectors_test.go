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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
)

func TestCycleDetectorFindsMaximalCycle(t *testing.T) {
	deps := newTestDeps(t)
	// A -> B -> C -> A plus D -> E (dependency edges run dep -> dependent).
	seedTask(t, deps, "T1", "A", "A", "", []string{"C"}, 0)
	seedTask(t, deps, "T1", "B", "B", "", []string{"A"}, 10)
	seedTask(t, deps, "T1", "C", "C", "", []string{"B"}, 20)
	seedTask(t, deps, "T1", "D", "D", "", nil, 30)
	seedTask(t, deps, "T1", "E", "E", "", []string{"D"}, 40)

	p := NewCycleDetector(deps)
	out, err := p.Execute(context.Background(), map[string]any{
		"trace_id":        "T1",
		"min_occurrences": 2,
	})
	require.NoError(t, err)
	require.Len(t, out["issues"], 1)

	issues, err := deps.DataManager.GetChildren(context.Background(), "T1", models.KindIssue, "")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	issue := issues[0]
	assert.Equal(t, models.IssueLevelWarning, issue.Issue.Level)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, issue.Issue.Effect)
	assert.Contains(t, issue.Name, "cycle_no.1")
	assert.ElementsMatch(t, []string{"A", "B", "C"}, issue.RelatedToIDs)
}

func TestCycleDetectorNoCycleNoIssue(t *testing.T) {
	deps := newTestDeps(t)
	seedTask(t, deps, "T1", "D", "D", "", nil, 0)
	seedTask(t, deps, "T1", "E", "E", "", []string{"D"}, 10)

	p := NewCycleDetector(deps)
	out, err := p.Execute(context.Background(), map[string]any{"trace_id": "T1"})
	require.NoError(t, err)
	assert.Empty(t, out["issues"])
}

func TestCycleDetectorSubCyclesDropped(t *testing.T) {
	// A->B->A nested inside A->B->C->A: only the maximal cycle survives.
	edges := map[string][]string{
		"A": {"B"},
		"B": {"A", "C"},
		"C": {"A"},
	}
	cycles := simpleCycles(edges)
	cycles = maximalCycles(cycles)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"A", "B", "C"}, cycles[0])
}

func TestChangePointDetectorFindsUpwardShift(t *testing.T) {
	deps := newTestDeps(t)
	values := make([]float64, 30)
	for i := range values {
		if i < 15 {
			values[i] = 1.0
		} else {
			values[i] = 5.0
		}
	}
	seedMetricGroup(t, deps, "G1", "execution_time", values)

	p := NewChangePointDetector(deps)
	out, err := p.Execute(context.Background(), map[string]any{
		"trace_group_id":     "G1",
		"metric_name":        "execution_time",
		"min_observations":   10,
		"change_ratio_bound": 0.5,
		"window_max":         10,
		"direction":          "up",
	})
	require.NoError(t, err)
	require.Len(t, out["issues"], 1)
	assert.Equal(t, []any{15}, out["changepoints"])

	issues, err := deps.DataManager.GetChildren(context.Background(), "G1", models.KindIssue, "")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	issue := issues[0]
	assert.Equal(t, "up", issue.Attributes["direction"])
	assert.InDelta(t, 1.0, issue.Attributes["mean_before"].(float64), 1e-9)
	assert.InDelta(t, 5.0, issue.Attributes["mean_after"].(float64), 1e-9)
	assert.Contains(t, issue.Name, "execution_time")
}

func TestChangePointDetectorDirectionFilter(t *testing.T) {
	deps := newTestDeps(t)
	values := make([]float64, 30)
	for i := range values {
		if i < 15 {
			values[i] = 5.0
		} else {
			values[i] = 1.0 // downward shift
		}
	}
	seedMetricGroup(t, deps, "G1", "execution_time", values)

	p := NewChangePointDetector(deps)
	out, err := p.Execute(context.Background(), map[string]any{
		"trace_group_id": "G1",
		"metric_name":    "execution_time",
		"direction":      "up",
	})
	require.NoError(t, err)
	assert.Empty(t, out["issues"], "downward shift must not match direction=up")
}

func TestChangePointDetectorBelowMinObservations(t *testing.T) {
	deps := newTestDeps(t)
	seedMetricGroup(t, deps, "G1", "execution_time", []float64{1, 1, 5, 5})

	p := NewChangePointDetector(deps)
	out, err := p.Execute(context.Background(), map[string]any{
		"trace_group_id":   "G1",
		"metric_name":      "execution_time",
		"min_observations": 10,
	})
	require.NoError(t, err)
	assert.Empty(t, out["issues"])
}

func TestPeltStableSeriesNoChangepoints(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 2.0
	}
	assert.Empty(t, peltMeanShift(values))
}

// seedMetricGroup creates a trace group whose traces each carry one numeric
// metric observation, timestamped in series order.
func seedMetricGroup(t *testing.T, deps analytics.Deps, groupID, metricName string, values []float64) {
	t.Helper()
	traceIDs := make([]string, 0, len(values))
	for i, v := range values {
		traceID := fmt.Sprintf("tr-%02d", i)
		traceIDs = append(traceIDs, traceID)
		start := testEpoch.Add(time.Duration(i) * time.Minute)
		_, err := deps.DataManager.Store(context.Background(), &models.Element{
			ElementID: traceID,
			Kind:      models.KindTrace,
			Trace: &models.Trace{
				ServiceName: "checkout-agent",
				StartTime:   start,
				EndTime:     start.Add(time.Second),
			},
		})
		require.NoError(t, err)

		metric := models.NumericMetric(v)
		metric.Timestamp = start
		_, err = deps.DataManager.Store(context.Background(), &models.Element{
			ElementID: models.NewElementID(models.KindMetric),
			Kind:      models.KindMetric,
			RootID:    traceID,
			Name:      metricName,
			Metric:    &metric,
		})
		require.NoError(t, err)
	}
	_, err := deps.DataManager.Store(context.Background(), &models.Element{
		ElementID:  groupID,
		Kind:       models.KindTraceGroup,
		TraceGroup: &models.TraceGroup{ServiceName: "checkout-agent", TraceIDs: traceIDs},
	})
	require.NoError(t, err)
}
