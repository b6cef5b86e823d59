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

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/datamanager"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store/memory"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/visitors"
)

var testEpoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestDeps(t *testing.T) analytics.Deps {
	t.Helper()
	dm, err := datamanager.New(datamanager.Partition{Store: memory.NewStore()})
	require.NoError(t, err)
	return analytics.Deps{DataManager: dm, Dedup: visitors.NewActionDedup()}
}

// seedSpan stores one span element under its trace.
func seedSpan(t *testing.T, deps analytics.Deps, traceID, spanID, parentID, name string, startMs, endMs int, attrs map[string]any, events []models.SpanEvent) models.Span {
	t.Helper()
	span := models.Span{
		Context:       models.SpanContext{TraceID: traceID, SpanID: spanID},
		Name:          name,
		ParentID:      parentID,
		Kind:          models.SpanKindInternal,
		StartTime:     testEpoch.Add(time.Duration(startMs) * time.Millisecond),
		EndTime:       testEpoch.Add(time.Duration(endMs) * time.Millisecond),
		Status:        models.SpanStatusOK,
		Resource:      models.SpanResource{ServiceName: "checkout-agent"},
		RawAttributes: attrs,
		Events:        events,
	}
	_, err := deps.DataManager.Store(context.Background(), &models.Element{
		ElementID: spanID,
		Kind:      models.KindSpan,
		RootID:    traceID,
		Name:      name,
		Span:      &span,
	})
	require.NoError(t, err)
	return span
}

// seedTask stores one task element under its trace.
func seedTask(t *testing.T, deps analytics.Deps, traceID, taskID, name, parentID string, dependentIDs []string, startMs int) {
	t.Helper()
	_, err := deps.DataManager.Store(context.Background(), &models.Element{
		ElementID: taskID,
		Kind:      models.KindTask,
		RootID:    traceID,
		Name:      name,
		Task: &models.Task{
			Kind:         models.TaskKindTool,
			StartTime:    testEpoch.Add(time.Duration(startMs) * time.Millisecond),
			EndTime:      testEpoch.Add(time.Duration(startMs+10) * time.Millisecond),
			ParentID:     parentID,
			DependentIDs: dependentIDs,
			LogReference: models.LogReference{TraceID: traceID},
		},
	})
	require.NoError(t, err)
}

func TestRegisterBuiltins(t *testing.T) {
	catalog := analytics.NewCatalog()
	require.NoError(t, RegisterBuiltins(catalog))
	assert.Equal(t, []string{
		FactoryAnnotationAnalytics,
		FactoryCausalDiscoveryLight,
		FactoryChangePointDetector,
		FactoryCycleDetector,
		FactoryIssueAnalytics,
		FactoryIssueDistributionTrace,
		FactoryTaskAnalytics,
	}, catalog.Names())

	// Registering twice is a programming error.
	require.Error(t, RegisterBuiltins(catalog))
}

func TestIssueAnalyticsScansEventMarkers(t *testing.T) {
	deps := newTestDeps(t)
	seedSpan(t, deps, "T1", "S1", "", "agent.task", 0, 100, nil, []models.SpanEvent{
		{
			Name:      "guardrail_violation",
			Timestamp: testEpoch.Add(40 * time.Millisecond),
			Attributes: map[string]any{
				"issue_type": "Issue",
				"level":      "error",
			},
		},
		{Name: "irrelevant", Attributes: map[string]any{"foo": "bar"}},
	})

	p := NewIssueAnalytics(deps)
	out, err := p.Execute(context.Background(), map[string]any{"trace_id": "T1"})
	require.NoError(t, err)
	require.Len(t, out["issues"], 1)

	stored, err := deps.DataManager.GetChildren(context.Background(), "T1", models.KindIssue, "")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "guardrail_violation", stored[0].Name)
	assert.Equal(t, models.IssueLevelError, stored[0].Issue.Level)
	assert.Contains(t, stored[0].RelatedToIDs, "Task-S1")
}

func TestAnnotationAnalyticsScansIDPrefix(t *testing.T) {
	deps := newTestDeps(t)
	seedSpan(t, deps, "T1", "S1", "", "agent.task", 0, 100, nil, []models.SpanEvent{
		{
			Name:      "pii_segment",
			Timestamp: testEpoch.Add(10 * time.Millisecond),
			Attributes: map[string]any{
				"id":              "DataAnnotation-7f2a",
				"annotation_type": "pii",
				"segment_start":   12,
				"segment_end":     34,
			},
		},
	})

	p := NewAnnotationAnalytics(deps)
	out, err := p.Execute(context.Background(), map[string]any{"trace_id": "T1"})
	require.NoError(t, err)
	require.Len(t, out["annotations"], 1)

	stored, err := deps.DataManager.GetByID(context.Background(), "DataAnnotation-7f2a", models.KindAnnotation, "")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "pii", stored.Annotation.AnnotationType)
	assert.Equal(t, 12, stored.Annotation.SegmentStart)
	assert.Equal(t, 34, stored.Annotation.SegmentEnd)
}
