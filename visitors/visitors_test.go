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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
)

func testSpan(traceID, spanID, parentID, name string, start, end int64, attrs map[string]any) models.Span {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return models.Span{
		Context:       models.SpanContext{TraceID: traceID, SpanID: spanID},
		Name:          name,
		ParentID:      parentID,
		Kind:          models.SpanKindInternal,
		StartTime:     base.Add(time.Duration(start) * time.Millisecond),
		EndTime:       base.Add(time.Duration(end) * time.Millisecond),
		Status:        models.SpanStatusOK,
		RawAttributes: attrs,
	}
}

func taskByID(tasks []*models.Element, id string) *models.Element {
	for _, t := range tasks {
		if t.ElementID == id {
			return t
		}
	}
	return nil
}

// Base spec scenario: a manual task span with a tool child yields two tasks
// under the trace and two actions, one generated from the tool span name.
func TestManualTaskWithToolChild(t *testing.T) {
	spans := []models.Span{
		testSpan("T1", "S1", "", "agent.task", 0, 100, map[string]any{
			"gen_ai.task.id": "Task-A",
		}),
		testSpan("T1", "S2", "S1", "tool.search.tool", 10, 50, nil),
	}

	tasks, actions := ExtractTaskGraph(context.Background(), spans, NewActionDedup())

	require.Len(t, tasks, 2)
	manual := taskByID(tasks, "Task-A")
	require.NotNil(t, manual)
	assert.Equal(t, "T1", manual.RootID)
	assert.Equal(t, "agent", manual.Name)
	assert.Empty(t, manual.Task.ParentID)

	tool := taskByID(tasks, "Task-S2")
	require.NotNil(t, tool)
	assert.Equal(t, "T1", tool.RootID)
	assert.Equal(t, "Task-A", tool.Task.ParentID)
	assert.Equal(t, models.TaskKindTool, tool.Task.Kind)
	assert.Equal(t, models.LogReference{TraceID: "T1", SpanID: "S2"}, tool.Task.LogReference)

	require.Len(t, actions, 2)
	var toolAction *models.Element
	for _, a := range actions {
		if a.Action.CodeID == "tool.search" {
			toolAction = a
		}
	}
	require.NotNil(t, toolAction)
	assert.Equal(t, models.ActionKindTool, toolAction.Action.Kind)
	assert.True(t, toolAction.Action.IsGenerated)
	assert.Equal(t, toolAction.ElementID, tool.Task.ActionID)
}

func TestManualTaskParsesFullSchema(t *testing.T) {
	spans := []models.Span{
		testSpan("T1", "S1", "", "plan.task", 0, 100, map[string]any{
			"gen_ai.task.id":                 "Task-Plan",
			"gen_ai.task.kind":               "agent",
			"gen_ai.task.state":              "completed",
			"gen_ai.task.status":             "success",
			"gen_ai.task.input.goal":         "book a flight",
			"gen_ai.task.input.instructions": `["use the cheapest fare"]`,
			"gen_ai.task.input.data":         `{"destination":"CDG"}`,
			"gen_ai.task.output.data":        `{"booking_id":"B42"}`,
			"gen_ai.task.output.ranking":     "0.9",
			"gen_ai.task.requester":          "user-1",
			"gen_ai.task.session":            "sess-1",
			"gen_ai.task.priority":           "2",
			"gen_ai.task.vendor":             "acme",
		}),
	}

	tasks, _ := ExtractTaskGraph(context.Background(), spans, NewActionDedup())
	require.Len(t, tasks, 1)
	task := tasks[0].Task
	assert.Equal(t, models.TaskKindAgent, task.Kind)
	assert.Equal(t, models.TaskStateCompleted, task.State)
	assert.Equal(t, models.TaskStatusSuccess, task.Status)
	assert.Equal(t, "book a flight", task.Input.Goal)
	assert.Equal(t, []string{"use the cheapest fare"}, task.Input.Instructions)
	assert.Equal(t, map[string]any{"destination": "CDG"}, task.Input.Data)
	assert.Equal(t, map[string]any{"booking_id": "B42"}, task.Output.Data)
	assert.InDelta(t, 0.9, task.Output.Ranking, 1e-9)
	assert.Equal(t, "user-1", task.Requester)
	assert.Equal(t, "sess-1", task.SessionID)
	assert.Equal(t, 2, task.Priority)
	assert.Equal(t, "acme", task.Vendor)
}

func TestLLMVisitorExtractsTokens(t *testing.T) {
	spans := []models.Span{
		testSpan("T1", "S1", "", "openai.chat", 0, 100, map[string]any{
			"gen_ai.system":                  "openai",
			"gen_ai.request.model":           "gpt-4o",
			"gen_ai.usage.input_tokens":      float64(120),
			"gen_ai.usage.completion_tokens": float64(30),
		}),
	}

	tasks, actions := ExtractTaskGraph(context.Background(), spans, NewActionDedup())
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, models.TaskKindLLM, task.Task.Kind)
	assert.Equal(t, "openai", task.Task.Vendor)
	assert.Equal(t, 120, task.Attributes["input_tokens"])
	assert.Equal(t, 30, task.Attributes["output_tokens"])
	assert.Equal(t, 150, task.Attributes["total_tokens"])

	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionKindLLM, actions[0].Action.Kind)
}

func TestCrewAISequentialTasksChained(t *testing.T) {
	spans := []models.Span{
		testSpan("T1", "S1", "", "Crew.kickoff", 0, 1000, map[string]any{
			"crewai.crew.process": "sequential",
		}),
		testSpan("T1", "S2", "S1", "Task.execute", 10, 400, map[string]any{
			"crewai.task.name": "research",
		}),
		testSpan("T1", "S3", "S1", "Task.execute", 410, 900, map[string]any{
			"crewai.task.name": "write",
		}),
	}

	tasks, _ := ExtractTaskGraph(context.Background(), spans, NewActionDedup())
	require.Len(t, tasks, 3)

	write := taskByID(tasks, "Task-S3")
	require.NotNil(t, write)
	assert.Equal(t, "write", write.Name)
	assert.Equal(t, []string{"Task-S2"}, write.Task.DependentIDs)
	assert.Equal(t, "Task-S1", write.Task.ParentID)
}

func TestLangfuseObservationMapping(t *testing.T) {
	spans := []models.Span{
		testSpan("T1", "S1", "", "generate-answer", 0, 100, map[string]any{
			"langfuse.observation.type":  "generation",
			"langfuse.observation.input": `{"question":"why"}`,
		}),
		testSpan("T1", "S2", "", "guard", 200, 210, map[string]any{
			"langfuse.observation.type": "guardrail",
		}),
	}

	tasks, _ := ExtractTaskGraph(context.Background(), spans, NewActionDedup())
	require.Len(t, tasks, 2)
	assert.Equal(t, models.TaskKindLLM, taskByID(tasks, "Task-S1").Task.Kind)
	assert.Equal(t, map[string]any{"question": "why"}, taskByID(tasks, "Task-S1").Task.Input.Data)
	assert.Equal(t, models.TaskKindGuardrail, taskByID(tasks, "Task-S2").Task.Kind)
}

func TestVectorDBDetection(t *testing.T) {
	spans := []models.Span{
		testSpan("T1", "S1", "", "qdrant.search", 0, 20, map[string]any{
			"db.system":    "qdrant",
			"db.operation": "search",
		}),
	}

	tasks, actions := ExtractTaskGraph(context.Background(), spans, NewActionDedup())
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskKindVectorDB, tasks[0].Task.Kind)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionKindVectorDB, actions[0].Action.Kind)
}

func TestSiblingDependencyDetection(t *testing.T) {
	spans := []models.Span{
		testSpan("T1", "S1", "", "pipeline.workflow", 0, 1000, nil),
		testSpan("T1", "S2", "S1", "fetch.tool", 10, 100, nil),
		testSpan("T1", "S3", "S1", "parse.tool", 110, 200, nil),
		// overlaps with S3: parallel, no edge between them
		testSpan("T1", "S4", "S1", "rank.tool", 150, 250, nil),
	}

	tasks, _ := ExtractTaskGraph(context.Background(), spans, NewActionDedup())
	require.Len(t, tasks, 4)

	parse := taskByID(tasks, "Task-S3")
	rank := taskByID(tasks, "Task-S4")
	assert.Equal(t, []string{"Task-S2"}, parse.Task.DependentIDs)
	// rank started before parse ended, so it depends only on fetch
	assert.Equal(t, []string{"Task-S2"}, rank.Task.DependentIDs)
}

// Base spec scenario: equal code ids across concurrently processed traces
// collapse to one canonical action.
func TestActionDedupAcrossConcurrentTraces(t *testing.T) {
	dedup := NewActionDedup()
	const traces = 8

	type result struct {
		tasks   []*models.Element
		actions []*models.Element
	}
	results := make([]result, traces)

	var wg sync.WaitGroup
	for i := 0; i < traces; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			traceID := fmt.Sprintf("T%d", i)
			spans := []models.Span{
				testSpan(traceID, fmt.Sprintf("S%d", i), "", "run.tool", 0, 50, map[string]any{
					"gen_ai.action.code.id": "lib.search:42:run",
					"gen_ai.action.kind":    "TOOL",
				}),
			}
			tasks, actions := ExtractTaskGraph(context.Background(), spans, dedup)
			results[i] = result{tasks: tasks, actions: actions}
		}(i)
	}
	wg.Wait()

	canonical := ""
	for _, r := range results {
		require.Len(t, r.actions, 1)
		assert.Equal(t, "lib.search:42:run", r.actions[0].Action.CodeID)
		if canonical == "" {
			canonical = r.actions[0].ElementID
		}
		assert.Equal(t, canonical, r.actions[0].ElementID)
		require.Len(t, r.tasks, 1)
		assert.Equal(t, canonical, r.tasks[0].Task.ActionID)
	}
}

func TestFirstMatchWinsAcrossVisitors(t *testing.T) {
	// Carries both the manual schema and an LLM-looking name: the manual
	// visitor runs first and claims it.
	spans := []models.Span{
		testSpan("T1", "S1", "", "openai.chat", 0, 100, map[string]any{
			"gen_ai.task.id":   "Task-M",
			"gen_ai.task.kind": "llm",
		}),
	}

	tasks, _ := ExtractTaskGraph(context.Background(), spans, NewActionDedup())
	require.Len(t, tasks, 1)
	assert.Equal(t, "Task-M", tasks[0].ElementID)
	assert.True(t, tasks[0].HasTag("manual_task"))
}
