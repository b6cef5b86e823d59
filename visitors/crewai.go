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
	"strings"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/traversal"
)

// keyCrewGraph holds the per-traversal crew graph: the crew task sequence
// used to wire sequential-process dependencies.
const keyCrewGraph = "CREW_GRAPH"

// crewGraph records the crew run observed in one traversal.
type crewGraph struct {
	// process is "sequential" or "hierarchical"; CrewAI defaults to
	// sequential when the kickoff span does not say.
	process string
	// taskOrder holds crew task element ids in execution order.
	taskOrder []string
	// agents maps agent role to the agent task element id.
	agents map[string]string
}

// NewCrewAIVisitor recognizes CrewAI spans: Crew.kickoff, Task.execute and
// Task.created, agent executions, and tool usage. It builds a crew graph
// linking tasks in process order.
func NewCrewAIVisitor() traversal.Processor {
	return &baseVisitor{hooks: &crewAIVisitor{}}
}

type crewAIVisitor struct{}

func (v *crewAIVisitor) Name() string { return "crewai" }

func isCrewService(span *models.Span) bool {
	return strings.Contains(strings.ToLower(span.Resource.ServiceName), "crewai") ||
		span.StringAttribute("gen_ai.system") == "crewai"
}

func (v *crewAIVisitor) IsFrameworkSpan(span *models.Span, _ *traversal.Context) bool {
	name := spanName(span)
	switch name {
	case "Crew.kickoff", "Task.execute", "Task.created":
		return true
	}
	if span.HasAttribute("crewai.task.name") || span.HasAttribute("crewai.crew.id") ||
		span.HasAttribute("crewai.agent.role") {
		return true
	}
	if !isCrewService(span) {
		return false
	}
	return strings.HasSuffix(name, ".agent") || strings.HasSuffix(name, ".tool") ||
		strings.Contains(name, "Agent._execute") || strings.Contains(name, "ToolUsage")
}

func (v *crewAIVisitor) BuildTask(_ context.Context, span *models.Span, tctx *traversal.Context) *models.Element {
	name := spanName(span)
	graph := crewGraphFor(tctx)

	switch {
	case name == "Crew.kickoff":
		task := newTaskElement(span, models.TaskKindAgent)
		task.Name = "crew"
		if process := span.StringAttribute("crewai.crew.process"); process != "" {
			graph.process = process
			task.SetAttribute("process", process)
		}
		task.AddTag("crewai")
		task.AddTag("crew")
		return task

	case name == "Task.created":
		// Pure bookkeeping; the execution span carries the content.
		return nil

	case name == "Task.execute" || span.HasAttribute("crewai.task.name"):
		task := newTaskElement(span, models.TaskKindAgent)
		if taskName := span.StringAttribute("crewai.task.name"); taskName != "" {
			task.Name = taskName
		}
		if desc := span.StringAttribute("crewai.task.description"); desc != "" {
			task.Description = desc
			task.Task.Input.Goal = desc
		}
		if agent := span.StringAttribute("crewai.task.agent"); agent != "" {
			task.SetAttribute("agent_role", agent)
		}
		if tools := parseJSONList(span.StringAttribute("crewai.task.tools")); len(tools) > 0 {
			task.SetAttribute("tools", tools)
		}
		if out := span.StringAttribute("crewai.task.output"); out != "" {
			task.Task.Output.Data = map[string]any{"output": out}
		}
		// Sequential crews execute tasks one after another; wire each task
		// to its predecessor in kickoff order.
		if graph.process != "hierarchical" && len(graph.taskOrder) > 0 {
			task.Task.DependentIDs = []string{graph.taskOrder[len(graph.taskOrder)-1]}
		}
		graph.taskOrder = append(graph.taskOrder, task.ElementID)
		task.AddTag("crewai")
		task.AddTag("crew_task")
		return task

	case span.HasAttribute("crewai.agent.role") || strings.Contains(name, "Agent._execute") || strings.HasSuffix(name, ".agent"):
		task := newTaskElement(span, models.TaskKindAgent)
		if role := span.StringAttribute("crewai.agent.role"); role != "" {
			task.Name = role
			graph.agents[role] = task.ElementID
			task.SetAttribute("agent_role", role)
		}
		if goal := span.StringAttribute("crewai.agent.goal"); goal != "" {
			task.Task.Input.Goal = goal
		}
		task.AddTag("crewai")
		task.AddTag("crew_agent")
		return task

	default: // tool usage under a crew agent
		task := newTaskElement(span, models.TaskKindTool)
		if tool := span.StringAttribute("crewai.tool.name"); tool != "" {
			task.Name = tool
		}
		task.AddTag("crewai")
		return task
	}
}

func crewGraphFor(tctx *traversal.Context) *crewGraph {
	if g, ok := tctx.Get(keyCrewGraph).(*crewGraph); ok {
		return g
	}
	g := &crewGraph{process: "sequential", agents: make(map[string]string)}
	tctx.Set(keyCrewGraph, g)
	return g
}
