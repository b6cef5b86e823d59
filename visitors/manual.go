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
	"strconv"
	"strings"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/traversal"
)

// Manual gen_ai.task.* attribute keys: the explicit task schema applications
// emit when they instrument tasks by hand instead of relying on a framework.
const (
	attrTaskID           = "gen_ai.task.id"
	attrTaskKind         = "gen_ai.task.kind"
	attrTaskState        = "gen_ai.task.state"
	attrTaskStatus       = "gen_ai.task.status"
	attrTaskInputGoal    = "gen_ai.task.input.goal"
	attrTaskInputInstr   = "gen_ai.task.input.instructions"
	attrTaskInputExampl  = "gen_ai.task.input.examples"
	attrTaskInputData    = "gen_ai.task.input.data"
	attrTaskInputMeta    = "gen_ai.task.input.metadata"
	attrTaskOutputData   = "gen_ai.task.output.data"
	attrTaskOutputRank   = "gen_ai.task.output.ranking"
	attrTaskOutputMeta   = "gen_ai.task.output.metadata"
	attrTaskRequester    = "gen_ai.task.requester"
	attrTaskSession      = "gen_ai.task.session"
	attrTaskDependencies = "gen_ai.task.dependencies"
	attrTaskPriority     = "gen_ai.task.priority"
	attrTaskCodeID       = "gen_ai.task.code.id"
	attrTaskVendor       = "gen_ai.task.vendor"
)

// NewManualTaskVisitor recognizes spans carrying the explicit gen_ai.task.*
// schema. A manual span always becomes a task, under the id the application
// chose.
func NewManualTaskVisitor() traversal.Processor {
	return &baseVisitor{hooks: &manualVisitor{}}
}

type manualVisitor struct{}

func (v *manualVisitor) Name() string { return "manual_task" }

func (v *manualVisitor) IsFrameworkSpan(span *models.Span, _ *traversal.Context) bool {
	return span.StringAttribute(attrTaskID) != ""
}

func (v *manualVisitor) BuildTask(_ context.Context, span *models.Span, _ *traversal.Context) *models.Element {
	kind := models.TaskKind(strings.ToUpper(span.StringAttribute(attrTaskKind)))
	if kind == "" {
		kind = models.TaskKindOther
	}
	task := newTaskElement(span, kind)
	task.ElementID = span.StringAttribute(attrTaskID)

	if state := span.StringAttribute(attrTaskState); state != "" {
		task.Task.State = models.TaskState(strings.ToUpper(state))
	}
	if status := span.StringAttribute(attrTaskStatus); status != "" {
		task.Task.Status = models.TaskStatus(strings.ToUpper(status))
	}

	task.Task.Input = models.TaskInput{
		Goal:         span.StringAttribute(attrTaskInputGoal),
		Instructions: parseJSONList(span.StringAttribute(attrTaskInputInstr)),
		Examples:     parseJSONList(span.StringAttribute(attrTaskInputExampl)),
		Data:         parseJSONMap(span.StringAttribute(attrTaskInputData)),
		Metadata:     parseJSONMap(span.StringAttribute(attrTaskInputMeta)),
	}
	task.Task.Output = models.TaskOutput{
		Data:     parseJSONMap(span.StringAttribute(attrTaskOutputData)),
		Metadata: parseJSONMap(span.StringAttribute(attrTaskOutputMeta)),
	}
	if rank := span.StringAttribute(attrTaskOutputRank); rank != "" {
		if f, err := strconv.ParseFloat(rank, 64); err == nil {
			task.Task.Output.Ranking = f
		}
	}

	task.Task.Requester = span.StringAttribute(attrTaskRequester)
	task.Task.SessionID = span.StringAttribute(attrTaskSession)
	task.Task.Vendor = span.StringAttribute(attrTaskVendor)
	if prio := span.StringAttribute(attrTaskPriority); prio != "" {
		if n, err := strconv.Atoi(prio); err == nil {
			task.Task.Priority = n
		}
	}
	// Declared dependencies take precedence over detected sibling order.
	if deps := parseJSONList(span.StringAttribute(attrTaskDependencies)); len(deps) > 0 {
		task.Task.DependentIDs = deps
	}
	task.AddTag("manual_task")
	return task
}
