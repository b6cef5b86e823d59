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

package models

import "time"

// TaskKind classifies the semantic unit of work a task represents.
type TaskKind string

const (
	TaskKindUnknown   TaskKind = "UNKNOWN"
	TaskKindLLM       TaskKind = "LLM"
	TaskKindTool      TaskKind = "TOOL"
	TaskKindVectorDB  TaskKind = "VECTOR_DB"
	TaskKindAgent     TaskKind = "AGENT"
	TaskKindChain     TaskKind = "CHAIN"
	TaskKindEmbedding TaskKind = "EMBEDDING"
	TaskKindRetriever TaskKind = "RETRIEVER"
	TaskKindGuardrail TaskKind = "GUARDRAIL"
	TaskKindHuman     TaskKind = "HUMAN"
	TaskKindOther     TaskKind = "OTHER"
)

// TaskState is the lifecycle state reported by the instrumented application.
type TaskState string

const (
	TaskStateCreated    TaskState = "CREATED"
	TaskStateInProgress TaskState = "IN_PROGRESS"
	TaskStateCompleted  TaskState = "COMPLETED"
	TaskStateCancelled  TaskState = "CANCELLED"
)

// TaskStatus is the outcome of the task.
type TaskStatus string

const (
	TaskStatusUnknown TaskStatus = "UNKNOWN"
	TaskStatusSuccess TaskStatus = "SUCCESS"
	TaskStatusFailure TaskStatus = "FAILURE"
	TaskStatusPartial TaskStatus = "PARTIAL"
)

// TaskInput captures what the task was asked to do. Values are normalized
// to strings or string-keyed maps by the extraction pipeline.
type TaskInput struct {
	Goal         string         `json:"goal,omitempty"`
	Instructions []string       `json:"instructions,omitempty"`
	Examples     []string       `json:"examples,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// TaskOutput captures what the task produced.
type TaskOutput struct {
	Data     map[string]any `json:"data,omitempty"`
	Ranking  float64        `json:"ranking,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Task is a semantic unit of work extracted from one or more spans. Tasks
// form a tree within their trace: ParentID points at the enclosing task,
// DependentIDs at sibling prerequisites in execution order.
type Task struct {
	Kind         TaskKind     `json:"kind"`
	State        TaskState    `json:"state,omitempty"`
	Status       TaskStatus   `json:"status,omitempty"`
	Input        TaskInput    `json:"input,omitempty"`
	Output       TaskOutput   `json:"output,omitempty"`
	StartTime    time.Time    `json:"start_time"`
	EndTime      time.Time    `json:"end_time"`
	Events       []SpanEvent  `json:"events,omitempty"`
	Issues       []string     `json:"issues,omitempty"`
	Metrics      []string     `json:"metrics,omitempty"`
	ParentID     string       `json:"parent_id,omitempty"`
	DependentIDs []string     `json:"dependent_ids,omitempty"`
	ActionID     string       `json:"action_id,omitempty"`
	LogReference LogReference `json:"log_reference"`

	// Fields of the manual gen_ai.task.* schema.
	Requester string `json:"requester,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Priority  int    `json:"priority,omitempty"`
	Vendor    string `json:"vendor,omitempty"`
}
