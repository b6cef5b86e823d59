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

// WorkflowEdgeType classifies process-model edges.
type WorkflowEdgeType string

const (
	// EdgeSequence is a direct succession between two activities.
	EdgeSequence WorkflowEdgeType = "SEQUENCE"
	// EdgeAnd marks parallel split/join branches.
	EdgeAnd WorkflowEdgeType = "AND"
	// EdgeXor marks exclusive-choice branches.
	EdgeXor WorkflowEdgeType = "XOR"
)

// WorkflowNodeType distinguishes activities from control gateways.
type WorkflowNodeType string

const (
	NodeActivity WorkflowNodeType = "ACTIVITY"
	NodeGateway  WorkflowNodeType = "GATEWAY"
)

// Workflow is a discovered process model. Nodes and edges are separate
// elements referenced by id so they can be related back to the tasks and
// actions that evidenced them.
type Workflow struct {
	NodeIDs      []string `json:"node_ids,omitempty"`
	EdgeIDs      []string `json:"edge_ids,omitempty"`
	EntryNodeIDs []string `json:"entry_node_ids,omitempty"`
	ExitNodeIDs  []string `json:"exit_node_ids,omitempty"`
}

// WorkflowNode is one activity or gateway of a workflow.
type WorkflowNode struct {
	NodeType WorkflowNodeType `json:"node_type"`
	// Activity is the canonical task name for ACTIVITY nodes.
	Activity string `json:"activity,omitempty"`
	// Gateway is the branching semantics for GATEWAY nodes.
	Gateway WorkflowEdgeType `json:"gateway,omitempty"`
	// ActionID links the activity to the action it executes, when known.
	ActionID string `json:"action_id,omitempty"`
	// Support counts how many observed sequences contained the activity.
	Support int `json:"support"`
}

// WorkflowEdge connects two workflow nodes.
type WorkflowEdge struct {
	FromNodeID string           `json:"from_node_id"`
	ToNodeID   string           `json:"to_node_id"`
	EdgeType   WorkflowEdgeType `json:"edge_type"`
	// Support counts how many observed sequences contained the succession.
	Support int `json:"support"`
}

// TraceWorkflow materializes a workflow for a trace group: the model that
// the group's traces collectively evidence.
type TraceWorkflow struct {
	WorkflowID   string   `json:"workflow_id"`
	TraceGroupID string   `json:"trace_group_id,omitempty"`
	TraceIDs     []string `json:"trace_ids,omitempty"`
	ServiceName  string   `json:"service_name,omitempty"`
}
