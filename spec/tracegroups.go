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

package spec

import (
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
)

// CreateTraceGroupRequest is the body of POST /trace-groups.
type CreateTraceGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ServiceName string   `json:"service_name"`
	TraceIDs    []string `json:"trace_ids"`
}

// UpdateTraceGroupRequest is the body of PUT /trace-groups/{groupId}. Nil
// fields are left unchanged.
type UpdateTraceGroupRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	TraceIDs    *[]string `json:"trace_ids,omitempty"`
}

// TraceGroupResponse is one trace group.
type TraceGroupResponse struct {
	GroupID     string   `json:"group_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ServiceName string   `json:"service_name"`
	TraceIDs    []string `json:"trace_ids"`
}

// TraceGroupListResponse is the body of GET /trace-groups.
type TraceGroupListResponse struct {
	Groups []TraceGroupResponse `json:"groups"`
	Count  int                  `json:"count"`
}

// WorkflowResponse is the body of the trace-group workflow materialization:
// the mined model plus its nodes and edges.
type WorkflowResponse struct {
	WorkflowID      string           `json:"workflow_id"`
	TraceWorkflowID string           `json:"trace_workflow_id"`
	Workflow        *models.Element  `json:"workflow,omitempty"`
	Nodes           []models.Element `json:"nodes"`
	Edges           []models.Element `json:"edges"`
}
