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

package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/services"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/spec"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// TraceGroupController defines the trace-group HTTP handlers.
type TraceGroupController interface {
	CreateTraceGroup(w http.ResponseWriter, r *http.Request)
	GetTraceGroup(w http.ResponseWriter, r *http.Request)
	ListTraceGroups(w http.ResponseWriter, r *http.Request)
	UpdateTraceGroup(w http.ResponseWriter, r *http.Request)
	DeleteTraceGroup(w http.ResponseWriter, r *http.Request)
	GetTraceGroupTraces(w http.ResponseWriter, r *http.Request)
	MaterializeWorkflow(w http.ResponseWriter, r *http.Request)
}

type traceGroupController struct {
	groupService services.TraceGroupService
}

// NewTraceGroupController creates a new trace-group controller
func NewTraceGroupController(groupService services.TraceGroupService) TraceGroupController {
	return &traceGroupController{groupService: groupService}
}

func (c *traceGroupController) CreateTraceGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	var req spec.CreateTraceGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, err := c.groupService.Create(ctx, services.CreateTraceGroupParams{
		Name:        req.Name,
		Description: req.Description,
		ServiceName: req.ServiceName,
		TraceIDs:    req.TraceIDs,
	})
	if err != nil {
		log.Error("CreateTraceGroup: create failed", "error", err)
		writeServiceError(w, err, "Failed to create trace group")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusCreated, toTraceGroupResponse(group))
}

func (c *traceGroupController) GetTraceGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	groupID := r.PathValue("groupId")

	group, err := c.groupService.Get(ctx, groupID)
	if err != nil {
		log.Error("GetTraceGroup: lookup failed", "group_id", groupID, "error", err)
		writeServiceError(w, err, "Failed to get trace group")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, toTraceGroupResponse(group))
}

func (c *traceGroupController) ListTraceGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	groups, err := c.groupService.List(ctx, r.URL.Query().Get("service_name"))
	if err != nil {
		log.Error("ListTraceGroups: list failed", "error", err)
		writeServiceError(w, err, "Failed to list trace groups")
		return
	}

	resp := spec.TraceGroupListResponse{Groups: make([]spec.TraceGroupResponse, 0, len(groups))}
	for i := range groups {
		resp.Groups = append(resp.Groups, toTraceGroupResponse(&groups[i]))
	}
	resp.Count = len(resp.Groups)
	utils.WriteSuccessResponse(w, http.StatusOK, resp)
}

func (c *traceGroupController) UpdateTraceGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	groupID := r.PathValue("groupId")

	var req spec.UpdateTraceGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, err := c.groupService.Update(ctx, groupID, services.UpdateTraceGroupParams{
		Name:        req.Name,
		Description: req.Description,
		TraceIDs:    req.TraceIDs,
	})
	if err != nil {
		log.Error("UpdateTraceGroup: update failed", "group_id", groupID, "error", err)
		writeServiceError(w, err, "Failed to update trace group")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, toTraceGroupResponse(group))
}

func (c *traceGroupController) DeleteTraceGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	groupID := r.PathValue("groupId")

	if err := c.groupService.Delete(ctx, groupID); err != nil {
		log.Error("DeleteTraceGroup: delete failed", "group_id", groupID, "error", err)
		writeServiceError(w, err, "Failed to delete trace group")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusNoContent, "")
}

func (c *traceGroupController) GetTraceGroupTraces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	groupID := r.PathValue("groupId")

	traces, err := c.groupService.Traces(ctx, groupID)
	if err != nil {
		log.Error("GetTraceGroupTraces: lookup failed", "group_id", groupID, "error", err)
		writeServiceError(w, err, "Failed to get trace group traces")
		return
	}

	summaries := make([]spec.TraceSummary, 0, len(traces))
	for i := range traces {
		summaries = append(summaries, toTraceSummary(&traces[i]))
	}
	utils.WriteSuccessResponse(w, http.StatusOK, spec.TraceListResponse{
		Traces: summaries,
		Count:  len(summaries),
	})
}

func (c *traceGroupController) MaterializeWorkflow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	groupID := r.PathValue("groupId")

	workflow, err := c.groupService.MaterializeWorkflow(ctx, groupID)
	if err != nil {
		log.Error("MaterializeWorkflow: mining failed", "group_id", groupID, "error", err)
		writeServiceError(w, err, "Failed to materialize workflow")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, spec.WorkflowResponse{
		WorkflowID:      workflow.WorkflowID,
		TraceWorkflowID: workflow.TraceWorkflowID,
		Workflow:        workflow.Workflow,
		Nodes:           workflow.Nodes,
		Edges:           workflow.Edges,
	})
}

func toTraceGroupResponse(group *models.Element) spec.TraceGroupResponse {
	resp := spec.TraceGroupResponse{
		GroupID:     group.ElementID,
		Name:        group.Name,
		Description: group.Description,
	}
	if group.TraceGroup != nil {
		resp.ServiceName = group.TraceGroup.ServiceName
		resp.TraceIDs = group.TraceGroup.TraceIDs
	}
	return resp
}
