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

// AnalyticsController defines the plugin management and execution handlers.
type AnalyticsController interface {
	RegisterPlugin(w http.ResponseWriter, r *http.Request)
	GetPlugin(w http.ResponseWriter, r *http.Request)
	ListPlugins(w http.ResponseWriter, r *http.Request)
	UpdatePlugin(w http.ResponseWriter, r *http.Request)
	DeletePlugin(w http.ResponseWriter, r *http.Request)
	ExecutePlugin(w http.ResponseWriter, r *http.Request)
	ListResults(w http.ResponseWriter, r *http.Request)
	GetResult(w http.ResponseWriter, r *http.Request)
}

type analyticsController struct {
	analyticsService services.AnalyticsService
}

// NewAnalyticsController creates a new analytics controller
func NewAnalyticsController(analyticsService services.AnalyticsService) AnalyticsController {
	return &analyticsController{analyticsService: analyticsService}
}

func (c *analyticsController) RegisterPlugin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	var meta models.PluginMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := c.analyticsService.Register(ctx, &meta); err != nil {
		log.Error("RegisterPlugin: registration failed", "analytics_id", meta.ID, "error", err)
		writeServiceError(w, err, "Failed to register analytics plugin")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusCreated, meta)
}

func (c *analyticsController) GetPlugin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	analyticsID := r.PathValue("analyticsId")

	meta, err := c.analyticsService.Get(ctx, analyticsID)
	if err != nil {
		log.Error("GetPlugin: lookup failed", "analytics_id", analyticsID, "error", err)
		writeServiceError(w, err, "Failed to get analytics plugin")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, meta)
}

func (c *analyticsController) ListPlugins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	plugins, err := c.analyticsService.List(ctx)
	if err != nil {
		log.Error("ListPlugins: list failed", "error", err)
		writeServiceError(w, err, "Failed to list analytics plugins")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, spec.PluginListResponse{
		Plugins: plugins,
		Count:   len(plugins),
	})
}

func (c *analyticsController) UpdatePlugin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	analyticsID := r.PathValue("analyticsId")

	var meta models.PluginMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// The path owns the identity.
	meta.ID = analyticsID

	if err := c.analyticsService.Update(ctx, &meta); err != nil {
		log.Error("UpdatePlugin: update failed", "analytics_id", analyticsID, "error", err)
		writeServiceError(w, err, "Failed to update analytics plugin")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, meta)
}

func (c *analyticsController) DeletePlugin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	analyticsID := r.PathValue("analyticsId")

	if err := c.analyticsService.Delete(ctx, analyticsID); err != nil {
		log.Error("DeletePlugin: delete failed", "analytics_id", analyticsID, "error", err)
		writeServiceError(w, err, "Failed to delete analytics plugin")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusNoContent, "")
}

func (c *analyticsController) ExecutePlugin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	analyticsID := r.PathValue("analyticsId")

	var req spec.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := c.analyticsService.Execute(ctx, analyticsID, req.Input)
	if err != nil {
		log.Error("ExecutePlugin: execution failed", "analytics_id", analyticsID, "error", err)
		writeServiceError(w, err, "Failed to execute analytics plugin")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, spec.ExecuteResponse{Result: *result})
}

func (c *analyticsController) ListResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	analyticsID := r.PathValue("analyticsId")

	results, err := c.analyticsService.ListResults(ctx, analyticsID)
	if err != nil {
		log.Error("ListResults: list failed", "analytics_id", analyticsID, "error", err)
		writeServiceError(w, err, "Failed to list execution results")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, results)
}

func (c *analyticsController) GetResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	resultID := r.PathValue("resultId")

	result, err := c.analyticsService.GetResult(ctx, resultID)
	if err != nil {
		log.Error("GetResult: lookup failed", "result_id", resultID, "error", err)
		writeServiceError(w, err, "Failed to get execution result")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, result)
}
