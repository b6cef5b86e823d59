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

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/events"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/spec"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// EventController defines the event intake HTTP handlers.
type EventController interface {
	PostEvent(w http.ResponseWriter, r *http.Request)
	GetEventStatus(w http.ResponseWriter, r *http.Request)
}

type eventController struct {
	dispatcher *events.Dispatcher
}

// NewEventController creates a new event controller
func NewEventController(dispatcher *events.Dispatcher) EventController {
	return &eventController{dispatcher: dispatcher}
}

func (c *eventController) PostEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	var req spec.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	eventID, err := c.dispatcher.Dispatch(ctx, req)
	if err != nil {
		log.Error("PostEvent: dispatch failed", "error", err)
		utils.WriteSuccessResponse(w, utils.HTTPStatusForError(err), spec.EventResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	utils.WriteSuccessResponse(w, http.StatusAccepted, spec.EventResponse{
		Success: true,
		EventID: eventID,
		Message: "event scheduled",
	})
}

func (c *eventController) GetEventStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	eventID := r.PathValue("eventId")

	status, err := c.dispatcher.Status(ctx, eventID)
	if err != nil {
		log.Error("GetEventStatus: lookup failed", "event_id", eventID, "error", err)
		writeServiceError(w, err, "Failed to get event status")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, status)
}
