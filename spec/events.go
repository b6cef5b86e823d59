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
	"time"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
)

// EventRequest is the body of POST /events: an asynchronous request to run
// an analytics plugin over a trace or trace group.
type EventRequest struct {
	EventType    string       `json:"event_type"`
	DataItemType string       `json:"data_item_type"`
	Content      EventContent `json:"content"`
}

// EventContent names the analytics plugin to run and the data item to run
// it on. Exactly one of TraceID and TraceGroupID is set.
type EventContent struct {
	TraceID          string         `json:"trace_id,omitempty"`
	TraceGroupID     string         `json:"trace_group_id,omitempty"`
	CreatingPluginID string         `json:"creating_plugin_id"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Timestamp        time.Time      `json:"timestamp,omitempty"`
}

// EventResponse is the body of POST /events.
type EventResponse struct {
	Success bool   `json:"success"`
	EventID string `json:"event_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// EventStatusResponse is the body of GET /events/{eventId}/status.
type EventStatusResponse struct {
	EventID         string                  `json:"event_id"`
	Status          string                  `json:"status"`
	ExecutionResult *models.ExecutionResult `json:"execution_result,omitempty"`
}
