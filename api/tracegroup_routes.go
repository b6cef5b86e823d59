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

package api

import (
	"net/http"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/controllers"
)

func registerTraceGroupRoutes(mux *http.ServeMux, controller controllers.TraceGroupController) {
	// POST /trace-groups - Create a trace group
	mux.HandleFunc("POST /trace-groups", controller.CreateTraceGroup)

	// GET /trace-groups - List trace groups, optionally by service
	mux.HandleFunc("GET /trace-groups", controller.ListTraceGroups)

	// GET /trace-groups/{groupId} - Get a trace group
	mux.HandleFunc("GET /trace-groups/{groupId}", controller.GetTraceGroup)

	// PUT /trace-groups/{groupId} - Update a trace group
	mux.HandleFunc("PUT /trace-groups/{groupId}", controller.UpdateTraceGroup)

	// DELETE /trace-groups/{groupId} - Delete a trace group
	mux.HandleFunc("DELETE /trace-groups/{groupId}", controller.DeleteTraceGroup)

	// GET /trace-groups/{groupId}/traces - Get the group's traces in order
	mux.HandleFunc("GET /trace-groups/{groupId}/traces", controller.GetTraceGroupTraces)

	// POST /trace-groups/{groupId}/workflow - Mine and persist the workflow
	mux.HandleFunc("POST /trace-groups/{groupId}/workflow", controller.MaterializeWorkflow)
}
