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

func registerAnalyticsRoutes(mux *http.ServeMux, controller controllers.AnalyticsController) {
	// POST /analytics - Register an analytics plugin
	mux.HandleFunc("POST /analytics", controller.RegisterPlugin)

	// GET /analytics - List registered plugins
	mux.HandleFunc("GET /analytics", controller.ListPlugins)

	// GET /analytics/{analyticsId} - Get plugin metadata
	mux.HandleFunc("GET /analytics/{analyticsId}", controller.GetPlugin)

	// PUT /analytics/{analyticsId} - Update plugin metadata
	mux.HandleFunc("PUT /analytics/{analyticsId}", controller.UpdatePlugin)

	// DELETE /analytics/{analyticsId} - Delete a plugin
	mux.HandleFunc("DELETE /analytics/{analyticsId}", controller.DeletePlugin)

	// POST /analytics/{analyticsId}/execute - Run the plugin's DAG
	mux.HandleFunc("POST /analytics/{analyticsId}/execute", controller.ExecutePlugin)

	// GET /analytics/{analyticsId}/results - List persisted execution results
	mux.HandleFunc("GET /analytics/{analyticsId}/results", controller.ListResults)

	// GET /results/{resultId} - Get one execution result
	mux.HandleFunc("GET /results/{resultId}", controller.GetResult)
}
