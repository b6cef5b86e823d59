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

func registerTraceRoutes(mux *http.ServeMux, controller controllers.TraceController) {
	// GET /traces - Search traces (time range, filters, cursor pagination)
	mux.HandleFunc("GET /traces", controller.SearchTraces)

	// GET /traces/{traceId} - Get one trace summary
	mux.HandleFunc("GET /traces/{traceId}", controller.GetTrace)

	// GET /traces/{traceId}/spans - Get the spans of a trace
	mux.HandleFunc("GET /traces/{traceId}/spans", controller.GetSpans)
}
