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

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/ingest"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/observability"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/spec"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/wiring"
)

// MakeHTTPHandler creates a new HTTP handler with middleware and routes
func MakeHTTPHandler(params *wiring.AppParams) http.Handler {
	mux := http.NewServeMux()

	// Register health check and metrics at root level
	registerHealthCheck(mux)
	mux.Handle("GET /metrics", observability.Handler())

	// Create a sub-mux for API v1 routes
	apiMux := http.NewServeMux()
	registerTraceRoutes(apiMux, params.TraceController)
	registerTraceGroupRoutes(apiMux, params.TraceGroupController)
	registerAnalyticsRoutes(apiMux, params.AnalyticsController)

	// Event intake lives under /api, not /api/v1
	eventMux := http.NewServeMux()
	registerEventRoutes(eventMux, params.EventController)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", applyMiddleware(apiMux)))
	events := http.StripPrefix("/api", applyMiddleware(eventMux))
	mux.Handle("/api/events", events)
	mux.Handle("/api/events/", events)

	return mux
}

// applyMiddleware wraps the handler chain in reverse order (last middleware
// is applied first).
func applyMiddleware(h http.Handler) http.Handler {
	handler := http.Handler(h)
	handler = middleware.TenantContext(ingest.DefaultTenant)(handler)
	handler = middleware.AddCorrelationID()(handler)
	handler = logger.RequestLogger()(handler)
	handler = middleware.CORS(config.GetConfig().CORSAllowedOrigin)(handler)
	handler = middleware.RecovererOnPanic()(handler)
	return handler
}

func registerHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccessResponse(w, http.StatusOK, spec.HealthResponse{Status: "healthy"})
	})
}
