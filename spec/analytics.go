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

// PluginListResponse is the body of GET /analytics.
type PluginListResponse struct {
	Plugins []models.PluginMetadata `json:"plugins"`
	Count   int                     `json:"count"`
}

// ExecuteRequest is the body of POST /analytics/{analyticsId}/execute. Input
// is the caller payload merged under predecessor outputs by the engine.
type ExecuteRequest struct {
	Input map[string]any `json:"input"`
}

// ExecuteResponse carries the requested plugin's result. Dependency and
// triggered-successor results are persisted and retrievable from the result
// store.
type ExecuteResponse struct {
	Result models.ExecutionResult `json:"result"`
}
