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

// TraceSummary is one trace in a search result.
type TraceSummary struct {
	TraceID     string    `json:"trace_id"`
	ServiceName string    `json:"service_name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	NumOfSpans  int       `json:"num_of_spans"`
	AgentIDs    []string  `json:"agent_ids,omitempty"`
	// Failures counts failed spans per failure kind.
	Failures map[string]int `json:"failures,omitempty"`
}

// TraceListResponse is the body of GET /traces. NextCursor is empty on the
// last page.
type TraceListResponse struct {
	Traces     []TraceSummary `json:"traces"`
	Count      int            `json:"count"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// SpanListResponse is the body of GET /traces/{traceId}/spans.
type SpanListResponse struct {
	TraceID string        `json:"trace_id"`
	Spans   []models.Span `json:"spans"`
	Count   int           `json:"count"`
}

// ImportSpansResponse is the body of POST /import/spans.
type ImportSpansResponse struct {
	Imported int      `json:"imported"`
	TraceIDs []string `json:"trace_ids"`
}
