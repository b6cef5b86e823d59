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
	"net/http"
	"strconv"
	"strings"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/services"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/spec"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// attrFilterPrefix marks query parameters that filter on trace attributes,
// e.g. `?attr.environment=prod`.
const attrFilterPrefix = "attr."

// TraceController defines the trace query HTTP handlers.
type TraceController interface {
	SearchTraces(w http.ResponseWriter, r *http.Request)
	GetTrace(w http.ResponseWriter, r *http.Request)
	GetSpans(w http.ResponseWriter, r *http.Request)
}

type traceController struct {
	traceService services.TraceService
}

// NewTraceController creates a new trace controller
func NewTraceController(traceService services.TraceService) TraceController {
	return &traceController{traceService: traceService}
}

func (c *traceController) SearchTraces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	params, err := parseTraceSearchParams(r)
	if err != nil {
		utils.WriteErrorResponse(w, utils.HTTPStatusForError(err), err.Error())
		return
	}

	page, err := c.traceService.SearchTraces(ctx, params)
	if err != nil {
		log.Error("SearchTraces: search failed", "error", err)
		writeServiceError(w, err, "Failed to search traces")
		return
	}

	summaries := make([]spec.TraceSummary, 0, len(page.Traces))
	for i := range page.Traces {
		summaries = append(summaries, toTraceSummary(&page.Traces[i]))
	}
	utils.WriteSuccessResponse(w, http.StatusOK, spec.TraceListResponse{
		Traces:     summaries,
		Count:      len(summaries),
		NextCursor: page.NextCursor,
	})
}

func (c *traceController) GetTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	traceID := r.PathValue("traceId")

	trace, err := c.traceService.GetTrace(ctx, traceID)
	if err != nil {
		log.Error("GetTrace: lookup failed", "trace_id", traceID, "error", err)
		writeServiceError(w, err, "Failed to get trace")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, toTraceSummary(trace))
}

func (c *traceController) GetSpans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	traceID := r.PathValue("traceId")

	spans, err := c.traceService.GetSpans(ctx, traceID)
	if err != nil {
		log.Error("GetSpans: lookup failed", "trace_id", traceID, "error", err)
		writeServiceError(w, err, "Failed to get spans")
		return
	}

	bodies := make([]models.Span, 0, len(spans))
	for i := range spans {
		if spans[i].Span != nil {
			bodies = append(bodies, *spans[i].Span)
		}
	}
	utils.WriteSuccessResponse(w, http.StatusOK, spec.SpanListResponse{
		TraceID: traceID,
		Spans:   bodies,
		Count:   len(bodies),
	})
}

func parseTraceSearchParams(r *http.Request) (services.TraceSearchParams, error) {
	query := r.URL.Query()
	params := services.TraceSearchParams{
		ServiceName: query.Get("service_name"),
		SortField:   query.Get("sort_by"),
		SortDir:     query.Get("sort_dir"),
		Cursor:      query.Get("cursor"),
	}

	from, err := utils.ParseRFC3339(query.Get("from"), "from")
	if err != nil {
		return params, err
	}
	to, err := utils.ParseRFC3339(query.Get("to"), "to")
	if err != nil {
		return params, err
	}
	params.From, params.To = from, to

	if params.MinSpans, err = optionalIntParam(query.Get("min_spans"), "min_spans"); err != nil {
		return params, err
	}
	if params.MaxSpans, err = optionalIntParam(query.Get("max_spans"), "max_spans"); err != nil {
		return params, err
	}
	if limit := query.Get("limit"); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil || value <= 0 {
			return params, invalidParamError("limit")
		}
		params.Limit = value
	}

	for key, values := range query {
		if attr, ok := strings.CutPrefix(key, attrFilterPrefix); ok && attr != "" && len(values) > 0 {
			if params.Attributes == nil {
				params.Attributes = make(map[string]string)
			}
			params.Attributes[attr] = values[0]
		}
	}
	return params, nil
}

func toTraceSummary(el *models.Element) spec.TraceSummary {
	summary := spec.TraceSummary{TraceID: el.ElementID}
	if el.Trace != nil {
		summary.ServiceName = el.Trace.ServiceName
		summary.StartTime = el.Trace.StartTime
		summary.EndTime = el.Trace.EndTime
		summary.NumOfSpans = el.Trace.NumOfSpans
		summary.AgentIDs = el.Trace.AgentIDs
		summary.Failures = el.Trace.Failures
	}
	return summary
}
