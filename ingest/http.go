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

package ingest

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/protobuf/proto"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/spec"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

const protobufContentType = "application/x-protobuf"

// maxExportBody caps one OTLP HTTP export request body (16 MiB).
const maxExportBody = 16 << 20

// NewHTTPHandler builds the ingest listener routes: the OTLP/HTTP receiver,
// the concatenated-JSON log import and a health probe.
func NewHTTPHandler(ing *Ingestor, cfg config.IngestConfig) http.Handler {
	h := &httpHandler{ing: ing, cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/traces", h.exportTraces)
	mux.HandleFunc("POST /api/v1/import/spans", h.importSpans)
	mux.HandleFunc("GET /health", h.health)

	handler := http.Handler(mux)
	handler = middleware.AddCorrelationID()(handler)
	handler = middleware.RecovererOnPanic()(handler)
	return handler
}

type httpHandler struct {
	ing *Ingestor
	cfg config.IngestConfig
}

func (h *httpHandler) exportTraces(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r.BasicAuth()) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "invalid ingest credentials")
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != protobufContentType {
		utils.WriteErrorResponse(w, http.StatusUnsupportedMediaType, "expected "+protobufContentType)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxExportBody))
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "reading request body failed")
		return
	}
	var req coltracepb.ExportTraceServiceRequest
	if err := proto.Unmarshal(body, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "malformed OTLP payload")
		return
	}

	tenantID := r.Header.Get(middleware.TenantIDHeader)
	if _, err := h.ing.IngestSpans(r.Context(), tenantID, "otlp_http", convertExportRequest(&req)); err != nil {
		h.writeIngestError(w, r, err)
		return
	}

	resp, err := proto.Marshal(&coltracepb.ExportTraceServiceResponse{})
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "encoding export response failed")
		return
	}
	w.Header().Set("Content-Type", protobufContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// importSpans reads a concatenated-JSON stream of Span objects, the format
// produced by dumping OTel file exports. Spans are accepted until the first
// malformed document.
func (h *httpHandler) importSpans(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r.BasicAuth()) {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "invalid ingest credentials")
		return
	}

	var spans []models.Span
	dec := json.NewDecoder(r.Body)
	for {
		var span models.Span
		if err := dec.Decode(&span); err == io.EOF {
			break
		} else if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "malformed span document in stream")
			return
		}
		span.Resource.ServiceName = utils.SanitizeServiceName(span.Resource.ServiceName)
		spans = append(spans, span)
	}
	if len(spans) == 0 {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "no spans in request body")
		return
	}

	tenantID := r.Header.Get(middleware.TenantIDHeader)
	traceIDs, err := h.ing.IngestSpans(r.Context(), tenantID, "import", spans)
	if err != nil {
		h.writeIngestError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, spec.ImportSpansResponse{
		Imported: len(spans),
		TraceIDs: traceIDs,
	})
}

func (h *httpHandler) health(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, http.StatusOK, spec.HealthResponse{Status: "healthy"})
}

// authorized verifies HTTP basic credentials when ingest auth is configured.
// Without configured credentials every caller is accepted.
func (h *httpHandler) authorized(user, pass string, ok bool) bool {
	if h.cfg.BasicAuthUsername == "" {
		return true
	}
	if !ok {
		return false
	}
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(h.cfg.BasicAuthUsername))
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(h.cfg.BasicAuthPassword))
	return userMatch == 1 && passMatch == 1
}

func (h *httpHandler) writeIngestError(w http.ResponseWriter, r *http.Request, err error) {
	status := utils.HTTPStatusForError(err)
	if status >= http.StatusInternalServerError {
		logger.GetLogger(r.Context()).Error("span ingest failed", slog.String("error", err.Error()))
		utils.WriteErrorResponse(w, status, "span ingest failed")
		return
	}
	utils.WriteErrorResponse(w, status, err.Error())
}
