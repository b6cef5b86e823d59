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
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// NewGRPCServer builds a gRPC server exposing the OTLP TraceService.
func NewGRPCServer(ing *Ingestor, cfg config.IngestConfig) *grpc.Server {
	srv := grpc.NewServer()
	coltracepb.RegisterTraceServiceServer(srv, &traceServiceServer{ing: ing, cfg: cfg})
	return srv
}

type traceServiceServer struct {
	coltracepb.UnimplementedTraceServiceServer

	ing *Ingestor
	cfg config.IngestConfig
}

func (s *traceServiceServer) Export(ctx context.Context, req *coltracepb.ExportTraceServiceRequest) (*coltracepb.ExportTraceServiceResponse, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	if err := s.authorize(md); err != nil {
		return nil, err
	}

	tenantID := firstMetadataValue(md, "x-tenant-id")
	if _, err := s.ing.IngestSpans(ctx, tenantID, "otlp_grpc", convertExportRequest(req)); err != nil {
		if errors.Is(err, utils.ErrInvalidInput) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		logger.GetLogger(ctx).Error("span export failed", slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "span export failed")
	}
	return &coltracepb.ExportTraceServiceResponse{}, nil
}

// authorize verifies the `authorization: Basic ...` metadata entry when
// ingest credentials are configured.
func (s *traceServiceServer) authorize(md metadata.MD) error {
	if s.cfg.BasicAuthUsername == "" {
		return nil
	}
	auth := firstMetadataValue(md, "authorization")
	const prefix = "Basic "
	if !strings.HasPrefix(auth, prefix) {
		return status.Error(codes.Unauthenticated, "missing ingest credentials")
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, prefix))
	if err != nil {
		return status.Error(codes.Unauthenticated, "malformed ingest credentials")
	}
	user, pass, found := strings.Cut(string(decoded), ":")
	if !found {
		return status.Error(codes.Unauthenticated, "malformed ingest credentials")
	}
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(s.cfg.BasicAuthUsername))
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(s.cfg.BasicAuthPassword))
	if userMatch != 1 || passMatch != 1 {
		return status.Error(codes.Unauthenticated, "invalid ingest credentials")
	}
	return nil
}

func firstMetadataValue(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}
