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

// Package server hosts the dedicated ingest listeners: the OTLP/HTTP
// receiver plus log import on one port and the OTLP/gRPC receiver on
// another.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
)

// IngestServer runs the span intake listeners separately from the query API
// so heavy exports never contend with interactive traffic.
type IngestServer struct {
	cfg        *config.IngestConfig
	httpServer *http.Server
	grpcServer *grpc.Server
}

// NewIngestServer creates the ingest server over the prepared handlers.
func NewIngestServer(cfg *config.IngestConfig, httpHandler http.Handler, grpcServer *grpc.Server) *IngestServer {
	return &IngestServer{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort),
			Handler:     httpHandler,
			ReadTimeout: time.Duration(cfg.ExportTimeoutSeconds) * time.Second,
			IdleTimeout: 120 * time.Second,
		},
		grpcServer: grpcServer,
	}
}

// Start serves both listeners and blocks until the HTTP listener stops.
// The gRPC listener runs on its own goroutine and is stopped via Shutdown.
func (s *IngestServer) Start() error {
	if s.cfg.HTTPPort < 1 || s.cfg.HTTPPort > 65535 {
		return fmt.Errorf("invalid ingest http port: %d", s.cfg.HTTPPort)
	}
	if s.cfg.GRPCPort < 1 || s.cfg.GRPCPort > 65535 {
		return fmt.Errorf("invalid ingest grpc port: %d", s.cfg.GRPCPort)
	}

	grpcAddr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", grpcAddr, err)
	}
	go func() {
		slog.Info("OTLP gRPC receiver is running", "address", grpcAddr)
		if err := s.grpcServer.Serve(lis); err != nil {
			slog.Error("OTLP gRPC receiver stopped", "error", err)
		}
	}()

	slog.Info("OTLP HTTP receiver is running", "address", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains both listeners.
func (s *IngestServer) Shutdown(shutdownCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		s.grpcServer.Stop()
	}
	return s.httpServer.Shutdown(shutdownCtx)
}
