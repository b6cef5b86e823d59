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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/api"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/clients/tenantcfgsvc"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
	dbmigrations "github.com/wso2/ai-agent-management-platform/trace-analytics-service/db_migrations"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/ingest"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/server"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/signals"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store/postgres"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/tenants"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/wiring"
)

func setupLogger(cfg *config.Config) {
	var level slog.Level
	switch cfg.LogLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default to INFO
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("Logger configured",
		"level", level.String())
}

func migrateDatabase(cfg *config.Config) error {
	dsn := tenants.PostgresDSN(tenantcfgsvc.PostgresSettings{
		Host:     cfg.POSTGRESQL.Host,
		Port:     cfg.POSTGRESQL.Port,
		User:     cfg.POSTGRESQL.User,
		Password: cfg.POSTGRESQL.Password,
		DBName:   cfg.POSTGRESQL.DBName,
	})
	db, err := postgres.Connect(dsn)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	return dbmigrations.Migrate(db)
}

func main() {
	cfg := config.GetConfig()

	setupLogger(cfg)

	if config.GetConfig().AutoMaxProcsEnabled {
		if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			// Convert printf-style format string to plain message for structured logging
			slog.Info(fmt.Sprintf(format, args...))
		})); err != nil {
			slog.Error("Failed to set maxprocs", "error", err)
			os.Exit(1)
		}
	}
	serverFlag := flag.Bool("server", true, "start the http Server")
	migrateFlag := flag.Bool("migrate", false, "migrate the database")

	flag.Parse()

	if *migrateFlag {
		if err := migrateDatabase(cfg); err != nil {
			slog.Error("error occurred while migrating", "error", err)
			os.Exit(1)
		}
	}

	if !*serverFlag {
		return
	}

	dependencies, err := wiring.InitializeAppParams(cfg)
	if err != nil {
		slog.Error("failed to initialize app dependencies", "error", err)
		os.Exit(1)
	}

	// Re-resolve tenant components whenever the fallback config file changes
	watchCtx, watchCancel := context.WithCancel(context.Background())
	if cfg.TenantConfig.FallbackFile != "" {
		err := tenantcfgsvc.WatchFallbackFile(watchCtx, cfg.TenantConfig.FallbackFile, func() {
			dependencies.Tenants.Invalidate(context.Background())
		})
		if err != nil {
			slog.Error("failed to watch tenant config fallback file", "error", err)
			os.Exit(1)
		}
	}

	// Create main API server handler
	handler := api.MakeHTTPHandler(dependencies)
	mainServer := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:        handler,
		ReadTimeout:    time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:    time.Duration(cfg.IdleTimeoutSeconds) * time.Second,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	// Create the dedicated OTLP ingest server (HTTP + gRPC receivers)
	ingestHandler := ingest.NewHTTPHandler(dependencies.Ingestor, cfg.Ingest)
	ingestGRPC := ingest.NewGRPCServer(dependencies.Ingestor, cfg.Ingest)
	ingestServer := server.NewIngestServer(&cfg.Ingest, ingestHandler, ingestGRPC)

	stopCh := signals.SetupSignalHandler()

	// Setup graceful shutdown
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		<-stopCh
		slog.Info("Shutdown signal received, stopping services...")
		watchCancel()

		// Stop the event dispatcher first so in-flight analytics runs finish
		dependencies.Dispatcher.Stop()

		// Shutdown main server
		mainCtx, mainCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer mainCancel()
		if err := mainServer.Shutdown(mainCtx); err != nil {
			slog.Error("Main server forced shutdown after timeout", "error", err)
		}

		// Shutdown ingest server
		ingestCtx, ingestCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer ingestCancel()
		if err := ingestServer.Shutdown(ingestCtx); err != nil {
			slog.Error("Ingest server forced shutdown after timeout", "error", err)
		}

		// Release tenant-scoped stores and caches
		if err := dependencies.Tenants.Close(context.Background()); err != nil {
			slog.Error("error closing tenant registry", "error", err)
		}
		wg.Done()
	}()

	// Start ingest server in a goroutine
	go func() {
		if err := ingestServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start ingest server", "error", err)
			os.Exit(1)
		}
	}()

	// Start main server (blocking)
	slog.Info("Main API server is running", "address", mainServer.Addr)
	if err := mainServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Failed to start main server", "error", err)
		os.Exit(1)
	}

	// Wait for graceful shutdown to complete
	wg.Wait()
	slog.Info("All servers shut down successfully")
}
