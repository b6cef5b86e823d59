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

package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Version is overridden at build time via ldflags.
var Version = "dev"

var config *Config

func GetConfig() *Config {
	return config
}

func init() {
	loadEnvs()
}

func loadEnvs() {
	config = &Config{}

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath != "" {
		err := godotenv.Load(envFilePath)
		if err != nil {
			panic(err)
		}
	}

	r := &configReader{}
	config.ServerHost = r.readOptionalString("SERVER_HOST", "")
	config.ServerPort = int(r.readOptionalInt64("SERVER_PORT", 8080))
	config.AutoMaxProcsEnabled = r.readOptionalBool("AUTO_MAX_PROCS_ENABLED", true)
	config.CORSAllowedOrigin = r.readOptionalString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	// Logging configuration
	config.LogLevel = r.readOptionalString("LOG_LEVEL", "INFO")
	config.LogFormat = r.readOptionalString("LOG_FORMAT", "json")

	// HTTP Server timeout configurations
	config.ReadTimeoutSeconds = int(r.readOptionalInt64("HTTP_READ_TIMEOUT_SECONDS", 10))
	config.WriteTimeoutSeconds = int(r.readOptionalInt64("HTTP_WRITE_TIMEOUT_SECONDS", 90))
	config.IdleTimeoutSeconds = int(r.readOptionalInt64("HTTP_IDLE_TIMEOUT_SECONDS", 60))
	config.MaxHeaderBytes = int(r.readOptionalInt64("HTTP_MAX_HEADER_BYTES", 65536)) // 1024 * 64

	// Database operation timeout configuration
	config.DbOperationTimeoutSeconds = int(r.readOptionalInt64("DB_OPERATION_TIMEOUT_SECONDS", 10))
	config.HealthCheckTimeoutSeconds = int(r.readOptionalInt64("HEALTH_CHECK_TIMEOUT_SECONDS", 5))

	// Ingest listeners (OTLP HTTP + gRPC and the span import API)
	config.Ingest = IngestConfig{
		Host:                 r.readOptionalString("INGEST_HOST", ""),
		HTTPPort:             int(r.readOptionalInt64("INGEST_HTTP_PORT", 4318)),
		GRPCPort:             int(r.readOptionalInt64("INGEST_GRPC_PORT", 4317)),
		BasicAuthUsername:    r.readOptionalString("INGEST_BASIC_AUTH_USERNAME", ""),
		BasicAuthPassword:    r.readOptionalString("INGEST_BASIC_AUTH_PASSWORD", ""),
		RewriteOldSpans:      r.readOptionalBool("INGEST_REWRITE_OLD_SPANS", false),
		ExportTimeoutSeconds: int(r.readOptionalInt64("INGEST_EXPORT_TIMEOUT_SECONDS", 30)),
	}

	// Analytics engine configuration
	config.Engine = EngineConfig{
		ResultCacheEnabled: r.readOptionalBool("ENGINE_RESULT_CACHE_ENABLED", false),
		Redis: RedisConfig{
			Addr:       r.readOptionalString("REDIS_ADDR", "localhost:6379"),
			Password:   r.readOptionalString("REDIS_PASSWORD", ""),
			DB:         int(r.readOptionalInt64("REDIS_DB", 0)),
			TTLSeconds: int(r.readOptionalInt64("ENGINE_RESULT_CACHE_TTL_SECONDS", 3600)),
		},
	}

	// Tenant configuration sources: remote service, then YAML file, then
	// the env defaults below.
	config.TenantConfig = TenantConfigResolution{
		ServiceURL:          r.readOptionalString("TENANT_CONFIG_SERVICE_URL", ""),
		APIKey:              r.readOptionalString("TENANT_CONFIG_SERVICE_API_KEY", ""),
		FetchTimeoutSeconds: int(r.readOptionalInt64("TENANT_CONFIG_FETCH_TIMEOUT_SECONDS", 10)),
		FallbackFile:        r.readOptionalString("TENANT_CONFIG_FILE", ""),
	}

	// Default storage backend
	config.Store = StoreConfig{
		Backend:            r.readOptionalString("STORE_BACKEND", "memory"),
		MongoURI:           r.readOptionalString("MONGO_URI", ""),
		OpenSearchEndpoint: r.readOptionalString("OPENSEARCH_ENDPOINT", ""),
		OpenSearchUsername: r.readOptionalString("OPENSEARCH_USERNAME", ""),
		OpenSearchPassword: r.readOptionalString("OPENSEARCH_PASSWORD", ""),
	}

	// Postgres is only read when it is the selected backend, so its keys
	// stay optional here and are validated below.
	config.POSTGRESQL = POSTGRESQL{
		Host:     r.readOptionalString("DB_HOST", ""),
		Port:     int(r.readOptionalInt64("DB_PORT", 5432)),
		User:     r.readOptionalString("DB_USER", ""),
		Password: r.readOptionalString("DB_PASSWORD", ""),
		DBName:   r.readOptionalString("DB_NAME", ""),
	}
	config.POSTGRESQL.DbConfigs = DbConfigs{
		// gorm configs
		SkipDefaultTransaction:    r.readOptionalBool("GORM_SKIP_DEFAULT_TRANSACTION", true),
		SlowThresholdMilliseconds: r.readOptionalInt64("GORM_SLOW_THRESHOLD_MILLISECONDS", 200),

		// sql.DB configs
		MaxIdleCount:       r.readNullableInt64("DB_MAX_IDLE_COUNT"),
		MaxOpenCount:       r.readNullableInt64("DB_MAX_OPEN_COUNT"),
		MaxIdleTimeSeconds: r.readNullableInt64("DB_MAX_IDLE_TIME_SECONDS"),
		MaxLifetimeSeconds: r.readNullableInt64("DB_MAX_LIFETIME_SECONDS"),
	}

	// Use Version from ldflags or environment variable override
	config.PackageVersion = r.readOptionalString("TAS_VERSION", Version)

	validateHTTPServerConfigs(config, r)
	validateIngestConfigs(config, r)
	validateStoreConfigs(config, r)

	r.logAndExitIfErrorsFound()

	slog.Info("configReader: configs loaded")
}

func validateHTTPServerConfigs(cfg *Config, r *configReader) {
	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		r.errors = append(r.errors, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort))
	}
	if cfg.ReadTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_READ_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.ReadTimeoutSeconds))
	}
	if cfg.WriteTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_WRITE_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.WriteTimeoutSeconds))
	}
	if cfg.ReadTimeoutSeconds >= cfg.WriteTimeoutSeconds {
		r.errors = append(r.errors, fmt.Errorf("HTTP_READ_TIMEOUT_SECONDS (%d) must be < HTTP_WRITE_TIMEOUT_SECONDS (%d)",
			cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds))
	}
	if cfg.IdleTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_IDLE_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.IdleTimeoutSeconds))
	}
	if cfg.MaxHeaderBytes < 1024 || cfg.MaxHeaderBytes > 1048576 { // 1KB to 1MB
		r.errors = append(r.errors, fmt.Errorf("HTTP_MAX_HEADER_BYTES must be between 1024 and 1048576, got %d", cfg.MaxHeaderBytes))
	}
}

func validateIngestConfigs(cfg *Config, r *configReader) {
	if cfg.Ingest.HTTPPort < 1 || cfg.Ingest.HTTPPort > 65535 {
		r.errors = append(r.errors, fmt.Errorf("INGEST_HTTP_PORT must be between 1 and 65535, got %d", cfg.Ingest.HTTPPort))
	}
	if cfg.Ingest.GRPCPort < 1 || cfg.Ingest.GRPCPort > 65535 {
		r.errors = append(r.errors, fmt.Errorf("INGEST_GRPC_PORT must be between 1 and 65535, got %d", cfg.Ingest.GRPCPort))
	}
	if cfg.Ingest.HTTPPort == cfg.Ingest.GRPCPort {
		r.errors = append(r.errors, fmt.Errorf("INGEST_HTTP_PORT and INGEST_GRPC_PORT must differ, both are %d", cfg.Ingest.HTTPPort))
	}
	if (cfg.Ingest.BasicAuthUsername == "") != (cfg.Ingest.BasicAuthPassword == "") {
		r.errors = append(r.errors, fmt.Errorf("INGEST_BASIC_AUTH_USERNAME and INGEST_BASIC_AUTH_PASSWORD must be set together"))
	}
}

func validateStoreConfigs(cfg *Config, r *configReader) {
	switch cfg.Store.Backend {
	case "memory":
	case "mongo":
		if cfg.Store.MongoURI == "" {
			r.errors = append(r.errors, fmt.Errorf("MONGO_URI is required when STORE_BACKEND=mongo"))
		}
	case "opensearch":
		if cfg.Store.OpenSearchEndpoint == "" {
			r.errors = append(r.errors, fmt.Errorf("OPENSEARCH_ENDPOINT is required when STORE_BACKEND=opensearch"))
		}
	case "postgres":
		for key, value := range map[string]string{
			"DB_HOST":     cfg.POSTGRESQL.Host,
			"DB_USER":     cfg.POSTGRESQL.User,
			"DB_PASSWORD": cfg.POSTGRESQL.Password,
			"DB_NAME":     cfg.POSTGRESQL.DBName,
		} {
			if value == "" {
				r.errors = append(r.errors, fmt.Errorf("%s is required when STORE_BACKEND=postgres", key))
			}
		}
	default:
		r.errors = append(r.errors, fmt.Errorf("STORE_BACKEND must be one of memory, mongo, opensearch, postgres; got %q", cfg.Store.Backend))
	}
}
