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

// Config holds all configuration for the application
type Config struct {
	PackageVersion      string
	ServerHost          string
	ServerPort          int
	AutoMaxProcsEnabled bool
	LogLevel            string
	LogFormat           string

	// CORSAllowedOrigin is the single allowed origin for CORS; use "*" to allow all
	CORSAllowedOrigin string

	// HTTP Server timeout configurations
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
	IdleTimeoutSeconds  int
	MaxHeaderBytes      int

	// Database operation timeout configuration
	DbOperationTimeoutSeconds int
	HealthCheckTimeoutSeconds int

	// Ingest listener configuration (OTLP receivers + log import)
	Ingest IngestConfig

	// Analytics engine configuration
	Engine EngineConfig

	// Tenant configuration resolution
	TenantConfig TenantConfigResolution

	// Default storage backend used when tenant config names none
	Store StoreConfig

	POSTGRESQL POSTGRESQL
}

// IngestConfig holds the dedicated ingest listener configuration.
type IngestConfig struct {
	Host     string
	HTTPPort int
	GRPCPort int

	// BasicAuthUsername/Password guard the OTLP receivers when set.
	BasicAuthUsername string
	BasicAuthPassword string `json:"-"`

	// RewriteOldSpans rewrites span timestamps older than 30 days to
	// yesterday on ingest. Import convenience, off by default.
	RewriteOldSpans bool

	// ExportTimeoutSeconds bounds one span export write.
	ExportTimeoutSeconds int
}

// EngineConfig holds analytics engine knobs.
type EngineConfig struct {
	// ResultCacheEnabled turns on the execution result cache.
	ResultCacheEnabled bool
	Redis              RedisConfig
}

// RedisConfig locates the redis instance backing the result cache.
type RedisConfig struct {
	Addr       string
	Password   string `json:"-"`
	DB         int
	TTLSeconds int
}

// TenantConfigResolution configures the per-tenant configuration sources:
// remote service first, YAML fallback file second, env defaults last.
type TenantConfigResolution struct {
	// ServiceURL is the remote tenant-config service; empty disables it.
	ServiceURL string
	APIKey     string `json:"-"`
	// FetchTimeoutSeconds bounds one remote resolution call.
	FetchTimeoutSeconds int
	// FallbackFile is the watched local YAML file.
	FallbackFile string
}

// StoreConfig selects and locates the default storage backend.
type StoreConfig struct {
	// Backend is one of memory, mongo, opensearch, postgres.
	Backend string

	MongoURI string `json:"-"`

	OpenSearchEndpoint string
	OpenSearchUsername string
	OpenSearchPassword string `json:"-"`
}

type POSTGRESQL struct {
	Host     string
	Port     int
	User     string
	DBName   string
	Password string `json:"-"`
	DbConfigs
}

type DbConfigs struct {
	// gorm configs
	SlowThresholdMilliseconds int64
	SkipDefaultTransaction    bool

	// go sql configs
	MaxIdleCount       *int64 // zero means defaultMaxIdleConns (2); negative means 0
	MaxOpenCount       *int64 // <= 0 means unlimited
	MaxLifetimeSeconds *int64 // maximum amount of time a connection may be reused
	MaxIdleTimeSeconds *int64
}
