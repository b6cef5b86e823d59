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

package wiring

import (
	"log/slog"
	"time"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics/cache"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/clients/tenantcfgsvc"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/controllers"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/events"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/ingest"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/plugins"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/tenants"
)

// AppParams contains all wired application dependencies
type AppParams struct {
	Logger *slog.Logger

	// Controllers
	TraceController      controllers.TraceController
	TraceGroupController controllers.TraceGroupController
	AnalyticsController  controllers.AnalyticsController
	EventController      controllers.EventController

	// Shared singletons
	Tenants    *tenants.Registry
	Ingestor   *ingest.Ingestor
	Dispatcher *events.Dispatcher
}

func ProvideConfigFromPtr(config *config.Config) config.Config {
	return *config
}

// ProvideLogger provides the configured slog.Logger instance
func ProvideLogger() *slog.Logger {
	return slog.Default()
}

// ProvideCatalog builds the plugin factory catalog with the builtins
// registered.
func ProvideCatalog() (*analytics.Catalog, error) {
	catalog := analytics.NewCatalog()
	if err := plugins.RegisterBuiltins(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// ProvideResultCache builds the engine result cache: redis when the flag is
// on, a no-op otherwise.
func ProvideResultCache(cfg config.Config) cache.ResultCache {
	if !cfg.Engine.ResultCacheEnabled {
		return cache.Noop{}
	}
	return cache.NewRedis(cfg.Engine.Redis.Addr, cfg.Engine.Redis.Password, cfg.Engine.Redis.DB,
		time.Duration(cfg.Engine.Redis.TTLSeconds)*time.Second)
}

// ProvideResolver builds the tenant-config resolver with the environment
// store settings as the last fallback.
func ProvideResolver(cfg config.Config) *tenantcfgsvc.Resolver {
	return tenantcfgsvc.NewResolver(cfg.TenantConfig, tenants.DefaultStoreSettings(&cfg), nil)
}

func ProvideTenantOptions(cfg config.Config, resultCache cache.ResultCache, logger *slog.Logger) tenants.Options {
	return tenants.Options{
		ResultCache:  resultCache,
		CacheEnabled: cfg.Engine.ResultCacheEnabled,
		Logger:       logger,
	}
}

func ProvideIngestConfig(cfg config.Config) config.IngestConfig {
	return cfg.Ingest
}
