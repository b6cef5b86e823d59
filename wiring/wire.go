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

//go:build wireinject
// +build wireinject

package wiring

import (
	"github.com/google/wire"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/controllers"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/events"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/ingest"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/services"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/tenants"
)

var configProviderSet = wire.NewSet(
	ProvideConfigFromPtr,
	ProvideIngestConfig,
)

var tenantProviderSet = wire.NewSet(
	ProvideCatalog,
	ProvideResultCache,
	ProvideResolver,
	ProvideTenantOptions,
	tenants.NewRegistry,
)

var serviceProviderSet = wire.NewSet(
	services.NewTraceService,
	services.NewTraceGroupService,
	services.NewAnalyticsService,
)

var controllerProviderSet = wire.NewSet(
	controllers.NewTraceController,
	controllers.NewTraceGroupController,
	controllers.NewAnalyticsController,
	controllers.NewEventController,
)

var loggerProviderSet = wire.NewSet(
	ProvideLogger,
)

func InitializeAppParams(cfg *config.Config) (*AppParams, error) {
	wire.Build(
		configProviderSet,
		loggerProviderSet,
		tenantProviderSet,
		serviceProviderSet,
		controllerProviderSet,
		events.NewDispatcher,
		ingest.NewIngestor,
		wire.Struct(new(AppParams), "*"),
	)
	return &AppParams{}, nil
}
