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

package services

import (
	"context"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/tenants"
)

// AnalyticsService manages plugin registrations and dispatches executions
// for the caller's tenant.
type AnalyticsService interface {
	Register(ctx context.Context, meta *models.PluginMetadata) error
	Update(ctx context.Context, meta *models.PluginMetadata) error
	Delete(ctx context.Context, analyticsID string) error
	Get(ctx context.Context, analyticsID string) (*models.PluginMetadata, error)
	List(ctx context.Context) ([]models.PluginMetadata, error)
	Execute(ctx context.Context, analyticsID string, input map[string]any) (*models.ExecutionResult, error)
	GetResult(ctx context.Context, resultID string) (*models.ExecutionResult, error)
	ListResults(ctx context.Context, analyticsID string) ([]models.ExecutionResult, error)
}

type analyticsService struct {
	tenants *tenants.Registry
}

// NewAnalyticsService creates the analytics service over the tenant
// registry.
func NewAnalyticsService(registry *tenants.Registry) AnalyticsService {
	return &analyticsService{tenants: registry}
}

func (s *analyticsService) Register(ctx context.Context, meta *models.PluginMetadata) error {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return err
	}
	return c.Registry.Register(ctx, meta)
}

func (s *analyticsService) Update(ctx context.Context, meta *models.PluginMetadata) error {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return err
	}
	return c.Registry.Update(ctx, meta)
}

func (s *analyticsService) Delete(ctx context.Context, analyticsID string) error {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return err
	}
	return c.Registry.Delete(ctx, analyticsID)
}

func (s *analyticsService) Get(ctx context.Context, analyticsID string) (*models.PluginMetadata, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	return c.Registry.Get(ctx, analyticsID)
}

func (s *analyticsService) List(ctx context.Context) ([]models.PluginMetadata, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	return c.Registry.List(ctx)
}

func (s *analyticsService) Execute(ctx context.Context, analyticsID string, input map[string]any) (*models.ExecutionResult, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	return c.Engine.Execute(ctx, analyticsID, input)
}

func (s *analyticsService) GetResult(ctx context.Context, resultID string) (*models.ExecutionResult, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	return c.Results.Get(ctx, resultID)
}

func (s *analyticsService) ListResults(ctx context.Context, analyticsID string) ([]models.ExecutionResult, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	return c.Results.ListByAnalytics(ctx, analyticsID)
}
