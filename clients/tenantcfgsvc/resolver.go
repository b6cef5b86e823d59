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

package tenantcfgsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/clients/requests"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

const apiKeyHeader = "X-Api-Key"

// Resolver resolves tenant configuration from the remote service, the YAML
// fallback file, and the env defaults, in that order. A remote outage or an
// unknown tenant falls through to the next source; a malformed fallback file
// is an error.
type Resolver struct {
	client       requests.HttpClient
	serviceURL   string
	apiKey       string
	fetchTimeout time.Duration
	fallbackFile string
	defaults     StoreSettings
}

func NewResolver(cfg config.TenantConfigResolution, defaults StoreSettings, client requests.HttpClient) *Resolver {
	if client == nil {
		client = configFetchClient(cfg)
	}
	return &Resolver{
		client:       client,
		serviceURL:   cfg.ServiceURL,
		apiKey:       cfg.APIKey,
		fetchTimeout: time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		fallbackFile: cfg.FallbackFile,
		defaults:     defaults,
	}
}

// configFetchClient retries config fetches briefly: resolution sits on the
// request path, so a flapping config service should fail over to the
// fallback file within the fetch timeout rather than back off for seconds.
func configFetchClient(cfg config.TenantConfigResolution) requests.HttpClient {
	return requests.NewRetryableHTTPClient(requests.RequestRetryConfig{
		RetryWaitMin:     200 * time.Millisecond,
		RetryWaitMax:     2 * time.Second,
		RetryAttemptsMax: 2,
		AttemptTimeout:   time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
	})
}

func (r *Resolver) Resolve(ctx context.Context, tenantID string) (*TenantConfig, error) {
	log := logger.GetLogger(ctx)

	if r.serviceURL != "" {
		cfg, err := r.resolveRemote(ctx, tenantID)
		if err == nil {
			return cfg, nil
		}
		log.Warn("tenantcfgsvc: remote resolution failed, using fallback",
			slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
	}

	if r.fallbackFile != "" {
		cfg, err := r.resolveFromFile(tenantID)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			return cfg, nil
		}
	}

	return &TenantConfig{TenantID: tenantID, Store: r.defaults}, nil
}

func (r *Resolver) resolveRemote(ctx context.Context, tenantID string) (*TenantConfig, error) {
	if r.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()
	}

	req := &requests.HttpRequest{
		Name:   "resolve-tenant-config",
		URL:    fmt.Sprintf("%s/api/v1/tenants/%s/config", r.serviceURL, tenantID),
		Method: http.MethodGet,
	}
	if r.apiKey != "" {
		req.SetHeader(apiKeyHeader, r.apiKey)
	}

	var cfg TenantConfig
	if err := requests.SendRequest(ctx, r.client, req).ScanResponse(&cfg, http.StatusOK); err != nil {
		var httpErr *requests.HttpError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %v", utils.ErrTenantUnauthorized, err)
		}
		return nil, err
	}
	if cfg.TenantID == "" {
		cfg.TenantID = tenantID
	}
	return &cfg, nil
}

// fallbackDocument is the shape of the watched YAML file: a map keyed by
// tenant id.
type fallbackDocument struct {
	Tenants map[string]StoreSettings `json:"tenants"`
}

func (r *Resolver) resolveFromFile(tenantID string) (*TenantConfig, error) {
	data, err := os.ReadFile(r.fallbackFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", utils.ErrTenantConfig, r.fallbackFile, err)
	}

	var doc fallbackDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", utils.ErrTenantConfig, r.fallbackFile, err)
	}

	settings, ok := doc.Tenants[tenantID]
	if !ok {
		return nil, nil
	}
	return &TenantConfig{TenantID: tenantID, Store: settings}, nil
}
