// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
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

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
)

// TenantIDHeader selects the tenant whose data a request operates on.
const TenantIDHeader = "X-Tenant-Id"

type tenantIDCtxKey struct{}

var tenantIDKey tenantIDCtxKey

// GetTenantID returns the tenant id carried by ctx, or empty.
func GetTenantID(ctx context.Context) string {
	if id, ok := ctx.Value(tenantIDKey).(string); ok {
		return id
	}
	return ""
}

// WithTenantID returns a context carrying the given tenant id. Intended for
// background jobs and tests that run outside an HTTP request.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantContext resolves the tenant from the X-Tenant-Id header, falling
// back to defaultTenant when the header is absent.
func TenantContext(defaultTenant string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := r.Header.Get(TenantIDHeader)
			if tenantID == "" {
				tenantID = defaultTenant
			}

			ctx := WithTenantID(r.Context(), tenantID)
			log := logger.GetLogger(ctx).With(slog.String("tenant_id", tenantID))
			ctx = logger.WithLogger(ctx, log)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
