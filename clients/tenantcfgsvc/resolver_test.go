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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

var envDefaults = StoreSettings{Backend: "memory"}

func TestResolverRemoteWins(t *testing.T) {
	var gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("X-Api-Key")
		assert.Equal(t, "/api/v1/tenants/acme/config", r.URL.Path)
		_ = json.NewEncoder(w).Encode(TenantConfig{
			TenantID: "acme",
			Store:    StoreSettings{Backend: "mongo", MongoURI: "mongodb://db/acme"},
		})
	}))
	defer srv.Close()

	r := NewResolver(config.TenantConfigResolution{
		ServiceURL:          srv.URL,
		APIKey:              "secret",
		FetchTimeoutSeconds: 5,
	}, envDefaults, srv.Client())

	cfg, err := r.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "secret", gotAPIKey)
	assert.Equal(t, "mongo", cfg.Store.Backend)
	assert.Equal(t, "mongodb://db/acme", cfg.Store.MongoURI)
}

func TestResolverRetriesTransientConfigFetch(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(TenantConfig{
			TenantID: "acme",
			Store:    StoreSettings{Backend: "mongo", MongoURI: "mongodb://db/acme"},
		})
	}))
	defer srv.Close()

	// nil client takes the config-fetch retry policy
	r := NewResolver(config.TenantConfigResolution{
		ServiceURL:          srv.URL,
		FetchTimeoutSeconds: 5,
	}, envDefaults, nil)

	cfg, err := r.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "mongo", cfg.Store.Backend)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(2))
}

func TestResolverFallsBackToFileWhenRemoteFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	file := writeFallback(t, `
tenants:
  acme:
    backend: opensearch
    opensearch_endpoint: http://search:9200
`)

	r := NewResolver(config.TenantConfigResolution{
		ServiceURL:          srv.URL,
		FetchTimeoutSeconds: 5,
		FallbackFile:        file,
	}, envDefaults, srv.Client())

	cfg, err := r.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "opensearch", cfg.Store.Backend)
	assert.Equal(t, "http://search:9200", cfg.Store.OpenSearchEndpoint)
}

func TestResolverEnvDefaultsWhenTenantUnknown(t *testing.T) {
	file := writeFallback(t, "tenants:\n  other:\n    backend: mongo\n")

	r := NewResolver(config.TenantConfigResolution{FallbackFile: file}, envDefaults, nil)
	cfg, err := r.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.TenantID)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestResolverMalformedFallbackFile(t *testing.T) {
	file := writeFallback(t, "tenants: [not a map")

	r := NewResolver(config.TenantConfigResolution{FallbackFile: file}, envDefaults, nil)
	_, err := r.Resolve(context.Background(), "acme")
	require.ErrorIs(t, err, utils.ErrTenantConfig)
}

func TestWatchFallbackFileSignalsChanges(t *testing.T) {
	file := writeFallback(t, "tenants: {}\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	require.NoError(t, WatchFallbackFile(ctx, file, func() {
		changed <- struct{}{}
	}))

	require.NoError(t, os.WriteFile(file, []byte("tenants:\n  acme:\n    backend: memory\n"), 0o600))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not observe the write")
	}
}

func writeFallback(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}
