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

// Package tenants caches the per-tenant component set: the backing store,
// the data-manager over it, and the analytics registry and engine. Tenants
// are built lazily on first use, serialized per tenant id so concurrent
// requests for the same tenant share one initialization.
package tenants

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics/cache"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/clients/requests"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/clients/tenantcfgsvc"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/config"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/datamanager"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store/memory"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store/mongo"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store/opensearch"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store/postgres"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/visitors"
)

// Components is everything request handling needs for one tenant.
type Components struct {
	TenantID    string
	Store       store.Store
	DataManager datamanager.DataManager
	Registry    *analytics.Registry
	Results     *analytics.ResultStore
	Engine      *analytics.Engine
	Deps        analytics.Deps
}

// Options carries the process-wide collaborators shared across tenants.
type Options struct {
	ResultCache  cache.ResultCache
	CacheEnabled bool
	// HTTPClient backs the opensearch stores; nil uses the default
	// retryable client.
	HTTPClient requests.HttpClient
	Logger     *slog.Logger
}

// Registry lazily builds and caches tenant components.
type Registry struct {
	resolver *tenantcfgsvc.Resolver
	catalog  *analytics.Catalog
	opts     Options

	mu      sync.Mutex
	tenants map[string]*entry

	// pgConns shares one gorm pool per DSN across postgres-backed tenants.
	pgMu    sync.Mutex
	pgConns map[string]*gorm.DB
}

type entry struct {
	mu         sync.Mutex
	components *Components
}

func NewRegistry(resolver *tenantcfgsvc.Resolver, catalog *analytics.Catalog, opts Options) *Registry {
	if opts.ResultCache == nil {
		opts.ResultCache = cache.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Registry{
		resolver: resolver,
		catalog:  catalog,
		opts:     opts,
		tenants:  make(map[string]*entry),
		pgConns:  make(map[string]*gorm.DB),
	}
}

// Get returns the components for tenantID, building them on first use.
// Failed initializations are not cached; the next call retries.
func (r *Registry) Get(ctx context.Context, tenantID string) (*Components, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", utils.ErrInvalidInput)
	}

	r.mu.Lock()
	e, ok := r.tenants[tenantID]
	if !ok {
		e = &entry{}
		r.tenants[tenantID] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.components != nil {
		return e.components, nil
	}

	components, err := r.build(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	e.components = components
	return components, nil
}

// Invalidate drops every cached tenant so the next request rebuilds from
// fresh configuration. In-flight requests keep their old components.
func (r *Registry) Invalidate(ctx context.Context) {
	r.mu.Lock()
	dropped := r.tenants
	r.tenants = make(map[string]*entry)
	r.mu.Unlock()

	log := logger.GetLogger(ctx)
	for tenantID, e := range dropped {
		e.mu.Lock()
		c := e.components
		e.mu.Unlock()
		if c == nil {
			continue
		}
		if err := c.DataManager.Close(ctx); err != nil {
			log.Warn("tenants: closing dropped tenant failed",
				slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		}
	}
}

// Close releases every cached tenant and the shared postgres pools. The
// registry must not be used afterwards.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	dropped := r.tenants
	r.tenants = make(map[string]*entry)
	r.mu.Unlock()

	var firstErr error
	for tenantID, e := range dropped {
		e.mu.Lock()
		c := e.components
		e.mu.Unlock()
		if c == nil {
			continue
		}
		if err := c.DataManager.Close(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing tenant %s: %w", tenantID, err)
		}
	}

	r.pgMu.Lock()
	conns := r.pgConns
	r.pgConns = make(map[string]*gorm.DB)
	r.pgMu.Unlock()
	for _, db := range conns {
		sqlDB, err := db.DB()
		if err != nil {
			continue
		}
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Registry) build(ctx context.Context, tenantID string) (*Components, error) {
	cfg, err := r.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	st, err := r.buildStore(ctx, tenantID, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("building store for tenant %s: %w", tenantID, err)
	}

	dm, err := datamanager.New(datamanager.Partition{Store: st})
	if err != nil {
		return nil, err
	}

	deps := analytics.Deps{
		DataManager: dm,
		Dedup:       visitors.NewActionDedup(),
		Logger:      r.opts.Logger.With(slog.String("tenant_id", tenantID)),
	}
	registry := analytics.NewRegistry(st, r.catalog)
	results := analytics.NewResultStore(st)
	engine := analytics.NewEngine(registry, r.catalog, results, deps, r.opts.ResultCache, r.opts.CacheEnabled)

	logger.GetLogger(ctx).Info("tenants: components initialized",
		slog.String("tenant_id", tenantID), slog.String("backend", cfg.Store.Backend))

	return &Components{
		TenantID:    tenantID,
		Store:       st,
		DataManager: dm,
		Registry:    registry,
		Results:     results,
		Engine:      engine,
		Deps:        deps,
	}, nil
}

func (r *Registry) buildStore(ctx context.Context, tenantID string, settings tenantcfgsvc.StoreSettings) (store.Store, error) {
	switch settings.Backend {
	case "", "memory":
		return memory.NewStore(), nil

	case "mongo":
		client, err := mongo.Connect(ctx, settings.MongoURI)
		if err != nil {
			return nil, err
		}
		return mongo.NewStore(mongo.Options{
			Client:   client,
			Database: databaseName(tenantID),
		})

	case "opensearch":
		return opensearch.NewStore(opensearch.Options{
			Endpoint:    settings.OpenSearchEndpoint,
			Username:    settings.OpenSearchUsername,
			Password:    settings.OpenSearchPassword,
			IndexPrefix: databaseName(tenantID),
			Client:      r.opts.HTTPClient,
		})

	case "postgres":
		pg := settings.Postgres
		if pg == nil {
			return nil, fmt.Errorf("%w: postgres settings missing for tenant %s", utils.ErrTenantConfig, tenantID)
		}
		db, err := r.postgresConn(*pg)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(db, tenantID)

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", utils.ErrTenantConfig, settings.Backend)
	}
}

func (r *Registry) postgresConn(pg tenantcfgsvc.PostgresSettings) (*gorm.DB, error) {
	dsn := PostgresDSN(pg)
	r.pgMu.Lock()
	defer r.pgMu.Unlock()
	if db, ok := r.pgConns[dsn]; ok {
		return db, nil
	}
	db, err := postgres.Connect(dsn)
	if err != nil {
		return nil, err
	}
	r.pgConns[dsn] = db
	return db, nil
}

// PostgresDSN renders the keyword/value connection string gorm's pgx driver
// expects.
func PostgresDSN(pg tenantcfgsvc.PostgresSettings) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
}

// databaseName derives a backend-safe namespace from the tenant id.
func databaseName(tenantID string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, tenantID)
	return "tas_" + sanitized
}

// DefaultStoreSettings maps the env-level store config to the per-tenant
// settings shape used when no other source names the tenant.
func DefaultStoreSettings(cfg *config.Config) tenantcfgsvc.StoreSettings {
	settings := tenantcfgsvc.StoreSettings{
		Backend:            cfg.Store.Backend,
		MongoURI:           cfg.Store.MongoURI,
		OpenSearchEndpoint: cfg.Store.OpenSearchEndpoint,
		OpenSearchUsername: cfg.Store.OpenSearchUsername,
		OpenSearchPassword: cfg.Store.OpenSearchPassword,
	}
	if cfg.Store.Backend == "postgres" {
		settings.Postgres = &tenantcfgsvc.PostgresSettings{
			Host:     cfg.POSTGRESQL.Host,
			Port:     cfg.POSTGRESQL.Port,
			User:     cfg.POSTGRESQL.User,
			Password: cfg.POSTGRESQL.Password,
			DBName:   cfg.POSTGRESQL.DBName,
		}
	}
	return settings
}
