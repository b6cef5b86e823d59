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

// Package analytics implements the plugin registry and the DAG execution
// engine that runs analytics pipelines over ingested trace data.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/datamanager"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/visitors"
)

// Deps are the tenant-scoped collaborators handed to plugin instances.
type Deps struct {
	DataManager datamanager.DataManager
	Dedup       *visitors.ActionDedup
	Logger      *slog.Logger
}

// Plugin is one analytics implementation. Execute receives the merged input
// (caller payload + predecessor outputs + config defaults) and returns its
// serialized output, which the engine feeds to successors.
type Plugin interface {
	Execute(ctx context.Context, input map[string]any) (map[string]any, error)
}

// SpecProvider lets a plugin implementation declare its schemas so registry
// records can omit explicit specs and have them inferred.
type SpecProvider interface {
	InputSpec() []models.FieldSpec
	OutputSpec() []models.FieldSpec
}

// ConfigProvider lets a plugin implementation carry default config values.
type ConfigProvider interface {
	DefaultConfig() map[string]any
}

// Factory builds a plugin instance bound to tenant components.
type Factory func(deps Deps) Plugin

// Catalog is the process-local table of builtin plugin factories, looked up
// through RuntimeSpec.Config["factory"].
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog creates an empty factory catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register adds a factory under the given name. Registering the same name
// twice is a programming error.
func (c *Catalog) Register(name string, factory Factory) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.factories[name]; exists {
		return fmt.Errorf("plugin factory %q already registered", name)
	}
	c.factories[name] = factory
	return nil
}

// Resolve returns the factory for a runtime spec. The runtime must be the
// builtin type and name exactly one registered factory.
func (c *Catalog) Resolve(runtime models.RuntimeSpec) (Factory, error) {
	if runtime.Type != models.RuntimeTypeBuiltin {
		return nil, fmt.Errorf("unsupported runtime type %q", runtime.Type)
	}
	name := runtime.Config[models.RuntimeFactoryKey]
	if name == "" {
		return nil, fmt.Errorf("runtime config missing %q", models.RuntimeFactoryKey)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	factory, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown plugin factory %q", name)
	}
	return factory, nil
}

// Names lists the registered factory names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
