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

package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// Registry metadata is persisted per tenant in the analytics collection.
var analyticsTypeInfo = store.TypeInfo{Collection: "analytics", IDField: "id"}

// Registry validates and persists plugin metadata. Every mutation
// re-validates the affected parts of the dependency graph; invalid graphs
// never reach the engine.
type Registry struct {
	store   store.Store
	catalog *Catalog
}

// NewRegistry creates a registry over the given backing store.
func NewRegistry(st store.Store, catalog *Catalog) *Registry {
	return &Registry{store: st, catalog: catalog}
}

// Register validates and stores new plugin metadata.
func (r *Registry) Register(ctx context.Context, meta *models.PluginMetadata) error {
	if meta.ID == "" {
		return fmt.Errorf("%w: plugin id is required", utils.ErrValidation)
	}
	existing, err := r.Get(ctx, meta.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", utils.ErrPluginAlreadyExists, meta.ID)
	}
	if err := r.validate(ctx, meta); err != nil {
		return err
	}
	meta.CreatedAt = time.Now().UTC()
	meta.UpdatedAt = meta.CreatedAt
	if meta.Status == "" {
		meta.Status = models.PluginStatusActive
	}
	doc, err := metaToDocument(meta)
	if err != nil {
		return err
	}
	if _, err := r.store.Store(ctx, analyticsTypeInfo, doc); err != nil {
		return fmt.Errorf("store plugin %s: %w", meta.ID, err)
	}
	return nil
}

// Update validates the new metadata and re-validates every dependent
// against the changed output spec before persisting.
func (r *Registry) Update(ctx context.Context, meta *models.PluginMetadata) error {
	existing, err := r.Get(ctx, meta.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", utils.ErrPluginNotFound, meta.ID)
	}
	if err := r.validate(ctx, meta); err != nil {
		return err
	}

	all, err := r.List(ctx)
	if err != nil {
		return err
	}
	byID := indexByID(all)
	byID[meta.ID] = meta
	for _, other := range all {
		if other.ID == meta.ID {
			continue
		}
		if contains(other.Controller.DependsOn, meta.ID) {
			if err := validateDependencies(&other, byID); err != nil {
				return fmt.Errorf("%w: update breaks dependent %s: %v", utils.ErrValidation, other.ID, err)
			}
		}
	}
	// Plugins this one triggers build their input from our output; check
	// the ones without their own dependency environment.
	for _, triggeredID := range meta.Controller.Triggers {
		if err := validateTriggered(meta, triggeredID, byID); err != nil {
			return err
		}
	}

	meta.CreatedAt = existing.CreatedAt
	meta.UpdatedAt = time.Now().UTC()
	doc, err := metaToDocument(meta)
	if err != nil {
		return err
	}
	if _, err := r.store.Update(ctx, analyticsTypeInfo, analyticsTypeInfo.IDField, meta.ID, doc); err != nil {
		return fmt.Errorf("update plugin %s: %w", meta.ID, err)
	}
	return nil
}

// Delete removes plugin metadata, refusing while any other plugin lists it
// in dependsOn or triggers.
func (r *Registry) Delete(ctx context.Context, id string) error {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", utils.ErrPluginNotFound, id)
	}
	all, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, other := range all {
		if other.ID == id {
			continue
		}
		if contains(other.Controller.DependsOn, id) || contains(other.Controller.Triggers, id) {
			return fmt.Errorf("%w: %s is referenced by %s", utils.ErrPluginInUse, id, other.ID)
		}
	}
	if _, err := r.store.Delete(ctx, analyticsTypeInfo, analyticsTypeInfo.IDField, id); err != nil {
		return fmt.Errorf("delete plugin %s: %w", id, err)
	}
	return nil
}

// Get loads one plugin's metadata, or nil when absent.
func (r *Registry) Get(ctx context.Context, id string) (*models.PluginMetadata, error) {
	doc, err := r.store.Retrieve(ctx, analyticsTypeInfo, analyticsTypeInfo.IDField, id)
	if err != nil {
		return nil, fmt.Errorf("retrieve plugin %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	return metaFromDocument(doc)
}

// List returns all registered plugins.
func (r *Registry) List(ctx context.Context) ([]models.PluginMetadata, error) {
	docs, err := r.store.Search(ctx, analyticsTypeInfo, store.Query{})
	if err != nil {
		return nil, fmt.Errorf("list plugins: %w", err)
	}
	metas := make([]models.PluginMetadata, 0, len(docs))
	for _, doc := range docs {
		meta, err := metaFromDocument(doc)
		if err != nil {
			return nil, err
		}
		metas = append(metas, *meta)
	}
	return metas, nil
}

// validate runs every register/update-time check on one plugin record.
func (r *Registry) validate(ctx context.Context, meta *models.PluginMetadata) error {
	factory, err := r.catalog.Resolve(meta.Runtime)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrValidation, err)
	}

	// Infer specs from the implementation when the record omits them.
	instance := factory(Deps{})
	if provider, ok := instance.(SpecProvider); ok {
		if len(meta.InputSpec) == 0 {
			meta.InputSpec = provider.InputSpec()
		}
		if len(meta.OutputSpec) == 0 {
			meta.OutputSpec = provider.OutputSpec()
		}
	}
	if provider, ok := instance.(ConfigProvider); ok && len(meta.Config) == 0 {
		meta.Config = provider.DefaultConfig()
	}

	if err := models.ValidateSpec(meta.InputSpec); err != nil {
		return fmt.Errorf("%w: input spec: %v", utils.ErrValidation, err)
	}
	if err := models.ValidateSpec(meta.OutputSpec); err != nil {
		return fmt.Errorf("%w: output spec: %v", utils.ErrValidation, err)
	}
	for key, value := range meta.Config {
		field := models.FindField(meta.InputSpec, key)
		if field == nil {
			continue
		}
		if value != nil && !field.Type.CheckValue(value) {
			return fmt.Errorf("%w: config default %q does not match input type %s",
				utils.ErrValidation, key, field.Type)
		}
	}

	all, err := r.List(ctx)
	if err != nil {
		return err
	}
	byID := indexByID(all)
	byID[meta.ID] = meta

	for _, dep := range meta.Controller.DependsOn {
		if _, ok := byID[dep]; !ok {
			return fmt.Errorf("%w: unknown dependency %q", utils.ErrValidation, dep)
		}
	}
	// The mutation can only add edges out of meta.ID, so walking from there
	// finds any cycle it would introduce.
	if cycle := findDependencyCycle(meta.ID, byID); cycle != nil {
		return fmt.Errorf("%w: %s", utils.ErrCyclicDependency, strings.Join(cycle, " -> "))
	}
	if err := validateDependencies(meta, byID); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrValidation, err)
	}
	for _, triggeredID := range meta.Controller.Triggers {
		if _, ok := byID[triggeredID]; !ok {
			return fmt.Errorf("%w: unknown triggered plugin %q", utils.ErrValidation, triggeredID)
		}
		if err := validateTriggered(meta, triggeredID, byID); err != nil {
			return err
		}
	}
	return nil
}

// findDependencyCycle walks dependsOn edges from start and returns the ids
// of the first cycle found, closed with the repeated id, or nil.
func findDependencyCycle(start string, byID map[string]*models.PluginMetadata) []string {
	const (
		visiting = 1
		done     = 2
	)
	state := map[string]int{}
	var path []string

	var walk func(id string) []string
	walk = func(id string) []string {
		state[id] = visiting
		path = append(path, id)
		if meta := byID[id]; meta != nil {
			for _, dep := range meta.Controller.DependsOn {
				switch state[dep] {
				case visiting:
					for i, seen := range path {
						if seen == dep {
							return append(append([]string(nil), path[i:]...), dep)
						}
					}
				case done:
				default:
					if cycle := walk(dep); cycle != nil {
						return cycle
					}
				}
			}
		}
		state[id] = done
		path = path[:len(path)-1]
		return nil
	}
	return walk(start)
}

// validateDependencies checks that the union of output and input fields of
// every dependsOn plugin covers this plugin's required inputs with
// compatible types.
func validateDependencies(meta *models.PluginMetadata, byID map[string]*models.PluginMetadata) error {
	if len(meta.Controller.DependsOn) == 0 {
		return nil
	}
	available := map[string]models.FieldType{}
	for _, depID := range meta.Controller.DependsOn {
		dep := byID[depID]
		if dep == nil {
			continue
		}
		for _, f := range dep.OutputSpec {
			available[f.Name] = f.Type
		}
		for _, f := range dep.InputSpec {
			if _, ok := available[f.Name]; !ok {
				available[f.Name] = f.Type
			}
		}
	}
	for _, f := range meta.InputSpec {
		if !f.Required {
			continue
		}
		produced, ok := available[f.Name]
		if !ok {
			return fmt.Errorf("required input %q not produced by dependencies of %s", f.Name, meta.ID)
		}
		if !produced.Compatible(f.Type) {
			return fmt.Errorf("input %q of %s expects %s but dependencies produce %s",
				f.Name, meta.ID, f.Type, produced)
		}
	}
	return nil
}

// validateTriggered checks a forward edge: a triggered plugin with no own
// dependsOn lives off the triggering plugin's environment; one with its own
// dependencies builds its own and is not checked here.
func validateTriggered(trigger *models.PluginMetadata, triggeredID string, byID map[string]*models.PluginMetadata) error {
	triggered := byID[triggeredID]
	if triggered == nil || len(triggered.Controller.DependsOn) > 0 {
		return nil
	}
	available := map[string]models.FieldType{}
	for _, f := range trigger.OutputSpec {
		available[f.Name] = f.Type
	}
	for _, f := range trigger.InputSpec {
		if _, ok := available[f.Name]; !ok {
			available[f.Name] = f.Type
		}
	}
	for _, f := range triggered.InputSpec {
		if !f.Required {
			continue
		}
		produced, ok := available[f.Name]
		if !ok {
			return fmt.Errorf("%w: triggered plugin %s requires %q which %s does not provide",
				utils.ErrValidation, triggeredID, f.Name, trigger.ID)
		}
		if !produced.Compatible(f.Type) {
			return fmt.Errorf("%w: triggered plugin %s input %q expects %s but %s provides %s",
				utils.ErrValidation, triggeredID, f.Name, f.Type, trigger.ID, produced)
		}
	}
	return nil
}

func metaToDocument(meta *models.PluginMetadata) (store.Document, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal plugin %s: %w", meta.ID, err)
	}
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("document for plugin %s: %w", meta.ID, err)
	}
	return doc, nil
}

func metaFromDocument(doc store.Document) (*models.PluginMetadata, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal plugin document: %w", err)
	}
	var meta models.PluginMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("plugin from document: %w", err)
	}
	return &meta, nil
}

func indexByID(metas []models.PluginMetadata) map[string]*models.PluginMetadata {
	byID := make(map[string]*models.PluginMetadata, len(metas))
	for i := range metas {
		byID[metas[i].ID] = &metas[i]
	}
	return byID
}

func contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
