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

// Package datamanager is the entity/relation persistence contract every
// plugin and the analytics engine consume. It wraps the store layer with
// domain queries (ownership traversal, relation back-queries, trace and
// trace-group lookups) and is instantiated once per tenant.
package datamanager

import (
	"context"
	"fmt"
	"time"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
)

// ElementIDField is the identity field of every persisted element.
const ElementIDField = "element_id"

// Partition is one backing store under an optional tag. Calls carrying a
// tag are narrowed to the matching partition; calls without a tag search
// every partition and write to the first (the default partition).
type Partition struct {
	Tag   string
	Store store.Store
}

// DataManager is the domain persistence contract.
//
// Reads return (nil, nil) or an empty slice when nothing matches; absence is
// never an error. Backend outages propagate as transport errors without
// retries at this layer.
type DataManager interface {
	GetByID(ctx context.Context, elementID string, kind models.ElementKind, tag string) (*models.Element, error)
	GetChildren(ctx context.Context, rootID string, childKind models.ElementKind, tag string) ([]models.Element, error)
	// GetChildrenForList is the batch variant of GetChildren: a flat result
	// the caller regroups by root_id.
	GetChildrenForList(ctx context.Context, rootIDs []string, childKind models.ElementKind) ([]models.Element, error)

	GetSpans(ctx context.Context, traceID string) ([]models.Element, error)
	GetTraces(ctx context.Context, serviceName string, from, to time.Time) ([]models.Element, error)
	GetTraceGroups(ctx context.Context, serviceName string) ([]models.Element, error)
	GetTracesForTraceGroup(ctx context.Context, groupID string) ([]models.Element, error)

	// GetRelatedElements follows the artifact's related_to links forward,
	// returning only relations of the given kind.
	GetRelatedElements(ctx context.Context, elementID string, kind models.ElementKind, relatedKind models.ElementKind) ([]models.Element, error)
	// GetElementsRelatedToArtifact answers the backward query: which
	// elements list the artifact among their related_to_ids.
	GetElementsRelatedToArtifact(ctx context.Context, artifact *models.Element) ([]models.Element, error)
	// GetElementsRelatedToArtifactAndType narrows the backward query to one
	// target kind, so only that kind's collection is scanned.
	GetElementsRelatedToArtifactAndType(ctx context.Context, artifact *models.Element, targetKind models.ElementKind) ([]models.Element, error)

	Search(ctx context.Context, kind models.ElementKind, q store.Query) ([]models.Element, error)
	Store(ctx context.Context, el *models.Element) (string, error)
	Update(ctx context.Context, el *models.Element) (bool, error)
	Delete(ctx context.Context, elementID string, kind models.ElementKind) (bool, error)
	BulkStore(ctx context.Context, els []models.Element, ignoreDuplicates bool) ([]string, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type dataManager struct {
	partitions []Partition
}

var _ DataManager = (*dataManager)(nil)

// New creates a data-manager over the given partitions. The first partition
// is the default write target; at least one partition is required.
func New(partitions ...Partition) (DataManager, error) {
	if len(partitions) == 0 {
		return nil, fmt.Errorf("data manager requires at least one partition")
	}
	return &dataManager{partitions: partitions}, nil
}

func typeInfo(kind models.ElementKind) store.TypeInfo {
	return store.TypeInfo{Collection: kind.CollectionName(), IDField: ElementIDField}
}

// selectPartitions narrows to the tagged partition, or all when tag is "".
func (m *dataManager) selectPartitions(tag string) []Partition {
	if tag == "" {
		return m.partitions
	}
	for _, p := range m.partitions {
		if p.Tag == tag {
			return []Partition{p}
		}
	}
	return nil
}

func (m *dataManager) defaultStore() store.Store {
	return m.partitions[0].Store
}

func (m *dataManager) GetByID(ctx context.Context, elementID string, kind models.ElementKind, tag string) (*models.Element, error) {
	for _, p := range m.selectPartitions(tag) {
		doc, err := p.Store.Retrieve(ctx, typeInfo(kind), ElementIDField, elementID)
		if err != nil {
			return nil, fmt.Errorf("retrieve %s %s: %w", kind, elementID, err)
		}
		if doc != nil {
			return FromDocument(doc)
		}
	}
	return nil, nil
}

// searchAll runs the query against every selected partition and
// concatenates. With multiple partitions and a sort, per-partition order is
// preserved but no global merge happens; tagged calls get exact ordering.
func (m *dataManager) searchAll(ctx context.Context, kind models.ElementKind, q store.Query, tag string) ([]models.Element, error) {
	var all []models.Element
	for _, p := range m.selectPartitions(tag) {
		docs, err := p.Store.Search(ctx, typeInfo(kind), q)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", kind, err)
		}
		els, err := FromDocuments(docs)
		if err != nil {
			return nil, err
		}
		all = append(all, els...)
	}
	return all, nil
}

func (m *dataManager) GetChildren(ctx context.Context, rootID string, childKind models.ElementKind, tag string) ([]models.Element, error) {
	q := store.Query{Filters: map[string]store.Filter{
		"root_id": {Op: store.OpEqual, Value: rootID},
		"type":    {Op: store.OpEqual, Value: string(childKind)},
	}}
	return m.searchAll(ctx, childKind, q, tag)
}

func (m *dataManager) GetChildrenForList(ctx context.Context, rootIDs []string, childKind models.ElementKind) ([]models.Element, error) {
	if len(rootIDs) == 0 {
		return nil, nil
	}
	q := store.Query{Filters: map[string]store.Filter{
		"root_id": {Op: store.OpEqualsMany, Value: rootIDs},
		"type":    {Op: store.OpEqual, Value: string(childKind)},
	}}
	return m.searchAll(ctx, childKind, q, "")
}

func (m *dataManager) GetSpans(ctx context.Context, traceID string) ([]models.Element, error) {
	q := store.Query{
		Filters: map[string]store.Filter{
			"root_id": {Op: store.OpEqual, Value: traceID},
		},
		Sort: &store.Sort{Field: "span.start_time"},
	}
	return m.searchAll(ctx, models.KindSpan, q, "")
}

func (m *dataManager) GetTraces(ctx context.Context, serviceName string, from, to time.Time) ([]models.Element, error) {
	filters := map[string]store.Filter{
		"trace.service_name": {Op: store.OpEqual, Value: serviceName},
	}
	if !from.IsZero() {
		filters["trace.start_time"] = store.Filter{Op: store.OpGreaterEqual, Value: from.UTC().Format(time.RFC3339Nano)}
	}
	if !to.IsZero() {
		filters["trace.end_time"] = store.Filter{Op: store.OpLessEqual, Value: to.UTC().Format(time.RFC3339Nano)}
	}
	q := store.Query{Filters: filters, Sort: &store.Sort{Field: "trace.start_time"}}
	return m.searchAll(ctx, models.KindTrace, q, "")
}

func (m *dataManager) GetTraceGroups(ctx context.Context, serviceName string) ([]models.Element, error) {
	filters := map[string]store.Filter{}
	if serviceName != "" {
		filters["trace_group.service_name"] = store.Filter{Op: store.OpEqual, Value: serviceName}
	}
	return m.searchAll(ctx, models.KindTraceGroup, store.Query{Filters: filters}, "")
}

func (m *dataManager) GetTracesForTraceGroup(ctx context.Context, groupID string) ([]models.Element, error) {
	group, err := m.GetByID(ctx, groupID, models.KindTraceGroup, "")
	if err != nil {
		return nil, err
	}
	if group == nil || group.TraceGroup == nil || len(group.TraceGroup.TraceIDs) == 0 {
		return nil, nil
	}
	q := store.Query{Filters: map[string]store.Filter{
		ElementIDField: {Op: store.OpEqualsMany, Value: group.TraceGroup.TraceIDs},
	}}
	traces, err := m.searchAll(ctx, models.KindTrace, q, "")
	if err != nil {
		return nil, err
	}
	// Restore the group's declared ordering; the id-set query is unordered.
	byID := make(map[string]models.Element, len(traces))
	for _, t := range traces {
		byID[t.ElementID] = t
	}
	ordered := make([]models.Element, 0, len(traces))
	for _, id := range group.TraceGroup.TraceIDs {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered, nil
}

func (m *dataManager) GetRelatedElements(ctx context.Context, elementID string, kind models.ElementKind, relatedKind models.ElementKind) ([]models.Element, error) {
	el, err := m.GetByID(ctx, elementID, kind, "")
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, nil
	}
	var ids []string
	for i, relID := range el.RelatedToIDs {
		if el.RelatedToTypes[i] == relatedKind {
			ids = append(ids, relID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	q := store.Query{Filters: map[string]store.Filter{
		ElementIDField: {Op: store.OpEqualsMany, Value: ids},
	}}
	return m.searchAll(ctx, relatedKind, q, "")
}

func (m *dataManager) GetElementsRelatedToArtifact(ctx context.Context, artifact *models.Element) ([]models.Element, error) {
	var all []models.Element
	for _, kind := range models.AllElementKinds {
		els, err := m.GetElementsRelatedToArtifactAndType(ctx, artifact, kind)
		if err != nil {
			return nil, err
		}
		all = append(all, els...)
	}
	return all, nil
}

func (m *dataManager) GetElementsRelatedToArtifactAndType(ctx context.Context, artifact *models.Element, targetKind models.ElementKind) ([]models.Element, error) {
	q := store.Query{Filters: map[string]store.Filter{
		"related_to_ids": {Op: store.OpArrayContains, Value: artifact.ElementID},
		"type":           {Op: store.OpEqual, Value: string(targetKind)},
	}}
	return m.searchAll(ctx, targetKind, q, "")
}

func (m *dataManager) Search(ctx context.Context, kind models.ElementKind, q store.Query) ([]models.Element, error) {
	return m.searchAll(ctx, kind, q, "")
}

func (m *dataManager) Store(ctx context.Context, el *models.Element) (string, error) {
	doc, err := ToDocument(el)
	if err != nil {
		return "", err
	}
	id, err := m.defaultStore().Store(ctx, typeInfo(el.Kind), doc)
	if err != nil {
		return "", fmt.Errorf("store %s %s: %w", el.Kind, el.ElementID, err)
	}
	return id, nil
}

func (m *dataManager) Update(ctx context.Context, el *models.Element) (bool, error) {
	doc, err := ToDocument(el)
	if err != nil {
		return false, err
	}
	ok, err := m.defaultStore().Update(ctx, typeInfo(el.Kind), ElementIDField, el.ElementID, doc)
	if err != nil {
		return false, fmt.Errorf("update %s %s: %w", el.Kind, el.ElementID, err)
	}
	return ok, nil
}

func (m *dataManager) Delete(ctx context.Context, elementID string, kind models.ElementKind) (bool, error) {
	ok, err := m.defaultStore().Delete(ctx, typeInfo(kind), ElementIDField, elementID)
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", kind, elementID, err)
	}
	return ok, nil
}

func (m *dataManager) BulkStore(ctx context.Context, els []models.Element, ignoreDuplicates bool) ([]string, error) {
	// Elements may span collections; group per kind but keep per-item
	// independence: a failing group does not abort the others.
	grouped := make(map[models.ElementKind][]store.Document)
	for i := range els {
		doc, err := ToDocument(&els[i])
		if err != nil {
			return nil, err
		}
		grouped[els[i].Kind] = append(grouped[els[i].Kind], doc)
	}
	var stored []string
	var firstErr error
	for kind, docs := range grouped {
		ids, err := m.defaultStore().BulkStore(ctx, typeInfo(kind), docs, ignoreDuplicates)
		stored = append(stored, ids...)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("bulk store %s: %w", kind, err)
		}
	}
	return stored, firstErr
}

func (m *dataManager) Ping(ctx context.Context) error {
	for _, p := range m.partitions {
		if err := p.Store.Ping(ctx); err != nil {
			return fmt.Errorf("partition %q: %w", p.Tag, err)
		}
	}
	return nil
}

func (m *dataManager) Close(ctx context.Context) error {
	var firstErr error
	for _, p := range m.partitions {
		if err := p.Store.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
