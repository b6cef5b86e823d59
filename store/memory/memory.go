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

// Package memory implements the store contract with process-local maps.
// It backs tests and single-node deployments without external services.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
)

type memoryStore struct {
	mu sync.RWMutex
	// collections maps collection name -> identity value -> document.
	collections map[string]map[string]store.Document
	// order preserves insertion order per collection so unsorted reads stay
	// deterministic in tests.
	order map[string][]string
}

var _ store.Store = (*memoryStore)(nil)

// NewStore creates an empty in-memory store.
func NewStore() store.Store {
	return &memoryStore{
		collections: make(map[string]map[string]store.Document),
		order:       make(map[string][]string),
	}
}

func (s *memoryStore) Store(ctx context.Context, ti store.TypeInfo, doc store.Document) (string, error) {
	id := store.DocumentID(doc, ti.IDField)
	if id == "" {
		return "", fmt.Errorf("document missing %s", ti.IDField)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[ti.Collection]
	if coll == nil {
		coll = make(map[string]store.Document)
		s.collections[ti.Collection] = coll
	}
	if _, exists := coll[id]; exists {
		return "", fmt.Errorf("%s %q in %s: %w", ti.IDField, id, ti.Collection, store.ErrDuplicate)
	}
	coll[id] = cloneDocument(doc)
	s.order[ti.Collection] = append(s.order[ti.Collection], id)
	return id, nil
}

func (s *memoryStore) Retrieve(ctx context.Context, ti store.TypeInfo, idField, idValue string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll := s.collections[ti.Collection]
	if idField == ti.IDField {
		if doc, ok := coll[idValue]; ok {
			return cloneDocument(doc), nil
		}
		return nil, nil
	}
	for _, id := range s.order[ti.Collection] {
		doc := coll[id]
		if matchesFilter(doc, idField, store.Filter{Op: store.OpEqual, Value: idValue}) {
			return cloneDocument(doc), nil
		}
	}
	return nil, nil
}

func (s *memoryStore) Search(ctx context.Context, ti store.TypeInfo, q store.Query) ([]store.Document, error) {
	s.mu.RLock()
	coll := s.collections[ti.Collection]
	matched := make([]store.Document, 0)
	for _, id := range s.order[ti.Collection] {
		doc := coll[id]
		if matchesQuery(doc, q) {
			matched = append(matched, cloneDocument(doc))
		}
	}
	s.mu.RUnlock()

	if q.Sort != nil {
		field, desc := q.Sort.Field, q.Sort.Desc
		sort.SliceStable(matched, func(i, j int) bool {
			less := compareValues(lookupPath(matched[i], field), lookupPath(matched[j], field)) < 0
			if desc {
				return !less
			}
			return less
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (s *memoryStore) Update(ctx context.Context, ti store.TypeInfo, idField, idValue string, doc store.Document) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[ti.Collection]
	if idField == ti.IDField {
		if _, ok := coll[idValue]; !ok {
			return false, nil
		}
		coll[idValue] = cloneDocument(doc)
		return true, nil
	}
	for _, id := range s.order[ti.Collection] {
		if matchesFilter(coll[id], idField, store.Filter{Op: store.OpEqual, Value: idValue}) {
			coll[id] = cloneDocument(doc)
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) Delete(ctx context.Context, ti store.TypeInfo, idField, idValue string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[ti.Collection]
	target := ""
	if idField == ti.IDField {
		if _, ok := coll[idValue]; ok {
			target = idValue
		}
	} else {
		for _, id := range s.order[ti.Collection] {
			if matchesFilter(coll[id], idField, store.Filter{Op: store.OpEqual, Value: idValue}) {
				target = id
				break
			}
		}
	}
	if target == "" {
		return false, nil
	}
	delete(coll, target)
	ids := s.order[ti.Collection]
	for i, id := range ids {
		if id == target {
			s.order[ti.Collection] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *memoryStore) BulkStore(ctx context.Context, ti store.TypeInfo, docs []store.Document, ignoreDuplicates bool) ([]string, error) {
	stored := make([]string, 0, len(docs))
	var errs []error
	for _, doc := range docs {
		id, err := s.Store(ctx, ti, doc)
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) && ignoreDuplicates {
				continue
			}
			errs = append(errs, err)
			continue
		}
		stored = append(stored, id)
	}
	return stored, errors.Join(errs...)
}

func (s *memoryStore) Ping(ctx context.Context) error { return nil }

func (s *memoryStore) Close(ctx context.Context) error { return nil }

// lookupPath resolves a dotted field path against the document.
func lookupPath(doc store.Document, path string) any {
	var current any = map[string]any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

func matchesQuery(doc store.Document, q store.Query) bool {
	for field, filter := range q.Filters {
		if !matchesFilter(doc, field, filter) {
			return false
		}
	}
	return true
}

func matchesFilter(doc store.Document, field string, f store.Filter) bool {
	actual := lookupPath(doc, field)
	switch f.Op {
	case store.OpEqual:
		return actual != nil && compareValues(actual, f.Value) == 0
	case store.OpNotEqual:
		return actual == nil || compareValues(actual, f.Value) != 0
	case store.OpGreaterEqual:
		return actual != nil && compareValues(actual, f.Value) >= 0
	case store.OpLessEqual:
		return actual != nil && compareValues(actual, f.Value) <= 0
	case store.OpEqualsMany:
		for _, candidate := range asSlice(f.Value) {
			if actual != nil && compareValues(actual, candidate) == 0 {
				return true
			}
		}
		return false
	case store.OpArrayContains:
		for _, member := range asSlice(actual) {
			if compareValues(member, f.Value) == 0 {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// compareValues orders two scalar values. Numbers compare numerically
// regardless of concrete type; everything else compares as strings, which
// also orders RFC3339 timestamps chronologically.
func compareValues(a, b any) int {
	na, aNum := asFloat(a)
	nb, bNum := asFloat(b)
	if aNum && bNum {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	case []int:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	default:
		return nil
	}
}

// cloneDocument copies one level deep plus nested maps and slices, enough to
// keep callers from mutating stored state through returned documents.
func cloneDocument(doc store.Document) store.Document {
	return cloneMap(doc)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
