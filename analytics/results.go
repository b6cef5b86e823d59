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
	"reflect"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
)

var resultsTypeInfo = store.TypeInfo{Collection: "executor_results", IDField: "result_id"}

// ResultStore persists execution results per tenant, successes and failures
// alike.
type ResultStore struct {
	store store.Store
}

// NewResultStore creates a result store over the backing store.
func NewResultStore(st store.Store) *ResultStore {
	return &ResultStore{store: st}
}

// Save persists one execution result.
func (s *ResultStore) Save(ctx context.Context, result *models.ExecutionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", result.ResultID, err)
	}
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("document for result %s: %w", result.ResultID, err)
	}
	if _, err := s.store.Store(ctx, resultsTypeInfo, doc); err != nil {
		return fmt.Errorf("store result %s: %w", result.ResultID, err)
	}
	return nil
}

// Get loads one result by id, or nil.
func (s *ResultStore) Get(ctx context.Context, resultID string) (*models.ExecutionResult, error) {
	doc, err := s.store.Retrieve(ctx, resultsTypeInfo, resultsTypeInfo.IDField, resultID)
	if err != nil {
		return nil, fmt.Errorf("retrieve result %s: %w", resultID, err)
	}
	if doc == nil {
		return nil, nil
	}
	return resultFromDocument(doc)
}

// FindSuccess returns a prior SUCCESS result of the plugin whose input
// payload matches the given one exactly, or nil.
func (s *ResultStore) FindSuccess(ctx context.Context, analyticsID string, input map[string]any) (*models.ExecutionResult, error) {
	docs, err := s.store.Search(ctx, resultsTypeInfo, store.Query{Filters: map[string]store.Filter{
		"analytics_id": {Op: store.OpEqual, Value: analyticsID},
		"status":       {Op: store.OpEqual, Value: string(models.ExecutionSuccess)},
	}})
	if err != nil {
		return nil, fmt.Errorf("search results for %s: %w", analyticsID, err)
	}
	// Exact-match comparison goes through the JSON shape so numeric types
	// from different code paths compare equal.
	want := jsonShape(input)
	for _, doc := range docs {
		result, err := resultFromDocument(doc)
		if err != nil {
			return nil, err
		}
		if reflect.DeepEqual(jsonShape(result.InputDataUsed), want) {
			return result, nil
		}
	}
	return nil, nil
}

// ListByAnalytics returns all stored results of one plugin.
func (s *ResultStore) ListByAnalytics(ctx context.Context, analyticsID string) ([]models.ExecutionResult, error) {
	docs, err := s.store.Search(ctx, resultsTypeInfo, store.Query{
		Filters: map[string]store.Filter{
			"analytics_id": {Op: store.OpEqual, Value: analyticsID},
		},
		Sort: &store.Sort{Field: "start_time", Desc: true},
	})
	if err != nil {
		return nil, fmt.Errorf("list results for %s: %w", analyticsID, err)
	}
	results := make([]models.ExecutionResult, 0, len(docs))
	for _, doc := range docs {
		result, err := resultFromDocument(doc)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	return results, nil
}

func resultFromDocument(doc store.Document) (*models.ExecutionResult, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal result document: %w", err)
	}
	var result models.ExecutionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("result from document: %w", err)
	}
	return &result, nil
}

func jsonShape(m map[string]any) any {
	raw, err := json.Marshal(m)
	if err != nil {
		return m
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return m
	}
	return v
}
