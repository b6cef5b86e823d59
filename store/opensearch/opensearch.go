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

// Package opensearch implements the store contract against an OpenSearch
// cluster over its REST API. Collections map to indexes named
// "{prefix}-{collection}" so each tenant gets an isolated index set.
package opensearch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/clients/requests"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
)

const defaultSearchSize = 1000

// Options configures an OpenSearch-backed store.
type Options struct {
	Endpoint    string
	Username    string
	Password    string
	IndexPrefix string
	Client      requests.HttpClient
}

type openSearchStore struct {
	endpoint    string
	indexPrefix string
	authHeader  string
	client      requests.HttpClient

	mu      sync.Mutex
	indexed map[string]bool
}

var _ store.Store = (*openSearchStore)(nil)

// NewStore builds a store over the OpenSearch REST API.
func NewStore(opts Options) (store.Store, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("opensearch endpoint is required")
	}
	if opts.IndexPrefix == "" {
		return nil, errors.New("index prefix is required")
	}
	client := opts.Client
	if client == nil {
		client = requests.NewDefaultHttpClient()
	}
	authHeader := ""
	if opts.Username != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		authHeader = "Basic " + credentials
	}
	return &openSearchStore{
		endpoint:    strings.TrimRight(opts.Endpoint, "/"),
		indexPrefix: opts.IndexPrefix,
		authHeader:  authHeader,
		client:      client,
		indexed:     make(map[string]bool),
	}, nil
}

type documentResponse struct {
	ID     string         `json:"_id"`
	Found  bool           `json:"found"`
	Source store.Document `json:"_source"`
}

type writeResponse struct {
	ID     string `json:"_id"`
	Result string `json:"result"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Source store.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

func (s *openSearchStore) Store(ctx context.Context, ti store.TypeInfo, doc store.Document) (string, error) {
	id := store.DocumentID(doc, ti.IDField)
	if id == "" {
		return "", fmt.Errorf("document missing %s", ti.IDField)
	}
	if err := s.ensureIndex(ctx, ti); err != nil {
		return "", err
	}
	req := s.newRequest("opensearch.Create", http.MethodPut,
		fmt.Sprintf("%s/%s/_create/%s", s.endpoint, s.indexName(ti), id))
	req.SetQuery("refresh", "wait_for")
	req.SetJson(doc)

	var resp writeResponse
	if err := requests.SendRequest(ctx, s.client, req).ScanResponse(&resp, http.StatusCreated); err != nil {
		var httpErr *requests.HttpError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusConflict {
			return "", fmt.Errorf("%s %q in %s: %w", ti.IDField, id, ti.Collection, store.ErrDuplicate)
		}
		return "", fmt.Errorf("failed to index into %s: %w", ti.Collection, err)
	}
	return id, nil
}

func (s *openSearchStore) Retrieve(ctx context.Context, ti store.TypeInfo, idField, idValue string) (store.Document, error) {
	// The identity field is the document id, so a direct get avoids a search.
	if idField == ti.IDField {
		req := s.newRequest("opensearch.Get", http.MethodGet,
			fmt.Sprintf("%s/%s/_doc/%s", s.endpoint, s.indexName(ti), idValue))
		var resp documentResponse
		if err := requests.SendRequest(ctx, s.client, req).ScanResponse(&resp, http.StatusOK); err != nil {
			var httpErr *requests.HttpError
			if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read from %s: %w", ti.Collection, err)
		}
		return resp.Source, nil
	}

	docs, err := s.Search(ctx, ti, store.Query{
		Filters: map[string]store.Filter{idField: {Op: store.OpEqual, Value: idValue}},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (s *openSearchStore) Search(ctx context.Context, ti store.TypeInfo, q store.Query) ([]store.Document, error) {
	size := q.Limit
	if size <= 0 {
		size = defaultSearchSize
	}
	body := map[string]any{
		"query": translateQuery(q.Filters),
		"size":  size,
	}
	if q.Sort != nil {
		order := "asc"
		if q.Sort.Desc {
			order = "desc"
		}
		body["sort"] = []any{map[string]any{q.Sort.Field: map[string]any{"order": order}}}
	}

	req := s.newRequest("opensearch.Search", http.MethodPost,
		fmt.Sprintf("%s/%s/_search", s.endpoint, s.indexName(ti)))
	req.SetJson(body)

	var resp searchResponse
	if err := requests.SendRequest(ctx, s.client, req).ScanResponse(&resp, http.StatusOK); err != nil {
		var httpErr *requests.HttpError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			// Index not created yet means nothing was stored yet.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to search %s: %w", ti.Collection, err)
	}
	docs := make([]store.Document, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

func (s *openSearchStore) Update(ctx context.Context, ti store.TypeInfo, idField, idValue string, doc store.Document) (bool, error) {
	existing, err := s.Retrieve(ctx, ti, idField, idValue)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	id := store.DocumentID(existing, ti.IDField)
	req := s.newRequest("opensearch.Replace", http.MethodPut,
		fmt.Sprintf("%s/%s/_doc/%s", s.endpoint, s.indexName(ti), id))
	req.SetQuery("refresh", "wait_for")
	req.SetJson(doc)

	var resp writeResponse
	if err := requests.SendRequest(ctx, s.client, req).ScanResponse(&resp, http.StatusOK); err != nil {
		return false, fmt.Errorf("failed to update %s: %w", ti.Collection, err)
	}
	return true, nil
}

func (s *openSearchStore) Delete(ctx context.Context, ti store.TypeInfo, idField, idValue string) (bool, error) {
	if idField != ti.IDField {
		existing, err := s.Retrieve(ctx, ti, idField, idValue)
		if err != nil {
			return false, err
		}
		if existing == nil {
			return false, nil
		}
		idValue = store.DocumentID(existing, ti.IDField)
	}
	req := s.newRequest("opensearch.Delete", http.MethodDelete,
		fmt.Sprintf("%s/%s/_doc/%s", s.endpoint, s.indexName(ti), idValue))
	req.SetQuery("refresh", "wait_for")

	var resp writeResponse
	if err := requests.SendRequest(ctx, s.client, req).ScanResponse(&resp, http.StatusOK); err != nil {
		var httpErr *requests.HttpError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete from %s: %w", ti.Collection, err)
	}
	return resp.Result == "deleted", nil
}

func (s *openSearchStore) BulkStore(ctx context.Context, ti store.TypeInfo, docs []store.Document, ignoreDuplicates bool) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if err := s.ensureIndex(ctx, ti); err != nil {
		return nil, err
	}
	payload, err := buildBulkPayload(ti, docs, s.indexName(ti))
	if err != nil {
		return nil, err
	}

	req := s.newRequest("opensearch.Bulk", http.MethodPost, s.endpoint+"/_bulk")
	req.SetQuery("refresh", "wait_for")
	req.SetRawBody("application/x-ndjson", payload)

	var resp bulkResponse
	if err := requests.SendRequest(ctx, s.client, req).ScanResponse(&resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to bulk index into %s: %w", ti.Collection, err)
	}

	stored := make([]string, 0, len(docs))
	var errs []error
	for i, item := range resp.Items {
		action, ok := item["create"]
		if !ok {
			continue
		}
		id := store.DocumentID(docs[i], ti.IDField)
		switch {
		case action.Status == http.StatusCreated:
			stored = append(stored, id)
		case action.Status == http.StatusConflict:
			if !ignoreDuplicates {
				errs = append(errs, fmt.Errorf("%s %q in %s: %w", ti.IDField, id, ti.Collection, store.ErrDuplicate))
			}
		default:
			reason := "unknown"
			if action.Error != nil {
				reason = action.Error.Reason
			}
			errs = append(errs, fmt.Errorf("failed to index %s %q into %s: %s", ti.IDField, id, ti.Collection, reason))
		}
	}
	return stored, errors.Join(errs...)
}

func (s *openSearchStore) Ping(ctx context.Context) error {
	req := s.newRequest("opensearch.Ping", http.MethodGet, s.endpoint+"/_cluster/health")
	var health map[string]any
	if err := requests.SendRequest(ctx, s.client, req).ScanResponse(&health, http.StatusOK); err != nil {
		return fmt.Errorf("opensearch ping failed: %w", err)
	}
	return nil
}

func (s *openSearchStore) Close(ctx context.Context) error { return nil }

func (s *openSearchStore) indexName(ti store.TypeInfo) string {
	return s.indexPrefix + "-" + ti.Collection
}

func (s *openSearchStore) newRequest(name, method, url string) *requests.HttpRequest {
	req := &requests.HttpRequest{
		Name:   name,
		Method: method,
		URL:    url,
	}
	if s.authHeader != "" {
		req.SetHeader("Authorization", s.authHeader)
	}
	return req
}

// ensureIndex creates the index with keyword string mappings so term
// filters match exactly. Runs once per collection per process.
func (s *openSearchStore) ensureIndex(ctx context.Context, ti store.TypeInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexed[ti.Collection] {
		return nil
	}

	req := s.newRequest("opensearch.CreateIndex", http.MethodPut,
		fmt.Sprintf("%s/%s", s.endpoint, s.indexName(ti)))
	req.SetJson(map[string]any{
		"mappings": map[string]any{
			"dynamic_templates": []any{
				map[string]any{
					"strings_as_keyword": map[string]any{
						"match_mapping_type": "string",
						"mapping":            map[string]any{"type": "keyword"},
					},
				},
			},
		},
	})

	var resp map[string]any
	if err := requests.SendRequest(ctx, s.client, req).ScanResponse(&resp, http.StatusOK); err != nil {
		var httpErr *requests.HttpError
		// Another writer created the index first.
		if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest ||
			!strings.Contains(httpErr.Body, "resource_already_exists_exception") {
			return fmt.Errorf("failed to create index %s: %w", s.indexName(ti), err)
		}
	}
	s.indexed[ti.Collection] = true
	return nil
}

// translateQuery converts store filters into an OpenSearch bool query.
func translateQuery(filters map[string]store.Filter) map[string]any {
	if len(filters) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	var filterClauses, mustNotClauses []any
	for field, f := range filters {
		switch f.Op {
		case store.OpEqual, store.OpArrayContains:
			// Term equality against an array field matches any member.
			filterClauses = append(filterClauses, map[string]any{
				"term": map[string]any{field: f.Value},
			})
		case store.OpNotEqual:
			mustNotClauses = append(mustNotClauses, map[string]any{
				"term": map[string]any{field: f.Value},
			})
		case store.OpGreaterEqual:
			filterClauses = append(filterClauses, map[string]any{
				"range": map[string]any{field: map[string]any{"gte": f.Value}},
			})
		case store.OpLessEqual:
			filterClauses = append(filterClauses, map[string]any{
				"range": map[string]any{field: map[string]any{"lte": f.Value}},
			})
		case store.OpEqualsMany:
			filterClauses = append(filterClauses, map[string]any{
				"terms": map[string]any{field: f.Value},
			})
		}
	}
	boolQuery := map[string]any{}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}
	if len(mustNotClauses) > 0 {
		boolQuery["must_not"] = mustNotClauses
	}
	return map[string]any{"bool": boolQuery}
}

// buildBulkPayload renders create actions in the ndjson bulk format.
func buildBulkPayload(ti store.TypeInfo, docs []store.Document, index string) ([]byte, error) {
	var sb strings.Builder
	for _, doc := range docs {
		id := store.DocumentID(doc, ti.IDField)
		if id == "" {
			return nil, fmt.Errorf("document missing %s", ti.IDField)
		}
		action, err := json.Marshal(map[string]any{
			"create": map[string]any{"_index": index, "_id": id},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal bulk action: %w", err)
		}
		source, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal bulk document: %w", err)
		}
		sb.Write(action)
		sb.WriteByte('\n')
		sb.Write(source)
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}
