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

package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
)

var spansType = store.TypeInfo{Collection: "spans", IDField: "element_id"}

// httpClientMock records requests and replays canned responses per URL path.
type httpClientMock struct {
	requests  []*http.Request
	bodies    []string
	responses map[string]mockResponse
}

type mockResponse struct {
	status int
	body   string
}

func (m *httpClientMock) Do(req *http.Request) (*http.Response, error) {
	body := ""
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		req.Body.Close()
		body = string(data)
	}
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)

	// Longest pattern wins so "/index/_create/id" is not shadowed by "/index".
	best := ""
	for pattern := range m.responses {
		if strings.Contains(req.URL.Path, pattern) && len(pattern) > len(best) {
			best = pattern
		}
	}
	if best != "" {
		resp := m.responses[best]
		return &http.Response{
			StatusCode: resp.status,
			Body:       io.NopCloser(bytes.NewReader([]byte(resp.body))),
			Header:     http.Header{},
		}, nil
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(`{}`))),
		Header:     http.Header{},
	}, nil
}

func newTestStore(t *testing.T, client *httpClientMock) store.Store {
	t.Helper()
	s, err := NewStore(Options{
		Endpoint:    "http://opensearch:9200",
		IndexPrefix: "acme",
		Client:      client,
	})
	require.NoError(t, err)
	return s
}

func TestTranslateQuery(t *testing.T) {
	t.Run("Empty filters produce match_all", func(t *testing.T) {
		q := translateQuery(nil)
		assert.Contains(t, q, "match_all")
	})

	t.Run("Operators split into filter and must_not clauses", func(t *testing.T) {
		q := translateQuery(map[string]store.Filter{
			"root_id":         {Op: store.OpEqual, Value: "Trace-1"},
			"type":            {Op: store.OpNotEqual, Value: "Span"},
			"task.start_time": {Op: store.OpGreaterEqual, Value: "2026-01-01T00:00:00Z"},
			"element_id":      {Op: store.OpEqualsMany, Value: []any{"a", "b"}},
		})

		boolQuery, ok := q["bool"].(map[string]any)
		require.True(t, ok)
		filters, ok := boolQuery["filter"].([]any)
		require.True(t, ok)
		assert.Len(t, filters, 3)
		mustNot, ok := boolQuery["must_not"].([]any)
		require.True(t, ok)
		assert.Len(t, mustNot, 1)
	})
}

func TestStoreDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("Successfully create a document", func(t *testing.T) {
		client := &httpClientMock{responses: map[string]mockResponse{
			"/acme-spans/_create/": {status: http.StatusCreated, body: `{"_id":"Span-1","result":"created"}`},
			"/acme-spans":          {status: http.StatusOK, body: `{"acknowledged":true}`},
		}}
		s := newTestStore(t, client)

		id, err := s.Store(ctx, spansType, store.Document{"element_id": "Span-1", "type": "Span"})
		require.NoError(t, err)
		assert.Equal(t, "Span-1", id)

		// Index creation request then the create request.
		require.Len(t, client.requests, 2)
		createReq := client.requests[1]
		assert.Equal(t, http.MethodPut, createReq.Method)
		assert.Equal(t, "/acme-spans/_create/Span-1", createReq.URL.Path)
		assert.Equal(t, "wait_for", createReq.URL.Query().Get("refresh"))
	})

	t.Run("Conflict maps to duplicate error", func(t *testing.T) {
		client := &httpClientMock{responses: map[string]mockResponse{
			"/_create/": {status: http.StatusConflict, body: `{"error":{"type":"version_conflict_engine_exception"}}`},
		}}
		s := newTestStore(t, client)

		_, err := s.Store(ctx, spansType, store.Document{"element_id": "Span-1"})
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("Fail without identity field", func(t *testing.T) {
		s := newTestStore(t, &httpClientMock{})
		_, err := s.Store(ctx, spansType, store.Document{"type": "Span"})
		assert.Error(t, err)
	})
}

func TestRetrieveDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("Get by identity field uses the document endpoint", func(t *testing.T) {
		client := &httpClientMock{responses: map[string]mockResponse{
			"/_doc/Span-1": {status: http.StatusOK, body: `{"_id":"Span-1","found":true,"_source":{"element_id":"Span-1","name":"llm call"}}`},
		}}
		s := newTestStore(t, client)

		doc, err := s.Retrieve(ctx, spansType, "element_id", "Span-1")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "llm call", doc["name"])
	})

	t.Run("Missing document returns nil without error", func(t *testing.T) {
		client := &httpClientMock{responses: map[string]mockResponse{
			"/_doc/Span-404": {status: http.StatusNotFound, body: `{"found":false}`},
		}}
		s := newTestStore(t, client)

		doc, err := s.Retrieve(ctx, spansType, "element_id", "Span-404")
		require.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("Non-identity field goes through search", func(t *testing.T) {
		client := &httpClientMock{responses: map[string]mockResponse{
			"/_search": {status: http.StatusOK, body: `{"hits":{"hits":[{"_id":"Span-1","_source":{"element_id":"Span-1","root_id":"Trace-9"}}]}}`},
		}}
		s := newTestStore(t, client)

		doc, err := s.Retrieve(ctx, spansType, "root_id", "Trace-9")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "Span-1", doc["element_id"])
	})
}

func TestSearchDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("Search body carries query, sort and size", func(t *testing.T) {
		client := &httpClientMock{responses: map[string]mockResponse{
			"/_search": {status: http.StatusOK, body: `{"hits":{"hits":[]}}`},
		}}
		s := newTestStore(t, client)

		_, err := s.Search(ctx, spansType, store.Query{
			Filters: map[string]store.Filter{"root_id": {Op: store.OpEqual, Value: "Trace-1"}},
			Sort:    &store.Sort{Field: "span.start_time", Desc: true},
			Limit:   25,
		})
		require.NoError(t, err)

		require.Len(t, client.bodies, 1)
		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(client.bodies[0]), &body))
		assert.Equal(t, float64(25), body["size"])
		require.Contains(t, body, "sort")
		require.Contains(t, body, "query")
	})

	t.Run("Missing index yields an empty result", func(t *testing.T) {
		client := &httpClientMock{responses: map[string]mockResponse{
			"/_search": {status: http.StatusNotFound, body: `{"error":{"type":"index_not_found_exception"}}`},
		}}
		s := newTestStore(t, client)

		docs, err := s.Search(ctx, spansType, store.Query{})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestBulkStoreDocuments(t *testing.T) {
	ctx := context.Background()

	bulkBody := `{
		"errors": true,
		"items": [
			{"create": {"_id": "Span-1", "status": 201}},
			{"create": {"_id": "Span-2", "status": 409, "error": {"type": "version_conflict_engine_exception", "reason": "exists"}}},
			{"create": {"_id": "Span-3", "status": 201}}
		]
	}`

	docs := []store.Document{
		{"element_id": "Span-1"},
		{"element_id": "Span-2"},
		{"element_id": "Span-3"},
	}

	t.Run("Conflicts surface as duplicate errors while the rest land", func(t *testing.T) {
		client := &httpClientMock{responses: map[string]mockResponse{
			"/_bulk":      {status: http.StatusOK, body: bulkBody},
			"/acme-spans": {status: http.StatusOK, body: `{"acknowledged":true}`},
		}}
		s := newTestStore(t, client)

		stored, err := s.BulkStore(ctx, spansType, docs, false)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.Equal(t, []string{"Span-1", "Span-3"}, stored)
	})

	t.Run("Ignore-duplicates swallows conflicts", func(t *testing.T) {
		client := &httpClientMock{responses: map[string]mockResponse{
			"/_bulk":      {status: http.StatusOK, body: bulkBody},
			"/acme-spans": {status: http.StatusOK, body: `{"acknowledged":true}`},
		}}
		s := newTestStore(t, client)

		stored, err := s.BulkStore(ctx, spansType, docs, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"Span-1", "Span-3"}, stored)
	})

	t.Run("Bulk payload alternates action and source lines", func(t *testing.T) {
		client := &httpClientMock{responses: map[string]mockResponse{
			"/_bulk":      {status: http.StatusOK, body: `{"errors":false,"items":[]}`},
			"/acme-spans": {status: http.StatusOK, body: `{"acknowledged":true}`},
		}}
		s := newTestStore(t, client)

		_, err := s.BulkStore(ctx, spansType, docs[:1], false)
		require.NoError(t, err)

		bulkReqBody := client.bodies[len(client.bodies)-1]
		lines := strings.Split(strings.TrimSpace(bulkReqBody), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], `"create"`)
		assert.Contains(t, lines[1], `"element_id":"Span-1"`)
	})
}

func TestAuthHeader(t *testing.T) {
	t.Run("Basic auth header is attached when credentials are set", func(t *testing.T) {
		client := &httpClientMock{responses: map[string]mockResponse{
			"/_cluster/health": {status: http.StatusOK, body: `{"status":"green"}`},
		}}
		s, err := NewStore(Options{
			Endpoint:    "http://opensearch:9200",
			IndexPrefix: "acme",
			Username:    "admin",
			Password:    "admin",
			Client:      client,
		})
		require.NoError(t, err)

		require.NoError(t, s.Ping(context.Background()))
		require.Len(t, client.requests, 1)
		auth := client.requests[0].Header.Get("Authorization")
		assert.True(t, strings.HasPrefix(auth, "Basic "))
	})
}
