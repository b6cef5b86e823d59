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

package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
)

var tasksType = store.TypeInfo{Collection: "tasks", IDField: "element_id"}

func taskDoc(id, rootID, name string, start string) store.Document {
	return store.Document{
		"element_id": id,
		"type":       "Task",
		"root_id":    rootID,
		"name":       name,
		"task": map[string]any{
			"start_time": start,
		},
		"related_to_ids":   []any{"Action-1"},
		"related_to_types": []any{"Action"},
	}
}

func TestStoreAndRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("Successfully store and retrieve by identity field", func(t *testing.T) {
		s := NewStore()
		id, err := s.Store(ctx, tasksType, taskDoc("Task-1", "Trace-1", "plan", "2026-01-01T00:00:00Z"))
		require.NoError(t, err)
		assert.Equal(t, "Task-1", id)

		doc, err := s.Retrieve(ctx, tasksType, "element_id", "Task-1")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "plan", doc["name"])
	})

	t.Run("Retrieve by non-identity field scans the collection", func(t *testing.T) {
		s := NewStore()
		_, err := s.Store(ctx, tasksType, taskDoc("Task-1", "Trace-9", "plan", "2026-01-01T00:00:00Z"))
		require.NoError(t, err)

		doc, err := s.Retrieve(ctx, tasksType, "root_id", "Trace-9")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "Task-1", doc["element_id"])
	})

	t.Run("Retrieve missing document returns nil without error", func(t *testing.T) {
		s := NewStore()
		doc, err := s.Retrieve(ctx, tasksType, "element_id", "Task-404")
		require.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("Fail to store duplicate identity", func(t *testing.T) {
		s := NewStore()
		_, err := s.Store(ctx, tasksType, taskDoc("Task-1", "Trace-1", "plan", "2026-01-01T00:00:00Z"))
		require.NoError(t, err)

		_, err = s.Store(ctx, tasksType, taskDoc("Task-1", "Trace-1", "plan again", "2026-01-01T00:00:01Z"))
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("Fail to store document without identity field", func(t *testing.T) {
		s := NewStore()
		_, err := s.Store(ctx, tasksType, store.Document{"name": "orphan"})
		assert.Error(t, err)
	})

	t.Run("Retrieved document is isolated from the stored one", func(t *testing.T) {
		s := NewStore()
		_, err := s.Store(ctx, tasksType, taskDoc("Task-1", "Trace-1", "plan", "2026-01-01T00:00:00Z"))
		require.NoError(t, err)

		doc, err := s.Retrieve(ctx, tasksType, "element_id", "Task-1")
		require.NoError(t, err)
		doc["name"] = "mutated"
		doc["task"].(map[string]any)["start_time"] = "1970-01-01T00:00:00Z"

		again, err := s.Retrieve(ctx, tasksType, "element_id", "Task-1")
		require.NoError(t, err)
		assert.Equal(t, "plan", again["name"])
		assert.Equal(t, "2026-01-01T00:00:00Z", again["task"].(map[string]any)["start_time"])
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) store.Store {
		t.Helper()
		s := NewStore()
		docs := []store.Document{
			taskDoc("Task-1", "Trace-1", "plan", "2026-01-01T00:00:03Z"),
			taskDoc("Task-2", "Trace-1", "search", "2026-01-01T00:00:01Z"),
			taskDoc("Task-3", "Trace-2", "answer", "2026-01-01T00:00:02Z"),
		}
		for _, d := range docs {
			_, err := s.Store(ctx, tasksType, d)
			require.NoError(t, err)
		}
		return s
	}

	t.Run("Equal filter narrows by field", func(t *testing.T) {
		s := seed(t)
		docs, err := s.Search(ctx, tasksType, store.Query{
			Filters: map[string]store.Filter{
				"root_id": {Op: store.OpEqual, Value: "Trace-1"},
			},
		})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("Not-equal filter excludes matches and keeps absent fields", func(t *testing.T) {
		s := seed(t)
		docs, err := s.Search(ctx, tasksType, store.Query{
			Filters: map[string]store.Filter{
				"root_id": {Op: store.OpNotEqual, Value: "Trace-1"},
			},
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Task-3", docs[0]["element_id"])
	})

	t.Run("Range filters compare dotted timestamp paths", func(t *testing.T) {
		s := seed(t)
		docs, err := s.Search(ctx, tasksType, store.Query{
			Filters: map[string]store.Filter{
				"task.start_time": {Op: store.OpGreaterEqual, Value: "2026-01-01T00:00:02Z"},
			},
		})
		require.NoError(t, err)
		assert.Len(t, docs, 2)

		docs, err = s.Search(ctx, tasksType, store.Query{
			Filters: map[string]store.Filter{
				"task.start_time": {Op: store.OpLessEqual, Value: "2026-01-01T00:00:01Z"},
			},
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Task-2", docs[0]["element_id"])
	})

	t.Run("Equals-many filter matches any candidate", func(t *testing.T) {
		s := seed(t)
		docs, err := s.Search(ctx, tasksType, store.Query{
			Filters: map[string]store.Filter{
				"element_id": {Op: store.OpEqualsMany, Value: []any{"Task-1", "Task-3", "Task-404"}},
			},
		})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("Array-contains filter inspects membership", func(t *testing.T) {
		s := seed(t)
		docs, err := s.Search(ctx, tasksType, store.Query{
			Filters: map[string]store.Filter{
				"related_to_ids": {Op: store.OpArrayContains, Value: "Action-1"},
			},
		})
		require.NoError(t, err)
		assert.Len(t, docs, 3)
	})

	t.Run("Sort ascending and descending by dotted path", func(t *testing.T) {
		s := seed(t)
		docs, err := s.Search(ctx, tasksType, store.Query{
			Sort: &store.Sort{Field: "task.start_time"},
		})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "Task-2", docs[0]["element_id"])
		assert.Equal(t, "Task-3", docs[1]["element_id"])
		assert.Equal(t, "Task-1", docs[2]["element_id"])

		docs, err = s.Search(ctx, tasksType, store.Query{
			Sort: &store.Sort{Field: "task.start_time", Desc: true},
		})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "Task-1", docs[0]["element_id"])
	})

	t.Run("Limit truncates after sorting", func(t *testing.T) {
		s := seed(t)
		docs, err := s.Search(ctx, tasksType, store.Query{
			Sort:  &store.Sort{Field: "task.start_time"},
			Limit: 1,
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Task-2", docs[0]["element_id"])
	})

	t.Run("Empty query returns everything in insertion order", func(t *testing.T) {
		s := seed(t)
		docs, err := s.Search(ctx, tasksType, store.Query{})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "Task-1", docs[0]["element_id"])
		assert.Equal(t, "Task-2", docs[1]["element_id"])
		assert.Equal(t, "Task-3", docs[2]["element_id"])
	})
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Successfully update an existing document", func(t *testing.T) {
		s := NewStore()
		_, err := s.Store(ctx, tasksType, taskDoc("Task-1", "Trace-1", "plan", "2026-01-01T00:00:00Z"))
		require.NoError(t, err)

		updated := taskDoc("Task-1", "Trace-1", "plan v2", "2026-01-01T00:00:00Z")
		ok, err := s.Update(ctx, tasksType, "element_id", "Task-1", updated)
		require.NoError(t, err)
		assert.True(t, ok)

		doc, err := s.Retrieve(ctx, tasksType, "element_id", "Task-1")
		require.NoError(t, err)
		assert.Equal(t, "plan v2", doc["name"])
	})

	t.Run("Update missing document reports false", func(t *testing.T) {
		s := NewStore()
		ok, err := s.Update(ctx, tasksType, "element_id", "Task-404", taskDoc("Task-404", "", "", ""))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Successfully delete and report absence afterwards", func(t *testing.T) {
		s := NewStore()
		_, err := s.Store(ctx, tasksType, taskDoc("Task-1", "Trace-1", "plan", "2026-01-01T00:00:00Z"))
		require.NoError(t, err)

		ok, err := s.Delete(ctx, tasksType, "element_id", "Task-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Delete(ctx, tasksType, "element_id", "Task-1")
		require.NoError(t, err)
		assert.False(t, ok)

		doc, err := s.Retrieve(ctx, tasksType, "element_id", "Task-1")
		require.NoError(t, err)
		assert.Nil(t, doc)
	})
}

func TestBulkStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores every document and returns their ids", func(t *testing.T) {
		s := NewStore()
		docs := []store.Document{
			taskDoc("Task-1", "Trace-1", "a", "2026-01-01T00:00:00Z"),
			taskDoc("Task-2", "Trace-1", "b", "2026-01-01T00:00:01Z"),
		}
		ids, err := s.BulkStore(ctx, tasksType, docs, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"Task-1", "Task-2"}, ids)
	})

	t.Run("Duplicate failures do not block the rest of the batch", func(t *testing.T) {
		s := NewStore()
		_, err := s.Store(ctx, tasksType, taskDoc("Task-1", "Trace-1", "a", "2026-01-01T00:00:00Z"))
		require.NoError(t, err)

		docs := []store.Document{
			taskDoc("Task-1", "Trace-1", "dup", "2026-01-01T00:00:00Z"),
			taskDoc("Task-2", "Trace-1", "b", "2026-01-01T00:00:01Z"),
		}
		ids, err := s.BulkStore(ctx, tasksType, docs, false)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.Equal(t, []string{"Task-2"}, ids)
	})

	t.Run("Ignore-duplicates swallows duplicate errors", func(t *testing.T) {
		s := NewStore()
		_, err := s.Store(ctx, tasksType, taskDoc("Task-1", "Trace-1", "a", "2026-01-01T00:00:00Z"))
		require.NoError(t, err)

		docs := []store.Document{
			taskDoc("Task-1", "Trace-1", "dup", "2026-01-01T00:00:00Z"),
			taskDoc("Task-2", "Trace-1", "b", "2026-01-01T00:00:01Z"),
		}
		ids, err := s.BulkStore(ctx, tasksType, docs, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"Task-2"}, ids)
	})
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("Parallel writers to distinct ids all succeed", func(t *testing.T) {
		s := NewStore()
		done := make(chan error, 20)
		for i := 0; i < 20; i++ {
			go func(n int) {
				_, err := s.Store(ctx, tasksType, taskDoc(
					fmt.Sprintf("Task-%d", n), "Trace-1", "w", "2026-01-01T00:00:00Z"))
				done <- err
			}(i)
		}
		for i := 0; i < 20; i++ {
			require.NoError(t, <-done)
		}

		docs, err := s.Search(ctx, tasksType, store.Query{})
		require.NoError(t, err)
		assert.Len(t, docs, 20)
	})
}
