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

// Package store defines the uniform persistence contract the data-manager
// layer is written against. Backends (document DB, search index, relational,
// in-memory) implement Store; callers never see backend-specific types.
package store

import (
	"context"
	"errors"
)

// ErrDuplicate is returned by Store when a record with the same identity
// already exists in the collection.
var ErrDuplicate = errors.New("duplicate record")

// Document is the backend-neutral record form: the JSON object shape of a
// model. Nested fields are addressed with dotted paths in queries.
type Document = map[string]any

// TypeInfo describes a persisted model family.
type TypeInfo struct {
	// Collection is the logical collection name; backends map it to their
	// physical namespace (index, table, database collection) per tenant.
	Collection string
	// IDField names the identity field used for duplicate detection.
	IDField string
}

// Operator is a query comparison operator.
type Operator string

const (
	OpEqual        Operator = "EQUAL"
	OpNotEqual     Operator = "NOT_EQUAL"
	OpGreaterEqual Operator = "GREATER_EQUAL"
	OpLessEqual    Operator = "LESS_EQUAL"
	// OpEqualsMany matches when the field equals any of the values in the
	// filter's list value.
	OpEqualsMany Operator = "EQUALS_MANY"
	// OpArrayContains matches when the field, an array, contains the value.
	OpArrayContains Operator = "ARRAY_CONTAINS"
)

// Filter is one field predicate. All filters of a query are AND-combined.
type Filter struct {
	Op    Operator
	Value any
}

// Sort orders results by one field. Backends are authoritative for ordering
// only when a sort is requested.
type Sort struct {
	Field string
	Desc  bool
}

// Query is the backend-neutral search request.
type Query struct {
	Filters map[string]Filter
	Sort    *Sort
	Limit   int
}

// Store is the uniform CRUD contract.
//
// Retrieve returns (nil, nil) when no record matches: absence is not an
// error. Backend outages surface as transport errors; no retries happen at
// this layer.
type Store interface {
	// Store persists one document and returns its identity value.
	// A record with the same identity yields ErrDuplicate.
	Store(ctx context.Context, ti TypeInfo, doc Document) (string, error)

	// Retrieve loads the first document whose idField equals idValue.
	Retrieve(ctx context.Context, ti TypeInfo, idField, idValue string) (Document, error)

	// Search returns all documents matching the query.
	Search(ctx context.Context, ti TypeInfo, q Query) ([]Document, error)

	// Update replaces the document whose idField equals idValue and reports
	// whether a record was replaced.
	Update(ctx context.Context, ti TypeInfo, idField, idValue string, doc Document) (bool, error)

	// Delete removes the document whose idField equals idValue and reports
	// whether a record was removed.
	Delete(ctx context.Context, ti TypeInfo, idField, idValue string) (bool, error)

	// BulkStore persists documents independently: one failure does not
	// affect the others. The returned list holds the identities that were
	// stored. With ignoreDuplicates, existing records are skipped silently;
	// otherwise duplicate failures are joined into the returned error
	// alongside transport failures of individual items.
	BulkStore(ctx context.Context, ti TypeInfo, docs []Document, ignoreDuplicates bool) ([]string, error)

	// Ping verifies backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// DocumentID extracts the identity value of a document, or "".
func DocumentID(doc Document, idField string) string {
	if v, ok := doc[idField].(string); ok {
		return v
	}
	return ""
}
