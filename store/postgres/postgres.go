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

// Package postgres implements the store contract on PostgreSQL. All
// collections share one documents table keyed by (tenant, collection, id)
// with the payload in a jsonb column, so filters translate to jsonb path
// expressions.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
)

const pgUniqueViolation = "23505"

// DocumentRow is one stored document. A composite primary key scopes ids
// per tenant and collection.
type DocumentRow struct {
	TenantID   string         `gorm:"column:tenant_id;primaryKey"`
	Collection string         `gorm:"column:collection;primaryKey"`
	DocID      string         `gorm:"column:doc_id;primaryKey"`
	Document   map[string]any `gorm:"column:document;type:jsonb;serializer:json"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
}

// TableName overrides the GORM default.
func (DocumentRow) TableName() string {
	return "documents"
}

type postgresStore struct {
	db       *gorm.DB
	tenantID string
}

var _ store.Store = (*postgresStore)(nil)

// Connect opens a GORM connection to the PostgreSQL instance at dsn.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// NewStore builds a tenant-scoped store over the shared documents table.
func NewStore(db *gorm.DB, tenantID string) (store.Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if tenantID == "" {
		return nil, errors.New("tenant id is required")
	}
	return &postgresStore{db: db, tenantID: tenantID}, nil
}

func (s *postgresStore) Store(ctx context.Context, ti store.TypeInfo, doc store.Document) (string, error) {
	id := store.DocumentID(doc, ti.IDField)
	if id == "" {
		return "", fmt.Errorf("document missing %s", ti.IDField)
	}
	row := DocumentRow{
		TenantID:   s.tenantID,
		Collection: ti.Collection,
		DocID:      id,
		Document:   doc,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s %q in %s: %w", ti.IDField, id, ti.Collection, store.ErrDuplicate)
		}
		return "", fmt.Errorf("failed to insert into %s: %w", ti.Collection, err)
	}
	return id, nil
}

func (s *postgresStore) Retrieve(ctx context.Context, ti store.TypeInfo, idField, idValue string) (store.Document, error) {
	query := s.scoped(ctx, ti)
	if idField == ti.IDField {
		query = query.Where("doc_id = ?", idValue)
	} else {
		expr, err := pathExpr(idField)
		if err != nil {
			return nil, err
		}
		query = query.Where(expr+" = ?", idValue)
	}
	var row DocumentRow
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from %s: %w", ti.Collection, err)
	}
	return row.Document, nil
}

func (s *postgresStore) Search(ctx context.Context, ti store.TypeInfo, q store.Query) ([]store.Document, error) {
	query := s.scoped(ctx, ti)
	for field, f := range q.Filters {
		var err error
		query, err = applyFilter(query, field, f)
		if err != nil {
			return nil, err
		}
	}
	if q.Sort != nil {
		expr, err := pathExpr(q.Sort.Field)
		if err != nil {
			return nil, err
		}
		direction := "ASC"
		if q.Sort.Desc {
			direction = "DESC"
		}
		query = query.Order(expr + " " + direction)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	var rows []DocumentRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", ti.Collection, err)
	}
	docs := make([]store.Document, len(rows))
	for i, row := range rows {
		docs[i] = row.Document
	}
	return docs, nil
}

func (s *postgresStore) Update(ctx context.Context, ti store.TypeInfo, idField, idValue string, doc store.Document) (bool, error) {
	query := s.scoped(ctx, ti)
	if idField == ti.IDField {
		query = query.Where("doc_id = ?", idValue)
	} else {
		expr, err := pathExpr(idField)
		if err != nil {
			return false, err
		}
		query = query.Where(expr+" = ?", idValue)
	}
	res := query.Update("document", DocumentRow{Document: doc}.Document)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update %s: %w", ti.Collection, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *postgresStore) Delete(ctx context.Context, ti store.TypeInfo, idField, idValue string) (bool, error) {
	query := s.scoped(ctx, ti)
	if idField == ti.IDField {
		query = query.Where("doc_id = ?", idValue)
	} else {
		expr, err := pathExpr(idField)
		if err != nil {
			return false, err
		}
		query = query.Where(expr+" = ?", idValue)
	}
	res := query.Delete(&DocumentRow{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", ti.Collection, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *postgresStore) BulkStore(ctx context.Context, ti store.TypeInfo, docs []store.Document, ignoreDuplicates bool) ([]string, error) {
	stored := make([]string, 0, len(docs))
	var errs []error
	// Documents insert independently so one failure cannot sink the batch.
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

func (s *postgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *postgresStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *postgresStore) scoped(ctx context.Context, ti store.TypeInfo) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&DocumentRow{}).
		Where("tenant_id = ? AND collection = ?", s.tenantID, ti.Collection)
}

// applyFilter translates one store filter into a jsonb condition.
func applyFilter(query *gorm.DB, field string, f store.Filter) (*gorm.DB, error) {
	expr, err := pathExpr(field)
	if err != nil {
		return nil, err
	}
	switch f.Op {
	case store.OpEqual:
		if num, ok := numericValue(f.Value); ok {
			return query.Where("("+expr+")::numeric = ?", num), nil
		}
		return query.Where(expr+" = ?", f.Value), nil
	case store.OpNotEqual:
		// IS DISTINCT FROM keeps documents where the field is absent.
		if num, ok := numericValue(f.Value); ok {
			return query.Where("("+expr+")::numeric IS DISTINCT FROM ?", num), nil
		}
		return query.Where(expr+" IS DISTINCT FROM ?", f.Value), nil
	case store.OpGreaterEqual:
		if num, ok := numericValue(f.Value); ok {
			return query.Where("("+expr+")::numeric >= ?", num), nil
		}
		return query.Where(expr+" >= ?", f.Value), nil
	case store.OpLessEqual:
		if num, ok := numericValue(f.Value); ok {
			return query.Where("("+expr+")::numeric <= ?", num), nil
		}
		return query.Where(expr+" <= ?", f.Value), nil
	case store.OpEqualsMany:
		return query.Where(expr+" IN ?", anySlice(f.Value)), nil
	case store.OpArrayContains:
		jsonPath, err := jsonPathExpr(field)
		if err != nil {
			return nil, err
		}
		return query.Where(jsonPath+" @> to_jsonb(?::text)", f.Value), nil
	default:
		return nil, fmt.Errorf("unsupported filter operator %q", f.Op)
	}
}

var fieldPathPattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

// pathExpr renders a dotted field path as a jsonb text extraction. Paths
// come from code, not request input, but are validated anyway since they
// are embedded in SQL.
func pathExpr(field string) (string, error) {
	if !fieldPathPattern.MatchString(field) {
		return "", fmt.Errorf("invalid field path %q", field)
	}
	parts := strings.Split(field, ".")
	return "document #>> '{" + strings.Join(parts, ",") + "}'", nil
}

// jsonPathExpr renders a dotted field path as a jsonb value extraction,
// used for containment checks against arrays.
func jsonPathExpr(field string) (string, error) {
	if !fieldPathPattern.MatchString(field) {
		return "", fmt.Errorf("invalid field path %q", field)
	}
	parts := strings.Split(field, ".")
	return "document #> '{" + strings.Join(parts, ",") + "}'", nil
}

func numericValue(v any) (float64, bool) {
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

func anySlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	default:
		return []any{v}
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
