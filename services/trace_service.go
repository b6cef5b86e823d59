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

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/tenants"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

const (
	// DefaultPageSize bounds trace listings when the caller sends no limit.
	DefaultPageSize = 50
	// MaxPageSize is the hard upper bound on one page.
	MaxPageSize = 500
)

// TraceSearchParams are the filters of one trace search.
type TraceSearchParams struct {
	ServiceName string
	From        time.Time
	To          time.Time
	MinSpans    *int
	MaxSpans    *int
	// Attributes filters on trace attribute equality, key by key.
	Attributes map[string]string

	SortField string // start_time (default) or end_time
	SortDir   string // asc or desc (default)
	Cursor    string
	Limit     int
}

// TracePage is one page of search results with the continuation cursor.
type TracePage struct {
	Traces     []models.Element
	NextCursor string
}

// TraceService answers trace queries for the caller's tenant.
type TraceService interface {
	SearchTraces(ctx context.Context, params TraceSearchParams) (*TracePage, error)
	GetTrace(ctx context.Context, traceID string) (*models.Element, error)
	GetSpans(ctx context.Context, traceID string) ([]models.Element, error)
}

type traceService struct {
	tenants *tenants.Registry
}

// NewTraceService creates a trace query service over the tenant registry.
func NewTraceService(registry *tenants.Registry) TraceService {
	return &traceService{tenants: registry}
}

func (s *traceService) SearchTraces(ctx context.Context, params TraceSearchParams) (*TracePage, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidateSort(params.SortField, params.SortDir); err != nil {
		return nil, err
	}
	if err := utils.ValidateTimeRange(params.From, params.To); err != nil {
		return nil, err
	}
	if err := utils.ValidateCountRange(params.MinSpans, params.MaxSpans); err != nil {
		return nil, err
	}

	cursor, err := utils.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	sortField := params.SortField
	if sortField == "" {
		sortField = utils.SortFieldStartTime
	}
	sortDir := params.SortDir
	if sortDir == "" {
		sortDir = utils.SortDirDesc
	}
	// A continuation cursor owns the sort; mixing cursors across sorts
	// would silently skip rows.
	if cursor.SortField != "" && (cursor.SortField != sortField || cursor.SortDir != sortDir) {
		return nil, fmt.Errorf("%w: cursor does not match the requested sort", utils.ErrInvalidCursor)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	desc := sortDir == utils.SortDirDesc
	sortPath := "trace." + sortField

	filters := map[string]store.Filter{}
	if params.ServiceName != "" {
		filters["trace.service_name"] = store.Filter{Op: store.OpEqual, Value: params.ServiceName}
	}
	if !params.From.IsZero() {
		filters["trace.start_time"] = store.Filter{Op: store.OpGreaterEqual, Value: params.From.UTC().Format(time.RFC3339Nano)}
	}
	if !params.To.IsZero() {
		filters["trace.end_time"] = store.Filter{Op: store.OpLessEqual, Value: params.To.UTC().Format(time.RFC3339Nano)}
	}
	if params.MinSpans != nil {
		filters["trace.num_of_spans"] = store.Filter{Op: store.OpGreaterEqual, Value: *params.MinSpans}
	}
	if params.MaxSpans != nil {
		// A single filter per field: when both bounds are set the lower bound
		// is applied in the post-filter below.
		filters["trace.num_of_spans"] = store.Filter{Op: store.OpLessEqual, Value: *params.MaxSpans}
	}
	for key, value := range params.Attributes {
		filters["attributes."+key] = store.Filter{Op: store.OpEqual, Value: value}
	}

	traces, err := c.DataManager.Search(ctx, models.KindTrace, store.Query{
		Filters: filters,
		Sort:    &store.Sort{Field: sortPath, Desc: desc},
	})
	if err != nil {
		return nil, fmt.Errorf("searching traces: %w", err)
	}

	if params.MinSpans != nil && params.MaxSpans != nil {
		filtered := traces[:0]
		for _, t := range traces {
			if t.Trace != nil && t.Trace.NumOfSpans >= *params.MinSpans {
				filtered = append(filtered, t)
			}
		}
		traces = filtered
	}

	// Re-sort with the element id as tiebreaker so pagination is total and
	// deterministic across backends.
	sort.SliceStable(traces, func(i, j int) bool {
		ki, kj := traceSortKey(&traces[i], sortField), traceSortKey(&traces[j], sortField)
		if ki != kj {
			if desc {
				return ki > kj
			}
			return ki < kj
		}
		if desc {
			return traces[i].ElementID > traces[j].ElementID
		}
		return traces[i].ElementID < traces[j].ElementID
	})

	if cursor.LastID != "" {
		traces = dropThroughCursor(traces, sortField, cursor, desc)
	}

	page := traces
	nextCursor := ""
	if len(page) > limit {
		page = page[:limit]
		last := page[len(page)-1]
		nextCursor = utils.EncodeCursor(utils.Cursor{
			SortField: sortField,
			SortDir:   sortDir,
			LastValue: traceSortKey(&last, sortField),
			LastID:    last.ElementID,
		})
	}

	return &TracePage{Traces: page, NextCursor: nextCursor}, nil
}

func (s *traceService) GetTrace(ctx context.Context, traceID string) (*models.Element, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	trace, err := c.DataManager.GetByID(ctx, traceID, models.KindTrace, "")
	if err != nil {
		return nil, err
	}
	if trace == nil {
		return nil, fmt.Errorf("%w: %s", utils.ErrTraceNotFound, traceID)
	}
	return trace, nil
}

func (s *traceService) GetSpans(ctx context.Context, traceID string) ([]models.Element, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	trace, err := c.DataManager.GetByID(ctx, traceID, models.KindTrace, "")
	if err != nil {
		return nil, err
	}
	if trace == nil {
		return nil, fmt.Errorf("%w: %s", utils.ErrTraceNotFound, traceID)
	}
	return c.DataManager.GetSpans(ctx, traceID)
}

// traceSortKey renders the sort-field value in the cursor's wire form.
func traceSortKey(el *models.Element, sortField string) string {
	if el.Trace == nil {
		return ""
	}
	switch sortField {
	case utils.SortFieldEndTime:
		return el.Trace.EndTime.UTC().Format(time.RFC3339Nano)
	default:
		return el.Trace.StartTime.UTC().Format(time.RFC3339Nano)
	}
}

// dropThroughCursor removes every row at or before the cursor position in
// the current sort order.
func dropThroughCursor(traces []models.Element, sortField string, cursor utils.Cursor, desc bool) []models.Element {
	idx := sort.Search(len(traces), func(i int) bool {
		key := traceSortKey(&traces[i], sortField)
		cmp := strings.Compare(key, cursor.LastValue)
		if desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp > 0
		}
		idCmp := strings.Compare(traces[i].ElementID, cursor.LastID)
		if desc {
			idCmp = -idCmp
		}
		return idCmp > 0
	})
	return traces[idx:]
}
