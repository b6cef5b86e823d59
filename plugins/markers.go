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

package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// Span-event markers the scanners look for.
const (
	markerIssueType        = "issue_type"
	markerIssueValue       = "Issue"
	markerAnnotationPrefix = "DataAnnotation"
)

// IssueAnalytics scans the span events of a trace for explicit issue
// markers emitted by the instrumented application and persists one Issue
// element per marker.
type IssueAnalytics struct {
	deps analytics.Deps
}

func NewIssueAnalytics(deps analytics.Deps) *IssueAnalytics {
	return &IssueAnalytics{deps: deps}
}

func (p *IssueAnalytics) InputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "trace_id", Type: models.FieldTypeString, Required: true},
	}
}

func (p *IssueAnalytics) OutputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "issues", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny},
	}
}

func (p *IssueAnalytics) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	traceID := inputString(input, "trace_id")
	spans, err := spansForTrace(ctx, p.deps, traceID)
	if err != nil {
		return nil, err
	}

	var issues []models.Element
	for _, span := range spans {
		for _, event := range span.Events {
			if event.Attributes[markerIssueType] != markerIssueValue {
				continue
			}
			level := models.IssueLevelWarning
			if l, ok := event.Attributes["level"].(string); ok && l != "" {
				level = models.IssueLevel(strings.ToUpper(l))
			}
			issue := models.Element{
				ElementID:  models.NewElementID(models.KindIssue),
				Kind:       models.KindIssue,
				RootID:     traceID,
				Name:       event.Name,
				Attributes: event.Attributes,
				Issue: &models.Issue{
					Level:     level,
					Timestamp: event.Timestamp,
				},
			}
			issue.AddRelation(taskIDForSpan(span.Context.SpanID), models.KindTask)
			issues = append(issues, issue)
		}
	}

	if len(issues) > 0 {
		if _, err := p.deps.DataManager.BulkStore(ctx, issues, true); err != nil {
			return nil, err
		}
	}
	return map[string]any{"issues": encodeList(issues)}, nil
}

// AnnotationAnalytics scans span events whose id carries the DataAnnotation
// prefix and persists one Annotation element per marker.
type AnnotationAnalytics struct {
	deps analytics.Deps
}

func NewAnnotationAnalytics(deps analytics.Deps) *AnnotationAnalytics {
	return &AnnotationAnalytics{deps: deps}
}

func (p *AnnotationAnalytics) InputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "trace_id", Type: models.FieldTypeString, Required: true},
	}
}

func (p *AnnotationAnalytics) OutputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "annotations", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny},
	}
}

func (p *AnnotationAnalytics) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	traceID := inputString(input, "trace_id")
	spans, err := spansForTrace(ctx, p.deps, traceID)
	if err != nil {
		return nil, err
	}

	var annotations []models.Element
	for _, span := range spans {
		for _, event := range span.Events {
			id, _ := event.Attributes["id"].(string)
			if !strings.HasPrefix(id, markerAnnotationPrefix) {
				continue
			}
			annotation := models.Element{
				ElementID:  id,
				Kind:       models.KindAnnotation,
				RootID:     traceID,
				Name:       event.Name,
				Attributes: event.Attributes,
				Annotation: &models.Annotation{
					AnnotationType:    stringAttr(event.Attributes, "annotation_type"),
					PathToString:      stringAttr(event.Attributes, "path_to_string"),
					SegmentStart:      intAttr(event.Attributes, "segment_start"),
					SegmentEnd:        intAttr(event.Attributes, "segment_end"),
					AnnotationTitle:   stringAttr(event.Attributes, "annotation_title"),
					AnnotationContent: stringAttr(event.Attributes, "annotation_content"),
				},
			}
			annotation.AddRelation(taskIDForSpan(span.Context.SpanID), models.KindTask)
			annotations = append(annotations, annotation)
		}
	}

	if len(annotations) > 0 {
		if _, err := p.deps.DataManager.BulkStore(ctx, annotations, true); err != nil {
			return nil, err
		}
	}
	return map[string]any{"annotations": encodeList(annotations)}, nil
}

// spansForTrace loads and unwraps the trace's spans.
func spansForTrace(ctx context.Context, deps analytics.Deps, traceID string) ([]models.Span, error) {
	if traceID == "" {
		return nil, fmt.Errorf("%w: trace_id is required", utils.ErrInvalidInput)
	}
	els, err := deps.DataManager.GetSpans(ctx, traceID)
	if err != nil {
		return nil, err
	}
	spans := make([]models.Span, 0, len(els))
	for _, el := range els {
		if el.Span != nil {
			spans = append(spans, *el.Span)
		}
	}
	return spans, nil
}

// taskIDForSpan mirrors the task id derivation of the extraction pipeline.
func taskIDForSpan(spanID string) string {
	return "Task-" + spanID
}

func stringAttr(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

func intAttr(attrs map[string]any, key string) int {
	switch v := attrs[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
