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

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ElementKind discriminates the body of an Element. The string values are
// persisted in the record's `type` field and in `related_to_types`.
type ElementKind string

const (
	KindTrace          ElementKind = "Trace"
	KindSpan           ElementKind = "Span"
	KindTask           ElementKind = "Task"
	KindAction         ElementKind = "Action"
	KindMetric         ElementKind = "Metric"
	KindIssue          ElementKind = "Issue"
	KindAnnotation     ElementKind = "Annotation"
	KindTraceGroup     ElementKind = "TraceGroup"
	KindWorkflow       ElementKind = "Workflow"
	KindWorkflowNode   ElementKind = "WorkflowNode"
	KindWorkflowEdge   ElementKind = "WorkflowEdge"
	KindTraceWorkflow  ElementKind = "TraceWorkflow"
	KindRecommendation ElementKind = "Recommendation"
)

// CollectionName maps a kind to the logical collection holding its records.
// Workflow artifacts share one collection; the `type` discriminator keeps
// heterogeneous reads unambiguous.
func (k ElementKind) CollectionName() string {
	switch k {
	case KindTrace:
		return "traces"
	case KindSpan:
		return "spans"
	case KindTask:
		return "tasks"
	case KindAction:
		return "actions"
	case KindMetric:
		return "metrics"
	case KindIssue:
		return "issues"
	case KindAnnotation:
		return "annotations"
	case KindTraceGroup:
		return "trace_groups"
	case KindWorkflow, KindWorkflowNode, KindWorkflowEdge, KindTraceWorkflow:
		return "workflows"
	case KindRecommendation:
		return "recommendations"
	default:
		return ""
	}
}

// AllElementKinds lists every kind in a stable order.
var AllElementKinds = []ElementKind{
	KindTrace, KindSpan, KindTask, KindAction, KindMetric, KindIssue,
	KindAnnotation, KindTraceGroup, KindWorkflow, KindWorkflowNode,
	KindWorkflowEdge, KindTraceWorkflow, KindRecommendation,
}

// Element is the persisted artifact: a shared header plus exactly one
// kind-specific body matching Kind.
type Element struct {
	ElementID        string         `json:"element_id"`
	Kind             ElementKind    `json:"type"`
	RootID           string         `json:"root_id,omitempty"`
	Name             string         `json:"name,omitempty"`
	Description      string         `json:"description,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
	Attributes       map[string]any `json:"attributes,omitempty"`
	PluginMetadataID string         `json:"plugin_metadata_id,omitempty"`

	// RelatedToIDs and RelatedToTypes are parallel arrays; entry i of the
	// second names the kind of entry i of the first.
	RelatedToIDs   []string      `json:"related_to_ids,omitempty"`
	RelatedToTypes []ElementKind `json:"related_to_types,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`

	Trace          *Trace          `json:"trace,omitempty"`
	Span           *Span           `json:"span,omitempty"`
	Task           *Task           `json:"task,omitempty"`
	Action         *Action         `json:"action,omitempty"`
	Metric         *Metric         `json:"metric,omitempty"`
	Issue          *Issue          `json:"issue,omitempty"`
	Annotation     *Annotation     `json:"annotation,omitempty"`
	TraceGroup     *TraceGroup     `json:"trace_group,omitempty"`
	Workflow       *Workflow       `json:"workflow,omitempty"`
	WorkflowNode   *WorkflowNode   `json:"workflow_node,omitempty"`
	WorkflowEdge   *WorkflowEdge   `json:"workflow_edge,omitempty"`
	TraceWorkflow  *TraceWorkflow  `json:"trace_workflow,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// NewElementID generates a process-wide unique id carrying the kind prefix,
// e.g. "Task-6e1d…". Callers may supply their own ids instead.
func NewElementID(kind ElementKind) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewString())
}

// AddRelation appends a relation link, keeping the parallel arrays aligned.
// Duplicate ids are ignored.
func (e *Element) AddRelation(id string, kind ElementKind) {
	for _, existing := range e.RelatedToIDs {
		if existing == id {
			return
		}
	}
	e.RelatedToIDs = append(e.RelatedToIDs, id)
	e.RelatedToTypes = append(e.RelatedToTypes, kind)
}

// SetAttribute stores an opaque attribute, allocating the map lazily.
func (e *Element) SetAttribute(key string, value any) {
	if e.Attributes == nil {
		e.Attributes = make(map[string]any)
	}
	e.Attributes[key] = value
}

// AddTag appends a tag if not already present. Tags are an unordered set.
func (e *Element) AddTag(tag string) {
	for _, existing := range e.Tags {
		if existing == tag {
			return
		}
	}
	e.Tags = append(e.Tags, tag)
}

// HasTag reports whether the element carries the tag.
func (e *Element) HasTag(tag string) bool {
	for _, existing := range e.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants shared by all kinds.
func (e *Element) Validate() error {
	if e.ElementID == "" {
		return fmt.Errorf("element_id is required")
	}
	if e.Kind.CollectionName() == "" {
		return fmt.Errorf("unknown element kind %q", e.Kind)
	}
	if len(e.RelatedToIDs) != len(e.RelatedToTypes) {
		return fmt.Errorf("related_to_ids (%d) and related_to_types (%d) must be parallel",
			len(e.RelatedToIDs), len(e.RelatedToTypes))
	}
	return nil
}
