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

import "time"

// SpanKind mirrors the OpenTelemetry span kind.
type SpanKind string

const (
	SpanKindUnspecified SpanKind = "UNSPECIFIED"
	SpanKindInternal    SpanKind = "INTERNAL"
	SpanKindServer      SpanKind = "SERVER"
	SpanKindClient      SpanKind = "CLIENT"
	SpanKindProducer    SpanKind = "PRODUCER"
	SpanKindConsumer    SpanKind = "CONSUMER"
)

// Span status codes per OpenTelemetry.
const (
	SpanStatusUnset = "UNSET"
	SpanStatusOK    = "OK"
	SpanStatusError = "ERROR"
)

// SpanContext identifies a span within its trace.
type SpanContext struct {
	TraceID string `json:"trace_id"`
	SpanID  string `json:"span_id"`
}

// SpanEvent is a timestamped event attached to a span.
type SpanEvent struct {
	Name       string         `json:"name"`
	Timestamp  time.Time      `json:"timestamp"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// SpanLink references another span context.
type SpanLink struct {
	Context    SpanContext    `json:"context"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// SpanResource carries the resource attributes of the producing process.
type SpanResource struct {
	ServiceName string         `json:"service_name"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Span is the internal representation of one OpenTelemetry span. Spans are
// written once by the ingestion path and only queried afterward.
type Span struct {
	Context       SpanContext    `json:"context"`
	Name          string         `json:"name"`
	ParentID      string         `json:"parent_id,omitempty"`
	Kind          SpanKind       `json:"kind"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	Status        string         `json:"status"`
	StatusMessage string         `json:"status_message,omitempty"`
	Resource      SpanResource   `json:"resource"`
	RawAttributes map[string]any `json:"raw_attributes,omitempty"`
	Events        []SpanEvent    `json:"events,omitempty"`
	Links         []SpanLink     `json:"links,omitempty"`
}

// LogReference ties a derived artifact back to the span it came from.
type LogReference struct {
	TraceID string `json:"trace_id"`
	SpanID  string `json:"span_id"`
}

// StringAttribute returns the attribute as a string, or "" when absent or
// not a string.
func (s *Span) StringAttribute(key string) string {
	if s.RawAttributes == nil {
		return ""
	}
	if v, ok := s.RawAttributes[key].(string); ok {
		return v
	}
	return ""
}

// HasAttribute reports whether the raw attribute key is present.
func (s *Span) HasAttribute(key string) bool {
	if s.RawAttributes == nil {
		return false
	}
	_, ok := s.RawAttributes[key]
	return ok
}
