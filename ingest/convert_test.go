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

package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
)

func stringAttr(key, value string) *commonpb.KeyValue {
	return &commonpb.KeyValue{
		Key:   key,
		Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: value}},
	}
}

func exportRequest(spans ...*tracepb.Span) *coltracepb.ExportTraceServiceRequest {
	return &coltracepb.ExportTraceServiceRequest{
		ResourceSpans: []*tracepb.ResourceSpans{{
			Resource: &resourcepb.Resource{
				Attributes: []*commonpb.KeyValue{stringAttr("service.name", "checkout agent")},
			},
			ScopeSpans: []*tracepb.ScopeSpans{{Spans: spans}},
		}},
	}
}

func TestConvertExportRequest(t *testing.T) {
	start := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Second)

	req := exportRequest(&tracepb.Span{
		TraceId:           []byte{0xaa, 0xbb},
		SpanId:            []byte{0x01, 0x02},
		ParentSpanId:      []byte{0x03, 0x04},
		Name:              "invoke_llm",
		Kind:              tracepb.Span_SPAN_KIND_CLIENT,
		StartTimeUnixNano: uint64(start.UnixNano()),
		EndTimeUnixNano:   uint64(end.UnixNano()),
		Status: &tracepb.Status{
			Code:    tracepb.Status_STATUS_CODE_ERROR,
			Message: "rate limited",
		},
		Attributes: []*commonpb.KeyValue{
			stringAttr("gen_ai.agent.name", "planner"),
			{Key: "retry_count", Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: 3}}},
		},
		Events: []*tracepb.Span_Event{{
			Name:         "exception",
			TimeUnixNano: uint64(end.UnixNano()),
			Attributes:   []*commonpb.KeyValue{stringAttr("exception.type", "RateLimitError")},
		}},
		Links: []*tracepb.Span_Link{{
			TraceId: []byte{0xcc},
			SpanId:  []byte{0xdd},
		}},
	})

	spans := convertExportRequest(req)
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "aabb", span.Context.TraceID)
	assert.Equal(t, "0102", span.Context.SpanID)
	assert.Equal(t, "0304", span.ParentID)
	assert.Equal(t, "invoke_llm", span.Name)
	assert.Equal(t, models.SpanKindClient, span.Kind)
	assert.Equal(t, start, span.StartTime)
	assert.Equal(t, end, span.EndTime)
	assert.Equal(t, models.SpanStatusError, span.Status)
	assert.Equal(t, "rate limited", span.StatusMessage)
	assert.Equal(t, "planner", span.StringAttribute("gen_ai.agent.name"))
	assert.Equal(t, int64(3), span.RawAttributes["retry_count"])

	// Resource service names pass through the same sanitizer as the log
	// import path.
	assert.Equal(t, "checkout_agent", span.Resource.ServiceName)

	require.Len(t, span.Events, 1)
	assert.Equal(t, "exception", span.Events[0].Name)
	assert.Equal(t, "RateLimitError", span.Events[0].Attributes["exception.type"])

	require.Len(t, span.Links, 1)
	assert.Equal(t, "cc", span.Links[0].Context.TraceID)
	assert.Equal(t, "dd", span.Links[0].Context.SpanID)
}

func TestConvertStatusDefaultsToUnset(t *testing.T) {
	req := exportRequest(&tracepb.Span{
		TraceId: []byte{0x01},
		SpanId:  []byte{0x02},
		Name:    "noop",
	})
	spans := convertExportRequest(req)
	require.Len(t, spans, 1)
	assert.Equal(t, models.SpanStatusUnset, spans[0].Status)
	assert.Equal(t, models.SpanKindUnspecified, spans[0].Kind)
	assert.Empty(t, spans[0].ParentID)
}

func TestConvertNestedAttributeValues(t *testing.T) {
	req := exportRequest(&tracepb.Span{
		TraceId: []byte{0x01},
		SpanId:  []byte{0x02},
		Attributes: []*commonpb.KeyValue{{
			Key: "tags",
			Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{
				ArrayValue: &commonpb.ArrayValue{Values: []*commonpb.AnyValue{
					{Value: &commonpb.AnyValue_StringValue{StringValue: "a"}},
					{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: 1.5}},
				}},
			}},
		}},
	})
	spans := convertExportRequest(req)
	require.Len(t, spans, 1)
	assert.Equal(t, []any{"a", 1.5}, spans[0].RawAttributes["tags"])
}
