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
	"encoding/hex"
	"time"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

const serviceNameAttr = "service.name"

// convertExportRequest flattens an OTLP export request into internal spans.
// Resource attributes are carried on every span of the resource.
func convertExportRequest(req *coltracepb.ExportTraceServiceRequest) []models.Span {
	var spans []models.Span
	for _, rs := range req.GetResourceSpans() {
		resource := convertResource(rs)
		for _, ss := range rs.GetScopeSpans() {
			for _, s := range ss.GetSpans() {
				spans = append(spans, convertSpan(s, resource))
			}
		}
	}
	return spans
}

func convertResource(rs *tracepb.ResourceSpans) models.SpanResource {
	attrs := convertAttributes(rs.GetResource().GetAttributes())
	name, _ := attrs[serviceNameAttr].(string)
	return models.SpanResource{
		ServiceName: utils.SanitizeServiceName(name),
		Attributes:  attrs,
	}
}

func convertSpan(s *tracepb.Span, resource models.SpanResource) models.Span {
	span := models.Span{
		Context: models.SpanContext{
			TraceID: hex.EncodeToString(s.GetTraceId()),
			SpanID:  hex.EncodeToString(s.GetSpanId()),
		},
		Name:          s.GetName(),
		Kind:          convertKind(s.GetKind()),
		StartTime:     time.Unix(0, int64(s.GetStartTimeUnixNano())).UTC(),
		EndTime:       time.Unix(0, int64(s.GetEndTimeUnixNano())).UTC(),
		Status:        convertStatus(s.GetStatus()),
		StatusMessage: s.GetStatus().GetMessage(),
		Resource:      resource,
		RawAttributes: convertAttributes(s.GetAttributes()),
	}
	if len(s.GetParentSpanId()) > 0 {
		span.ParentID = hex.EncodeToString(s.GetParentSpanId())
	}
	for _, ev := range s.GetEvents() {
		span.Events = append(span.Events, models.SpanEvent{
			Name:       ev.GetName(),
			Timestamp:  time.Unix(0, int64(ev.GetTimeUnixNano())).UTC(),
			Attributes: convertAttributes(ev.GetAttributes()),
		})
	}
	for _, link := range s.GetLinks() {
		span.Links = append(span.Links, models.SpanLink{
			Context: models.SpanContext{
				TraceID: hex.EncodeToString(link.GetTraceId()),
				SpanID:  hex.EncodeToString(link.GetSpanId()),
			},
			Attributes: convertAttributes(link.GetAttributes()),
		})
	}
	return span
}

func convertKind(kind tracepb.Span_SpanKind) models.SpanKind {
	switch kind {
	case tracepb.Span_SPAN_KIND_INTERNAL:
		return models.SpanKindInternal
	case tracepb.Span_SPAN_KIND_SERVER:
		return models.SpanKindServer
	case tracepb.Span_SPAN_KIND_CLIENT:
		return models.SpanKindClient
	case tracepb.Span_SPAN_KIND_PRODUCER:
		return models.SpanKindProducer
	case tracepb.Span_SPAN_KIND_CONSUMER:
		return models.SpanKindConsumer
	default:
		return models.SpanKindUnspecified
	}
}

func convertStatus(status *tracepb.Status) string {
	switch status.GetCode() {
	case tracepb.Status_STATUS_CODE_OK:
		return models.SpanStatusOK
	case tracepb.Status_STATUS_CODE_ERROR:
		return models.SpanStatusError
	default:
		return models.SpanStatusUnset
	}
}

func convertAttributes(kvs []*commonpb.KeyValue) map[string]any {
	if len(kvs) == 0 {
		return nil
	}
	attrs := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		attrs[kv.GetKey()] = convertAnyValue(kv.GetValue())
	}
	return attrs
}

func convertAnyValue(v *commonpb.AnyValue) any {
	switch val := v.GetValue().(type) {
	case *commonpb.AnyValue_StringValue:
		return val.StringValue
	case *commonpb.AnyValue_BoolValue:
		return val.BoolValue
	case *commonpb.AnyValue_IntValue:
		return val.IntValue
	case *commonpb.AnyValue_DoubleValue:
		return val.DoubleValue
	case *commonpb.AnyValue_ArrayValue:
		out := make([]any, 0, len(val.ArrayValue.GetValues()))
		for _, item := range val.ArrayValue.GetValues() {
			out = append(out, convertAnyValue(item))
		}
		return out
	case *commonpb.AnyValue_KvlistValue:
		return convertAttributes(val.KvlistValue.GetValues())
	case *commonpb.AnyValue_BytesValue:
		return hex.EncodeToString(val.BytesValue)
	default:
		return nil
	}
}
