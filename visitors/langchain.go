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

package visitors

import (
	"context"
	"strings"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/traversal"
)

// traceloopKindToTask maps the traceloop.span.kind values the LangChain
// instrumentation emits to canonical task kinds.
var traceloopKindToTask = map[string]models.TaskKind{
	"task":      models.TaskKindChain,
	"workflow":  models.TaskKindChain,
	"tool":      models.TaskKindTool,
	"agent":     models.TaskKindAgent,
	"embedding": models.TaskKindEmbedding,
	"retriever": models.TaskKindRetriever,
}

// NewLangChainVisitor recognizes LangChain / traceloop-instrumented spans:
// an explicit traceloop.span.kind attribute, a traceloop entity, or the
// dotted kind suffix in the span name ("search.tool", "pipeline.workflow").
func NewLangChainVisitor() traversal.Processor {
	return &baseVisitor{hooks: &langChainVisitor{}}
}

type langChainVisitor struct{}

func (v *langChainVisitor) Name() string { return "langchain" }

func (v *langChainVisitor) IsFrameworkSpan(span *models.Span, _ *traversal.Context) bool {
	if kind := span.StringAttribute("traceloop.span.kind"); kind != "" {
		_, ok := traceloopKindToTask[kind]
		return ok
	}
	if span.StringAttribute("traceloop.entity.name") != "" {
		return true
	}
	_, ok := spanNameKind(spanName(span))
	return ok
}

func (v *langChainVisitor) BuildTask(_ context.Context, span *models.Span, _ *traversal.Context) *models.Element {
	kind := models.TaskKindChain
	if tk, ok := traceloopKindToTask[span.StringAttribute("traceloop.span.kind")]; ok {
		kind = tk
	} else if nk, ok := spanNameKind(spanName(span)); ok {
		kind = nk
	}

	task := newTaskElement(span, kind)
	if entity := span.StringAttribute("traceloop.entity.name"); entity != "" {
		task.Name = entity
	}
	if input := span.StringAttribute("traceloop.entity.input"); input != "" {
		task.Task.Input.Data = entityPayload(input, "inputs")
	}
	if output := span.StringAttribute("traceloop.entity.output"); output != "" {
		task.Task.Output.Data = entityPayload(output, "outputs")
	}
	task.AddTag("langchain")
	return task
}

// entityPayload unwraps the traceloop envelope: the attribute is a JSON
// object whose interesting content sits under "inputs"/"outputs", with an
// optional sibling "metadata".
func entityPayload(raw, innerKey string) map[string]any {
	payload := parseJSONMap(raw)
	if payload == nil {
		return nil
	}
	inner, hasInner := payload[innerKey]
	if !hasInner {
		return payload
	}
	out := map[string]any{}
	switch t := inner.(type) {
	case map[string]any:
		out = t
	default:
		out[innerKey] = normalizeValue(t)
	}
	if meta, ok := payload["metadata"]; ok {
		out["metadata"] = normalizeValue(meta)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// NewLangGraphVisitor recognizes LangGraph node spans ("LangGraph.<node>"
// names or langgraph.* attributes) and records the graph position so
// downstream workflow discovery can line nodes up.
func NewLangGraphVisitor() traversal.Processor {
	return &baseVisitor{hooks: &langGraphVisitor{}}
}

type langGraphVisitor struct{}

func (v *langGraphVisitor) Name() string { return "langgraph" }

func (v *langGraphVisitor) IsFrameworkSpan(span *models.Span, _ *traversal.Context) bool {
	name := spanName(span)
	if strings.HasPrefix(name, "LangGraph.") || strings.EqualFold(name, "langgraph") {
		return true
	}
	return span.StringAttribute("langgraph.node") != "" || span.StringAttribute("langgraph.step") != ""
}

func (v *langGraphVisitor) BuildTask(_ context.Context, span *models.Span, _ *traversal.Context) *models.Element {
	kind := models.TaskKindChain
	name := spanName(span)
	node := span.StringAttribute("langgraph.node")
	if node == "" {
		node = strings.TrimPrefix(name, "LangGraph.")
	}
	if nk, ok := spanNameKind(name); ok {
		kind = nk
	}

	task := newTaskElement(span, kind)
	if node != "" {
		task.Name = node
		task.SetAttribute("graph_node", node)
	}
	if step := span.StringAttribute("langgraph.step"); step != "" {
		task.SetAttribute("graph_step", step)
	}
	// Declared upstream nodes; resolved against sibling tasks after the
	// traversal by name.
	if triggers := parseJSONList(span.StringAttribute("langgraph.triggers")); len(triggers) > 0 {
		task.SetAttribute("graph_triggers", triggers)
	}
	task.AddTag("langgraph")
	return task
}
