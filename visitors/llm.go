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

// Token usage attributes, standard gen_ai.usage.* names first with the
// legacy aliases some SDKs still emit.
var (
	inputTokenAttrs  = []string{"gen_ai.usage.input_tokens", "gen_ai.usage.prompt_tokens"}
	outputTokenAttrs = []string{"gen_ai.usage.output_tokens", "gen_ai.usage.completion_tokens"}
)

// llmSpanNames are well-known LLM invocation span names emitted by common
// instrumentations.
var llmSpanNames = map[string]bool{
	"openai.chat":        true,
	"anthropic.chat":     true,
	"azure_openai.chat":  true,
	"mistral.chat":       true,
	"ollama.chat":        true,
	"gemini.chat":        true,
	"bedrock.completion": true,
	"chat":               true,
	"llm":                true,
}

// NewLLMVisitor recognizes model-invocation spans by name suffix ".chat",
// the known-name set, or the traceloop "llm" span kind. It extracts prompt
// and completion content plus token usage into the task.
func NewLLMVisitor() traversal.Processor {
	return &baseVisitor{hooks: &llmVisitor{}}
}

type llmVisitor struct{}

func (v *llmVisitor) Name() string { return "llm" }

func (v *llmVisitor) IsFrameworkSpan(span *models.Span, _ *traversal.Context) bool {
	name := spanName(span)
	if strings.HasSuffix(name, ".chat") || llmSpanNames[strings.ToLower(name)] {
		return true
	}
	if span.StringAttribute("traceloop.span.kind") == "llm" {
		return true
	}
	// OTel GenAI semantic conventions: system plus a model identify the call.
	return span.StringAttribute("gen_ai.system") != "" &&
		(span.StringAttribute("gen_ai.request.model") != "" || span.StringAttribute("gen_ai.response.model") != "")
}

func (v *llmVisitor) BuildTask(_ context.Context, span *models.Span, _ *traversal.Context) *models.Element {
	task := newTaskElement(span, models.TaskKindLLM)

	model := span.StringAttribute("gen_ai.response.model")
	if model == "" {
		model = span.StringAttribute("gen_ai.request.model")
	}
	if model != "" {
		task.SetAttribute("model", model)
	}
	if vendor := span.StringAttribute("gen_ai.system"); vendor != "" {
		task.Task.Vendor = vendor
	}

	task.Task.Input.Data = extractPrompts(span)
	task.Task.Output.Data = extractCompletions(span)

	if tokens := extractTokenUsage(span); len(tokens) > 0 {
		for k, n := range tokens {
			task.SetAttribute(k, n)
		}
	}
	task.AddTag("llm_task")
	return task
}

// extractPrompts collects prompt content from the OTel event form
// (gen_ai.content.prompt / gen_ai.user.message) and the flattened
// traceloop form (gen_ai.prompt.{i}.{field}).
func extractPrompts(span *models.Span) map[string]any {
	out := map[string]any{}
	for _, ev := range span.Events {
		switch ev.Name {
		case "gen_ai.content.prompt", "gen_ai.user.message", "gen_ai.system.message":
			for k, v := range normalizeMap(ev.Attributes) {
				out[k] = v
			}
		}
	}
	if msgs := span.StringAttribute("gen_ai.input.messages"); msgs != "" {
		out["messages"] = normalizeValue(parseJSONAny(msgs))
	}
	for key, value := range span.RawAttributes {
		if strings.HasPrefix(key, "gen_ai.prompt.") {
			out[strings.TrimPrefix(key, "gen_ai.")] = normalizeValue(value)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// extractCompletions mirrors extractPrompts for model output.
func extractCompletions(span *models.Span) map[string]any {
	out := map[string]any{}
	for _, ev := range span.Events {
		switch ev.Name {
		case "gen_ai.content.completion", "gen_ai.choice", "gen_ai.assistant.message":
			for k, v := range normalizeMap(ev.Attributes) {
				out[k] = v
			}
		}
	}
	if msgs := span.StringAttribute("gen_ai.output.messages"); msgs != "" {
		out["messages"] = normalizeValue(parseJSONAny(msgs))
	}
	for key, value := range span.RawAttributes {
		if strings.HasPrefix(key, "gen_ai.completion.") {
			out[strings.TrimPrefix(key, "gen_ai.")] = normalizeValue(value)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// extractTokenUsage reads gen_ai.usage.* counters, returning only the
// counters that are present and positive.
func extractTokenUsage(span *models.Span) map[string]int {
	out := map[string]int{}
	if n, ok := firstIntAttribute(span, inputTokenAttrs); ok && n > 0 {
		out["input_tokens"] = n
	}
	if n, ok := firstIntAttribute(span, outputTokenAttrs); ok && n > 0 {
		out["output_tokens"] = n
	}
	if len(out) > 0 {
		out["total_tokens"] = out["input_tokens"] + out["output_tokens"]
	}
	return out
}

func firstIntAttribute(span *models.Span, keys []string) (int, bool) {
	for _, key := range keys {
		if raw, ok := span.RawAttributes[key]; ok {
			if n, ok := asInt(raw); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	default:
		return 0, false
	}
}
