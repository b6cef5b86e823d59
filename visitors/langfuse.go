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

const attrObservationType = "langfuse.observation.type"

// langfuseObservationKinds maps Langfuse observation types to canonical
// task kinds. Unlisted types ("span", "event") become OTHER tasks.
var langfuseObservationKinds = map[string]models.TaskKind{
	"generation": models.TaskKindLLM,
	"tool":       models.TaskKindTool,
	"retriever":  models.TaskKindRetriever,
	"agent":      models.TaskKindAgent,
	"guardrail":  models.TaskKindGuardrail,
	"embedding":  models.TaskKindEmbedding,
	"chain":      models.TaskKindChain,
}

// NewLangfuseVisitor recognizes Langfuse observation spans by their
// observation-type attribute.
func NewLangfuseVisitor() traversal.Processor {
	return &baseVisitor{hooks: &langfuseVisitor{}}
}

type langfuseVisitor struct{}

func (v *langfuseVisitor) Name() string { return "langfuse" }

func (v *langfuseVisitor) IsFrameworkSpan(span *models.Span, _ *traversal.Context) bool {
	return span.StringAttribute(attrObservationType) != ""
}

func (v *langfuseVisitor) BuildTask(_ context.Context, span *models.Span, _ *traversal.Context) *models.Element {
	observation := strings.ToLower(span.StringAttribute(attrObservationType))
	kind, ok := langfuseObservationKinds[observation]
	if !ok {
		kind = models.TaskKindOther
	}

	task := newTaskElement(span, kind)
	task.SetAttribute("observation_type", observation)
	if input := span.StringAttribute("langfuse.observation.input"); input != "" {
		task.Task.Input.Data = parseJSONMap(input)
	}
	if output := span.StringAttribute("langfuse.observation.output"); output != "" {
		task.Task.Output.Data = parseJSONMap(output)
	}
	if level := span.StringAttribute("langfuse.observation.level"); level != "" {
		task.SetAttribute("observation_level", level)
	}
	if model := span.StringAttribute("langfuse.observation.model.name"); model != "" {
		task.SetAttribute("model", model)
	}
	task.AddTag("langfuse")
	return task
}
