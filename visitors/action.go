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
	"sync"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/traversal"
)

// Manual gen_ai.action.* attribute keys.
const (
	attrActionCodeID       = "gen_ai.action.code.id"
	attrActionKind         = "gen_ai.action.kind"
	attrActionInputSchema  = "gen_ai.action.input_schema"
	attrActionOutputSchema = "gen_ai.action.output_schema"
	attrActionResources    = "gen_ai.action.consumed_resources"
)

// ActionDedup collapses actions with equal code ids across concurrently
// processed traces. The first writer wins for a code id; later candidates
// observe the canonical element.
type ActionDedup struct {
	mu       sync.Mutex
	byCodeID map[string]*models.Element
}

// NewActionDedup creates an empty dedup context. One instance is shared
// process-wide per tenant.
func NewActionDedup() *ActionDedup {
	return &ActionDedup{byCodeID: make(map[string]*models.Element)}
}

// Canonical returns the canonical action for the candidate's code id and
// whether the candidate became the canonical one.
func (d *ActionDedup) Canonical(candidate *models.Element) (*models.Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	codeID := candidate.Action.CodeID
	if existing, ok := d.byCodeID[codeID]; ok {
		return existing, false
	}
	d.byCodeID[codeID] = candidate
	return candidate, true
}

// taskKindToActionKind maps a task's kind to the kind of the action that
// backs it.
var taskKindToActionKind = map[models.TaskKind]models.ActionKind{
	models.TaskKindLLM:       models.ActionKindLLM,
	models.TaskKindTool:      models.ActionKindTool,
	models.TaskKindVectorDB:  models.ActionKindVectorDB,
	models.TaskKindRetriever: models.ActionKindVectorDB,
	models.TaskKindEmbedding: models.ActionKindML,
	models.TaskKindGuardrail: models.ActionKindGuardrail,
	models.TaskKindHuman:     models.ActionKindHuman,
}

// NewActionVisitor creates the visitor that runs last in the pipeline and
// synthesizes the Action identity for every span that carries an explicit
// gen_ai.action.* set, was turned into a task by an earlier visitor, or
// matches the known span-name table. Task action_ids are rewritten to the
// canonical deduplicated action.
func NewActionVisitor(dedup *ActionDedup) traversal.Processor {
	return &actionVisitor{dedup: dedup, seen: make(map[string]bool)}
}

type actionVisitor struct {
	dedup *ActionDedup
	// seen tracks code ids already appended to this traversal's actions.
	seen map[string]bool
}

func (v *actionVisitor) Name() string { return "actions" }

func (v *actionVisitor) ShouldProcess(span *models.Span, _ *traversal.Context) bool {
	// Task existence is settled only once this visitor's BEFORE phase runs
	// (it is registered last), so gate broadly and decide in Process.
	return true
}

func (v *actionVisitor) Process(_ context.Context, span *models.Span, phase traversal.Phase, tctx *traversal.Context) error {
	if phase != traversal.BeforeChildren {
		return nil
	}
	task := TaskForSpan(tctx, span.Context.SpanID)
	manual := span.StringAttribute(attrActionCodeID) != ""
	_, named := spanNameKind(spanName(span))
	if task == nil && !manual && !named {
		return nil
	}

	candidate := v.buildAction(span, task)
	canonical, _ := v.dedup.Canonical(candidate)
	if task != nil {
		task.Task.ActionID = canonical.ElementID
	}
	if !v.seen[canonical.Action.CodeID] {
		v.seen[canonical.Action.CodeID] = true
		appendAction(tctx, canonical)
	}
	return nil
}

func (v *actionVisitor) AfterTraversal(context.Context, *traversal.Context) error { return nil }

func (v *actionVisitor) buildAction(span *models.Span, task *models.Element) *models.Element {
	action := &models.Action{}
	name := stripSpanNameSuffix(spanName(span))

	if codeID := span.StringAttribute(attrActionCodeID); codeID != "" {
		action.CodeID = codeID
		action.Kind = models.ActionKind(span.StringAttribute(attrActionKind))
		if action.Kind == "" {
			action.Kind = models.ActionKindOther
		}
		action.InputSchema = parseJSONMap(span.StringAttribute(attrActionInputSchema))
		action.OutputSchema = parseJSONMap(span.StringAttribute(attrActionOutputSchema))
		action.ConsumedResources = parseJSONMap(span.StringAttribute(attrActionResources))
	} else if task != nil && span.StringAttribute(attrTaskCodeID) != "" {
		// Manual tasks may declare the code identity of their action.
		action.CodeID = span.StringAttribute(attrTaskCodeID)
		action.Kind = actionKindForTask(task)
	} else {
		// Synthesized from the span: the stripped name is the identity.
		action.CodeID = name
		action.IsGenerated = true
		if task != nil {
			action.Kind = actionKindForTask(task)
		} else if kind, ok := spanNameKind(spanName(span)); ok {
			action.Kind = taskKindToActionKind[kind]
		}
		if action.Kind == "" {
			action.Kind = models.ActionKindOther
		}
	}

	return &models.Element{
		ElementID: models.NewElementID(models.KindAction),
		Kind:      models.KindAction,
		Name:      name,
		Action:    action,
	}
}

func actionKindForTask(task *models.Element) models.ActionKind {
	if kind, ok := taskKindToActionKind[task.Task.Kind]; ok {
		return kind
	}
	return models.ActionKindOther
}
