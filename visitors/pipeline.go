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

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/traversal"
)

// DefaultPipeline builds the visitor chain in the canonical order. The
// detectors are tried first-match-wins per span, so the more specific
// framework visitors precede the generic ones; the action visitor always
// runs last. The chain is single-use: build a fresh pipeline per traversal
// and share only the dedup context across traces.
func DefaultPipeline(dedup *ActionDedup) []traversal.Processor {
	return []traversal.Processor{
		NewManualTaskVisitor(),
		NewLLMVisitor(),
		NewLangChainVisitor(),
		NewLangGraphVisitor(),
		NewCrewAIVisitor(),
		NewVectorDBVisitor(),
		NewLangfuseVisitor(),
		NewActionVisitor(dedup),
	}
}

// ExtractTaskGraph runs the default pipeline over one trace's spans and
// returns the extracted tasks and the actions they reference.
func ExtractTaskGraph(ctx context.Context, spans []models.Span, dedup *ActionDedup) (tasks, actions []*models.Element) {
	tctx := traversal.NewContext()
	traversal.Traverse(ctx, spans, DefaultPipeline(dedup), tctx)
	return Tasks(tctx), Actions(tctx)
}
