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

// ActionKind classifies the reusable code identity behind tasks.
type ActionKind string

const (
	ActionKindLLM       ActionKind = "LLM"
	ActionKindTool      ActionKind = "TOOL"
	ActionKindVectorDB  ActionKind = "VECTOR_DB"
	ActionKindML        ActionKind = "ML"
	ActionKindGuardrail ActionKind = "GUARDRAIL"
	ActionKindHuman     ActionKind = "HUMAN"
	ActionKindOther     ActionKind = "OTHER"
)

// Action is the identity of a piece of code (a tool, an LLM call, a
// retriever) referenced by one or more Tasks. Two actions are the same
// action iff their CodeID is equal; deduplication rewrites task action_ids
// to the canonical element.
type Action struct {
	// CodeID is the semantic identity, conventionally file:line:qualified-name
	// for instrumented code or a derived name for synthesized actions.
	CodeID       string         `json:"code_id"`
	Kind         ActionKind     `json:"kind"`
	InputSchema  map[string]any `json:"input_schema,omitempty"`
	OutputSchema map[string]any `json:"output_schema,omitempty"`
	// IsGenerated marks actions synthesized from spans that carried no
	// explicit action identity.
	IsGenerated       bool           `json:"is_generated,omitempty"`
	ConsumedResources map[string]any `json:"consumed_resources,omitempty"`
}
