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

// Package plugins holds the built-in analytics plugin implementations.
// Each plugin is registered in the catalog under a stable factory name and
// instantiated per execution with the tenant's components.
package plugins

import (
	"encoding/json"
	"fmt"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
)

// Catalog factory names of the built-in plugins.
const (
	FactoryTaskAnalytics          = "task_analytics"
	FactoryIssueAnalytics         = "issue_analytics"
	FactoryAnnotationAnalytics    = "annotation_analytics"
	FactoryCycleDetector          = "cycle_detector"
	FactoryChangePointDetector    = "change_point_detector"
	FactoryCausalDiscoveryLight   = "causal_discovery_light"
	FactoryIssueDistributionTrace = "issue_distribution_trace"
)

// RegisterBuiltins registers every built-in plugin factory.
func RegisterBuiltins(catalog *analytics.Catalog) error {
	factories := map[string]analytics.Factory{
		FactoryTaskAnalytics:          func(deps analytics.Deps) analytics.Plugin { return NewTaskAnalytics(deps) },
		FactoryIssueAnalytics:         func(deps analytics.Deps) analytics.Plugin { return NewIssueAnalytics(deps) },
		FactoryAnnotationAnalytics:    func(deps analytics.Deps) analytics.Plugin { return NewAnnotationAnalytics(deps) },
		FactoryCycleDetector:          func(deps analytics.Deps) analytics.Plugin { return NewCycleDetector(deps) },
		FactoryChangePointDetector:    func(deps analytics.Deps) analytics.Plugin { return NewChangePointDetector(deps) },
		FactoryCausalDiscoveryLight:   func(deps analytics.Deps) analytics.Plugin { return NewCausalDiscoveryLight(deps) },
		FactoryIssueDistributionTrace: func(deps analytics.Deps) analytics.Plugin { return NewIssueDistributionTrace(deps) },
	}
	for name, factory := range factories {
		if err := catalog.Register(name, factory); err != nil {
			return err
		}
	}
	return nil
}

// Input extraction helpers. Plugin inputs arrive as JSON-shaped maps; these
// tolerate the decoded forms ([]any, float64) alongside native Go values.

func inputString(input map[string]any, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}

func inputStrings(input map[string]any, key string) []string {
	switch v := input[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func inputInt(input map[string]any, key string, fallback int) int {
	switch v := input[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func inputFloat(input map[string]any, key string, fallback float64) float64 {
	switch v := input[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}

// decodeInto re-marshals a JSON-shaped value into a typed destination.
func decodeInto(v any, dst any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode input value: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode input value: %w", err)
	}
	return nil
}

// encodeList serializes typed values into the JSON-shaped form plugin
// outputs carry.
func encodeList[T any](items []T) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
