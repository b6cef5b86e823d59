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

// Package cache holds the optional engine result cache. It is disabled by
// default: forward-triggered runs rarely hit, and the lookup costs latency
// on every node. Deployments that re-run identical pipelines can enable it
// through ENGINE_RESULT_CACHE_ENABLED.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
)

// ResultCache stores prior SUCCESS results keyed by plugin id and input
// payload.
type ResultCache interface {
	Get(ctx context.Context, analyticsID string, input map[string]any) (*models.ExecutionResult, error)
	Set(ctx context.Context, result *models.ExecutionResult) error
}

// Key derives the cache key: the plugin id plus a canonical hash of the
// input payload, so equal inputs collide regardless of map iteration order.
func Key(analyticsID string, input map[string]any) string {
	return fmt.Sprintf("analytics:result:%s:%s", analyticsID, canonicalHash(input))
}

func canonicalHash(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		raw, err := json.Marshal(m[k])
		if err != nil {
			raw = []byte(fmt.Sprintf("%v", m[k]))
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.Write(raw)
		b.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Noop is the cache used while caching is disabled.
type Noop struct{}

var _ ResultCache = Noop{}

func (Noop) Get(context.Context, string, map[string]any) (*models.ExecutionResult, error) {
	return nil, nil
}

func (Noop) Set(context.Context, *models.ExecutionResult) error { return nil }
