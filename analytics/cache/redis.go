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

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
)

// Redis is the result cache backed by a redis instance. A cache miss and a
// redis outage both read as a miss; the engine falls through to execution.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ResultCache = (*Redis)(nil)

// NewRedis creates a redis result cache. TTL zero means entries do not
// expire.
func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		ttl:    ttl,
	}
}

func (r *Redis) Get(ctx context.Context, analyticsID string, input map[string]any) (*models.ExecutionResult, error) {
	raw, err := r.client.Get(ctx, Key(analyticsID, input)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("result cache get: %w", err)
	}
	var result models.ExecutionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("result cache decode: %w", err)
	}
	return &result, nil
}

func (r *Redis) Set(ctx context.Context, result *models.ExecutionResult) error {
	if result.Status != models.ExecutionSuccess {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("result cache encode: %w", err)
	}
	key := Key(result.AnalyticsID, result.InputDataUsed)
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("result cache set: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
