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

// Package events accepts asynchronous analytics run requests and tracks
// their lifecycle. A dispatched event runs detached from the scheduling
// request; failures are recorded in the status registry and the persisted
// execution result, never returned to the original caller.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/spec"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/tenants"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// Status is the lifecycle state of one dispatched event.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type eventState struct {
	status Status
	result *models.ExecutionResult
}

// Dispatcher schedules background analytics runs and answers status
// queries. Event ids are `{analytics_id}:{trace_or_group_id}`; an event
// already pending or processing is not scheduled twice.
type Dispatcher struct {
	tenants *tenants.Registry

	mu     sync.Mutex
	states map[string]*eventState

	running sync.WaitGroup
}

// NewDispatcher creates an event dispatcher over the tenant registry.
func NewDispatcher(registry *tenants.Registry) *Dispatcher {
	return &Dispatcher{
		tenants: registry,
		states:  make(map[string]*eventState),
	}
}

// Dispatch validates the event and schedules its background run, returning
// the event id immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, req spec.EventRequest) (string, error) {
	content := req.Content
	if content.CreatingPluginID == "" {
		return "", fmt.Errorf("%w: creating_plugin_id is required", utils.ErrInvalidInput)
	}
	if (content.TraceID == "") == (content.TraceGroupID == "") {
		return "", fmt.Errorf("%w: exactly one of trace_id and trace_group_id is required", utils.ErrInvalidInput)
	}

	itemID := content.TraceID
	input := map[string]any{}
	for k, v := range content.Metadata {
		input[k] = v
	}
	if content.TraceID != "" {
		input["trace_id"] = content.TraceID
	} else {
		itemID = content.TraceGroupID
		input["trace_group_id"] = content.TraceGroupID
	}

	eventID := content.CreatingPluginID + ":" + itemID
	key := stateKey(middleware.GetTenantID(ctx), eventID)

	d.mu.Lock()
	if s, ok := d.states[key]; ok && (s.status == StatusPending || s.status == StatusProcessing) {
		d.mu.Unlock()
		return eventID, nil
	}
	d.states[key] = &eventState{status: StatusPending}
	d.mu.Unlock()

	// The run outlives the scheduling request; keep the request's values
	// (tenant, logger) but not its cancellation.
	runCtx := context.WithoutCancel(ctx)
	d.running.Add(1)
	go d.run(runCtx, key, content.CreatingPluginID, input)

	return eventID, nil
}

// Stop blocks until every scheduled run has finished. New dispatches made
// while stopping still run to completion.
func (d *Dispatcher) Stop() {
	d.running.Wait()
}

func (d *Dispatcher) run(ctx context.Context, key, analyticsID string, input map[string]any) {
	defer d.running.Done()

	log := logger.GetLogger(ctx).With(slog.String("analytics_id", analyticsID))

	d.setStatus(key, StatusProcessing, nil)

	c, err := d.tenants.Get(ctx, middleware.GetTenantID(ctx))
	if err != nil {
		log.Error("events: resolving tenant failed", slog.String("error", err.Error()))
		d.setStatus(key, StatusFailed, nil)
		return
	}

	result, err := c.Engine.Execute(ctx, analyticsID, input)
	if err != nil {
		log.Error("events: execution failed", slog.String("error", err.Error()))
		d.setStatus(key, StatusFailed, result)
		return
	}
	if result != nil && result.Failed() {
		d.setStatus(key, StatusFailed, result)
		return
	}
	d.setStatus(key, StatusCompleted, result)
}

// Status reports the lifecycle state of a dispatched event.
func (d *Dispatcher) Status(ctx context.Context, eventID string) (*spec.EventStatusResponse, error) {
	if !strings.Contains(eventID, ":") {
		return nil, fmt.Errorf("%w: malformed event id %q", utils.ErrInvalidInput, eventID)
	}
	d.mu.Lock()
	s, ok := d.states[stateKey(middleware.GetTenantID(ctx), eventID)]
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", utils.ErrEventNotFound, eventID)
	}
	return &spec.EventStatusResponse{
		EventID:         eventID,
		Status:          string(s.status),
		ExecutionResult: s.result,
	}, nil
}

func (d *Dispatcher) setStatus(key string, status Status, result *models.ExecutionResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states[key] = &eventState{status: status, result: result}
}

func stateKey(tenantID, eventID string) string {
	return tenantID + "\x00" + eventID
}
