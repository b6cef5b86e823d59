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

package services

import (
	"context"
	"fmt"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/plugins"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/tenants"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// CreateTraceGroupParams names a new trace group.
type CreateTraceGroupParams struct {
	Name        string
	Description string
	ServiceName string
	TraceIDs    []string
}

// UpdateTraceGroupParams mutates an existing group; nil fields stay.
type UpdateTraceGroupParams struct {
	Name        *string
	Description *string
	TraceIDs    *[]string
}

// WorkflowMaterialization is the mined process model of a trace group.
type WorkflowMaterialization struct {
	WorkflowID      string
	TraceWorkflowID string
	Workflow        *models.Element
	Nodes           []models.Element
	Edges           []models.Element
}

// TraceGroupService manages user-created trace groups and their mined
// workflows.
type TraceGroupService interface {
	Create(ctx context.Context, params CreateTraceGroupParams) (*models.Element, error)
	Get(ctx context.Context, groupID string) (*models.Element, error)
	List(ctx context.Context, serviceName string) ([]models.Element, error)
	Update(ctx context.Context, groupID string, params UpdateTraceGroupParams) (*models.Element, error)
	Delete(ctx context.Context, groupID string) error
	Traces(ctx context.Context, groupID string) ([]models.Element, error)
	// MaterializeWorkflow mines the group's process model and persists the
	// workflow artifacts.
	MaterializeWorkflow(ctx context.Context, groupID string) (*WorkflowMaterialization, error)
}

type traceGroupService struct {
	tenants *tenants.Registry
}

// NewTraceGroupService creates the trace-group service over the tenant
// registry.
func NewTraceGroupService(registry *tenants.Registry) TraceGroupService {
	return &traceGroupService{tenants: registry}
}

func (s *traceGroupService) Create(ctx context.Context, params CreateTraceGroupParams) (*models.Element, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, fmt.Errorf("%w: trace group name is required", utils.ErrInvalidInput)
	}
	if params.ServiceName == "" {
		return nil, fmt.Errorf("%w: service name is required", utils.ErrInvalidInput)
	}
	if len(params.TraceIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one trace id is required", utils.ErrInvalidInput)
	}
	if err := s.verifyTracesExist(ctx, c, params.TraceIDs); err != nil {
		return nil, err
	}

	group := &models.Element{
		ElementID:   models.NewElementID(models.KindTraceGroup),
		Kind:        models.KindTraceGroup,
		Name:        params.Name,
		Description: params.Description,
		TraceGroup: &models.TraceGroup{
			ServiceName: params.ServiceName,
			TraceIDs:    params.TraceIDs,
		},
	}
	if _, err := c.DataManager.Store(ctx, group); err != nil {
		return nil, fmt.Errorf("storing trace group: %w", err)
	}
	return group, nil
}

func (s *traceGroupService) Get(ctx context.Context, groupID string) (*models.Element, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	return s.requireGroup(ctx, c, groupID)
}

func (s *traceGroupService) List(ctx context.Context, serviceName string) ([]models.Element, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	return c.DataManager.GetTraceGroups(ctx, serviceName)
}

func (s *traceGroupService) Update(ctx context.Context, groupID string, params UpdateTraceGroupParams) (*models.Element, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	group, err := s.requireGroup(ctx, c, groupID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, fmt.Errorf("%w: trace group name cannot be empty", utils.ErrInvalidInput)
		}
		group.Name = *params.Name
	}
	if params.Description != nil {
		group.Description = *params.Description
	}
	if params.TraceIDs != nil {
		if len(*params.TraceIDs) == 0 {
			return nil, fmt.Errorf("%w: a trace group needs at least one trace", utils.ErrInvalidInput)
		}
		if err := s.verifyTracesExist(ctx, c, *params.TraceIDs); err != nil {
			return nil, err
		}
		group.TraceGroup.TraceIDs = *params.TraceIDs
	}

	if _, err := c.DataManager.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("updating trace group %s: %w", groupID, err)
	}
	return group, nil
}

func (s *traceGroupService) Delete(ctx context.Context, groupID string) error {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return err
	}
	deleted, err := c.DataManager.Delete(ctx, groupID, models.KindTraceGroup)
	if err != nil {
		return fmt.Errorf("deleting trace group %s: %w", groupID, err)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", utils.ErrTraceGroupNotFound, groupID)
	}
	return nil
}

func (s *traceGroupService) Traces(ctx context.Context, groupID string) ([]models.Element, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireGroup(ctx, c, groupID); err != nil {
		return nil, err
	}
	return c.DataManager.GetTracesForTraceGroup(ctx, groupID)
}

func (s *traceGroupService) MaterializeWorkflow(ctx context.Context, groupID string) (*WorkflowMaterialization, error) {
	c, err := tenantComponents(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireGroup(ctx, c, groupID); err != nil {
		return nil, err
	}

	miner := plugins.NewCausalDiscoveryLight(c.Deps)
	out, err := miner.Execute(ctx, map[string]any{"trace_group_id": groupID})
	if err != nil {
		return nil, fmt.Errorf("mining workflow for trace group %s: %w", groupID, err)
	}

	workflowID, _ := out["workflow_id"].(string)
	traceWorkflowID, _ := out["trace_workflow_id"].(string)
	if workflowID == "" {
		return nil, fmt.Errorf("%w: trace group %s has no tasks to mine", utils.ErrInvalidInput, groupID)
	}

	workflow, err := c.DataManager.GetByID(ctx, workflowID, models.KindWorkflow, "")
	if err != nil {
		return nil, err
	}
	nodes, err := c.DataManager.GetChildren(ctx, workflowID, models.KindWorkflowNode, "")
	if err != nil {
		return nil, err
	}
	edges, err := c.DataManager.GetChildren(ctx, workflowID, models.KindWorkflowEdge, "")
	if err != nil {
		return nil, err
	}

	return &WorkflowMaterialization{
		WorkflowID:      workflowID,
		TraceWorkflowID: traceWorkflowID,
		Workflow:        workflow,
		Nodes:           nodes,
		Edges:           edges,
	}, nil
}

func (s *traceGroupService) requireGroup(ctx context.Context, c *tenants.Components, groupID string) (*models.Element, error) {
	group, err := c.DataManager.GetByID(ctx, groupID, models.KindTraceGroup, "")
	if err != nil {
		return nil, err
	}
	if group == nil || group.TraceGroup == nil {
		return nil, fmt.Errorf("%w: %s", utils.ErrTraceGroupNotFound, groupID)
	}
	return group, nil
}

func (s *traceGroupService) verifyTracesExist(ctx context.Context, c *tenants.Components, traceIDs []string) error {
	found, err := c.DataManager.Search(ctx, models.KindTrace, store.Query{
		Filters: map[string]store.Filter{
			"element_id": {Op: store.OpEqualsMany, Value: traceIDs},
		},
	})
	if err != nil {
		return fmt.Errorf("verifying traces: %w", err)
	}
	existing := make(map[string]bool, len(found))
	for _, t := range found {
		existing[t.ElementID] = true
	}
	for _, id := range traceIDs {
		if !existing[id] {
			return fmt.Errorf("%w: %s", utils.ErrTraceNotFound, id)
		}
	}
	return nil
}
