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

package plugins

import (
	"context"
	"fmt"
	"sort"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// CausalDiscoveryLight mines a process model from the task sequences of a
// trace group using the Alpha Miner relations: activities observed in
// direct succession become SEQUENCE edges, mutual succession AND branches,
// and unordered alternatives XOR branches. The discovered model is
// persisted as a TraceWorkflow with its Workflow, nodes and edges.
type CausalDiscoveryLight struct {
	deps analytics.Deps
}

func NewCausalDiscoveryLight(deps analytics.Deps) *CausalDiscoveryLight {
	return &CausalDiscoveryLight{deps: deps}
}

func (p *CausalDiscoveryLight) InputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "trace_group_id", Type: models.FieldTypeString, Required: true},
	}
}

func (p *CausalDiscoveryLight) OutputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "workflow_id", Type: models.FieldTypeString},
		{Name: "trace_workflow_id", Type: models.FieldTypeString},
		{Name: "node_count", Type: models.FieldTypeInteger},
		{Name: "edge_count", Type: models.FieldTypeInteger},
	}
}

func (p *CausalDiscoveryLight) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	groupID := inputString(input, "trace_group_id")
	if groupID == "" {
		return nil, fmt.Errorf("%w: trace_group_id is required", utils.ErrInvalidInput)
	}

	traces, err := p.deps.DataManager.GetTracesForTraceGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(traces) == 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrTraceGroupNotFound, groupID)
	}

	sequences, actionByActivity, serviceName, err := p.taskSequences(ctx, traces)
	if err != nil {
		return nil, err
	}
	if len(sequences) == 0 {
		return nil, fmt.Errorf("%w: no task sequences in group %s", utils.ErrProcessing, groupID)
	}

	model := mineAlpha(sequences)
	elements, workflowID, traceWorkflowID := p.materialize(model, actionByActivity, groupID, serviceName, traces)

	if _, err := p.deps.DataManager.BulkStore(ctx, elements, true); err != nil {
		return nil, err
	}
	return map[string]any{
		"workflow_id":       workflowID,
		"trace_workflow_id": traceWorkflowID,
		"node_count":        len(model.activities),
		"edge_count":        len(model.edges),
	}, nil
}

// taskSequences orders each trace's tasks by start time into an activity
// sequence, remembering which action backs each activity.
func (p *CausalDiscoveryLight) taskSequences(ctx context.Context, traces []models.Element) ([][]string, map[string]string, string, error) {
	var sequences [][]string
	actionByActivity := map[string]string{}
	var serviceName string

	for _, trace := range traces {
		if serviceName == "" && trace.Trace != nil {
			serviceName = trace.Trace.ServiceName
		}
		taskEls, err := p.deps.DataManager.GetChildren(ctx, trace.ElementID, models.KindTask, "")
		if err != nil {
			return nil, nil, "", err
		}
		if len(taskEls) == 0 {
			continue
		}
		sort.SliceStable(taskEls, func(i, j int) bool {
			ti, tj := taskEls[i].Task, taskEls[j].Task
			if ti == nil || tj == nil {
				return ti != nil
			}
			if !ti.StartTime.Equal(tj.StartTime) {
				return ti.StartTime.Before(tj.StartTime)
			}
			return taskEls[i].ElementID < taskEls[j].ElementID
		})
		sequence := make([]string, 0, len(taskEls))
		for i := range taskEls {
			el := &taskEls[i]
			sequence = append(sequence, el.Name)
			if el.Task != nil && el.Task.ActionID != "" {
				actionByActivity[el.Name] = el.Task.ActionID
			}
		}
		sequences = append(sequences, sequence)
	}
	return sequences, actionByActivity, serviceName, nil
}

// processModel is the mined model before materialization.
type processModel struct {
	activities map[string]int // activity -> support
	edges      []minedEdge
	entries    []string
	exits      []string
}

type minedEdge struct {
	from, to string
	edgeType models.WorkflowEdgeType
	support  int
}

// mineAlpha derives the Alpha Miner footprint relations from the observed
// sequences: a > b (direct succession), a -> b (causal: a > b and not
// b > a), a || b (parallel: both directions observed), a # b (never
// adjacent). Causal pairs become SEQUENCE edges; parallel pairs AND edges;
// activities sharing a causal source without mutual succession split XOR.
func mineAlpha(sequences [][]string) processModel {
	model := processModel{activities: map[string]int{}}
	succession := map[[2]string]int{}
	entries := map[string]int{}
	exits := map[string]int{}

	for _, seq := range sequences {
		if len(seq) == 0 {
			continue
		}
		entries[seq[0]]++
		exits[seq[len(seq)-1]]++
		seenInTrace := map[string]bool{}
		for i, activity := range seq {
			if !seenInTrace[activity] {
				seenInTrace[activity] = true
				model.activities[activity]++
			}
			if i+1 < len(seq) {
				succession[[2]string{activity, seq[i+1]}]++
			}
		}
	}

	// Classify pairs once, in a stable order.
	var pairs [][2]string
	for pair := range succession {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	emitted := map[[2]string]bool{}
	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		forward := succession[[2]string{a, b}]
		backward := succession[[2]string{b, a}]
		switch {
		case forward > 0 && backward > 0:
			// Parallel: emit one AND edge per unordered pair.
			key := [2]string{a, b}
			if a > b {
				key = [2]string{b, a}
			}
			if !emitted[key] {
				emitted[key] = true
				model.edges = append(model.edges, minedEdge{
					from: key[0], to: key[1], edgeType: models.EdgeAnd, support: forward + backward,
				})
			}
		case forward > 0:
			model.edges = append(model.edges, minedEdge{
				from: a, to: b, edgeType: models.EdgeSequence, support: forward,
			})
		}
	}

	// Causal sources with multiple exclusive targets split XOR: rewrite the
	// target edges in place.
	targetsBySource := map[string][]int{}
	for i, edge := range model.edges {
		if edge.edgeType == models.EdgeSequence {
			targetsBySource[edge.from] = append(targetsBySource[edge.from], i)
		}
	}
	for _, idxs := range targetsBySource {
		if len(idxs) < 2 {
			continue
		}
		exclusive := true
		for i := 0; i < len(idxs) && exclusive; i++ {
			for j := i + 1; j < len(idxs); j++ {
				a, b := model.edges[idxs[i]].to, model.edges[idxs[j]].to
				if succession[[2]string{a, b}] > 0 || succession[[2]string{b, a}] > 0 {
					exclusive = false
					break
				}
			}
		}
		if exclusive {
			for _, i := range idxs {
				model.edges[i].edgeType = models.EdgeXor
			}
		}
	}

	for activity := range entries {
		model.entries = append(model.entries, activity)
	}
	for activity := range exits {
		model.exits = append(model.exits, activity)
	}
	sort.Strings(model.entries)
	sort.Strings(model.exits)
	return model
}

// materialize converts the mined model to persistable elements. All model
// artifacts are owned by the workflow (root_id) so group re-mining can
// replace them wholesale.
func (p *CausalDiscoveryLight) materialize(model processModel, actionByActivity map[string]string, groupID, serviceName string, traces []models.Element) ([]models.Element, string, string) {
	workflowID := models.NewElementID(models.KindWorkflow)

	var elements []models.Element
	nodeIDByActivity := map[string]string{}

	var activities []string
	for activity := range model.activities {
		activities = append(activities, activity)
	}
	sort.Strings(activities)

	var nodeIDs []string
	for _, activity := range activities {
		nodeID := models.NewElementID(models.KindWorkflowNode)
		nodeIDByActivity[activity] = nodeID
		nodeIDs = append(nodeIDs, nodeID)
		node := models.Element{
			ElementID: nodeID,
			Kind:      models.KindWorkflowNode,
			RootID:    workflowID,
			Name:      activity,
			WorkflowNode: &models.WorkflowNode{
				NodeType: models.NodeActivity,
				Activity: activity,
				ActionID: actionByActivity[activity],
				Support:  model.activities[activity],
			},
		}
		if actionID := actionByActivity[activity]; actionID != "" {
			node.AddRelation(actionID, models.KindAction)
		}
		elements = append(elements, node)
	}

	var edgeIDs []string
	for _, edge := range model.edges {
		edgeID := models.NewElementID(models.KindWorkflowEdge)
		edgeIDs = append(edgeIDs, edgeID)
		elements = append(elements, models.Element{
			ElementID: edgeID,
			Kind:      models.KindWorkflowEdge,
			RootID:    workflowID,
			Name:      fmt.Sprintf("%s->%s", edge.from, edge.to),
			WorkflowEdge: &models.WorkflowEdge{
				FromNodeID: nodeIDByActivity[edge.from],
				ToNodeID:   nodeIDByActivity[edge.to],
				EdgeType:   edge.edgeType,
				Support:    edge.support,
			},
		})
	}

	entryIDs := make([]string, 0, len(model.entries))
	for _, activity := range model.entries {
		entryIDs = append(entryIDs, nodeIDByActivity[activity])
	}
	exitIDs := make([]string, 0, len(model.exits))
	for _, activity := range model.exits {
		exitIDs = append(exitIDs, nodeIDByActivity[activity])
	}
	elements = append(elements, models.Element{
		ElementID: workflowID,
		Kind:      models.KindWorkflow,
		Name:      fmt.Sprintf("workflow.%s", serviceName),
		Workflow: &models.Workflow{
			NodeIDs:      nodeIDs,
			EdgeIDs:      edgeIDs,
			EntryNodeIDs: entryIDs,
			ExitNodeIDs:  exitIDs,
		},
	})

	traceIDs := make([]string, 0, len(traces))
	for _, t := range traces {
		traceIDs = append(traceIDs, t.ElementID)
	}
	traceWorkflowID := models.NewElementID(models.KindTraceWorkflow)
	traceWorkflow := models.Element{
		ElementID: traceWorkflowID,
		Kind:      models.KindTraceWorkflow,
		RootID:    groupID,
		Name:      fmt.Sprintf("trace_workflow.%s", serviceName),
		TraceWorkflow: &models.TraceWorkflow{
			WorkflowID:   workflowID,
			TraceGroupID: groupID,
			TraceIDs:     traceIDs,
			ServiceName:  serviceName,
		},
	}
	traceWorkflow.AddRelation(workflowID, models.KindWorkflow)
	for _, traceID := range traceIDs {
		traceWorkflow.AddRelation(traceID, models.KindTrace)
	}
	elements = append(elements, traceWorkflow)

	return elements, workflowID, traceWorkflowID
}
