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

// Package visitors implements the task-extraction pipeline: an ordered chain
// of framework-specific span processors that turn a span forest into a
// canonical task graph plus a deduplicated set of actions.
package visitors

import (
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/traversal"
)

// taskCreators tracks which visitor created the task for a span id, so only
// the creating visitor pops the parent stack on AFTER_CHILDREN.
const keyTaskCreators = "TASK_CREATORS"

// keyChildrenGraph holds the per-parent children graph: parent task id (""
// for trace roots) to child task ids in visit order.
const keyChildrenGraph = "CHILDREN_GRAPH"

// Tasks returns the tasks accumulated so far, in creation order.
func Tasks(tctx *traversal.Context) []*models.Element {
	if tasks, ok := tctx.Get(traversal.KeyTasks).([]*models.Element); ok {
		return tasks
	}
	return nil
}

// Actions returns the actions accumulated so far, deduplicated by code id.
func Actions(tctx *traversal.Context) []*models.Element {
	if actions, ok := tctx.Get(traversal.KeyActions).([]*models.Element); ok {
		return actions
	}
	return nil
}

// TaskForSpan returns the task extracted from the span, or nil.
func TaskForSpan(tctx *traversal.Context, spanID string) *models.Element {
	if m, ok := tctx.Get(traversal.KeySpanIDToTask).(map[string]*models.Element); ok {
		return m[spanID]
	}
	return nil
}

func registerTask(tctx *traversal.Context, spanID, creator string, task *models.Element) {
	m, _ := tctx.Get(traversal.KeySpanIDToTask).(map[string]*models.Element)
	if m == nil {
		m = make(map[string]*models.Element)
		tctx.Set(traversal.KeySpanIDToTask, m)
	}
	m[spanID] = task

	creators, _ := tctx.Get(keyTaskCreators).(map[string]string)
	if creators == nil {
		creators = make(map[string]string)
		tctx.Set(keyTaskCreators, creators)
	}
	creators[spanID] = creator

	tctx.Set(traversal.KeyTasks, append(Tasks(tctx), task))
}

func taskCreator(tctx *traversal.Context, spanID string) string {
	if creators, ok := tctx.Get(keyTaskCreators).(map[string]string); ok {
		return creators[spanID]
	}
	return ""
}

func appendAction(tctx *traversal.Context, action *models.Element) {
	tctx.Set(traversal.KeyActions, append(Actions(tctx), action))
}

func parentStack(tctx *traversal.Context) []*models.Element {
	if stack, ok := tctx.Get(traversal.KeyLastParents).([]*models.Element); ok {
		return stack
	}
	return nil
}

func currentParent(tctx *traversal.Context) *models.Element {
	stack := parentStack(tctx)
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

func pushParent(tctx *traversal.Context, task *models.Element) {
	tctx.Set(traversal.KeyLastParents, append(parentStack(tctx), task))
}

func popParent(tctx *traversal.Context) *models.Element {
	stack := parentStack(tctx)
	if len(stack) == 0 {
		return nil
	}
	top := stack[len(stack)-1]
	tctx.Set(traversal.KeyLastParents, stack[:len(stack)-1])
	return top
}

func childrenGraph(tctx *traversal.Context) map[string][]string {
	g, _ := tctx.Get(keyChildrenGraph).(map[string][]string)
	if g == nil {
		g = make(map[string][]string)
		tctx.Set(keyChildrenGraph, g)
	}
	return g
}

func recordChild(tctx *traversal.Context, parentTaskID, childTaskID string) {
	g := childrenGraph(tctx)
	g[parentTaskID] = append(g[parentTaskID], childTaskID)
}
