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

package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store/memory"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

func newRegistryUnderTest(t *testing.T) (*Registry, *Catalog) {
	t.Helper()
	catalog := NewCatalog()
	return NewRegistry(memory.NewStore(), catalog), catalog
}

func registerFactory(t *testing.T, catalog *Catalog, name string, in, out []models.FieldSpec) {
	t.Helper()
	require.NoError(t, catalog.Register(name, func(Deps) Plugin {
		return &funcPlugin{
			input:  in,
			output: out,
			run: func(context.Context, map[string]any) (map[string]any, error) {
				return map[string]any{"ok": true}, nil
			},
		}
	}))
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "p", nil, nil)

	meta := &models.PluginMetadata{ID: "P1", Name: "first", Runtime: builtinRuntime("p")}
	require.NoError(t, r.Register(context.Background(), meta))

	got, err := r.Get(context.Background(), "P1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, models.PluginStatusActive, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRegistryDuplicateID(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "p", nil, nil)

	meta := &models.PluginMetadata{ID: "P1", Name: "first", Runtime: builtinRuntime("p")}
	require.NoError(t, r.Register(context.Background(), meta))

	err := r.Register(context.Background(), &models.PluginMetadata{ID: "P1", Name: "again", Runtime: builtinRuntime("p")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrPluginAlreadyExists))
}

func TestRegistryUnknownFactory(t *testing.T) {
	r, _ := newRegistryUnderTest(t)
	err := r.Register(context.Background(), &models.PluginMetadata{
		ID: "P1", Name: "p1", Runtime: builtinRuntime("missing"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrValidation))
}

func TestRegistrySpecInferredFromImplementation(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	in := []models.FieldSpec{{Name: "trace_id", Type: models.FieldTypeString, Required: true}}
	out := []models.FieldSpec{{Name: "tasks", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny}}
	registerFactory(t, catalog, "p", in, out)

	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "P1", Name: "p1", Runtime: builtinRuntime("p"),
	}))
	got, err := r.Get(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, in, got.InputSpec)
	assert.Equal(t, out, got.OutputSpec)
}

func TestRegistryDependencyUnionCoversInputs(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "producer", nil,
		[]models.FieldSpec{{Name: "tasks", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny}})
	registerFactory(t, catalog, "consumer",
		[]models.FieldSpec{{Name: "tasks", Type: models.FieldTypeArray, Required: true, ArrayType: models.FieldTypeAny}}, nil)

	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "producer", Name: "producer", Runtime: builtinRuntime("producer"),
	}))
	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "consumer", Name: "consumer", Runtime: builtinRuntime("consumer"),
		Controller: models.ControllerSpec{DependsOn: []string{"producer"}},
	}))
}

func TestRegistryDependencyMissingRequiredInput(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "producer", nil,
		[]models.FieldSpec{{Name: "metrics", Type: models.FieldTypeArray, ArrayType: models.FieldTypeFloat}})
	registerFactory(t, catalog, "consumer",
		[]models.FieldSpec{{Name: "tasks", Type: models.FieldTypeArray, Required: true, ArrayType: models.FieldTypeAny}}, nil)

	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "producer", Name: "producer", Runtime: builtinRuntime("producer"),
	}))
	err := r.Register(context.Background(), &models.PluginMetadata{
		ID: "consumer", Name: "consumer", Runtime: builtinRuntime("consumer"),
		Controller: models.ControllerSpec{DependsOn: []string{"producer"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrValidation))
	assert.Contains(t, err.Error(), "tasks")
}

func TestRegistryIntegerSatisfiesFloat(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "producer", nil,
		[]models.FieldSpec{{Name: "count", Type: models.FieldTypeInteger}})
	registerFactory(t, catalog, "consumer",
		[]models.FieldSpec{{Name: "count", Type: models.FieldTypeFloat, Required: true}}, nil)

	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "producer", Name: "producer", Runtime: builtinRuntime("producer"),
	}))
	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "consumer", Name: "consumer", Runtime: builtinRuntime("consumer"),
		Controller: models.ControllerSpec{DependsOn: []string{"producer"}},
	}))
}

func TestRegistryTriggeredWithoutOwnDepsChecked(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "triggered",
		[]models.FieldSpec{{Name: "issues", Type: models.FieldTypeArray, Required: true, ArrayType: models.FieldTypeAny}}, nil)
	registerFactory(t, catalog, "trigger", nil,
		[]models.FieldSpec{{Name: "metrics", Type: models.FieldTypeArray, ArrayType: models.FieldTypeFloat}})

	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "triggered", Name: "triggered", Runtime: builtinRuntime("triggered"),
	}))
	// Trigger does not provide "issues" and the triggered plugin has no
	// dependsOn of its own, so registration must fail.
	err := r.Register(context.Background(), &models.PluginMetadata{
		ID: "trigger", Name: "trigger", Runtime: builtinRuntime("trigger"),
		Controller: models.ControllerSpec{Triggers: []string{"triggered"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issues")
}

func TestRegistryTriggeredWithOwnDepsNotChecked(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "base", nil,
		[]models.FieldSpec{{Name: "issues", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny}})
	registerFactory(t, catalog, "triggered",
		[]models.FieldSpec{{Name: "issues", Type: models.FieldTypeArray, Required: true, ArrayType: models.FieldTypeAny}}, nil)
	registerFactory(t, catalog, "trigger", nil, nil)

	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "base", Name: "base", Runtime: builtinRuntime("base"),
	}))
	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "triggered", Name: "triggered", Runtime: builtinRuntime("triggered"),
		Controller: models.ControllerSpec{DependsOn: []string{"base"}},
	}))
	// Triggered plugin builds its own dependency environment; the trigger's
	// outputs are irrelevant.
	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "trigger", Name: "trigger", Runtime: builtinRuntime("trigger"),
		Controller: models.ControllerSpec{Triggers: []string{"triggered"}},
	}))
}

func TestRegistryConfigTypeChecked(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "p",
		[]models.FieldSpec{{Name: "min_occurrences", Type: models.FieldTypeInteger}}, nil)

	err := r.Register(context.Background(), &models.PluginMetadata{
		ID: "P1", Name: "p1", Runtime: builtinRuntime("p"),
		Config: map[string]any{"min_occurrences": "two"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrValidation))
}

func TestRegistryDeleteRefusedWhileReferenced(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "producer", nil,
		[]models.FieldSpec{{Name: "tasks", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny}})
	registerFactory(t, catalog, "consumer",
		[]models.FieldSpec{{Name: "tasks", Type: models.FieldTypeArray, Required: true, ArrayType: models.FieldTypeAny}}, nil)

	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "producer", Name: "producer", Runtime: builtinRuntime("producer"),
	}))
	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "consumer", Name: "consumer", Runtime: builtinRuntime("consumer"),
		Controller: models.ControllerSpec{DependsOn: []string{"producer"}},
	}))

	err := r.Delete(context.Background(), "producer")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrPluginInUse))

	require.NoError(t, r.Delete(context.Background(), "consumer"))
	require.NoError(t, r.Delete(context.Background(), "producer"))

	got, err := r.Get(context.Background(), "producer")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegistrySelfDependencyRefused(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "p", nil, nil)

	err := r.Register(context.Background(), &models.PluginMetadata{
		ID: "P1", Name: "p1", Runtime: builtinRuntime("p"),
		Controller: models.ControllerSpec{DependsOn: []string{"P1"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrCyclicDependency))
}

func TestRegistryUpdateRefusesIntroducedCycle(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "producer", nil, nil)
	registerFactory(t, catalog, "consumer", nil, nil)

	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "producer", Name: "producer", Runtime: builtinRuntime("producer"),
	}))
	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "consumer", Name: "consumer", Runtime: builtinRuntime("consumer"),
		Controller: models.ControllerSpec{DependsOn: []string{"producer"}},
	}))

	// producer -> consumer -> producer must be caught at update time, not
	// left for the engine to refuse at execution.
	err := r.Update(context.Background(), &models.PluginMetadata{
		ID: "producer", Name: "producer", Runtime: builtinRuntime("producer"),
		Controller: models.ControllerSpec{DependsOn: []string{"consumer"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrCyclicDependency))
	assert.Contains(t, err.Error(), "producer -> consumer -> producer")

	// Nothing was persisted; the graph still executes in the old shape.
	got, err := r.Get(context.Background(), "producer")
	require.NoError(t, err)
	assert.Empty(t, got.Controller.DependsOn)
}

func TestRegistryUpdateRevalidatesDependents(t *testing.T) {
	r, catalog := newRegistryUnderTest(t)
	registerFactory(t, catalog, "producer", nil, nil)
	registerFactory(t, catalog, "consumer", nil, nil)

	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "producer", Name: "producer", Runtime: builtinRuntime("producer"),
		OutputSpec: []models.FieldSpec{{Name: "tasks", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny}},
	}))
	require.NoError(t, r.Register(context.Background(), &models.PluginMetadata{
		ID: "consumer", Name: "consumer", Runtime: builtinRuntime("consumer"),
		InputSpec:  []models.FieldSpec{{Name: "tasks", Type: models.FieldTypeArray, Required: true, ArrayType: models.FieldTypeAny}},
		Controller: models.ControllerSpec{DependsOn: []string{"producer"}},
	}))

	// Dropping "tasks" from the producer's output breaks the consumer.
	err := r.Update(context.Background(), &models.PluginMetadata{
		ID: "producer", Name: "producer", Runtime: builtinRuntime("producer"),
		OutputSpec: []models.FieldSpec{{Name: "metrics", Type: models.FieldTypeArray, ArrayType: models.FieldTypeFloat}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumer")
}
