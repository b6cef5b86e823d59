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

import (
	"fmt"
	"time"
)

// FieldType is the declared type of a plugin input or output field.
type FieldType string

const (
	FieldTypeString  FieldType = "STRING"
	FieldTypeInteger FieldType = "INTEGER"
	FieldTypeFloat   FieldType = "FLOAT"
	FieldTypeBoolean FieldType = "BOOLEAN"
	FieldTypeArray   FieldType = "ARRAY"
	FieldTypeAny     FieldType = "ANY"
)

// FieldSpec declares one field of a plugin's input or output schema.
type FieldSpec struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
	// ArrayType declares the element type when Type is ARRAY.
	ArrayType FieldType `json:"array_type,omitempty"`
	Default   any       `json:"default,omitempty"`
}

// PluginStatus is the registry lifecycle status of a plugin.
type PluginStatus string

const (
	PluginStatusActive   PluginStatus = "ACTIVE"
	PluginStatusDisabled PluginStatus = "DISABLED"
)

// RuntimeSpec locates the plugin implementation.
type RuntimeSpec struct {
	// Type names the runtime flavor. Built-in Go plugins use RuntimeTypeBuiltin.
	Type string `json:"type"`
	// Config carries the implementation locator, e.g. {"factory": "task_analytics"}.
	Config map[string]string `json:"config,omitempty"`
}

// RuntimeTypeBuiltin is the only runtime currently supported: plugins
// registered in the process-local plugin catalog.
const RuntimeTypeBuiltin = "builtin"

// RuntimeFactoryKey is the Config key naming the catalog factory.
const RuntimeFactoryKey = "factory"

// ControllerSpec declares the two dependency edge sets of a plugin.
type ControllerSpec struct {
	// DependsOn lists plugins that must finish before this one starts.
	DependsOn []string `json:"dependsOn,omitempty"`
	// Triggers lists plugins that must start after this one finishes.
	Triggers []string `json:"triggers,omitempty"`
}

// PluginMetadata is the registry record describing one analytics plugin.
type PluginMetadata struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Version     string         `json:"version,omitempty"`
	Owner       string         `json:"owner,omitempty"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Status      PluginStatus   `json:"status,omitempty"`
	Runtime     RuntimeSpec    `json:"runtime"`
	Controller  ControllerSpec `json:"controller,omitempty"`
	// Config holds default parameter values merged under the caller's input.
	Config     map[string]any `json:"config,omitempty"`
	InputSpec  []FieldSpec    `json:"input_spec,omitempty"`
	OutputSpec []FieldSpec    `json:"output_spec,omitempty"`
	CreatedAt  time.Time      `json:"created_at,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at,omitempty"`
}

// CheckValue reports whether v conforms to the field type. Integer accepts
// whole-valued floats since JSON decoding yields float64 for all numbers.
func (t FieldType) CheckValue(v any) bool {
	if v == nil {
		return false
	}
	switch t {
	case FieldTypeAny:
		return true
	case FieldTypeString:
		_, ok := v.(string)
		return ok
	case FieldTypeBoolean:
		_, ok := v.(bool)
		return ok
	case FieldTypeInteger:
		switch n := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == float64(int64(n))
		case float32:
			return n == float32(int64(n))
		default:
			return false
		}
	case FieldTypeFloat:
		switch v.(type) {
		case float32, float64, int, int32, int64:
			return true
		default:
			return false
		}
	case FieldTypeArray:
		switch v.(type) {
		case []any, []string, []float64, []int, []bool:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// Compatible reports whether a producer of type t satisfies a consumer
// expecting type other. ANY absorbs everything on either side; INTEGER
// producers satisfy FLOAT consumers.
func (t FieldType) Compatible(other FieldType) bool {
	if t == other || t == FieldTypeAny || other == FieldTypeAny {
		return true
	}
	if t == FieldTypeInteger && other == FieldTypeFloat {
		return true
	}
	return false
}

// ValidateSpec checks one FieldSpec list: no duplicate names, defaults
// type-check, arrays declare an element type.
func ValidateSpec(specs []FieldSpec) error {
	seen := make(map[string]bool, len(specs))
	for _, f := range specs {
		if f.Name == "" {
			return fmt.Errorf("field spec with empty name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		if f.Type == FieldTypeArray && f.ArrayType == "" {
			return fmt.Errorf("field %q: array fields must declare array_type", f.Name)
		}
		if f.Default != nil && !f.Type.CheckValue(f.Default) {
			return fmt.Errorf("field %q: default value does not match type %s", f.Name, f.Type)
		}
	}
	return nil
}

// FindField returns the spec for name, or nil.
func FindField(specs []FieldSpec, name string) *FieldSpec {
	for i := range specs {
		if specs[i].Name == name {
			return &specs[i]
		}
	}
	return nil
}
