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

// ExecutionStatus is the outcome of one plugin invocation.
type ExecutionStatus string

const (
	ExecutionSuccess       ExecutionStatus = "SUCCESS"
	ExecutionFailure       ExecutionStatus = "FAILURE"
	ExecutionInProgress    ExecutionStatus = "IN_PROGRESS"
	ExecutionTimeout       ExecutionStatus = "TIMEOUT"
	ExecutionInvalidConfig ExecutionStatus = "INVALID_CONFIG"
)

// ExecutionError describes a failed plugin invocation.
type ExecutionError struct {
	// Type is the error class name, e.g. "InputError" or "DependencyFailure".
	Type    string `json:"type"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	// FailedDependencies names the predecessors whose failure was inherited,
	// set when Type is "DependencyFailure".
	FailedDependencies []string `json:"failed_dependencies,omitempty"`
}

// ExecutionResult records one plugin invocation inside a DAG run. Results
// are persisted to the executor_results collection whether the invocation
// succeeded or failed.
type ExecutionResult struct {
	ResultID      string          `json:"result_id"`
	AnalyticsID   string          `json:"analytics_id"`
	Status        ExecutionStatus `json:"status"`
	Error         *ExecutionError `json:"error,omitempty"`
	ExecutionTime time.Duration   `json:"execution_time"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	ConfigUsed    map[string]any  `json:"config_used,omitempty"`
	InputDataUsed map[string]any  `json:"input_data_used,omitempty"`
	// OutputResult is the serialized plugin output merged into successor
	// inputs. On SUCCESS it must be non-empty.
	OutputResult map[string]any `json:"output_result,omitempty"`
}

// NewResultID derives the persisted result id from the plugin id and the
// invocation start time at microsecond precision.
func NewResultID(analyticsID string, start time.Time) string {
	return fmt.Sprintf("%s_%s", analyticsID, start.UTC().Format("20060102T150405.000000"))
}

// Failed reports whether the result carries a failure status.
func (r *ExecutionResult) Failed() bool {
	return r.Status == ExecutionFailure || r.Status == ExecutionTimeout ||
		r.Status == ExecutionInvalidConfig
}
