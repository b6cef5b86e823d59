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

import "time"

// Trace aggregates the spans sharing one trace id.
type Trace struct {
	ServiceName string         `json:"service_name"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
	NumOfSpans  int            `json:"num_of_spans"`
	AgentIDs    []string       `json:"agent_ids,omitempty"`
	Failures    map[string]int `json:"failures,omitempty"`
}

// TraceGroup is a user-created, mutable collection of traces. Aggregate
// metrics computed for the group are owned by it (root_id = group id).
type TraceGroup struct {
	ServiceName string   `json:"service_name"`
	TraceIDs    []string `json:"traces_ids"`
}
