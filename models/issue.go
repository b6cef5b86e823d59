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

// IssueLevel grades the severity of a detected problem.
type IssueLevel string

const (
	IssueLevelInfo     IssueLevel = "INFO"
	IssueLevelWarning  IssueLevel = "WARNING"
	IssueLevelError    IssueLevel = "ERROR"
	IssueLevelCritical IssueLevel = "CRITICAL"
)

// Issue is a problem detected by an analytics plugin.
type Issue struct {
	Level      IssueLevel `json:"level"`
	Confidence float64    `json:"confidence,omitempty"`
	Effect     []string   `json:"effect,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Annotation marks a segment of extracted text or data.
type Annotation struct {
	AnnotationType    string `json:"annotation_type"`
	PathToString      string `json:"path_to_string,omitempty"`
	SegmentStart      int    `json:"segment_start"`
	SegmentEnd        int    `json:"segment_end"`
	AnnotationTitle   string `json:"annotation_title,omitempty"`
	AnnotationContent string `json:"annotation_content,omitempty"`
}

// Recommendation is an advisory artifact produced by analytics plugins.
type Recommendation struct {
	Level     IssueLevel `json:"level"`
	Effect    []string   `json:"effect,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
