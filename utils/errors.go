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

package utils

import "errors"

var (
	// Input errors: malformed or inconsistent caller input
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidCursor    = errors.New("invalid pagination cursor")
	ErrInvalidTimeRange = errors.New("invalid time range")

	// Data errors: referenced artifacts absent
	ErrTraceNotFound      = errors.New("trace not found")
	ErrSpanNotFound       = errors.New("span not found")
	ErrTraceGroupNotFound = errors.New("trace group not found")
	ErrElementNotFound    = errors.New("element not found")
	ErrPluginNotFound     = errors.New("analytics plugin not found")
	ErrResultNotFound     = errors.New("execution result not found")
	ErrEventNotFound      = errors.New("event not found")

	// Engine errors
	ErrDependencyFailure = errors.New("dependency failure")
	ErrProcessing        = errors.New("processing error")

	// Registry validation errors
	ErrValidation          = errors.New("validation error")
	ErrPluginAlreadyExists = errors.New("analytics plugin already exists")
	ErrCyclicDependency    = errors.New("cyclic plugin dependency")
	ErrPluginInUse         = errors.New("plugin is referenced by other plugins")

	// Tenant configuration errors
	ErrTenantConfig       = errors.New("tenant configuration unavailable")
	ErrTenantUnauthorized = errors.New("tenant configuration unauthorized")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")

	// Server errors
	ErrServiceUnavailable = errors.New("service unavailable")
)
