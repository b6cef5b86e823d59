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

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/spec"
)

// WriteSuccessResponse writes a successful API response
func WriteSuccessResponse[T any](w http.ResponseWriter, statusCode int, data T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if statusCode == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(data) // Ignore encoding errors for response
}

// WriteErrorResponse writes an error API response
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	errPayload := &spec.ErrorResponse{
		Message: message,
	}
	_ = json.NewEncoder(w).Encode(errPayload) // Ignore encoding errors for response
}

// HTTPStatusForError maps the error taxonomy to an HTTP status: input and
// validation problems are 4xx, missing data is 404, everything else is a
// server-side failure.
func HTTPStatusForError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidCursor),
		errors.Is(err, ErrInvalidTimeRange),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrCyclicDependency):
		return http.StatusBadRequest
	case errors.Is(err, ErrPluginAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrPluginInUse):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrTenantUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTenantConfig):
		return http.StatusBadRequest
	case errors.Is(err, ErrTraceNotFound),
		errors.Is(err, ErrSpanNotFound),
		errors.Is(err, ErrTraceGroupNotFound),
		errors.Is(err, ErrElementNotFound),
		errors.Is(err, ErrPluginNotFound),
		errors.Is(err, ErrResultNotFound),
		errors.Is(err, ErrEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
