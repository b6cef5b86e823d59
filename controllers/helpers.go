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

package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Client-caused errors keep their message; server-side failures get the
// fallback so internals stay out of responses.
func writeServiceError(w http.ResponseWriter, err error, fallbackMsg string) {
	status := utils.HTTPStatusForError(err)
	if status >= http.StatusInternalServerError {
		utils.WriteErrorResponse(w, status, fallbackMsg)
		return
	}
	utils.WriteErrorResponse(w, status, err.Error())
}

func optionalIntParam(value, name string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, invalidParamError(name)
	}
	return &parsed, nil
}

func invalidParamError(name string) error {
	return fmt.Errorf("%w: query parameter %q must be a positive integer", utils.ErrInvalidInput, name)
}
