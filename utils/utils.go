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
	"fmt"
	"regexp"
	"time"
)

var serviceNameInvalidChars = regexp.MustCompile(`[^A-Za-z0-9-]`)

// SanitizeServiceName replaces every character outside [A-Za-z0-9-] with '_'
// so service names are safe as collection and index name components.
func SanitizeServiceName(name string) string {
	return serviceNameInvalidChars.ReplaceAllString(name, "_")
}

// ValidateTimeRange checks a query time window. Zero bounds are allowed
// (open-ended); an inverted window is an input error.
func ValidateTimeRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return nil
	}
	if to.Before(from) {
		return fmt.Errorf("%w: end time %s before start time %s",
			ErrInvalidTimeRange, to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	return nil
}

// ValidateCountRange checks an inclusive numeric range filter such as the
// span-count bounds of a trace search.
func ValidateCountRange(min, max *int) error {
	if min != nil && *min < 0 {
		return fmt.Errorf("%w: minimum count cannot be negative", ErrInvalidInput)
	}
	if min != nil && max != nil && *max < *min {
		return fmt.Errorf("%w: maximum count %d below minimum %d", ErrInvalidInput, *max, *min)
	}
	return nil
}

// ParseRFC3339 parses a request timestamp, wrapping failures as input errors.
func ParseRFC3339(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339 (e.g. 2026-01-01T00:00:00Z)", ErrInvalidInput, field)
	}
	return t, nil
}
