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
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Sort keys accepted by paginated listings.
const (
	SortFieldStartTime = "start_time"
	SortFieldEndTime   = "end_time"
	SortDirAsc         = "asc"
	SortDirDesc        = "desc"
)

// Cursor is the pagination state carried opaquely between requests. The
// wire form is base64(JSON) so clients treat it as a token.
type Cursor struct {
	SortField string `json:"sort_field"`
	SortDir   string `json:"sort_dir"`
	// LastValue is the sort-key value of the final row of the previous page.
	LastValue string `json:"last_value"`
	// LastID breaks ties among rows sharing LastValue.
	LastID string `json:"last_id"`
}

// EncodeCursor serializes a cursor to its opaque wire form.
func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque cursor token. An empty token yields a zero
// cursor (first page).
func DecodeCursor(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if err := ValidateSort(c.SortField, c.SortDir); err != nil {
		return Cursor{}, err
	}
	return c, nil
}

// ValidateSort checks a sort key and direction pair. Empty values are
// allowed and fall back to defaults at the query layer.
func ValidateSort(field, dir string) error {
	if field != "" && field != SortFieldStartTime && field != SortFieldEndTime {
		return fmt.Errorf("%w: sort field must be %s or %s", ErrInvalidCursor, SortFieldStartTime, SortFieldEndTime)
	}
	if dir != "" && dir != SortDirAsc && dir != SortDirDesc {
		return fmt.Errorf("%w: sort direction must be %s or %s", ErrInvalidCursor, SortDirAsc, SortDirDesc)
	}
	return nil
}
