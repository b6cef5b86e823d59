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

package datamanager

import (
	"encoding/json"
	"fmt"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/store"
)

// ToDocument converts an element to its backend-neutral record form. The
// document shape is the element's JSON object, so dotted query paths address
// body fields (e.g. "trace.service_name").
func ToDocument(el *models.Element) (store.Document, error) {
	if err := el.Validate(); err != nil {
		return nil, fmt.Errorf("invalid element: %w", err)
	}
	raw, err := json.Marshal(el)
	if err != nil {
		return nil, fmt.Errorf("marshal element %s: %w", el.ElementID, err)
	}
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("document for element %s: %w", el.ElementID, err)
	}
	return doc, nil
}

// FromDocument converts a stored record back to an element.
func FromDocument(doc store.Document) (*models.Element, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var el models.Element
	if err := json.Unmarshal(raw, &el); err != nil {
		return nil, fmt.Errorf("element from document: %w", err)
	}
	return &el, nil
}

// FromDocuments converts a result set, skipping nothing: a record that does
// not decode is a data corruption and surfaces as an error.
func FromDocuments(docs []store.Document) ([]models.Element, error) {
	els := make([]models.Element, 0, len(docs))
	for _, doc := range docs {
		el, err := FromDocument(doc)
		if err != nil {
			return nil, err
		}
		els = append(els, *el)
	}
	return els, nil
}
