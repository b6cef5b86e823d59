// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
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

package requests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// HttpRequest describes an outbound HTTP request. Name identifies the
// request in logs and error messages.
type HttpRequest struct {
	Name   string
	URL    string
	Method string

	headers  http.Header
	query    url.Values
	body     []byte
	bodyErr  error
	hasBody  bool
	formData url.Values
}

// SetHeader sets a request header. Chainable.
func (r *HttpRequest) SetHeader(key, value string) *HttpRequest {
	if r.headers == nil {
		r.headers = http.Header{}
	}
	r.headers.Set(key, value)
	return r
}

// SetQuery sets a URL query parameter. Chainable.
func (r *HttpRequest) SetQuery(key, value string) *HttpRequest {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, value)
	return r
}

// SetJson marshals body as the JSON request payload and sets the
// Content-Type header accordingly. Chainable.
func (r *HttpRequest) SetJson(body any) *HttpRequest {
	data, err := json.Marshal(body)
	if err != nil {
		r.bodyErr = fmt.Errorf("failed to marshal request body: %w", err)
		return r
	}
	r.body = data
	r.hasBody = true
	r.SetHeader("Content-Type", "application/json")
	return r
}

// SetRawBody sets an already-encoded payload with the given content type.
// Chainable.
func (r *HttpRequest) SetRawBody(contentType string, body []byte) *HttpRequest {
	r.body = body
	r.hasBody = true
	r.SetHeader("Content-Type", contentType)
	return r
}

// SetFormData sets a URL-encoded form payload. Chainable.
func (r *HttpRequest) SetFormData(fields map[string]string) *HttpRequest {
	r.formData = url.Values{}
	for k, v := range fields {
		r.formData.Set(k, v)
	}
	return r
}

// buildHttpRequest assembles the underlying *http.Request.
func (r *HttpRequest) buildHttpRequest(ctx context.Context) (*http.Request, error) {
	if r.bodyErr != nil {
		return nil, r.bodyErr
	}
	if r.URL == "" {
		return nil, fmt.Errorf("request %s has no URL", r.Name)
	}

	requestURL := r.URL
	if len(r.query) > 0 {
		separator := "?"
		if strings.Contains(requestURL, "?") {
			separator = "&"
		}
		requestURL = requestURL + separator + r.query.Encode()
	}

	var bodyReader *bytes.Reader
	switch {
	case r.formData != nil:
		bodyReader = bytes.NewReader([]byte(r.formData.Encode()))
	case r.hasBody:
		bodyReader = bytes.NewReader(r.body)
	default:
		bodyReader = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.Method, requestURL, bodyReader)
	if err != nil {
		return nil, err
	}
	for key, values := range r.headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if r.formData != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return httpReq, nil
}

// HttpError is returned by Result.ScanResponse when the upstream service
// answers with an unexpected status code.
type HttpError struct {
	StatusCode int
	Body       string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}
