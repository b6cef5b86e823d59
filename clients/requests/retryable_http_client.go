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
	"context"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// NewRetryableHTTPClient builds an HttpClient applying the given retry
// policy on top of go-retryablehttp. Zero-value config fields take the
// package defaults; the retry predicate decides per response whether the
// status is transient for the request's method.
func NewRetryableHTTPClient(cfg RequestRetryConfig) HttpClient {
	cfg = cfg.withDefaults()

	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.RetryMax = cfg.RetryAttemptsMax
	rc.HTTPClient.Timeout = cfg.AttemptTimeout
	rc.Logger = nil
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil || resp == nil {
			return true, nil
		}
		return cfg.RetryOnStatus(resp.Request.Method, resp.StatusCode), nil
	}
	return rc.StandardClient()
}
