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

// Package observability holds the prometheus collectors and the /metrics
// handler.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trace_analytics"

var (
	// SpansIngested counts spans accepted by the ingest listeners.
	SpansIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "spans_ingested_total",
		Help:      "Spans accepted by the OTLP receivers and the log import.",
	}, []string{"tenant", "transport"})

	// PluginRuns counts analytics plugin executions by terminal status.
	PluginRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plugin_runs_total",
		Help:      "Analytics plugin executions by terminal status.",
	}, []string{"analytics_id", "status"})

	// PluginRunDuration observes wall-clock plugin execution time.
	PluginRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "plugin_run_duration_seconds",
		Help:      "Wall-clock duration of analytics plugin executions.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms .. ~80s
	}, []string{"analytics_id"})
)

// ObservePluginRun records one finished plugin execution.
func ObservePluginRun(analyticsID, status string, duration time.Duration) {
	PluginRuns.WithLabelValues(analyticsID, status).Inc()
	PluginRunDuration.WithLabelValues(analyticsID).Observe(duration.Seconds())
}

// Handler serves the prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
