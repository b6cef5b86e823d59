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

// MetricType tags the value union of a Metric.
type MetricType string

const (
	MetricTypeNumeric      MetricType = "NUMERIC"
	MetricTypeString       MetricType = "STRING"
	MetricTypeDistribution MetricType = "DISTRIBUTION"
	MetricTypeTimeSeries   MetricType = "TIME_SERIES"
	MetricTypeHistogram    MetricType = "HISTOGRAM"
	MetricTypeStatistics   MetricType = "STATISTICS"
)

// TimePoint is one observation of a time series.
type TimePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// HistogramBucket is one bucket of a histogram metric.
type HistogramBucket struct {
	UpperBound float64 `json:"upper_bound"`
	Count      int     `json:"count"`
}

// Statistics summarizes a sample.
type Statistics struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Stddev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// MetricValue is the union of metric payloads; exactly the field matching
// the metric type is set.
type MetricValue struct {
	Numeric      *float64          `json:"numeric,omitempty"`
	String       *string           `json:"string,omitempty"`
	Distribution map[string]int    `json:"distribution,omitempty"`
	TimeSeries   []TimePoint       `json:"time_series,omitempty"`
	Histogram    []HistogramBucket `json:"histogram,omitempty"`
	Statistics   *Statistics       `json:"statistics,omitempty"`
}

// Metric is a measurement attached to a trace, task, or trace group.
type Metric struct {
	MetricType MetricType  `json:"metric_type"`
	Value      MetricValue `json:"value"`
	Unit       string      `json:"unit,omitempty"`
	Timestamp  time.Time   `json:"timestamp,omitempty"`
}

// NumericMetric builds a NUMERIC metric value.
func NumericMetric(v float64) Metric {
	return Metric{MetricType: MetricTypeNumeric, Value: MetricValue{Numeric: &v}}
}

// StringMetric builds a STRING metric value.
func StringMetric(v string) Metric {
	return Metric{MetricType: MetricTypeString, Value: MetricValue{String: &v}}
}

// DistributionMetric builds a DISTRIBUTION metric value.
func DistributionMetric(dist map[string]int) Metric {
	return Metric{MetricType: MetricTypeDistribution, Value: MetricValue{Distribution: dist}}
}
