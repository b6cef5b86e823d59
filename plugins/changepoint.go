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

package plugins

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/analytics"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/utils"
)

// ChangePointDetector defaults.
const (
	defaultMinObservations = 10
	defaultChangeRatio     = 0.5
	defaultWindowMax       = 10
)

// Change directions the detector can be configured for.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionBoth = "both"
)

// ChangePointDetector watches one metric across the traces of a group and
// raises an Issue when the series' mean shifts by more than the configured
// ratio. Changepoints come from PELT with a Gaussian mean cost.
type ChangePointDetector struct {
	deps analytics.Deps
}

func NewChangePointDetector(deps analytics.Deps) *ChangePointDetector {
	return &ChangePointDetector{deps: deps}
}

func (p *ChangePointDetector) InputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "trace_group_id", Type: models.FieldTypeString, Required: true},
		{Name: "metric_name", Type: models.FieldTypeString, Required: true},
		{Name: "min_observations", Type: models.FieldTypeInteger},
		{Name: "change_ratio_bound", Type: models.FieldTypeFloat},
		{Name: "window_max", Type: models.FieldTypeInteger},
		{Name: "direction", Type: models.FieldTypeString, Description: "up | down | both"},
	}
}

func (p *ChangePointDetector) OutputSpec() []models.FieldSpec {
	return []models.FieldSpec{
		{Name: "issues", Type: models.FieldTypeArray, ArrayType: models.FieldTypeAny},
		{Name: "changepoints", Type: models.FieldTypeArray, ArrayType: models.FieldTypeInteger},
	}
}

func (p *ChangePointDetector) DefaultConfig() map[string]any {
	return map[string]any{
		"min_observations":   defaultMinObservations,
		"change_ratio_bound": defaultChangeRatio,
		"window_max":         defaultWindowMax,
		"direction":          DirectionBoth,
	}
}

func (p *ChangePointDetector) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	groupID := inputString(input, "trace_group_id")
	metricName := inputString(input, "metric_name")
	if groupID == "" || metricName == "" {
		return nil, fmt.Errorf("%w: trace_group_id and metric_name are required", utils.ErrInvalidInput)
	}
	minObservations := inputInt(input, "min_observations", defaultMinObservations)
	ratioBound := inputFloat(input, "change_ratio_bound", defaultChangeRatio)
	windowMax := inputInt(input, "window_max", defaultWindowMax)
	direction := inputString(input, "direction")
	if direction == "" {
		direction = DirectionBoth
	}
	if direction != DirectionUp && direction != DirectionDown && direction != DirectionBoth {
		return nil, fmt.Errorf("%w: direction must be up, down or both", utils.ErrInvalidInput)
	}

	series, err := p.metricSeries(ctx, groupID, metricName)
	if err != nil {
		return nil, err
	}
	if len(series) < minObservations {
		return map[string]any{"issues": []any{}, "changepoints": []any{}}, nil
	}

	values := make([]float64, len(series))
	for i, obs := range series {
		values[i] = obs.value
	}
	changepoints := peltMeanShift(values)

	var issues []models.Element
	for _, cp := range changepoints {
		before, after := windowMeans(values, changepoints, cp, windowMax)
		if before == 0 {
			continue
		}
		ratio := (after - before) / math.Abs(before)
		dir := DirectionUp
		if ratio < 0 {
			dir = DirectionDown
		}
		if math.Abs(ratio) < ratioBound {
			continue
		}
		if direction != DirectionBoth && dir != direction {
			continue
		}
		issue := models.Element{
			ElementID: models.NewElementID(models.KindIssue),
			Kind:      models.KindIssue,
			RootID:    groupID,
			Name:      fmt.Sprintf("change_point.%s.%s", metricName, dir),
			Attributes: map[string]any{
				"metric_name":  metricName,
				"direction":    dir,
				"change_ratio": ratio,
				"mean_before":  before,
				"mean_after":   after,
				"index":        cp,
			},
			Issue: &models.Issue{
				Level:     models.IssueLevelWarning,
				Effect:    []string{series[cp].traceID},
				Timestamp: time.Now().UTC(),
			},
		}
		issue.AddRelation(series[cp].traceID, models.KindTrace)
		issues = append(issues, issue)
	}

	if len(issues) > 0 {
		if _, err := p.deps.DataManager.BulkStore(ctx, issues, true); err != nil {
			return nil, err
		}
	}
	cps := make([]any, 0, len(changepoints))
	for _, cp := range changepoints {
		cps = append(cps, cp)
	}
	return map[string]any{"issues": encodeList(issues), "changepoints": cps}, nil
}

// observation is one metric value with its provenance.
type observation struct {
	traceID   string
	timestamp time.Time
	value     float64
}

// metricSeries collects the named numeric metric across the group's traces,
// sorted by timestamp.
func (p *ChangePointDetector) metricSeries(ctx context.Context, groupID, metricName string) ([]observation, error) {
	traces, err := p.deps.DataManager.GetTracesForTraceGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	var series []observation
	for _, trace := range traces {
		metrics, err := p.deps.DataManager.GetChildren(ctx, trace.ElementID, models.KindMetric, "")
		if err != nil {
			return nil, err
		}
		for i := range metrics {
			m := &metrics[i]
			if m.Name != metricName || m.Metric == nil || m.Metric.Value.Numeric == nil {
				continue
			}
			ts := m.Metric.Timestamp
			if ts.IsZero() && trace.Trace != nil {
				ts = trace.Trace.StartTime
			}
			series = append(series, observation{
				traceID:   trace.ElementID,
				timestamp: ts,
				value:     *m.Metric.Value.Numeric,
			})
		}
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].timestamp.Before(series[j].timestamp) })
	return series, nil
}

// peltMeanShift runs PELT over the series with a Gaussian mean cost
// (variance estimated globally) and a BIC-style penalty. Returned indices
// are the first index of each new segment, in ascending order.
func peltMeanShift(values []float64) []int {
	n := len(values)
	if n < 4 {
		return nil
	}

	variance := seriesVariance(values)
	if variance <= 0 {
		return nil
	}
	penalty := 2 * variance * math.Log(float64(n))

	// Prefix sums for O(1) segment cost.
	sum := make([]float64, n+1)
	sumSq := make([]float64, n+1)
	for i, v := range values {
		sum[i+1] = sum[i] + v
		sumSq[i+1] = sumSq[i] + v*v
	}
	// cost of values[a:b) under its own mean: sum of squared deviations.
	segCost := func(a, b int) float64 {
		length := float64(b - a)
		s := sum[b] - sum[a]
		return (sumSq[b] - sumSq[a]) - s*s/length
	}

	best := make([]float64, n+1)
	prev := make([]int, n+1)
	best[0] = -penalty
	candidates := []int{0}

	for end := 1; end <= n; end++ {
		best[end] = math.Inf(1)
		for _, start := range candidates {
			cost := best[start] + segCost(start, end) + penalty
			if cost < best[end] {
				best[end] = cost
				prev[end] = start
			}
		}
		// PELT pruning: candidates that can never win again are dropped.
		var kept []int
		for _, start := range candidates {
			if best[start]+segCost(start, end) <= best[end] {
				kept = append(kept, start)
			}
		}
		candidates = append(kept, end)
	}

	var changepoints []int
	for at := prev[n]; at > 0; at = prev[at] {
		changepoints = append(changepoints, at)
	}
	sort.Ints(changepoints)
	return changepoints
}

func seriesVariance(values []float64) float64 {
	n := float64(len(values))
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= n
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return ss / n
}

// windowMeans computes the mean before and after a changepoint within a
// window bounded by windowMax and the neighboring changepoints.
func windowMeans(values []float64, changepoints []int, cp, windowMax int) (before, after float64) {
	lo := 0
	hi := len(values)
	for _, other := range changepoints {
		if other < cp && other > lo {
			lo = other
		}
		if other > cp && other < hi {
			hi = other
		}
	}
	if cp-lo > windowMax {
		lo = cp - windowMax
	}
	if hi-cp > windowMax {
		hi = cp + windowMax
	}
	return mean(values[lo:cp]), mean(values[cp:hi])
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
