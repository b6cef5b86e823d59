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

package traversal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
)

// recordingProcessor appends "name:phase:spanID" entries to a shared log.
type recordingProcessor struct {
	name    string
	should  func(*models.Span) bool
	fail    bool
	log     *[]string
	after   int
	process func(*models.Span, Phase, *Context)
}

func (p *recordingProcessor) Name() string { return p.name }

func (p *recordingProcessor) ShouldProcess(span *models.Span, _ *Context) bool {
	if p.should == nil {
		return true
	}
	return p.should(span)
}

func (p *recordingProcessor) Process(_ context.Context, span *models.Span, phase Phase, tctx *Context) error {
	*p.log = append(*p.log, fmt.Sprintf("%s:%s:%s", p.name, phase, span.Context.SpanID))
	if p.process != nil {
		p.process(span, phase, tctx)
	}
	if p.fail {
		return errors.New("boom")
	}
	return nil
}

func (p *recordingProcessor) AfterTraversal(context.Context, *Context) error {
	p.after++
	return nil
}

func span(id, parent string, start time.Time) models.Span {
	return models.Span{
		Context:   models.SpanContext{TraceID: "trace-1", SpanID: id},
		ParentID:  parent,
		Kind:      models.SpanKindInternal,
		StartTime: start,
		EndTime:   start.Add(time.Millisecond),
	}
}

func TestTraverseVisitsParentsBeforeChildren(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spans := []models.Span{
		span("S2", "S1", base.Add(2*time.Second)),
		span("S1", "", base),
		span("S3", "S1", base.Add(time.Second)),
		span("S4", "S3", base.Add(3*time.Second)),
	}

	var log []string
	p := &recordingProcessor{name: "rec", log: &log}
	Traverse(context.Background(), spans, []Processor{p}, NewContext())

	assert.Equal(t, []string{
		"rec:BEFORE_CHILDREN:S1",
		"rec:BEFORE_CHILDREN:S3", // earlier start than S2
		"rec:BEFORE_CHILDREN:S4",
		"rec:AFTER_CHILDREN:S4",
		"rec:AFTER_CHILDREN:S3",
		"rec:BEFORE_CHILDREN:S2",
		"rec:AFTER_CHILDREN:S2",
		"rec:AFTER_CHILDREN:S1",
	}, log)
	assert.Equal(t, 1, p.after)
}

func TestTraverseOrphanedParentBecomesRoot(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spans := []models.Span{
		span("S1", "missing-parent", base),
		span("S2", "S1", base.Add(time.Second)),
	}

	var log []string
	p := &recordingProcessor{name: "rec", log: &log}
	Traverse(context.Background(), spans, []Processor{p}, NewContext())

	assert.Equal(t, []string{
		"rec:BEFORE_CHILDREN:S1",
		"rec:BEFORE_CHILDREN:S2",
		"rec:AFTER_CHILDREN:S2",
		"rec:AFTER_CHILDREN:S1",
	}, log)
}

func TestTraverseStackLikeProcessorOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spans := []models.Span{span("S1", "", base)}

	var log []string
	first := &recordingProcessor{name: "first", log: &log}
	second := &recordingProcessor{name: "second", log: &log}
	Traverse(context.Background(), spans, []Processor{first, second}, NewContext())

	assert.Equal(t, []string{
		"first:BEFORE_CHILDREN:S1",
		"second:BEFORE_CHILDREN:S1",
		"second:AFTER_CHILDREN:S1",
		"first:AFTER_CHILDREN:S1",
	}, log)
}

func TestTraverseContinuesPastProcessorErrors(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spans := []models.Span{
		span("S1", "", base),
		span("S2", "S1", base.Add(time.Second)),
	}

	var log []string
	failing := &recordingProcessor{name: "bad", log: &log, fail: true}
	healthy := &recordingProcessor{name: "good", log: &log}
	Traverse(context.Background(), spans, []Processor{failing, healthy}, NewContext())

	// Both spans still reach the healthy processor in both phases.
	count := 0
	for _, entry := range log {
		if entry == "good:BEFORE_CHILDREN:S1" || entry == "good:BEFORE_CHILDREN:S2" ||
			entry == "good:AFTER_CHILDREN:S1" || entry == "good:AFTER_CHILDREN:S2" {
			count++
		}
	}
	assert.Equal(t, 4, count)
}

func TestTraverseDuplicateSpanIDVisitedOnce(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spans := []models.Span{
		span("S1", "", base),
		span("S1", "", base.Add(time.Second)),
	}

	var log []string
	p := &recordingProcessor{name: "rec", log: &log}
	Traverse(context.Background(), spans, []Processor{p}, NewContext())

	assert.Len(t, log, 2) // one BEFORE, one AFTER
}

func TestTraverseSharedContext(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spans := []models.Span{span("S1", "", base)}

	var log []string
	writer := &recordingProcessor{name: "writer", log: &log, process: func(_ *models.Span, phase Phase, tctx *Context) {
		if phase == BeforeChildren {
			tctx.Set("seen", "S1")
		}
	}}
	tctx := NewContext()
	Traverse(context.Background(), spans, []Processor{writer}, tctx)

	require.Equal(t, "S1", tctx.Get("seen"))
}

// Property: for every span whose parent is in the set, the parent's
// BEFORE_CHILDREN strictly precedes the child's, and the parent's
// AFTER_CHILDREN strictly follows the child's.
func TestTraverseOrderInvariant(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 50
	properties := gopter.NewProperties(params)

	properties.Property("parent brackets child", prop.ForAll(
		func(n int, seed int64) bool {
			base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
			spans := make([]models.Span, 0, n)
			for i := 0; i < n; i++ {
				parent := ""
				if i > 0 {
					parent = fmt.Sprintf("S%d", int(seed)%i)
				}
				spans = append(spans, span(fmt.Sprintf("S%d", i), parent,
					base.Add(time.Duration((seed+int64(i)*7)%100)*time.Millisecond)))
			}

			var log []string
			Traverse(context.Background(), spans, []Processor{&recordingProcessor{name: "rec", log: &log}}, NewContext())

			pos := make(map[string]int, len(log))
			for i, entry := range log {
				pos[entry] = i
			}
			for _, s := range spans {
				if s.ParentID == "" {
					continue
				}
				childBefore := pos[fmt.Sprintf("rec:BEFORE_CHILDREN:%s", s.Context.SpanID)]
				childAfter := pos[fmt.Sprintf("rec:AFTER_CHILDREN:%s", s.Context.SpanID)]
				parentBefore := pos[fmt.Sprintf("rec:BEFORE_CHILDREN:%s", s.ParentID)]
				parentAfter := pos[fmt.Sprintf("rec:AFTER_CHILDREN:%s", s.ParentID)]
				if !(parentBefore < childBefore && childAfter < parentAfter) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.Int64Range(1, 1<<30),
	))

	properties.TestingRun(t)
}
