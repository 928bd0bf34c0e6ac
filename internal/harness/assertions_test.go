package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relate/internal/provider"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Op: OpRoots, Outcome: OutcomeOK},
		{Seq: 2, Op: OpChildren, Args: map[string]any{"parent": "tl_page::1"}, Outcome: OutcomeOK},
		{Seq: 3, Op: OpCreateChild, Args: map[string]any{"parent": "tl_page::3"}, Outcome: OutcomeOK},
		{Seq: 4, Op: OpChildren, Args: map[string]any{"parent": "tl_page::3"}, Outcome: OutcomeOK},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpChildren}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpChildren, Args: map[string]any{"parent": "tl_page::3"}}))

	err := assertTraceContains(trace, Assertion{Op: OpChildren, Args: map[string]any{"parent": "tl_page::9"}})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "Full trace:")
	assert.Contains(t, err.Error(), "[2] children")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Ops: []string{OpRoots, OpChildren, OpCreateChild}}))

	err := assertTraceOrder(trace, Assertion{Ops: []string{OpCreateChild, OpRoots}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")

	err = assertTraceOrder(trace, Assertion{Ops: []string{OpRoots, OpPasteAfter}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing op: paste_after")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpChildren, Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpParent, Count: 0}))

	err := assertTraceCount(trace, Assertion{Op: OpRoots, Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 occurrences")
}

func testProviders(t *testing.T) *AssertionContext {
	t.Helper()
	pages := provider.NewMemory("tl_page", nil)
	set := provider.NewSet(pages)
	_, err := Seed(context.Background(), set, Fixtures{
		"tl_page": {
			{"id": 1, "pid": 0, "title": "Home"},
			{"id": 2, "pid": 1, "title": "About"},
		},
	})
	require.NoError(t, err)
	return &AssertionContext{Providers: set, Ctx: context.Background()}
}

func TestAssertFinalState(t *testing.T) {
	actx := testProviders(t)

	assert.NoError(t, assertFinalState(actx, Assertion{Provider: "tl_page", ID: "2", Expect: map[string]any{"pid": 1, "title": "About"}}))

	err := assertFinalState(actx, Assertion{Provider: "tl_page", ID: "2", Expect: map[string]any{"pid": "1"}})
	require.Error(t, err, "canonical comparison keeps types apart")
	assert.Contains(t, err.Error(), `property "pid"`)

	err = assertFinalState(actx, Assertion{Provider: "tl_page", ID: "9", Expect: map[string]any{"pid": 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record not found")

	err = assertFinalState(actx, Assertion{Provider: "tl_news", ID: "1", Expect: map[string]any{"pid": 1}})
	assert.Error(t, err)
}

func TestAssertRecordCount(t *testing.T) {
	actx := testProviders(t)

	assert.NoError(t, assertRecordCount(actx, Assertion{Provider: "tl_page", Count: 2}))
	err := assertRecordCount(actx, Assertion{Provider: "tl_page", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 records")
}

func TestEvaluateAssertions(t *testing.T) {
	actx := testProviders(t)
	result := &Result{Trace: sampleTrace()}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Op: OpChildren, Count: 2},
		{Type: AssertRecordCount, Provider: "tl_page", Count: 1},
		{Type: "magic"},
	}, actx)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertions[1]")
	assert.Contains(t, errs[1], `unknown assertion type "magic"`)
}

func TestMatchArgs(t *testing.T) {
	actual := map[string]any{"parent": "tl_page::1", "record": "tl_page::2"}

	assert.True(t, matchArgs(actual, nil))
	assert.True(t, matchArgs(actual, map[string]any{"parent": "tl_page::1"}))
	assert.False(t, matchArgs(actual, map[string]any{"sibling": "tl_page::1"}))
	assert.False(t, matchArgs(nil, map[string]any{"parent": "tl_page::1"}))
}
