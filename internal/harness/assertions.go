package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/store"
)

// AssertionContext carries what assertions need to query the store.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  %s\n", event)
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result.Trace, a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertLatest:
		return assertLatest(trace, a, actx)
	case AssertTxOps:
		return assertTxOps(trace, a, actx)
	case AssertHistoryCount:
		return assertHistoryCount(trace, a, actx)
	case AssertHistoryKinds:
		return assertHistoryKinds(trace, a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertLatest checks the highest committed sequence number.
func assertLatest(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	latest, err := actx.Store.Latest(actx.Ctx)
	if err != nil {
		return fmt.Errorf("latest: %w", err)
	}
	if latest != a.Seq {
		return &AssertionError{
			Type:     AssertLatest,
			Expected: fmt.Sprintf("latest tx %d", a.Seq),
			Actual:   fmt.Sprintf("latest tx %d", latest),
			Trace:    trace,
		}
	}
	return nil
}

// assertTxOps checks the operation count of one stored transaction.
func assertTxOps(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	t, err := actx.Store.ReadTx(actx.Ctx, a.Seq)
	if err != nil {
		return &AssertionError{
			Type:     AssertTxOps,
			Expected: fmt.Sprintf("tx %d with %d ops", a.Seq, a.Count),
			Actual:   err.Error(),
			Trace:    trace,
		}
	}
	if t.Log.Len() != a.Count {
		return &AssertionError{
			Type:     AssertTxOps,
			Expected: fmt.Sprintf("tx %d with %d ops", a.Seq, a.Count),
			Actual:   fmt.Sprintf("%d ops", t.Log.Len()),
			Trace:    trace,
		}
	}
	return nil
}

// assertHistoryCount checks how many stored operations touch an identity,
// optionally restricted to some kinds.
func assertHistoryCount(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	kinds, err := historyKinds(a, actx, true)
	if err != nil {
		return err
	}
	if len(kinds) != a.Count {
		return &AssertionError{
			Type:     AssertHistoryCount,
			Expected: fmt.Sprintf("%d ops on %s", a.Count, a.ID),
			Actual:   fmt.Sprintf("%d ops %v", len(kinds), kinds),
			Trace:    trace,
		}
	}
	return nil
}

// assertHistoryKinds checks the exact kind sequence of an identity's
// history.
func assertHistoryKinds(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	kinds, err := historyKinds(a, actx, false)
	if err != nil {
		return err
	}
	want := a.Kinds
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(kinds, want) {
		return &AssertionError{
			Type:     AssertHistoryKinds,
			Expected: fmt.Sprintf("history of %s = %v", a.ID, want),
			Actual:   fmt.Sprintf("%v", kinds),
			Trace:    trace,
		}
	}
	return nil
}

// historyKinds returns the kind names of an identity's history, filtered
// by the assertion's kinds when filter is set.
func historyKinds(a Assertion, actx *AssertionContext, filter bool) ([]string, error) {
	id, err := doc.ParseID(a.ID)
	if err != nil {
		return nil, fmt.Errorf("identity %q: %w", a.ID, err)
	}
	var entries []store.Entry
	if filter {
		entries, err = actx.Store.History(actx.Ctx, id, a.kinds()...)
	} else {
		entries, err = actx.Store.History(actx.Ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", a.ID, err)
	}
	kinds := make([]string, len(entries))
	for i, e := range entries {
		kinds[i] = e.Kind.String()
	}
	return kinds, nil
}
