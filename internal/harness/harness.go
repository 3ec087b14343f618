package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/cruxtx/internal/store"
	"github.com/roach88/cruxtx/internal/testutil"
	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txfile"
	"github.com/roach88/cruxtx/internal/txlog"
)

// Harness runs one scenario against its own store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. A returned error means
// the scenario could not be executed at all (a missing file, a store
// failure); expectation and assertion failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(":memory:", store.WithLogger(logger), store.WithClock(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{store: st, logger: logger}

	result := NewResult()
	for i, step := range scenario.Steps {
		event, err := h.executeStep(ctx, i, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.AddTrace(event)
		if msg := checkExpect(event, step.Expect); msg != "" {
			result.AddError(msg)
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// executeStep builds and submits one step. Build failures become rejected
// events; only infrastructure failures are returned as errors.
func (h *Harness) executeStep(ctx context.Context, index int, step Step) (TraceEvent, error) {
	file, err := step.file()
	if err != nil {
		return TraceEvent{}, err
	}

	event := TraceEvent{Step: index, Ops: len(file.Steps)}

	log, err := file.Build()
	if err != nil {
		event.Outcome = OutcomeRejected
		event.Code = string(tx.CodeOf(err))
		h.logger.Debug("step rejected", "step", index, "error", err)
		return event, nil
	}

	receipt, err := h.store.Submit(ctx, log)
	if err != nil {
		return TraceEvent{}, err
	}

	event.Outcome = OutcomeCommitted
	if !receipt.Inserted {
		event.Outcome = OutcomeDuplicate
	}
	event.Seq = receipt.Seq
	event.TxTime = receipt.TxTime.UTC().Format(time.RFC3339Nano)
	event.Hash = receipt.Hash
	return event, nil
}

// file returns the step's transaction file, loading it if it is a path.
func (s Step) file() (*txfile.File, error) {
	if s.File != "" {
		return txfile.Load(s.File)
	}
	return &txfile.File{Steps: s.Ops}, nil
}

// Log builds the step's transaction log without submitting it.
func (s Step) Log() (*txlog.Log, error) {
	file, err := s.file()
	if err != nil {
		return nil, err
	}
	return file.Build()
}

// checkExpect compares an event with its expectation and returns a failure
// message, or "" when they agree.
func checkExpect(event TraceEvent, expect Expect) string {
	if event.Outcome != expect.Outcome {
		msg := fmt.Sprintf("step %d: expected %s, got %s", event.Step, expect.Outcome, event.Outcome)
		if event.Code != "" {
			msg += " (" + event.Code + ")"
		}
		return msg
	}
	if expect.Code != "" && event.Code != expect.Code {
		return fmt.Sprintf("step %d: expected rejection code %s, got %s", event.Step, expect.Code, event.Code)
	}
	return ""
}
