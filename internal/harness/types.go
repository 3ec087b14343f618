package harness

import "fmt"

// TraceEvent records how one step was received.
type TraceEvent struct {
	Step    int    `json:"step"`
	Outcome string `json:"outcome"`
	Ops     int    `json:"ops"`
	Seq     int64  `json:"seq,omitempty"`
	TxTime  string `json:"tx_time,omitempty"`
	Code    string `json:"code,omitempty"`

	// Hash is the log hash of an accepted step. It is not part of golden
	// snapshots.
	Hash string `json:"-"`
}

func (e TraceEvent) String() string {
	switch e.Outcome {
	case OutcomeRejected:
		return fmt.Sprintf("step %d: rejected %s (%d ops)", e.Step, e.Code, e.Ops)
	default:
		return fmt.Sprintf("step %d: %s as tx %d (%d ops)", e.Step, e.Outcome, e.Seq, e.Ops)
	}
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step matched its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors are the failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}
