package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txfile"
)

// Scenario is a sequence of submissions followed by assertions on the
// resulting store.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are submitted in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final store.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step submits one transaction, given inline or as a file.
type Step struct {
	// Ops is an inline transaction file body.
	Ops []txfile.Step `yaml:"ops,omitempty"`

	// File is a transaction file path, relative to the scenario file.
	File string `yaml:"file,omitempty"`

	// Expect is how the submission must be received.
	Expect Expect `yaml:"expect"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Outcome is committed, duplicate or rejected.
	Outcome string `yaml:"outcome"`

	// Code is the tx error code a rejected step must carry. Optional.
	Code string `yaml:"code,omitempty"`
}

// Step outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

// Assertion validates the final store.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// ID is the identity inspected by history assertions.
	ID string `yaml:"id,omitempty"`

	// Kinds filters history_count, or is the expected sequence for
	// history_kinds.
	Kinds []string `yaml:"kinds,omitempty"`

	// Seq is the expected latest sequence number, or the transaction
	// inspected by tx_ops.
	Seq int64 `yaml:"seq,omitempty"`

	// Count is the expected number of operations.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertLatest       = "latest"
	AssertTxOps        = "tx_ops"
	AssertHistoryCount = "history_count"
	AssertHistoryKinds = "history_kinds"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected; step file paths are resolved relative to the
// scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range scenario.Steps {
		f := scenario.Steps[i].File
		if f != "" && !filepath.IsAbs(f) {
			scenario.Steps[i].File = filepath.Join(base, f)
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates a scenario. Step file paths are left
// as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case len(step.Ops) == 0 && step.File == "":
			return fmt.Errorf("steps[%d]: one of ops or file is required", i)
		case len(step.Ops) > 0 && step.File != "":
			return fmt.Errorf("steps[%d]: ops and file are mutually exclusive", i)
		}
		switch step.Expect.Outcome {
		case OutcomeCommitted, OutcomeDuplicate:
			if step.Expect.Code != "" {
				return fmt.Errorf("steps[%d].expect: code is only allowed for rejected", i)
			}
		case OutcomeRejected:
		case "":
			return fmt.Errorf("steps[%d].expect: outcome is required", i)
		default:
			return fmt.Errorf("steps[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	for _, k := range a.Kinds {
		if _, err := tx.ParseKind(k); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}

	switch a.Type {
	case AssertLatest:
		if a.Seq < 0 {
			return fmt.Errorf("assertions[%d]: seq must be non-negative for latest", index)
		}
	case AssertTxOps:
		if a.Seq < 1 {
			return fmt.Errorf("assertions[%d]: seq is required for tx_ops", index)
		}
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be positive for tx_ops", index)
		}
	case AssertHistoryCount:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for history_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for history_count", index)
		}
	case AssertHistoryKinds:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for history_kinds", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// kinds parses the assertion's kind names. Names were checked on load.
func (a Assertion) kinds() []tx.Kind {
	out := make([]tx.Kind, 0, len(a.Kinds))
	for _, name := range a.Kinds {
		if k, err := tx.ParseKind(name); err == nil {
			out = append(out, k)
		}
	}
	return out
}
