// Package txfile reads transaction files: a declarative list of operations
// in YAML, JSON or CUE that builds into a transaction log.
//
//	ops:
//	  - put:    {id: ":person/ivan", doc: {name: Ivan}, valid_from: 2024-01-01, valid_to: 2024-06-01}
//	  - delete: {id: ":person/petr", valid_from: 2024-03-01}
//	  - match:  {id: ":person/ivan", doc: {name: Ivan}, as_of: 2024-02-01}
//	  - match:  {id: ":person/olga", absent: true}
//	  - evict:  {id: ":person/gone"}
//	  - fn:     {id: ":fn/increment", args: [":person/ivan", 1]}
//
// Identities are parsed with doc.ParseID; integer identities become
// integer IDs. Valid times are RFC 3339 timestamps or bare dates.
package txfile

import (
	"fmt"

	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/ir"
	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txlog"
	"github.com/roach88/cruxtx/internal/vt"
)

// File is a parsed transaction file.
type File struct {
	// Steps are the operations in log order.
	Steps []Step `yaml:"ops" json:"ops"`
}

// Step holds exactly one operation. The key names the operation kind.
type Step struct {
	Put    *Body `yaml:"put,omitempty" json:"put,omitempty"`
	Delete *Body `yaml:"delete,omitempty" json:"delete,omitempty"`
	Match  *Body `yaml:"match,omitempty" json:"match,omitempty"`
	Evict  *Body `yaml:"evict,omitempty" json:"evict,omitempty"`
	Fn     *Body `yaml:"fn,omitempty" json:"fn,omitempty"`
}

// Body carries the fields of one step. Which fields are allowed depends on
// the step kind.
type Body struct {
	// ID is the identity touched; for fn, the function's identity.
	ID any `yaml:"id" json:"id"`

	// Doc is the payload for put, or the expected payload for match.
	Doc map[string]any `yaml:"doc,omitempty" json:"doc,omitempty"`

	// ValidFrom and ValidTo bound the validity window of put and delete.
	ValidFrom string `yaml:"valid_from,omitempty" json:"valid_from,omitempty"`
	ValidTo   string `yaml:"valid_to,omitempty" json:"valid_to,omitempty"`

	// AsOf is the valid time a match is evaluated at.
	AsOf string `yaml:"as_of,omitempty" json:"as_of,omitempty"`

	// Absent makes a match expect no document.
	Absent bool `yaml:"absent,omitempty" json:"absent,omitempty"`

	// Args are the fn arguments.
	Args []any `yaml:"args,omitempty" json:"args,omitempty"`
}

// StepError locates a failure at one step of a file. It unwraps to the
// underlying cause, so tx error codes survive.
type StepError struct {
	Index int
	Kind  string
	Err   error
}

func (e *StepError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("ops[%d]: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("ops[%d] (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Ops converts every step into an operation, in order.
func (f *File) Ops() ([]tx.Op, error) {
	ops := make([]tx.Op, 0, len(f.Steps))
	for i, step := range f.Steps {
		op, err := step.op()
		if err != nil {
			kind, _ := step.kind()
			return nil, &StepError{Index: i, Kind: kind, Err: err}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Build converts the file into a validated log.
func (f *File) Build() (*txlog.Log, error) {
	ops, err := f.Ops()
	if err != nil {
		return nil, err
	}
	return txlog.Of(ops...)
}

// kind returns the single kind key set on the step.
func (s Step) kind() (string, *Body) {
	var (
		name  string
		body  *Body
		count int
	)
	for _, c := range []struct {
		name string
		body *Body
	}{
		{"put", s.Put},
		{"delete", s.Delete},
		{"match", s.Match},
		{"evict", s.Evict},
		{"fn", s.Fn},
	} {
		if c.body != nil {
			name, body = c.name, c.body
			count++
		}
	}
	if count != 1 {
		return "", nil
	}
	return name, body
}

func (s Step) op() (tx.Op, error) {
	kind, body := s.kind()
	if body == nil {
		return nil, fmt.Errorf("step must have exactly one of put, delete, match, evict, fn")
	}

	id, err := doc.IDFromGo(body.ID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}

	switch kind {
	case "put":
		if err := body.only("doc", "valid_from", "valid_to"); err != nil {
			return nil, err
		}
		d, err := newDocument(id, body.Doc)
		if err != nil {
			return nil, err
		}
		start, end, err := body.window()
		if err != nil {
			return nil, err
		}
		return asOp(tx.NewPut(d, start, end))

	case "delete":
		if err := body.only("valid_from", "valid_to"); err != nil {
			return nil, err
		}
		start, end, err := body.window()
		if err != nil {
			return nil, err
		}
		return asOp(tx.NewDelete(id, start, end))

	case "match":
		if err := body.only("doc", "as_of", "absent"); err != nil {
			return nil, err
		}
		asOf, err := parseTime("as_of", body.AsOf)
		if err != nil {
			return nil, err
		}
		switch {
		case body.Absent && body.Doc != nil:
			return nil, fmt.Errorf("match takes either doc or absent, not both")
		case body.Absent:
			return asOp(tx.NewMatchAbsent(id, asOf))
		case body.Doc == nil:
			return nil, fmt.Errorf("match requires doc or absent: true")
		}
		d, err := newDocument(id, body.Doc)
		if err != nil {
			return nil, err
		}
		return asOp(tx.NewMatch(id, d, asOf))

	case "evict":
		if err := body.only(); err != nil {
			return nil, err
		}
		return asOp(tx.NewEvict(id))

	default:
		if err := body.only("args"); err != nil {
			return nil, err
		}
		args := make([]ir.IRValue, len(body.Args))
		for i, a := range body.Args {
			v, err := ir.FromGo(a)
			if err != nil {
				return nil, fmt.Errorf("args[%d]: %w", i, err)
			}
			args[i] = v
		}
		return asOp(tx.NewFn(id, args...))
	}
}

// only rejects fields set on the body that the step kind does not take.
func (b *Body) only(allowed ...string) error {
	set := map[string]bool{
		"doc":        b.Doc != nil,
		"valid_from": b.ValidFrom != "",
		"valid_to":   b.ValidTo != "",
		"as_of":      b.AsOf != "",
		"absent":     b.Absent,
		"args":       b.Args != nil,
	}
	for _, a := range allowed {
		delete(set, a)
	}
	for _, field := range []string{"doc", "valid_from", "valid_to", "as_of", "absent", "args"} {
		if set[field] {
			return fmt.Errorf("field %q is not allowed here", field)
		}
	}
	return nil
}

func (b *Body) window() (vt.Time, vt.Time, error) {
	start, err := parseTime("valid_from", b.ValidFrom)
	if err != nil {
		return vt.Time{}, vt.Time{}, err
	}
	end, err := parseTime("valid_to", b.ValidTo)
	if err != nil {
		return vt.Time{}, vt.Time{}, err
	}
	return start, end, nil
}

func parseTime(field, s string) (vt.Time, error) {
	t, err := vt.Parse(s)
	if err != nil {
		return vt.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}

func newDocument(id doc.ID, fields map[string]any) (doc.Document, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	payload, err := ir.FromGo(fields)
	if err != nil {
		return doc.Document{}, fmt.Errorf("doc: %w", err)
	}
	return doc.New(id, payload.(ir.IRObject))
}

func asOp[T tx.Op](op T, err error) (tx.Op, error) {
	if err != nil {
		return nil, err
	}
	return op, nil
}
