// Package txlog assembles transaction operations into an ordered, frozen
// log. The Builder accepts operations cheaply and defers every cross-
// operation check to Build, which validates the whole batch in one pass.
package txlog

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/vt"
)

// Builder accumulates operations for one transaction.
//
// A Builder is single-writer: it is not safe for concurrent use. After
// Build it is frozen, whether or not validation succeeded, and further
// Append or Build calls fail with BUILDER_ALREADY_FROZEN.
type Builder struct {
	ops    []tx.Op
	frozen bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Append adds op at the next position. It does no validation beyond the
// nil and frozen checks.
func (b *Builder) Append(op tx.Op) error {
	if b.frozen {
		return &tx.Error{Code: tx.ErrCodeBuilderFrozen, Message: "append after build"}
	}
	if op == nil {
		return &tx.Error{
			Code:      tx.ErrCodeNilOperation,
			Message:   "operation is nil",
			Positions: []int{len(b.ops)},
		}
	}
	b.ops = append(b.ops, op)
	return nil
}

// AppendAll appends ops in order, stopping at the first error.
func (b *Builder) AppendAll(ops ...tx.Op) error {
	for _, op := range ops {
		if err := b.Append(op); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of appended operations.
func (b *Builder) Len() int {
	return len(b.ops)
}

// Ops returns a copy of the appended operations. It stays usable after a
// failed Build for diagnostics.
func (b *Builder) Ops() []tx.Op {
	return slices.Clone(b.ops)
}

// Frozen reports whether Build has been called.
func (b *Builder) Frozen() bool {
	return b.frozen
}

// Build freezes the builder and returns the validated log.
//
// Errors:
//   - EMPTY_TRANSACTION when nothing was appended
//   - CONFLICTING_IDENTITY when one identity has Put/Delete operations with
//     overlapping validity windows
//   - BUILDER_ALREADY_FROZEN on a second call
//
// Match, Evict and Fn operations never conflict.
func (b *Builder) Build() (*Log, error) {
	if b.frozen {
		return nil, &tx.Error{Code: tx.ErrCodeBuilderFrozen, Message: "build called twice"}
	}
	b.frozen = true

	if len(b.ops) == 0 {
		return nil, &tx.Error{Code: tx.ErrCodeEmptyTransaction, Message: "transaction has no operations"}
	}
	if err := checkConflicts(b.ops); err != nil {
		return nil, err
	}
	return newLog(slices.Clone(b.ops)), nil
}

// Of builds a log from ops in one step.
func Of(ops ...tx.Op) (*Log, error) {
	b := NewBuilder()
	if err := b.AppendAll(ops...); err != nil {
		return nil, err
	}
	return b.Build()
}

// span is a Put or Delete's claim on an identity's timeline.
type span struct {
	id     doc.ID
	window vt.Window
	pos    int
}

// spanOf extracts the temporal claim of an operation, if it has one.
type spanOf struct{}

func (spanOf) VisitPut(op tx.Put) *span {
	return &span{id: op.Document().ID(), window: op.Window()}
}

func (spanOf) VisitDelete(op tx.Delete) *span {
	return &span{id: op.ID(), window: op.Window()}
}

func (spanOf) VisitMatch(tx.Match) *span { return nil }
func (spanOf) VisitEvict(tx.Evict) *span { return nil }
func (spanOf) VisitFn(tx.Fn) *span       { return nil }

// checkConflicts sorts the temporal claims by identity then start and
// sweeps each identity's claims, tracking the furthest end seen so far.
func checkConflicts(ops []tx.Op) error {
	spans := make([]span, 0, len(ops))
	for i, op := range ops {
		if s := tx.Accept[*span](op, spanOf{}); s != nil {
			s.pos = i
			spans = append(spans, *s)
		}
	}

	slices.SortStableFunc(spans, func(a, b span) int {
		if c := a.id.Compare(b.id); c != 0 {
			return c
		}
		if c := a.window.Start.Compare(b.window.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.pos, b.pos)
	})

	for i := 0; i < len(spans); {
		reach := spans[i]
		j := i + 1
		for ; j < len(spans) && spans[j].id == reach.id; j++ {
			cur := spans[j]
			if reach.window.Overlaps(cur.window) {
				first, second := reach, cur
				if second.pos < first.pos {
					first, second = second, first
				}
				return &tx.Error{
					Code: tx.ErrCodeConflictingIdentity,
					Message: fmt.Sprintf("validity windows %s and %s overlap",
						first.window, second.window),
					Identity:  cur.id.String(),
					Positions: []int{first.pos, second.pos},
				}
			}
			if vt.CompareEnd(cur.window.End, reach.window.End) > 0 {
				reach = cur
			}
		}
		i = j
	}
	return nil
}
