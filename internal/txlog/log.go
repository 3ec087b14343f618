package txlog

import (
	"iter"
	"slices"

	"github.com/roach88/cruxtx/internal/ir"
	"github.com/roach88/cruxtx/internal/tx"
)

// Log is a frozen, validated sequence of operations. It is immutable and
// safe for concurrent reads.
type Log struct {
	ops  []tx.Op
	hash string
}

func newLog(ops []tx.Op) *Log {
	hashes := make([]string, len(ops))
	for i, op := range ops {
		hashes[i] = op.Hash()
	}
	return &Log{ops: ops, hash: ir.LogHash(hashes)}
}

// Len returns the number of operations.
func (l *Log) Len() int {
	return len(l.ops)
}

// At returns the operation at position i.
func (l *Log) At(i int) tx.Op {
	return l.ops[i]
}

// Ops returns a copy of the operations in sequence order.
func (l *Log) Ops() []tx.Op {
	return slices.Clone(l.ops)
}

// All iterates positions and operations in sequence order.
func (l *Log) All() iter.Seq2[int, tx.Op] {
	return slices.All(l.ops)
}

// Hash returns the content address of the log over its ordered operation
// hashes.
func (l *Log) Hash() string {
	return l.hash
}

// Equal reports whether l and o hold equal operations in the same order.
func (l *Log) Equal(o *Log) bool {
	if l == nil || o == nil {
		return l == o
	}
	return slices.EqualFunc(l.ops, o.ops, tx.Equal)
}

// Walk applies v to every operation in sequence order.
func Walk[E any](l *Log, v tx.Visitor[E]) []E {
	return tx.AcceptAll(l.ops, v)
}
