package tx

import (
	"fmt"

	"github.com/roach88/cruxtx/internal/ir"
)

// Kind is the variant discriminator of an operation.
type Kind uint8

// Operation kinds. The zero Kind is not a valid operation.
const (
	KindPut Kind = iota + 1
	KindDelete
	KindMatch
	KindEvict
	KindFn
)

var kindNames = [...]string{
	KindPut:    "put",
	KindDelete: "delete",
	KindMatch:  "match",
	KindEvict:  "evict",
	KindFn:     "fn",
}

// Kinds lists every operation kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindPut, KindDelete, KindMatch, KindEvict, KindFn}
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if k == 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseKind reverses Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown operation kind %q", s)
}

// Op is a transaction operation. The set of implementations is closed:
// Put, Delete, Match, Evict and Fn.
//
// Zero values of the variant types are not valid operations; use the
// constructors.
type Op interface {
	// Kind returns the variant discriminator.
	Kind() Kind

	// Hash returns the content address over the discriminator and all
	// fields. Equal operations have equal hashes.
	Hash() string

	// Equal reports whether other is the same variant with structurally
	// equal fields.
	Equal(other Op) bool

	accept(h handler)
}

// Equal reports whether a and b are equal operations. Two nil operations
// are equal.
func Equal(a, b Op) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// Dedupe returns ops with later duplicates removed, keeping the first
// occurrence of each distinct operation. Order is otherwise preserved.
func Dedupe(ops []Op) []Op {
	seen := make(map[string]struct{}, len(ops))
	out := make([]Op, 0, len(ops))
	for _, op := range ops {
		h := op.Hash()
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, op)
	}
	return out
}

// Must returns op or panics if err is non-nil.
// Use only in tests or when inputs are known to be valid.
//
//	put := tx.Must(tx.NewPut(d, vt.None(), vt.None()))
func Must[T Op](op T, err error) T {
	if err != nil {
		panic(err)
	}
	return op
}

// hashOf computes an operation's content address from its canonical fields.
func hashOf(op Op) (string, error) {
	return ir.OperationHash(op.Kind().String(), Accept[ir.IRObject](op, FieldEncoder{}))
}
