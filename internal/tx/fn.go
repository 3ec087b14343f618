package tx

import (
	"fmt"

	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/ir"
)

// Fn invokes a server-side transaction function, identified by the document
// that holds it, with an ordered list of arguments. The function produces
// further operations at apply time.
type Fn struct {
	fnID doc.ID
	args ir.IRArray
	hash string
}

// NewFn builds an Fn. Arguments are opaque but must be canonical IR values
// (no null), since they take part in the operation hash. They are copied
// with strings and keys in NFC.
func NewFn(fnID doc.ID, args ...ir.IRValue) (Fn, error) {
	if fnID.IsZero() {
		return Fn{}, newMissingIdentityError(KindFn, "function identity")
	}

	copied := make(ir.IRArray, len(args))
	for i, arg := range args {
		n, err := ir.Normalize(arg)
		if err == nil {
			_, err = ir.MarshalCanonical(n)
		}
		if err != nil {
			return Fn{}, &Error{
				Code:     ErrCodeInvalidArgument,
				Message:  fmt.Sprintf("argument %d: %v", i, err),
				Kind:     KindFn,
				Identity: fnID.String(),
			}
		}
		copied[i] = n
	}

	op := Fn{fnID: fnID, args: copied}
	hash, err := hashOf(op)
	if err != nil {
		return Fn{}, err
	}
	op.hash = hash
	return op, nil
}

// FnID returns the identity of the transaction function.
func (f Fn) FnID() doc.ID { return f.fnID }

// Args returns a copy of the arguments.
func (f Fn) Args() ir.IRArray { return ir.CloneArray(f.args) }

// Kind implements Op.
func (Fn) Kind() Kind { return KindFn }

// Hash implements Op.
func (f Fn) Hash() string { return f.hash }

// Equal implements Op.
func (f Fn) Equal(other Op) bool {
	o, ok := other.(Fn)
	return ok && f.fnID == o.fnID && ir.Equal(f.args, o.args)
}

func (f Fn) accept(h handler) { h.fn(f) }
