package tx

import (
	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/ir"
	"github.com/roach88/cruxtx/internal/vt"
)

// Put asserts a document over a validity window. Absent bounds are decided
// at apply time: start defaults to transaction time, end to "forever".
type Put struct {
	doc   doc.Document
	start vt.Time
	end   vt.Time
	hash  string
}

// NewPut builds a Put. Fails with INVALID_TEMPORAL_RANGE when both bounds
// are present and start is not strictly before end.
func NewPut(d doc.Document, start, end vt.Time) (Put, error) {
	if d.IsZero() {
		return Put{}, newMissingIdentityError(KindPut, "document")
	}
	if !(vt.Window{Start: start, End: end}).Valid() {
		return Put{}, newRangeError(KindPut, d.ID().String(), start, end)
	}

	op := Put{doc: d, start: start, end: end}
	hash, err := hashOf(op)
	if err != nil {
		return Put{}, err
	}
	op.hash = hash
	return op, nil
}

// Document returns the asserted document.
func (p Put) Document() doc.Document { return p.doc }

// StartValid returns the start of the validity window, possibly absent.
func (p Put) StartValid() vt.Time { return p.start }

// EndValid returns the end of the validity window, possibly absent.
func (p Put) EndValid() vt.Time { return p.end }

// Window returns the validity window.
func (p Put) Window() vt.Window { return vt.Window{Start: p.start, End: p.end} }

// Kind implements Op.
func (Put) Kind() Kind { return KindPut }

// Hash implements Op.
func (p Put) Hash() string { return p.hash }

// Equal implements Op.
func (p Put) Equal(other Op) bool {
	o, ok := other.(Put)
	return ok && p.doc.Equal(o.doc) && p.start.Equal(o.start) && p.end.Equal(o.end)
}

func (p Put) accept(h handler) { h.put(p) }

// putWindow writes present window bounds into obj.
func putWindow(obj ir.IRObject, start, end vt.Time) {
	if v, ok := start.IR(); ok {
		obj["start_valid"] = v
	}
	if v, ok := end.IR(); ok {
		obj["end_valid"] = v
	}
}
