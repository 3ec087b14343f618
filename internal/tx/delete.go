package tx

import (
	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/vt"
)

// Delete retracts whatever is asserted for an identity over a validity
// window. A deletion is itself a temporal fact; history is kept.
type Delete struct {
	id    doc.ID
	start vt.Time
	end   vt.Time
	hash  string
}

// NewDelete builds a Delete. The window check is the same as NewPut's.
func NewDelete(id doc.ID, start, end vt.Time) (Delete, error) {
	if id.IsZero() {
		return Delete{}, newMissingIdentityError(KindDelete, "identity")
	}
	if !(vt.Window{Start: start, End: end}).Valid() {
		return Delete{}, newRangeError(KindDelete, id.String(), start, end)
	}

	op := Delete{id: id, start: start, end: end}
	hash, err := hashOf(op)
	if err != nil {
		return Delete{}, err
	}
	op.hash = hash
	return op, nil
}

// ID returns the retracted identity.
func (d Delete) ID() doc.ID { return d.id }

// StartValid returns the start of the retracted window, possibly absent.
func (d Delete) StartValid() vt.Time { return d.start }

// EndValid returns the end of the retracted window, possibly absent.
func (d Delete) EndValid() vt.Time { return d.end }

// Window returns the retracted window.
func (d Delete) Window() vt.Window { return vt.Window{Start: d.start, End: d.end} }

// Kind implements Op.
func (Delete) Kind() Kind { return KindDelete }

// Hash implements Op.
func (d Delete) Hash() string { return d.hash }

// Equal implements Op.
func (d Delete) Equal(other Op) bool {
	o, ok := other.(Delete)
	return ok && d.id == o.id && d.start.Equal(o.start) && d.end.Equal(o.end)
}

func (d Delete) accept(h handler) { h.delete(d) }
