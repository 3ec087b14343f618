package tx

import (
	"github.com/roach88/cruxtx/internal/doc"
)

// Evict permanently removes all history for an identity. Unlike Delete it
// is not a temporal fact and cannot be undone.
type Evict struct {
	id   doc.ID
	hash string
}

// NewEvict builds an Evict.
func NewEvict(id doc.ID) (Evict, error) {
	if id.IsZero() {
		return Evict{}, newMissingIdentityError(KindEvict, "identity")
	}
	op := Evict{id: id}
	hash, err := hashOf(op)
	if err != nil {
		return Evict{}, err
	}
	op.hash = hash
	return op, nil
}

// ID returns the evicted identity.
func (e Evict) ID() doc.ID { return e.id }

// Kind implements Op.
func (Evict) Kind() Kind { return KindEvict }

// Hash implements Op.
func (e Evict) Hash() string { return e.hash }

// Equal implements Op.
func (e Evict) Equal(other Op) bool {
	o, ok := other.(Evict)
	return ok && e.id == o.id
}

func (e Evict) accept(h handler) { h.evict(e) }
