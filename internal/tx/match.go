package tx

import (
	"fmt"

	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/vt"
)

// Match is a precondition: the whole batch fails unless the identity's
// state as of AsOf equals the expected document (or is absent, for
// NewMatchAbsent). It is evaluated in sequence order against the state the
// batch has produced so far.
type Match struct {
	id          doc.ID
	expected    doc.Document
	hasExpected bool
	asOf        vt.Time
	hash        string
}

// NewMatch builds a Match expecting the given document. The document's
// identity must equal id.
func NewMatch(id doc.ID, expected doc.Document, asOf vt.Time) (Match, error) {
	if id.IsZero() {
		return Match{}, newMissingIdentityError(KindMatch, "identity")
	}
	if expected.IsZero() {
		return Match{}, newMissingIdentityError(KindMatch, "expected document")
	}
	if expected.ID() != id {
		return Match{}, &Error{
			Code:     ErrCodeIdentityMismatch,
			Message:  fmt.Sprintf("expected document has identity %s", expected.ID()),
			Kind:     KindMatch,
			Identity: id.String(),
		}
	}
	return newMatch(Match{id: id, expected: expected, hasExpected: true, asOf: asOf})
}

// NewMatchAbsent builds a Match expecting no document for id.
func NewMatchAbsent(id doc.ID, asOf vt.Time) (Match, error) {
	if id.IsZero() {
		return Match{}, newMissingIdentityError(KindMatch, "identity")
	}
	return newMatch(Match{id: id, asOf: asOf})
}

func newMatch(op Match) (Match, error) {
	hash, err := hashOf(op)
	if err != nil {
		return Match{}, err
	}
	op.hash = hash
	return op, nil
}

// ID returns the matched identity.
func (m Match) ID() doc.ID { return m.id }

// Expected returns the expected document, or false when the match expects
// the identity to be absent.
func (m Match) Expected() (doc.Document, bool) { return m.expected, m.hasExpected }

// AsOf returns the valid time the match is evaluated at, possibly absent.
func (m Match) AsOf() vt.Time { return m.asOf }

// Kind implements Op.
func (Match) Kind() Kind { return KindMatch }

// Hash implements Op.
func (m Match) Hash() string { return m.hash }

// Equal implements Op.
func (m Match) Equal(other Op) bool {
	o, ok := other.(Match)
	return ok &&
		m.id == o.id &&
		m.hasExpected == o.hasExpected &&
		m.expected.Equal(o.expected) &&
		m.asOf.Equal(o.asOf)
}

func (m Match) accept(h handler) { h.match(m) }
