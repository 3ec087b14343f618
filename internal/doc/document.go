// Package doc is the document model consumed by the transaction layer: an
// identity plus an opaque payload, content-addressed so that documents
// compare by value.
package doc

import (
	"fmt"

	"github.com/roach88/cruxtx/internal/ir"
)

// Document is an immutable document value. Construct with New.
type Document struct {
	id      ID
	payload ir.IRObject
	hash    string
}

// New builds a document. The payload is copied with its strings and keys in
// NFC; later changes to the caller's map do not affect the document. A zero
// id, a payload that cannot be canonically encoded, or one with keys that
// collide after normalization is rejected.
func New(id ID, payload ir.IRObject) (Document, error) {
	if id.IsZero() {
		return Document{}, fmt.Errorf("document identity is required")
	}
	if payload == nil {
		payload = ir.IRObject{}
	}
	payload, err := ir.NormalizeObject(payload)
	if err != nil {
		return Document{}, fmt.Errorf("document %s: %w", id, err)
	}

	hash, err := ir.DocumentHash(id.IR(), payload)
	if err != nil {
		return Document{}, fmt.Errorf("document %s: %w", id, err)
	}
	return Document{id: id, payload: payload, hash: hash}, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNew(id ID, payload ir.IRObject) Document {
	d, err := New(id, payload)
	if err != nil {
		panic(err)
	}
	return d
}

// ID returns the document's identity.
func (d Document) ID() ID {
	return d.id
}

// Payload returns a copy of the document's fields.
func (d Document) Payload() ir.IRObject {
	return ir.CloneObject(d.payload)
}

// Hash returns the content address of the document.
func (d Document) Hash() string {
	return d.hash
}

// IsZero reports whether d is the zero Document.
func (d Document) IsZero() bool {
	return d.id.IsZero()
}

// Equal reports whether d and o have the same identity and payload.
func (d Document) Equal(o Document) bool {
	return d.hash == o.hash
}

// IR returns the wire form {"id": ..., "payload": ...}.
func (d Document) IR() ir.IRObject {
	return ir.IRObject{
		"id":      d.id.IR(),
		"payload": ir.CloneObject(d.payload),
	}
}

// FromIR decodes the wire form produced by Document.IR.
func FromIR(v ir.IRValue) (Document, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return Document{}, fmt.Errorf("document must be an object, got %T", v)
	}
	id, err := IDFromIR(obj["id"])
	if err != nil {
		return Document{}, err
	}
	payload, ok := obj["payload"].(ir.IRObject)
	if !ok {
		return Document{}, fmt.Errorf("document %s: payload must be an object", id)
	}
	return New(id, payload)
}

// String returns a short description for logs and diagnostics.
func (d Document) String() string {
	if d.IsZero() {
		return "<no document>"
	}
	return fmt.Sprintf("%s@%s", d.id, d.hash[:12])
}
