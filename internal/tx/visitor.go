package tx

import (
	"github.com/roach88/cruxtx/internal/ir"
)

// Visitor handles each operation variant. E is the caller-chosen result
// type. Implementations must provide a method for every variant; adding a
// variant to this interface is a deliberate compile-time break.
type Visitor[E any] interface {
	VisitPut(op Put) E
	VisitDelete(op Delete) E
	VisitMatch(op Match) E
	VisitEvict(op Evict) E
	VisitFn(op Fn) E
}

// Accept routes op to the visitor method for its variant and returns that
// method's result. Exactly one method is called, exactly once.
func Accept[E any](op Op, v Visitor[E]) E {
	d := dispatcher[E]{v: v}
	op.accept(&d)
	return d.out
}

// AcceptAll applies v to each operation in order.
func AcceptAll[E any](ops []Op, v Visitor[E]) []E {
	out := make([]E, len(ops))
	for i, op := range ops {
		out[i] = Accept(op, v)
	}
	return out
}

// handler is the non-generic half of the double dispatch: each variant's
// accept calls exactly one of these.
type handler interface {
	put(Put)
	delete(Delete)
	match(Match)
	evict(Evict)
	fn(Fn)
}

type dispatcher[E any] struct {
	v   Visitor[E]
	out E
}

func (d *dispatcher[E]) put(op Put)       { d.out = d.v.VisitPut(op) }
func (d *dispatcher[E]) delete(op Delete) { d.out = d.v.VisitDelete(op) }
func (d *dispatcher[E]) match(op Match)   { d.out = d.v.VisitMatch(op) }
func (d *dispatcher[E]) evict(op Evict)   { d.out = d.v.VisitEvict(op) }
func (d *dispatcher[E]) fn(op Fn)         { d.out = d.v.VisitFn(op) }

// FieldEncoder renders an operation's fields as an ir.IRObject, without the
// discriminator. It is the canonical field form used for hashing and by
// wire codecs. Absent optional fields are omitted.
type FieldEncoder struct{}

var _ Visitor[ir.IRObject] = FieldEncoder{}

// VisitPut implements Visitor.
func (FieldEncoder) VisitPut(op Put) ir.IRObject {
	obj := ir.IRObject{"doc": op.doc.IR()}
	putWindow(obj, op.start, op.end)
	return obj
}

// VisitDelete implements Visitor.
func (FieldEncoder) VisitDelete(op Delete) ir.IRObject {
	obj := ir.IRObject{"id": op.id.IR()}
	putWindow(obj, op.start, op.end)
	return obj
}

// VisitMatch implements Visitor.
func (FieldEncoder) VisitMatch(op Match) ir.IRObject {
	obj := ir.IRObject{"id": op.id.IR()}
	if op.hasExpected {
		obj["expected"] = op.expected.IR()
	}
	if v, ok := op.asOf.IR(); ok {
		obj["as_of"] = v
	}
	return obj
}

// VisitEvict implements Visitor.
func (FieldEncoder) VisitEvict(op Evict) ir.IRObject {
	return ir.IRObject{"id": op.id.IR()}
}

// VisitFn implements Visitor.
func (FieldEncoder) VisitFn(op Fn) ir.IRObject {
	return ir.IRObject{
		"fn":   op.fnID.IR(),
		"args": ir.CloneArray(op.args),
	}
}
