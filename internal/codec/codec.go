// Package codec is the reference wire encoding for operations and logs.
//
// Every value is RFC 8785 canonical JSON. An operation is an object whose
// "op" key holds the variant name; the remaining keys are the variant's
// fields as rendered by tx.FieldEncoder. Valid times are integer Unix
// milliseconds and are omitted when absent. A log wraps its operations as
// {"version": ..., "ops": [...]}.
//
// Decoding runs the operation constructors and the log builder again, so a
// decoded value satisfies the same invariants as one built in process.
package codec

import (
	"fmt"
	"slices"

	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/ir"
	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txlog"
	"github.com/roach88/cruxtx/internal/vt"
)

// Encoder renders each operation as its wire object.
type Encoder struct{}

var _ tx.Visitor[ir.IRObject] = Encoder{}

func (Encoder) tagged(op tx.Op) ir.IRObject {
	obj := tx.Accept[ir.IRObject](op, tx.FieldEncoder{})
	obj["op"] = ir.IRString(op.Kind().String())
	return obj
}

// VisitPut implements tx.Visitor.
func (e Encoder) VisitPut(op tx.Put) ir.IRObject { return e.tagged(op) }

// VisitDelete implements tx.Visitor.
func (e Encoder) VisitDelete(op tx.Delete) ir.IRObject { return e.tagged(op) }

// VisitMatch implements tx.Visitor.
func (e Encoder) VisitMatch(op tx.Match) ir.IRObject { return e.tagged(op) }

// VisitEvict implements tx.Visitor.
func (e Encoder) VisitEvict(op tx.Evict) ir.IRObject { return e.tagged(op) }

// VisitFn implements tx.Visitor.
func (e Encoder) VisitFn(op tx.Fn) ir.IRObject { return e.tagged(op) }

// EncodeOp returns the wire object for op.
func EncodeOp(op tx.Op) ir.IRObject {
	return tx.Accept[ir.IRObject](op, Encoder{})
}

// MarshalOp returns the canonical JSON of op.
func MarshalOp(op tx.Op) ([]byte, error) {
	data, err := ir.MarshalCanonical(EncodeOp(op))
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", op.Kind(), err)
	}
	return data, nil
}

// EncodeLog returns the wire object for log.
func EncodeLog(log *txlog.Log) ir.IRObject {
	ops := txlog.Walk[ir.IRObject](log, Encoder{})
	arr := make(ir.IRArray, len(ops))
	for i, op := range ops {
		arr[i] = op
	}
	return ir.IRObject{
		"version": ir.IRString(ir.CodecVersion),
		"ops":     arr,
	}
}

// MarshalLog returns the canonical JSON of log.
func MarshalLog(log *txlog.Log) ([]byte, error) {
	data, err := ir.MarshalCanonical(EncodeLog(log))
	if err != nil {
		return nil, fmt.Errorf("marshal log: %w", err)
	}
	return data, nil
}

// fieldsByKind lists the keys each variant may carry besides "op".
var fieldsByKind = map[tx.Kind][]string{
	tx.KindPut:    {"doc", "start_valid", "end_valid"},
	tx.KindDelete: {"id", "start_valid", "end_valid"},
	tx.KindMatch:  {"id", "expected", "as_of"},
	tx.KindEvict:  {"id"},
	tx.KindFn:     {"fn", "args"},
}

// DecodeOp rebuilds an operation from its wire object. Unknown keys are
// rejected so that a decoded operation hashes the same as its source.
func DecodeOp(v ir.IRValue) (tx.Op, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("operation must be an object, got %T", v)
	}
	name, ok := obj["op"].(ir.IRString)
	if !ok {
		return nil, fmt.Errorf("operation is missing its \"op\" discriminator")
	}
	kind, err := tx.ParseKind(string(name))
	if err != nil {
		return nil, err
	}
	if err := checkFields(kind, obj); err != nil {
		return nil, err
	}

	switch kind {
	case tx.KindPut:
		d, err := doc.FromIR(obj["doc"])
		if err != nil {
			return nil, fmt.Errorf("put: %w", err)
		}
		start, end, err := decodeWindow(obj)
		if err != nil {
			return nil, fmt.Errorf("put: %w", err)
		}
		return asOp(tx.NewPut(d, start, end))

	case tx.KindDelete:
		id, err := doc.IDFromIR(obj["id"])
		if err != nil {
			return nil, fmt.Errorf("delete: %w", err)
		}
		start, end, err := decodeWindow(obj)
		if err != nil {
			return nil, fmt.Errorf("delete: %w", err)
		}
		return asOp(tx.NewDelete(id, start, end))

	case tx.KindMatch:
		id, err := doc.IDFromIR(obj["id"])
		if err != nil {
			return nil, fmt.Errorf("match: %w", err)
		}
		asOf, err := vt.FromIR(obj["as_of"])
		if err != nil {
			return nil, fmt.Errorf("match as_of: %w", err)
		}
		expected, ok := obj["expected"]
		if !ok {
			return asOp(tx.NewMatchAbsent(id, asOf))
		}
		d, err := doc.FromIR(expected)
		if err != nil {
			return nil, fmt.Errorf("match expected: %w", err)
		}
		return asOp(tx.NewMatch(id, d, asOf))

	case tx.KindEvict:
		id, err := doc.IDFromIR(obj["id"])
		if err != nil {
			return nil, fmt.Errorf("evict: %w", err)
		}
		return asOp(tx.NewEvict(id))

	default:
		fnID, err := doc.IDFromIR(obj["fn"])
		if err != nil {
			return nil, fmt.Errorf("fn: %w", err)
		}
		var args ir.IRArray
		if raw, ok := obj["args"]; ok {
			args, ok = raw.(ir.IRArray)
			if !ok {
				return nil, fmt.Errorf("fn args must be an array, got %T", raw)
			}
		}
		return asOp(tx.NewFn(fnID, args...))
	}
}

// asOp widens a constructor result to tx.Op, keeping a nil Op on error.
func asOp[T tx.Op](op T, err error) (tx.Op, error) {
	if err != nil {
		return nil, err
	}
	return op, nil
}

func checkFields(kind tx.Kind, obj ir.IRObject) error {
	allowed := fieldsByKind[kind]
	for key := range obj {
		if key == "op" {
			continue
		}
		if !slices.Contains(allowed, key) {
			return fmt.Errorf("%s: unknown field %q", kind, key)
		}
	}
	return nil
}

func decodeWindow(obj ir.IRObject) (vt.Time, vt.Time, error) {
	start, err := vt.FromIR(obj["start_valid"])
	if err != nil {
		return vt.Time{}, vt.Time{}, fmt.Errorf("start_valid: %w", err)
	}
	end, err := vt.FromIR(obj["end_valid"])
	if err != nil {
		return vt.Time{}, vt.Time{}, fmt.Errorf("end_valid: %w", err)
	}
	return start, end, nil
}

// UnmarshalOp decodes JSON produced by MarshalOp.
func UnmarshalOp(data []byte) (tx.Op, error) {
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal operation: %w", err)
	}
	return DecodeOp(v)
}

// DecodeLog rebuilds a log from its wire object. The codec version must
// match and the operations are revalidated by the builder.
func DecodeLog(v ir.IRValue) (*txlog.Log, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("log must be an object, got %T", v)
	}
	version, _ := obj["version"].(ir.IRString)
	if string(version) != ir.CodecVersion {
		return nil, fmt.Errorf("unsupported codec version %q (want %q)", version, ir.CodecVersion)
	}
	raw, ok := obj["ops"].(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("log ops must be an array")
	}

	b := txlog.NewBuilder()
	for i, elem := range raw {
		op, err := DecodeOp(elem)
		if err != nil {
			return nil, fmt.Errorf("ops[%d]: %w", i, err)
		}
		if err := b.Append(op); err != nil {
			return nil, fmt.Errorf("ops[%d]: %w", i, err)
		}
	}
	return b.Build()
}

// UnmarshalLog decodes JSON produced by MarshalLog.
func UnmarshalLog(data []byte) (*txlog.Log, error) {
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal log: %w", err)
	}
	return DecodeLog(v)
}
