// Package testutil holds fixtures shared by package tests: a deterministic
// transaction-time clock and ready-made documents, operations and logs.
package testutil

import (
	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/ir"
	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txlog"
	"github.com/roach88/cruxtx/internal/vt"
)

// Fixture identities.
var (
	Ivan = doc.Keyword("person/ivan")
	Petr = doc.Keyword("person/petr")
	Olga = doc.Keyword("person/olga")
	Incr = doc.Keyword("fn/increment")
)

// Fixture valid times.
var (
	Jan1 = vt.Date(2024, 1, 1)
	Mar1 = vt.Date(2024, 3, 1)
	Jun1 = vt.Date(2024, 6, 1)
)

// Person returns a document for id with a name field and any extra fields.
func Person(id doc.ID, name string, extra ...ir.IRPair) doc.Document {
	payload := ir.Obj(extra...)
	payload["name"] = ir.IRString(name)
	return doc.MustNew(id, payload)
}

// SampleOps returns one operation of every kind, free of conflicts.
func SampleOps() []tx.Op {
	ivan := Person(Ivan, "Ivan", ir.O("age", ir.IRInt(30)))
	return []tx.Op{
		tx.Must(tx.NewPut(ivan, Jan1, Jun1)),
		tx.Must(tx.NewMatch(Ivan, ivan, Mar1)),
		tx.Must(tx.NewDelete(Petr, Mar1, vt.None())),
		tx.Must(tx.NewMatchAbsent(Olga, vt.None())),
		tx.Must(tx.NewEvict(doc.String("legacy-42"))),
		tx.Must(tx.NewFn(Incr, ir.IRString(Ivan.String()), ir.IRInt(1))),
	}
}

// SampleLog builds SampleOps into a log.
func SampleLog() *txlog.Log {
	return mustLog(txlog.Of(SampleOps()...))
}

// PutLog builds a single-Put log for a person. It panics if the window is
// invalid.
func PutLog(id doc.ID, name string, start, end vt.Time) *txlog.Log {
	return mustLog(txlog.Of(tx.Must(tx.NewPut(Person(id, name), start, end))))
}

func mustLog(log *txlog.Log, err error) *txlog.Log {
	if err != nil {
		panic(err)
	}
	return log
}
