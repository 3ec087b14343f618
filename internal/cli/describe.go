package cli

import (
	"fmt"

	"github.com/roach88/cruxtx/internal/ir"
	"github.com/roach88/cruxtx/internal/tx"
)

// describer renders one operation as a single text line.
type describer struct{}

func (describer) VisitPut(op tx.Put) string {
	return fmt.Sprintf("put %s %s doc=%s", op.Document().ID(), op.Window(), shortHash(op.Document().Hash()))
}

func (describer) VisitDelete(op tx.Delete) string {
	return fmt.Sprintf("delete %s %s", op.ID(), op.Window())
}

func (describer) VisitMatch(op tx.Match) string {
	expected := "absent"
	if d, ok := op.Expected(); ok {
		expected = "doc=" + shortHash(d.Hash())
	}
	return fmt.Sprintf("match %s as_of=%s %s", op.ID(), op.AsOf(), expected)
}

func (describer) VisitEvict(op tx.Evict) string {
	return fmt.Sprintf("evict %s", op.ID())
}

func (describer) VisitFn(op tx.Fn) string {
	args, err := ir.MarshalCanonical(op.Args())
	if err != nil {
		return fmt.Sprintf("fn %s (%d args)", op.FnID(), len(op.Args()))
	}
	return fmt.Sprintf("fn %s %s", op.FnID(), args)
}

func describe(op tx.Op) string {
	return tx.Accept[string](op, describer{})
}

// shortHash truncates a content hash for display.
func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}
