package store

import (
	"github.com/doug-martin/goqu/v9"

	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txlog"
	"github.com/roach88/cruxtx/internal/vt"
)

// indexRow is what the operations table records about one operation,
// minus its position in the transaction.
type indexRow struct {
	kind   tx.Kind
	entity string
	window vt.Window
}

// indexer extracts the index row of each operation kind. Match, Evict and
// Fn carry no validity window.
type indexer struct{}

var _ tx.Visitor[indexRow] = indexer{}

func (indexer) VisitPut(op tx.Put) indexRow {
	return indexRow{kind: tx.KindPut, entity: op.Document().ID().String(), window: op.Window()}
}

func (indexer) VisitDelete(op tx.Delete) indexRow {
	return indexRow{kind: tx.KindDelete, entity: op.ID().String(), window: op.Window()}
}

func (indexer) VisitMatch(op tx.Match) indexRow {
	return indexRow{kind: tx.KindMatch, entity: op.ID().String()}
}

func (indexer) VisitEvict(op tx.Evict) indexRow {
	return indexRow{kind: tx.KindEvict, entity: op.ID().String()}
}

func (indexer) VisitFn(op tx.Fn) indexRow {
	return indexRow{kind: tx.KindFn, entity: op.FnID().String()}
}

// operationRecords renders every operation of log as an insertable row of
// the operations table.
func operationRecords(seq int64, log *txlog.Log) ([]any, error) {
	rows := txlog.Walk[indexRow](log, indexer{})
	records := make([]any, len(rows))
	for i, row := range rows {
		op := log.At(i)
		body, err := marshalOp(op)
		if err != nil {
			return nil, err
		}
		records[i] = goqu.Record{
			colTxSeq:      seq,
			colPosition:   i,
			colKind:       row.kind.String(),
			colEntity:     row.entity,
			colOpHash:     op.Hash(),
			colStartValid: millisOrNull(row.window.Start),
			colEndValid:   millisOrNull(row.window.End),
			colBody:       body,
		}
	}
	return records, nil
}
