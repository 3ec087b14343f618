package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/cruxtx/internal/codec"
	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txlog"
	"github.com/roach88/cruxtx/internal/vt"
)

// marshalLog converts a log to canonical JSON TEXT for storage.
func marshalLog(log *txlog.Log) (string, error) {
	data, err := codec.MarshalLog(log)
	if err != nil {
		return "", fmt.Errorf("marshal log: %w", err)
	}
	return string(data), nil
}

// unmarshalLog parses stored TEXT back into a log, revalidating it.
func unmarshalLog(body string) (*txlog.Log, error) {
	log, err := codec.UnmarshalLog([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("unmarshal log: %w", err)
	}
	return log, nil
}

// marshalOp converts one operation to canonical JSON TEXT for storage.
func marshalOp(op tx.Op) (string, error) {
	data, err := codec.MarshalOp(op)
	if err != nil {
		return "", fmt.Errorf("marshal op: %w", err)
	}
	return string(data), nil
}

// unmarshalOp parses a stored operation body.
func unmarshalOp(body string) (tx.Op, error) {
	op, err := codec.UnmarshalOp([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("unmarshal op: %w", err)
	}
	return op, nil
}

// millisOrNull maps an absent valid time to SQL NULL.
func millisOrNull(t vt.Time) any {
	if ms, ok := t.Millis(); ok {
		return ms
	}
	return nil
}

// timeFromNull is the inverse of millisOrNull.
func timeFromNull(n sql.NullInt64) vt.Time {
	if !n.Valid {
		return vt.None()
	}
	return vt.FromMillis(n.Int64)
}

func fromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
