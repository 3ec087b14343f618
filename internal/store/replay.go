package store

import (
	"context"
	"fmt"
)

// storedRow is a transactions row as read, before decoding.
type storedRow struct {
	seq    int64
	hash   string
	txTime int64
	body   string
}

// Replay calls fn for every transaction with seq > after, in seq order.
// Each stored body is decoded and checked against its log hash before fn
// sees it; a mismatch stops the replay with an error wrapping
// ErrHashMismatch. An error returned by fn also stops the replay.
func (s *Store) Replay(ctx context.Context, after int64, fn func(Transaction) error) error {
	// Rows are drained before fn runs so that fn may call back into the
	// store; the pool holds a single connection.
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, log_hash, tx_time, body
		FROM transactions
		WHERE seq > ?
		ORDER BY seq ASC
	`, after)
	if err != nil {
		return fmt.Errorf("replay: query: %w", err)
	}

	var stored []storedRow
	for rows.Next() {
		var r storedRow
		if err := rows.Scan(&r.seq, &r.hash, &r.txTime, &r.body); err != nil {
			rows.Close()
			return fmt.Errorf("replay: scan: %w", err)
		}
		stored = append(stored, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("replay: iterate: %w", err)
	}
	rows.Close()

	for _, r := range stored {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := decodeTransaction(r.seq, r.hash, r.txTime, r.body)
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}
