package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/cruxtx/internal/ir"
	"github.com/roach88/cruxtx/internal/txlog"
)

const (
	tableTransactions = "transactions"
	tableOperations   = "operations"

	colSeq           = "seq"
	colLogHash       = "log_hash"
	colTxTime        = "tx_time"
	colOpCount       = "op_count"
	colCodecVersion  = "codec_version"
	colEngineVersion = "engine_version"

	colTxSeq      = "tx_seq"
	colPosition   = "position"
	colKind       = "kind"
	colEntity     = "entity"
	colOpHash     = "op_hash"
	colStartValid = "start_valid"
	colEndValid   = "end_valid"
	colBody       = "body"
)

// Receipt acknowledges a submitted log.
type Receipt struct {
	// Seq is the transaction's sequence number.
	Seq int64

	// Hash is the log's content address.
	Hash string

	// TxTime is when the transaction was first recorded.
	TxTime time.Time

	// Inserted is false when an equal log was already stored and Seq refers
	// to that earlier submission.
	Inserted bool
}

// Submit appends log as one transaction.
//
// The transaction row and all operation rows are written atomically.
// Uses ON CONFLICT(log_hash) DO NOTHING for idempotency: resubmitting an
// equal log inserts nothing and returns the original receipt.
func (s *Store) Submit(ctx context.Context, log *txlog.Log) (Receipt, error) {
	started := time.Now()

	body, err := marshalLog(log)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: %w", err)
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: begin: %w", err)
	}
	defer func() {
		if err := dbtx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Warn("rollback failed", "error", err)
		}
	}()

	txTime := s.now().UTC().Truncate(time.Millisecond)
	res, err := dbtx.ExecContext(ctx, `
		INSERT INTO transactions
		(log_hash, tx_time, op_count, body, codec_version, engine_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(log_hash) DO NOTHING
	`,
		log.Hash(),
		txTime.UnixMilli(),
		log.Len(),
		body,
		ir.CodecVersion,
		ir.EngineVersion,
	)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: insert transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: rows affected: %w", err)
	}
	if affected == 0 {
		receipt, err := s.existingReceipt(ctx, dbtx, log.Hash())
		if err != nil {
			return Receipt{}, fmt.Errorf("submit: %w", err)
		}
		s.logger.Debug("duplicate transaction",
			"seq", receipt.Seq,
			"log_hash", receipt.Hash,
		)
		return receipt, nil
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: last insert id: %w", err)
	}

	records, err := operationRecords(seq, log)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: %w", err)
	}
	query, args, err := s.sq.Insert(tableOperations).Rows(records...).Prepared(true).ToSQL()
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: build insert: %w", err)
	}
	if _, err := dbtx.ExecContext(ctx, query, args...); err != nil {
		return Receipt{}, fmt.Errorf("submit: insert operations: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return Receipt{}, fmt.Errorf("submit: commit: %w", err)
	}

	s.logger.Debug("transaction submitted",
		"seq", seq,
		"log_hash", log.Hash(),
		"op_count", log.Len(),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return Receipt{Seq: seq, Hash: log.Hash(), TxTime: txTime, Inserted: true}, nil
}

func (s *Store) existingReceipt(ctx context.Context, dbtx *sql.Tx, hash string) (Receipt, error) {
	var seq, txTime int64
	err := dbtx.QueryRowContext(ctx,
		`SELECT seq, tx_time FROM transactions WHERE log_hash = ?`, hash,
	).Scan(&seq, &txTime)
	if err != nil {
		return Receipt{}, fmt.Errorf("find existing transaction: %w", err)
	}
	return Receipt{Seq: seq, Hash: hash, TxTime: fromUnixMilli(txTime)}, nil
}
