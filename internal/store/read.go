package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txlog"
	"github.com/roach88/cruxtx/internal/vt"
)

// ErrHashMismatch is returned when a stored body no longer hashes to the
// log_hash it was recorded under.
var ErrHashMismatch = errors.New("stored log hash mismatch")

// Transaction is a stored log with its transaction-time metadata.
type Transaction struct {
	Seq    int64
	Hash   string
	TxTime time.Time
	Log    *txlog.Log
}

// Entry is one stored operation with its position in the log.
type Entry struct {
	Seq        int64
	Position   int
	TxTime     time.Time
	Kind       tx.Kind
	Entity     string
	OpHash     string
	StartValid vt.Time
	EndValid   vt.Time
	Op         tx.Op
}

// ReadTx returns the transaction with the given sequence number.
// Returns an error wrapping ErrNotFound if there is none.
func (s *Store) ReadTx(ctx context.Context, seq int64) (Transaction, error) {
	var (
		hash   string
		txTime int64
		body   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT log_hash, tx_time, body
		FROM transactions
		WHERE seq = ?
	`, seq).Scan(&hash, &txTime, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, fmt.Errorf("read tx %d: %w", seq, ErrNotFound)
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("read tx %d: %w", seq, err)
	}

	return decodeTransaction(seq, hash, txTime, body)
}

// decodeTransaction rebuilds a stored log and checks it against its hash.
func decodeTransaction(seq int64, hash string, txTime int64, body string) (Transaction, error) {
	log, err := unmarshalLog(body)
	if err != nil {
		return Transaction{}, fmt.Errorf("read tx %d: %w", seq, err)
	}
	if log.Hash() != hash {
		return Transaction{}, fmt.Errorf("read tx %d: %w", seq, ErrHashMismatch)
	}
	return Transaction{Seq: seq, Hash: hash, TxTime: fromUnixMilli(txTime), Log: log}, nil
}

// Latest returns the highest committed sequence number, or 0 when the
// store is empty.
func (s *Store) Latest(ctx context.Context) (int64, error) {
	query, args, err := s.sq.From(tableTransactions).
		Select(goqu.COALESCE(goqu.MAX(colSeq), 0)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("latest: build query: %w", err)
	}

	var seq int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&seq); err != nil {
		return 0, fmt.Errorf("latest: %w", err)
	}
	return seq, nil
}

// History returns every stored operation touching id, ordered by
// (seq, position). When kinds is non-empty only those kinds are returned.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) History(ctx context.Context, id doc.ID, kinds ...tx.Kind) ([]Entry, error) {
	ds := s.entryQuery().Where(goqu.I("o." + colEntity).Eq(id.String()))
	if len(kinds) > 0 {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = k.String()
		}
		ds = ds.Where(goqu.I("o." + colKind).In(names))
	}
	return s.entries(ctx, "history", ds)
}

// Occurrences returns every stored copy of the operation with the given
// content hash, ordered by (seq, position).
//
// Returns an empty slice (not nil) if the operation was never submitted.
func (s *Store) Occurrences(ctx context.Context, opHash string) ([]Entry, error) {
	return s.entries(ctx, "occurrences", s.entryQuery().Where(goqu.I("o."+colOpHash).Eq(opHash)))
}

// entryQuery selects operation rows joined with their transaction time.
func (s *Store) entryQuery() *goqu.SelectDataset {
	return s.sq.From(goqu.T(tableOperations).As("o")).
		Join(
			goqu.T(tableTransactions).As("t"),
			goqu.On(goqu.I("o."+colTxSeq).Eq(goqu.I("t."+colSeq))),
		).
		Select(
			goqu.I("o."+colTxSeq),
			goqu.I("o."+colPosition),
			goqu.I("t."+colTxTime),
			goqu.I("o."+colKind),
			goqu.I("o."+colEntity),
			goqu.I("o."+colOpHash),
			goqu.I("o."+colStartValid),
			goqu.I("o."+colEndValid),
			goqu.I("o."+colBody),
		).
		Order(goqu.I("o."+colTxSeq).Asc(), goqu.I("o."+colPosition).Asc())
}

func (s *Store) entries(ctx context.Context, op string, ds *goqu.SelectDataset) ([]Entry, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e          Entry
		txTime     int64
		kind       string
		start, end sql.NullInt64
		body       string
	)
	if err := rows.Scan(
		&e.Seq, &e.Position, &txTime, &kind, &e.Entity, &e.OpHash, &start, &end, &body,
	); err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	k, err := tx.ParseKind(kind)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d/%d: %w", e.Seq, e.Position, err)
	}
	op, err := unmarshalOp(body)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d/%d: %w", e.Seq, e.Position, err)
	}

	e.Kind = k
	e.TxTime = fromUnixMilli(txTime)
	e.StartValid = timeFromNull(start)
	e.EndValid = timeFromNull(end)
	e.Op = op
	return e, nil
}
