package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/testutil"
	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txlog"
	"github.com/roach88/cruxtx/internal/vt"
)

func TestReadTx_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	log := testutil.SampleLog()

	receipt, err := s.Submit(ctx, log)
	require.NoError(t, err)

	got, err := s.ReadTx(ctx, receipt.Seq)
	require.NoError(t, err)
	assert.Equal(t, receipt.Seq, got.Seq)
	assert.Equal(t, log.Hash(), got.Hash)
	assert.Equal(t, receipt.TxTime, got.TxTime)
	assert.True(t, log.Equal(got.Log))
}

func TestReadTx_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadTx(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReadTx_DetectsTamperedBody(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, testutil.PutLog(testutil.Ivan, "Ivan", testutil.Jan1, vt.None()))
	require.NoError(t, err)
	other := testutil.PutLog(testutil.Ivan, "Ivan the Terrible", testutil.Jan1, vt.None())
	body, err := marshalLog(other)
	require.NoError(t, err)
	_, err = s.db.Exec("UPDATE transactions SET body = ? WHERE seq = 1", body)
	require.NoError(t, err)

	_, err = s.ReadTx(ctx, 1)
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestLatest_Empty(t *testing.T) {
	s := createTestStore(t)
	latest, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest)
}

func TestHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, testutil.SampleLog())
	require.NoError(t, err)
	second, err := txlog.Of(tx.Must(tx.NewDelete(testutil.Ivan, testutil.Jun1, vt.None())))
	require.NoError(t, err)
	_, err = s.Submit(ctx, second)
	require.NoError(t, err)

	entries, err := s.History(ctx, testutil.Ivan)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []tx.Kind{tx.KindPut, tx.KindMatch, tx.KindDelete},
		[]tx.Kind{entries[0].Kind, entries[1].Kind, entries[2].Kind})
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, 0, entries[0].Position)
	assert.Equal(t, int64(2), entries[2].Seq)
	assert.Equal(t, testutil.Jan1, entries[0].StartValid)
	assert.Equal(t, testutil.Jun1, entries[0].EndValid)
	assert.Equal(t, testutil.Jun1, entries[2].StartValid)
	assert.False(t, entries[2].EndValid.Present())
	assert.True(t, entries[0].Op.Equal(testutil.SampleOps()[0]))
	assert.Equal(t, ":person/ivan", entries[0].Entity)
	assert.Equal(t, entries[0].Op.Hash(), entries[0].OpHash)
}

func TestHistory_KindFilter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, testutil.SampleLog())
	require.NoError(t, err)

	entries, err := s.History(ctx, testutil.Ivan, tx.KindMatch)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, tx.KindMatch, entries[0].Kind)

	entries, err = s.History(ctx, testutil.Ivan, tx.KindPut, tx.KindEvict)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, tx.KindPut, entries[0].Kind)
}

func TestHistory_Unknown(t *testing.T) {
	s := createTestStore(t)

	entries, err := s.History(context.Background(), doc.Keyword("nobody"))
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestHistory_IntAndStringIdentitiesAreDistinct(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	log, err := txlog.Of(
		tx.Must(tx.NewEvict(doc.Int(7))),
		tx.Must(tx.NewEvict(doc.String("7"))),
	)
	require.NoError(t, err)
	_, err = s.Submit(ctx, log)
	require.NoError(t, err)

	tests := []struct {
		id       doc.ID
		position int
	}{
		{doc.Int(7), 0},
		{doc.String("7"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			entries, err := s.History(ctx, tt.id)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.position, entries[0].Position)
			assert.Equal(t, tt.id, entries[0].Op.(tx.Evict).ID())

			parsed, err := doc.ParseID(entries[0].Entity)
			require.NoError(t, err)
			assert.Equal(t, tt.id, parsed)
		})
	}
}

func TestOccurrences(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	evict := tx.Must(tx.NewEvict(doc.String("legacy-42")))
	_, err := s.Submit(ctx, testutil.SampleLog())
	require.NoError(t, err)
	second, err := txlog.Of(tx.Must(tx.NewEvict(doc.String("legacy-7"))), evict)
	require.NoError(t, err)
	_, err = s.Submit(ctx, second)
	require.NoError(t, err)

	entries, err := s.Occurrences(ctx, evict.Hash())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, 4, entries[0].Position)
	assert.Equal(t, int64(2), entries[1].Seq)
	assert.Equal(t, 1, entries[1].Position)
	for _, e := range entries {
		assert.Equal(t, evict.Hash(), e.OpHash)
		assert.True(t, evict.Equal(e.Op))
	}

	none, err := s.Occurrences(ctx, "0000")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
