package tx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/ir"
	"github.com/roach88/cruxtx/internal/vt"
)

var (
	ivanID  = doc.Keyword("person/ivan")
	ivanDoc = doc.MustNew(ivanID, ir.IRObject{"name": ir.IRString("Ivan")})
	jan1    = vt.Date(2024, 1, 1)
	jun1    = vt.Date(2024, 6, 1)
)

func TestNewPutAccessors(t *testing.T) {
	put, err := NewPut(ivanDoc, jan1, jun1)
	require.NoError(t, err)

	assert.Equal(t, KindPut, put.Kind())
	assert.True(t, put.Document().Equal(ivanDoc))
	assert.Equal(t, jan1, put.StartValid())
	assert.Equal(t, jun1, put.EndValid())
	assert.Equal(t, vt.Window{Start: jan1, End: jun1}, put.Window())
	assert.Len(t, put.Hash(), 64)
}

func TestNewPutOptionalBounds(t *testing.T) {
	put, err := NewPut(ivanDoc, vt.None(), vt.None())
	require.NoError(t, err)
	assert.False(t, put.StartValid().Present())
	assert.False(t, put.EndValid().Present())

	onlyStart, err := NewPut(ivanDoc, jun1, vt.None())
	require.NoError(t, err)
	assert.False(t, put.Equal(onlyStart))
}

func TestTemporalRangeRejected(t *testing.T) {
	tests := []struct {
		name       string
		start, end vt.Time
	}{
		{"reversed", jun1, jan1},
		{"empty", jan1, jan1},
	}

	for _, tt := range tests {
		t.Run("put/"+tt.name, func(t *testing.T) {
			_, err := NewPut(ivanDoc, tt.start, tt.end)
			require.Error(t, err)
			assert.True(t, IsInvalidTemporalRange(err))
			assert.ErrorIs(t, err, ErrInvalidTemporalRange)
		})
		t.Run("delete/"+tt.name, func(t *testing.T) {
			_, err := NewDelete(ivanID, tt.start, tt.end)
			require.Error(t, err)
			assert.True(t, IsInvalidTemporalRange(err))
		})
	}
}

func TestTemporalRangeErrorMessage(t *testing.T) {
	_, err := NewPut(ivanDoc, jun1, jan1)
	require.Error(t, err)

	var txErr *Error
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, KindPut, txErr.Kind)
	assert.Equal(t, ":person/ivan", txErr.Identity)
	assert.Contains(t, err.Error(), "2024-06-01T00:00:00.000Z")
	assert.Contains(t, err.Error(), "op=put")
}

func TestMissingIdentity(t *testing.T) {
	_, err := NewPut(doc.Document{}, vt.None(), vt.None())
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = NewDelete(doc.ID{}, vt.None(), vt.None())
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = NewMatchAbsent(doc.ID{}, vt.None())
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = NewMatch(ivanID, doc.Document{}, vt.None())
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = NewEvict(doc.ID{})
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = NewFn(doc.ID{})
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestMatch(t *testing.T) {
	m, err := NewMatch(ivanID, ivanDoc, jan1)
	require.NoError(t, err)

	expected, ok := m.Expected()
	assert.True(t, ok)
	assert.True(t, expected.Equal(ivanDoc))
	assert.Equal(t, jan1, m.AsOf())
	assert.Equal(t, ivanID, m.ID())

	absent, err := NewMatchAbsent(ivanID, jan1)
	require.NoError(t, err)
	_, ok = absent.Expected()
	assert.False(t, ok)
	assert.False(t, m.Equal(absent))
	assert.NotEqual(t, m.Hash(), absent.Hash())
}

func TestMatchIdentityMismatch(t *testing.T) {
	_, err := NewMatch(doc.Keyword("person/petr"), ivanDoc, vt.None())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentityMismatch)
	assert.Equal(t, ErrCodeIdentityMismatch, CodeOf(err))
}

func TestFnArgs(t *testing.T) {
	args := ir.IRArray{ir.IRString("a"), ir.IRObject{"n": ir.IRInt(1)}}
	fn, err := NewFn(doc.Keyword("fn/incr"), args...)
	require.NoError(t, err)

	assert.Equal(t, args, fn.Args())
	assert.Equal(t, doc.Keyword("fn/incr"), fn.FnID())

	// Mutating the caller's values or the returned copy leaves the op intact.
	args[1].(ir.IRObject)["n"] = ir.IRInt(2)
	out := fn.Args()
	out[0] = ir.IRString("changed")
	assert.Equal(t, ir.IRArray{ir.IRString("a"), ir.IRObject{"n": ir.IRInt(1)}}, fn.Args())
}

func TestFnRejectsNonCanonicalArgs(t *testing.T) {
	_, err := NewFn(doc.Keyword("fn/incr"), ir.IRNull{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "argument 0")

	_, err = NewFn(doc.Keyword("fn/incr"), ir.IRInt(1), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFnWithoutArgsEqualsEmptyArgs(t *testing.T) {
	a := Must(NewFn(doc.Keyword("fn/noop")))
	b := Must(NewFn(doc.Keyword("fn/noop"), ir.IRArray{}...))
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestStructuralEquality(t *testing.T) {
	build := func() []Op {
		return []Op{
			Must(NewPut(doc.MustNew(ivanID, ir.IRObject{"name": ir.IRString("Ivan")}), jan1, jun1)),
			Must(NewDelete(ivanID, jan1, vt.None())),
			Must(NewMatch(ivanID, ivanDoc, jun1)),
			Must(NewMatchAbsent(ivanID, vt.None())),
			Must(NewEvict(ivanID)),
			Must(NewFn(doc.Keyword("fn/incr"), ir.IRString("a"), ir.IRInt(1))),
		}
	}

	left, right := build(), build()
	for i := range left {
		t.Run(left[i].Kind().String(), func(t *testing.T) {
			assert.True(t, left[i].Equal(right[i]))
			assert.True(t, Equal(left[i], right[i]))
			assert.Equal(t, left[i].Hash(), right[i].Hash())
		})
	}

	for i := range left {
		for j := range left {
			if i == j {
				continue
			}
			assert.False(t, left[i].Equal(right[j]), "%d vs %d", i, j)
			assert.NotEqual(t, left[i].Hash(), right[j].Hash(), "%d vs %d", i, j)
		}
	}
}

func TestCrossVariantSameFields(t *testing.T) {
	del := Must(NewDelete(ivanID, vt.None(), vt.None()))
	evict := Must(NewEvict(ivanID))
	match := Must(NewMatchAbsent(ivanID, vt.None()))

	// All three carry only {"id": ...}; the discriminator keeps them apart.
	assert.Equal(t, Accept[ir.IRObject](del, FieldEncoder{}), Accept[ir.IRObject](evict, FieldEncoder{}))
	assert.False(t, del.Equal(evict))
	assert.False(t, evict.Equal(match))
	assert.NotEqual(t, del.Hash(), evict.Hash())
	assert.NotEqual(t, evict.Hash(), match.Hash())
	assert.NotEqual(t, del.Hash(), match.Hash())
}

func TestEqualNil(t *testing.T) {
	evict := Must(NewEvict(ivanID))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(evict, nil))
	assert.False(t, Equal(nil, evict))
}

func TestDedupe(t *testing.T) {
	a := Must(NewEvict(ivanID))
	b := Must(NewDelete(ivanID, jan1, vt.None()))
	a2 := Must(NewEvict(ivanID))

	out := Dedupe([]Op{a, b, a2, b})
	require.Len(t, out, 2)
	assert.True(t, out[0].Equal(a))
	assert.True(t, out[1].Equal(b))
}

func TestUnicodeFormsAgreeOnEqualAndHash(t *testing.T) {
	tests := []struct {
		name     string
		nfd, nfc Op
	}{
		{
			"delete",
			Must(NewDelete(doc.String("cafe\u0301"), vt.None(), vt.None())),
			Must(NewDelete(doc.String("caf\u00e9"), vt.None(), vt.None())),
		},
		{
			"evict keyword",
			Must(NewEvict(doc.Keyword("k/e\u0301"))),
			Must(NewEvict(doc.Keyword("k/\u00e9"))),
		},
		{
			"fn args",
			Must(NewFn(doc.Keyword("fn/f"), ir.IRString("e\u0301"), ir.IRObject{"e\u0301": ir.IRInt(1)})),
			Must(NewFn(doc.Keyword("fn/f"), ir.IRString("\u00e9"), ir.IRObject{"\u00e9": ir.IRInt(1)})),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.nfd.Equal(tt.nfc))
			assert.Equal(t, tt.nfc.Hash(), tt.nfd.Hash())
			assert.Len(t, Dedupe([]Op{tt.nfd, tt.nfc}), 1)
		})
	}
}

func TestDedupeKeepsDistinctOps(t *testing.T) {
	// Dedupe keys on Hash; ops that differ must never collapse.
	a := Must(NewDelete(doc.String("e"), vt.None(), vt.None()))
	b := Must(NewDelete(doc.String("\u00e9"), vt.None(), vt.None()))
	require.False(t, a.Equal(b))
	assert.Len(t, Dedupe([]Op{a, b}), 2)
}

func TestFnRejectsCollidingArgumentKeys(t *testing.T) {
	_, err := NewFn(doc.Keyword("fn/f"), ir.IRObject{"\u00e9": ir.IRInt(1), "e\u0301": ir.IRInt(2)})
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeInvalidArgument))
}

func TestKindStrings(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("upsert")
	assert.Error(t, err)
	assert.Equal(t, "kind(0)", Kind(0).String())
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{
		Code:      ErrCodeConflictingIdentity,
		Message:   "overlapping windows",
		Identity:  ":person/ivan",
		Positions: []int{0, 2},
	}
	assert.Equal(t, "CONFLICTING_IDENTITY: overlapping windows (id=:person/ivan, positions=0,2)", err.Error())
	assert.Equal(t, "EMPTY_TRANSACTION", (&Error{Code: ErrCodeEmptyTransaction}).Error())
}

func TestErrorIsThroughWrapping(t *testing.T) {
	_, err := NewPut(ivanDoc, jun1, jan1)
	wrapped := errors.Join(errors.New("submitting"), err)

	assert.ErrorIs(t, wrapped, ErrInvalidTemporalRange)
	assert.NotErrorIs(t, wrapped, ErrConflictingIdentity)
	assert.False(t, IsCode(nil, ErrCodeInvalidTemporalRange))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}
