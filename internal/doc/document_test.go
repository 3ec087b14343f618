package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cruxtx/internal/ir"
)

func TestNewDocument(t *testing.T) {
	payload := ir.IRObject{"name": ir.IRString("Ivan"), "age": ir.IRInt(30)}

	d, err := New(Keyword("person/ivan"), payload)
	require.NoError(t, err)

	assert.Equal(t, Keyword("person/ivan"), d.ID())
	assert.Equal(t, payload, d.Payload())
	assert.Len(t, d.Hash(), 64)
	assert.False(t, d.IsZero())
}

func TestNewDocumentRejects(t *testing.T) {
	_, err := New(ID{}, ir.IRObject{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity")

	_, err = New(Keyword("a"), ir.IRObject{"x": ir.IRNull{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null")
}

func TestNilPayloadIsEmpty(t *testing.T) {
	d, err := New(String("a"), nil)
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{}, d.Payload())
	assert.True(t, d.Equal(MustNew(String("a"), ir.IRObject{})))
}

func TestDocumentIsImmutable(t *testing.T) {
	payload := ir.IRObject{"tags": ir.IRArray{ir.IRString("a")}}
	d := MustNew(String("x"), payload)
	before := d.Hash()

	payload["tags"] = ir.IRArray{ir.IRString("b")}
	out := d.Payload()
	out["extra"] = ir.IRBool(true)

	assert.Equal(t, ir.IRObject{"tags": ir.IRArray{ir.IRString("a")}}, d.Payload())
	assert.Equal(t, before, d.Hash())
}

func TestDocumentEquality(t *testing.T) {
	a := MustNew(Keyword("p"), ir.IRObject{"n": ir.IRInt(1), "s": ir.IRString("x")})
	b := MustNew(Keyword("p"), ir.IRObject{"s": ir.IRString("x"), "n": ir.IRInt(1)})
	otherID := MustNew(Keyword("q"), ir.IRObject{"n": ir.IRInt(1), "s": ir.IRString("x")})
	otherPayload := MustNew(Keyword("p"), ir.IRObject{"n": ir.IRInt(2), "s": ir.IRString("x")})

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(otherID))
	assert.False(t, a.Equal(otherPayload))
}

func TestDocumentIRRoundTrip(t *testing.T) {
	d := MustNew(Int(7), ir.IRObject{"nested": ir.IRObject{"k": ir.IRArray{ir.IRInt(1)}}})

	back, err := FromIR(d.IR())
	require.NoError(t, err)
	assert.True(t, d.Equal(back))

	_, err = FromIR(ir.IRString("nope"))
	assert.Error(t, err)
	_, err = FromIR(ir.IRObject{"id": Int(7).IR(), "payload": ir.IRString("x")})
	assert.Error(t, err)
}

func TestDocumentString(t *testing.T) {
	assert.Equal(t, "<no document>", Document{}.String())
	d := MustNew(Keyword("p"), nil)
	assert.Equal(t, ":p@"+d.Hash()[:12], d.String())
}

func TestNewDocumentNormalizesPayload(t *testing.T) {
	nfd := MustNew(String("cafe\u0301"), ir.IRObject{"cafe\u0301": ir.IRArray{ir.IRString("e\u0301")}})
	nfc := MustNew(String("caf\u00e9"), ir.IRObject{"caf\u00e9": ir.IRArray{ir.IRString("\u00e9")}})

	assert.True(t, nfd.Equal(nfc))
	assert.Equal(t, nfc.ID(), nfd.ID())
	assert.Equal(t, nfc.Payload(), nfd.Payload())
}

func TestNewDocumentRejectsCollidingKeys(t *testing.T) {
	_, err := New(Keyword("a"), ir.IRObject{"\u00e9": ir.IRInt(1), "e\u0301": ir.IRInt(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collide")
}
