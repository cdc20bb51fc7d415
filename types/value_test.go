package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueRoundTrip(t *testing.T) {
	values := []Value{
		Null(),
		Integer(0),
		Integer(-42),
		Integer(1 << 60),
		Real(3.25),
		Real(-0.001),
		Text(""),
		Text("héllo wörld"),
		Blob(nil),
		Blob([]byte{0, 1, 2, 255}),
		Boolean(true),
		Boolean(false),
		Timestamp(1735689600),
	}
	for _, v := range values {
		encoded := v.AppendTo(nil)
		require.Len(t, encoded, v.Size(), "Size must match encoded length for %s", v)

		decoded, n, err := DecodeValue(encoded)
		require.NoError(t, err)
		require.Equal(t, len(encoded), n)
		require.Equal(t, v.Type(), decoded.Type())
		require.True(t, v.Equal(decoded) || (v.IsNull() && decoded.IsNull()),
			"round trip changed %s", v)
	}
}

func TestValueDecodeConsumesExactly(t *testing.T) {
	// Two values back to back; each decode must report its own length.
	buf := Integer(7).AppendTo(nil)
	buf = Text("tail").AppendTo(buf)

	first, n, err := DecodeValue(buf)
	require.NoError(t, err)
	require.Equal(t, int64(7), first.Int())

	second, _, err := DecodeValue(buf[n:])
	require.NoError(t, err)
	require.Equal(t, "tail", second.Str())
}

func TestValueDecodeErrors(t *testing.T) {
	cases := [][]byte{
		{},                      // empty
		{byte(TypeInteger), 1},  // truncated int64
		{byte(TypeText), 4, 0, 0, 0, 'a'}, // length says 4, one byte present
		{200},                   // unknown discriminant
	}
	for _, raw := range cases {
		_, _, err := DecodeValue(raw)
		require.ErrorIs(t, err, ErrSerialization)
	}
}

func TestValueCompareNullFirst(t *testing.T) {
	others := []Value{Integer(-1000), Real(0), Text(""), Blob(nil), Boolean(false), Timestamp(0)}
	for _, v := range others {
		cmp, ok := Null().Compare(v)
		require.True(t, ok)
		require.Equal(t, -1, cmp)

		cmp, ok = v.Compare(Null())
		require.True(t, ok)
		require.Equal(t, 1, cmp)
	}
	cmp, ok := Null().Compare(Null())
	require.True(t, ok)
	require.Zero(t, cmp)
}

func TestValueCompareCrossNumeric(t *testing.T) {
	cmp, ok := Integer(2).Compare(Real(2.5))
	require.True(t, ok)
	require.Equal(t, -1, cmp)

	cmp, ok = Real(3.0).Compare(Integer(3))
	require.True(t, ok)
	require.Zero(t, cmp)

	require.True(t, Integer(1).Equal(Real(1.0)))
}

func TestValueCompareUndefinedPairs(t *testing.T) {
	_, ok := Text("a").Compare(Blob([]byte("a")))
	require.False(t, ok)

	_, ok = Text("1").Compare(Integer(1))
	require.False(t, ok)
}

func TestValueTextOrdering(t *testing.T) {
	cmp, ok := Text("apple").Compare(Text("banana"))
	require.True(t, ok)
	require.Equal(t, -1, cmp)
}

func TestValueDecodeRejectsInvalidUTF8(t *testing.T) {
	raw := []byte{byte(TypeText), 2, 0, 0, 0, 0xff, 0xfe}
	_, _, err := DecodeValue(raw)
	require.ErrorIs(t, err, ErrSerialization)
}
