package timeline

import (
	"math"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-janus/geom"
)

func roundTrip[T any](t *testing.T, r *Registry, iterations int) {
	t.Helper()
	fns, ok := Lookup[T](r)
	require.True(t, ok)
	f := fuzz.New().NilChance(0)
	for range iterations {
		var v T
		f.Fuzz(&v)
		b, err := fns.Encode(v)
		require.NoError(t, err)
		got, err := fns.Decode(b)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestBuiltinRoundTrip(t *testing.T) {
	r := Builtins()
	t.Run("bool", func(t *testing.T) { roundTrip[bool](t, r, 10) })
	t.Run("uint8", func(t *testing.T) { roundTrip[uint8](t, r, 50) })
	t.Run("int8", func(t *testing.T) { roundTrip[int8](t, r, 50) })
	t.Run("uint16", func(t *testing.T) { roundTrip[uint16](t, r, 50) })
	t.Run("int16", func(t *testing.T) { roundTrip[int16](t, r, 50) })
	t.Run("uint32", func(t *testing.T) { roundTrip[uint32](t, r, 50) })
	t.Run("int32", func(t *testing.T) { roundTrip[int32](t, r, 50) })
	t.Run("uint64", func(t *testing.T) { roundTrip[uint64](t, r, 50) })
	t.Run("int64", func(t *testing.T) { roundTrip[int64](t, r, 50) })
	t.Run("float32", func(t *testing.T) { roundTrip[float32](t, r, 50) })
	t.Run("float64", func(t *testing.T) { roundTrip[float64](t, r, 50) })
	t.Run("string", func(t *testing.T) { roundTrip[string](t, r, 50) })
	t.Run("vec3", func(t *testing.T) { roundTrip[geom.Vec3](t, r, 50) })
	t.Run("quat", func(t *testing.T) { roundTrip[geom.Quat](t, r, 50) })
}

func TestBuiltinLayouts(t *testing.T) {
	for _, tc := range []struct {
		desc   string
		encode func() ([]byte, error)
		want   []byte
	}{
		{
			desc:   "bool",
			encode: func() ([]byte, error) { return mustLookup[bool](t).Encode(true) },
			want:   []byte{1},
		},
		{
			desc:   "int16",
			encode: func() ([]byte, error) { return mustLookup[int16](t).Encode(-2) },
			want:   []byte{0xfe, 0xff},
		},
		{
			desc:   "uint32",
			encode: func() ([]byte, error) { return mustLookup[uint32](t).Encode(0x01020304) },
			want:   []byte{4, 3, 2, 1},
		},
		{
			desc:   "float32",
			encode: func() ([]byte, error) { return mustLookup[float32](t).Encode(1) },
			want:   []byte{0, 0, 0x80, 0x3f},
		},
		{
			desc:   "float64",
			encode: func() ([]byte, error) { return mustLookup[float64](t).Encode(1) },
			want:   []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f},
		},
		{
			desc:   "string utf-16",
			encode: func() ([]byte, error) { return EncodeString("hé") },
			want:   []byte{'h', 0, 0xe9, 0},
		},
		{
			desc:   "empty string",
			encode: func() ([]byte, error) { return EncodeString("") },
			want:   []byte{},
		},
		{
			desc:   "vec3",
			encode: func() ([]byte, error) { return mustLookup[geom.Vec3](t).Encode(geom.Vec3{X: 1}) },
			want:   []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0, 0, 0, 0, 0},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := tc.encode()
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func mustLookup[T any](t *testing.T) Functions[T] {
	fns, ok := Lookup[T](Builtins())
	require.True(t, ok)
	return fns
}

func TestBuiltinDecodeErrors(t *testing.T) {
	_, err := mustLookup[int64](t).Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrShortValue)
	_, err = mustLookup[geom.Quat](t).Decode(make([]byte, 15))
	require.ErrorIs(t, err, ErrShortValue)
	_, err = DecodeString([]byte{'a'})
	require.ErrorIs(t, err, ErrShortValue)
	_, err = mustLookup[bool](t).Decode(nil)
	require.ErrorIs(t, err, ErrShortValue)
}

func TestBytesCopiedOnDecode(t *testing.T) {
	fns := mustLookup[[]byte](t)
	in := []byte{1, 2, 3}
	out, err := fns.Decode(in)
	require.NoError(t, err)
	in[0] = 9
	require.Equal(t, []byte{1, 2, 3}, out)
}

func TestSurrogatePairs(t *testing.T) {
	b, err := EncodeString("a😀")
	require.NoError(t, err)
	require.Len(t, b, 6)
	s, err := DecodeString(b)
	require.NoError(t, err)
	require.Equal(t, "a😀", s)
}

type point struct {
	X, Y int
	Name string
}

func TestUnregisteredTypeFallsBackToJSON(t *testing.T) {
	r := NewRegistry()
	_, ok := Lookup[point](r)
	require.False(t, ok)

	tl := New[point](StringID("p"), WithRegistry(r))
	fns := tl.Functions()
	b, err := fns.Encode(point{X: 1, Y: 2, Name: "a"})
	require.NoError(t, err)
	require.JSONEq(t, `{"X":1,"Y":2,"Name":"a"}`, string(b))
	got, err := fns.Decode(b)
	require.NoError(t, err)
	require.Equal(t, point{X: 1, Y: 2, Name: "a"}, got)

	// stepping
	tl.Insert(0, point{X: 1}, true)
	tl.Insert(2, point{X: 3}, true)
	require.Equal(t, point{X: 1}, tl.Get(1, true))
	require.Equal(t, point{X: 3}, tl.Get(5, true))
}

func TestRegisterPartial(t *testing.T) {
	r := NewRegistry()
	Register(r, Functions[int32]{
		Encode: func(v int32) ([]byte, error) { return []byte{byte(v)}, nil },
		Decode: func(b []byte) (int32, error) { return int32(b[0]), nil },
	})
	fns, ok := Lookup[int32](r)
	require.True(t, ok)
	require.NotNil(t, fns.Interpolate)
	require.NotNil(t, fns.Extrapolate)

	b, err := fns.Encode(300)
	require.NoError(t, err)
	require.Equal(t, []byte{44}, b)
}

func TestFloatSpecialValues(t *testing.T) {
	fns := mustLookup[float64](t)
	for _, v := range []float64{math.Inf(1), math.Inf(-1), -0, math.SmallestNonzeroFloat64} {
		b, err := fns.Encode(v)
		require.NoError(t, err)
		got, err := fns.Decode(b)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
	b, err := fns.Encode(math.NaN())
	require.NoError(t, err)
	got, err := fns.Decode(b)
	require.NoError(t, err)
	require.True(t, math.IsNaN(got))
}
