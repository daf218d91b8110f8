package timeline

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"unicode/utf16"
)

// ErrShortValue is returned by built-in decoders when the encoded value is
// shorter than the type requires.
var ErrShortValue = errors.New("timeline: encoded value too short")

type (
	// Encoder serializes a value for the wire.
	Encoder[T any] func(T) ([]byte, error)
	// Decoder is the inverse of Encoder. It must not retain b.
	Decoder[T any] func(b []byte) (T, error)
	// Interpolator computes a value between ctx.Prev and ctx.Next.
	Interpolator[T any] func(tl *Timeline[T], ctx *Context[T]) T
	// Extrapolator computes a value after ctx.Prev when there is no next entry.
	Extrapolator[T any] func(tl *Timeline[T], ctx *Context[T]) T
)

// Functions is the set of capabilities a value type needs to live on a
// timeline.
type Functions[T any] struct {
	Encode      Encoder[T]
	Decode      Decoder[T]
	Interpolate Interpolator[T]
	Extrapolate Extrapolator[T]
}

// withDefaults fills unset capabilities: JSON for the codec and stepping for
// the rest.
func (f Functions[T]) withDefaults() Functions[T] {
	if f.Encode == nil {
		f.Encode = encodeJSON[T]
	}
	if f.Decode == nil {
		f.Decode = decodeJSON[T]
	}
	if f.Interpolate == nil {
		f.Interpolate = Stepping[T]
	}
	if f.Extrapolate == nil {
		f.Extrapolate = Stepping[T]
	}
	return f
}

// Registry maps value types to their Functions. Types must be registered
// before the first timeline of that type is created from the registry.
type Registry struct {
	mu    sync.RWMutex
	funcs map[reflect.Type]any
}

func NewRegistry() *Registry {
	return &Registry{funcs: map[reflect.Type]any{}}
}

var (
	builtinsOnce sync.Once
	builtins     *Registry
)

// Builtins returns the process wide registry pre-populated with the scalar,
// string, byte slice and geometry types. It is created on first use.
func Builtins() *Registry {
	builtinsOnce.Do(func() {
		builtins = NewRegistry()
		RegisterBuiltins(builtins)
		RegisterGeometry(builtins)
	})
	return builtins
}

// Register sets the functions used for timelines of type T. Missing
// capabilities fall back to JSON encoding and stepping.
func Register[T any](r *Registry, fns Functions[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[reflect.TypeFor[T]()] = fns.withDefaults()
}

// Lookup returns the functions registered for T.
func Lookup[T any](r *Registry) (Functions[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns, ok := r.funcs[reflect.TypeFor[T]()]
	if !ok {
		return Functions[T]{}, false
	}
	return fns.(Functions[T]), true
}

func resolve[T any](r *Registry) Functions[T] {
	if r != nil {
		if fns, ok := Lookup[T](r); ok {
			return fns
		}
	}
	return Functions[T]{}.withDefaults()
}

// RegisterBuiltins registers the built-in value types into r.
func RegisterBuiltins(r *Registry) {
	Register(r, Functions[bool]{
		Encode: func(v bool) ([]byte, error) {
			if v {
				return []byte{1}, nil
			}
			return []byte{0}, nil
		},
		Decode: func(b []byte) (bool, error) {
			if len(b) < 1 {
				return false, short[bool](b, 1)
			}
			return b[0] != 0, nil
		},
	})
	Register(r, Functions[uint8]{
		Encode: func(v uint8) ([]byte, error) { return []byte{v}, nil },
		Decode: func(b []byte) (uint8, error) {
			if len(b) < 1 {
				return 0, short[uint8](b, 1)
			}
			return b[0], nil
		},
	})
	Register(r, Functions[int8]{
		Encode: func(v int8) ([]byte, error) { return []byte{byte(v)}, nil },
		Decode: func(b []byte) (int8, error) {
			if len(b) < 1 {
				return 0, short[int8](b, 1)
			}
			return int8(b[0]), nil
		},
	})
	Register(r, Functions[uint16]{Encode: encodeU16[uint16], Decode: decodeU16[uint16]})
	Register(r, Functions[int16]{Encode: encodeU16[int16], Decode: decodeU16[int16]})
	Register(r, Functions[uint32]{Encode: encodeU32[uint32], Decode: decodeU32[uint32]})
	Register(r, Functions[int32]{Encode: encodeU32[int32], Decode: decodeU32[int32]})
	Register(r, Functions[uint64]{Encode: encodeU64[uint64], Decode: decodeU64[uint64]})
	Register(r, Functions[int64]{Encode: encodeU64[int64], Decode: decodeU64[int64]})
	Register(r, Functions[float32]{
		Encode: func(v float32) ([]byte, error) {
			return binary.LittleEndian.AppendUint32(nil, math.Float32bits(v)), nil
		},
		Decode: func(b []byte) (float32, error) {
			if len(b) < 4 {
				return 0, short[float32](b, 4)
			}
			return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
		},
		Interpolate: BuildLinearInterpolator(addNumber[float32], scaleNumber[float32]),
	})
	Register(r, Functions[float64]{
		Encode: func(v float64) ([]byte, error) {
			return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)), nil
		},
		Decode: func(b []byte) (float64, error) {
			if len(b) < 8 {
				return 0, short[float64](b, 8)
			}
			return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
		},
		Interpolate: BuildLinearInterpolator(addNumber[float64], scaleNumber[float64]),
	})
	Register(r, Functions[string]{Encode: EncodeString, Decode: DecodeString})
	Register(r, Functions[[]byte]{
		Encode: func(v []byte) ([]byte, error) { return v, nil },
		Decode: func(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil },
	})
}

func short[T any](b []byte, n int) error {
	return fmt.Errorf("%w: %v needs %d bytes, got %d", ErrShortValue, reflect.TypeFor[T](), n, len(b))
}

func encodeU16[T ~uint16 | ~int16](v T) ([]byte, error) {
	return binary.LittleEndian.AppendUint16(nil, uint16(v)), nil
}

func decodeU16[T ~uint16 | ~int16](b []byte) (T, error) {
	if len(b) < 2 {
		return 0, short[T](b, 2)
	}
	return T(binary.LittleEndian.Uint16(b)), nil
}

func encodeU32[T ~uint32 | ~int32](v T) ([]byte, error) {
	return binary.LittleEndian.AppendUint32(nil, uint32(v)), nil
}

func decodeU32[T ~uint32 | ~int32](b []byte) (T, error) {
	if len(b) < 4 {
		return 0, short[T](b, 4)
	}
	return T(binary.LittleEndian.Uint32(b)), nil
}

func encodeU64[T ~uint64 | ~int64](v T) ([]byte, error) {
	return binary.LittleEndian.AppendUint64(nil, uint64(v)), nil
}

func decodeU64[T ~uint64 | ~int64](b []byte) (T, error) {
	if len(b) < 8 {
		return 0, short[T](b, 8)
	}
	return T(binary.LittleEndian.Uint64(b)), nil
}

// EncodeString encodes s as UTF-16LE code units without a terminator.
func EncodeString(s string) ([]byte, error) {
	units := utf16.Encode([]rune(s))
	b := make([]byte, 0, 2*len(units))
	for _, u := range units {
		b = binary.LittleEndian.AppendUint16(b, u)
	}
	return b, nil
}

// DecodeString decodes UTF-16LE code units.
func DecodeString(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", fmt.Errorf("%w: odd length utf-16 string (%d bytes)", ErrShortValue, len(b))
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units)), nil
}

func encodeJSON[T any](v T) ([]byte, error) {
	return json.Marshal(v)
}

func decodeJSON[T any](b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

func appendFloat32s(b []byte, fs ...float32) []byte {
	for _, f := range fs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

func readFloat32s[T any](b []byte, n int) ([]float32, error) {
	if len(b) < 4*n {
		return nil, short[T](b, 4*n)
	}
	fs := make([]float32, n)
	for i := range fs {
		fs[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return fs, nil
}
