package host

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// faulty fails every equality check.
type faulty struct{ id int }

func (f *faulty) Hash() (uint64, error) { return 42, nil }

func (f *faulty) Equal(Object) (bool, error) { return false, errors.New("eq failed") }

func TestSame(t *testing.T) {
	a, b := NewBox(1), NewBox(1)
	assert.True(t, Same(a, a))
	assert.False(t, Same(a, b))
	assert.True(t, Same(nil, nil))
	assert.False(t, Same(a, nil))
	assert.True(t, Same(Str("x"), Str("x")))

	// Non-comparable dynamic types never panic.
	l := Unhashable{Int(1)}
	assert.False(t, Same(l, l))
}

func TestEqual(t *testing.T) {
	eq, err := Equal(Int(3), Float(3))
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = Equal(Str("a"), Int(1))
	require.NoError(t, err)
	assert.False(t, eq)

	eq, err = Equal(Unhashable{Int(1), Str("b")}, Unhashable{Int(1), Str("b")})
	require.NoError(t, err)
	assert.True(t, eq)

	f := &faulty{}
	eq, err = Equal(f, f)
	require.NoError(t, err, "identity short-circuits equality")
	assert.True(t, eq)

	_, err = Equal(f, &faulty{})
	assert.Error(t, err)
}

func TestEqual_IntFloatExact(t *testing.T) {
	const big = 1 << 53
	tests := []struct {
		name string
		i    Int
		f    Float
		want bool
	}{
		{"small integral", 7, 7, true},
		{"fraction", 7, 7.5, false},
		{"2^53", big, big, true},
		{"2^53+1 vs rounded float", big + 1, big, false},
		{"negative", -12, -12, true},
		{"2^63 out of range", math.MaxInt64, Float(math.MaxInt64), false},
		{"NaN", 0, Float(math.NaN()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq, err := Equal(tt.i, tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eq)
			eq, err = Equal(tt.f, tt.i)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eq, "equality is symmetric")

			if eq {
				hi, err := Hash(tt.i)
				require.NoError(t, err)
				hf, err := Hash(tt.f)
				require.NoError(t, err)
				assert.Equal(t, hi, hf, "equal numbers hash alike")
			}
		})
	}
}

func TestHash(t *testing.T) {
	h1, err := Hash(Int(10))
	require.NoError(t, err)
	h2, err := Hash(Float(10))
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "equal numbers hash alike")

	_, err = Hash(Unhashable{})
	assert.ErrorIs(t, err, ErrUnhashable)

	_, err = Hash(nil)
	assert.ErrorIs(t, err, ErrUnhashable)
}

func TestRefCounting(t *testing.T) {
	b := NewBox("v")
	IncRef(b)
	assert.Equal(t, int64(2), b.Refs())
	DecRef(b)
	assert.Equal(t, int64(1), b.Refs())

	// Non-refcounted and nil values are ignored.
	IncRef(Str("x"))
	var nilBox *Box
	IncRef(nilBox)
	DecRef(nil)
}

func TestHasher_FallsBackToIdentity(t *testing.T) {
	var h Hasher
	f, g := &faulty{1}, &faulty{2}
	assert.True(t, h.Equal(f, f))
	assert.False(t, h.Equal(f, g))
	assert.True(t, h.Equal(Str("k"), Str("k")))
}
