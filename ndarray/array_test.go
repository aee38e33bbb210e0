package ndarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndValues(t *testing.T) {
	a, err := New([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, Float64, a.DType())
	assert.Equal(t, []int{2, 3}, a.Shape())
	assert.Equal(t, 48, a.NBytes())

	values, err := Values[float64](a)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, values)

	_, err = Values[int32](a)
	assert.ErrorIs(t, err, ErrDType)

	_, err = New([]float64{1, 2, 3}, 2, 2)
	assert.ErrorIs(t, err, ErrShape)
}

func TestPlatformInts(t *testing.T) {
	a, err := New([]int{-1, 0, 7})
	require.NoError(t, err)
	assert.Equal(t, Int64, a.DType())
	values, err := Values[int](a)
	require.NoError(t, err)
	assert.Equal(t, []int{-1, 0, 7}, values)
}

func TestAsType(t *testing.T) {
	a := MustNew([]int32{1, -2, 3})
	f := a.AsType(Float64)
	assert.Equal(t, []float64{1, -2, 3}, f.Float64s())
	back := f.AsType(Int16)
	values, err := Values[int16](back)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, -2, 3}, values)
	assert.Same(t, a, a.AsType(Int32))
}

func TestFromValue(t *testing.T) {
	var testCases = []struct {
		description string
		input       any
		shape       []int
		dtype       DType
		hasError    bool
	}{
		{description: "flat float64", input: []float64{1, 2}, shape: []int{2}, dtype: Float64},
		{description: "nested int32", input: [][]int32{{1, 2, 3}, {4, 5, 6}}, shape: []int{2, 3}, dtype: Int32},
		{description: "3d float32", input: [][][]float32{{{1}, {2}}}, shape: []int{1, 2, 1}, dtype: Float32},
		{description: "go array", input: [2][2]uint16{{1, 2}, {3, 4}}, shape: []int{2, 2}, dtype: Uint16},
		{description: "interface rows", input: []any{[]float64{1, 2}, []float64{3, 4}}, shape: []int{2, 2}, dtype: Float64},
		{description: "ragged", input: [][]float64{{1, 2}, {3}}, hasError: true},
		{description: "strings", input: []string{"a"}, hasError: true},
		{description: "scalar", input: 3.5, hasError: true},
		{description: "nil", input: nil, hasError: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			actual, err := FromValue(testCase.input)
			if testCase.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.shape, actual.Shape())
			assert.Equal(t, testCase.dtype, actual.DType())
		})
	}
}

func TestFromValueKeepsOrder(t *testing.T) {
	a, err := FromValue([][]int64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	values, err := Values[int64](a)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, values)
}

func TestConcat(t *testing.T) {
	a := MustNew([]float64{1, 2, 3, 4}, 2, 2)
	b := MustNew([]float64{5, 6}, 2, 1)

	joined, err := Concat(a, b, -1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, joined.Shape())
	assert.Equal(t, []float64{1, 2, 5, 3, 4, 6}, joined.Float64s())

	c := MustNew([]float64{7, 8}, 1, 2)
	joined, err = Concat(a, c, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, joined.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 7, 8}, joined.Float64s())

	_, err = Concat(a, b, 0)
	assert.ErrorIs(t, err, ErrShape)
	_, err = Concat(a, MustNew([]int64{1, 2}, 2, 1), 1)
	assert.ErrorIs(t, err, ErrDType)
}

func TestRegion(t *testing.T) {
	a := MustNew([]int64{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	}, 3, 4)
	sub, err := a.Region([]int{1, 1}, []int{2, 2})
	require.NoError(t, err)
	values, _ := Values[int64](sub)
	assert.Equal(t, []int64{5, 6, 9, 10}, values)

	require.NoError(t, a.SetRegion([]int{0, 2}, MustNew([]int64{-1, -2}, 1, 2)))
	values, _ = Values[int64](a)
	assert.Equal(t, []int64{0, 1, -1, -2}, values[:4])

	_, err = a.Region([]int{2, 2}, []int{2, 2})
	assert.ErrorIs(t, err, ErrSelection)
}
