package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/arrayfile/ndarray"
)

func arange(n int, shape ...int) *ndarray.Array {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	return ndarray.MustNew(values, shape...)
}

func TestDataset_WriteReadSlab(t *testing.T) {
	var testCases = []struct {
		description string
		codec       Codec
	}{
		{description: "raw chunks", codec: CodecNone},
		{description: "zstd chunks", codec: CodecZstd},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			ctx := context.Background()
			f, filePath := openTemp(t, ModeCreate)
			_, err := f.CreateDataset(ctx, "/g/data", Header{
				DType: ndarray.Float64, Shape: []int{5, 4}, MaxShape: []int{5, 4}, Chunk: []int{2, 3}, Codec: testCase.codec,
			})
			require.NoError(t, err)

			zeros, err := f.Read(ctx, "/g/data")
			require.NoError(t, err)
			assert.True(t, zeros.Equal(ndarray.Zeros(ndarray.Float64, 5, 4)))

			require.NoError(t, f.WriteSlab(ctx, "/g/data", []int{0, 0}, arange(20, 5, 4)))
			require.NoError(t, f.Close())

			f, err = Open(ctx, filePath, ModeRead, DefaultOptions())
			require.NoError(t, err)
			defer f.Close()
			all, err := f.Read(ctx, "g/data")
			require.NoError(t, err)
			assert.True(t, all.Equal(arange(20, 5, 4)), all.String())
			assert.Equal(t, uint64(6), f.Stats().ChunksRead)

			part, err := f.ReadSlab(ctx, "/g/data", []int{1, 1}, []int{3, 2})
			require.NoError(t, err)
			assert.Equal(t, []float64{5, 6, 9, 10, 13, 14}, part.Float64s())

			_, err = f.ReadSlab(ctx, "/g/data", []int{4, 0}, []int{2, 1})
			assert.ErrorIs(t, err, ErrOutOfBounds)
		})
	}
}

func TestDataset_PartialWriteKeepsNeighbours(t *testing.T) {
	ctx := context.Background()
	f, _ := openTemp(t, ModeCreate)
	_, err := f.CreateDataset(ctx, "/d", Header{DType: ndarray.Int32, Shape: []int{4}, MaxShape: []int{4}, Chunk: []int{4}})
	require.NoError(t, err)
	require.NoError(t, f.WriteSlab(ctx, "/d", []int{0}, ndarray.MustNew([]int32{1, 2, 3, 4}, 4)))
	require.NoError(t, f.WriteSlab(ctx, "/d", []int{1}, ndarray.MustNew([]float64{9.7, 8.2}, 2)))
	got, err := f.Read(ctx, "/d")
	require.NoError(t, err)
	values, err := ndarray.Values[int32](got)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 9, 8, 4}, values)
	assert.Equal(t, uint64(2), f.Stats().ChunksWritten)
}

func TestDataset_Resize(t *testing.T) {
	ctx := context.Background()
	f, _ := openTemp(t, ModeCreate)
	_, err := f.CreateDataset(ctx, "/d", Header{DType: ndarray.Float64, Shape: []int{2, 3}, MaxShape: []int{Unlimited, 3}, Chunk: []int{2, 2}})
	require.NoError(t, err)
	require.NoError(t, f.WriteSlab(ctx, "/d", []int{0, 0}, arange(6, 2, 3)))

	require.NoError(t, f.Resize(ctx, "/d", []int{4, 3}))
	got, err := f.Read(ctx, "/d")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 0, 0, 0, 0, 0, 0}, got.Float64s())

	require.NoError(t, f.Resize(ctx, "/d", []int{1, 3}))
	require.NoError(t, f.Resize(ctx, "/d", []int{2, 3}))
	got, err = f.Read(ctx, "/d")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 0, 0, 0}, got.Float64s())

	assert.ErrorIs(t, f.Resize(ctx, "/d", []int{2, 4}), ErrShapeLimit)
	assert.ErrorIs(t, f.Resize(ctx, "/d", []int{2}), ndarray.ErrShape)

	h, err := f.Dataset(ctx, "/d")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, h.Shape)
	assert.True(t, h.Growable(0))
	assert.False(t, h.Growable(1))
}

func TestDataset_Scalar(t *testing.T) {
	ctx := context.Background()
	f, _ := openTemp(t, ModeCreate)
	_, err := f.CreateDataset(ctx, "/s", Header{DType: ndarray.Int64, Shape: []int{}, MaxShape: []int{}, Chunk: []int{}})
	require.NoError(t, err)
	scalar, err := ndarray.MustNew([]int64{42}).Reshape()
	require.NoError(t, err)
	require.Empty(t, scalar.Shape())
	require.NoError(t, f.WriteSlab(ctx, "/s", []int{}, scalar))
	got, err := f.Read(ctx, "/s")
	require.NoError(t, err)
	values, err := ndarray.Values[int64](got)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, values)
	assert.Empty(t, got.Shape())
}

func TestDataset_Errors(t *testing.T) {
	ctx := context.Background()
	f, _ := openTemp(t, ModeCreate)
	require.NoError(t, f.CreateGroup(ctx, "/g"))

	_, err := f.Dataset(ctx, "/g")
	assert.ErrorIs(t, err, ErrNotDataset)
	_, err = f.Dataset(ctx, "/nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.CreateDataset(ctx, "/g", Header{DType: ndarray.Float64, Shape: []int{1}, MaxShape: []int{1}, Chunk: []int{1}})
	assert.ErrorIs(t, err, ErrExists)
	_, err = f.CreateDataset(ctx, "/x", Header{DType: ndarray.Float64, Shape: []int{3}, MaxShape: []int{2}, Chunk: []int{1}})
	assert.ErrorIs(t, err, ErrShapeLimit)
	_, err = f.CreateDataset(ctx, "/y", Header{DType: ndarray.Float64, Shape: []int{3}, MaxShape: []int{3}, Chunk: []int{0}})
	assert.ErrorIs(t, err, ndarray.ErrShape)
}

func TestDataset_DetectsCorruption(t *testing.T) {
	ctx := context.Background()
	f, _ := openTemp(t, ModeCreate)
	_, err := f.CreateDataset(ctx, "/d", Header{DType: ndarray.Float64, Shape: []int{2}, MaxShape: []int{2}, Chunk: []int{2}})
	require.NoError(t, err)
	require.NoError(t, f.WriteSlab(ctx, "/d", []int{0}, arange(2, 2)))
	_, err = f.db.ExecContext(ctx, `UPDATE chunks SET checksum = ~checksum WHERE path = '/d'`)
	require.NoError(t, err)
	_, err = f.Read(ctx, "/d")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDataset_RefreshSeesOtherHandle(t *testing.T) {
	ctx := context.Background()
	first, filePath := openTemp(t, ModeCreate)
	_, err := first.CreateDataset(ctx, "/g", Header{DType: ndarray.Float64, Shape: []int{0}, MaxShape: []int{Unlimited}, Chunk: []int{4}})
	require.NoError(t, err)
	h, err := first.Dataset(ctx, "/g")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, h.Shape)

	second, err := Open(ctx, filePath, ModeAppend, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, second.Resize(ctx, "/g", []int{3}))
	require.NoError(t, second.Close())

	h, err = first.Dataset(ctx, "/g")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, h.Shape, "headers are cached until refreshed")
	first.Refresh()
	h, err = first.Dataset(ctx, "/g")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, h.Shape)
}
