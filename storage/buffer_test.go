package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/arrayfile/container"
	"github.com/viant/arrayfile/ndarray"
)

func TestAppendBuffer_CopiesFirstPayload(t *testing.T) {
	buf := newAppendBuffer("/x", 0, 1024)
	data := ndarray.MustNew([]float64{1, 2})
	_, err := buf.Buffer(data)
	require.NoError(t, err)
	copy(data.Bytes(), make([]byte, data.NBytes()))
	assert.Equal(t, []float64{1, 2}, buf.pending.Float64s())
}

func TestAppendBuffer_Buffer(t *testing.T) {
	buf := newAppendBuffer("/x", 0, 40)
	keep, err := buf.Buffer(ndarray.MustNew([]float64{1, 2}, 1, 2))
	require.NoError(t, err)
	assert.True(t, keep)
	keep, err = buf.Buffer(ndarray.MustNew([]int32{3, 4}, 1, 2))
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, 32, buf.Pending())
	keep, err = buf.Buffer(ndarray.MustNew([]float64{5, 6}, 1, 2))
	require.NoError(t, err)
	assert.False(t, keep)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, buf.pending.Float64s())

	_, err = buf.Buffer(ndarray.MustNew([]float64{1, 2, 3}, 1, 3))
	assert.ErrorIs(t, err, ndarray.ErrShape)
}

func TestAppendBuffer_Flush(t *testing.T) {
	ctx := context.Background()
	f, err := container.Open(ctx, filepath.Join(t.TempDir(), "buf.h5"), container.ModeCreate, container.DefaultOptions())
	require.NoError(t, err)
	defer f.Close()
	_, err = f.CreateDataset(ctx, "/x", container.Header{
		DType: ndarray.Float64, Shape: []int{2, 0}, MaxShape: []int{2, container.Unlimited}, Chunk: []int{2, 4},
	})
	require.NoError(t, err)

	buf := newAppendBuffer("/x", 1, DefaultBufferSize)
	n, err := buf.Flush(ctx, f)
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, part := range [][]float64{{1, 2, 3, 4}, {5, 6}} {
		_, err := buf.Buffer(ndarray.MustNew(part, 2, len(part)/2))
		require.NoError(t, err)
	}
	n, err = buf.Flush(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 48, n)
	assert.Zero(t, buf.Pending())

	_, err = buf.Buffer(ndarray.MustNew([]float64{7, 8}, 2, 1))
	require.NoError(t, err)
	_, err = buf.Flush(ctx, f)
	require.NoError(t, err)

	actual, err := f.Read(ctx, "/x")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, actual.Shape())
	assert.Equal(t, []float64{1, 2, 5, 7, 3, 4, 6, 8}, actual.Float64s())
}
