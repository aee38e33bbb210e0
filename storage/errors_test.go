package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/arrayfile/container"
)

func TestError_Is(t *testing.T) {
	err := newError(KindMissingDataSet, "read", "/x", container.ErrNotFound)
	assert.ErrorIs(t, err, ErrMissingDataSet)
	assert.ErrorIs(t, err, container.ErrNotFound)
	assert.NotErrorIs(t, err, ErrStructure)
	assert.Equal(t, "storage: read /x: container: node not found", err.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, KindMissingDataSet, KindOf(wrapped))
	assert.Same(t, err, newError(KindStructure, "close", "/x", err))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))

	bare := &Error{Kind: KindMissingFile, Op: "backup", Path: "/f"}
	assert.Equal(t, "storage: backup /f: storage: missing data file", bare.Error())
}
