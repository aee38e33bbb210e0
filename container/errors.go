package container

import "errors"

var (
	// ErrNotFound is returned when no node exists at a path.
	ErrNotFound = errors.New("container: node not found")
	// ErrExists is returned when creating a node at an occupied path.
	ErrExists = errors.New("container: node already exists")
	// ErrNotDataset is returned when a dataset operation targets a group.
	ErrNotDataset = errors.New("container: node is not a dataset")
	// ErrNotGroup is returned when a path would nest a node under a dataset.
	ErrNotGroup = errors.New("container: parent is not a group")
	// ErrAttrNotFound is returned when deleting a missing attribute.
	ErrAttrNotFound = errors.New("container: attribute not found")
	// ErrShapeLimit is returned when a shape exceeds the dataset max shape.
	ErrShapeLimit = errors.New("container: shape exceeds max shape")
	// ErrOutOfBounds is returned when a slab falls outside the dataset shape.
	ErrOutOfBounds = errors.New("container: slab out of bounds")
	// ErrCorrupt indicates a checksum mismatch or an undecodable record.
	ErrCorrupt = errors.New("container: data corruption detected")
	// ErrNotContainer is returned when a file is not an array container.
	ErrNotContainer = errors.New("container: not an array container file")
	// ErrReadOnly is returned when writing through a read-only handle.
	ErrReadOnly = errors.New("container: file opened read-only")
	// ErrClosed is returned when the handle has been closed.
	ErrClosed = errors.New("container: file closed")
)
