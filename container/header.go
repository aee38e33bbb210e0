package container

import (
	"fmt"
	"slices"

	"github.com/viant/arrayfile/ndarray"
	"github.com/viant/bintly"
)

// Unlimited marks a dimension without an upper bound in Header.MaxShape.
const Unlimited = -1

const headerVersion = 1

// Header describes a dataset node.
type Header struct {
	DType    ndarray.DType
	Shape    []int
	MaxShape []int
	Chunk    []int
	Codec    Codec
}

// Growable reports whether the dataset can be resized along axis.
func (h *Header) Growable(axis int) bool {
	return axis >= 0 && axis < len(h.MaxShape) && (h.MaxShape[axis] == Unlimited || h.MaxShape[axis] > h.Shape[axis])
}

// Admits reports whether shape fits the max shape.
func (h *Header) Admits(shape []int) bool {
	if len(shape) != len(h.MaxShape) {
		return false
	}
	for i, dim := range shape {
		if h.MaxShape[i] != Unlimited && dim > h.MaxShape[i] {
			return false
		}
	}
	return true
}

func (h *Header) clone() *Header {
	ret := *h
	ret.Shape = slices.Clone(h.Shape)
	ret.MaxShape = slices.Clone(h.MaxShape)
	ret.Chunk = slices.Clone(h.Chunk)
	return &ret
}

func (h *Header) validate() error {
	if !h.DType.Valid() {
		return fmt.Errorf("%w: %v", ndarray.ErrDType, h.DType)
	}
	if len(h.MaxShape) != len(h.Shape) || len(h.Chunk) != len(h.Shape) {
		return fmt.Errorf("%w: rank of shape %v, max %v, chunk %v differs", ndarray.ErrShape, h.Shape, h.MaxShape, h.Chunk)
	}
	for i, dim := range h.Chunk {
		if dim < 1 {
			return fmt.Errorf("%w: chunk %v has a non positive dimension %d", ndarray.ErrShape, h.Chunk, i)
		}
		if h.Shape[i] < 0 {
			return fmt.Errorf("%w: negative extent in %v", ndarray.ErrShape, h.Shape)
		}
	}
	if !h.Admits(h.Shape) {
		return fmt.Errorf("%w: %v > %v", ErrShapeLimit, h.Shape, h.MaxShape)
	}
	return nil
}

var (
	writers = bintly.NewWriters()
	readers = bintly.NewReaders()
)

// EncodeBinary encodes the header to a binary stream.
func (h *Header) EncodeBinary(stream *bintly.Writer) error {
	stream.Int16(headerVersion)
	stream.Int16(int16(h.DType))
	stream.Int16(int16(h.Codec))
	stream.Int16(int16(len(h.Shape)))
	for i := range h.Shape {
		stream.Int(h.Shape[i])
		stream.Int(h.MaxShape[i])
		stream.Int(h.Chunk[i])
	}
	return nil
}

// DecodeBinary decodes the header from a binary stream.
func (h *Header) DecodeBinary(stream *bintly.Reader) error {
	var version, dtype, codec, ndim int16
	stream.Int16(&version)
	if version != headerVersion {
		return fmt.Errorf("%w: header version %d", ErrCorrupt, version)
	}
	stream.Int16(&dtype)
	stream.Int16(&codec)
	stream.Int16(&ndim)
	if ndim < 0 {
		return fmt.Errorf("%w: header rank %d", ErrCorrupt, ndim)
	}
	h.DType = ndarray.DType(dtype)
	h.Codec = Codec(codec)
	h.Shape = make([]int, ndim)
	h.MaxShape = make([]int, ndim)
	h.Chunk = make([]int, ndim)
	for i := 0; i < int(ndim); i++ {
		stream.Int(&h.Shape[i])
		stream.Int(&h.MaxShape[i])
		stream.Int(&h.Chunk[i])
	}
	return nil
}

func marshalHeader(h *Header) ([]byte, error) {
	writer := writers.Get()
	defer writers.Put(writer)
	if err := h.EncodeBinary(writer); err != nil {
		return nil, err
	}
	return slices.Clone(writer.Bytes()), nil
}

func unmarshalHeader(data []byte) (ret *Header, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: header: %v", ErrCorrupt, r)
		}
	}()
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	ret = &Header{}
	if err := ret.DecodeBinary(reader); err != nil {
		return nil, err
	}
	return ret, nil
}
