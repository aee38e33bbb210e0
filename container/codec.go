package container

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/minio/highwayhash"
)

// Codec selects how chunk blobs are stored.
type Codec int16

const (
	CodecNone Codec = iota
	CodecZstd
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	}
	return fmt.Sprintf("codec(%d)", int16(c))
}

// ParseCodec returns the codec for "none", "" or "zstd".
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "", "none":
		return CodecNone, nil
	case "zstd":
		return CodecZstd, nil
	}
	return CodecNone, fmt.Errorf("container: unknown codec %q", name)
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func initZstd() error {
	zstdOnce.Do(func() {
		if zstdEncoder, zstdErr = zstd.NewWriter(nil); zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdErr
}

func (c Codec) encode(raw []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return raw, nil
	case CodecZstd:
		if err := initZstd(); err != nil {
			return nil, err
		}
		return zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
	}
	return nil, fmt.Errorf("container: unknown codec %v", c)
}

func (c Codec) decode(blob []byte, size int) ([]byte, error) {
	switch c {
	case CodecNone:
		return blob, nil
	case CodecZstd:
		if err := initZstd(); err != nil {
			return nil, err
		}
		raw, err := zstdDecoder.DecodeAll(blob, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("container: unknown codec %v", c)
}

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// checksum returns the highwayhash-64 of a chunk's uncompressed bytes.
func checksum(data []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	if _, err = h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
