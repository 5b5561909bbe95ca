package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// deflaters keeps raw Deflate writers at maximum compression for reuse.
var deflaters = sync.Pool{
	New: func() any {
		w, _ := flate.NewWriter(io.Discard, flate.BestCompression)
		return w
	},
}

// deflate compresses src as a raw Deflate stream, without zlib or gzip
// framing. The output is deterministic for a given input.
func deflate(src []byte) ([]byte, error) {
	w := deflaters.Get().(*flate.Writer)
	defer deflaters.Put(w)

	var buf bytes.Buffer
	buf.Grow(len(src)/2 + 64)
	w.Reset(&buf)

	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("%w: deflate: %v", ErrCodec, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: deflate: %v", ErrCodec, err)
	}
	return buf.Bytes(), nil
}

// inflate decompresses src into dst, which must receive exactly len(dst)
// bytes: a stream that ends early or carries more data is an error.
func inflate(dst, src []byte, method uint16) error {
	switch method {
	case methodStored:
		if len(src) != len(dst) {
			return fmt.Errorf("%w: stored size %d, want %d", ErrCodec, len(src), len(dst))
		}
		copy(dst, src)
		return nil
	case methodDeflate:
	default:
		return fmt.Errorf("%w: unsupported compression method %d", ErrCodec, method)
	}

	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()

	if _, err := io.ReadFull(r, dst); err != nil {
		return fmt.Errorf("%w: inflate: %v", ErrCodec, err)
	}

	var probe [1]byte
	n, err := io.ReadFull(r, probe[:])
	switch {
	case n > 0:
		return fmt.Errorf("%w: inflate: more than %d bytes", ErrCodec, len(dst))
	case errors.Is(err, io.EOF):
		return nil
	default:
		return fmt.Errorf("%w: inflate: %v", ErrCodec, err)
	}
}
