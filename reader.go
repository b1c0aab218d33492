package lzx

import (
	"fmt"
	"io"
)

// Reader decompresses an LZX stream of known length as an io.Reader.
type Reader struct {
	dec *Decoder
	in  io.Reader

	remaining int64
}

// NewReader returns a Reader producing opts.OutputLength bytes from r.
func NewReader(r io.Reader, opts *Options) (*Reader, error) {
	if opts == nil || opts.OutputLength <= 0 {
		return nil, fmt.Errorf("%w: reader needs a positive output length", ErrConfiguration)
	}

	dec, err := NewDecoder(opts)
	if err != nil {
		return nil, err
	}

	return &Reader{
		dec:       dec,
		in:        r,
		remaining: opts.OutputLength,
	}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.remaining == 0 {
		return 0, io.EOF
	}

	want := int64(len(p))
	if want > r.remaining {
		want = r.remaining
	}

	w := &sliceWriter{buf: p[:want]}
	err := r.dec.Decompress(r.in, w, want)
	r.remaining -= int64(w.n)

	return w.n, err
}

// sliceWriter fills a caller-provided buffer.
type sliceWriter struct {
	buf []byte
	n   int
}

func (w *sliceWriter) Write(p []byte) (int, error) {
	if len(p) > len(w.buf)-w.n {
		return 0, io.ErrShortWrite
	}

	w.n += copy(w.buf[w.n:], p)

	return len(p), nil
}
