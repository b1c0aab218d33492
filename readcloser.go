package lzx

import (
	"errors"
	"fmt"
	"io"
)

type readCloser struct {
	c io.Closer
	r *Reader
}

var errAlreadyClosed = errors.New("lzx: already closed")

// NewReadCloser wraps rc in a decompressing io.ReadCloser. Closing it closes rc.
func NewReadCloser(rc io.ReadCloser, opts *Options) (io.ReadCloser, error) {
	r, err := NewReader(rc, opts)
	if err != nil {
		return nil, err
	}

	return &readCloser{c: rc, r: r}, nil
}

// Close closes the wrapped source. A second Close reports errAlreadyClosed.
func (rc *readCloser) Close() error {
	if rc.r == nil {
		return errAlreadyClosed
	}

	src := rc.c
	rc.c, rc.r = nil, nil

	if err := src.Close(); err != nil {
		return fmt.Errorf("lzx: error closing: %w", err)
	}

	return nil
}

func (rc *readCloser) Read(p []byte) (int, error) {
	if rc.r == nil {
		return 0, errAlreadyClosed
	}

	n, err := rc.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("lzx: error reading: %w", err)
	}

	return n, err
}
