package lzx

import (
	"bytes"
	"fmt"
)

// Decompress decodes a complete LZX stream using a 32 KiB window and no
// reset interval. dict may be nil. size is the exact decompressed size.
func Decompress(data, dict []byte, size int64) ([]byte, error) {
	opts := DefaultOptions()
	opts.OutputLength = size
	opts.Dictionary = dict

	if len(data) > 0 {
		opts.InputBufferSize = len(data)
	}

	return DecompressWithOptions(data, opts)
}

// DecompressWithOptions decodes opts.OutputLength bytes from data.
func DecompressWithOptions(data []byte, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if opts.OutputLength <= 0 {
		return nil, fmt.Errorf("%w: output length must be positive", ErrConfiguration)
	}

	d, err := NewDecoder(opts)
	if err != nil {
		return nil, err
	}

	out := bytes.NewBuffer(make([]byte, 0, opts.OutputLength))

	if err = d.Decompress(bytes.NewReader(data), out, opts.OutputLength); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}
