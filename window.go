package lzx

import "fmt"

// window is the circular decode history. pos wraps to 0 only at a frame
// boundary that coincides with the end of buf.
type window struct {
	buf  []byte
	pos  uint32
	size uint32

	// refDataSize is the length of the preset dictionary stored at the
	// tail of buf.
	refDataSize uint32
}

func newWindow(windowBits int, dict []byte) *window {
	size := uint32(1) << windowBits

	w := &window{
		buf:  make([]byte, size),
		size: size,
	}

	if len(dict) > 0 {
		copy(w.buf[size-uint32(len(dict)):], dict)
		w.refDataSize = uint32(len(dict))
	}

	return w
}

func (w *window) PutByte(b byte) {
	w.buf[w.pos] = b
	w.pos++
}

// CopyMatch appends length bytes found offset bytes back. produced is the
// number of bytes the stream has produced before the current frame; an
// offset past the cursor must either reach into that wrapped history or into
// the preset dictionary.
func (w *window) CopyMatch(offset, length uint32, produced int64) error {
	if w.pos+length > w.size {
		return fmt.Errorf("%w: match ran over window wrap", ErrMatchOutOfBounds)
	}

	dest := w.pos
	n := length

	if offset > w.pos {
		back := offset - w.pos
		if int64(offset) > produced && back > w.refDataSize {
			return fmt.Errorf("%w: match offset %d beyond stream start", ErrMatchOutOfBounds, offset)
		}

		if back > w.size {
			return fmt.Errorf("%w: match offset %d beyond window boundaries", ErrMatchOutOfBounds, offset)
		}

		src := w.size - back
		if back < n {
			n -= back
			for ; back > 0; back-- {
				w.buf[dest] = w.buf[src]
				dest++
				src++
			}

			src = 0
		}

		for ; n > 0; n-- {
			w.buf[dest] = w.buf[src]
			dest++
			src++
		}
	} else {
		// Source and destination overlap whenever offset < length; the copy
		// must go forward one byte at a time so repeated patterns expand.
		src := dest - offset
		for ; n > 0; n-- {
			w.buf[dest] = w.buf[src]
			dest++
			src++
		}
	}

	w.pos += length

	return nil
}

// readRaw appends n raw bytes taken straight from the input.
func (w *window) readRaw(br *bitReader, n int) error {
	if w.pos+uint32(n) > w.size {
		return fmt.Errorf("%w: uncompressed data ran over window wrap", ErrMatchOutOfBounds)
	}

	if err := br.readFull(w.buf[w.pos : w.pos+uint32(n)]); err != nil {
		return err
	}

	w.pos += uint32(n)

	return nil
}

func (w *window) Slice(start, n uint32) []byte {
	return w.buf[start : start+n]
}
