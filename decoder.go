package lzx

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Decoder is a streaming LZX decoder. It keeps the window, trees and bit
// position between Decompress calls and must not be used concurrently.
type Decoder struct {
	log *logrus.Entry

	br      *bitReader
	pretree *pretreeReader
	win     *window
	s       *state

	numOffsets    int
	resetInterval int
	delta         bool

	// length is the declared output size, 0 if unknown; offset counts the
	// bytes handed to callers so far.
	length int64
	offset int64

	framePos uint32
	frame    uint32

	intelFileSize uint32
	intelCurPos   uint32
	intelStarted  bool
	e8buf         []byte

	// out[outOff:] is the undelivered part of the last decoded frame.
	out    []byte
	outOff int

	err error
}

// NewDecoder validates opts and allocates a decoder. A nil opts means
// DefaultOptions.
func NewDecoder(opts *Options) (*Decoder, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}

	br := newBitReader(opts.inputBufferSize())

	d := &Decoder{
		log: opts.logger(),

		br:      br,
		pretree: newPretreeReader(br),
		win:     newWindow(opts.WindowBits, opts.Dictionary),
		s:       newState(),

		numOffsets:    numOffsetSymbols(opts.WindowBits),
		resetInterval: opts.ResetInterval,
		delta:         opts.Delta,

		length: opts.OutputLength,

		e8buf: make([]byte, FrameSize),
	}

	d.log.WithFields(logrus.Fields{
		"window_bits":    opts.WindowBits,
		"reset_interval": opts.ResetInterval,
		"output_length":  opts.OutputLength,
		"delta":          opts.Delta,
		"dictionary":     len(opts.Dictionary),
	}).Debug("decoder initialized")

	return d, nil
}

// Offset returns the number of bytes delivered so far.
func (d *Decoder) Offset() int64 {
	return d.offset
}

// Decompress writes the next n decompressed bytes to out, reading compressed
// input from in as needed. in may differ between calls; bytes already
// buffered from a previous reader are used first.
func (d *Decoder) Decompress(in io.Reader, out io.Writer, n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: negative byte count %d", ErrConfiguration, n)
	}

	if d.err != nil {
		return d.err
	}

	d.br.setInput(in)

	if err := d.decompress(out, n); err != nil {
		d.err = err
		d.log.WithError(err).WithField("frame", d.frame).Debug("decode failed")

		return err
	}

	return nil
}

func (d *Decoder) decompress(out io.Writer, n int64) error {
	if k := int64(len(d.out) - d.outOff); k > 0 {
		if k > n {
			k = n
		}

		if err := d.deliver(out, int(k)); err != nil {
			return err
		}

		n -= k
	}

	if n == 0 {
		return nil
	}

	if err := d.br.drain(); err != nil {
		return err
	}

	total := d.offset + n
	endFrame := total / FrameSize
	if total%FrameSize > 0 {
		endFrame++
	}

	for int64(d.frame) < endFrame {
		k, err := d.decodeFrame()
		if err != nil {
			return err
		}

		if k == 0 {
			break
		}

		if int64(k) > n {
			k = int(n)
		}

		if err = d.deliver(out, k); err != nil {
			return err
		}

		n -= int64(k)
	}

	if n > 0 {
		return fmt.Errorf("%w: %d bytes left to output", ErrUnexpectedEndOfStream, n)
	}

	return nil
}

func (d *Decoder) deliver(out io.Writer, k int) error {
	if _, err := out.Write(d.out[d.outOff : d.outOff+k]); err != nil {
		return fmt.Errorf("lzx: write output: %w", err)
	}

	d.outOff += k
	d.offset += int64(k)

	return nil
}
