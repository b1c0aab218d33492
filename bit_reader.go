package lzx

import (
	"errors"
	"fmt"
	"io"
)

// bitReader keeps up to 32 bits MSB-first in bitBuf. The input is consumed
// as 16-bit little-endian words; raw bytes for uncompressed blocks are taken
// from the same buffer.
type bitReader struct {
	in io.Reader

	buf      []byte
	off, end int

	bitBuf   uint32
	bitsLeft int

	// inputEnd is set once the synthetic zero word has been handed out.
	inputEnd bool
}

func newBitReader(bufSize int) *bitReader {
	return &bitReader{
		buf: make([]byte, bufSize),
	}
}

// setInput switches the byte source. Buffered bytes and bits are kept.
func (br *bitReader) setInput(in io.Reader) {
	br.in = in
}

func (br *bitReader) fill() error {
	n, err := io.ReadAtLeast(br.in, br.buf, 1)
	if n > 0 {
		br.off, br.end = 0, n

		return nil
	}

	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("lzx: read input: %w", err)
	}

	if br.inputEnd {
		return fmt.Errorf("%w: input exhausted", ErrUnexpectedEndOfStream)
	}

	// One zero word is allowed past the end so that lookahead for the
	// final symbols does not fail.
	br.buf[0], br.buf[1] = 0, 0
	br.off, br.end = 0, 2
	br.inputEnd = true

	return nil
}

func (br *bitReader) ReadByte() (byte, error) {
	if br.off >= br.end {
		if err := br.fill(); err != nil {
			return 0, err
		}
	}

	b := br.buf[br.off]
	br.off++

	return b, nil
}

// readFull copies raw bytes, bypassing the bit buffer.
func (br *bitReader) readFull(p []byte) error {
	for len(p) > 0 {
		if br.off >= br.end {
			if err := br.fill(); err != nil {
				return err
			}
		}

		n := copy(p, br.buf[br.off:br.end])
		br.off += n
		p = p[n:]
	}

	return nil
}

func (br *bitReader) ensure(n int) error {
	for br.bitsLeft < n {
		b0, err := br.ReadByte()
		if err != nil {
			return err
		}

		b1, err := br.ReadByte()
		if err != nil {
			return err
		}

		br.inject(uint32(b1)<<8|uint32(b0), 16)
	}

	return nil
}

func (br *bitReader) peek(n int) uint32 {
	return br.bitBuf >> (bitBufWidth - n)
}

func (br *bitReader) remove(n int) {
	br.bitBuf <<= n
	br.bitsLeft -= n
}

func (br *bitReader) inject(v uint32, n int) {
	br.bitBuf |= v << (bitBufWidth - n - br.bitsLeft)
	br.bitsLeft += n
}

func (br *bitReader) read(n int) (uint32, error) {
	if err := br.ensure(n); err != nil {
		return 0, err
	}

	v := br.peek(n)
	br.remove(n)

	return v, nil
}

// dropBits discards the buffered bits before raw bytes are read. With nothing
// buffered the stream carries a whole pad word that has to go first.
func (br *bitReader) dropBits() error {
	if br.bitsLeft == 0 {
		if err := br.ensure(16); err != nil {
			return err
		}
	}

	br.bitsLeft = 0
	br.bitBuf = 0

	return nil
}

// realign moves to the next 16-bit boundary at the end of a frame.
func (br *bitReader) realign() error {
	if br.bitsLeft > 0 {
		if err := br.ensure(16); err != nil {
			return err
		}
	}

	if n := br.bitsLeft & 15; n != 0 {
		br.remove(n)
	}

	return nil
}

// drain runs at the start of a call that follows one which read the
// synthetic end word. Exactly that word must still be pending.
func (br *bitReader) drain() error {
	if !br.inputEnd {
		return nil
	}

	if br.bitsLeft != 16 {
		return fmt.Errorf("%w: previous pass overflowed %d bits", ErrProtocolViolation, br.bitsLeft)
	}

	if br.bitBuf != 0 {
		return fmt.Errorf("%w: non-empty overflowed buffer", ErrProtocolViolation)
	}

	br.remove(br.bitsLeft)
	br.inputEnd = false

	return nil
}
