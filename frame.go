package lzx

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// decodeFrame produces the next frame into the window and stages it in
// d.out. It returns the frame size, or 0 when the declared output length has
// already been reached.
func (d *Decoder) decodeFrame() (int, error) {
	s := d.s

	frameSize := uint32(FrameSize)
	if d.length > 0 && d.length-d.offset < int64(frameSize) {
		frameSize = uint32(d.length - d.offset)
	}

	if frameSize == 0 {
		return 0, nil
	}

	if d.resetInterval > 0 && d.frame%uint32(d.resetInterval) == 0 {
		if s.blockRemaining > 0 {
			return 0, fmt.Errorf("%w: %d bytes remaining at reset interval", ErrProtocolViolation, s.blockRemaining)
		}

		s.Reset()
		d.log.WithField("frame", d.frame).Debug("reset interval")
	}

	if d.delta {
		if err := d.br.ensure(16); err != nil {
			return 0, err
		}

		d.br.remove(16)
	}

	if !s.headerRead {
		if err := d.readIntelHeader(); err != nil {
			return 0, err
		}
	}

	bytesTodo := int(d.framePos + frameSize - d.win.pos)
	for bytesTodo > 0 {
		if s.blockRemaining == 0 {
			if err := d.readBlockHeader(); err != nil {
				return 0, err
			}
		}

		run := s.blockRemaining
		if run > bytesTodo {
			run = bytesTodo
		}

		bytesTodo -= run
		s.blockRemaining -= run

		var err error

		switch s.blockType {
		case blockTypeVerbatim, blockTypeAligned:
			run, err = d.decodeRun(run, s.blockType)
		case blockTypeUncompressed:
			err = d.win.readRaw(d.br, run)
			run = 0
		default:
			err = fmt.Errorf("%w: bad block type %d", ErrProtocolViolation, s.blockType)
		}

		if err != nil {
			return 0, err
		}

		if run < 0 {
			if -run > s.blockRemaining {
				return 0, fmt.Errorf("%w: overrun went past end of block by %d (%d remaining)",
					ErrBlockOverrun, -run, s.blockRemaining)
			}

			s.blockRemaining += run
		}
	}

	if got := d.win.pos - d.framePos; got != frameSize {
		return 0, fmt.Errorf("%w: decoded %d bytes for a %d byte frame", ErrFrameSizeMismatch, got, frameSize)
	}

	if err := d.br.realign(); err != nil {
		return 0, err
	}

	if rest := len(d.out) - d.outOff; rest != 0 {
		return 0, fmt.Errorf("%w: %d bytes still pending at new %d byte frame", ErrFrameSizeMismatch, rest, frameSize)
	}

	raw := d.win.Slice(d.framePos, frameSize)

	if d.intelStarted && d.intelFileSize != 0 && d.frame <= e8MaxFrame && frameSize > e8MinFrameSize {
		d.out = d.e8buf[:frameSize]
		copy(d.out, raw)
		translateE8(d.out, d.intelCurPos, d.intelFileSize)
		d.intelCurPos += frameSize
	} else {
		d.out = raw
		if d.intelFileSize != 0 {
			d.intelCurPos += frameSize
		}
	}

	d.outOff = 0

	d.framePos += frameSize
	d.frame++

	if d.win.pos == d.win.size {
		d.win.pos = 0
	}

	if d.framePos == d.win.size {
		d.framePos = 0
	}

	return int(frameSize), nil
}

// readIntelHeader reads the E8 translation header: a flag bit, then a
// 32-bit file size sent as two 16-bit halves.
func (d *Decoder) readIntelHeader() error {
	flag, err := d.br.read(1)
	if err != nil {
		return err
	}

	var hi, lo uint32
	if flag != 0 {
		if hi, err = d.br.read(16); err != nil {
			return err
		}

		if lo, err = d.br.read(16); err != nil {
			return err
		}
	}

	d.intelFileSize = hi<<16 | lo
	d.s.headerRead = true

	if d.intelFileSize != 0 {
		d.log.WithFields(logrus.Fields{
			"frame":     d.frame,
			"file_size": d.intelFileSize,
		}).Debug("e8 translation enabled")
	}

	return nil
}

// translateE8 turns the absolute CALL targets written by the encoder back
// into relative displacements. curPos is the stream position of data[0].
// The last 10 bytes are never examined.
func translateE8(data []byte, curPos, fileSize uint32) {
	pos := int64(curPos)
	size := int64(fileSize)
	end := len(data) - e8MinFrameSize

	for i := 0; i < end; {
		if data[i] != e8Byte {
			i++
			pos++

			continue
		}

		i++

		abs := int64(int32(binary.LittleEndian.Uint32(data[i:])))
		if abs >= -pos && abs < size {
			rel := abs + size
			if abs >= 0 {
				rel = abs - pos
			}

			binary.LittleEndian.PutUint32(data[i:], uint32(rel))
		}

		i += 4
		pos += 5
	}
}
