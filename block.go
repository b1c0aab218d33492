package lzx

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

func (d *Decoder) readBlockHeader() error {
	s := d.s

	if s.blockType == blockTypeUncompressed && s.blockLength&1 != 0 {
		if _, err := d.br.ReadByte(); err != nil {
			return err
		}
	}

	typ, err := d.br.read(3)
	if err != nil {
		return err
	}

	hi, err := d.br.read(16)
	if err != nil {
		return err
	}

	lo, err := d.br.read(8)
	if err != nil {
		return err
	}

	s.blockType = blockType(typ)
	s.blockLength = int(hi<<8 | lo)
	s.blockRemaining = s.blockLength

	switch s.blockType {
	case blockTypeAligned:
		for i := 0; i < alignedNumElements; i++ {
			v, err := d.br.read(3)
			if err != nil {
				return err
			}

			s.alignedTree.lens[i] = uint8(v)
		}

		if err = s.alignedTree.build(); err != nil {
			return err
		}

		err = d.readTrees()
	case blockTypeVerbatim:
		err = d.readTrees()
	case blockTypeUncompressed:
		err = d.readUncompressedHeader()
	default:
		return fmt.Errorf("%w: bad block type %d", ErrProtocolViolation, typ)
	}

	if err != nil {
		return err
	}

	d.log.WithFields(logrus.Fields{
		"frame":  d.frame,
		"type":   s.blockType,
		"length": s.blockLength,
	}).Debug("block header")

	return nil
}

func (d *Decoder) readTrees() error {
	s := d.s

	if err := d.pretree.readLengths(s.mainTree.lens, 0, numChars); err != nil {
		return err
	}

	if err := d.pretree.readLengths(s.mainTree.lens, numChars, numChars+d.numOffsets); err != nil {
		return err
	}

	if err := s.mainTree.build(); err != nil {
		return err
	}

	if s.mainTree.lens[e8Byte] != 0 {
		d.intelStarted = true
	}

	if err := d.pretree.readLengths(s.lengthTree.lens, 0, numSecondaryLengths); err != nil {
		return err
	}

	return s.lengthTree.buildMaybeEmpty()
}

func (d *Decoder) readUncompressedHeader() error {
	d.intelStarted = true

	if err := d.br.dropBits(); err != nil {
		return err
	}

	var raw [12]byte
	if err := d.br.readFull(raw[:]); err != nil {
		return err
	}

	r0 := binary.LittleEndian.Uint32(raw[0:4])
	r1 := binary.LittleEndian.Uint32(raw[4:8])
	r2 := binary.LittleEndian.Uint32(raw[8:12])

	if r0 == 0 || r1 == 0 || r2 == 0 {
		return fmt.Errorf("%w: zero repeated offset (%d, %d, %d)", ErrProtocolViolation, r0, r1, r2)
	}

	d.s.r0, d.s.r1, d.s.r2 = r0, r1, r2

	return nil
}

// decodeRun decodes at least run bytes of the current verbatim or aligned
// block. The last match may run past run; the returned value is then
// negative and the caller charges the excess to the block.
func (d *Decoder) decodeRun(run int, typ blockType) (int, error) {
	s := d.s

	for run > 0 {
		sym, err := s.mainTree.readSymbol(d.br)
		if err != nil {
			return run, err
		}

		if sym < numChars {
			d.win.PutByte(byte(sym))
			run--

			continue
		}

		sym -= numChars

		length := uint32(sym & numPrimaryLengths)
		if length == numPrimaryLengths {
			if s.lengthTree.empty {
				return run, fmt.Errorf("%w: length symbol needed but tree is empty", ErrProtocolViolation)
			}

			footer, err := s.lengthTree.readSymbol(d.br)
			if err != nil {
				return run, err
			}

			length += uint32(footer)
		}

		length += minMatch

		offset, err := d.matchOffset(uint32(sym>>3), typ)
		if err != nil {
			return run, err
		}

		if length == maxMatch && d.delta {
			extra, err := d.readDeltaLength()
			if err != nil {
				return run, err
			}

			length += extra
		}

		if err = d.win.CopyMatch(offset, length, d.offset); err != nil {
			return run, err
		}

		run -= int(length)
	}

	return run, nil
}

// matchOffset resolves an offset slot and updates the repeated-offset cache.
func (d *Decoder) matchOffset(slot uint32, typ blockType) (uint32, error) {
	s := d.s

	switch slot {
	case 0:
		return s.r0, nil
	case 1:
		offset := s.r1
		s.r1 = s.r0
		s.r0 = offset

		return offset, nil
	case 2:
		offset := s.r2
		s.r2 = s.r0
		s.r0 = offset

		return offset, nil
	case 3:
		s.pushOffset(1)

		return 1, nil
	}

	extra := int(slotExtraBits(slot))
	offset := positionBase[slot] - 2

	if typ == blockTypeAligned && extra >= 3 {
		if extra > 3 {
			v, err := d.br.read(extra - 3)
			if err != nil {
				return 0, err
			}

			offset += v << 3
		}

		a, err := s.alignedTree.readSymbol(d.br)
		if err != nil {
			return 0, err
		}

		offset += uint32(a)
	} else {
		v, err := d.br.read(extra)
		if err != nil {
			return 0, err
		}

		offset += v
	}

	s.pushOffset(offset)

	return offset, nil
}

// readDeltaLength reads the extension of a maximum-length match:
// 0 + 8 bits, 10 + 10 bits (+0x100), 110 + 12 bits (+0x500), 111 + 15 bits.
func (d *Decoder) readDeltaLength() (uint32, error) {
	if err := d.br.ensure(3); err != nil {
		return 0, err
	}

	var (
		width int
		bias  uint32
	)

	switch {
	case d.br.peek(1) == 0:
		d.br.remove(1)
		width = 8
	case d.br.peek(2) == 2:
		d.br.remove(2)
		width, bias = 10, 0x100
	case d.br.peek(3) == 6:
		d.br.remove(3)
		width, bias = 12, 0x500
	default:
		d.br.remove(3)
		width = 15
	}

	v, err := d.br.read(width)
	if err != nil {
		return 0, err
	}

	return v + bias, nil
}
