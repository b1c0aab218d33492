package lzx

import "fmt"

const (
	pretreeZeroShort = 17
	pretreeZeroLong  = 18
	pretreeSame      = 19
)

// pretreeReader decodes the code lengths of the main and length trees.
// Lengths are sent as deltas against whatever the target array already
// holds, so the arrays must survive between blocks.
type pretreeReader struct {
	br   *bitReader
	tree *huffTable
}

func newPretreeReader(br *bitReader) *pretreeReader {
	return &pretreeReader{
		br:   br,
		tree: newHuffTable("pretree", pretreeMaxSymbols, pretreeTableBits),
	}
}

func (p *pretreeReader) readLengths(lens []uint8, first, last int) error {
	for i := 0; i < pretreeNumElements; i++ {
		v, err := p.br.read(4)
		if err != nil {
			return err
		}

		p.tree.lens[i] = uint8(v)
	}

	if err := p.tree.build(); err != nil {
		return err
	}

	for x := first; x < last; {
		z, err := p.tree.readSymbol(p.br)
		if err != nil {
			return err
		}

		switch z {
		case pretreeZeroShort, pretreeZeroLong:
			var run uint32
			if z == pretreeZeroShort {
				run, err = p.br.read(4)
				run += 4
			} else {
				run, err = p.br.read(5)
				run += 20
			}
			if err != nil {
				return err
			}

			if x, err = fillLengths(lens, x, int(run), 0); err != nil {
				return err
			}
		case pretreeSame:
			run, err := p.br.read(1)
			if err != nil {
				return err
			}

			z, err = p.tree.readSymbol(p.br)
			if err != nil {
				return err
			}

			if x, err = fillLengths(lens, x, int(run)+4, deltaLength(lens[x], z)); err != nil {
				return err
			}
		default:
			lens[x] = deltaLength(lens[x], z)
			x++
		}
	}

	return nil
}

func fillLengths(lens []uint8, x, run int, v uint8) (int, error) {
	if x+run > len(lens) {
		return x, fmt.Errorf("%w: code length run of %d at %d overflows table", ErrMalformedTable, run, x)
	}

	for ; run > 0; run-- {
		lens[x] = v
		x++
	}

	return x, nil
}

// deltaLength applies a pretree delta: (prev - z) mod 17. z may be any
// pretree symbol, including the run codes 17..19 after a same-run prefix.
func deltaLength(prev uint8, z int) uint8 {
	v := (int(prev) - z) % 17
	if v < 0 {
		v += 17
	}

	return uint8(v)
}
