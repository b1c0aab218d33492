package lzx

import "fmt"

// huffNone marks a table slot that holds neither a symbol nor a branch.
const huffNone = 0xFFFF

// huffTable is a canonical Huffman code with a direct lookup of tableBits
// bits. Entries >= maxSymbols are branch nodes: the two children of node n
// live at table[n<<1] and table[n<<1|1].
type huffTable struct {
	name       string
	maxSymbols int
	tableBits  int

	table []uint16
	lens  []uint8

	empty bool
}

func newHuffTable(name string, maxSymbols, tableBits int) *huffTable {
	return &huffTable{
		name:       name,
		maxSymbols: maxSymbols,
		tableBits:  tableBits,

		table: make([]uint16, 1<<tableBits+maxSymbols*2),
		lens:  make([]uint8, maxSymbols+lenTableSafety),
	}
}

func (h *huffTable) resetLengths() {
	for i := range h.lens {
		h.lens[i] = 0
	}
}

func (h *huffTable) build() error {
	if !makeDecodeTable(h.maxSymbols, h.tableBits, h.lens, h.table) {
		return fmt.Errorf("%w: failed to build %s table", ErrMalformedTable, h.name)
	}

	h.empty = false

	return nil
}

// buildMaybeEmpty accepts a table without any codes and marks it empty.
func (h *huffTable) buildMaybeEmpty() error {
	h.empty = false

	if makeDecodeTable(h.maxSymbols, h.tableBits, h.lens, h.table) {
		return nil
	}

	for i := 0; i < h.maxSymbols; i++ {
		if h.lens[i] > 0 {
			return fmt.Errorf("%w: failed to build %s table", ErrMalformedTable, h.name)
		}
	}

	h.empty = true

	return nil
}

func (h *huffTable) readSymbol(br *bitReader) (int, error) {
	if err := br.ensure(huffMaxBits); err != nil {
		return 0, err
	}

	sym := int(h.table[br.peek(h.tableBits)])
	if sym >= h.maxSymbols {
		bit := uint32(1) << (bitBufWidth - h.tableBits)
		for sym >= h.maxSymbols {
			bit >>= 1
			if bit == 0 || sym<<1|1 >= len(h.table) {
				return 0, fmt.Errorf("%w: bad code in %s table", ErrMalformedTable, h.name)
			}

			next := sym << 1
			if br.bitBuf&bit != 0 {
				next |= 1
			}

			sym = int(h.table[next])
		}
	}

	br.remove(int(h.lens[sym]))

	return sym, nil
}

// makeDecodeTable fills table from code lengths. Codes of up to numBits bits
// occupy 1<<(numBits-len) direct slots each; longer codes hang off branch
// nodes allocated past the direct part. It reports false unless the code
// space is filled exactly.
func makeDecodeTable(numSymbols, numBits int, lens []uint8, table []uint16) bool {
	var pos uint64

	tableMask := uint64(1) << numBits
	bitMask := tableMask >> 1

	for bitNum := 1; bitNum <= numBits; bitNum++ {
		for sym := 0; sym < numSymbols; sym++ {
			if int(lens[sym]) != bitNum {
				continue
			}

			leaf := pos
			if pos += bitMask; pos > tableMask {
				return false
			}

			for fill := bitMask; fill > 0; fill-- {
				table[leaf] = uint16(sym)
				leaf++
			}
		}

		bitMask >>= 1
	}

	if pos == tableMask {
		return true
	}

	for sym := pos; sym < tableMask; sym++ {
		table[sym] = huffNone
	}

	nextSymbol := tableMask >> 1
	if nextSymbol < uint64(numSymbols) {
		nextSymbol = uint64(numSymbols)
	}

	pos <<= 16
	tableMask <<= 16
	bitMask = 1 << 15

	for bitNum := numBits + 1; bitNum <= huffMaxBits; bitNum++ {
		for sym := 0; sym < numSymbols; sym++ {
			if int(lens[sym]) != bitNum {
				continue
			}

			if pos >= tableMask {
				return false
			}

			leaf := pos >> 16
			for fill := 0; fill < bitNum-numBits; fill++ {
				if table[leaf] == huffNone {
					if nextSymbol<<1|1 >= uint64(len(table)) {
						return false
					}

					table[nextSymbol<<1] = huffNone
					table[nextSymbol<<1|1] = huffNone
					table[leaf] = uint16(nextSymbol)
					nextSymbol++
				}

				leaf = uint64(table[leaf]) << 1
				if (pos>>(15-fill))&1 != 0 {
					leaf++
				}
			}

			table[leaf] = uint16(sym)
			pos += bitMask
		}

		bitMask >>= 1
	}

	return pos == tableMask
}
