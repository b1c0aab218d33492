package lzx

// FrameSize is the number of bytes produced per LZX frame. Only the last
// frame of a stream may be shorter.
const FrameSize = 32768

const (
	minMatch = 2
	maxMatch = 257
	numChars = 256

	pretreeNumElements  = 20
	alignedNumElements  = 8
	numPrimaryLengths   = 7
	numSecondaryLengths = 249

	pretreeMaxSymbols  = pretreeNumElements
	pretreeTableBits   = 6
	mainTreeMaxSymbols = numChars + 290*8
	mainTreeTableBits  = 12
	lengthMaxSymbols   = numSecondaryLengths + 1
	lengthTableBits    = 12
	alignedMaxSymbols  = alignedNumElements
	alignedTableBits   = 7

	// code length arrays are oversized so that a run may spill past the
	// range being decoded
	lenTableSafety = 64

	huffMaxBits = 16
	bitBufWidth = 32

	e8Byte         = 0xE8
	e8MaxFrame     = 32768
	e8MinFrameSize = 10

	minWindowBits      = 15
	maxWindowBits      = 21
	minDeltaWindowBits = 17
	maxDeltaWindowBits = 25
)

type blockType uint32

const (
	blockTypeInvalid blockType = iota
	blockTypeVerbatim
	blockTypeAligned
	blockTypeUncompressed
)

func (t blockType) String() string {
	switch t {
	case blockTypeInvalid:
		return "invalid"
	case blockTypeVerbatim:
		return "verbatim"
	case blockTypeAligned:
		return "aligned"
	case blockTypeUncompressed:
		return "uncompressed"
	}

	return "unknown"
}

// positionSlots is indexed by windowBits-15.
var positionSlots = [...]uint32{30, 32, 34, 36, 38, 42, 50, 66, 98, 162, 290}

var extraBits = [...]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7,
	8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13, 14, 14, 15, 15, 16, 16,
}

var positionBase = func() (base [290]uint32) {
	for slot := 1; slot < len(base); slot++ {
		base[slot] = base[slot-1] + 1<<slotExtraBits(uint32(slot-1))
	}

	return base
}()

// slotExtraBits returns the number of verbatim footer bits of an offset slot.
// Every slot from 36 up carries 17.
func slotExtraBits(slot uint32) uint8 {
	if slot >= uint32(len(extraBits)) {
		return 17
	}

	return extraBits[slot]
}

func numOffsetSymbols(windowBits int) int {
	return int(positionSlots[windowBits-minWindowBits]) << 3
}
