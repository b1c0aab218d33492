package lzx

// state is everything a reset interval clears. The window is not part of it.
type state struct {
	mainTree    *huffTable
	lengthTree  *huffTable
	alignedTree *huffTable

	r0, r1, r2 uint32

	blockType      blockType
	blockLength    int
	blockRemaining int

	headerRead bool
}

func newState() *state {
	s := &state{
		mainTree:    newHuffTable("main", mainTreeMaxSymbols, mainTreeTableBits),
		lengthTree:  newHuffTable("length", lengthMaxSymbols, lengthTableBits),
		alignedTree: newHuffTable("aligned", alignedMaxSymbols, alignedTableBits),
	}
	s.Reset()

	return s
}

func (s *state) Reset() {
	s.r0, s.r1, s.r2 = 1, 1, 1

	s.headerRead = false
	s.blockRemaining = 0
	s.blockType = blockTypeInvalid

	s.mainTree.resetLengths()
	s.lengthTree.resetLengths()
}

// pushOffset records a freshly decoded offset in the repeated-offset cache.
func (s *state) pushOffset(offset uint32) {
	s.r2 = s.r1
	s.r1 = s.r0
	s.r0 = offset
}
