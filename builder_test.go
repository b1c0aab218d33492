package lzx

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/icza/bitio"
	"github.com/stretchr/testify/require"
)

// op is one step of test input: literal bytes, a match with an explicit
// offset (slot < 0) or a match that reuses one of the three cached offsets.
type op struct {
	lit    []byte
	length int
	slot   int
	offset uint32
}

func literal(s string) op {
	return op{lit: []byte(s)}
}

func match(length int, offset uint32) op {
	return op{length: length, slot: -1, offset: offset}
}

func repeat(length, slot int) op {
	return op{length: length, slot: slot}
}

func lit(p []byte) op {
	return op{lit: p}
}

func (o op) size() int {
	if o.lit != nil {
		return len(o.lit)
	}

	return o.length
}

// streamBuilder writes LZX bitstreams for tests and records the bytes a
// decoder has to produce from them, before E8 translation.
type streamBuilder struct {
	t testing.TB

	windowBits    int
	resetInterval int
	delta         bool
	intelFileSize uint32

	// code lengths for the next compressed block
	mainTree   []uint8
	lengthTree []uint8

	out   []byte
	buf   bytes.Buffer
	w     *bitio.Writer
	nbits int

	mainLens   []uint8
	lengthLens []uint8

	mainCodes    []uint32
	lengthCodes  []uint32
	alignedLens  []uint8
	alignedCodes []uint32

	blockType  blockType
	frame      int
	inFrame    bool
	headerDone bool
	pendingPad bool

	// frameEnds holds the stream offset right after each completed frame.
	frameEnds []int

	r        [3]uint32
	dict     []byte
	expected []byte
}

func newStreamBuilder(t testing.TB, windowBits int) *streamBuilder {
	numMain := numChars + numOffsetSymbols(windowBits)

	b := &streamBuilder{
		t:          t,
		windowBits: windowBits,

		mainTree:   completeLengths(numMain),
		lengthTree: completeLengths(numSecondaryLengths),

		mainLens:   make([]uint8, numMain),
		lengthLens: make([]uint8, numSecondaryLengths),

		r: [3]uint32{1, 1, 1},
	}
	b.w = bitio.NewWriter(&b.buf)

	return b
}

// completeLengths returns code lengths of n symbols that fill the code space
// exactly: the first 2^k-n symbols get k-1 bits, the rest k bits.
func completeLengths(n int) []uint8 {
	k := 0
	for 1<<k < n {
		k++
	}

	short := 1<<k - n
	lens := make([]uint8, n)

	for i := range lens {
		lens[i] = uint8(k)
		if i < short {
			lens[i] = uint8(k - 1)
		}
	}

	return lens
}

// canonicalCodes assigns codes in order of length, then symbol.
func canonicalCodes(lens []uint8) []uint32 {
	codes := make([]uint32, len(lens))
	code := uint32(0)

	for l := 1; l <= huffMaxBits; l++ {
		for sym, sl := range lens {
			if int(sl) == l {
				codes[sym] = code
				code++
			}
		}

		code <<= 1
	}

	return codes
}

func (b *streamBuilder) bits(v uint32, n int) {
	if n == 0 {
		return
	}

	require.NoError(b.t, b.w.WriteBits(uint64(v)&(1<<n-1), uint8(n)))
	b.nbits += n
}

func (b *streamBuilder) code(codes []uint32, lens []uint8, sym int) {
	require.NotZero(b.t, lens[sym], "symbol %d has no code", sym)
	b.bits(codes[sym], int(lens[sym]))
}

func (b *streamBuilder) padWord() {
	if rem := b.nbits % 16; rem != 0 {
		b.bits(0, 16-rem)
	}
}

// flushWords closes the current bit segment, storing each 16-bit word
// little-endian.
func (b *streamBuilder) flushWords() {
	b.padWord()
	require.NoError(b.t, b.w.Close())

	p := b.buf.Bytes()
	for i := 0; i+1 < len(p); i += 2 {
		b.out = append(b.out, p[i+1], p[i])
	}

	b.buf.Reset()
	b.w = bitio.NewWriter(&b.buf)
	b.nbits = 0
}

func (b *streamBuilder) raw(p []byte) {
	b.flushWords()
	b.out = append(b.out, p...)
}

func (b *streamBuilder) offset() int {
	return len(b.out) + b.buf.Len()
}

func (b *streamBuilder) bytes() []byte {
	b.flushWords()

	return b.out
}

func (b *streamBuilder) beginFrame() {
	if b.inFrame {
		return
	}

	if b.resetInterval > 0 && b.frame%b.resetInterval == 0 {
		for i := range b.mainLens {
			b.mainLens[i] = 0
		}

		for i := range b.lengthLens {
			b.lengthLens[i] = 0
		}

		b.r = [3]uint32{1, 1, 1}
		b.headerDone = false
		b.pendingPad = false
		b.blockType = blockTypeInvalid
	}

	if b.delta {
		b.bits(0, 16)
	}

	if !b.headerDone {
		if b.intelFileSize == 0 {
			b.bits(0, 1)
		} else {
			b.bits(1, 1)
			b.bits(b.intelFileSize>>16, 16)
			b.bits(b.intelFileSize&0xFFFF, 16)
		}

		b.headerDone = true
	}

	b.inFrame = true
}

func (b *streamBuilder) produce(p []byte) {
	start := len(b.expected)
	end := start + len(p)

	if start/FrameSize != (end-1)/FrameSize {
		b.t.Fatalf("%d bytes at %d cross a frame boundary", len(p), start)
	}

	b.expected = append(b.expected, p...)

	if end%FrameSize == 0 {
		b.padWord()
		b.frameEnds = append(b.frameEnds, b.offset())
		b.frame++
		b.inFrame = false
	}
}

func (b *streamBuilder) blockHeader(typ blockType, size int) {
	b.beginFrame()

	if b.pendingPad {
		b.raw([]byte{0})
		b.pendingPad = false
	}

	b.bits(uint32(typ), 3)
	b.bits(uint32(size>>8), 16)
	b.bits(uint32(size&0xFF), 8)
	b.blockType = typ
}

// writeLengths sends next as pretree deltas against prev, one symbol per
// length, and leaves next in prev.
func (b *streamBuilder) writeLengths(prev, next []uint8) {
	pre := completeLengths(pretreeNumElements)
	for _, l := range pre {
		b.bits(uint32(l), 4)
	}

	codes := canonicalCodes(pre)

	for i := range next {
		z := (int(prev[i]) - int(next[i]) + 17) % 17
		b.code(codes, pre, z)
		prev[i] = next[i]
	}
}

func (b *streamBuilder) verbatim(ops ...op) {
	b.compressed(blockTypeVerbatim, nil, ops)
}

func (b *streamBuilder) aligned(alignedLens []uint8, ops ...op) {
	b.compressed(blockTypeAligned, alignedLens, ops)
}

// verbatimSized declares size bytes in the block header regardless of what
// ops produce.
func (b *streamBuilder) verbatimSized(size int, ops ...op) {
	b.block(blockTypeVerbatim, size, nil, ops)
}

func (b *streamBuilder) compressed(typ blockType, alignedLens []uint8, ops []op) {
	size := 0
	for _, o := range ops {
		size += o.size()
	}

	b.block(typ, size, alignedLens, ops)
}

func (b *streamBuilder) block(typ blockType, size int, alignedLens []uint8, ops []op) {
	b.blockHeader(typ, size)

	if typ == blockTypeAligned {
		for _, l := range alignedLens {
			b.bits(uint32(l), 3)
		}

		b.alignedLens = alignedLens
		b.alignedCodes = canonicalCodes(alignedLens)
	}

	b.writeLengths(b.mainLens[:numChars], b.mainTree[:numChars])
	b.writeLengths(b.mainLens[numChars:], b.mainTree[numChars:])
	b.writeLengths(b.lengthLens, b.lengthTree)

	b.mainCodes = canonicalCodes(b.mainLens)
	b.lengthCodes = canonicalCodes(b.lengthLens)

	b.ops(ops...)
}

func (b *streamBuilder) ops(ops ...op) {
	for _, o := range ops {
		if o.lit != nil {
			for _, c := range o.lit {
				b.beginFrame()
				b.code(b.mainCodes, b.mainLens, int(c))
				b.produce([]byte{c})
			}

			continue
		}

		b.beginFrame()
		b.match(o)
	}
}

func (b *streamBuilder) match(o op) {
	var (
		slot   uint32
		footer uint32
		offset uint32
	)

	switch {
	case o.slot == 0:
		offset = b.r[0]
	case o.slot == 1:
		offset = b.r[1]
		b.r[1] = b.r[0]
		b.r[0] = offset
	case o.slot == 2:
		offset = b.r[2]
		b.r[2] = b.r[0]
		b.r[0] = offset
	default:
		offset = o.offset
		formatted := offset + 2

		for slot = 3; slot+1 < uint32(len(positionBase)) && positionBase[slot+1] <= formatted; slot++ {
		}

		footer = formatted - positionBase[slot]
		b.r = [3]uint32{offset, b.r[0], b.r[1]}
	}

	if o.slot >= 0 {
		slot = uint32(o.slot)
	}

	length := o.length
	if b.delta && length > maxMatch {
		length = maxMatch
	}

	require.True(b.t, length >= minMatch && length <= maxMatch, "match length %d", o.length)

	header := length - minMatch
	lengthSym := -1

	if header >= numPrimaryLengths {
		lengthSym = header - numPrimaryLengths
		header = numPrimaryLengths
	}

	b.code(b.mainCodes, b.mainLens, numChars+int(slot)<<3+header)

	if lengthSym >= 0 {
		b.code(b.lengthCodes, b.lengthLens, lengthSym)
	}

	if o.slot < 0 && slot > 3 {
		extra := int(slotExtraBits(slot))
		if b.blockType == blockTypeAligned && extra >= 3 {
			b.bits(footer>>3, extra-3)
			b.code(b.alignedCodes, b.alignedLens, int(footer&7))
		} else {
			b.bits(footer, extra)
		}
	}

	if b.delta && length == maxMatch {
		b.deltaLength(uint32(o.length - maxMatch))
	}

	p := make([]byte, o.length)
	base := len(b.dict) + len(b.expected)

	for i := range p {
		src := base + i - int(offset)

		switch {
		case src < 0:
		case src < len(b.dict):
			p[i] = b.dict[src]
		case src < base:
			p[i] = b.expected[src-len(b.dict)]
		default:
			p[i] = p[src-base]
		}
	}

	b.produce(p)
}

func (b *streamBuilder) deltaLength(ext uint32) {
	switch {
	case ext < 0x100:
		b.bits(0, 1)
		b.bits(ext, 8)
	case ext < 0x500:
		b.bits(2, 2)
		b.bits(ext-0x100, 10)
	case ext < 0x1500:
		b.bits(6, 3)
		b.bits(ext-0x500, 12)
	default:
		b.bits(7, 3)
		b.bits(ext, 15)
	}
}

func (b *streamBuilder) uncompressed(r [3]uint32, data []byte) {
	b.blockHeader(blockTypeUncompressed, len(data))

	if b.nbits%16 == 0 {
		b.bits(0, 16)
	}

	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:], r[0])
	binary.LittleEndian.PutUint32(hdr[4:], r[1])
	binary.LittleEndian.PutUint32(hdr[8:], r[2])
	b.raw(hdr[:])
	b.r = r

	b.pendingPad = len(data)%2 == 1

	for len(data) > 0 {
		b.beginFrame()

		n := FrameSize - len(b.expected)%FrameSize
		if n > len(data) {
			n = len(data)
		}

		b.raw(data[:n])
		b.produce(data[:n])
		data = data[n:]
	}
}

// sampleOps returns a random mix of literals, matches and repeated-offset
// matches producing n bytes from stream position start. No op crosses a
// frame boundary and no offset reaches further back than maxOffset.
func sampleOps(seed int64, start, n, maxOffset int) []op {
	rnd := rand.New(rand.NewSource(seed))

	var ops []op

	for pos, end := start, start+n; pos < end; {
		room := FrameSize - pos%FrameSize
		if room > end-pos {
			room = end - pos
		}

		switch {
		case pos < 64 || room < minMatch || rnd.Intn(4) == 0:
			k := 1 + rnd.Intn(16)
			if k > room {
				k = room
			}

			p := make([]byte, k)
			rnd.Read(p)
			ops = append(ops, lit(p))
			pos += k
		default:
			length := minMatch + rnd.Intn(maxMatch-minMatch+1)
			if length > room {
				length = room
			}

			if rnd.Intn(5) == 0 && pos-start >= 64 {
				ops = append(ops, repeat(length, rnd.Intn(3)))
			} else {
				limit := pos
				if limit > maxOffset {
					limit = maxOffset
				}

				ops = append(ops, match(length, uint32(1+rnd.Intn(limit))))
			}

			pos += length
		}
	}

	return ops
}
