/*
Package lzx implements a streaming decoder for LZX compressed data as found
in Xbox executables and cabinet-style containers.

An LZX stream is a sequence of 32 KiB frames. Each frame is built from
verbatim, aligned-offset or uncompressed blocks that write into a circular
window of 2^WindowBits bytes. Optional features are a reset interval that
clears the Huffman trees every N frames, LZX DELTA framing with extended
match lengths, a preset dictionary, and the x86 E8 call translation that is
undone on every frame after decoding.

Decode a whole buffer:

	out, err := lzx.Decompress(compressed, nil, uncompressedSize)
	if err != nil {
		return err
	}

Drive the decoder incrementally; state persists between calls:

	d, err := lzx.NewDecoder(&lzx.Options{WindowBits: 17, OutputLength: size})
	if err != nil {
		return err
	}

	for remaining := size; remaining > 0; remaining -= lzx.FrameSize {
		n := int64(lzx.FrameSize)
		if remaining < n {
			n = remaining
		}

		if err := d.Decompress(src, dst, n); err != nil {
			return err
		}
	}

Or read it as an io.Reader:

	r, err := lzx.NewReader(src, &lzx.Options{WindowBits: 16, OutputLength: size})
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, r)

Errors wrap one of the Err* values and can be tested with errors.Is. A
Decoder that returned a decode error keeps returning it.
*/
package lzx
