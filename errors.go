package lzx

import "errors"

// Decode failures are fatal for the Decoder that produced them: once one is
// returned every later call returns it again.
var (
	ErrConfiguration         = errors.New("lzx: invalid configuration")
	ErrMalformedTable        = errors.New("lzx: malformed huffman table")
	ErrProtocolViolation     = errors.New("lzx: protocol violation")
	ErrMatchOutOfBounds      = errors.New("lzx: match out of bounds")
	ErrBlockOverrun          = errors.New("lzx: block overrun")
	ErrFrameSizeMismatch     = errors.New("lzx: frame size mismatch")
	ErrUnexpectedEndOfStream = errors.New("lzx: unexpected end of stream")
)
