package lzx

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultInputBufferSize is used when Options.InputBufferSize is zero.
const DefaultInputBufferSize = 4096

// Options configures a Decoder.
type Options struct {
	// WindowBits is log2 of the window size: 15..21, or 17..25 in delta mode.
	WindowBits int
	// ResetInterval is the number of frames between state resets. 0 disables resets.
	ResetInterval int
	// InputBufferSize is the size of the compressed input buffer. It is
	// rounded up to an even number; 0 selects DefaultInputBufferSize.
	InputBufferSize int
	// OutputLength is the total decompressed size of the stream. 0 means the
	// size is unknown and every frame is FrameSize bytes long.
	OutputLength int64
	// Delta enables LZX DELTA framing and the extended match lengths.
	Delta bool
	// Dictionary is copied to the end of the window before decoding starts.
	Dictionary []byte
	// Logger receives debug records. Defaults to the standard logrus logger.
	Logger *logrus.Entry
}

// DefaultOptions returns options for a 32 KiB window without resets.
func DefaultOptions() *Options {
	return &Options{
		WindowBits:      minWindowBits,
		InputBufferSize: DefaultInputBufferSize,
	}
}

func (o *Options) validate() error {
	if o.Delta {
		if o.WindowBits < minDeltaWindowBits || o.WindowBits > maxDeltaWindowBits {
			return fmt.Errorf("%w: window bits %d out of range %d..%d for delta mode",
				ErrConfiguration, o.WindowBits, minDeltaWindowBits, maxDeltaWindowBits)
		}
	} else if o.WindowBits < minWindowBits || o.WindowBits > maxWindowBits {
		return fmt.Errorf("%w: window bits %d out of range %d..%d",
			ErrConfiguration, o.WindowBits, minWindowBits, maxWindowBits)
	}

	if o.ResetInterval < 0 {
		return fmt.Errorf("%w: negative reset interval %d", ErrConfiguration, o.ResetInterval)
	}

	if o.OutputLength < 0 {
		return fmt.Errorf("%w: negative output length %d", ErrConfiguration, o.OutputLength)
	}

	if o.inputBufferSize() < 2 {
		return fmt.Errorf("%w: input buffer size %d", ErrConfiguration, o.InputBufferSize)
	}

	if len(o.Dictionary) > 1<<o.WindowBits {
		return fmt.Errorf("%w: dictionary of %d bytes does not fit a %d byte window",
			ErrConfiguration, len(o.Dictionary), 1<<o.WindowBits)
	}

	return nil
}

func (o *Options) inputBufferSize() int {
	if o.InputBufferSize == 0 {
		return DefaultInputBufferSize
	}

	return (o.InputBufferSize + 1) &^ 1
}

func (o *Options) logger() *logrus.Entry {
	if o.Logger != nil {
		return o.Logger
	}

	return logrus.WithField("pkg", "lzx")
}
