package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kulaginds/lzx"
)

func main() {
	cfg, err := newConfig(os.Args[1:], os.Exit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}

	if cfg.CLI.Debug {
		logrus.Info("debug mode enabled")
		logrus.SetLevel(logrus.DebugLevel)
	}

	displayConfig(cfg)

	if err := run(cfg); err != nil {
		logrus.Errorf("unable to decompress: %s", err)
		os.Exit(1)
	}
}

func run(cfg *Config) error {
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	opts.Logger = logrus.WithField("pkg", "lzx")

	in, err := os.Open(cfg.CLI.Input)
	if err != nil {
		return errors.Wrap(err, "error opening input")
	}

	rc, err := lzx.NewReadCloser(in, opts)
	if err != nil {
		in.Close()

		return errors.Wrap(err, "error creating decoder")
	}
	defer rc.Close()

	var out io.Writer = os.Stdout

	if cfg.CLI.Output != "" {
		f, err := os.Create(cfg.CLI.Output)
		if err != nil {
			return errors.Wrap(err, "error creating output")
		}
		defer f.Close()

		out = f
	}

	bw := bufio.NewWriter(out)

	n, err := io.Copy(bw, rc)
	if err != nil {
		return errors.Wrapf(err, "error after %d bytes", n)
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "error flushing output")
	}

	logrus.Infof("decompressed %d bytes", n)

	return nil
}

func displayConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	s := cfg.Profile.Stream

	logrus.Debug("lzxcat settings:")
	logrus.Debugf("  version: %s", VERSION)
	logrus.Debugf("  input: %s", cfg.CLI.Input)
	logrus.Debugf("  output: %s", cfg.CLI.Output)
	logrus.Debugf("  profile: %s", cfg.CLI.Profile)
	logrus.Debugf("  stream.window_bits: %d", s.WindowBits)
	logrus.Debugf("  stream.reset_interval: %d", s.ResetInterval)
	logrus.Debugf("  stream.output_length: %d", s.OutputLength)
	logrus.Debugf("  stream.delta: %v", s.Delta)
	logrus.Debugf("  stream.dictionary: %s", s.Dictionary)
	logrus.Debugf("  stream.input_buffer_size: %d", s.InputBufferSize)
}
