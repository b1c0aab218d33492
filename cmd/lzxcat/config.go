package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/kulaginds/lzx"
)

const (
	EnvVarPrefix = "LZXCAT"

	DefaultWindowBits = 15
)

var (
	// VERSION gets set during build
	VERSION = "0.0.0"
)

type Config struct {
	CLI     *CLI
	Profile *Profile
}

type CLI struct {
	Input      string `kong:"arg,help='Raw LZX stream to decompress',type='existingfile'"`
	Output     string `kong:"help='Output file, stdout when empty',short='o'"`
	Profile    string `kong:"help='TOML stream profile',type='existingfile',short='p'"`
	WindowBits int    `kong:"help='Window size as a power of two (15-21, 17-25 with --delta)',short='w'"`
	Reset      int    `kong:"help='Reset interval in 32 KiB frames, 0 to disable',short='r'"`
	Size       int64  `kong:"help='Decompressed size in bytes',short='s'"`
	Delta      bool   `kong:"help='Stream uses LZX DELTA framing'"`
	Dictionary string `kong:"help='Preset dictionary file',type='existingfile'"`
	BufferSize int    `kong:"help='Input buffer size in bytes',short='b'"`

	Debug   bool             `kong:"help='Enable debug output',short='d'"`
	Version kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`
}

type Profile struct {
	Stream *ProfileStream `toml:"stream"`
}

type ProfileStream struct {
	WindowBits      int    `toml:"window_bits"`
	ResetInterval   int    `toml:"reset_interval"`
	OutputLength    int64  `toml:"output_length"`
	Delta           bool   `toml:"delta"`
	Dictionary      string `toml:"dictionary"`
	InputBufferSize int    `toml:"input_buffer_size"`
}

func newConfig(args []string, exit func(int)) (*Config, error) {
	// Attempt to load .env
	_ = godotenv.Load(".env")

	cli, err := readCLIArgs(args, exit)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing CLI args")
	}

	profile := &Profile{Stream: &ProfileStream{}}

	if cli.Profile != "" {
		profile, err = readProfile(cli.Profile)
		if err != nil {
			return nil, errors.Wrap(err, "error reading profile")
		}
	}

	cfg := &Config{
		CLI:     cli,
		Profile: profile,
	}

	cfg.merge()

	if err := validateStream(cfg.Profile.Stream); err != nil {
		return nil, errors.Wrap(err, "error validating stream settings")
	}

	return cfg, nil
}

func readCLIArgs(args []string, exit func(int)) (*CLI, error) {
	cli := &CLI{}

	parser, err := kong.New(cli,
		kong.Name("lzxcat"),
		kong.Description("Decompress a raw LZX stream"),
		kong.UsageOnError(),
		kong.DefaultEnvars(EnvVarPrefix),
		kong.Exit(exit),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version": VERSION,
		})
	if err != nil {
		return nil, errors.Wrap(err, "error creating parser")
	}

	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}

	return cli, nil
}

func readProfile(file string) (*Profile, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "error reading file")
	}

	profile := &Profile{}

	if err := toml.Unmarshal(data, profile); err != nil {
		return nil, errors.Wrap(err, "error parsing TOML profile")
	}

	if profile.Stream == nil {
		profile.Stream = &ProfileStream{}
	}

	return profile, nil
}

// merge lets explicitly set CLI values win over the profile.
func (c *Config) merge() {
	s := c.Profile.Stream

	if c.CLI.WindowBits != 0 {
		s.WindowBits = c.CLI.WindowBits
	}

	if c.CLI.Reset != 0 {
		s.ResetInterval = c.CLI.Reset
	}

	if c.CLI.Size != 0 {
		s.OutputLength = c.CLI.Size
	}

	if c.CLI.Delta {
		s.Delta = true
	}

	if c.CLI.Dictionary != "" {
		s.Dictionary = c.CLI.Dictionary
	}

	if c.CLI.BufferSize != 0 {
		s.InputBufferSize = c.CLI.BufferSize
	}

	if s.WindowBits == 0 {
		s.WindowBits = DefaultWindowBits
		if s.Delta {
			s.WindowBits = 17
		}
	}
}

func validateStream(s *ProfileStream) error {
	if s == nil {
		return errors.New("stream settings cannot be nil")
	}

	if s.OutputLength <= 0 {
		return errors.New("stream.output_length (--size) must be positive")
	}

	if s.ResetInterval < 0 {
		return errors.Errorf("stream.reset_interval %d cannot be negative", s.ResetInterval)
	}

	if s.InputBufferSize < 0 {
		return errors.Errorf("stream.input_buffer_size %d cannot be negative", s.InputBufferSize)
	}

	return nil
}

// Options converts the merged settings into decoder options.
func (c *Config) Options() (*lzx.Options, error) {
	s := c.Profile.Stream

	opts := &lzx.Options{
		WindowBits:      s.WindowBits,
		ResetInterval:   s.ResetInterval,
		InputBufferSize: s.InputBufferSize,
		OutputLength:    s.OutputLength,
		Delta:           s.Delta,
	}

	if s.Dictionary != "" {
		dict, err := os.ReadFile(s.Dictionary)
		if err != nil {
			return nil, errors.Wrap(err, "error reading dictionary")
		}

		opts.Dictionary = dict
	}

	return opts, nil
}
