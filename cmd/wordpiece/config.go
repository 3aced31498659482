package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/wordpiece/internal/tokenizer"
)

// Config holds the settings shared by all subcommands.
type Config struct {
	Vocab                   string `yaml:"vocab"` // vocab.txt, tokenizer.json or a BERT .gguf
	UnkToken                string `yaml:"unk_token"`
	ContinuingSubwordPrefix string `yaml:"continuing_subword_prefix"`
	MaxInputCharsPerWord    int    `yaml:"max_input_chars_per_word"`
	Lowercase               bool   `yaml:"lowercase"`
	Normalize               string `yaml:"normalize"` // "", nfc, nfd, nfkc, nfkd
	CacheSize               int    `yaml:"cache_size"`
	Workers                 int    `yaml:"workers"` // 0 uses every CPU
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		UnkToken:                tokenizer.DefaultUnkToken,
		ContinuingSubwordPrefix: tokenizer.DefaultContinuingSubwordPrefix,
		MaxInputCharsPerWord:    tokenizer.DefaultMaxInputCharsPerWord,
		CacheSize:               10000,
	}
}

// LoadConfig reads a YAML config file. Keys missing from the file keep
// their default; unknown keys are an error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: config path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// configFromFlags loads --config, if set, and applies the flags the user
// changed on top of it.
func configFromFlags(cmd *cobra.Command) (*Config, error) {
	flags := cmd.Flags()

	cfg := DefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if flags.Changed("vocab") {
		cfg.Vocab, _ = flags.GetString("vocab")
	}
	if flags.Changed("unk-token") {
		cfg.UnkToken, _ = flags.GetString("unk-token")
	}
	if flags.Changed("prefix") {
		cfg.ContinuingSubwordPrefix, _ = flags.GetString("prefix")
	}
	if flags.Changed("max-chars") {
		cfg.MaxInputCharsPerWord, _ = flags.GetInt("max-chars")
	}
	if flags.Changed("lowercase") {
		cfg.Lowercase, _ = flags.GetBool("lowercase")
	}
	if flags.Changed("normalize") {
		cfg.Normalize, _ = flags.GetString("normalize")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}

	return cfg, nil
}

// Model builds the WordPiece model. A tokenizer.json brings its own unknown
// token, prefix and word length limit, a .gguf brings its unknown token, and
// a vocab.txt uses the configured ones.
func (c *Config) Model() (*tokenizer.WordPiece, error) {
	if c.Vocab == "" {
		return nil, errors.New("no vocabulary given, use --vocab or the vocab config key")
	}

	switch {
	case strings.HasSuffix(c.Vocab, ".json"):
		return tokenizer.LoadWordPieceFromHuggingFace(c.Vocab)
	case strings.HasSuffix(c.Vocab, ".gguf"):
		return tokenizer.LoadWordPieceFromGGUF(c.Vocab)
	}

	return tokenizer.WordPieceFromFile(c.Vocab).
		UnkToken(c.UnkToken).
		ContinuingSubwordPrefix(c.ContinuingSubwordPrefix).
		MaxInputCharsPerWord(c.MaxInputCharsPerWord).
		Build()
}

// EncoderOptions returns the options for text encoding.
func (c *Config) EncoderOptions() tokenizer.EncoderOptions {
	opts := tokenizer.DefaultEncoderOptions()
	opts.Lowercase = c.Lowercase
	opts.Normalization = c.Normalize
	opts.CacheSize = c.CacheSize
	opts.UnkToken = c.UnkToken
	if c.Workers > 0 {
		opts.Parallel.NumWorkers = c.Workers
		opts.Parallel.Enabled = c.Workers > 1
	}
	return opts
}
