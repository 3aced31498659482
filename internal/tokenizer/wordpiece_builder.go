package tokenizer

import (
	"fmt"
	"log/slog"
)

type wordPieceConfig struct {
	files                   string
	vocab                   Vocab
	unkToken                string
	continuingSubwordPrefix string
	maxInputCharsPerWord    int
}

// WordPieceBuilder configures and builds a WordPiece model.
//
// Every setter returns an updated copy, so a builder can be shared as a
// template without one caller's settings leaking into another's:
//
//	wp, err := NewWordPieceBuilder().
//		Files("vocab.txt").
//		MaxInputCharsPerWord(200).
//		Build()
type WordPieceBuilder struct {
	config wordPieceConfig
}

// NewWordPieceBuilder returns a builder with the default settings:
// unknown token "[UNK]", prefix "##", 100 characters per word, empty vocabulary.
func NewWordPieceBuilder() WordPieceBuilder {
	return WordPieceBuilder{
		config: wordPieceConfig{
			vocab:                   Vocab{},
			unkToken:                DefaultUnkToken,
			continuingSubwordPrefix: DefaultContinuingSubwordPrefix,
			maxInputCharsPerWord:    DefaultMaxInputCharsPerWord,
		},
	}
}

// WordPieceFromFile returns a builder that reads its vocabulary from path.
func WordPieceFromFile(path string) WordPieceBuilder {
	return NewWordPieceBuilder().Files(path)
}

// Files sets the vocabulary file. It takes precedence over Vocab.
func (b WordPieceBuilder) Files(path string) WordPieceBuilder {
	b.config.files = path
	return b
}

// Vocab sets the token -> id mapping. The map is copied.
func (b WordPieceBuilder) Vocab(vocab Vocab) WordPieceBuilder {
	b.config.vocab = vocab.Clone()
	return b
}

// UnkToken sets the unknown token.
func (b WordPieceBuilder) UnkToken(token string) WordPieceBuilder {
	b.config.unkToken = token
	return b
}

// ContinuingSubwordPrefix sets the prefix of continuing pieces.
func (b WordPieceBuilder) ContinuingSubwordPrefix(prefix string) WordPieceBuilder {
	b.config.continuingSubwordPrefix = prefix
	return b
}

// MaxInputCharsPerWord sets the longest word, in runes, that is split into
// pieces. Longer words become a single unknown token.
func (b WordPieceBuilder) MaxInputCharsPerWord(n int) WordPieceBuilder {
	b.config.maxInputCharsPerWord = n
	return b
}

// Build constructs the model. It only fails when the vocabulary file
// cannot be read.
func (b WordPieceBuilder) Build() (*WordPiece, error) {
	cfg := b.config
	if cfg.files != "" {
		vocab, err := ReadVocabFile(cfg.files)
		if err != nil {
			return nil, fmt.Errorf("failed to build wordpiece model: %w", err)
		}
		cfg.vocab = vocab
	}

	wp := newWordPiece(cfg)
	slog.Debug("built wordpiece model",
		"vocab", wp.VocabSize(),
		"trie_entries", wp.trie.Len(),
		"unk_token", wp.unkToken,
		"continuing_subword_prefix", wp.continuingSubwordPrefix,
	)

	return wp, nil
}

// SubwordModel is the part of another subword model a WordPiece model can
// be derived from.
type SubwordModel interface {
	Vocab() Vocab
	UnkToken() (string, bool)
	ContinuingSubwordPrefix() (string, bool)
}

// WordPieceFromBPE derives a WordPiece model from another subword model,
// usually a BPE. The vocabulary is copied as is; the unknown token and the
// continuing-subword-prefix are taken over when the source defines them.
func WordPieceFromBPE(m SubwordModel) *WordPiece {
	b := NewWordPieceBuilder().Vocab(m.Vocab())
	if unk, ok := m.UnkToken(); ok && unk != "" {
		b = b.UnkToken(unk)
	}
	if prefix, ok := m.ContinuingSubwordPrefix(); ok && prefix != "" {
		b = b.ContinuingSubwordPrefix(prefix)
	}

	return newWordPiece(b.config)
}
