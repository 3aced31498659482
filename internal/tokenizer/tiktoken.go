package tokenizer

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// encodingCL100kBase is the encoding name for GPT-4 and GPT-3.5-turbo.
	encodingCL100kBase = "cl100k_base"
	// encodingP50kBase is the encoding name for GPT-3.
	encodingP50kBase = "p50k_base"
	// encodingR50kBase is the encoding name for older GPT-3 models.
	encodingR50kBase = "r50k_base"

	// EndOfText is the special token closing documents in tiktoken encodings.
	EndOfText = "<|endoftext|>"
)

// TikToken wraps the pkoukk/tiktoken-go library as a Model.
//
// Its pieces are byte-level BPE tokens, so a piece may hold part of a
// multi-byte character. Offsets are still reported in runes; a piece ending
// inside a character ends after it.
//
// Supported encodings:
//   - cl100k_base: GPT-4, GPT-3.5-turbo, text-embedding-ada-002
//   - p50k_base: GPT-3, Codex
//   - r50k_base: GPT-3, davinci-002, babbage-002
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string

	vocabOnce sync.Once
	vocab     Vocab
}

// NewTikToken creates a new TikToken model with the specified encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base" (GPT-3).
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}

	return &TikToken{
		encoding: encoding,
		name:     encodingName,
	}, nil
}

// NewTikTokenForModel creates a TikToken model for a specific OpenAI model.
//
// Example models: "gpt-4", "gpt-3.5-turbo", "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}

	return &TikToken{
		encoding: encoding,
		name:     modelName,
	}, nil
}

// Tokenize encodes a word and reports each piece with its rune offsets.
func (t *TikToken) Tokenize(sequence string) ([]Token, error) {
	ids := t.encoding.Encode(sequence, nil, nil)

	tokens := make([]Token, 0, len(ids))
	var byteOffset, runeOffset int
	for _, id := range ids {
		piece := t.encoding.Decode([]int{id})
		end := min(byteOffset+len(piece), len(sequence))

		// Round a split character up to the piece that completes it.
		runeEnd := runeOffset
		if utf8.ValidString(sequence[:end]) {
			runeEnd = utf8.RuneCountInString(sequence[:end])
		}

		tokens = append(tokens, Token{
			ID:      uint32(id), //nolint:gosec // G115: tiktoken ids are non-negative
			Value:   piece,
			Offsets: Offsets{Start: runeOffset, End: runeEnd},
		})
		byteOffset = end
		runeOffset = runeEnd
	}

	return tokens, nil
}

// Decode converts token IDs back to text.
func (t *TikToken) Decode(ids []uint32) (string, error) {
	// Convert []uint32 to []int.
	intTokens := make([]int, len(ids))
	for i, id := range ids {
		intTokens[i] = int(id)
	}

	return t.encoding.Decode(intTokens), nil
}

// TokenToID returns the id of token if the encoding maps it to exactly one id.
// Special tokens such as EndOfText are recognized.
func (t *TikToken) TokenToID(token string) (uint32, bool) {
	ids := t.encoding.Encode(token, []string{"all"}, nil)
	if len(ids) != 1 {
		return 0, false
	}
	return uint32(ids[0]), true //nolint:gosec // G115: tiktoken ids are non-negative
}

// IDToToken returns the text of the id. Pieces holding part of a multi-byte
// character are returned as raw bytes.
func (t *TikToken) IDToToken(id uint32) (string, bool) {
	piece := t.encoding.Decode([]int{int(id)})
	return piece, piece != ""
}

// Vocab returns the token -> id mapping. It is built on first use by
// decoding every id, which takes a moment for the larger encodings.
func (t *TikToken) Vocab() Vocab {
	t.vocabOnce.Do(func() {
		t.vocab = make(Vocab, t.VocabSize())
		for id := range t.VocabSize() {
			if piece := t.encoding.Decode([]int{id}); piece != "" {
				t.vocab[piece] = uint32(id) //nolint:gosec // G115: bounded by VocabSize
			}
		}
	})
	return t.vocab.Clone()
}

// VocabSize returns the total vocabulary size.
func (t *TikToken) VocabSize() int {
	// tiktoken-go doesn't expose vocab size directly.
	switch t.name {
	case encodingCL100kBase:
		return 100256 // Actual vocab size for cl100k_base
	case encodingP50kBase, encodingR50kBase:
		return 50257 // Actual vocab size for p50k_base
	default:
		return 100000 // Conservative default
	}
}

// Save is not supported: tiktoken pieces are raw bytes and may contain
// newlines, so they do not fit the line-oriented vocabulary format.
func (t *TikToken) Save(_, _ string) ([]string, error) {
	return nil, fmt.Errorf("tiktoken %s: %w", t.name, ErrSaveUnsupported)
}

// Name returns the encoding or model name.
func (t *TikToken) Name() string {
	return t.name
}

// String implements fmt.Stringer.
func (t *TikToken) String() string {
	return "TikToken(" + t.name + ")"
}

var _ Model = (*TikToken)(nil)
