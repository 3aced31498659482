// Package tokenizer provides subword tokenization for Born ML.
//
// This package wraps the internal tokenizer implementations and provides
// a clean public API for tokenization tasks.
//
// Supported models:
//   - WordPiece: BERT-style greedy longest-match-first subwords
//   - BPE: Byte-Pair Encoding from HuggingFace
//   - TikToken: OpenAI BPE tokenizers (GPT-3, GPT-4)
//
// Example usage:
//
//	import "github.com/born-ml/wordpiece/tokenizer"
//
//	// Build a WordPiece model from a vocabulary file
//	wp, err := tokenizer.WordPieceFromFile("vocab.txt").Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Split a word into pieces
//	tokens, err := wp.Tokenize("banana")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode whole texts
//	enc, err := tokenizer.NewEncoder(wp, tokenizer.DefaultEncoderOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ids, err := enc.Encode("Hello, world!")
package tokenizer

import (
	"github.com/born-ml/wordpiece/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations must implement this interface.
type Tokenizer = tokenizer.Tokenizer

// Model is a subword model working on single words.
type Model = tokenizer.Model

// Token is a piece produced by a Model.
type Token = tokenizer.Token

// Offsets is a half-open [Start, End) interval.
type Offsets = tokenizer.Offsets

// Vocab maps token text to id.
type Vocab = tokenizer.Vocab

// WordPiece is the greedy longest-match-first subword model.
type WordPiece = tokenizer.WordPiece

// WordPieceBuilder configures and builds a WordPiece model.
type WordPieceBuilder = tokenizer.WordPieceBuilder

// WordPieceTrainer learns a WordPiece vocabulary.
type WordPieceTrainer = tokenizer.WordPieceTrainer

// SubwordModel is what WordPieceFromBPE needs from another model.
type SubwordModel = tokenizer.SubwordModel

// BPE is the Byte-Pair Encoding model.
type BPE = tokenizer.BPE

// Merge is a BPE merge rule.
type Merge = tokenizer.Merge

// TikToken wraps OpenAI tiktoken encodings.
type TikToken = tokenizer.TikToken

// Encoder tokenizes whole texts with a Model.
type Encoder = tokenizer.Encoder

// EncoderOptions configures an Encoder.
type EncoderOptions = tokenizer.EncoderOptions

// ErrMissingUnkToken is returned when the unknown token is needed but absent
// from the vocabulary.
var ErrMissingUnkToken = tokenizer.ErrMissingUnkToken

// NewWordPieceBuilder returns a builder with the default WordPiece settings.
func NewWordPieceBuilder() WordPieceBuilder {
	return tokenizer.NewWordPieceBuilder()
}

// WordPieceFromFile returns a builder reading its vocabulary from path.
func WordPieceFromFile(path string) WordPieceBuilder {
	return tokenizer.WordPieceFromFile(path)
}

// WordPieceFromBPE derives a WordPiece model from another subword model.
func WordPieceFromBPE(m SubwordModel) *WordPiece {
	return tokenizer.WordPieceFromBPE(m)
}

// NewWordPieceTrainer returns a trainer with default settings.
func NewWordPieceTrainer() *WordPieceTrainer {
	return tokenizer.NewWordPieceTrainer()
}

// ReadVocabFile reads a line-oriented vocabulary file.
func ReadVocabFile(path string) (Vocab, error) {
	return tokenizer.ReadVocabFile(path)
}

// LoadWordPieceFromGGUF builds a WordPiece model from the vocabulary of a
// llama.cpp BERT model file.
func LoadWordPieceFromGGUF(path string) (*WordPiece, error) {
	return tokenizer.LoadWordPieceFromGGUF(path)
}

// NewBPE creates a BPE model from a vocabulary and merges.
func NewBPE(vocab Vocab, merges []Merge) *BPE {
	return tokenizer.NewBPE(vocab, merges)
}

// NewTikToken creates a new TikToken model with the specified encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base" (GPT-3).
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewEncoder creates an Encoder for model.
func NewEncoder(model Model, opts EncoderOptions) (*Encoder, error) {
	return tokenizer.NewEncoder(model, opts)
}

// DefaultEncoderOptions returns options for BERT-style vocabularies.
func DefaultEncoderOptions() EncoderOptions {
	return tokenizer.DefaultEncoderOptions()
}

// LoadFromHuggingFace loads a tokenizer from a HuggingFace model directory.
//
// The directory should contain tokenizer.json.
func LoadFromHuggingFace(modelPath string) (Tokenizer, error) {
	return tokenizer.LoadFromHuggingFace(modelPath)
}

// AutoLoad attempts to automatically load the correct tokenizer.
//
// It tries multiple strategies:
//  1. Load from HuggingFace model directory (tokenizer.json)
//  2. Load a WordPiece vocab.txt file
//  3. Load the WordPiece vocabulary of a llama.cpp BERT .gguf file
//  4. Load tiktoken by model name
//  5. Load tiktoken by encoding name
func AutoLoad(pathOrName string) (Tokenizer, error) {
	return tokenizer.AutoLoadTokenizer(pathOrName)
}

// ExampleBPE creates a minimal BPE model for testing and examples.
func ExampleBPE() *BPE {
	return tokenizer.ExampleBPEVocab()
}
