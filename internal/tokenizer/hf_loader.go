package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HFTokenizerType identifies the tokenizer implementation type.
type HFTokenizerType string

const (
	// HFTypeBPE indicates Byte-Pair Encoding tokenizer.
	HFTypeBPE HFTokenizerType = "BPE"

	// HFTypeWordPiece indicates WordPiece tokenizer (BERT-style).
	HFTypeWordPiece HFTokenizerType = "WordPiece"

	// HFTypeUnigram indicates Unigram tokenizer (SentencePiece-style).
	HFTypeUnigram HFTokenizerType = "Unigram"

	// HFTypeUnknown indicates an unknown or unsupported tokenizer type.
	HFTypeUnknown HFTokenizerType = "Unknown"
)

// HFTokenizerMetadata contains metadata from tokenizer.json.
type HFTokenizerMetadata struct {
	Type          HFTokenizerType
	VocabSize     int
	HasBOS        bool
	HasEOS        bool
	HasPAD        bool
	HasUNK        bool
	ModelName     string
	TokenizerType string
}

// DetectHFTokenizerType determines the tokenizer type from tokenizer.json.
//
//nolint:gocognit,gocyclo,cyclop // JSON parsing requires nested type assertions for complex structures.
func DetectHFTokenizerType(path string) (*HFTokenizerMetadata, error) {
	//nolint:gosec // Loading tokenizer from user-specified path is intentional.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	metadata := &HFTokenizerMetadata{
		Type: HFTypeUnknown,
	}

	// Check model type.
	if model, ok := raw["model"].(map[string]interface{}); ok {
		if tokType, ok := model["type"].(string); ok {
			metadata.TokenizerType = tokType
			switch tokType {
			case "BPE":
				metadata.Type = HFTypeBPE
			case "WordPiece":
				metadata.Type = HFTypeWordPiece
			case "Unigram":
				metadata.Type = HFTypeUnigram
			}
		}

		// Get vocab size.
		if vocab, ok := model["vocab"].(map[string]interface{}); ok {
			metadata.VocabSize = len(vocab)
		}

		if unk, ok := model["unk_token"].(string); ok && unk != "" {
			if vocab, ok := model["vocab"].(map[string]interface{}); ok {
				_, metadata.HasUNK = vocab[unk]
			}
		}
	}

	// Check for special tokens.
	if addedTokens, ok := raw["added_tokens"].([]interface{}); ok {
		for _, tokenRaw := range addedTokens {
			if token, ok := tokenRaw.(map[string]interface{}); ok {
				if content, ok := token["content"].(string); ok {
					switch content {
					case "<s>", "<bos>", "[CLS]":
						metadata.HasBOS = true
					case "</s>", "<eos>", "[SEP]":
						metadata.HasEOS = true
					case "<pad>", "[PAD]":
						metadata.HasPAD = true
					case "<unk>", "[UNK]":
						metadata.HasUNK = true
					}
				}
			}
		}
	}

	return metadata, nil
}

// LoadWordPieceFromHuggingFace loads a WordPiece model from tokenizer.json.
//
// Settings missing from the file keep the WordPieceBuilder defaults.
func LoadWordPieceFromHuggingFace(path string) (*WordPiece, error) {
	config, err := readHuggingFaceConfig(path)
	if err != nil {
		return nil, err
	}
	if config.Model.Type != "" && config.Model.Type != string(HFTypeWordPiece) {
		return nil, fmt.Errorf("tokenizer.json model type is %q, not WordPiece", config.Model.Type)
	}

	return wordPieceBuilderFromHuggingFace(config).Build()
}

func wordPieceBuilderFromHuggingFace(config *HuggingFaceTokenizerConfig) WordPieceBuilder {
	b := NewWordPieceBuilder().Vocab(config.Model.Vocab)
	if config.Model.UnkToken != nil {
		b = b.UnkToken(*config.Model.UnkToken)
	}
	if config.Model.ContinuingSubwordPrefix != nil {
		b = b.ContinuingSubwordPrefix(*config.Model.ContinuingSubwordPrefix)
	}
	if config.Model.MaxInputCharsPerWord != nil {
		b = b.MaxInputCharsPerWord(*config.Model.MaxInputCharsPerWord)
	}
	return b
}

// encoderOptionsFromHuggingFace derives Encoder options from the normalizer
// and added_tokens sections.
func encoderOptionsFromHuggingFace(config *HuggingFaceTokenizerConfig) EncoderOptions {
	opts := DefaultEncoderOptions()
	opts.BosToken, opts.EosToken, opts.PadToken = "", "", ""
	if config.Model.UnkToken != nil {
		opts.UnkToken = *config.Model.UnkToken
	}

	if n := config.Normalizer; n != nil && n.Type == "BertNormalizer" {
		// BertNormalizer lowercases unless told otherwise.
		opts.Lowercase = n.Lowercase == nil || *n.Lowercase
	}

	opts.AddedTokens = make(Vocab)
	for _, addedToken := range config.AddedTokens {
		if !addedToken.Special {
			continue
		}
		opts.AddedTokens[addedToken.Content] = uint32(addedToken.ID) //nolint:gosec // G115: ids in tokenizer.json are non-negative

		// Try to identify standard special tokens.
		content := strings.ToLower(addedToken.Content)
		switch {
		case strings.Contains(content, "bos") || content == "<s>" || content == "[cls]":
			opts.BosToken = addedToken.Content
		case strings.Contains(content, "eos") || content == "</s>" || content == "[sep]":
			opts.EosToken = addedToken.Content
		case strings.Contains(content, "pad"):
			opts.PadToken = addedToken.Content
		case strings.Contains(content, "unk"):
			opts.UnkToken = addedToken.Content
		}
	}

	return opts
}

// LoadFromHuggingFace loads a tokenizer from a HuggingFace model directory.
//
// The directory should contain tokenizer.json. WordPiece and BPE models are
// supported.
func LoadFromHuggingFace(modelPath string) (Tokenizer, error) {
	tokenizerPath := filepath.Join(modelPath, "tokenizer.json")

	// Detect tokenizer type.
	metadata, err := DetectHFTokenizerType(tokenizerPath)
	if err != nil {
		return nil, err
	}

	config, err := readHuggingFaceConfig(tokenizerPath)
	if err != nil {
		return nil, err
	}

	// Load based on type.
	var model Model
	switch metadata.Type {
	case HFTypeBPE:
		model, err = LoadBPEFromHuggingFace(tokenizerPath)
	case HFTypeWordPiece:
		model, err = wordPieceBuilderFromHuggingFace(config).Build()
	case HFTypeUnigram:
		return nil, fmt.Errorf("unigram tokenizer not yet implemented (requires SentencePiece)")
	default:
		return nil, fmt.Errorf("unknown tokenizer type: %s", metadata.TokenizerType)
	}
	if err != nil {
		return nil, err
	}

	enc, err := NewEncoder(model, encoderOptionsFromHuggingFace(config))
	if err != nil {
		return nil, err
	}
	return enc, nil
}

// TryLoadTikToken attempts to load a tiktoken-compatible tokenizer.
//
// This is a fallback for models that use OpenAI-style tokenizers.
func TryLoadTikToken(modelName string) (Tokenizer, error) {
	// Map common model names to tiktoken encodings.
	encodingMap := map[string]string{
		"gpt-4":                  "cl100k_base",
		"gpt-3.5-turbo":          "cl100k_base",
		"gpt-3":                  "p50k_base",
		"text-davinci-003":       "p50k_base",
		"text-embedding-ada-002": "cl100k_base",
	}

	var (
		tok *TikToken
		err error
	)
	if encoding, ok := encodingMap[modelName]; ok {
		tok, err = NewTikToken(encoding)
	} else {
		// Try to use the model name directly.
		tok, err = NewTikTokenForModel(modelName)
	}
	if err != nil {
		return nil, err
	}

	enc, err := newTikTokenEncoder(tok)
	if err != nil {
		return nil, err
	}
	return enc, nil
}

func newTikTokenEncoder(tok *TikToken) (*Encoder, error) {
	opts := DefaultEncoderOptions()
	opts.BosToken, opts.PadToken, opts.UnkToken = "", "", ""
	opts.EosToken = EndOfText
	return NewEncoder(tok, opts)
}

// AutoLoadTokenizer attempts to automatically load the correct tokenizer.
//
// It tries multiple strategies:
//  1. Load from HuggingFace model directory (tokenizer.json)
//  2. Load a WordPiece vocab.txt file
//  3. Load the WordPiece vocabulary of a llama.cpp BERT .gguf file
//  4. Load tiktoken by model name
//  5. Load tiktoken by encoding name
func AutoLoadTokenizer(pathOrName string) (Tokenizer, error) {
	// Strategy 1: Try as HuggingFace model directory.
	if info, err := os.Stat(pathOrName); err == nil && info.IsDir() {
		tokenizerPath := filepath.Join(pathOrName, "tokenizer.json")
		if _, err := os.Stat(tokenizerPath); err == nil {
			tokenizer, err := LoadFromHuggingFace(pathOrName)
			if err == nil {
				return tokenizer, nil
			}
		}
	}

	// Strategy 2: Try as a line-oriented WordPiece vocabulary.
	if info, err := os.Stat(pathOrName); err == nil && !info.IsDir() && strings.HasSuffix(pathOrName, ".txt") {
		if wp, err := WordPieceFromFile(pathOrName).Build(); err == nil {
			if enc, err := NewEncoder(wp, DefaultEncoderOptions()); err == nil {
				return enc, nil
			}
		}
	}

	// Strategy 3: Try as a llama.cpp GGUF model.
	if strings.HasSuffix(pathOrName, ".gguf") {
		if wp, err := LoadWordPieceFromGGUF(pathOrName); err == nil {
			if enc, err := NewEncoder(wp, DefaultEncoderOptions()); err == nil {
				return enc, nil
			}
		}
	}

	// Strategy 4: Try as tiktoken model name.
	if tokenizer, err := TryLoadTikToken(pathOrName); err == nil {
		return tokenizer, nil
	}

	// Strategy 5: Try as tiktoken encoding name.
	if tok, err := NewTikToken(pathOrName); err == nil {
		if enc, err := newTikTokenEncoder(tok); err == nil {
			return enc, nil
		}
	}

	return nil, fmt.Errorf("failed to auto-load tokenizer from %q", pathOrName)
}
