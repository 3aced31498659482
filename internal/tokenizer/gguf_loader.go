package tokenizer

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/born-ml/wordpiece/internal/gguf"
)

// ggufBertModel is the tokenizer.ggml.model value of WordPiece vocabularies.
const ggufBertModel = "bert"

const ggufVocabFileName = "vocab.gguf"

// GGUFVocabFileName returns the GGUF vocabulary file name for an optional
// name prefix.
func GGUFVocabFileName(name string) string {
	if name == "" {
		return ggufVocabFileName
	}
	return name + "-" + ggufVocabFileName
}

// isBracketed reports special tokens such as [CLS], which llama.cpp stores
// unchanged.
func isBracketed(token string) bool {
	return len(token) >= 2 && strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]")
}

// toGGUFToken converts a piece to the llama.cpp form: word-initial pieces
// gain the word-start marker and continuing pieces lose their prefix.
func toGGUFToken(token, prefix string) string {
	if isBracketed(token) {
		return token
	}
	if rest, ok := strings.CutPrefix(token, prefix); ok && prefix != "" {
		return rest
	}
	return string(wordStart) + token
}

// fromGGUFToken reverses toGGUFToken.
func fromGGUFToken(token, prefix string) string {
	if isBracketed(token) {
		return token
	}
	if rest, ok := strings.CutPrefix(token, string(wordStart)); ok {
		return rest
	}
	return prefix + token
}

// LoadWordPieceFromGGUF builds a WordPiece model from the vocabulary of a
// llama.cpp BERT model. GGUF does not record the continuing-subword-prefix,
// so continuing pieces get DefaultContinuingSubwordPrefix.
func LoadWordPieceFromGGUF(path string) (*WordPiece, error) {
	f, err := gguf.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read GGUF file: %w", err)
	}

	if model := f.TokenizerModel(); model != ggufBertModel {
		return nil, fmt.Errorf("tokenizer model is %q, not %q", model, ggufBertModel)
	}

	tokens := f.Tokens()
	if len(tokens) == 0 {
		return nil, errors.New("GGUF file has no tokenizer vocabulary")
	}

	vocab := make(Vocab, len(tokens))
	for id, token := range tokens {
		vocab[fromGGUFToken(token, DefaultContinuingSubwordPrefix)] = uint32(id) //nolint:gosec // G115: bounded by array length check
	}

	builder := NewWordPieceBuilder().Vocab(vocab)
	if id, ok := f.TokenID(gguf.KeyUnknownTokenID); ok && int(id) < len(tokens) {
		builder = builder.UnkToken(fromGGUFToken(tokens[id], DefaultContinuingSubwordPrefix))
	}
	return builder.Build()
}

// SaveGGUF writes the vocabulary as a tokenizer-only GGUF file into dir under
// GGUFVocabFileName(name) and returns the written path. The vocabulary must
// have dense ids since GGUF stores tokens by position.
func (wp *WordPiece) SaveGGUF(dir, name string) (string, error) {
	if !wp.vocab.IsDense() {
		return "", errors.New("GGUF export needs a vocabulary with dense ids")
	}

	tokens := wp.vocab.Tokens()
	converted := make([]string, len(tokens))
	types := make([]int32, len(tokens))
	for i, token := range tokens {
		converted[i] = toGGUFToken(token, wp.continuingSubwordPrefix)
		switch {
		case token == wp.unkToken:
			types[i] = int32(gguf.TokenTypeUnknown)
		case isBracketed(token):
			types[i] = int32(gguf.TokenTypeControl)
		default:
			types[i] = int32(gguf.TokenTypeNormal)
		}
	}

	metadata := []gguf.MetadataKV{
		{Key: gguf.KeyArchitecture, Value: ggufBertModel},
		{Key: gguf.KeyTokenizerModel, Value: ggufBertModel},
		{Key: gguf.KeyTokens, Value: converted},
		{Key: gguf.KeyTokenTypes, Value: types},
	}
	specials := []struct{ key, token string }{
		{gguf.KeyUnknownTokenID, wp.unkToken},
		{gguf.KeyPaddingTokenID, "[PAD]"},
		{gguf.KeyCLSTokenID, "[CLS]"},
		{gguf.KeySeparatorTokenID, "[SEP]"},
		{gguf.KeyMaskTokenID, "[MASK]"},
	}
	for _, s := range specials {
		if id, ok := wp.vocab[s.token]; ok {
			metadata = append(metadata, gguf.MetadataKV{Key: s.key, Value: id})
		}
	}

	path := filepath.Join(dir, GGUFVocabFileName(name))
	f, err := os.Create(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return "", fmt.Errorf("failed to create GGUF file: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := gguf.Write(bw, metadata); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write GGUF file: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write GGUF file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write GGUF file: %w", err)
	}
	return path, nil
}
