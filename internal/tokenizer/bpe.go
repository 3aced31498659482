package tokenizer

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Merge is a BPE merge rule joining two adjacent symbols.
type Merge struct {
	Left  string
	Right string
}

func (m Merge) less(o Merge) bool {
	if c := cmp.Compare(m.Left, o.Left); c != 0 {
		return c < 0
	}
	return m.Right < o.Right
}

// String returns the rule in the "left right" form of tokenizer.json.
func (m Merge) String() string {
	return m.Left + " " + m.Right
}

// BPE implements Byte-Pair Encoding over the characters of a word.
//
// Besides being a Model of its own, a BPE is the usual source of a derived
// WordPiece model, see WordPieceFromBPE.
type BPE struct {
	vocab                   Vocab             // token -> ID
	reverseVocab            map[uint32]string // ID -> token
	merges                  []Merge           // BPE merge rules, by priority
	ranks                   map[Merge]int     // merge -> priority
	unkToken                string
	continuingSubwordPrefix string
}

// NewBPE creates a new BPE model from vocab and merges. The earlier a merge
// appears, the higher its priority.
func NewBPE(vocab Vocab, merges []Merge) *BPE {
	ranks := make(map[Merge]int, len(merges))
	for i, m := range merges {
		if _, ok := ranks[m]; !ok {
			ranks[m] = i
		}
	}

	vocab = vocab.Clone()
	return &BPE{
		vocab:        vocab,
		reverseVocab: vocab.Reverse(),
		merges:       merges,
		ranks:        ranks,
	}
}

// WithUnkToken returns a copy of b that emits token for unknown symbols.
func (b *BPE) WithUnkToken(token string) *BPE {
	c := *b
	c.unkToken = token
	return &c
}

// WithContinuingSubwordPrefix returns a copy of b whose non-initial symbols
// carry prefix.
func (b *BPE) WithContinuingSubwordPrefix(prefix string) *BPE {
	c := *b
	c.continuingSubwordPrefix = prefix
	return &c
}

type bpeSymbol struct {
	text  string
	start int
	end   int
}

// Tokenize splits a word into characters and applies the merges by rank.
//
// Symbols missing from the vocabulary become the unknown token when one is
// configured, and are dropped otherwise.
func (b *BPE) Tokenize(sequence string) ([]Token, error) {
	if sequence == "" {
		return []Token{}, nil
	}

	runes := []rune(sequence)
	symbols := make([]bpeSymbol, len(runes))
	for i, r := range runes {
		text := string(r)
		if i > 0 {
			text = b.continuingSubwordPrefix + text
		}
		symbols[i] = bpeSymbol{text: text, start: i, end: i + 1}
	}

	// Apply BPE merges.
	for len(symbols) > 1 {
		bestIdx := -1
		bestRank := len(b.merges)

		for i := 0; i < len(symbols)-1; i++ {
			rank, ok := b.ranks[Merge{symbols[i].text, symbols[i+1].text}]
			if ok && rank < bestRank {
				bestIdx = i
				bestRank = rank
			}
		}

		if bestIdx == -1 {
			break
		}

		left, right := symbols[bestIdx], symbols[bestIdx+1]
		symbols[bestIdx] = bpeSymbol{
			text:  left.text + strings.TrimPrefix(right.text, b.continuingSubwordPrefix),
			start: left.start,
			end:   right.end,
		}
		symbols = append(symbols[:bestIdx+1], symbols[bestIdx+2:]...)
	}

	tokens := make([]Token, 0, len(symbols))
	for _, s := range symbols {
		offsets := Offsets{Start: s.start, End: s.end}
		if id, ok := b.vocab[s.text]; ok {
			tokens = append(tokens, Token{ID: id, Value: s.text, Offsets: offsets})
			continue
		}
		if b.unkToken == "" {
			continue
		}
		id, ok := b.vocab[b.unkToken]
		if !ok {
			return nil, fmt.Errorf("bpe %q: %w", b.unkToken, ErrMissingUnkToken)
		}
		tokens = append(tokens, Token{ID: id, Value: b.unkToken, Offsets: offsets})
	}

	return tokens, nil
}

// Decode joins the pieces for ids, dropping continuing-subword-prefixes.
func (b *BPE) Decode(ids []uint32) (string, error) {
	var sb strings.Builder
	for _, id := range ids {
		piece, ok := b.reverseVocab[id]
		if !ok {
			return "", fmt.Errorf("%w: %d", ErrInvalidTokenID, id)
		}
		if b.continuingSubwordPrefix != "" {
			piece = strings.TrimPrefix(piece, b.continuingSubwordPrefix)
		}
		sb.WriteString(piece)
	}

	return sb.String(), nil
}

// TokenToID returns the id of token.
func (b *BPE) TokenToID(token string) (uint32, bool) {
	id, ok := b.vocab[token]
	return id, ok
}

// IDToToken returns the token with the given id.
func (b *BPE) IDToToken(id uint32) (string, bool) {
	token, ok := b.reverseVocab[id]
	return token, ok
}

// Vocab returns a copy of the vocabulary.
func (b *BPE) Vocab() Vocab {
	return b.vocab.Clone()
}

// VocabSize returns the total vocabulary size.
func (b *BPE) VocabSize() int {
	return len(b.vocab)
}

// UnkToken returns the unknown token, if one is configured.
func (b *BPE) UnkToken() (string, bool) {
	return b.unkToken, b.unkToken != ""
}

// ContinuingSubwordPrefix returns the prefix of non-initial symbols, if any.
func (b *BPE) ContinuingSubwordPrefix() (string, bool) {
	return b.continuingSubwordPrefix, b.continuingSubwordPrefix != ""
}

// Merges returns the merge rules by priority.
func (b *BPE) Merges() []Merge {
	return append([]Merge(nil), b.merges...)
}

// Save writes the vocabulary as <name>-vocab.txt and the merges as
// <name>-merges.txt, one "left right" rule per line.
func (b *BPE) Save(dir, name string) ([]string, error) {
	vocabPath, err := SaveVocab(b.vocab, dir, name)
	if err != nil {
		return nil, err
	}

	mergesName := "merges.txt"
	if name != "" {
		mergesName = name + "-" + mergesName
	}
	mergesPath := filepath.Join(dir, mergesName)

	var sb strings.Builder
	for _, m := range b.merges {
		sb.WriteString(m.String())
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(mergesPath, []byte(sb.String()), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write merges file: %w", err)
	}

	return []string{vocabPath, mergesPath}, nil
}

var (
	_ Model        = (*BPE)(nil)
	_ SubwordModel = (*BPE)(nil)
)

// HuggingFaceTokenizerConfig represents a subset of tokenizer.json structure.
type HuggingFaceTokenizerConfig struct {
	Model struct {
		Type                    string            `json:"type"`
		Vocab                   map[string]uint32 `json:"vocab"`
		Merges                  []string          `json:"merges"`
		UnkToken                *string           `json:"unk_token"`
		ContinuingSubwordPrefix *string           `json:"continuing_subword_prefix"`
		MaxInputCharsPerWord    *int              `json:"max_input_chars_per_word"`
	} `json:"model"`
	Normalizer *struct {
		Type      string `json:"type"`
		Lowercase *bool  `json:"lowercase"`
	} `json:"normalizer"`
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
}

func readHuggingFaceConfig(path string) (*HuggingFaceTokenizerConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var config HuggingFaceTokenizerConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	return &config, nil
}

// LoadBPEFromHuggingFace loads a BPE model from tokenizer.json.
//
// This is a simplified loader that handles the most common HuggingFace format.
func LoadBPEFromHuggingFace(path string) (*BPE, error) {
	config, err := readHuggingFaceConfig(path)
	if err != nil {
		return nil, err
	}

	// Parse merges.
	var merges []Merge
	for _, mergeStr := range config.Model.Merges {
		parts := strings.Fields(mergeStr)
		if len(parts) == 2 {
			merges = append(merges, Merge{parts[0], parts[1]})
		}
	}

	bpe := NewBPE(config.Model.Vocab, merges)
	if config.Model.UnkToken != nil {
		bpe = bpe.WithUnkToken(*config.Model.UnkToken)
	}
	if config.Model.ContinuingSubwordPrefix != nil {
		bpe = bpe.WithContinuingSubwordPrefix(*config.Model.ContinuingSubwordPrefix)
	}

	return bpe, nil
}

// ExampleBPEVocab creates a minimal BPE model for testing.
func ExampleBPEVocab() *BPE {
	// Minimal vocab for demonstration.
	vocab := Vocab{
		"h":     0,
		"e":     1,
		"l":     2,
		"o":     3,
		"w":     4,
		"r":     5,
		"d":     6,
		"he":    7,
		"ll":    8,
		"wo":    9,
		"wor":   10,
		"ld":    11,
		"[UNK]": 12,
	}

	merges := []Merge{
		{"h", "e"},
		{"l", "l"},
		{"w", "o"},
		{"wo", "r"},
		{"l", "d"},
	}

	return NewBPE(vocab, merges).WithUnkToken("[UNK]")
}
