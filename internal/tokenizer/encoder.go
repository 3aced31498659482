package tokenizer

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/born-ml/wordpiece/internal/parallel"
)

// EncoderOptions configures an Encoder.
type EncoderOptions struct {
	// Lowercase lowercases text before splitting it into words.
	Lowercase bool
	// Normalization is one of "", "nfc", "nfd", "nfkc" or "nfkd".
	Normalization string
	// CacheSize is the number of distinct words whose tokens are cached.
	// Zero disables the cache.
	CacheSize int
	// Parallel controls EncodeBatch.
	Parallel parallel.Config

	// AddedTokens are special tokens living outside the model vocabulary,
	// as listed under "added_tokens" in tokenizer.json.
	AddedTokens Vocab

	// Special token texts, looked up in AddedTokens and then in the model
	// vocabulary. Missing or empty tokens report -1.
	BosToken string
	EosToken string
	PadToken string
	UnkToken string
}

// DefaultEncoderOptions returns options for BERT-style WordPiece vocabularies.
func DefaultEncoderOptions() EncoderOptions {
	return EncoderOptions{
		Parallel: parallel.DefaultConfig(),
		BosToken: "[CLS]",
		EosToken: "[SEP]",
		PadToken: "[PAD]",
		UnkToken: DefaultUnkToken,
	}
}

// Encoder turns whole texts into token ids: it normalizes the text, splits
// it into words with SplitWords and runs the Model on every word.
//
// Encoder implements Tokenizer and is safe for concurrent use.
type Encoder struct {
	model      Model
	opts       EncoderOptions
	normalizer Normalizer
	cache      *lru.Cache[string, []Token]
	bos        int32
	eos        int32
	pad        int32
	unk        int32
	specials   map[int32]bool
}

// NewEncoder creates an Encoder for model.
func NewEncoder(model Model, opts EncoderOptions) (*Encoder, error) {
	e := &Encoder{
		model:    model,
		opts:     opts,
		specials: make(map[int32]bool),
	}

	normalizer, err := NewNormalizer(opts.Normalization, opts.Lowercase)
	if err != nil {
		return nil, err
	}
	e.normalizer = normalizer

	if opts.CacheSize > 0 {
		cache, err := lru.New[string, []Token](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create word cache: %w", err)
		}
		e.cache = cache
	}

	for _, id := range opts.AddedTokens {
		e.specials[int32(id)] = true //nolint:gosec // G115: token ID fits in int32 - vocab size < 2^31.
	}
	e.bos = e.specialID(opts.BosToken)
	e.eos = e.specialID(opts.EosToken)
	e.pad = e.specialID(opts.PadToken)
	e.unk = e.specialID(opts.UnkToken)

	return e, nil
}

func (e *Encoder) specialID(token string) int32 {
	if token == "" {
		return -1
	}
	id, ok := e.opts.AddedTokens[token]
	if !ok {
		id, ok = e.model.TokenToID(token)
	}
	if !ok {
		return -1
	}
	sid := int32(id) //nolint:gosec // G115: token ID fits in int32 - vocab size < 2^31.
	e.specials[sid] = true
	return sid
}

// Model returns the underlying subword model.
func (e *Encoder) Model() Model {
	return e.model
}

// Normalize applies the configured unicode normalization and lowercasing.
func (e *Encoder) Normalize(text string) string {
	return e.normalizer.Normalize(text)
}

// EncodeTokens encodes text and returns the tokens. Offsets are byte
// offsets into Normalize(text).
func (e *Encoder) EncodeTokens(text string) ([]Token, error) {
	text = e.Normalize(text)

	var tokens []Token
	for w := range SplitWords(text) {
		pieces, err := e.tokenizeWord(w.Text)
		if err != nil {
			return nil, err
		}

		positions := runePositions(w.Text)
		for _, p := range pieces {
			tokens = append(tokens, Token{
				ID:    p.ID,
				Value: p.Value,
				Offsets: Offsets{
					Start: w.Offset + positions[min(p.Offsets.Start, len(positions)-1)],
					End:   w.Offset + positions[min(p.Offsets.End, len(positions)-1)],
				},
			})
		}
	}

	return tokens, nil
}

func (e *Encoder) tokenizeWord(word string) ([]Token, error) {
	if e.cache != nil {
		if tokens, ok := e.cache.Get(word); ok {
			return tokens, nil
		}
	}

	tokens, err := e.model.Tokenize(word)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize %q: %w", word, err)
	}

	if e.cache != nil {
		e.cache.Add(word, tokens)
	}
	return tokens, nil
}

// runePositions returns the byte position of every rune in s, followed by len(s).
func runePositions(s string) []int {
	positions := make([]int, 0, len(s)+1)
	for i := range s {
		positions = append(positions, i)
	}
	return append(positions, len(s))
}

// Encode converts text to token IDs.
func (e *Encoder) Encode(text string) ([]int32, error) {
	tokens, err := e.EncodeTokens(text)
	if err != nil {
		return nil, err
	}

	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = int32(tok.ID) //nolint:gosec // G115: token ID fits in int32 - vocab size < 2^31.
	}
	return ids, nil
}

// EncodeBatch encodes every text, spreading the work over goroutines as
// configured by EncoderOptions.Parallel.
func (e *Encoder) EncodeBatch(texts []string) ([][]int32, error) {
	out := make([][]int32, len(texts))
	err := parallel.ForErr(len(texts), func(i int) error {
		ids, err := e.Encode(texts[i])
		if err != nil {
			return err
		}
		out[i] = ids
		return nil
	}, e.opts.Parallel)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Decode converts token IDs back to text.
func (e *Encoder) Decode(tokens []int32) (string, error) {
	ids := make([]uint32, len(tokens))
	for i, tok := range tokens {
		if tok < 0 {
			return "", fmt.Errorf("%w: %d", ErrInvalidTokenID, tok)
		}
		ids[i] = uint32(tok)
	}
	return e.model.Decode(ids)
}

// VocabSize returns the total vocabulary size.
func (e *Encoder) VocabSize() int {
	return e.model.VocabSize()
}

// BosToken returns the beginning-of-sequence token ID.
func (e *Encoder) BosToken() int32 {
	return e.bos
}

// EosToken returns the end-of-sequence token ID.
func (e *Encoder) EosToken() int32 {
	return e.eos
}

// PadToken returns the padding token ID.
func (e *Encoder) PadToken() int32 {
	return e.pad
}

// UnkToken returns the unknown token ID.
func (e *Encoder) UnkToken() int32 {
	return e.unk
}

// IsSpecialToken checks if a token ID is a special token.
func (e *Encoder) IsSpecialToken(token int32) bool {
	return e.specials[token]
}

var _ Tokenizer = (*Encoder)(nil)
