package tokenizer

import (
	"fmt"
	"strings"

	"github.com/born-ml/wordpiece/internal/logutil"
)

const (
	// DefaultUnkToken is the unknown token used unless configured otherwise.
	DefaultUnkToken = "[UNK]"
	// DefaultContinuingSubwordPrefix marks pieces that continue a word.
	DefaultContinuingSubwordPrefix = "##"
	// DefaultMaxInputCharsPerWord is the longest word tokenized piece by piece.
	DefaultMaxInputCharsPerWord = 100

	// wordStart is prepended to every word inside the trie so that
	// word-initial pieces and continuing pieces live in one tree.
	wordStart = '▁'
)

// WordPiece is the greedy longest-match-first subword model used by BERT.
//
// A WordPiece is built by WordPieceBuilder and never modified afterwards,
// so it can be shared between goroutines without locking. To change the
// vocabulary or settings, build a new model and swap the pointer.
type WordPiece struct {
	vocab                   Vocab
	vocabR                  map[uint32]string
	trie                    *trie
	unkToken                string
	continuingSubwordPrefix string
	maxInputCharsPerWord    int
}

// newWordPiece assembles a model from a finished configuration.
// The vocabulary is owned by the returned model.
func newWordPiece(cfg wordPieceConfig) *WordPiece {
	t := newTrie()
	prefix := []rune(cfg.continuingSubwordPrefix)
	for token := range cfg.vocab {
		t.Push(trieKey(token, cfg.continuingSubwordPrefix, len(prefix)))
	}

	return &WordPiece{
		vocab:                   cfg.vocab,
		vocabR:                  cfg.vocab.Reverse(),
		trie:                    t,
		unkToken:                cfg.unkToken,
		continuingSubwordPrefix: cfg.continuingSubwordPrefix,
		maxInputCharsPerWord:    cfg.maxInputCharsPerWord,
	}
}

// trieKey returns the trie path for a vocabulary token: continuing pieces
// lose their prefix, every other token gets the word-start sentinel.
func trieKey(token, prefix string, prefixLen int) []rune {
	if strings.HasPrefix(token, prefix) {
		return []rune(token)[prefixLen:]
	}

	key := make([]rune, 0, len(token)+1)
	key = append(key, wordStart)
	return append(key, []rune(token)...)
}

// Tokenize splits a single word into its longest known pieces.
//
// If the word is longer than MaxInputCharsPerWord, or cannot be covered
// entirely by vocabulary pieces, a single unknown token spanning the whole
// word is returned instead. ErrMissingUnkToken is returned when that
// fallback is needed but the unknown token is not in the vocabulary.
func (wp *WordPiece) Tokenize(sequence string) ([]Token, error) {
	chars := make([]rune, 0, len(sequence)+1)
	chars = append(chars, wordStart)
	chars = append(chars, []rune(sequence)...)
	wordLen := len(chars) - 1

	if len(chars) > wp.maxInputCharsPerWord+1 {
		logutil.Trace("word too long", "chars", wordLen, "max", wp.maxInputCharsPerWord)
		return wp.unknown(wordLen)
	}

	if id, ok := wp.vocab[sequence]; ok {
		return []Token{{ID: id, Value: sequence, Offsets: Offsets{Start: 0, End: wordLen}}}, nil
	}

	var tokens []Token
	cursor := 0
	for start, stop := range wp.trie.Matches(chars) {
		if cursor < start {
			return wp.unknown(wordLen)
		}

		// Position 0 is the sentinel and never part of a piece.
		if start == 0 {
			start = 1
		}

		piece := string(chars[start:stop])
		if start > 1 {
			piece = wp.continuingSubwordPrefix + piece
		}

		// A trie path does not guarantee that the rebuilt piece is a key.
		id, ok := wp.vocab[piece]
		if !ok {
			logutil.Trace("piece not in vocabulary", "word", sequence, "piece", piece)
			return wp.unknown(wordLen)
		}

		tokens = append(tokens, Token{
			ID:      id,
			Value:   piece,
			Offsets: Offsets{Start: start - 1, End: stop - 1},
		})
		cursor = stop
	}

	if cursor != len(chars) {
		logutil.Trace("word not covered by vocabulary", "word", sequence, "covered", max(cursor-1, 0))
		return wp.unknown(wordLen)
	}

	return tokens, nil
}

// unknown returns the whole-word fallback for a word of length runes.
func (wp *WordPiece) unknown(length int) ([]Token, error) {
	id, ok := wp.vocab[wp.unkToken]
	if !ok {
		return nil, fmt.Errorf("wordpiece %q: %w", wp.unkToken, ErrMissingUnkToken)
	}

	return []Token{{ID: id, Value: wp.unkToken, Offsets: Offsets{Start: 0, End: length}}}, nil
}

// TokenToID returns the id of token.
func (wp *WordPiece) TokenToID(token string) (uint32, bool) {
	id, ok := wp.vocab[token]
	return id, ok
}

// IDToToken returns the token with the given id.
func (wp *WordPiece) IDToToken(id uint32) (string, bool) {
	token, ok := wp.vocabR[id]
	return token, ok
}

// Vocab returns a copy of the vocabulary.
func (wp *WordPiece) Vocab() Vocab {
	return wp.vocab.Clone()
}

// VocabSize returns the number of vocabulary entries.
func (wp *WordPiece) VocabSize() int {
	return len(wp.vocab)
}

// UnkToken returns the unknown token text.
func (wp *WordPiece) UnkToken() string {
	return wp.unkToken
}

// ContinuingSubwordPrefix returns the prefix that marks continuing pieces.
func (wp *WordPiece) ContinuingSubwordPrefix() string {
	return wp.continuingSubwordPrefix
}

// MaxInputCharsPerWord returns the longest word, in runes, that is split into pieces.
func (wp *WordPiece) MaxInputCharsPerWord() int {
	return wp.maxInputCharsPerWord
}

// Decode joins pieces back into text. Continuing pieces are glued to the
// previous piece without their prefix; other pieces start a new word.
func (wp *WordPiece) Decode(ids []uint32) (string, error) {
	var sb strings.Builder
	for i, id := range ids {
		piece, ok := wp.vocabR[id]
		if !ok {
			return "", fmt.Errorf("%w: %d", ErrInvalidTokenID, id)
		}

		if rest, found := strings.CutPrefix(piece, wp.continuingSubwordPrefix); found && i > 0 {
			sb.WriteString(rest)
			continue
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(piece)
	}

	return sb.String(), nil
}

// Save writes the vocabulary to dir. See SaveVocab.
func (wp *WordPiece) Save(dir, name string) ([]string, error) {
	path, err := SaveVocab(wp.vocab, dir, name)
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// Trainer returns a fresh trainer using this model's unknown token and
// continuing-subword-prefix.
func (wp *WordPiece) Trainer() *WordPieceTrainer {
	trainer := NewWordPieceTrainer()
	trainer.SpecialTokens = []string{wp.unkToken}
	trainer.ContinuingSubwordPrefix = wp.continuingSubwordPrefix
	return trainer
}

// String implements fmt.Stringer.
func (wp *WordPiece) String() string {
	return fmt.Sprintf("WordPiece(vocab=%d, unk=%q, prefix=%q, max_input_chars_per_word=%d)",
		len(wp.vocab), wp.unkToken, wp.continuingSubwordPrefix, wp.maxInputCharsPerWord)
}

var _ Model = (*WordPiece)(nil)
