package tokenizer

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWordPiece(t *testing.T, vocab Vocab) *WordPiece {
	t.Helper()

	wp, err := NewWordPieceBuilder().Vocab(vocab).Build()
	require.NoError(t, err)
	return wp
}

func bananaVocab() Vocab {
	return Vocab{
		"##na":  0,
		"ba":    1,
		"[UNK]": 2,
	}
}

func TestWordPiece_Tokenize(t *testing.T) {
	wp := buildWordPiece(t, Vocab{"a": 0, "sentence": 1})

	tokens, err := wp.Tokenize("a")
	require.NoError(t, err)
	assert.Equal(t, []Token{{ID: 0, Value: "a", Offsets: Offsets{0, 1}}}, tokens)

	tokens, err = wp.Tokenize("sentence")
	require.NoError(t, err)
	assert.Equal(t, []Token{{ID: 1, Value: "sentence", Offsets: Offsets{0, 8}}}, tokens)
}

func TestWordPiece_TokenizePieces(t *testing.T) {
	wp := buildWordPiece(t, bananaVocab())

	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "word-initial then continuing pieces",
			input: "banana",
			want: []Token{
				{ID: 1, Value: "ba", Offsets: Offsets{0, 2}},
				{ID: 0, Value: "##na", Offsets: Offsets{2, 4}},
				{ID: 0, Value: "##na", Offsets: Offsets{4, 6}},
			},
		},
		{
			name:  "no word-initial piece",
			input: "nanana",
			want:  []Token{{ID: 2, Value: "[UNK]", Offsets: Offsets{0, 6}}},
		},
		{
			name:  "trailing remainder",
			input: "banan",
			want:  []Token{{ID: 2, Value: "[UNK]", Offsets: Offsets{0, 5}}},
		},
		{
			name:  "empty word",
			input: "",
			want:  []Token{{ID: 2, Value: "[UNK]", Offsets: Offsets{0, 0}}},
		},
		{
			name:  "unknown token itself is a full word",
			input: "[UNK]",
			want:  []Token{{ID: 2, Value: "[UNK]", Offsets: Offsets{0, 5}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wp.Tokenize(tt.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected tokens (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWordPiece_MissingUnkToken(t *testing.T) {
	wp := buildWordPiece(t, Vocab{"a": 0, "##b": 1})

	tests := []struct {
		name  string
		input string
	}{
		{name: "no segmentation", input: "ba"},
		{name: "trailing remainder", input: "ac"},
		{name: "too long", input: strings.Repeat("a", 101)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := wp.Tokenize(tt.input)
			require.ErrorIs(t, err, ErrMissingUnkToken)
			assert.Nil(t, tokens)
		})
	}

	// Words that segment fine never need the unknown token.
	tokens, err := wp.Tokenize("abb")
	require.NoError(t, err)
	assert.Len(t, tokens, 3)
}

func TestWordPiece_MaxInputCharsPerWord(t *testing.T) {
	vocab := Vocab{"[UNK]": 0, "a": 1, "##a": 2, "aaaaaa": 3}
	wp, err := NewWordPieceBuilder().Vocab(vocab).MaxInputCharsPerWord(5).Build()
	require.NoError(t, err)

	t.Run("at limit", func(t *testing.T) {
		tokens, err := wp.Tokenize("aaaaa")
		require.NoError(t, err)
		assert.Len(t, tokens, 5)
	})

	t.Run("over limit", func(t *testing.T) {
		tokens, err := wp.Tokenize("aaaaaaa")
		require.NoError(t, err)
		assert.Equal(t, []Token{{ID: 0, Value: "[UNK]", Offsets: Offsets{0, 7}}}, tokens)
	})

	t.Run("guard runs before the full-word lookup", func(t *testing.T) {
		tokens, err := wp.Tokenize("aaaaaa")
		require.NoError(t, err)
		assert.Equal(t, []Token{{ID: 0, Value: "[UNK]", Offsets: Offsets{0, 6}}}, tokens)
	})

	t.Run("limit counts runes", func(t *testing.T) {
		tokens, err := wp.Tokenize("éééééé")
		require.NoError(t, err)
		assert.Equal(t, []Token{{ID: 0, Value: "[UNK]", Offsets: Offsets{0, 6}}}, tokens)
	})
}

func TestWordPiece_PieceRecheckedAgainstVocab(t *testing.T) {
	// "##▁x" is keyed as "▁x" in the trie, which is also the key a
	// word-initial "x" would have. The rebuilt piece "x" is not a token.
	wp := buildWordPiece(t, Vocab{"##▁x": 0, "[UNK]": 1, "y": 2})

	tokens, err := wp.Tokenize("x")
	require.NoError(t, err)
	assert.Equal(t, []Token{{ID: 1, Value: "[UNK]", Offsets: Offsets{0, 1}}}, tokens)
}

func TestWordPiece_FallbackDiscardsPieces(t *testing.T) {
	wp := buildWordPiece(t, Vocab{"[UNK]": 0, "un": 1, "##aff": 2, "##able": 3})

	tokens, err := wp.Tokenize("unaffable")
	require.NoError(t, err)
	assert.Len(t, tokens, 3)

	tokens, err = wp.Tokenize("unaffablex")
	require.NoError(t, err)
	assert.Equal(t, []Token{{ID: 0, Value: "[UNK]", Offsets: Offsets{0, 10}}}, tokens)
}

func TestWordPiece_Unicode(t *testing.T) {
	wp := buildWordPiece(t, Vocab{"[UNK]": 0, "日本": 1, "##語": 2, "caf": 3, "##é": 4})

	tokens, err := wp.Tokenize("日本語")
	require.NoError(t, err)
	assert.Equal(t, []Token{
		{ID: 1, Value: "日本", Offsets: Offsets{0, 2}},
		{ID: 2, Value: "##語", Offsets: Offsets{2, 3}},
	}, tokens)

	tokens, err = wp.Tokenize("café")
	require.NoError(t, err)
	assert.Equal(t, []Token{
		{ID: 3, Value: "caf", Offsets: Offsets{0, 3}},
		{ID: 4, Value: "##é", Offsets: Offsets{3, 4}},
	}, tokens)
}

func TestWordPiece_CustomPrefix(t *testing.T) {
	wp, err := NewWordPieceBuilder().
		Vocab(Vocab{"<unk>": 0, "ba": 1, "@@na": 2, "##na": 3}).
		UnkToken("<unk>").
		ContinuingSubwordPrefix("@@").
		Build()
	require.NoError(t, err)

	tokens, err := wp.Tokenize("banana")
	require.NoError(t, err)
	assert.Equal(t, []string{"ba", "@@na", "@@na"}, tokenValues(tokens))
}

func TestWordPiece_EmptyPrefix(t *testing.T) {
	// Every token counts as a continuing piece, so only whole words match.
	wp, err := NewWordPieceBuilder().
		Vocab(Vocab{"[UNK]": 0, "ba": 1, "na": 2}).
		ContinuingSubwordPrefix("").
		Build()
	require.NoError(t, err)

	tokens, err := wp.Tokenize("ba")
	require.NoError(t, err)
	assert.Equal(t, []string{"ba"}, tokenValues(tokens))

	tokens, err = wp.Tokenize("bana")
	require.NoError(t, err)
	assert.Equal(t, []Token{{ID: 0, Value: "[UNK]", Offsets: Offsets{Start: 0, End: 4}}}, tokens)
}

func tokenValues(tokens []Token) []string {
	values := make([]string, len(tokens))
	for i, tok := range tokens {
		values[i] = tok.Value
	}
	return values
}

func TestWordPiece_PiecesReconstructWord(t *testing.T) {
	vocab := Vocab{
		"[UNK]": 0, "un": 1, "##aff": 2, "##able": 3, "play": 4, "##ing": 5,
		"##s": 6, "a": 7, "##a": 8, "##b": 9, "b": 10, "##y": 11, "##ed": 12,
	}
	wp := buildWordPiece(t, vocab)

	for _, word := range []string{"unaffable", "playing", "plays", "played", "abba", "baby"} {
		t.Run(word, func(t *testing.T) {
			tokens, err := wp.Tokenize(word)
			require.NoError(t, err)
			require.NotEqual(t, "[UNK]", tokens[0].Value)

			var sb strings.Builder
			cursor := 0
			for i, tok := range tokens {
				piece := tok.Value
				if i > 0 {
					require.True(t, strings.HasPrefix(piece, "##"))
					piece = strings.TrimPrefix(piece, "##")
				}
				assert.Equal(t, cursor, tok.Offsets.Start)
				assert.Equal(t, len([]rune(piece)), tok.Offsets.Len())
				cursor = tok.Offsets.End
				sb.WriteString(piece)
			}
			assert.Equal(t, word, sb.String())
			assert.Equal(t, len([]rune(word)), cursor)
		})
	}
}

func TestWordPiece_Lookups(t *testing.T) {
	wp := buildWordPiece(t, bananaVocab())

	assert.Equal(t, 3, wp.VocabSize())

	id, ok := wp.TokenToID("##na")
	assert.True(t, ok)
	assert.Equal(t, uint32(0), id)

	_, ok = wp.TokenToID("na")
	assert.False(t, ok)

	token, ok := wp.IDToToken(1)
	assert.True(t, ok)
	assert.Equal(t, "ba", token)

	_, ok = wp.IDToToken(99)
	assert.False(t, ok)

	vocab := wp.Vocab()
	assert.Equal(t, bananaVocab(), vocab)

	// The returned vocabulary is a copy.
	vocab["zz"] = 7
	_, ok = wp.TokenToID("zz")
	assert.False(t, ok)
}

func TestWordPiece_Decode(t *testing.T) {
	wp := buildWordPiece(t, Vocab{"[UNK]": 0, "un": 1, "##aff": 2, "##able": 3, "hello": 4})

	text, err := wp.Decode([]uint32{4, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "hello unaffable", text)

	text, err = wp.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = wp.Decode([]uint32{42})
	assert.ErrorIs(t, err, ErrInvalidTokenID)
}

func TestWordPiece_Trainer(t *testing.T) {
	wp, err := NewWordPieceBuilder().UnkToken("<unk>").ContinuingSubwordPrefix("@@").Build()
	require.NoError(t, err)

	trainer := wp.Trainer()
	assert.Equal(t, []string{"<unk>"}, trainer.SpecialTokens)
	assert.Equal(t, "@@", trainer.ContinuingSubwordPrefix)

	// Every call returns a fresh trainer.
	trainer.Feed(strings.SplitSeq("a b", " "))
	assert.Equal(t, 0, wp.Trainer().WordCount())
}

func TestWordPiece_String(t *testing.T) {
	wp := buildWordPiece(t, bananaVocab())
	assert.Equal(t, `WordPiece(vocab=3, unk="[UNK]", prefix="##", max_input_chars_per_word=100)`, wp.String())
}

func TestWordPiece_ConcurrentTokenize(t *testing.T) {
	wp := buildWordPiece(t, bananaVocab())
	words := []string{"banana", "nanana", "ba", "bana", "x"}

	want := make(map[string][]Token, len(words))
	for _, w := range words {
		tokens, err := wp.Tokenize(w)
		require.NoError(t, err)
		want[w] = tokens
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for g := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				w := words[(g+i)%len(words)]
				got, err := wp.Tokenize(w)
				if err != nil {
					errs <- err
					return
				}
				if diff := cmp.Diff(want[w], got); diff != "" {
					errs <- fmt.Errorf("word %q: %s", w, diff)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func BenchmarkWordPiece_Tokenize(b *testing.B) {
	vocab := Vocab{"[UNK]": 0, "un": 1, "##aff": 2, "##able": 3, "ba": 4, "##na": 5}
	wp, err := NewWordPieceBuilder().Vocab(vocab).Build()
	require.NoError(b, err)

	for i := 0; i < b.N; i++ {
		_, _ = wp.Tokenize("unaffable")
		_, _ = wp.Tokenize("bananananana")
	}
}
