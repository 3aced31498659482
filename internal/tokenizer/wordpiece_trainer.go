package tokenizer

import (
	"cmp"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// WordPieceTrainer learns a WordPiece vocabulary from word counts.
//
// Words are split into characters, continuing characters carrying the
// continuing-subword-prefix, and the most frequent adjacent pair is merged
// until the vocabulary reaches VocabSize. The result can be passed straight
// to WordPieceBuilder.Vocab.
type WordPieceTrainer struct {
	// VocabSize is the target vocabulary size, special tokens included.
	VocabSize int
	// MinFrequency is the smallest pair count that still gets merged.
	MinFrequency uint64
	// SpecialTokens are placed first, in order.
	SpecialTokens []string
	// LimitAlphabet keeps at most this many distinct characters; 0 keeps all.
	LimitAlphabet int
	// InitialAlphabet characters are always kept, even if unseen.
	InitialAlphabet []rune
	// ContinuingSubwordPrefix is prepended to non-initial pieces.
	ContinuingSubwordPrefix string

	words map[string]uint64
}

// NewWordPieceTrainer returns a trainer with a 30000 entry target and the
// default continuing-subword-prefix.
func NewWordPieceTrainer() *WordPieceTrainer {
	return &WordPieceTrainer{
		VocabSize:               30000,
		ContinuingSubwordPrefix: DefaultContinuingSubwordPrefix,
		words:                   make(map[string]uint64),
	}
}

// Feed counts words. It may be called several times before Train.
func (t *WordPieceTrainer) Feed(words iter.Seq[string]) {
	if t.words == nil {
		t.words = make(map[string]uint64)
	}
	for w := range words {
		if w != "" {
			t.words[w]++
		}
	}
}

// WordCount returns the number of distinct words fed so far.
func (t *WordPieceTrainer) WordCount() int {
	return len(t.words)
}

type trainingWord struct {
	symbols []string
	count   uint64
}

// Train builds the vocabulary and returns it with the merges applied,
// in order.
func (t *WordPieceTrainer) Train() (Vocab, []Merge) {
	vocab := make(Vocab)
	add := func(token string) {
		if _, ok := vocab[token]; !ok {
			vocab[token] = uint32(len(vocab)) //nolint:gosec // G115: vocabulary size fits in uint32
		}
	}

	for _, special := range t.SpecialTokens {
		add(special)
	}

	alphabet := t.alphabet()
	words := make([]trainingWord, 0, len(t.words))
	symbolCounts := make(map[string]uint64)
	for _, w := range slices.Sorted(maps.Keys(t.words)) {
		count := t.words[w]
		symbols := make([]string, 0, len(w))
		for i, r := range []rune(w) {
			if !alphabet[r] {
				symbols = nil
				break
			}
			symbol := string(r)
			if i > 0 {
				symbol = t.ContinuingSubwordPrefix + symbol
			}
			symbols = append(symbols, symbol)
		}
		if len(symbols) == 0 {
			continue
		}
		for _, s := range symbols {
			symbolCounts[s] += count
		}
		words = append(words, trainingWord{symbols: symbols, count: count})
	}

	for _, r := range slices.Sorted(maps.Keys(alphabet)) {
		if _, seen := symbolCounts[string(r)]; !seen {
			symbolCounts[string(r)] = 0
		}
	}
	for _, s := range sortedByCount(symbolCounts) {
		add(s)
	}

	var merges []Merge
	for len(vocab) < t.VocabSize {
		best, count, ok := bestPair(words)
		if !ok || count < max(t.MinFrequency, 1) {
			break
		}

		merged := best.Left + strings.TrimPrefix(best.Right, t.ContinuingSubwordPrefix)
		add(merged)
		merges = append(merges, best)

		for i := range words {
			words[i].symbols = mergeSymbols(words[i].symbols, best, merged)
		}

		if len(merges)%1000 == 0 {
			slog.Debug("wordpiece training", "merges", len(merges), "vocab", len(vocab))
		}
	}

	slog.Debug("wordpiece training done",
		"words", len(t.words), "alphabet", len(alphabet), "merges", len(merges), "vocab", len(vocab))

	return vocab, merges
}

// alphabet returns the characters to keep, honoring LimitAlphabet and
// InitialAlphabet.
func (t *WordPieceTrainer) alphabet() map[rune]bool {
	counts := make(map[rune]uint64)
	for w, count := range t.words {
		for _, r := range w {
			counts[r] += count
		}
	}

	keep := make(map[rune]bool, len(counts))
	for _, r := range t.InitialAlphabet {
		keep[r] = true
	}

	chars := slices.Collect(maps.Keys(counts))
	slices.SortFunc(chars, func(a, b rune) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	for _, r := range chars {
		if t.LimitAlphabet > 0 && len(keep) >= t.LimitAlphabet && !keep[r] {
			continue
		}
		keep[r] = true
	}

	return keep
}

// bestPair returns the most frequent adjacent pair. Ties go to the
// lexicographically smallest pair.
func bestPair(words []trainingWord) (Merge, uint64, bool) {
	counts := make(map[Merge]uint64)
	for _, w := range words {
		for i := 0; i+1 < len(w.symbols); i++ {
			counts[Merge{Left: w.symbols[i], Right: w.symbols[i+1]}] += w.count
		}
	}

	var (
		best      Merge
		bestCount uint64
		found     bool
	)
	for p, c := range counts {
		if !found || c > bestCount || (c == bestCount && p.less(best)) {
			best, bestCount, found = p, c, true
		}
	}

	return best, bestCount, found
}

// mergeSymbols replaces every non-overlapping occurrence of p in symbols.
func mergeSymbols(symbols []string, p Merge, merged string) []string {
	out := symbols[:0]
	for i := 0; i < len(symbols); i++ {
		if i+1 < len(symbols) && symbols[i] == p.Left && symbols[i+1] == p.Right {
			out = append(out, merged)
			i++
			continue
		}
		out = append(out, symbols[i])
	}
	return out
}

func sortedByCount(counts map[string]uint64) []string {
	keys := slices.Collect(maps.Keys(counts))
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys
}
