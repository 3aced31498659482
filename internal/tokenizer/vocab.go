package tokenizer

import (
	"cmp"
	"maps"
	"slices"
)

// Vocab maps token text to its id.
//
// Ids are expected to be unique and dense. Uniqueness is not enforced: the
// reverse mapping keeps one arbitrary token per duplicated id.
type Vocab map[string]uint32

// Clone returns an independent copy of v.
func (v Vocab) Clone() Vocab {
	if v == nil {
		return Vocab{}
	}
	return maps.Clone(v)
}

// Reverse derives the id -> token mapping.
func (v Vocab) Reverse() map[uint32]string {
	reverse := make(map[uint32]string, len(v))
	for token, id := range v {
		reverse[id] = token
	}
	return reverse
}

// Tokens returns the tokens sorted ascending by id. Tokens sharing an id are
// ordered by text so the result is deterministic.
func (v Vocab) Tokens() []string {
	tokens := slices.Collect(maps.Keys(v))
	slices.SortFunc(tokens, func(a, b string) int {
		if c := cmp.Compare(v[a], v[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return tokens
}

// IsDense reports whether the ids are exactly 0..len(v)-1.
// Only dense vocabularies survive a save/load round trip unchanged.
func (v Vocab) IsDense() bool {
	seen := make([]bool, len(v))
	for _, id := range v {
		if int(id) >= len(v) || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}
