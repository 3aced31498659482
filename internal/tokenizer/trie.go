package tokenizer

import "iter"

// trie is a rune-keyed prefix tree supporting greedy longest-match scans.
//
// A trie is built once and only read afterwards, so any number of scans may
// run on it concurrently.
type trie struct {
	root *trieNode
	size int
}

type trieNode struct {
	children map[rune]*trieNode
	leaf     bool
}

func newTrie() *trie {
	return &trie{root: newTrieNode()}
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// Push inserts seq and marks its last node as a complete entry.
// Pushing the same sequence twice has no further effect.
func (t *trie) Push(seq []rune) {
	node := t.root
	for _, r := range seq {
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}

	if !node.leaf {
		node.leaf = true
		t.size++
	}
}

// Len returns the number of complete entries.
func (t *trie) Len() int {
	return t.size
}

// Contains reports whether seq is a complete entry.
func (t *trie) Contains(seq []rune) bool {
	node := t.root
	for _, r := range seq {
		child, ok := node.children[r]
		if !ok {
			return false
		}
		node = child
	}
	return node.leaf
}

// longestMatch walks the trie along seq starting at start and returns the end
// of the last complete node seen before the walk dies. The root itself never
// counts as a match, so a match always consumes at least one rune.
func (t *trie) longestMatch(seq []rune, start int) (int, bool) {
	node := t.root
	end := -1
	for i := start; i < len(seq); i++ {
		child, ok := node.children[seq[i]]
		if !ok {
			break
		}
		node = child
		if node.leaf {
			end = i + 1
		}
	}
	return end, end > start
}

// Matches scans seq left to right and yields the half-open intervals of the
// greedy longest matches. The scan stops at the first position where no
// entry starts, so callers detect failure by checking that the intervals
// cover all of seq.
func (t *trie) Matches(seq []rune) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		cursor := 0
		for cursor < len(seq) {
			end, ok := t.longestMatch(seq, cursor)
			if !ok {
				return
			}
			if !yield(cursor, end) {
				return
			}
			cursor = end
		}
	}
}
