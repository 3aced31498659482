package tokenizer

import (
	"iter"
	"unicode"
	"unicode/utf8"
)

// Word is a pre-tokenized word and its byte offset in the source text.
type Word struct {
	Text   string
	Offset int
}

// SplitWords splits text into words the way BERT does: whitespace separates
// words, and every punctuation or CJK character is a word of its own.
func SplitWords(text string) iter.Seq[Word] {
	return func(yield func(Word) bool) {
		start := -1
		flush := func(end int) bool {
			if start < 0 {
				return true
			}
			w := Word{Text: text[start:end], Offset: start}
			start = -1
			return yield(w)
		}

		for i := 0; i < len(text); {
			r, size := utf8.DecodeRuneInString(text[i:])
			switch {
			case unicode.IsSpace(r) || unicode.IsControl(r):
				if !flush(i) {
					return
				}
			case isPunctuation(r) || isCJK(r):
				if !flush(i) {
					return
				}
				if !yield(Word{Text: text[i : i+size], Offset: i}) {
					return
				}
			default:
				if start < 0 {
					start = i
				}
			}
			i += size
		}

		flush(len(text))
	}
}

// isPunctuation treats all non-alphanumeric ASCII symbols as punctuation,
// in addition to the unicode punctuation classes.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF,
		r >= 0x3400 && r <= 0x4DBF,
		r >= 0x20000 && r <= 0x2A6DF,
		r >= 0x2A700 && r <= 0x2B73F,
		r >= 0x2B740 && r <= 0x2B81F,
		r >= 0x2B820 && r <= 0x2CEAF,
		r >= 0xF900 && r <= 0xFAFF,
		r >= 0x2F800 && r <= 0x2FA1F:
		return true
	}
	return false
}
