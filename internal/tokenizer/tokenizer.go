package tokenizer

// Tokenizer is the core interface for text tokenization.
//
// It works on whole texts: implementations split the text into words and
// hand each word to a Model. See Encoder.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// BosToken returns the beginning-of-sequence token ID.
	// Returns -1 if not applicable.
	BosToken() int32

	// EosToken returns the end-of-sequence token ID.
	// Returns -1 if not applicable.
	EosToken() int32

	// PadToken returns the padding token ID.
	// Returns -1 if not applicable.
	PadToken() int32

	// UnkToken returns the unknown token ID.
	// Returns -1 if not applicable.
	UnkToken() int32

	// IsSpecialToken checks if a token ID is a special token.
	IsSpecialToken(token int32) bool
}

// Model is a subword model: it splits a single, already pre-tokenized word
// into pieces of its vocabulary.
//
// WordPiece, BPE and TikToken are the available implementations. A Model is
// immutable once constructed and safe for concurrent use.
type Model interface {
	// Tokenize splits sequence into tokens. Offsets are rune indices into sequence.
	Tokenize(sequence string) ([]Token, error)

	// TokenToID returns the id of token, if it is part of the vocabulary.
	TokenToID(token string) (uint32, bool)

	// IDToToken returns the token text for id, if it is part of the vocabulary.
	IDToToken(id uint32) (string, bool)

	// Decode joins the pieces for ids back into text.
	Decode(ids []uint32) (string, error)

	// Vocab returns a copy of the token -> id mapping.
	Vocab() Vocab

	// VocabSize returns the number of entries in the vocabulary.
	VocabSize() int

	// Save writes the model files into dir and returns their paths.
	// A non-empty name is used as a file name prefix.
	Save(dir, name string) ([]string, error)
}

// Offsets is a half-open [Start, End) interval.
type Offsets struct {
	Start int
	End   int
}

// Len returns End - Start.
func (o Offsets) Len() int {
	return o.End - o.Start
}

// Token is a single piece produced by a Model.
type Token struct {
	ID      uint32
	Value   string
	Offsets Offsets
}
