package tokenizer

import "errors"

// Tokenization errors.
var (
	// ErrMissingUnkToken is returned when a model has to emit its unknown
	// token but that token is not part of the vocabulary.
	ErrMissingUnkToken = errors.New("missing [UNK] token from the vocabulary")
	// ErrSaveUnsupported is returned by models without a line-oriented vocabulary.
	ErrSaveUnsupported = errors.New("model does not support saving its vocabulary")
	// ErrInvalidTokenID is returned when decoding an id outside the vocabulary.
	ErrInvalidTokenID = errors.New("invalid token id")
)
