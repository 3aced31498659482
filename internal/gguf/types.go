// Package gguf reads and writes the metadata section of GGUF files.
//
// GGUF (GGML Universal Format) is the file format used by llama.cpp.
// Embedding models converted by llama.cpp carry their WordPiece vocabulary
// as "tokenizer.ggml.*" metadata. This package parses the header and the
// metadata key-value pairs and stops before the tensor section.
//
// Specification: https://github.com/ggerganov/ggml/blob/master/docs/gguf.md
package gguf

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic bytes for GGUF format.
const (
	MagicGGUFLE uint32 = 0x46554747 // "GGUF" little-endian.
	MagicGGUFBE uint32 = 0x47475546 // "GGUF" big-endian (reversed).
)

// Version constants.
const (
	Version1 uint32 = 1
	Version2 uint32 = 2
	Version3 uint32 = 3 // Current version.
)

// Metadata keys describing a tokenizer.
const (
	KeyArchitecture     = "general.architecture"
	KeyName             = "general.name"
	KeyTokenizerModel   = "tokenizer.ggml.model"
	KeyTokens           = "tokenizer.ggml.tokens"
	KeyTokenTypes       = "tokenizer.ggml.token_type"
	KeyUnknownTokenID   = "tokenizer.ggml.unknown_token_id"
	KeyPaddingTokenID   = "tokenizer.ggml.padding_token_id"
	KeySeparatorTokenID = "tokenizer.ggml.seperator_token_id" // Spelled as llama.cpp writes it.
	KeyCLSTokenID       = "tokenizer.ggml.cls_token_id"
	KeyMaskTokenID      = "tokenizer.ggml.mask_token_id"
)

// TokenType classifies the entries of tokenizer.ggml.tokens.
type TokenType int32

// Token types as written by llama.cpp.
const (
	TokenTypeNormal      TokenType = 1
	TokenTypeUnknown     TokenType = 2
	TokenTypeControl     TokenType = 3
	TokenTypeUserDefined TokenType = 4
	TokenTypeUnused      TokenType = 5
	TokenTypeByte        TokenType = 6
)

// ValueType represents the type of a metadata value.
type ValueType uint32

// Metadata value types as defined in GGUF specification.
const (
	ValueTypeUint8   ValueType = 0
	ValueTypeInt8    ValueType = 1
	ValueTypeUint16  ValueType = 2
	ValueTypeInt16   ValueType = 3
	ValueTypeUint32  ValueType = 4
	ValueTypeInt32   ValueType = 5
	ValueTypeFloat32 ValueType = 6
	ValueTypeBool    ValueType = 7
	ValueTypeString  ValueType = 8
	ValueTypeArray   ValueType = 9
	ValueTypeUint64  ValueType = 10
	ValueTypeInt64   ValueType = 11
	ValueTypeFloat64 ValueType = 12
)

var valueTypeNames = map[ValueType]string{
	ValueTypeUint8:   "uint8",
	ValueTypeInt8:    "int8",
	ValueTypeUint16:  "uint16",
	ValueTypeInt16:   "int16",
	ValueTypeUint32:  "uint32",
	ValueTypeInt32:   "int32",
	ValueTypeFloat32: "float32",
	ValueTypeBool:    "bool",
	ValueTypeString:  "string",
	ValueTypeArray:   "array",
	ValueTypeUint64:  "uint64",
	ValueTypeInt64:   "int64",
	ValueTypeFloat64: "float64",
}

// String returns the string representation of the value type.
func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", t)
}

// Header represents the GGUF file header.
type Header struct {
	Magic           uint32
	Version         uint32
	TensorCount     uint64
	MetadataKVCount uint64
}

// MetadataKV represents a key-value pair in the metadata.
type MetadataKV struct {
	Key       string
	ValueType ValueType
	Value     any
}

// File is the parsed metadata of a GGUF file.
type File struct {
	Header   Header
	Metadata map[string]any

	// FilePath is set by ParseFile.
	FilePath string
}

func (f *File) getString(key string) string {
	if v, ok := f.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// Architecture returns the model architecture (e.g., "bert", "llama").
func (f *File) Architecture() string {
	return f.getString(KeyArchitecture)
}

// Name returns the model name.
func (f *File) Name() string {
	return f.getString(KeyName)
}

// TokenizerModel returns the tokenizer kind; llama.cpp writes "bert" for
// WordPiece vocabularies.
func (f *File) TokenizerModel() string {
	return f.getString(KeyTokenizerModel)
}

// Tokens returns the vocabulary, indexed by token id.
func (f *File) Tokens() []string {
	tokens, _ := f.Metadata[KeyTokens].([]string)
	return tokens
}

// TokenTypes returns the type of every token, if present.
func (f *File) TokenTypes() []TokenType {
	raw, _ := f.Metadata[KeyTokenTypes].([]int32)
	types := make([]TokenType, len(raw))
	for i, t := range raw {
		types[i] = TokenType(t)
	}
	return types
}

// TokenID returns an id-valued key such as KeyUnknownTokenID.
func (f *File) TokenID(key string) (uint32, bool) {
	switch v := f.Metadata[key].(type) {
	case uint32:
		return v, true
	case int32:
		return uint32(v), v >= 0 //nolint:gosec // G115: checked non-negative
	case uint64:
		return uint32(v), v <= 1<<32-1 //nolint:gosec // G115: checked range
	case int64:
		return uint32(v), v >= 0 && v <= 1<<32-1 //nolint:gosec // G115: checked range
	}
	return 0, false
}

// VocabSize returns the vocabulary size.
func (f *File) VocabSize() int {
	return len(f.Tokens())
}

// readString reads a GGUF string (length-prefixed, NOT null-terminated).
func readString(r io.Reader, order binary.ByteOrder) (string, error) {
	var length uint64
	if err := binary.Read(r, order, &length); err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}

	// Sanity check: limit string length to 1MB.
	if length > 1<<20 {
		return "", fmt.Errorf("string too long: %d bytes", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", fmt.Errorf("read string data: %w", err)
	}

	return string(data), nil
}

func writeString(w io.Writer, order binary.ByteOrder, s string) error {
	if err := binary.Write(w, order, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}
