package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const vocabFileName = "vocab.txt"

// VocabFileName returns the vocabulary file name for an optional name prefix.
func VocabFileName(name string) string {
	if name == "" {
		return vocabFileName
	}
	return name + "-" + vocabFileName
}

// ReadVocab reads a line-oriented vocabulary: one token per line, the id
// being the zero-based line number. Trailing whitespace is trimmed.
func ReadVocab(r io.Reader) (Vocab, error) {
	vocab := make(Vocab)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var index uint32
	for scanner.Scan() {
		vocab[strings.TrimRightFunc(scanner.Text(), unicode.IsSpace)] = index
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}

	return vocab, nil
}

// ReadVocabFile reads the vocabulary file at path. See ReadVocab.
func ReadVocabFile(path string) (Vocab, error) {
	f, err := os.Open(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary file: %w", err)
	}
	defer f.Close()

	return ReadVocab(f)
}

// WriteVocab writes the tokens of vocab sorted by id, one per line.
// The line number is the only id information written.
func WriteVocab(w io.Writer, vocab Vocab) error {
	bw := bufio.NewWriter(w)
	for _, token := range vocab.Tokens() {
		if _, err := bw.WriteString(token); err != nil {
			return fmt.Errorf("failed to write vocabulary: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write vocabulary: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write vocabulary: %w", err)
	}
	return nil
}

// SaveVocab writes vocab into dir under VocabFileName(name) and returns the
// written path.
func SaveVocab(vocab Vocab, dir, name string) (string, error) {
	path := filepath.Join(dir, VocabFileName(name))

	f, err := os.Create(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return "", fmt.Errorf("failed to create vocabulary file: %w", err)
	}

	if err := WriteVocab(f, vocab); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close vocabulary file: %w", err)
	}

	return path, nil
}
