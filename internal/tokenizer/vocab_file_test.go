package tokenizer

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabFileName(t *testing.T) {
	assert.Equal(t, "vocab.txt", VocabFileName(""))
	assert.Equal(t, "bert-vocab.txt", VocabFileName("bert"))
}

func TestReadVocab(t *testing.T) {
	input := "[PAD]\n[UNK]\r\nhello \t\n##ing\n"

	vocab, err := ReadVocab(strings.NewReader(input))
	require.NoError(t, err)

	want := Vocab{"[PAD]": 0, "[UNK]": 1, "hello": 2, "##ing": 3}
	if diff := cmp.Diff(want, vocab); diff != "" {
		t.Errorf("unexpected vocabulary (-want +got):\n%s", diff)
	}
}

func TestReadVocab_DuplicateLines(t *testing.T) {
	vocab, err := ReadVocab(strings.NewReader("a\nb\na\n"))
	require.NoError(t, err)

	// A repeated token keeps its last line number.
	assert.Equal(t, Vocab{"a": 2, "b": 1}, vocab)
}

func TestWriteVocab(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVocab(&buf, Vocab{"sentence": 1, "a": 0}))
	assert.Equal(t, "a\nsentence\n", buf.String())
}

func TestSaveVocab_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	vocab := Vocab{"[UNK]": 0, "ba": 1, "##na": 2}

	path, err := SaveVocab(vocab, dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vocab.txt"), path)

	got, err := ReadVocabFile(path)
	require.NoError(t, err)
	assert.Equal(t, vocab, got)

	path, err = SaveVocab(vocab, dir, "model")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "model-vocab.txt"), path)
}

func TestSaveVocab_SparseIDs(t *testing.T) {
	dir := t.TempDir()
	vocab := Vocab{"a": 0, "b": 5}

	path, err := SaveVocab(vocab, dir, "")
	require.NoError(t, err)

	// Only the order survives: ids are renumbered by line.
	got, err := ReadVocabFile(path)
	require.NoError(t, err)
	assert.Equal(t, Vocab{"a": 0, "b": 1}, got)
}

func TestSaveVocab_MissingDir(t *testing.T) {
	_, err := SaveVocab(Vocab{"a": 0}, filepath.Join(t.TempDir(), "missing"), "")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadVocabFile_Missing(t *testing.T) {
	_, err := ReadVocabFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
