package tokenizer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSplitWords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Word
	}{
		{
			name:  "whitespace and punctuation",
			input: "Hey friend!     How are you?!?",
			want: []Word{
				{"Hey", 0}, {"friend", 4}, {"!", 10}, {"How", 16},
				{"are", 20}, {"you", 24}, {"?", 27}, {"!", 28}, {"?", 29},
			},
		},
		{
			name:  "cjk characters stand alone",
			input: "野口里佳 Noguchi Rika",
			want: []Word{
				{"野", 0}, {"口", 3}, {"里", 6}, {"佳", 9}, {"Noguchi", 13}, {"Rika", 21},
			},
		},
		{
			name:  "ascii symbols split",
			input: "don't pay $5",
			want: []Word{
				{"don", 0}, {"'", 3}, {"t", 4}, {"pay", 6}, {"$", 10}, {"5", 11},
			},
		},
		{
			name:  "control characters separate",
			input: "a\tb\nc\x00d",
			want:  []Word{{"a", 0}, {"b", 2}, {"c", 4}, {"d", 6}},
		},
		{
			name:  "combining marks stay in the word",
			input: "cafe\u0301 ok",
			want:  []Word{{"cafe\u0301", 0}, {"ok", 7}},
		},
		{
			name:  "only whitespace",
			input: " \t\n ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []Word
			for w := range SplitWords(tt.input) {
				got = append(got, w)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected words (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitWords_EarlyStop(t *testing.T) {
	var got []string
	for w := range SplitWords("one, two three") {
		got = append(got, w.Text)
		if len(got) == 2 {
			break
		}
	}

	assert.Equal(t, []string{"one", ","}, got)
}
