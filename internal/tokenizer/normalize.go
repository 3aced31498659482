package tokenizer

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalizer applies an optional unicode normalization form followed by
// optional lowercasing.
type Normalizer struct {
	form      norm.Form
	hasForm   bool
	lowercase bool
}

// NewNormalizer returns a Normalizer for form, one of "", "nfc", "nfd",
// "nfkc" or "nfkd" (case-insensitive).
func NewNormalizer(form string, lowercase bool) (Normalizer, error) {
	n := Normalizer{lowercase: lowercase}
	switch strings.ToLower(form) {
	case "":
	case "nfc":
		n.form, n.hasForm = norm.NFC, true
	case "nfd":
		n.form, n.hasForm = norm.NFD, true
	case "nfkc":
		n.form, n.hasForm = norm.NFKC, true
	case "nfkd":
		n.form, n.hasForm = norm.NFKD, true
	default:
		return Normalizer{}, fmt.Errorf("unknown normalization form %q", form)
	}
	return n, nil
}

// Normalize returns the normalized text.
func (n Normalizer) Normalize(text string) string {
	if n.hasForm {
		text = n.form.String(text)
	}
	if n.lowercase {
		text = strings.ToLower(text)
	}
	return text
}
