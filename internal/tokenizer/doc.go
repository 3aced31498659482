// Package tokenizer implements subword models and text tokenization.
//
// The central type is WordPiece, the greedy longest-match-first model used
// by BERT. Its vocabulary is stored twice: as a token <-> id mapping and as
// a rune trie in which word-initial tokens are keyed behind a word-start
// sentinel and continuing tokens ("##ing") are keyed without their prefix.
// Tokenizing a word is a single greedy scan of that trie; if the word cannot
// be covered completely, the whole word becomes the unknown token.
//
// Models:
//   - WordPiece: BERT-style greedy longest match (vocab.txt, tokenizer.json,
//     llama.cpp .gguf)
//   - BPE: Byte-Pair Encoding, also usable as a source for WordPieceFromBPE
//   - TikToken: OpenAI BPE encodings (cl100k_base, p50k_base)
//
// All models implement Model and work on single, pre-tokenized words.
// Encoder adds normalization and BERT-style word splitting on top and
// implements Tokenizer for whole texts.
//
// Example usage:
//
//	wp, err := tokenizer.WordPieceFromFile("vocab.txt").Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Tokenize a single word
//	tokens, err := wp.Tokenize("unaffable")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// [{ID: 7, Value: "una", ...} {ID: 8, Value: "##ff", ...} {ID: 9, Value: "##able", ...}]
//
//	// Encode text
//	enc, err := tokenizer.NewEncoder(wp, tokenizer.DefaultEncoderOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ids, err := enc.Encode("Hello, world!")
package tokenizer
