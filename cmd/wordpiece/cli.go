package main

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/wordpiece/internal/logutil"
	"github.com/born-ml/wordpiece/internal/tokenizer"
)

var version = "v0.1.0-dev"

var defaultSpecialTokens = []string{"[PAD]", "[UNK]", "[CLS]", "[SEP]", "[MASK]"}

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wordpiece",
		Short: "WordPiece subword tokenizer",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true

			level := slog.LevelInfo
			if name, _ := cmd.Flags().GetString("log-level"); name != "" {
				level = logutil.ParseLevel(name)
			}
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = min(level, slog.LevelDebug)
			}
			slog.SetDefault(logutil.NewLogger(cmd.ErrOrStderr(), level))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "YAML config file")
	flags.String("vocab", "", "Vocabulary file (vocab.txt or tokenizer.json)")
	flags.String("unk-token", tokenizer.DefaultUnkToken, "Unknown token")
	flags.String("prefix", tokenizer.DefaultContinuingSubwordPrefix, "Continuing subword prefix")
	flags.Int("max-chars", tokenizer.DefaultMaxInputCharsPerWord, "Longest word split into pieces")
	flags.Bool("lowercase", false, "Lowercase text before tokenizing")
	flags.String("normalize", "", "Unicode normalization form (nfc, nfd, nfkc, nfkd)")
	flags.Int("workers", 0, "Parallel workers for batches (0 uses every CPU)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error)")

	cobra.EnableCommandSorting = false

	tokenizeCmd := &cobra.Command{
		Use:   "tokenize [TEXT...]",
		Short: "Tokenize text",
		Long:  "Tokenize the given texts, or every line of standard input when no text is given.",
		RunE:  TokenizeHandler,
	}
	tokenizeCmd.Flags().Bool("ids", false, "Print token ids only")
	tokenizeCmd.Flags().Bool("word", false, "Treat every argument as a single word, skipping pre-tokenization")

	vocabCmd := &cobra.Command{
		Use:   "vocab",
		Short: "Manage vocabularies",
	}

	vocabSaveCmd := &cobra.Command{
		Use:   "save DIR",
		Short: "Save the vocabulary as a vocab.txt or GGUF file",
		Args:  cobra.ExactArgs(1),
		RunE:  VocabSaveHandler,
	}
	vocabSaveCmd.Flags().String("name", "", "File name prefix")
	vocabSaveCmd.Flags().String("format", "txt", "Output format (txt, gguf)")
	vocabCmd.AddCommand(vocabSaveCmd)

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show model settings",
		Args:  cobra.NoArgs,
		RunE:  InfoHandler,
	}

	trainCmd := &cobra.Command{
		Use:   "train FILE...",
		Short: "Train a vocabulary from text files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  TrainHandler,
	}
	trainCmd.Flags().Int("vocab-size", 30000, "Target vocabulary size")
	trainCmd.Flags().Uint64("min-frequency", 0, "Minimum pair count to merge")
	trainCmd.Flags().Int("limit-alphabet", 0, "Maximum number of distinct characters (0 keeps all)")
	trainCmd.Flags().StringSlice("special-tokens", defaultSpecialTokens, "Special tokens placed first")
	trainCmd.Flags().StringP("output", "o", ".", "Output directory")
	trainCmd.Flags().String("name", "", "File name prefix")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wordpiece version %s\n", version)
		},
	}

	rootCmd.AddCommand(
		tokenizeCmd,
		vocabCmd,
		infoCmd,
		trainCmd,
		versionCmd,
	)

	return rootCmd
}

func newEncoder(cfg *Config, wp *tokenizer.WordPiece) (*tokenizer.Encoder, error) {
	opts := cfg.EncoderOptions()
	opts.UnkToken = wp.UnkToken()
	return tokenizer.NewEncoder(wp, opts)
}

func TokenizeHandler(cmd *cobra.Command, args []string) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	wp, err := cfg.Model()
	if err != nil {
		return err
	}

	texts := args
	if len(texts) == 0 {
		if texts, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	idsOnly, _ := cmd.Flags().GetBool("ids")
	wordMode, _ := cmd.Flags().GetBool("word")
	out := cmd.OutOrStdout()

	if wordMode {
		for i, word := range texts {
			tokens, err := wp.Tokenize(word)
			if err != nil {
				return err
			}
			printTokens(out, tokens, idsOnly, i > 0)
		}
		return nil
	}

	enc, err := newEncoder(cfg, wp)
	if err != nil {
		return err
	}

	if idsOnly {
		batch, err := enc.EncodeBatch(texts)
		if err != nil {
			return err
		}
		for _, ids := range batch {
			fields := make([]string, len(ids))
			for i, id := range ids {
				fields[i] = strconv.Itoa(int(id))
			}
			fmt.Fprintln(out, strings.Join(fields, " "))
		}
		return nil
	}

	for i, text := range texts {
		tokens, err := enc.EncodeTokens(text)
		if err != nil {
			return err
		}
		printTokens(out, tokens, false, i > 0)
	}
	return nil
}

func printTokens(out io.Writer, tokens []tokenizer.Token, idsOnly, separate bool) {
	if idsOnly {
		fields := make([]string, len(tokens))
		for i, tok := range tokens {
			fields[i] = strconv.FormatUint(uint64(tok.ID), 10)
		}
		fmt.Fprintln(out, strings.Join(fields, " "))
		return
	}

	if separate {
		fmt.Fprintln(out)
	}

	var data [][]string
	for _, tok := range tokens {
		data = append(data, []string{
			tok.Value,
			strconv.FormatUint(uint64(tok.ID), 10),
			strconv.Itoa(tok.Offsets.Start),
			strconv.Itoa(tok.Offsets.End),
		})
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Token", "ID", "Start", "End"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return lines, nil
}

func VocabSaveHandler(cmd *cobra.Command, args []string) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	wp, err := cfg.Model()
	if err != nil {
		return err
	}

	dir := args[0]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	format, _ := cmd.Flags().GetString("format")

	var files []string
	switch format {
	case "txt":
		files, err = wp.Save(dir, name)
	case "gguf":
		var path string
		path, err = wp.SaveGGUF(dir, name)
		files = []string{path}
	default:
		return fmt.Errorf("unknown vocabulary format %q", format)
	}
	if err != nil {
		return err
	}

	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}

func InfoHandler(cmd *cobra.Command, args []string) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	wp, err := cfg.Model()
	if err != nil {
		return err
	}

	unk := wp.UnkToken()
	if id, ok := wp.TokenToID(unk); ok {
		unk = fmt.Sprintf("%s (id %d)", unk, id)
	} else {
		unk += " (missing)"
	}

	data := [][]string{
		{"Vocabulary:", cfg.Vocab},
		{"Size:", strconv.Itoa(wp.VocabSize())},
		{"Dense ids:", strconv.FormatBool(wp.Vocab().IsDense())},
		{"Unknown token:", unk},
		{"Continuing prefix:", wp.ContinuingSubwordPrefix()},
		{"Max chars per word:", strconv.Itoa(wp.MaxInputCharsPerWord())},
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding(" ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

func TrainHandler(cmd *cobra.Command, args []string) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	normalizer, err := tokenizer.NewNormalizer(cfg.Normalize, cfg.Lowercase)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	trainer := tokenizer.NewWordPieceTrainer()
	trainer.ContinuingSubwordPrefix = cfg.ContinuingSubwordPrefix
	trainer.VocabSize, _ = flags.GetInt("vocab-size")
	trainer.MinFrequency, _ = flags.GetUint64("min-frequency")
	trainer.LimitAlphabet, _ = flags.GetInt("limit-alphabet")
	trainer.SpecialTokens, _ = flags.GetStringSlice("special-tokens")
	if !slices.Contains(trainer.SpecialTokens, cfg.UnkToken) {
		trainer.SpecialTokens = append(trainer.SpecialTokens, cfg.UnkToken)
	}

	for _, path := range args {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		if err := feedFile(trainer, normalizer, path); err != nil {
			return err
		}
		slog.Debug("read training file", "path", path, "words", trainer.WordCount())
	}

	vocab, merges := trainer.Train()

	output, _ := flags.GetString("output")
	if err := os.MkdirAll(output, 0o755); err != nil {
		return err
	}
	name, _ := flags.GetString("name")
	path, err := tokenizer.SaveVocab(vocab, output, name)
	if err != nil {
		return err
	}

	slog.Info("trained vocabulary", "words", trainer.WordCount(), "vocab", len(vocab), "merges", len(merges))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func feedFile(trainer *tokenizer.WordPieceTrainer, normalizer tokenizer.Normalizer, path string) error {
	f, err := os.Open(path) //nolint:gosec // G304: training files come from the command line
	if err != nil {
		return fmt.Errorf("failed to open training file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		trainer.Feed(words(normalizer.Normalize(scanner.Text())))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read training file %s: %w", path, err)
	}
	return nil
}

func words(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for w := range tokenizer.SplitWords(text) {
			if !yield(w.Text) {
				return
			}
		}
	}
}
