package cli

import (
	"fmt"
	"log/slog"
	"os"

	urfave "github.com/urfave/cli/v2"

	"github.com/wizenheimer/tripwire"
)

const lexiconFileMode = 0600

var (
	lexiconCmd = &urfave.Command{
		Name:    "lexicon",
		Aliases: []string{"lex"},
		Usage:   "Inspect, validate and compile lexicon files",
		Subcommands: []*urfave.Command{
			lexiconValidateCmd,
			lexiconShowCmd,
			lexiconCompileCmd,
		},
	}

	lexiconValidateCmd = &urfave.Command{
		Name:      "validate",
		Usage:     "Check that lexicon files load and every entry is valid",
		ArgsUsage: "<path>...",
		Action:    cmdLexiconValidate,
	}

	lexiconShowCmd = &urfave.Command{
		Name:      "show",
		Usage:     "Print a lexicon (default: the configured lexicon)",
		ArgsUsage: "[path]",
		Action:    cmdLexiconShow,
	}

	lexiconCompileCmd = &urfave.Command{
		Name:      "compile",
		Usage:     "Convert a lexicon to the binary .lex format",
		ArgsUsage: "<input> <output.lex>",
		Action:    cmdLexiconCompile,
	}
)

// LexiconSummary is printed by lexicon validate.
type LexiconSummary struct {
	Path      string `json:"path" yaml:"path"`
	Entries   int    `json:"entries" yaml:"entries"`
	Wildcards int    `json:"wildcards" yaml:"wildcards"`
	Negative  int    `json:"negative" yaml:"negative"`
}

func summarize(path string, lex *tripwire.Lexicon) LexiconSummary {
	s := LexiconSummary{Path: path, Entries: len(lex.Entries)}
	for _, e := range lex.Entries {
		if e.IsWildcard() {
			s.Wildcards++
		}
		if e.Weight < 0 {
			s.Negative++
		}
	}
	return s
}

func cmdLexiconValidate(c *urfave.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one lexicon path required")
	}

	summaries := make([]LexiconSummary, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		lex, err := tripwire.LoadLexiconFile(path)
		if err != nil {
			return err
		}
		summaries = append(summaries, summarize(path, lex))
	}
	return encode(c, summaries)
}

func cmdLexiconShow(c *urfave.Context) error {
	if c.NArg() > 0 {
		lex, err := tripwire.LoadLexiconFile(c.Args().First())
		if err != nil {
			return err
		}
		return encode(c, lex)
	}

	a, err := getAnalyzer(c)
	if err != nil {
		return err
	}
	lex := a.Lexicon()
	return encode(c, &lex)
}

func cmdLexiconCompile(c *urfave.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("input and output paths required")
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	format, err := tripwire.FormatFromPath(out)
	if err != nil {
		return err
	}
	if format != tripwire.FormatBinary {
		return fmt.Errorf("output must be a .lex file: %s", out)
	}

	lex, err := tripwire.LoadLexiconFile(in)
	if err != nil {
		return err
	}

	data, err := lex.Encode()
	if err != nil {
		return fmt.Errorf("encoding lexicon: %w", err)
	}
	if err := os.WriteFile(out, data, lexiconFileMode); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	slog.Info("compiled lexicon", "input", in, "output", out, "entries", len(lex.Entries), "bytes", len(data))
	return encode(c, summarize(out, lex))
}
