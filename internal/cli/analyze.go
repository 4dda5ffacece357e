package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	urfave "github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wizenheimer/tripwire"
)

const (
	sourceArgs  = "args"
	sourceStdin = "stdin"
)

var (
	explainFlag = &urfave.BoolFlag{
		Name:    "explain",
		Aliases: []string{"e"},
		Usage:   "Include matched terms and partial scores",
	}

	thresholdFlag = &urfave.Float64Flag{
		Name:    "threshold",
		Aliases: []string{"t"},
		Usage:   "Exit with status 2 when any score is at or above this value (optional)",
	}

	fileFlag = &urfave.StringSliceFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Score the content of a file, repeatable; files are scored in parallel",
	}

	analyzeCmd = &urfave.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Score text given as arguments, files or stdin",
		ArgsUsage: "[text...]",
		Action:    cmdAnalyze,
		Flags: []urfave.Flag{
			explainFlag,
			thresholdFlag,
			fileFlag,
		},
	}
)

// Result is the score of one input.
type Result struct {
	Source string           `json:"source" yaml:"source"`
	Score  float64          `json:"score" yaml:"score"`
	Report *tripwire.Report `json:"report,omitempty" yaml:"report,omitempty"`
}

func cmdAnalyze(c *urfave.Context) error {
	a, err := getAnalyzer(c)
	if err != nil {
		return err
	}
	explain := c.Bool(explainFlag.Name)

	var results []Result

	if c.NArg() > 0 {
		results = append(results, score(a, sourceArgs, strings.Join(c.Args().Slice(), " "), explain))
	}

	files := c.StringSlice(fileFlag.Name)
	if len(files) > 0 {
		fileResults, err := scoreFiles(c.Context, a, files, getConfig(c).Concurrency, explain)
		if err != nil {
			return err
		}
		results = append(results, fileResults...)
	}

	if c.NArg() == 0 && len(files) == 0 {
		r := c.App.Reader
		if r == nil {
			r = os.Stdin
		}
		b, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		results = append(results, score(a, sourceStdin, string(b), explain))
	}

	if err := encode(c, results); err != nil {
		return err
	}

	if c.IsSet(thresholdFlag.Name) {
		threshold := c.Float64(thresholdFlag.Name)
		for _, r := range results {
			if r.Score >= threshold {
				slog.Debug("threshold exceeded", "source", r.Source, "score", r.Score, "threshold", threshold)
				return ErrThresholdExceeded
			}
		}
	}
	return nil
}

func score(a *tripwire.Analyzer, source, text string, explain bool) Result {
	if !explain {
		return Result{Source: source, Score: a.Analyze(text)}
	}
	r := a.Explain(text)
	return Result{Source: source, Score: r.Score, Report: &r}
}

// scoreFiles scores every file with at most limit files in flight. Results
// keep the order of paths.
func scoreFiles(ctx context.Context, a *tripwire.Analyzer, paths []string, limit int, explain bool) ([]Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			results[i] = score(a, path, string(b), explain)
			slog.Debug("scored file", "path", path, "score", results[i].Score)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
