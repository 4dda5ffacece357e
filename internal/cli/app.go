// Package cli implements the tripwire command line.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/wizenheimer/tripwire"
	"github.com/wizenheimer/tripwire/internal/config"
	"github.com/wizenheimer/tripwire/internal/logging"
)

const (
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	exitThreshold = 2

	defaultLexiconName = "default"
)

// ErrThresholdExceeded is returned by analyze when a score reaches the
// --threshold value.
var ErrThresholdExceeded = errors.New("score threshold exceeded")

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	configFlag = &urfave.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the config file (optional)",
		EnvVars: []string{"TRIPWIRE_CONFIG"},
	}

	lexiconFlag = &urfave.StringFlag{
		Name:    "lexicon",
		Aliases: []string{"l"},
		Usage:   "Path to a lexicon file, .yaml, .json or .lex (optional, default: embedded lexicon)",
		EnvVars: []string{"TRIPWIRE_LEXICON"},
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	if err := newApp().Run(os.Args); err != nil {
		if errors.Is(err, ErrThresholdExceeded) {
			os.Exit(exitThreshold)
		}
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	*config.Config
	analyzer *tripwire.Analyzer
}

func getConfig(c *urfave.Context) *appConfig {
	return c.App.Metadata[appConfigKey].(*appConfig)
}

// getAnalyzer builds the analyzer for the configured lexicon on first use.
func getAnalyzer(c *urfave.Context) (*tripwire.Analyzer, error) {
	cfg := getConfig(c)
	if cfg.analyzer != nil {
		return cfg.analyzer, nil
	}

	if cfg.Lexicon == "" {
		cfg.analyzer = tripwire.Default()
		return cfg.analyzer, nil
	}

	lex, err := tripwire.LoadLexiconFile(cfg.Lexicon)
	if err != nil {
		return nil, err
	}
	a, err := tripwire.New(lex)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded lexicon", "path", cfg.Lexicon, "entries", len(lex.Entries))

	cfg.analyzer = a
	return a, nil
}

func lexiconName(c *urfave.Context) string {
	if l := getConfig(c).Lexicon; l != "" {
		return l
	}
	return defaultLexiconName
}

func newApp() *urfave.App {
	return &urfave.App{
		Name:                 "tripwire",
		Version:              fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Metadata:             map[string]any{},
		Usage:                "Score text against a weighted lexicon of words and phrases",
		Flags: []urfave.Flag{
			debugFlag,
			configFlag,
			lexiconFlag,
			formatFlag,
		},
		Commands: []*urfave.Command{
			analyzeCmd,
			lexiconCmd,
			configCmd,
			serveCmd,
		},
		Before: func(c *urfave.Context) error {
			cfg := config.Default()
			if path := c.String(configFlag.Name); path != "" {
				loaded, err := config.Load(path)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			if l := c.String(lexiconFlag.Name); l != "" {
				cfg.Lexicon = l
			}
			if f := c.String(formatFlag.Name); f != "" {
				cfg.Format = f
			}
			if c.Bool(debugFlag.Name) {
				cfg.LogLevel = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logging.SetDefaultCLILogger(c.App.ErrWriter, cfg.LogLevel)

			c.App.Metadata[appConfigKey] = &appConfig{Config: cfg}
			return nil
		},
	}
}

// encode writes v to the app writer in the configured format.
func encode(c *urfave.Context, v any) error {
	w := c.App.Writer
	if w == nil {
		w = os.Stdout
	}

	switch strings.ToLower(getConfig(c).Format) {
	case formatYAML, "yml":
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	default:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(v)
	}
}
