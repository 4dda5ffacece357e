package tripwire

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ERROR DEFINITIONS
// ═══════════════════════════════════════════════════════════════════════════════
var (
	ErrInvalidConfig      = errors.New("invalid lexicon config")
	ErrInvalidLexiconData = errors.New("invalid binary lexicon data")
	ErrUnknownFormat      = errors.New("unknown lexicon format")
)

// Wildcard is the trailing marker that turns a term into a prefix pattern.
const Wildcard = "*"

// Format names a lexicon encoding.
type Format string

const (
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
	FormatBinary Format = "binary"
)

// Entry is a single weighted lexicon term.
//
// A Term ending in Wildcard matches any token whose leading bytes equal the
// rest of the term. Any other Term matches only identical tokens. Weight may
// be negative to mitigate a score.
type Entry struct {
	Term   string  `yaml:"word" json:"word"`
	Weight float64 `yaml:"score" json:"score"`
}

// IsWildcard reports whether the entry is a prefix pattern.
func (e Entry) IsWildcard() bool {
	return strings.HasSuffix(e.Term, Wildcard)
}

// Prefix returns the term with the wildcard marker removed.
func (e Entry) Prefix() string {
	return strings.TrimSuffix(e.Term, Wildcard)
}

// Lexicon is an ordered collection of entries. Duplicate terms are allowed
// and each one contributes on its own.
type Lexicon struct {
	Entries []Entry `yaml:"words" json:"words"`
}

// Validate checks every entry: the term must be non-empty and the weight a
// finite number. The returned error wraps ErrInvalidConfig.
func (l *Lexicon) Validate() error {
	for i, e := range l.Entries {
		if e.Term == "" {
			return fmt.Errorf("%w: entry %d has an empty term", ErrInvalidConfig, i)
		}
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			return fmt.Errorf("%w: entry %d (%q) has a non-finite weight", ErrInvalidConfig, i, e.Term)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (l Lexicon) Clone() Lexicon {
	entries := make([]Entry, len(l.Entries))
	copy(entries, l.Entries)
	return Lexicon{Entries: entries}
}

// ═══════════════════════════════════════════════════════════════════════════════
// LOADING
// ═══════════════════════════════════════════════════════════════════════════════

// LoadLexicon decodes and validates a lexicon from r.
//
// YAML and JSON use the {words: [{word, score}]} shape. Unknown fields are
// rejected so a misspelled key fails instead of silently scoring 0.
func LoadLexicon(r io.Reader, format Format) (*Lexicon, error) {
	var lex Lexicon

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&lex); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&lex); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	case FormatBinary:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		decoded, err := DecodeLexicon(data)
		if err != nil {
			return nil, err
		}
		lex = *decoded
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// LoadLexiconFile loads a lexicon, picking the format from the extension:
// .yaml and .yml for YAML, .json for JSON, .lex for the binary format.
func LoadLexiconFile(path string) (*Lexicon, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lex, err := LoadLexicon(f, format)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return lex, nil
}

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".lex":
		return FormatBinary, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// DEFAULT LEXICON
// ═══════════════════════════════════════════════════════════════════════════════
// The default lexicon ships inside the binary and is compiled once per
// process. Callers share one immutable Analyzer.

//go:embed lexicon/default.yaml
var defaultLexiconYAML []byte

var defaultAnalyzer = sync.OnceValue(func() *Analyzer {
	lex, err := LoadLexicon(bytes.NewReader(defaultLexiconYAML), FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("tripwire: embedded default lexicon: %v", err))
	}
	a, err := compile(lex)
	if err != nil {
		panic(fmt.Sprintf("tripwire: embedded default lexicon: %v", err))
	}
	return a
})

// DefaultLexicon returns a copy of the embedded default lexicon.
func DefaultLexicon() Lexicon {
	return defaultAnalyzer().Lexicon()
}

// Default returns the shared Analyzer over the embedded default lexicon.
func Default() *Analyzer {
	return defaultAnalyzer()
}
