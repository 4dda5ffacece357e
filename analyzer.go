// ═══════════════════════════════════════════════════════════════════════════════
// TEXT ANALYSIS OVERVIEW
// ═══════════════════════════════════════════════════════════════════════════════
// Text analysis turns free text into a signed score by matching normalized
// words and two-word phrases against a weighted lexicon.
//
// ANALYSIS PIPELINE:
// ------------------
//  1. Normalization      → Lowercase, strip punctuation, collapse whitespace
//  2. Stop word removal  → Drop a small fixed set of filler words
//  3. Tokenization       → Words, plus two phrase windows (offset 0 and 1)
//  4. Deduplication      → Words only: unique and sorted
//  5. Matching           → Sum the weight of every lexicon entry that matches
//
// EXAMPLE TRANSFORMATION:
// -----------------------
// Input:  "This is a sample post, that should have a few words in it"
// Step 1: "this is a sample post that should have a few words in it"
// Step 2: "sample post should have few words in"
// Step 3: words    ["sample", "post", "should", "have", "few", "words", "in"]
//
//	offset 0 ["sample", "post should", "have few", "words in", ""]
//	offset 1 ["sample post", "should have", "few words", ""]
//
// Step 4: ["few", "have", "in", "post", "sample", "should", "words"]
// Step 5: word score + offset 0 score + offset 1 score
//
// SCORE SEMANTICS:
// ----------------
// A score is only meaningful relative to the lexicon that produced it.
// It is not normalized by input length or lexicon size.
// ═══════════════════════════════════════════════════════════════════════════════

package tripwire

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// nonWordChars matches everything normalization deletes: any rune that
	// is neither an ASCII word character nor whitespace, plus the underscore.
	nonWordChars = regexp.MustCompile(`[^\w\s]|_`)

	// whitespaceRun matches a run of whitespace to collapse into one space.
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// paddingToken is appended to a phrase list built from an odd number of
// words. It never matches: the scorer skips empty tokens.
const paddingToken = ""

// Analyzer scores text against a compiled lexicon.
//
// An Analyzer is immutable after New returns and is safe for concurrent use
// by multiple goroutines. Each call only allocates call-local temporaries.
type Analyzer struct {
	lexicon Lexicon
	index   *lexiconIndex
}

// New compiles lex into an Analyzer.
//
// A nil lexicon selects the embedded default lexicon. The lexicon is copied,
// so later changes to lex do not affect the Analyzer. Returns an error
// wrapping ErrInvalidConfig if lex fails validation.
func New(lex *Lexicon) (*Analyzer, error) {
	if lex == nil {
		return Default(), nil
	}
	return compile(lex)
}

// compile validates lex and builds the Analyzer over a private copy of it.
func compile(lex *Lexicon) (*Analyzer, error) {
	if err := lex.Validate(); err != nil {
		return nil, err
	}

	owned := lex.Clone()
	idx := newLexiconIndex(owned)

	slog.Debug("compiled lexicon",
		slog.Int("entries", len(owned.Entries)),
		slog.Int("wildcards", idx.wildcardCount()))

	return &Analyzer{lexicon: owned, index: idx}, nil
}

// Lexicon returns a copy of the lexicon the Analyzer was built from.
func (a *Analyzer) Lexicon() Lexicon {
	return a.lexicon.Clone()
}

// Analyze returns the score of text: the word score plus the scores of both
// phrase windows. Empty input, input with no matches and input made only of
// stop words all score 0.
//
// Example:
//
//	a, _ := New(&Lexicon{Entries: []Entry{{"kill", 10}, {"hurt you*", 20}}})
//	a.Analyze("I will hurt your family") // 20
func (a *Analyzer) Analyze(text string) float64 {
	normalized := normalize(text)

	wordScore := a.index.score(uniqueSorted(words(normalized)))
	phraseScore := a.index.score(phrasify(normalized, 0)) + a.index.score(phrasify(normalized, 1))

	return wordScore + phraseScore
}

// normalize lowercases text, strips punctuation and underscores, collapses
// whitespace and removes stop words.
//
// Leading or trailing whitespace survives as a single space; the empty
// tokens it yields are skipped by the scorer.
//
// Example:
//
//	normalize("this is a sample post that should have a few, words in it")
//	// "sample post should have few words in"
func normalize(text string) string {
	// A Caser is stateful and must not be shared between goroutines.
	text = cases.Lower(language.Und).String(text)
	text = strings.Map(unicodeSpaceToASCII, text)
	text = nonWordChars.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(text, " ")

	return strings.Join(stopwordFilter(strings.Split(text, " ")), " ")
}

// unicodeSpaceToASCII maps every Unicode space (and the BOM) to ' ' so that
// the ASCII-only \s class in the patterns above sees it as whitespace.
func unicodeSpaceToASCII(r rune) rune {
	if (unicode.IsSpace(r) && r != '\u0085') || r == '\uFEFF' {
		return ' '
	}
	return r
}

// stopwordFilter removes stop words, keeping order.
func stopwordFilter(tokens []string) []string {
	r := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !isStopword(token) {
			r = append(r, token)
		}
	}
	return r
}

// words splits normalized text on single spaces.
func words(text string) []string {
	return strings.Split(text, " ")
}

// phrasify breaks normalized text into two-word phrase windows.
//
// With offset 0 a phrase ends at every even index, with any other offset at
// every odd index. A phrase is the word before the index and the word at it;
// the first window of offset 0 has no predecessor and is just the first
// word. An odd word count appends paddingToken.
//
// Example ("1 2 1 2 1 2 1 2 1 2"):
//
//	offset 0 → ["1", "2 1", "2 1", "2 1", "2 1"]
//	offset 1 → ["1 2", "1 2", "1 2", "1 2", "1 2"]
func phrasify(text string, offset int) []string {
	split := words(text)
	phrases := make([]string, 0, len(split)/2+2)

	for i := range split {
		even := i%2 == 0
		if (offset == 0 && even) || (offset != 0 && !even) {
			prev := ""
			if i > 0 {
				prev = split[i-1]
			}
			phrases = append(phrases, strings.TrimSpace(prev+" "+split[i]))
		}
	}

	if len(split)%2 != 0 {
		phrases = append(phrases, paddingToken)
	}

	return phrases
}

// uniqueSorted returns the distinct tokens in ascending byte order.
//
// Only the word list goes through here. Phrases keep duplicates and order so
// a repeated phrase scores on every occurrence.
func uniqueSorted(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	r := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		r = append(r, token)
	}
	sort.Strings(r)
	return r
}

// isStopword reports whether token is removed during normalization.
func isStopword(token string) bool {
	_, exists := stopwords[token]
	return exists
}

// stopwords is the fixed removal set. "it's" can never match, because the
// apostrophe is stripped before the lookup; it is kept for parity with the
// lexicons tuned against it.
var stopwords = map[string]struct{}{
	"a":    {},
	"ah":   {},
	"is":   {},
	"it":   {},
	"it's": {},
	"its":  {},
	"that": {},
	"this": {},
}
