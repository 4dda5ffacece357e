package tripwire

// Source names the token list a match came from.
type Source string

const (
	SourceWord         Source = "word"
	SourcePhrase       Source = "phrase"
	SourcePhraseOffset Source = "phrase-offset"
)

// Match is one (token, entry) pair that contributed to a score.
type Match struct {
	Token  string  `json:"token" yaml:"token"`
	Term   string  `json:"term" yaml:"term"`
	Weight float64 `json:"weight" yaml:"weight"`
	Source Source  `json:"source" yaml:"source"`
}

// Report breaks a score down into its parts.
//
// Score always equals Analyze for the same text and Analyzer.
type Report struct {
	Score       float64 `json:"score" yaml:"score"`
	WordScore   float64 `json:"word_score" yaml:"word_score"`
	PhraseScore float64 `json:"phrase_score" yaml:"phrase_score"`
	Normalized  string  `json:"normalized" yaml:"normalized"`
	Matches     []Match `json:"matches" yaml:"matches"`
}

// Explain scores text like Analyze and records every match, in the order
// the scores were accumulated: words first, then phrase offset 0, then
// phrase offset 1.
func (a *Analyzer) Explain(text string) Report {
	normalized := normalize(text)
	r := Report{
		Normalized: normalized,
		Matches:    []Match{},
	}

	r.WordScore = a.explainTokens(uniqueSorted(words(normalized)), SourceWord, &r.Matches)
	phraseScore := a.explainTokens(phrasify(normalized, 0), SourcePhrase, &r.Matches)
	r.PhraseScore = phraseScore + a.explainTokens(phrasify(normalized, 1), SourcePhraseOffset, &r.Matches)
	r.Score = r.WordScore + r.PhraseScore

	return r
}

func (a *Analyzer) explainTokens(tokens []string, source Source, matches *[]Match) float64 {
	var score float64
	for _, token := range tokens {
		matched := a.index.lookup(token)
		if matched == nil {
			continue
		}
		it := matched.Iterator()
		for it.HasNext() {
			ordinal := it.Next()
			w := a.index.weights[ordinal]
			score += w
			*matches = append(*matches, Match{
				Token:  token,
				Term:   a.index.terms[ordinal],
				Weight: w,
				Source: source,
			})
		}
	}
	return score
}
