package tripwire

import "strings"

// ═══════════════════════════════════════════════════════════════════════════════
// MATCHING
// ═══════════════════════════════════════════════════════════════════════════════
// A token matches an entry in one of two ways:
//
//	exact:    "kill"      matches "kill" only
//	wildcard: "kill yo*"  truncates the token to len("kill yo") bytes and
//	                      compares: "kill you", "kill your" match,
//	                      "kill y" does not (too short to reach the prefix)
//
// Every entry that matches adds its weight. Nothing is exclusive: a token can
// match an exact entry, several wildcards and duplicates of both.
//
// SCORING COST:
// -------------
// Comparing each token with each entry is O(tokens × entries). The Analyzer
// uses lexiconIndex instead; compare and scoreTokens below are the reference
// definition it must agree with.
// ═══════════════════════════════════════════════════════════════════════════════

// compare returns entry.Weight when token matches entry, otherwise 0.
// Blank tokens never match.
//
// Examples:
//
//	compare("kill you", Entry{"kill yo*", 10})       // 10
//	compare("kill y", Entry{"kill yo*", 10})         // 0
//	compare("killing it!", Entry{"kill yo*", 10})    // 0
//	compare("kill yourself", Entry{"kill you", 10})  // 0
func compare(token string, entry Entry) float64 {
	if isBlank(token) {
		return 0
	}

	term := entry.Term
	if entry.IsWildcard() {
		term = entry.Prefix()
		token = truncate(token, len(term))
	}

	if token == term {
		return entry.Weight
	}
	return 0
}

// scoreTokens sums compare over every token and every entry, in token order
// then entry order.
func scoreTokens(tokens []string, lex Lexicon) float64 {
	var score float64
	for _, token := range tokens {
		if isBlank(token) {
			continue
		}
		for _, entry := range lex.Entries {
			score += compare(token, entry)
		}
	}
	return score
}

// truncate cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func isBlank(token string) bool {
	return strings.TrimSpace(token) == ""
}
