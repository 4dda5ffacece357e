// ═══════════════════════════════════════════════════════════════════════════════
// WHAT IS THE LEXICON INDEX?
// ═══════════════════════════════════════════════════════════════════════════════
// The lexicon index answers "which entries match this token?" without
// comparing the token against every entry.
//
// Example: Given this lexicon (ordinal: entry):
//
//	0: kill       10
//	1: hurt you*  20
//	2: kill       5
//	3: kill yo*   8
//
// The index would look like:
//
//	exact:   "kill" → {0, 2}
//	prefix:  len 7 → "kill yo" → {3}
//	         len 8 → "hurt you" → {1}
//
// Looking up "kill your" checks exact["kill your"], then the token truncated
// to every indexed prefix length: "kill yo" (7) hits {3}, "kill you" (8)
// misses. A token shorter than a prefix length cannot match at that length,
// so those lengths are skipped.
//
// The matched ordinals are collected in a roaring bitmap and their weights
// summed in ascending ordinal order. That is the same order in which the
// reference loop adds them, so both produce the same float64.
// ═══════════════════════════════════════════════════════════════════════════════

package tripwire

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// lexiconIndex is the compiled, read-only form of a Lexicon.
//
// Architecture:
//
//	lexiconIndex
//	├── exact:    map[string]*roaring.Bitmap          term → entry ordinals
//	├── prefixes: map[int]map[string]*roaring.Bitmap  len → prefix → ordinals
//	├── lengths:  []int                               prefix lengths, ascending
//	└── weights:  []float64                           ordinal → weight
//
// Nothing is written after newLexiconIndex returns, so lookups need no lock.
type lexiconIndex struct {
	exact    map[string]*roaring.Bitmap
	prefixes map[int]map[string]*roaring.Bitmap
	lengths  []int
	weights  []float64
	terms    []string
}

// newLexiconIndex compiles lex. Entry ordinals are positions in lex.Entries.
func newLexiconIndex(lex Lexicon) *lexiconIndex {
	idx := &lexiconIndex{
		exact:    make(map[string]*roaring.Bitmap),
		prefixes: make(map[int]map[string]*roaring.Bitmap),
		weights:  make([]float64, len(lex.Entries)),
		terms:    make([]string, len(lex.Entries)),
	}

	for i, entry := range lex.Entries {
		ordinal := uint32(i)
		idx.weights[i] = entry.Weight
		idx.terms[i] = entry.Term

		if !entry.IsWildcard() {
			addOrdinal(idx.exact, entry.Term, ordinal)
			continue
		}

		prefix := entry.Prefix()
		byPrefix, ok := idx.prefixes[len(prefix)]
		if !ok {
			byPrefix = make(map[string]*roaring.Bitmap)
			idx.prefixes[len(prefix)] = byPrefix
			idx.lengths = append(idx.lengths, len(prefix))
		}
		addOrdinal(byPrefix, prefix, ordinal)
	}

	sort.Ints(idx.lengths)

	for _, bm := range idx.exact {
		bm.RunOptimize()
	}
	for _, byPrefix := range idx.prefixes {
		for _, bm := range byPrefix {
			bm.RunOptimize()
		}
	}

	return idx
}

func addOrdinal(m map[string]*roaring.Bitmap, key string, ordinal uint32) {
	bm, ok := m[key]
	if !ok {
		bm = roaring.NewBitmap()
		m[key] = bm
	}
	bm.Add(ordinal)
}

// lookup returns the ordinals of every entry matching token. The result is
// a fresh bitmap owned by the caller; nil means no match.
func (idx *lexiconIndex) lookup(token string) *roaring.Bitmap {
	if isBlank(token) {
		return nil
	}

	hits := make([]*roaring.Bitmap, 0, 1+len(idx.lengths))
	if bm, ok := idx.exact[token]; ok {
		hits = append(hits, bm)
	}
	for _, n := range idx.lengths {
		if n > len(token) {
			break
		}
		if bm, ok := idx.prefixes[n][token[:n]]; ok {
			hits = append(hits, bm)
		}
	}

	switch len(hits) {
	case 0:
		return nil
	case 1:
		return hits[0].Clone()
	default:
		return roaring.FastOr(hits...)
	}
}

// score sums the weights of all matches of all tokens.
func (idx *lexiconIndex) score(tokens []string) float64 {
	var score float64
	for _, token := range tokens {
		matched := idx.lookup(token)
		if matched == nil {
			continue
		}
		it := matched.Iterator()
		for it.HasNext() {
			score += idx.weights[it.Next()]
		}
	}
	return score
}

// wildcardCount returns the number of wildcard entries.
func (idx *lexiconIndex) wildcardCount() int {
	var n uint64
	for _, byPrefix := range idx.prefixes {
		for _, bm := range byPrefix {
			n += bm.GetCardinality()
		}
	}
	return int(n)
}
