package detect

import (
	"sort"
	"strings"
)

// MatchResult resolves a detected filename against the known files of a
// conversation.
type MatchResult struct {
	// Filename is the matched known filename, empty when nothing matched
	Filename string

	// Ambiguous is set when more than one known file matched; the caller
	// must route the draft to manual review instead of the fast path
	Ambiguous bool
}

// ChainMatcher resolves a candidate filename to a known attachment chain.
// It is pluggable so the lenient substring strategy can later be replaced
// by an explicit file-tag protocol without touching the pipeline.
type ChainMatcher interface {
	Match(candidate string, known []string) MatchResult
}

// LenientMatcher matches exact (case-insensitive) first, then by substring
// containment in either direction. Multiple substring hits are resolved
// deterministically but flagged ambiguous; short names make false positives
// cheap, and review is the backstop.
type LenientMatcher struct{}

// NewLenientMatcher creates the default matcher
func NewLenientMatcher() *LenientMatcher {
	return &LenientMatcher{}
}

// Match resolves candidate against known filenames.
func (m *LenientMatcher) Match(candidate string, known []string) MatchResult {
	cand := strings.ToLower(strings.TrimSpace(candidate))
	if cand == "" {
		return MatchResult{}
	}

	for _, name := range known {
		if strings.ToLower(name) == cand {
			return MatchResult{Filename: name}
		}
	}

	// exact basename match beats substring containment
	var baseHits []string
	base := basename(cand)
	for _, name := range known {
		if basename(strings.ToLower(name)) == base {
			baseHits = append(baseHits, name)
		}
	}
	if len(baseHits) == 1 {
		return MatchResult{Filename: baseHits[0]}
	}
	if len(baseHits) > 1 {
		sort.Strings(baseHits)
		return MatchResult{Filename: baseHits[0], Ambiguous: true}
	}

	var hits []string
	for _, name := range known {
		lower := strings.ToLower(name)
		if strings.Contains(lower, cand) || strings.Contains(cand, lower) {
			hits = append(hits, name)
		}
	}

	switch len(hits) {
	case 0:
		return MatchResult{}
	case 1:
		return MatchResult{Filename: hits[0]}
	}

	// deterministic pick: closest length first, then lexicographic
	sort.Slice(hits, func(i, j int) bool {
		di := lengthDiff(hits[i], cand)
		dj := lengthDiff(hits[j], cand)
		if di != dj {
			return di < dj
		}
		return hits[i] < hits[j]
	})
	return MatchResult{Filename: hits[0], Ambiguous: true}
}

func basename(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func lengthDiff(name, cand string) int {
	d := len(name) - len(cand)
	if d < 0 {
		return -d
	}
	return d
}
