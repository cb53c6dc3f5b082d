package index

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"docuquery/internal/model"
)

const (
	phraseBonus        = 50.0
	wordWeight         = 5.0
	wordCap            = 20.0
	stemWeight         = 2.0
	stemCap            = 10.0
	contextWeight      = 3.0
	shortChunkLength   = 100
	shortChunkPenalty  = 0.8
	diversityWeight    = 0.1
	diversityCap       = 5.0
	tieScoreTolerance  = 5.0
	minQueryWordLength = 3
)

var contextIndicators = []string{"definition", "explanation", "description", "meaning", "refers", "indicates"}

type candidate struct {
	chunk  model.Chunk
	score  float64
	length int
}

func rank(query string, chunks []model.Chunk, topK int) []model.ScoredChunk {
	q := compileQuery(query)

	candidates := make([]candidate, 0, len(chunks))
	for _, c := range chunks {
		score := q.score(c.Content)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, candidate{chunk: c, score: score, length: utf8.RuneCountInString(c.Content)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if math.Abs(a.score-b.score) > tieScoreTolerance {
			return a.score > b.score
		}
		if a.length != b.length {
			return a.length > b.length
		}
		return a.chunk.Index < b.chunk.Index
	})

	limit := topK
	if limit > len(candidates) {
		limit = len(candidates)
	}
	if limit < 0 {
		limit = 0
	}
	out := make([]model.ScoredChunk, 0, limit)
	for _, c := range candidates[:limit] {
		out = append(out, model.ScoredChunk{Chunk: c.chunk, Score: c.score})
	}
	return out
}

// term holds the patterns for one significant query word: the whole word
// and its stem (the word minus its last rune) followed by any word runes.
type term struct {
	word *regexp.Regexp
	stem *regexp.Regexp
}

type compiledQuery struct {
	lower string
	terms []term
}

func compileQuery(query string) compiledQuery {
	lower := strings.TrimSpace(strings.ToLower(query))
	q := compiledQuery{lower: lower}
	for _, w := range queryWords(lower) {
		q.terms = append(q.terms, term{
			word: regexp.MustCompile(regexp.QuoteMeta(w)),
			stem: regexp.MustCompile(regexp.QuoteMeta(stripLastRune(w)) + `[\p{L}\p{N}_]*`),
		})
	}
	return q
}

// Score computes the lexical relevance of content for query.
func Score(query, content string) float64 {
	return compileQuery(query).score(content)
}

func (q compiledQuery) score(content string) float64 {
	contentLower := strings.ToLower(content)

	score := 0.0
	if q.lower != "" && strings.Contains(contentLower, q.lower) {
		score += phraseBonus
	}

	for _, t := range q.terms {
		score += math.Min(float64(countWords(t.word, contentLower))*wordWeight, wordCap)
		score += math.Min(float64(countWords(t.stem, contentLower))*stemWeight, stemCap)
	}

	for _, indicator := range contextIndicators {
		score += float64(strings.Count(contentLower, indicator)) * contextWeight
	}

	if utf8.RuneCountInString(content) < shortChunkLength {
		score *= shortChunkPenalty
	}

	// Diversity only ranks chunks that already matched; it never makes an
	// unrelated chunk relevant.
	if score > 0 {
		score += math.Min(float64(uniqueWords(contentLower))*diversityWeight, diversityCap)
	}
	return score
}

// countWords counts matches of re that start and end on a word boundary.
// Query words keep inner apostrophes and hyphens, so "company's" or
// "state-of-the-art" match as one word.
func countWords(re *regexp.Regexp, s string) int {
	n := 0
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if atBoundary(s, loc[0], loc[1]) {
			n++
		}
	}
	return n
}

func atBoundary(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func queryWords(queryLower string) []string {
	var out []string
	for _, w := range strings.Fields(queryLower) {
		w = strings.TrimFunc(w, func(r rune) bool { return !isWordRune(r) })
		if utf8.RuneCountInString(w) >= minQueryWordLength {
			out = append(out, w)
		}
	}
	return out
}

func uniqueWords(s string) int {
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		seen[w] = struct{}{}
	}
	return len(seen)
}

func stripLastRune(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}
