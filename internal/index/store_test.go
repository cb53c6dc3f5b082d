package index

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"docuquery/internal/model"
)

func chunksOf(session string, contents ...string) []model.Chunk {
	out := make([]model.Chunk, len(contents))
	for i, c := range contents {
		out[i] = model.Chunk{ID: fmt.Sprintf("%s_%d", session, i), Content: c, Index: i}
	}
	return out
}

func TestSearchChunksWarrantyExample(t *testing.T) {
	t.Parallel()
	store := NewStore()
	store.AddChunks(chunksOf("s1",
		"The warranty period is 12 months.",
		"Returns are accepted within 30 days of purchase.",
	), "s1")

	got := store.SearchChunks("warranty period", 4, "s1")
	if len(got) != 1 {
		t.Fatalf("expected exactly one hit, got %d: %#v", len(got), got)
	}
	if got[0].Index != 0 {
		t.Fatalf("expected first chunk, got index %d", got[0].Index)
	}
	if got[0].Score < 50 {
		t.Fatalf("expected score >= 50, got %.2f", got[0].Score)
	}
}

func TestSearchChunksPhraseOutranksNoMatch(t *testing.T) {
	t.Parallel()
	store := NewStore()
	filler := strings.Repeat("lorem ipsum dolor sit amet ", 10)
	store.AddChunks(chunksOf("s",
		filler+"unrelated tail",
		filler+"coverage limit applies",
	), "s")

	got := store.SearchChunks("coverage limit", 2, "s")
	if len(got) == 0 || got[0].Index != 1 {
		t.Fatalf("expected phrase chunk first, got %#v", got)
	}
	for _, hit := range got {
		if hit.Index == 0 {
			t.Fatalf("chunk with no query words must be filtered, got %#v", hit)
		}
	}
}

func TestSearchChunksNearTieFavoursLongerChunk(t *testing.T) {
	t.Parallel()
	store := NewStore()
	short := "deductible amount"
	long := "deductible amount " + strings.Repeat("x", 20)
	store.AddChunks(chunksOf("s", short, long), "s")

	got := store.SearchChunks("deductible", 2, "s")
	if len(got) != 2 {
		t.Fatalf("expected two hits, got %d", len(got))
	}
	if got[0].Index != 1 {
		t.Fatalf("expected longer chunk first on near-tie, got %#v", got)
	}
}

func TestSearchChunksDeterministic(t *testing.T) {
	t.Parallel()
	store := NewStore()
	var contents []string
	for i := 0; i < 30; i++ {
		contents = append(contents, fmt.Sprintf("policy section %d covers claims and the claim process definition %d", i, i%4))
	}
	store.AddChunks(chunksOf("s", contents...), "s")

	first := store.SearchChunks("claim process", 10, "s")
	for i := 0; i < 5; i++ {
		again := store.SearchChunks("claim process", 10, "s")
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("search is not deterministic:\n%#v\n%#v", first, again)
		}
	}
	if len(first) != 10 {
		t.Fatalf("expected topK hits, got %d", len(first))
	}
}

func TestSearchChunksSessionIsolationAndEviction(t *testing.T) {
	t.Parallel()
	store := NewStore()
	store.AddChunks(chunksOf("a", "alpha premium schedule"), "a")
	store.AddChunks(chunksOf("b", "beta premium schedule"), "b")

	for _, hit := range store.SearchChunks("premium", 5, "a") {
		if !strings.HasPrefix(hit.ID, "a_") {
			t.Fatalf("session a returned foreign chunk %#v", hit)
		}
	}

	store.ClearChunks("a")
	store.ClearChunks("a")
	if got := store.SearchChunks("premium", 5, "a"); len(got) != 0 {
		t.Fatalf("expected no hits after eviction, got %#v", got)
	}
	if got := store.SearchChunks("premium", 5, "b"); len(got) != 1 {
		t.Fatalf("session b should be untouched, got %#v", got)
	}

	store.ClearChunks(AllSessions)
	if store.Sessions() != 0 {
		t.Fatalf("expected no sessions, got %d", store.Sessions())
	}
}

func TestAddChunksReplacesAndCopies(t *testing.T) {
	t.Parallel()
	store := NewStore()
	original := chunksOf("s", "first version text")
	store.AddChunks(original, "s")
	original[0].Content = "mutated after insert"

	got := store.SearchChunks("first", 1, "s")
	if len(got) != 1 || got[0].Content != "first version text" {
		t.Fatalf("stored chunks must not alias the caller's slice, got %#v", got)
	}

	store.AddChunks(chunksOf("s", "second version text", "another"), "s")
	if store.Len("s") != 2 {
		t.Fatalf("expected replace semantics, got %d chunks", store.Len("s"))
	}
	if got := store.SearchChunks("first", 1, "s"); len(got) != 0 {
		t.Fatalf("old chunks should be gone, got %#v", got)
	}
	if got := store.SearchChunks("second version", 2, "s"); len(got) != 1 || got[0].Content != "second version text" {
		t.Fatalf("replacement chunk not searchable, got %#v", got)
	}
}

func TestSearchChunksMatchesPossessiveAndHyphenatedWords(t *testing.T) {
	t.Parallel()
	store := NewStore()
	store.AddChunks(chunksOf("s",
		"Refunds follow the company's published schedule.",
		"Shipping takes five business days.",
		"Our state-of-the-art imaging unit ships today.",
	), "s")

	cases := []struct {
		query string
		want  int
	}{
		{query: "company's warranty", want: 0},
		{query: "state-of-the-art scanner", want: 2},
	}
	for _, tc := range cases {
		got := store.SearchChunks(tc.query, 4, "s")
		if len(got) != 1 || got[0].Index != tc.want {
			t.Fatalf("SearchChunks(%q) = %#v, want only chunk %d", tc.query, got, tc.want)
		}
	}
}

func TestSearchChunksUnknownSession(t *testing.T) {
	t.Parallel()
	if got := NewStore().SearchChunks("anything", 3, "missing"); len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}
}

func TestStoreConcurrentSessions(t *testing.T) {
	t.Parallel()
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", i)
			store.AddChunks(chunksOf(id, fmt.Sprintf("document %d mentions renewal terms", i)), id)
			hits := store.SearchChunks("renewal terms", 2, id)
			if len(hits) != 1 || !strings.HasPrefix(hits[0].ID, id+"_") {
				t.Errorf("session %s got %#v", id, hits)
			}
			store.ClearChunks(id)
		}(i)
	}
	wg.Wait()
}

func TestScoreComponents(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		query   string
		content string
		want    float64
	}{
		{
			name:    "word capped and stem capped",
			query:   "claim",
			content: strings.Repeat("claim ", 5) + strings.Repeat("y", 100),
			// phrase 50 + word min(25,20) + stem min(10,10) + diversity 0.2
			want: 80.2,
		},
		{
			name:    "context indicators count every occurrence",
			query:   "term",
			content: "term definition definition " + strings.Repeat("z", 100),
			// phrase 50 + word 5 + stem 2 + context 6 + diversity 0.3
			want: 63.3,
		},
		{
			name:    "short chunk penalty",
			query:   "limit",
			content: "limit",
			// (50 + 5 + 2) * 0.8 + 0.1
			want: 45.7,
		},
		{
			name:    "possessive query word",
			query:   "company's warranty",
			content: "Refunds follow the company's published schedule for every claim.",
			// (word 5 + stem 2) * 0.8 + diversity 0.9
			want: 6.5,
		},
		{
			name:    "hyphenated query word",
			query:   "state-of-the-art scanner",
			content: "Our state-of-the-art imaging unit ships today.",
			// (word 5 + stem 2) * 0.8 + diversity 0.6
			want: 6.2,
		},
		{
			name:    "word inside a longer word is not a word match",
			query:   "claim",
			content: "reclaimed goods",
			// (phrase 50) * 0.8 + diversity 0.2
			want: 40.2,
		},
		{
			name:    "non-ascii word",
			query:   "café",
			content: "le café noir",
			// (phrase 50 + word 5 + stem 2) * 0.8 + diversity 0.3
			want: 45.9,
		},
		{
			name:    "no match",
			query:   "absent",
			content: "nothing relevant here at all",
			want:    0,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Score(tc.query, tc.content)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("Score() = %v, want %v", got, tc.want)
			}
		})
	}
}
