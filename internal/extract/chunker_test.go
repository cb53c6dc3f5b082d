package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestChunkTextExactOffsets(t *testing.T) {
	t.Parallel()
	got := ChunkText("abcdefghij", 4, 2)
	want := []string{"abcd", "cdef", "efgh", "ghij"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ChunkText() = %q, want %q", got, want)
	}
}

func TestChunkTextWindows(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{name: "shorter than window", text: "hello", size: 10, overlap: 2, want: []string{"hello"}},
		{name: "exact window", text: "abcd", size: 4, overlap: 1, want: []string{"abcd"}},
		{name: "no overlap", text: "abcdef", size: 2, overlap: 0, want: []string{"ab", "cd", "ef"}},
		{name: "blank windows dropped", text: "ab      cd", size: 4, overlap: 0, want: []string{"ab", "cd"}},
		{name: "empty", text: "", size: 4, overlap: 1, want: nil},
		{name: "multibyte runes", text: "ééééé", size: 3, overlap: 1, want: []string{"ééé", "ééé"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ChunkText(tc.text, tc.size, tc.overlap)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ChunkText(%q, %d, %d) = %q, want %q", tc.text, tc.size, tc.overlap, got, tc.want)
			}
		})
	}
}

func TestChunkTextCoversWholeText(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 80)
	for _, w := range []struct{ size, overlap int }{{100, 10}, {1200, 200}, {37, 36}, {5, 1}} {
		chunks := ChunkText(text, w.size, w.overlap)
		if len(chunks) == 0 {
			t.Fatalf("size=%d overlap=%d: no chunks", w.size, w.overlap)
		}
		for i, c := range chunks {
			if strings.TrimSpace(c) == "" {
				t.Fatalf("size=%d overlap=%d: chunk %d is blank", w.size, w.overlap, i)
			}
		}
		last := chunks[len(chunks)-1]
		if !strings.HasSuffix(strings.TrimSpace(text), last) {
			t.Fatalf("size=%d overlap=%d: last chunk %q does not reach end of text", w.size, w.overlap, last)
		}
		again := ChunkText(text, w.size, w.overlap)
		if !reflect.DeepEqual(chunks, again) {
			t.Fatalf("size=%d overlap=%d: chunking is not deterministic", w.size, w.overlap)
		}
	}
}

func TestValidateWindow(t *testing.T) {
	t.Parallel()
	if err := ValidateWindow(1200, 200); err != nil {
		t.Fatalf("ValidateWindow(1200, 200) = %v", err)
	}
	for _, w := range []struct{ size, overlap int }{{4, 4}, {4, 5}, {0, 0}, {4, -1}} {
		if err := ValidateWindow(w.size, w.overlap); err != ErrInvalidWindow {
			t.Fatalf("ValidateWindow(%d, %d) = %v, want ErrInvalidWindow", w.size, w.overlap, err)
		}
	}
}
