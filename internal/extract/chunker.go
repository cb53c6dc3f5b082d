package extract

import "strings"

const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 200
)

// ValidateWindow rejects windows that would never advance.
func ValidateWindow(size, overlap int) error {
	if size <= 0 || overlap < 0 || overlap >= size {
		return ErrInvalidWindow
	}
	return nil
}

// ChunkText splits text into overlapping windows of size runes. Each window
// starts overlap runes before the previous one ended; windows that are empty
// after trimming are dropped. Callers must pass a window accepted by
// ValidateWindow.
func ChunkText(text string, size, overlap int) []string {
	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		if slice := strings.TrimSpace(string(runes[start:end])); slice != "" {
			chunks = append(chunks, slice)
		}
		if end == len(runes) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}
