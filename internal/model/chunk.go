package model

// Chunk is a contiguous slice of extracted document text owned by one index session.
type Chunk struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Index    int                    `json:"index"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ScoredChunk is a search hit. Index carries the chunk's ordinal within its session.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}
