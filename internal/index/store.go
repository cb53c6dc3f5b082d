package index

import (
	"log"
	"sync"

	"docuquery/internal/model"
)

// AllSessions makes ClearChunks drop every session.
const AllSessions = "all"

// Store keeps the chunk set of each live session in memory.
// A session's slice is never mutated after it is stored; AddChunks swaps in a
// new slice, so searches never see a half-written entry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]model.Chunk
}

func NewStore() *Store {
	return &Store{sessions: make(map[string][]model.Chunk)}
}

// AddChunks replaces whatever sessionID held before with a copy of chunks.
func (s *Store) AddChunks(chunks []model.Chunk, sessionID string) {
	copied := make([]model.Chunk, len(chunks))
	copy(copied, chunks)

	s.mu.Lock()
	s.sessions[sessionID] = copied
	s.mu.Unlock()

	log.Printf("index: added %d chunks for session %s", len(copied), sessionID)
}

// SearchChunks ranks the session's chunks against query and returns at most topK hits.
func (s *Store) SearchChunks(query string, topK int, sessionID string) []model.ScoredChunk {
	s.mu.RLock()
	chunks := s.sessions[sessionID]
	s.mu.RUnlock()

	if len(chunks) == 0 {
		log.Printf("index: warning: no chunks found for session %s", sessionID)
		return nil
	}
	return rank(query, chunks, topK)
}

// ClearChunks drops one session, or all of them for AllSessions.
func (s *Store) ClearChunks(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID == AllSessions {
		s.sessions = make(map[string][]model.Chunk)
		log.Printf("index: cleared all sessions")
		return
	}
	delete(s.sessions, sessionID)
	log.Printf("index: cleared session %s", sessionID)
}

// Len returns the number of chunks stored for sessionID.
func (s *Store) Len(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID])
}

// Sessions returns the number of live sessions.
func (s *Store) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
