package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docuquery/internal/extract"
	"docuquery/internal/index"
	"docuquery/internal/model"
	"docuquery/internal/synth"
)

const (
	defaultTopK          = 4
	candidateMultiplier  = 4
	defaultEvictionDelay = 5 * time.Second

	noRelevantInfoAnswer = "I couldn't find any relevant information in the document to answer this question."
)

var (
	ErrValidation    = errors.New("invalid request")
	ErrEmptyDocument = errors.New("no text content could be extracted from the document")
)

type Extractor interface {
	ExtractAndChunk(ctx context.Context, source string, size, overlap int) ([]string, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string, chunks []model.ScoredChunk, opts synth.Options) model.Answer
}

// QuestionObserver receives per-question outcomes and index size changes.
type QuestionObserver interface {
	QuestionDone(outcome string, seconds float64)
	SetSessions(n int)
}

type noopQuestionObserver struct{}

func (noopQuestionObserver) QuestionDone(string, float64) {}
func (noopQuestionObserver) SetSessions(int)              {}

type RAGConfig struct {
	DocumentRoot  string
	UploadDir     string
	ChunkSize     int
	ChunkOverlap  int
	TopK          int
	EvictionDelay time.Duration
	DefaultModel  string
	// Temperature is the base used when a request sets none; nil keeps the
	// synthesizer default.
	Temperature *float64
}

// AskSettings are the per-request tuning knobs; zero values mean "use the default".
type AskSettings struct {
	ChunkSize    int      `json:"chunkSize"`
	ChunkOverlap int      `json:"chunkOverlap"`
	TopK         int      `json:"topK"`
	Temperature  *float64 `json:"temperature"`
}

type AskOptions struct {
	Model    string
	Concepts []string
	Settings AskSettings
}

type RAGService struct {
	store     *index.Store
	extractor Extractor
	answerer  Answerer
	scheduler Scheduler
	observer  QuestionObserver
	cfg       RAGConfig

	mu      sync.Mutex
	pending map[string]Task
}

func NewRAGService(
	store *index.Store,
	extractor Extractor,
	answerer Answerer,
	scheduler Scheduler,
	cfg RAGConfig,
) *RAGService {
	if scheduler == nil {
		scheduler = NewTimerScheduler()
	}
	if cfg.DocumentRoot == "" {
		cfg.DocumentRoot = "."
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = extract.DefaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = extract.DefaultChunkOverlap
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.EvictionDelay <= 0 {
		cfg.EvictionDelay = defaultEvictionDelay
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "default"
	}
	return &RAGService{
		store:     store,
		extractor: extractor,
		answerer:  answerer,
		scheduler: scheduler,
		observer:  noopQuestionObserver{},
		cfg:       cfg,
		pending:   make(map[string]Task),
	}
}

func (s *RAGService) WithObserver(o QuestionObserver) *RAGService {
	if o != nil {
		s.observer = o
	}
	return s
}

// ValidateAsk rejects requests the pipeline cannot run.
func (s *RAGService) ValidateAsk(document string, questions []string, settings AskSettings) error {
	if strings.TrimSpace(document) == "" {
		return fmt.Errorf("%w: document is required", ErrValidation)
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrValidation)
	}
	for i, q := range questions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("%w: question %d is empty", ErrValidation, i+1)
		}
	}
	if settings.ChunkSize < 0 || settings.ChunkOverlap < 0 || settings.TopK < 0 {
		return fmt.Errorf("%w: settings must not be negative", ErrValidation)
	}
	size, overlap := s.window(settings)
	if err := extract.ValidateWindow(size, overlap); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if t := settings.Temperature; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("%w: temperature must be within [0,1]", ErrValidation)
	}
	return nil
}

// AnswerQuestions ingests document once and answers every question against it,
// in order. Apart from validation errors it always returns exactly one record
// per question; failures are reported inside the records.
func (s *RAGService) AnswerQuestions(ctx context.Context, document string, questions []string, opts AskOptions) ([]model.AnswerRecord, error) {
	if err := s.ValidateAsk(document, questions, opts.Settings); err != nil {
		return nil, err
	}
	start := time.Now()

	resolved, err := s.resolve(document)
	if err != nil {
		return s.failBatch(questions, start, err), nil
	}

	size, overlap := s.window(opts.Settings)
	texts, err := s.extractor.ExtractAndChunk(ctx, resolved, size, overlap)
	if err != nil {
		return s.failBatch(questions, start, err), nil
	}
	if len(texts) == 0 {
		return s.failBatch(questions, start, ErrEmptyDocument), nil
	}

	sessionID := newSessionID()
	chunks := make([]model.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = model.Chunk{
			ID:       fmt.Sprintf("%s_%d", sessionID, i),
			Content:  text,
			Index:    i,
			Metadata: map[string]interface{}{},
		}
	}
	s.store.AddChunks(chunks, sessionID)
	s.observer.SetSessions(s.store.Sessions())
	defer s.scheduleEviction(sessionID)

	log.Printf("rag: session %s: %d chunks from %s, %d questions", sessionID, len(chunks), resolved, len(questions))

	b := &batch{
		sessionID:  sessionID,
		document:   filepath.Base(resolved),
		chunkCount: len(chunks),
		opts:       opts,
		total:      len(questions),
		used:       make(map[int]struct{}),
	}
	results := make([]model.AnswerRecord, 0, len(questions))
	for i, q := range questions {
		results = append(results, s.answerOne(ctx, b, i, q))
	}

	log.Printf("rag: session %s: answered %d questions in %s", sessionID, len(results), time.Since(start))
	return results, nil
}

// batch holds the state shared by the questions of one AnswerQuestions call.
type batch struct {
	sessionID  string
	document   string
	chunkCount int
	opts       AskOptions
	total      int
	// used holds chunk ordinals already handed to an earlier question.
	used map[int]struct{}
}

func (s *RAGService) answerOne(ctx context.Context, b *batch, i int, question string) (rec model.AnswerRecord) {
	start := time.Now()
	outcome := "answered"
	defer func() {
		if r := recover(); r != nil {
			log.Printf("rag: question %d panicked: %v", i+1, r)
			rec = s.questionError(question, start, fmt.Errorf("%v", r))
			outcome = "error"
		}
		s.observer.QuestionDone(outcome, time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		outcome = "error"
		return s.questionError(question, start, err)
	}

	topK := s.cfg.TopK
	if b.opts.Settings.TopK > 0 {
		topK = b.opts.Settings.TopK
	}
	topK = min(topK, b.chunkCount)

	candidates := s.store.SearchChunks(question, min(topK*candidateMultiplier, b.chunkCount), b.sessionID)
	if len(candidates) == 0 {
		log.Printf("rag: question %d: no relevant chunks", i+1)
		outcome = "no_context"
		return model.AnswerRecord{
			Question:   question,
			Answer:     noRelevantInfoAnswer,
			Confidence: 0,
			Sources:    []model.Source{},
			Metadata: model.AnswerMetadata{
				Chunks:           0,
				ProcessingTimeMs: time.Since(start).Milliseconds(),
				AppliedConcepts:  b.opts.Concepts,
				Model:            s.ModelFor(b.opts.Model),
				SessionID:        b.sessionID,
				DocumentPath:     b.document,
				Warning:          "No relevant content found in document",
			},
		}
	}

	final := selectChunks(candidates, topK, i > 0, b.used)
	for _, c := range final {
		b.used[c.Index] = struct{}{}
	}

	temperature := b.opts.Settings.Temperature
	if temperature == nil {
		temperature = s.cfg.Temperature
	}
	answer := s.answerer.Answer(ctx, question, final, synth.Options{
		Model:    b.opts.Model,
		Concepts: b.opts.Concepts,
		Settings: synth.Settings{
			Temperature: temperature,
		},
		QuestionIndex:  i,
		TotalQuestions: b.total,
	})
	if !answer.Metadata.Success {
		outcome = "degraded"
	}

	meta := answer.Metadata
	meta.Chunks = len(final)
	meta.ProcessingTimeMs = time.Since(start).Milliseconds()
	meta.AppliedConcepts = b.opts.Concepts
	if meta.Model == "" {
		meta.Model = s.ModelFor(b.opts.Model)
	}
	meta.SessionID = b.sessionID
	meta.DocumentPath = b.document

	sources := answer.Sources
	if sources == nil {
		sources = []model.Source{}
	}
	return model.AnswerRecord{
		Question:   question,
		Answer:     answer.Answer,
		Confidence: answer.Confidence,
		Sources:    sources,
		Metadata:   meta,
	}
}

// selectChunks narrows the over-fetched candidates to topK. After the first
// question it prefers chunks no earlier question used, as long as at least
// half of topK such chunks are available.
func selectChunks(candidates []model.ScoredChunk, topK int, preferUnused bool, used map[int]struct{}) []model.ScoredChunk {
	if preferUnused && len(candidates) > topK {
		unused := make([]model.ScoredChunk, 0, len(candidates))
		for _, c := range candidates {
			if _, seen := used[c.Index]; !seen {
				unused = append(unused, c)
			}
		}
		if 2*len(unused) >= topK {
			return unused[:min(topK, len(unused))]
		}
	}
	return candidates[:min(topK, len(candidates))]
}

func (s *RAGService) questionError(question string, start time.Time, err error) model.AnswerRecord {
	return model.AnswerRecord{
		Question:   question,
		Answer:     "Error: " + err.Error(),
		Confidence: 0,
		Sources:    []model.Source{},
		Error:      true,
		Metadata: model.AnswerMetadata{
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Error:            err.Error(),
		},
	}
}

func (s *RAGService) failBatch(questions []string, start time.Time, err error) []model.AnswerRecord {
	log.Printf("rag: batch failed: %v", err)
	msg := fmt.Sprintf("An error occurred while processing your request: %s. Please try again or check the document format.", err.Error())
	elapsed := time.Since(start).Milliseconds()
	out := make([]model.AnswerRecord, len(questions))
	for i, q := range questions {
		out[i] = model.AnswerRecord{
			Question: q,
			Answer:   msg,
			Sources:  []model.Source{},
			Error:    true,
			Metadata: model.AnswerMetadata{
				ProcessingTimeMs: elapsed,
				Error:            err.Error(),
			},
		}
		s.observer.QuestionDone("error", 0)
	}
	return out
}

// resolve maps a document reference onto a readable file. Local paths must
// stay inside DocumentRoot or UploadDir.
func (s *RAGService) resolve(document string) (string, error) {
	if extract.IsRemote(document) {
		return document, nil
	}
	path := document
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.cfg.DocumentRoot, path)
	}
	inside := within(s.cfg.DocumentRoot, path) || (s.cfg.UploadDir != "" && within(s.cfg.UploadDir, path))
	if inside && isFile(path) {
		return path, nil
	}
	if s.cfg.UploadDir != "" {
		alt := filepath.Join(s.cfg.UploadDir, filepath.Base(document))
		if isFile(alt) {
			log.Printf("rag: resolved %s through upload dir: %s", document, alt)
			return alt, nil
		}
	}
	if !inside {
		log.Printf("rag: rejected %s: outside document roots", document)
	}
	return "", fmt.Errorf("%w: %s", extract.ErrNotFound, document)
}

// within reports whether path sits at or below base.
func within(base, path string) bool {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *RAGService) window(settings AskSettings) (int, int) {
	size, overlap := s.cfg.ChunkSize, s.cfg.ChunkOverlap
	if settings.ChunkSize > 0 {
		size = settings.ChunkSize
	}
	if settings.ChunkOverlap > 0 {
		overlap = settings.ChunkOverlap
	}
	return size, overlap
}

// ModelFor returns the model a request runs against.
func (s *RAGService) ModelFor(requested string) string {
	if requested != "" {
		return requested
	}
	return s.cfg.DefaultModel
}

func (s *RAGService) scheduleEviction(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[sessionID] = s.scheduler.AfterFunc(s.cfg.EvictionDelay, func() {
		s.evict(sessionID)
	})
}

func (s *RAGService) evict(sessionID string) {
	s.mu.Lock()
	delete(s.pending, sessionID)
	s.mu.Unlock()

	s.store.ClearChunks(sessionID)
	s.observer.SetSessions(s.store.Sessions())
}

// PendingEvictions returns the number of sessions waiting to be evicted.
func (s *RAGService) PendingEvictions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels every pending eviction and evicts those sessions now.
func (s *RAGService) Close() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.pending))
	for id, task := range s.pending {
		task.Stop()
		ids = append(ids, id)
	}
	s.pending = make(map[string]Task)
	s.mu.Unlock()

	for _, id := range ids {
		s.store.ClearChunks(id)
	}
	s.observer.SetSessions(s.store.Sessions())
}

func newSessionID() string {
	return fmt.Sprintf("doc_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:6])
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
