package synth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net"
	"time"

	"docuquery/internal/ai"
	"docuquery/internal/model"
)

var (
	ErrGenerationTimeout = errors.New("generation timed out")
	ErrGenerationAPI     = errors.New("generation api error")
)

// Generator is the text-completion capability the synthesizer depends on.
type Generator interface {
	Complete(ctx context.Context, req ai.ChatRequest) (*ai.Completion, error)
}

// availability is optionally implemented by generators that can be unconfigured.
type availability interface {
	Available() bool
}

// Observer receives retry and fallback events.
type Observer interface {
	GenerationAttempt(outcome string)
	Fallback(reason string)
}

type noopObserver struct{}

func (noopObserver) GenerationAttempt(string) {}
func (noopObserver) Fallback(string)          {}

type Config struct {
	DefaultModel   string
	MaxAttempts    int
	InitialBackoff time.Duration
	AttemptTimeout time.Duration
	MaxTokens      int
}

type Settings struct {
	Temperature *float64
}

type Options struct {
	Model          string
	Concepts       []string
	Settings       Settings
	QuestionIndex  int
	TotalQuestions int
}

type Synthesizer struct {
	gen      Generator
	cfg      Config
	observer Observer

	sleep  func(ctx context.Context, d time.Duration) error
	random func() float64
}

func NewSynthesizer(gen Generator, cfg Config) *Synthesizer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 45 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Synthesizer{
		gen:      gen,
		cfg:      cfg,
		observer: noopObserver{},
		sleep:    sleepContext,
		random:   rand.Float64,
	}
}

func (s *Synthesizer) WithObserver(o Observer) *Synthesizer {
	if o != nil {
		s.observer = o
	}
	return s
}

type retryState int

const (
	stateAttempting retryState = iota
	stateSucceeded
	stateExhausted
)

// Answer asks the generator about question using chunks as context. It never
// fails: when generation is unavailable or every attempt fails, a mock answer
// flagged with success=false is returned instead.
func (s *Synthesizer) Answer(ctx context.Context, question string, chunks []model.ScoredChunk, opts Options) model.Answer {
	start := time.Now()
	modelName := opts.Model
	if modelName == "" {
		modelName = s.cfg.DefaultModel
	}

	if !s.available() {
		log.Printf("synth: generation capability unavailable, using mock answer")
		s.observer.Fallback("unavailable")
		out := s.mockAnswer(question, chunks, opts.QuestionIndex)
		out.Metadata.Error = "generation capability unavailable: " + ai.ErrMissingCredential.Error()
		out.Metadata.Model = modelName
		out.Metadata.AppliedConcepts = opts.Concepts
		out.Metadata.ProcessingTimeMs = time.Since(start).Milliseconds()
		return out
	}

	req := ai.ChatRequest{
		Model: modelName,
		Messages: []ai.ChatMessage{
			{Role: "system", Content: buildSystemPrompt(opts.Concepts, opts.QuestionIndex, opts.TotalQuestions)},
			{Role: "user", Content: buildUserPrompt(question, chunks, opts.Concepts)},
		},
		Temperature: temperatureFor(opts.Settings.Temperature, opts.Concepts, opts.QuestionIndex),
		MaxTokens:   s.cfg.MaxTokens,
	}

	var (
		completion *ai.Completion
		lastErr    error
		attempt    = 1
		state      = stateAttempting
	)
	for state == stateAttempting {
		completion, lastErr = s.attempt(ctx, req)
		if lastErr == nil {
			s.observer.GenerationAttempt("success")
			state = stateSucceeded
			continue
		}

		s.observer.GenerationAttempt(outcomeOf(lastErr))
		log.Printf("synth: attempt %d/%d failed: %v", attempt, s.cfg.MaxAttempts, lastErr)
		if attempt >= s.cfg.MaxAttempts {
			state = stateExhausted
			continue
		}

		wait := s.cfg.InitialBackoff * time.Duration(1<<(attempt-1))
		if err := s.sleep(ctx, wait); err != nil {
			lastErr = fmt.Errorf("retry wait aborted: %w", err)
			state = stateExhausted
			continue
		}
		attempt++
	}

	if state == stateExhausted {
		log.Printf("synth: all %d attempts failed, using mock answer: %v", attempt, lastErr)
		s.observer.Fallback("exhausted")
		out := s.mockAnswer(question, chunks, opts.QuestionIndex)
		out.Metadata.Error = lastErr.Error()
		out.Metadata.RetryAttempts = attempt
		out.Metadata.Model = modelName
		out.Metadata.AppliedConcepts = opts.Concepts
		out.Metadata.ProcessingTimeMs = time.Since(start).Milliseconds()
		return out
	}

	p := postProcess(completion.Text, opts.Concepts)
	if completion.Model != "" {
		modelName = completion.Model
	}
	return model.Answer{
		Answer:     p.answer,
		Confidence: p.confidence,
		Sources:    p.sources,
		Metadata: model.AnswerMetadata{
			Chunks:           len(chunks),
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			AppliedConcepts:  opts.Concepts,
			Model:            modelName,
			TokensUsed:       completion.Usage.TotalTokens,
			RetryAttempts:    attempt - 1,
			Success:          true,
			Reasoning:        p.reasoning,
		},
	}
}

func (s *Synthesizer) available() bool {
	if s.gen == nil {
		return false
	}
	if a, ok := s.gen.(availability); ok {
		return a.Available()
	}
	return true
}

func (s *Synthesizer) attempt(ctx context.Context, req ai.ChatRequest) (*ai.Completion, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	defer cancel()

	completion, err := s.gen.Complete(attemptCtx, req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationAPI, err)
	}
	if completion == nil || completion.Text == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrGenerationAPI)
	}
	return completion, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func outcomeOf(err error) string {
	if errors.Is(err, ErrGenerationTimeout) {
		return "timeout"
	}
	return "error"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
