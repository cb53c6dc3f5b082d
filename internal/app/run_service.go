package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"docuquery/internal/model"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunsDisabled = errors.New("run history is not configured")
)

type RunCache interface {
	GetRun(ctx context.Context, id string) (*model.AskRun, bool, error)
	SetRun(ctx context.Context, run *model.AskRun) error
}

type RunPublisher interface {
	Publish(ctx context.Context, run model.AskRun) error
}

type RunStore interface {
	GetByID(id string) (*model.AskRun, error)
	ListRecent(limit int) ([]model.AskRun, error)
}

// RunService keeps an audit trail of answered batches. Every backend is
// optional; a nil backend is skipped.
type RunService struct {
	cache     RunCache
	publisher RunPublisher
	repo      RunStore
}

func NewRunService(cache RunCache, publisher RunPublisher, repo RunStore) *RunService {
	return &RunService{cache: cache, publisher: publisher, repo: repo}
}

func (s *RunService) Enabled() bool {
	return s != nil && (s.cache != nil || s.repo != nil)
}

// Record stores the batch. Backend failures are logged and never returned, so
// a broken audit trail cannot fail an answered request.
func (s *RunService) Record(ctx context.Context, document, modelName string, records []model.AnswerRecord) *model.AskRun {
	run := &model.AskRun{
		ID:        uuid.NewString(),
		Document:  document,
		Model:     modelName,
		CreatedAt: time.Now(),
	}
	run.SetRecords(records)
	if s == nil {
		return run
	}

	if s.cache != nil {
		if err := s.cache.SetRun(ctx, run); err != nil {
			log.Printf("cache run %s failed: %v", run.ID, err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, *run); err != nil {
			log.Printf("publish run %s failed: %v", run.ID, err)
		}
	}
	return run
}

func (s *RunService) Get(ctx context.Context, id string) (*model.AskRun, error) {
	if !s.Enabled() {
		return nil, ErrRunsDisabled
	}
	if s.cache != nil {
		run, hit, err := s.cache.GetRun(ctx, id)
		if err != nil {
			log.Printf("read cached run %s failed: %v", id, err)
		}
		if hit {
			return run, nil
		}
	}
	if s.repo != nil {
		run, err := s.repo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if run != nil {
			if s.cache != nil {
				_ = s.cache.SetRun(ctx, run)
			}
			return run, nil
		}
	}
	return nil, ErrRunNotFound
}

// List returns the most recent runs, newest first. Listing needs the
// persistent store; the cache only serves lookups by id.
func (s *RunService) List(ctx context.Context, limit int) ([]model.AskRun, error) {
	if s == nil || s.repo == nil {
		return nil, ErrRunsDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.ListRecent(limit)
}

type RunWriter interface {
	Create(run *model.AskRun) error
}

// DirectRunPublisher writes runs straight to the store when no queue is
// configured.
type DirectRunPublisher struct {
	writer RunWriter
}

func NewDirectRunPublisher(w RunWriter) *DirectRunPublisher {
	return &DirectRunPublisher{writer: w}
}

func (p *DirectRunPublisher) Publish(_ context.Context, run model.AskRun) error {
	return p.writer.Create(&run)
}
