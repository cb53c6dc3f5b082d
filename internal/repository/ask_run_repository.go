package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docuquery/internal/model"
)

type AskRunRepository struct {
	db *gorm.DB
}

func NewAskRunRepository(db *gorm.DB) *AskRunRepository {
	return &AskRunRepository{db: db}
}

func (r *AskRunRepository) Create(run *model.AskRun) error {
	if err := r.db.Create(run).Error; err != nil {
		return fmt.Errorf("create ask run failed: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when the run does not exist.
func (r *AskRunRepository) GetByID(id string) (*model.AskRun, error) {
	var run model.AskRun
	err := r.db.Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ask run failed: %w", err)
	}
	return &run, nil
}

// ListRecent returns run summaries, newest first, without the stored results.
func (r *AskRunRepository) ListRecent(limit int) ([]model.AskRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var runs []model.AskRun
	if err := r.db.Omit("results").Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list ask runs failed: %w", err)
	}
	return runs, nil
}
