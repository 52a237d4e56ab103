package repository

import (
	"context"

	"github.com/FloFRCD/nutrition-app-sub001/models"

	"gorm.io/gorm"
)

// AIResponseRepository keeps the raw output of every model call.
type AIResponseRepository struct {
	DB *gorm.DB
}

func NewAIResponseRepository(db *gorm.DB) *AIResponseRepository {
	return &AIResponseRepository{
		DB: db,
	}
}

func (r *AIResponseRepository) Create(ctx context.Context, resp *models.AIResponse) error {
	return r.DB.WithContext(ctx).Create(resp).Error
}

// ListByQuery returns responses for a normalized query, newest first.
func (r *AIResponseRepository) ListByQuery(ctx context.Context, normalizedQuery string, limit int) ([]models.AIResponse, error) {
	var out []models.AIResponse
	err := r.DB.WithContext(ctx).
		Where("normalized_query = ?", normalizedQuery).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
