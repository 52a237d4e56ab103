package repository

import (
	"context"
	"errors"

	"github.com/FloFRCD/nutrition-app-sub001/models"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{
		DB: db,
	}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes every column of the profile, inserting it when the ID is new.
func (r *ProfileRepository) Save(ctx context.Context, p *models.UserProfile) error {
	return r.DB.WithContext(ctx).Save(p).Error
}
