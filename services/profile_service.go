package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FloFRCD/nutrition-app-sub001/models"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"
	"github.com/FloFRCD/nutrition-app-sub001/repository"

	"github.com/google/uuid"
)

// ProfileInput carries the editable attributes of a profile.
type ProfileInput struct {
	Name          string   `json:"name"`
	Age           int      `json:"age"`
	Sex           string   `json:"sex"`
	HeightCM      float64  `json:"height_cm"`
	WeightKG      float64  `json:"weight_kg"`
	BodyFatPct    *float64 `json:"body_fat_pct,omitempty"`
	ActivityLevel string   `json:"activity_level"`
	Goal          string   `json:"goal"`
}

type ProfileService struct {
	profiles *repository.ProfileRepository
}

func NewProfileService(profiles *repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// Save validates in and replaces every editable attribute of the user's
// profile. The first save assigns the profile ID.
func (s *ProfileService) Save(ctx context.Context, userID string, in ProfileInput) (*models.UserProfile, error) {
	sex, err := nutrition.ParseSex(in.Sex)
	if err != nil {
		return nil, err
	}
	activity, err := nutrition.ParseActivityLevel(in.ActivityLevel)
	if err != nil {
		return nil, err
	}
	goal, err := nutrition.ParseGoal(in.Goal)
	if err != nil {
		return nil, err
	}

	p := &models.UserProfile{
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		Age:           in.Age,
		Sex:           string(sex),
		HeightCM:      in.HeightCM,
		WeightKG:      in.WeightKG,
		BodyFatPct:    in.BodyFatPct,
		ActivityLevel: string(activity),
		Goal:          string(goal),
	}
	if err := p.Calculator().Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, userID)
	switch {
	case err == nil:
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	case errors.Is(err, ErrProfileNotFound):
		p.ID = uuid.NewString()
	default:
		return nil, err
	}

	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// Needs computes the daily targets from the stored profile.
func (s *ProfileService) Needs(ctx context.Context, userID string) (nutrition.Needs, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nutrition.Needs{}, err
	}
	return nutrition.Calculate(p.Calculator()), nil
}
