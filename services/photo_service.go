package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FloFRCD/nutrition-app-sub001/journal"
	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/models"
	"github.com/FloFRCD/nutrition-app-sub001/vision"

	"go.uber.org/zap"
)

// genericLabels name categories rather than foods.
var genericLabels = map[string]bool{
	"food":       true,
	"meal":       true,
	"dish":       true,
	"produce":    true,
	"plant":      true,
	"fruit":      true,
	"vegetable":  true,
	"lunch":      true,
	"dinner":     true,
	"breakfast":  true,
	"platter":    true,
	"plate":      true,
	"bowl":       true,
	"cutlery":    true,
	"table":      true,
	"beverage":   true,
	"drink":      true,
	"cuisine":    true,
	"ingredient": true,
}

type Labeler interface {
	DetectLabels(ctx context.Context, img vision.Image) ([]vision.Label, error)
}

type PhotoUploader interface {
	Upload(ctx context.Context, userID string, img vision.Image) (string, error)
}

// FoodCandidate is a label that resolved to a known food.
type FoodCandidate struct {
	Label      string             `json:"label"`
	Confidence float64            `json:"confidence"`
	Food       *models.FoodRecord `json:"food"`
}

type PhotoLog struct {
	Image    string  `json:"image"`
	Quantity float64 `json:"quantity_g"`
	Meal     string  `json:"meal"`
	Date     string  `json:"date"`
}

// PhotoService recognizes foods in meal photos and logs them.
type PhotoService struct {
	labeler   Labeler
	uploader  PhotoUploader
	nutrition *NutritionService
	journal   *journal.Service
}

// NewPhotoService builds the service. A nil labeler disables it; a nil
// uploader logs entries without a photo URL.
func NewPhotoService(labeler Labeler, uploader PhotoUploader, n *NutritionService, j *journal.Service) *PhotoService {
	return &PhotoService{labeler: labeler, uploader: uploader, nutrition: n, journal: j}
}

func (s *PhotoService) labels(ctx context.Context, dataURI string) (vision.Image, []vision.Label, error) {
	if s.labeler == nil {
		return vision.Image{}, nil, fmt.Errorf("%w: photo recognition", ErrUnavailable)
	}
	img, err := vision.DecodeDataURI(dataURI)
	if err != nil {
		return vision.Image{}, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	labels, err := s.labeler.DetectLabels(ctx, img)
	if err != nil {
		return vision.Image{}, nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return img, labels, nil
}

// resolve looks up each specific label in order and stops after limit hits.
func (s *PhotoService) resolve(ctx context.Context, labels []vision.Label, limit int) []FoodCandidate {
	var out []FoodCandidate
	for _, l := range labels {
		if genericLabels[strings.ToLower(strings.TrimSpace(l.Name))] {
			continue
		}
		rec, err := s.nutrition.Lookup(ctx, l.Name, "")
		if err != nil {
			if !errors.Is(err, ErrNoNutrition) {
				logger.Warn("photo label lookup failed", zap.String("label", l.Name), zap.Error(err))
			}
			continue
		}
		out = append(out, FoodCandidate{Label: l.Name, Confidence: l.Confidence, Food: rec})
		if len(out) == limit {
			break
		}
	}
	return out
}

// Recognize returns the foods the photo's labels resolve to, most confident
// label first.
func (s *PhotoService) Recognize(ctx context.Context, dataURI string) ([]FoodCandidate, error) {
	_, labels, err := s.labels(ctx, dataURI)
	if err != nil {
		return nil, err
	}
	candidates := s.resolve(ctx, labels, len(labels))
	if candidates == nil {
		candidates = []FoodCandidate{}
	}
	return candidates, nil
}

// Log logs the first recognized food of the photo and attaches the uploaded
// photo to the entry.
func (s *PhotoService) Log(ctx context.Context, userID string, in PhotoLog) (journal.Entry, bool, error) {
	if in.Quantity <= 0 {
		return journal.Entry{}, false, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	img, labels, err := s.labels(ctx, in.Image)
	if err != nil {
		return journal.Entry{}, false, err
	}
	found := s.resolve(ctx, labels, 1)
	if len(found) == 0 {
		return journal.Entry{}, false, ErrNoFoodRecognized
	}
	rec := found[0].Food

	var photoURL string
	if s.uploader != nil {
		photoURL, err = s.uploader.Upload(ctx, userID, img)
		if err != nil {
			logger.Error("meal photo upload failed", zap.String("user_id", userID), zap.Error(err))
			return journal.Entry{}, false, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	return s.journal.Add(ctx, userID, journal.Entry{
		FoodName:  rec.Name,
		Brand:     rec.Brand,
		Quantity:  in.Quantity,
		Date:      in.Date,
		Meal:      mealOf(in.Meal),
		Source:    journal.SourcePhoto,
		Nutrients: rec.Per100g().ForGrams(in.Quantity).Round2(),
		PhotoURL:  photoURL,
	})
}
