package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/models"
	"github.com/FloFRCD/nutrition-app-sub001/repository"

	"go.uber.org/zap"
)

// Loader upserts catalog foods into the food cache. Catalog rows are
// verified and replace unverified estimates of the same food.
type Loader struct {
	foods *repository.FoodRecordRepository
}

func NewLoader(foods *repository.FoodRecordRepository) *Loader {
	return &Loader{foods: foods}
}

// Ingest validates and upserts foods in one transaction.
func (l *Loader) Ingest(ctx context.Context, foods []Food) (int, error) {
	if len(foods) == 0 {
		return 0, nil
	}
	recs := make([]models.FoodRecord, 0, len(foods))
	for _, f := range foods {
		if err := f.validate(); err != nil {
			return 0, err
		}
		recs = append(recs, f.Record())
	}
	if err := l.foods.SaveAll(ctx, recs); err != nil {
		return 0, fmt.Errorf("saving catalog foods: %w", err)
	}
	return len(recs), nil
}

func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	foods, err := ParseFile(path)
	if err != nil {
		return 0, err
	}
	n, err := l.Ingest(ctx, foods)
	if err != nil {
		return 0, err
	}
	logger.Info("catalog file loaded", zap.String("path", path), zap.Int("foods", n))
	return n, nil
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// LoadDir loads every CSV file in dir. A missing directory loads nothing; a
// bad file is logged and skipped.
func (l *Loader) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		logger.Warn("catalog directory not found", zap.String("dir", dir))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading catalog directory: %w", err)
	}

	total := 0
	for _, e := range entries {
		if e.IsDir() || !isCSV(e.Name()) {
			continue
		}
		n, err := l.LoadFile(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			logger.Error("catalog file skipped", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		total += n
	}
	return total, nil
}
