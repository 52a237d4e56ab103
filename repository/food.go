package repository

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/FloFRCD/nutrition-app-sub001/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FoodRecordRepository is the food cache.
type FoodRecordRepository struct {
	DB *gorm.DB
}

func NewFoodRecordRepository(db *gorm.DB) *FoodRecordRepository {
	return &FoodRecordRepository{
		DB: db,
	}
}

// CandidateQuery narrows the records handed to the fuzzy matcher.
type CandidateQuery struct {
	NormalizedName  string
	NormalizedBrand string // empty means any brand
	MaxLengthDiff   int
	Limit           int
}

// Candidates returns records whose normalized name length is within
// MaxLengthDiff of the query, ordered by id. The length difference is a lower
// bound of the edit distance, so no record within that distance is skipped.
func (r *FoodRecordRepository) Candidates(ctx context.Context, q CandidateQuery) ([]models.FoodRecord, error) {
	n := utf8.RuneCountInString(q.NormalizedName)
	tx := r.DB.WithContext(ctx).
		Where("name_length BETWEEN ? AND ?", n-q.MaxLengthDiff, n+q.MaxLengthDiff)
	if q.NormalizedBrand != "" {
		tx = tx.Where("normalized_brand = ?", q.NormalizedBrand)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var records []models.FoodRecord
	if err := tx.Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func upsertFoodClause() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "normalized_name"}, {Name: "normalized_brand"}},
		// verified rows are only replaced by other verified rows
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "food_records.verified = ? OR excluded.verified = ?", Vars: []interface{}{false, true}},
		}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "brand", "barcode", "calories", "protein", "carbs", "fat", "fiber",
			"source", "verified", "updated_at",
		}),
	}
}

// Save inserts the record or updates the row with the same normalized name and brand.
func (r *FoodRecordRepository) Save(ctx context.Context, rec *models.FoodRecord) error {
	rec.Normalize()
	return r.DB.WithContext(ctx).Clauses(upsertFoodClause()).Create(rec).Error
}

// SaveAll upserts records in one transaction.
func (r *FoodRecordRepository) SaveAll(ctx context.Context, recs []models.FoodRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range recs {
			recs[i].Normalize()
			if err := tx.Clauses(upsertFoodClause()).Create(&recs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *FoodRecordRepository) FindByBarcode(ctx context.Context, barcode string) (*models.FoodRecord, error) {
	var rec models.FoodRecord
	err := r.DB.WithContext(ctx).Where("barcode = ?", barcode).Order("verified DESC, id ASC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *FoodRecordRepository) FindByID(ctx context.Context, id uint) (*models.FoodRecord, error) {
	var rec models.FoodRecord
	err := r.DB.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
