package services

import (
	"context"
	"fmt"

	"github.com/FloFRCD/nutrition-app-sub001/journal"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"
)

type BarcodeLog struct {
	Barcode  string  `json:"barcode"`
	Quantity float64 `json:"quantity_g"`
	Meal     string  `json:"meal"`
	Date     string  `json:"date"`
}

// BarcodeService logs scanned packaged foods.
type BarcodeService struct {
	nutrition *NutritionService
	journal   *journal.Service
}

func NewBarcodeService(n *NutritionService, j *journal.Service) *BarcodeService {
	return &BarcodeService{nutrition: n, journal: j}
}

// Log resolves the barcode and adds the product, scaled to the quantity, to
// the journal.
func (s *BarcodeService) Log(ctx context.Context, userID string, in BarcodeLog) (journal.Entry, bool, error) {
	if in.Quantity <= 0 {
		return journal.Entry{}, false, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	rec, err := s.nutrition.LookupBarcode(ctx, in.Barcode)
	if err != nil {
		return journal.Entry{}, false, err
	}
	return s.journal.Add(ctx, userID, journal.Entry{
		FoodName:  rec.Name,
		Brand:     rec.Brand,
		Barcode:   rec.Barcode,
		Quantity:  in.Quantity,
		Date:      in.Date,
		Meal:      mealOf(in.Meal),
		Source:    journal.SourceBarcode,
		Nutrients: rec.Per100g().ForGrams(in.Quantity).Round2(),
	})
}

// mealOf passes the raw value on for journal validation.
func mealOf(s string) nutrition.MealType {
	return nutrition.MealType(s)
}
