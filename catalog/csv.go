// Package catalog seeds the food cache from curated CSV files.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/FloFRCD/nutrition-app-sub001/models"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"
)

var ErrInvalidFood = errors.New("invalid catalog food")

var expectedHeader = []string{"name", "brand", "barcode", "calories", "protein", "carbs", "fat", "fiber"}

// Food is one catalog row, nutrients per 100 g.
type Food struct {
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Barcode  string  `json:"barcode"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

func (f Food) validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFood)
	}
	if f.Calories < 0 || f.Calories > 900 {
		return fmt.Errorf("%w: %s: calories %.1f out of range 0-900", ErrInvalidFood, f.Name, f.Calories)
	}
	for _, g := range []float64{f.Protein, f.Carbs, f.Fat, f.Fiber} {
		if g < 0 || g > 100 {
			return fmt.Errorf("%w: %s: macro %.1fg out of range 0-100", ErrInvalidFood, f.Name, g)
		}
	}
	return nil
}

// Record converts the row to a verified catalog record.
func (f Food) Record() models.FoodRecord {
	rec := models.FoodRecord{
		Name:     strings.TrimSpace(f.Name),
		Brand:    strings.TrimSpace(f.Brand),
		Barcode:  strings.TrimSpace(f.Barcode),
		Source:   models.SourceCatalog,
		Verified: true,
	}
	rec.SetPer100g(nutrition.Nutrients{
		Calories: f.Calories,
		Protein:  f.Protein,
		Carbs:    f.Carbs,
		Fat:      f.Fat,
		Fiber:    f.Fiber,
	})
	return rec
}

// ParseFoods reads catalog rows from CSV. Any malformed row fails the whole
// file.
func ParseFoods(r io.Reader) ([]Food, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) != len(expectedHeader) {
		return nil, fmt.Errorf("invalid header length: expected %d columns, got %d", len(expectedHeader), len(header))
	}
	for i, h := range header {
		if !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), expectedHeader[i]) {
			return nil, fmt.Errorf("invalid header: expected %s at position %d, got %s", expectedHeader[i], i, h)
		}
	}

	var foods []Food
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		line, _ := cr.FieldPos(0)

		nums := make([]float64, 5)
		for i := range nums {
			nums[i], err = parseNumber(record[3+i])
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing %s %q: %w", line, expectedHeader[3+i], record[3+i], err)
			}
		}
		f := Food{
			Name:     record[0],
			Brand:    record[1],
			Barcode:  record[2],
			Calories: nums[0],
			Protein:  nums[1],
			Carbs:    nums[2],
			Fat:      nums[3],
			Fiber:    nums[4],
		}
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		foods = append(foods, f)
	}
	return foods, nil
}

// parseNumber reads a decimal with either separator; blank means zero.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

func ParseFile(path string) ([]Food, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()
	return ParseFoods(f)
}
