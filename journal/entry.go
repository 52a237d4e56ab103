package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/fuzzy"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"
)

// DayLayout is the calendar day format used for Entry.Date.
const DayLayout = "2006-01-02"

type Source string

const (
	SourceManual  Source = "manual"
	SourcePhoto   Source = "photo"
	SourceBarcode Source = "barcode"
	SourceRecipe  Source = "recipe"
)

var (
	ErrInvalidEntry  = errors.New("invalid journal entry")
	ErrEntryNotFound = errors.New("journal entry not found")
)

// Entry is one line of the food journal. Nutrients are for Quantity grams.
type Entry struct {
	ID        string              `json:"id"`
	FoodName  string              `json:"food_name"`
	Brand     string              `json:"brand,omitempty"`
	Barcode   string              `json:"barcode,omitempty"`
	Quantity  float64             `json:"quantity_g"`
	Date      string              `json:"date"`
	Meal      nutrition.MealType  `json:"meal"`
	Source    Source              `json:"source"`
	Nutrients nutrition.Nutrients `json:"nutrients"`
	PhotoURL  string              `json:"photo_url,omitempty"`
	RecipeID  string              `json:"recipe_id,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Day formats t as a journal date in t's location.
func Day(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay validates a YYYY-MM-DD string; an empty string means today.
func ParseDay(s string) (string, error) {
	if s == "" {
		return Day(time.Now()), nil
	}
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidEntry, s)
	}
	return Day(t), nil
}

// key identifies an entry for duplicate detection.
func (e Entry) key() string {
	return fuzzy.Normalize(e.FoodName) + "|" + e.Date + "|" + string(e.Meal)
}

func (e *Entry) validate() error {
	e.FoodName = strings.TrimSpace(e.FoodName)
	if e.FoodName == "" {
		return fmt.Errorf("%w: food name is required", ErrInvalidEntry)
	}
	if e.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidEntry)
	}
	if !e.Nutrients.Valid() {
		return fmt.Errorf("%w: nutrients must not be negative", ErrInvalidEntry)
	}
	meal, err := nutrition.ParseMealType(string(e.Meal))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	e.Meal = meal
	day, err := ParseDay(e.Date)
	if err != nil {
		return err
	}
	e.Date = day
	switch e.Source {
	case "":
		e.Source = SourceManual
	case SourceManual, SourcePhoto, SourceBarcode, SourceRecipe:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidEntry, e.Source)
	}
	return nil
}

// Totals sums the nutrients of entries.
func Totals(entries []Entry) nutrition.Nutrients {
	var n nutrition.Nutrients
	for _, e := range entries {
		n = n.Add(e.Nutrients)
	}
	return n
}
