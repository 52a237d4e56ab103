package models

import (
	"time"
	"unicode/utf8"

	"github.com/FloFRCD/nutrition-app-sub001/fuzzy"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account is a login identity. Its ID doubles as the user id everywhere else.
type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserProfile holds the demographic and anthropometric data of one user.
// It is replaced wholesale on edit; ID, UserID and CreatedAt never change.
type UserProfile struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"size:36;uniqueIndex;not null" json:"user_id"`
	Name          string    `gorm:"size:255" json:"name"`
	Age           int       `gorm:"not null" json:"age"`
	Sex           string    `gorm:"size:10;not null" json:"sex"`
	HeightCM      float64   `gorm:"not null" json:"height_cm"`
	WeightKG      float64   `gorm:"not null" json:"weight_kg"`
	BodyFatPct    *float64  `json:"body_fat_pct,omitempty"`
	ActivityLevel string    `gorm:"size:20;not null" json:"activity_level"`
	Goal          string    `gorm:"size:20;not null" json:"goal"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Calculator returns the subset of the profile the needs calculation reads.
func (p UserProfile) Calculator() nutrition.Profile {
	return nutrition.Profile{
		Sex:        nutrition.Sex(p.Sex),
		Age:        p.Age,
		HeightCM:   p.HeightCM,
		WeightKG:   p.WeightKG,
		BodyFatPct: p.BodyFatPct,
		Activity:   nutrition.ActivityLevel(p.ActivityLevel),
		Goal:       nutrition.Goal(p.Goal),
	}
}

const (
	SourceOpenFoodFacts = "openfoodfacts"
	SourceLLM           = "llm"
	SourceCatalog       = "catalog"
	SourceManual        = "manual"
)

// FoodRecord is a cached food with nutrients per 100 g.
type FoodRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	NormalizedName  string    `gorm:"size:255;not null;uniqueIndex:idx_food_name_brand" json:"-"`
	NameLength      int       `gorm:"index" json:"-"`
	Brand           string    `gorm:"size:255" json:"brand,omitempty"`
	NormalizedBrand string    `gorm:"size:255;uniqueIndex:idx_food_name_brand" json:"-"`
	Barcode         string    `gorm:"size:32;index" json:"barcode,omitempty"`
	Calories        float64   `json:"calories"`
	Protein         float64   `json:"protein"`
	Carbs           float64   `json:"carbs"`
	Fat             float64   `json:"fat"`
	Fiber           float64   `json:"fiber"`
	Source          string    `gorm:"size:20" json:"source"`
	Verified        bool      `json:"verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BeforeSave keeps the lookup columns in step with Name and Brand.
func (f *FoodRecord) BeforeSave(tx *gorm.DB) error {
	f.Normalize()
	return nil
}

func (f *FoodRecord) Normalize() {
	f.NormalizedName = fuzzy.Normalize(f.Name)
	f.NameLength = utf8.RuneCountInString(f.NormalizedName)
	f.NormalizedBrand = fuzzy.Normalize(f.Brand)
}

// Per100g returns the stored nutrients.
func (f FoodRecord) Per100g() nutrition.Nutrients {
	return nutrition.Nutrients{
		Calories: f.Calories,
		Protein:  f.Protein,
		Carbs:    f.Carbs,
		Fat:      f.Fat,
		Fiber:    f.Fiber,
	}
}

func (f *FoodRecord) SetPer100g(n nutrition.Nutrients) {
	f.Calories = n.Calories
	f.Protein = n.Protein
	f.Carbs = n.Carbs
	f.Fat = n.Fat
	f.Fiber = n.Fiber
}

// AIResponse logs raw model output next to what was parsed from it.
type AIResponse struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Query           string         `gorm:"size:255;not null" json:"query"`
	NormalizedQuery string         `gorm:"size:255;index" json:"normalized_query"`
	Model           string         `gorm:"size:100" json:"model"`
	Raw             string         `gorm:"type:text" json:"raw"`
	Parsed          datatypes.JSON `gorm:"not null" json:"parsed"`
	CreatedAt       time.Time      `json:"created_at"`
}

// KVRecord backs kvstore.GormStore.
type KVRecord struct {
	Key       string         `gorm:"primaryKey;size:255" json:"key"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}
