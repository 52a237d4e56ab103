package nutrition

import (
	"errors"
	"fmt"
	"strings"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type ActivityLevel string

const (
	Sedentary        ActivityLevel = "sedentary"
	LightlyActive    ActivityLevel = "light"
	ModeratelyActive ActivityLevel = "moderate"
	VeryActive       ActivityLevel = "very"
	ExtraActive      ActivityLevel = "extra"
)

type Goal string

const (
	LoseWeight Goal = "lose_weight"
	Maintain   Goal = "maintain"
	GainMuscle Goal = "gain_muscle"
)

type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// MealTypes lists the meal slots in the order they are eaten.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

// ErrInvalidProfile is wrapped by every Validate failure.
var ErrInvalidProfile = errors.New("invalid profile")

// Profile carries the inputs of the needs calculation.
type Profile struct {
	Sex        Sex           `json:"sex"`
	Age        int           `json:"age"`
	HeightCM   float64       `json:"height_cm"`
	WeightKG   float64       `json:"weight_kg"`
	BodyFatPct *float64      `json:"body_fat_pct,omitempty"`
	Activity   ActivityLevel `json:"activity_level"`
	Goal       Goal          `json:"goal"`
}

// Validate rejects implausible inputs so that Calculate never has to.
func (p Profile) Validate() error {
	if _, err := ParseSex(string(p.Sex)); err != nil {
		return err
	}
	if _, err := ParseActivityLevel(string(p.Activity)); err != nil {
		return err
	}
	if _, err := ParseGoal(string(p.Goal)); err != nil {
		return err
	}
	if p.Age < 13 || p.Age > 120 {
		return fmt.Errorf("%w: age %d out of range 13-120", ErrInvalidProfile, p.Age)
	}
	if p.HeightCM < 100 || p.HeightCM > 250 {
		return fmt.Errorf("%w: height %.1fcm out of range 100-250", ErrInvalidProfile, p.HeightCM)
	}
	if p.WeightKG < 30 || p.WeightKG > 300 {
		return fmt.Errorf("%w: weight %.1fkg out of range 30-300", ErrInvalidProfile, p.WeightKG)
	}
	if p.BodyFatPct != nil && (*p.BodyFatPct < 3 || *p.BodyFatPct > 70) {
		return fmt.Errorf("%w: body fat %.1f%% out of range 3-70", ErrInvalidProfile, *p.BodyFatPct)
	}
	return nil
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}

func ParseSex(s string) (Sex, error) {
	switch normalizeEnum(s) {
	case "male", "m", "man":
		return SexMale, nil
	case "female", "f", "woman":
		return SexFemale, nil
	}
	return "", fmt.Errorf("%w: unknown sex %q", ErrInvalidProfile, s)
}

func ParseActivityLevel(s string) (ActivityLevel, error) {
	switch normalizeEnum(s) {
	case "sedentary":
		return Sedentary, nil
	case "light", "lightly_active":
		return LightlyActive, nil
	case "moderate", "moderately_active":
		return ModeratelyActive, nil
	case "very", "very_active", "active":
		return VeryActive, nil
	case "extra", "extra_active", "extremely_active":
		return ExtraActive, nil
	}
	return "", fmt.Errorf("%w: unknown activity level %q", ErrInvalidProfile, s)
}

func ParseGoal(s string) (Goal, error) {
	switch normalizeEnum(s) {
	case "lose_weight", "lose", "cut":
		return LoseWeight, nil
	case "maintain", "maintenance":
		return Maintain, nil
	case "gain_muscle", "gain", "bulk":
		return GainMuscle, nil
	}
	return "", fmt.Errorf("%w: unknown goal %q", ErrInvalidProfile, s)
}

func ParseMealType(s string) (MealType, error) {
	switch normalizeEnum(s) {
	case "breakfast":
		return Breakfast, nil
	case "lunch":
		return Lunch, nil
	case "dinner":
		return Dinner, nil
	case "snack", "snacks":
		return Snack, nil
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}
