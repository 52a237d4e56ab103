package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"

	"go.uber.org/zap"
)

const nutritionSystemPrompt = "You are a nutrition expert. Provide estimated nutritional data per 100g. " +
	"If brand info is unavailable, use average values for the food."

// NutritionMessages builds the prompt asking for per-100 g values of a food.
func NutritionMessages(food, brand string) []Message {
	if brand == "" {
		brand = "Unknown"
	}
	prompt := fmt.Sprintf(`Provide nutritional information per 100g for this food.
Food: %s (Brand: %s)

Return ONLY a JSON object:
{
  "calories": float,
  "protein": float,
  "carbs": float,
  "fat": float,
  "fiber": float
}`, food, brand)

	return []Message{
		{Role: RoleSystem, Content: nutritionSystemPrompt},
		{Role: RoleUser, Content: prompt},
	}
}

// StripCodeFence removes a surrounding markdown code block, if any.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseNutrition decodes a per-100 g estimate and clamps it to physically
// possible values: at most 900 kcal and 100 g of any macro, never negative.
func ParseNutrition(raw string) (nutrition.Nutrients, error) {
	var data struct {
		Calories float64 `json:"calories"`
		Protein  float64 `json:"protein"`
		Carbs    float64 `json:"carbs"`
		Fat      float64 `json:"fat"`
		Fiber    float64 `json:"fiber"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &data); err != nil {
		return nutrition.Nutrients{}, fmt.Errorf("parse nutrition estimate: %w", err)
	}

	if data.Calories > 900 {
		logger.Warn("implausible calorie value, capping at 900", zap.Float64("value", data.Calories))
	}
	return nutrition.Nutrients{
		Calories: clamp(data.Calories, 900),
		Protein:  clamp(data.Protein, 100),
		Carbs:    clamp(data.Carbs, 100),
		Fat:      clamp(data.Fat, 100),
		Fiber:    clamp(data.Fiber, 100),
	}, nil
}

func clamp(v, limit float64) float64 {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
