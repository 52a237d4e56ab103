package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/journal"
	"github.com/FloFRCD/nutrition-app-sub001/kvstore"
	"github.com/FloFRCD/nutrition-app-sub001/llm"
	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"go.uber.org/zap"
)

const (
	defaultRecipeCount = 3
	maxRecipeCount     = 5
	// gramsPerServingFallback is the serving weight of a recipe with no
	// ingredient measured by weight or volume.
	gramsPerServingFallback = 100
)

const recipePrompt = `You are a nutritionist and cook. Suggest {{.count}} different {{.meal}} recipes for {{.servings}} serving(s).

Each serving should provide about {{.calories}} kcal, {{.protein}} g protein, {{.carbs}} g carbs and {{.fat}} g fat.
Preferences and restrictions: {{.preferences}}

Ingredient quantities are for the whole recipe. Use the units g, kg, ml, l, tbsp, tsp, cup or pcs.

Respond with JSON only, in this format:
{
  "recipes": [
    {
      "name": string,
      "description": string,
      "servings": number,
      "prep_minutes": number,
      "ingredients": [{"name": string, "quantity": number, "unit": string}],
      "steps": [string],
      "per_serving": {"calories": number, "protein": number, "carbs": number, "fat": number, "fiber": number}
    }
  ]
}`

type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type Recipe struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Meal        nutrition.MealType  `json:"meal"`
	Servings    int                 `json:"servings"`
	PrepMinutes int                 `json:"prep_minutes,omitempty"`
	Ingredients []Ingredient        `json:"ingredients"`
	Steps       []string            `json:"steps,omitempty"`
	PerServing  nutrition.Nutrients `json:"per_serving"`
	CreatedAt   time.Time           `json:"created_at"`
}

// RecipeRequest asks for recipes that fit one meal slot of the user's day.
type RecipeRequest struct {
	Meal        string `json:"meal"`
	Servings    int    `json:"servings"`
	Count       int    `json:"count"`
	Preferences string `json:"preferences"`
}

type recipeResponse struct {
	Recipes []Recipe `json:"recipes"`
}

// RecipeService generates recipes and keeps the user's selection.
type RecipeService struct {
	chain    *chains.LLMChain
	profiles *ProfileService
	journal  *journal.Service
	store    kvstore.Store
	locks    userLocks
	now      func() time.Time
}

// NewRecipeService builds the service. A nil model disables Generate.
func NewRecipeService(model llms.Model, profiles *ProfileService, j *journal.Service, store kvstore.Store) *RecipeService {
	s := &RecipeService{
		profiles: profiles,
		journal:  j,
		store:    store,
		now:      time.Now,
	}
	if model != nil {
		s.chain = chains.NewLLMChain(model, prompts.NewPromptTemplate(recipePrompt,
			[]string{"count", "meal", "servings", "calories", "protein", "carbs", "fat", "preferences"}))
	}
	return s
}

func selectedKey(userID string) string {
	return "recipes:selected:" + userID
}

// Generate asks the model for recipes sized to the meal's share of the
// user's daily needs.
func (s *RecipeService) Generate(ctx context.Context, userID string, req RecipeRequest) ([]Recipe, error) {
	if s.chain == nil {
		return nil, fmt.Errorf("%w: recipe generation", ErrUnavailable)
	}
	meal, err := nutrition.ParseMealType(req.Meal)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.Servings <= 0 {
		req.Servings = 1
	}
	if req.Count <= 0 {
		req.Count = defaultRecipeCount
	}
	req.Count = min(req.Count, maxRecipeCount)
	preferences := strings.TrimSpace(req.Preferences)
	if preferences == "" {
		preferences = "none"
	}

	needs, err := s.profiles.Needs(ctx, userID)
	if err != nil {
		return nil, err
	}
	share := needs.Meals.For(meal) / needs.Calories

	result, err := chains.Call(ctx, s.chain, map[string]any{
		"count":       req.Count,
		"meal":        string(meal),
		"servings":    req.Servings,
		"calories":    math.Round(needs.Meals.For(meal)),
		"protein":     math.Round(needs.Macros.Protein * share),
		"carbs":       math.Round(needs.Macros.Carbs * share),
		"fat":         math.Round(needs.Macros.Fat * share),
		"preferences": preferences,
	})
	if err != nil {
		logger.Warn("recipe generation failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	text, _ := result["text"].(string)

	recipes, err := parseRecipes(text)
	if err != nil {
		logger.Warn("unparseable recipe response", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	now := s.now().UTC()
	for i := range recipes {
		recipes[i].ID = uuid.NewString()
		recipes[i].Meal = meal
		recipes[i].CreatedAt = now
		if recipes[i].Servings <= 0 {
			recipes[i].Servings = req.Servings
		}
	}
	logger.Info("recipes generated", zap.String("user_id", userID), zap.String("meal", string(meal)), zap.Int("count", len(recipes)))
	return recipes, nil
}

// parseRecipes decodes the model output and drops recipes without a name or
// ingredients.
func parseRecipes(text string) ([]Recipe, error) {
	var resp recipeResponse
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &resp); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	out := make([]Recipe, 0, len(resp.Recipes))
	for _, r := range resp.Recipes {
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" || len(r.Ingredients) == 0 {
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable recipes in response")
	}
	return out, nil
}

func (s *RecipeService) load(ctx context.Context, userID string) ([]Recipe, error) {
	var recipes []Recipe
	if _, err := kvstore.GetJSON(ctx, s.store, selectedKey(userID), &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (s *RecipeService) Selected(ctx context.Context, userID string) ([]Recipe, error) {
	recipes, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if recipes == nil {
		recipes = []Recipe{}
	}
	return recipes, nil
}

// Select adds r to the selection, replacing a selected recipe with the same ID.
func (s *RecipeService) Select(ctx context.Context, userID string, r Recipe) (Recipe, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" || len(r.Ingredients) == 0 {
		return Recipe{}, fmt.Errorf("%w: recipe needs a name and ingredients", ErrInvalidInput)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Servings <= 0 {
		r.Servings = 1
	}
	if r.Meal != "" {
		meal, err := nutrition.ParseMealType(string(r.Meal))
		if err != nil {
			return Recipe{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		r.Meal = meal
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}

	defer s.locks.lock(userID)()
	recipes, err := s.load(ctx, userID)
	if err != nil {
		return Recipe{}, err
	}
	replaced := false
	for i := range recipes {
		if recipes[i].ID == r.ID {
			recipes[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		recipes = append(recipes, r)
	}
	if err := kvstore.PutJSON(ctx, s.store, selectedKey(userID), recipes); err != nil {
		return Recipe{}, fmt.Errorf("save selected recipes: %w", err)
	}
	return r, nil
}

func (s *RecipeService) Unselect(ctx context.Context, userID, recipeID string) error {
	defer s.locks.lock(userID)()
	recipes, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	for i := range recipes {
		if recipes[i].ID == recipeID {
			recipes = append(recipes[:i], recipes[i+1:]...)
			if err := kvstore.PutJSON(ctx, s.store, selectedKey(userID), recipes); err != nil {
				return fmt.Errorf("save selected recipes: %w", err)
			}
			return nil
		}
	}
	return ErrRecipeNotFound
}

func (s *RecipeService) find(ctx context.Context, userID, recipeID string) (Recipe, error) {
	recipes, err := s.load(ctx, userID)
	if err != nil {
		return Recipe{}, err
	}
	for _, r := range recipes {
		if r.ID == recipeID {
			return r, nil
		}
	}
	return Recipe{}, ErrRecipeNotFound
}

// RecipeLog describes how much of a selected recipe was eaten and when.
type RecipeLog struct {
	Meal     string  `json:"meal"`
	Date     string  `json:"date"`
	Servings float64 `json:"servings"`
}

// Log adds servings of a selected recipe to the journal. The meal defaults
// to the one the recipe was generated for.
func (s *RecipeService) Log(ctx context.Context, userID, recipeID string, in RecipeLog) (journal.Entry, bool, error) {
	r, err := s.find(ctx, userID, recipeID)
	if err != nil {
		return journal.Entry{}, false, err
	}
	servings := in.Servings
	if servings <= 0 {
		servings = 1
	}
	meal := nutrition.MealType(in.Meal)
	if meal == "" {
		meal = r.Meal
	}

	return s.journal.Add(ctx, userID, journal.Entry{
		FoodName:  r.Name,
		Quantity:  math.Round(servingGrams(r)*servings*100) / 100,
		Date:      in.Date,
		Meal:      meal,
		Source:    journal.SourceRecipe,
		Nutrients: r.PerServing.Scale(servings).Round2(),
		RecipeID:  r.ID,
	})
}

// servingGrams estimates the weight of one serving from the ingredients
// measured by weight or volume.
func servingGrams(r Recipe) float64 {
	var total float64
	for _, ing := range r.Ingredients {
		qty, unit := toBaseUnit(ing.Quantity, ing.Unit, ing.Name)
		if unit == unitGrams || unit == unitMillilitres {
			total += qty
		}
	}
	if total <= 0 {
		return gramsPerServingFallback
	}
	return total / float64(max(r.Servings, 1))
}
