package nutrition

// activityMultipliers maps activity level to its TDEE multiplier.
var activityMultipliers = map[ActivityLevel]float64{
	Sedentary:        1.2,
	LightlyActive:    1.375,
	ModeratelyActive: 1.55,
	VeryActive:       1.725,
	ExtraActive:      1.9,
}

var goalAdjustments = map[Goal]float64{
	LoseWeight: 0.85,
	Maintain:   1.0,
	GainMuscle: 1.1,
}

// gramsPerKG holds protein and fat targets in grams per kg of body weight.
var gramsPerKG = map[Goal]struct{ protein, fat float64 }{
	LoseWeight: {protein: 2.0, fat: 0.8},
	Maintain:   {protein: 1.6, fat: 0.9},
	GainMuscle: {protein: 2.0, fat: 1.0},
}

var mealShares = map[MealType]float64{
	Breakfast: 0.25,
	Lunch:     0.35,
	Dinner:    0.30,
	Snack:     0.10,
}

const (
	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0

	fiberGramsPer1000Kcal = 14.0
)

type Macros struct {
	Protein float64 `json:"protein_g"`
	Fat     float64 `json:"fat_g"`
	Carbs   float64 `json:"carbs_g"`
	Fiber   float64 `json:"fiber_g"`
}

// MealSplit is the calorie target of each meal slot.
type MealSplit struct {
	Breakfast float64 `json:"breakfast"`
	Lunch     float64 `json:"lunch"`
	Dinner    float64 `json:"dinner"`
	Snack     float64 `json:"snack"`
}

// For returns the calorie target of a single meal slot.
func (m MealSplit) For(meal MealType) float64 {
	switch meal {
	case Breakfast:
		return m.Breakfast
	case Lunch:
		return m.Lunch
	case Dinner:
		return m.Dinner
	case Snack:
		return m.Snack
	}
	return 0
}

func (m MealSplit) Total() float64 {
	return m.Breakfast + m.Lunch + m.Dinner + m.Snack
}

type Needs struct {
	BMR         float64   `json:"bmr"`
	Maintenance float64   `json:"maintenance_calories"`
	Calories    float64   `json:"calories"`
	Macros      Macros    `json:"macros"`
	Meals       MealSplit `json:"meals"`
}

// BMR is the Mifflin-St Jeor basal metabolic rate.
func BMR(p Profile) float64 {
	bmr := 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age)
	if p.Sex == SexMale {
		return bmr + 5
	}
	return bmr - 161
}

func ActivityMultiplier(level ActivityLevel) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return activityMultipliers[Sedentary]
}

func GoalAdjustment(goal Goal) float64 {
	if f, ok := goalAdjustments[goal]; ok {
		return f
	}
	return 1.0
}

// Calculate derives the daily targets of a profile. The profile is expected
// to have passed Validate.
func Calculate(p Profile) Needs {
	bmr := BMR(p)
	maintenance := bmr * ActivityMultiplier(p.Activity)
	target := maintenance * GoalAdjustment(p.Goal)

	return Needs{
		BMR:         bmr,
		Maintenance: maintenance,
		Calories:    target,
		Macros:      splitMacros(target, p.WeightKG, p.Goal),
		Meals:       SplitMeals(target),
	}
}

func splitMacros(target, weightKG float64, goal Goal) Macros {
	g, ok := gramsPerKG[goal]
	if !ok {
		g = gramsPerKG[Maintain]
	}
	protein := g.protein * weightKG
	fat := g.fat * weightKG

	// protein and fat alone may not fit the budget of a light, low-activity
	// profile; shrink both so carbs bottom out at zero
	var carbs float64
	fixed := protein*kcalPerGramProtein + fat*kcalPerGramFat
	if fixed > target {
		scale := target / fixed
		protein *= scale
		fat *= scale
	} else {
		carbs = (target - fixed) / kcalPerGramCarbs
	}

	return Macros{
		Protein: protein,
		Fat:     fat,
		Carbs:   carbs,
		Fiber:   target / 1000 * fiberGramsPer1000Kcal,
	}
}

// SplitMeals distributes calories over the meal slots. Snack takes the
// remainder so that Total returns calories exactly: the difference is exact
// because breakfast+lunch+dinner lies within a factor two of calories.
func SplitMeals(calories float64) MealSplit {
	breakfast := calories * mealShares[Breakfast]
	lunch := calories * mealShares[Lunch]
	dinner := calories * mealShares[Dinner]
	return MealSplit{
		Breakfast: breakfast,
		Lunch:     lunch,
		Dinner:    dinner,
		Snack:     calories - (breakfast + lunch + dinner),
	}
}
