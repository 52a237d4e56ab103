package services

import (
	"context"
	"fmt"

	"github.com/FloFRCD/nutrition-app-sub001/journal"
	"github.com/FloFRCD/nutrition-app-sub001/kvstore"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"
)

const (
	ModeNormal = "normal"
	ModeTight  = "tight"
	ModeOver   = "over"

	// tightShare is the share of the target below which the day is tight.
	tightShare = 0.2
)

type MealProgress struct {
	Meal     nutrition.MealType `json:"meal"`
	Target   float64            `json:"target_calories"`
	Consumed float64            `json:"consumed_calories"`
}

type DailySummary struct {
	Date      string              `json:"date"`
	Needs     nutrition.Needs     `json:"needs"`
	Consumed  nutrition.Nutrients `json:"consumed"`
	Meals     []MealProgress      `json:"meals"`
	Burned    float64             `json:"burned_calories"`
	Remaining float64             `json:"remaining_calories"`
	Mode      string              `json:"mode"`
	Entries   []journal.Entry     `json:"entries"`
}

// DailyService combines the profile targets, the journal and the burned
// calories of a day.
type DailyService struct {
	journal  *journal.Service
	profiles *ProfileService
	store    kvstore.Store
	locks    userLocks
}

func NewDailyService(j *journal.Service, profiles *ProfileService, store kvstore.Store) *DailyService {
	return &DailyService{journal: j, profiles: profiles, store: store}
}

func burnedKey(userID string) string {
	return "burned:" + userID
}

func (s *DailyService) burnedMap(ctx context.Context, userID string) (map[string]float64, error) {
	burned := map[string]float64{}
	if _, err := kvstore.GetJSON(ctx, s.store, burnedKey(userID), &burned); err != nil {
		return nil, err
	}
	if burned == nil {
		burned = map[string]float64{}
	}
	return burned, nil
}

// SetBurned records the calories burned by activity on day, replacing any
// earlier value for that day.
func (s *DailyService) SetBurned(ctx context.Context, userID, day string, kcal float64) error {
	if kcal < 0 {
		return fmt.Errorf("%w: burned calories must not be negative", ErrInvalidInput)
	}
	day, err := journal.ParseDay(day)
	if err != nil {
		return err
	}

	defer s.locks.lock(userID)()
	burned, err := s.burnedMap(ctx, userID)
	if err != nil {
		return err
	}
	burned[day] = kcal
	return kvstore.PutJSON(ctx, s.store, burnedKey(userID), burned)
}

func (s *DailyService) Burned(ctx context.Context, userID, day string) (float64, error) {
	burned, err := s.burnedMap(ctx, userID)
	if err != nil {
		return 0, err
	}
	return burned[day], nil
}

func (s *DailyService) Summary(ctx context.Context, userID, day string) (*DailySummary, error) {
	day, err := journal.ParseDay(day)
	if err != nil {
		return nil, err
	}
	needs, err := s.profiles.Needs(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.journal.EntriesOn(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	burned, err := s.Burned(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	perMeal := make(map[nutrition.MealType]float64, len(nutrition.MealTypes))
	for _, e := range entries {
		perMeal[e.Meal] += e.Nutrients.Calories
	}
	meals := make([]MealProgress, 0, len(nutrition.MealTypes))
	for _, m := range nutrition.MealTypes {
		meals = append(meals, MealProgress{Meal: m, Target: needs.Meals.For(m), Consumed: perMeal[m]})
	}

	consumed := journal.Totals(entries)
	remaining := needs.Calories + burned - consumed.Calories
	return &DailySummary{
		Date:      day,
		Needs:     needs,
		Consumed:  consumed,
		Meals:     meals,
		Burned:    burned,
		Remaining: remaining,
		Mode:      controlMode(remaining, needs.Calories),
		Entries:   entries,
	}, nil
}

func controlMode(remaining, target float64) string {
	switch {
	case remaining < 0:
		return ModeOver
	case remaining < tightShare*target:
		return ModeTight
	default:
		return ModeNormal
	}
}
