package journal

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/kvstore"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *kvstore.MemoryStore) {
	store := kvstore.NewMemoryStore()
	return NewService(store), store
}

func oats() Entry {
	return Entry{
		FoodName:  "Oatmeal",
		Quantity:  80,
		Date:      "2024-03-01",
		Meal:      nutrition.Breakfast,
		Nutrients: nutrition.Nutrients{Calories: 300},
	}
}

func TestAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService()

	first, created, err := s.Add(ctx, "u1", oats())
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, SourceManual, first.Source)

	dup := oats()
	dup.FoodName = "  OATMEAL "
	dup.Quantity = 120
	second, created, err := s.Add(ctx, "u1", dup)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	entries, err := s.Entries(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// a different meal or day is a new entry
	lunch := oats()
	lunch.Meal = nutrition.Lunch
	_, created, err = s.Add(ctx, "u1", lunch)
	require.NoError(t, err)
	assert.True(t, created)

	nextDay := oats()
	nextDay.Date = "2024-03-02"
	_, created, err = s.Add(ctx, "u1", nextDay)
	require.NoError(t, err)
	assert.True(t, created)

	on, err := s.EntriesOn(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Len(t, on, 2)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService()

	e, _, err := s.Add(ctx, "u1", oats())
	require.NoError(t, err)

	removed, err := s.Remove(ctx, "u1", "does-not-exist")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.Remove(ctx, "u1", e.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove(ctx, "u1", e.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	entries, err := s.Entries(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAddValidates(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService()

	cases := map[string]func(e *Entry){
		"empty name":    func(e *Entry) { e.FoodName = "  " },
		"zero quantity": func(e *Entry) { e.Quantity = 0 },
		"bad meal":      func(e *Entry) { e.Meal = "brunch" },
		"bad date":      func(e *Entry) { e.Date = "01/03/2024" },
		"bad source":    func(e *Entry) { e.Source = "telepathy" },
		"negative kcal": func(e *Entry) { e.Nutrients.Calories = -50 },
		"negative fat":  func(e *Entry) { e.Nutrients.Fat = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			e := oats()
			mutate(&e)
			_, _, err := s.Add(ctx, "u1", e)
			assert.ErrorIs(t, err, ErrInvalidEntry)
		})
	}
}

func TestEmptyDateMeansToday(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService()

	e := oats()
	e.Date = ""
	got, _, err := s.Add(ctx, "u1", e)
	require.NoError(t, err)
	assert.Equal(t, Day(time.Now()), got.Date)
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := oats()
			e.FoodName = fmt.Sprintf("food %d", i)
			_, _, err := s.Add(ctx, "u1", e)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, err := s.Entries(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}

func TestUpdateNutrients(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService()

	e, _, err := s.Add(ctx, "u1", oats())
	require.NoError(t, err)

	updated, err := s.UpdateNutrients(ctx, "u1", e.ID, nutrition.Nutrients{Calories: 310, Protein: 10})
	require.NoError(t, err)
	assert.Equal(t, 310.0, updated.Nutrients.Calories)

	entries, err := s.Entries(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, entries[0].Nutrients.Protein)

	_, err = s.UpdateNutrients(ctx, "u1", "missing", nutrition.Nutrients{})
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = s.UpdateNutrients(ctx, "u1", e.ID, nutrition.Nutrients{Calories: 100, Carbs: -5})
	assert.ErrorIs(t, err, ErrInvalidEntry)
	entries, err = s.Entries(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 310.0, entries[0].Nutrients.Calories)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService()

	var events []Event
	unsubscribe := s.Subscribe(func(ev Event) {
		events = append(events, ev)
		// callbacks may re-enter the service
		_, err := s.Entries(ctx, ev.UserID)
		assert.NoError(t, err)
	})

	e, _, err := s.Add(ctx, "u1", oats())
	require.NoError(t, err)
	_, _, err = s.Add(ctx, "u1", oats()) // duplicate, no event
	require.NoError(t, err)
	_, err = s.UpdateNutrients(ctx, "u1", e.ID, nutrition.Nutrients{Calories: 1})
	require.NoError(t, err)
	_, err = s.Remove(ctx, "u1", e.ID)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, EventAdded, events[0].Type)
	assert.Equal(t, EventUpdated, events[1].Type)
	assert.Equal(t, EventRemoved, events[2].Type)
	assert.Equal(t, e.ID, events[2].Entry.ID)

	unsubscribe()
	unsubscribe()
	_, _, err = s.Add(ctx, "u1", oats())
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestCorruptJournalReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService()
	require.NoError(t, store.Put(ctx, "journal:u1", []byte("not json")))

	entries, err := s.Entries(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, created, err := s.Add(ctx, "u1", oats())
	require.NoError(t, err)
	assert.True(t, created)
}

func TestTotals(t *testing.T) {
	got := Totals([]Entry{
		{Nutrients: nutrition.Nutrients{Calories: 100, Protein: 5}},
		{Nutrients: nutrition.Nutrients{Calories: 50, Fat: 2}},
	})
	assert.Equal(t, nutrition.Nutrients{Calories: 150, Protein: 5, Fat: 2}, got)
}
