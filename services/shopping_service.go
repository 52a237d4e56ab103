package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/fuzzy"
	"github.com/FloFRCD/nutrition-app-sub001/kvstore"
	"github.com/FloFRCD/nutrition-app-sub001/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ShoppingItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Checked  bool    `json:"checked"`
	// Manual items were typed in and survive rebuilds.
	Manual bool `json:"manual"`
}

func (i ShoppingItem) key() string {
	return fuzzy.Normalize(i.Name) + "|" + i.Unit
}

type ShoppingList struct {
	Items     []ShoppingItem `json:"items"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ShoppingService keeps a per-user shopping list built from the selected
// recipes plus manually added items.
type ShoppingService struct {
	recipes *RecipeService
	store   kvstore.Store
	locks   userLocks
	now     func() time.Time
}

func NewShoppingService(recipes *RecipeService, store kvstore.Store) *ShoppingService {
	return &ShoppingService{recipes: recipes, store: store, now: time.Now}
}

func shoppingKey(userID string) string {
	return "shopping:" + userID
}

func (s *ShoppingService) load(ctx context.Context, userID string) (ShoppingList, error) {
	var list ShoppingList
	if _, err := kvstore.GetJSON(ctx, s.store, shoppingKey(userID), &list); err != nil {
		return ShoppingList{}, err
	}
	if list.Items == nil {
		list.Items = []ShoppingItem{}
	}
	return list, nil
}

func (s *ShoppingService) save(ctx context.Context, userID string, list ShoppingList) error {
	list.UpdatedAt = s.now().UTC()
	if err := kvstore.PutJSON(ctx, s.store, shoppingKey(userID), list); err != nil {
		return fmt.Errorf("save shopping list: %w", err)
	}
	return nil
}

func (s *ShoppingService) List(ctx context.Context, userID string) (ShoppingList, error) {
	return s.load(ctx, userID)
}

// Rebuild replaces the recipe-derived items with the summed ingredients of
// the selected recipes. Manual items are kept, and an item that was checked
// before stays checked.
func (s *ShoppingService) Rebuild(ctx context.Context, userID string) (ShoppingList, error) {
	recipes, err := s.recipes.Selected(ctx, userID)
	if err != nil {
		return ShoppingList{}, err
	}

	defer s.locks.lock(userID)()
	old, err := s.load(ctx, userID)
	if err != nil {
		return ShoppingList{}, err
	}
	previous := make(map[string]ShoppingItem, len(old.Items))
	var manual []ShoppingItem
	for _, item := range old.Items {
		if item.Manual {
			manual = append(manual, item)
			continue
		}
		previous[item.key()] = item
	}

	var items []ShoppingItem
	index := make(map[string]int)
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			name := strings.TrimSpace(ing.Name)
			if name == "" {
				continue
			}
			qty, unit := toBaseUnit(ing.Quantity, ing.Unit, name)
			item := ShoppingItem{Name: name, Quantity: qty, Unit: unit}
			k := item.key()
			if i, ok := index[k]; ok {
				items[i].Quantity += qty
				continue
			}
			if prev, ok := previous[k]; ok {
				item.ID = prev.ID
				item.Checked = prev.Checked
			} else {
				item.ID = uuid.NewString()
			}
			index[k] = len(items)
			items = append(items, item)
		}
	}
	for i := range items {
		items[i].Quantity = round2(items[i].Quantity)
	}

	list := ShoppingList{Items: append(items, manual...)}
	if list.Items == nil {
		list.Items = []ShoppingItem{}
	}
	if err := s.save(ctx, userID, list); err != nil {
		return ShoppingList{}, err
	}
	logger.Info("shopping list rebuilt",
		zap.String("user_id", userID), zap.Int("recipes", len(recipes)), zap.Int("items", len(list.Items)))
	return s.load(ctx, userID)
}

// AddText parses text such as "2 eggs" or "500g rice" into a manual item. An
// unchecked manual item with the same name and unit absorbs the quantity.
func (s *ShoppingService) AddText(ctx context.Context, userID, text string) (ShoppingItem, error) {
	name, qty, unit := parseIngredient(text)
	if name == "" || qty <= 0 {
		return ShoppingItem{}, fmt.Errorf("%w: cannot parse shopping item %q", ErrInvalidInput, text)
	}
	qty, unit = toBaseUnit(qty, unit, name)
	item := ShoppingItem{Name: name, Quantity: round2(qty), Unit: unit, Manual: true}

	defer s.locks.lock(userID)()
	list, err := s.load(ctx, userID)
	if err != nil {
		return ShoppingItem{}, err
	}
	k := item.key()
	for i, existing := range list.Items {
		if existing.Manual && !existing.Checked && existing.key() == k {
			list.Items[i].Quantity = round2(existing.Quantity + item.Quantity)
			if err := s.save(ctx, userID, list); err != nil {
				return ShoppingItem{}, err
			}
			return list.Items[i], nil
		}
	}
	item.ID = uuid.NewString()
	list.Items = append(list.Items, item)
	if err := s.save(ctx, userID, list); err != nil {
		return ShoppingItem{}, err
	}
	return item, nil
}

// Toggle sets the checked flag of an item.
func (s *ShoppingService) Toggle(ctx context.Context, userID, itemID string, checked bool) (ShoppingItem, error) {
	defer s.locks.lock(userID)()
	list, err := s.load(ctx, userID)
	if err != nil {
		return ShoppingItem{}, err
	}
	for i := range list.Items {
		if list.Items[i].ID == itemID {
			list.Items[i].Checked = checked
			if err := s.save(ctx, userID, list); err != nil {
				return ShoppingItem{}, err
			}
			return list.Items[i], nil
		}
	}
	return ShoppingItem{}, ErrItemNotFound
}

func (s *ShoppingService) Remove(ctx context.Context, userID, itemID string) error {
	defer s.locks.lock(userID)()
	list, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	for i := range list.Items {
		if list.Items[i].ID == itemID {
			list.Items = append(list.Items[:i], list.Items[i+1:]...)
			return s.save(ctx, userID, list)
		}
	}
	return ErrItemNotFound
}
