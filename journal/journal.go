// Package journal keeps each user's food journal as a single document and
// notifies subscribers of changes.
package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/kvstore"
	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
	EventUpdated EventType = "updated"
)

type Event struct {
	Type   EventType `json:"type"`
	UserID string    `json:"user_id"`
	Entry  Entry     `json:"entry"`
}

// Service owns the journal documents. Mutations of one user's journal are
// serialized; different users proceed in parallel.
type Service struct {
	store kvstore.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	subMu  sync.RWMutex
	subs   map[uint64]func(Event)
	nextID uint64

	now func() time.Time
}

func NewService(store kvstore.Store) *Service {
	return &Service{
		store: store,
		locks: make(map[string]*sync.Mutex),
		subs:  make(map[uint64]func(Event)),
		now:   time.Now,
	}
}

func journalKey(userID string) string {
	return "journal:" + userID
}

func (s *Service) lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Service) load(ctx context.Context, userID string) ([]Entry, error) {
	var entries []Entry
	if _, err := kvstore.GetJSON(ctx, s.store, journalKey(userID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) save(ctx context.Context, userID string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	return kvstore.PutJSON(ctx, s.store, journalKey(userID), entries)
}

// Entries returns the whole journal in insertion order.
func (s *Service) Entries(ctx context.Context, userID string) ([]Entry, error) {
	return s.load(ctx, userID)
}

// EntriesOn returns the entries of a single day.
func (s *Service) EntriesOn(ctx context.Context, userID, day string) ([]Entry, error) {
	entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date == day {
			out = append(out, e)
		}
	}
	return out, nil
}

// Add appends e unless an entry with the same food name, day and meal already
// exists, in which case the existing entry is returned with created false.
func (s *Service) Add(ctx context.Context, userID string, e Entry) (Entry, bool, error) {
	if err := e.validate(); err != nil {
		return Entry{}, false, err
	}

	unlock := s.lock(userID)
	entries, err := s.load(ctx, userID)
	if err != nil {
		unlock()
		return Entry{}, false, err
	}
	k := e.key()
	for _, existing := range entries {
		if existing.key() == k {
			unlock()
			return existing, false, nil
		}
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	entries = append(entries, e)
	err = s.save(ctx, userID, entries)
	unlock()
	if err != nil {
		return Entry{}, false, fmt.Errorf("add journal entry: %w", err)
	}

	logger.Debug("journal entry added",
		zap.String("user_id", userID), zap.String("entry_id", e.ID), zap.String("food", e.FoodName))
	s.publish(Event{Type: EventAdded, UserID: userID, Entry: e})
	return e, true, nil
}

// Remove deletes the entry with entryID. Removing an unknown entry is a no-op
// that reports false.
func (s *Service) Remove(ctx context.Context, userID, entryID string) (bool, error) {
	unlock := s.lock(userID)
	entries, err := s.load(ctx, userID)
	if err != nil {
		unlock()
		return false, err
	}
	idx := -1
	for i, e := range entries {
		if e.ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		unlock()
		return false, nil
	}
	removed := entries[idx]
	entries = append(entries[:idx], entries[idx+1:]...)
	err = s.save(ctx, userID, entries)
	unlock()
	if err != nil {
		return false, fmt.Errorf("remove journal entry: %w", err)
	}

	s.publish(Event{Type: EventRemoved, UserID: userID, Entry: removed})
	return true, nil
}

// UpdateNutrients replaces the nutrients of an existing entry.
func (s *Service) UpdateNutrients(ctx context.Context, userID, entryID string, n nutrition.Nutrients) (Entry, error) {
	if !n.Valid() {
		return Entry{}, fmt.Errorf("%w: nutrients must not be negative", ErrInvalidEntry)
	}
	unlock := s.lock(userID)
	entries, err := s.load(ctx, userID)
	if err != nil {
		unlock()
		return Entry{}, err
	}
	idx := -1
	for i, e := range entries {
		if e.ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		unlock()
		return Entry{}, ErrEntryNotFound
	}
	entries[idx].Nutrients = n
	updated := entries[idx]
	err = s.save(ctx, userID, entries)
	unlock()
	if err != nil {
		return Entry{}, fmt.Errorf("update journal entry: %w", err)
	}

	s.publish(Event{Type: EventUpdated, UserID: userID, Entry: updated})
	return updated, nil
}

// Subscribe registers fn for journal events. fn runs synchronously on the
// mutating goroutine after the journal lock is released, so it may call back
// into the Service. The returned function removes the registration.
func (s *Service) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Service) publish(ev Event) {
	s.subMu.RLock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
