package jobs

import (
	"context"
	"sync"

	"github.com/FloFRCD/nutrition-app-sub001/journal"
	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"

	"go.uber.org/zap"
)

// NutritionJob asks the worker to fill in the nutrients of one journal entry.
type NutritionJob struct {
	UserID  string
	EntryID string
}

// NutritionUpdate is sent to subscribers when an entry was enriched or the
// lookup failed.
type NutritionUpdate struct {
	UserID    string              `json:"user_id"`
	EntryID   string              `json:"entry_id"`
	FoodName  string              `json:"food_name"`
	Nutrients nutrition.Nutrients `json:"nutrients"`
	Error     string              `json:"error,omitempty"`
}

// Estimator fills missing nutrients of an entry.
type Estimator interface {
	EstimateEntry(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// NutritionWorker enriches journal entries logged without nutrients. It has
// a single consumer and a bounded queue; jobs are dropped when it is full.
type NutritionWorker struct {
	jobs        chan NutritionJob
	journal     *journal.Service
	estimator   Estimator
	subscribers map[chan NutritionUpdate]string
	subMux      sync.RWMutex
}

func NewNutritionWorker(j *journal.Service, estimator Estimator, queueSize int) *NutritionWorker {
	if queueSize <= 0 {
		queueSize = 100
	}
	return &NutritionWorker{
		jobs:        make(chan NutritionJob, queueSize),
		journal:     j,
		estimator:   estimator,
		subscribers: make(map[chan NutritionUpdate]string),
	}
}

// Start subscribes to journal additions and processes jobs in the background
// until ctx is done. The returned channel is closed once the worker stopped.
func (w *NutritionWorker) Start(ctx context.Context) <-chan struct{} {
	unsubscribe := w.journal.Subscribe(w.onJournalEvent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer unsubscribe()
		w.run(ctx)
	}()
	logger.Info("nutrition worker started")
	return done
}

func (w *NutritionWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("nutrition worker stopped", zap.Int("queued", len(w.jobs)))
			return
		case job := <-w.jobs:
			w.processJob(ctx, job)
		}
	}
}

func (w *NutritionWorker) onJournalEvent(ev journal.Event) {
	if ev.Type != journal.EventAdded || !ev.Entry.Nutrients.IsZero() {
		return
	}
	w.Enqueue(NutritionJob{UserID: ev.UserID, EntryID: ev.Entry.ID})
}

// Enqueue adds a job to the queue and reports false when it was dropped.
func (w *NutritionWorker) Enqueue(job NutritionJob) bool {
	select {
	case w.jobs <- job:
		logger.Debug("nutrition job enqueued", zap.String("user_id", job.UserID), zap.String("entry_id", job.EntryID))
		return true
	default:
		logger.Warn("nutrition job queue full, dropping job", zap.String("user_id", job.UserID), zap.String("entry_id", job.EntryID))
		return false
	}
}

// Subscribe registers ch for the updates of one user.
func (w *NutritionWorker) Subscribe(userID string, ch chan NutritionUpdate) {
	w.subMux.Lock()
	defer w.subMux.Unlock()
	w.subscribers[ch] = userID
}

// Unsubscribe removes ch and closes it.
func (w *NutritionWorker) Unsubscribe(ch chan NutritionUpdate) {
	w.subMux.Lock()
	defer w.subMux.Unlock()
	if _, ok := w.subscribers[ch]; !ok {
		return
	}
	delete(w.subscribers, ch)
	close(ch)
}

func (w *NutritionWorker) processJob(ctx context.Context, job NutritionJob) {
	entries, err := w.journal.Entries(ctx, job.UserID)
	if err != nil {
		logger.Error("failed to load journal for nutrition job", zap.String("user_id", job.UserID), zap.Error(err))
		return
	}
	var entry *journal.Entry
	for i := range entries {
		if entries[i].ID == job.EntryID {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		logger.Debug("journal entry gone before enrichment", zap.String("entry_id", job.EntryID))
		return
	}
	if !entry.Nutrients.IsZero() {
		return
	}

	update := NutritionUpdate{UserID: job.UserID, EntryID: entry.ID, FoodName: entry.FoodName}
	enriched, err := w.estimator.EstimateEntry(ctx, *entry)
	if err != nil {
		logger.Warn("failed to estimate nutrition", zap.String("food", entry.FoodName), zap.Error(err))
		update.Error = err.Error()
		w.broadcast(update)
		return
	}

	updated, err := w.journal.UpdateNutrients(ctx, job.UserID, entry.ID, enriched.Nutrients)
	if err != nil {
		logger.Error("failed to save nutrition data", zap.String("entry_id", entry.ID), zap.Error(err))
		return
	}
	logger.Info("journal entry enriched", zap.String("entry_id", entry.ID), zap.Float64("calories", updated.Nutrients.Calories))

	update.Nutrients = updated.Nutrients
	w.broadcast(update)
}

func (w *NutritionWorker) broadcast(update NutritionUpdate) {
	w.subMux.RLock()
	defer w.subMux.RUnlock()
	for ch, userID := range w.subscribers {
		if userID != update.UserID {
			continue
		}
		select {
		case ch <- update:
		default:
			// slow subscriber, drop
		}
	}
}
