package kvstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/logger"

	"go.uber.org/zap"
)

// DebouncedWriter wraps a Store so that each key is written at most once per
// interval. A write arriving too soon is parked and replaced by any later
// write to the same key; a timer stores the latest value when the interval
// has passed. Reads see parked values.
type DebouncedWriter struct {
	store    Store
	interval time.Duration

	mu   sync.Mutex
	keys map[string]*keyState
}

type keyState struct {
	// writing serializes backend writes of one key; acquire it after mu.
	writing   sync.Mutex
	lastWrite time.Time
	pending   []byte
	timer     *time.Timer
}

func NewDebouncedWriter(store Store, interval time.Duration) *DebouncedWriter {
	return &DebouncedWriter{
		store:    store,
		interval: interval,
		keys:     make(map[string]*keyState),
	}
}

func (w *DebouncedWriter) state(key string) *keyState {
	st, ok := w.keys[key]
	if !ok {
		st = &keyState{}
		w.keys[key] = st
	}
	return st
}

func (w *DebouncedWriter) Get(ctx context.Context, key string) ([]byte, error) {
	w.mu.Lock()
	if st, ok := w.keys[key]; ok && st.timer != nil {
		v := clone(st.pending)
		w.mu.Unlock()
		return v, nil
	}
	w.mu.Unlock()
	return w.store.Get(ctx, key)
}

func (w *DebouncedWriter) Put(ctx context.Context, key string, value []byte) error {
	w.mu.Lock()
	st := w.state(key)
	if st.timer != nil {
		st.pending = clone(value)
		w.mu.Unlock()
		return nil
	}
	if wait := w.interval - time.Since(st.lastWrite); wait > 0 {
		st.pending = clone(value)
		st.timer = time.AfterFunc(wait, func() { w.flushKey(key) })
		w.mu.Unlock()
		return nil
	}
	st.lastWrite = time.Now()
	st.writing.Lock()
	w.mu.Unlock()

	defer st.writing.Unlock()
	return w.store.Put(ctx, key, value)
}

// Delete drops any parked value and deletes the key right away.
func (w *DebouncedWriter) Delete(ctx context.Context, key string) error {
	w.mu.Lock()
	st := w.state(key)
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
		st.pending = nil
	}
	st.lastWrite = time.Now()
	st.writing.Lock()
	w.mu.Unlock()

	defer st.writing.Unlock()
	return w.store.Delete(ctx, key)
}

// take removes the parked value of st and reserves the key for writing.
// The caller must hold w.mu and must release st.writing.
func (w *DebouncedWriter) take(st *keyState) ([]byte, bool) {
	if st.timer == nil {
		return nil, false
	}
	st.timer.Stop()
	st.timer = nil
	v := st.pending
	st.pending = nil
	st.lastWrite = time.Now()
	st.writing.Lock()
	return v, true
}

func (w *DebouncedWriter) flushKey(key string) {
	w.mu.Lock()
	st, ok := w.keys[key]
	if !ok {
		w.mu.Unlock()
		return
	}
	v, ok := w.take(st)
	w.mu.Unlock()
	if !ok {
		return
	}
	defer st.writing.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.store.Put(ctx, key, v); err != nil {
		logger.Error("debounced write failed", zap.String("key", key), zap.Error(err))
	}
}

// Flush writes every parked value now. It is meant for shutdown.
func (w *DebouncedWriter) Flush(ctx context.Context) error {
	type parked struct {
		key   string
		st    *keyState
		value []byte
	}

	w.mu.Lock()
	var todo []parked
	for key, st := range w.keys {
		if st.timer == nil {
			continue
		}
		v, _ := w.take(st)
		todo = append(todo, parked{key: key, st: st, value: v})
	}
	w.mu.Unlock()

	var errs []error
	for _, p := range todo {
		if err := w.store.Put(ctx, p.key, p.value); err != nil {
			errs = append(errs, err)
		}
		p.st.writing.Unlock()
	}
	return errors.Join(errs...)
}

// Pending reports how many keys hold a parked value.
func (w *DebouncedWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, st := range w.keys {
		if st.timer != nil {
			n++
		}
	}
	return n
}
