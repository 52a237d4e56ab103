package catalog

import (
	"context"
	"sync"

	"github.com/FloFRCD/nutrition-app-sub001/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads catalog files when they are written or created.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once

	// onLoad, when set, observes each reload.
	onLoad func(path string, n int, err error)
}

func NewWatcher(loader *Loader, dir string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{loader: loader, watcher: w, done: make(chan struct{})}, nil
}

// Start watches in a goroutine until ctx ends or Close is called.
func (fw *Watcher) Start(ctx context.Context) {
	go fw.watch(ctx)
}

func (fw *Watcher) watch(ctx context.Context) {
	defer close(fw.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isCSV(event.Name) {
				continue
			}
			logger.Info("catalog file changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			n, err := fw.loader.LoadFile(ctx, event.Name)
			if err != nil {
				logger.Error("catalog reload failed", zap.String("path", event.Name), zap.Error(err))
			}
			if fw.onLoad != nil {
				fw.onLoad(event.Name, n, err)
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}

// Close stops watching. Done reports when the loop has exited.
func (fw *Watcher) Close() error {
	var err error
	fw.once.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}

// Done is closed when the watch loop has exited.
func (fw *Watcher) Done() <-chan struct{} {
	return fw.done
}
