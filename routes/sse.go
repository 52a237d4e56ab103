package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/jobs"
	"github.com/FloFRCD/nutrition-app-sub001/logger"
	auth "github.com/FloFRCD/nutrition-app-sub001/middleware"

	"go.uber.org/zap"
)

// keepAlive is how often an idle stream gets a comment line so proxies keep it open.
const keepAlive = 25 * time.Second

// UpdateSource is the fan-out side of jobs.NutritionWorker.
type UpdateSource interface {
	Subscribe(userID string, ch chan jobs.NutritionUpdate)
	Unsubscribe(ch chan jobs.NutritionUpdate)
}

func writeEvent(w http.ResponseWriter, f http.Flusher, event string, data []byte) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	f.Flush()
}

// JournalSSE streams the authenticated user's nutrition updates as
// Server-Sent Events until the client goes away or the source closes.
func JournalSSE(src UpdateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		userID := auth.UserID(r.Context())

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")

		updates := make(chan jobs.NutritionUpdate, 10)
		src.Subscribe(userID, updates)
		defer src.Unsubscribe(updates)

		log := logger.L().With(zap.String("user_id", userID))
		log.Info("journal stream opened")
		writeEvent(w, flusher, "connected", []byte(`{"status":"connected"}`))

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				log.Info("journal stream closed")
				return
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case u, open := <-updates:
				if !open {
					return
				}
				data, err := json.Marshal(u)
				if err != nil {
					log.Error("encode nutrition update", zap.Error(err))
					continue
				}
				writeEvent(w, flusher, "nutrition_update", data)
			}
		}
	}
}
