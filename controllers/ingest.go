package controllers

import (
	"net/http"

	"github.com/FloFRCD/nutrition-app-sub001/catalog"
	"github.com/FloFRCD/nutrition-app-sub001/logger"

	"go.uber.org/zap"
)

type IngestFoodsRequest struct {
	Foods []catalog.Food `json:"foods"`
}

type IngestController struct {
	loader *catalog.Loader
}

func NewIngestController(loader *catalog.Loader) *IngestController {
	return &IngestController{loader: loader}
}

// IngestFoods upserts curated foods the same way catalog files are loaded.
func (c *IngestController) IngestFoods(w http.ResponseWriter, r *http.Request) {
	var req IngestFoodsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	n, err := c.loader.Ingest(r.Context(), req.Foods)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logger.Info("received food ingestion", zap.Int("foods", n))
	writeJSON(w, http.StatusOK, map[string]int{"ingested": n})
}
