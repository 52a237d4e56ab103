package controllers

import (
	"net/http"

	"github.com/FloFRCD/nutrition-app-sub001/middleware"
	"github.com/FloFRCD/nutrition-app-sub001/services"
)

type burnedRequest struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
}

type SummaryController struct {
	daily *services.DailyService
}

func NewSummaryController(daily *services.DailyService) *SummaryController {
	return &SummaryController{daily: daily}
}

func (c *SummaryController) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := c.daily.Summary(r.Context(), middleware.UserID(r.Context()), r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (c *SummaryController) SetBurned(w http.ResponseWriter, r *http.Request) {
	var req burnedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := c.daily.SetBurned(r.Context(), middleware.UserID(r.Context()), req.Date, req.Calories); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
