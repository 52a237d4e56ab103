package controllers

import (
	"net/http"

	"github.com/FloFRCD/nutrition-app-sub001/journal"
	"github.com/FloFRCD/nutrition-app-sub001/middleware"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"
	"github.com/FloFRCD/nutrition-app-sub001/services"

	"github.com/go-chi/chi/v5"
)

type addEntryRequest struct {
	FoodName  string               `json:"food_name"`
	Brand     string               `json:"brand"`
	Quantity  float64              `json:"quantity_g"`
	Date      string               `json:"date"`
	Meal      string               `json:"meal"`
	Nutrients *nutrition.Nutrients `json:"nutrients,omitempty"`
}

type dayResponse struct {
	Date    string              `json:"date"`
	Entries []journal.Entry     `json:"entries"`
	Totals  nutrition.Nutrients `json:"totals"`
}

// JournalController serves the food journal and its logging shortcuts.
type JournalController struct {
	journal *journal.Service
	barcode *services.BarcodeService
	photo   *services.PhotoService
}

func NewJournalController(j *journal.Service, barcode *services.BarcodeService, photo *services.PhotoService) *JournalController {
	return &JournalController{journal: j, barcode: barcode, photo: photo}
}

func (c *JournalController) List(w http.ResponseWriter, r *http.Request) {
	day, err := journal.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	entries, err := c.journal.EntriesOn(r.Context(), middleware.UserID(r.Context()), day)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, dayResponse{Date: day, Entries: entries, Totals: journal.Totals(entries)})
}

// writeAdded answers 201 for a new entry and 200 for an existing duplicate.
func writeAdded(w http.ResponseWriter, e journal.Entry, created bool) {
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, e)
}

// Add logs a food. Entries without nutrients are enriched in the background.
func (c *JournalController) Add(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	e := journal.Entry{
		FoodName: req.FoodName,
		Brand:    req.Brand,
		Quantity: req.Quantity,
		Date:     req.Date,
		Meal:     nutrition.MealType(req.Meal),
		Source:   journal.SourceManual,
	}
	if req.Nutrients != nil {
		e.Nutrients = *req.Nutrients
	}
	added, created, err := c.journal.Add(r.Context(), middleware.UserID(r.Context()), e)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeAdded(w, added, created)
}

// Remove is idempotent: removing an unknown entry also answers 204.
func (c *JournalController) Remove(w http.ResponseWriter, r *http.Request) {
	if _, err := c.journal.Remove(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "entry_id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *JournalController) LogBarcode(w http.ResponseWriter, r *http.Request) {
	var req services.BarcodeLog
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	e, created, err := c.barcode.Log(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeAdded(w, e, created)
}

func (c *JournalController) LogPhoto(w http.ResponseWriter, r *http.Request) {
	var req services.PhotoLog
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	e, created, err := c.photo.Log(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeAdded(w, e, created)
}
