package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/FloFRCD/nutrition-app-sub001/services"

	"github.com/go-chi/chi/v5"
)

type recognizeRequest struct {
	Image string `json:"image"`
}

type FoodController struct {
	nutrition *services.NutritionService
	photo     *services.PhotoService
}

func NewFoodController(n *services.NutritionService, photo *services.PhotoService) *FoodController {
	return &FoodController{nutrition: n, photo: photo}
}

// Search resolves ?q= (and optional ?brand=) to nutrients per 100 g.
func (c *FoodController) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, r, fmt.Errorf("%w: query parameter q is required", services.ErrInvalidInput))
		return
	}
	rec, err := c.nutrition.Lookup(r.Context(), q, r.URL.Query().Get("brand"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (c *FoodController) Barcode(w http.ResponseWriter, r *http.Request) {
	rec, err := c.nutrition.LookupBarcode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (c *FoodController) Recognize(w http.ResponseWriter, r *http.Request) {
	var req recognizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	candidates, err := c.photo.Recognize(r.Context(), req.Image)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

func (c *FoodController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "food_id"), 10, 64)
	if err != nil || id == 0 {
		respondError(w, r, fmt.Errorf("%w: invalid food id", services.ErrInvalidInput))
		return
	}
	rec, err := c.nutrition.Food(r.Context(), uint(id))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Estimates lists logged LLM outputs for ?q=, capped by ?limit=.
func (c *FoodController) Estimates(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, fmt.Errorf("%w: invalid limit", services.ErrInvalidInput))
			return
		}
		limit = n
	}
	responses, err := c.nutrition.Estimates(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": responses})
}
