package controllers

import (
	"net/http"

	"github.com/FloFRCD/nutrition-app-sub001/middleware"
	"github.com/FloFRCD/nutrition-app-sub001/services"

	"github.com/go-chi/chi/v5"
)

type RecipeController struct {
	recipes *services.RecipeService
}

func NewRecipeController(recipes *services.RecipeService) *RecipeController {
	return &RecipeController{recipes: recipes}
}

func (c *RecipeController) Generate(w http.ResponseWriter, r *http.Request) {
	var req services.RecipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	recipes, err := c.recipes.Generate(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

func (c *RecipeController) Selected(w http.ResponseWriter, r *http.Request) {
	recipes, err := c.recipes.Selected(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

func (c *RecipeController) Select(w http.ResponseWriter, r *http.Request) {
	var req services.Recipe
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	recipe, err := c.recipes.Select(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

func (c *RecipeController) Unselect(w http.ResponseWriter, r *http.Request) {
	if err := c.recipes.Unselect(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "recipe_id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *RecipeController) Log(w http.ResponseWriter, r *http.Request) {
	var req services.RecipeLog
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	e, created, err := c.recipes.Log(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "recipe_id"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeAdded(w, e, created)
}
