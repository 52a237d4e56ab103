package controllers

import (
	"fmt"
	"net/http"

	"github.com/FloFRCD/nutrition-app-sub001/middleware"
	"github.com/FloFRCD/nutrition-app-sub001/services"

	"github.com/go-chi/chi/v5"
)

type addItemRequest struct {
	Text string `json:"text"`
}

type updateItemRequest struct {
	Checked *bool `json:"checked"`
}

type ShoppingController struct {
	shopping *services.ShoppingService
}

func NewShoppingController(shopping *services.ShoppingService) *ShoppingController {
	return &ShoppingController{shopping: shopping}
}

func (c *ShoppingController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.shopping.List(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *ShoppingController) Rebuild(w http.ResponseWriter, r *http.Request) {
	list, err := c.shopping.Rebuild(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *ShoppingController) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	item, err := c.shopping.AddText(r.Context(), middleware.UserID(r.Context()), req.Text)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (c *ShoppingController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Checked == nil {
		respondError(w, r, fmt.Errorf("%w: checked is required", services.ErrInvalidInput))
		return
	}
	item, err := c.shopping.Toggle(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "item_id"), *req.Checked)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (c *ShoppingController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := c.shopping.Remove(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "item_id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
