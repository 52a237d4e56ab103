package controllers

import (
	"math"
	"net/http"

	"github.com/FloFRCD/nutrition-app-sub001/middleware"
	"github.com/FloFRCD/nutrition-app-sub001/models"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"
	"github.com/FloFRCD/nutrition-app-sub001/services"
)

type profileResponse struct {
	*models.UserProfile
	BMI         float64 `json:"bmi,omitempty"`
	BMICategory string  `json:"bmi_category,omitempty"`
}

func withBMI(p *models.UserProfile) profileResponse {
	resp := profileResponse{UserProfile: p}
	if bmi, err := nutrition.BMI(p.HeightCM, p.WeightKG); err == nil {
		resp.BMI = math.Round(bmi*10) / 10
		resp.BMICategory = nutrition.BMICategory(bmi)
	}
	return resp
}

type ProfileController struct {
	profiles *services.ProfileService
}

func NewProfileController(profiles *services.ProfileService) *ProfileController {
	return &ProfileController{profiles: profiles}
}

func (c *ProfileController) Get(w http.ResponseWriter, r *http.Request) {
	p, err := c.profiles.Get(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withBMI(p))
}

func (c *ProfileController) Save(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := c.profiles.Save(r.Context(), middleware.UserID(r.Context()), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withBMI(p))
}

func (c *ProfileController) Needs(w http.ResponseWriter, r *http.Request) {
	needs, err := c.profiles.Needs(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, needs)
}
