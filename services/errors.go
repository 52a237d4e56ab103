package services

import "errors"

var (
	ErrNoNutrition        = errors.New("no nutrition data found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrItemNotFound       = errors.New("shopping item not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoFoodRecognized   = errors.New("no food recognized in photo")
	ErrUnavailable        = errors.New("feature not configured")
	// ErrUpstream wraps failures of remote services.
	ErrUpstream = errors.New("upstream service failed")
)
