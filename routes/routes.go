package routes

import (
	"net/http"

	"github.com/FloFRCD/nutrition-app-sub001/controllers"
	auth "github.com/FloFRCD/nutrition-app-sub001/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers groups the controllers the router mounts.
type Handlers struct {
	Auth         *controllers.AuthController
	Profile      *controllers.ProfileController
	Journal      *controllers.JournalController
	Foods        *controllers.FoodController
	Summary      *controllers.SummaryController
	Recipes      *controllers.RecipeController
	Shopping     *controllers.ShoppingController
	Subscription *controllers.SubscriptionController
	Ingest       *controllers.IngestController
}

type Options struct {
	AllowedOrigins []string
	Authenticator  auth.Authenticator
	Entitlements   auth.EntitlementChecker
	IngestAPIKey   string
	Updates        UpdateSource
}

func SetupRouter(h Handlers, opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public / Auth
	r.Post("/auth/register", h.Auth.Register)
	r.Post("/auth/login", h.Auth.Login)

	// Ingestion (API Key protected)
	r.Group(func(r chi.Router) {
		r.Use(auth.APIKey(opts.IngestAPIKey))
		r.Post("/ingest/foods", h.Ingest.IngestFoods)
		r.Get("/ingest/ai-responses", h.Foods.Estimates)
	})

	// User routes (JWT protected)
	r.Group(func(r chi.Router) {
		r.Use(auth.Auth(opts.Authenticator))

		r.Get("/auth/me", h.Auth.Me)

		r.Get("/profile", h.Profile.Get)
		r.Put("/profile", h.Profile.Save)
		r.Get("/profile/needs", h.Profile.Needs)

		r.Get("/journal", h.Journal.List)
		r.Post("/journal", h.Journal.Add)
		r.Delete("/journal/{entry_id}", h.Journal.Remove)
		r.Post("/journal/barcode", h.Journal.LogBarcode)
		r.Post("/journal/photo", h.Journal.LogPhoto)

		r.Get("/foods/search", h.Foods.Search)
		r.Get("/foods/barcode/{code}", h.Foods.Barcode)
		r.Post("/foods/recognize", h.Foods.Recognize)
		r.Get("/foods/{food_id}", h.Foods.Get)

		r.Get("/summary", h.Summary.Summary)
		r.Put("/activity/burned", h.Summary.SetBurned)

		r.With(auth.RequireEntitlement(opts.Entitlements)).Post("/recipes/generate", h.Recipes.Generate)
		r.Get("/recipes/selected", h.Recipes.Selected)
		r.Post("/recipes/selected", h.Recipes.Select)
		r.Delete("/recipes/selected/{recipe_id}", h.Recipes.Unselect)
		r.Post("/recipes/{recipe_id}/log", h.Recipes.Log)

		r.Get("/shopping", h.Shopping.List)
		r.Post("/shopping/rebuild", h.Shopping.Rebuild)
		r.Post("/shopping/items", h.Shopping.AddItem)
		r.Patch("/shopping/items/{item_id}", h.Shopping.UpdateItem)
		r.Delete("/shopping/items/{item_id}", h.Shopping.RemoveItem)

		r.Get("/subscription", h.Subscription.Status)

		// Server-Sent Events for background nutrition updates
		r.Get("/sse/journal", JournalSSE(opts.Updates))
	})

	return r
}
