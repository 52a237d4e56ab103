package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/catalog"
	"github.com/FloFRCD/nutrition-app-sub001/config"
	"github.com/FloFRCD/nutrition-app-sub001/controllers"
	"github.com/FloFRCD/nutrition-app-sub001/db"
	"github.com/FloFRCD/nutrition-app-sub001/jobs"
	"github.com/FloFRCD/nutrition-app-sub001/journal"
	"github.com/FloFRCD/nutrition-app-sub001/kvstore"
	"github.com/FloFRCD/nutrition-app-sub001/llm"
	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/openfoodfacts"
	"github.com/FloFRCD/nutrition-app-sub001/repository"
	"github.com/FloFRCD/nutrition-app-sub001/revenuecat"
	"github.com/FloFRCD/nutrition-app-sub001/routes"
	"github.com/FloFRCD/nutrition-app-sub001/services"
	"github.com/FloFRCD/nutrition-app-sub001/vision"

	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// flushTimeout bounds the final write of parked KV values, independent of
// how long the HTTP shutdown took.
const flushTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found, using system env vars")
	}

	cfg, err := config.Load(config.GetEnv("CONFIG_FILE", "config/development.yaml"))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if err := logger.Init(cfg.Env); err != nil {
		logger.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close(conn)

	backing, closeKV, err := kvstore.Open(ctx, cfg.KV, conn)
	if err != nil {
		logger.Fatal("failed to open key-value store", zap.Error(err))
	}
	store := kvstore.NewDebouncedWriter(backing, time.Duration(cfg.KV.DebounceMS)*time.Millisecond)

	foods := repository.NewFoodRecordRepository(conn)
	j := journal.NewService(store)

	var off services.FoodDatabase
	if cfg.OpenFoodFacts.BaseURL != "" {
		off = openfoodfacts.NewClient(cfg.OpenFoodFacts.BaseURL, cfg.OpenFoodFacts.UserAgent,
			time.Duration(cfg.OpenFoodFacts.TimeoutSeconds)*time.Second)
	}
	var chat services.ChatClient
	var recipeModel llms.Model
	if cfg.LLM.APIKey != "" {
		if model, err := llm.NewModel(cfg.LLM, cfg.LLM.Model); err != nil {
			logger.Error("nutrition model unavailable", zap.Error(err))
		} else {
			chat = llm.NewClient(model, cfg.LLM.Model)
		}
		if recipeModel, err = llm.NewRecipeModel(cfg.LLM); err != nil {
			logger.Error("recipe model unavailable", zap.Error(err))
			recipeModel = nil
		}
	} else {
		logger.Warn("LLM_API_KEY not set, LLM estimates and recipe generation are disabled")
	}

	nutritionSvc := services.NewNutritionService(foods, repository.NewAIResponseRepository(conn), off, chat)
	profiles := services.NewProfileService(repository.NewProfileRepository(conn))
	daily := services.NewDailyService(j, profiles, store)
	recipes := services.NewRecipeService(recipeModel, profiles, j, store)
	shopping := services.NewShoppingService(recipes, store)

	var (
		labeler  services.Labeler
		uploader services.PhotoUploader
	)
	if cfg.AWS.Enabled {
		rekognition, s3, err := vision.NewAWS(ctx, cfg.AWS)
		if err != nil {
			logger.Error("AWS unavailable, photo recognition disabled", zap.Error(err))
		} else {
			labeler, uploader = rekognition, s3
		}
	}
	photo := services.NewPhotoService(labeler, uploader, nutritionSvc, j)

	var subscribers services.SubscriberSource
	if cfg.RevenueCat.Enabled {
		subscribers = revenuecat.NewClient(cfg.RevenueCat.BaseURL, cfg.RevenueCat.APIKey, 10*time.Second)
	}
	subscriptions := services.NewSubscriptionService(subscribers, cfg.RevenueCat.Entitlement)
	authSvc := services.NewAuthService(repository.NewAccountRepository(conn), cfg.JWTSecret)

	loader := catalog.NewLoader(foods)
	if n, err := loader.LoadDir(ctx, cfg.Catalog.Dir); err != nil {
		logger.Error("catalog load failed", zap.String("dir", cfg.Catalog.Dir), zap.Error(err))
	} else {
		logger.Info("catalog loaded", zap.String("dir", cfg.Catalog.Dir), zap.Int("foods", n))
	}
	var watcher *catalog.Watcher
	if cfg.Catalog.Watch {
		if watcher, err = catalog.NewWatcher(loader, cfg.Catalog.Dir); err != nil {
			logger.Error("catalog watcher unavailable", zap.Error(err))
			watcher = nil
		} else {
			watcher.Start(ctx)
		}
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := jobs.NewNutritionWorker(j, nutritionSvc, cfg.Worker.QueueSize)
	workerDone := worker.Start(workerCtx)

	r := routes.SetupRouter(routes.Handlers{
		Auth:         controllers.NewAuthController(authSvc),
		Profile:      controllers.NewProfileController(profiles),
		Journal:      controllers.NewJournalController(j, services.NewBarcodeService(nutritionSvc, j), photo),
		Foods:        controllers.NewFoodController(nutritionSvc, photo),
		Summary:      controllers.NewSummaryController(daily),
		Recipes:      controllers.NewRecipeController(recipes),
		Shopping:     controllers.NewShoppingController(shopping),
		Subscription: controllers.NewSubscriptionController(subscriptions),
		Ingest:       controllers.NewIngestController(loader),
	}, routes.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Authenticator:  authSvc,
		Entitlements:   subscriptions,
		IngestAPIKey:   cfg.IngestAPIKey,
		Updates:        worker,
	})

	srv := routes.NewServer(":"+cfg.Server.Port, r)
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}

	stopWorker()
	<-workerDone

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), flushTimeout)
	defer cancelFlush()
	if err := store.Flush(flushCtx); err != nil {
		logger.Error("failed to flush pending writes", zap.Error(err))
	}
	if watcher != nil {
		if err := watcher.Close(); err != nil {
			logger.Warn("catalog watcher close", zap.Error(err))
		}
	}
	if closeKV != nil {
		if err := closeKV(); err != nil {
			logger.Warn("key-value store close", zap.Error(err))
		}
	}
}
