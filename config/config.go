// config.go
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/FloFRCD/nutrition-app-sub001/entity"
	"github.com/FloFRCD/nutrition-app-sub001/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// defaultJWTSecret is only acceptable outside production.
const defaultJWTSecret = "change-me"

// ErrInsecureSecret is returned by Load when production runs without JWT_SECRET.
var ErrInsecureSecret = errors.New("JWT_SECRET must be set in production")

// GetEnv returns the environment variable key, or fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := GetEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("ignoring non-numeric env var", zap.String("key", key), zap.String("value", v))
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := GetEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("ignoring non-boolean env var", zap.String("key", key), zap.String("value", v))
		return fallback
	}
	return b
}

// Default returns a configuration usable for local development.
func Default() *entity.Config {
	return &entity.Config{
		Env: "development",
		Server: entity.ServerConfig{
			Port:            "8080",
			AllowedOrigins:  []string{"*"},
			ShutdownSeconds: 10,
		},
		PostgresConfig: entity.PostgresConfig{
			Host:     "localhost",
			User:     "postgres",
			Password: "password",
			DBName:   "nutrition",
			Port:     "5432",
			SSLMode:  "disable",
		},
		KV: entity.KVConfig{
			Backend:    "postgres",
			DebounceMS: 500,
			Redis:      entity.RedisConfig{Addr: "localhost:6379", Prefix: "nutrition:"},
		},
		LLM: entity.LLMConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			RecipeModel:    "gpt-4o-mini",
			TimeoutSeconds: 30,
		},
		OpenFoodFacts: entity.OpenFoodFactsConfig{
			BaseURL:        "https://world.openfoodfacts.org",
			UserAgent:      "nutrition-app/1.0",
			TimeoutSeconds: 10,
		},
		AWS: entity.AWSConfig{Region: "eu-west-1"},
		RevenueCat: entity.RevenueCatConfig{
			BaseURL:     "https://api.revenuecat.com",
			Entitlement: "premium",
		},
		Catalog:   entity.CatalogConfig{Dir: "data/catalog"},
		Worker:    entity.WorkerConfig{QueueSize: 100},
		JWTSecret: defaultJWTSecret,
	}
}

// ReadConfig reads the configuration from the YAML file on top of Default.
func ReadConfig(filePath string) (*entity.Config, error) {
	config := Default()

	data, err := os.ReadFile(filePath)
	if err != nil {
		logger.Error("unable to read file", zap.String("path", filePath), zap.Error(err))
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		logger.Error("unable to unmarshal YAML", zap.String("path", filePath), zap.Error(err))
		return nil, err
	}

	return config, nil
}

// Load reads filePath when it exists, then applies environment overrides.
// A missing file is not an error.
func Load(filePath string) (*entity.Config, error) {
	config, err := ReadConfig(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("config file not found, using defaults", zap.String("path", filePath))
		config = Default()
	} else if err != nil {
		return nil, err
	}
	applyEnv(config)
	if config.Env == "production" && (config.JWTSecret == "" || config.JWTSecret == defaultJWTSecret) {
		return nil, ErrInsecureSecret
	}
	return config, nil
}

func applyEnv(c *entity.Config) {
	c.Env = GetEnv("ENV", c.Env)
	c.Server.Port = GetEnv("PORT", c.Server.Port)
	if origins := GetEnv("ALLOWED_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	c.PostgresConfig.Host = GetEnv("DB_HOST", c.PostgresConfig.Host)
	c.PostgresConfig.User = GetEnv("DB_USER", c.PostgresConfig.User)
	c.PostgresConfig.Password = GetEnv("DB_PASSWORD", c.PostgresConfig.Password)
	c.PostgresConfig.DBName = GetEnv("DB_NAME", c.PostgresConfig.DBName)
	c.PostgresConfig.Port = GetEnv("DB_PORT", c.PostgresConfig.Port)
	c.PostgresConfig.SSLMode = GetEnv("DB_SSLMODE", c.PostgresConfig.SSLMode)

	c.KV.Backend = GetEnv("KV_BACKEND", c.KV.Backend)
	c.KV.DebounceMS = getEnvInt("KV_DEBOUNCE_MS", c.KV.DebounceMS)
	c.KV.Redis.Addr = GetEnv("REDIS_ADDR", c.KV.Redis.Addr)
	c.KV.Redis.Password = GetEnv("REDIS_PASSWORD", c.KV.Redis.Password)
	c.KV.Redis.DB = getEnvInt("REDIS_DB", c.KV.Redis.DB)

	c.LLM.BaseURL = GetEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.APIKey = GetEnv("LLM_API_KEY", c.LLM.APIKey)
	c.LLM.Model = GetEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.RecipeModel = GetEnv("LLM_RECIPE_MODEL", c.LLM.RecipeModel)

	c.OpenFoodFacts.BaseURL = GetEnv("OFF_BASE_URL", c.OpenFoodFacts.BaseURL)

	c.AWS.Region = GetEnv("AWS_REGION", c.AWS.Region)
	c.AWS.Bucket = GetEnv("S3_BUCKET", c.AWS.Bucket)
	c.AWS.PublicBaseURL = GetEnv("S3_PUBLIC_BASE_URL", c.AWS.PublicBaseURL)
	c.AWS.Enabled = getEnvBool("AWS_ENABLED", c.AWS.Enabled)

	c.RevenueCat.APIKey = GetEnv("REVENUECAT_API_KEY", c.RevenueCat.APIKey)
	c.RevenueCat.Enabled = getEnvBool("REVENUECAT_ENABLED", c.RevenueCat.Enabled || c.RevenueCat.APIKey != "")
	c.RevenueCat.Entitlement = GetEnv("REVENUECAT_ENTITLEMENT", c.RevenueCat.Entitlement)

	c.Catalog.Dir = GetEnv("CATALOG_DIR", c.Catalog.Dir)
	c.Catalog.Watch = getEnvBool("CATALOG_WATCH", c.Catalog.Watch)
	c.Worker.QueueSize = getEnvInt("WORKER_QUEUE_SIZE", c.Worker.QueueSize)

	c.JWTSecret = GetEnv("JWT_SECRET", c.JWTSecret)
	c.IngestAPIKey = GetEnv("INGEST_API_KEY", c.IngestAPIKey)
}
