package entity

type Config struct {
	Env            string              `yaml:"env"`
	Server         ServerConfig        `yaml:"server"`
	PostgresConfig PostgresConfig      `yaml:"database"`
	KV             KVConfig            `yaml:"kv"`
	LLM            LLMConfig           `yaml:"llm"`
	OpenFoodFacts  OpenFoodFactsConfig `yaml:"openfoodfacts"`
	AWS            AWSConfig           `yaml:"aws"`
	RevenueCat     RevenueCatConfig    `yaml:"revenuecat"`
	Catalog        CatalogConfig       `yaml:"catalog"`
	Worker         WorkerConfig        `yaml:"worker"`
	JWTSecret      string              `yaml:"jwt_secret"`
	IngestAPIKey   string              `yaml:"ingest_api_key"`
}

type ServerConfig struct {
	Port            string   `yaml:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ShutdownSeconds int      `yaml:"shutdown_seconds"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Port     string `yaml:"port"`
	SSLMode  string `yaml:"sslmode"`
}

// KVConfig selects where JSON blobs (journal, recipes, shopping, burned) live.
type KVConfig struct {
	Backend    string      `yaml:"backend"` // postgres, redis or memory
	DebounceMS int         `yaml:"debounce_ms"`
	Redis      RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type LLMConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	RecipeModel    string `yaml:"recipe_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type OpenFoodFactsConfig struct {
	BaseURL        string `yaml:"base_url"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type AWSConfig struct {
	Region        string `yaml:"region"`
	Bucket        string `yaml:"bucket"`
	PublicBaseURL string `yaml:"public_base_url"`
	Enabled       bool   `yaml:"enabled"`
}

type RevenueCatConfig struct {
	Enabled     bool   `yaml:"enabled"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Entitlement string `yaml:"entitlement"`
}

type CatalogConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

type WorkerConfig struct {
	QueueSize int `yaml:"queue_size"`
}
