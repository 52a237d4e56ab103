package llm

import (
	"errors"
	"net/http"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/entity"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var ErrNotConfigured = errors.New("LLM_API_KEY not configured")

const defaultTimeout = 60 * time.Second

// NewModel builds a langchaingo model named name against the OpenAI
// compatible endpoint in cfg.
func NewModel(cfg entity.LLMConfig, name string) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	m, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.APIKey),
		openai.WithModel(name),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewRecipeModel uses RecipeModel, falling back to Model when it is unset.
func NewRecipeModel(cfg entity.LLMConfig) (llms.Model, error) {
	name := cfg.RecipeModel
	if name == "" {
		name = cfg.Model
	}
	return NewModel(cfg, name)
}
