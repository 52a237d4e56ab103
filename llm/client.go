package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/FloFRCD/nutrition-app-sub001/logger"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"

	nutritionMaxTokens = 400
)

type Message struct {
	Role    string
	Content string
}

// Client sends role-tagged messages through a langchaingo model. The nutrition
// lookup uses it; recipe generation drives its model through a chain instead.
type Client struct {
	model llms.Model
	name  string
}

func NewClient(model llms.Model, name string) *Client {
	return &Client{model: model, name: name}
}

// Model names the model for the AI response log.
func (c *Client) Model() string {
	return c.name
}

// Chat runs messages at temperature zero and returns the first choice.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleSystem {
			role = llms.ChatMessageTypeSystem
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	resp, err := c.model.GenerateContent(ctx, content,
		llms.WithMaxTokens(nutritionMaxTokens),
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat response has no choices")
	}
	logger.Debug("chat completion", zap.String("model", c.name))
	return resp.Choices[0].Content, nil
}
