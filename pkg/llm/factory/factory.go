package factory

import (
	"fmt"
	"time"

	"medical-text2sql-be/pkg/llm"
	"medical-text2sql-be/pkg/llm/ollama"
	"medical-text2sql-be/pkg/llm/openai"
)

// Config selects and configures one provider.
type Config struct {
	Provider string // "ollama" | "openai"
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case "openai", "deepseek":
		return openai.NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
