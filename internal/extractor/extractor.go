// Package extractor sends transcripts to a chat completion backend with an
// analysis template and returns the reply.
package extractor

import (
	"context"
	"net/http"

	"call-insights-go/internal/config"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

// Analyzer runs one template over one transcript.
type Analyzer interface {
	Analyze(ctx context.Context, tmpl Template, transcript string) (types.Analysis, error)
}

// New builds the analyzer selected by cfg.LLMBackend.
func New(cfg config.Config, client *http.Client, log *logger.Logger) Analyzer {
	if cfg.LLMBackend == config.LLMMock {
		return &Mock{Structured: cfg.Structured}
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &Chat{
		URL:         cfg.LLMGatewayURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Structured:  cfg.Structured,
		Client:      client,
		log:         log.Component("extractor"),
	}
}
