package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

var errMalformedEnvelope = errors.New("response has no choices[0].message.content")

// Chat talks to an OpenAI compatible chat/completions endpoint.
type Chat struct {
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Structured  bool
	Client      *http.Client
	log         *logger.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

func NewChat(url, apiKey, model string, client *http.Client, log *logger.Logger) *Chat {
	return &Chat{URL: url, APIKey: apiKey, Model: model, Client: client, log: log.Component("extractor")}
}

// Analyze makes one non-streaming request. The reply text is returned as
// received; a missing header only logs a warning.
func (c *Chat) Analyze(ctx context.Context, tmpl Template, transcript string) (types.Analysis, error) {
	prompt := tmpl.Prompt(transcript)
	req := chatRequest{
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
	if c.Structured {
		prompt = tmpl.StructuredPrompt(transcript)
		req.ResponseFormat = map[string]string{"type": "json_object"}
	}
	if tmpl.System != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: tmpl.System})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: prompt})

	data, err := json.Marshal(req)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("%w: encode request: %w", types.ErrAnalysis, err)
	}
	log := c.log.WithField("template", tmpl.Name)
	log.WithField("payload_len", len(data)).Debug("llm request")

	content, err := c.complete(ctx, data)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("%w: %s: %w", types.ErrAnalysis, tmpl.Name, err)
	}

	out := types.Analysis{Template: tmpl.Name, Text: content, HeaderOK: true}
	if !c.Structured {
		// Header tokens describe the prose layout; a JSON reply never carries them.
		out.HeaderOK = tmpl.HeaderOK(content)
		if !out.HeaderOK {
			log.WithField("expected", tmpl.Headers).Warn("llm reply does not start with the expected header")
		}
	} else {
		fields, err := ParseFields(content, tmpl.Fields)
		if err != nil {
			return out, fmt.Errorf("%w: %s: %w", types.ErrAnalysis, tmpl.Name, err)
		}
		out.Fields = fields
	}
	return out, nil
}

func (c *Chat) complete(ctx context.Context, data []byte) (string, error) {
	var content string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.Client.Do(req)
		if err != nil {
			c.log.WithError(err).Warn("llm request failed")
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		c.log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(body))

		if resp.StatusCode >= 500 {
			return fmt.Errorf("llm server error %d: %s", resp.StatusCode, truncate(string(body), 300))
		}
		if resp.StatusCode >= 400 {
			// Permanent: don't retry on client errors
			return backoff.Permanent(fmt.Errorf("llm client error %d: %s", resp.StatusCode, truncate(string(body), 300)))
		}
		text, ok := extractContentFromChoices(body)
		if !ok {
			return backoff.Permanent(errMalformedEnvelope)
		}
		content = text
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 45 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, 3), ctx)); err != nil {
		return "", err
	}
	return content, nil
}

// extractContentFromChoices reads openai-style choices[0].message.content
func extractContentFromChoices(body []byte) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", false
	}

	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	c0, _ := choices[0].(map[string]any)
	if c0 == nil {
		return "", false
	}
	msg, _ := c0["message"].(map[string]any)
	if msg == nil {
		return "", false
	}
	content, ok := msg["content"].(string)
	return content, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
