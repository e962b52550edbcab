// Package transcription turns a local audio file into text.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"call-insights-go/internal/config"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/metrics"
)

// Transcriber returns the transcript text or an error wrapping
// types.ErrTranscription. It never returns empty text without an error.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
	Name() string
}

// New builds the backend selected by cfg.TranscribeBackend.
func New(ctx context.Context, cfg config.Config, client *http.Client, log *logger.Logger, m *metrics.Metrics) (Transcriber, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	poll := PollConfig{
		Interval:    cfg.PollInterval,
		MaxInterval: cfg.PollMaxInterval,
		Timeout:     cfg.PollTimeout,
	}

	switch cfg.TranscribeBackend {
	case config.BackendAssemblyAI:
		return NewAssemblyAI(cfg.AssemblyAIBaseURL, cfg.AssemblyAIKey, client, poll, m, log), nil
	case config.BackendDeepgram:
		return &Deepgram{
			BaseURL: cfg.DeepgramBaseURL,
			APIKey:  cfg.DeepgramKey,
			Model:   cfg.DeepgramModel,
			Client:  client,
		}, nil
	case config.BackendWhisper:
		return NewWhisper(cfg.WhisperBin, cfg.WhisperModel, cfg.WorkDir, log), nil
	case config.BackendGoogle:
		return NewGoogle(ctx, cfg.GoogleLanguage, log)
	case config.BackendMock:
		return &Mock{}, nil
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", cfg.TranscribeBackend)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var errEmptyTranscript = errors.New("backend returned an empty transcript")
