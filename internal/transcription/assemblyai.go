package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/metrics"
	"call-insights-go/internal/types"
)

// AssemblyAI uploads the file, submits a transcript job and polls it.
type AssemblyAI struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Poll    PollConfig
	Metrics *metrics.Metrics
	log     *logger.Logger
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func NewAssemblyAI(baseURL, apiKey string, client *http.Client, poll PollConfig, m *metrics.Metrics, log *logger.Logger) *AssemblyAI {
	return &AssemblyAI{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  client,
		Poll:    poll,
		Metrics: m,
		log:     log.Component("assemblyai"),
	}
}

func (a *AssemblyAI) Name() string { return "assemblyai" }

func (a *AssemblyAI) Transcribe(ctx context.Context, path string) (string, error) {
	uploadURL, err := a.upload(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: upload: %w", types.ErrTranscription, err)
	}
	id, err := a.submit(ctx, uploadURL)
	if err != nil {
		return "", fmt.Errorf("%w: submit: %w", types.ErrTranscription, err)
	}
	log := a.log.WithField("transcript_id", id)
	log.Debug("transcript job submitted")

	var text string
	err = pollUntil(ctx, a.Poll, func(ctx context.Context) (bool, error) {
		a.Metrics.RecordPoll(a.Name())
		var s transcriptResponse
		if err := a.get(ctx, id, &s); err != nil {
			// transient; the deadline still bounds the loop
			log.WithError(err).Warn("status check failed")
			return false, nil
		}
		switch strings.ToLower(s.Status) {
		case "completed":
			text = s.Text
			return true, nil
		case "error", "failed":
			reason := s.Error
			if reason == "" {
				reason = "no reason given"
			}
			return false, fmt.Errorf("job %s failed: %s", id, reason)
		default:
			return false, nil
		}
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrTranscription, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: job %s: %w", types.ErrTranscription, id, errEmptyTranscript)
	}
	return text, nil
}

func (a *AssemblyAI) upload(ctx context.Context, path string) (string, error) {
	var out uploadResponse
	var opened *os.File
	defer func() {
		if opened != nil {
			opened.Close()
		}
	}()
	err := doJSON(ctx, a.Client, func() (*http.Request, error) {
		if opened != nil {
			opened.Close()
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		opened = f
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint("/v2/upload"), f)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", a.APIKey)
		req.Header.Set("Content-Type", "application/octet-stream")
		return req, nil
	}, &out)
	if err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("upload response has no upload_url")
	}
	return out.UploadURL, nil
}

func (a *AssemblyAI) submit(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return "", err
	}
	var out transcriptResponse
	err = doJSON(ctx, a.Client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint("/v2/transcript"), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", a.APIKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &out)
	if err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("submit response has no id")
	}
	return out.ID, nil
}

func (a *AssemblyAI) get(ctx context.Context, id string, out *transcriptResponse) error {
	return doJSON(ctx, a.Client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint("/v2/transcript/"+id), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", a.APIKey)
		return req, nil
	}, out)
}

func (a *AssemblyAI) endpoint(p string) string {
	return strings.TrimRight(a.BaseURL, "/") + p
}
