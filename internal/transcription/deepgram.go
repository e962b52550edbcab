package transcription

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"call-insights-go/internal/types"
)

// Deepgram sends the file to the synchronous /v1/listen endpoint.
type Deepgram struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) Transcribe(ctx context.Context, path string) (string, error) {
	q := url.Values{}
	if d.Model != "" {
		q.Set("model", d.Model)
	}
	q.Set("smart_format", "true")
	endpoint := strings.TrimRight(d.BaseURL, "/") + "/v1/listen?" + q.Encode()

	var out deepgramResponse
	var opened *os.File
	defer func() {
		if opened != nil {
			opened.Close()
		}
	}()
	err := doJSON(ctx, d.Client, func() (*http.Request, error) {
		if opened != nil {
			opened.Close()
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		opened = f
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, f)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Token "+d.APIKey)
		req.Header.Set("Content-Type", audioContentType(path))
		return req, nil
	}, &out)
	if err != nil {
		return "", fmt.Errorf("%w: deepgram: %w", types.ErrTranscription, err)
	}

	if len(out.Results.Channels) == 0 || len(out.Results.Channels[0].Alternatives) == 0 {
		return "", fmt.Errorf("%w: deepgram: response has no alternatives", types.ErrTranscription)
	}
	text := out.Results.Channels[0].Alternatives[0].Transcript
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: deepgram: %w", types.ErrTranscription, errEmptyTranscript)
	}
	return text, nil
}

func audioContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
