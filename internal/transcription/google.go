package transcription

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

type recognizeFunc func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error)

// Google uses Cloud Speech-to-Text long running recognition with inline
// audio. Input must be WAV or FLAC so the encoding is read from the header.
// Requires GOOGLE_APPLICATION_CREDENTIALS.
type Google struct {
	Language  string
	client    *speech.Client
	recognize recognizeFunc
	log       *logger.Logger
}

func NewGoogle(ctx context.Context, language string, log *logger.Logger) (*Google, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("google speech client: %w", err)
	}
	g := &Google{Language: language, client: c, log: log.Component("google-speech")}
	g.recognize = func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := c.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		g.log.WithField("operation", op.Name()).Debug("recognition started")
		return op.Wait(ctx)
	}
	return g, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Transcribe(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".flac":
	default:
		return "", fmt.Errorf("%w: google backend needs wav or flac input, got %s (set TRANSCODE_TO)", types.ErrTranscription, filepath.Ext(path))
	}
	audio, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrTranscription, err)
	}

	resp, err := g.recognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               g.Language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: google: %w", types.ErrTranscription, err)
	}

	var parts []string
	for _, r := range resp.GetResults() {
		if alts := r.GetAlternatives(); len(alts) > 0 {
			if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
				parts = append(parts, t)
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: google: %w", types.ErrTranscription, errEmptyTranscript)
	}
	return strings.Join(parts, " "), nil
}

func (g *Google) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
