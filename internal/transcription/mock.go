package transcription

import (
	"context"
	"fmt"

	"call-insights-go/internal/types"
)

const mockTranscript = "MOCK TRANSCRIPT: Customer asks about a quote and agrees to a callback tomorrow."

// Mock returns a fixed transcript, or Err when set.
type Mock struct {
	Transcript string
	Err        error
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Transcribe(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrTranscription, err)
	}
	if m.Err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrTranscription, m.Err)
	}
	if m.Transcript == "" {
		return mockTranscript, nil
	}
	return m.Transcript, nil
}
