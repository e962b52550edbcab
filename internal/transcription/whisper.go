package transcription

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Whisper runs a local speech model through the whisper CLI.
type Whisper struct {
	Bin     string
	Model   string
	WorkDir string
	Run     CommandRunner
	log     *logger.Logger
}

func NewWhisper(bin, model, workDir string, log *logger.Logger) *Whisper {
	return &Whisper{Bin: bin, Model: model, WorkDir: workDir, Run: runCommand, log: log.Component("whisper")}
}

func (w *Whisper) Name() string { return "whisper" }

func (w *Whisper) Transcribe(ctx context.Context, path string) (string, error) {
	outDir, err := os.MkdirTemp(w.WorkDir, "whisper-*")
	if err != nil {
		return "", fmt.Errorf("%w: whisper: %w", types.ErrTranscription, err)
	}
	defer os.RemoveAll(outDir)

	args := []string{path, "--model", w.Model, "--output_format", "txt", "--output_dir", outDir}
	output, err := w.Run(ctx, w.Bin, args...)
	if err != nil {
		msg := strings.TrimSpace(string(output))
		if strings.Contains(strings.ToLower(msg), "out of memory") {
			return "", fmt.Errorf("%w: whisper ran out of memory: %w", types.ErrTranscription, err)
		}
		return "", fmt.Errorf("%w: whisper: %w: %s", types.ErrTranscription, err, truncate(msg, 300))
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	b, err := os.ReadFile(filepath.Join(outDir, base+".txt"))
	if err != nil {
		return "", fmt.Errorf("%w: whisper produced no transcript: %w", types.ErrTranscription, err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", fmt.Errorf("%w: whisper: %w", types.ErrTranscription, errEmptyTranscript)
	}
	w.log.WithField("model", w.Model).Debug("local transcription finished")
	return text, nil
}
