package fetch

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

// Runner executes an external command. Tests replace it.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Transcoder converts an artifact to the container a backend expects.
type Transcoder struct {
	Target  string // "", mp3, wav or flac
	FFmpeg  string
	WorkDir string
	Run     Runner
	log     *logger.Logger
}

func NewTranscoder(target, ffmpeg, workDir string, log *logger.Logger) *Transcoder {
	return &Transcoder{Target: target, FFmpeg: ffmpeg, WorkDir: workDir, Run: execRunner, log: log.Component("transcoder")}
}

// Convert rewrites art.Path to the converted file and registers it for cleanup.
func (t *Transcoder) Convert(ctx context.Context, art *Artifact) error {
	if t.Target == "" {
		return nil
	}
	in := art.Path
	from := strings.TrimPrefix(strings.ToLower(filepath.Ext(in)), ".")
	if from == t.Target {
		return nil
	}

	out, err := t.outputPath(in)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrConversion, err)
	}
	art.Own(out)

	if from == "mp3" && t.Target == "wav" {
		err = decodeMP3ToWav(in, out)
	} else {
		err = t.ffmpeg(ctx, in, out)
	}
	if err != nil {
		return fmt.Errorf("%w: %s -> %s: %w", types.ErrConversion, filepath.Base(in), t.Target, err)
	}
	t.log.WithField("from", from).WithField("to", t.Target).Debug("converted audio")
	art.Path = out
	return nil
}

// outputPath reserves a fresh name next to the input so local sources are
// never overwritten.
func (t *Transcoder) outputPath(in string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	f, err := os.CreateTemp(t.WorkDir, base+"-*."+t.Target)
	if err != nil {
		return "", err
	}
	name := f.Name()
	_ = f.Close()
	return name, nil
}

func (t *Transcoder) ffmpeg(ctx context.Context, in, out string) error {
	bin := t.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	output, err := t.Run(ctx, bin, "-y", "-loglevel", "error", "-i", in, out)
	if err != nil {
		msg := strings.TrimSpace(string(output))
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return nil
}
