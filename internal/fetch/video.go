package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"call-insights-go/internal/types"
)

// extractVideoAudio runs yt-dlp into a private directory under WorkDir and
// returns the mp3 it produced. The directory and everything in it belong
// to the artifact.
func (f *Fetcher) extractVideoAudio(ctx context.Context, src types.Source) (*Artifact, error) {
	dir, err := os.MkdirTemp(f.workDir, "callscribe-video-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrFetch, src.Location, err)
	}
	fail := func(err error) (*Artifact, error) {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: %s: %w", types.ErrFetch, src.Location, err)
	}

	bin := f.YTDLP
	if bin == "" {
		bin = "yt-dlp"
	}
	args := []string{
		"--no-playlist", "--quiet", "--no-progress",
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3", "--audio-quality", "192K",
		"-o", filepath.Join(dir, "audio.%(ext)s"),
	}
	if f.FFmpeg != "" {
		args = append(args, "--ffmpeg-location", f.FFmpeg)
	}
	args = append(args, "--", src.Location)

	output, err := f.Run(ctx, bin, args...)
	if err != nil {
		msg := strings.TrimSpace(string(output))
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fail(fmt.Errorf("yt-dlp: %w: %s", err, msg))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fail(err)
	}
	art := &Artifact{}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		art.Own(p)
		if info, err := e.Info(); err == nil && info.Mode().IsRegular() && info.Size() > 0 &&
			(art.Path == "" || strings.EqualFold(filepath.Ext(p), ".mp3")) {
			art.Path = p
		}
	}
	art.Own(dir)
	if art.Path == "" {
		_ = art.Cleanup()
		return fail(fmt.Errorf("yt-dlp produced no audio"))
	}
	f.log.WithSource(src).WithField("path", art.Path).Debug("extracted video audio")
	return art, nil
}
