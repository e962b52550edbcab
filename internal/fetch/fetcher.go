// Package fetch turns a source into a local audio file.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

const maxFetchRetries = 3

type Fetcher struct {
	// YTDLP and FFmpeg are the binaries used for video sources.
	YTDLP  string
	FFmpeg string
	Run    Runner

	client  *http.Client
	workDir string
	log     *logger.Logger
}

func NewFetcher(client *http.Client, workDir string, log *logger.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{
		YTDLP:   "yt-dlp",
		Run:     execRunner,
		client:  client,
		workDir: workDir,
		log:     log.Component("fetcher"),
	}
}

// Fetch downloads a URL source into WorkDir, extracts the audio of a video
// source, or validates a local file. Local files are never owned by the
// artifact.
func (f *Fetcher) Fetch(ctx context.Context, src types.Source) (*Artifact, error) {
	if src.Kind == types.SourceVideo {
		return f.extractVideoAudio(ctx, src)
	}
	if src.Kind == types.SourceFile {
		info, err := os.Stat(src.Location)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", types.ErrFetch, src.Location, err)
		}
		if !info.Mode().IsRegular() || info.Size() == 0 {
			return nil, fmt.Errorf("%w: %s is empty or not a regular file", types.ErrFetch, src.Location)
		}
		return &Artifact{Path: src.Location}, nil
	}
	return f.download(ctx, src)
}

func (f *Fetcher) download(ctx context.Context, src types.Source) (*Artifact, error) {
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries), ctx)

	var art *Artifact
	op := func() error {
		p, err := f.downloadOnce(ctx, src.Location)
		if err != nil {
			f.log.WithSource(src).WithError(err).Debug("download attempt failed")
			return err
		}
		art = &Artifact{Path: p}
		art.Own(p)
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrFetch, src.Location, err)
	}
	return art, nil
}

// downloadOnce streams the body into a temp file. A partial file is removed
// before returning an error.
func (f *Fetcher) downloadOnce(ctx context.Context, loc string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	tmp, err := os.CreateTemp(f.workDir, "callscribe-*"+extOf(loc))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr == nil && closeErr == nil && n == 0 {
		copyErr = backoff.Permanent(errors.New("empty response body"))
	}
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func extOf(loc string) string {
	p := loc
	if u, err := url.Parse(loc); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" || len(ext) > 5 {
		return ".audio"
	}
	return ext
}
