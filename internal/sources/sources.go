// Package sources enumerates the call recordings a run processes.
package sources

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"call-insights-go/internal/types"
)

// Enumerator yields an ordered list of sources. Empty or malformed input is
// an empty list, not an error.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]types.Source, error)
}

var audioExts = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".flac": true, ".ogg": true,
}

// NewSource builds a Source with a stable id derived from its location.
func NewSource(location string, kind types.SourceKind, title string) types.Source {
	return types.Source{
		ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte(location)).String(),
		Location: location,
		Kind:     kind,
		Title:    title,
	}
}

var videoHosts = map[string]bool{
	"youtube.com": true, "www.youtube.com": true, "m.youtube.com": true,
	"music.youtube.com": true, "youtu.be": true,
}

// Classify tells video pages, plain URLs and local paths apart.
func Classify(loc string) types.SourceKind {
	if !isHTTP(loc) {
		return types.SourceFile
	}
	if u, err := url.Parse(loc); err == nil && videoHosts[strings.ToLower(u.Hostname())] {
		return types.SourceVideo
	}
	return types.SourceURL
}

func isHTTP(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// hasAudioExt checks the path component only, so query strings are ignored.
func hasAudioExt(loc string) bool {
	p := loc
	if u, err := url.Parse(loc); err == nil && u.Path != "" {
		p = u.Path
	}
	return audioExts[strings.ToLower(path.Ext(p))]
}

// Multi concatenates enumerators in order.
type Multi []Enumerator

func (m Multi) Enumerate(ctx context.Context) ([]types.Source, error) {
	var out []types.Source
	for _, e := range m {
		srcs, err := e.Enumerate(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, srcs...)
	}
	return out, nil
}
