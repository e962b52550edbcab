package sink

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"call-insights-go/internal/types"
)

// PerSource writes <name>_transcript.txt and <name>_analysis.txt into Dir.
// A second record for the same source overwrites the pair.
type PerSource struct {
	Dir string
}

func (p *PerSource) Name() string { return "files" }

func (p *PerSource) Persist(ctx context.Context, rec types.Record) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return err
	}
	base := SafeName(rec.Source)
	if err := os.WriteFile(filepath.Join(p.Dir, base+"_transcript.txt"), []byte(rec.Transcript), 0o644); err != nil {
		return err
	}
	if rec.TranscriptOnly() {
		return nil
	}
	return os.WriteFile(filepath.Join(p.Dir, base+"_analysis.txt"), []byte(rec.Analysis), 0o644)
}

func (p *PerSource) Close() error { return nil }

// SafeName derives a file name stem from a URL or path. Short or empty
// stems fall back to an md5 prefix of the full location.
func SafeName(loc string) string {
	p := loc
	video := ""
	if u, err := url.Parse(loc); err == nil && u.Scheme != "" {
		p = u.Path
		if unescaped, err := url.PathUnescape(p); err == nil {
			p = unescaped
		}
		// watch?v=<id> pages all share the same path
		video = u.Query().Get("v")
	}
	base := path.Base(filepath.ToSlash(p))
	stem := strings.TrimSuffix(base, path.Ext(base))
	if video != "" {
		stem += "_" + video
	}
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, stem)

	if len(stem) < 5 || stem == "." || stem == "/" {
		sum := md5.Sum([]byte(loc))
		return hex.EncodeToString(sum[:])[:16]
	}
	if len(stem) > 100 {
		stem = stem[:100]
	}
	return stem
}
