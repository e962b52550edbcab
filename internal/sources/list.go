package sources

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"call-insights-go/internal/types"
)

// ListFile reads one source per line. Lines starting with # are comments.
// Bare filenames are resolved against BaseDir; video page links become
// video sources.
type ListFile struct {
	Path    string
	BaseDir string
}

func (l ListFile) Enumerate(ctx context.Context) ([]types.Source, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: source list %s does not exist", types.ErrConfiguration, l.Path)
		}
		return nil, fmt.Errorf("%w: open source list: %w", types.ErrConfiguration, err)
	}
	defer f.Close()

	var out []types.Source
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.Join(strings.Fields(sc.Text()), " ")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if kind := Classify(line); kind != types.SourceFile {
			out = append(out, NewSource(line, kind, ""))
			continue
		}
		p := line
		if l.BaseDir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(l.BaseDir, p)
		}
		out = append(out, NewSource(p, types.SourceFile, ""))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read source list: %w", types.ErrConfiguration, err)
	}
	return out, nil
}
