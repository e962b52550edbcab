package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"call-insights-go/internal/types"
)

// Directory lists the .mp3 and .wav files directly inside Path.
type Directory struct {
	Path string
}

func (d Directory) Enumerate(ctx context.Context) ([]types.Source, error) {
	info, err := os.Stat(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: source directory: %w", types.ErrConfiguration, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrConfiguration, d.Path)
	}

	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read source directory: %w", types.ErrConfiguration, err)
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".mp3", ".wav":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]types.Source, 0, len(names))
	for _, n := range names {
		out = append(out, NewSource(filepath.Join(d.Path, n), types.SourceFile, n))
	}
	return out, nil
}
