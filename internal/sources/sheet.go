package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"call-insights-go/internal/types"
)

// Sheet reads recording URLs from the first sheet of a workbook. The audio
// and call id columns are found by header heuristics.
type Sheet struct {
	Path string
}

func (s Sheet) Enumerate(ctx context.Context) ([]types.Source, error) {
	if _, err := os.Stat(s.Path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: sheet %s does not exist", types.ErrConfiguration, s.Path)
	}
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sheet: %w", types.ErrConfiguration, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read rows: %w", types.ErrConfiguration, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	audioIdx, idIdx, titleIdx := detectColumns(rows[0])

	var out []types.Source
	for _, r := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		audio := cell(r, audioIdx)
		// rows without a recording link are skipped quietly
		if !isHTTP(audio) {
			continue
		}
		src := NewSource(audio, Classify(audio), cell(r, titleIdx))
		if id := cell(r, idIdx); id != "" {
			src.ID = id
		}
		out = append(out, src)
	}
	return out, nil
}

func detectColumns(header []string) (audioIdx, idIdx, titleIdx int) {
	audioIdx, idIdx, titleIdx = -1, -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "audio") || strings.Contains(l, "record") ||
			strings.Contains(l, "call") && strings.Contains(l, "link") || strings.Contains(l, "url"):
			if audioIdx == -1 {
				audioIdx = i
			}
		case strings.Contains(l, "call id") || strings.Contains(l, "callid") || l == "id":
			if idIdx == -1 {
				idIdx = i
			}
		case strings.Contains(l, "name") || strings.Contains(l, "title") || strings.Contains(l, "agent"):
			if titleIdx == -1 {
				titleIdx = i
			}
		}
	}
	// exports without a recognizable header keep the link in column E
	if audioIdx == -1 && len(header) > 4 {
		audioIdx = 4
	}
	return audioIdx, idIdx, titleIdx
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
