package sink

import (
	"context"
	"encoding/csv"
	"os"

	"call-insights-go/internal/types"
)

// CSV appends one row per record. The header is written only when the
// file is new or empty.
type CSV struct {
	Path           string
	TranscriptOnly bool
}

func (c *CSV) Name() string { return "csv" }

func (c *CSV) header() []string {
	if c.TranscriptOnly {
		return []string{"URL", "Transcription"}
	}
	return []string{"URL", "Transcript", "AI Analysis"}
}

func (c *CSV) Persist(ctx context.Context, rec types.Record) error {
	f, err := os.OpenFile(c.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(c.header()); err != nil {
			f.Close()
			return err
		}
	}
	row := []string{rec.Source, rec.Transcript}
	if !c.TranscriptOnly {
		row = append(row, rec.Analysis)
	}
	if err := w.Write(row); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *CSV) Close() error { return nil }
