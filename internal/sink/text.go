package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"call-insights-go/internal/types"
)

const separator = "--------------------------------------------------"

// writeBlock writes the results.txt layout: a Recording URL header, the
// analysis lines (or the transcript in transcript-only runs) and a separator.
func writeBlock(w io.Writer, rec types.Record) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Recording URL: %s\n", rec.Source)
	body := rec.Analysis
	if rec.TranscriptOnly() {
		body = rec.Transcript
	}
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		fmt.Fprintf(bw, "%s\n", line)
	}
	fmt.Fprintf(bw, "%s\n", separator)
	return bw.Flush()
}

// Console prints each record to w, normally stdout.
type Console struct {
	W io.Writer
}

func (c *Console) Name() string { return "stdout" }

func (c *Console) Persist(ctx context.Context, rec types.Record) error {
	return writeBlock(c.W, rec)
}

func (c *Console) Close() error { return nil }

// TextFile appends blocks to one shared results file.
type TextFile struct {
	Path string
}

func (t *TextFile) Name() string { return "text" }

func (t *TextFile) Persist(ctx context.Context, rec types.Record) error {
	f, err := os.OpenFile(t.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := writeBlock(f, rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (t *TextFile) Close() error { return nil }
