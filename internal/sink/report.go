package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"call-insights-go/internal/types"
)

const reportRule = "--------------------------------------------"

// Report writes a dated transcription report per source into Dir as
// transcription_<name>.txt. Like PerSource, a second record for the same
// source replaces the file.
type Report struct {
	Dir string
}

func (r *Report) Name() string { return "report" }

func (r *Report) Persist(ctx context.Context, rec types.Record) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return err
	}
	name := filepath.Join(r.Dir, "transcription_"+SafeName(rec.Source)+".txt")
	return os.WriteFile(name, []byte(formatReport(rec)), 0o644)
}

func (r *Report) Close() error { return nil }

func formatReport(rec types.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nTRANSCRIPTION REPORT\n%s\n\n", reportRule, reportRule)
	fmt.Fprintf(&b, "Date: %s\n", rec.ProcessedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Time: %s\n", rec.ProcessedAt.Format("15:04:05"))
	fmt.Fprintf(&b, "Recording: %s\n\n", rec.Source)
	fmt.Fprintf(&b, "%s\nTRANSCRIPTION:\n%s\n\n", reportRule, reportRule)
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(rec.Transcript))
	fmt.Fprintf(&b, "%s\nEND OF TRANSCRIPTION\n%s\n", reportRule, reportRule)
	return b.String()
}
