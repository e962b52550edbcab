package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"call-insights-go/internal/types"
)

// Mock returns a deterministic analysis without calling a backend. Reply,
// when set, is returned for every template.
type Mock struct {
	Reply      string
	Err        error
	Structured bool
}

func (m *Mock) Analyze(ctx context.Context, tmpl Template, transcript string) (types.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return types.Analysis{}, fmt.Errorf("%w: %w", types.ErrAnalysis, err)
	}
	if m.Err != nil {
		return types.Analysis{}, fmt.Errorf("%w: %w", types.ErrAnalysis, m.Err)
	}

	text := m.Reply
	fields := make(map[string]string, len(tmpl.Fields))
	for _, f := range tmpl.Fields {
		fields[f] = "mock"
	}
	if text == "" {
		if m.Structured {
			b, _ := json.Marshal(fields)
			text = string(b)
		} else {
			var sb strings.Builder
			if len(tmpl.Headers) > 0 {
				sb.WriteString(tmpl.Headers[0] + " mock\n")
			}
			for _, f := range tmpl.Fields {
				fmt.Fprintf(&sb, "%s: mock\n", f)
			}
			text = sb.String()
		}
	}

	out := types.Analysis{Template: tmpl.Name, Text: text, HeaderOK: tmpl.HeaderOK(text)}
	if m.Structured {
		out.Fields = fields
	}
	return out, nil
}
