package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSchemaMismatch is returned when a structured reply lacks template fields.
var ErrSchemaMismatch = errors.New("structured reply does not match template fields")

// ParseFields decodes the first JSON object in content and flattens the
// wanted keys to strings. Every wanted key must be present.
func ParseFields(content string, want []string) (map[string]string, error) {
	raw := extractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrSchemaMismatch)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}

	var missing []string
	out := make(map[string]string, len(want))
	for _, k := range want {
		v, ok := obj[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		out[k] = flatten(v)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return out, nil
}

func flatten(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

// extractJSON finds the first balanced JSON object in a string and returns it.
// It strips common markdown fences first.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, r := range []string{"```json", "```", "`json"} {
		s = strings.ReplaceAll(s, r, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}
