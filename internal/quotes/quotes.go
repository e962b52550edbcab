// Package quotes pulls quote details out of a results file written by the
// text sink and appends them to a spreadsheet. The analysis text is free
// form, so matching is tolerant: labels may appear in any order, in any
// case, wrapped in markdown, or not at all.
package quotes

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Columns is the sheet header. The first column is the recording location.
var Columns = []string{
	"Recording",
	"Billable Call",
	"Application Submitted",
	"Monthly Premium",
	"Insurance Carrier",
	"Coverage Amount",
	"Policy Type",
	"Reason for not purchasing",
	"Follow-up set",
}

// aliases maps lowercase label spellings to a column index.
var aliases = []struct {
	label string
	col   int
}{
	{"billable call", 1},
	{"application submitted", 2},
	{"was an application submitted", 2},
	{"monthly premium", 3},
	{"insurance carrier", 4},
	{"coverage amount", 5},
	{"policy type", 6},
	{"reason for not purchasing the policy", 7},
	{"reason for not purchasing", 7},
	{"was a follow-up set", 8},
	{"follow-up set", 8},
}

var recordMarkers = []string{"Processing:", "Recording URL:"}

type Quote struct {
	Values [9]string
}

func (q Quote) Recording() string { return q.Values[0] }

// Get returns the value of a column by header name.
func (q Quote) Get(column string) string {
	for i, c := range Columns {
		if strings.EqualFold(c, column) {
			return q.Values[i]
		}
	}
	return ""
}

// Parse splits r into records at each "Processing:" or "Recording URL:"
// line. The first value found for a label wins; missing labels stay blank.
func Parse(r io.Reader) ([]Quote, error) {
	var (
		out []Quote
		cur *Quote
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if loc, ok := recordStart(line); ok {
			if cur != nil {
				out = append(out, *cur)
			}
			cur = &Quote{}
			cur.Values[0] = loc
			continue
		}
		if cur == nil {
			continue
		}
		col, val, ok := matchLabel(line)
		if ok && cur.Values[col] == "" {
			cur.Values[col] = val
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out, nil
}

func recordStart(line string) (string, bool) {
	for _, m := range recordMarkers {
		if strings.HasPrefix(line, m) {
			return strings.TrimSpace(strings.TrimPrefix(line, m)), true
		}
	}
	return "", false
}

func matchLabel(line string) (int, string, bool) {
	clean := stripMarkup(line)
	lower := strings.ToLower(clean)
	for _, a := range aliases {
		if !strings.HasPrefix(lower, a.label) {
			continue
		}
		rest := strings.TrimSpace(clean[len(a.label):])
		if rest == "" || (rest[0] != ':' && rest[0] != '?') {
			continue
		}
		val := strings.TrimSpace(rest[1:])
		val = strings.TrimSpace(strings.TrimSuffix(val, "."))
		if val == "" {
			continue
		}
		return a.col, val, true
	}
	return 0, "", false
}

// stripMarkup drops markdown emphasis, headings, bullets and list
// enumerators such as "a." or "3)".
func stripMarkup(line string) string {
	s := strings.NewReplacer("**", "", "__", "", "`", "").Replace(line)
	s = strings.TrimLeft(s, "#>-*• \t")
	if i := strings.IndexAny(s, ".)"); i > 0 && i <= 2 && isEnumerator(s[:i]) {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func isEnumerator(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
