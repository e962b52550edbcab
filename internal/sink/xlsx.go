package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"call-insights-go/internal/types"
)

var baseColumns = []string{"URL", "Template", "Transcript", "AI Analysis", "Processed At"}

// Spreadsheet appends rows to a sheet of an existing or new workbook. The
// header is the fixed columns plus any structured field names, extended
// when a record carries a field the sheet has not seen.
type Spreadsheet struct {
	Path  string
	Sheet string
}

func (s *Spreadsheet) Name() string { return "xlsx" }

func (s *Spreadsheet) Persist(ctx context.Context, rec types.Record) error {
	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(s.Sheet)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}

	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	header, changed := mergeHeader(header, rec.Fields)
	if changed {
		if err := setRow(f, s.Sheet, 1, header); err != nil {
			return err
		}
	}

	next := len(rows) + 1
	if len(rows) == 0 {
		next = 2
	}
	if err := setRow(f, s.Sheet, next, rowFor(header, rec)); err != nil {
		return err
	}
	return f.SaveAs(s.Path)
}

func (s *Spreadsheet) open() (*excelize.File, error) {
	if _, err := os.Stat(s.Path); errors.Is(err, fs.ErrNotExist) {
		f := excelize.NewFile()
		if s.Sheet != "Sheet1" {
			if _, err := f.NewSheet(s.Sheet); err != nil {
				return nil, err
			}
			if err := f.DeleteSheet("Sheet1"); err != nil {
				return nil, err
			}
		}
		return f, nil
	}
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if idx, _ := f.GetSheetIndex(s.Sheet); idx == -1 {
		if _, err := f.NewSheet(s.Sheet); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// mergeHeader appends missing base columns and field names in sorted order.
func mergeHeader(header []string, fields map[string]string) ([]string, bool) {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	changed := false
	add := func(name string) {
		if !have[name] {
			header = append(header, name)
			have[name] = true
			changed = true
		}
	}
	for _, c := range baseColumns {
		add(c)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k)
	}
	return header, changed
}

func rowFor(header []string, rec types.Record) []any {
	row := make([]any, len(header))
	for i, h := range header {
		switch h {
		case "URL":
			row[i] = rec.Source
		case "Template":
			row[i] = rec.Template
		case "Transcript":
			row[i] = rec.Transcript
		case "AI Analysis":
			row[i] = rec.Analysis
		case "Processed At":
			row[i] = rec.ProcessedAt.UTC().Format(time.RFC3339)
		default:
			row[i] = rec.Fields[h]
		}
	}
	return row
}

func setRow(f *excelize.File, sheet string, rowNum int, values any) error {
	var row []any
	switch v := values.(type) {
	case []any:
		row = v
	case []string:
		row = make([]any, len(v))
		for i := range v {
			row[i] = v[i]
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &row)
}

func (s *Spreadsheet) Close() error { return nil }
