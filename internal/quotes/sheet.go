package quotes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"
)

// AppendSheet appends quotes to sheet in the workbook at path, creating the
// workbook, the sheet and the header row when missing.
func AppendSheet(path, sheet string, quotes []Quote) error {
	f, err := openOrCreate(path, sheet)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", sheet, err)
	}
	next := len(rows) + 1
	if len(rows) == 0 {
		header := make([]any, len(Columns))
		for i, c := range Columns {
			header[i] = c
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		next = 2
	}

	for _, q := range quotes {
		row := make([]any, len(q.Values))
		for i, v := range q.Values {
			row[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		next++
	}
	return f.SaveAs(path)
}

func openOrCreate(path, sheet string) (*excelize.File, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		f := excelize.NewFile()
		if sheet != "Sheet1" {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, err
			}
			if err := f.DeleteSheet("Sheet1"); err != nil {
				return nil, err
			}
		}
		return f, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}
