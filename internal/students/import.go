package students

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"cardattend/internal/validate"
)

// RowError reports a spreadsheet row that was not imported. Row is 1-based as
// shown in spreadsheet programs.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarises a roster import.
type ImportResult struct {
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors"`
}

// Import reads students from the first sheet of an .xlsx workbook. The first
// row is a header; columns are first name, last name, student number and an
// optional card id. Invalid rows are skipped and reported, valid rows are kept.
func (s *Service) Import(ctx context.Context, schoolID *string, r io.Reader) (ImportResult, error) {
	res := ImportResult{Errors: []RowError{}}
	if schoolID == nil {
		return res, errNoSchool
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return res, validate.Field("file", "not a readable .xlsx workbook")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return res, validate.Field("file", "workbook does not contain any sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return res, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	for i, row := range rows {
		if i == 0 || blankRow(row) {
			continue
		}
		in := Input{
			FirstName:     cell(row, 0),
			LastName:      cell(row, 1),
			StudentNumber: cell(row, 2),
			CardReaderID:  cell(row, 3),
		}
		if _, err := s.Create(ctx, schoolID, in); err != nil {
			if !errors.Is(err, validate.ErrValidation) {
				return res, err
			}
			res.Errors = append(res.Errors, RowError{Row: i + 1, Message: err.Error()})
			continue
		}
		res.Imported++
	}
	return res, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
