package students

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cardattend/internal/validate"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImport(t *testing.T) {
	ms := newMemStore()
	svc := NewService(ms)

	buf := workbook(t, [][]any{
		{"First name", "Last name", "Student number", "Card"},
		{"Ada", "Lovelace", "1001", "CARD42"},
		{"Alan", "Turing", "1002", ""},
		{"", "", "", ""},
		{"Grace", "", "1003", ""},
		{"Edsger", "Dijkstra", "1004", "CARD42"},
	})

	res, err := svc.Import(context.Background(), school("s1"), buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 5, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Message, "last_name")
	assert.Equal(t, 6, res.Errors[1].Row)
	assert.Contains(t, res.Errors[1].Message, "already assigned")

	n, _ := ms.Count(context.Background(), "s1")
	assert.Equal(t, 2, n)
}

func TestImport_NotAWorkbook(t *testing.T) {
	svc := NewService(newMemStore())
	_, err := svc.Import(context.Background(), school("s1"), strings.NewReader("first,last\n"))
	assert.ErrorIs(t, err, validate.ErrValidation)
}

func TestImport_RequiresSchool(t *testing.T) {
	svc := NewService(newMemStore())
	_, err := svc.Import(context.Background(), nil, workbook(t, nil))
	assert.ErrorIs(t, err, validate.ErrValidation)
}
