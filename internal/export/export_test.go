package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"finsight/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() []core.Expense {
	return []core.Expense{
		{Amount: core.Money{Cents: 1050}, Category: core.CategoryFood, Description: "lunch, with friends", Date: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		{Amount: core.Money{Cents: 2000}, Category: core.CategoryTravel, Description: "train", Date: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)},
	}
}

func TestFormat(t *testing.T) {
	now := time.Date(2024, 3, 20, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "expenses_2024-03-20.csv", CSV.Filename(now))
	assert.Equal(t, "expenses_2024-03-20.xlsx", XLSX.Filename(now))
	assert.Contains(t, CSV.ContentType(), "text/csv")
	assert.Contains(t, XLSX.ContentType(), "spreadsheetml")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, CSV, sample()))

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 6)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"2024-03-01", "Food", "lunch, with friends", "10.50"}, rows[1])
	assert.Equal(t, []string{"Total", "", "", "30.50"}, rows[3])
	assert.Equal(t, []string{"Count", "", "", "2"}, rows[4])
	assert.Equal(t, []string{"Average", "", "", "15.25"}, rows[5])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, XLSX, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "Travel", rows[2][1])

	label, err := f.GetCellValue(sheetName, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Total", label)
	count, err := f.GetCellValue(sheetName, "D6")
	require.NoError(t, err)
	assert.Equal(t, "2", count)
}

func TestWriteUnsupported(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Format("pdf"), sample()))
}
