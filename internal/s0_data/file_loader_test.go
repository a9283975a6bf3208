package s0_data

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantTickers []string
		wantValues  []float64
	}{
		{
			name:        "ticker,value with header",
			input:       "ticker,value\nB,1.5\nA,-2\n",
			wantTickers: []string{"B", "A"},
			wantValues:  []float64{1.5, -2},
		},
		{
			name:        "no header",
			input:       "A,1\nB,2\n",
			wantTickers: []string{"A", "B"},
			wantValues:  []float64{1, 2},
		},
		{
			name:        "date column sorts day blocks stably",
			input:       "date,ticker,value\n2024-01-03,B,6\n2024-01-02,B,2\n2024-01-03,A,5\n2024-01-02,A,1\n",
			wantTickers: []string{"B", "A", "B", "A"},
			wantValues:  []float64{2, 1, 6, 5},
		},
		{
			name:        "blank lines and spaces",
			input:       "A, 1\n\nB, 2\n",
			wantTickers: []string{"A", "B"},
			wantValues:  []float64{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			panel, err := ReadCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantTickers, panel.Tickers)
			assert.Equal(t, tt.wantValues, panel.Values)
		})
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"one column", "A\nB\n"},
		{"bad value", "A,1\nB,x\n"},
		{"ragged row", "A,1\n2024-01-01,B,2\n"},
		{"empty ticker", "A,1\n,2\n"},
		{"malformed first row", "A,1.2.3\nB,2\n"},
		{"unknown header label", "name,amount\nA,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReadCSV_MalformedFirstRowIsReported(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("A,n/a\nB,2\nA,3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `row 1: invalid value "n/a"`)

	// 헤더 다음 행 번호는 파일 기준
	_, err = ReadCSV(strings.NewReader("Date,Ticker,Close\n2024-01-02,A,x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestIsHeader(t *testing.T) {
	tests := []struct {
		rec  []string
		want bool
	}{
		{[]string{"ticker", "value"}, true},
		{[]string{" Code ", "CLOSE"}, true},
		{[]string{"trade_date", "stock_code", "return"}, true},
		{[]string{"A", "value"}, false},
		{[]string{"ticker", "1.5"}, false},
		{[]string{"value", "ticker"}, false},
		{[]string{"x", "date", "ticker", "value"}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isHeader(tt.rec), "%v", tt.rec)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	panel, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, panel.Len())
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"date", "ticker", "value"},
		{"2024-01-02", "AMBR", 2},
		{"2024-01-01", "AMBR", 1.5},
		{"2024-01-02", "ALFA", 3},
		{"2024-01-01", "ALFA", 0.5},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	panel, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"AMBR", "ALFA", "AMBR", "ALFA"}, panel.Tickers)
	assert.Equal(t, []float64{1.5, 0.5, 2, 3}, panel.Values)
}

func TestReadJSON(t *testing.T) {
	panel, err := ReadJSON(strings.NewReader(`{"tickers":["A","B"],"values":[1,2]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, panel.Tickers)
	assert.Equal(t, []float64{1, 2}, panel.Values)

	_, err = ReadJSON(strings.NewReader(`{"tickers":["A"],"prices":[1]}`))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "panel.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("A,1\nB,2\n"), 0o600))
	panel, err := LoadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, panel.Len())

	jsonPath := filepath.Join(dir, "panel.JSON")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"tickers":["A"],"values":[3]}`), 0o600))
	panel, err = LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, panel.Values)

	_, err = LoadFile(filepath.Join(dir, "panel.parquet"))
	assert.Error(t, err)

	txtPath := filepath.Join(dir, "panel.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("A,1"), 0o600))
	_, err = LoadFile(txtPath)
	assert.ErrorContains(t, err, "unsupported panel file extension")
}
