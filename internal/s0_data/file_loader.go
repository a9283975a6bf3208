package s0_data

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/clusterfolio/internal/contracts"
)

// LoadFile reads a panel from a .csv, .xlsx or .json file
//
// CSV/XLSX 컬럼: ticker,value 또는 date,ticker,value (헤더 선택)
// date 컬럼이 있으면 날짜 기준 안정 정렬 (YYYY-MM-DD)
func LoadFile(path string) (*contracts.Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open panel file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(f)
	case ".json":
		return ReadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported panel file extension %q", filepath.Ext(path))
	}
}

// ReadCSV parses comma separated observations
func ReadCSV(r io.Reader) (*contracts.Panel, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRecords(records)
}

// ReadXLSX parses the first sheet of a workbook
func ReadXLSX(r io.Reader) (*contracts.Panel, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return parseRecords(rows)
}

// ReadJSON parses {"tickers": [...], "values": [...]}
func ReadJSON(r io.Reader) (*contracts.Panel, error) {
	var panel contracts.Panel
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&panel); err != nil {
		return nil, fmt.Errorf("decode json panel: %w", err)
	}
	return &panel, nil
}

type observation struct {
	date   string
	ticker string
	value  float64
}

// parseRecords turns rows of 2 or 3 columns into a panel
func parseRecords(records [][]string) (*contracts.Panel, error) {
	records = dropBlank(records)
	if len(records) == 0 {
		return &contracts.Panel{}, nil
	}

	width := len(records[0])
	if width != 2 && width != 3 {
		return nil, fmt.Errorf("expected 2 (ticker,value) or 3 (date,ticker,value) columns, got %d", width)
	}

	// 알려진 컬럼 이름으로만 구성된 첫 행만 헤더 (잘못된 데이터 행은 오류로 보고)
	first := 1
	if isHeader(records[0]) {
		records = records[1:]
		first = 2
	}

	obs := make([]observation, 0, len(records))
	for i, rec := range records {
		row := i + first
		if len(rec) != width {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", row, width, len(rec))
		}
		v, err := parseValue(rec[width-1])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid value %q: %w", row, rec[width-1], err)
		}
		o := observation{ticker: strings.TrimSpace(rec[width-2]), value: v}
		if width == 3 {
			o.date = strings.TrimSpace(rec[0])
		}
		if o.ticker == "" {
			return nil, fmt.Errorf("row %d: empty ticker", row)
		}
		obs = append(obs, o)
	}

	if width == 3 {
		sort.SliceStable(obs, func(a, b int) bool { return obs[a].date < obs[b].date })
	}

	panel := &contracts.Panel{
		Tickers: make([]string, len(obs)),
		Values:  make([]float64, len(obs)),
	}
	for i, o := range obs {
		panel.Tickers[i] = o.ticker
		panel.Values[i] = o.value
	}
	return panel, nil
}

// header column names by position from the right: value, ticker, date
var headerLabels = []map[string]bool{
	{"value": true, "close": true, "return": true, "price": true},
	{"ticker": true, "code": true, "stock_code": true, "symbol": true},
	{"date": true, "trade_date": true},
}

// isHeader reports whether every cell of rec is a known column name
func isHeader(rec []string) bool {
	if len(rec) > len(headerLabels) {
		return false
	}
	for i := range rec {
		label := strings.ToLower(strings.TrimSpace(rec[len(rec)-1-i]))
		if !headerLabels[i][label] {
			return false
		}
	}
	return true
}

func parseValue(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// dropBlank removes rows whose cells are all empty
func dropBlank(records [][]string) [][]string {
	out := records[:0:0]
	for _, rec := range records {
		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		out = append(out, rec)
	}
	return out
}
