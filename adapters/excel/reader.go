package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"golm/domain/table"
)

// DataReader reads xlsx and csv files into an analysis table. Column types
// are inferred: a column whose non-empty cells all parse as numbers becomes
// numeric, anything else becomes a factor with levels in order of first
// appearance. Empty cells are missing.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader for the given file
func NewDataReader(filePath string) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// Read loads the dataset
func (r *DataReader) Read(path string) (*table.Table, error) {
	if path != "" && path != r.filePath {
		return NewDataReader(path).Read("")
	}
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("data file not found: %s", r.filePath)
	}
	switch r.fileType {
	case "csv":
		return r.readCSV()
	case "xlsx":
		return r.readExcel()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

func (r *DataReader) readExcel() (*table.Table, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return fromRows(rows)
}

func (r *DataReader) readCSV() (*table.Table, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return fromRows(rows)
}

// fromRows builds a typed table from a header row plus data rows
func fromRows(rows [][]string) (*table.Table, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("data file must have a header row and at least one data row")
	}
	header := rows[0]
	data := rows[1:]

	cols := make([]table.Column, 0, len(header))
	for c, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", c+1)
		}
		raw := make([]string, len(data))
		for i, row := range data {
			if c < len(row) {
				raw[i] = strings.TrimSpace(row[c])
			}
		}
		cols = append(cols, buildColumn(name, raw))
	}
	return table.New(cols...)
}

func buildColumn(name string, raw []string) table.Column {
	numeric := true
	values := make([]float64, len(raw))
	for i, v := range raw {
		if v == "" {
			values[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			numeric = false
			break
		}
		values[i] = f
	}
	if numeric {
		return table.NewNumeric(name, values)
	}
	return table.NewFactor(name, raw)
}
