// Package importer reads initial canvas states from block tables in CSV or
// Excel files. Each row is one block; columns are matched by header name
// (case-insensitive) or by position when no header is present.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/blockpaint/internal/model"
)

// BlocksSheet is the preferred sheet name in workbooks.
const BlocksSheet = "Blocks"

// ImportResult holds the results of an import operation.
type ImportResult struct {
	State    model.CanvasState
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced a usable state.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.State.Blocks) > 0
}

// Err folds the collected errors into one error, or nil.
func (r ImportResult) Err() error {
	if len(r.Errors) == 0 {
		if len(r.State.Blocks) == 0 {
			return fmt.Errorf("no blocks imported")
		}
		return nil
	}
	return fmt.Errorf("import failed: %s", strings.Join(r.Errors, "; "))
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	ID     int
	Left   int
	Bottom int
	Right  int
	Top    int
	R      int
	G      int
	B      int
	A      int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":     {"block", "id", "block id", "blockid"},
	"left":   {"left", "x0", "bottom left x", "min x"},
	"bottom": {"bottom", "y0", "bottom left y", "min y"},
	"right":  {"right", "x1", "top right x", "max x"},
	"top":    {"top", "y1", "top right y", "max y"},
	"r":      {"r", "red"},
	"g":      {"g", "green"},
	"b":      {"b", "blue"},
	"a":      {"a", "alpha"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping id, left, bottom, right, top, r, g, b, a and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	m := ColumnMapping{ID: -1, Left: -1, Bottom: -1, Right: -1, Top: -1, R: -1, G: -1, B: -1, A: -1}
	slots := map[string]*int{
		"id": &m.ID, "left": &m.Left, "bottom": &m.Bottom, "right": &m.Right, "top": &m.Top,
		"r": &m.R, "g": &m.G, "b": &m.B, "a": &m.A,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					isHeader = true
					if *slots[role] == -1 {
						*slots[role] = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{ID: 0, Left: 1, Bottom: 2, Right: 3, Top: 4, R: 5, G: 6, B: 7, A: 8}, false
	}
	return m, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseCoord reads an integer cell; spreadsheets may store 200 as "200.0".
func parseCoord(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// parseRow extracts a Block from a row using the given column mapping.
// Returns the block, any error message, and any warning message.
func parseRow(row []string, m ColumnMapping, rowLabel string) (model.Block, string, string) {
	id := getCell(row, m.ID)
	if id == "" {
		return model.Block{}, fmt.Sprintf("%s: Missing block id", rowLabel), ""
	}

	var coords [4]int
	for i, col := range []struct {
		name string
		idx  int
	}{{"left", m.Left}, {"bottom", m.Bottom}, {"right", m.Right}, {"top", m.Top}} {
		s := getCell(row, col.idx)
		if s == "" {
			return model.Block{}, fmt.Sprintf("%s: Missing %s value", rowLabel, col.name), ""
		}
		v, err := parseCoord(s)
		if err != nil {
			return model.Block{}, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, col.name, s), ""
		}
		coords[i] = v
	}

	b := model.Block{
		ID:         id,
		BottomLeft: model.Point{X: coords[0], Y: coords[1]},
		TopRight:   model.Point{X: coords[2], Y: coords[3]},
		Color:      model.White,
	}
	if b.Empty() {
		return model.Block{}, fmt.Sprintf("%s: Block %s is empty", rowLabel, id), ""
	}

	// Optional color; missing channels default to white
	var warning string
	for ch, idx := range []int{m.R, m.G, m.B, m.A} {
		s := getCell(row, idx)
		if s == "" {
			continue
		}
		v, err := parseCoord(s)
		if err != nil || v < 0 || v > 255 {
			warning = fmt.Sprintf("%s: Invalid color channel '%s', keeping %d", rowLabel, s, b.Color[ch])
			continue
		}
		b.Color[ch] = uint8(v)
	}

	return b, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Import dispatches on the file extension: .csv, .tsv and .txt are read as
// CSV, .xlsx and .xlsm as Excel.
func Import(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ImportExcel(path)
	case ".csv", ".tsv", ".txt":
		return ImportCSV(path)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported block table format: %s", filepath.Ext(path))}}
	}
}

// IsTable reports whether path has an extension Import understands.
func IsTable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

// ImportCSV imports blocks from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	return importCSV(bytes.NewReader(data), delimiter, result.Warnings)
}

// ImportCSVFromReader imports blocks from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	return importCSV(reader, delimiter, nil)
}

func importCSV(r io.Reader, delimiter rune, warnings []string) ImportResult {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}, Warnings: warnings}
	}
	if len(records) == 0 {
		return ImportResult{Errors: []string{"File is empty"}, Warnings: warnings}
	}
	return importFromRows(records, "Line", warnings)
}

// ImportExcel imports blocks from an Excel workbook. The Blocks sheet is
// used when present, otherwise the first sheet.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if s == BlocksSheet {
			sheet = s
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// The canvas size is the bounding box of the imported blocks.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		missing := []string{}
		for _, req := range []struct {
			name string
			idx  int
		}{{"Block", mapping.ID}, {"Left", mapping.Left}, {"Bottom", mapping.Bottom}, {"Right", mapping.Right}, {"Top", mapping.Top}} {
			if req.idx == -1 {
				missing = append(missing, req.name)
			}
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		block, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		result.State.Blocks = append(result.State.Blocks, block)
		result.State.Width = max(result.State.Width, block.TopRight.X)
		result.State.Height = max(result.State.Height, block.TopRight.Y)
	}

	if len(result.State.Blocks) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}
