// Package importer reads shape catalogs from CSV and Excel footprint tables
// and from YAML or JSON catalog documents. Tables support automatic delimiter
// detection, flexible column mapping and case-insensitive headers.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/GridPlan/internal/model"
)

// ImportResult holds the tasks read from a footprint table. Each data row is
// one footprint; rows sharing a task id add alternatives to that task.
type ImportResult struct {
	Tasks    []model.Task
	Errors   []string
	Warnings []string
}

// Catalog combines the imported tasks with grid bounds.
func (r ImportResult) Catalog(maxWidth, maxHeight int) (*model.Catalog, error) {
	if len(r.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrImport, strings.Join(r.Errors, "; "))
	}
	catalog := &model.Catalog{MaxWidth: maxWidth, MaxHeight: maxHeight, Tasks: r.Tasks}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Task   int
	Width  int
	Height int
	Delay  int
	Weight int
	Label  int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"task":   {"task", "task id", "task_id", "id", "#"},
	"width":  {"width", "w", "days", "duration", "length", "time"},
	"height": {"height", "h", "persons", "people", "workers", "crew", "capacity"},
	"delay":  {"delay", "d", "finish", "finish time"},
	"weight": {"weight", "wt", "priority"},
	"label":  {"label", "name", "description", "desc", "unit"},
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
// mapping (task, width, height, delay, weight, label) and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Task: -1, Width: -1, Height: -1, Delay: -1, Weight: -1, Label: -1}
	slots := map[string]*int{
		"task":   &mapping.Task,
		"width":  &mapping.Width,
		"height": &mapping.Height,
		"delay":  &mapping.Delay,
		"weight": &mapping.Weight,
		"label":  &mapping.Label,
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
		return ColumnMapping{Task: 0, Width: 1, Height: 2, Delay: 3, Weight: 4, Label: 5}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
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

// footprintRow is one parsed table row.
type footprintRow struct {
	task      int
	footprint model.Footprint
	weight    float64
	hasWeight bool
	label     string
}

func parseInt(row []string, idx int, name, rowLabel string, required bool) (int, bool, string) {
	s := getCell(row, idx)
	if s == "" {
		if required {
			return 0, false, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
		}
		return 0, false, ""
	}
	// Spreadsheets often hand back integral numbers as "5.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	return int(f), true, ""
}

// parseRow extracts one footprint row. nextTask is used when the table has no
// task column. Returns the row and any error message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, nextTask int) (footprintRow, string) {
	out := footprintRow{task: nextTask, label: getCell(row, mapping.Label)}

	if mapping.Task >= 0 {
		task, ok, msg := parseInt(row, mapping.Task, "task", rowLabel, true)
		if !ok {
			return out, msg
		}
		if task < 0 {
			return out, fmt.Sprintf("%s: Task id must not be negative", rowLabel)
		}
		out.task = task
	}

	width, _, msg := parseInt(row, mapping.Width, "width", rowLabel, true)
	if msg != "" {
		return out, msg
	}
	height, _, msg := parseInt(row, mapping.Height, "height", rowLabel, true)
	if msg != "" {
		return out, msg
	}
	delay, _, msg := parseInt(row, mapping.Delay, "delay", rowLabel, false)
	if msg != "" {
		return out, msg
	}
	if width <= 0 || height <= 0 || delay < 0 {
		return out, fmt.Sprintf("%s: Width and height must be positive", rowLabel)
	}
	out.footprint = model.Footprint{Width: width, Height: height, Delay: delay}

	if s := getCell(row, mapping.Weight); s != "" {
		w, err := strconv.ParseFloat(s, 64)
		if err != nil || w < 0 {
			return out, fmt.Sprintf("%s: Invalid weight '%s'", rowLabel, s)
		}
		out.weight = w
		out.hasWeight = true
	}
	return out, ""
}

// ImportCSV imports footprints from a CSV file.
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

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports footprints from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports footprints from the first sheet of an Excel workbook.
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

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
		if mapping.Task == -1 {
			result.Warnings = append(result.Warnings, "No task column, treating each row as one task")
		}
	} else if len(rows[0]) >= 3 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	byTask := map[int]*model.Task{}
	maxTask := -1
	nextTask := 0
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		fr, errMsg := parseRow(row, mapping, rowLabel, nextTask)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		nextTask++

		task, ok := byTask[fr.task]
		if !ok {
			task = &model.Task{Label: fr.label, Weight: 1.0}
			if fr.hasWeight {
				task.Weight = fr.weight
			}
			byTask[fr.task] = task
		} else {
			if fr.hasWeight && fr.weight != task.Weight {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s: Weight %g differs from earlier rows of task %d, keeping %g", rowLabel, fr.weight, fr.task, task.Weight))
			}
			if task.Label == "" {
				task.Label = fr.label
			}
		}
		task.Footprints = append(task.Footprints, fr.footprint)
		maxTask = max(maxTask, fr.task)
	}

	if len(byTask) == 0 {
		if len(result.Errors) == 0 {
			result.Errors = append(result.Errors, "No data rows found")
		}
		return result
	}

	missing := []string{}
	for id := 0; id <= maxTask; id++ {
		task, ok := byTask[id]
		if !ok {
			missing = append(missing, strconv.Itoa(id))
			continue
		}
		result.Tasks = append(result.Tasks, *task)
	}
	if len(missing) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Task ids must run from 0 without gaps, missing: %s", strings.Join(missing, ", ")))
		result.Tasks = nil
	}

	return result
}
