// Package parsers reads activity catalog workbooks.
package parsers

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

// ParseResult carries the parsed definitions plus the rows that were skipped,
// so the caller can log them without aborting the import.
type ParseResult struct {
	Definitions []sharedtypes.ActivityDefinition
	SkippedRows []int
}

// ParseCatalogXLSX reads the first sheet of an activity workbook with
// Name | Points | Category columns. The header row is detected by the
// "name" label; rows with a blank name/category or non-numeric points are
// skipped, and duplicate names keep the first occurrence.
func ParseCatalogXLSX(data []byte) (*ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	start := 0
	if isHeaderRow(rows[0]) {
		start = 1
	}

	result := &ParseResult{}
	seen := make(map[string]bool)

	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 3 {
			if !rowIsBlank(row) {
				result.SkippedRows = append(result.SkippedRows, i+1)
			}
			continue
		}

		name := strings.TrimSpace(row[0])
		pointsText := strings.TrimSpace(row[1])
		category := strings.TrimSpace(row[2])

		if name == "" || category == "" {
			result.SkippedRows = append(result.SkippedRows, i+1)
			continue
		}

		points, err := strconv.Atoi(pointsText)
		if err != nil {
			result.SkippedRows = append(result.SkippedRows, i+1)
			continue
		}

		key := strings.ToLower(name)
		if seen[key] {
			// First occurrence wins on duplicate names.
			result.SkippedRows = append(result.SkippedRows, i+1)
			continue
		}
		seen[key] = true

		result.Definitions = append(result.Definitions, sharedtypes.ActivityDefinition{
			Name:       sharedtypes.ActivityName(name),
			BasePoints: sharedtypes.Points(points),
			Category:   sharedtypes.Category(category),
		})
	}

	return result, nil
}

func isHeaderRow(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "name")
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
