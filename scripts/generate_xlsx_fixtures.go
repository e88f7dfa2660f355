package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Converts the CSV import fixtures in testdata/ into XLSX workbooks with the
// same rows. Run from the repository root: go run ./scripts
func main() {
	matches, err := filepath.Glob(filepath.Join("testdata", "*.csv"))
	if err != nil {
		log.Fatal(err)
	}
	if len(matches) == 0 {
		log.Fatal("no csv fixtures found in testdata/, run from the repository root")
	}

	for _, path := range matches {
		out := strings.TrimSuffix(path, ".csv") + ".xlsx"
		if err := convert(path, out); err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		fmt.Println("✓ Generated", out)
	}
}

func convert(csvPath, xlsxPath string) error {
	in, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer in.Close()

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Transactions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for rowIdx, record := range records {
		for colIdx, val := range record {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			// Keep plain numbers numeric so the workbook looks like a real export
			if num, err := strconv.ParseFloat(val, 64); err == nil && rowIdx > 0 && !isIdentifier(records[0], colIdx) {
				f.SetCellValue(sheet, cell, num)
				continue
			}
			f.SetCellValue(sheet, cell, val)
		}
	}
	if len(records) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(records[0]), 1)
		f.SetCellStyle(sheet, "A1", last, bold)
	}

	return f.SaveAs(xlsxPath)
}

// isIdentifier reports whether a column holds digit strings such as tax ids
// or account numbers that must stay text
func isIdentifier(header []string, col int) bool {
	if col >= len(header) {
		return false
	}
	name := strings.ToLower(header[col])
	return strings.Contains(name, "tax id") || strings.Contains(name, "account")
}
