package excel

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"suitecompare/internal/errors"
	"suitecompare/internal/logging"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *slog.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV
// files. sheet selects the worksheet of an .xlsx file; empty means the first.
func NewDataReader(filePath, sheet string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		sheet:    sheet,
		logger:   logging.New("excel"),
	}
}

// IsSupported reports whether path has an extension DataReader can read
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// ReadData reads the file into a Table. A file with only a header row
// yields a Table without rows.
func (r *DataReader) ReadData() (*Table, error) {
	r.logger.Debug("reading source", "type", r.fileType, "path", r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.MissingSource(r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, errors.Schema("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the configured (or first) sheet into a Table
func (r *DataReader) readExcelData() (*Table, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeSchema, fmt.Errorf("failed to open Excel file %s: %w", r.filePath, err))
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.WithCode(errors.CodeSchema, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, r.filePath, err))
	}
	r.logger.Debug("sheet read", "sheet", sheet, "rows", len(rows), "elapsed", time.Since(startTime))

	if len(rows) < 1 {
		return nil, errors.Schema("%s: sheet %q has no header row", r.filePath, sheet)
	}
	return r.processRows(rows), nil
}

// readCSVData reads CSV data into a Table
func (r *DataReader) readCSVData() (*Table, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeMissingSource, fmt.Errorf("failed to open CSV file %s: %w", r.filePath, err))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeSchema, fmt.Errorf("failed to read CSV file %s: %w", r.filePath, err))
	}
	r.logger.Debug("csv read", "rows", len(rows), "elapsed", time.Since(readStart))

	if len(rows) < 1 {
		return nil, errors.Schema("%s: CSV file has no header row", r.filePath)
	}
	return r.processRows(rows), nil
}

// processRows converts raw string rows into a Table, dropping blank lines
func (r *DataReader) processRows(rows [][]string) *Table {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Debug("source processed", "type", strings.ToUpper(r.fileType), "columns", len(headers), "rows", len(dataRows))

	return &Table{
		Headers: headers,
		Rows:    dataRows,
	}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ReadSheet reads one named sheet of a workbook written by Workbook
func ReadSheet(path, sheet string) (*Table, error) {
	if sheet == "" {
		return nil, errors.Schema("%s: sheet name is required", path)
	}
	return NewDataReader(path, sheet).ReadData()
}
