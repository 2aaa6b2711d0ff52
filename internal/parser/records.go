package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/models"
)

var errNoRows = errors.New("file has no rows")

// LoadRecords reads the knowledge source and returns one record per non-empty
// data row, in file order.
func LoadRecords(cfg *config.KnowledgeConfig) ([]models.Record, error) {
	path := cfg.Path
	if _, err := os.Stat(path); err != nil {
		return nil, &models.LoadError{Path: path, Err: err}
	}

	var (
		rows [][]string
		err  error
	)
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		rows, err = readCSV(path, delimiter(cfg.Delimiter, ','))
	case ".tsv":
		rows, err = readCSV(path, '\t')
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path, cfg.Sheet)
	default:
		err = fmt.Errorf("unsupported file format: %s", ext)
	}
	if err != nil {
		return nil, &models.LoadError{Path: path, Err: err}
	}

	records := rowsToRecords(path, rows, !cfg.NoHeader)
	log.Info().Str("path", path).Int("records", len(records)).Msg("Loaded knowledge source")
	return records, nil
}

func delimiter(s string, fallback rune) rune {
	if s == "" {
		return fallback
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func readCSV(path string, comma rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		rows = append(rows, row)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errNoRows
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// rowsToRecords renders each row as "header: value" lines. Row numbers count
// data rows from zero, so the header line is never a record.
func rowsToRecords(source string, rows [][]string, hasHeader bool) []models.Record {
	if len(rows) == 0 {
		return nil
	}

	var headers []string
	data := rows
	if hasHeader {
		headers = rows[0]
		data = rows[1:]
	}

	records := make([]models.Record, 0, len(data))
	for i, row := range data {
		var lines []string
		for col, cell := range row {
			value := strings.TrimSpace(cell)
			if value == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s", header(headers, col), value))
		}
		if len(lines) == 0 {
			continue
		}
		records = append(records, models.Record{
			Row:    i,
			Source: source,
			Text:   strings.Join(lines, "\n"),
		})
	}
	return records
}

func header(headers []string, col int) string {
	if col < len(headers) {
		if h := strings.TrimSpace(headers[col]); h != "" {
			return h
		}
	}
	return fmt.Sprintf("col_%d", col)
}
