// Package statement reads bank statement exports (tab-separated text or
// XLSX) into typed rows.
package statement

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Format is the statement file format
type Format string

const (
	FormatText Format = "text"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "tsv":
		return FormatText, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

// FormatFromFilename guesses the format from a file extension
func FormatFromFilename(name string) Format {
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return FormatXLSX
	}
	return FormatText
}

// Statement column names
const (
	ColumnDate    = "fecha"
	ColumnConcept = "concepto"
	ColumnCode    = "codigo"
	ColumnAmount  = "importe_pesos"
	ColumnBalance = "saldo_pesos"
)

// RequiredColumns are the columns every statement must carry
var RequiredColumns = []string{ColumnDate, ColumnConcept, ColumnCode, ColumnAmount, ColumnBalance}

var dateLayouts = []string{"2/1/2006", "2-1-2006", "2006-01-02"}

// Options configures Parse
type Options struct {
	Format    Format
	Encoding  Encoding // text only
	Sheet     string   // xlsx only, first sheet when empty
	MaxErrors int
}

// Row is one parsed statement line. Concept keeps its original padding
// because some concepts are read by fixed character offsets.
type Row struct {
	LineNo  int
	Date    time.Time
	Concept string
	Code    string
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

// Result holds the valid rows and the errors of the invalid ones
type Result struct {
	Rows      []Row
	Errors    *ErrorCollection
	TotalRows int
}

// Parse reads a whole statement. Malformed lines are collected in
// Result.Errors; only unreadable files return an error.
func Parse(r io.Reader, opts Options) (*Result, error) {
	format := opts.Format
	if format == "" {
		format = FormatText
	}

	var (
		records []record
		err     error
		reader  cellReader
	)
	switch format {
	case FormatText:
		records, err = readText(r, opts.Encoding)
		reader = textCells{}
	case FormatXLSX:
		records, err = readXLSX(r, opts.Sheet)
		reader = xlsxCells{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return buildResult(records, reader, NewErrorCollection(opts.MaxErrors))
}

// record is a raw line of the file with its 1-based line number
type record struct {
	line   int
	fields []string
	// numeric marks xlsx cells stored as numbers, nil for text files
	numeric []bool
}

func readText(r io.Reader, enc Encoding) ([]record, error) {
	content, err := decodeText(r, enc)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var records []record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading statement: %w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	return records, nil
}

func readXLSX(r io.Reader, sheet string) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	records := make([]record, len(rows))
	for i, fields := range rows {
		numeric := make([]bool, len(fields))
		for col := range fields {
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
			}
			numeric[col] = isNumericCell(f, sheet, cell)
		}
		records[i] = record{line: i + 1, fields: fields, numeric: numeric}
	}
	return records, nil
}

// isNumericCell reports whether a cell holds a number. Cells without a type
// attribute are numbers in OOXML.
func isNumericCell(f *excelize.File, sheet, cell string) bool {
	cellType, err := f.GetCellType(sheet, cell)
	if err != nil {
		return false
	}
	return cellType == excelize.CellTypeNumber || cellType == excelize.CellTypeUnset
}

func buildResult(records []record, cells cellReader, errs *ErrorCollection) (*Result, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	header := make(map[string]int, len(records[0].fields))
	for i, h := range records[0].fields {
		header[NormalizeHeader(h)] = i
	}
	if len(header) == 0 {
		return nil, ErrMissingHeader
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	result := &Result{Rows: make([]Row, 0, len(records)-1), Errors: errs}
	for _, rec := range records[1:] {
		if isBlank(rec.fields) {
			continue
		}
		result.TotalRows++
		lineNo := rec.line
		field := func(col string) string {
			idx := header[col]
			if idx < len(rec.fields) {
				return rec.fields[idx]
			}
			return ""
		}
		numeric := func(col string) bool {
			idx := header[col]
			return idx < len(rec.numeric) && rec.numeric[idx]
		}

		row := Row{
			LineNo:  lineNo,
			Concept: strings.TrimRight(field(ColumnConcept), "\r\n"),
			Code:    strings.TrimSpace(field(ColumnCode)),
		}
		ok := true
		if row.Code == "" {
			errs.AddError(lineNo, ColumnCode, ErrCodeRequiredField, "code is required", "")
			ok = false
		}
		if raw := strings.TrimSpace(field(ColumnDate)); raw == "" {
			errs.AddError(lineNo, ColumnDate, ErrCodeRequiredField, "date is required", "")
			ok = false
		} else if d, err := cells.date(raw); err != nil {
			errs.AddError(lineNo, ColumnDate, ErrCodeInvalidDate, "expected dd/mm/yyyy", raw)
			ok = false
		} else {
			row.Date = d
		}
		if amount, err := cells.amount(field(ColumnAmount), numeric(ColumnAmount)); err != nil {
			errs.AddError(lineNo, ColumnAmount, ErrCodeInvalidAmount, err.Error(), field(ColumnAmount))
			ok = false
		} else {
			row.Amount = amount
		}
		if balance, err := cells.amount(field(ColumnBalance), numeric(ColumnBalance)); err != nil {
			errs.AddError(lineNo, ColumnBalance, ErrCodeInvalidAmount, err.Error(), field(ColumnBalance))
			ok = false
		} else {
			row.Balance = balance
		}
		if ok {
			result.Rows = append(result.Rows, row)
		}
	}
	return result, nil
}

// cellReader converts cell text to typed values for one file format
type cellReader interface {
	date(raw string) (time.Time, error)
	// numeric is set for spreadsheet cells stored as numbers
	amount(raw string, numeric bool) (decimal.Decimal, error)
}

// textCells reads dd/mm/yyyy dates and Spanish locale amounts
type textCells struct{}

func (textCells) date(raw string) (time.Time, error) {
	return parseDate(raw)
}

func (textCells) amount(raw string, _ bool) (decimal.Decimal, error) {
	return valueobject.ParseLocalizedAmount(raw)
}

// xlsxCells reads raw cell values: number cells are plain decimals and dates
// may be Excel serial numbers. Text cells follow the text rules, so "1.234"
// typed as text is one thousand two hundred thirty-four.
type xlsxCells struct{}

func (xlsxCells) date(raw string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	return parseDate(raw)
}

func (xlsxCells) amount(raw string, numeric bool) (decimal.Decimal, error) {
	if numeric && strings.TrimSpace(raw) != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
		}
		// stored binary floats carry noise past the cents
		return d.Round(valueobject.MoneyPlaces), nil
	}
	return valueobject.ParseLocalizedAmount(raw)
}

func parseDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// NormalizeHeader lowercases a header, drops accents and joins words with
// underscores, so "Código" and "Importe Pesos" match the column names
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, h); err == nil {
		h = folded
	}
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
