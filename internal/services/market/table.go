// Package market answers mandi price questions from a flat price table loaded
// once at startup.
package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// RequiredColumns is the minimum schema of a price table, after header
// normalization.
var RequiredColumns = []string{"date", "state", "district", "market", "commodity", "min_price", "max_price", "modal_price"}

// Record is one mandi price row.
type Record struct {
	Date       time.Time `json:"date"`
	State      string    `json:"state"`
	District   string    `json:"district"`
	Market     string    `json:"market"`
	Commodity  string    `json:"commodity"`
	MinPrice   float64   `json:"min_price"`
	MaxPrice   float64   `json:"max_price"`
	ModalPrice float64   `json:"modal_price"`
}

// SchemaError reports a table that lacks required columns.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("market table is missing columns %s; expected %s",
		strings.Join(e.Missing, ", "), strings.Join(RequiredColumns, ", "))
}

// Table is an immutable, loaded price table. Row order is the source order.
type Table struct {
	Records []Record
	Skipped int
	Source  string

	// schemaErr is set when the source parsed but lacks required columns.
	// Queries report it as an error result instead of failing the load.
	schemaErr error
}

// NewTable wraps records already in memory.
func NewTable(records []Record) *Table {
	return &Table{Records: records, Source: "memory"}
}

// SchemaErr returns the schema problem recorded at load time, if any.
func (t *Table) SchemaErr() error {
	if t == nil {
		return &SchemaError{Missing: RequiredColumns}
	}
	return t.schemaErr
}

// Len returns the number of usable rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Load reads a CSV or XLSX price table chosen by file extension.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market table: %w", err)
	}
	defer f.Close()

	var t *Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		t, err = LoadXLSX(f)
	default:
		t, err = LoadCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	t.Source = path
	if t.schemaErr != nil {
		log.Printf("[market] %s: %v", path, t.schemaErr)
	} else {
		log.Printf("[market] loaded %d rows from %s (%d skipped)", len(t.Records), path, t.Skipped)
	}
	return t, nil
}

// LoadCSV parses a CSV price table.
func LoadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return fromRows(rows), nil
}

// LoadXLSX parses the first sheet of a workbook.
func LoadXLSX(r io.Reader) (*Table, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return fromRows(rows), nil
}

func fromRows(rows [][]string) *Table {
	t := &Table{}
	if len(rows) == 0 {
		t.schemaErr = &SchemaError{Missing: RequiredColumns}
		return t
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		name := NormalizeHeader(h)
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		t.schemaErr = &SchemaError{Missing: missing}
		return t
	}

	cell := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec, ok := parseRecord(row, cell)
		if !ok {
			t.Skipped++
			continue
		}
		t.Records = append(t.Records, rec)
	}
	return t
}

func parseRecord(row []string, cell func([]string, string) string) (Record, bool) {
	date, err := ParseDate(cell(row, "date"))
	if err != nil {
		return Record{}, false
	}
	var prices [3]float64
	for i, col := range []string{"min_price", "max_price", "modal_price"} {
		v, err := parsePrice(cell(row, col))
		if err != nil {
			return Record{}, false
		}
		prices[i] = v
	}
	commodity := cell(row, "commodity")
	if commodity == "" {
		return Record{}, false
	}
	return Record{
		Date:       date,
		State:      cell(row, "state"),
		District:   cell(row, "district"),
		Market:     cell(row, "market"),
		Commodity:  commodity,
		MinPrice:   prices[0],
		MaxPrice:   prices[1],
		ModalPrice: prices[2],
	}, true
}

// NormalizeHeader trims, lower-cases and joins words with underscores, so
// "Modal Price" and "modal_price" name the same column.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '.'
	}), "_")
}

// headerAliases maps column names used by the data.gov.in daily price export.
var headerAliases = map[string]string{
	"arrival_date":      "date",
	"min_x0020_price":   "min_price",
	"max_x0020_price":   "max_price",
	"modal_x0020_price": "modal_price",
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate accepts the date layouts seen in mandi exports. Day-first layouts
// win over month-first ones.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parsePrice(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative price %v", v)
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// States returns the distinct states in the table, sorted.
func (t *Table) States() []string {
	return t.distinct(func(r Record) string { return r.State })
}

// Commodities returns the distinct commodities in the table, sorted.
func (t *Table) Commodities() []string {
	return t.distinct(func(r Record) string { return r.Commodity })
}

func (t *Table) distinct(key func(Record) string) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.Records {
		k := key(r)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
