package market

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []interface{}{"Date", "State", "District", "Market", "Commodity", "Min Price", "Max Price", "Modal Price"}

// WriteQueryWorkbook writes the rows and insights of a query result as XLSX.
func WriteQueryWorkbook(w io.Writer, res QueryResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Prices"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRecords(f, sheet, res.Data); err != nil {
		return err
	}
	if res.Insights != nil {
		if err := writeInsights(f, res); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRecords(f *excelize.File, sheet string, rows []Record) error {
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "H1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Date.Format("2006-01-02"), r.State, r.District, r.Market, r.Commodity,
			r.MinPrice, r.MaxPrice, r.ModalPrice,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeInsights(f *excelize.File, res QueryResult) error {
	const sheet = "Insights"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create insights sheet: %w", err)
	}
	region := res.Region
	if res.NationalFallback || region == "" {
		region = "All India"
	}
	rows := [][]interface{}{
		{"Commodity", res.Commodity},
		{"Region", region},
		{"Matching rows", res.TotalMatches},
		{"Current modal price", res.Insights.CurrentModal},
		{"Average price", res.Insights.AvgPrice},
		{"Volatility", res.Insights.Volatility},
		{"Trend", string(res.Insights.TrendSentiment)},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write insight %d: %w", i+1, err)
		}
	}
	return nil
}

// ReportWorkbook writes an overview sheet plus one sheet per commodity with its
// national insights and recent rows. Commodities match exactly, ignoring case. An empty commodity list reports every
// commodity in the table.
func ReportWorkbook(w io.Writer, t *Table, commodities []string, opts Options) error {
	if err := t.SchemaErr(); err != nil {
		return err
	}
	if len(commodities) == 0 {
		commodities = t.Commodities()
	}
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := []interface{}{"Commodity", "Rows", "Current Modal", "Average", "Volatility", "Trend"}
	if err := f.SetSheetRow(summary, "A1", &header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	opts = opts.withDefaults()
	used := map[string]bool{strings.ToLower(summary): true}
	line := 2
	for _, c := range reportCommodities(commodities) {
		rows := exactRows(t, c)
		if len(rows) == 0 {
			continue
		}
		sortRecent(rows)
		in := insights(rows, opts)
		cell, _ := excelize.CoordinatesToCellName(1, line)
		row := []interface{}{c, len(rows), in.CurrentModal, in.AvgPrice,
			in.Volatility, string(in.TrendSentiment)}
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
		line++

		if len(rows) > opts.RecentLimit {
			rows = rows[:opts.RecentLimit]
		}
		name := uniqueSheetName(c, used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeRecords(f, name, rows); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteReportFile writes a dated report workbook into dir and returns its path.
func WriteReportFile(dir string, t *Table, commodities []string, opts Options, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("market_report_%s.xlsx", now.Format("20060102_1504")))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := ReportWorkbook(out, t, commodities, opts); err != nil {
		out.Close()
		os.Remove(path)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}

// reportCommodities trims names and merges those differing only in case,
// keeping the first spelling seen.
func reportCommodities(names []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		k := strings.ToLower(n)
		if n == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}

// exactRows returns rows whose commodity equals name, ignoring case.
func exactRows(t *Table, name string) []Record {
	var out []Record
	for _, r := range t.Records {
		if strings.EqualFold(strings.TrimSpace(r.Commodity), name) {
			out = append(out, r)
		}
	}
	return out
}

// uniqueSheetName suffixes a counter when the name is taken. Excel compares
// sheet names without case.
func uniqueSheetName(s string, used map[string]bool) string {
	base := sheetName(s)
	name := base
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		r := []rune(base)
		if len(r)+len(suffix) > 31 {
			r = r[:31-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

// sheetName keeps workbook sheet names within the 31 character limit and free
// of the characters excel rejects.
func sheetName(s string) string {
	r := []rune(s)
	out := make([]rune, 0, len(r))
	for _, c := range r {
		switch c {
		case ':', '\\', '/', '?', '*', '[', ']':
			c = '_'
		}
		out = append(out, c)
	}
	if len(out) > 31 {
		out = out[:31]
	}
	if len(out) == 0 {
		return "Unnamed"
	}
	return string(out)
}
