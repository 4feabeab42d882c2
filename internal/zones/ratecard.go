package zones

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// RateCardRow is one zone/service rate parsed from a spreadsheet.
type RateCardRow struct {
	Zone    string
	Service string
	Rate    ZoneRate
}

// RateCardError describes a row that could not be used.
type RateCardError struct {
	RowNumber int    `json:"rowNumber,omitempty"`
	Message   string `json:"message"`
}

// RateCardResult holds the outcome of parsing a rate card
type RateCardResult struct {
	Rows      []RateCardRow
	Errors    []RateCardError
	TotalRows int
}

// RateCardOptions selects the worksheet and header names.
type RateCardOptions struct {
	Sheet         string
	ZoneHeader    string
	ServiceHeader string
	BaseHeader    string
	MinFareHeader string
}

// DefaultRateCardOptions reads the first sheet with Indonesian/English headers.
func DefaultRateCardOptions() RateCardOptions {
	return RateCardOptions{
		ZoneHeader:    "zona",
		ServiceHeader: "layanan",
		BaseHeader:    "tarif",
		MinFareHeader: "tarif minimum",
	}
}

var headerAliases = map[string][]string{
	"zone":    {"zone", "zona"},
	"service": {"service", "layanan"},
	"base":    {"base", "tarif", "rate"},
	"min":     {"min fare", "min_fare", "tarif minimum", "minimum"},
}

// ParseRateCard reads rate rows from XLSX content.
func ParseRateCard(content []byte, opts RateCardOptions) (*RateCardResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Excel file: %w", err)
	}
	defer f.Close()

	sheet, err := selectSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet: %w", err)
	}

	result := &RateCardResult{}
	if len(rows) == 0 {
		return result, nil
	}

	idx := resolveColumns(rows[0], opts)
	if idx["zone"] < 0 || idx["service"] < 0 || idx["base"] < 0 {
		return nil, fmt.Errorf("rate card must have zone, service and base columns (got %q)", rows[0])
	}

	for i := 1; i < len(rows); i++ {
		raw := rows[i]
		rowNumber := i + 1
		if isEmptyRow(raw) {
			continue
		}
		result.TotalRows++

		get := func(col int) string {
			if col < 0 || col >= len(raw) {
				return ""
			}
			return strings.TrimSpace(raw[col])
		}

		row := RateCardRow{Zone: get(idx["zone"]), Service: strings.ToLower(get(idx["service"]))}
		if row.Zone == "" || row.Service == "" {
			result.Errors = append(result.Errors, RateCardError{RowNumber: rowNumber, Message: "zone and service are required"})
			continue
		}

		base, err := parseRupiah(get(idx["base"]))
		if err != nil {
			result.Errors = append(result.Errors, RateCardError{RowNumber: rowNumber, Message: fmt.Sprintf("invalid base: %v", err)})
			continue
		}
		row.Rate.Base = base

		if v := get(idx["min"]); v != "" {
			minFare, err := parseRupiah(v)
			if err != nil {
				result.Errors = append(result.Errors, RateCardError{RowNumber: rowNumber, Message: fmt.Sprintf("invalid min fare: %v", err)})
				continue
			}
			row.Rate.MinFare = minFare
		}
		if row.Rate.Base == 0 && row.Rate.MinFare == 0 {
			result.Errors = append(result.Errors, RateCardError{RowNumber: rowNumber, Message: "row sets neither base nor min fare"})
			continue
		}

		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// ApplyRateCard returns a copy of table with the rate card rows applied.
// Rows naming an unknown zone are reported and skipped.
func ApplyRateCard(table []DeliveryZone, rows []RateCardRow) ([]DeliveryZone, []RateCardError) {
	out := make([]DeliveryZone, len(table))
	byName := make(map[string]int, len(table))
	for i, z := range table {
		out[i] = z.Clone()
		byName[strings.ToLower(z.Name)] = i
	}

	var errs []RateCardError
	for _, row := range rows {
		i, ok := byName[strings.ToLower(row.Zone)]
		if !ok {
			errs = append(errs, RateCardError{Message: fmt.Sprintf("unknown zone %q", row.Zone)})
			continue
		}
		if out[i].Rates == nil {
			out[i].Rates = make(map[string]ZoneRate)
		}
		out[i].Rates[row.Service] = row.Rate
	}

	if len(errs) > 0 {
		log.Warn().Str("component", "zones").Int("skipped", len(errs)).Msg("Rate card rows skipped")
	}
	return out, errs
}

func selectSheet(f *excelize.File, name string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if name == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if strings.EqualFold(s, name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found. Available sheets: %s", name, strings.Join(sheets, ", "))
}

func resolveColumns(header []string, opts RateCardOptions) map[string]int {
	want := map[string][]string{
		"zone":    append([]string{opts.ZoneHeader}, headerAliases["zone"]...),
		"service": append([]string{opts.ServiceHeader}, headerAliases["service"]...),
		"base":    append([]string{opts.BaseHeader}, headerAliases["base"]...),
		"min":     append([]string{opts.MinFareHeader}, headerAliases["min"]...),
	}

	idx := map[string]int{"zone": -1, "service": -1, "base": -1, "min": -1}
	for field, names := range want {
		for col, h := range header {
			h = strings.ToLower(strings.TrimSpace(h))
			for _, n := range names {
				if n != "" && h == strings.ToLower(n) {
					idx[field] = col
					break
				}
			}
			if idx[field] >= 0 {
				break
			}
		}
	}
	return idx
}

// parseRupiah accepts "15000", "15.000", "Rp 15.000" and "15,000".
func parseRupiah(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp")
	s = strings.TrimSpace(strings.TrimPrefix(s, "."))
	s = strings.NewReplacer(".", "", ",", "", " ", "").Replace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an amount", s)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a positive amount", s)
	}
	return int64(math.Round(v)), nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
