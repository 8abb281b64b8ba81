// Package ingest maps tabular uploads (CSV, XLSX) onto batch input rows.
// Column presence is resolved by header name, so optional columns that are
// absent stay absent on the row instead of degrading to zero.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/replenlab/eoq-engine/internal/domain"
)

// canonical column names and the header aliases accepted for each.
var columnAliases = map[string][]string{
	"sku":             {"sku", "id", "identifier", "item", "item_id"},
	"demand":          {"demand", "demand_rate", "d", "annual_demand", "period_demand"},
	"order_cost":      {"order_cost", "ordering_cost", "setup_cost", "k"},
	"holding_cost":    {"holding_cost", "carrying_cost", "h"},
	"unit_cost":       {"unit_cost", "unit_price", "cost_per_unit"},
	"lead_time":       {"lead_time", "leadtime", "l"},
	"sigma":           {"sigma", "demand_std", "demand_sigma", "std_dev"},
	"sigma_basis":     {"sigma_basis", "sigma_unit"},
	"service_level":   {"service_level", "sl", "service_target"},
	"baseline_qty":    {"baseline_qty", "baseline_quantity", "current_order_qty", "q_base"},
	"baseline_freq":   {"baseline_freq", "orders_per_period", "baseline_orders"},
	"baseline_rop":    {"baseline_rop", "baseline_reorder_point", "current_reorder_point"},
	"position":        {"position", "inventory_position", "current_position", "stock_position"},
	"min_order_qty":   {"min_order_qty", "moq"},
	"order_multiple":  {"order_multiple", "multiple", "pack_size"},
}

// columns the engine cannot do without; everything else is optional.
var requiredColumns = []string{"sku", "demand", "order_cost", "holding_cost"}

type columnIndex map[string]int

// ParseFile reads a CSV or XLSX upload by extension.
func ParseFile(path string) ([]domain.InputRow, []domain.RejectedRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return ParseCSV(f)
	case ".xlsx":
		return ParseXLSX(path)
	default:
		return nil, nil, fmt.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// ParseCSV reads batch rows from a CSV stream with a header row. Rows whose
// cells cannot be parsed come back as rejections, not as an error: one bad
// row never blocks the rest of the upload.
func ParseCSV(r io.Reader) ([]domain.InputRow, []domain.RejectedRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header row: %w", err)
	}

	records := make([][]string, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		records = append(records, record)
	}

	return rowsFromRecords(header, records)
}

func rowsFromRecords(header []string, records [][]string) ([]domain.InputRow, []domain.RejectedRow, error) {
	idx, err := indexColumns(header)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]domain.InputRow, 0, len(records))
	rejected := make([]domain.RejectedRow, 0)
	for i, record := range records {
		line := i + 1
		row, err := parseRow(idx, record, line)
		if err != nil {
			rejected = append(rejected, domain.RejectedRow{
				Line:   line,
				SKU:    cell(idx, record, "sku"),
				Reason: err.Error(),
			})
			continue
		}
		rows = append(rows, row)
	}
	return rows, rejected, nil
}

func indexColumns(header []string) (columnIndex, error) {
	byAlias := make(map[string]string)
	for canonical, aliases := range columnAliases {
		for _, a := range aliases {
			byAlias[a] = canonical
		}
	}

	idx := make(columnIndex)
	for i, name := range header {
		normalized := normalizeHeader(name)
		if canonical, ok := byAlias[normalized]; ok {
			if _, dup := idx[canonical]; !dup {
				idx[canonical] = i
			}
		}
	}

	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	return idx, nil
}

func normalizeHeader(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

func parseRow(idx columnIndex, record []string, line int) (domain.InputRow, error) {
	sku := cell(idx, record, "sku")
	if sku == "" {
		return domain.InputRow{}, fmt.Errorf("empty sku")
	}

	params := domain.ItemParameters{SKU: sku}
	var err error
	if params.Demand, err = requireFloat(idx, record, "demand"); err != nil {
		return domain.InputRow{}, err
	}
	if params.OrderCost, err = requireFloat(idx, record, "order_cost"); err != nil {
		return domain.InputRow{}, err
	}
	if params.HoldingCost, err = requireFloat(idx, record, "holding_cost"); err != nil {
		return domain.InputRow{}, err
	}
	if params.LeadTime, err = optionalFloatValue(idx, record, "lead_time"); err != nil {
		return domain.InputRow{}, err
	}
	if params.Sigma, err = optionalFloatValue(idx, record, "sigma"); err != nil {
		return domain.InputRow{}, err
	}
	if params.MinOrderQty, err = optionalFloatValue(idx, record, "min_order_qty"); err != nil {
		return domain.InputRow{}, err
	}
	if params.OrderMultiple, err = optionalFloatValue(idx, record, "order_multiple"); err != nil {
		return domain.InputRow{}, err
	}
	if params.UnitCost, err = optionalFloat(idx, record, "unit_cost"); err != nil {
		return domain.InputRow{}, err
	}
	if params.ServiceLevel, err = optionalFloat(idx, record, "service_level"); err != nil {
		return domain.InputRow{}, err
	}
	if basis := cell(idx, record, "sigma_basis"); basis != "" {
		params.SigmaBasis = domain.SigmaBasis(normalizeHeader(basis))
	}

	row := domain.InputRow{Line: line, Params: params}

	baselineQty, err := optionalFloat(idx, record, "baseline_qty")
	if err != nil {
		return domain.InputRow{}, err
	}
	baselineFreq, err := optionalFloat(idx, record, "baseline_freq")
	if err != nil {
		return domain.InputRow{}, err
	}
	baselineROP, err := optionalFloat(idx, record, "baseline_rop")
	if err != nil {
		return domain.InputRow{}, err
	}
	if baselineQty != nil || baselineFreq != nil || baselineROP != nil {
		row.Baseline = &domain.BaselinePolicy{
			OrderQty:        baselineQty,
			OrdersPerPeriod: baselineFreq,
			ReorderPoint:    baselineROP,
		}
	}

	if row.Position, err = optionalFloat(idx, record, "position"); err != nil {
		return domain.InputRow{}, err
	}
	return row, nil
}

func cell(idx columnIndex, record []string, column string) string {
	i, ok := idx[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func requireFloat(idx columnIndex, record []string, column string) (float64, error) {
	v := cell(idx, record, column)
	if v == "" {
		return 0, fmt.Errorf("missing value for %s", column)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q for %s", v, column)
	}
	return f, nil
}

// optionalFloat distinguishes "column absent / cell empty" (nil) from an
// explicit value, so optional inputs never collapse to zero.
func optionalFloat(idx columnIndex, record []string, column string) (*float64, error) {
	v := cell(idx, record, column)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q for %s", v, column)
	}
	return &f, nil
}

func optionalFloatValue(idx columnIndex, record []string, column string) (float64, error) {
	f, err := optionalFloat(idx, record, column)
	if err != nil || f == nil {
		return 0, err
	}
	return *f, nil
}
