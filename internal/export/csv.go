// Package export renders batch results into the tabular output schema
// consumed by downstream spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/replenlab/eoq-engine/internal/domain"
)

// ContinuousLabel is written in place of a numeric quantity for items under
// the zero-order-cost continuous replenishment annotation.
const ContinuousLabel = "continuous"

var header = []string{
	"sku", "order_qty", "reorder_point", "safety_stock", "optimal_cost",
	"baseline_cost", "savings", "savings_pct", "order_now", "suggested_qty",
	"rejection_reason",
}

// WriteCSV writes ranked results followed by rejected rows. Not-applicable
// fields are left empty, never written as zero.
func WriteCSV(w io.Writer, batch *domain.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range batch.Results {
		if err := cw.Write(resultRecord(r)); err != nil {
			return fmt.Errorf("failed to write result row %s: %w", r.SKU, err)
		}
	}
	for _, r := range batch.Rejected {
		record := make([]string, len(header))
		record[0] = r.SKU
		record[len(header)-1] = r.Reason
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write rejected row %s: %w", r.SKU, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the batch to a file path, creating or truncating it.
func WriteCSVFile(path string, batch *domain.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return WriteCSV(f, batch)
}

func resultRecord(r domain.ItemResult) []string {
	record := []string{
		r.SKU,
		qty(r.Policy.OrderQty, r.Policy.Continuous),
		num(r.Policy.ReorderPoint),
		num(r.Policy.SafetyStock),
		money(r.Policy.TotalCost),
		"", "", "", "", "", "",
	}
	if r.Comparison.Applicable {
		record[5] = money(*r.Comparison.BaselineCost)
		record[6] = money(*r.Comparison.Savings)
		if r.Comparison.SavingsPercent != nil {
			record[7] = num(*r.Comparison.SavingsPercent)
		}
	}
	if rec := r.Recommendation; rec != nil {
		record[8] = fmt.Sprintf("%t", rec.OrderNow)
		if rec.Continuous && rec.OrderNow {
			record[9] = ContinuousLabel
		} else if rec.SuggestedQty != nil {
			record[9] = num(*rec.SuggestedQty)
		}
	}
	return record
}

func qty(v float64, continuous bool) string {
	if continuous {
		return ContinuousLabel
	}
	return num(v)
}

// money rounds to cents; quantities keep more precision.
func money(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}

func num(v float64) string {
	return decimal.NewFromFloat(v).Round(4).String()
}
