package engine

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/replenlab/eoq-engine/internal/domain"
)

// DefaultWorkerCount bounds the per-batch evaluation parallelism when the
// caller does not configure one.
const DefaultWorkerCount = 4

// Evaluator runs the policy calculator, comparator and reorder advisor over
// whole batches of rows.
type Evaluator struct {
	workers int
}

// NewEvaluator creates a batch evaluator with the given worker count.
func NewEvaluator(workers int) *Evaluator {
	if workers < 1 {
		workers = DefaultWorkerCount
	}
	return &Evaluator{workers: workers}
}

// EvaluateOne composes policy, comparison and recommendation for a single
// row. Used both per batch row and for the interactive single-item query.
func EvaluateOne(row domain.InputRow) (domain.ItemResult, error) {
	policy, err := ComputePolicy(row.Params)
	if err != nil {
		return domain.ItemResult{}, err
	}

	result := domain.ItemResult{
		Line:       row.Line,
		SKU:        row.Params.SKU,
		Policy:     policy,
		Comparison: Compare(row.Params, policy, row.Baseline),
	}
	if row.Position != nil {
		rec := Recommend(policy, *row.Position)
		result.Recommendation = &rec
	}
	return result, nil
}

// EvaluateBatch processes every row independently: an invalid row becomes a
// rejection entry and never aborts the rest. Rows are evaluated in parallel
// and joined before ranking, so the output order is deterministic regardless
// of scheduling. Cancelling ctx abandons the batch; nothing partial escapes.
func (e *Evaluator) EvaluateBatch(ctx context.Context, rows []domain.InputRow) (*domain.BatchResult, error) {
	type slot struct {
		result   domain.ItemResult
		rejected *domain.RejectedRow
	}
	slots := make([]slot, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, row := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := EvaluateOne(row)
			if err != nil {
				slots[i].rejected = &domain.RejectedRow{
					Line:   row.Line,
					SKU:    row.Params.SKU,
					Reason: err.Error(),
				}
				return nil
			}
			slots[i].result = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &domain.BatchResult{
		Results:  make([]domain.ItemResult, 0, len(rows)),
		Rejected: make([]domain.RejectedRow, 0),
	}
	for _, s := range slots {
		if s.rejected != nil {
			batch.Rejected = append(batch.Rejected, *s.rejected)
			continue
		}
		batch.Results = append(batch.Results, s.result)
	}

	rankResults(batch.Results)
	batch.Summary = summarize(len(rows), batch)
	return batch, nil
}

// rankResults orders accepted rows by descending absolute savings, ties by
// descending percentage savings, then ascending SKU. Rows without an
// applicable comparison sort after all compared rows and keep their relative
// input order.
func rankResults(results []domain.ItemResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Comparison, results[j].Comparison
		if a.Applicable != b.Applicable {
			return a.Applicable
		}
		if !a.Applicable {
			return false // preserve input order among not-applicable rows
		}
		if *a.Savings != *b.Savings {
			return *a.Savings > *b.Savings
		}
		ap, bp := savingsPct(a), savingsPct(b)
		if ap != bp {
			return ap > bp
		}
		return results[i].SKU < results[j].SKU
	})
}

func savingsPct(c domain.ComparisonResult) float64 {
	if c.SavingsPercent == nil {
		return math.Inf(-1)
	}
	return *c.SavingsPercent
}

func summarize(submitted int, batch *domain.BatchResult) domain.BatchSummary {
	summary := domain.BatchSummary{
		Submitted: submitted,
		Accepted:  len(batch.Results),
		Rejected:  len(batch.Rejected),
	}
	for _, r := range batch.Results {
		if !r.Comparison.Applicable {
			continue
		}
		summary.Compared++
		summary.TotalBaselineCost += *r.Comparison.BaselineCost
		summary.TotalOptimalCost += r.Comparison.OptimalCost
		summary.TotalSavings += *r.Comparison.Savings
	}
	return summary
}
