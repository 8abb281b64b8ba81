package engine

import (
	"math"

	"github.com/replenlab/eoq-engine/internal/domain"
)

// Compare evaluates the baseline policy with the same cost formula used for
// the optimum and reports the savings. A nil baseline, or one that does not
// pin down an order quantity, yields a not-applicable result: "no data" is
// never reported as zero savings.
//
// The baseline side reuses the optimal safety stock unless the baseline
// specifies its own reorder point, in which case its implied safety stock is
// max(0, r_base - expected lead-time demand).
func Compare(params domain.ItemParameters, policy domain.OptimalPolicy, baseline *domain.BaselinePolicy) domain.ComparisonResult {
	result := domain.ComparisonResult{OptimalCost: policy.TotalCost}

	qty, ok := baseline.Qty(params.Demand)
	if !ok || qty <= 0 {
		return result
	}

	ss := policy.SafetyStock
	if baseline.ReorderPoint != nil && *baseline.ReorderPoint > 0 {
		ss = math.Max(0, *baseline.ReorderPoint-policy.LeadTimeDemand())
	}

	_, _, baselineCost := PeriodCost(params, qty, ss)
	savings := baselineCost - policy.TotalCost

	result.Applicable = true
	result.BaselineQty = &qty
	result.BaselineCost = &baselineCost
	result.Savings = &savings
	if baselineCost > 0 {
		pct := savings / baselineCost * 100
		result.SavingsPercent = &pct
	}
	return result
}
