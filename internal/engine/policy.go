// Package engine implements the inventory optimization core: the EOQ policy
// calculator, the baseline cost comparator, the reorder advisor and the batch
// evaluator. Everything here is pure and stateless; callers own any caching
// or persistence.
package engine

import (
	"math"

	"github.com/replenlab/eoq-engine/internal/domain"
)

// ComputePolicy derives the optimal ordering policy for one item.
// Fails with a domain.ValidationError when the inputs cannot support a
// policy (D <= 0, h <= 0, negative costs or lead time).
func ComputePolicy(params domain.ItemParameters) (domain.OptimalPolicy, error) {
	if err := params.Validate(); err != nil {
		return domain.OptimalPolicy{}, err
	}

	z := zScore(serviceLevel(params))
	ss := safetyStock(params, z)
	reorderPoint := params.Demand*params.LeadTime + ss

	policy := domain.OptimalPolicy{
		ReorderPoint: reorderPoint,
		SafetyStock:  ss,
		ZScore:       z,
	}

	if params.OrderCost == 0 {
		// No fixed cost per order means the EOQ formula degenerates to
		// zero: the cost-minimizing policy is to replenish continuously
		// and carry only the safety stock.
		policy.Continuous = true
		policy.HoldingCost = ss * params.HoldingCost
		policy.TotalCost = policy.HoldingCost
		return policy, nil
	}

	raw := math.Sqrt(2 * params.Demand * params.OrderCost / params.HoldingCost)
	qty := adjustOrderQty(raw, params.MinOrderQty, params.OrderMultiple)

	policy.RawOrderQty = raw
	policy.OrderQty = qty
	policy.OrderingCost = params.Demand / qty * params.OrderCost
	policy.HoldingCost = (qty/2 + ss) * params.HoldingCost
	policy.TotalCost = policy.OrderingCost + policy.HoldingCost
	return policy, nil
}

// PeriodCost evaluates the per-period relevant cost of ordering qty units at
// a time while carrying ss of safety stock. Shared by the optimal and the
// baseline sides so both are judged by the same formula.
func PeriodCost(params domain.ItemParameters, qty, ss float64) (ordering, holding, total float64) {
	if qty > 0 {
		ordering = params.Demand / qty * params.OrderCost
	}
	holding = (qty/2 + math.Max(0, ss)) * params.HoldingCost
	return ordering, holding, ordering + holding
}

func serviceLevel(params domain.ItemParameters) float64 {
	if params.ServiceLevel != nil {
		return *params.ServiceLevel
	}
	return domain.DefaultServiceLevel
}

// safetyStock computes z * sigma_L. Deterministic demand (sigma = 0) or an
// instant lead time needs no buffer.
func safetyStock(params domain.ItemParameters, z float64) float64 {
	if params.Sigma == 0 || params.LeadTime == 0 {
		return 0
	}
	sigmaL := params.Sigma
	if params.SigmaBasis == domain.SigmaPerPeriod {
		sigmaL = params.Sigma * math.Sqrt(params.LeadTime)
	}
	return math.Max(0, z*sigmaL)
}

// zScore is the standard normal quantile for probability p, i.e. the z such
// that P(Z <= z) = p.
func zScore(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}

// adjustOrderQty enforces the minimum order quantity, then rounds up to the
// next order multiple.
func adjustOrderQty(qty, moq, multiple float64) float64 {
	adjusted := qty
	if moq > 0 && adjusted < moq {
		adjusted = moq
	}
	if multiple > 0 {
		adjusted = math.Ceil(adjusted/multiple) * multiple
	}
	return adjusted
}
