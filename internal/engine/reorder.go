package engine

import "github.com/replenlab/eoq-engine/internal/domain"

// Recommend decides whether to place an order right now. The trigger is
// position <= r, boundary inclusive: sitting exactly at the reorder point
// already calls for an order. Pure classification, no side effects.
func Recommend(policy domain.OptimalPolicy, position float64) domain.ReorderRecommendation {
	rec := domain.ReorderRecommendation{
		Position:     position,
		ReorderPoint: policy.ReorderPoint,
		OrderNow:     position <= policy.ReorderPoint,
		Continuous:   policy.Continuous,
	}
	if rec.OrderNow && !policy.Continuous {
		qty := policy.OrderQty
		rec.SuggestedQty = &qty
	}
	return rec
}
