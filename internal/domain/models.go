// internal/domain/models.go
package domain

import "time"

// SigmaBasis declares the time unit the demand variability of an item is
// expressed in. The safety stock formula needs sigma over the lead time; when
// the caller supplies a per-period sigma it is converted with sigma * sqrt(L).
type SigmaBasis string

const (
	// SigmaOverLeadTime means sigma is already the standard deviation of
	// demand during the lead time. This is the default.
	SigmaOverLeadTime SigmaBasis = "lead_time"
	// SigmaPerPeriod means sigma is the per-period standard deviation and
	// must be scaled by sqrt(lead time) before computing safety stock.
	SigmaPerPeriod SigmaBasis = "period"
)

// DefaultServiceLevel is the stockout-protection target used when an item
// does not specify one (95% corresponds to z ~ 1.645).
const DefaultServiceLevel = 0.95

// ItemParameters holds the demand, cost and lead-time inputs for one SKU.
// Demand, lead time and holding cost must share the same time base.
type ItemParameters struct {
	SKU           string     `json:"sku"`
	Demand        float64    `json:"demand"`       // D, units per period
	OrderCost     float64    `json:"order_cost"`   // K, cost per order placed
	HoldingCost   float64    `json:"holding_cost"` // h, cost per unit per period
	UnitCost      *float64   `json:"unit_cost,omitempty"`
	LeadTime      float64    `json:"lead_time"` // L, in periods
	Sigma         float64    `json:"sigma"`     // demand variability, see SigmaBasis
	SigmaBasis    SigmaBasis `json:"sigma_basis,omitempty"`
	ServiceLevel  *float64   `json:"service_level,omitempty"`  // probability of no stockout during lead time
	MinOrderQty   float64    `json:"min_order_qty,omitempty"`  // MOQ, 0 = none
	OrderMultiple float64    `json:"order_multiple,omitempty"` // pack size, 0 = none
}

// BaselinePolicy is the manager's current (non-optimized) ordering rule for a
// SKU. All fields are optional; a nil BaselinePolicy means no baseline was
// supplied and comparison fields are reported as not applicable.
type BaselinePolicy struct {
	OrderQty        *float64 `json:"order_qty,omitempty"`         // Q_base
	OrdersPerPeriod *float64 `json:"orders_per_period,omitempty"` // alternative to OrderQty: Q_base = D / frequency
	ReorderPoint    *float64 `json:"reorder_point,omitempty"`     // r_base; implies its own safety stock
}

// OptimalPolicy is the computed ordering policy for one SKU. Immutable once
// derived from its ItemParameters.
type OptimalPolicy struct {
	OrderQty     float64 `json:"order_qty"`      // Q*, after MOQ/multiple adjustment
	RawOrderQty  float64 `json:"raw_order_qty"`  // Q* straight from the EOQ formula
	ReorderPoint float64 `json:"reorder_point"`  // r = D*L + SS
	SafetyStock  float64 `json:"safety_stock"`   // SS
	OrderingCost float64 `json:"ordering_cost"`  // (D/Q)*K per period
	HoldingCost  float64 `json:"holding_cost"`   // (Q/2 + SS)*h per period
	TotalCost    float64 `json:"total_cost"`
	ZScore       float64 `json:"z_score"`
	// Continuous marks the K = 0 degenerate case: with no fixed ordering
	// cost the EOQ is not meaningful and the item should be replenished
	// continuously. Quantity fields are zero and must not be read as a
	// literal order size.
	Continuous bool `json:"continuous"`
}

// LeadTimeDemand returns the expected demand during lead time (the reorder
// point net of safety stock).
func (p OptimalPolicy) LeadTimeDemand() float64 {
	return p.ReorderPoint - p.SafetyStock
}

// ComparisonResult contrasts the optimal policy cost with the baseline cost.
// Nil pointer fields mean "not applicable" (no baseline, or a zero baseline
// cost for the percentage), which is distinct from a zero savings.
type ComparisonResult struct {
	Applicable     bool     `json:"applicable"`
	BaselineQty    *float64 `json:"baseline_qty,omitempty"`
	BaselineCost   *float64 `json:"baseline_cost,omitempty"`
	OptimalCost    float64  `json:"optimal_cost"`
	Savings        *float64 `json:"savings,omitempty"`
	SavingsPercent *float64 `json:"savings_percent,omitempty"`
}

// ReorderRecommendation is the order-now decision for a SKU given its
// current inventory position (on hand + on order - backorders).
type ReorderRecommendation struct {
	Position     float64  `json:"position"`
	ReorderPoint float64  `json:"reorder_point"`
	OrderNow     bool     `json:"order_now"`
	SuggestedQty *float64 `json:"suggested_qty,omitempty"`
	// Continuous mirrors the policy annotation: the suggestion is
	// "replenish continuously" rather than a numeric quantity.
	Continuous bool `json:"continuous"`
}

// InputRow is one row of a batch submission.
type InputRow struct {
	Line     int             `json:"line"` // 1-based position in the submitted batch
	Params   ItemParameters  `json:"params"`
	Baseline *BaselinePolicy `json:"baseline,omitempty"`
	Position *float64        `json:"position,omitempty"`
}

// ItemResult combines the derived records for one accepted SKU.
type ItemResult struct {
	Line           int                    `json:"line"`
	SKU            string                 `json:"sku"`
	Policy         OptimalPolicy          `json:"policy"`
	Comparison     ComparisonResult       `json:"comparison"`
	Recommendation *ReorderRecommendation `json:"recommendation,omitempty"`
}

// RejectedRow records a batch row that failed validation.
type RejectedRow struct {
	Line   int    `json:"line"`
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}

// BatchSummary aggregates a batch. Cost totals sum only rows with an
// applicable comparison; rows without a baseline are excluded, not zeroed.
type BatchSummary struct {
	Submitted         int     `json:"submitted"`
	Accepted          int     `json:"accepted"`
	Rejected          int     `json:"rejected"`
	Compared          int     `json:"compared"`
	TotalBaselineCost float64 `json:"total_baseline_cost"`
	TotalOptimalCost  float64 `json:"total_optimal_cost"`
	TotalSavings      float64 `json:"total_savings"`
}

// BatchResult is the outcome of one batch submission. A new submission
// always produces a new BatchResult; results are never mutated in place.
type BatchResult struct {
	Results  []ItemResult  `json:"results"` // ranked by descending savings
	Rejected []RejectedRow `json:"rejected"`
	Summary  BatchSummary  `json:"summary"`
}

// BatchRun is a persisted record of a batch evaluation, kept for history.
type BatchRun struct {
	ID           string       `json:"id" db:"id"`
	Source       string       `json:"source" db:"source"` // uploaded filename or "api"
	Submitted    int          `json:"submitted" db:"submitted"`
	Accepted     int          `json:"accepted" db:"accepted"`
	RejectedN    int          `json:"rejected" db:"rejected"`
	TotalSavings float64      `json:"total_savings" db:"total_savings"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	Result       *BatchResult `json:"result,omitempty" db:"-"`
}
