package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidParameters tags every parameter-validation failure so callers can
// match with errors.Is regardless of the field that failed.
var ErrInvalidParameters = errors.New("invalid parameters")

// ValidationError reports one violated input constraint. It wraps
// ErrInvalidParameters and carries the field name for rejection reporting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidParameters
}

// Validate checks the constraints a policy computation requires. Rows that
// fail are rejected individually; the batch keeps going.
func (p ItemParameters) Validate() error {
	if p.Demand <= 0 {
		return &ValidationError{Field: "demand", Reason: fmt.Sprintf("must be positive, got %v", p.Demand)}
	}
	if p.OrderCost < 0 {
		return &ValidationError{Field: "order_cost", Reason: fmt.Sprintf("must not be negative, got %v", p.OrderCost)}
	}
	if p.HoldingCost <= 0 {
		return &ValidationError{Field: "holding_cost", Reason: fmt.Sprintf("must be positive, got %v", p.HoldingCost)}
	}
	if p.UnitCost != nil && *p.UnitCost < 0 {
		return &ValidationError{Field: "unit_cost", Reason: fmt.Sprintf("must not be negative, got %v", *p.UnitCost)}
	}
	if p.LeadTime < 0 {
		return &ValidationError{Field: "lead_time", Reason: fmt.Sprintf("must not be negative, got %v", p.LeadTime)}
	}
	if p.Sigma < 0 {
		return &ValidationError{Field: "sigma", Reason: fmt.Sprintf("must not be negative, got %v", p.Sigma)}
	}
	if p.ServiceLevel != nil && (*p.ServiceLevel <= 0 || *p.ServiceLevel >= 1) {
		return &ValidationError{Field: "service_level", Reason: fmt.Sprintf("must be in (0, 1), got %v", *p.ServiceLevel)}
	}
	if p.MinOrderQty < 0 {
		return &ValidationError{Field: "min_order_qty", Reason: fmt.Sprintf("must not be negative, got %v", p.MinOrderQty)}
	}
	if p.OrderMultiple < 0 {
		return &ValidationError{Field: "order_multiple", Reason: fmt.Sprintf("must not be negative, got %v", p.OrderMultiple)}
	}
	switch p.SigmaBasis {
	case "", SigmaOverLeadTime, SigmaPerPeriod:
	default:
		return &ValidationError{Field: "sigma_basis", Reason: fmt.Sprintf("unknown basis %q", p.SigmaBasis)}
	}
	return nil
}

// Qty resolves the baseline order quantity, deriving it from the order
// frequency when only that is given. Returns false when the baseline does not
// pin down a quantity.
func (b *BaselinePolicy) Qty(demand float64) (float64, bool) {
	if b == nil {
		return 0, false
	}
	if b.OrderQty != nil {
		return *b.OrderQty, true
	}
	if b.OrdersPerPeriod != nil && *b.OrdersPerPeriod > 0 {
		return demand / *b.OrdersPerPeriod, true
	}
	return 0, false
}
