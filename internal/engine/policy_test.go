package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replenlab/eoq-engine/internal/domain"
	"github.com/replenlab/eoq-engine/internal/engine"
)

func floatPtr(v float64) *float64 { return &v }

// The classic textbook case: D=1000, K=50, h=2 per period.
func baseParams() domain.ItemParameters {
	return domain.ItemParameters{
		SKU:         "SKU-001",
		Demand:      1000,
		OrderCost:   50,
		HoldingCost: 2,
		LeadTime:    0.1,
	}
}

func TestComputePolicy_TextbookScenario(t *testing.T) {
	policy, err := engine.ComputePolicy(baseParams())
	require.NoError(t, err)

	// Q* = sqrt(2*1000*50/2) = sqrt(50000)
	assert.InDelta(t, 223.6068, policy.OrderQty, 1e-3)
	assert.InDelta(t, 223.6068, policy.RawOrderQty, 1e-3)

	// sigma = 0 => deterministic demand, no safety stock, r = D*L
	assert.Zero(t, policy.SafetyStock)
	assert.InDelta(t, 100, policy.ReorderPoint, 1e-9)

	// At the optimum the ordering and holding terms balance.
	assert.InDelta(t, 223.6068, policy.OrderingCost, 1e-3)
	assert.InDelta(t, 223.6068, policy.HoldingCost, 1e-3)
	assert.InDelta(t, 447.2136, policy.TotalCost, 1e-3)
	assert.False(t, policy.Continuous)
}

func TestComputePolicy_SafetyStock(t *testing.T) {
	params := baseParams()
	params.LeadTime = 4
	params.Sigma = 10
	params.ServiceLevel = floatPtr(0.95)

	policy, err := engine.ComputePolicy(params)
	require.NoError(t, err)

	// z(95%) ~ 1.6449, sigma already over lead time
	assert.InDelta(t, 1.6449, policy.ZScore, 1e-3)
	assert.InDelta(t, 16.449, policy.SafetyStock, 1e-2)
	assert.InDelta(t, 4000+16.449, policy.ReorderPoint, 1e-2)

	// Safety stock is carried continuously, so it is charged holding cost.
	assert.InDelta(t, (policy.OrderQty/2+policy.SafetyStock)*2, policy.HoldingCost, 1e-9)
}

func TestComputePolicy_SigmaPerPeriodBasis(t *testing.T) {
	params := baseParams()
	params.LeadTime = 4
	params.Sigma = 10
	params.SigmaBasis = domain.SigmaPerPeriod
	params.ServiceLevel = floatPtr(0.95)

	policy, err := engine.ComputePolicy(params)
	require.NoError(t, err)

	// sigma_L = 10 * sqrt(4) = 20
	assert.InDelta(t, 1.6449*20, policy.SafetyStock, 1e-2)
}

func TestComputePolicy_NoSafetyStockCases(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*domain.ItemParameters)
	}{
		{"zero sigma", func(p *domain.ItemParameters) { p.Sigma = 0; p.LeadTime = 2 }},
		{"zero lead time", func(p *domain.ItemParameters) { p.Sigma = 15; p.LeadTime = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := baseParams()
			tt.modify(&params)

			policy, err := engine.ComputePolicy(params)
			require.NoError(t, err)
			assert.Zero(t, policy.SafetyStock)
			assert.InDelta(t, params.Demand*params.LeadTime, policy.ReorderPoint, 1e-9)
		})
	}
}

func TestComputePolicy_ZeroOrderCostIsContinuous(t *testing.T) {
	params := baseParams()
	params.OrderCost = 0
	params.LeadTime = 4
	params.Sigma = 10

	policy, err := engine.ComputePolicy(params)
	require.NoError(t, err, "K = 0 is an annotation, not an error")

	assert.True(t, policy.Continuous)
	assert.Zero(t, policy.OrderQty)
	assert.Zero(t, policy.OrderingCost)
	// Only the safety stock is carried.
	assert.InDelta(t, policy.SafetyStock*params.HoldingCost, policy.TotalCost, 1e-9)
	assert.Greater(t, policy.ReorderPoint, 0.0)
}

func TestComputePolicy_InvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*domain.ItemParameters)
		field  string
	}{
		{"zero demand", func(p *domain.ItemParameters) { p.Demand = 0 }, "demand"},
		{"negative demand", func(p *domain.ItemParameters) { p.Demand = -5 }, "demand"},
		{"zero holding cost", func(p *domain.ItemParameters) { p.HoldingCost = 0 }, "holding_cost"},
		{"negative holding cost", func(p *domain.ItemParameters) { p.HoldingCost = -1 }, "holding_cost"},
		{"negative order cost", func(p *domain.ItemParameters) { p.OrderCost = -10 }, "order_cost"},
		{"negative lead time", func(p *domain.ItemParameters) { p.LeadTime = -0.5 }, "lead_time"},
		{"negative sigma", func(p *domain.ItemParameters) { p.Sigma = -1 }, "sigma"},
		{"negative unit cost", func(p *domain.ItemParameters) { p.UnitCost = floatPtr(-3) }, "unit_cost"},
		{"service level at 1", func(p *domain.ItemParameters) { p.ServiceLevel = floatPtr(1) }, "service_level"},
		{"service level at 0", func(p *domain.ItemParameters) { p.ServiceLevel = floatPtr(0) }, "service_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := baseParams()
			tt.modify(&params)

			_, err := engine.ComputePolicy(params)
			require.ErrorIs(t, err, domain.ErrInvalidParameters)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestComputePolicy_Deterministic(t *testing.T) {
	params := baseParams()
	params.Sigma = 12
	params.LeadTime = 2.5
	params.ServiceLevel = floatPtr(0.99)

	first, err := engine.ComputePolicy(params)
	require.NoError(t, err)
	second, err := engine.ComputePolicy(params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputePolicy_OrderQtyAdjustments(t *testing.T) {
	tests := []struct {
		name     string
		moq      float64
		multiple float64
		want     float64
	}{
		{"no adjustment", 0, 0, 223.6068},
		{"moq above eoq", 300, 0, 300},
		{"moq below eoq", 100, 0, 223.6068},
		{"round up to multiple", 0, 50, 250},
		{"moq then multiple", 240, 100, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := baseParams()
			params.MinOrderQty = tt.moq
			params.OrderMultiple = tt.multiple

			policy, err := engine.ComputePolicy(params)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, policy.OrderQty, 1e-3)
			assert.InDelta(t, 223.6068, policy.RawOrderQty, 1e-3, "raw EOQ is kept for reporting")
		})
	}
}

func TestComputePolicy_Invariants(t *testing.T) {
	cases := []domain.ItemParameters{
		{SKU: "a", Demand: 10, OrderCost: 1, HoldingCost: 0.5},
		{SKU: "b", Demand: 5000, OrderCost: 120, HoldingCost: 3, LeadTime: 1.5, Sigma: 40},
		{SKU: "c", Demand: 1, OrderCost: 0.01, HoldingCost: 0.01, LeadTime: 10, Sigma: 0.5, ServiceLevel: floatPtr(0.8)},
	}
	for _, params := range cases {
		policy, err := engine.ComputePolicy(params)
		require.NoError(t, err)
		assert.Greater(t, policy.OrderQty, 0.0)
		assert.GreaterOrEqual(t, policy.SafetyStock, 0.0)
		assert.GreaterOrEqual(t, policy.ReorderPoint, policy.SafetyStock)
	}
}
