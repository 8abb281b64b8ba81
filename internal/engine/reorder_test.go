package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replenlab/eoq-engine/internal/engine"
)

func TestRecommend_BelowReorderPoint(t *testing.T) {
	policy, err := engine.ComputePolicy(baseParams())
	require.NoError(t, err)
	require.InDelta(t, 100, policy.ReorderPoint, 1e-9)

	rec := engine.Recommend(policy, 80)

	assert.True(t, rec.OrderNow)
	require.NotNil(t, rec.SuggestedQty)
	assert.InDelta(t, 223.6068, *rec.SuggestedQty, 1e-3)
}

func TestRecommend_AboveReorderPoint(t *testing.T) {
	policy, err := engine.ComputePolicy(baseParams())
	require.NoError(t, err)

	rec := engine.Recommend(policy, 150)

	assert.False(t, rec.OrderNow)
	assert.Nil(t, rec.SuggestedQty)
}

// Position exactly at r must trigger an order: the boundary is inclusive.
func TestRecommend_BoundaryInclusive(t *testing.T) {
	policy, err := engine.ComputePolicy(baseParams())
	require.NoError(t, err)

	rec := engine.Recommend(policy, policy.ReorderPoint)

	assert.True(t, rec.OrderNow)
	assert.NotNil(t, rec.SuggestedQty)
}

func TestRecommend_ContinuousPolicyHasNoNumericQty(t *testing.T) {
	params := baseParams()
	params.OrderCost = 0
	params.LeadTime = 1
	params.Sigma = 10
	policy, err := engine.ComputePolicy(params)
	require.NoError(t, err)
	require.True(t, policy.Continuous)

	rec := engine.Recommend(policy, 0)

	assert.True(t, rec.OrderNow)
	assert.True(t, rec.Continuous, "suggestion is continuous replenishment, not a quantity")
	assert.Nil(t, rec.SuggestedQty)
}
