package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replenlab/eoq-engine/internal/domain"
	"github.com/replenlab/eoq-engine/internal/engine"
	"github.com/replenlab/eoq-engine/internal/export"
)

func evaluate(t *testing.T, rows []domain.InputRow) *domain.BatchResult {
	t.Helper()
	result, err := engine.NewEvaluator(1).EvaluateBatch(context.Background(), rows)
	require.NoError(t, err)
	return result
}

func TestWriteCSV(t *testing.T) {
	qty := 500.0
	pos := 80.0
	rows := []domain.InputRow{
		{
			Line: 1,
			Params: domain.ItemParameters{
				SKU: "SKU-001", Demand: 1000, OrderCost: 50, HoldingCost: 2, LeadTime: 0.1,
			},
			Baseline: &domain.BaselinePolicy{OrderQty: &qty},
			Position: &pos,
		},
		{
			Line:   2,
			Params: domain.ItemParameters{SKU: "SKU-002", Demand: 800, OrderCost: 40, HoldingCost: 1},
		},
		{
			Line:   3,
			Params: domain.ItemParameters{SKU: "SKU-003", Demand: -5, OrderCost: 40, HoldingCost: 1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, evaluate(t, rows)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4) // header + 2 accepted + 1 rejected

	assert.Equal(t, "sku", records[0][0])

	// Compared row ranks first.
	first := records[1]
	assert.Equal(t, "SKU-001", first[0])
	assert.Equal(t, "223.6068", first[1])
	assert.Equal(t, "100", first[2])
	assert.Equal(t, "447.21", first[4])
	assert.Equal(t, "600", first[5])
	assert.Equal(t, "152.79", first[6])
	assert.Equal(t, "true", first[8])
	assert.Empty(t, first[10])

	// Row without baseline: comparison cells stay empty, not "0".
	second := records[2]
	assert.Equal(t, "SKU-002", second[0])
	assert.Empty(t, second[5])
	assert.Empty(t, second[6])
	assert.Empty(t, second[7])
	assert.Empty(t, second[8], "no position given, no order-now flag")

	rejectedRow := records[3]
	assert.Equal(t, "SKU-003", rejectedRow[0])
	assert.Contains(t, rejectedRow[10], "demand")
	assert.Empty(t, rejectedRow[1])
}

func TestWriteCSV_ContinuousReplenishment(t *testing.T) {
	pos := 0.0
	rows := []domain.InputRow{
		{
			Line:     1,
			Params:   domain.ItemParameters{SKU: "SKU-001", Demand: 100, OrderCost: 0, HoldingCost: 1, LeadTime: 1, Sigma: 5},
			Position: &pos,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, evaluate(t, rows)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	row := records[1]
	assert.Equal(t, export.ContinuousLabel, row[1])
	assert.Equal(t, "true", row[8])
	assert.Equal(t, export.ContinuousLabel, row[9])
}
