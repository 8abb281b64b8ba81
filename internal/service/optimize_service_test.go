package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replenlab/eoq-engine/internal/cache"
	"github.com/replenlab/eoq-engine/internal/config"
	"github.com/replenlab/eoq-engine/internal/domain"
	"github.com/replenlab/eoq-engine/internal/service"
)

func testConfig() config.EngineConfig {
	return config.EngineConfig{WorkerCount: 2, SigmaBasis: "lead_time", ServiceLevel: 0.95}
}

// memoryCache records hits and misses for cache interplay tests.
type memoryCache struct {
	store map[string]*domain.ItemResult
	hits  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: make(map[string]*domain.ItemResult)}
}

func (m *memoryCache) Get(_ context.Context, row domain.InputRow) (*domain.ItemResult, bool, error) {
	key, err := cache.Fingerprint(row)
	if err != nil {
		return nil, false, err
	}
	if r, ok := m.store[key]; ok {
		m.hits++
		return r, true, nil
	}
	return nil, false, nil
}

func (m *memoryCache) Set(_ context.Context, row domain.InputRow, result *domain.ItemResult) error {
	key, err := cache.Fingerprint(row)
	if err != nil {
		return err
	}
	m.store[key] = result
	return nil
}

func TestEvaluateItem_AppliesDefaults(t *testing.T) {
	svc := service.NewOptimizationService(testConfig(), "")

	row := domain.InputRow{
		Params: domain.ItemParameters{SKU: "a", Demand: 1000, OrderCost: 50, HoldingCost: 2, LeadTime: 4, Sigma: 10},
	}
	result, err := svc.EvaluateItem(context.Background(), row)
	require.NoError(t, err)

	// Default 95% service level applied => z ~ 1.6449.
	assert.InDelta(t, 1.6449, result.Policy.ZScore, 1e-3)
}

func TestEvaluateItem_InvalidParameters(t *testing.T) {
	svc := service.NewOptimizationService(testConfig(), "")

	row := domain.InputRow{Params: domain.ItemParameters{SKU: "a", Demand: 0, OrderCost: 50, HoldingCost: 2}}
	_, err := svc.EvaluateItem(context.Background(), row)
	require.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestEvaluateItem_UsesCache(t *testing.T) {
	mem := newMemoryCache()
	svc := service.NewOptimizationService(testConfig(), "", service.WithCache(mem))

	row := domain.InputRow{
		Params: domain.ItemParameters{SKU: "a", Demand: 1000, OrderCost: 50, HoldingCost: 2},
	}

	first, err := svc.EvaluateItem(context.Background(), row)
	require.NoError(t, err)
	assert.Zero(t, mem.hits)

	second, err := svc.EvaluateItem(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.hits)
	assert.Equal(t, first, second)
}

func TestEvaluateFile_MergesParseRejections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.csv")
	content := "sku,demand,order_cost,holding_cost,baseline_qty\n" +
		"ok-1,1000,50,2,500\n" +
		"bad-cell,oops,50,2,500\n" +
		"bad-params,1000,50,0,500\n" +
		"ok-2,800,40,1,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	svc := service.NewOptimizationService(testConfig(), dir)
	run, err := svc.EvaluateFile(context.Background(), path)
	require.NoError(t, err)

	result := run.Result
	require.NotNil(t, result)
	assert.Equal(t, 4, result.Summary.Submitted)
	assert.Equal(t, 2, result.Summary.Accepted)
	assert.Equal(t, 2, result.Summary.Rejected)
	assert.Equal(t, result.Summary.Submitted, result.Summary.Accepted+result.Summary.Rejected)

	require.Len(t, result.Rejected, 2)
	assert.Equal(t, "bad-cell", result.Rejected[0].SKU)
	assert.Equal(t, "bad-params", result.Rejected[1].SKU)

	// The export lands next to the run.
	_, err = os.Stat(filepath.Join(dir, "result_"+run.ID+".csv"))
	assert.NoError(t, err)
}

func TestGetRuns_WithoutRepository(t *testing.T) {
	svc := service.NewOptimizationService(testConfig(), "")
	runs, err := svc.GetRuns(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
