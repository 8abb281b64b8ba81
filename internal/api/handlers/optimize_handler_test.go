package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replenlab/eoq-engine/internal/api"
	"github.com/replenlab/eoq-engine/internal/config"
	"github.com/replenlab/eoq-engine/internal/domain"
	"github.com/replenlab/eoq-engine/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	svc := service.NewOptimizationService(
		config.EngineConfig{WorkerCount: 2, SigmaBasis: "lead_time", ServiceLevel: 0.95},
		dir,
	)
	return api.NewRouter(svc, dir, nil)
}

func TestOptimizeItem(t *testing.T) {
	router := newTestRouter(t)

	body := `{
		"params": {"sku": "SKU-001", "demand": 1000, "order_cost": 50, "holding_cost": 2, "lead_time": 0.1},
		"baseline": {"order_qty": 500},
		"position": 80
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize/item", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result domain.ItemResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "SKU-001", result.SKU)
	assert.InDelta(t, 223.6068, result.Policy.OrderQty, 1e-3)
	require.True(t, result.Comparison.Applicable)
	assert.InDelta(t, 152.7864, *result.Comparison.Savings, 1e-3)
	require.NotNil(t, result.Recommendation)
	assert.True(t, result.Recommendation.OrderNow)
}

func TestOptimizeItem_InvalidParameters(t *testing.T) {
	router := newTestRouter(t)

	body := `{"params": {"sku": "SKU-001", "demand": -1, "order_cost": 50, "holding_cost": 2}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize/item", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["rejected"])
	assert.Contains(t, resp["reason"], "demand")
}

func TestOptimizeBatch(t *testing.T) {
	router := newTestRouter(t)

	body := `{"rows": [
		{"params": {"sku": "good", "demand": 1000, "order_cost": 50, "holding_cost": 2}, "baseline": {"order_qty": 500}},
		{"params": {"sku": "bad", "demand": 1000, "order_cost": 50, "holding_cost": 0}}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var run domain.BatchRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	require.NotNil(t, run.Result)
	assert.Equal(t, 2, run.Submitted)
	assert.Equal(t, 1, run.Accepted)
	assert.Equal(t, 1, run.RejectedN)
	require.Len(t, run.Result.Rejected, 1)
	assert.Equal(t, "bad", run.Result.Rejected[0].SKU)
}

func TestUploadBatch(t *testing.T) {
	router := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "batch.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("sku,demand,order_cost,holding_cost,baseline_qty,position\n" +
		"SKU-001,1000,50,2,500,80\n" +
		"SKU-002,800,40,1,,\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var run domain.BatchRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, "batch.csv", run.Source)
	assert.Equal(t, 2, run.Submitted)
	assert.Equal(t, 2, run.Accepted)
	require.NotNil(t, run.Result)
	require.Len(t, run.Result.Results, 2)
	// Compared row first, not-applicable row after.
	assert.Equal(t, "SKU-001", run.Result.Results[0].SKU)
}

func TestGetRuns_NoRepository(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestGetRun_NotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/does-not-exist", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
