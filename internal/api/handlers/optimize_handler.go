// internal/api/handlers/optimize_handler.go
package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/replenlab/eoq-engine/internal/domain"
	"github.com/replenlab/eoq-engine/internal/export"
	"github.com/replenlab/eoq-engine/internal/service"
)

type OptimizeHandler struct {
	svc       *service.OptimizationService
	uploadDir string
}

func NewOptimizeHandler(svc *service.OptimizationService, uploadDir string) *OptimizeHandler {
	return &OptimizeHandler{svc: svc, uploadDir: uploadDir}
}

// OptimizeItem answers the interactive single-SKU query synchronously.
// Invalid parameters come back as a rejection with reason text, not a 500.
func (h *OptimizeHandler) OptimizeItem(c *gin.Context) {
	var row domain.InputRow
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.svc.EvaluateItem(c.Request.Context(), row)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidParameters) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"rejected": true,
				"sku":      row.Params.SKU,
				"reason":   err.Error(),
			})
			return
		}
		log.Error().Err(err).Msg("single item evaluation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// OptimizeBatch evaluates rows posted as JSON and returns the full result
// table plus the rejected-rows table in one response.
func (h *OptimizeHandler) OptimizeBatch(c *gin.Context) {
	var body struct {
		Rows []domain.InputRow `json:"rows"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(body.Rows) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no rows provided"})
		return
	}

	run, err := h.svc.EvaluateRows(c.Request.Context(), body.Rows, "api")
	if err != nil {
		log.Error().Err(err).Msg("batch evaluation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// UploadBatch accepts a CSV or XLSX upload and evaluates it synchronously:
// the manager gets the ranked results and the rejected rows right away.
func (h *OptimizeHandler) UploadBatch(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	path := filepath.Join(h.uploadDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		log.Error().Err(err).Str("filename", file.Filename).Msg("failed to save uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save uploaded file"})
		return
	}

	run, err := h.svc.EvaluateFile(c.Request.Context(), path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetRuns lists persisted batch runs, newest first.
func (h *OptimizeHandler) GetRuns(c *gin.Context) {
	limit := parsePositiveIntWithDefault(c.Query("limit"), 50)
	offset := parseNonNegativeInt(c.Query("offset"))

	runs, err := h.svc.GetRuns(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch runs"})
		return
	}

	c.JSON(http.StatusOK, runs)
}

// GetRun returns one run with its full result table.
func (h *OptimizeHandler) GetRun(c *gin.Context) {
	run, err := h.fetchRun(c)
	if run == nil || err != nil {
		return
	}
	c.JSON(http.StatusOK, run)
}

// ExportRun streams a run's result table as CSV.
func (h *OptimizeHandler) ExportRun(c *gin.Context) {
	run, err := h.fetchRun(c)
	if run == nil || err != nil {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="result_`+run.ID+`.csv"`)
	if err := export.WriteCSV(c.Writer, run.Result); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("failed to stream csv export")
	}
}

func (h *OptimizeHandler) fetchRun(c *gin.Context) (*domain.BatchRun, error) {
	id := strings.TrimSpace(c.Param("id"))
	run, err := h.svc.GetRun(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("run_id", id).Msg("failed to load run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch run"})
		return nil, err
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return nil, nil
	}
	return run, nil
}

func parsePositiveIntWithDefault(value string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func parseNonNegativeInt(value string) int {
	if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && v > 0 {
		return v
	}
	return 0
}
