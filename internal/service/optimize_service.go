// internal/service/optimize_service.go
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/replenlab/eoq-engine/internal/cache"
	"github.com/replenlab/eoq-engine/internal/config"
	"github.com/replenlab/eoq-engine/internal/domain"
	"github.com/replenlab/eoq-engine/internal/engine"
	"github.com/replenlab/eoq-engine/internal/export"
	"github.com/replenlab/eoq-engine/internal/ingest"
	"github.com/replenlab/eoq-engine/internal/repository"
	"github.com/replenlab/eoq-engine/internal/storage"
)

// OptimizationService wires the pure engine to its collaborators: upload
// parsing, result caching, run history and the upload archive. Repository,
// cache and archive are all optional; the engine works without any of them.
type OptimizationService struct {
	evaluator *engine.Evaluator
	defaults  config.EngineConfig
	outputDir string
	repo      repository.RunRepository
	cache     cache.ResultCache
	archive   storage.ObjectStorage
}

type Option func(*OptimizationService)

func WithRepository(repo repository.RunRepository) Option {
	return func(s *OptimizationService) { s.repo = repo }
}

func WithCache(c cache.ResultCache) Option {
	return func(s *OptimizationService) { s.cache = c }
}

func WithArchive(a storage.ObjectStorage) Option {
	return func(s *OptimizationService) { s.archive = a }
}

func NewOptimizationService(cfg config.EngineConfig, outputDir string, opts ...Option) *OptimizationService {
	s := &OptimizationService{
		evaluator: engine.NewEvaluator(cfg.WorkerCount),
		defaults:  cfg,
		outputDir: outputDir,
		cache:     cache.NewNoopResultCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateItem answers the interactive single-SKU query. Invalid parameters
// surface immediately; valid results may be served from the fingerprint
// cache since identical inputs always produce identical outputs.
func (s *OptimizationService) EvaluateItem(ctx context.Context, row domain.InputRow) (*domain.ItemResult, error) {
	row = s.applyDefaults(row)

	if cached, ok, err := s.cache.Get(ctx, row); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("result cache get failed")
	}

	result, err := engine.EvaluateOne(row)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, row, &result); err != nil {
		log.Warn().Err(err).Msg("result cache set failed")
	}
	return &result, nil
}

// EvaluateRows runs a batch that arrived already parsed (the JSON API path).
func (s *OptimizationService) EvaluateRows(ctx context.Context, rows []domain.InputRow, source string) (*domain.BatchRun, error) {
	for i := range rows {
		rows[i] = s.applyDefaults(rows[i])
		if rows[i].Line == 0 {
			rows[i].Line = i + 1
		}
	}

	result, err := s.evaluator.EvaluateBatch(ctx, rows)
	if err != nil {
		return nil, err
	}
	return s.finishRun(ctx, result, source)
}

// EvaluateFile parses an uploaded CSV/XLSX file and evaluates it. Rows the
// parser rejects join the engine's rejections in the result; both count
// toward the submitted total.
func (s *OptimizationService) EvaluateFile(ctx context.Context, path string) (*domain.BatchRun, error) {
	rows, parseRejected, err := ingest.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	for i := range rows {
		rows[i] = s.applyDefaults(rows[i])
	}

	result, err := s.evaluator.EvaluateBatch(ctx, rows)
	if err != nil {
		return nil, err
	}
	mergeParseRejections(result, parseRejected)

	run, err := s.finishRun(ctx, result, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	if s.outputDir != "" {
		outPath := filepath.Join(s.outputDir, fmt.Sprintf("result_%s.csv", run.ID))
		if err := export.WriteCSVFile(outPath, result); err != nil {
			log.Error().Err(err).Str("path", outPath).Msg("failed to export batch result")
		}
	}
	s.archiveUpload(path, run.ID)
	return run, nil
}

// GetRuns lists persisted run headers; empty without a repository.
func (s *OptimizationService) GetRuns(ctx context.Context, limit, offset int) ([]*domain.BatchRun, error) {
	if s.repo == nil {
		return []*domain.BatchRun{}, nil
	}
	return s.repo.GetRuns(ctx, limit, offset)
}

// GetRun loads one persisted run with its full result table.
func (s *OptimizationService) GetRun(ctx context.Context, id string) (*domain.BatchRun, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.GetRun(ctx, id)
}

func (s *OptimizationService) finishRun(ctx context.Context, result *domain.BatchResult, source string) (*domain.BatchRun, error) {
	run := &domain.BatchRun{
		ID:           uuid.NewString(),
		Source:       source,
		Submitted:    result.Summary.Submitted,
		Accepted:     result.Summary.Accepted,
		RejectedN:    result.Summary.Rejected,
		TotalSavings: result.Summary.TotalSavings,
		CreatedAt:    time.Now().UTC(),
		Result:       result,
	}

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, run); err != nil {
			// History is best effort; the caller still gets the result.
			log.Error().Err(err).Str("run_id", run.ID).Msg("failed to persist batch run")
		}
	}

	log.Info().
		Str("run_id", run.ID).
		Str("source", source).
		Int("submitted", run.Submitted).
		Int("accepted", run.Accepted).
		Int("rejected", run.RejectedN).
		Float64("total_savings", run.TotalSavings).
		Msg("batch evaluated")
	return run, nil
}

// applyDefaults fills engine-level defaults the row does not carry.
func (s *OptimizationService) applyDefaults(row domain.InputRow) domain.InputRow {
	if row.Params.SigmaBasis == "" && s.defaults.SigmaBasis != "" {
		row.Params.SigmaBasis = domain.SigmaBasis(s.defaults.SigmaBasis)
	}
	if row.Params.ServiceLevel == nil && s.defaults.ServiceLevel > 0 && s.defaults.ServiceLevel < 1 {
		level := s.defaults.ServiceLevel
		row.Params.ServiceLevel = &level
	}
	return row
}

func (s *OptimizationService) archiveUpload(path, runID string) {
	if s.archive == nil {
		return
	}
	// Archive in the background; a storage failure must not fail the batch.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		key := fmt.Sprintf("uploads/%s/%s", runID, filepath.Base(path))
		if err := s.archive.UploadFile(ctx, key, path); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to archive upload")
		}
	}()
}

// mergeParseRejections folds parser-level rejections into the batch result
// so submitted = accepted + rejected also holds for unparseable rows.
func mergeParseRejections(result *domain.BatchResult, rejected []domain.RejectedRow) {
	if len(rejected) == 0 {
		return
	}
	result.Rejected = append(result.Rejected, rejected...)
	sort.SliceStable(result.Rejected, func(i, j int) bool {
		return result.Rejected[i].Line < result.Rejected[j].Line
	})
	result.Summary.Submitted += len(rejected)
	result.Summary.Rejected += len(rejected)
}
