package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/replenlab/eoq-engine/internal/domain"
)

// RunRepository persists batch evaluations in postgres.
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the history tables when they do not exist yet.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS batch_runs (
	id            UUID PRIMARY KEY,
	source        TEXT NOT NULL,
	submitted     INT NOT NULL,
	accepted      INT NOT NULL,
	rejected      INT NOT NULL,
	total_savings DOUBLE PRECISION NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS batch_items (
	run_id        UUID NOT NULL REFERENCES batch_runs(id) ON DELETE CASCADE,
	rank          INT NOT NULL,
	line          INT NOT NULL,
	sku           TEXT NOT NULL,
	rejected      BOOLEAN NOT NULL,
	reason        TEXT,
	order_qty     DOUBLE PRECISION,
	raw_order_qty DOUBLE PRECISION,
	reorder_point DOUBLE PRECISION,
	safety_stock  DOUBLE PRECISION,
	optimal_cost  DOUBLE PRECISION,
	continuous    BOOLEAN,
	baseline_cost DOUBLE PRECISION,
	savings       DOUBLE PRECISION,
	savings_pct   DOUBLE PRECISION,
	position      DOUBLE PRECISION,
	order_now     BOOLEAN,
	suggested_qty DOUBLE PRECISION,
	PRIMARY KEY (run_id, rank)
);`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveRun writes the run header and every item row in one transaction.
func (r *RunRepository) SaveRun(ctx context.Context, run *domain.BatchRun) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO batch_runs (id, source, submitted, accepted, rejected, total_savings, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			run.ID, run.Source, run.Submitted, run.Accepted, run.RejectedN, run.TotalSavings, run.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		if run.Result == nil {
			return nil
		}

		rank := 0
		for _, item := range run.Result.Results {
			rank++
			var orderNow sql.NullBool
			var position, suggestedQty sql.NullFloat64
			if rec := item.Recommendation; rec != nil {
				orderNow = sql.NullBool{Bool: rec.OrderNow, Valid: true}
				position = sql.NullFloat64{Float64: rec.Position, Valid: true}
				suggestedQty = nullFloat(rec.SuggestedQty)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO batch_items (run_id, rank, line, sku, rejected,
					order_qty, raw_order_qty, reorder_point, safety_stock, optimal_cost, continuous,
					baseline_cost, savings, savings_pct, position, order_now, suggested_qty)
				 VALUES ($1, $2, $3, $4, false, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
				run.ID, rank, item.Line, item.SKU,
				item.Policy.OrderQty, item.Policy.RawOrderQty, item.Policy.ReorderPoint,
				item.Policy.SafetyStock, item.Policy.TotalCost, item.Policy.Continuous,
				nullFloat(item.Comparison.BaselineCost), nullFloat(item.Comparison.Savings),
				nullFloat(item.Comparison.SavingsPercent), position, orderNow, suggestedQty)
			if err != nil {
				return fmt.Errorf("failed to insert item %s: %w", item.SKU, err)
			}
		}
		for _, rej := range run.Result.Rejected {
			rank++
			_, err := tx.ExecContext(ctx,
				`INSERT INTO batch_items (run_id, rank, line, sku, rejected, reason)
				 VALUES ($1, $2, $3, $4, true, $5)`,
				run.ID, rank, rej.Line, rej.SKU, rej.Reason)
			if err != nil {
				return fmt.Errorf("failed to insert rejected item %s: %w", rej.SKU, err)
			}
		}
		return nil
	})
}

// GetRuns lists run headers newest first.
func (r *RunRepository) GetRuns(ctx context.Context, limit, offset int) ([]*domain.BatchRun, error) {
	if limit <= 0 {
		limit = 50
	}
	runs := make([]*domain.BatchRun, 0)
	err := r.db.SelectContext(ctx, &runs,
		`SELECT id, source, submitted, accepted, rejected, total_savings, created_at
		 FROM batch_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun loads one run with its full result table.
func (r *RunRepository) GetRun(ctx context.Context, id string) (*domain.BatchRun, error) {
	var run domain.BatchRun
	err := r.db.GetContext(ctx, &run,
		`SELECT id, source, submitted, accepted, rejected, total_savings, created_at
		 FROM batch_runs WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT line, sku, rejected, reason, order_qty, raw_order_qty, reorder_point,
			safety_stock, optimal_cost, continuous, baseline_cost, savings, savings_pct,
			position, order_now, suggested_qty
		 FROM batch_items WHERE run_id = $1 ORDER BY rank`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for run %s: %w", id, err)
	}
	defer rows.Close()

	result := &domain.BatchResult{
		Results:  make([]domain.ItemResult, 0),
		Rejected: make([]domain.RejectedRow, 0),
	}
	for rows.Next() {
		var (
			line                              int
			sku                               string
			rejected                          bool
			reason                            sql.NullString
			orderQty, rawQty, rop, ss, cost   sql.NullFloat64
			continuous, orderNow              sql.NullBool
			baselineCost, savings, savingsPct sql.NullFloat64
			position, suggestedQty            sql.NullFloat64
		)
		if err := rows.Scan(&line, &sku, &rejected, &reason, &orderQty, &rawQty, &rop,
			&ss, &cost, &continuous, &baselineCost, &savings, &savingsPct,
			&position, &orderNow, &suggestedQty); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}

		if rejected {
			result.Rejected = append(result.Rejected, domain.RejectedRow{
				Line: line, SKU: sku, Reason: reason.String,
			})
			continue
		}

		item := domain.ItemResult{
			Line: line,
			SKU:  sku,
			Policy: domain.OptimalPolicy{
				OrderQty:     orderQty.Float64,
				RawOrderQty:  rawQty.Float64,
				ReorderPoint: rop.Float64,
				SafetyStock:  ss.Float64,
				TotalCost:    cost.Float64,
				Continuous:   continuous.Bool,
			},
			Comparison: domain.ComparisonResult{
				Applicable:     baselineCost.Valid,
				OptimalCost:    cost.Float64,
				BaselineCost:   floatPtr(baselineCost),
				Savings:        floatPtr(savings),
				SavingsPercent: floatPtr(savingsPct),
			},
		}
		if orderNow.Valid {
			item.Recommendation = &domain.ReorderRecommendation{
				Position:     position.Float64,
				ReorderPoint: rop.Float64,
				OrderNow:     orderNow.Bool,
				SuggestedQty: floatPtr(suggestedQty),
				Continuous:   continuous.Bool,
			}
		}
		result.Results = append(result.Results, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items for run %s: %w", id, err)
	}

	run.Result = result
	return &run, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
