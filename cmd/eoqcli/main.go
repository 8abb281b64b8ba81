// cmd/eoqcli/main.go
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/replenlab/eoq-engine/internal/config"
	"github.com/replenlab/eoq-engine/internal/domain"
	"github.com/replenlab/eoq-engine/internal/export"
	"github.com/replenlab/eoq-engine/internal/repository/postgres"
	"github.com/replenlab/eoq-engine/internal/service"
	"github.com/replenlab/eoq-engine/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "eoqcli",
		Usage: "Evaluate inventory replenishment policies from the command line",
		Commands: []*cli.Command{
			{
				Name:  "evaluate",
				Usage: "Evaluate a CSV or XLSX batch file and write the result table",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Input batch file (.csv or .xlsx)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output CSV path (default: stdout)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Parallel evaluation workers",
						Value: 4,
					},
					&cli.StringFlag{
						Name:    "sigma-basis",
						Usage:   "Default sigma unit: lead_time or period",
						Value:   "lead_time",
						EnvVars: []string{"ENGINE_SIGMA_BASIS"},
					},
					&cli.Float64Flag{
						Name:    "service-level",
						Usage:   "Default service-level target",
						Value:   domain.DefaultServiceLevel,
						EnvVars: []string{"ENGINE_SERVICE_LEVEL"},
					},
					&cli.StringFlag{
						Name:    "db-url",
						Usage:   "Persist the run to this database",
						EnvVars: []string{"DATABASE_URL"},
					},
				},
				Action: runEvaluate,
			},
			{
				Name:   "policy",
				Usage:  "Compute the policy for a single item and print it as JSON",
				Flags:  policyFlags(),
				Action: runPolicy,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}

func runEvaluate(c *cli.Context) error {
	opts := make([]service.Option, 0)
	if dbURL := c.String("db-url"); dbURL != "" {
		db, err := postgres.NewDBFromURL(dbURL)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := postgres.NewRunRepository(db)
		if err := repo.EnsureSchema(c.Context); err != nil {
			return err
		}
		opts = append(opts, service.WithRepository(repo))
	}

	engineCfg := config.EngineConfig{
		WorkerCount:  c.Int("workers"),
		SigmaBasis:   c.String("sigma-basis"),
		ServiceLevel: c.Float64("service-level"),
	}
	svc := service.NewOptimizationService(engineCfg, "", opts...)

	run, err := svc.EvaluateFile(c.Context, c.String("input"))
	if err != nil {
		return err
	}

	if out := c.String("output"); out != "" {
		if err := export.WriteCSVFile(out, run.Result); err != nil {
			return err
		}
		logger.Log.Info().Str("path", out).Msg("result table written")
	} else if err := export.WriteCSV(os.Stdout, run.Result); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "run %s: %d submitted, %d accepted, %d rejected, total savings %.2f\n",
		run.ID, run.Submitted, run.Accepted, run.RejectedN, run.TotalSavings)
	return nil
}

func policyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "sku", Value: "item"},
		&cli.Float64Flag{Name: "demand", Usage: "Demand per period (D)", Required: true},
		&cli.Float64Flag{Name: "order-cost", Usage: "Fixed cost per order (K)", Required: true},
		&cli.Float64Flag{Name: "holding-cost", Usage: "Holding cost per unit per period (h)", Required: true},
		&cli.Float64Flag{Name: "lead-time", Usage: "Lead time in periods (L)"},
		&cli.Float64Flag{Name: "sigma", Usage: "Demand variability"},
		&cli.StringFlag{Name: "sigma-basis", Value: "lead_time"},
		&cli.Float64Flag{Name: "service-level", Value: domain.DefaultServiceLevel},
		&cli.Float64Flag{Name: "moq", Usage: "Minimum order quantity"},
		&cli.Float64Flag{Name: "multiple", Usage: "Order multiple (pack size)"},
		&cli.Float64Flag{Name: "baseline-qty", Usage: "Current order quantity for cost comparison"},
		&cli.Float64Flag{Name: "position", Usage: "Current inventory position"},
	}
}

func runPolicy(c *cli.Context) error {
	level := c.Float64("service-level")
	row := domain.InputRow{
		Line: 1,
		Params: domain.ItemParameters{
			SKU:           c.String("sku"),
			Demand:        c.Float64("demand"),
			OrderCost:     c.Float64("order-cost"),
			HoldingCost:   c.Float64("holding-cost"),
			LeadTime:      c.Float64("lead-time"),
			Sigma:         c.Float64("sigma"),
			SigmaBasis:    domain.SigmaBasis(c.String("sigma-basis")),
			ServiceLevel:  &level,
			MinOrderQty:   c.Float64("moq"),
			OrderMultiple: c.Float64("multiple"),
		},
	}
	if c.IsSet("baseline-qty") {
		qty := c.Float64("baseline-qty")
		row.Baseline = &domain.BaselinePolicy{OrderQty: &qty}
	}
	if c.IsSet("position") {
		pos := c.Float64("position")
		row.Position = &pos
	}

	svc := service.NewOptimizationService(config.EngineConfig{WorkerCount: 1}, "")
	result, err := svc.EvaluateItem(c.Context, row)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
