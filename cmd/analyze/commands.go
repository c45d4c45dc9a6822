package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-engine/internal/gex"
	"github.com/dgnsrekt/gex-engine/internal/levels"
	"github.com/dgnsrekt/gex-engine/internal/normalize"
	"github.com/dgnsrekt/gex-engine/internal/options"
	"github.com/dgnsrekt/gex-engine/internal/pricing"
	"github.com/dgnsrekt/gex-engine/internal/snapshot"
)

// loadRecords reads and normalizes the snapshot every subcommand starts from.
func loadRecords(path string) ([]options.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("--snapshot is required")
	}
	rows, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	records := normalize.New(logger).Normalize(rows)
	logger.Debug("snapshot normalized",
		zap.Int("rawRows", len(rows)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func parseExpiration(raw string) (*time.Time, error) {
	if raw == "" || raw == "all" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("expiration must be an ISO date (YYYY-MM-DD) or 'all'")
	}
	t = t.UTC()
	return &t, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func gexCmd() *cobra.Command {
	var snapshotPath, method string
	var spot float64

	cmd := &cobra.Command{
		Use:   "gex",
		Short: "Aggregate notional gamma exposure by strike, expiration, and total",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords(snapshotPath)
			if err != nil {
				return err
			}
			if spot <= 0 {
				return fmt.Errorf("--spot must be a positive number")
			}
			model, err := pricing.New(pricing.Method(method), cfg.Engine.BinomialSteps)
			if err != nil {
				return err
			}

			agg := gex.NewAggregator(cfg.Engine.RiskFreeRate, cfg.Engine.DefaultVolatility, cfg.Engine.Workers, logger)
			return printJSON(agg.Aggregate(records, spot, model, time.Now().UTC()))
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "snapshot file (.json, .jsonl, optionally .zst)")
	cmd.Flags().Float64Var(&spot, "spot", 0, "spot price of the underlying")
	cmd.Flags().StringVarP(&method, "method", "m", string(pricing.MethodBlackScholes), "pricing method: black-scholes or binomial")
	return cmd
}

func zeroGammaCmd() *cobra.Command {
	var snapshotPath, expiration string
	var spot float64

	cmd := &cobra.Command{
		Use:   "zero-gamma",
		Short: "Locate the spot level where net dealer gamma crosses zero",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords(snapshotPath)
			if err != nil {
				return err
			}
			if spot <= 0 {
				return fmt.Errorf("--spot must be a positive number")
			}
			cutoff, err := parseExpiration(expiration)
			if err != nil {
				return err
			}

			solver := gex.NewZeroGammaSolver(cfg.Engine.RiskFreeRate, cfg.Engine.DefaultVolatility, cfg.Engine.ZeroGammaCutoffDays, logger)
			out := struct {
				Spot      float64  `json:"spot"`
				ZeroGamma *float64 `json:"zero_gamma"`
			}{Spot: spot}
			if level, found := solver.Solve(records, spot, time.Now().UTC(), cutoff); found {
				out.ZeroGamma = &level
			}
			return printJSON(out)
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "snapshot file (.json, .jsonl, optionally .zst)")
	cmd.Flags().Float64Var(&spot, "spot", 0, "spot price of the underlying")
	cmd.Flags().StringVarP(&expiration, "expiration", "e", "", "cutoff expiration (ISO date), default 60 days out")
	return cmd
}

func expectedMoveCmd() *cobra.Command {
	var snapshotPath, expiration string
	var spot float64

	cmd := &cobra.Command{
		Use:   "expected-move",
		Short: "Derive 16-delta expected-move bands per expiration",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords(snapshotPath)
			if err != nil {
				return err
			}
			if spot <= 0 {
				return fmt.Errorf("--spot must be a positive number")
			}
			only, err := parseExpiration(expiration)
			if err != nil {
				return err
			}

			calc := levels.NewExpectedMoveCalculator(cfg.Engine.RiskFreeRate, cfg.Engine.DefaultVolatility)
			return printJSON(calc.Compute(records, spot, time.Now().UTC(), only))
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "snapshot file (.json, .jsonl, optionally .zst)")
	cmd.Flags().Float64Var(&spot, "spot", 0, "spot price of the underlying")
	cmd.Flags().StringVarP(&expiration, "expiration", "e", "", "single expiration (ISO date), default all within a year")
	return cmd
}

func wallsCmd() *cobra.Command {
	var snapshotPath, expiration string

	cmd := &cobra.Command{
		Use:   "walls",
		Short: "Find the max open-interest strike per side for one expiration",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords(snapshotPath)
			if err != nil {
				return err
			}
			expiry, err := parseExpiration(expiration)
			if err != nil {
				return err
			}
			if expiry == nil {
				return fmt.Errorf("--expiration is required")
			}

			walls := levels.DetectWalls(records, *expiry)
			return printJSON(struct {
				Expiration string   `json:"expiration"`
				CallWall   *float64 `json:"call_wall"`
				PutWall    *float64 `json:"put_wall"`
			}{
				Expiration: expiry.Format("2006-01-02"),
				CallWall:   walls.CallWall,
				PutWall:    walls.PutWall,
			})
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "snapshot file (.json, .jsonl, optionally .zst)")
	cmd.Flags().StringVarP(&expiration, "expiration", "e", "", "expiration to inspect (ISO date)")
	return cmd
}
