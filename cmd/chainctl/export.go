package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/config"
	"github.com/marketlens/optionchain/internal/export"
	"github.com/marketlens/optionchain/internal/replay"
)

func exportCmd() *cobra.Command {
	var (
		symbol string
		expiry string
		output string
		upTo   int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a recorded chain to CSV",
		Long: `Replays a recording into its merged chain state and writes the
result as a CSV snapshot. By default the full recording is replayed;
--up-to stops after the given number of snapshots.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			source, err := replay.NewMemoryLoader(cfg.Server.DataDir, logger)
			if err != nil {
				return fmt.Errorf("loading recordings: %w", err)
			}
			defer source.Close()

			store, err := rebuildChain(ctx, source, symbol, expiry, upTo)
			if err != nil {
				return err
			}

			step, err := config.StrikeStepFor(symbol)
			if err != nil {
				return err
			}

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			meta := export.Metadata{
				Symbol:     symbol,
				Expiry:     expiry,
				Spot:       store.Spot(),
				ExportedAt: time.Now(),
			}
			if err := export.WriteCSV(out, store.Rows(step), meta); err != nil {
				return err
			}

			logger.Info("chain exported",
				zap.String("symbol", symbol),
				zap.String("expiry", expiry),
				zap.String("output", output),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "symbol to export (required)")
	cmd.Flags().StringVarP(&expiry, "expiry", "e", "", "expiry to export (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&upTo, "up-to", 0, "replay only the first N snapshots")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("expiry")

	return cmd
}
