package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/marketlens/optionchain/internal/chain"
	"github.com/marketlens/optionchain/internal/config"
	"github.com/marketlens/optionchain/internal/feed"
	"github.com/marketlens/optionchain/internal/replay"
)

func inspectCmd() *cobra.Command {
	var (
		symbol string
		expiry string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize loaded recordings or one chain's statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			source, err := replay.NewMemoryLoader(cfg.Server.DataDir, logger)
			if err != nil {
				return fmt.Errorf("loading recordings: %w", err)
			}
			defer source.Close()

			if symbol == "" || expiry == "" {
				return listRecordings(source)
			}
			return inspectChain(ctx, source, symbol, expiry)
		},
	}

	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "symbol to inspect")
	cmd.Flags().StringVarP(&expiry, "expiry", "e", "", "expiry to inspect")

	return cmd
}

func listRecordings(source replay.Source) error {
	keys := source.LoadedKeys()
	sort.Strings(keys)

	fmt.Printf("%d recordings loaded:\n", len(keys))
	for _, key := range keys {
		symbol, expiry, _ := splitKey(key)
		length, err := source.Length(symbol, expiry)
		if err != nil {
			return err
		}
		fmt.Printf("  %-24s %d snapshots\n", key, length)
	}
	return nil
}

func inspectChain(ctx context.Context, source replay.Source, symbol, expiry string) error {
	store, err := rebuildChain(ctx, source, symbol, expiry, 0)
	if err != nil {
		return err
	}

	step, err := config.StrikeStepFor(symbol)
	if err != nil {
		return err
	}

	rows := store.Rows(step)
	stats := chain.ComputeStats(rows, store.Spot())

	fmt.Printf("%s %s\n", symbol, expiry)
	fmt.Printf("  Spot:             %s\n", chain.Format(chain.FieldCeLTP, store.Spot()))
	fmt.Printf("  Strikes:          %d\n", len(rows))
	fmt.Printf("  Total CE OI:      %s\n", chain.Format(chain.FieldCeOI, stats.TotalCeOI))
	fmt.Printf("  Total PE OI:      %s\n", chain.Format(chain.FieldPeOI, stats.TotalPeOI))
	if stats.PCRDefined {
		fmt.Printf("  PCR:              %.2f\n", stats.PCR)
	} else {
		fmt.Printf("  PCR:              N/A\n")
	}
	fmt.Printf("  Max Pain:         %v\n", stats.MaxPain)
	fmt.Printf("  Max CE OI strike: %v\n", stats.MaxCeOIStrike)
	fmt.Printf("  Max PE OI strike: %v\n", stats.MaxPeOIStrike)
	if stats.ATM != nil {
		fmt.Printf("  ATM straddle:     %s (expected move %.2f%%)\n",
			chain.Format(chain.FieldCeLTP, stats.StraddlePremium), stats.ExpectedMovePct)
	}
	return nil
}

// rebuildChain replays a recording into a fresh tick store. upTo <= 0
// replays everything.
func rebuildChain(ctx context.Context, source replay.Source, symbol, expiry string, upTo int) (*feed.TickStore, error) {
	length, err := source.Length(symbol, expiry)
	if err != nil {
		return nil, fmt.Errorf("recording %s/%s: %w", symbol, expiry, err)
	}
	if upTo <= 0 || upTo > length {
		upTo = length
	}

	store := feed.NewTickStore(symbol, expiry)
	for i := 0; i < upTo; i++ {
		snap, err := source.SnapshotAt(ctx, symbol, expiry, i)
		if err != nil {
			return nil, err
		}
		store.Apply(snap)
	}
	return store, nil
}

func splitKey(key string) (symbol, expiry string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:], true
		}
	}
	return key, "", false
}
