package main

import (
	"fmt"

	"github.com/newthinker/prism/internal/app"
	"github.com/newthinker/prism/internal/indicator"
	"github.com/newthinker/prism/internal/logger"
	"github.com/spf13/cobra"
)

var (
	classifyRSIPeriod int
	classifyATRPeriod int
	classifyADXPeriod int
)

var classifyCmd = &cobra.Command{
	Use:   "classify [symbol]",
	Short: "Classify the current market regime for a symbol",
	Long: `Compute indicators over the symbol's candle history and evaluate the
configured regime definitions against the latest values.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().IntVar(&classifyRSIPeriod, "rsi-period", 14, "RSI lookback period")
	classifyCmd.Flags().IntVar(&classifyATRPeriod, "atr-period", 14, "ATR lookback period")
	classifyCmd.Flags().IntVar(&classifyADXPeriod, "adx-period", 14, "ADX lookback period")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}

	snapCfg := indicator.DefaultSnapshotConfig()
	snapCfg.RSIPeriod = classifyRSIPeriod
	snapCfg.ATRPeriod = classifyATRPeriod
	snapCfg.ADXPeriod = classifyADXPeriod

	active, err := a.ClassifySnapshot(args[0], snapCfg)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	if active == nil {
		fmt.Printf("%s: no regime matched\n", args[0])
		return nil
	}

	fmt.Printf("%s: %s (%s, priority %d)\n", args[0], active.Name, active.ID, active.Priority)
	return nil
}
