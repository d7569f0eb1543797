package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	handler "github.com/newthinker/prism/internal/api/handler/api"
	"github.com/newthinker/prism/internal/app"
	"github.com/newthinker/prism/internal/logger"
	"github.com/spf13/cobra"
)

var (
	wfSymbol    string
	wfFrom      string
	wfTo        string
	wfTrainDays int
	wfTestDays  int
	wfStepDays  int
	wfNoReopt   bool
)

var walkforwardCmd = &cobra.Command{
	Use:   "walkforward [strategy]",
	Short: "Run a walk-forward study",
	Long: `Run a strategy through rolling train/test folds and report how its
out-of-sample performance holds up across time.`,
	Args: cobra.ExactArgs(1),
	RunE: runWalkForward,
}

func init() {
	walkforwardCmd.Flags().StringVar(&wfSymbol, "symbol", "", "Symbol to study (required)")
	walkforwardCmd.Flags().StringVar(&wfFrom, "from", "", "Start date YYYY-MM-DD (required)")
	walkforwardCmd.Flags().StringVar(&wfTo, "to", "", "End date YYYY-MM-DD (required)")
	walkforwardCmd.Flags().IntVar(&wfTrainDays, "train-days", 0, "Train window in days (default from config)")
	walkforwardCmd.Flags().IntVar(&wfTestDays, "test-days", 0, "Test window in days (default from config)")
	walkforwardCmd.Flags().IntVar(&wfStepDays, "step-days", 0, "Step size in days (default from config)")
	walkforwardCmd.Flags().BoolVar(&wfNoReopt, "no-reoptimize", false, "Reuse fixed params instead of per-fold optimization")

	walkforwardCmd.MarkFlagRequired("symbol")
	walkforwardCmd.MarkFlagRequired("from")
	walkforwardCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(walkforwardCmd)
}

func runWalkForward(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	fromDate, err := time.Parse("2006-01-02", wfFrom)
	if err != nil {
		return fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
	}
	toDate, err := time.Parse("2006-01-02", wfTo)
	if err != nil {
		return fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
	}
	if toDate.Before(fromDate) {
		return fmt.Errorf("end date must be after start date")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}

	req := handler.RunParams{
		Symbol:    wfSymbol,
		Strategy:  args[0],
		Start:     fromDate,
		End:       toDate,
		TrainDays: wfTrainDays,
		TestDays:  wfTestDays,
		StepDays:  wfStepDays,
	}
	if wfNoReopt {
		reopt := false
		req.ReoptimizeEachFold = &reopt
	}

	fmt.Println("=== PRISM Walk-Forward ===")
	fmt.Printf("Strategy: %s\n", req.Strategy)
	fmt.Printf("Symbol:   %s\n", req.Symbol)
	fmt.Printf("Period:   %s to %s\n", fromDate.Format("2006-01-02"), toDate.Format("2006-01-02"))
	fmt.Println()

	progress := func(percent int, message string) {
		if message != "" {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", percent, message)
		}
	}

	summary, err := a.RunWalkForward(cmd.Context(), req, progress)
	if err != nil {
		return fmt.Errorf("walk-forward run failed: %w", err)
	}

	fmt.Printf("Run %s: %d/%d folds succeeded (%.0f%%)\n",
		summary.ID, summary.SuccessfulFolds, summary.TotalFolds, summary.SuccessRate()*100)
	fmt.Println()

	fmt.Println("Folds:")
	for _, fold := range summary.Folds {
		if !fold.IsSuccessful() {
			fmt.Printf("  #%d  %s  FAILED: %s\n", fold.Period.Index, fold.Period.TestRange(), *fold.Err)
			continue
		}
		m := fold.TestMetrics
		fmt.Printf("  #%d  %s  trades=%d win=%.0f%% return=%+.2f%%\n",
			fold.Period.Index, fold.Period.TestRange(),
			m.TotalTrades, m.WinRate*100, m.TotalReturnPct)
	}
	fmt.Println()

	printMetricMap("Aggregated", summary.Aggregated)
	printMetricMap("Stability", summary.Stability)
	return nil
}

func printMetricMap(title string, m map[string]float64) {
	if len(m) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-28s %10.4f\n", k, m[k])
	}
	fmt.Println()
}
