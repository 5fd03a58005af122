package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kestrelwms/slotwatch/internal/engine"
	"github.com/kestrelwms/slotwatch/internal/storage"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run anomaly analysis over a pallet snapshot",
		Long: `Read a pallet snapshot JSON file, resolve the warehouse it belongs to,
and evaluate the configured rules against it. Results are printed, never
stored; re-running the same snapshot gives the same answer.`,
		RunE: runAnalyze,
	}

	cmd.Flags().String("snapshot", "", "path to the snapshot JSON file (required)")
	cmd.Flags().String("warehouse", "", "explicit warehouse ID (skips auto-detection)")
	cmd.Flags().String("now", "", "reference time for age calculations, RFC3339 (default: current time)")
	cmd.Flags().String("format", "table", "output format (table, json)")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	warehouseID, _ := cmd.Flags().GetString("warehouse")
	nowFlag, _ := cmd.Flags().GetString("now")
	format, _ := cmd.Flags().GetString("format")

	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format %q (want table or json)", format)
	}

	var now time.Time
	if nowFlag != "" {
		parsed, err := time.Parse(time.RFC3339, nowFlag)
		if err != nil {
			return fmt.Errorf("invalid --now value %q: %w", nowFlag, err)
		}
		now = parsed.UTC()
	}

	pallets, err := loadSnapshot(snapshotPath)
	if err != nil {
		return err
	}

	store, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	req := &engine.AnalysisRequest{
		Now:         now,
		WarehouseID: warehouseID,
		Pallets:     pallets,
	}

	if format == "table" {
		var bar *progressbar.ProgressBar
		req.Progress = func(completed, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Evaluating rules"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(completed)
		}
	}

	report, err := engine.New(store).Analyze(cmd.Context(), req)
	if err != nil {
		return err
	}

	if format == "json" {
		return printJSON(report)
	}
	printReport(report)
	return nil
}

func printJSON(report *engine.AnalysisReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printReport(report *engine.AnalysisReport) {
	fmt.Printf("Run %s\n", report.RunID)
	if report.Context.Resolved() {
		fmt.Printf("Warehouse: %s (confidence %s, coverage %.0f%%, via %s)\n",
			report.Context.WarehouseID, report.Context.Confidence,
			report.Context.Coverage*100, report.Context.Method)
	} else {
		fmt.Printf("Warehouse: unresolved (best coverage %.0f%%); location checks skipped\n",
			report.Context.Coverage*100)
	}
	fmt.Println()

	if len(report.Anomalies) == 0 {
		fmt.Println("No anomalies found.")
	} else {
		fmt.Printf("%d anomalies:\n", len(report.Anomalies))
		for _, a := range report.Anomalies {
			fmt.Printf("  [%s] pallet %s at %s: %s\n", a.Type, a.PalletID, a.Location, a.Message)
		}
	}
	fmt.Println()

	fmt.Println("Rule executions:")
	for _, exec := range report.Executions {
		switch {
		case exec.Skipped:
			fmt.Printf("  %-28s SKIPPED (no resolved warehouse)\n", exec.RuleName)
		case !exec.Success:
			fmt.Printf("  %-28s FAILED: %s\n", exec.RuleName, exec.Error)
		default:
			fmt.Printf("  %-28s %d anomalies in %s\n", exec.RuleName, exec.AnomalyCount,
				exec.Duration.Round(time.Microsecond))
		}
	}
}

// openStorage opens and migrates the metadata database.
func openStorage(cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	dbPath, err := databasePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}
