package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsforge-io/ticketwash/internal/audit"
	"github.com/opsforge-io/ticketwash/internal/config"
)

var (
	reportLimit  int
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show recent sanitization runs",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportLimit, "limit", 20, "maximum runs to show")
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	store, err := audit.NewStore(cfg.AuditDBPath())
	if err != nil {
		return fmt.Errorf("opening audit store: %w", err)
	}
	defer store.Close()

	records, err := store.List(cmd.Context(), reportLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if reportFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "no sanitization runs recorded")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(out, "%s  %-4s %-8s fields=%d persons=%d orgs=%d subnets=%d ips=%d (%dms)\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Source, rec.Detector,
			rec.Stats.Fields, rec.Stats.Persons, rec.Stats.Organizations,
			rec.Stats.Subnets, rec.Stats.DeviceIPs, rec.DurationMS)
	}
	return nil
}
