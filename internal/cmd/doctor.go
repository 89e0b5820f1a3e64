package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsforge-io/ticketwash/internal/allowlist"
	"github.com/opsforge-io/ticketwash/internal/config"
	"github.com/opsforge-io/ticketwash/internal/ner"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the installation can sanitize tickets",
	Long: `Verifies the configured entity detector is reachable and reports the
effective vendor allow-list. An unreachable detector means sanitize and
serve will refuse to run.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Fprintf(out, "data dir:      %s\n", cfg.DataDir)
	fmt.Fprintf(out, "ner provider:  %s (model %s)\n", cfg.NERProvider, cfg.NERModel)

	vendors := allowlist.Load(cfg.VendorList)
	fmt.Fprintf(out, "vendor list:   %d names", vendors.Len())
	if cfg.VendorList != "" {
		fmt.Fprintf(out, " (defaults + %s)", cfg.VendorList)
	}
	fmt.Fprintln(out)

	detector, err := ner.Resolve(cmd.Context(), cfg)
	if err != nil {
		fmt.Fprintln(out, "detector:      UNAVAILABLE")
		return err
	}
	fmt.Fprintf(out, "detector:      %s reachable\n", detector.Name())
	fmt.Fprintln(out, "ok")
	return nil
}
