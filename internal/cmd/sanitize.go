package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/opsforge-io/ticketwash/internal/allowlist"
	"github.com/opsforge-io/ticketwash/internal/audit"
	"github.com/opsforge-io/ticketwash/internal/config"
	"github.com/opsforge-io/ticketwash/internal/ner"
	"github.com/opsforge-io/ticketwash/internal/sanitizer"
)

var sanitizeVendorList string

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize <input.json> <output.json>",
	Short: "Sanitize a ticket JSON file",
	Long: `Reads a support-ticket JSON export, redacts PII, and writes the
sanitized document. Identifier mappings (Person_N, Subnet N, ...) are
consistent within the ticket and reset for every invocation.`,
	Args: cobra.ExactArgs(2),
	RunE: runSanitize,
}

func init() {
	sanitizeCmd.Flags().StringVar(&sanitizeVendorList, "vendor-list", "", "extra vendor allow-list file (YAML, unioned with built-in defaults)")
	rootCmd.AddCommand(sanitizeCmd)
}

func runSanitize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	inputPath, outputPath := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if sanitizeVendorList != "" {
		cfg.VendorList = sanitizeVendorList
	}

	// The detector must be proven reachable before any document is read;
	// silently degraded entity detection would leak names.
	detector, err := ner.Resolve(ctx, cfg)
	if err != nil {
		return fmt.Errorf("resolving entity detector: %w", err)
	}

	doc, err := readDocument(inputPath)
	if err != nil {
		return err
	}

	san := sanitizer.New(detector, sanitizer.WithVendorList(allowlist.Load(cfg.VendorList)))

	start := time.Now()
	out, stats, err := san.Sanitize(ctx, doc)
	if err != nil {
		return fmt.Errorf("sanitizing %s: %w", inputPath, err)
	}

	if err := writeDocument(outputPath, out); err != nil {
		return err
	}

	recordRun(ctx, cfg, audit.NewRecord("cli", detector.Name(), stats, time.Since(start)))

	log.Info().
		Str("input", inputPath).
		Str("output", outputPath).
		Int("fields", stats.Fields).
		Int("persons", stats.Persons).
		Int("organizations", stats.Organizations).
		Int("subnets", stats.Subnets).
		Int("device_ips", stats.DeviceIPs).
		Msg("ticket sanitized")
	return nil
}

func readDocument(path string) (sanitizer.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc sanitizer.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: invalid JSON: %w", path, err)
	}
	return doc, nil
}

func writeDocument(path string, doc sanitizer.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sanitized document: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// recordRun appends to the audit trail; failures are logged, not fatal,
// so a broken data dir never blocks a CLI sanitization.
func recordRun(ctx context.Context, cfg *config.Config, rec *audit.Record) {
	if err := cfg.EnsureDataDir(); err != nil {
		log.Warn().Err(err).Msg("could not create data dir, skipping audit record")
		return
	}
	store, err := audit.NewStore(cfg.AuditDBPath())
	if err != nil {
		log.Warn().Err(err).Msg("could not open audit store, skipping audit record")
		return
	}
	defer store.Close()
	if err := store.Save(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("could not save audit record")
	}
}
