package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claimsift/claimsift/internal/pipeline"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	outputDir    string
	batchTimeout time.Duration
)

// batchEntry is one subject in a batch manifest.
type batchEntry struct {
	Subject string `yaml:"subject"`
	Sources string `yaml:"sources"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Fact-check multiple subjects from a manifest file",
	Long: `Batch runs the check pipeline for every subject in a YAML manifest:

  - subject: Acme Corp
    sources: acme-sources.yaml
  - subject: Globex
    sources: globex-sources.yaml

Subjects run one after another; the rate governor already bounds LLM
throughput, so parallel subjects would only queue against it.

Example:
  claimsift batch subjects.yaml
  claimsift batch subjects.yaml --output-dir ./reports --timeout 2h`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./claimsift-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for the batch")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the LLM response cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
	batchCmd.Flags().StringVar(&databaseDSN, "db", "", "Postgres DSN for the research database")
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	entries, err := readManifest(manifest)
	if err != nil {
		return err
	}

	cfg, err := buildCheckConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}
	defer p.Close()

	fmt.Fprintf(os.Stderr, "Batch: %d subjects, reports in %s\n\n", len(entries), outputDir)

	successCount, failureCount := 0, 0
	for _, entry := range entries {
		report, err := p.Run(ctx, entry.Subject, entry.Sources)
		if err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", entry.Subject, err)
			continue
		}
		successCount++

		slug := sanitizeFilename(entry.Subject)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")
		if err := p.RenderReport(report, jsonPath, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: write reports: %v\n", entry.Subject, err)
			continue
		}
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d ok, %d failed, %d total\n",
		successCount, failureCount, len(entries))
	return nil
}

func readManifest(path string) ([]batchEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var entries []batchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i, e := range entries {
		if e.Subject == "" {
			return nil, fmt.Errorf("manifest entry %d has no subject", i+1)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("manifest is empty: %s", path)
	}
	return entries, nil
}

// sanitizeFilename makes a subject name safe to use as a file name.
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		return "subject"
	}
	return strings.ToLower(s)
}
