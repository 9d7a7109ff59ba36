package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/claimsift/claimsift/internal/model"
	"github.com/claimsift/claimsift/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	sourcesFile string
	outJSON     string
	outMD       string
	timeout     time.Duration
	noCache     bool
	noFooter    bool
	llmProvider string
	llmModel    string
	databaseDSN string
)

var checkCmd = &cobra.Command{
	Use:   "check <subject>",
	Short: "Extract and fact-check claims about a subject",
	Long: `Check runs the full fact-check pipeline for one subject:
- Load pre-crawled sources (from a file or the database)
- Extract factual claims with the configured LLM
- Cross-reference each claim against every source
- Score support, check date consistency, detect contradictions
- Write verification results back and generate a report

Example:
  claimsift check "Acme Corp" --sources sources.yaml
  claimsift check "Acme Corp" --sources sources.yaml --json report.json --md report.md
  claimsift check acme-corp --db postgres://localhost/research`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&sourcesFile, "sources", "", "sources file (YAML or JSON); omit to read from the database")
	checkCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "overall check timeout")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the LLM response cache")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	checkCmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider (openai, anthropic, ollama)")
	checkCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
	checkCmd.Flags().StringVar(&databaseDSN, "db", "", "Postgres DSN for the research database")
}

func runCheck(cmd *cobra.Command, args []string) error {
	subject := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildCheckConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}
	defer p.Close()

	report, err := p.Run(ctx, subject, sourcesFile)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if err := p.RenderReport(report, outJSON, outMD); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// buildCheckConfig layers the check command's flags over the loaded
// configuration and resolves provider credentials from the environment.
func buildCheckConfig() (*model.Config, error) {
	cfg := loadConfig()

	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Output.IncludeFooter = !noFooter
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if databaseDSN != "" {
		cfg.Database.DSN = databaseDSN
	}

	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// No API key; an explicit base URL beats the default localhost.
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	return cfg, nil
}
