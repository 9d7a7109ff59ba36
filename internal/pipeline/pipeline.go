// Package pipeline orchestrates a fact-check run: load sources, extract
// claims, verify them against the sources, persist the outcome and render
// a report.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/claimsift/claimsift/internal/cache"
	"github.com/claimsift/claimsift/internal/extract"
	"github.com/claimsift/claimsift/internal/intake"
	"github.com/claimsift/claimsift/internal/llm"
	"github.com/claimsift/claimsift/internal/model"
	"github.com/claimsift/claimsift/internal/store"
	"github.com/claimsift/claimsift/internal/verify"
	"github.com/claimsift/claimsift/internal/worker"
	"github.com/m-mizutani/goerr/v2"
)

// Pipeline wires the extraction and verification stages behind one Run
// call.
type Pipeline struct {
	gateway   *llm.Gateway
	extractor *extract.Extractor
	verifier  *verify.Verifier
	store     store.Store
	renderer  *Renderer
	cfg       *model.Config
	logger    *slog.Logger
}

// NewPipeline builds a pipeline from configuration: provider, governor,
// response cache, gateway, both stages and the persistence store.
func NewPipeline(ctx context.Context, cfg *model.Config) (*Pipeline, error) {
	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return nil, goerr.Wrap(err, "creating LLM provider")
	}

	governor := worker.NewGovernor(
		cfg.Governor.MaxCallsPerMinute,
		cfg.Governor.MaxConcurrent,
		cfg.Governor.CallsPerSecond,
	)

	opts := []llm.GatewayOption{llm.WithMaxAttempts(cfg.LLM.MaxRetries)}
	if cfg.Cache.Enabled {
		var c cache.Cache
		if cfg.Cache.Dir != "" {
			c = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			c = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		}
		opts = append(opts, llm.WithCache(c, cfg.Cache.TTL))
	}
	gateway := llm.NewGateway(provider, governor, opts...)

	var st store.Store
	if cfg.Database.DSN != "" {
		st, err = store.NewPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, goerr.Wrap(err, "connecting to database")
		}
	} else {
		st = store.NewMemory()
	}

	return &Pipeline{
		gateway:   gateway,
		extractor: extract.NewExtractor(gateway, cfg.Extract),
		verifier:  verify.NewVerifier(gateway, cfg.Verify),
		store:     st,
		renderer:  NewRenderer(cfg.Output.IncludeFooter),
		cfg:       cfg,
		logger:    slog.Default(),
	}, nil
}

// Close releases the pipeline's store.
func (p *Pipeline) Close() {
	p.store.Close()
}

// Run fact-checks one subject. Sources come from the given intake file,
// or from the store when path is empty. Partial failures inside a stage
// degrade; Run only errors when a stage produces nothing to continue with.
func (p *Pipeline) Run(ctx context.Context, subject, sourcesPath string) (*Report, error) {
	sources, err := p.loadSources(ctx, subject, sourcesPath)
	if err != nil {
		return nil, err
	}
	p.logger.Info("sources ready", "subject", subject, "count", len(sources))

	claims, err := p.extractor.Extract(ctx, sources, subject)
	if err != nil {
		return nil, goerr.Wrap(err, "extracting claims")
	}
	if len(claims) == 0 {
		p.logger.Warn("no claims extracted, nothing to verify", "subject", subject)
		return BuildReport(subject, nil), nil
	}
	p.logger.Info("claims extracted", "count", len(claims))

	if err := p.store.SaveClaims(ctx, subject, claims); err != nil {
		p.logger.Warn("saving claims failed, continuing", "error", err)
	}

	results, err := p.verifier.Verify(ctx, claims, sources)
	if err != nil {
		return nil, goerr.Wrap(err, "verifying claims")
	}

	if err := p.store.UpdateVerification(ctx, results); err != nil {
		p.logger.Warn("persisting verification failed, report still generated", "error", err)
	}

	report := BuildReport(subject, results)
	p.logger.Info("fact-check complete",
		"subject", subject,
		"total", report.TotalClaims,
		"verified", report.VerifiedClaims,
		"flagged", report.FlaggedClaims,
		"llm_calls", p.gateway.CallCount(),
	)
	return report, nil
}

func (p *Pipeline) loadSources(ctx context.Context, subject, path string) ([]model.Source, error) {
	if path == "" {
		sources, err := p.store.Sources(ctx, subject)
		if err != nil {
			return nil, goerr.Wrap(err, "loading sources from store", goerr.V("subject", subject))
		}
		return sources, nil
	}

	sources, err := intake.LoadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "loading sources file")
	}
	if len(sources) == 0 {
		return nil, goerr.New("sources file is empty", goerr.V("path", path))
	}
	if err := p.store.SaveSources(ctx, subject, sources); err != nil {
		p.logger.Warn("saving sources failed, continuing", "error", err)
	}
	return sources, nil
}

// RenderReport writes the report to the requested outputs and prints a
// summary to stdout.
func (p *Pipeline) RenderReport(report *Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return goerr.Wrap(err, "writing JSON report")
		}
		if p.cfg.Output.Verbose {
			p.logger.Info("wrote JSON report", "path", jsonPath)
		}
	}
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return goerr.Wrap(err, "writing markdown report")
		}
		if p.cfg.Output.Verbose {
			p.logger.Info("wrote markdown report", "path", mdPath)
		}
	}

	p.renderer.RenderSummary(report)
	return nil
}
