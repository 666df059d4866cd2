package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/ai/gemini"
	"github.com/spigell/job-matcher/internal/fetcher"
	"github.com/spigell/job-matcher/internal/fetcher/brightdata"
	"github.com/spigell/job-matcher/internal/fetcher/file"
	"github.com/spigell/job-matcher/internal/fetcher/headhunter"
	"github.com/spigell/job-matcher/internal/fetcher/naukri"
	"github.com/spigell/job-matcher/internal/filtering"
	applog "github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matcher"
	"github.com/spigell/job-matcher/internal/ranking"
	"github.com/spigell/job-matcher/internal/secrets"
)

// sourceReport is the per-source part of command output.
type sourceReport struct {
	Source   string `json:"source"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Records  int    `json:"records"`
	Duration string `json:"duration"`
}

// addSearchFlags registers the flags shared by the pipeline commands.
func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("skills", "s", "", "comma separated list of skills, e.g. \"python, django\"")
	cmd.Flags().StringP("location", "l", "", "location to search jobs in")
	cmd.Flags().IntP("max-results", "m", defaultMaxResults, "maximum records per source")
	cmd.Flags().Bool("remote", false, "keep remote jobs only")
	cmd.Flags().Bool("entry-level", false, "keep entry level jobs only")
	cmd.Flags().String("experience", "", "experience range, e.g. 0-2")
	cmd.Flags().StringP("exclude-file", "e", "", "special file with jobs to exclude. Default is unset.")
}

// bindSearchFlags binds the flags of the running command only, so both
// pipeline commands can share viper keys.
func bindSearchFlags(cmd *cobra.Command) error {
	bindings := map[string]string{
		"search.skills":       "skills",
		"search.location":     "location",
		"search.max-results":  "max-results",
		"filters.remote":      "remote",
		"filters.entry-level": "entry-level",
		"filters.experience":  "experience",
		"exclude-file":        "exclude-file",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// buildFetchers returns the enabled sources in their fixed order.
func buildFetchers(config *Config, logger *zap.Logger) ([]fetcher.Fetcher, error) {
	fetchers := make([]fetcher.Fetcher, 0, 4)
	sources := config.Sources

	if sources.LinkedIn.Enabled {
		// A missing key is reported as a disabled source, not as a failure.
		key, err := secrets.LoadOptional(secrets.Source{
			Name: "brightdata api key",
			File: config.Secrets.BrightDataAPIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set secrets.brightdata-api-key-file or BRIGHTDATA_API_KEY_FILE)", err)
		}
		fetchers = append(fetchers, brightdata.New(sources.LinkedIn, key, logger))
	}

	if sources.Headhunter.Enabled {
		token, err := secrets.LoadOptional(secrets.Source{
			Name: "headhunter token",
			File: config.Secrets.HHTokenFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set secrets.hh-token-file or HH_TOKEN_FILE)", err)
		}
		fetchers = append(fetchers, headhunter.NewSource(sources.Headhunter, token, logger))
	}

	if sources.Naukri.Enabled {
		fetchers = append(fetchers, naukri.New(sources.Naukri, logger))
	}

	if sources.File.Enabled {
		fetchers = append(fetchers, file.New(sources.File))
	}

	return fetchers, nil
}

// collect fetches every source and turns the results into ranking batches.
func collect(ctx context.Context, config *Config, logger *zap.Logger) ([]ranking.Batch, []sourceReport, error) {
	fetchers, err := buildFetchers(config, logger)
	if err != nil {
		return nil, nil, err
	}
	if len(fetchers) == 0 {
		return nil, nil, fmt.Errorf("no job sources are enabled")
	}

	query := fetcher.Query{
		Keywords:   strings.Join(matcher.ParseTerms(config.Search.Skills), " "),
		Location:   config.Search.Location,
		MaxResults: config.Search.MaxResults,
	}

	logger.Info("starting the search",
		zap.String("keywords", query.Keywords),
		zap.String("location", query.Location),
		zap.Int("sources", len(fetchers)),
	)

	results := fetcher.Collect(ctx, fetchers, query, config.FetchTimeout, logger)

	batches := make([]ranking.Batch, 0, len(results))
	reports := make([]sourceReport, 0, len(results))
	for _, res := range results {
		batches = append(batches, ranking.Batch{Source: res.Source, Records: res.Records})
		reports = append(reports, sourceReport{
			Source:   res.Source,
			Status:   string(res.Status),
			Reason:   res.Reason,
			Records:  len(res.Records),
			Duration: res.Duration.String(),
		})
	}

	logger.Info("getting jobs", zap.Int("count", fetcher.Records(results)))
	return batches, reports, nil
}

func prepareFilters(ctx context.Context, config *Config, logger *zap.Logger) *filtering.Filtering {
	aiFilter, err := prepareAIFilter(ctx, config, logger)
	if err != nil {
		logger.Warn("skipping AI filter", zap.Error(err))
		aiFilter = filtering.NewAIFit(&filtering.AIFitConfig{Enabled: false}, nil)
		aiFilter.Disable(err.Error())
	}

	steps := []filtering.Filter{
		filtering.NewExcludeFile(config.ExcludeFile),
		filtering.NewExcludedCompanies(config.Filters.ExcludeCompanies),
		filtering.NewRemote(config.Filters.Remote),
		filtering.NewEntryLevel(config.Filters.EntryLevel),
		filtering.NewExperience(config.Filters.Experience),
		aiFilter,
	}

	return filtering.New(steps, logger)
}

func prepareAIFilter(ctx context.Context, config *Config, logger *zap.Logger) (filtering.Filter, error) {
	if config.AI == nil || !config.AI.Enabled {
		return filtering.NewAIFit(&filtering.AIFitConfig{Enabled: false}, nil), nil
	}

	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	aiMatcher, err := newAIMatcher(ctx, config.AI, logger)
	if err != nil {
		return nil, err
	}

	candidate := &ai.Candidate{
		Skills:  matcher.ParseTerms(config.Search.Skills),
		Summary: strings.TrimSpace(config.AI.Summary),
	}

	return filtering.NewAIFit(
		&filtering.AIFitConfig{Enabled: true, MinimumFitScore: config.AI.MinimumFitScore},
		&filtering.AIFitDeps{
			Matcher:     aiMatcher,
			Candidate:   candidate,
			Logger:      logger,
			ExcludeFile: config.ExcludeFile,
		},
	), nil
}

func newAIMatcher(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Matcher, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := applog.WithProvider(logger, "gemini", cfg.Gemini.Model).With(
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	minScore := max(cfg.MinimumFitScore, 0)

	matcherLogger := applog.WithProvider(logger, "gemini", generator.Model()).With(
		zap.Float64("minimum_fit_score", minScore),
	)

	m := gemini.NewMatcher(generator, minScore, cfg.Gemini.MaxLogLength, matcherLogger)
	m.SetPromptOverrides(cfg.Prompt)

	return m, nil
}
