package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matcher"
	"github.com/spigell/job-matcher/internal/ranking"
	"github.com/spigell/job-matcher/internal/skills"
)

// jobsReport is the JSON document printed by the jobs command.
type jobsReport struct {
	Jobs    []*jobs.Job    `json:"jobs"`
	Total   int            `json:"total"`
	Dropped int            `json:"dropped_records"`
	Sources []sourceReport `json:"sources"`
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Fetch and filter jobs without ranking them",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindSearchFlags(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		listJobs(cmd)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	addSearchFlags(jobsCmd)
	jobsCmd.Flags().StringP("output", "o", "", "write the jobs as JSON to this file")
}

func listJobs(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-matcher", zap.String("version", resolveVersion()))

	report := &jobsReport{Jobs: []*jobs.Job{}, Sources: []sourceReport{}}

	if len(matcher.ParseTerms(config.Search.Skills)) == 0 {
		logger.Info("exiting", zap.String("reason", ranking.ErrNoSkills.Error()))
		if err := printJSON(report); err != nil {
			logger.Fatal("printing jobs", zap.Error(err))
		}
		return
	}

	batches, sources, err := collect(ctx, config, logger)
	if err != nil {
		logger.Fatal("getting available jobs", zap.Error(err))
	}
	report.Sources = sources

	normalizer := jobs.NewNormalizer(skills.New(&config.Skills), logger)
	list, dropped := ranking.New(config.Ranking, normalizer, logger).Prepare(batches...)
	report.Dropped = dropped

	filtered, err := prepareFilters(ctx, config, logger).RunFilters(ctx, jobs.New(list))
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	report.Jobs = filtered.Items
	report.Total = filtered.Len()

	logger.Info("returning jobs after filtering", zap.Int("count", report.Total))

	if output := cmd.Flag("output").Value.String(); output != "" {
		if err := writeJSON(output, report); err != nil {
			logger.Fatal("writing jobs", zap.Error(err))
		}
		logger.Info("jobs written", zap.String("filename", output))
		return
	}

	if err := printJSON(report); err != nil {
		logger.Fatal("printing jobs", zap.Error(err))
	}
}
