package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/ranking"
	"github.com/spigell/job-matcher/internal/skills"
)

const (
	PromptPrint               = "Print results"
	PromptExit                = "Exit"
	PromptReportBySource      = "Report by source"
	PromptResultsToFile       = "Dump results to file"
	PromptAppendToExcludeFile = "Append all recommendations to exclude file"
)

var errExit = errors.New("exit requested")

// rankReport is the JSON document printed by the rank command.
type rankReport struct {
	*ranking.Result
	Sources []sourceReport `json:"sources"`
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Fetch jobs and rank them against the given skills",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindSearchFlags(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	addSearchFlags(rankCmd)
	rankCmd.Flags().BoolP("auto-approve", "y", false, "print the results without the interactive menu")
	rankCmd.Flags().StringP("output", "o", "", "write the results as JSON to this file")
}

func rank(cmd *cobra.Command) {
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

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	batches, sources, err := collect(ctx, config, logger)
	if err != nil {
		logger.Fatal("getting available jobs", zap.Error(err))
	}

	normalizer := jobs.NewNormalizer(skills.New(&config.Skills), logger)
	ranker := ranking.New(config.Ranking, normalizer, logger)

	batch, dropped := ranker.Prepare(batches...)
	result := ranker.Rank(config.Search.Skills, batch)
	result.Dropped = dropped

	if !result.NoInput {
		filters := prepareFilters(ctx, config, logger)
		if result.Matches, err = runFilters(ctx, filters, result.Matches); err != nil {
			logger.Fatal("filtering matches failed", zap.Error(err))
		}
		if result.Recommendations, err = runFilters(ctx, filters, result.Recommendations); err != nil {
			logger.Fatal("filtering recommendations failed", zap.Error(err))
		}
	}

	report := &rankReport{Result: result, Sources: sources}

	if output := cmd.Flag("output").Value.String(); output != "" {
		if err := writeJSON(output, report); err != nil {
			logger.Fatal("writing results", zap.Error(err))
		}
		logger.Info("results written", zap.String("filename", output))
		return
	}

	if result.NoInput || cmd.Flag("auto-approve").Value.String() == "true" {
		if err := printJSON(report); err != nil {
			logger.Fatal("printing results", zap.Error(err))
		}
		return
	}

	prompt := promptui.Select{
		Label: fmt.Sprintf("Found %d matches and %d recommendations. Proceed?", len(result.Matches), len(result.Recommendations)),
		Items: menuItems(config),
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, config, report); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func runFilters(ctx context.Context, filters *filtering.Filtering, list []*jobs.Job) ([]*jobs.Job, error) {
	filtered, err := filters.RunFilters(ctx, jobs.New(list))
	if err != nil {
		return nil, err
	}
	return filtered.Items, nil
}

func menuItems(config *Config) []string {
	items := []string{PromptPrint, PromptReportBySource, PromptResultsToFile}
	if config.ExcludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}
	return append(items, PromptExit)
}

func handleAction(action string, logger *zap.Logger, config *Config, report *rankReport) error {
	all := jobs.New(append(append([]*jobs.Job{}, report.Matches...), report.Recommendations...))

	switch action {
	case PromptPrint:
		if err := printJSON(report); err != nil {
			return err
		}
		return errExit
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportBySource:
		pretty, _ := json.MarshalIndent(all.ReportBySource(), "", "  ")
		logger.Info(string(pretty), zap.Int("jobs count", all.Len()))
		return nil
	case PromptResultsToFile:
		filename, err := all.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		recommended := jobs.New(report.Recommendations)
		if err := jobs.AppendToFile(config.ExcludeFile, recommended.ToExcluded(jobs.ExcludeActorUser, "")); err != nil {
			return fmt.Errorf("append to exclude file: %w", err)
		}
		logger.Info("appended to exclude file",
			zap.String("filename", config.ExcludeFile),
			zap.Int("count", recommended.Len()),
		)
		report.Recommendations = []*jobs.Job{}
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
