package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-matcher/internal/ai/gemini"
	"github.com/spigell/job-matcher/internal/fetcher/brightdata"
	"github.com/spigell/job-matcher/internal/fetcher/file"
	"github.com/spigell/job-matcher/internal/fetcher/headhunter"
	"github.com/spigell/job-matcher/internal/fetcher/naukri"
	"github.com/spigell/job-matcher/internal/ranking"
	"github.com/spigell/job-matcher/internal/skills"
)

const (
	app = "job-matcher"

	defaultFetchTimeout = 2 * time.Minute
	defaultMaxResults   = 50
)

type Config struct {
	Search       SearchConfig   `mapstructure:"search"`
	Filters      FiltersConfig  `mapstructure:"filters"`
	Ranking      ranking.Config `mapstructure:"ranking"`
	Skills       skills.Config  `mapstructure:"skills"`
	Sources      SourcesConfig  `mapstructure:"sources"`
	FetchTimeout time.Duration  `mapstructure:"fetch-timeout"`
	ExcludeFile  string         `mapstructure:"exclude-file"`
	Secrets      SecretsConfig  `mapstructure:"secrets"`
	AI           *AIConfig      `mapstructure:"ai"`
}

type SearchConfig struct {
	Skills     string `mapstructure:"skills"`
	Location   string `mapstructure:"location"`
	MaxResults int    `mapstructure:"max-results"`
}

type FiltersConfig struct {
	Remote           bool     `mapstructure:"remote"`
	EntryLevel       bool     `mapstructure:"entry-level"`
	Experience       string   `mapstructure:"experience"`
	ExcludeCompanies []string `mapstructure:"exclude-companies"`
}

// SourcesConfig lists job sources in the order their records are ranked.
type SourcesConfig struct {
	LinkedIn   brightdata.Config `mapstructure:"linkedin"`
	Headhunter headhunter.Config `mapstructure:"headhunter"`
	Naukri     naukri.Config     `mapstructure:"naukri"`
	File       file.Config       `mapstructure:"file"`
}

type SecretsConfig struct {
	BrightDataAPIKeyFile string `mapstructure:"brightdata-api-key-file"`
	HHTokenFile          string `mapstructure:"hh-token-file"`
}

type AIConfig struct {
	Enabled         bool                   `mapstructure:"enabled"`
	Provider        string                 `mapstructure:"provider"`
	MinimumFitScore float64                `mapstructure:"minimum-fit-score"`
	Summary         string                 `mapstructure:"summary"`
	Gemini          *GeminiConfig          `mapstructure:"gemini"`
	Prompt          gemini.PromptOverrides `mapstructure:"prompt"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-matcher fetches job postings and ranks them against a list of skills",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"secrets.brightdata-api-key-file": "BRIGHTDATA_API_KEY_FILE",
		"secrets.hh-token-file":           "HH_TOKEN_FILE",
		"ai.gemini.api-key-file":          "GEMINI_API_KEY_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Only the pipeline commands read the config.
	if rankCmd.CalledAs() == "" && jobsCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Flags alone are enough to run, but a broken or explicitly requested config is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		Search:       SearchConfig{MaxResults: defaultMaxResults},
		Ranking:      ranking.DefaultConfig(),
		FetchTimeout: defaultFetchTimeout,
		Sources: SourcesConfig{
			LinkedIn: brightdata.Config{Enabled: true},
			Naukri:   naukri.Config{Enabled: true},
		},
	}
}

func getConfig() (*Config, error) {
	config := defaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return config, err
	}
	if config.Search.MaxResults <= 0 {
		config.Search.MaxResults = defaultMaxResults
	}

	return config, nil
}
