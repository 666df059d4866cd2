package headhunter

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/fetcher"
	"github.com/spigell/job-matcher/internal/jobs"
)

const Name = "headhunter"

// Config is the hh.ru source configuration.
type Config struct {
	Enabled bool         `mapstructure:"enabled"`
	APIURL  string       `mapstructure:"api-url"`
	Search  SearchParams `mapstructure:"search"`
}

// Source adapts the API client to the fetcher interface.
type Source struct {
	client *Client
	params SearchParams
	logger *zap.Logger
}

func NewSource(cfg Config, token string, logger *zap.Logger) *Source {
	client := New(logger, token)
	if cfg.APIURL != "" {
		client.APIURL = strings.TrimRight(cfg.APIURL, "/")
	}
	return &Source{client: client, params: cfg.Search, logger: client.logger}
}

func (s *Source) Name() string {
	return Name
}

func (s *Source) Fetch(ctx context.Context, q fetcher.Query) ([]jobs.RawRecord, error) {
	params := s.params
	params.Text = strings.TrimSpace(strings.Join([]string{q.Keywords, params.Text}, " "))

	vacancies, err := s.client.Search(ctx, &params, q.MaxResults)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("vacancies found", zap.Int("count", vacancies.Len()))

	return vacancies.Records(), nil
}
