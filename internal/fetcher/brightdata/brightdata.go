// Package brightdata fetches LinkedIn postings through the BrightData
// dataset API: a collection is triggered and its snapshot is polled until ready.
package brightdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/fetcher"
	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/utils"
)

const (
	Name = "linkedin"

	defaultAPIURL    = "https://api.brightdata.com/datasets/v3"
	defaultDatasetID = "gd_l7q7dkf244hwjntr0"
	defaultLocation  = "India"
	maxLimit         = 100

	statusReady = "ready"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Config is the BrightData source configuration.
type Config struct {
	Enabled      bool          `mapstructure:"enabled"`
	APIURL       string        `mapstructure:"api-url"`
	DatasetID    string        `mapstructure:"dataset-id"`
	PollInterval time.Duration `mapstructure:"poll-interval"`
	PollTimeout  time.Duration `mapstructure:"poll-timeout"`
}

func (c Config) withDefaults() Config {
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.DatasetID == "" {
		c.DatasetID = defaultDatasetID
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 90 * time.Second
	}
	return c
}

type Client struct {
	cfg        Config
	apiKey     string
	logger     *zap.Logger
	HTTPClient *http.Client
}

func New(cfg Config, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg.withDefaults(),
		apiKey:     apiKey,
		logger:     logger,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Name() string {
	return Name
}

type triggerInput struct {
	Keyword string `json:"keyword"`
	Geo     string `json:"geo"`
	Limit   int    `json:"limit"`
}

type triggerResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type snapshotStatus struct {
	Status string           `json:"status"`
	Data   []map[string]any `json:"data"`
}

// Fetch triggers a collection for the query and waits for its snapshot.
func (c *Client) Fetch(ctx context.Context, q fetcher.Query) ([]jobs.RawRecord, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: api key is not configured: %w", Name, fetcher.ErrDisabled)
	}

	id, err := c.trigger(ctx, q)
	if err != nil {
		return nil, err
	}

	c.logger.Info("collection triggered", zap.String("snapshot_id", id))

	return c.waitSnapshot(ctx, id)
}

func (c *Client) trigger(ctx context.Context, q fetcher.Query) (string, error) {
	location := q.Location
	if location == "" {
		location = defaultLocation
	}
	limit := q.MaxResults
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	body, err := json.Marshal([]triggerInput{{Keyword: q.Keywords, Geo: location, Limit: limit}})
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("dataset_id", c.cfg.DatasetID)
	params.Set("include_errors", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/trigger?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("trigger: bad status %s: %s", resp.Status, utils.TruncateForLog(string(msg), 200))
	}

	var tr triggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("trigger: decoding response: %w", err)
	}
	if tr.SnapshotID == "" {
		return "", errors.New("trigger: no snapshot_id in response")
	}

	return tr.SnapshotID, nil
}

func (c *Client) waitSnapshot(ctx context.Context, id string) ([]jobs.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.PollTimeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		records, ready, err := c.poll(ctx, id)
		switch {
		case errors.Is(err, ErrSnapshotNotFound):
			return nil, err
		case err != nil:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("snapshot %s not ready after %s: %w", id, c.cfg.PollTimeout, ctx.Err())
			}
			c.logger.Warn("polling snapshot failed", zap.Int("attempt", attempt), zap.Error(err))
		case ready:
			c.logger.Info("snapshot ready", zap.Int("attempt", attempt), zap.Int("records", len(records)))
			return records, nil
		default:
			c.logger.Debug("snapshot still running", zap.Int("attempt", attempt))
		}

		if err := utils.WaitFor(ctx, c.cfg.PollInterval); err != nil {
			return nil, fmt.Errorf("snapshot %s not ready after %s: %w", id, c.cfg.PollTimeout, err)
		}
	}
}

// poll reads the snapshot once. A ready snapshot is either a bare array of
// records or an object with status "ready" and a data array.
func (c *Client) poll(ctx context.Context, id string) ([]jobs.RawRecord, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"/snapshot/"+url.PathEscape(id)+"?format=json", nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
	case http.StatusNotFound:
		return nil, false, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	default:
		return nil, false, fmt.Errorf("snapshot: bad status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		var raw []map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, false, fmt.Errorf("snapshot: decoding records: %w", err)
		}
		return toRecords(raw), true, nil
	}

	var st snapshotStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, false, fmt.Errorf("snapshot: decoding status: %w", err)
	}
	if st.Status != statusReady {
		return nil, false, nil
	}

	return toRecords(st.Data), true, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

// toRecords keeps collected entries, skipping the per-input error entries
// BrightData adds when include_errors is set.
func toRecords(raw []map[string]any) []jobs.RawRecord {
	out := make([]jobs.RawRecord, 0, len(raw))
	for _, r := range raw {
		if _, failed := r["error"]; failed {
			if _, ok := r["title"]; !ok {
				continue
			}
		}
		out = append(out, jobs.RawRecord(r))
	}
	return out
}
