package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
)

// ErrDisabled is returned by sources that are configured off or lack credentials.
var ErrDisabled = errors.New("source is disabled")

// Query is what every source searches for.
type Query struct {
	Keywords   string
	Location   string
	MaxResults int
}

// Fetcher is a job source.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]jobs.RawRecord, error)
}

// Status of one fetch.
type Status string

const (
	StatusFetched  Status = "fetched"
	StatusEmpty    Status = "empty"
	StatusFailed   Status = "failed"
	StatusDisabled Status = "disabled"
)

// Result is the outcome of one source. It never carries an error value:
// a failed source simply contributes no records.
type Result struct {
	Source   string
	Status   Status
	Reason   string
	Records  []jobs.RawRecord
	Duration time.Duration
}

// Run fetches from f and converts every failure, panics included, into a Result.
func Run(ctx context.Context, f Fetcher, q Query, log *zap.Logger) (res Result) {
	log = logger.WithSource(log, f.Name())
	res.Source = f.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Status = StatusFailed
			res.Reason = fmt.Sprintf("panic: %v", r)
			res.Records = nil
		}
		res.Duration = time.Since(start)

		fields := []zap.Field{
			zap.String("status", string(res.Status)),
			zap.Int("records", len(res.Records)),
			zap.Duration("took", res.Duration),
		}
		if res.Reason != "" {
			fields = append(fields, zap.String("reason", res.Reason))
		}
		if res.Status == StatusFailed {
			log.Warn("fetch failed", fields...)
			return
		}
		log.Info("fetch finished", fields...)
	}()

	records, err := f.Fetch(ctx, q)
	switch {
	case errors.Is(err, ErrDisabled):
		res.Status = StatusDisabled
		res.Reason = err.Error()
		return res
	case err != nil:
		res.Status = StatusFailed
		res.Reason = err.Error()
		return res
	}

	if q.MaxResults > 0 && len(records) > q.MaxResults {
		records = records[:q.MaxResults]
	}

	res.Records = records
	res.Status = StatusFetched
	if len(records) == 0 {
		res.Status = StatusEmpty
	}

	return res
}

// Collect runs all fetchers concurrently under a shared deadline and returns
// their results in the order of fetchers.
func Collect(ctx context.Context, fetchers []Fetcher, q Query, timeout time.Duration, log *zap.Logger) []Result {
	if log == nil {
		log = zap.NewNop()
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	results := make([]Result, len(fetchers))
	var wg sync.WaitGroup
	for i, f := range fetchers {
		wg.Add(1)
		go func(i int, f Fetcher) {
			defer wg.Done()
			results[i] = Run(ctx, f, q, log)
		}(i, f)
	}
	wg.Wait()

	return results
}

// Records counts records over all results.
func Records(results []Result) int {
	n := 0
	for _, r := range results {
		n += len(r.Records)
	}
	return n
}
