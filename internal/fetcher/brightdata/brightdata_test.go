package brightdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spigell/job-matcher/internal/fetcher"
)

func testConfig(url string) Config {
	return Config{
		APIURL:       url,
		DatasetID:    "ds",
		PollInterval: time.Millisecond,
		PollTimeout:  2 * time.Second,
	}
}

func TestFetchPollsUntilReady(t *testing.T) {
	t.Parallel()

	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/trigger", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Query().Get("dataset_id") != "ds" {
			t.Errorf("unexpected dataset %q", r.URL.Query().Get("dataset_id"))
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing authorization header")
		}

		var in []triggerInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decoding trigger body: %v", err)
		}
		if len(in) != 1 || in[0].Keyword != "react" || in[0].Geo != "India" || in[0].Limit != 100 {
			t.Errorf("unexpected trigger input %+v", in)
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"snapshot_id": "s1"})
	})
	mux.HandleFunc("/snapshot/s1", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&polls, 1) < 3 {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"status":"running"}`))
			return
		}
		_, _ = w.Write([]byte(`[
			{"job_id":"1","title":"React Developer","job_url":"https://www.linkedin.com/jobs/view/1"},
			{"input":{"keyword":"react"},"error":"dead page"}
		]`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	records, err := New(testConfig(srv.URL), "secret", nil).Fetch(context.Background(), fetcher.Query{Keywords: "react", MaxResults: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0]["title"] != "React Developer" {
		t.Fatalf("unexpected records %v", records)
	}
	if got := atomic.LoadInt32(&polls); got != 3 {
		t.Fatalf("expected 3 polls, got %d", got)
	}
}

func TestFetchStatusObject(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/trigger", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"snapshot_id":"s2"}`))
	})
	mux.HandleFunc("/snapshot/s2", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ready","data":[{"title":"Go Engineer","url":"https://x/1"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	records, err := New(testConfig(srv.URL), "secret", nil).Fetch(context.Background(), fetcher.Query{Keywords: "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestFetchSnapshotNotFound(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/trigger", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"snapshot_id":"gone"}`))
	})
	mux.HandleFunc("/snapshot/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := New(testConfig(srv.URL), "secret", nil).Fetch(context.Background(), fetcher.Query{Keywords: "go"})
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestFetchPollTimeout(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/trigger", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"snapshot_id":"slow"}`))
	})
	mux.HandleFunc("/snapshot/slow", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"running"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.PollTimeout = 30 * time.Millisecond

	_, err := New(cfg, "secret", nil).Fetch(context.Background(), fetcher.Query{Keywords: "go"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a deadline error, got %v", err)
	}
}

func TestFetchTriggerFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid token"))
	}))
	defer srv.Close()

	if _, err := New(testConfig(srv.URL), "secret", nil).Fetch(context.Background(), fetcher.Query{Keywords: "go"}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestFetchWithoutKeyIsDisabled(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, "", nil).Fetch(context.Background(), fetcher.Query{Keywords: "go"})
	if !errors.Is(err, fetcher.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
