package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/icscrawl/crawler/internal/config"
	"github.com/icscrawl/crawler/internal/fetch"
	"github.com/icscrawl/crawler/internal/policy"
)

func TestEngineRunDrainsFrontier(t *testing.T) {
	page := `<html><body>hello</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		body, err := cbor.Marshal(fetch.Response{
			URL:    q,
			Status: 200,
			RawResponse: &fetch.RawResponse{
				URL:     q,
				Content: []byte(page),
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		w.Write(body)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	host := u.Hostname()
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		UserAgent:        "test-agent",
		SeedURLs:         []string{"https://start.ics.uci.edu/"},
		TimeDelay:        time.Millisecond,
		SaveFile:         filepath.Join(t.TempDir(), "frontier.db"),
		StatsFile:        filepath.Join(t.TempDir(), "stats.db"),
		Workers:          2,
		AllowedSuffixes:  []string{".ics.uci.edu"},
		SimHashThreshold: 3,
	}

	e, err := New(cfg, &policy.Policy{}, true, host, port, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Run(ctx); err != nil {
		t.Fatalf("engine run failed: %v", err)
	}

	completed, found := e.frontier.IsCompleted("https://start.ics.uci.edu/")
	if !found || !completed {
		t.Fatalf("expected seed completed, found=%v completed=%v", found, completed)
	}
}
