// Package engine assembles the crawl's collaborators and runs the worker
// pool, the Go counterpart of the original crawler/__init__.py's Crawler
// class, which owned the Frontier plus one thread per configured worker.
// Workers here are goroutines coordinated by golang.org/x/sync/errgroup
// rather than threading.Thread, and the pool is stopped by cancelling a
// context.Context instead of a shared stop Event, per spec.md §5.
package engine

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/icscrawl/crawler/internal/archive"
	"github.com/icscrawl/crawler/internal/config"
	"github.com/icscrawl/crawler/internal/fetch"
	"github.com/icscrawl/crawler/internal/frontier"
	"github.com/icscrawl/crawler/internal/policy"
	"github.com/icscrawl/crawler/internal/politeness"
	"github.com/icscrawl/crawler/internal/stats"
	"github.com/icscrawl/crawler/internal/trap"
	"github.com/icscrawl/crawler/internal/urlcanon"
	"github.com/icscrawl/crawler/internal/worker"
)

// Engine owns the collaborators shared by every worker in the pool.
type Engine struct {
	cfg         *config.Config
	frontier    *frontier.Frontier
	statsStore  *stats.Store
	mirror      archive.Mirror
	validator   *urlcanon.Validator
	trapFilter  *trap.Filter
	fetcherHost string
	fetcherPort int
	log         zerolog.Logger
}

// New builds the shared crawl state: opens the frontier and stats stores,
// merges an optional policy overlay into the URL validator and trap
// ceiling, and constructs the archive mirror. cacheHost/cachePort are the
// (possibly registrar-reassigned) cache server address used by every
// worker's fetch.Client.
func New(cfg *config.Config, pol *policy.Policy, restart bool, cacheHost string, cachePort int, log zerolog.Logger) (*Engine, error) {
	allowed := append(append([]string{}, cfg.AllowedSuffixes...), pol.ExtraAllowedSuffixes...)
	if len(allowed) == 0 {
		allowed = urlcanon.DefaultAllowedSuffixes
	}
	deny := append(append([]string{}, cfg.DenyExtensions...), pol.ExtraDenyExtensions...)
	if len(deny) == 0 {
		deny = urlcanon.DefaultDenyExtensions
	}
	validator := urlcanon.NewValidator(allowed, deny)

	f, err := frontier.Open(cfg.SaveFile, restart, cfg.SeedURLs, validator, log)
	if err != nil {
		return nil, err
	}

	s, err := stats.Open(cfg.StatsFile, cfg.DedupEnabled, cfg.SimHashThreshold, log)
	if err != nil {
		f.Close()
		return nil, err
	}

	mirror := archive.New(cfg.ArchiveRegion, cfg.ArchiveBucket, log)

	e := &Engine{
		cfg:         cfg,
		frontier:    f,
		statsStore:  s,
		mirror:      mirror,
		validator:   validator,
		trapFilter:  newTrapFilter(pol),
		fetcherHost: cacheHost,
		fetcherPort: cachePort,
		log:         log.With().Str("component", "engine").Logger(),
	}
	return e, nil
}

func newTrapFilter(pol *policy.Policy) *trap.Filter {
	max := trap.DefaultMaxSimilarVisits
	for _, tp := range pol.TrapPatterns {
		if tp.MaxSimilarHit > 0 && tp.MaxSimilarHit < max {
			max = tp.MaxSimilarHit
		}
	}
	return trap.NewFilter(max)
}

// Close releases the frontier and stats durable stores.
func (e *Engine) Close() {
	e.statsStore.Close()
	e.frontier.Close()
}

// Run starts cfg.Workers goroutines, each running an independent
// worker.Worker over the shared Frontier/Clock/Filter/Store, and blocks
// until every one returns or ctx is cancelled (e.g. on SIGINT/SIGTERM).
// A worker stopping because the frontier drained is not an error, and
// neither is cancellation: context.Canceled is logged and Run returns nil.
// Any other worker error (including context.DeadlineExceeded) is returned.
func (e *Engine) Run(ctx context.Context) error {
	clock := politeness.NewClock(e.cfg.TimeDelay)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < e.cfg.Workers; i++ {
		id := i
		g.Go(func() error {
			fetcher := fetch.NewClient(e.fetcherHost, e.fetcherPort, e.cfg.UserAgent, e.log)
			w := worker.New(id, worker.Config{TimeDelay: e.cfg.TimeDelay}, e.frontier, fetcher, e.trapFilter, clock, e.statsStore, e.mirror, e.validator, e.log)
			return w.Run(gctx)
		})
	}

	err := g.Wait()
	if err == context.Canceled {
		e.log.Info().Msg("crawl stopped by cancellation")
		return nil
	}
	return err
}
