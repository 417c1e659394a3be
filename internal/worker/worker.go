// Package worker implements the dequeue/politeness/fetch/classify/extract/
// enqueue/complete loop of spec.md §4.7, ported from the original crawler's
// Worker.run (crawler/worker.py) onto explicit, injected collaborators
// (frontier, fetch client, trap filter, politeness clock, stats store,
// archive mirror) instead of Worker's class-level shared-state attributes,
// per spec.md §9's call to avoid static/global singletons.
package worker

import (
	"bytes"
	"context"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/icscrawl/crawler/internal/archive"
	"github.com/icscrawl/crawler/internal/fetch"
	"github.com/icscrawl/crawler/internal/frontier"
	"github.com/icscrawl/crawler/internal/htmlx"
	"github.com/icscrawl/crawler/internal/politeness"
	"github.com/icscrawl/crawler/internal/stats"
	"github.com/icscrawl/crawler/internal/trap"
	"github.com/icscrawl/crawler/internal/urlcanon"
)

// Defaults from spec.md §4.7.
const (
	DefaultEmptyThreshold    = 5
	DefaultMaxContentSize    = 10 * 1024 * 1024
	DefaultDeadBodyThreshold = 100
)

// Config holds the tunables of the worker loop.
type Config struct {
	TimeDelay         time.Duration
	EmptyThreshold    int
	MaxContentSize    int64
	DeadBodyThreshold int
}

// Worker runs the crawl loop against a shared Frontier and its sibling
// collaborators. Multiple Workers may run concurrently over the same
// Frontier, Clock, and Filter (spec.md §5).
type Worker struct {
	id         int
	cfg        Config
	frontier   *frontier.Frontier
	fetcher    *fetch.Client
	trapFilter *trap.Filter
	clock      *politeness.Clock
	statsStore *stats.Store
	mirror     archive.Mirror
	validator  *urlcanon.Validator
	log        zerolog.Logger
}

// New builds a Worker. mirror may be archive.Noop{} to disable archiving.
func New(
	id int,
	cfg Config,
	f *frontier.Frontier,
	fetcher *fetch.Client,
	trapFilter *trap.Filter,
	clock *politeness.Clock,
	statsStore *stats.Store,
	mirror archive.Mirror,
	validator *urlcanon.Validator,
	log zerolog.Logger,
) *Worker {
	if cfg.EmptyThreshold <= 0 {
		cfg.EmptyThreshold = DefaultEmptyThreshold
	}
	if cfg.MaxContentSize <= 0 {
		cfg.MaxContentSize = DefaultMaxContentSize
	}
	if cfg.DeadBodyThreshold <= 0 {
		cfg.DeadBodyThreshold = DefaultDeadBodyThreshold
	}
	return &Worker{
		id:         id,
		cfg:        cfg,
		frontier:   f,
		fetcher:    fetcher,
		trapFilter: trapFilter,
		clock:      clock,
		statsStore: statsStore,
		mirror:     mirror,
		validator:  validator,
		log:        log.With().Str("component", "worker").Int("worker_id", id).Logger(),
	}
}

// Run executes the dequeue/fetch/classify/extract/enqueue/complete loop
// until ctx is cancelled or EMPTY_THRESHOLD consecutive empty polls are
// observed (spec.md §4.7, §5).
func (w *Worker) Run(ctx context.Context) error {
	consecutiveEmpty := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tbdURL, ok := w.frontier.GetNext()
		if !ok {
			consecutiveEmpty++
			if consecutiveEmpty >= w.cfg.EmptyThreshold {
				w.log.Info().Msg("frontier is empty, stopping worker")
				return nil
			}
			if !w.sleep(ctx, w.cfg.TimeDelay) {
				return ctx.Err()
			}
			continue
		}
		consecutiveEmpty = 0

		if w.trapFilter.IsTrap(tbdURL) {
			w.log.Warn().Str("url", tbdURL).Msg("skipping potential trap")
			w.complete(tbdURL)
			if !w.sleep(ctx, w.cfg.TimeDelay) {
				return ctx.Err()
			}
			continue
		}
		w.trapFilter.RecordVisit(tbdURL)

		host := hostOf(tbdURL)
		w.clock.WaitFor(host)

		resp := w.fetcher.Download(ctx, tbdURL)
		w.log.Info().Str("url", tbdURL).Int("status", resp.Status).Msg("downloaded")

		if w.isDeadURL(resp) {
			w.log.Warn().Str("url", tbdURL).Msg("dead url detected, no meaningful content")
			w.complete(tbdURL)
			if !w.sleep(ctx, w.cfg.TimeDelay) {
				return ctx.Err()
			}
			continue
		}
		if w.isLargeLowValue(resp) {
			w.log.Warn().Str("url", tbdURL).Int("bytes", len(bodyOf(resp))).Msg("large low-value file, skipping")
			w.complete(tbdURL)
			if !w.sleep(ctx, w.cfg.TimeDelay) {
				return ctx.Err()
			}
			continue
		}

		w.extractAndEnqueue(tbdURL, resp)

		if resp.Status == 200 {
			if _, err := w.statsStore.SavePageStats(tbdURL, bodyOf(resp)); err != nil {
				w.log.Error().Err(err).Str("url", tbdURL).Msg("failed to save page stats")
			}
			if err := w.mirror.Put(frontier.Digest(tbdURL), "", bodyOf(resp)); err != nil {
				w.log.Warn().Err(err).Str("url", tbdURL).Msg("archive mirror write failed")
			}
		}

		w.complete(tbdURL)
		if !w.sleep(ctx, w.cfg.TimeDelay) {
			return ctx.Err()
		}
	}
}

func (w *Worker) complete(rawURL string) {
	if err := w.frontier.MarkComplete(rawURL); err != nil {
		w.log.Error().Err(err).Str("url", rawURL).Msg("failed to mark url complete")
	}
}

// extractAndEnqueue runs the link extractor even on non-200 responses
// (redirects/error pages may still carry links, per spec.md §7) and admits
// only links that pass validation and are not themselves traps.
func (w *Worker) extractAndEnqueue(tbdURL string, resp *fetch.Response) {
	body := bodyOf(resp)
	if len(body) == 0 {
		return
	}
	base, err := url.Parse(effectiveURL(tbdURL, resp))
	if err != nil {
		return
	}
	links := htmlx.ExtractLinks(bytes.NewReader(body), base)
	for _, link := range links {
		if w.validator.IsValid(link) && !w.trapFilter.IsTrap(link) {
			if err := w.frontier.Add(link); err != nil {
				w.log.Error().Err(err).Str("url", link).Msg("failed to add discovered url")
			}
		}
	}
}

func (w *Worker) isDeadURL(resp *fetch.Response) bool {
	if resp.Status != 200 {
		return false
	}
	return len(bodyOf(resp)) < w.cfg.DeadBodyThreshold
}

func (w *Worker) isLargeLowValue(resp *fetch.Response) bool {
	return int64(len(bodyOf(resp))) > w.cfg.MaxContentSize
}

// sleep blocks for d or until ctx is cancelled, reporting which happened.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

func bodyOf(resp *fetch.Response) []byte {
	if resp == nil || resp.RawResponse == nil {
		return nil
	}
	return resp.RawResponse.Content
}

func effectiveURL(fallback string, resp *fetch.Response) string {
	if resp != nil && resp.RawResponse != nil && resp.RawResponse.URL != "" {
		return resp.RawResponse.URL
	}
	if resp != nil && resp.URL != "" {
		return resp.URL
	}
	return fallback
}
