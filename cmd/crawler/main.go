// Command crawler is the ICS URL Frontier Crawler's entrypoint, replacing
// the original launch.py and the teacher's cmd/polyester/polyester.go flag
// handling: load config, register with the cache server, build the
// engine, and run it until the frontier drains or a signal arrives.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/icscrawl/crawler/internal/cacheclient"
	"github.com/icscrawl/crawler/internal/config"
	"github.com/icscrawl/crawler/internal/engine"
	"github.com/icscrawl/crawler/internal/logx"
	"github.com/icscrawl/crawler/internal/policy"
)

var (
	configFile   = flag.String("config_file", "config.ini", "Path to the crawler's INI configuration file.")
	restart      = flag.Bool("restart", false, "Discard any existing frontier database and start fresh from the configured seeds (the stats database is kept).")
	registrarURL = flag.String("registrar", "", "URL of the cache server registration endpoint. Empty disables registration.")
	logLevel     = flag.String("log_level", "info", "Minimum zerolog level to emit (debug, info, warn, error).")
)

func main() {
	flag.Parse()
	log := logx.New(*logLevel)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Str("config_file", *configFile).Msg("could not load configuration")
	}

	pol := &policy.Policy{}
	if cfg.PolicyFile != "" {
		raw, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			log.Fatal().Err(err).Str("policy_file", cfg.PolicyFile).Msg("could not read policy file")
		}
		pol, err = policy.Load(raw)
		if err != nil {
			log.Fatal().Err(err).Str("policy_file", cfg.PolicyFile).Msg("could not parse policy file")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := cacheclient.Register(ctx, *registrarURL, cfg.UserAgent, cacheclient.Endpoint{Host: cfg.Host, Port: cfg.Port}, log)

	e, err := engine.New(cfg, pol, *restart, cache.Host, cache.Port, log)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize crawl engine")
	}
	defer e.Close()

	log.Info().Int("workers", cfg.Workers).Str("cache", cache.String()).Msg("starting crawl")
	if err := e.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("crawl terminated with error")
	}
	log.Info().Msg("crawl complete")
}
