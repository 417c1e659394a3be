// Package config reads the crawler's INI configuration file, the Go
// counterpart of the original launch.py's configparser.ConfigParser +
// utils.config.Config pairing. The library is gopkg.in/ini.v1 — the
// idiomatic Go choice for this format, since no stdlib INI reader exists
// and none of the example repos carry an INI dependency to inherit.
package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Config is the fully-resolved runtime configuration for one crawl.
type Config struct {
	UserAgent string
	Host      string
	Port      int
	SeedURLs  []string
	TimeDelay time.Duration
	SaveFile  string

	// Additions beyond spec.md §6's minimum key set, needed for a runnable
	// program (spec.md §4.8).
	StatsFile        string
	Workers          int
	AllowedSuffixes  []string
	DenyExtensions   []string
	PolicyFile       string
	ArchiveBucket    string
	ArchiveRegion    string
	SimHashThreshold int
	DedupEnabled     bool
}

// Load parses the INI file at path into a Config, applying defaults for
// every optional key.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}
	sec := f.Section("")

	cfg := &Config{
		UserAgent:        sec.Key("USERAGENT").MustString("ir-crawler"),
		Host:             sec.Key("HOST").MustString("localhost"),
		Port:             sec.Key("PORT").MustInt(9000),
		SeedURLs:         splitCSV(sec.Key("SEEDURL").String()),
		TimeDelay:        time.Duration(sec.Key("POLITENESS").MustFloat64(0.5) * float64(time.Second)),
		SaveFile:         sec.Key("SAVE").MustString("frontier.db"),
		StatsFile:        sec.Key("STATSFILE").MustString("crawl_stats.db"),
		Workers:          sec.Key("WORKERS").MustInt(1),
		AllowedSuffixes:  splitCSV(sec.Key("ALLOWEDSUFFIXES").String()),
		DenyExtensions:   splitCSV(sec.Key("DENYEXTENSIONS").String()),
		PolicyFile:       sec.Key("POLICYFILE").String(),
		ArchiveBucket:    sec.Key("ARCHIVEBUCKET").String(),
		ArchiveRegion:    sec.Key("ARCHIVEREGION").MustString("us-east-1"),
		SimHashThreshold: sec.Key("SIMHASHTHRESHOLD").MustInt(3),
		DedupEnabled:     sec.Key("DEDUPENABLED").MustBool(false),
	}
	if len(cfg.SeedURLs) == 0 {
		return nil, fmt.Errorf("config %q: SEEDURL must list at least one seed URL", path)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
