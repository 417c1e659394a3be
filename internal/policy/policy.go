// Package policy loads an optional YAML overlay that augments the flat INI
// configuration with structured admission rules, adapted from the
// teacher's site.Config (site/config.go): Domains/Resources becomes
// ExtraAllowedSuffixes/ExtraDenyExtensions/TrapPatterns. Each named trap
// pattern carries a regex and a visit-count ceiling; the crawl engine uses
// only the ceilings, folded into one crawl-wide MAX_SIMILAR_URL_VISITS, and
// does not match URLs against the regexes.
package policy

import (
	"bytes"
	"regexp"

	"gopkg.in/yaml.v3"
)

// TrapPattern names a regex with a visit-count ceiling. internal/engine
// takes the smallest MaxSimilarHit below the default as the single global
// trap ceiling; Pattern is compiled by CompiledTrapPatterns but no URL is
// matched against it during a crawl.
type TrapPattern struct {
	Name          string `yaml:"name"`
	Pattern       string `yaml:"pattern"`
	MaxSimilarHit int    `yaml:"max_similar_hits"`
}

// Policy is the decoded overlay document.
type Policy struct {
	ExtraAllowedSuffixes []string      `yaml:"extra_allowed_suffixes"`
	ExtraDenyExtensions  []string      `yaml:"extra_deny_extensions"`
	TrapPatterns         []TrapPattern `yaml:"trap_patterns"`
}

// Load decodes a Policy from YAML bytes. An empty document is valid and
// yields a zero-value Policy (defaults-only).
func Load(in []byte) (*Policy, error) {
	out := &Policy{}
	d := yaml.NewDecoder(bytes.NewReader(in))
	d.KnownFields(true)
	if err := d.Decode(out); err != nil {
		if err.Error() == "EOF" {
			return &Policy{}, nil
		}
		return nil, err
	}
	return out, nil
}

// CompiledTrapPatterns compiles every pattern, skipping (and the caller
// should log) any that fail to compile.
func (p *Policy) CompiledTrapPatterns() map[*regexp.Regexp]int {
	out := make(map[*regexp.Regexp]int, len(p.TrapPatterns))
	for _, tp := range p.TrapPatterns {
		re, err := regexp.Compile(tp.Pattern)
		if err != nil {
			continue
		}
		max := tp.MaxSimilarHit
		if max <= 0 {
			max = 10
		}
		out[re] = max
	}
	return out
}
