// Package urlcanon canonicalizes and validates discovered URLs.
//
// Ported from the original crawler's scraper.py (is_valid, and the urljoin
// dance in LinkExtractor.handle_starttag), generalized from the single
// ".ics.uci.edu" suffix to the configurable suffix family per spec.md §4.2
// and §9 open question 1.
package urlcanon

import (
	"net/url"
	"strings"
)

// DefaultAllowedSuffixes is the four-suffix UCI family (spec.md §9 OQ1).
var DefaultAllowedSuffixes = []string{
	".ics.uci.edu",
	".cs.uci.edu",
	".informatics.uci.edu",
	".stat.uci.edu",
}

// DefaultDenyExtensions is the path-suffix denylist from spec.md §6.
var DefaultDenyExtensions = []string{
	"css", "js", "bmp", "gif", "jpg", "jpeg", "ico", "png", "tiff", "tif",
	"mid", "mp2", "mp3", "mp4", "wav", "avi", "mov", "mpeg", "mpg", "ram",
	"m4v", "mkv", "ogg", "ogv", "pdf", "ps", "eps", "tex", "ppt", "pptx",
	"doc", "docx", "xls", "xlsx", "names", "data", "dat", "exe", "bz2",
	"tar", "msi", "bin", "7z", "psd", "dmg", "iso", "epub", "dll", "cnf",
	"tgz", "sha1", "thmx", "mso", "arff", "rtf", "jar", "csv", "rm",
	"smil", "wmv", "swf", "wma", "zip", "rar", "gz", "xml", "rss", "json",
	"txt", "py", "java", "cpp", "c", "h", "hpp", "cc", "svg", "woff",
	"woff2", "ttf", "eot", "otf",
}

// Validator holds the configured admission rules for is_valid.
type Validator struct {
	AllowedSuffixes []string
	DenyExtensions  map[string]struct{}
}

// NewValidator builds a Validator. Empty slices fall back to the defaults.
func NewValidator(suffixes, denyExt []string) *Validator {
	if len(suffixes) == 0 {
		suffixes = DefaultAllowedSuffixes
	}
	if len(denyExt) == 0 {
		denyExt = DefaultDenyExtensions
	}
	m := make(map[string]struct{}, len(denyExt))
	for _, e := range denyExt {
		m[strings.ToLower(e)] = struct{}{}
	}
	return &Validator{AllowedSuffixes: suffixes, DenyExtensions: m}
}

// Canonicalize resolves href against base and returns the re-serialized
// canonical form: scheme and host lowercased, fragment stripped, path,
// params, and query left as-is. Idempotent per spec.md §8 invariant 2.
func Canonicalize(href string, base *url.URL) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	abs := base.ResolveReference(ref)
	return canonicalForm(abs), nil
}

func canonicalForm(u *url.URL) string {
	out := *u
	out.Scheme = strings.ToLower(out.Scheme)
	out.Host = strings.ToLower(out.Host)
	out.Fragment = ""
	out.RawFragment = ""
	return out.String()
}

// CanonicalizeURL re-derives the canonical form of an already-absolute URL,
// for re-canonicalizing values pulled back out of durable storage.
func CanonicalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return canonicalForm(u), nil
}

// IsValid implements the admission predicate from spec.md §4.2. Any parse
// exception is treated as invalid, never propagated.
func (v *Validator) IsValid(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if !hasAnySuffix(host, v.AllowedSuffixes) {
		return false
	}
	if u.Fragment != "" {
		return false
	}
	path := u.EscapedPath()
	pathLower := strings.ToLower(path)
	if v.hasDeniedExtension(pathLower) {
		return false
	}
	return true
}

func hasAnySuffix(host string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(host, s) {
			return true
		}
	}
	return false
}

func (v *Validator) hasDeniedExtension(pathLower string) bool {
	// Path component considered up to the first '?' -- url.Parse already
	// splits the query into u.RawQuery, so pathLower here has no '?'.
	idx := strings.LastIndexByte(pathLower, '.')
	if idx < 0 {
		return false
	}
	ext := pathLower[idx+1:]
	_, denied := v.DenyExtensions[ext]
	return denied
}
