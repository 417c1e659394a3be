// Package htmlx streams HTML documents for link and visible-text extraction.
//
// Grounded in the teacher's golang.org/x/net/html walk over *html.Node in
// crawler.staticateNode, and in the original crawler's scraper.py
// LinkExtractor / utils/statistics.py TextExtractor (both built on Python's
// html.parser.HTMLParser, the generator-style streaming parser this package
// reproduces with x/net/html's tokenizer).
package htmlx

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/icscrawl/crawler/internal/urlcanon"
)

// ExtractLinks streams HTML from r and returns the canonicalized form of
// every non-empty <a href>, resolved against base. Malformed HTML degrades
// gracefully to whatever was recovered before the parse error; no
// deduplication happens here, per spec.md §4.3.
func ExtractLinks(r io.Reader, base *url.URL) []string {
	var links []string
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return links
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if atom.Lookup(name) != atom.A || !hasAttr {
			continue
		}
		for {
			key, val, more := z.TagAttr()
			if string(key) == "href" && len(val) > 0 {
				if canon, err := urlcanon.Canonicalize(string(val), base); err == nil {
					links = append(links, canon)
				}
				break
			}
			if !more {
				break
			}
		}
	}
}

// ExtractText streams HTML from r and returns its visible text, joined by
// newlines, suppressing data inside <script> and <style> elements. The
// extractor carries no state across calls/pages.
func ExtractText(r io.Reader) string {
	var lines []string
	var suppressDepth int
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(lines, "\n")
		case html.StartTagToken:
			name, _ := z.TagName()
			if isSuppressed(name) {
				suppressDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isSuppressed(name) && suppressDepth > 0 {
				suppressDepth--
			}
		case html.TextToken:
			if suppressDepth == 0 {
				if text := string(z.Text()); text != "" {
					lines = append(lines, text)
				}
			}
		}
	}
}

func isSuppressed(name []byte) bool {
	a := atom.Lookup(name)
	return a == atom.Script || a == atom.Style
}
