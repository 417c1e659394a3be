// Command report produces the offline crawl analysis of the original
// stats.py's analyze_crawl_data: unique completed pages, the longest page
// by word count, the top 50 tokens by aggregate frequency, and a
// per-subdomain completed-page count. It opens the frontier and stats
// bbolt stores read-only; while a crawler process holds a store open, the
// open times out after one second and the report prints the error.
package main

import (
	"flag"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"

	"github.com/icscrawl/crawler/internal/frontier"
	"github.com/icscrawl/crawler/internal/stats"
)

var (
	frontierFile = flag.String("frontier_file", "frontier.db", "Path to the frontier database.")
	statsFile    = flag.String("stats_file", "crawl_stats.db", "Path to the page statistics database.")
)

var frontierBucket = []byte("frontier")
var statsBucket = []byte("stats")

func main() {
	flag.Parse()

	uniquePages, subdomains, err := scanFrontier(*frontierFile)
	if err != nil {
		fmt.Printf("frontier database %q: %v\n", *frontierFile, err)
		return
	}

	fmt.Println(separator())
	fmt.Printf("1. UNIQUE PAGES: %d\n", uniquePages)
	fmt.Println(separator())

	wordTotals, longestURL, longestCount, err := scanStats(*statsFile)
	if err != nil {
		fmt.Printf("Warning: statistics file %q not found or unreadable: %v\n", *statsFile, err)
		return
	}

	fmt.Println()
	fmt.Println(separator())
	fmt.Println("2. LONGEST PAGE:")
	fmt.Printf("   URL: %s\n", longestURL)
	fmt.Printf("   Word Count: %d\n", longestCount)
	fmt.Println(separator())

	fmt.Println()
	fmt.Println(separator())
	fmt.Println("3. TOP 50 WORDS:")
	fmt.Println(separator())
	for i, c := range top(wordTotals, 50) {
		fmt.Printf("   %2d. %-20s : %8d\n", i+1, c.Token, c.N)
	}

	fmt.Println()
	fmt.Println(separator())
	fmt.Println("4. SUBDOMAINS FOUND:")
	fmt.Println(separator())
	names := make([]string, 0, len(subdomains))
	for name := range subdomains {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("   %s, %d\n", name, len(subdomains[name]))
	}
	fmt.Println(separator())
}

func separator() string {
	out := make([]byte, 60)
	for i := range out {
		out[i] = '='
	}
	return string(out)
}

// scanFrontier returns the count of completed, distinct URLs and the set
// of completed URLs grouped by host.
func scanFrontier(path string) (int, map[string]map[string]struct{}, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return 0, nil, err
	}
	defer db.Close()

	unique := map[string]struct{}{}
	subdomains := map[string]map[string]struct{}{}

	err = db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(frontierBucket)
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(_, v []byte) error {
			var e frontier.Entry
			if err := cbor.Unmarshal(v, &e); err != nil {
				return nil
			}
			if !e.Completed {
				return nil
			}
			unique[e.URL] = struct{}{}
			host := hostOf(e.URL)
			if subdomains[host] == nil {
				subdomains[host] = map[string]struct{}{}
			}
			subdomains[host][e.URL] = struct{}{}
			return nil
		})
	})
	return len(unique), subdomains, err
}

// scanStats aggregates per-page word counts into a global token frequency
// table and finds the longest page by word count.
func scanStats(path string) (map[string]int, string, int, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, "N/A", 0, err
	}
	defer db.Close()

	totals := map[string]int{}
	longestURL, longestCount := "N/A", 0

	err = db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(statsBucket)
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(_, v []byte) error {
			var rec stats.Record
			if err := cbor.Unmarshal(v, &rec); err != nil {
				return nil
			}
			for token, count := range rec.Words {
				totals[token] += count
			}
			if rec.WordCount > longestCount {
				longestCount = rec.WordCount
				longestURL = rec.URL
			}
			return nil
		})
	})
	return totals, longestURL, longestCount, err
}

type tokenCount struct {
	Token string
	N     int
}

func top(totals map[string]int, n int) []tokenCount {
	counts := make([]tokenCount, 0, len(totals))
	for token, c := range totals {
		counts = append(counts, tokenCount{token, c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].N != counts[j].N {
			return counts[i].N > counts[j].N
		}
		return counts[i].Token < counts[j].Token
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
