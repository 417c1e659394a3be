// Command monitor polls a live frontier database on an interval and
// prints a progress summary, the Go counterpart of the original
// monitor.py. Reopening the database read-only on every tick, rather than
// holding one handle for the process lifetime, mirrors the teacher's
// ReopenableDB pattern in cmd/server/server.go and survives the crawler
// restarting and recreating the file out from under the monitor. While a
// crawler process holds the file open, the read-only open times out after
// one second and the tick prints the error instead of a summary.
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
)

var (
	frontierFile = flag.String("frontier_file", "frontier.db", "Path to the frontier database.")
	interval     = flag.Duration("interval", 10*time.Second, "Polling interval.")
)

var frontierBucket = []byte("frontier")

func main() {
	flag.Parse()
	for {
		if err := report(*frontierFile); err != nil {
			fmt.Printf("could not read frontier database %q: %v\n", *frontierFile, err)
		}
		time.Sleep(*interval)
	}
}

func report(path string) error {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return err
	}
	defer db.Close()

	total, completed := 0, 0
	subdomains := map[string]int{}

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
			total++
			if e.Completed {
				completed++
				subdomains[hostOf(e.URL)]++
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	fmt.Println(separator())
	fmt.Printf("Time: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println(separator())
	fmt.Printf("Total URLs discovered: %d\n", total)
	fmt.Printf("Completed: %d\n", completed)
	fmt.Printf("Pending: %d\n", total-completed)
	fmt.Printf("\nUnique subdomains found: %d\n", len(subdomains))
	if len(subdomains) > 0 {
		fmt.Println("\nTop 10 subdomains by page count:")
		for _, sc := range topSubdomains(subdomains, 10) {
			fmt.Printf("  %-40s : %6d pages\n", sc.name, sc.count)
		}
	}
	fmt.Println(separator())
	fmt.Println()
	return nil
}

type subdomainCount struct {
	name  string
	count int
}

func topSubdomains(m map[string]int, n int) []subdomainCount {
	out := make([]subdomainCount, 0, len(m))
	for name, count := range m {
		out = append(out, subdomainCount{name, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func separator() string {
	out := make([]byte, 60)
	for i := range out {
		out[i] = '='
	}
	return string(out)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
