// Package stats is the durable per-page statistics store with SimHash-based
// near-duplicate suppression, adapted from the original crawler's
// utils/statistics.py (StatisticsCollector, TextExtractor) onto the
// teacher's go.etcd.io/bbolt storage pattern (storage/bbolt.go), again
// sharing the CBOR codec already wired in internal/fetch and
// internal/frontier.
package stats

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"math/bits"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/icscrawl/crawler/internal/htmlx"
	"github.com/icscrawl/crawler/internal/tokenize"
	"github.com/icscrawl/crawler/internal/urlcanon"
)

var bucketName = []byte("stats")

// Record is the durable per-page statistics record of spec.md §3.
type Record struct {
	URL       string         `cbor:"url"`
	WordCount int            `cbor:"word_count"`
	Words     map[string]int `cbor:"words"`
	SimHash   uint64         `cbor:"simhash"`
}

const (
	retryAttempts = 3
	retryBase     = 100 * time.Millisecond
)

// Store is the durable page-statistics backend.
type Store struct {
	db           *bbolt.DB
	log          zerolog.Logger
	dedupEnabled bool
	threshold    int
}

// Open opens (creating if absent) the statistics store at path. dedup
// gates the optional near-duplicate skip (spec.md §9 OQ2, default off);
// threshold is the Hamming-distance bound for near-duplicate detection
// (spec.md §4.6 default 3).
func Open(path string, dedup bool, threshold int, log zerolog.Logger) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening stats store: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating stats bucket: %w", err)
	}
	return &Store{
		db:           db,
		log:          log.With().Str("component", "stats").Logger(),
		dedupEnabled: dedup,
		threshold:    threshold,
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SavePageStats implements spec.md §4.6: decode body as UTF-8 (lossy),
// extract visible text, tokenize it, compute the SimHash fingerprint, and
// — when near-duplicate suppression is enabled — skip the write if an
// existing page is within the configured Hamming distance. Transient I/O
// errors are retried with exponential backoff; final failure is logged and
// swallowed, never fatal to the crawl.
func (s *Store) SavePageStats(rawURL string, body []byte) (skipped bool, err error) {
	canon, err := urlcanon.CanonicalizeURL(rawURL)
	if err != nil {
		return false, err
	}

	text := htmlx.ExtractText(bytes.NewReader(body))
	words := tokenize.Tokens(bytes.NewReader([]byte(text)))
	total := 0
	for _, n := range words {
		total += n
	}
	fingerprint := SimHash(words)

	if s.dedupEnabled && fingerprint != 0 {
		if dup, of := s.findNearDuplicate(fingerprint); dup {
			s.log.Info().Str("url", canon).Str("duplicate_of", of).Msg("skipping near-duplicate page")
			return true, nil
		}
	}

	rec := Record{URL: canon, WordCount: total, Words: words, SimHash: fingerprint}
	value, err := cbor.Marshal(rec)
	if err != nil {
		return false, err
	}
	key := []byte(digest(canon))

	err = withRetry(func() error {
		return s.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(bucketName).Put(key, value)
		})
	})
	if err != nil {
		s.log.Error().Err(err).Str("url", canon).Msg("dropping page stats write after retries exhausted")
		return false, nil
	}
	return false, nil
}

func (s *Store) findNearDuplicate(fp uint64) (bool, string) {
	var dupURL string
	var found bool
	_ = s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec Record
			if err := cbor.Unmarshal(v, &rec); err != nil {
				continue
			}
			if rec.SimHash == 0 {
				continue
			}
			if Hamming(rec.SimHash, fp) <= s.threshold {
				found = true
				dupURL = rec.URL
				return nil
			}
		}
		return nil
	})
	return found, dupURL
}

func digest(canonicalURL string) string {
	sum := md5.Sum([]byte(canonicalURL))
	return fmt.Sprintf("%x", sum)
}

func withRetry(fn func() error) error {
	var err error
	delay := retryBase
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == retryAttempts {
			break
		}
		time.Sleep(delay)
		delay *= 2
	}
	return err
}

// SimHash computes the 64-bit locality-sensitive fingerprint described in
// spec.md §4.6: each token's low 64 bits of its MD5 digest cast a weighted
// vote (+1/-1 per bit, weighted by the token's occurrence count, which is
// equivalent to iterating the full token stream occurrence-by-occurrence)
// into a 64-element vector; bit i of the result is set iff the vector's
// i-th element is positive. Empty input yields 0.
func SimHash(counts map[string]int) uint64 {
	var votes [64]int
	for token, n := range counts {
		sum := md5.Sum([]byte(token))
		var low8 [8]byte
		copy(low8[:], sum[8:16])
		bitsVal := beUint64(low8)
		for i := 0; i < 64; i++ {
			bit := (bitsVal >> uint(i)) & 1
			if bit == 1 {
				votes[i] += n
			} else {
				votes[i] -= n
			}
		}
	}
	var fp uint64
	for i, v := range votes {
		if v > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

func beUint64(b [8]byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// Hamming returns the popcount of a XOR b, the bit-distance between two
// SimHash fingerprints (spec.md §8 invariant 6: symmetric, zero self-distance).
func Hamming(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// NearDuplicate reports whether a and b are within threshold bits of each
// other. Fingerprint 0 (empty text) is always excluded from comparison.
func NearDuplicate(a, b uint64, threshold int) bool {
	if a == 0 || b == 0 {
		return false
	}
	return Hamming(a, b) <= threshold
}
