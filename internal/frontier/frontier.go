// Package frontier is the durable, crash-resumable work queue of discovered
// URLs, adapted from the teacher's storage/bbolt.go (go.etcd.io/bbolt as the
// embedded KV store, replacing the Python original's crawler/frontier.py
// shelve-backed store) and encoding values with the same CBOR codec already
// wired for the cache protocol in internal/fetch.
package frontier

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/icscrawl/crawler/internal/urlcanon"
)

var bucketName = []byte("frontier")

// Entry is the durable record for one discovered URL.
type Entry struct {
	URL       string `cbor:"url"`
	Completed bool   `cbor:"completed"`
}

// Frontier is the shared, mutex-guarded work queue described in spec.md §4.5
// and §5: the pending list and the durable store are updated atomically
// with respect to each other under a single mutex.
type Frontier struct {
	mu        sync.Mutex
	db        *bbolt.DB
	pending   []string
	validator *urlcanon.Validator
	log       zerolog.Logger
}

// Digest returns the stable hex key used to identify a canonical URL in the
// durable store (spec.md §3: "a stable digest of that string").
func Digest(canonicalURL string) string {
	sum := md5.Sum([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])
}

// Open initializes the frontier per spec.md §4.5's initialize(restart)
// contract: on restart, the store is deleted and reseeded; otherwise the
// existing store is loaded, every pending URL still passing validator is
// kept, and if no URLs exist at all, the seed list is used as a fallback.
func Open(path string, restart bool, seeds []string, validator *urlcanon.Validator, log zerolog.Logger) (*Frontier, error) {
	log = log.With().Str("component", "frontier").Logger()

	if restart {
		if _, err := os.Stat(path); err == nil {
			log.Info().Str("path", path).Msg("found save file, deleting it")
			if err := os.Remove(path); err != nil {
				return nil, fmt.Errorf("removing frontier store for restart: %w", err)
			}
		}
	} else if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Info().Str("path", path).Msg("did not find save file, starting from seed")
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening frontier store: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating frontier bucket: %w", err)
	}

	f := &Frontier{db: db, validator: validator, log: log}

	if restart {
		if err := f.seed(seeds); err != nil {
			db.Close()
			return nil, err
		}
		return f, nil
	}

	totalCount, tbdCount, err := f.loadPending()
	if err != nil {
		db.Close()
		return nil, err
	}
	if totalCount == 0 && tbdCount == 0 {
		if err := f.seed(seeds); err != nil {
			db.Close()
			return nil, err
		}
	} else {
		log.Info().Int("pending", tbdCount).Int("total", totalCount).Msg("resuming from save file")
	}
	return f, nil
}

func (f *Frontier) seed(seeds []string) error {
	return f.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, raw := range seeds {
			canon, err := urlcanon.CanonicalizeURL(raw)
			if err != nil {
				f.log.Warn().Err(err).Str("url", raw).Msg("skipping unparseable seed")
				continue
			}
			v, err := cbor.Marshal(Entry{URL: canon, Completed: false})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(Digest(canon)), v); err != nil {
				return err
			}
			f.pending = append(f.pending, canon)
		}
		return nil
	})
}

func (f *Frontier) loadPending() (total, tbd int, err error) {
	err = f.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.ForEach(func(k, v []byte) error {
			total++
			var e Entry
			if uerr := cbor.Unmarshal(v, &e); uerr != nil {
				f.log.Error().Err(uerr).Msg("corrupt frontier entry, skipping")
				return nil
			}
			if !e.Completed && f.validator.IsValid(e.URL) {
				f.pending = append(f.pending, e.URL)
				tbd++
			}
			return nil
		})
	})
	return total, tbd, err
}

// GetNext removes and returns a pending URL in FIFO order, or ("", false)
// if the pending list is empty.
func (f *Frontier) GetNext() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return "", false
	}
	next := f.pending[0]
	f.pending = f.pending[1:]
	return next, true
}

// Add canonicalizes url and, if its digest is not already known, records it
// pending and appends it to the in-memory queue. Idempotent with respect to
// already-known URLs (spec.md §4.5, §8 invariant 3).
func (f *Frontier) Add(rawURL string) error {
	canon, err := urlcanon.CanonicalizeURL(rawURL)
	if err != nil {
		return err
	}
	digest := []byte(Digest(canon))

	f.mu.Lock()
	defer f.mu.Unlock()

	var added bool
	err = f.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get(digest) != nil {
			return nil
		}
		v, merr := cbor.Marshal(Entry{URL: canon, Completed: false})
		if merr != nil {
			return merr
		}
		added = true
		return b.Put(digest, v)
	})
	if err != nil {
		return err
	}
	if added {
		f.pending = append(f.pending, canon)
	}
	return nil
}

// MarkComplete records url as completed. If the URL was never previously
// known, a warning is logged but the record is still written, per
// spec.md §4.5.
func (f *Frontier) MarkComplete(rawURL string) error {
	canon, err := urlcanon.CanonicalizeURL(rawURL)
	if err != nil {
		return err
	}
	digest := []byte(Digest(canon))

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get(digest) == nil {
			f.log.Warn().Str("url", canon).Msg("completed url, but have not seen it before")
		}
		v, merr := cbor.Marshal(Entry{URL: canon, Completed: true})
		if merr != nil {
			return merr
		}
		return b.Put(digest, v)
	})
}

// IsCompleted reports the durable completion state of url and whether it is
// known at all. cmd/monitor and cmd/report do not use it; they scan the
// store directly.
func (f *Frontier) IsCompleted(rawURL string) (bool, bool) {
	canon, err := urlcanon.CanonicalizeURL(rawURL)
	if err != nil {
		return false, false
	}
	digest := []byte(Digest(canon))

	f.mu.Lock()
	defer f.mu.Unlock()

	var e Entry
	var found bool
	_ = f.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		v := b.Get(digest)
		if v == nil {
			return nil
		}
		found = true
		return cbor.Unmarshal(v, &e)
	})
	return e.Completed, found
}

// Close releases the underlying database handle.
func (f *Frontier) Close() error {
	return f.db.Close()
}
