package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

// Bucket names in bbolt
var (
	bucketPrices = []byte("prices")
	bucketMeta   = []byte("meta")
)

// DefaultTTL bounds how long a cached price is served before the live
// pricing source is consulted again. AWS list prices change rarely;
// a day keeps repeated runs cheap without serving stale rates for long.
const DefaultTTL = 24 * time.Hour

// PriceCache persists looked-up hourly rates between runs so repeated
// analyses do not hammer the pricing API.
type PriceCache struct {
	mu sync.RWMutex

	db  *bbolt.DB
	ttl time.Duration
}

// priceEntry is the stored form of one cached rate
type priceEntry struct {
	HourlyUSD float64   `json:"hourly_usd"`
	CachedAt  time.Time `json:"cached_at"`
}

// NewPriceCache opens (or creates) the cache database at path
func NewPriceCache(path string) (*PriceCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open price cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketPrices, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &PriceCache{
		db:  db,
		ttl: DefaultTTL,
	}, nil
}

// Close closes the underlying database
func (c *PriceCache) Close() error {
	return c.db.Close()
}

// SetTTL overrides the cache expiry window
func (c *PriceCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// Get returns the cached rate for key. The second return is false when
// the key is absent or the entry has expired.
func (c *PriceCache) Get(key string) (float64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var entry priceEntry
	found := false

	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPrices).Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return fmt.Errorf("failed to decode cached price: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	if !found || time.Since(entry.CachedAt) > c.ttl {
		return 0, false, nil
	}
	return entry.HourlyUSD, true, nil
}

// Put stores a rate under key, stamping it with the current time
func (c *PriceCache) Put(key string, hourlyUSD float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := priceEntry{
		HourlyUSD: hourlyUSD,
		CachedAt:  time.Now().UTC(),
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode price entry: %w", err)
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPrices).Put([]byte(key), value)
	})
}

// Purge removes every expired entry. Runs opportunistically from the
// daemon loop; callers running one-shot analyses never need it.
func (c *PriceCache) Purge() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	err := c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPrices)
		cursor := bucket.Cursor()

		var stale [][]byte
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var entry priceEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				stale = append(stale, append([]byte(nil), k...))
				continue
			}
			if time.Since(entry.CachedAt) > c.ttl {
				stale = append(stale, append([]byte(nil), k...))
			}
		}

		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// CacheKey builds the canonical cache key for one rate lookup
func CacheKey(region, instanceType, rateKind string) string {
	return fmt.Sprintf("%s|%s|%s", region, instanceType, rateKind)
}
