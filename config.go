package cuckoo

import (
	"errors"
	"math/rand"
)

// FilterPrecision selects the fingerprint width, trading memory for
// false-positive rate.
type FilterPrecision uint

const (
	// Medium uses 16-bit fingerprints, giving a false-positive rate of
	// roughly 0.01% at the default bucket size.
	Medium FilterPrecision = iota
	// Low uses 8-bit fingerprints, giving a false-positive rate of
	// roughly 3% at the default bucket size.
	Low
	// High uses 32-bit fingerprints.
	High
)

const (
	defaultNumElements = 1 << 20
	defaultBucketSize  = 4
	defaultMaxKicks    = 500

	maxBucketSize  = 128
	maxBucketCount = 1 << 40
)

var (
	ErrBadPrecision   = errors.New("cuckoo: unknown precision")
	ErrBadBucketSize  = errors.New("cuckoo: bucket size out of range")
	ErrBadBucketCount = errors.New("cuckoo: bucket count out of range")
	ErrBadMaxKicks    = errors.New("cuckoo: max kicks must not be negative")
)

// Config controls filter sizing and behavior. The zero value is a usable
// general-purpose configuration.
type Config struct {
	// NumElements is a sizing hint: the number of elements the filter is
	// expected to hold. The bucket count is derived from it. When inserting
	// more elements, insertion speed drops significantly and insertions
	// might fail altogether. Defaults to 1<<20.
	NumElements uint
	// BucketCount, when non-zero, fixes the number of buckets directly,
	// rounded up to a power of two. Overrides NumElements.
	BucketCount uint
	// BucketSize is the number of fingerprint slots per bucket.
	// Defaults to 4.
	BucketSize uint
	// Precision selects the fingerprint width.
	Precision FilterPrecision
	// MaxKicks bounds the eviction chain length of a single insert.
	// Defaults to 500.
	MaxKicks int
	// Rand drives eviction choices. Defaults to a randomly seeded source;
	// supply a seeded one for reproducible runs.
	Rand *rand.Rand
}

// normalize validates cfg and fills in defaults for zero values. The
// resolved BucketCount is always a power of two afterwards.
func (cfg *Config) normalize() error {
	if cfg.Precision > High {
		return ErrBadPrecision
	}
	if cfg.MaxKicks < 0 {
		return ErrBadMaxKicks
	}
	if cfg.MaxKicks == 0 {
		cfg.MaxKicks = defaultMaxKicks
	}
	if cfg.BucketSize == 0 {
		cfg.BucketSize = defaultBucketSize
	}
	if cfg.BucketSize > maxBucketSize {
		return ErrBadBucketSize
	}
	if cfg.BucketCount > maxBucketCount {
		return ErrBadBucketCount
	}
	if cfg.BucketCount == 0 {
		n := cfg.NumElements
		if n == 0 {
			n = defaultNumElements
		}
		cfg.BucketCount = numBuckets(n, cfg.BucketSize)
	} else {
		cfg.BucketCount = getNextPow2(uint64(cfg.BucketCount))
	}
	if cfg.Rand == nil {
		cfg.Rand = newEvictionRand()
	}
	return nil
}

// numBuckets sizes the table for numElements, leaving headroom so the
// projected load factor stays below 0.96.
func numBuckets(numElements, bucketSize uint) uint {
	n := getNextPow2(uint64(numElements / bucketSize))
	if n == 0 {
		n = 1
	}
	if float64(numElements)/float64(n*bucketSize) > 0.96 {
		n <<= 1
	}
	return n
}

func newEvictionRand() *rand.Rand {
	return rand.New(rand.NewSource(rand.Int63()))
}
