// Package cuckoo implements a cuckoo filter: a probabilistic set-membership
// structure supporting insertion, lookup and deletion with a bounded
// false-positive rate and no false negatives for retained items. It is the
// kind of component embedded in storage engines and caches to answer
// "might key K exist?" before paying for an expensive lookup.
//
// See https://www.cs.cmu.edu/~dga/papers/cuckoo-conext2014.pdf.
package cuckoo

import (
	"errors"
	"math/rand"
)

// ErrCapacityExhausted is returned by Insert when no slot could be found
// within the configured kick bound. The filter is left exactly as it was
// before the call; the caller may retry against a larger filter, reject
// the insert, or fall back to another structure.
var ErrCapacityExhausted = errors.New("cuckoo: capacity exhausted")

// Filter is a probabilistic membership set.
type Filter interface {
	// Lookup returns true if data is in the filter. False positives occur
	// with a probability governed by the fingerprint width; false negatives
	// do not occur for items inserted and not deleted.
	Lookup(data []byte) bool
	// Insert data into the filter. Returns ErrCapacityExhausted if no slot
	// could be found within the kick bound, leaving the filter unchanged.
	// Inserting the same data multiple times stores multiple copies.
	Insert(data []byte) error
	// InsertUnique inserts data only if Lookup does not already report it
	// present.
	InsertUnique(data []byte) error
	// Delete data from the filter. Returns true if the data was found and
	// one occurrence removed. Deleting data that was never inserted can
	// remove a colliding entry instead; this is inherent to storing
	// fingerprints rather than items.
	Delete(data []byte) bool
	// Count returns the number of items in the filter.
	Count() uint
	// Capacity returns the total number of fingerprint slots.
	Capacity() uint
	// LoadFactor returns the fraction of slots that are occupied.
	LoadFactor() float64
	// Reset removes all items from the filter, setting count to 0.
	Reset()
	// Encode returns a byte slice representing the filter.
	Encode() []byte
}

// kick records one eviction swap so a failed chain can be unwound.
type kick struct {
	bucket uint
	slot   uint
}

type filter[T fingerprintsize] struct {
	table               *table[T]
	fingerprintSizeBits int
	count               uint
	// Bit mask set to numBuckets - 1. As numBuckets is always a power of 2,
	// applying this mask mimics the operation x % numBuckets.
	bucketIndexMask        uint
	maxFingerprintMinusOne uint64
	maxKicks               int
	rand                   *rand.Rand
	// kickLog is scratch for unwinding a failed eviction chain. Reusing it
	// keeps Insert allocation-free; the engine is single-threaded by
	// contract.
	kickLog []kick
}

// NewFilter returns a new cuckoo filter for the given configuration.
// Malformed configuration is rejected here, not deferred to first use.
// Sharing the returned filter across goroutines requires external
// synchronization.
func NewFilter(cfg Config) (Filter, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	switch cfg.Precision {
	case Low:
		return newFilter[uint8](cfg, 8), nil
	case High:
		return newFilter[uint32](cfg, 32), nil
	default:
		return newFilter[uint16](cfg, 16), nil
	}
}

func newFilter[T fingerprintsize](cfg Config, fingerprintSizeBits int) *filter[T] {
	t := newTable[T](cfg.BucketCount, cfg.BucketSize)
	return &filter[T]{
		table:                  t,
		fingerprintSizeBits:    fingerprintSizeBits,
		count:                  0,
		bucketIndexMask:        t.numBuckets() - 1,
		maxFingerprintMinusOne: maxFingerprintMinusOne(fingerprintSizeBits),
		maxKicks:               cfg.MaxKicks,
		rand:                   cfg.Rand,
		kickLog:                make([]kick, 0, cfg.MaxKicks),
	}
}

func (cf *filter[T]) Lookup(data []byte) bool {
	i1, fp := getIndexAndFingerprint[T](data, cf.bucketIndexMask, cf.maxFingerprintMinusOne, cf.fingerprintSizeBits)
	if cf.table.contains(i1, fp) {
		return true
	}
	i2 := getAltIndex(fp, i1, cf.bucketIndexMask, cf.fingerprintSizeBits)
	return cf.table.contains(i2, fp)
}

func (cf *filter[T]) Insert(data []byte) error {
	i, fp := getIndexAndFingerprint[T](data, cf.bucketIndexMask, cf.maxFingerprintMinusOne, cf.fingerprintSizeBits)
	if cf.insertIntoBucket(fp, i) {
		return nil
	}
	i2 := getAltIndex(fp, i, cf.bucketIndexMask, cf.fingerprintSizeBits)
	if cf.insertIntoBucket(fp, i2) {
		return nil
	}

	// Apply cuckoo kickouts until a free slot is found, starting from a
	// randomly chosen candidate bucket.
	if cf.rand.Intn(2) == 0 {
		i = i2
	}
	cf.kickLog = cf.kickLog[:0]
	for k := 0; k < cf.maxKicks; k++ {
		j := uint(cf.rand.Intn(int(cf.table.bucketSize)))
		// Swap fingerprint with a bucket entry.
		fp = cf.table.swap(i, j, fp)
		cf.kickLog = append(cf.kickLog, kick{bucket: i, slot: j})

		// Move the kicked out fingerprint to its alternate location.
		i = getAltIndex(fp, i, cf.bucketIndexMask, cf.fingerprintSizeBits)
		if cf.insertIntoBucket(fp, i) {
			return nil
		}
	}

	// Unwind the chain in reverse so the failed insert leaves no trace:
	// each swap puts the displaced fingerprint back and recovers the one
	// written over it, ending with the original input fingerprint.
	for k := len(cf.kickLog) - 1; k >= 0; k-- {
		fp = cf.table.swap(cf.kickLog[k].bucket, cf.kickLog[k].slot, fp)
	}
	return ErrCapacityExhausted
}

func (cf *filter[T]) InsertUnique(data []byte) error {
	if cf.Lookup(data) {
		return nil
	}
	return cf.Insert(data)
}

func (cf *filter[T]) insertIntoBucket(fp T, i uint) bool {
	if cf.table.insert(i, fp) {
		cf.count++
		return true
	}
	return false
}

func (cf *filter[T]) Delete(data []byte) bool {
	i1, fp := getIndexAndFingerprint[T](data, cf.bucketIndexMask, cf.maxFingerprintMinusOne, cf.fingerprintSizeBits)
	i2 := getAltIndex(fp, i1, cf.bucketIndexMask, cf.fingerprintSizeBits)
	return cf.delete(fp, i1) || cf.delete(fp, i2)
}

func (cf *filter[T]) delete(fp T, i uint) bool {
	if cf.table.remove(i, fp) {
		cf.count--
		return true
	}
	return false
}

func (cf *filter[T]) Count() uint {
	return cf.count
}

func (cf *filter[T]) Capacity() uint {
	return uint(len(cf.table.slots))
}

func (cf *filter[T]) LoadFactor() float64 {
	return float64(cf.count) / float64(len(cf.table.slots))
}

func (cf *filter[T]) Reset() {
	cf.table.reset()
	cf.count = 0
}
