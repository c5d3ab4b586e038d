package cuckoo

import (
	"bytes"
	"fmt"
)

type fingerprintsize interface {
	uint8 | uint16 | uint32
}

// nullFp marks an empty slot. Derived fingerprints are never zero.
const nullFp = 0

// table is the bucket store: a single contiguous slot buffer holding
// bucketSize fingerprints per bucket. Keeping one flat buffer instead of
// per-bucket objects preserves cache locality and lets the bucket size be
// a run-time parameter.
type table[T fingerprintsize] struct {
	slots      []T
	bucketSize uint
}

func newTable[T fingerprintsize](numBuckets, bucketSize uint) *table[T] {
	return &table[T]{
		slots:      make([]T, numBuckets*bucketSize),
		bucketSize: bucketSize,
	}
}

func (t *table[T]) numBuckets() uint {
	return uint(len(t.slots)) / t.bucketSize
}

// bucket returns the slot range backing bucket i.
func (t *table[T]) bucket(i uint) []T {
	off := i * t.bucketSize
	return t.slots[off : off+t.bucketSize]
}

// insert a fingerprint into bucket i. Returns true if there was enough
// space and insertion succeeded. Note it allows inserting the same
// fingerprint multiple times.
func (t *table[T]) insert(i uint, fp T) bool {
	b := t.bucket(i)
	for j, tfp := range b {
		if tfp == nullFp {
			b[j] = fp
			return true
		}
	}
	return false
}

// remove a fingerprint from bucket i, clearing the first matching slot.
// Returns true if the fingerprint was present and successfully removed.
func (t *table[T]) remove(i uint, fp T) bool {
	b := t.bucket(i)
	for j, tfp := range b {
		if tfp == fp {
			b[j] = nullFp
			return true
		}
	}
	return false
}

func (t *table[T]) contains(i uint, needle T) bool {
	for _, fp := range t.bucket(i) {
		if fp == needle {
			return true
		}
	}
	return false
}

// swap overwrites slot j of bucket i with fp and returns the displaced
// fingerprint. Used only during eviction.
func (t *table[T]) swap(i, j uint, fp T) T {
	b := t.bucket(i)
	prev := b[j]
	b[j] = fp
	return prev
}

// reset deletes all fingerprints in the table.
func (t *table[T]) reset() {
	for i := range t.slots {
		t.slots[i] = nullFp
	}
}

func (t *table[T]) bucketString(i uint) string {
	var buf bytes.Buffer
	buf.WriteString("[")
	for _, fp := range t.bucket(i) {
		buf.WriteString(fmt.Sprintf("%5d ", fp))
	}
	buf.WriteString("]")
	return buf.String()
}
