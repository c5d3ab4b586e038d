package cuckoo

import (
	"encoding/binary"

	"github.com/zeebo/wyhash"
	"github.com/zeebo/xxh3"
)

// altIndexSeed keeps the fingerprint hash independent from the item hash.
const altIndexSeed = 1337

// getAltIndex maps a (bucket index, fingerprint) pair to the other legal
// bucket for that fingerprint. The XOR relation is symmetric: applying it
// to the result recovers the original index.
func getAltIndex[T fingerprintsize](fp T, i uint, bucketIndexMask uint, fingerprintSizeBits int) uint {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(fp))
	hash := uint(wyhash.Hash(b[:fingerprintSizeBits/8], altIndexSeed))
	return (i ^ hash) & bucketIndexMask
}

func getFingerprint[T fingerprintsize](hash, maxFingerprintMinusOne uint64, fingerprintSizeBits int) T {
	// Use most significant bits for the fingerprint.
	shifted := hash >> (64 - fingerprintSizeBits)
	// Valid fingerprints are in range [1, maxFingerprint], leaving 0 as the
	// special empty state.
	fp := shifted%(maxFingerprintMinusOne+1) + 1
	return T(fp)
}

// getIndexAndFingerprint returns the primary bucket index and fingerprint
// to be used for data.
func getIndexAndFingerprint[T fingerprintsize](data []byte, bucketIndexMask uint, maxFingerprintMinusOne uint64, fingerprintSizeBits int) (uint, T) {
	hash := xxh3.Hash(data)
	fp := getFingerprint[T](hash, maxFingerprintMinusOne, fingerprintSizeBits)
	// Use least significant bits for deriving the index.
	i1 := uint(hash) & bucketIndexMask
	return i1, fp
}

func maxFingerprintMinusOne(fingerprintSizeBits int) uint64 {
	return uint64(1)<<fingerprintSizeBits - 2
}

func getNextPow2(n uint64) uint {
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return uint(n)
}
