package cuckoo

import (
	"encoding/binary"
	"errors"
)

// Encoded filter layout, version 1:
//
//	+---------------------------+  24B header
//	| magic "CKF1"        [0:4] |
//	| version              [4]  |
//	| fingerprint bits     [5]  |
//	| bucket size          [6]  |
//	| reserved             [7]  |
//	| bucket count LE    [8:16] |
//	| count LE          [16:24] |
//	+---------------------------+
//	| slot buffer, little-endian fingerprints, bucket by bucket
//	+---------------------------+
const (
	encodingMagic   = "CKF1"
	encodingVersion = 1
	headerBytes     = 24
)

var (
	ErrShortEncoding      = errors.New("cuckoo: encoded filter too short")
	ErrBadMagic           = errors.New("cuckoo: bad magic")
	ErrBadVersion         = errors.New("cuckoo: unsupported encoding version")
	ErrBadFingerprintBits = errors.New("cuckoo: fingerprint bits must be 8, 16 or 32")
	ErrBadPayload         = errors.New("cuckoo: payload length does not match header")
	ErrBadCount           = errors.New("cuckoo: count does not match occupied slots")
)

// Encode returns the filter encoded as a byte slice. Decoding it yields a
// filter with an identical slot buffer and count.
func (cf *filter[T]) Encode() []byte {
	bytesPerFp := cf.fingerprintSizeBits / 8
	out := make([]byte, headerBytes+len(cf.table.slots)*bytesPerFp)
	copy(out[0:4], encodingMagic)
	out[4] = encodingVersion
	out[5] = uint8(cf.fingerprintSizeBits)
	out[6] = uint8(cf.table.bucketSize)
	binary.LittleEndian.PutUint64(out[8:16], uint64(cf.table.numBuckets()))
	binary.LittleEndian.PutUint64(out[16:24], uint64(cf.count))
	off := headerBytes
	for _, fp := range cf.table.slots {
		switch bytesPerFp {
		case 1:
			out[off] = byte(fp)
		case 2:
			binary.LittleEndian.PutUint16(out[off:], uint16(fp))
		case 4:
			binary.LittleEndian.PutUint32(out[off:], uint32(fp))
		}
		off += bytesPerFp
	}
	return out
}

// Decode returns a filter from a byte slice created with Encode. Each
// header validation failure yields a distinct sentinel error.
func Decode(encoded []byte) (Filter, error) {
	if len(encoded) < headerBytes {
		return nil, ErrShortEncoding
	}
	if string(encoded[0:4]) != encodingMagic {
		return nil, ErrBadMagic
	}
	if encoded[4] != encodingVersion {
		return nil, ErrBadVersion
	}
	fingerprintSizeBits := int(encoded[5])
	bucketSize := uint(encoded[6])
	if bucketSize == 0 || bucketSize > maxBucketSize {
		return nil, ErrBadBucketSize
	}
	numBuckets := binary.LittleEndian.Uint64(encoded[8:16])
	if numBuckets == 0 || numBuckets > maxBucketCount || numBuckets&(numBuckets-1) != 0 {
		return nil, ErrBadBucketCount
	}
	count := uint(binary.LittleEndian.Uint64(encoded[16:24]))
	payload := encoded[headerBytes:]
	switch fingerprintSizeBits {
	case 8:
		return decode[uint8](payload, fingerprintSizeBits, uint(numBuckets), bucketSize, count)
	case 16:
		return decode[uint16](payload, fingerprintSizeBits, uint(numBuckets), bucketSize, count)
	case 32:
		return decode[uint32](payload, fingerprintSizeBits, uint(numBuckets), bucketSize, count)
	default:
		return nil, ErrBadFingerprintBits
	}
}

func decode[T fingerprintsize](payload []byte, fingerprintSizeBits int, numBuckets, bucketSize, count uint) (*filter[T], error) {
	bytesPerFp := fingerprintSizeBits / 8
	if uint(len(payload)) != numBuckets*bucketSize*uint(bytesPerFp) {
		return nil, ErrBadPayload
	}
	t := newTable[T](numBuckets, bucketSize)
	var occupied uint
	for i := range t.slots {
		off := i * bytesPerFp
		var fp uint32
		switch bytesPerFp {
		case 1:
			fp = uint32(payload[off])
		case 2:
			fp = uint32(binary.LittleEndian.Uint16(payload[off:]))
		case 4:
			fp = binary.LittleEndian.Uint32(payload[off:])
		}
		t.slots[i] = T(fp)
		if fp != nullFp {
			occupied++
		}
	}
	// Every stored item occupies exactly one slot, so the header count must
	// match the occupied slots.
	if occupied != count {
		return nil, ErrBadCount
	}
	return &filter[T]{
		table:                  t,
		fingerprintSizeBits:    fingerprintSizeBits,
		count:                  count,
		bucketIndexMask:        numBuckets - 1,
		maxFingerprintMinusOne: maxFingerprintMinusOne(fingerprintSizeBits),
		maxKicks:               defaultMaxKicks,
		rand:                   newEvictionRand(),
		kickLog:                make([]kick, 0, defaultMaxKicks),
	}, nil
}
