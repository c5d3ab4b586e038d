package cuckoo

import (
	"errors"
	"testing"
)

func TestNewFilter_RejectsMalformedConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"unknown precision", Config{Precision: 42}, ErrBadPrecision},
		{"negative max kicks", Config{MaxKicks: -1}, ErrBadMaxKicks},
		{"oversized bucket", Config{BucketSize: maxBucketSize + 1}, ErrBadBucketSize},
		{"oversized table", Config{BucketCount: maxBucketCount + 1}, ErrBadBucketCount},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewFilter(c.cfg); !errors.Is(err, c.want) {
				t.Errorf("NewFilter(%+v) error = %v, want %v", c.cfg, err, c.want)
			}
		})
	}
}

func TestNewFilter_Defaults(t *testing.T) {
	cf, err := NewFilter(Config{})
	if err != nil {
		t.Fatalf("NewFilter(Config{}) failed: %v", err)
	}
	wantBuckets := numBuckets(defaultNumElements, defaultBucketSize)
	if got := cf.Capacity(); got != wantBuckets*defaultBucketSize {
		t.Errorf("Capacity() = %d, want %d", got, wantBuckets*defaultBucketSize)
	}
	if got := cf.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestNewFilter_BucketCountRoundsToPow2(t *testing.T) {
	cf, err := NewFilter(Config{BucketCount: 3, BucketSize: 2})
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}
	if got := cf.Capacity(); got != 4*2 {
		t.Errorf("Capacity() = %d, want 8", got)
	}
}
