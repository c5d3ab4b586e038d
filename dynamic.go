package cuckoo

import (
	"errors"
	"sync"
)

// growFactor is how much larger each appended filter is compared to the
// previous one.
const growFactor = 3

// DynamicFilter grows by chaining fixed-size filters: when the newest
// filter rejects an insert with ErrCapacityExhausted, a larger filter is
// appended and the insert retried there. A fingerprint never moves between
// chained filters, so the no-false-negative guarantee of the fixed filter
// carries over.
//
// Unlike Filter, DynamicFilter is safe for concurrent use.
type DynamicFilter struct {
	mtx     sync.RWMutex
	filters []Filter
	cfg     Config
}

// NewDynamicFilter returns a growing filter. cfg sizes the first filter in
// the chain; each subsequent filter is growFactor times larger.
func NewDynamicFilter(cfg Config) (*DynamicFilter, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &DynamicFilter{
		filters: make([]Filter, 0, 5),
		cfg:     cfg,
	}, nil
}

// Lookup checks the chained filters newest-first, as recent inserts land
// in the newest filter.
func (d *DynamicFilter) Lookup(data []byte) bool {
	d.mtx.RLock()
	defer d.mtx.RUnlock()
	for idx := len(d.filters) - 1; idx >= 0; idx-- {
		if d.filters[idx].Lookup(data) {
			return true
		}
	}
	return false
}

// Insert adds data to the newest filter, growing the chain if it is
// saturated.
func (d *DynamicFilter) Insert(data []byte) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if len(d.filters) == 0 {
		f, err := NewFilter(d.cfg)
		if err != nil {
			return err
		}
		d.filters = append(d.filters, f)
	}
	last := d.filters[len(d.filters)-1]
	err := last.Insert(data)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCapacityExhausted) {
		return err
	}
	grown := d.cfg
	grown.BucketCount = last.Capacity() / grown.BucketSize * growFactor
	f, err := NewFilter(grown)
	if err != nil {
		return err
	}
	d.filters = append(d.filters, f)
	return f.Insert(data)
}

// Delete removes at most one occurrence of data from the chain. A fully
// drained newest filter is dropped to keep the chain short.
func (d *DynamicFilter) Delete(data []byte) bool {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	deleted := false
	for _, f := range d.filters {
		if f.Delete(data) {
			deleted = true
			break
		}
	}
	for len(d.filters) > 1 && d.filters[len(d.filters)-1].Count() == 0 {
		d.filters = d.filters[:len(d.filters)-1]
	}
	return deleted
}

// Count returns the number of items across all chained filters.
func (d *DynamicFilter) Count() uint {
	d.mtx.RLock()
	defer d.mtx.RUnlock()
	var n uint
	for _, f := range d.filters {
		n += f.Count()
	}
	return n
}

// Capacity returns the total slot capacity across all chained filters.
func (d *DynamicFilter) Capacity() uint {
	d.mtx.RLock()
	defer d.mtx.RUnlock()
	var n uint
	for _, f := range d.filters {
		n += f.Capacity()
	}
	return n
}

// Reset drops the whole chain; the next Insert starts over at the initial
// size.
func (d *DynamicFilter) Reset() {
	d.mtx.Lock()
	d.filters = d.filters[:0]
	d.mtx.Unlock()
}
