// Package resultset implements the lazy set-algebra carrier produced by
// evaluating a predicate against a block: either a packed bitmap of series
// ids plus deferred metric filters, or a fully unpacked, timestamp-sorted
// record stream.
package resultset

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/labeldb/labeldb/block"
	"github.com/labeldb/labeldb/record"
)

// Filter is a deferred metric-value predicate: a record is kept only if
// Match returns true for the record's value of Metric. Built from a
// predicate.Op and threshold at evaluation time so this package never needs
// to import the predicate package (avoiding an import cycle, since
// predicate.Eval produces a ResultSet).
type Filter struct {
	Metric string
	Match  func(value float64) bool
}

// ResultSet is either packed (series ids + deferred filters, no records
// materialized) or unpacked (a timestamp-ascending, duplicate-free record
// vector). Union and Intersect take the fast packed path when possible and
// fall back to unpacking otherwise.
type ResultSet struct {
	unpacked bool
	series   *roaring.Bitmap
	filters  []Filter
	data     []record.Record
}

// Packed returns a packed ResultSet over series with the given deferred
// filters.
func Packed(series *roaring.Bitmap, filters []Filter) ResultSet {
	if series == nil {
		series = roaring.New()
	}

	return ResultSet{series: series, filters: filters}
}

// Empty returns a packed ResultSet with no matching series.
func Empty() ResultSet {
	return Packed(roaring.New(), nil)
}

// Unpacked returns an already-unpacked ResultSet wrapping data. Callers
// should only use this for data that is already timestamp-sorted and
// duplicate-free: Unpack returns such a set unchanged, so Data yields data
// exactly as given. Union/Intersect do sort their own merged output.
func Unpacked(data []record.Record) ResultSet {
	return ResultSet{unpacked: true, data: data}
}

// IsUnpacked reports whether the set has already been unpacked.
func (r ResultSet) IsUnpacked() bool { return r.unpacked }

// Data returns the unpacked record vector. Panics if the set has not been
// unpacked yet — callers must call Unpack first.
func (r ResultSet) Data() []record.Record {
	if !r.unpacked {
		panic("resultset: Data called on a still-packed ResultSet")
	}

	return r.data
}

// Union merges r and other. If both operands are still packed and carry no
// deferred filters, the bitmaps are OR'd into a new bitmap (neither operand
// is modified) without materializing any record. Otherwise both sides are
// unpacked against b and merged by timestamp with duplicate elimination.
func (r ResultSet) Union(other ResultSet, b *block.Block) ResultSet {
	if !r.unpacked && !other.unpacked && len(r.filters) == 0 && len(other.filters) == 0 {
		return Packed(roaring.Or(r.series, other.series), nil)
	}

	ru := r.Unpack(b)
	ou := other.Unpack(b)

	return Unpacked(mergeUnion(ru.data, ou.data))
}

// Intersect intersects r and other. If both operands are still packed, the
// bitmaps are AND'd and their filter lists concatenated — no series is
// unpacked or filtered until a later Unpack call. Otherwise both sides are
// unpacked against b and merged, keeping only records present in both.
func (r ResultSet) Intersect(other ResultSet, b *block.Block) ResultSet {
	if !r.unpacked && !other.unpacked {
		filters := make([]Filter, 0, len(r.filters)+len(other.filters))
		filters = append(filters, r.filters...)
		filters = append(filters, other.filters...)

		return Packed(roaring.And(r.series, other.series), filters)
	}

	ru := r.Unpack(b)
	ou := other.Unpack(b)

	return Unpacked(mergeIntersect(ru.data, ou.data))
}

// Unpack materializes the record stream: for every series id in the packed
// set, its payloads are decoded to records, filtered by every deferred
// predicate, and the combined stream is sorted ascending by timestamp
// (stable, so records sharing a timestamp keep their series-then-arrival
// order) with adjacent duplicates suppressed. Idempotent — calling Unpack
// on an already-unpacked set returns it unchanged.
func (r ResultSet) Unpack(b *block.Block) ResultSet {
	if r.unpacked {
		return r
	}

	var flat []record.Record

	for _, id := range r.series.ToArray() {
		for _, rec := range b.Series(id).ToRecords() {
			if passesFilters(rec, r.filters) {
				flat = append(flat, rec)
			}
		}
	}

	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].Timestamp.Before(flat[j].Timestamp)
	})

	return Unpacked(dedupeAdjacent(flat))
}

func passesFilters(rec record.Record, filters []Filter) bool {
	for _, f := range filters {
		v, ok := rec.Variables[f.Metric]
		if !ok || !f.Match(v) {
			return false
		}
	}

	return true
}

func dedupeAdjacent(recs []record.Record) []record.Record {
	out := make([]record.Record, 0, len(recs))
	for i, r := range recs {
		if i > 0 && record.Equal(out[len(out)-1], r) {
			continue
		}
		out = append(out, r)
	}

	return out
}
