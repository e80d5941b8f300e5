// Package block implements the in-memory working set: an inverted index
// over label tokens and metric names, a dense series vector, and the
// id<->identity-key bijection, bounded by a min/max timestamp range.
package block

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/labeldb/labeldb/record"
	"github.com/labeldb/labeldb/series"
)

// Block is the active, mutable (until frozen) in-memory block.
//
// Mutation (Insert) is only valid while the block is MUTABLE; Freeze moves
// it to FROZEN, after which no field changes until Reset. Block itself
// carries no internal lock — the engine harness guards it with a single
// reader/writer lock (spec.md §5), so Block's methods assume the caller
// already holds the appropriate lock.
type Block struct {
	index    map[string]*roaring.Bitmap // token -> series-id postings
	storage  []*series.Series           // dense vector indexed by Series.ID
	idToKey  []string                   // id -> identity key
	keyToID  map[string]uint32          // identity key -> id
	startMs  int64
	endMs    int64
	hasAny   bool
	isFrozen bool
}

// New returns an empty, mutable Block.
func New() *Block {
	return &Block{
		index:   make(map[string]*roaring.Bitmap),
		keyToID: make(map[string]uint32),
	}
}

// Frozen reports whether the block is immutable.
func (b *Block) Frozen() bool { return b.isFrozen }

// Freeze marks the block immutable. Idempotent.
func (b *Block) Freeze() { b.isFrozen = true }

// Reset clears the block back to its New() state, for reuse after a flush.
func (b *Block) Reset() {
	b.index = make(map[string]*roaring.Bitmap)
	b.storage = nil
	b.idToKey = nil
	b.keyToID = make(map[string]uint32)
	b.startMs = 0
	b.endMs = 0
	b.hasAny = false
	b.isFrozen = false
}

// StartMs and EndMs return the inclusive millisecond timestamp bounds of
// records currently held by the block. Both are zero on an empty block.
func (b *Block) StartMs() int64 { return b.startMs }
func (b *Block) EndMs() int64   { return b.endMs }

// Insert adds r to the block: appending to an existing Series if one shares
// r's identity key, or creating a new Series and indexing its label and
// metric-name tokens otherwise. Insert panics if the block is frozen — the
// engine harness freezes and resets the block within a single flush while
// holding the block write lock, so it never inserts into a frozen block and
// this is an invariant violation rather than an expected runtime condition.
func (b *Block) Insert(r record.Record) {
	if b.isFrozen {
		panic("block: insert on frozen block")
	}

	key := record.IdentityKey(r)
	if id, ok := b.keyToID[key]; ok {
		b.storage[id].Append(r)
	} else {
		id := uint32(len(b.storage))
		s := series.New(id, r)
		s.Append(r)
		b.storage = append(b.storage, s)
		b.idToKey = append(b.idToKey, key)
		b.keyToID[key] = id

		for _, token := range record.LabelTokens(r) {
			b.addPosting(token, id)
		}
		for _, name := range record.VariableNames(r) {
			b.addPosting(name, id)
		}
	}

	tsMs := r.Timestamp.UnixMilli()
	if !b.hasAny || tsMs < b.startMs {
		b.startMs = tsMs
	}
	if !b.hasAny || tsMs > b.endMs {
		b.endMs = tsMs
	}
	b.hasAny = true
}

func (b *Block) addPosting(token string, id uint32) {
	rb, ok := b.index[token]
	if !ok {
		rb = roaring.New()
		b.index[token] = rb
	}
	rb.Add(id)
}

// SearchIndex returns the posting-list bitmap for token, or nil if token is
// not present in the index. The returned bitmap must not be mutated by the
// caller.
func (b *Block) SearchIndex(token string) *roaring.Bitmap {
	return b.index[token]
}

// Series returns the Series stored at id. Panics if id is out of range,
// which would indicate a posting list referencing a nonexistent series —
// an index corruption invariant violation (spec.md §3).
func (b *Block) Series(id uint32) *series.Series {
	if int(id) >= len(b.storage) {
		panic(fmt.Sprintf("block: series id %d out of range (have %d)", id, len(b.storage)))
	}

	return b.storage[id]
}

// SeriesCount returns the number of distinct series currently held.
func (b *Block) SeriesCount() int { return len(b.storage) }

// Tokens returns every indexed token in ascending lexicographic order, the
// order the block codec requires for minimal FST construction (spec.md
// §4.4, §9 "FST ordering requirement").
func (b *Block) Tokens() []string {
	tokens := make([]string, 0, len(b.index))
	for t := range b.index {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)

	return tokens
}

// IdentityKeys returns the id -> identity-key vector, positionally aligned
// with the series vector.
func (b *Block) IdentityKeys() []string { return b.idToKey }

// Restore rebuilds an already-frozen Block from its decoded on-disk parts,
// used by the codec package's full unpack path. The caller is responsible
// for having derived index, idToKey and keyToID consistently (codec.DecodeFull
// does, from the same FST/bitmap/gob sections); Restore does not
// recompute or validate postings.
func Restore(index map[string]*roaring.Bitmap, storage []*series.Series, idToKey []string, keyToID map[string]uint32, startMs, endMs int64) *Block {
	return &Block{
		index:    index,
		storage:  storage,
		idToKey:  idToKey,
		keyToID:  keyToID,
		startMs:  startMs,
		endMs:    endMs,
		hasAny:   len(storage) > 0,
		isFrozen: true,
	}
}
