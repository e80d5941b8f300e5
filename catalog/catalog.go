// Package catalog implements the persistent block index: the ordered
// mapping from a block's start timestamp to the file(s) holding it, and the
// flush policy that freezes, serializes, and registers a new block.
package catalog

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/labeldb/labeldb/block"
	"github.com/labeldb/labeldb/codec"
	"github.com/labeldb/labeldb/engineerr"
)

const blocksDir = "blocks"

// BlockIndex is the persistent ordered map from start_ms to one or more
// block file paths. It is guarded by its own reader/writer lock, separate
// from the active block's lock (spec.md §5, §9 "two locks, two threads").
type BlockIndex struct {
	mu      sync.RWMutex
	path    string // <DATAROOT>/index.rdb
	root    string // <DATAROOT>
	entries map[int64][]string
}

// New returns an empty BlockIndex rooted at dataRoot.
func New(dataRoot string) *BlockIndex {
	return &BlockIndex{
		path:    filepath.Join(dataRoot, "index.rdb"),
		root:    dataRoot,
		entries: make(map[int64][]string),
	}
}

// Load reads the catalog at <dataRoot>/index.rdb if present, or returns an
// empty BlockIndex if the file does not yet exist — the first-run case.
func Load(dataRoot string) (*BlockIndex, error) {
	bi := New(dataRoot)

	data, err := os.ReadFile(bi.path)
	if os.IsNotExist(err) {
		return bi, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading catalog %s: %v", engineerr.ErrIOFailure, bi.path, err)
	}

	var entries map[int64][]string
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: decoding catalog %s: %v", engineerr.ErrCorruptBlock, bi.path, err)
	}

	bi.entries = entries

	return bi, nil
}

// Insert registers path under start_ms, appending to the list of files at
// that key without disturbing files already registered for it.
func (bi *BlockIndex) Insert(startMs int64, path string) {
	bi.mu.Lock()
	defer bi.mu.Unlock()

	bi.entries[startMs] = append(bi.entries[startMs], path)
}

// Range returns a PackedBlock handle for every (start_ms, path) pair whose
// key lies in [lo, hi), opening each lazily: only the header, timestamps,
// FST and bitmaps are read, never the deferred series vector.
func (bi *BlockIndex) Range(lo, hi int64) ([]PackedBlock, error) {
	bi.mu.RLock()
	keys := make([]int64, 0, len(bi.entries))
	for k := range bi.entries {
		if k >= lo && k < hi {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	paths := make([]string, 0, len(keys))
	for _, k := range keys {
		paths = append(paths, bi.entries[k]...)
	}
	bi.mu.RUnlock()

	out := make([]PackedBlock, 0, len(paths))
	for _, p := range paths {
		pb, err := fromPath(p)
		if err != nil {
			return nil, err
		}
		out = append(out, pb)
	}

	return out, nil
}

// persist rewrites the catalog file in its entirety, atomically: the new
// content is written to a temporary file in the same directory and then
// renamed over the old one, so a crash mid-write never leaves a
// half-written index.rdb.
func (bi *BlockIndex) persist() error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(bi.entries); err != nil {
		return fmt.Errorf("%w: encoding catalog: %v", engineerr.ErrIOFailure, err)
	}

	tmp := bi.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: writing catalog tmp file: %v", engineerr.ErrIOFailure, err)
	}
	if err := os.Rename(tmp, bi.path); err != nil {
		return fmt.Errorf("%w: renaming catalog into place: %v", engineerr.ErrIOFailure, err)
	}

	return nil
}

// Update runs the flush cycle for active: freeze it, allocate a fresh
// uuid-named file under <DATAROOT>/blocks/, write the serialized block,
// register (start_ms, path) in the catalog, rewrite the persisted catalog,
// then reset active to an empty mutable block.
//
// The write order matters (spec.md §4.6): block file first, catalog
// second. A crash between the two leaves an orphaned block file, which is
// acceptable — it is simply never referenced — but never leaves the
// catalog pointing at a file that doesn't exist.
func (bi *BlockIndex) Update(active *block.Block, opts ...codec.Option) (string, error) {
	active.Freeze()
	startMs := active.StartMs()

	data, err := codec.EncodeBlock(active, opts...)
	if err != nil {
		return "", fmt.Errorf("codec: encoding block for flush: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(bi.root, blocksDir), 0o755); err != nil {
		return "", fmt.Errorf("%w: creating blocks directory: %v", engineerr.ErrIOFailure, err)
	}

	path := filepath.Join(bi.root, blocksDir, uuid.NewString()+".rdb")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing block file %s: %v", engineerr.ErrIOFailure, path, err)
	}

	bi.Insert(startMs, path)

	bi.mu.RLock()
	perr := bi.persist()
	bi.mu.RUnlock()
	if perr != nil {
		return "", perr
	}

	active.Reset()

	return path, nil
}
