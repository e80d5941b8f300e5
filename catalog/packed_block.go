package catalog

import (
	"fmt"
	"os"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/labeldb/labeldb/block"
	"github.com/labeldb/labeldb/codec"
	"github.com/labeldb/labeldb/engineerr"
)

// PackedBlock is the on-disk block's lightweight handle: start/end
// timestamps and the inverted index, with the series vector left on disk.
// It answers time-range and token questions without paying the cost of a
// full unpack.
type PackedBlock struct {
	path     string
	startMs  int64
	endMs    int64
	tokens   []string
	postings []*roaring.Bitmap
	byToken  map[string]int
}

// fromPath reads path, parses only the header, timestamps, FST and
// bitmaps (codec.DecodeIndex), and retains path for a later full Unpack.
func fromPath(path string) (PackedBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PackedBlock{}, fmt.Errorf("%w: reading block file %s: %v", engineerr.ErrIOFailure, path, err)
	}

	idx, err := codec.DecodeIndex(data)
	if err != nil {
		return PackedBlock{}, err
	}

	byToken := make(map[string]int, len(idx.Tokens))
	for i, tok := range idx.Tokens {
		byToken[tok] = i
	}

	return PackedBlock{
		path:     path,
		startMs:  idx.StartMs,
		endMs:    idx.EndMs,
		tokens:   idx.Tokens,
		postings: idx.Postings,
		byToken:  byToken,
	}, nil
}

// Path returns the block file's path on disk.
func (p PackedBlock) Path() string { return p.path }

// StartMs and EndMs return the block's timestamp bounds.
func (p PackedBlock) StartMs() int64 { return p.startMs }
func (p PackedBlock) EndMs() int64   { return p.endMs }

// SearchIndex returns the posting-list bitmap for token without touching
// the deferred series vector, or nil if token is not present.
func (p PackedBlock) SearchIndex(token string) *roaring.Bitmap {
	i, ok := p.byToken[token]
	if !ok {
		return nil
	}

	return p.postings[i]
}

// Unpack re-reads the block file from disk and runs the full codec,
// reconstructing a complete Block including its series vector.
func (p PackedBlock) Unpack() (*block.Block, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: re-reading block file %s: %v", engineerr.ErrIOFailure, p.path, err)
	}

	return codec.DecodeFull(data)
}
