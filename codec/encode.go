// Package codec implements the on-disk block file format: a fixed header of
// section offsets, an eagerly-readable index (timestamps, token FST,
// posting-list bitmaps), and a deferred, optionally compressed payload
// (id<->identity-key maps, series vector). EncodeBlock and DecodeIndex /
// DecodeFull are its two halves of the round trip.
package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/labeldb/labeldb/block"
	"github.com/labeldb/labeldb/compress"
	"github.com/labeldb/labeldb/engineerr"
	"github.com/labeldb/labeldb/format"
	"github.com/labeldb/labeldb/internal/hash"
	"github.com/labeldb/labeldb/internal/pool"
	"github.com/labeldb/labeldb/series"
)

// seriesRecord is the gob-serializable shape of a series.Series: its
// unexported payload slice isn't reachable to encoding/gob directly, so S7
// is built from this mirror struct instead.
type seriesRecord struct {
	ID       uint32
	Name     string
	Labels   map[string]string
	VarNames []string
	Payloads []series.Payload
}

// EncodeBlock serializes a frozen block to its on-disk representation.
// Panics if b is not frozen: encoding a still-mutable block would race the
// writer goroutine that owns it (block.Block carries no internal lock of
// its own; see block.Block's doc comment).
func EncodeBlock(b *block.Block, opts ...Option) ([]byte, error) {
	if !b.Frozen() {
		panic("codec: EncodeBlock called on a non-frozen block")
	}

	cfg := defaultOptions()
	if err := applyOptions(cfg, opts...); err != nil {
		return nil, err
	}

	tokens := b.Tokens()

	fileBuf := pool.GetFileBuffer()
	defer pool.PutFileBuffer(fileBuf)

	var h Header
	h.Version = version
	h.Compression = cfg.compression

	// Sections are built independently so their lengths are known before
	// the header (which records cumulative offsets) is written.
	s1 := encodeInt64(b.StartMs())
	s2 := encodeInt64(b.EndMs())
	s3 := encodeFrontCoded(tokens)

	s4, err := encodeBitmaps(b, tokens)
	if err != nil {
		return nil, fmt.Errorf("codec: encoding posting bitmaps: %w", err)
	}

	s5, err := encodeGob(b.IdentityKeys())
	if err != nil {
		return nil, fmt.Errorf("codec: encoding identity-key vector: %w", err)
	}

	keyToID := make(map[string]uint32, len(b.IdentityKeys()))
	for id, key := range b.IdentityKeys() {
		keyToID[key] = uint32(id)
	}
	s6, err := encodeGob(keyToID)
	if err != nil {
		return nil, fmt.Errorf("codec: encoding identity-key-to-id map: %w", err)
	}

	records := make([]seriesRecord, b.SeriesCount())
	for id := 0; id < b.SeriesCount(); id++ {
		s := b.Series(uint32(id))
		records[id] = seriesRecord{
			ID:       s.ID,
			Name:     s.Name,
			Labels:   s.Labels,
			VarNames: s.VarNames,
			Payloads: s.Payloads(),
		}
	}
	s7, err := encodeGob(records)
	if err != nil {
		return nil, fmt.Errorf("codec: encoding series vector: %w", err)
	}

	if s5, s6, s7, err = compressDeferred(cfg.compression, s5, s6, s7); err != nil {
		return nil, fmt.Errorf("codec: compressing deferred sections: %w", err)
	}

	offset := int64(headerSize)
	sections := [numSections][]byte{s1, s2, s3, s4, s5, s6, s7}
	for i, sec := range sections {
		offset += int64(len(sec))
		h.Offsets[i] = offset
	}

	if err := writeHeader(fileBuf, h); err != nil {
		return nil, fmt.Errorf("codec: writing header: %w", err)
	}
	for _, sec := range sections {
		fileBuf.MustWrite(sec)
	}

	checksum := hash.Checksum64(fileBuf.Bytes())
	trailer := make([]byte, 8)
	headerEndian.PutUint64(trailer, checksum)
	fileBuf.MustWrite(trailer)

	out := make([]byte, fileBuf.Len())
	copy(out, fileBuf.Bytes())

	return out, nil
}

func encodeInt64(v int64) []byte {
	buf := make([]byte, 8)
	headerEndian.PutUint64(buf, uint64(v))
	return buf
}

func encodeBitmaps(b *block.Block, tokens []string) ([]byte, error) {
	sec := pool.GetSectionBuffer()
	defer pool.PutSectionBuffer(sec)

	lenBuf := make([]byte, 4)
	for _, tok := range tokens {
		bm := b.SearchIndex(tok)
		if bm == nil {
			bm = roaring.New()
		}

		var bmBuf bytes.Buffer
		if _, err := bm.WriteTo(&bmBuf); err != nil {
			return nil, fmt.Errorf("serializing posting bitmap for %q: %w", tok, err)
		}

		headerEndian.PutUint32(lenBuf, uint32(bmBuf.Len()))
		sec.MustWrite(lenBuf)
		sec.MustWrite(bmBuf.Bytes())
	}

	out := make([]byte, sec.Len())
	copy(out, sec.Bytes())

	return out, nil
}

func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func compressDeferred(ct format.CompressionType, sections ...[]byte) (s5, s6, s7 []byte, err error) {
	codec, err := compress.CreateCodec(ct, "deferred section")
	if err != nil {
		return nil, nil, nil, err
	}

	out := make([][]byte, len(sections))
	for i, sec := range sections {
		compressed, err := codec.Compress(sec)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("compressing section %d: %w", i, err)
		}
		out[i] = compressed
	}

	return out[0], out[1], out[2], nil
}

// decompressDeferred is compressDeferred's inverse, used by DecodeFull.
func decompressDeferred(ct format.CompressionType, sections ...[]byte) ([][]byte, error) {
	codec, err := compress.CreateCodec(ct, "deferred section")
	if err != nil {
		return nil, err
	}

	out := make([][]byte, len(sections))
	for i, sec := range sections {
		decompressed, err := codec.Decompress(sec)
		if err != nil {
			return nil, fmt.Errorf("%w: decompressing section %d: %v", engineerr.ErrCorruptBlock, i, err)
		}
		out[i] = decompressed
	}

	return out, nil
}
