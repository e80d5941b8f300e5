package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/labeldb/labeldb/block"
	"github.com/labeldb/labeldb/engineerr"
	"github.com/labeldb/labeldb/internal/hash"
	"github.com/labeldb/labeldb/series"
)

// Index is the result of DecodeIndex: everything PackedBlock.from_path
// needs without touching the deferred sections, namely S1-S4.
type Index struct {
	StartMs int64
	EndMs   int64

	// Tokens is the FST's ordered key list; Tokens[i] pairs with
	// Postings[i].
	Tokens   []string
	Postings []*roaring.Bitmap
}

// DecodeIndex parses the header, validates the trailer checksum, and
// decodes S1-S4 only, leaving the deferred sections (S5-S7) untouched.
// This is the fast path PackedBlock.from_path uses: a block file can be
// opened and searched without ever materializing its series vector.
func DecodeIndex(data []byte) (Index, error) {
	if err := verifyChecksum(data); err != nil {
		return Index{}, err
	}

	h, err := readHeader(bytes.NewReader(data))
	if err != nil {
		return Index{}, err
	}

	s1, err := sliceSection(data, h, 1)
	if err != nil {
		return Index{}, err
	}
	s2, err := sliceSection(data, h, 2)
	if err != nil {
		return Index{}, err
	}
	s3, err := sliceSection(data, h, 3)
	if err != nil {
		return Index{}, err
	}
	s4, err := sliceSection(data, h, 4)
	if err != nil {
		return Index{}, err
	}

	startMs, err := decodeInt64(s1)
	if err != nil {
		return Index{}, fmt.Errorf("%w: decoding start_ms: %v", engineerr.ErrCorruptBlock, err)
	}
	endMs, err := decodeInt64(s2)
	if err != nil {
		return Index{}, fmt.Errorf("%w: decoding end_ms: %v", engineerr.ErrCorruptBlock, err)
	}

	tokens, err := decodeFrontCoded(s3)
	if err != nil {
		return Index{}, err
	}

	postings, err := decodeBitmaps(s4, len(tokens))
	if err != nil {
		return Index{}, err
	}

	return Index{StartMs: startMs, EndMs: endMs, Tokens: tokens, Postings: postings}, nil
}

// DecodeFull runs the complete codec, decompressing and gob-decoding S5-S7
// in addition to everything DecodeIndex produces, and returns a fully
// reconstructed, frozen Block. This is PackedBlock.unpack.
func DecodeFull(data []byte) (*block.Block, error) {
	idx, err := DecodeIndex(data)
	if err != nil {
		return nil, err
	}

	h, err := readHeader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	s5raw, err := sliceSection(data, h, 5)
	if err != nil {
		return nil, err
	}
	s6raw, err := sliceSection(data, h, 6)
	if err != nil {
		return nil, err
	}
	s7raw, err := sliceSection(data, h, 7)
	if err != nil {
		return nil, err
	}

	decompressed, err := decompressDeferred(h.Compression, s5raw, s6raw, s7raw)
	if err != nil {
		return nil, err
	}
	s5, s6, s7 := decompressed[0], decompressed[1], decompressed[2]

	var idToKey []string
	if err := gobDecode(s5, &idToKey); err != nil {
		return nil, fmt.Errorf("%w: decoding identity-key vector: %v", engineerr.ErrCorruptBlock, err)
	}

	var keyToID map[string]uint32
	if err := gobDecode(s6, &keyToID); err != nil {
		return nil, fmt.Errorf("%w: decoding identity-key-to-id map: %v", engineerr.ErrCorruptBlock, err)
	}

	var records []seriesRecord
	if err := gobDecode(s7, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding series vector: %v", engineerr.ErrCorruptBlock, err)
	}

	storage := make([]*series.Series, len(records))
	for _, rec := range records {
		if int(rec.ID) >= len(storage) {
			return nil, fmt.Errorf("%w: series id %d out of range (have %d)", engineerr.ErrCorruptBlock, rec.ID, len(records))
		}
		storage[rec.ID] = series.Restore(rec.ID, rec.Name, rec.Labels, rec.VarNames, rec.Payloads)
	}
	for i, s := range storage {
		if s == nil {
			return nil, fmt.Errorf("%w: series id %d missing from series vector", engineerr.ErrCorruptBlock, i)
		}
	}

	index := make(map[string]*roaring.Bitmap, len(idx.Tokens))
	for i, tok := range idx.Tokens {
		index[tok] = idx.Postings[i]
	}

	return block.Restore(index, storage, idToKey, keyToID, idx.StartMs, idx.EndMs), nil
}

func verifyChecksum(data []byte) error {
	if len(data) < headerSize+8 {
		return fmt.Errorf("%w: file too short (%d bytes)", engineerr.ErrCorruptBlock, len(data))
	}

	body := data[:len(data)-8]
	want := headerEndian.Uint64(data[len(data)-8:])
	got := hash.Checksum64(body)
	if got != want {
		return fmt.Errorf("%w: checksum mismatch (want %#x, got %#x)", engineerr.ErrCorruptBlock, want, got)
	}

	return nil
}

func sliceSection(data []byte, h Header, n int) ([]byte, error) {
	start, end := sectionBounds(h, n)
	trailerStart := int64(len(data) - 8)

	if start < 0 || end < start || end > trailerStart {
		return nil, fmt.Errorf("%w: section %d bounds [%d,%d) invalid for file of length %d", engineerr.ErrCorruptBlock, n, start, end, len(data))
	}

	return data[start:end], nil
}

func decodeInt64(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("expected 8 bytes, got %d", len(b))
	}

	return int64(headerEndian.Uint64(b)), nil
}

func decodeBitmaps(data []byte, count int) ([]*roaring.Bitmap, error) {
	out := make([]*roaring.Bitmap, 0, count)
	r := bytes.NewReader(data)

	for i := 0; i < count; i++ {
		var length uint32
		if err := binary.Read(r, headerEndian, &length); err != nil {
			return nil, fmt.Errorf("%w: reading bitmap %d length: %v", engineerr.ErrCorruptBlock, i, err)
		}

		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: reading bitmap %d body: %v", engineerr.ErrCorruptBlock, i, err)
		}

		bm := roaring.New()
		if _, err := bm.ReadFrom(bytes.NewReader(buf)); err != nil {
			return nil, fmt.Errorf("%w: parsing bitmap %d: %v", engineerr.ErrCorruptBlock, i, err)
		}

		out = append(out, bm)
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d bitmaps", engineerr.ErrCorruptBlock, r.Len(), count)
	}

	return out, nil
}

func gobDecode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
