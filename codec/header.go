package codec

import (
	"fmt"
	"io"

	"github.com/labeldb/labeldb/endian"
	"github.com/labeldb/labeldb/engineerr"
	"github.com/labeldb/labeldb/format"
)

// headerEndian is the byte order every header field and section offset is
// encoded in, regardless of host architecture (the REDESIGN FLAG on
// native-endian portability, see Header's doc comment below).
var headerEndian = endian.GetLittleEndianEngine()

// magic identifies a labeldb block file. Checked on every decode before any
// offset is trusted.
const magic uint32 = 0x4c44424b // "LDBK"

const version uint8 = 1

// numSections is the number of offset-delimited sections a block file
// carries: S1 start_ms, S2 end_ms, S3 FST, S4 bitmaps, S5 id->key, S6
// key->id, S7 series vector.
const numSections = 7

// headerSize is the fixed on-disk size of Header, in bytes:
// magic(4) + version(1) + compression(1) + reserved(2) + 7 offsets(8 each).
const headerSize = 4 + 1 + 1 + 2 + numSections*8

// Header is the block file's fixed-size preamble.
//
// Offsets[i] is the exclusive end byte offset of section i+1 (S1..S7),
// measured from the start of the file, matching §4.4's "7 word-size
// cumulative byte offsets". The REDESIGN FLAG on native-endian portability
// is taken here: offsets are always little-endian regardless of host
// architecture, so a block file is portable between machines.
type Header struct {
	Version     uint8
	Compression format.CompressionType // applies only to S5, S6, S7
	Offsets     [numSections]int64
}

func writeHeader(w io.Writer, h Header) error {
	buf := make([]byte, headerSize)
	headerEndian.PutUint32(buf[0:4], magic)
	buf[4] = h.Version
	buf[5] = byte(h.Compression)
	// buf[6:8] reserved, left zero

	for i, off := range h.Offsets {
		start := 8 + i*8
		headerEndian.PutUint64(buf[start:start+8], uint64(off))
	}

	_, err := w.Write(buf)
	return err
}

func readHeader(r io.Reader) (Header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, fmt.Errorf("%w: reading header: %v", engineerr.ErrCorruptBlock, err)
	}

	if got := headerEndian.Uint32(buf[0:4]); got != magic {
		return Header{}, fmt.Errorf("%w: bad magic %#x", engineerr.ErrCorruptBlock, got)
	}

	h := Header{
		Version:     buf[4],
		Compression: format.CompressionType(buf[5]),
	}
	for i := range h.Offsets {
		start := 8 + i*8
		h.Offsets[i] = int64(headerEndian.Uint64(buf[start : start+8]))
	}

	return h, nil
}

// sectionBounds returns the [start, end) byte range of section n (1-based,
// S1..S7) given the header's offset table.
func sectionBounds(h Header, n int) (int64, int64) {
	start := int64(headerSize)
	if n > 1 {
		start = h.Offsets[n-2]
	}

	return start, h.Offsets[n-1]
}
