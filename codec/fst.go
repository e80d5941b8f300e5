package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/labeldb/labeldb/engineerr"
)

// frontCodedIndex is this module's stand-in for the finite-state transducer
// §4.4 calls for: no example in the retrieval pack vendors a real Go FST
// library, so the token-string -> dense-index mapping is built as a
// front-coded (prefix-shared) sorted list instead. It honors the same
// contract an FST would: keys must be fed in strictly ascending
// lexicographic order, and a key's position in that order is its dense
// index, the value zipped against S4's bitmap array.
//
// Encoding, per entry: sharedLen uint16, suffixLen uint16, suffix bytes.
// sharedLen is the length of the prefix shared with the previous entry
// (zero for the first).
func encodeFrontCoded(tokens []string) []byte {
	var buf bytes.Buffer

	countBuf := make([]byte, 4)
	headerEndian.PutUint32(countBuf, uint32(len(tokens)))
	buf.Write(countBuf)

	var prev string
	lenBuf := make([]byte, 4)
	for _, tok := range tokens {
		shared := commonPrefixLen(prev, tok)
		suffix := tok[shared:]

		headerEndian.PutUint16(lenBuf[0:2], uint16(shared))
		headerEndian.PutUint16(lenBuf[2:4], uint16(len(suffix)))
		buf.Write(lenBuf)
		buf.WriteString(suffix)

		prev = tok
	}

	return buf.Bytes()
}

// decodeFrontCoded reconstructs the ordered token list written by
// encodeFrontCoded. The returned slice's index i is the dense index that
// S4's i'th bitmap pairs with.
func decodeFrontCoded(data []byte) ([]string, error) {
	r := bytes.NewReader(data)

	var count uint32
	if err := binary.Read(r, headerEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading token count: %v", engineerr.ErrCorruptBlock, err)
	}

	tokens := make([]string, 0, count)
	var prev string

	for i := uint32(0); i < count; i++ {
		var shared, suffixLen uint16
		if err := binary.Read(r, headerEndian, &shared); err != nil {
			return nil, fmt.Errorf("%w: reading shared length: %v", engineerr.ErrCorruptBlock, err)
		}
		if err := binary.Read(r, headerEndian, &suffixLen); err != nil {
			return nil, fmt.Errorf("%w: reading suffix length: %v", engineerr.ErrCorruptBlock, err)
		}
		if int(shared) > len(prev) {
			return nil, fmt.Errorf("%w: shared prefix length %d exceeds previous token length %d", engineerr.ErrCorruptBlock, shared, len(prev))
		}

		suffix := make([]byte, suffixLen)
		if _, err := io.ReadFull(r, suffix); err != nil {
			return nil, fmt.Errorf("%w: reading token suffix: %v", engineerr.ErrCorruptBlock, err)
		}

		tok := prev[:shared] + string(suffix)
		tokens = append(tokens, tok)
		prev = tok
	}

	return tokens, nil
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	i := 0
	for i < n && a[i] == b[i] {
		i++
	}

	return i
}
