package wire

import "io"

// All data in the MongoDB wire protocol is little-endian. The get/put helpers
// below read and write in that byte order.

func getInt32(b []byte, pos int) int32 {
	return int32(b[pos]) |
		int32(b[pos+1])<<8 |
		int32(b[pos+2])<<16 |
		int32(b[pos+3])<<24
}

func putInt32(b []byte, pos int, v int32) {
	b[pos] = byte(v)
	b[pos+1] = byte(v >> 8)
	b[pos+2] = byte(v >> 16)
	b[pos+3] = byte(v >> 24)
}

func getInt64(b []byte, pos int) int64 {
	return int64(b[pos]) |
		int64(b[pos+1])<<8 |
		int64(b[pos+2])<<16 |
		int64(b[pos+3])<<24 |
		int64(b[pos+4])<<32 |
		int64(b[pos+5])<<40 |
		int64(b[pos+6])<<48 |
		int64(b[pos+7])<<56
}

func putInt64(b []byte, pos int, v int64) {
	b[pos] = byte(v)
	b[pos+1] = byte(v >> 8)
	b[pos+2] = byte(v >> 16)
	b[pos+3] = byte(v >> 24)
	b[pos+4] = byte(v >> 32)
	b[pos+5] = byte(v >> 40)
	b[pos+6] = byte(v >> 48)
	b[pos+7] = byte(v >> 56)
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

const nulByte = byte(0)

// readCString reads a NUL-terminated BSON cstring from r, including the
// trailing NUL in the returned slice.
func readCString(r io.Reader) ([]byte, error) {
	var b []byte
	var n [1]byte
	for {
		if _, err := io.ReadFull(r, n[:]); err != nil {
			return nil, err
		}
		b = append(b, n[0])
		if n[0] == nulByte {
			return b, nil
		}
	}
}

// readDocument reads a single length-prefixed BSON document from r. The
// returned slice includes the 4-byte length prefix and can be passed to
// bson.Unmarshal directly.
func readDocument(r io.Reader) ([]byte, error) {
	var sizeRaw [4]byte
	if _, err := io.ReadFull(r, sizeRaw[:]); err != nil {
		return nil, err
	}
	size := getInt32(sizeRaw[:], 0)
	if size < 4 {
		return nil, errShortDocument
	}
	doc := make([]byte, size)
	putInt32(doc, 0, size)
	if _, err := io.ReadFull(r, doc[4:]); err != nil {
		return nil, err
	}
	return doc, nil
}
