package wire

// compactThreshold is the read-cursor offset at which the Reader physically
// compacts its buffer by dropping already-consumed bytes (spec §4.2).
const compactThreshold = 1024

// idleShrinkThreshold bounds how much spare capacity a fully-drained Reader
// will tolerate before it releases its backing array and starts fresh on the
// next Feed (spec §4.2 "max-idle-buffer policy").
const idleShrinkThreshold = 64 * 1024

// DefaultMaxFrameLen is the maximum MessageLength the Reader will accept
// before reporting ErrFrameTooLarge, guarding against a corrupt or hostile
// length prefix driving unbounded buffering. 48MB matches MongoDB's own
// maximum BSON document size plus header slack.
const DefaultMaxFrameLen = 48 * 1024 * 1024

// Reader incrementally reassembles complete OP_REPLY frames out of a byte
// stream that may arrive in arbitrarily small or large chunks (spec §4.2).
// It is reusable across many frames and carries its own sticky error state:
// once a frame is rejected, the Reader refuses further Feeds (spec: "fails
// with PROTOCOL if an earlier parse error already marked the reader").
type Reader struct {
	buf    []byte
	cursor int
	pktlen int32

	// MaxFrameLen overrides DefaultMaxFrameLen when non-zero.
	MaxFrameLen int32

	err error
}

// NewReader returns an empty, ready-to-use Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Err returns the sticky parse error, if any.
func (rd *Reader) Err() error {
	return rd.err
}

// Feed appends b to the Reader's internal buffer. It returns the Reader's
// sticky error if one was already recorded by a previous GetReply.
func (rd *Reader) Feed(b []byte) error {
	if rd.err != nil {
		return rd.err
	}
	if len(b) == 0 {
		return nil
	}
	rd.buf = append(rd.buf, b...)
	return nil
}

// GetReply returns the next fully-buffered reply, or (nil, nil) if more
// bytes are required before one can be decoded.
func (rd *Reader) GetReply() (*Reply, error) {
	if rd.err != nil {
		return nil, rd.err
	}

	if rd.pktlen == 0 {
		if rd.remaining() < 4 {
			return nil, nil
		}
		n := getInt32(rd.buf, rd.cursor)
		switch {
		case n < int32(HeaderLen+replyPreambleLen):
			rd.err = ErrProtocol
			return nil, rd.err
		case n > rd.maxFrameLen():
			rd.err = ErrFrameTooLarge
			return nil, rd.err
		}
		rd.pktlen = n
	}

	if rd.remaining() < int(rd.pktlen) {
		return nil, nil
	}

	frame := rd.buf[rd.cursor : rd.cursor+int(rd.pktlen)]
	reply, err := DecodeReply(frame)
	if err != nil {
		rd.err = err
		return nil, err
	}

	rd.cursor += int(rd.pktlen)
	rd.pktlen = 0
	rd.compact()
	return reply, nil
}

func (rd *Reader) remaining() int {
	return len(rd.buf) - rd.cursor
}

func (rd *Reader) maxFrameLen() int32 {
	if rd.MaxFrameLen > 0 {
		return rd.MaxFrameLen
	}
	return DefaultMaxFrameLen
}

// compact drops already-consumed bytes once the cursor has advanced far
// enough, and releases the backing array entirely once the buffer has
// drained and its spare capacity is no longer worth keeping around.
func (rd *Reader) compact() {
	if rd.cursor == 0 {
		return
	}
	if rd.cursor >= len(rd.buf) {
		if cap(rd.buf) > idleShrinkThreshold {
			rd.buf = nil
		} else {
			rd.buf = rd.buf[:0]
		}
		rd.cursor = 0
		return
	}
	if rd.cursor >= compactThreshold {
		rd.buf = append(rd.buf[:0], rd.buf[rd.cursor:]...)
		rd.cursor = 0
	}
}
