package wire

// Buffer is an append-only output buffer with prefix-consume, shared between
// the blocking and async send paths (spec §4.1). Writes accumulate at the
// tail; a socket write consumes bytes from the head once they've been sent.
//
// Unlike the C core this codec was modeled on, Buffer never hand-rolls a
// fixed stack buffer for the fast path — Go's escape analysis plus the
// sync.Pool in pool.go already avoid the allocation the stack buffer existed to
// avoid, and a single growable path is what the design notes license.
type Buffer struct {
	buf []byte
	off int

	// Max bounds how large buf may grow. Zero means unbounded. Exceeding it
	// surfaces ErrBufferTooLarge instead of growing without limit, standing
	// in for the allocator-level OOM the spec's host language can hit.
	Max int
}

// NewBuffer returns an empty Buffer with the given initial capacity hint.
func NewBuffer(capHint int) *Buffer {
	return &Buffer{buf: make([]byte, 0, capHint)}
}

// Append copies b onto the tail of the buffer.
func (buf *Buffer) Append(b []byte) error {
	if buf.Max > 0 && buf.Len()+len(b) > buf.Max {
		return ErrBufferTooLarge
	}
	buf.buf = append(buf.buf, b...)
	return nil
}

// Reserve appends n zero bytes and returns a slice view into them so the
// caller can patch the bytes in place once the rest of the frame is known
// (used to backfill MessageLength after a body is built).
func (buf *Buffer) Reserve(n int) ([]byte, error) {
	if buf.Max > 0 && buf.Len()+n > buf.Max {
		return nil, ErrBufferTooLarge
	}
	start := len(buf.buf)
	buf.buf = append(buf.buf, make([]byte, n)...)
	return buf.buf[start : start+n], nil
}

// Bytes returns the unconsumed portion of the buffer. The slice is only
// valid until the next Append, Reserve, or Consume call.
func (buf *Buffer) Bytes() []byte {
	return buf.buf[buf.off:]
}

// Consume drops n bytes from the head of the buffer, as after a partial or
// complete socket write. It compacts the backing array once fully drained.
func (buf *Buffer) Consume(n int) {
	buf.off += n
	if buf.off >= len(buf.buf) {
		buf.buf = buf.buf[:0]
		buf.off = 0
		return
	}
}

// Len returns the number of unconsumed bytes.
func (buf *Buffer) Len() int {
	return len(buf.buf) - buf.off
}

// IsEmpty reports whether there are no unconsumed bytes.
func (buf *Buffer) IsEmpty() bool {
	return buf.Len() == 0
}
