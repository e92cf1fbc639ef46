package wire

import (
	"bytes"
	"fmt"

	"gopkg.in/mgo.v2/bson"
)

// Response flag bits carried in an OP_REPLY's responseFlags field.
// Supplemented from the OP_REPLY flag table the distilled spec names but
// does not enumerate.
const (
	ReplyCursorNotFound  = int32(1 << 0)
	ReplyQueryFailure    = int32(1 << 1)
	ReplyShardConfigStale = int32(1 << 2)
	ReplyAwaitCapable    = int32(1 << 3)
)

// Reply is a fully decoded OP_REPLY message (spec §3 "Reply").
type Reply struct {
	MessageLength int32
	RequestID     int32
	ResponseTo    int32
	OpCode        OpCode

	ResponseFlags  int32
	CursorID       int64
	StartingFrom   int32
	NumberReturned int32

	// Documents holds one deep copy per returned document; len(Documents)
	// always equals NumberReturned for a successfully decoded Reply.
	Documents [][]byte
}

// CursorNotFound reports whether the CursorNotFound response flag is set.
func (r *Reply) CursorNotFound() bool { return r.ResponseFlags&ReplyCursorNotFound != 0 }

// QueryFailure reports whether the QueryFailure response flag is set; when
// true Documents[0] is the server's error document.
func (r *Reply) QueryFailure() bool { return r.ResponseFlags&ReplyQueryFailure != 0 }

// Exhausted reports whether the server-side cursor for this reply has been
// fully consumed (cursorID == 0).
func (r *Reply) Exhausted() bool { return r.CursorID == 0 }

// Unmarshal decodes the i'th returned document into v using the BSON
// collaborator.
func (r *Reply) Unmarshal(i int, v interface{}) error {
	return bson.Unmarshal(r.Documents[i], v)
}

const replyPreambleLen = 20 // responseFlags:4 cursorID:8 startingFrom:4 numberReturned:4

// DecodeReply parses a single, complete OP_REPLY frame of exactly
// len(frame) == frame's own MessageLength bytes (as delivered by
// Reader.GetReply) into a Reply. Every document is deep-copied out of the
// frame slice before being stored, since the BSON streaming reader's
// intermediate buffers must not escape (design notes: "double-buffered BSON
// copy").
func DecodeReply(frame []byte) (*Reply, error) {
	if len(frame) < HeaderLen+replyPreambleLen {
		return nil, ErrProtocol
	}

	var h Header
	h.FromWire(frame)
	if h.OpCode != OpReply {
		return nil, fmt.Errorf("%w: expected OP_REPLY, got %s", ErrProtocol, h.OpCode)
	}

	r := &Reply{
		MessageLength: h.MessageLength,
		RequestID:     h.RequestID,
		ResponseTo:    h.ResponseTo,
		OpCode:        h.OpCode,
	}

	p := frame[HeaderLen:]
	r.ResponseFlags = getInt32(p, 0)
	r.CursorID = getInt64(p, 4)
	r.StartingFrom = getInt32(p, 12)
	r.NumberReturned = getInt32(p, 16)
	if r.NumberReturned < 0 {
		return nil, fmt.Errorf("%w: negative numberReturned %d", ErrProtocol, r.NumberReturned)
	}

	rest := bytes.NewReader(p[replyPreambleLen:])
	// Preallocation is capped independent of the untrusted numberReturned
	// field: readDocument below already bounds each document against what's
	// actually left in the frame, but a multi-GB make() shouldn't be
	// reachable from the wire before that check ever runs.
	docs := make([][]byte, 0, minInt32(r.NumberReturned, 64))
	for i := int32(0); i < r.NumberReturned; i++ {
		raw, err := readDocument(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: document %d/%d: %v", ErrProtocol, i, r.NumberReturned, err)
		}
		doc := make([]byte, len(raw))
		copy(doc, raw)
		docs = append(docs, doc)
	}
	if rest.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d documents", ErrProtocol, rest.Len(), r.NumberReturned)
	}
	r.Documents = docs
	return r, nil
}
