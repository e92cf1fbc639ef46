package wire

import (
	"testing"

	"github.com/facebookgo/ensure"
)

func buildReplyFrame(requestID, responseTo int32, cursorID int64, docs [][]byte) []byte {
	body := make([]byte, 0, replyPreambleLen)
	var b4 [4]byte
	var b8 [8]byte
	putInt32(b4[:], 0, 0) // responseFlags
	body = append(body, b4[:]...)
	putInt64(b8[:], 0, cursorID)
	body = append(body, b8[:]...)
	putInt32(b4[:], 0, 0) // startingFrom
	body = append(body, b4[:]...)
	putInt32(b4[:], 0, int32(len(docs)))
	body = append(body, b4[:]...)
	for _, d := range docs {
		body = append(body, d...)
	}

	h := Header{
		MessageLength: int32(HeaderLen + len(body)),
		RequestID:     requestID,
		ResponseTo:    responseTo,
		OpCode:        OpReply,
	}
	frame := append([]byte{}, h.ToWire()...)
	return append(frame, body...)
}

func minimalDoc() []byte {
	// an empty BSON document: int32 length(5) + trailing NUL
	return []byte{5, 0, 0, 0, 0}
}

func TestReaderRoundTrip(t *testing.T) {
	rd := NewReader()
	frame := buildReplyFrame(1, 7, 0, [][]byte{minimalDoc()})

	reply, err := rd.GetReply()
	ensure.Nil(t, err)
	if reply != nil {
		t.Fatalf("expected no reply before any bytes were fed, got %+v", reply)
	}

	ensure.Nil(t, rd.Feed(frame))
	reply, err = rd.GetReply()
	ensure.Nil(t, err)
	ensure.NotNil(t, reply)
	ensure.DeepEqual(t, reply.ResponseTo, int32(7))
	ensure.DeepEqual(t, len(reply.Documents), 1)
}

func TestReaderSplitAcrossFeeds(t *testing.T) {
	rd := NewReader()
	frame := buildReplyFrame(2, 9, 0, [][]byte{minimalDoc(), minimalDoc()})

	for _, b := range frame {
		ensure.Nil(t, rd.Feed([]byte{b}))
		reply, err := rd.GetReply()
		ensure.Nil(t, err)
		if reply != nil {
			ensure.DeepEqual(t, reply.ResponseTo, int32(9))
			ensure.DeepEqual(t, len(reply.Documents), 2)
			return
		}
	}
	t.Fatal("reply never completed")
}

func TestReaderMultipleFramesInOneFeed(t *testing.T) {
	rd := NewReader()
	f1 := buildReplyFrame(1, 1, 0, [][]byte{minimalDoc()})
	f2 := buildReplyFrame(2, 2, 0, [][]byte{minimalDoc()})

	ensure.Nil(t, rd.Feed(append(append([]byte{}, f1...), f2...)))

	r1, err := rd.GetReply()
	ensure.Nil(t, err)
	ensure.DeepEqual(t, r1.ResponseTo, int32(1))

	r2, err := rd.GetReply()
	ensure.Nil(t, err)
	ensure.DeepEqual(t, r2.ResponseTo, int32(2))

	r3, err := rd.GetReply()
	ensure.Nil(t, err)
	if r3 != nil {
		t.Fatalf("expected no third reply, got %+v", r3)
	}
}

func TestReaderMalformedFrameIsSticky(t *testing.T) {
	rd := NewReader()
	h := Header{MessageLength: 4, RequestID: 1, OpCode: OpReply}

	ensure.Nil(t, rd.Feed(h.ToWire()))
	_, err := rd.GetReply()
	ensure.DeepEqual(t, err, ErrProtocol)

	_, err = rd.GetReply()
	ensure.DeepEqual(t, err, ErrProtocol)

	ensure.DeepEqual(t, rd.Feed([]byte("more")), ErrProtocol)
}

func TestReaderFrameTooLarge(t *testing.T) {
	rd := NewReader()
	rd.MaxFrameLen = 64
	h := Header{MessageLength: 1 << 20, RequestID: 1, OpCode: OpReply}
	ensure.Nil(t, rd.Feed(h.ToWire()))
	_, err := rd.GetReply()
	ensure.DeepEqual(t, err, ErrFrameTooLarge)
}

func TestReaderCompactsOnceDrained(t *testing.T) {
	rd := NewReader()
	frame := buildReplyFrame(1, 1, 0, [][]byte{minimalDoc()})
	ensure.Nil(t, rd.Feed(frame))
	reply, err := rd.GetReply()
	ensure.Nil(t, err)
	ensure.NotNil(t, reply)
	ensure.DeepEqual(t, rd.cursor, 0)
	ensure.DeepEqual(t, len(rd.buf), 0)
}

func TestReaderCompactsAtThreshold(t *testing.T) {
	rd := NewReader()
	small := buildReplyFrame(1, 1, 0, [][]byte{minimalDoc()})
	// a document of compactThreshold bytes, so that consuming both frames
	// moves the cursor past compactThreshold
	bigDoc := make([]byte, compactThreshold)
	putInt32(bigDoc, 0, compactThreshold)
	big := buildReplyFrame(2, 2, 0, [][]byte{bigDoc})
	big = append(big, make([]byte, compactThreshold)...) // trailing unconsumed bytes, so the buffer is not fully drained

	ensure.Nil(t, rd.Feed(small))
	ensure.Nil(t, rd.Feed(big))

	reply, err := rd.GetReply()
	ensure.Nil(t, err)
	ensure.DeepEqual(t, reply.ResponseTo, int32(1))

	reply, err = rd.GetReply()
	ensure.Nil(t, err)
	ensure.DeepEqual(t, reply.ResponseTo, int32(2))

	// cursor has advanced past compactThreshold bytes of consumed frames with
	// unconsumed padding still buffered; GetReply's trailing compact() should
	// have shifted it back to 0.
	ensure.DeepEqual(t, rd.cursor, 0)
}
