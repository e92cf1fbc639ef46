package wire

import (
	"errors"
	"fmt"
	"io"
)

// HeaderLen is the fixed size in bytes of the standard message header.
const HeaderLen = 16

var errShortWrite = errors.New("wire: incorrect number of bytes written")

// Header is the 16-byte preamble shared by every message in the legacy wire
// protocol, request or reply.
type Header struct {
	// MessageLength is the total message size, including this header.
	MessageLength int32
	// RequestID identifies this message.
	RequestID int32
	// ResponseTo is the RequestID this message is a response to, used in
	// replies. Zero for requests.
	ResponseTo int32
	// OpCode is the operation carried by the message body.
	OpCode OpCode
}

// ToWire encodes the header into its 16-byte wire representation.
func (h Header) ToWire() []byte {
	var d [HeaderLen]byte
	b := d[:]
	putInt32(b, 0, h.MessageLength)
	putInt32(b, 4, h.RequestID)
	putInt32(b, 8, h.ResponseTo)
	putInt32(b, 12, int32(h.OpCode))
	return b
}

// FromWire decodes a header from its 16-byte wire representation. b must be
// at least HeaderLen bytes.
func (h *Header) FromWire(b []byte) {
	h.MessageLength = getInt32(b, 0)
	h.RequestID = getInt32(b, 4)
	h.ResponseTo = getInt32(b, 8)
	h.OpCode = OpCode(getInt32(b, 12))
}

// WriteTo writes the wire encoding of the header to w.
func (h Header) WriteTo(w io.Writer) error {
	b := h.ToWire()
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return errShortWrite
	}
	return nil
}

// String returns a representation useful for logging.
func (h Header) String() string {
	return fmt.Sprintf(
		"opCode:%s (%d) msgLen:%d reqID:%d respTo:%d",
		h.OpCode, h.OpCode, h.MessageLength, h.RequestID, h.ResponseTo,
	)
}

// ReadHeader reads and decodes a standard header from r.
func ReadHeader(r io.Reader) (*Header, error) {
	var d [HeaderLen]byte
	b := d[:]
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	h := &Header{}
	h.FromWire(b)
	return h, nil
}
