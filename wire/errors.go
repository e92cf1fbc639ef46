package wire

import "errors"

// Sentinel errors returned by the codec. Callers (conn.Connection,
// conn.AsyncConnection) classify these into the mongoerr taxonomy.
var (
	// ErrProtocol is returned when a frame or document stream is malformed:
	// wrong opcode, declared document count does not match what was parsed,
	// or trailing bytes remain after the declared number of documents.
	ErrProtocol = errors.New("wire: malformed frame")

	// ErrFrameTooLarge is returned by the Reader when a declared frame length
	// exceeds the configured maximum, guarding against a corrupt or hostile
	// length prefix driving unbounded allocation.
	ErrFrameTooLarge = errors.New("wire: frame length exceeds maximum")

	// ErrBufferTooLarge is returned by Buffer.Append when appending would
	// grow the output buffer past its configured maximum size.
	ErrBufferTooLarge = errors.New("wire: output buffer exceeds maximum")

	errShortDocument = errors.New("wire: document length prefix too short")
)
