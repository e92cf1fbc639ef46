package wire

// FullName builds the "db.collection" namespace string used throughout the
// wire protocol's request bodies.
func FullName(db, collection string) string {
	return db + "." + collection
}

// cmdCollection is the special collection name used to run a database
// command: an OP_QUERY against "<db>.$cmd" with numberToReturn = 1 delivers
// a single-document reply (spec §4.4).
const cmdCollection = "$cmd"

// CommandFullName builds the namespace for a database command against db.
func CommandFullName(db string) string {
	return FullName(db, cmdCollection)
}

func appendCString(buf *Buffer, s string) error {
	b := make([]byte, len(s)+1)
	copy(b, s)
	b[len(s)] = nulByte
	return buf.Append(b)
}

func appendInt32(buf *Buffer, v int32) error {
	var b [4]byte
	putInt32(b[:], 0, v)
	return buf.Append(b[:])
}

func appendInt64(buf *Buffer, v int64) error {
	var b [8]byte
	putInt64(b[:], 0, v)
	return buf.Append(b[:])
}

// buildFrame runs body against a fresh scratch Buffer, then patches in the
// header (with MessageLength = HeaderLen + len(body)) and appends the whole
// frame onto dst. It is the single choke point every Encode* function uses
// so that the length invariant (spec Testable Property 4) cannot be gotten
// wrong in one opcode and not another.
func buildFrame(dst *Buffer, requestID int32, opCode OpCode, body func(*Buffer) error) error {
	scratch := getScratch()
	defer putScratch(scratch)

	if err := body(scratch); err != nil {
		return err
	}

	h := Header{
		MessageLength: int32(HeaderLen + scratch.Len()),
		RequestID:     requestID,
		ResponseTo:    0,
		OpCode:        opCode,
	}
	if err := dst.Append(h.ToWire()); err != nil {
		return err
	}
	return dst.Append(scratch.Bytes())
}

// EncodeQuery appends an OP_QUERY frame to dst.
//
//	flags:i32, fullName:cstring, skip:i32, return:i32, query:doc, [fields:doc]
func EncodeQuery(dst *Buffer, requestID int32, flags QueryFlags, db, collection string, skip, numberToReturn int32, query, fields []byte) error {
	return buildFrame(dst, requestID, OpQuery, func(b *Buffer) error {
		if err := appendInt32(b, int32(flags)); err != nil {
			return err
		}
		if err := appendCString(b, FullName(db, collection)); err != nil {
			return err
		}
		if err := appendInt32(b, skip); err != nil {
			return err
		}
		if err := appendInt32(b, numberToReturn); err != nil {
			return err
		}
		if err := b.Append(query); err != nil {
			return err
		}
		if fields != nil {
			if err := b.Append(fields); err != nil {
				return err
			}
		}
		return nil
	})
}

// EncodeInsert appends an OP_INSERT frame to dst.
//
//	flags:i32, fullName:cstring, docs:doc[]
func EncodeInsert(dst *Buffer, requestID int32, flags InsertFlags, db, collection string, docs [][]byte) error {
	return buildFrame(dst, requestID, OpInsert, func(b *Buffer) error {
		if err := appendInt32(b, int32(flags)); err != nil {
			return err
		}
		if err := appendCString(b, FullName(db, collection)); err != nil {
			return err
		}
		for _, doc := range docs {
			if err := b.Append(doc); err != nil {
				return err
			}
		}
		return nil
	})
}

// EncodeUpdate appends an OP_UPDATE frame to dst.
//
//	zero:i32, fullName:cstring, flags:i32, selector:doc, update:doc
func EncodeUpdate(dst *Buffer, requestID int32, flags UpdateFlags, db, collection string, selector, update []byte) error {
	return buildFrame(dst, requestID, OpUpdate, func(b *Buffer) error {
		if err := appendInt32(b, 0); err != nil {
			return err
		}
		if err := appendCString(b, FullName(db, collection)); err != nil {
			return err
		}
		if err := appendInt32(b, int32(flags)); err != nil {
			return err
		}
		if err := b.Append(selector); err != nil {
			return err
		}
		return b.Append(update)
	})
}

// EncodeDelete appends an OP_DELETE frame to dst.
//
//	zero:i32, fullName:cstring, flags:i32, selector:doc
func EncodeDelete(dst *Buffer, requestID int32, flags DeleteFlags, db, collection string, selector []byte) error {
	return buildFrame(dst, requestID, OpDelete, func(b *Buffer) error {
		if err := appendInt32(b, 0); err != nil {
			return err
		}
		if err := appendCString(b, FullName(db, collection)); err != nil {
			return err
		}
		if err := appendInt32(b, int32(flags)); err != nil {
			return err
		}
		return b.Append(selector)
	})
}

// EncodeGetMore appends an OP_GET_MORE frame to dst.
//
//	zero:i32, fullName:cstring, return:i32, cursorID:i64
func EncodeGetMore(dst *Buffer, requestID int32, db, collection string, numberToReturn int32, cursorID int64) error {
	return buildFrame(dst, requestID, OpGetMore, func(b *Buffer) error {
		if err := appendInt32(b, 0); err != nil {
			return err
		}
		if err := appendCString(b, FullName(db, collection)); err != nil {
			return err
		}
		if err := appendInt32(b, numberToReturn); err != nil {
			return err
		}
		return appendInt64(b, cursorID)
	})
}

// EncodeKillCursors appends an OP_KILL_CURSORS frame to dst.
//
//	zero:i32, count:i32, ids:i64[count]
func EncodeKillCursors(dst *Buffer, requestID int32, cursorIDs []int64) error {
	return buildFrame(dst, requestID, OpKillCursors, func(b *Buffer) error {
		if err := appendInt32(b, 0); err != nil {
			return err
		}
		if err := appendInt32(b, int32(len(cursorIDs))); err != nil {
			return err
		}
		for _, id := range cursorIDs {
			if err := appendInt64(b, id); err != nil {
				return err
			}
		}
		return nil
	})
}
