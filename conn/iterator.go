package conn

import "github.com/mongowire/mongowire/wire"

// IteratorCallback receives each batch of an Iterator's cursor as it
// arrives, plus any error that ended iteration. done is true on the final
// invocation (err set, or the cursor exhausted cleanly), at which point the
// Iterator is finished and must not be reused. The dispatcher removes the
// final batch's registry entry after cb returns.
type IteratorCallback func(batch *wire.Reply, err error, done bool)

// Iterator follows an OP_GET_MORE cursor to completion without blocking,
// replacing the original's mongoFindAll helper, which the design notes flag
// as buggy for reading additional replies synchronously from inside an
// otherwise async API. Iterator instead drives its own GetMore requests
// through the same AsyncConnection.Command path ordinary callers use, so no
// step of following the cursor ever blocks the caller's event loop.
type Iterator struct {
	ac       *AsyncConnection
	db       string
	coll     string
	batch    int32
	cursorID int64
	cb       IteratorCallback
	done     bool
}

// NewIterator wraps an initial query reply (CursorID possibly non-zero)
// into an Iterator that will keep calling cb with each subsequent batch
// until the cursor is exhausted or an error occurs. If first is already
// exhausted, cb is invoked once with done=true and NewIterator returns a
// no-op Iterator.
func NewIterator(ac *AsyncConnection, db, collection string, batchSize int32, first *wire.Reply, cb IteratorCallback) *Iterator {
	it := &Iterator{
		ac:       ac,
		db:       db,
		coll:     collection,
		batch:    batchSize,
		cursorID: first.CursorID,
		cb:       cb,
	}
	cb(first, nil, first.Exhausted())
	if first.Exhausted() {
		it.done = true
	}
	return it
}

// Done reports whether the cursor has been fully consumed or aborted.
func (it *Iterator) Done() bool { return it.done }

// Next requests the next batch. It is a no-op once Done reports true.
// Callers typically invoke Next again from inside cb after inspecting the
// delivered batch, to pull the cursor forward one step at a time.
func (it *Iterator) Next() {
	if it.done {
		return
	}
	cursorID := it.cursorID
	_, err := it.ac.Command(func(buf *wire.Buffer, requestID int32) error {
		return wire.EncodeGetMore(buf, requestID, it.db, it.coll, it.batch, cursorID)
	}, true, func(reply *wire.Reply) {
		if reply == nil {
			it.done = true
			it.cb(nil, errDisconnecting, true)
			return
		}
		it.cursorID = reply.CursorID
		if reply.Exhausted() {
			it.done = true
		}
		it.cb(reply, nil, it.done)
	})
	if err != nil {
		it.done = true
		it.cb(nil, err, true)
	}
}

// Kill issues OP_KILL_CURSORS for the cursor this Iterator owns, if it
// hasn't already been exhausted. Cursor cleanup is never automatic (spec
// design notes): whoever stops iterating early is responsible for calling
// this.
func (it *Iterator) Kill() error {
	if it.done || it.cursorID == 0 {
		return nil
	}
	it.done = true
	return it.ac.KillCursors(it.cursorID)
}
