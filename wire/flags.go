package wire

// UpdateFlags are the OP_UPDATE flag bits.
type UpdateFlags uint32

const (
	UpdateUpsert UpdateFlags = 1 << 0
	UpdateMulti  UpdateFlags = 1 << 1
)

// InsertFlags are the OP_INSERT flag bits.
type InsertFlags uint32

const (
	InsertContinueOnError InsertFlags = 1 << 0
)

// QueryFlags are the OP_QUERY flag bits.
type QueryFlags uint32

const (
	QueryTailable        QueryFlags = 1 << 1
	QuerySlaveOK         QueryFlags = 1 << 2
	QueryOplogReplay     QueryFlags = 1 << 3
	QueryNoCursorTimeout QueryFlags = 1 << 4
	QueryAwaitData       QueryFlags = 1 << 5
	QueryExhaust         QueryFlags = 1 << 6
	QueryPartial         QueryFlags = 1 << 7
)

// DeleteFlags are the OP_DELETE flag bits.
type DeleteFlags uint32

const (
	DeleteSingleRemove DeleteFlags = 1 << 0
)
