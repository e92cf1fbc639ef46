// Package helpers provides thin, sync-only compositions on top of
// conn.Connection for a handful of common database commands. Spec §1 marks
// these "not specified" external collaborators; they're grounded in
// himongo.h's mongoGetCollectionNames/mongoListCollections/
// mongoDropDatabase/mongoGetLastError, which the distilled spec omitted.
//
// Every helper here issues exactly one command and, where the server may
// answer across multiple batches (ListCollections), reads every batch
// synchronously to completion before returning — per the design notes'
// warning against the original's mongoFindAll, which blocked on additional
// reads from inside what was otherwise an async-facing call. conn.Connection
// is already blocking, so there's no such hazard here; the async-safe
// equivalent is conn.Iterator, not this package.
package helpers

import (
	"fmt"

	"github.com/mongowire/mongowire/conn"
	"github.com/mongowire/mongowire/wire"
	"gopkg.in/mgo.v2/bson"
)

const defaultBatchSize = 100

// runCommand issues a database command against db.$cmd and returns its
// single reply document decoded into v.
func runCommand(c *conn.Connection, db string, cmd interface{}, v interface{}) error {
	query, err := bson.Marshal(cmd)
	if err != nil {
		return err
	}
	reply, err := c.Command(func(buf *wire.Buffer, requestID int32) error {
		return wire.EncodeQuery(buf, requestID, 0, db, "$cmd", 0, 1, query, nil)
	})
	if err != nil {
		return err
	}
	if len(reply.Documents) == 0 {
		return fmt.Errorf("helpers: command %v returned no documents", cmd)
	}
	return reply.Unmarshal(0, v)
}

type commandResult struct {
	OK     float64 `bson:"ok"`
	ErrMsg string  `bson:"errmsg"`
}

func (r commandResult) err() error {
	if r.OK == 1 {
		return nil
	}
	return fmt.Errorf("helpers: command failed: %s", r.ErrMsg)
}

// DropDatabase runs the dropDatabase command against db.
func DropDatabase(c *conn.Connection, db string) error {
	var res commandResult
	if err := runCommand(c, db, bson.M{"dropDatabase": 1}, &res); err != nil {
		return err
	}
	return res.err()
}

// LastError is the decoded result of a getLastError command.
type LastError struct {
	OK       float64     `bson:"ok"`
	Err      string      `bson:"err"`
	Code     int         `bson:"code"`
	N        int         `bson:"n"`
	Upserted interface{} `bson:"upserted"`
}

// Exists reports whether the server recorded an error for the last
// operation on this connection.
func (l *LastError) Exists() bool { return l.Err != "" }

// GetLastError runs the getLastError command against db, matching
// himongo's mongoGetLastError.
func GetLastError(c *conn.Connection, db string) (*LastError, error) {
	var le LastError
	if err := runCommand(c, db, bson.M{"getLastError": 1}, &le); err != nil {
		return nil, err
	}
	return &le, nil
}

type listCollectionsBatch struct {
	Cursor struct {
		ID         int64    `bson:"id"`
		NS         string   `bson:"ns"`
		FirstBatch []bson.M `bson:"firstBatch"`
		NextBatch  []bson.M `bson:"nextBatch"`
	} `bson:"cursor"`
	OK float64 `bson:"ok"`
}

// ListCollections runs the listCollections command against db and collects
// every batch synchronously, matching mongoGetCollectionNames's behavior of
// draining the whole cursor before returning to the caller.
func ListCollections(c *conn.Connection, db string) ([]bson.M, error) {
	var first listCollectionsBatch
	if err := runCommand(c, db, bson.M{"listCollections": 1}, &first); err != nil {
		return nil, err
	}
	if first.OK != 1 {
		return nil, fmt.Errorf("helpers: listCollections failed on db %q", db)
	}

	all := append([]bson.M{}, first.Cursor.FirstBatch...)
	cursorID := first.Cursor.ID
	for cursorID != 0 {
		reply, err := c.Command(func(buf *wire.Buffer, requestID int32) error {
			return wire.EncodeGetMore(buf, requestID, db, "$cmd.listCollections", defaultBatchSize, cursorID)
		})
		if err != nil {
			return nil, err
		}
		if len(reply.Documents) == 0 {
			break
		}
		var batch struct {
			Cursor struct {
				ID        int64    `bson:"id"`
				NextBatch []bson.M `bson:"nextBatch"`
			} `bson:"cursor"`
		}
		if err := reply.Unmarshal(0, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch.Cursor.NextBatch...)
		cursorID = batch.Cursor.ID
	}
	return all, nil
}

// CollectionNames extracts just the "name" field from ListCollections'
// results, mirroring mongoGetCollectionNames.
func CollectionNames(c *conn.Connection, db string) ([]string, error) {
	cols, err := ListCollections(c, db)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cols))
	for _, col := range cols {
		if name, ok := col["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}
