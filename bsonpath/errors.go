package bsonpath

import "errors"

var errNotIndex = errors.New("bsonpath: segment is not a valid array index")
