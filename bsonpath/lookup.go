// Package bsonpath extracts typed fields out of a decoded BSON document by
// dotted path, the one piece of document introspection the core needs from
// its BSON collaborator beyond plain Unmarshal (spec §1).
package bsonpath

import (
	"strings"

	"gopkg.in/mgo.v2/bson"
)

// Lookup walks doc following the dot-separated segments of path and returns
// the value found there, if any. Each segment may select a key of a
// bson.M/map[string]interface{}, a name within a bson.D, or, for segments
// that parse as a non-negative integer, an index into a []interface{}.
//
// Grounded on dvara's hasKey helper (response_rewriter.go), generalized from
// a single top-level bson.D membership check to arbitrary nesting depth.
func Lookup(doc interface{}, path string) (interface{}, bool) {
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur interface{}, seg string) (interface{}, bool) {
	switch v := cur.(type) {
	case bson.M:
		val, ok := v[seg]
		return val, ok
	case map[string]interface{}:
		val, ok := v[seg]
		return val, ok
	case bson.D:
		for _, e := range v {
			if strings.EqualFold(e.Name, seg) {
				return e.Value, true
			}
		}
		return nil, false
	case []interface{}:
		idx, err := indexOf(seg)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil, false
		}
		return v[idx], true
	default:
		return nil, false
	}
}

func indexOf(seg string) (int, error) {
	n := 0
	if seg == "" {
		return 0, errNotIndex
	}
	for _, c := range seg {
		if c < '0' || c > '9' {
			return 0, errNotIndex
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
