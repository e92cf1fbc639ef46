package bsonpath

import (
	"testing"

	"github.com/facebookgo/ensure"
	"gopkg.in/mgo.v2/bson"
)

func TestLookupNestedMap(t *testing.T) {
	doc := bson.M{
		"cursor": bson.M{
			"id":    int64(42),
			"hosts": []interface{}{"a:1", "b:2"},
		},
	}

	v, ok := Lookup(doc, "cursor.id")
	if !ok {
		t.Fatal("expected cursor.id to be found")
	}
	ensure.DeepEqual(t, v, int64(42))

	v, ok = Lookup(doc, "cursor.hosts.1")
	if !ok {
		t.Fatal("expected cursor.hosts.1 to be found")
	}
	ensure.DeepEqual(t, v, "b:2")
}

func TestLookupBsonD(t *testing.T) {
	doc := bson.D{{Name: "ismaster", Value: true}}
	v, ok := Lookup(doc, "ISMASTER")
	if !ok {
		t.Fatal("expected case-insensitive field lookup to succeed")
	}
	ensure.DeepEqual(t, v, true)
}

func TestLookupMissing(t *testing.T) {
	doc := bson.M{"a": bson.M{"b": 1}}
	if _, ok := Lookup(doc, "a.c"); ok {
		t.Fatal("expected a.c to be missing")
	}
	if _, ok := Lookup(doc, "x.y"); ok {
		t.Fatal("expected x.y to be missing")
	}
}

func TestLookupIndexOutOfRange(t *testing.T) {
	doc := bson.M{"list": []interface{}{1, 2}}
	if _, ok := Lookup(doc, "list.5"); ok {
		t.Fatal("expected out-of-range index to miss")
	}
	if _, ok := Lookup(doc, "list.notanindex"); ok {
		t.Fatal("expected non-numeric segment against a slice to miss")
	}
}
