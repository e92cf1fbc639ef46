package mongoerr

import (
	"errors"
	"testing"

	"github.com/facebookgo/ensure"
)

func TestKindString(t *testing.T) {
	ensure.DeepEqual(t, OK.String(), "OK")
	ensure.DeepEqual(t, IO.String(), "IO")
	ensure.DeepEqual(t, EOF.String(), "EOF")
	ensure.DeepEqual(t, Protocol.String(), "PROTOCOL")
	ensure.DeepEqual(t, OOM.String(), "OOM")
	ensure.DeepEqual(t, Other.String(), "OTHER")
	ensure.DeepEqual(t, Kind(99).String(), "UNKNOWN")
}

func TestNewNilErrIsNil(t *testing.T) {
	if New(IO, nil) != nil {
		t.Fatal("expected New(kind, nil) to return a nil *Error")
	}
}

func TestNewWrapsAndClassifies(t *testing.T) {
	cause := errors.New("connection reset")
	e := New(IO, cause)
	ensure.NotNil(t, e)
	ensure.DeepEqual(t, e.Kind, IO)
	if e.Unwrap() == nil {
		t.Fatal("expected Unwrap to expose the wrapped cause")
	}
}

func TestNewfBuildsMessage(t *testing.T) {
	e := Newf(Protocol, "frame too large: %d", 99)
	ensure.NotNil(t, e)
	ensure.DeepEqual(t, e.Kind, Protocol)
	if e.Error() == "" {
		t.Fatal("expected a non-empty error string")
	}
}

func TestNilErrorMethodsAreSafe(t *testing.T) {
	var e *Error
	ensure.DeepEqual(t, e.Error(), "")
	if e.Unwrap() != nil {
		t.Fatal("expected Unwrap on a nil *Error to return nil")
	}
}
