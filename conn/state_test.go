package conn

import (
	"testing"

	"github.com/facebookgo/ensure"
)

func TestStateString(t *testing.T) {
	ensure.DeepEqual(t, StateConnected.String(), "CONNECTED")
	ensure.DeepEqual(t, State(99).String(), "UNKNOWN")
}

func TestFlagSetClearHas(t *testing.T) {
	var f flag
	if f.has(flagFreeing) {
		t.Fatal("zero value flag should have nothing set")
	}

	f.set(flagFreeing)
	if !f.has(flagFreeing) {
		t.Fatal("expected flagFreeing to be set")
	}
	if f.has(flagInCallback) {
		t.Fatal("setting flagFreeing should not set flagInCallback")
	}

	f.set(flagInCallback)
	if !f.has(flagFreeing) || !f.has(flagInCallback) {
		t.Fatal("expected both flags set independently")
	}

	f.clear(flagFreeing)
	if f.has(flagFreeing) {
		t.Fatal("expected flagFreeing cleared")
	}
	if !f.has(flagInCallback) {
		t.Fatal("clearing flagFreeing should not clear flagInCallback")
	}
}
