package conn

import (
	"testing"

	"github.com/facebookgo/ensure"
)

func TestAddrStringTCP(t *testing.T) {
	a := Addr{Network: NetworkTCP, Host: "mongo.example.com", Port: 27017}
	ensure.DeepEqual(t, a.String(), "mongo.example.com:27017")
}

func TestAddrStringUnix(t *testing.T) {
	a := Addr{Network: NetworkUnix, Path: "/var/run/mongodb.sock"}
	ensure.DeepEqual(t, a.String(), "unix:/var/run/mongodb.sock")
}

func TestAddrStringFd(t *testing.T) {
	a := Addr{Network: NetworkFd}
	ensure.DeepEqual(t, a.String(), "fd")
}
