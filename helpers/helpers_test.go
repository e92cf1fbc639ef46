package helpers

import (
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/facebookgo/ensure"
	"github.com/facebookgo/mgotest"
	"github.com/mongowire/mongowire/conn"
)

// requireMongod skips the test when no mongod binary is on PATH, matching
// dvara's disableSlowTests gating for tests that shell out to a real server.
func requireMongod(t *testing.T) {
	t.Helper()
	if os.Getenv("GO_RUN_LONG_TEST") == "" {
		t.Skip("disabled because it's slow; set GO_RUN_LONG_TEST=1 to run")
	}
	if _, err := exec.LookPath("mongod"); err != nil {
		t.Skip("mongod not found on PATH")
	}
}

func dialHelperConn(t *testing.T, server *mgotest.Server) *conn.Connection {
	t.Helper()
	host, port := "127.0.0.1", server.Port
	c, err := conn.DialTimeout(host, port, 5*time.Second)
	ensure.Nil(t, err)
	return c
}

func TestDropDatabaseAndListCollections(t *testing.T) {
	requireMongod(t)

	server := mgotest.NewStartedServer(t)
	defer server.Stop()

	session := server.Session()
	defer session.Close()
	ensure.Nil(t, session.DB("helperstest").C("widgets").Insert(map[string]interface{}{"n": 1}))
	session.Close()

	c := dialHelperConn(t, server)
	defer c.Disconnect()

	names, err := CollectionNames(c, "helperstest")
	ensure.Nil(t, err)

	found := false
	for _, n := range names {
		if n == "widgets" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected widgets collection in %v", names)
	}

	ensure.Nil(t, DropDatabase(c, "helperstest"))

	namesAfter, err := CollectionNames(c, "helperstest")
	ensure.Nil(t, err)
	for _, n := range namesAfter {
		if n == "widgets" {
			t.Fatal("expected widgets to be gone after DropDatabase")
		}
	}
}

func TestGetLastErrorOnFreshConnection(t *testing.T) {
	requireMongod(t)

	server := mgotest.NewStartedServer(t)
	defer server.Stop()

	c := dialHelperConn(t, server)
	defer c.Disconnect()

	le, err := GetLastError(c, "helperstest")
	ensure.Nil(t, err)
	ensure.NotNil(t, le)
	if le.Exists() {
		t.Fatalf("expected no error recorded yet, got %q", le.Err)
	}
}
