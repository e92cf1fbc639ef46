package conn

import "github.com/davecgh/go-spew/spew"

// debugDumpConfig matches the verbosity extensions/dump.go in the original
// proxy used for its DumpExtension: every decoded Reply gets logged at
// Debug level, spewed rather than %v-formatted so nested BSON documents and
// byte slices are legible.
var debugDumpConfig = &spew.ConfigState{Indent: "  ", DisableMethods: true}

func (c *Connection) debugReply(r interface{}) {
	if c.Log == nil {
		return
	}
	c.log().Debugf("reply: %s", debugDumpConfig.Sdump(r))
}
