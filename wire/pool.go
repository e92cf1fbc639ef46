package wire

import "sync"

// bufferPool recycles the small scratch Buffers used to build a single
// request frame before it's appended to a Connection's output buffer. This
// is the Go-native substitute for the stack-buffer fast path in the design
// notes: it avoids an allocation per encode without needing a fixed-size
// on-stack array and a growable fallback.
var bufferPool = sync.Pool{
	New: func() interface{} { return NewBuffer(256) },
}

func getScratch() *Buffer {
	buf := bufferPool.Get().(*Buffer)
	buf.buf = buf.buf[:0]
	buf.off = 0
	buf.Max = 0
	return buf
}

func putScratch(buf *Buffer) {
	if cap(buf.buf) > 64*1024 {
		return
	}
	bufferPool.Put(buf)
}
