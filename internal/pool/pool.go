// Package pool provides the reusable scratch buffer stream.Reader backs
// its socket reads with, adapted from the teacher's portal/utils/pool
// (which pooled 64KB buffers for io.CopyBuffer). This module has one such
// buffer per connection rather than per copy, so the pool here hands a
// buffer out for the lifetime of a Reader and takes it back on Release
// instead of per read.
package pool

import "sync"

// readBuffers pools the []byte Reader.tmp scratch slot: one per live
// connection, sized to the minimum the frame codecs need in a single
// socket read.
var readBuffers = sync.Pool{
	New: func() any {
		b := make([]byte, 64*1024)
		return &b
	},
}

// AcquireReadBuffer returns a 64KiB scratch buffer for a Reader's socket
// reads. Contents are whatever a prior connection left behind; callers must
// only trust the bytes a Read call just wrote into it.
func AcquireReadBuffer() []byte {
	return *readBuffers.Get().(*[]byte)
}

// ReleaseReadBuffer returns buf to the pool. Callers must not use buf again
// afterward.
func ReleaseReadBuffer(buf []byte) {
	readBuffers.Put(&buf)
}
