// Package assertx holds debug-only invariant checks not worth the cost of
// a full testing framework. GoroutineID is adapted verbatim from the
// teacher's assert.GetGoRoutineID; SameGoroutine generalizes its one known
// caller (confirming a dedicated loop never gets displaced onto a second
// goroutine) into a reusable check.
package assertx

import (
	"bytes"
	"runtime"
	"strconv"
)

// GoroutineID returns an identifier that differs between goroutines and is
// stable for a given goroutine's lifetime. For debugging and testing only —
// never branch production logic on it beyond an invariant check.
func GoroutineID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	b = b[:bytes.IndexByte(b, ' ')]
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}

// SameGoroutine records the first goroutine it's checked from and reports
// whether every subsequent check still arrives from that same goroutine.
// Zero value is ready to use.
type SameGoroutine struct {
	id   uint64
	seen bool
}

// Check returns true if this is the first call, or if the calling goroutine
// matches the one recorded on the first call.
func (s *SameGoroutine) Check() bool {
	id := GoroutineID()
	if !s.seen {
		s.id = id
		s.seen = true
		return true
	}
	return id == s.id
}
