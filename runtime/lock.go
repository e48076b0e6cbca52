package runtime

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// ---------------------------------------------------------------------------
// Lock: the process-wide interpreter lock
// ---------------------------------------------------------------------------

// Lock is the exclusive lock guarding all access to the shared object
// graph. It is re-entrant within a single goroutine so that nested
// recursive visits can re-acquire it safely.
type Lock struct {
	mu    sync.Mutex
	owner int64 // goroutine id of the holder, 0 when unheld
	depth int

	state sync.Mutex // guards owner/depth
}

// Acquire takes the lock, blocking if another goroutine holds it.
// Re-acquiring from the holding goroutine increments a depth counter.
func (l *Lock) Acquire() {
	id := goroutineID()

	l.state.Lock()
	if l.owner == id {
		l.depth++
		l.state.Unlock()
		return
	}
	l.state.Unlock()

	l.mu.Lock()

	l.state.Lock()
	l.owner = id
	l.depth = 1
	l.state.Unlock()
}

// Release undoes one Acquire. The outermost Release frees the lock.
func (l *Lock) Release() {
	l.state.Lock()
	if l.owner != goroutineID() {
		l.state.Unlock()
		panic("runtime: lock released by non-owner")
	}
	l.depth--
	if l.depth > 0 {
		l.state.Unlock()
		return
	}
	l.owner = 0
	l.state.Unlock()

	l.mu.Unlock()
}

// Locked runs fn while holding the lock.
func (l *Lock) Locked(fn func()) {
	l.Acquire()
	defer l.Release()
	fn()
}

// goroutineID parses the current goroutine's id from the stack header.
// There is no public API for this; the format ("goroutine N [...") has
// been stable since Go 1.0.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return -1
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
