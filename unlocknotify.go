package sqlite

// #include <sqlite3.h>
//
// extern void unlock_notify_tramp(void**, int);
import "C"

import (
	"sync"
	"unsafe"

	"github.com/mattn/go-pointer"
)

// unlockNote is a one-shot latch the engine's unlock-notify callback
// fires once the blocking connection releases its shared-cache lock.
//
// ported from original_source/src/unlock_notify.rs's UnlockNotification,
// using a sync.Cond instead of a raw condvar+mutex+bool pair since that
// is the idiomatic Go rendering of the same wait/notify shape; the
// call-site (wait_for_unlock_notify, invoked from stmt.go on
// SQLITE_LOCKED_SHAREDCACHE) survives from the teacher almost verbatim.
type unlockNote struct {
	mu    sync.Mutex
	cond  *sync.Cond
	fired bool
}

func newUnlockNote() *unlockNote {
	n := &unlockNote{}
	n.cond = sync.NewCond(&n.mu)
	return n
}

func (n *unlockNote) fire() {
	n.mu.Lock()
	n.fired = true
	n.mu.Unlock()
	n.cond.Signal()
}

func (n *unlockNote) wait() {
	n.mu.Lock()
	for !n.fired {
		n.cond.Wait()
	}
	n.fired = false
	n.mu.Unlock()
}

// isLocked reports whether rc represents a shared-cache lock conflict
// that the unlock-notify protocol can wait out, per
// original_source/src/unlock_notify.rs's is_locked.
func isLocked(db *C.sqlite3, rc C.int) bool {
	if rc == C.SQLITE_LOCKED_SHAREDCACHE {
		return true
	}
	return (rc&0xFF) == C.SQLITE_LOCKED && ErrorCode(C.sqlite3_extended_errcode(db)) == ErrorCode(C.SQLITE_LOCKED_SHAREDCACHE)
}

// waitForUnlockNotify assumes a prepare/step call on db has just returned
// SQLITE_LOCKED(_SHAREDCACHE). It registers for an unlock-notify callback
// and blocks until it fires, returning SQLITE_OK for the caller to retry
// the failed operation; or returns SQLITE_LOCKED immediately if waiting
// would deadlock, in which case the caller must not retry and should
// roll back any open transaction.
func waitForUnlockNotify(db *C.sqlite3) C.int {
	note := newUnlockNote()
	token := pointer.Save(note)
	defer pointer.Unref(token)

	rc := C.sqlite3_unlock_notify(db, (*[0]byte)(C.unlock_notify_tramp), token)
	if rc == C.SQLITE_OK {
		note.wait()
	}
	return rc
}

//export unlock_notify_tramp
func unlock_notify_tramp(apArg **unsafe.Pointer, nArg C.int) {
	if nArg <= 0 {
		return
	}
	args := unsafe.Slice(apArg, int(nArg))
	for _, p := range args {
		pointer.Restore(p).(*unlockNote).fire()
	}
}
