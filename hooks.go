package sqlite

// #include <sqlite3.h>
//
// extern int  commit_hook_tramp(void*);
// extern void rollback_hook_tramp(void*);
// extern void update_hook_tramp(void*, int, char*, char*, sqlite3_int64);
// extern int  progress_handler_tramp(void*);
import "C"

import (
	"unsafe"

	"github.com/mattn/go-pointer"
)

// Action classifies the write operation an update hook fires for.
type Action int

//noinspection GoSnakeCaseUsage
const (
	ActionUnknown = Action(-1)
	ActionInsert  = Action(C.SQLITE_INSERT)
	ActionUpdate  = Action(C.SQLITE_UPDATE)
	ActionDelete  = Action(C.SQLITE_DELETE)
)

// hookSlot tracks the destroy function for a callback registered through
// an API that (unlike sqlite3_create_function_v2) gives the engine no way
// to invoke a destructor itself: per spec.md §4.5, "when the engine does
// not support a destroy callback (commit/rollback/update/progress), the
// library itself owns the destroy function pointer and runs it on
// replace/drop."
type hookSlot struct{ ptr unsafe.Pointer }

func (s *hookSlot) replace(ptr unsafe.Pointer) {
	if s.ptr != nil {
		pointer.Unref(s.ptr)
	}
	s.ptr = ptr
}

// release frees the slot's saved closure without re-registering anything
// with the engine. Used from Connection.Close, after sqlite3_close_v2 has
// already run (and so already fired any SQLITE_TRACE_CLOSE event) and
// there is no longer a live db handle to pass to sqlite3_*_hook.
func (s *hookSlot) release() {
	if s.ptr != nil {
		pointer.Unref(s.ptr)
		s.ptr = nil
	}
}

// RegisterCommitHook sets the commit hook for the connection. The
// callback returns true to force a rollback instead of a commit. A nil
// fn removes any existing hook.
//
// adapted from the teacher's extension.go RegisterCommitHook, moved onto
// Connection and converted from underscore-prefixed bridge calls to
// plain sqlite3 calls; the library-owned destroy-on-replace behavior
// (hookSlot) is supplemented from original_source/src/hooks.rs, which the
// teacher's version didn't implement (it leaked the previous pApp via a
// best-effort pointer.Unref with no slot tracking).
func (c *Connection) RegisterCommitHook(fn func() bool) {
	if fn == nil {
		C.sqlite3_commit_hook(c.handle.ptr, nil, nil)
		c.commitHook.replace(nil)
		return
	}
	ptr := pointer.Save(fn)
	C.sqlite3_commit_hook(c.handle.ptr, (*[0]byte)(C.commit_hook_tramp), ptr)
	c.commitHook.replace(ptr)
}

// RegisterRollbackHook sets the rollback hook for the connection. A nil
// fn removes any existing hook.
func (c *Connection) RegisterRollbackHook(fn func()) {
	if fn == nil {
		C.sqlite3_rollback_hook(c.handle.ptr, nil, nil)
		c.rollbackHook.replace(nil)
		return
	}
	ptr := pointer.Save(fn)
	C.sqlite3_rollback_hook(c.handle.ptr, (*[0]byte)(C.rollback_hook_tramp), ptr)
	c.rollbackHook.replace(ptr)
}

// RegisterUpdateHook sets the update hook, invoked whenever a row is
// inserted, updated or deleted in a rowid table. A nil fn removes any
// existing hook.
//
// supplemented wholesale from original_source/src/hooks.rs's update_hook
// (the teacher has no update-hook support at all).
func (c *Connection) RegisterUpdateHook(fn func(action Action, dbName, tableName string, rowID int64)) {
	if fn == nil {
		C.sqlite3_update_hook(c.handle.ptr, nil, nil)
		c.updateHook.replace(nil)
		return
	}
	ptr := pointer.Save(fn)
	C.sqlite3_update_hook(c.handle.ptr, (*[0]byte)(C.update_hook_tramp), ptr)
	c.updateHook.replace(ptr)
}

// RegisterProgressHandler installs a callback invoked roughly every
// numOps virtual-machine instructions; returning true aborts the
// operation with an interrupted error. numOps < 1 disables the handler.
// A nil fn also disables it.
//
// supplemented wholesale from original_source/src/hooks.rs's
// progress_handler (the teacher has no progress-handler support).
func (c *Connection) RegisterProgressHandler(numOps int, fn func() bool) {
	if fn == nil || numOps < 1 {
		C.sqlite3_progress_handler(c.handle.ptr, 0, nil, nil)
		c.progressHook.replace(nil)
		return
	}
	ptr := pointer.Save(fn)
	C.sqlite3_progress_handler(c.handle.ptr, C.int(numOps), (*[0]byte)(C.progress_handler_tramp), ptr)
	c.progressHook.replace(ptr)
}

//export commit_hook_tramp
func commit_hook_tramp(p unsafe.Pointer) C.int {
	fn := pointer.Restore(p).(func() bool)
	if fn() {
		return 1
	}
	return 0
}

//export rollback_hook_tramp
func rollback_hook_tramp(p unsafe.Pointer) {
	pointer.Restore(p).(func())()
}

//export update_hook_tramp
func update_hook_tramp(p unsafe.Pointer, action C.int, dbName, tableName *C.char, rowID C.sqlite3_int64) {
	fn := pointer.Restore(p).(func(Action, string, string, int64))
	a := ActionUnknown
	switch action {
	case C.SQLITE_INSERT:
		a = ActionInsert
	case C.SQLITE_UPDATE:
		a = ActionUpdate
	case C.SQLITE_DELETE:
		a = ActionDelete
	}
	fn(a, C.GoString(dbName), C.GoString(tableName), int64(rowID))
}

//export progress_handler_tramp
func progress_handler_tramp(p unsafe.Pointer) C.int {
	fn := pointer.Restore(p).(func() bool)
	if fn() {
		return 1
	}
	return 0
}
