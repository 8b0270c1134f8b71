package sqlite

// #include <sqlite3.h>
import "C"

// This file is the raw handle layer (spec.md §4.2): thin, non-exported
// wrappers around the engine's opaque pointers. No behaviour lives here
// beyond construction and the result-code decoding helpers every other
// file in the package builds on — it exists so that §4.3 onward cannot
// accidentally free or duplicate a pointer the engine still owns.

// connHandle wraps a live *C.sqlite3. It is not safe to share across
// goroutines without external synchronisation (Connection enforces this by
// not implementing Sync - see conn.go).
type connHandle struct{ ptr *C.sqlite3 }

func (h connHandle) valid() bool { return h.ptr != nil }

// stmtHandle wraps a live *C.sqlite3_stmt.
type stmtHandle struct{ ptr *C.sqlite3_stmt }

func (h stmtHandle) valid() bool { return h.ptr != nil }

// valueHandle wraps a borrowed *C.sqlite3_value. Its lifetime is bound to
// the step/context that produced it; callers must not retain it.
type valueHandle struct{ ptr *C.sqlite3_value }

// ctxHandle wraps a *C.sqlite3_context, used only while a scalar/aggregate/
// vtab-column callback is executing.
type ctxHandle struct{ ptr *C.sqlite3_context }

// libVersion returns the engine's runtime version number (e.g. 3042000).
func libVersion() int { return int(C.sqlite3_libversion_number()) }

// libVersionString returns the engine's runtime version string (e.g. "3.42.0").
func libVersionString() string { return C.GoString(C.sqlite3_libversion()) }

// threadsafe reports whether the linked engine was itself compiled with
// thread-safety support; the core's own Send-not-Sync rules (spec.md §5)
// are independent of this but it is useful to expose for diagnostics.
func threadsafe() bool { return C.sqlite3_threadsafe() != 0 }
