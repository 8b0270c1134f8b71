package sqlite

// #include <sqlite3.h>
// #include <stdlib.h>
// #include <string.h>
import "C"

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"
)

// OpenFlags mirror the engine's sqlite3_open_v2 flag bits.
//
// adapted from the teacher's extension.go LimitId-style constant block,
// generalized from an extension's implicit connection to an owned one.
type OpenFlags int

//noinspection GoSnakeCaseUsage
const (
	OpenReadOnly     = OpenFlags(C.SQLITE_OPEN_READONLY)
	OpenReadWrite    = OpenFlags(C.SQLITE_OPEN_READWRITE)
	OpenCreate       = OpenFlags(C.SQLITE_OPEN_CREATE)
	OpenUri          = OpenFlags(C.SQLITE_OPEN_URI)
	OpenMemory       = OpenFlags(C.SQLITE_OPEN_MEMORY)
	OpenNoMutex      = OpenFlags(C.SQLITE_OPEN_NOMUTEX)
	OpenFullMutex    = OpenFlags(C.SQLITE_OPEN_FULLMUTEX)
	OpenSharedCache  = OpenFlags(C.SQLITE_OPEN_SHAREDCACHE)
	OpenPrivateCache = OpenFlags(C.SQLITE_OPEN_PRIVATECACHE)
)

// DefaultOpenFlags matches spec.md §4.3: read-write | create | URI-interpret |
// no-mutex. NoMutex is load-bearing: Connection is Send-but-not-Sync (see the
// Connection type doc below) so the engine's own serializing mutex would only add
// overhead without adding safety.
const DefaultOpenFlags = OpenReadWrite | OpenCreate | OpenUri | OpenNoMutex

// Connection is a handle that exclusively owns one engine connection
// pointer, a statement cache, and a default transaction behavior
// (spec.md §3's Connection invariants). It is safe to pass a *Connection
// between goroutines (it is Send) but the engine requires all operations
// on a single connection to be externally serialized unless opened with
// OpenFullMutex|OpenSharedCache, so *Connection is deliberately not Sync:
// callers that need concurrent access must synchronize themselves.
//
// adapted from the teacher's sqlite.go Conn, generalized from "wraps an
// extension's implicit *C.sqlite3" to "owns a connection opened via
// sqlite3_open_v2, or attaches to a caller-supplied handle".
type Connection struct {
	handle connHandle
	owned  bool // true if Close should call sqlite3_close_v2

	logger  Logger
	cache *StatementCache

	defaultTxBehavior TransactionBehavior

	mu        sync.Mutex // guards closed, for InterruptHandle coordination
	closed    bool
	interrupt *InterruptHandle

	commitHook   hookSlot
	rollbackHook hookSlot
	updateHook   hookSlot
	progressHook hookSlot
	traceHook    hookSlot
}

// Open constructs a Connection backed by a freshly opened engine handle.
// path is interpreted per SQLITE_OPEN_URI rules when OpenUri is set (the
// default). See OpenOption for the available functional options.
func Open(path string, opts ...OpenOption) (*Connection, error) {
	cfg := defaultOpenConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	for i := 0; i < len(path); i++ {
		if path[i] == 0 {
			return nil, InvalidPath
		}
	}

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var cvfs *C.char
	if cfg.vfsName != "" {
		cvfs = C.CString(cfg.vfsName)
		defer C.free(unsafe.Pointer(cvfs))
	}

	var db *C.sqlite3
	res := C.sqlite3_open_v2(cpath, &db, C.int(cfg.flags), cvfs)
	if err := errorIfNotOk(res); err != nil {
		if db != nil {
			C.sqlite3_close_v2(db)
		}
		return nil, err
	}

	conn := wrapOwned(db, true, cfg)
	if cfg.busyTimeout > 0 {
		C.sqlite3_busy_timeout(db, C.int(cfg.busyTimeout.Milliseconds()))
	}
	return conn, nil
}

// OpenFromHandle attaches a Connection to an already-open *C.sqlite3
// without taking ownership: Close becomes a no-op on the underlying
// handle (the caller retains responsibility for closing it).
//
// raw must be a live sqlite3 connection pointer (for example, one handed
// to an extension entry point or obtained via cgo from other C code);
// it is accepted as unsafe.Pointer so callers outside this package never
// need to reference the cgo type directly.
func OpenFromHandle(raw unsafe.Pointer, opts ...OpenOption) *Connection {
	cfg := defaultOpenConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return wrapOwned((*C.sqlite3)(raw), false, cfg)
}

// OpenFromHandleOwned attaches a Connection to an already-open *C.sqlite3
// and takes ownership: Close calls sqlite3_close_v2 on it.
func OpenFromHandleOwned(raw unsafe.Pointer, opts ...OpenOption) *Connection {
	cfg := defaultOpenConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return wrapOwned((*C.sqlite3)(raw), true, cfg)
}

func wrapOwned(db *C.sqlite3, owned bool, cfg openConfig) *Connection {
	c := &Connection{
		handle:            connHandle{ptr: db},
		owned:             owned,
		logger:            cfg.logger,
		defaultTxBehavior: TxDeferred,
	}
	c.cache = newStatementCache(c, cfg.cacheSize)
	c.interrupt = &InterruptHandle{conn: c}

	runtime.SetFinalizer(c, func(c *Connection) { _ = c.Close() })
	return c
}

// Close flushes the statement cache and, if this Connection owns the
// underlying handle, closes it. Drop cannot fail in spec.md's model but
// the engine's close call can; the error is still surfaced here since Go
// has no infallible-drop equivalent, mirroring how the teacher's Stmt/Conn
// ignore finalizer errors but this package's explicit Close does not.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	runtime.SetFinalizer(c, nil)

	c.cache.flush()

	var err error
	if c.owned && c.handle.ptr != nil {
		res := C.sqlite3_close_v2(c.handle.ptr)
		err = errorIfNotOk(res)
	}

	// released after the close call so a SQLITE_TRACE_CLOSE event (fired
	// by the engine during sqlite3_close_v2) still reaches the tracer.
	c.commitHook.release()
	c.rollbackHook.release()
	c.updateHook.release()
	c.progressHook.release()
	c.traceHook.release()

	return err
}

// LastInsertRowID reports the rowid of the most recently successful INSERT.
// see: https://www.sqlite.org/c3ref/last_insert_rowid.html
func (c *Connection) LastInsertRowID() int64 {
	return int64(C.sqlite3_last_insert_rowid(c.handle.ptr))
}

// Changes reports the number of rows modified by the most recently
// completed INSERT/UPDATE/DELETE.
func (c *Connection) Changes() int64 {
	return int64(C.sqlite3_changes64(c.handle.ptr))
}

// AutoCommit reports whether the connection is currently outside an
// explicit transaction.
func (c *Connection) AutoCommit() bool {
	return C.sqlite3_get_autocommit(c.handle.ptr) != 0
}

// Version returns the linked engine's runtime version string.
func (c *Connection) Version() string { return libVersionString() }

// LimitId identifies one of the engine's runtime-configurable limits.
//
// kept from the teacher's extension.go almost verbatim.
type LimitId int

//noinspection GoSnakeCaseUsage
const (
	LIMIT_LENGTH              = LimitId(C.SQLITE_LIMIT_LENGTH)
	LIMIT_SQL_LENGTH          = LimitId(C.SQLITE_LIMIT_SQL_LENGTH)
	LIMIT_COLUMN              = LimitId(C.SQLITE_LIMIT_COLUMN)
	LIMIT_EXPR_DEPTH          = LimitId(C.SQLITE_LIMIT_EXPR_DEPTH)
	LIMIT_COMPOUND_SELECT     = LimitId(C.SQLITE_LIMIT_COMPOUND_SELECT)
	LIMIT_VDBE_OP             = LimitId(C.SQLITE_LIMIT_VDBE_OP)
	LIMIT_FUNCTION_ARG        = LimitId(C.SQLITE_LIMIT_FUNCTION_ARG)
	LIMIT_ATTACHED            = LimitId(C.SQLITE_LIMIT_ATTACHED)
	LIMIT_LIKE_PATTERN_LENGTH = LimitId(C.SQLITE_LIMIT_LIKE_PATTERN_LENGTH)
	LIMIT_VARIABLE_NUMBER     = LimitId(C.SQLITE_LIMIT_VARIABLE_NUMBER)
	LIMIT_TRIGGER_DEPTH       = LimitId(C.SQLITE_LIMIT_TRIGGER_DEPTH)
	LIMIT_WORKER_THREADS      = LimitId(C.SQLITE_LIMIT_WORKER_THREADS)
)

// Limit queries for the limit with given identifier.
func (c *Connection) Limit(id LimitId) int {
	return int(C.sqlite3_limit(c.handle.ptr, C.int(id), C.int(-1)))
}

// SetLimit sets the limit for the given identifier, returning its prior value.
func (c *Connection) SetLimit(id LimitId, val int) int {
	return int(C.sqlite3_limit(c.handle.ptr, C.int(id), C.int(val)))
}

// InterruptHandle returns a thread-safe view over the connection that can
// be used to interrupt an in-flight operation from another goroutine
// (spec.md §4.3 — the one capability that legitimately crosses threads
// for a single Connection).
func (c *Connection) InterruptHandle() *InterruptHandle { return c.interrupt }

// InterruptHandle is a lock-protected view over a Connection's raw pointer.
// Interrupt is a no-op once the connection has been closed.
type InterruptHandle struct{ conn *Connection }

// Interrupt causes any statements currently executing on the connection
// to fail with an interrupted error at their next opportunity. It is
// safe to call from any goroutine, including concurrently with Close.
func (h *InterruptHandle) Interrupt() {
	h.conn.mu.Lock()
	defer h.conn.mu.Unlock()
	if h.conn.closed || h.conn.handle.ptr == nil {
		return
	}
	C.sqlite3_interrupt(h.conn.handle.ptr)
}

// ExecuteBatch iteratively prepares/steps/advances the tail over sql,
// which may contain more than one statement. Rows produced by any
// statement (e.g. a PRAGMA) are silently discarded.
func (c *Connection) ExecuteBatch(sql string) error {
	csql := C.CString(sql)
	defer C.free(unsafe.Pointer(csql))

	tail := csql
	for {
		remaining := C.int(C.strlen(tail))
		if remaining == 0 {
			return nil
		}

		var stmt *C.sqlite3_stmt
		var next *C.char
		res := C.sqlite3_prepare_v2(c.handle.ptr, tail, -1, &stmt, &next)
		if err := errorIfNotOk(res); err != nil {
			return err
		}
		if stmt == nil {
			// whitespace/comment-only tail; nothing left to execute.
			tail = next
			if C.int(C.strlen(tail)) == 0 {
				return nil
			}
			continue
		}

		for {
			stepRes := C.sqlite3_step(stmt)
			if stepRes == C.SQLITE_ROW {
				continue
			}
			if stepRes != C.SQLITE_DONE {
				C.sqlite3_finalize(stmt)
				return errorIfNotOk(stepRes)
			}
			break
		}
		C.sqlite3_finalize(stmt)
		tail = next
	}
}

// Execute prepares sql, binds args positionally, steps it exactly once,
// and returns the number of rows changed. It fails with
// ExecuteReturnedResults if the statement produces a row.
func (c *Connection) Execute(sql string, args ...interface{}) (int64, error) {
	stmt, err := c.Prepare(sql)
	if err != nil {
		return 0, err
	}
	defer stmt.Finalize()

	if err := stmt.bindAll(args); err != nil {
		return 0, err
	}

	hasRow, err := stmt.Step()
	if err != nil {
		return 0, err
	}
	if hasRow {
		return 0, ExecuteReturnedResults
	}
	return c.Changes(), nil
}

// ExecuteInsert is Execute for statements that are expected to insert
// exactly one row; it returns the new row's rowid, or StatementChangedRows
// if the engine reports a change count other than one.
func (c *Connection) ExecuteInsert(sql string, args ...interface{}) (int64, error) {
	changes, err := c.Execute(sql, args...)
	if err != nil {
		return 0, err
	}
	if changes != 1 {
		return 0, StatementChangedRows(changes)
	}
	return c.LastInsertRowID(), nil
}

// QueryRow prepares sql, binds args, steps once, and calls scan with the
// resulting Row. It fails with QueryReturnedNoRows if stepping produces
// no row.
func (c *Connection) QueryRow(sql string, args []interface{}, scan func(*Row) error) error {
	stmt, err := c.Prepare(sql)
	if err != nil {
		return err
	}
	defer stmt.Finalize()

	if err := stmt.bindAll(args); err != nil {
		return err
	}

	hasRow, err := stmt.Step()
	if err != nil {
		return err
	}
	if !hasRow {
		return QueryReturnedNoRows
	}
	return scan(&Row{stmt: stmt})
}

// QueryOne behaves like QueryRow but additionally requires that no
// second row is present, failing with QueryReturnedMoreThanOneRow otherwise.
func (c *Connection) QueryOne(sql string, args []interface{}, scan func(*Row) error) error {
	stmt, err := c.Prepare(sql)
	if err != nil {
		return err
	}
	defer stmt.Finalize()

	if err := stmt.bindAll(args); err != nil {
		return err
	}

	hasRow, err := stmt.Step()
	if err != nil {
		return err
	}
	if !hasRow {
		return QueryReturnedNoRows
	}
	if err := scan(&Row{stmt: stmt}); err != nil {
		return err
	}

	hasSecond, err := stmt.Step()
	if err != nil {
		return err
	}
	if hasSecond {
		return QueryReturnedMoreThanOneRow
	}
	return nil
}

// Prepare compiles sql into a Statement, failing with MultipleStatement if
// sql contains trailing bytes that themselves compile to a non-empty
// statement.
func (c *Connection) Prepare(sql string) (*Stmt, error) { return c.prepare(sql) }

// PrepareCached behaves like Prepare but serves from/returns to the
// connection's statement cache keyed by exact SQL text.
func (c *Connection) PrepareCached(sql string) (*CachedStmt, error) {
	return c.cache.take(sql)
}

func (c *Connection) log(format string, v ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, v...)
	}
}

func (c *Connection) String() string {
	return fmt.Sprintf("Connection(%p)", c.handle.ptr)
}
