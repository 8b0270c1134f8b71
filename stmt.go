package sqlite

// #include <sqlite3.h>
// #include <stdlib.h>
// #include <string.h>
//
// extern void pointer_destructor_hook_tramp(void*);
//
// // Use a helper function here to avoid the cgo pointer detection
// // logic treating SQLITE_TRANSIENT as a Go pointer.
// static int transient_bind_blob(sqlite3_stmt* stmt, int col, unsigned char* p, int n) {
//   return sqlite3_bind_blob(stmt, col, p, n, SQLITE_TRANSIENT);
// }
// static int transient_bind_text(sqlite3_stmt* stmt, int col, char* p, int n) {
//   return sqlite3_bind_text(stmt, col, p, n, SQLITE_TRANSIENT);
// }
import "C"

import (
	"strings"
	"unsafe"

	"github.com/mattn/go-pointer"
)

// Stmt is a prepared SQL statement bound to a Connection (spec.md §3/§4.4).
// A Stmt is attached to the Connection that prepared it and must not
// outlive it; it is single-threaded ownership, like the teacher's Stmt.
//
// adapted from the teacher's stmt.go, generalized from a Conn attached to
// an extension's implicit database to a Connection that owns its handle,
// with underscore-prefixed bridge calls converted to plain sqlite3 calls.
type Stmt struct {
	conn      *Connection
	stmt      *C.sqlite3_stmt
	query     string
	bindNames map[string]int
	colNames  map[string]int
	bindErr   error
}

// BindIndex abstracts over the three ways spec.md §4.4 allows a bind
// parameter to be addressed: a raw numeric (1-based) index, a name
// (":foo", "@foo", "$foo"), or a C-string name (kept as a distinct type
// so callers that already hold a *C.char can avoid an allocation; in
// this Go rendering CStringIndex simply wraps the string since cgo
// strings are always copied at the boundary anyway).
type BindIndex interface{ resolve(*Stmt) (int, error) }

// Index is a raw, unvalidated 1-based parameter index.
type Index int

func (i Index) resolve(*Stmt) (int, error) { return int(i), nil }

// Name is a named parameter (":foo", "@foo", or "$foo").
type Name string

func (n Name) resolve(s *Stmt) (int, error) {
	pos, ok := s.bindNames[string(n)]
	if !ok {
		return 0, InvalidParameterName(n)
	}
	return pos, nil
}

// CStringName is a named parameter already known not to require
// allocation at the call site; behaves identically to Name here.
type CStringName string

func (n CStringName) resolve(s *Stmt) (int, error) { return Name(n).resolve(s) }

func (stmt *Stmt) prepareBindTables() {
	stmt.bindNames = make(map[string]int, stmt.BindParamCount())
	for i, count := 1, stmt.BindParamCount(); i <= count; i++ {
		cname := C.sqlite3_bind_parameter_name(stmt.stmt, C.int(i))
		if cname != nil {
			stmt.bindNames[C.GoString(cname)] = i
		}
	}

	stmt.colNames = make(map[string]int, stmt.ColumnCount())
	for i, count := 0, stmt.ColumnCount(); i < count; i++ {
		cname := C.sqlite3_column_name(stmt.stmt, C.int(i))
		if cname != nil {
			stmt.colNames[strings.ToLower(C.GoString(cname))] = i
		}
	}
}

// prepare compiles sql into a Stmt, failing with MultipleStatement if the
// trailing bytes after the first statement compile to another non-empty
// statement (spec.md §4.4). Trailing whitespace/comments are allowed.
func (c *Connection) prepare(sql string) (*Stmt, error) {
	csql := C.CString(sql)
	defer C.free(unsafe.Pointer(csql))

	var raw *C.sqlite3_stmt
	var tail *C.char
	res := C.sqlite3_prepare_v2(c.handle.ptr, csql, -1, &raw, &tail)
	if err := errorIfNotOk(res); err != nil {
		return nil, newSqlInputError(c.handle.ptr, sql, res)
	}

	stmt := &Stmt{conn: c, stmt: raw, query: sql}
	stmt.prepareBindTables()

	if err := checkTrailingStatement(c, tail); err != nil {
		stmt.Finalize()
		return nil, err
	}
	return stmt, nil
}

// checkTrailingStatement compiles whatever follows the first statement
// only to classify it; a trailer that itself compiles to a statement is
// MultipleStatement, a trailer that is genuinely empty once whitespace and
// comments are stripped is fine, and anything else - e.g. garbage that
// fails to parse - is a SqlInputError, same as a bad first statement.
func checkTrailingStatement(c *Connection, tail *C.char) error {
	if tail == nil || C.strlen(tail) == 0 {
		return nil
	}
	var trailStmt *C.sqlite3_stmt
	var trailTail *C.char
	res := C.sqlite3_prepare_v2(c.handle.ptr, tail, -1, &trailStmt, &trailTail)
	if trailStmt != nil {
		C.sqlite3_finalize(trailStmt)
		return MultipleStatement
	}
	if err := errorIfNotOk(res); err != nil {
		return newSqlInputError(c.handle.ptr, C.GoString(tail), res)
	}
	return nil
}

// bindAll binds args positionally via toSqlOutputFor, used by
// Connection.Execute/QueryRow/QueryOne.
func (stmt *Stmt) bindAll(args []interface{}) error {
	for i, arg := range args {
		out, err := toSqlOutputFor(arg)
		if err != nil {
			return err
		}
		if err := stmt.BindOutput(Index(i+1), out); err != nil {
			return err
		}
	}
	return nil
}

// Finalize destroys the prepared statement. Safe to call more than once.
//
// see: https://www.sqlite.org/c3ref/finalize.html
func (stmt *Stmt) Finalize() error {
	if stmt.stmt == nil {
		return nil
	}
	res := C.sqlite3_finalize(stmt.stmt)
	stmt.stmt = nil
	return errorIfNotOk(res)
}

// Reset resets a prepared statement so it can be executed again. Bound
// parameter values are retained; call ClearBindings to clear them.
//
// see: https://www.sqlite.org/c3ref/reset.html
func (stmt *Stmt) Reset() error {
	res := C.sqlite3_reset(stmt.stmt)
	return errorIfNotOk(res)
}

// ClearBindings clears all bound parameter values on the statement.
func (stmt *Stmt) ClearBindings() error {
	return errorIfNotOk(C.sqlite3_clear_bindings(stmt.stmt))
}

// Step moves the statement cursor forward using sqlite3_step, mapping
// engine codes to {Row available, Done, Err} (spec.md §4.4). On a
// SQLITE_LOCKED_SHAREDCACHE code it transparently runs the unlock-notify
// wait protocol and retries; any other non-success code resets the
// statement and surfaces a typed error including the engine message.
//
// adapted from the teacher's Stmt.Step/step, converted to use
// waitForUnlockNotify (unlocknotify.go) instead of the filtered bridge
// implementation, and to surface *Error instead of a bare ErrorCode.
func (stmt *Stmt) Step() (bool, error) {
	if err := stmt.bindErr; err != nil {
		stmt.bindErr = nil
		_ = stmt.Reset()
		return false, err
	}

	for {
		res := C.sqlite3_step(stmt.stmt)
		switch {
		case res == C.SQLITE_ROW:
			return true, nil
		case res == C.SQLITE_DONE:
			return false, nil
		case isLocked(stmt.conn.handle.ptr, res):
			if rc := waitForUnlockNotify(stmt.conn.handle.ptr); rc != C.SQLITE_OK {
				C.sqlite3_reset(stmt.stmt)
				return false, errorIfNotOk(rc)
			}
			C.sqlite3_reset(stmt.stmt)
			// loop: retry now that the lock has cleared.
		default:
			err := lastError(stmt.conn.handle.ptr, res)
			C.sqlite3_reset(stmt.stmt)
			return false, err
		}
	}
}

func (stmt *Stmt) handleBindErr(res C.int) {
	if err := ErrorCode(res); !err.ok() && stmt.bindErr == nil {
		stmt.bindErr = lastError(stmt.conn.handle.ptr, res)
	}
}

func (stmt *Stmt) resolveIndex(idx BindIndex) (C.int, error) {
	pos, err := idx.resolve(stmt)
	if err != nil {
		return 0, err
	}
	return C.int(pos), nil
}

// BindOutput binds a ToSqlOutput at idx, dispatching to the matching
// engine bind function per spec.md §4.4. Text/blob payloads are bound
// with the engine's "transient copy" destructor so the caller need not
// keep the source alive past this call.
func (stmt *Stmt) BindOutput(idx BindIndex, out ToSqlOutput) error {
	pos, err := stmt.resolveIndex(idx)
	if err != nil {
		return err
	}

	var res C.int
	switch out.kind {
	case toSqlZeroBlob:
		res = C.sqlite3_bind_zeroblob64(stmt.stmt, pos, C.sqlite3_uint64(out.zeroLen))
	case toSqlBorrowed:
		res = C.sqlite3_bind_value(stmt.stmt, pos, out.borrowed.ptr)
	case toSqlPointer:
		ptr := pointer.Save(out.opaque)
		res = C.sqlite3_bind_pointer(stmt.stmt, pos, ptr, pointerType, (*[0]byte)(C.pointer_destructor_hook_tramp))
	case toSqlArg:
		return &InvalidFilterParameterType{Index: out.argN, Type: SQLITE_NULL}
	default: // toSqlOwned
		res = stmt.bindOwned(pos, out.owned)
	}

	if err := errorIfNotOk(res); err != nil {
		stmt.handleBindErr(res)
		return err
	}
	return nil
}

func (stmt *Stmt) bindOwned(pos C.int, v Value) C.int {
	switch v.typ {
	case SQLITE_NULL:
		return C.sqlite3_bind_null(stmt.stmt, pos)
	case SQLITE_INTEGER:
		return C.sqlite3_bind_int64(stmt.stmt, pos, C.sqlite3_int64(v.i))
	case SQLITE_FLOAT:
		return C.sqlite3_bind_double(stmt.stmt, pos, C.double(v.f))
	case SQLITE_TEXT:
		if len(v.s) == 0 {
			return C.transient_bind_text(stmt.stmt, pos, nil, 0)
		}
		cstr := C.CString(v.s)
		defer C.free(unsafe.Pointer(cstr))
		return C.transient_bind_text(stmt.stmt, pos, cstr, C.int(len(v.s)))
	case SQLITE_BLOB:
		if len(v.b) == 0 {
			return C.transient_bind_blob(stmt.stmt, pos, nil, 0)
		}
		return C.transient_bind_blob(stmt.stmt, pos, (*C.uchar)(unsafe.Pointer(&v.b[0])), C.int(len(v.b)))
	default:
		return C.sqlite3_bind_null(stmt.stmt, pos)
	}
}

// Bind converts arg via ToSql and binds it at idx in one step.
func (stmt *Stmt) Bind(idx BindIndex, arg interface{}) error {
	out, err := toSqlOutputFor(arg)
	if err != nil {
		return err
	}
	return stmt.BindOutput(idx, out)
}

// BindParamCount reports the number of parameters in stmt.
func (stmt *Stmt) BindParamCount() int {
	if stmt.stmt == nil {
		return 0
	}
	return int(C.sqlite3_bind_parameter_count(stmt.stmt))
}

// ColumnCount returns the number of columns in the statement's result set.
func (stmt *Stmt) ColumnCount() int {
	if stmt.stmt == nil {
		return 0
	}
	return int(C.sqlite3_column_count(stmt.stmt))
}

// ColumnName returns the name of the col'th result column.
func (stmt *Stmt) ColumnName(col int) string {
	return C.GoString(C.sqlite3_column_name(stmt.stmt, C.int(col)))
}

// ColumnIndex returns the index of the column with the given name
// (case-insensitive), or -1 if there is none.
func (stmt *Stmt) ColumnIndex(name string) int {
	col, ok := stmt.colNames[strings.ToLower(name)]
	if !ok {
		return -1
	}
	return col
}

// ColumnValueRef returns a borrowed ValueRef over the col'th result
// column of the current row.
func (stmt *Stmt) ColumnValueRef(col int) ValueRef {
	return ValueRef{ptr: C.sqlite3_column_value(stmt.stmt, C.int(col))}
}

// Readonly reports whether the statement makes no direct changes to the
// content of the database file.
// see: https://www.sqlite.org/c3ref/stmt_readonly.html
func (stmt *Stmt) Readonly() bool {
	return C.sqlite3_stmt_readonly(stmt.stmt) != 0
}

// SQL returns the original text the statement was prepared from.
func (stmt *Stmt) SQL() string { return stmt.query }

// StatementStatus reports the numeric counters spec.md §4.4 names
// (fullscan steps, sorts, auto-index, VM steps, reprepare count, runs,
// filter hits/misses, memory used), with get-and-optional-reset
// semantics mirroring sqlite3_stmt_status.
type StatementStatus struct {
	FullscanSteps int
	Sort          int
	AutoIndex     int
	VMStep        int
	Reprepare     int
	Run           int
	FilterHit     int
	FilterMiss    int
	MemUsed       int
}

//noinspection GoSnakeCaseUsage
const (
	stmtStatusFullscanStep = C.SQLITE_STMTSTATUS_FULLSCAN_STEP
	stmtStatusSort         = C.SQLITE_STMTSTATUS_SORT
	stmtStatusAutoindex    = C.SQLITE_STMTSTATUS_AUTOINDEX
	stmtStatusVMStep       = C.SQLITE_STMTSTATUS_VM_STEP
	stmtStatusReprepare    = C.SQLITE_STMTSTATUS_REPREPARE
	stmtStatusRun          = C.SQLITE_STMTSTATUS_RUN
	stmtStatusFilterMiss   = C.SQLITE_STMTSTATUS_FILTER_MISS
	stmtStatusFilterHit    = C.SQLITE_STMTSTATUS_FILTER_HIT
	stmtStatusMemUsed      = C.SQLITE_STMTSTATUS_MEMUSED
)

// Status reports the statement's StatementStatus counters, optionally
// resetting each to zero after reading.
func (stmt *Stmt) Status(reset bool) StatementStatus {
	r := C.int(0)
	if reset {
		r = 1
	}
	return StatementStatus{
		FullscanSteps: int(C.sqlite3_stmt_status(stmt.stmt, stmtStatusFullscanStep, r)),
		Sort:          int(C.sqlite3_stmt_status(stmt.stmt, stmtStatusSort, r)),
		AutoIndex:     int(C.sqlite3_stmt_status(stmt.stmt, stmtStatusAutoindex, r)),
		VMStep:        int(C.sqlite3_stmt_status(stmt.stmt, stmtStatusVMStep, r)),
		Reprepare:     int(C.sqlite3_stmt_status(stmt.stmt, stmtStatusReprepare, r)),
		Run:           int(C.sqlite3_stmt_status(stmt.stmt, stmtStatusRun, r)),
		FilterHit:     int(C.sqlite3_stmt_status(stmt.stmt, stmtStatusFilterHit, r)),
		FilterMiss:    int(C.sqlite3_stmt_status(stmt.stmt, stmtStatusFilterMiss, r)),
		MemUsed:       int(C.sqlite3_stmt_status(stmt.stmt, stmtStatusMemUsed, r)),
	}
}

// String renders the counters for diagnostics, using go-humanize to keep
// large VM-step/sort counts readable in logs (SPEC_FULL.md §3).
func (s StatementStatus) String() string {
	return humanizeStatementStatus(s)
}
