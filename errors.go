package sqlite

// #include <sqlite3.h>
import "C"

import (
	"errors"
	"fmt"
)

// ErrorCode is a raw (possibly extended) sqlite3 result code.
//
// adapted from the ErrorCode usage throughout context.go/func.go/stmt.go/
// virtual_table.go in the teacher package; the type itself carries the
// low-byte primary code plus whatever extended bits the engine filled in.
type ErrorCode int32

//noinspection GoSnakeCaseUsage
const (
	SQLITE_OK         = ErrorCode(C.SQLITE_OK)
	SQLITE_ERROR      = ErrorCode(C.SQLITE_ERROR)
	SQLITE_INTERNAL   = ErrorCode(C.SQLITE_INTERNAL)
	SQLITE_PERM       = ErrorCode(C.SQLITE_PERM)
	SQLITE_ABORT      = ErrorCode(C.SQLITE_ABORT)
	SQLITE_BUSY       = ErrorCode(C.SQLITE_BUSY)
	SQLITE_LOCKED     = ErrorCode(C.SQLITE_LOCKED)
	SQLITE_NOMEM      = ErrorCode(C.SQLITE_NOMEM)
	SQLITE_READONLY   = ErrorCode(C.SQLITE_READONLY)
	SQLITE_INTERRUPT  = ErrorCode(C.SQLITE_INTERRUPT)
	SQLITE_IOERR      = ErrorCode(C.SQLITE_IOERR)
	SQLITE_CORRUPT    = ErrorCode(C.SQLITE_CORRUPT)
	SQLITE_NOTFOUND   = ErrorCode(C.SQLITE_NOTFOUND)
	SQLITE_FULL       = ErrorCode(C.SQLITE_FULL)
	SQLITE_CANTOPEN   = ErrorCode(C.SQLITE_CANTOPEN)
	SQLITE_PROTOCOL   = ErrorCode(C.SQLITE_PROTOCOL)
	SQLITE_SCHEMA     = ErrorCode(C.SQLITE_SCHEMA)
	SQLITE_TOOBIG     = ErrorCode(C.SQLITE_TOOBIG)
	SQLITE_CONSTRAINT = ErrorCode(C.SQLITE_CONSTRAINT)
	SQLITE_MISMATCH   = ErrorCode(C.SQLITE_MISMATCH)
	SQLITE_MISUSE     = ErrorCode(C.SQLITE_MISUSE)
	SQLITE_NOLFS      = ErrorCode(C.SQLITE_NOLFS)
	SQLITE_AUTH       = ErrorCode(C.SQLITE_AUTH)
	SQLITE_RANGE      = ErrorCode(C.SQLITE_RANGE)
	SQLITE_NOTADB     = ErrorCode(C.SQLITE_NOTADB)
	SQLITE_ROW        = ErrorCode(C.SQLITE_ROW)
	SQLITE_DONE       = ErrorCode(C.SQLITE_DONE)

	SQLITE_LOCKED_SHAREDCACHE = ErrorCode(C.SQLITE_LOCKED_SHAREDCACHE)
)

// primary returns the low-byte primary result code, stripping any extended bits.
func (c ErrorCode) primary() ErrorCode { return ErrorCode(C.int(c) & 0xff) }

// ok reports whether c represents success (SQLITE_OK, SQLITE_ROW or SQLITE_DONE).
func (c ErrorCode) ok() bool {
	switch c {
	case SQLITE_OK, SQLITE_ROW, SQLITE_DONE:
		return true
	default:
		return false
	}
}

// Error implements the error interface so an ErrorCode can be returned
// directly wherever an error is expected (trampolines rely on this).
func (c ErrorCode) Error() string {
	return C.GoString(C.sqlite3_errstr(C.int(c)))
}

// ErrorKind classifies the primary byte of an extended result code into the
// coarse-grained taxonomy callers typically branch on (spec.md §6).
type ErrorKind int

//noinspection GoSnakeCaseUsage
const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindInternalMalfunction
	ErrorKindPermissionDenied
	ErrorKindOperationAborted
	ErrorKindDatabaseBusy
	ErrorKindDatabaseLocked
	ErrorKindOutOfMemory
	ErrorKindReadOnly
	ErrorKindOperationInterrupted
	ErrorKindSystemIoFailure
	ErrorKindDatabaseCorrupt
	ErrorKindNotFound
	ErrorKindDiskFull
	ErrorKindCannotOpen
	ErrorKindFileLockingProtocolFailed
	ErrorKindSchemaChanged
	ErrorKindTooBig
	ErrorKindConstraintViolation
	ErrorKindTypeMismatch
	ErrorKindApiMisuse
	ErrorKindNoLargeFileSupport
	ErrorKindAuthorizationForStatementDenied
	ErrorKindParameterOutOfRange
	ErrorKindNotADatabase
)

// Kind classifies the error code's primary byte into an ErrorKind.
func (c ErrorCode) Kind() ErrorKind {
	switch c.primary() {
	case SQLITE_INTERNAL:
		return ErrorKindInternalMalfunction
	case SQLITE_PERM:
		return ErrorKindPermissionDenied
	case SQLITE_ABORT:
		return ErrorKindOperationAborted
	case SQLITE_BUSY:
		return ErrorKindDatabaseBusy
	case SQLITE_LOCKED:
		return ErrorKindDatabaseLocked
	case SQLITE_NOMEM:
		return ErrorKindOutOfMemory
	case SQLITE_READONLY:
		return ErrorKindReadOnly
	case SQLITE_INTERRUPT:
		return ErrorKindOperationInterrupted
	case SQLITE_IOERR:
		return ErrorKindSystemIoFailure
	case SQLITE_CORRUPT:
		return ErrorKindDatabaseCorrupt
	case SQLITE_NOTFOUND:
		return ErrorKindNotFound
	case SQLITE_FULL:
		return ErrorKindDiskFull
	case SQLITE_CANTOPEN:
		return ErrorKindCannotOpen
	case SQLITE_PROTOCOL:
		return ErrorKindFileLockingProtocolFailed
	case SQLITE_SCHEMA:
		return ErrorKindSchemaChanged
	case SQLITE_TOOBIG:
		return ErrorKindTooBig
	case SQLITE_CONSTRAINT:
		return ErrorKindConstraintViolation
	case SQLITE_MISMATCH:
		return ErrorKindTypeMismatch
	case SQLITE_MISUSE:
		return ErrorKindApiMisuse
	case SQLITE_NOLFS:
		return ErrorKindNoLargeFileSupport
	case SQLITE_AUTH:
		return ErrorKindAuthorizationForStatementDenied
	case SQLITE_RANGE:
		return ErrorKindParameterOutOfRange
	case SQLITE_NOTADB:
		return ErrorKindNotADatabase
	default:
		return ErrorKindUnknown
	}
}

// Error is the one result-carrying error type that wraps an engine failure
// (spec.md §7, SqliteFailure). Msg, when non-empty, is the engine's current
// error message captured at the point of failure.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("sqlite: %s (%d): %s", e.Code.Error(), e.Code, e.Msg)
	}
	return fmt.Sprintf("sqlite: %s (%d)", e.Code.Error(), e.Code)
}

func (e *Error) Is(target error) bool {
	var code ErrorCode
	if errors.As(target, &code) {
		return e.Code == code || e.Code.primary() == code.primary()
	}
	return false
}

// SqlInputError is returned when prepare fails to parse sql; Offset is the
// byte offset of the offending token when the engine reports one, else -1.
type SqlInputError struct {
	Err    error
	Offset int
	SQL    string
	Msg    string
}

func (e *SqlInputError) Error() string {
	return fmt.Sprintf("sqlite: bad sql at offset %d: %s: %s", e.Offset, e.Msg, e.SQL)
}
func (e *SqlInputError) Unwrap() error { return e.Err }

// FromSqlConversionFailure reports a column decode failure for column idx.
type FromSqlConversionFailure struct {
	ColumnIndex  int
	ObservedType ColumnType
	Err          error
}

func (e *FromSqlConversionFailure) Error() string {
	return fmt.Sprintf("sqlite: could not convert column %d (type %v) to target type: %s", e.ColumnIndex, e.ObservedType, e.Err)
}
func (e *FromSqlConversionFailure) Unwrap() error { return e.Err }

// IntegralValueOutOfRange reports that an integer column's value does not
// fit the requested target width.
type IntegralValueOutOfRange struct {
	ColumnIndex int
	Value       int64
}

func (e *IntegralValueOutOfRange) Error() string {
	return fmt.Sprintf("sqlite: integral value %d out of range at column %d", e.Value, e.ColumnIndex)
}

// InvalidColumnIndex is returned when a column index is out of bounds.
type InvalidColumnIndex int

func (e InvalidColumnIndex) Error() string { return fmt.Sprintf("sqlite: invalid column index: %d", int(e)) }

// InvalidColumnName is returned when a column name does not exist on a row.
type InvalidColumnName string

func (e InvalidColumnName) Error() string { return fmt.Sprintf("sqlite: invalid column name: %q", string(e)) }

// InvalidColumnType is returned when a column's declared/observed type
// conflicts with what the caller requested.
type InvalidColumnType struct {
	Index int
	Name  string
	Type  ColumnType
}

func (e *InvalidColumnType) Error() string {
	return fmt.Sprintf("sqlite: invalid column type %v at index %d (%s)", e.Type, e.Index, e.Name)
}

// InvalidParameterCount is returned when the number of supplied bind
// arguments does not match the prepared statement's placeholder count.
type InvalidParameterCount struct{ Got, Expected int }

func (e *InvalidParameterCount) Error() string {
	return fmt.Sprintf("sqlite: invalid parameter count: got %d, expected %d", e.Got, e.Expected)
}

// InvalidParameterName is returned when a named bind parameter lookup fails.
type InvalidParameterName string

func (e InvalidParameterName) Error() string { return fmt.Sprintf("sqlite: invalid parameter name: %q", string(e)) }

// InvalidFilterParameterType is returned when a vtab Filter argument cannot
// be coerced to the type the cursor implementation requested.
type InvalidFilterParameterType struct {
	Index int
	Type  ColumnType
}

func (e *InvalidFilterParameterType) Error() string {
	return fmt.Sprintf("sqlite: invalid filter parameter type %v at index %d", e.Type, e.Index)
}

// QueryReturnedNoRows is returned by QueryRow/QueryOne when the statement
// produced zero rows.
var QueryReturnedNoRows = errors.New("sqlite: query returned no rows")

// QueryReturnedMoreThanOneRow is returned by QueryOne when the statement
// produced a second row.
var QueryReturnedMoreThanOneRow = errors.New("sqlite: query returned more than one row")

// ExecuteReturnedResults is returned by Execute when the statement produced
// one or more result rows.
var ExecuteReturnedResults = errors.New("sqlite: execute returned results, use query instead")

// StatementChangedRows is returned when a caller requests an exact
// change-count and the engine reports a different count.
type StatementChangedRows int

func (e StatementChangedRows) Error() string {
	return fmt.Sprintf("sqlite: statement changed %d rows", int(e))
}

// MultipleStatement is returned by Prepare when sql contains more than one
// non-empty statement.
var MultipleStatement = errors.New("sqlite: multiple statements provided")

// InvalidPath is returned when a database path cannot be represented as a
// C string (contains an embedded NUL) or is otherwise malformed.
var InvalidPath = errors.New("sqlite: invalid path")

// InvalidDatabaseIndex reports an attached-database index/name that is not
// recognised by the connection.
type InvalidDatabaseIndex string

func (e InvalidDatabaseIndex) Error() string { return fmt.Sprintf("sqlite: invalid database index/name: %q", string(e)) }

// ToSqlConversionFailure wraps an arbitrary error returned by a user ToSql
// implementation.
type ToSqlConversionFailure struct{ Err error }

func (e *ToSqlConversionFailure) Error() string { return fmt.Sprintf("sqlite: to-sql conversion failed: %s", e.Err) }
func (e *ToSqlConversionFailure) Unwrap() error  { return e.Err }

// ModuleError is returned by vtab/vfs trampolines for conditions that do not
// map to a specific ErrorCode.
type ModuleError string

func (e ModuleError) Error() string { return string(e) }

// errorIfNotOk converts a raw sqlite3 result code into an error, or nil on
// success. It is the workhorse used throughout the raw handle layer.
func errorIfNotOk(res C.int) error {
	if code := ErrorCode(res); code.ok() {
		return nil
	} else {
		return code
	}
}

// lastError builds an *Error carrying the connection's current error message,
// used whenever a non-OK/ROW/DONE code comes back from a call on db.
func lastError(db *C.sqlite3, res C.int) error {
	code := ErrorCode(res)
	if code.ok() {
		return nil
	}
	msg := ""
	if db != nil {
		msg = C.GoString(C.sqlite3_errmsg(db))
	}
	return &Error{Code: code, Msg: msg}
}

// newSqlInputError builds a SqlInputError from a prepare failure on sql,
// using sqlite3_error_offset (SQLite 3.38+) to locate the offending byte
// when the engine can report one; it reports -1 when the engine can't.
func newSqlInputError(db *C.sqlite3, sql string, res C.int) error {
	offset := -1
	if db != nil {
		offset = int(C.sqlite3_error_offset(db))
	}
	return &SqlInputError{
		Err:    lastError(db, res),
		Offset: offset,
		SQL:    sql,
		Msg:    C.GoString(C.sqlite3_errmsg(db)),
	}
}

// Optional maps QueryReturnedNoRows to the zero value and a nil error, the
// idiomatic helper for "optional single row" queries (spec.md §7).
func Optional[T any](v T, err error) (T, error) {
	if errors.Is(err, QueryReturnedNoRows) {
		var zero T
		return zero, nil
	}
	return v, err
}
