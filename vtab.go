package sqlite

// #include <stdlib.h>
// #include <string.h>
// #include <sqlite3.h>
//
// extern int x_create_tramp(sqlite3*, void*, int, char**, sqlite3_vtab**, char**);
// extern int x_connect_tramp(sqlite3*, void*, int, char**, sqlite3_vtab**, char**);
// extern int x_best_index_tramp(sqlite3_vtab*, sqlite3_index_info*);
// extern int x_disconnect_tramp(sqlite3_vtab*);
// extern int x_destroy_tramp(sqlite3_vtab*);
// extern int x_open_tramp(sqlite3_vtab*, sqlite3_vtab_cursor**);
// extern int x_close_tramp(sqlite3_vtab_cursor*);
// extern int x_filter_tramp(sqlite3_vtab_cursor*, int, char*, int, sqlite3_value**);
// extern int x_next_tramp(sqlite3_vtab_cursor*);
// extern int x_eof_tramp(sqlite3_vtab_cursor*);
// extern int x_column_tramp(sqlite3_vtab_cursor*, sqlite3_context*, int);
// extern int x_rowid_tramp(sqlite3_vtab_cursor*, sqlite3_int64*);
// extern int x_update_tramp(sqlite3_vtab*, int, sqlite3_value**, sqlite3_int64*);
// extern int x_begin_tramp(sqlite3_vtab*);
// extern int x_sync_tramp(sqlite3_vtab*);
// extern int x_commit_tramp(sqlite3_vtab*);
// extern int x_rollback_tramp(sqlite3_vtab*);
// extern int x_rename_tramp(sqlite3_vtab*, char*);
// extern int x_savepoint_tramp(sqlite3_vtab*, int);
// extern int x_release_tramp(sqlite3_vtab*, int);
// extern int x_rollback_to_tramp(sqlite3_vtab*, int);
// extern int x_find_function_tramp(sqlite3_vtab*, int, char*, void*, void**);
// extern int x_shadow_name_tramp(char*);
//
// extern void module_destroy(void*);
// extern void scalar_function_apply_tramp(sqlite3_context*, int, sqlite3_value**);
//
// static sqlite3_module* _allocate_sqlite3_module() {
//   sqlite3_module* module = (sqlite3_module*) sqlite3_malloc(sizeof(sqlite3_module));
//   memset(module, 0, sizeof(sqlite3_module));
//   return module;
// }
//
// typedef struct go_virtual_table go_virtual_table;
// struct go_virtual_table {
//   sqlite3_vtab base;  // base class - must be first
//   void *impl;  // pointer to go virtual table implementation
// };
//
// static int _allocate_virtual_table(sqlite3_vtab **out, void *impl){
//   go_virtual_table* table = (go_virtual_table*) sqlite3_malloc(sizeof(go_virtual_table));
//   if (!table) {
//     return SQLITE_NOMEM;
//   }
//   memset(table, 0, sizeof(go_virtual_table));
//   table->impl = impl;
//   *out = (sqlite3_vtab*) table;
//   return SQLITE_OK;
// }
//
// typedef struct go_virtual_cursor go_virtual_cursor;
// struct go_virtual_cursor {
//   sqlite3_vtab_cursor base;  // base class - must be first
//   void *impl;  // pointer to go virtual cursor implementation
// };
//
// static int _allocate_virtual_cursor(sqlite3_vtab_cursor **out, void *impl){
//   go_virtual_cursor* cursor = (go_virtual_cursor*) sqlite3_malloc(sizeof(go_virtual_cursor));
//   if (!cursor) {
//     return SQLITE_NOMEM;
//   }
//   memset(cursor, 0, sizeof(go_virtual_cursor));
//   cursor->impl = impl;
//   *out = (sqlite3_vtab_cursor*) cursor;
//   return SQLITE_OK;
// }
import "C"

import (
	"bytes"
	"errors"
	"strings"
	"unsafe"

	"github.com/mattn/go-pointer"
)

// Module is the capability every virtual table module must implement: it
// connects the engine to a VTab instance and declares that table's schema.
// A module that implements nothing else is eponymous by default (it can be
// queried directly by name without a preceding CREATE VIRTUAL TABLE); pass
// EponymousOnly(true) to CreateModule to forbid CREATE VIRTUAL TABLE for it.
//
// adapted from the teacher's virtual_table.go Module/StatefulModule split,
// renamed to the VTab/VTabCursor vocabulary and moved off *Conn onto
// *Connection.
type Module interface {
	Connect(conn *Connection, args []string, declare func(string) error) (VTab, error)
}

// CreateVTab is the capability a module implements when CREATE VIRTUAL
// TABLE must run separate, state-initializing logic from an ordinary
// re-Connect (for example, creating backing files or tables on disk). A
// module implementing only Module is eponymous and runs Connect for
// CREATE VIRTUAL TABLE too; implementing CreateVTab makes CREATE VIRTUAL
// TABLE run Create instead, and the module is then not eponymous.
type CreateVTab interface {
	Module
	Create(conn *Connection, args []string, declare func(string) error) (VTab, error)
}

// VTab corresponds to an sqlite3_vtab: one connected instance of a virtual
// table module. Implementations are read-only by default; implement
// UpdateVTab and pass ReadOnly(false) to CreateModule to allow writes.
type VTab interface {
	// BestIndex lets the table propose (and cost) an access plan for a
	// query's WHERE/ORDER BY clauses.
	BestIndex(*IndexInfoInput) (*IndexInfoOutput, error)

	// Open creates a new cursor. A table must support an arbitrary number
	// of simultaneously open cursors.
	Open() (VTabCursor, error)

	// Disconnect releases this connection to the table; the table's
	// backing store, if any, persists.
	Disconnect() error

	// Destroy releases this connection and additionally destroys the
	// table's backing store (DROP TABLE on a virtual table).
	Destroy() error
}

// UpdateVTab is the capability a VTab implements to support INSERT,
// UPDATE and DELETE. The implementation must tolerate concurrent cursors
// open on rows being modified, returning an error if it cannot.
type UpdateVTab interface {
	VTab

	// Insert adds a row with the given column values. For a rowid table,
	// it must choose and return a fresh rowid; for a WITHOUT ROWID table
	// the returned value is a harmless no-op.
	Insert(cols ...Value) (rowid int64, err error)

	// Update overwrites the row identified by rowid/primary-key with new
	// column values.
	Update(rowidOrPK Value, cols ...Value) error

	// UpdateWithKeyChange behaves like Update but additionally changes the
	// row's rowid/primary-key from old to new, as in
	// UPDATE t SET rowid = rowid + 1 WHERE ...
	UpdateWithKeyChange(old, new Value, cols ...Value) error

	// Delete removes the row identified by rowid/primary-key.
	Delete(rowidOrPK Value) error
}

// TransactionVTab is the capability a VTab implements to participate in
// atomic transactions. Begin is always followed by exactly one of Commit
// or Rollback before a second Begin.
type TransactionVTab interface {
	VTab
	Begin() error
	Commit() error
	Rollback() error
}

// TwoPhaseCommitVTab extends TransactionVTab with a Sync phase, invoked on
// every participating table before Commit is invoked on any of them.
type TwoPhaseCommitVTab interface {
	TransactionVTab
	Sync() error
}

// SavepointVTab is the capability a VTab implements to participate in
// nested savepoints (as used by nested transactions and some trigger
// programs), each keyed by an integer nesting depth.
type SavepointVTab interface {
	VTab
	Savepoint(n int) error
	Release(n int) error
	RollbackTo(n int) error
}

// RenameVTab is the capability a VTab implements to support ALTER TABLE
// ... RENAME TO. xRename is always wired; for a VTab that does not
// implement RenameVTab it returns SQLITE_ERROR, so the rename fails.
type RenameVTab interface {
	VTab
	Rename(newName string) error
}

// FindFunctionVTab is the capability a VTab implements to overload a
// scalar function when it is invoked with one of the table's columns as
// its first argument, replacing it with an optimized, table-aware
// implementation (see https://www.sqlite.org/vtab.html#the_xfindfunction_method).
type FindFunctionVTab interface {
	VTab

	// FindFunction is asked whether it wants to overload the nArg-ary
	// function named name. Returning usage 0 declines; any other value
	// (conventionally 1, or SQLITE_INDEX_CONSTRAINT_FUNCTION-relative
	// for operator overloads) accepts, and fn becomes the function's
	// implementation for this statement.
	FindFunction(nArg int, name string) (usage int, fn func(*Context, ...Value))
}

// VTabCursor corresponds to an sqlite3_vtab_cursor, a live position over
// one VTab's rows.
type VTabCursor interface {
	// Filter begins a new scan using the index choice (idxNum, idxStr)
	// BestIndex previously returned, and the constraint argument values
	// it requested via ConstraintUsage.ArgvIndex.
	Filter(idxNum int, idxStr string, args ...Value) error

	// Next advances to the next row of the scan started by Filter.
	Next() error

	// Rowid returns the rowid of the current row.
	Rowid() (int64, error)

	// Column writes the value of the idx'th column (0-based) of the
	// current row into ctx via one of its ResultX methods. Calling none
	// of them defaults the column to SQL NULL.
	Column(ctx *Context, idx int) error

	// Eof reports whether the cursor has been advanced off the end of
	// the scan.
	Eof() bool

	// Close releases the cursor.
	Close() error
}

// ConstraintOp identifies the operator of one IndexConstraint.
type ConstraintOp C.int

//noinspection GoSnakeCaseUsage
const (
	INDEX_CONSTRAINT_EQ        = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_EQ)
	INDEX_CONSTRAINT_GT        = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_GT)
	INDEX_CONSTRAINT_LE        = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_LE)
	INDEX_CONSTRAINT_LT        = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_LT)
	INDEX_CONSTRAINT_GE        = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_GE)
	INDEX_CONSTRAINT_MATCH     = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_MATCH)
	INDEX_CONSTRAINT_LIKE      = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_LIKE)
	INDEX_CONSTRAINT_GLOB      = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_GLOB)
	INDEX_CONSTRAINT_REGEXP    = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_REGEXP)
	INDEX_CONSTRAINT_NE        = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_NE)
	INDEX_CONSTRAINT_ISNOT     = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_ISNOT)
	INDEX_CONSTRAINT_ISNOTNULL = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_ISNOTNULL)
	INDEX_CONSTRAINT_ISNULL    = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_ISNULL)
	INDEX_CONSTRAINT_IS        = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_IS)
	INDEX_CONSTRAINT_FUNCTION  = ConstraintOp(C.SQLITE_INDEX_CONSTRAINT_FUNCTION)
)

// ScanFlag masks bits of IndexInfoOutput.IdxFlags.
type ScanFlag int

//noinspection GoSnakeCaseUsage
const (
	INDEX_SCAN_UNIQUE = ScanFlag(C.SQLITE_INDEX_SCAN_UNIQUE) // scan visits at most 1 row
)

// IndexConstraint is one usable-or-not WHERE-clause constraint offered to BestIndex.
type IndexConstraint struct {
	ColumnIndex int // column constrained; -1 for rowid
	Op          ConstraintOp
	Usable      bool
}

// OrderBy is one ORDER BY term offered to BestIndex.
type OrderBy struct {
	ColumnIndex int
	Desc        bool
}

// IndexInfoInput is the input to VTab.BestIndex.
// see: https://www.sqlite.org/vtab.html
type IndexInfoInput struct {
	Constraints []IndexConstraint
	OrderBy     []OrderBy

	// ColUsed is a bitmask of columns the statement actually reads
	// (available on engine 3.10.0+; always 0 on older engines).
	ColUsed int64
}

// ConstraintUsage reports how BestIndex chose to use one IndexConstraint,
// positionally aligned with IndexInfoInput.Constraints.
type ConstraintUsage struct {
	// ArgvIndex, if > 0, requests that this constraint's right-hand value
	// be passed to VTabCursor.Filter at position ArgvIndex-1.
	ArgvIndex int
	// Omit, if true, tells the engine it need not double-check this
	// constraint itself after Filter/Next produce a row.
	Omit bool
}

// IndexInfoOutput is the output of VTab.BestIndex.
type IndexInfoOutput struct {
	// ConstraintUsage must have the same length as the input's
	// Constraints; a zero-value entry means "not used".
	ConstraintUsage []ConstraintUsage
	IndexNumber     int
	IndexString     string
	OrderByConsumed bool
	EstimatedCost   float64

	// EstimatedRows is honored on engine 3.8.2+.
	EstimatedRows int64
	// IdxFlags is honored on engine 3.9.0+.
	IdxFlags ScanFlag
}

// ModuleOptions configures how CreateModule wires a module's optional
// capabilities into the sqlite3_module method table.
type ModuleOptions struct {
	EponymousOnly  bool
	ReadOnly       bool
	Transactional  bool
	TwoPhaseCommit bool
	Savepoint      bool
}

func EponymousOnly(b bool) func(*ModuleOptions)  { return func(m *ModuleOptions) { m.EponymousOnly = b } }
func ReadOnly(b bool) func(*ModuleOptions)       { return func(m *ModuleOptions) { m.ReadOnly = b } }
func Transaction(b bool) func(*ModuleOptions)    { return func(m *ModuleOptions) { m.Transactional = b } }
func TwoPhaseCommit(b bool) func(*ModuleOptions) { return func(m *ModuleOptions) { m.TwoPhaseCommit = b } }
func SavepointSupport(b bool) func(*ModuleOptions) {
	return func(m *ModuleOptions) { m.Savepoint = b }
}

// shadowNamePredicate is a process-wide xShadowName hook: the C callback
// SQLite invokes (sqlite3ShadowTableName in the engine) receives only the
// candidate table name, with no per-module auxiliary pointer, so there is
// no way to route the call back to a specific Go closure registered by a
// specific module — every module that wires xShadowName is, in the C API
// itself, asking the same process-wide question. RegisterShadowNames
// mirrors that reality instead of pretending otherwise.
var shadowNamePredicate func(string) bool

// RegisterShadowNames installs the process-wide predicate used to answer
// "is name a shadow table name belonging to some virtual table module?"
// (used by the engine to protect shadow tables of apps that set
// SQLITE_DBCONFIG_DEFENSIVE). A nil predicate clears it.
func RegisterShadowNames(predicate func(string) bool) { shadowNamePredicate = predicate }

// CreateModule registers name as a virtual table module on the
// connection, dispatching to module's capability interfaces.
//
// adapted from the teacher's virtual_table.go CreateModule, moved from
// *ExtensionApi onto *Connection and converted from underscore-prefixed
// bridge calls to plain sqlite3 calls; Savepoint/Rename/FindFunction
// wiring and the xShadowName hook are supplemented per SPEC_FULL.md's
// vtab framework section (the teacher only wired Create/Connect/BestIndex/
// the cursor quartet/Update/the transaction triad). The method table is
// always version 3: there is no xIntegrity (version 4) slot and no
// integrity-check capability.
func (c *Connection) CreateModule(name string, module Module, opts ...func(*ModuleOptions)) error {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	opt := &ModuleOptions{ReadOnly: true}
	for _, f := range opts {
		f(opt)
	}
	if _, stateful := module.(CreateVTab); opt.EponymousOnly && stateful {
		return errors.New("sqlite: a CreateVTab module cannot be eponymous-only")
	}

	xConnect := (*[0]byte)(C.x_connect_tramp)
	var xCreate *[0]byte
	if _, stateful := module.(CreateVTab); stateful {
		xCreate = (*[0]byte)(C.x_create_tramp)
	} else if !opt.EponymousOnly {
		xCreate = xConnect
	}

	var xUpdate *[0]byte
	if !opt.ReadOnly {
		xUpdate = (*[0]byte)(C.x_update_tramp)
	}

	var xBegin, xCommit, xRollback, xSync *[0]byte
	if opt.Transactional {
		xBegin = (*[0]byte)(C.x_begin_tramp)
		xCommit = (*[0]byte)(C.x_commit_tramp)
		xRollback = (*[0]byte)(C.x_rollback_tramp)
		if opt.TwoPhaseCommit {
			xSync = (*[0]byte)(C.x_sync_tramp)
		}
	}

	var xSavepoint, xRelease, xRollbackTo *[0]byte
	if opt.Savepoint {
		xSavepoint = (*[0]byte)(C.x_savepoint_tramp)
		xRelease = (*[0]byte)(C.x_release_tramp)
		xRollbackTo = (*[0]byte)(C.x_rollback_to_tramp)
	}

	sqliteModule := C._allocate_sqlite3_module()
	sqliteModule.iVersion = 3
	sqliteModule.xCreate = xCreate
	sqliteModule.xConnect = xConnect
	sqliteModule.xBestIndex = (*[0]byte)(C.x_best_index_tramp)
	sqliteModule.xDisconnect = (*[0]byte)(C.x_disconnect_tramp)
	sqliteModule.xDestroy = (*[0]byte)(C.x_destroy_tramp)
	sqliteModule.xOpen = (*[0]byte)(C.x_open_tramp)
	sqliteModule.xClose = (*[0]byte)(C.x_close_tramp)
	sqliteModule.xFilter = (*[0]byte)(C.x_filter_tramp)
	sqliteModule.xNext = (*[0]byte)(C.x_next_tramp)
	sqliteModule.xEof = (*[0]byte)(C.x_eof_tramp)
	sqliteModule.xColumn = (*[0]byte)(C.x_column_tramp)
	sqliteModule.xRowid = (*[0]byte)(C.x_rowid_tramp)
	sqliteModule.xUpdate = xUpdate
	sqliteModule.xBegin = xBegin
	sqliteModule.xSync = xSync
	sqliteModule.xCommit = xCommit
	sqliteModule.xRollback = xRollback
	sqliteModule.xFindFunction = (*[0]byte)(C.x_find_function_tramp)
	sqliteModule.xRename = (*[0]byte)(C.x_rename_tramp)
	sqliteModule.xSavepoint = xSavepoint
	sqliteModule.xRelease = xRelease
	sqliteModule.xRollbackTo = xRollbackTo
	sqliteModule.xShadowName = (*[0]byte)(C.x_shadow_name_tramp)

	res := C.sqlite3_create_module_v2(c.handle.ptr, cname, sqliteModule, pointer.Save(module), (*[0]byte)(C.module_destroy))
	return errorIfNotOk(res)
}

// TRAMPOLINES AHEAD

func toValues(argc C.int, argv **C.sqlite3_value) []Value {
	refs := toValueRefs(argc, argv)
	vals := make([]Value, len(refs))
	for i, r := range refs {
		vals[i] = r.Value()
	}
	return vals
}

func vtabOf(tab *C.sqlite3_vtab) VTab {
	return pointer.Restore(((*C.go_virtual_table)(unsafe.Pointer(tab))).impl).(VTab)
}

func cursorOf(cur *C.sqlite3_vtab_cursor) VTabCursor {
	return pointer.Restore(((*C.go_virtual_cursor)(unsafe.Pointer(cur))).impl).(VTabCursor)
}

func create_connect_shared(db *C.sqlite3, fn func(*Connection, []string, func(string) error) (VTab, error), argc C.int, argv **C.char, vtab **C.sqlite3_vtab, pzErr **C.char) C.int {
	declare := func(sql string) error {
		csql := C.CString(sql)
		defer C.free(unsafe.Pointer(csql))
		if res := C.sqlite3_declare_vtab(db, csql); res != C.SQLITE_OK {
			return ErrorCode(res)
		}
		return nil
	}

	args := make([]string, int(argc))
	cargs := unsafe.Slice(argv, int(argc))
	for i, s := range cargs {
		args[i] = C.GoString(s)
	}

	conn := OpenFromHandle(unsafe.Pointer(db))
	table, err := fn(conn, args, declare)
	if err != nil && err != SQLITE_OK {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		*pzErr = allocateCString(err.Error())
		return C.int(SQLITE_ERROR)
	}

	return C._allocate_virtual_table(vtab, pointer.Save(table))
}

//export x_create_tramp
func x_create_tramp(db *C.sqlite3, pAux unsafe.Pointer, argc C.int, argv **C.char, vtab **C.sqlite3_vtab, pzErr **C.char) C.int {
	module := pointer.Restore(pAux).(CreateVTab)
	return create_connect_shared(db, module.Create, argc, argv, vtab, pzErr)
}

//export x_connect_tramp
func x_connect_tramp(db *C.sqlite3, pAux unsafe.Pointer, argc C.int, argv **C.char, vtab **C.sqlite3_vtab, pzErr **C.char) C.int {
	module := pointer.Restore(pAux).(Module)
	return create_connect_shared(db, module.Connect, argc, argv, vtab, pzErr)
}

//export x_best_index_tramp
func x_best_index_tramp(tab *C.sqlite3_vtab, indexInfo *C.sqlite3_index_info) C.int {
	version := int(C.sqlite3_libversion_number())
	table := vtabOf(tab)

	var constraints []IndexConstraint
	if indexInfo.nConstraint > 0 {
		cs := unsafe.Slice(indexInfo.aConstraint, int(indexInfo.nConstraint))
		for _, c := range cs {
			constraints = append(constraints, IndexConstraint{
				ColumnIndex: int(c.iColumn), Op: ConstraintOp(c.op), Usable: c.usable != 0,
			})
		}
	}

	var orderBys []OrderBy
	if indexInfo.nOrderBy > 0 {
		obs := unsafe.Slice(indexInfo.aOrderBy, int(indexInfo.nOrderBy))
		for _, ob := range obs {
			orderBys = append(orderBys, OrderBy{ColumnIndex: int(ob.iColumn), Desc: ob.desc == 1})
		}
	}

	input := &IndexInfoInput{Constraints: constraints, OrderBy: orderBys}
	if version >= 3010000 {
		input.ColUsed = int64(indexInfo.colUsed)
	}

	output, err := table.BestIndex(input)
	if err != nil && err != SQLITE_OK {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	if output == nil {
		return C.int(SQLITE_ERROR)
	}

	if indexInfo.nConstraint > 0 {
		usage := unsafe.Slice(indexInfo.aConstraintUsage, int(indexInfo.nConstraint))
		for i := range usage {
			if i >= len(output.ConstraintUsage) {
				break
			}
			u := output.ConstraintUsage[i]
			usage[i].argvIndex = C.int(u.ArgvIndex)
			if u.Omit {
				usage[i].omit = 1
			}
		}
	}

	indexInfo.idxNum = C.int(output.IndexNumber)
	indexInfo.idxStr = allocateCString(output.IndexString)
	indexInfo.needToFreeIdxStr = 1
	if output.OrderByConsumed {
		indexInfo.orderByConsumed = 1
	}
	indexInfo.estimatedCost = C.double(output.EstimatedCost)
	if version >= 3008002 {
		indexInfo.estimatedRows = C.sqlite3_int64(output.EstimatedRows)
	}
	if version >= 3009000 {
		indexInfo.idxFlags = C.int(output.IdxFlags)
	}
	return C.int(SQLITE_OK)
}

//export x_disconnect_tramp
func x_disconnect_tramp(tab *C.sqlite3_vtab) C.int {
	x := unsafe.Pointer(tab)
	defer func() { pointer.Unref((*C.go_virtual_table)(x).impl); C.sqlite3_free(x) }()

	if err := vtabOf(tab).Disconnect(); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_destroy_tramp
func x_destroy_tramp(tab *C.sqlite3_vtab) C.int {
	x := unsafe.Pointer(tab)
	defer func() { pointer.Unref((*C.go_virtual_table)(x).impl); C.sqlite3_free(x) }()

	if err := vtabOf(tab).Destroy(); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_open_tramp
func x_open_tramp(tab *C.sqlite3_vtab, cur **C.sqlite3_vtab_cursor) C.int {
	cursor, err := vtabOf(tab).Open()
	if err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C._allocate_virtual_cursor(cur, pointer.Save(cursor))
}

func valuesEqual(typ ColumnType, a, b Value) bool {
	switch typ {
	case SQLITE_INTEGER:
		return a.Integer() == b.Integer()
	case SQLITE_FLOAT:
		return a.Real() == b.Real()
	case SQLITE_TEXT:
		return strings.Compare(a.Text(), b.Text()) == 0
	case SQLITE_BLOB:
		return bytes.Equal(a.Blob(), b.Blob())
	}
	return false
}

//export x_update_tramp
func x_update_tramp(tab *C.sqlite3_vtab, c C.int, v **C.sqlite3_value, rowid *C.sqlite3_int64) C.int {
	table, ok := vtabOf(tab).(UpdateVTab)
	if !ok {
		return C.int(SQLITE_READONLY)
	}
	argc, argv := int(c), toValues(c, v)

	var err error
	switch {
	case argc == 1 && argv[0].Type() != SQLITE_NULL:
		err = table.Delete(argv[0])
	case argv[0].Type() == SQLITE_NULL:
		var id int64
		if id, err = table.Insert(argv[2:]...); err == nil {
			*rowid = C.sqlite3_int64(id) // harmless no-op for WITHOUT ROWID tables
		}
	case valuesEqual(argv[0].Type(), argv[0], argv[1]):
		err = table.Update(argv[0], argv[2:]...)
	default:
		err = table.UpdateWithKeyChange(argv[0], argv[1], argv[2:]...)
	}

	if err != nil && err != SQLITE_OK {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_close_tramp
func x_close_tramp(cur *C.sqlite3_vtab_cursor) C.int {
	x := unsafe.Pointer(cur)
	defer func() { pointer.Unref((*C.go_virtual_cursor)(x).impl); C.sqlite3_free(x) }()

	if err := cursorOf(cur).Close(); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(cur.pVtab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_filter_tramp
func x_filter_tramp(cur *C.sqlite3_vtab_cursor, idxNum C.int, idxStr *C.char, argc C.int, valarray **C.sqlite3_value) C.int {
	if err := cursorOf(cur).Filter(int(idxNum), C.GoString(idxStr), toValues(argc, valarray)...); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(cur.pVtab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_next_tramp
func x_next_tramp(cur *C.sqlite3_vtab_cursor) C.int {
	if err := cursorOf(cur).Next(); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(cur.pVtab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_eof_tramp
func x_eof_tramp(cur *C.sqlite3_vtab_cursor) C.int {
	if cursorOf(cur).Eof() {
		return 1
	}
	return 0
}

//export x_column_tramp
func x_column_tramp(cur *C.sqlite3_vtab_cursor, c *C.sqlite3_context, idx C.int) C.int {
	ctx := &Context{ptr: c}
	if err := cursorOf(cur).Column(ctx, int(idx)); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			ctx.ResultText(ec.String())
			return C.int(ec)
		}
		ctx.ResultText(err.Error())
		return C.int(SQLITE_ERROR)
	}
	return C.int(SQLITE_OK)
}

//export x_rowid_tramp
func x_rowid_tramp(cur *C.sqlite3_vtab_cursor, rowid *C.sqlite3_int64) C.int {
	id, err := cursorOf(cur).Rowid()
	if err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(cur.pVtab, err)
	}
	*rowid = C.sqlite3_int64(id)
	return C.int(SQLITE_OK)
}

//export x_begin_tramp
func x_begin_tramp(tab *C.sqlite3_vtab) C.int {
	table, ok := vtabOf(tab).(TransactionVTab)
	if !ok {
		return C.int(SQLITE_OK)
	}
	if err := table.Begin(); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_sync_tramp
func x_sync_tramp(tab *C.sqlite3_vtab) C.int {
	table, ok := vtabOf(tab).(TwoPhaseCommitVTab)
	if !ok {
		return C.int(SQLITE_OK)
	}
	if err := table.Sync(); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_commit_tramp
func x_commit_tramp(tab *C.sqlite3_vtab) C.int {
	table, ok := vtabOf(tab).(TransactionVTab)
	if !ok {
		return C.int(SQLITE_OK)
	}
	if err := table.Commit(); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_rollback_tramp
func x_rollback_tramp(tab *C.sqlite3_vtab) C.int {
	table, ok := vtabOf(tab).(TransactionVTab)
	if !ok {
		return C.int(SQLITE_OK)
	}
	if err := table.Rollback(); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_rename_tramp
func x_rename_tramp(tab *C.sqlite3_vtab, newName *C.char) C.int {
	table, ok := vtabOf(tab).(RenameVTab)
	if !ok {
		return C.int(SQLITE_ERROR)
	}
	if err := table.Rename(C.GoString(newName)); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_savepoint_tramp
func x_savepoint_tramp(tab *C.sqlite3_vtab, n C.int) C.int {
	table, ok := vtabOf(tab).(SavepointVTab)
	if !ok {
		return C.int(SQLITE_OK)
	}
	if err := table.Savepoint(int(n)); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_release_tramp
func x_release_tramp(tab *C.sqlite3_vtab, n C.int) C.int {
	table, ok := vtabOf(tab).(SavepointVTab)
	if !ok {
		return C.int(SQLITE_OK)
	}
	if err := table.Release(int(n)); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C.int(SQLITE_OK)
}

//export x_rollback_to_tramp
func x_rollback_to_tramp(tab *C.sqlite3_vtab, n C.int) C.int {
	table, ok := vtabOf(tab).(SavepointVTab)
	if !ok {
		return C.int(SQLITE_OK)
	}
	if err := table.RollbackTo(int(n)); err != nil {
		if ec, ok := err.(ErrorCode); ok {
			return C.int(ec)
		}
		return setVtabError(tab, err)
	}
	return C.int(SQLITE_OK)
}

// findFunctionAdapter wraps the closure an FindFunctionVTab hands back
// into a ScalarFunction so it can reuse scalar_function_apply_tramp and
// the getFunction/sqlite3_user_data dispatch context.go already wires for
// ordinary custom functions.
type findFunctionAdapter struct {
	nArg int
	fn   func(*Context, ...Value)
}

func (a *findFunctionAdapter) Deterministic() bool { return false }
func (a *findFunctionAdapter) Args() int           { return a.nArg }
func (a *findFunctionAdapter) Apply(ctx *Context, args ...ValueRef) {
	vals := make([]Value, len(args))
	for i, v := range args {
		vals[i] = v.Value()
	}
	a.fn(ctx, vals...)
}

//export x_find_function_tramp
func x_find_function_tramp(tab *C.sqlite3_vtab, nArg C.int, name *C.char, pxFunc *[0]byte, ppArg *unsafe.Pointer) C.int {
	table, ok := vtabOf(tab).(FindFunctionVTab)
	if !ok {
		return 0
	}
	usage, fn := table.FindFunction(int(nArg), C.GoString(name))
	if usage == 0 || fn == nil {
		return 0
	}
	adapter := &findFunctionAdapter{nArg: int(nArg), fn: fn}
	*(*uintptr)(unsafe.Pointer(pxFunc)) = uintptr(unsafe.Pointer(C.scalar_function_apply_tramp))
	*ppArg = pointer.Save(ScalarFunction(adapter))
	return C.int(usage)
}

//export x_shadow_name_tramp
func x_shadow_name_tramp(name *C.char) C.int {
	if shadowNamePredicate == nil {
		return 0
	}
	if shadowNamePredicate(C.GoString(name)) {
		return 1
	}
	return 0
}

//export module_destroy
func module_destroy(pAux unsafe.Pointer) { pointer.Unref(pAux) }

func setVtabError(vtab *C.sqlite3_vtab, err error) C.int {
	if vtab.zErrMsg != nil {
		C.sqlite3_free(unsafe.Pointer(vtab.zErrMsg))
	}
	vtab.zErrMsg = allocateCString(err.Error())
	return C.int(SQLITE_ERROR)
}

// allocateCString copies msg into sqlite3_malloc'd memory, matching the
// allocator SQLite itself uses to later sqlite3_free idxStr/zErrMsg.
func allocateCString(msg string) *C.char {
	l := len(msg) + 1
	dst := C.sqlite3_malloc(C.int(l))
	buf := unsafe.Slice((*byte)(dst), l)
	copy(buf, msg)
	buf[l-1] = 0
	return (*C.char)(dst)
}
