package sqlite

// #include <sqlite3.h>
// #include <stdlib.h>
//
// extern void scalar_function_apply_tramp(sqlite3_context*, int, sqlite3_value**);
// extern void aggregate_function_step_tramp(sqlite3_context*, int, sqlite3_value**);
// extern void aggregate_function_final_tramp(sqlite3_context*);
// extern void window_function_value_tramp(sqlite3_context*);
// extern void window_function_inverse_tramp(sqlite3_context*, int, sqlite3_value**);
// extern void function_destroy_tramp(void*);
// extern void pointer_destructor_hook_tramp(void*);
import "C"

import (
	"sync"
	"unsafe"

	"github.com/mattn/go-pointer"
)

// see: https://sqlite.org/bindptr.html#pointer_types_are_static_strings
var pointerType = C.CString("golang")

// Context is an *C.struct_sqlite3_context. It is used by custom scalar,
// aggregate and window functions (and by vtab Column, see vtab.go) to
// return result values. An SQLite context is in no way related to
// context.Context.
//
// adapted from the teacher's context.go/func.go (the two were duplicates in
// the retrieval pack; merged here into one definition).
type Context struct{ ptr *C.sqlite3_context }

func (ctx Context) ResultInt(v int)       { C.sqlite3_result_int(ctx.ptr, C.int(v)) }
func (ctx Context) ResultInt64(v int64)   { C.sqlite3_result_int64(ctx.ptr, C.sqlite3_int64(v)) }
func (ctx Context) ResultFloat(v float64) { C.sqlite3_result_double(ctx.ptr, C.double(v)) }
func (ctx Context) ResultNull()           { C.sqlite3_result_null(ctx.ptr) }
func (ctx Context) ResultValue(v ValueRef) { C.sqlite3_result_value(ctx.ptr, v.ptr) }
func (ctx Context) ResultZeroBlob(n int64) {
	C.sqlite3_result_zeroblob64(ctx.ptr, C.sqlite3_uint64(n))
}

func (ctx Context) ResultBlob(v []byte) {
	if len(v) == 0 {
		C.sqlite3_result_zeroblob(ctx.ptr, 0)
		return
	}
	C.sqlite3_result_blob(ctx.ptr, C.CBytes(v), C.int(len(v)), (*[0]byte)(C.free))
}

func (ctx Context) ResultText(v string) {
	var cv *C.char
	if len(v) != 0 {
		cv = C.CString(v)
	}
	C.sqlite3_result_text(ctx.ptr, cv, C.int(len(v)), (*[0]byte)(C.free))
}

func (ctx Context) ResultSubType(v uint) {
	C.sqlite3_result_subtype(ctx.ptr, C.uint(v))
}

// ResultError sets the function's result to an error. If err is an
// ErrorCode, its numeric value is passed straight through; otherwise the
// error's message is copied into the engine.
func (ctx Context) ResultError(err error) {
	if code, ok := err.(ErrorCode); ok {
		C.sqlite3_result_error_code(ctx.ptr, C.int(code))
		return
	}
	var errstr = err.Error()
	var cerrstr = C.CString(errstr)
	defer C.free(unsafe.Pointer(cerrstr))
	C.sqlite3_result_error(ctx.ptr, cerrstr, C.int(len(errstr)))
}

// ResultPointer attaches an arbitrary Go value to the result as a typed,
// opaque pointer (the result-side counterpart of spec.md §4.1's "typed
// boxed opaque" ToSqlOutput variant), tagged with the package's "golang"
// pointer type.
func (ctx Context) ResultPointer(val interface{}) {
	ptr := pointer.Save(val)
	C.sqlite3_result_pointer(ctx.ptr, ptr, pointerType, (*[0]byte)(C.pointer_destructor_hook_tramp))
}

//export pointer_destructor_hook_tramp
func pointer_destructor_hook_tramp(p unsafe.Pointer) { pointer.Unref(p) }

// Function is the base interface every custom SQL function implements.
type Function interface {
	// Deterministic reports whether the function always returns the same
	// result given the same inputs within a single SQL statement.
	Deterministic() bool

	// Args returns the number of arguments the function accepts, or -1 for
	// a variable argument count.
	Args() int
}

// ScalarFunction is a custom SQL scalar function.
type ScalarFunction interface {
	Function
	Apply(*Context, ...ValueRef)
}

// AggregateFunction is a custom SQL aggregate function.
type AggregateFunction interface {
	Function
	Step(*AggregateContext, ...ValueRef)
	Final(*AggregateContext)
}

// WindowFunction is a custom SQL window function.
type WindowFunction interface {
	AggregateFunction
	Value(*AggregateContext)
	Inverse(*AggregateContext, ...ValueRef)
}

var (
	aggregateDataLock  sync.RWMutex
	aggregateDataStore = map[unsafe.Pointer]interface{}{}
)

// AggregateContext extends Context with per-invocation scratch storage,
// keyed by the engine's own aggregate-context allocation so concurrent
// invocations (different statements, or nested in a correlated subquery)
// do not share state.
type AggregateContext struct {
	*Context
	id unsafe.Pointer
}

func (agg *AggregateContext) Data() interface{} {
	aggregateDataLock.RLock()
	defer aggregateDataLock.RUnlock()
	return aggregateDataStore[agg.id]
}

func (agg *AggregateContext) SetData(val interface{}) {
	aggregateDataLock.Lock()
	defer aggregateDataLock.Unlock()
	aggregateDataStore[agg.id] = val
}

// CreateFunction registers fn under name on the connection. fn must
// implement exactly one of ScalarFunction, AggregateFunction or
// WindowFunction.
func (c *Connection) CreateFunction(name string, fn Function) error {
	var cname = C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var eTextRep = C.int(C.SQLITE_UTF8)
	if fn.Deterministic() {
		eTextRep |= C.SQLITE_DETERMINISTIC
	}

	var pApp = pointer.Save(fn)
	var destroy = (*[0]byte)(C.function_destroy_tramp)

	var res C.int
	switch f := fn.(type) {
	case WindowFunction:
		var stepTramp = (*[0]byte)(C.aggregate_function_step_tramp)
		var finalTramp = (*[0]byte)(C.aggregate_function_final_tramp)
		var valueTramp = (*[0]byte)(C.window_function_value_tramp)
		var inverseTramp = (*[0]byte)(C.window_function_inverse_tramp)
		res = C.sqlite3_create_window_function(c.handle.ptr, cname, C.int(f.Args()), eTextRep, pApp, stepTramp, finalTramp, valueTramp, inverseTramp, destroy)
	case AggregateFunction:
		var stepTramp = (*[0]byte)(C.aggregate_function_step_tramp)
		var finalTramp = (*[0]byte)(C.aggregate_function_final_tramp)
		res = C.sqlite3_create_function_v2(c.handle.ptr, cname, C.int(f.Args()), eTextRep, pApp, nil, stepTramp, finalTramp, destroy)
	case ScalarFunction:
		var applyTramp = (*[0]byte)(C.scalar_function_apply_tramp)
		res = C.sqlite3_create_function_v2(c.handle.ptr, cname, C.int(f.Args()), eTextRep, pApp, applyTramp, nil, nil, destroy)
	default:
		pointer.Unref(pApp)
		return ModuleError("sqlite: fn does not implement ScalarFunction, AggregateFunction or WindowFunction")
	}

	if err := errorIfNotOk(res); err != nil {
		return err
	}
	return nil
}

func toValueRefs(count C.int, va **C.sqlite3_value) []ValueRef {
	n := int(count)
	if n == 0 {
		return nil
	}
	cvals := unsafe.Slice(va, n)
	out := make([]ValueRef, n)
	for i, v := range cvals {
		out[i] = ValueRef{ptr: v}
	}
	return out
}

func getFunction(ctx *C.sqlite3_context) Function {
	p := unsafe.Pointer(C.sqlite3_user_data(ctx))
	return pointer.Restore(p).(Function)
}

// TRAMPOLINES — see vtab.go and vfs_trampolines.go for the equivalent
// dispatch used by those two frameworks.

//export scalar_function_apply_tramp
func scalar_function_apply_tramp(ctx *C.sqlite3_context, n C.int, v **C.sqlite3_value) {
	getFunction(ctx).(ScalarFunction).Apply(&Context{ptr: ctx}, toValueRefs(n, v)...)
}

//export aggregate_function_step_tramp
func aggregate_function_step_tramp(ctx *C.sqlite3_context, n C.int, v **C.sqlite3_value) {
	id := unsafe.Pointer(C.sqlite3_aggregate_context(ctx, C.int(1)))
	c := &AggregateContext{Context: &Context{ptr: ctx}, id: id}
	getFunction(ctx).(AggregateFunction).Step(c, toValueRefs(n, v)...)
}

//export aggregate_function_final_tramp
func aggregate_function_final_tramp(ctx *C.sqlite3_context) {
	id := unsafe.Pointer(C.sqlite3_aggregate_context(ctx, C.int(0)))
	defer func() {
		aggregateDataLock.Lock()
		delete(aggregateDataStore, id)
		aggregateDataLock.Unlock()
	}()

	c := &AggregateContext{Context: &Context{ptr: ctx}, id: id}
	getFunction(ctx).(AggregateFunction).Final(c)
}

//export window_function_value_tramp
func window_function_value_tramp(ctx *C.sqlite3_context) {
	id := unsafe.Pointer(C.sqlite3_aggregate_context(ctx, C.int(1)))
	c := &AggregateContext{Context: &Context{ptr: ctx}, id: id}
	getFunction(ctx).(WindowFunction).Value(c)
}

//export window_function_inverse_tramp
func window_function_inverse_tramp(ctx *C.sqlite3_context, n C.int, v **C.sqlite3_value) {
	id := unsafe.Pointer(C.sqlite3_aggregate_context(ctx, C.int(1)))
	c := &AggregateContext{Context: &Context{ptr: ctx}, id: id}
	getFunction(ctx).(WindowFunction).Inverse(c, toValueRefs(n, v)...)
}

//export function_destroy_tramp
func function_destroy_tramp(ptr unsafe.Pointer) { pointer.Unref(ptr) }
