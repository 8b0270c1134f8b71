package sqlite

// #include <sqlite3.h>
// #include <stdlib.h>
//
// extern int collation_function_compare_tramp(void*, int, char*, int, char*);
// extern void function_destroy_tramp(void*);
import "C"

import (
	"unsafe"

	"github.com/mattn/go-pointer"
)

// CreateCollation registers a custom text collating sequence on the
// connection. cmp must obey the ordering contract documented at
// https://www.sqlite.org/c3ref/create_collation.html.
//
// adapted from the teacher's func.go ExtensionApi.CreateCollation, moved
// onto Connection and converted from the bridge's underscore-prefixed C
// calls to plain sqlite3 API calls.
func (c *Connection) CreateCollation(name string, cmp func(string, string) int) error {
	var cname = C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var pApp = pointer.Save(cmp)
	var compare = (*[0]byte)(C.collation_function_compare_tramp)
	var destroy = (*[0]byte)(C.function_destroy_tramp)

	res := C.sqlite3_create_collation_v2(c.handle.ptr, cname, C.SQLITE_UTF8, pApp, compare, destroy)
	if err := errorIfNotOk(res); err != nil {
		// destroy isn't invoked by the engine unless registration succeeded.
		pointer.Unref(pApp)
		return err
	}
	return nil
}

//export collation_function_compare_tramp
func collation_function_compare_tramp(pApp unsafe.Pointer, aLen C.int, a *C.char, bLen C.int, b *C.char) C.int {
	fn := pointer.Restore(pApp).(func(string, string) int)
	return C.int(fn(C.GoStringN(a, aLen), C.GoStringN(b, bLen)))
}
