package sqlite

// #include <sqlite3.h>
import "C"

import (
	"io"
	"unsafe"
)

// Serialize copies schema ("main", "temp", or an attached database name)
// into a single contiguous byte slice using the same on-disk page format
// Deserialize/Open read back, per spec.md's borrow-bridge. The engine's own
// buffer is always copied into Go-managed memory (SQLITE_SERIALIZE_NOCOPY
// is never requested), so the result remains valid after further
// statements run on c — unlike original_source/src/serialize.rs's
// Data::Shared fast path, which borrows the connection's live page cache
// and must not outlive it. That borrow-checked distinction has no Go
// analogue (nothing stops a returned []byte outliving c), so this package
// always takes the always-safe owned copy.
func (c *Connection) Serialize(schema string) ([]byte, error) {
	cschema := C.CString(schema)
	defer C.free(unsafe.Pointer(cschema))

	var sz C.sqlite3_int64
	ptr := C.sqlite3_serialize(c.handle.ptr, cschema, &sz, 0)
	if ptr == nil {
		// sqlite3_serialize returns NULL both for a genuine OOM and for a
		// schema name that isn't attached; only the latter is a non-error.
		if !c.hasSchema(schema) {
			return nil, nil
		}
		return nil, lastError(c.handle.ptr, C.int(SQLITE_NOMEM))
	}
	defer C.sqlite3_free(unsafe.Pointer(ptr))

	out := make([]byte, int(sz))
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(sz)))
	return out, nil
}

// hasSchema reports whether name names one of the connection's attached
// databases (main, temp, or an ATTACH'd schema).
func (c *Connection) hasSchema(name string) bool {
	for i := C.int(0); ; i++ {
		cname := C.sqlite3_db_name(c.handle.ptr, i)
		if cname == nil {
			return false
		}
		if C.GoString(cname) == name {
			return true
		}
	}
}

// Deserialize replaces schema's content with a copy of data. The bytes are
// copied into a buffer allocated with sqlite3_malloc64, which the engine
// owns from then on; if readOnly is false the engine may grow that buffer
// as writes occur (realloc'd with sqlite3_realloc64). data itself stays
// the caller's and is not referenced after the call returns.
//
// grounded on original_source/src/serialize.rs's Connection::deserialize;
// OwnedData's Drop-based sqlite3_free is folded into the
// SQLITE_DESERIALIZE_FREEONCLOSE flag, which this function always sets,
// so there is no separate Go-side ownership type to model.
func (c *Connection) Deserialize(schema string, data []byte, readOnly bool) error {
	sz := C.sqlite3_int64(len(data))
	buf := C.sqlite3_malloc64(C.sqlite3_uint64(len(data)))
	if buf == nil {
		return SQLITE_NOMEM
	}
	if len(data) > 0 {
		copy(unsafe.Slice((*byte)(buf), len(data)), data)
	}

	flags := C.uint(C.SQLITE_DESERIALIZE_FREEONCLOSE)
	if readOnly {
		flags |= C.SQLITE_DESERIALIZE_READONLY
	} else {
		flags |= C.SQLITE_DESERIALIZE_RESIZEABLE
	}

	cschema := C.CString(schema)
	defer C.free(unsafe.Pointer(cschema))

	res := C.sqlite3_deserialize(c.handle.ptr, cschema, (*C.uchar)(buf), sz, sz, flags)
	return lastError(c.handle.ptr, res)
}

// DeserializeReadExact reads exactly sz bytes from r and installs them as
// schema's content, read-only when readOnly is true. It exists for the common case of loading a
// database embedded via go:embed or streamed from a network source without
// requiring the caller to first materialize it as a []byte.
func (c *Connection) DeserializeReadExact(schema string, r io.Reader, sz int, readOnly bool) error {
	buf := make([]byte, sz)
	if _, err := io.ReadFull(r, buf); err != nil {
		return &Error{Code: SQLITE_IOERR, Msg: err.Error()}
	}
	return c.Deserialize(schema, buf, readOnly)
}

// DeserializeBytes installs a static buffer (typically produced by
// go:embed) as schema's content, read-only.
//
// original_source/src/serialize.rs's deserialize_bytes hands the engine a
// raw pointer into the 'static Rust slice with no FREEONCLOSE flag, a
// genuine zero-copy path. cgo's pointer-passing rules forbid handing the
// engine a pointer into Go-managed memory that outlives the call (the GC
// may move or reclaim it), so this still copies into engine-owned memory
// via Deserialize — the safety property DeserializeBytes actually buys
// over calling Deserialize directly is just the fixed SQLITE_DESERIALIZE_READONLY
// choice, not the zero-copy fast path.
func (c *Connection) DeserializeBytes(schema string, data []byte) error {
	return c.Deserialize(schema, data, true)
}
