package sqlite

import (
	"crypto/rand"
	"sync"
	"time"
)

// MemVfs is a read-only, in-process VFS backed by named byte buffers held
// in memory — useful for tests and for embedding a fixed, read-only
// database inside a binary without touching a filesystem.
//
// grounded on _examples/original_source/src/vfs/memvfs.rs's MemVfs/MemFile;
// ported to the Vfs/VfsFile interfaces in vfs.go, with the RwLock<HashMap>
// becoming a sync.RWMutex-guarded map and Arc<[u8]> becoming a plain []byte
// (files are replaced wholesale by AddFile, never mutated in place, so
// readers opened before a replacement keep seeing their own slice).
type MemVfs struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemVfs returns an empty MemVfs. Populate it with AddFile before
// registering it and opening connections against it.
func NewMemVfs() *MemVfs {
	return &MemVfs{files: make(map[string][]byte)}
}

// AddFile installs data under name, replacing any existing file of the
// same name. Existing open files are unaffected — they keep the slice
// that was current when they were opened.
func (v *MemVfs) AddFile(name string, data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.files[name] = data
}

// CreateFile builds a file's content by running fn against a fresh
// in-memory connection and serializing the result (see Connection.Serialize
// in serialize.go), then installs it under name.
func (v *MemVfs) CreateFile(name string, fn func(*Connection) error) error {
	conn, err := Open(":memory:")
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := fn(conn); err != nil {
		return err
	}
	data, err := conn.Serialize("main")
	if err != nil {
		return err
	}
	v.AddFile(name, data)
	return nil
}

// RemoveFile deletes name from the VFS, if present. This does not affect
// connections that already have the file open.
func (v *MemVfs) RemoveFile(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.files, name)
}

func (v *MemVfs) Open(req OpenRequest) (VfsFile, bool, error) {
	if req.Type != FileTypeMainDb {
		return nil, false, SQLITE_CANTOPEN
	}

	v.mu.RLock()
	data, ok := v.files[req.Name]
	v.mu.RUnlock()
	if !ok {
		return nil, false, SQLITE_CANTOPEN
	}
	return &memFile{data: data}, true, nil
}

func (v *MemVfs) Delete(string, bool) error { return nil }

func (v *MemVfs) Exists(name string) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.files[name]
	return ok, nil
}

func (v *MemVfs) CanRead(name string) (bool, error) { return v.Exists(name) }

func (v *MemVfs) CanWrite(string) (bool, error) { return false, nil }

func (v *MemVfs) FullPathname(name string) (string, error) { return name, nil }

func (v *MemVfs) LastError() int { return 0 }

func (v *MemVfs) FillRandom(buf []byte) { _, _ = rand.Read(buf) }

func (v *MemVfs) Sleep(d time.Duration) { time.Sleep(d) }

func (v *MemVfs) Now() (time.Time, error) { return time.Now(), nil }

// memFile is the read-only file handle MemVfs.Open hands back.
type memFile struct {
	data []byte
}

func (f *memFile) ReadAt(buf []byte, offset int64) (int, error) {
	if offset >= int64(len(f.data)) {
		return 0, nil
	}
	n := copy(buf, f.data[offset:])
	return n, nil
}

func (f *memFile) WriteAt([]byte, int64) error { return SQLITE_IOERR }

func (f *memFile) Truncate(int64) error { return SQLITE_IOERR }

func (f *memFile) Sync(SyncFlag) error { return nil }

func (f *memFile) Size() (int64, error) { return int64(len(f.data)), nil }

func (f *memFile) Lock(LockLevel) error { return nil }

func (f *memFile) Unlock(LockLevel) error { return nil }

func (f *memFile) CheckReservedLock() (bool, error) { return false, nil }

func (f *memFile) SectorSize() int { return 0 }

func (f *memFile) IoCapabilities() IoCapabilities { return IocapImmutable }

func (f *memFile) Close() error { return nil }
