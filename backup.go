package sqlite

// #include <sqlite3.h>
import "C"

import (
	"errors"
	"time"
	"unsafe"
)

// Backup drives an online backup/copy of one database onto another,
// running incrementally so a large database doesn't block other
// connections for the whole copy.
//
// grounded on _examples/mrdude-gosqlite/backup.go's NewBackup/Backup/
// Step/Status/Run/Close, rebased onto *Connection instead of *Conn and
// onto this package's ErrorCode/Error types instead of mrdude-gosqlite's
// Errno; cross-checked against original_source/src/backup.rs for the
// Step/PageCount/Remaining naming (spec.md's interface-only scope for
// this module per its Non-goals).
type Backup struct {
	ptr      *C.sqlite3_backup
	dst, src *Connection
}

// NewBackup begins a backup of srcSchema in src into dstSchema in dst.
// Both connections must remain open for the Backup's lifetime.
func NewBackup(dst *Connection, dstSchema string, src *Connection, srcSchema string) (*Backup, error) {
	dname := C.CString(dstSchema)
	sname := C.CString(srcSchema)
	defer C.free(unsafe.Pointer(dname))
	defer C.free(unsafe.Pointer(sname))

	ptr := C.sqlite3_backup_init(dst.handle.ptr, dname, src.handle.ptr, sname)
	if ptr == nil {
		return nil, lastError(dst.handle.ptr, C.sqlite3_errcode(dst.handle.ptr))
	}
	return &Backup{ptr: ptr, dst: dst, src: src}, nil
}

// BackupProgress reports how much of the source database remains to be
// copied, sampled after a Step.
type BackupProgress struct {
	Remaining int
	PageCount int
}

// Step copies up to nPages pages (or all remaining pages, if nPages < 0)
// from source to destination. It returns nil when the step copied pages,
// when the backup has finished (SQLITE_DONE), and on SQLITE_BUSY/
// SQLITE_LOCKED (the source or destination was momentarily unavailable —
// callers should pause and retry); a non-nil error means the backup
// failed. Check Progress().Remaining == 0 to tell a finished backup from
// one that still has pages left to copy.
func (b *Backup) Step(nPages int) error {
	res := C.sqlite3_backup_step(b.ptr, C.int(nPages))
	switch ErrorCode(res) {
	case SQLITE_OK, SQLITE_BUSY, SQLITE_LOCKED:
		return nil
	default:
		return lastError(b.dst.handle.ptr, res)
	}
}

// Progress reports the backup's current position.
func (b *Backup) Progress() BackupProgress {
	return BackupProgress{
		Remaining: int(C.sqlite3_backup_remaining(b.ptr)),
		PageCount: int(C.sqlite3_backup_pagecount(b.ptr)),
	}
}

// Run steps the backup to completion, copying nPages pages at a time and
// sleeping between steps. If progress is non-nil, a BackupProgress is sent
// after every successful step; the caller must keep draining it to avoid
// blocking the backup.
func (b *Backup) Run(nPages int, sleep time.Duration, progress chan<- BackupProgress) error {
	for {
		if err := b.Step(nPages); err != nil {
			return err
		}
		if progress != nil {
			progress <- b.Progress()
		}
		if b.Progress().Remaining == 0 {
			return nil
		}
		if sleep > 0 {
			time.Sleep(sleep)
		}
	}
}

// Close finishes the backup, releasing its resources. It must be called
// exactly once, whether or not Run completed successfully.
func (b *Backup) Close() error {
	if b.ptr == nil {
		return errors.New("sqlite: backup already closed")
	}
	res := C.sqlite3_backup_finish(b.ptr)
	b.ptr = nil
	return lastError(b.dst.handle.ptr, res)
}
