// Package filesys provides the file system seam used by dnsfan.
// Config loading reads through ReadFS and report files are persisted
// through FileOps, so both can be exercised in tests without a disk.
package filesys

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lc/dnsfan/internal/log"
)

// ReadFS is the tiny surface the config loader needs.
type ReadFS interface {
	Stat(string) (fs.FileInfo, error)
	Open(string) (*os.File, error)
}

// FileOps is what AtomicWrite needs to persist a report.
type FileOps interface {
	Open(string) (*os.File, error)
	CreateTemp(string, string) (*os.File, error)
	Rename(string, string) error
	Remove(string) error
	Chmod(string, os.FileMode) error
}

// OS returns a file system implementation that delegates to the standard library.
// The returned implementation satisfies both ReadFS and FileOps.
func OS() OsFS {
	return OsFS{}
}

// OsFS implements ReadFS and FileOps against the local disk.
type OsFS struct{}

func (OsFS) Stat(p string) (fs.FileInfo, error)           { return os.Stat(p) }
func (OsFS) Open(p string) (*os.File, error)              { return os.Open(p) }
func (OsFS) CreateTemp(dir, pat string) (*os.File, error) { return os.CreateTemp(dir, pat) }
func (OsFS) Rename(old, newName string) error             { return os.Rename(old, newName) }
func (OsFS) Remove(p string) error                        { return os.Remove(p) }
func (OsFS) Chmod(p string, m os.FileMode) error          { return os.Chmod(p, m) }

var (
	_ ReadFS  = OsFS{}
	_ FileOps = OsFS{}
)

// AtomicWrite atomically persists data to dst with the provided file mode:
//
//  1. temp file in the same dir
//  2. fsync(temp) + close
//  3. chmod(temp, perm)
//  4. rename(temp, dst)
//  5. fsync(dir), best effort
//
// A reader of dst therefore sees either the previous report or the new one,
// never a partial write.
func AtomicWrite(fsys FileOps, dst string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(dst)
	tmp, err := fsys.CreateTemp(dir, ".dnsfan-*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	cerr := tmp.Close()
	if err == nil {
		err = cerr
	}
	if err == nil {
		err = fsys.Chmod(tmp.Name(), perm)
	}
	if err == nil {
		err = fsys.Rename(tmp.Name(), dst)
	}
	if err != nil {
		if removeErr := fsys.Remove(tmp.Name()); removeErr != nil {
			log.Warn("failed to remove temp file", "path", tmp.Name(), "error", removeErr)
		}
		return err
	}

	d, err := fsys.Open(dir)
	if err != nil {
		return nil
	}
	if syncErr := d.Sync(); syncErr != nil {
		log.Debug("failed to sync directory", "dir", dir, "error", syncErr)
	}
	if closeErr := d.Close(); closeErr != nil {
		log.Debug("failed to close directory", "dir", dir, "error", closeErr)
	}
	return nil
}
