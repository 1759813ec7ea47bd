// Package snapshot produces a safely-readable scratch copy of a library
// database. The live store may be locked by the owning application, so all
// parsing happens against the copy, which is removed when the session ends.
package snapshot

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/photodex/photodex/pkg/errors"
)

// bundleDBPath is the conventional database location inside a library bundle.
const bundleDBPath = "database/photos.db"

// Resolve turns the user-supplied path configuration into the database file
// to snapshot. Exactly one of libraryPath and dbPath must be set; a
// directory is treated as a library bundle.
func Resolve(libraryPath, dbPath string) (string, error) {
	switch {
	case libraryPath != "" && dbPath != "":
		return "", errors.Configurationf("supply either a library path or a database path, not both")
	case libraryPath == "" && dbPath == "":
		return "", errors.Configurationf("no library or database path supplied")
	}

	path := dbPath
	if libraryPath != "" {
		path = libraryPath
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, bundleDBPath)
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", errors.NotFoundf("database file %s does not exist", path)
	}
	return path, nil
}

// Snapshot is a scoped scratch copy of one or more database files. Acquired
// before any parsing begins; Release must be attempted on every exit path.
type Snapshot struct {
	srcDir string
	dir    string
	path   string
}

// Acquire copies the database file, plus its write-ahead log and shared
// memory side files when present, into a fresh scratch directory.
func Acquire(path string) (*Snapshot, error) {
	dir := filepath.Join(os.TempDir(), "photodex-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create snapshot directory")
	}

	s := &Snapshot{srcDir: filepath.Dir(path), dir: dir}
	copied, err := s.copyInto(path)
	if err != nil {
		s.Release()
		return nil, err
	}
	s.path = copied
	return s, nil
}

// Path returns the readable copy of the most recently acquired file.
func (s *Snapshot) Path() string { return s.path }

// Sibling acquires another database file from the same source directory into
// the same scratch directory. The modern bundle layout keeps the asset store
// beside the version-marker database.
func (s *Snapshot) Sibling(name string) (string, error) {
	src := filepath.Join(s.srcDir, name)
	if _, err := os.Stat(src); err != nil {
		return "", errors.NotFoundf("database file %s does not exist", src)
	}
	copied, err := s.copyInto(src)
	if err != nil {
		return "", err
	}
	s.path = copied
	return copied, nil
}

// Release removes the scratch directory. Best effort: a failed removal is
// logged, never escalated.
func (s *Snapshot) Release() {
	if err := os.RemoveAll(s.dir); err != nil {
		slog.Warn("snapshot_cleanup_failed", "dir", s.dir, "error", err)
		return
	}
	slog.Info("snapshot_released", "dir", s.dir)
}

func (s *Snapshot) copyInto(src string) (string, error) {
	dst := filepath.Join(s.dir, filepath.Base(src))
	if err := copyFile(src, dst); err != nil {
		return "", errors.Wrap(err, "failed to copy database snapshot")
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if _, err := os.Stat(src + suffix); err != nil {
			continue
		}
		if err := copyFile(src+suffix, dst+suffix); err != nil {
			return "", errors.Wrap(err, "failed to copy database side file")
		}
	}
	slog.Info("snapshot_acquired", "src", src, "copy", dst)
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
