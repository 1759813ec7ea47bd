package photodb

import (
	"log/slog"
	"runtime"

	"github.com/photodex/photodex/pkg/snapshot"
)

// modernStoreName is the asset store that sits beside the version-marker
// database in modern library bundles.
const modernStoreName = "Photos.sqlite"

// Load resolves, snapshots and ingests a library in one synchronous pass and
// returns the immutable index. The snapshot copies are released before Load
// returns, success or failure; the caller receives either a complete index
// or an error, never a partial one.
func Load(libraryPath, dbPath string) (*Index, error) {
	if runtime.GOOS != "darwin" {
		slog.Warn("os_untested", "os", runtime.GOOS)
	}

	path, err := snapshot.Resolve(libraryPath, dbPath)
	if err != nil {
		return nil, err
	}

	snap, err := snapshot.Acquire(path)
	if err != nil {
		return nil, err
	}
	defer snap.Release()

	store, err := OpenStore(snap.Path())
	if err != nil {
		return nil, err
	}
	defer func() { store.Close() }()

	version, family, err := DetectVersion(store.DB())
	if err != nil {
		return nil, err
	}

	if family == FamilyModern {
		// The database carrying the version marker only holds settings on
		// the modern layout; the asset store is its sibling file.
		store.Close()
		actual, err := snap.Sibling(modernStoreName)
		if err != nil {
			return nil, err
		}
		store, err = OpenStore(actual)
		if err != nil {
			return nil, err
		}
		return IngestModern(store, version)
	}

	return IngestLegacy(store, version)
}
