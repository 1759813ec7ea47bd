package photodb

import (
	"log/slog"
	"sort"
)

// Index is the immutable cross-reference store produced by one ingestion
// pass. It is built exactly once and never mutated afterwards; derived views
// are computed on demand from the underlying maps.
type Index struct {
	version string
	family  SchemaFamily

	assets map[string]*Asset
	albums map[string]*Album

	// Forward lookups: name (or album record uuid) to member asset uuids.
	byKeyword map[string][]string
	byPerson  map[string][]string
	byAlbum   map[string][]string

	// Burst group uuid to member asset uuids.
	bursts map[string][]string

	// Volume id to display name. Only legacy assets reference volumes.
	volumes map[int64]string
}

func newIndex(version string, family SchemaFamily) *Index {
	return &Index{
		version:   version,
		family:    family,
		assets:    make(map[string]*Asset),
		albums:    make(map[string]*Album),
		byKeyword: make(map[string][]string),
		byPerson:  make(map[string][]string),
		byAlbum:   make(map[string][]string),
		bursts:    make(map[string][]string),
		volumes:   make(map[int64]string),
	}
}

// attachReferences copies the keyword/person/album back-references onto each
// asset. Called once at the end of an ingestion pass.
func (ix *Index) attachReferences() {
	attach := func(forward map[string][]string, set func(a *Asset, name string)) {
		for name, uuids := range forward {
			for _, uuid := range uuids {
				if a, ok := ix.assets[uuid]; ok {
					set(a, name)
				}
			}
		}
	}
	attach(ix.byKeyword, func(a *Asset, name string) { a.Keywords = append(a.Keywords, name) })
	attach(ix.byPerson, func(a *Asset, name string) { a.Persons = append(a.Persons, name) })
	attach(ix.byAlbum, func(a *Asset, id string) { a.Albums = append(a.Albums, id) })
}

// Version returns the library version string from the version marker.
func (ix *Index) Version() string { return ix.version }

// Family returns the physical schema family the index was ingested from.
func (ix *Index) Family() SchemaFamily { return ix.family }

// Len returns the number of assets in the index.
func (ix *Index) Len() int { return len(ix.assets) }

// Asset returns the asset with the given uuid.
func (ix *Index) Asset(uuid string) (*Asset, bool) {
	a, ok := ix.assets[uuid]
	return a, ok
}

// Assets returns all assets. Order is unspecified.
func (ix *Index) Assets() []*Asset {
	out := make([]*Asset, 0, len(ix.assets))
	for _, a := range ix.assets {
		out = append(out, a)
	}
	return out
}

// Album returns the album record with the given uuid.
func (ix *Index) Album(uuid string) (*Album, bool) {
	a, ok := ix.albums[uuid]
	return a, ok
}

// Keywords returns every keyword present in the library.
func (ix *Index) Keywords() []string { return sortedKeys(ix.byKeyword) }

// Persons returns every person present in the library.
func (ix *Index) Persons() []string { return sortedKeys(ix.byPerson) }

// Albums returns the distinct titles of personal (not shared) albums.
func (ix *Index) Albums() []string { return ix.albumTitles(false) }

// SharedAlbums returns the distinct titles of cloud-shared albums. The
// concept does not exist in legacy libraries; there the result is empty and
// a warning is logged.
func (ix *Index) SharedAlbums() []string {
	if ix.family == FamilyLegacy {
		slog.Warn("shared_albums_unsupported", "version", ix.version)
		return nil
	}
	return ix.albumTitles(true)
}

// KeywordCounts returns keywords with asset counts, most frequent first.
func (ix *Index) KeywordCounts() []NameCount { return countForward(ix.byKeyword) }

// PersonCounts returns persons with asset counts, most frequent first.
func (ix *Index) PersonCounts() []NameCount { return countForward(ix.byPerson) }

// AlbumCounts returns personal album titles with asset counts, most frequent
// first. Records sharing a title are merged into one logical album.
func (ix *Index) AlbumCounts() []NameCount { return ix.albumCounts(false) }

// SharedAlbumCounts is the shared-album variant of AlbumCounts. Empty, with
// a warning, for legacy libraries.
func (ix *Index) SharedAlbumCounts() []NameCount {
	if ix.family == FamilyLegacy {
		slog.Warn("shared_albums_unsupported", "version", ix.version)
		return nil
	}
	return ix.albumCounts(true)
}

// BurstMembers returns the asset uuids of one burst group.
func (ix *Index) BurstMembers(burstUUID string) []string {
	return ix.bursts[burstUUID]
}

// VolumeName resolves a legacy volume id to its display name.
func (ix *Index) VolumeName(id int64) (string, bool) {
	name, ok := ix.volumes[id]
	return name, ok
}

// AssetAlbums resolves an asset's album memberships to titles.
func (ix *Index) AssetAlbums(uuid string) []string {
	a, ok := ix.assets[uuid]
	if !ok {
		return nil
	}
	var titles []string
	for _, id := range a.Albums {
		if det, ok := ix.albums[id]; ok {
			titles = append(titles, det.Title)
		}
	}
	return titles
}

// AssetVolume resolves an asset's volume reference, if any.
func (ix *Index) AssetVolume(uuid string) (string, bool) {
	a, ok := ix.assets[uuid]
	if !ok || a.VolumeID == nil {
		return "", false
	}
	return ix.VolumeName(*a.VolumeID)
}

func (ix *Index) albumTitles(shared bool) []string {
	seen := map[string]bool{}
	for id := range ix.byAlbum {
		det, ok := ix.albums[id]
		if !ok || det.IsShared() != shared {
			continue
		}
		seen[det.Title] = true
	}
	titles := make([]string, 0, len(seen))
	for t := range seen {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

func (ix *Index) albumCounts(shared bool) []NameCount {
	counts := map[string]int{}
	for id, members := range ix.byAlbum {
		det, ok := ix.albums[id]
		if !ok || det.IsShared() != shared {
			continue
		}
		counts[det.Title] += len(members)
	}
	return sortCounts(counts)
}

func countForward(forward map[string][]string) []NameCount {
	counts := make(map[string]int, len(forward))
	for name, uuids := range forward {
		counts[name] = len(uuids)
	}
	return sortCounts(counts)
}

// sortCounts orders by descending count, ties broken by name for stable
// output.
func sortCounts(counts map[string]int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
