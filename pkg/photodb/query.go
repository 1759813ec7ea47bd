package photodb

import (
	"log/slog"
	"time"
)

// Query selects assets by multiple criteria. Values within one field are
// ORed together; the fields themselves are ANDed. A zero From or To leaves
// that side of the date range unbounded.
type Query struct {
	Keywords []string
	UUIDs    []string
	Persons  []string
	Albums   []string
	From     time.Time
	To       time.Time
	Images   bool
	Movies   bool
}

// NewQuery returns a Query with the default media toggles: images included,
// movies excluded.
func NewQuery() Query {
	return Query{Images: true}
}

type uuidSet map[string]struct{}

// Search returns the assets matching every supplied criterion. With no
// criteria at all the candidate set is the whole asset table. Non-
// representative burst members are always dropped, as are assets excluded by
// the media-type toggles. Result order is unspecified.
func (ix *Index) Search(q Query) []*Asset {
	var sets []uuidSet

	if len(q.Keywords) > 0 {
		sets = append(sets, ix.unionOf(ix.byKeyword, q.Keywords, "keyword"))
	}
	if len(q.Persons) > 0 {
		sets = append(sets, ix.unionOf(ix.byPerson, q.Persons, "person"))
	}
	if len(q.Albums) > 0 {
		sets = append(sets, ix.albumUnion(q.Albums))
	}
	if len(q.UUIDs) > 0 {
		set := uuidSet{}
		for _, uuid := range q.UUIDs {
			if _, ok := ix.assets[uuid]; !ok {
				slog.Debug("filter_value_unknown", "field", "uuid", "value", uuid)
				continue
			}
			set[uuid] = struct{}{}
		}
		sets = append(sets, set)
	}
	if !q.From.IsZero() || !q.To.IsZero() {
		set := uuidSet{}
		for uuid, a := range ix.assets {
			if !q.From.IsZero() && a.Date.Before(q.From) {
				continue
			}
			if !q.To.IsZero() && a.Date.After(q.To) {
				continue
			}
			set[uuid] = struct{}{}
		}
		sets = append(sets, set)
	}

	var candidates uuidSet
	if len(sets) == 0 {
		candidates = make(uuidSet, len(ix.assets))
		for uuid := range ix.assets {
			candidates[uuid] = struct{}{}
		}
	} else {
		candidates = intersect(sets)
	}

	var out []*Asset
	for uuid := range candidates {
		a := ix.assets[uuid]
		if a.Burst && !a.BurstKey {
			continue
		}
		if (q.Images && a.Kind == KindImage) || (q.Movies && a.Kind == KindMovie) {
			out = append(out, a)
		}
	}
	return out
}

// unionOf builds one candidate set from all values of a single criterion
// category. Unknown values are skipped, never an error.
func (ix *Index) unionOf(forward map[string][]string, values []string, field string) uuidSet {
	set := uuidSet{}
	for _, v := range values {
		uuids, ok := forward[v]
		if !ok {
			slog.Debug("filter_value_unknown", "field", field, "value", v)
			continue
		}
		for _, uuid := range uuids {
			set[uuid] = struct{}{}
		}
	}
	return set
}

// albumUnion resolves each requested title to every album record carrying it
// before taking the union, so same-titled albums act as one logical album.
func (ix *Index) albumUnion(titles []string) uuidSet {
	byTitle := map[string][]string{}
	for id, det := range ix.albums {
		byTitle[det.Title] = append(byTitle[det.Title], id)
	}

	set := uuidSet{}
	for _, title := range titles {
		ids, ok := byTitle[title]
		if !ok {
			slog.Debug("filter_value_unknown", "field", "album", "value", title)
			continue
		}
		for _, id := range ids {
			for _, uuid := range ix.byAlbum[id] {
				set[uuid] = struct{}{}
			}
		}
	}
	return set
}

func intersect(sets []uuidSet) uuidSet {
	// Start from the smallest set to keep membership checks cheap.
	smallest := 0
	for i, s := range sets {
		if len(s) < len(sets[smallest]) {
			smallest = i
		}
	}

	out := uuidSet{}
	for uuid := range sets[smallest] {
		in := true
		for i, s := range sets {
			if i == smallest {
				continue
			}
			if _, ok := s[uuid]; !ok {
				in = false
				break
			}
		}
		if in {
			out[uuid] = struct{}{}
		}
	}
	return out
}
