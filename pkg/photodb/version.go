package photodb

import (
	"database/sql"
	"log/slog"
	"strconv"

	"github.com/photodex/photodex/pkg/errors"
)

// SchemaFamily selects which ingestion path understands the physical layout.
type SchemaFamily int

const (
	FamilyLegacy SchemaFamily = iota
	FamilyModern
)

func (f SchemaFamily) String() string {
	if f == FamilyModern {
		return "modern"
	}
	return "legacy"
}

// modernVersion is the first library version that uses the rewritten schema.
const modernVersion = 6000

// testedVersions are the library versions the ingesters have been validated
// against. Anything else still classifies by the threshold rule but gets a
// compatibility warning.
var testedVersions = map[string]bool{
	"2622": true,
	"3301": true,
	"4016": true,
	"4025": true,
	"6000": true,
}

// DetectVersion reads the authoritative version marker from the library's
// global-settings table and classifies the store into a schema family.
// A missing or unreadable marker is fatal; there is no safe default.
func DetectVersion(db *sql.DB) (string, SchemaFamily, error) {
	var version string
	err := db.QueryRow(
		`SELECT value FROM LiGlobals WHERE keyPath = 'libraryVersion'`,
	).Scan(&version)
	if err == sql.ErrNoRows {
		slog.Error("db_version_marker_missing")
		return "", 0, errors.DatabaseOpenf("library version marker missing")
	}
	if err != nil {
		slog.Error("db_version_query_failed", "error", err)
		return "", 0, errors.DatabaseOpenf("reading library version marker: %v", err)
	}

	n, err := strconv.Atoi(version)
	if err != nil {
		slog.Error("db_version_unparseable", "version", version)
		return "", 0, errors.DatabaseOpenf("unparseable library version %q", version)
	}

	if !testedVersions[version] {
		slog.Warn("db_version_untested", "version", version)
	}

	family := FamilyLegacy
	if n >= modernVersion {
		family = FamilyModern
	}

	slog.Info("db_version_detected", "version", version, "family", family.String())
	return version, family, nil
}
