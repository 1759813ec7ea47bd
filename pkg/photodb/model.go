package photodb

import "time"

// Kind classifies an asset's media type.
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindMovie
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindMovie:
		return "movie"
	default:
		return "unknown"
	}
}

// UnknownPersonName is the placeholder person used when a face was detected
// but the underlying name is empty. Only occurs in modern libraries.
const UnknownPersonName = "_UNKNOWN_"

// Asset is one normalized media record. Every field is always present;
// attributes a schema family cannot produce are nil rather than omitted, so
// callers never have to branch on the library version.
type Asset struct {
	UUID             string
	Kind             Kind
	Filename         string
	OriginalFilename string
	Title            string
	Description      *string
	UTI              string
	Directory        string // modern only

	// Capture timestamp. Always derivable from the source row.
	Date time.Time
	// Last-modified timestamp; falls back to Date when its own field is
	// absent or invalid.
	ModDate        time.Time
	TimeZoneOffset *int64

	// Geolocation. Both nil when the source row carries no coordinate or
	// the modern (-180,-180) sentinel.
	Latitude  *float64
	Longitude *float64

	Favorite bool
	Hidden   bool

	HasAdjustments   bool
	AdjustmentUUID   string // legacy only
	EditResourceID   *int64
	AdjustmentFormat *string

	Burst     bool
	BurstUUID string
	// BurstKey marks the representative pick of the burst group. Meaningful
	// only when Burst is true.
	BurstKey bool

	Panorama   bool
	SlowMo     bool
	TimeLapse  bool
	HDR        bool
	LivePhoto  bool
	Screenshot bool
	Portrait   bool
	Selfie     *bool // not derivable from the legacy schema

	LiveResourceID     *int64
	LiveResourceOnDisk *bool

	CloudAssetGUID    *string
	CloudLocalState   *int64 // modern only
	CloudLibraryState *int64 // legacy only
	CloudStatus       *int64 // legacy only
	CloudAvailable    *int64 // legacy only

	LocalAvailability  *int64 // modern only
	RemoteAvailability *int64 // modern only
	Missing            *bool
	InCloud            *bool
	Shared             bool // modern: published to a shared stream

	VolumeID *int64 // legacy only

	// Provenance join keys, retained as pass-through.
	MasterUUID        string // legacy only
	MasterFingerprint string // modern only

	// Resolved back-references, attached at the end of the ingestion pass.
	Keywords []string
	Persons  []string
	Albums   []string // album record uuids; resolve titles via Index
}

// Album is one album record. Two records sharing a title are treated as the
// same logical album for counting and lookup-by-title.
type Album struct {
	UUID  string
	Title string

	CloudLibraryState *int64  // legacy only
	CloudIdentifier   *string // legacy only

	CloudLocalState     *int64  // modern only
	CloudOwnerFirstName *string // modern only
	CloudOwnerLastName  *string // modern only
	CloudOwnerID        *string // modern only: hashed owner person id
}

// IsShared reports whether the album is owned by another cloud account.
// Always false for legacy libraries, which predate shared albums.
func (a *Album) IsShared() bool {
	return a.CloudOwnerID != nil
}

// NameCount pairs a keyword, person or album title with the number of assets
// carrying it.
type NameCount struct {
	Name  string
	Count int
}

func int64ptr(v int64) *int64 { return &v }
func boolptr(v bool) *bool    { return &v }
func strptr(v string) *string { return &v }
