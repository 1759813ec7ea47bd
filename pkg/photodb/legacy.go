package photodb

import (
	"database/sql"
	"log/slog"
	"math"
	"time"

	"github.com/photodex/photodex/pkg/errors"
)

// Resource tags on edit rows that mean "no adjustment applied". Rows carrying
// these are raw originals, not edits.
const (
	unadjustedRawTag = "UNADJUSTEDNONRAW"
	unadjustedTag    = "UNADJUSTED"
)

// Timestamps are stored as seconds since the Cocoa epoch.
var cocoaEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

func cocoaTime(sec float64) time.Time {
	// Whole and fractional seconds are added separately; a single float
	// multiply loses sub-microsecond precision at realistic magnitudes.
	whole, frac := math.Modf(sec)
	return cocoaEpoch.Add(time.Duration(whole)*time.Second + time.Duration(frac*float64(time.Second)))
}

// IngestLegacy builds the unified index from a pre-rewrite library snapshot.
// All queries are read-only; the index is complete and immutable on return.
func IngestLegacy(store *Store, version string) (*Index, error) {
	slog.Info("ingest_start", "family", "legacy", "version", version)
	ix := newIndex(version, FamilyLegacy)

	db := store.DB()
	steps := []struct {
		name string
		run  func(*sql.DB, *Index) error
	}{
		{"faces", legacyFaces},
		{"albums", legacyAlbums},
		{"keywords", legacyKeywords},
		{"volumes", legacyVolumes},
		{"assets", legacyAssets},
		{"edit_resources", legacyEditResources},
		{"adjustment_formats", legacyAdjustmentFormats},
		{"live_photos", legacyLivePhotos},
		{"cloud_resources", legacyCloudResources},
	}
	for _, step := range steps {
		if err := step.run(db, ix); err != nil {
			return nil, errors.Wrap(err, "legacy ingest: "+step.name)
		}
	}

	ix.attachReferences()
	slog.Info("ingest_complete", "family", "legacy", "asset_count", len(ix.assets))
	return ix, nil
}

// legacyFaces joins detected faces to named persons on non-trashed assets.
// Rows with a null person name are skipped.
func legacyFaces(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT RKPerson.name, RKVersion.uuid
		FROM RKFace, RKPerson, RKVersion, RKMaster
		WHERE RKFace.personID = RKPerson.modelID
		  AND RKVersion.modelId = RKFace.imageModelId
		  AND RKVersion.masterUuid = RKMaster.uuid
		  AND RKVersion.filename NOT LIKE '%.pdf'
		  AND RKVersion.isInTrash = 0`)
	if err != nil {
		return errors.Wrap(err, "query faces")
	}
	defer rows.Close()

	for rows.Next() {
		var name sql.NullString
		var uuid string
		if err := rows.Scan(&name, &uuid); err != nil {
			return errors.Wrap(err, "scan face row")
		}
		if !name.Valid {
			continue
		}
		ix.byPerson[name.String] = append(ix.byPerson[name.String], uuid)
	}
	return rows.Err()
}

// legacyAlbums populates album membership from non-trashed assets, then
// fetches album detail rows. Modern-only detail fields stay nil.
func legacyAlbums(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT RKAlbum.uuid, RKVersion.uuid
		FROM RKAlbum, RKVersion, RKAlbumVersion
		WHERE RKAlbum.modelID = RKAlbumVersion.albumId
		  AND RKAlbumVersion.versionID = RKVersion.modelId
		  AND RKVersion.filename NOT LIKE '%.pdf'
		  AND RKVersion.isInTrash = 0`)
	if err != nil {
		return errors.Wrap(err, "query album membership")
	}
	defer rows.Close()

	for rows.Next() {
		var albumUUID, assetUUID string
		if err := rows.Scan(&albumUUID, &assetUUID); err != nil {
			return errors.Wrap(err, "scan album membership row")
		}
		ix.byAlbum[albumUUID] = append(ix.byAlbum[albumUUID], assetUUID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	details, err := db.Query(`
		SELECT uuid, name, cloudLibraryState, cloudIdentifier
		FROM RKAlbum
		WHERE isInTrash = 0`)
	if err != nil {
		return errors.Wrap(err, "query album details")
	}
	defer details.Close()

	for details.Next() {
		var uuid string
		var title, cloudID sql.NullString
		var libState sql.NullInt64
		if err := details.Scan(&uuid, &title, &libState, &cloudID); err != nil {
			return errors.Wrap(err, "scan album detail row")
		}
		ix.albums[uuid] = &Album{
			UUID:              uuid,
			Title:             title.String,
			CloudLibraryState: nullInt(libState),
			CloudIdentifier:   nullStr(cloudID),
		}
	}
	return details.Err()
}

func legacyKeywords(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT RKKeyword.name, RKVersion.uuid
		FROM RKKeyword, RKKeywordForVersion, RKVersion, RKMaster
		WHERE RKKeyword.modelId = RKKeywordForVersion.keywordID
		  AND RKVersion.modelID = RKKeywordForVersion.versionID
		  AND RKMaster.uuid = RKVersion.masterUuid
		  AND RKVersion.filename NOT LIKE '%.pdf'
		  AND RKVersion.isInTrash = 0`)
	if err != nil {
		return errors.Wrap(err, "query keywords")
	}
	defer rows.Close()

	for rows.Next() {
		var keyword, uuid string
		if err := rows.Scan(&keyword, &uuid); err != nil {
			return errors.Wrap(err, "scan keyword row")
		}
		ix.byKeyword[keyword] = append(ix.byKeyword[keyword], uuid)
	}
	return rows.Err()
}

// legacyVolumes is a flat id-to-name mapping, no filtering.
func legacyVolumes(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`SELECT RKVolume.modelId, RKVolume.name FROM RKVolume`)
	if err != nil {
		return errors.Wrap(err, "query volumes")
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return errors.Wrap(err, "scan volume row")
		}
		ix.volumes[id] = name
	}
	return rows.Err()
}

// legacyAssets runs the wide core join across the version/master tables,
// excluding trashed rows and PDFs.
func legacyAssets(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT RKVersion.uuid, RKVersion.modelId, RKVersion.masterUuid,
		       RKVersion.filename, RKVersion.lastmodifieddate, RKVersion.imageDate,
		       RKVersion.hasAdjustments, RKVersion.imageTimeZoneOffsetSeconds,
		       RKMaster.volumeId, RKVersion.extendedDescription, RKVersion.name,
		       RKMaster.isMissing, RKMaster.originalFileName, RKVersion.isFavorite,
		       RKVersion.isHidden, RKVersion.latitude, RKVersion.longitude,
		       RKVersion.adjustmentUuid, RKVersion.type, RKMaster.UTI,
		       RKVersion.burstUuid, RKVersion.burstPickType, RKVersion.specialType
		FROM RKVersion, RKMaster
		WHERE RKVersion.isInTrash = 0
		  AND RKVersion.masterUuid = RKMaster.uuid
		  AND RKVersion.filename NOT LIKE '%.pdf'`)
	if err != nil {
		return errors.Wrap(err, "query assets")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			uuid, masterUUID           string
			modelID                    int64
			filename                   string
			modDate, imageDate         sql.NullFloat64
			hasAdjustments             sql.NullInt64
			tzOffset, volumeID         sql.NullInt64
			description, title         sql.NullString
			isMissing                  sql.NullInt64
			originalFilename           sql.NullString
			favorite, hidden           sql.NullInt64
			latitude, longitude        sql.NullFloat64
			adjustmentUUID             sql.NullString
			typeCode                   sql.NullInt64
			uti                        sql.NullString
			burstUUID                  sql.NullString
			burstPickType, specialType sql.NullInt64
		)
		err := rows.Scan(&uuid, &modelID, &masterUUID, &filename, &modDate,
			&imageDate, &hasAdjustments, &tzOffset, &volumeID, &description,
			&title, &isMissing, &originalFilename, &favorite, &hidden,
			&latitude, &longitude, &adjustmentUUID, &typeCode, &uti,
			&burstUUID, &burstPickType, &specialType)
		if err != nil {
			return errors.Wrap(err, "scan asset row")
		}

		a := &Asset{
			UUID:             uuid,
			MasterUUID:       masterUUID,
			Filename:         filename,
			OriginalFilename: originalFilename.String,
			Title:            title.String,
			Description:      nullStr(description),
			UTI:              uti.String,
			TimeZoneOffset:   nullInt(tzOffset),
			Favorite:         favorite.Int64 != 0,
			Hidden:           hidden.Int64 != 0,
			HasAdjustments:   hasAdjustments.Int64 != 0,
			AdjustmentUUID:   adjustmentUUID.String,
			VolumeID:         nullInt(volumeID),
		}

		if imageDate.Valid {
			a.Date = cocoaTime(imageDate.Float64)
		}
		if modDate.Valid {
			a.ModDate = cocoaTime(modDate.Float64)
		} else {
			a.ModDate = a.Date
		}

		if latitude.Valid && longitude.Valid {
			lat, lon := latitude.Float64, longitude.Float64
			a.Latitude, a.Longitude = &lat, &lon
		}

		if isMissing.Valid {
			a.Missing = boolptr(isMissing.Int64 != 0)
		}

		switch typeCode.Int64 {
		case 2:
			a.Kind = KindImage
		case 8:
			a.Kind = KindMovie
		default:
			slog.Warn("asset_kind_unknown", "uuid", uuid, "code", typeCode.Int64)
			a.Kind = KindUnknown
		}

		if burstUUID.Valid {
			a.Burst = true
			a.BurstUUID = burstUUID.String
			// Pick types 2 and 4 are the non-selected members; anything else,
			// null included, is the representative.
			a.BurstKey = burstPickType.Int64 != 2 && burstPickType.Int64 != 4
			ix.bursts[a.BurstUUID] = append(ix.bursts[a.BurstUUID], uuid)
		}

		st := specialType.Int64
		a.Panorama = st == 1
		a.SlowMo = st == 2
		a.TimeLapse = st == 3
		a.HDR = st == 4 || st == 8
		a.LivePhoto = st == 5 || st == 8
		a.Screenshot = st == 6
		a.Portrait = st == 9
		// Selfie detection is not available in this schema family.
		a.Selfie = nil

		ix.assets[uuid] = a
	}
	return rows.Err()
}

// legacyEditResources resolves the resource row holding each asset's edit.
// A qualifying row's resource tag must equal the asset's adjustment uuid,
// the adjustment must not be one of the unadjusted sentinels, and the
// attachment type must be 2. When several rows qualify the last one seen
// wins; which one is correct is an undocumented vendor detail.
func legacyEditResources(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT RKVersion.uuid, RKVersion.adjustmentUuid, RKModelResource.modelId,
		       RKModelResource.resourceTag, RKModelResource.attachedModelType
		FROM RKVersion
		JOIN RKModelResource ON RKModelResource.attachedModelId = RKVersion.modelId
		WHERE RKVersion.isInTrash = 0`)
	if err != nil {
		return errors.Wrap(err, "query edit resources")
	}
	defer rows.Close()

	for rows.Next() {
		var uuid string
		var adjustmentUUID, resourceTag sql.NullString
		var resourceID int64
		var attachedType sql.NullInt64
		if err := rows.Scan(&uuid, &adjustmentUUID, &resourceID, &resourceTag, &attachedType); err != nil {
			return errors.Wrap(err, "scan edit resource row")
		}

		a, ok := ix.assets[uuid]
		if !ok {
			continue
		}
		if a.AdjustmentUUID == "" || a.AdjustmentUUID != resourceTag.String {
			continue
		}
		if adjustmentUUID.String == unadjustedRawTag || adjustmentUUID.String == unadjustedTag {
			continue
		}
		if attachedType.Int64 != 2 {
			continue
		}
		if a.EditResourceID != nil {
			slog.Warn("edit_resource_ambiguous",
				"uuid", uuid,
				"adjustment_uuid", adjustmentUUID.String,
				"kept_model_id", resourceID)
		}
		a.EditResourceID = &resourceID
	}
	return rows.Err()
}

// legacyAdjustmentFormats records the originating editor's format identifier
// for externally edited assets.
func legacyAdjustmentFormats(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT RKVersion.uuid, RKAdjustmentData.format
		FROM RKVersion, RKAdjustmentData
		WHERE RKVersion.adjustmentUuid = RKAdjustmentData.uuid
		  AND RKVersion.isInTrash = 0`)
	if err != nil {
		return errors.Wrap(err, "query adjustment formats")
	}
	defer rows.Close()

	for rows.Next() {
		var uuid string
		var format sql.NullString
		if err := rows.Scan(&uuid, &format); err != nil {
			return errors.Wrap(err, "scan adjustment format row")
		}
		a, ok := ix.assets[uuid]
		if !ok {
			slog.Debug("adjustment_orphaned", "uuid", uuid)
			continue
		}
		a.AdjustmentFormat = nullStr(format)
	}
	return rows.Err()
}

// legacyLivePhotos links each live photo to its paired video resource.
func legacyLivePhotos(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT RKVersion.uuid, RKModelResource.modelId, RKModelResource.isOnDisk
		FROM RKVersion
		INNER JOIN RKMaster ON RKVersion.masterUuid = RKMaster.uuid
		INNER JOIN RKModelResource ON RKMaster.modelId = RKModelResource.attachedModelId
		WHERE RKModelResource.UTI = 'com.apple.quicktime-movie'
		  AND RKMaster.isInTrash = 0
		  AND RKVersion.isInTrash = 0`)
	if err != nil {
		return errors.Wrap(err, "query live photo resources")
	}
	defer rows.Close()

	for rows.Next() {
		var uuid string
		var resourceID int64
		var onDisk sql.NullInt64
		if err := rows.Scan(&uuid, &resourceID, &onDisk); err != nil {
			return errors.Wrap(err, "scan live photo row")
		}
		a, ok := ix.assets[uuid]
		if !ok {
			continue
		}
		a.LiveResourceID = &resourceID
		a.LiveResourceOnDisk = boolptr(onDisk.Int64 == 1)
	}
	return rows.Err()
}

// legacyCloudResources joins cloud resource rows to assets through the
// master's content fingerprint.
func legacyCloudResources(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT RKVersion.uuid, RKMaster.cloudLibraryState,
		       RKCloudResource.available, RKCloudResource.status
		FROM RKCloudResource
		INNER JOIN RKMaster ON RKMaster.fingerprint = RKCloudResource.fingerprint
		INNER JOIN RKVersion ON RKVersion.masterUuid = RKMaster.uuid`)
	if err != nil {
		return errors.Wrap(err, "query cloud resources")
	}
	defer rows.Close()

	for rows.Next() {
		var uuid string
		var libState, available, status sql.NullInt64
		if err := rows.Scan(&uuid, &libState, &available, &status); err != nil {
			return errors.Wrap(err, "scan cloud resource row")
		}
		a, ok := ix.assets[uuid]
		if !ok {
			continue
		}
		a.CloudLibraryState = nullInt(libState)
		a.CloudAvailable = nullInt(available)
		a.CloudStatus = nullInt(status)
		a.InCloud = boolptr(available.Valid && available.Int64 == 1)
	}
	return rows.Err()
}
