package photodb

import (
	"database/sql"
	"log/slog"

	"github.com/photodex/photodex/pkg/errors"
)

// geoSentinel: a latitude/longitude pair both equal to -180.0 means the
// modern schema stored no coordinate.
const geoSentinel = -180.0

// IngestModern builds the unified index from a rewritten-schema library
// snapshot. Produces the same unified fields as IngestLegacy; only the join
// keys and encodings differ.
func IngestModern(store *Store, version string) (*Index, error) {
	slog.Info("ingest_start", "family", "modern", "version", version)
	ix := newIndex(version, FamilyModern)

	db := store.DB()
	steps := []struct {
		name string
		run  func(*sql.DB, *Index) error
	}{
		{"faces", modernFaces},
		{"albums", modernAlbums},
		{"keywords", modernKeywords},
		{"volumes", modernVolumes},
		{"assets", modernAssets},
		{"descriptions", modernDescriptions},
		{"adjustment_formats", modernAdjustmentFormats},
		{"availability", modernAvailability},
		{"cloud_state", modernCloudState},
	}
	for _, step := range steps {
		if err := step.run(db, ix); err != nil {
			return nil, errors.Wrap(err, "modern ingest: "+step.name)
		}
	}

	ix.attachReferences()
	slog.Info("ingest_complete", "family", "modern", "asset_count", len(ix.assets))
	return ix, nil
}

// modernFaces joins detected faces to persons on non-trashed assets. An
// empty person name still counts as a detected face and maps to the unknown
// person placeholder; a null name is skipped.
func modernFaces(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT ZPERSON.ZFULLNAME, ZGENERICASSET.ZUUID
		FROM ZPERSON, ZDETECTEDFACE, ZGENERICASSET
		WHERE ZDETECTEDFACE.ZPERSON = ZPERSON.Z_PK
		  AND ZDETECTEDFACE.ZASSET = ZGENERICASSET.Z_PK
		  AND ZGENERICASSET.ZTRASHEDSTATE = 0`)
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
		person := name.String
		if person == "" {
			person = UnknownPersonName
		}
		ix.byPerson[person] = append(ix.byPerson[person], uuid)
	}
	return rows.Err()
}

// modernAlbums populates album membership through the album join table, then
// fetches album details. Legacy-only detail fields stay nil.
func modernAlbums(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT ZGENERICALBUM.ZUUID, ZGENERICASSET.ZUUID
		FROM ZGENERICASSET
		JOIN Z_26ASSETS ON Z_26ASSETS.Z_34ASSETS = ZGENERICASSET.Z_PK
		JOIN ZGENERICALBUM ON ZGENERICALBUM.Z_PK = Z_26ASSETS.Z_26ALBUMS
		WHERE ZGENERICASSET.ZTRASHEDSTATE = 0`)
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
		SELECT ZUUID, ZTITLE, ZCLOUDLOCALSTATE, ZCLOUDOWNERFIRSTNAME,
		       ZCLOUDOWNERLASTNAME, ZCLOUDOWNERHASHEDPERSONID
		FROM ZGENERICALBUM`)
	if err != nil {
		return errors.Wrap(err, "query album details")
	}
	defer details.Close()

	for details.Next() {
		var uuid string
		var title, ownerFirst, ownerLast, ownerID sql.NullString
		var localState sql.NullInt64
		if err := details.Scan(&uuid, &title, &localState, &ownerFirst, &ownerLast, &ownerID); err != nil {
			return errors.Wrap(err, "scan album detail row")
		}
		ix.albums[uuid] = &Album{
			UUID:                uuid,
			Title:               title.String,
			CloudLocalState:     nullInt(localState),
			CloudOwnerFirstName: nullStr(ownerFirst),
			CloudOwnerLastName:  nullStr(ownerLast),
			CloudOwnerID:        nullStr(ownerID),
		}
	}
	return details.Err()
}

func modernKeywords(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT ZKEYWORD.ZTITLE, ZGENERICASSET.ZUUID
		FROM ZGENERICASSET
		JOIN ZADDITIONALASSETATTRIBUTES ON ZADDITIONALASSETATTRIBUTES.ZASSET = ZGENERICASSET.Z_PK
		JOIN Z_1KEYWORDS ON Z_1KEYWORDS.Z_1ASSETATTRIBUTES = ZADDITIONALASSETATTRIBUTES.Z_PK
		JOIN ZKEYWORD ON ZKEYWORD.Z_PK = Z_1KEYWORDS.Z_37KEYWORDS
		WHERE ZGENERICASSET.ZTRASHEDSTATE = 0`)
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

// modernVolumes fetches the filesystem volume catalog. The modern core join
// does not reference volumes per asset, so these only feed name lookups.
func modernVolumes(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`SELECT Z_PK, ZNAME FROM ZFILESYSTEMVOLUME`)
	if err != nil {
		return errors.Wrap(err, "query volumes")
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name sql.NullString
		if err := rows.Scan(&id, &name); err != nil {
			return errors.Wrap(err, "scan volume row")
		}
		ix.volumes[id] = name.String
	}
	return rows.Err()
}

// modernAssets runs the wide core join across the asset and asset-attribute
// tables, excluding trashed rows.
func modernAssets(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT ZGENERICASSET.ZUUID,
		       ZADDITIONALASSETATTRIBUTES.ZMASTERFINGERPRINT,
		       ZADDITIONALASSETATTRIBUTES.ZTITLE,
		       ZADDITIONALASSETATTRIBUTES.ZORIGINALFILENAME,
		       ZGENERICASSET.ZMODIFICATIONDATE,
		       ZGENERICASSET.ZDATECREATED,
		       ZADDITIONALASSETATTRIBUTES.ZTIMEZONEOFFSET,
		       ZGENERICASSET.ZHIDDEN,
		       ZGENERICASSET.ZFAVORITE,
		       ZGENERICASSET.ZDIRECTORY,
		       ZGENERICASSET.ZFILENAME,
		       ZGENERICASSET.ZLATITUDE,
		       ZGENERICASSET.ZLONGITUDE,
		       ZGENERICASSET.ZHASADJUSTMENTS,
		       ZGENERICASSET.ZCLOUDBATCHPUBLISHDATE,
		       ZGENERICASSET.ZKIND,
		       ZGENERICASSET.ZUNIFORMTYPEIDENTIFIER,
		       ZGENERICASSET.ZAVALANCHEUUID,
		       ZGENERICASSET.ZAVALANCHEPICKTYPE,
		       ZGENERICASSET.ZKINDSUBTYPE,
		       ZGENERICASSET.ZCUSTOMRENDEREDVALUE,
		       ZADDITIONALASSETATTRIBUTES.ZCAMERACAPTUREDEVICE,
		       ZGENERICASSET.ZCLOUDASSETGUID
		FROM ZGENERICASSET
		JOIN ZADDITIONALASSETATTRIBUTES ON ZADDITIONALASSETATTRIBUTES.ZASSET = ZGENERICASSET.Z_PK
		WHERE ZGENERICASSET.ZTRASHEDSTATE = 0
		ORDER BY ZGENERICASSET.ZUUID`)
	if err != nil {
		return errors.Wrap(err, "query assets")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			uuid                        string
			fingerprint                 sql.NullString
			title, originalFilename     sql.NullString
			modDate, createDate         sql.NullFloat64
			tzOffset                    sql.NullInt64
			hidden, favorite            sql.NullInt64
			directory, filename         sql.NullString
			latitude, longitude         sql.NullFloat64
			hasAdjustments              sql.NullInt64
			publishDate                 sql.NullFloat64
			kindCode                    sql.NullInt64
			uti                         sql.NullString
			avalancheUUID               sql.NullString
			avalanchePick, kindSubtype  sql.NullInt64
			renderedValue, cameraDevice sql.NullInt64
			cloudGUID                   sql.NullString
		)
		err := rows.Scan(&uuid, &fingerprint, &title, &originalFilename,
			&modDate, &createDate, &tzOffset, &hidden, &favorite, &directory,
			&filename, &latitude, &longitude, &hasAdjustments, &publishDate,
			&kindCode, &uti, &avalancheUUID, &avalanchePick, &kindSubtype,
			&renderedValue, &cameraDevice, &cloudGUID)
		if err != nil {
			return errors.Wrap(err, "scan asset row")
		}

		a := &Asset{
			UUID:              uuid,
			MasterFingerprint: fingerprint.String,
			Title:             title.String,
			OriginalFilename:  originalFilename.String,
			Filename:          filename.String,
			Directory:         directory.String,
			UTI:               uti.String,
			TimeZoneOffset:    nullInt(tzOffset),
			Hidden:            hidden.Int64 != 0,
			Favorite:          favorite.Int64 != 0,
			HasAdjustments:    hasAdjustments.Int64 != 0,
			Shared:            publishDate.Valid,
			CloudAssetGUID:    nullStr(cloudGUID),
		}

		if createDate.Valid {
			a.Date = cocoaTime(createDate.Float64)
		}
		if modDate.Valid {
			a.ModDate = cocoaTime(modDate.Float64)
		} else {
			a.ModDate = a.Date
		}

		// Both coordinates at -180.0 is the schema's null.
		if latitude.Valid && longitude.Valid &&
			!(latitude.Float64 == geoSentinel && longitude.Float64 == geoSentinel) {
			lat, lon := latitude.Float64, longitude.Float64
			a.Latitude, a.Longitude = &lat, &lon
		}

		switch kindCode.Int64 {
		case 0:
			a.Kind = KindImage
		case 1:
			a.Kind = KindMovie
		default:
			slog.Warn("asset_kind_unknown", "uuid", uuid, "code", kindCode.Int64)
			a.Kind = KindUnknown
		}

		if avalancheUUID.Valid {
			a.Burst = true
			a.BurstUUID = avalancheUUID.String
			// Same pick-type rule as the legacy schema, different field name.
			a.BurstKey = avalanchePick.Int64 != 2 && avalanchePick.Int64 != 4
			ix.bursts[a.BurstUUID] = append(ix.bursts[a.BurstUUID], uuid)
		}

		sub := kindSubtype.Int64
		rendered := renderedValue.Int64
		a.LivePhoto = sub == 2
		a.Screenshot = sub == 10
		a.SlowMo = sub == 101
		a.TimeLapse = sub == 102
		a.HDR = rendered == 3
		a.Portrait = rendered == 8
		a.Panorama = sub == 1 || rendered == 6
		a.Selfie = boolptr(cameraDevice.Valid && cameraDevice.Int64 == 1)

		ix.assets[uuid] = a
	}
	return rows.Err()
}

// modernDescriptions merges extended description text in by uuid after the
// primary pass. Rows referencing an unknown asset are dropped.
func modernDescriptions(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT ZGENERICASSET.ZUUID, ZASSETDESCRIPTION.ZLONGDESCRIPTION
		FROM ZGENERICASSET
		JOIN ZADDITIONALASSETATTRIBUTES ON ZADDITIONALASSETATTRIBUTES.ZASSET = ZGENERICASSET.Z_PK
		JOIN ZASSETDESCRIPTION ON ZASSETDESCRIPTION.Z_PK = ZADDITIONALASSETATTRIBUTES.ZASSETDESCRIPTION
		ORDER BY ZGENERICASSET.ZUUID`)
	if err != nil {
		return errors.Wrap(err, "query descriptions")
	}
	defer rows.Close()

	for rows.Next() {
		var uuid string
		var text sql.NullString
		if err := rows.Scan(&uuid, &text); err != nil {
			return errors.Wrap(err, "scan description row")
		}
		a, ok := ix.assets[uuid]
		if !ok {
			slog.Warn("description_orphaned", "uuid", uuid)
			continue
		}
		a.Description = nullStr(text)
	}
	return rows.Err()
}

func modernAdjustmentFormats(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT ZGENERICASSET.ZUUID, ZUNMANAGEDADJUSTMENT.ZADJUSTMENTFORMATIDENTIFIER
		FROM ZGENERICASSET
		JOIN ZADDITIONALASSETATTRIBUTES ON ZADDITIONALASSETATTRIBUTES.ZASSET = ZGENERICASSET.Z_PK
		JOIN ZUNMANAGEDADJUSTMENT ON ZUNMANAGEDADJUSTMENT.Z_PK = ZADDITIONALASSETATTRIBUTES.ZUNMANAGEDADJUSTMENT
		WHERE ZGENERICASSET.ZTRASHEDSTATE = 0`)
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
			slog.Warn("adjustment_orphaned", "uuid", uuid)
			continue
		}
		a.AdjustmentFormat = nullStr(format)
	}
	return rows.Err()
}

// modernAvailability derives local/remote availability and the missing flag
// in two passes. The first is filtered to specific store subtypes; the
// second joins by master fingerprint and unconditionally overwrites whatever
// the first pass set. The fingerprint pass is authoritative whenever both
// touch the same asset; keep this order.
func modernAvailability(db *sql.DB, ix *Index) error {
	passes := []string{
		`SELECT ZGENERICASSET.ZUUID,
		        ZINTERNALRESOURCE.ZLOCALAVAILABILITY,
		        ZINTERNALRESOURCE.ZREMOTEAVAILABILITY
		 FROM ZGENERICASSET
		 JOIN ZADDITIONALASSETATTRIBUTES ON ZADDITIONALASSETATTRIBUTES.ZASSET = ZGENERICASSET.Z_PK
		 JOIN ZINTERNALRESOURCE ON ZINTERNALRESOURCE.ZASSET = ZADDITIONALASSETATTRIBUTES.ZASSET
		 WHERE ZDATASTORESUBTYPE = 0 OR ZDATASTORESUBTYPE = 3`,
		`SELECT ZGENERICASSET.ZUUID,
		        ZINTERNALRESOURCE.ZLOCALAVAILABILITY,
		        ZINTERNALRESOURCE.ZREMOTEAVAILABILITY
		 FROM ZGENERICASSET
		 JOIN ZADDITIONALASSETATTRIBUTES ON ZADDITIONALASSETATTRIBUTES.ZASSET = ZGENERICASSET.Z_PK
		 JOIN ZINTERNALRESOURCE ON ZINTERNALRESOURCE.ZFINGERPRINT = ZADDITIONALASSETATTRIBUTES.ZMASTERFINGERPRINT`,
	}
	for _, query := range passes {
		if err := availabilityPass(db, ix, query); err != nil {
			return err
		}
	}
	return nil
}

func availabilityPass(db *sql.DB, ix *Index, query string) error {
	rows, err := db.Query(query)
	if err != nil {
		return errors.Wrap(err, "query availability")
	}
	defer rows.Close()

	for rows.Next() {
		var uuid string
		var local, remote sql.NullInt64
		if err := rows.Scan(&uuid, &local, &remote); err != nil {
			return errors.Wrap(err, "scan availability row")
		}
		a, ok := ix.assets[uuid]
		if !ok {
			continue
		}
		a.LocalAvailability = nullInt(local)
		a.RemoteAvailability = nullInt(remote)
		a.Missing = boolptr(local.Int64 != 1)
	}
	return rows.Err()
}

// modernCloudState joins cloud sync state through the cloud-master record.
func modernCloudState(db *sql.DB, ix *Index) error {
	rows, err := db.Query(`
		SELECT ZGENERICASSET.ZUUID, ZCLOUDMASTER.ZCLOUDLOCALSTATE
		FROM ZCLOUDMASTER, ZGENERICASSET
		WHERE ZGENERICASSET.ZMASTER = ZCLOUDMASTER.Z_PK`)
	if err != nil {
		return errors.Wrap(err, "query cloud state")
	}
	defer rows.Close()

	for rows.Next() {
		var uuid string
		var localState sql.NullInt64
		if err := rows.Scan(&uuid, &localState); err != nil {
			return errors.Wrap(err, "scan cloud state row")
		}
		a, ok := ix.assets[uuid]
		if !ok {
			continue
		}
		a.CloudLocalState = nullInt(localState)
		a.InCloud = boolptr(localState.Valid && localState.Int64 == 3)
	}
	return rows.Err()
}
