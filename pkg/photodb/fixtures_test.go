package photodb

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

// The two fixture builders below encode the same logical library in the two
// physical layouts: assets a..h plus u (unknown kind), one trashed asset and
// one PDF row that ingestion must exclude, keywords cat/dog, person Alice,
// two same-titled "Trip" album records, a burst pair and one edited asset.

func openFixture(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open fixture db: %v", err)
	}
	return db
}

func execAll(t *testing.T, db *sql.DB, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture statement failed: %v\n%s", err, stmt)
		}
	}
}

func insert(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("fixture insert failed: %v\n%s", err, query)
	}
}

func at(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

// cocoa converts a time to the store's native representation, seconds since
// 2001-01-01 UTC.
func cocoa(tm time.Time) float64 {
	return tm.Sub(cocoaEpoch).Seconds()
}

var fixtureDates = map[string]time.Time{
	"a": at(2021, time.January, 10, 12, 0, 0),
	"b": at(2021, time.January, 15, 9, 30, 0),
	"c": at(2021, time.January, 20, 18, 45, 0),
	"d": at(2021, time.January, 25, 8, 0, 0),
	"e": at(2021, time.February, 1, 20, 15, 0),
	"f": at(2021, time.January, 31, 0, 0, 0),
	"g": at(2021, time.January, 31, 0, 0, 10),
	"h": at(2021, time.March, 5, 14, 0, 0),
	"u": at(2021, time.April, 1, 10, 0, 0),
}

func buildLegacyFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "photos.db")
	db := openFixture(t, path)
	defer db.Close()

	execAll(t, db,
		`CREATE TABLE LiGlobals (keyPath TEXT, value TEXT)`,
		`CREATE TABLE RKMaster (uuid TEXT, modelId INTEGER, fingerprint TEXT,
			volumeId INTEGER, isMissing INTEGER, originalFileName TEXT, UTI TEXT,
			cloudLibraryState INTEGER, isInTrash INTEGER)`,
		`CREATE TABLE RKVersion (uuid TEXT, modelId INTEGER, masterUuid TEXT,
			filename TEXT, lastmodifieddate REAL, imageDate REAL,
			hasAdjustments INTEGER, imageTimeZoneOffsetSeconds INTEGER,
			extendedDescription TEXT, name TEXT, isFavorite INTEGER,
			isHidden INTEGER, latitude REAL, longitude REAL, adjustmentUuid TEXT,
			type INTEGER, burstUuid TEXT, burstPickType INTEGER,
			specialType INTEGER, isInTrash INTEGER)`,
		`CREATE TABLE RKFace (personID INTEGER, imageModelId INTEGER)`,
		`CREATE TABLE RKPerson (modelID INTEGER, name TEXT)`,
		`CREATE TABLE RKAlbum (uuid TEXT, modelID INTEGER, name TEXT,
			cloudLibraryState INTEGER, cloudIdentifier TEXT, isInTrash INTEGER)`,
		`CREATE TABLE RKAlbumVersion (albumId INTEGER, versionID INTEGER)`,
		`CREATE TABLE RKKeyword (modelId INTEGER, name TEXT)`,
		`CREATE TABLE RKKeywordForVersion (keywordID INTEGER, versionID INTEGER)`,
		`CREATE TABLE RKVolume (modelId INTEGER, name TEXT)`,
		`CREATE TABLE RKModelResource (modelId INTEGER, attachedModelId INTEGER,
			attachedModelType INTEGER, resourceTag TEXT, UTI TEXT, isOnDisk INTEGER)`,
		`CREATE TABLE RKAdjustmentData (uuid TEXT, originator TEXT, format TEXT)`,
		`CREATE TABLE RKCloudResource (fingerprint TEXT, available INTEGER, status INTEGER)`,
	)

	insert(t, db, `INSERT INTO LiGlobals VALUES ('libraryVersion', '4025')`)

	// masters: uuid, modelId, fingerprint, volumeId, isMissing, originalFileName, UTI, cloudLibraryState, isInTrash
	type master struct {
		key       string
		modelID   int64
		volumeID  any
		isMissing int64
		origName  string
		uti       string
	}
	masters := []master{
		{"a", 1, nil, 0, "IMG_a.JPG", "public.jpeg"},
		{"b", 2, nil, 1, "IMG_b.JPG", "public.jpeg"},
		{"c", 3, nil, 0, "IMG_c.JPG", "public.jpeg"},
		{"d", 4, nil, 0, "IMG_d.JPG", "public.jpeg"},
		{"e", 5, int64(7), 0, "MOV_e.MOV", "com.apple.quicktime-movie"},
		{"f", 6, nil, 0, "IMG_f.JPG", "public.jpeg"},
		{"g", 7, nil, 0, "IMG_g.JPG", "public.jpeg"},
		{"h", 8, nil, 0, "IMG_h.JPG", "public.jpeg"},
		{"u", 11, nil, 0, "IMG_u.RAW", "public.camera-raw-image"},
	}
	for _, m := range masters {
		insert(t, db, `INSERT INTO RKMaster VALUES (?, ?, ?, ?, ?, ?, ?, NULL, 0)`,
			"m-"+m.key, m.modelID, "fp-"+m.key, m.volumeID, m.isMissing,
			m.origName, m.uti)
	}
	insert(t, db, `INSERT INTO RKMaster VALUES ('m-trash', 9, 'fp-trash', NULL, 0, 'T.JPG', 'public.jpeg', NULL, 0)`)
	insert(t, db, `INSERT INTO RKMaster VALUES ('m-pdf', 10, 'fp-pdf', NULL, 0, 'S.PDF', 'com.adobe.pdf', NULL, 0)`)

	// versions
	mod := func(key string) any { return cocoa(fixtureDates[key].Add(time.Hour)) }
	insert(t, db, `INSERT INTO RKVersion VALUES ('a', 1, 'm-a', 'IMG_a.JPG', ?, ?, 0, NULL, NULL, 'Golden Gate', 1, 0, 37.7749, -122.4194, NULL, 2, NULL, NULL, NULL, 0)`,
		mod("a"), cocoa(fixtureDates["a"]))
	insert(t, db, `INSERT INTO RKVersion VALUES ('b', 2, 'm-b', 'IMG_b.JPG', ?, ?, 0, NULL, NULL, NULL, 0, 0, NULL, NULL, NULL, 2, NULL, NULL, NULL, 0)`,
		mod("b"), cocoa(fixtureDates["b"]))
	insert(t, db, `INSERT INTO RKVersion VALUES ('c', 3, 'm-c', 'IMG_c.JPG', ?, ?, 1, NULL, 'Sunset hike', NULL, 0, 0, NULL, NULL, 'adj-c', 2, NULL, NULL, NULL, 0)`,
		mod("c"), cocoa(fixtureDates["c"]))
	insert(t, db, `INSERT INTO RKVersion VALUES ('d', 4, 'm-d', 'IMG_d.JPG', NULL, ?, 0, NULL, NULL, NULL, 0, 1, NULL, NULL, NULL, 2, NULL, NULL, 1, 0)`,
		cocoa(fixtureDates["d"]))
	insert(t, db, `INSERT INTO RKVersion VALUES ('e', 5, 'm-e', 'MOV_e.MOV', ?, ?, 0, NULL, NULL, NULL, 0, 0, NULL, NULL, NULL, 8, NULL, NULL, NULL, 0)`,
		mod("e"), cocoa(fixtureDates["e"]))
	insert(t, db, `INSERT INTO RKVersion VALUES ('f', 6, 'm-f', 'IMG_f.JPG', ?, ?, 0, NULL, NULL, NULL, 0, 0, NULL, NULL, NULL, 2, 'burst-1', NULL, NULL, 0)`,
		mod("f"), cocoa(fixtureDates["f"]))
	insert(t, db, `INSERT INTO RKVersion VALUES ('g', 7, 'm-g', 'IMG_g.JPG', ?, ?, 0, NULL, NULL, NULL, 0, 0, NULL, NULL, NULL, 2, 'burst-1', 2, NULL, 0)`,
		mod("g"), cocoa(fixtureDates["g"]))
	insert(t, db, `INSERT INTO RKVersion VALUES ('h', 8, 'm-h', 'IMG_h.JPG', ?, ?, 0, NULL, NULL, NULL, 0, 0, NULL, NULL, NULL, 2, NULL, NULL, 5, 0)`,
		mod("h"), cocoa(fixtureDates["h"]))
	insert(t, db, `INSERT INTO RKVersion VALUES ('u', 11, 'm-u', 'IMG_u.RAW', ?, ?, 0, NULL, NULL, NULL, 0, 0, NULL, NULL, NULL, 3, NULL, NULL, NULL, 0)`,
		mod("u"), cocoa(fixtureDates["u"]))
	insert(t, db, `INSERT INTO RKVersion VALUES ('trash', 9, 'm-trash', 'IMG_t.JPG', NULL, ?, 0, NULL, NULL, NULL, 0, 0, NULL, NULL, NULL, 2, NULL, NULL, NULL, 1)`,
		cocoa(fixtureDates["a"]))
	insert(t, db, `INSERT INTO RKVersion VALUES ('pdf', 10, 'm-pdf', 'scan.pdf', NULL, ?, 0, NULL, NULL, NULL, 0, 0, NULL, NULL, NULL, 2, NULL, NULL, NULL, 0)`,
		cocoa(fixtureDates["a"]))

	execAll(t, db,
		`INSERT INTO RKPerson VALUES (1, 'Alice')`,
		`INSERT INTO RKPerson VALUES (2, NULL)`,
		`INSERT INTO RKFace VALUES (1, 1)`,
		`INSERT INTO RKFace VALUES (1, 3)`,
		`INSERT INTO RKFace VALUES (2, 2)`,

		`INSERT INTO RKAlbum VALUES ('alb-1', 10, 'Trip', NULL, NULL, 0)`,
		`INSERT INTO RKAlbum VALUES ('alb-2', 11, 'Trip', NULL, NULL, 0)`,
		`INSERT INTO RKAlbum VALUES ('alb-trash', 12, 'Old', NULL, NULL, 1)`,
		`INSERT INTO RKAlbumVersion VALUES (10, 3)`,
		`INSERT INTO RKAlbumVersion VALUES (10, 4)`,
		`INSERT INTO RKAlbumVersion VALUES (11, 1)`,

		`INSERT INTO RKKeyword VALUES (1, 'cat')`,
		`INSERT INTO RKKeyword VALUES (2, 'dog')`,
		`INSERT INTO RKKeywordForVersion VALUES (1, 1)`,
		`INSERT INTO RKKeywordForVersion VALUES (1, 2)`,
		`INSERT INTO RKKeywordForVersion VALUES (2, 2)`,
		`INSERT INTO RKKeywordForVersion VALUES (2, 3)`,

		`INSERT INTO RKVolume VALUES (7, 'ExternalDrive')`,

		// qualifying edit for c, plus one row with the wrong attachment type
		`INSERT INTO RKModelResource VALUES (100, 3, 2, 'adj-c', 'public.jpeg', 1)`,
		`INSERT INTO RKModelResource VALUES (102, 3, 1, 'adj-c', 'public.jpeg', 1)`,
		// live photo movie resource for h
		`INSERT INTO RKModelResource VALUES (200, 8, 2, NULL, 'com.apple.quicktime-movie', 1)`,

		`INSERT INTO RKAdjustmentData VALUES ('adj-c', 'Photos', 'com.apple.photo')`,

		`INSERT INTO RKCloudResource VALUES ('fp-a', 1, 4)`,
	)

	if err := db.Close(); err != nil {
		t.Fatalf("failed to close fixture db: %v", err)
	}
	return path
}

func buildModernFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "Photos.sqlite")
	db := openFixture(t, path)
	defer db.Close()

	createModernSchema(t, db)

	// assets: Z_PK, ZUUID, mod, created, hidden, favorite, directory, filename,
	// lat, lon, hasAdj, publishDate, kind, uti, avalancheUUID, avalanchePick,
	// kindSubtype, renderedValue, cloudGUID, trashed, master
	mod := func(key string) any { return cocoa(fixtureDates[key].Add(time.Hour)) }
	asset := `INSERT INTO ZGENERICASSET VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insert(t, db, asset, 1, "a", mod("a"), cocoa(fixtureDates["a"]), 0, 1, "0", "IMG_a.JPG",
		37.7749, -122.4194, 0, nil, 0, "public.jpeg", nil, nil, nil, nil, nil, 0, 1)
	insert(t, db, asset, 2, "b", mod("b"), cocoa(fixtureDates["b"]), 0, 0, "0", "IMG_b.JPG",
		-180.0, -180.0, 0, nil, 0, "public.jpeg", nil, nil, nil, nil, nil, 0, nil)
	insert(t, db, asset, 3, "c", mod("c"), cocoa(fixtureDates["c"]), 0, 0, "0", "IMG_c.JPG",
		nil, nil, 1, nil, 0, "public.jpeg", nil, nil, nil, nil, nil, 0, nil)
	insert(t, db, asset, 4, "d", nil, cocoa(fixtureDates["d"]), 1, 0, "0", "IMG_d.JPG",
		nil, nil, 0, nil, 0, "public.jpeg", nil, nil, 1, nil, nil, 0, nil)
	insert(t, db, asset, 5, "e", mod("e"), cocoa(fixtureDates["e"]), 0, 0, "0", "MOV_e.MOV",
		nil, nil, 0, nil, 1, "com.apple.quicktime-movie", nil, nil, nil, nil, nil, 0, nil)
	insert(t, db, asset, 6, "f", mod("f"), cocoa(fixtureDates["f"]), 0, 0, "0", "IMG_f.JPG",
		nil, nil, 0, nil, 0, "public.jpeg", "burst-1", nil, nil, nil, nil, 0, nil)
	insert(t, db, asset, 7, "g", mod("g"), cocoa(fixtureDates["g"]), 0, 0, "0", "IMG_g.JPG",
		nil, nil, 0, nil, 0, "public.jpeg", "burst-1", 2, nil, nil, nil, 0, nil)
	insert(t, db, asset, 8, "h", mod("h"), cocoa(fixtureDates["h"]), 0, 0, "0", "IMG_h.JPG",
		nil, nil, 0, nil, 0, "public.jpeg", nil, nil, 2, nil, nil, 0, nil)
	insert(t, db, asset, 11, "u", mod("u"), cocoa(fixtureDates["u"]), 0, 0, "0", "IMG_u.RAW",
		nil, nil, 0, nil, 9, "public.camera-raw-image", nil, nil, nil, nil, nil, 0, nil)
	insert(t, db, asset, 9, "trash", nil, cocoa(fixtureDates["a"]), 0, 0, "0", "IMG_t.JPG",
		nil, nil, 0, nil, 0, "public.jpeg", nil, nil, nil, nil, nil, 1, nil)

	// attributes: Z_PK, ZASSET, fingerprint, title, originalFilename,
	// tzOffset, cameraDevice, descriptionRef, adjustmentRef
	attr := `INSERT INTO ZADDITIONALASSETATTRIBUTES VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insert(t, db, attr, 1, 1, "fp-a", "Golden Gate", "IMG_a.JPG", nil, nil, nil, nil)
	insert(t, db, attr, 2, 2, "fp-b", nil, "IMG_b.JPG", nil, nil, nil, nil)
	insert(t, db, attr, 3, 3, "fp-c", nil, "IMG_c.JPG", nil, nil, 50, 60)
	insert(t, db, attr, 4, 4, "fp-d", nil, "IMG_d.JPG", nil, 1, nil, nil)
	insert(t, db, attr, 5, 5, "fp-e", nil, "MOV_e.MOV", nil, nil, nil, nil)
	insert(t, db, attr, 6, 6, "fp-f", nil, "IMG_f.JPG", nil, nil, nil, nil)
	insert(t, db, attr, 7, 7, "fp-g", nil, "IMG_g.JPG", nil, nil, nil, nil)
	insert(t, db, attr, 8, 8, "fp-h", nil, "IMG_h.JPG", nil, nil, nil, nil)
	insert(t, db, attr, 11, 11, "fp-u", nil, "IMG_u.RAW", nil, nil, nil, nil)
	insert(t, db, attr, 9, 9, "fp-trash", nil, "IMG_t.JPG", nil, nil, 51, nil)

	execAll(t, db,
		`INSERT INTO ZASSETDESCRIPTION VALUES (50, 'Sunset hike')`,
		`INSERT INTO ZASSETDESCRIPTION VALUES (51, 'orphan note')`,
		`INSERT INTO ZUNMANAGEDADJUSTMENT VALUES (60, 'com.apple.photo')`,

		`INSERT INTO ZPERSON VALUES (20, 'Alice')`,
		`INSERT INTO ZPERSON VALUES (21, NULL)`,
		`INSERT INTO ZDETECTEDFACE VALUES (20, 1)`,
		`INSERT INTO ZDETECTEDFACE VALUES (20, 3)`,
		`INSERT INTO ZDETECTEDFACE VALUES (21, 2)`,

		`INSERT INTO ZGENERICALBUM VALUES (30, 'alb-1', 'Trip', NULL, NULL, NULL, NULL)`,
		`INSERT INTO ZGENERICALBUM VALUES (31, 'alb-2', 'Trip', NULL, NULL, NULL, NULL)`,
		`INSERT INTO Z_26ASSETS VALUES (30, 3)`,
		`INSERT INTO Z_26ASSETS VALUES (30, 4)`,
		`INSERT INTO Z_26ASSETS VALUES (31, 1)`,

		`INSERT INTO ZKEYWORD VALUES (40, 'cat')`,
		`INSERT INTO ZKEYWORD VALUES (41, 'dog')`,
		`INSERT INTO Z_1KEYWORDS VALUES (1, 40)`,
		`INSERT INTO Z_1KEYWORDS VALUES (2, 40)`,
		`INSERT INTO Z_1KEYWORDS VALUES (2, 41)`,
		`INSERT INTO Z_1KEYWORDS VALUES (3, 41)`,

		// availability pass 1 (store-subtype filter): b looks locally present
		`INSERT INTO ZINTERNALRESOURCE VALUES (2, NULL, 1, 0, 0)`,
		// availability pass 2 (fingerprint join) overrides: b is missing
		`INSERT INTO ZINTERNALRESOURCE VALUES (NULL, 'fp-b', 0, 1, 1)`,
		`INSERT INTO ZINTERNALRESOURCE VALUES (NULL, 'fp-a', 1, 1, 1)`,
		`INSERT INTO ZINTERNALRESOURCE VALUES (NULL, 'fp-c', 1, 1, 1)`,
		`INSERT INTO ZINTERNALRESOURCE VALUES (NULL, 'fp-d', 1, 1, 1)`,
		`INSERT INTO ZINTERNALRESOURCE VALUES (NULL, 'fp-e', 1, 1, 1)`,
		`INSERT INTO ZINTERNALRESOURCE VALUES (NULL, 'fp-f', 1, 1, 1)`,
		`INSERT INTO ZINTERNALRESOURCE VALUES (NULL, 'fp-g', 1, 1, 1)`,
		`INSERT INTO ZINTERNALRESOURCE VALUES (NULL, 'fp-h', 1, 1, 1)`,
		`INSERT INTO ZINTERNALRESOURCE VALUES (NULL, 'fp-u', 1, 1, 1)`,

		`INSERT INTO ZCLOUDMASTER VALUES (1, 3)`,

		`INSERT INTO ZFILESYSTEMVOLUME VALUES (7, 'ExternalDrive')`,
	)

	if err := db.Close(); err != nil {
		t.Fatalf("failed to close fixture db: %v", err)
	}
	return path
}

func createModernSchema(t *testing.T, db *sql.DB) {
	t.Helper()
	execAll(t, db,
		`CREATE TABLE ZGENERICASSET (Z_PK INTEGER, ZUUID TEXT,
			ZMODIFICATIONDATE REAL, ZDATECREATED REAL, ZHIDDEN INTEGER,
			ZFAVORITE INTEGER, ZDIRECTORY TEXT, ZFILENAME TEXT, ZLATITUDE REAL,
			ZLONGITUDE REAL, ZHASADJUSTMENTS INTEGER, ZCLOUDBATCHPUBLISHDATE REAL,
			ZKIND INTEGER, ZUNIFORMTYPEIDENTIFIER TEXT, ZAVALANCHEUUID TEXT,
			ZAVALANCHEPICKTYPE INTEGER, ZKINDSUBTYPE INTEGER,
			ZCUSTOMRENDEREDVALUE INTEGER, ZCLOUDASSETGUID TEXT,
			ZTRASHEDSTATE INTEGER, ZMASTER INTEGER)`,
		`CREATE TABLE ZADDITIONALASSETATTRIBUTES (Z_PK INTEGER, ZASSET INTEGER,
			ZMASTERFINGERPRINT TEXT, ZTITLE TEXT, ZORIGINALFILENAME TEXT,
			ZTIMEZONEOFFSET INTEGER, ZCAMERACAPTUREDEVICE INTEGER,
			ZASSETDESCRIPTION INTEGER, ZUNMANAGEDADJUSTMENT INTEGER)`,
		`CREATE TABLE ZPERSON (Z_PK INTEGER, ZFULLNAME TEXT)`,
		`CREATE TABLE ZDETECTEDFACE (ZPERSON INTEGER, ZASSET INTEGER)`,
		`CREATE TABLE ZGENERICALBUM (Z_PK INTEGER, ZUUID TEXT, ZTITLE TEXT,
			ZCLOUDLOCALSTATE INTEGER, ZCLOUDOWNERFIRSTNAME TEXT,
			ZCLOUDOWNERLASTNAME TEXT, ZCLOUDOWNERHASHEDPERSONID TEXT)`,
		`CREATE TABLE Z_26ASSETS (Z_26ALBUMS INTEGER, Z_34ASSETS INTEGER)`,
		`CREATE TABLE ZKEYWORD (Z_PK INTEGER, ZTITLE TEXT)`,
		`CREATE TABLE Z_1KEYWORDS (Z_1ASSETATTRIBUTES INTEGER, Z_37KEYWORDS INTEGER)`,
		`CREATE TABLE ZASSETDESCRIPTION (Z_PK INTEGER, ZLONGDESCRIPTION TEXT)`,
		`CREATE TABLE ZUNMANAGEDADJUSTMENT (Z_PK INTEGER, ZADJUSTMENTFORMATIDENTIFIER TEXT)`,
		`CREATE TABLE ZINTERNALRESOURCE (ZASSET INTEGER, ZFINGERPRINT TEXT,
			ZLOCALAVAILABILITY INTEGER, ZREMOTEAVAILABILITY INTEGER,
			ZDATASTORESUBTYPE INTEGER)`,
		`CREATE TABLE ZCLOUDMASTER (Z_PK INTEGER, ZCLOUDLOCALSTATE INTEGER)`,
		`CREATE TABLE ZFILESYSTEMVOLUME (Z_PK INTEGER, ZNAME TEXT)`,
	)
}

func ingestFixture(t *testing.T, path string, family SchemaFamily, version string) *Index {
	t.Helper()
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("failed to open fixture store: %v", err)
	}
	defer store.Close()

	var ix *Index
	if family == FamilyModern {
		ix, err = IngestModern(store, version)
	} else {
		ix, err = IngestLegacy(store, version)
	}
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	return ix
}
