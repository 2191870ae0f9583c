// Package geopackage writes classified drift vectors as an OGC GeoPackage.
// A GeoPackage is an sqlite database with a fixed set of metadata tables;
// feature geometries are WKB wrapped in the GeoPackage binary header.
package geopackage

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	_ "modernc.org/sqlite"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

// SRSID is the spatial reference of every layer, NSIDC Sea Ice Polar
// Stereographic North.
const SRSID = 3413

const srs3413WKT = `PROJCS["WGS 84 / NSIDC Sea Ice Polar Stereographic North",` +
	`GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],` +
	`PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]],` +
	`PROJECTION["Polar_Stereographic"],` +
	`PARAMETER["latitude_of_origin",70],PARAMETER["central_meridian",-45],` +
	`PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1]]`

// Layer names, one .gpkg holds all three.
const (
	StartPointsLayer = "start_points"
	EndPointsLayer   = "end_points"
	DriftLinesLayer  = "drift_lines"
)

// Write creates a GeoPackage at path holding the file's observations as
// three layers: start points, end points, and the drift segments between
// them. Writing over an existing GeoPackage fails; products are never
// appended.
func Write(path string, obs []domain.Observation) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open geopackage: %w", err)
	}
	defer db.Close()

	if err := initContainer(db); err != nil {
		return fmt.Errorf("geopackage %s: %w", path, err)
	}

	layers := []struct {
		name     string
		geomType string
		geom     func(o *domain.Observation) orb.Geometry
	}{
		{StartPointsLayer, "POINT", func(o *domain.Observation) orb.Geometry {
			return orb.Point{o.X1, o.Y1}
		}},
		{EndPointsLayer, "POINT", func(o *domain.Observation) orb.Geometry {
			return orb.Point{o.X2, o.Y2}
		}},
		{DriftLinesLayer, "LINESTRING", func(o *domain.Observation) orb.Geometry {
			return orb.LineString{{o.X1, o.Y1}, {o.X2, o.Y2}}
		}},
	}
	for _, layer := range layers {
		if err := writeLayer(db, layer.name, layer.geomType, obs, layer.geom); err != nil {
			return fmt.Errorf("geopackage %s layer %s: %w", path, layer.name, err)
		}
	}
	return db.Close()
}

// initContainer stamps the sqlite file as a GeoPackage and creates the
// required metadata tables.
func initContainer(db *sql.DB) error {
	stmts := []string{
		`PRAGMA application_id = 1196444487`, // "GPKG"
		`PRAGMA user_version = 10300`,        // GeoPackage 1.3
		`CREATE TABLE gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE gpkg_contents (
			table_name TEXT NOT NULL PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER,
			CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
		)`,
		`CREATE TABLE gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init container: %w", err)
		}
	}

	srs := []struct {
		name  string
		id    int
		org   string
		orgID int
		def   string
		descr string
	}{
		{"Undefined cartesian SRS", -1, "NONE", -1, "undefined", "undefined cartesian coordinate reference system"},
		{"Undefined geographic SRS", 0, "NONE", 0, "undefined", "undefined geographic coordinate reference system"},
		{"WGS 84 / NSIDC Sea Ice Polar Stereographic North", SRSID, "EPSG", SRSID, srs3413WKT, ""},
	}
	for _, s := range srs {
		if _, err := db.Exec(
			`INSERT INTO gpkg_spatial_ref_sys
			 (srs_name, srs_id, organization, organization_coordsys_id, definition, description)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			s.name, s.id, s.org, s.orgID, s.def, s.descr,
		); err != nil {
			return fmt.Errorf("register srs %d: %w", s.id, err)
		}
	}
	return nil
}

func writeLayer(db *sql.DB, name, geomType string, obs []domain.Observation, geom func(*domain.Observation) orb.Geometry) error {
	if _, err := db.Exec(fmt.Sprintf(`CREATE TABLE %s (
		fid INTEGER PRIMARY KEY AUTOINCREMENT,
		geom BLOB,
		file1 TEXT, file2 TEXT, sat1 TEXT, sat2 TEXT,
		date1 TEXT, date2 TEXT, duration_s DOUBLE,
		lon1 DOUBLE, lat1 DOUBLE, lon2 DOUBLE, lat2 DOUBLE,
		u_kmday DOUBLE, v_kmday DOUBLE, dist_km DOUBLE, bear_deg DOUBLE,
		scene INTEGER, neighbors INTEGER,
		dist_z DOUBLE, bear_z DOUBLE,
		category TEXT
	)`, name)); err != nil {
		return err
	}

	var minX, minY, maxX, maxY float64
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s
		(geom, file1, file2, sat1, sat2, date1, date2, duration_s,
		 lon1, lat1, lon2, lat2, u_kmday, v_kmday, dist_km, bear_deg,
		 scene, neighbors, dist_z, bear_z, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, name))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range obs {
		o := &obs[i]
		g := geom(o)

		blob, err := encodeGeometry(g)
		if err != nil {
			return fmt.Errorf("encode geometry %d: %w", i, err)
		}
		if _, err := stmt.Exec(
			blob, o.File1, o.File2, o.Sat1, o.Sat2,
			o.Date1.UTC().Format(time.RFC3339), o.Date2.UTC().Format(time.RFC3339),
			o.JSDuration,
			o.Lon1, o.Lat1, o.Lon2, o.Lat2,
			o.UKmDay, o.VKmDay, o.DistanceKm, o.BearingDeg,
			o.SceneID, o.NeighborCount,
			nullableFloat(o.DistanceZ), nullableFloat(o.BearingZ),
			o.Category.Code(),
		); err != nil {
			return fmt.Errorf("insert feature %d: %w", i, err)
		}

		b := g.Bound()
		if i == 0 {
			minX, minY, maxX, maxY = b.Min[0], b.Min[1], b.Max[0], b.Max[1]
		} else {
			minX = math.Min(minX, b.Min[0])
			minY = math.Min(minY, b.Min[1])
			maxX = math.Max(maxX, b.Max[0])
			maxY = math.Max(maxY, b.Max[1])
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if _, err := db.Exec(
		`INSERT INTO gpkg_contents
		 (table_name, data_type, identifier, min_x, min_y, max_x, max_y, srs_id)
		 VALUES (?, 'features', ?, ?, ?, ?, ?, ?)`,
		name, name, minX, minY, maxX, maxY, SRSID,
	); err != nil {
		return err
	}
	if _, err := db.Exec(
		`INSERT INTO gpkg_geometry_columns
		 (table_name, column_name, geometry_type_name, srs_id, z, m)
		 VALUES (?, 'geom', ?, ?, 0, 0)`,
		name, geomType, SRSID,
	); err != nil {
		return err
	}
	return nil
}

// encodeGeometry wraps little-endian WKB in the GeoPackage binary header:
// magic "GP", version 0, flags (little-endian, no envelope), SRS id.
func encodeGeometry(g orb.Geometry) ([]byte, error) {
	body, err := wkb.Marshal(g)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 8)
	header[0], header[1] = 'G', 'P'
	header[2] = 0    // version
	header[3] = 0x01 // flags: byte order bit only
	binary.LittleEndian.PutUint32(header[4:], uint32(SRSID))
	return append(header, body...), nil
}

func nullableFloat(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
