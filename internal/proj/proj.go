// Package proj projects WGS-84 geographic coordinates to EPSG:3413
// (NSIDC Sea Ice Polar Stereographic North), the grid all neighbor geometry
// and GIS outputs use. Only the forward projection is needed: input files
// carry lon/lat, every downstream consumer works in projected meters.
package proj

import "math"

// WGS-84 ellipsoid.
const (
	semiMajor  = 6378137.0
	flattening = 1 / 298.257223563
)

// EPSG:3413 parameters: true-scale latitude 70°N, central meridian 45°W,
// no false easting/northing.
const (
	latTrueScaleDeg    = 70.0
	centralMeridianDeg = -45.0
)

var (
	e2 = flattening * (2 - flattening)
	e  = math.Sqrt(e2)

	latTS = latTrueScaleDeg * math.Pi / 180
	lon0  = centralMeridianDeg * math.Pi / 180

	// Constants of the true-scale parallel (Snyder 1987, eq. 14-15, 15-9).
	mC = math.Cos(latTS) / math.Sqrt(1-e2*math.Sin(latTS)*math.Sin(latTS))
	tC = tsfn(latTS)
)

// ToEPSG3413 projects a WGS-84 longitude/latitude (degrees) to EPSG:3413
// easting/northing in meters. The north pole maps to (0, 0). It is a pure
// function and safe for concurrent use.
func ToEPSG3413(lonDeg, latDeg float64) (x, y float64) {
	lam := lonDeg * math.Pi / 180
	phi := latDeg * math.Pi / 180

	rho := semiMajor * mC * tsfn(phi) / tC
	return rho * math.Sin(lam - lon0), -rho * math.Cos(lam - lon0)
}

// tsfn is Snyder's t function (eq. 15-9) for the ellipsoidal polar
// stereographic projection.
func tsfn(phi float64) float64 {
	sinPhi := math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) /
		math.Pow((1-e*sinPhi)/(1+e*sinPhi), e/2)
}
