// Package domain models SAR-derived sea-ice drift vector observations.
//
// # Data Source
//
// Drift vectors come from daily SAR feature-tracking output: each record pairs
// a feature located in one SAR acquisition (File1) with the same feature in a
// later acquisition (File2), giving a start position, an end position, and the
// elapsed time. The upstream tracker writes one delimited text file per day;
// this converter reads those files, screens the vectors, and emits GIS-ready
// artifacts (GeoPackage, NetCDF via CDL, quicklook PNGs).
//
// # Conventions
//
// Time:
//
//	Time1_JS and Time2_JS are Julian seconds, seconds elapsed since
//	2000-01-01 00:00:00 UTC. Converted to UTC timestamps at load.
//
// Position:
//
//	Lon/Lat are WGS-84 degrees. Projected positions (X, Y) are meters in
//	EPSG:3413 (NSIDC Sea Ice Polar Stereographic North, lat_ts 70°N,
//	lon_0 -45°). All neighbor geometry runs in projected meters.
//
// Kinematics:
//
//	Bear_deg is the drift bearing in degrees clockwise from true north,
//	[0, 360). A bearing of exactly 0 is the upstream tracker's sentinel for
//	a failed retrieval; those rows are dropped at load. Distance traveled is
//	the planar displacement in kilometers, hypot(X2-X1, Y2-Y1)/1000.
//
// Scenes:
//
//	Observations sharing one (File1, File2) acquisition pair form a Scene.
//	Neighbor searches never cross scene boundaries: vectors from different
//	image pairs are not physically comparable. Scene ids are 1-based and
//	assigned in lexicographic order of the identifier pair so that repeated
//	runs over the same file number scenes identically.
//
// # Outlier Categories
//
// Each observation carries a two-digit category code, {reason}{confidence}:
//
//	reason     0 none | 1 distance | 2 bearing | 3 both
//	confidence 0 neighbor count below minimum | 1 at/above minimum
//
// "00" and "01" are inliers. The code is formatted only at output
// boundaries; internally reason and confidence are separate enumerations.
package domain
