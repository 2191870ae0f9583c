package domain

import (
	"math"
	"time"
)

// Reason identifies which metric flagged an observation as an outlier.
type Reason uint8

const (
	ReasonNone     Reason = 0 // neither metric exceeds the threshold
	ReasonDistance Reason = 1 // distance z-score only
	ReasonBearing  Reason = 2 // bearing z-score only
	ReasonBoth     Reason = 3 // distance and bearing
)

// Confidence reports whether the neighborhood was large enough for the
// z-scores to be statistically meaningful.
type Confidence uint8

const (
	LowConfidence  Confidence = 0 // neighbor count below the minimum
	HighConfidence Confidence = 1 // neighbor count at/above the minimum
)

// Category is the outlier classification of one observation. It is stored as
// the two component enumerations and formatted as a two-digit code only at
// output boundaries.
type Category struct {
	Reason     Reason
	Confidence Confidence
}

// InitialCategory is the provisional classification every observation starts
// with: not flagged, high confidence. All observations enter the first
// neighbor pool regardless of their true neighbor count.
var InitialCategory = Category{Reason: ReasonNone, Confidence: HighConfidence}

// Code renders the category as the two-digit code used in output files,
// e.g. "01" or "31".
func (c Category) Code() string {
	return string([]byte{'0' + byte(c.Reason), '0' + byte(c.Confidence)})
}

// Inlier reports whether the observation is treated as an inlier: reason 0,
// at either confidence level.
func (c Category) Inlier() bool { return c.Reason == ReasonNone }

// Observation is one drift vector. Position and kinematics are immutable
// after loading; only the classification state mutates, and only inside the
// outlier engine.
type Observation struct {
	// Index is the observation's position in the input file after row
	// cleaning. Output ordering and neighbor index lists both refer to it.
	Index int

	// Source acquisition identifiers and the satellite prefixes derived
	// from them (characters before the first underscore).
	File1, File2 string
	Sat1, Sat2   string

	Date1, Date2 time.Time
	JSDuration   float64 // observation period in seconds

	// Geographic start/end positions, WGS-84 degrees.
	Lon1, Lat1, Lon2, Lat2 float64

	// Projected start/end positions, EPSG:3413 meters.
	X1, Y1, X2, Y2 float64

	// Planar displacement in meters and velocity in km/day.
	DX, DY         float64
	UKmDay, VKmDay float64

	DistanceKm float64 // planar distance traveled, kilometers
	BearingDeg float64 // degrees clockwise from true north, [0,360)
	BearingRad float64
	BearSin    float64
	BearCos    float64

	// SceneID groups observations by acquisition pair; assigned by
	// PartitionScenes, 1-based.
	SceneID int

	// Classification state. Neighbors holds the observation indices of the
	// last-computed neighbor set. Z-scores are NaN until a neighborhood
	// with positive spread has been seen.
	Neighbors     []int
	NeighborCount int
	DistanceZ     float64
	BearingZ      float64
	Category      Category
}

// SetBearing records the bearing in degrees and derives the radian form and
// its sine/cosine, which the circular statistics consume.
func (o *Observation) SetBearing(deg float64) {
	o.BearingDeg = deg
	o.BearingRad = deg * math.Pi / 180
	o.BearSin = math.Sin(o.BearingRad)
	o.BearCos = math.Cos(o.BearingRad)
}

// ResetClassification returns the observation to its pre-screening state.
func (o *Observation) ResetClassification() {
	o.Neighbors = nil
	o.NeighborCount = 0
	o.DistanceZ = math.NaN()
	o.BearingZ = math.NaN()
	o.Category = InitialCategory
}
