package domain

import "math"

// rClampFloor keeps the mean resultant length away from zero so that
// CircularStd stays finite for uniformly spread angles.
const rClampFloor = 1e-12

// CircularMean returns the mean direction of a set of angles in radians,
// computed as atan2(mean sin, mean cos). NaN inputs are ignored; if every
// input is NaN (or the set is empty) the result is NaN.
func CircularMean(angles []float64) float64 {
	sinSum, cosSum, n := sumSinCos(angles)
	if n == 0 {
		return math.NaN()
	}
	return math.Atan2(sinSum/float64(n), cosSum/float64(n))
}

// CircularStd returns the circular standard deviation sqrt(-2 ln R), where R
// is the mean resultant length clamped to [1e-12, 1]. It is 0 when all angles
// coincide and grows without bound (but stays finite) as the distribution
// approaches uniform. NaN inputs are ignored; all-NaN input yields NaN.
func CircularStd(angles []float64) float64 {
	sinSum, cosSum, n := sumSinCos(angles)
	if n == 0 {
		return math.NaN()
	}
	s := sinSum / float64(n)
	c := cosSum / float64(n)
	r := math.Hypot(s, c)
	if r < rClampFloor {
		r = rClampFloor
	} else if r > 1 {
		// Floating-point roundoff can push R marginally above 1.
		r = 1
	}
	return math.Sqrt(-2 * math.Log(r))
}

// AngularDelta returns the shortest-path signed difference between two angles
// in radians, in (-π, π]. Needed because a naive subtraction of 359° from 1°
// reports 358° where the true separation is 2°.
func AngularDelta(a, b float64) float64 {
	d := a - b
	return math.Atan2(math.Sin(d), math.Cos(d))
}

func sumSinCos(angles []float64) (sinSum, cosSum float64, n int) {
	for _, a := range angles {
		if math.IsNaN(a) {
			continue
		}
		sinSum += math.Sin(a)
		cosSum += math.Cos(a)
		n++
	}
	return sinSum, cosSum, n
}
