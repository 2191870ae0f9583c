package outlier

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

// buildSceneStats recomputes neighbor sets and z-scores for the pool members
// of one scene. Only pool members are touched; observations outside the pool
// keep whatever was stored for them last.
//
// Distance uses ordinary mean and population standard deviation. Bearing uses
// circular statistics with the residual taken along the shortest angular arc,
// so a neighborhood straddling north does not produce spurious spread.
func buildSceneStats(obs []domain.Observation, members []int, radius float64, precision int) {
	idx := newNeighborIndex(obs, members)

	for i, m := range members {
		o := &obs[m]

		neighbors := idx.within(i, radius)
		sort.Ints(neighbors)
		o.Neighbors = neighbors
		o.NeighborCount = len(neighbors)

		if len(neighbors) == 0 {
			o.DistanceZ = math.NaN()
			o.BearingZ = math.NaN()
			continue
		}

		dists := make([]float64, len(neighbors))
		bears := make([]float64, len(neighbors))
		for j, n := range neighbors {
			dists[j] = obs[n].DistanceKm
			bears[j] = obs[n].BearingRad
		}

		distMean := stat.Mean(dists, nil)
		distStd := stat.PopStdDev(dists, nil)
		o.DistanceZ = roundTo(zScore(o.DistanceKm-distMean, distStd), precision)

		bearMean := domain.CircularMean(bears)
		bearStd := domain.CircularStd(bears)
		delta := domain.AngularDelta(o.BearingRad, bearMean)
		o.BearingZ = roundTo(zScore(delta, bearStd), precision)
	}
}

// zScore is |residual|/std, or NaN when the spread is zero or undefined. A
// degenerate neighborhood carries no evidence either way, and NaN compares
// false against any threshold.
func zScore(residual, std float64) float64 {
	if std == 0 || math.IsNaN(std) {
		return math.NaN()
	}
	return math.Abs(residual) / std
}

func roundTo(v float64, precision int) float64 {
	if math.IsNaN(v) {
		return v
	}
	p := math.Pow(10, float64(precision))
	return math.Round(v*p) / p
}
