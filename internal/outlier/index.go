// Package outlier screens drift vectors against their spatial neighborhoods.
//
// The engine runs per input file: observations are partitioned into scenes,
// and each iteration rebuilds a radius neighbor index from the current inlier
// pool, recomputes neighborhood z-scores for pool members, and reclassifies
// every observation. The loop stops when the inlier count stabilizes or the
// iteration budget runs out. Observations flagged in an earlier iteration
// keep their last-computed z-scores and neighbor sets: they are frozen, not
// removed, which is what makes the stop condition a fixed point.
package outlier

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

// bruteForceLimit is the pool size below which the all-pairs scan beats the
// quadtree (build cost dominates for tiny scenes).
const bruteForceLimit = 32

// poolPoint ties a quadtree entry back to its observation index.
type poolPoint struct {
	idx int
	pt  orb.Point
}

func (p poolPoint) Point() orb.Point { return p.pt }

// neighborIndex answers fixed-radius neighbor queries over one scene's pool.
// Positions never change, but pool membership does, so the index is rebuilt
// from the current pool each iteration rather than updated incrementally.
type neighborIndex struct {
	points []poolPoint
	tree   *quadtree.Quadtree // nil when the brute-force path is used
}

// newNeighborIndex builds an index over the pool members of one scene.
// members holds observation indices into obs.
func newNeighborIndex(obs []domain.Observation, members []int) *neighborIndex {
	idx := &neighborIndex{points: make([]poolPoint, len(members))}

	bound := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
	for i, m := range members {
		pt := orb.Point{obs[m].X1, obs[m].Y1}
		idx.points[i] = poolPoint{idx: m, pt: pt}
		bound = bound.Extend(pt)
	}

	if len(members) > bruteForceLimit {
		// Pad so points sitting exactly on the bound stay insertable.
		tree := quadtree.New(bound.Pad(1))
		for _, p := range idx.points {
			// Add only errors for points outside the bound, which the
			// bound construction above rules out.
			_ = tree.Add(p)
		}
		idx.tree = tree
	}
	return idx
}

// within returns the observation indices of all pool members inside the
// closed ball of the given radius around the i-th pool member, excluding the
// member itself.
func (x *neighborIndex) within(i int, radius float64) []int {
	center := x.points[i]
	r2 := radius * radius

	var out []int
	if x.tree == nil {
		for _, p := range x.points {
			if p.idx != center.idx && sqDist(p.pt, center.pt) <= r2 {
				out = append(out, p.idx)
			}
		}
		return out
	}

	box := orb.Bound{
		Min: orb.Point{center.pt[0] - radius, center.pt[1] - radius},
		Max: orb.Point{center.pt[0] + radius, center.pt[1] + radius},
	}
	for _, ptr := range x.tree.InBound(nil, box) {
		p := ptr.(poolPoint)
		if p.idx != center.idx && sqDist(p.pt, center.pt) <= r2 {
			out = append(out, p.idx)
		}
	}
	return out
}

func sqDist(a, b orb.Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}
