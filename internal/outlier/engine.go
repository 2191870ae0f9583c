package outlier

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

// Config holds the screening tunables. Zero values fall back to the
// operational defaults where a zero makes no sense on its own.
type Config struct {
	// RadiusKm is the neighbor search radius in kilometers, applied in
	// projected EPSG:3413 coordinates.
	RadiusKm float64

	// MinNeighbors is the neighbor count at or above which a classification
	// is high confidence.
	MinNeighbors int

	// IterCount caps the number of screening passes.
	IterCount int

	// ZThreshold is the z-score above which a vector is flagged. Defaults
	// to 3 when zero.
	ZThreshold float64

	// Precision is the number of decimals z-scores are rounded to when
	// stored.
	Precision int

	// Workers bounds the number of scenes screened concurrently. Defaults
	// to GOMAXPROCS when zero.
	Workers int
}

func (c Config) withDefaults() Config {
	if c.ZThreshold == 0 {
		c.ZThreshold = 3
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// RunState reports how a screening run ended.
type RunState int

const (
	// MaxIterReached means the iteration budget ran out before the pool
	// stabilized. This is a normal outcome, not an error.
	MaxIterReached RunState = iota

	// Converged means the inlier count was unchanged between two passes.
	Converged
)

func (s RunState) String() string {
	switch s {
	case Converged:
		return "converged"
	case MaxIterReached:
		return "max_iter_reached"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// Result carries the diagnostics of one screening run. The classified
// observations themselves are mutated in place.
type Result struct {
	State RunState

	// Iterations is the number of completed compute passes.
	Iterations int

	// InlierCounts records the pool size observed at the top of each
	// iteration, including the one that triggered convergence.
	InlierCounts []int
}

// Screen classifies obs in place and returns run diagnostics.
//
// Scene membership is assigned up front and never revisited. Each pass
// rebuilds per-scene neighbor indexes from the current inlier pool, rewrites
// z-scores for pool members, and reclassifies everything. Scenes are
// independent, so passes fan out across them.
func Screen(obs []domain.Observation, cfg Config) Result {
	cfg = cfg.withDefaults()

	for i := range obs {
		obs[i].ResetClassification()
	}
	scenes := domain.PartitionScenes(obs)

	radius := cfg.RadiusKm * 1000 // projected coordinates are meters

	res := Result{State: MaxIterReached}
	prev := -1
	for iter := 1; iter <= cfg.IterCount; iter++ {
		pool := 0
		for i := range obs {
			if obs[i].Category.Inlier() {
				pool++
			}
		}
		res.InlierCounts = append(res.InlierCounts, pool)
		if pool == prev {
			res.State = Converged
			break
		}
		prev = pool

		screenPass(obs, scenes, radius, cfg)
		classifyAll(obs, cfg.ZThreshold, cfg.MinNeighbors)
		res.Iterations = iter
	}
	return res
}

// screenPass rebuilds statistics for the current pool, one scene at a time,
// with at most cfg.Workers scenes in flight. Scenes write to disjoint index
// sets, so no locking is needed on the shared slice.
func screenPass(obs []domain.Observation, scenes map[int][]int, radius float64, cfg Config) {
	sem := make(chan struct{}, cfg.Workers)
	var wg sync.WaitGroup
	for _, members := range scenes {
		pool := make([]int, 0, len(members))
		for _, m := range members {
			if obs[m].Category.Inlier() {
				pool = append(pool, m)
			}
		}
		if len(pool) == 0 {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(pool []int) {
			defer wg.Done()
			defer func() { <-sem }()
			buildSceneStats(obs, pool, radius, cfg.Precision)
		}(pool)
	}
	wg.Wait()
}
