package domain

import "sort"

// scenePair is the acquisition-pair identity that defines a scene.
type scenePair struct {
	file1, file2 string
}

// PartitionScenes assigns a SceneID to every observation such that two
// observations share an id iff they share both source-image identifiers.
// Ids are 1-based and assigned in lexicographic order of the (File1, File2)
// pair, so the numbering is stable across runs and independent of row order.
// Observations are labeled in place; input order is preserved.
//
// It returns the scene membership as observation index lists keyed by id.
func PartitionScenes(obs []Observation) map[int][]int {
	pairs := make([]scenePair, 0)
	seen := make(map[scenePair]struct{})
	for i := range obs {
		p := scenePair{obs[i].File1, obs[i].File2}
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			pairs = append(pairs, p)
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].file1 != pairs[j].file1 {
			return pairs[i].file1 < pairs[j].file1
		}
		return pairs[i].file2 < pairs[j].file2
	})

	ids := make(map[scenePair]int, len(pairs))
	for i, p := range pairs {
		ids[p] = i + 1
	}

	scenes := make(map[int][]int, len(pairs))
	for i := range obs {
		id := ids[scenePair{obs[i].File1, obs[i].File2}]
		obs[i].SceneID = id
		scenes[id] = append(scenes[id], i)
	}
	return scenes
}
