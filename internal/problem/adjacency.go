package problem

import (
	"fmt"
	"sort"
)

// AdjacencyMap maps a region to its neighbors. It must be symmetric.
type AdjacencyMap map[int][]int

// DefaultAdjacency is the six-region sample map used by the baseline
// experiments.
func DefaultAdjacency() AdjacencyMap {
	return AdjacencyMap{
		0: {1, 2},
		1: {0, 2, 3},
		2: {0, 1, 3, 4},
		3: {1, 2, 4, 5},
		4: {2, 3, 5},
		5: {3, 4},
	}
}

// RegionCount is one past the highest region id mentioned anywhere in the map.
func (a AdjacencyMap) RegionCount() int {
	count := 0
	for region, neighbors := range a {
		if region+1 > count {
			count = region + 1
		}
		for _, n := range neighbors {
			if n+1 > count {
				count = n + 1
			}
		}
	}
	return count
}

// Entries counts directed adjacency entries; every edge appears twice.
func (a AdjacencyMap) Entries() int {
	total := 0
	for _, neighbors := range a {
		total += len(neighbors)
	}
	return total
}

// EdgeCount is the number of undirected edges.
func (a AdjacencyMap) EdgeCount() int {
	return a.Entries() / 2
}

// Validate checks ids are in [0, regions), there are no self loops or
// duplicate neighbors, and the map is symmetric.
func (a AdjacencyMap) Validate(regions int) error {
	for _, region := range a.sortedRegions() {
		if region < 0 || region >= regions {
			return fmt.Errorf("%w: region %d outside [0,%d)", ErrInvalidAdjacency, region, regions)
		}
		seen := make(map[int]struct{}, len(a[region]))
		for _, n := range a[region] {
			if n < 0 || n >= regions {
				return fmt.Errorf("%w: neighbor %d of region %d outside [0,%d)", ErrInvalidAdjacency, n, region, regions)
			}
			if n == region {
				return fmt.Errorf("%w: region %d lists itself as neighbor", ErrInvalidAdjacency, region)
			}
			if _, dup := seen[n]; dup {
				return fmt.Errorf("%w: region %d lists neighbor %d twice", ErrInvalidAdjacency, region, n)
			}
			seen[n] = struct{}{}
			if !a.has(n, region) {
				return fmt.Errorf("%w: edge %d-%d is not symmetric", ErrInvalidAdjacency, region, n)
			}
		}
	}
	return nil
}

func (a AdjacencyMap) Clone() AdjacencyMap {
	if a == nil {
		return nil
	}
	out := make(AdjacencyMap, len(a))
	for region, neighbors := range a {
		out[region] = append([]int(nil), neighbors...)
	}
	return out
}

// Symmetric returns a copy where every listed edge appears in both
// directions.
func (a AdjacencyMap) Symmetric() AdjacencyMap {
	out := a.Clone()
	for _, region := range a.sortedRegions() {
		for _, n := range a[region] {
			if !out.has(n, region) {
				out[n] = append(out[n], region)
			}
		}
	}
	return out
}

func (a AdjacencyMap) has(region, neighbor int) bool {
	for _, n := range a[region] {
		if n == neighbor {
			return true
		}
	}
	return false
}

func (a AdjacencyMap) sortedRegions() []int {
	regions := make([]int, 0, len(a))
	for region := range a {
		regions = append(regions, region)
	}
	sort.Ints(regions)
	return regions
}
