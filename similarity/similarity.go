// Package similarity groups cached hashes into near-duplicate pairs.
package similarity

import (
	"sort"

	"imagedup/cache"
	"imagedup/types"
)

// Threshold is the largest Hamming distance at which two images count as
// near-duplicates
const Threshold = 9

// FindPairs compares every unordered pair of entries once and returns the
// pairs within threshold, ordered by distance and then by path
func FindPairs(entries []types.CacheEntry, threshold int) []types.SimilarPair {
	pairs := make([]types.SimilarPair, 0)
	if len(entries) < 2 {
		return pairs
	}

	sorted := make([]types.CacheEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for i := 0; i < len(sorted); i++ {
		a := sorted[i]
		for j := i + 1; j < len(sorted); j++ {
			b := sorted[j]
			d := a.Hash.Distance(b.Hash)
			if d > threshold {
				continue
			}
			pairs = append(pairs, types.SimilarPair{A: a.Path, B: b.Path, Distance: d})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Distance != pairs[j].Distance {
			return pairs[i].Distance < pairs[j].Distance
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

// FindDuplicates runs FindPairs over every entry in the store
func FindDuplicates(store *cache.Store, threshold int) []types.SimilarPair {
	return FindPairs(store.Entries(), threshold)
}

// Groups merges pairs into clusters of transitively similar paths. Each
// cluster is sorted and clusters are ordered by their first path.
func Groups(pairs []types.SimilarPair) [][]string {
	adjacent := make(map[string][]string)
	for _, p := range pairs {
		adjacent[p.A] = append(adjacent[p.A], p.B)
		adjacent[p.B] = append(adjacent[p.B], p.A)
	}

	seen := make(map[string]bool, len(adjacent))
	groups := make([][]string, 0)
	for start := range adjacent {
		if seen[start] {
			continue
		}

		var group []string
		queue := []string{start}
		seen[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			group = append(group, cur)
			for _, next := range adjacent[cur] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}

		sort.Strings(group)
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

// FindMatches returns the entries within threshold of hash, closest first
func FindMatches(entries []types.CacheEntry, hash types.ImageHash, threshold int) []types.ImageMatch {
	matches := make([]types.ImageMatch, 0)
	for _, e := range entries {
		d := e.Hash.Distance(hash)
		if d > threshold {
			continue
		}
		matches = append(matches, types.ImageMatch{Path: e.Path, Hash: e.Hash.String(), Distance: d})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Path < matches[j].Path
	})
	return matches
}
