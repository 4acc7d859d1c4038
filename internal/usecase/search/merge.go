package search

import "github.com/nordveil/shopsearch/internal/domain/search"

// mergeByMax unions two scored result sets by product id, keeping the higher
// score when a product appears in both. Order is resolved by the caller.
func mergeByMax(a, b []search.Hit) []search.Hit {
	merged := make([]search.Hit, 0, len(a)+len(b))
	merged = append(merged, a...)

	index := make(map[string]int, len(a))
	for i := range merged {
		index[merged[i].Product().ID] = i
	}

	for _, h := range b {
		id := h.Product().ID
		if j, ok := index[id]; ok {
			existing, _ := merged[j].Score()
			candidate, _ := h.Score()
			if candidate > existing {
				merged[j] = h
			}
			continue
		}
		index[id] = len(merged)
		merged = append(merged, h)
	}

	return merged
}
