package assembly

import "sort"

// Truncate admits items in priority order until the budget is spent.
// The scan is a single forward greedy pass: an item that does not fit is
// skipped whole (no partial admission) and leaves the remaining space to
// whatever lower-priority items happen to fit. It deliberately does not
// back-fill or solve a knapsack; predictability beats optimality here.
// Equal priorities keep their insertion order (stable sort).
func Truncate(items []Item, budget int) Built {
	if len(items) == 0 {
		return Built{}
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	var out Built
	for _, it := range sorted {
		cost := CountTokens(it.Content)
		if out.TotalTokens+cost > budget {
			out.Truncated = true
			continue
		}
		out.Items = append(out.Items, it)
		out.TotalTokens += cost
	}
	return out
}
