package palette

import "sort"

// kdNode is a minimal 3-dimensional k-d tree over the linear-RGB cube,
// built by Resolve and used only when a frame declares 16 or more valid
// palette entries. It lives as long as the Resolved palette that owns it;
// it is not cached across Resolve calls.
type kdNode struct {
	index       int // index into Entries
	axis        int // 0=r, 1=g, 2=b
	left, right *kdNode
}

func buildKDTree(indices []int, entries []Entry, depth int) *kdNode {
	if len(indices) == 0 {
		return nil
	}
	axis := depth % 3

	sorted := append([]int(nil), indices...)
	sort.Slice(sorted, func(i, j int) bool {
		return axisValue(entryLinear(entries, sorted[i]), axis) <
			axisValue(entryLinear(entries, sorted[j]), axis)
	})

	mid := len(sorted) / 2
	node := &kdNode{index: sorted[mid], axis: axis}
	node.left = buildKDTree(sorted[:mid], entries, depth+1)
	node.right = buildKDTree(sorted[mid+1:], entries, depth+1)
	return node
}

func axisValue(c linearRGB, axis int) float64 {
	switch axis {
	case 0:
		return c.r
	case 1:
		return c.g
	default:
		return c.b
	}
}

func (n *kdNode) nearest(target linearRGB, entries []Entry) int {
	best := n.index
	bestDist := sqDist(target, entryLinear(entries, n.index))
	n.search(target, entries, &best, &bestDist)
	return best
}

func (n *kdNode) search(target linearRGB, entries []Entry, best *int, bestDist *float64) {
	if n == nil {
		return
	}
	d := sqDist(target, entryLinear(entries, n.index))
	if d < *bestDist || (d == *bestDist && n.index < *best) {
		*best, *bestDist = n.index, d
	}

	diff := axisValue(target, n.axis) - axisValue(entryLinear(entries, n.index), n.axis)
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}
	near.search(target, entries, best, bestDist)
	if diff*diff <= *bestDist {
		far.search(target, entries, best, bestDist)
	}
}

func entryLinear(entries []Entry, idx int) linearRGB {
	e := entries[idx]
	return toLinear(e.R, e.G, e.B)
}
