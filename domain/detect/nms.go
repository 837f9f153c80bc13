package detect

import "sort"

// DefaultIoUThreshold and DefaultTopK are the suppression defaults.
const (
	DefaultIoUThreshold = 0.3
	DefaultTopK         = 10
	iouEpsilon          = 1e-6
)

// IoU returns the intersection-over-union of the two boxes. Degenerate boxes
// yield 0.
func IoU(a, b Detection) float64 {
	inter := a.Box().Intersect(b.Box())
	ia := 0
	if !inter.Empty() {
		ia = inter.Dx() * inter.Dy()
	}
	return float64(ia) / (float64(a.Area()+b.Area()-ia) + iouEpsilon)
}

// Suppress runs greedy non-maximum suppression. Candidates are visited by
// score descending, ties in input order; each kept box removes every
// remaining candidate whose IoU with it reaches iouThreshold, whatever its
// template. The input slice is not modified.
func Suppress(dets []Detection, iouThreshold float64) []Detection {
	if len(dets) == 0 {
		return []Detection{}
	}
	order := make([]Detection, len(dets))
	copy(order, dets)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Score > order[j].Score })

	removed := make([]bool, len(order))
	kept := make([]Detection, 0, len(order))
	for i := range order {
		if removed[i] {
			continue
		}
		kept = append(kept, order[i])
		for j := i + 1; j < len(order); j++ {
			if !removed[j] && IoU(order[i], order[j]) >= iouThreshold {
				removed[j] = true
			}
		}
	}
	return kept
}

// TopK keeps the k highest-scoring detections, preserving descending score
// order. k <= 0 keeps everything.
func TopK(dets []Detection, k int) []Detection {
	out := make([]Detection, len(dets))
	copy(out, dets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Deduplicate suppresses overlaps and then truncates to the top k. The
// truncation must follow suppression so every candidate takes part in the
// geometric decisions.
func Deduplicate(dets []Detection, iouThreshold float64, k int) []Detection {
	return TopK(Suppress(dets, iouThreshold), k)
}
