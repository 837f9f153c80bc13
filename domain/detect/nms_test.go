package detect

import (
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/soocke/minimap-watch-go/domain/classify"
)

func TestIoU(t *testing.T) {
	a := Detection{X: 0, Y: 0, W: 9, H: 1}
	b := Detection{X: 1, Y: 0, W: 9, H: 1}
	if got := IoU(a, b); math.Abs(got-0.8) > 1e-6 {
		t.Fatalf("expected IoU 0.8, got %f", got)
	}
	if got := IoU(a, Detection{X: 50, Y: 50, W: 3, H: 3}); got != 0 {
		t.Fatalf("disjoint boxes should have IoU 0, got %f", got)
	}
	if got := IoU(Detection{}, Detection{}); got != 0 {
		t.Fatalf("degenerate boxes should have IoU 0, got %f", got)
	}
}

func TestSuppress_KeepsHigherOfOverlappingPair(t *testing.T) {
	low := Detection{X: 1, Y: 0, W: 9, H: 1, Score: 0.5, TemplateID: "b"}
	high := Detection{X: 0, Y: 0, W: 9, H: 1, Score: 0.9, TemplateID: "a"}
	got := Suppress([]Detection{low, high}, 0.3)
	if len(got) != 1 || got[0] != high {
		t.Fatalf("expected only the 0.9 detection, got %+v", got)
	}
}

func TestSuppress_TiesKeepInsertionOrder(t *testing.T) {
	first := Detection{X: 0, Y: 0, W: 4, H: 4, Score: 0.8, TemplateID: "first"}
	second := Detection{X: 0, Y: 0, W: 4, H: 4, Score: 0.8, TemplateID: "second"}
	got := Suppress([]Detection{first, second}, 0.3)
	if len(got) != 1 || got[0].TemplateID != "first" {
		t.Fatalf("expected the earlier candidate to win the tie, got %+v", got)
	}
}

func TestSuppress_DoesNotMutateInput(t *testing.T) {
	in := []Detection{{W: 2, H: 2, Score: 0.1}, {X: 10, W: 2, H: 2, Score: 0.9}}
	snapshot := append([]Detection(nil), in...)
	_ = Suppress(in, 0.3)
	if !reflect.DeepEqual(in, snapshot) {
		t.Fatalf("input modified: %+v", in)
	}
}

func randomCandidates(seed uint64, n int) []Detection {
	r := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]Detection, n)
	for i := range out {
		out[i] = Detection{
			X:          r.IntN(60),
			Y:          r.IntN(60),
			W:          4 + r.IntN(12),
			H:          4 + r.IntN(12),
			Score:      math.Round(r.Float64()*20) / 20,
			TemplateID: string(rune('a' + r.IntN(4))),
		}
	}
	return out
}

func TestSuppress_NoRetainedPairOverlaps(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		for _, thr := range []float64{0.1, 0.3, 0.5, 0.9} {
			kept := Suppress(randomCandidates(seed, 150), thr)
			for i := range kept {
				for j := i + 1; j < len(kept); j++ {
					if iou := IoU(kept[i], kept[j]); iou >= thr {
						t.Fatalf("seed %d thr %.1f: kept pair with IoU %f: %+v %+v", seed, thr, iou, kept[i], kept[j])
					}
				}
			}
		}
	}
}

func TestSuppress_Idempotent(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		once := Suppress(randomCandidates(seed, 120), 0.3)
		twice := Suppress(once, 0.3)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("seed %d: second pass changed result (%d -> %d)", seed, len(once), len(twice))
		}
	}
}

func TestDeduplicate_TopK(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 43))
	scores := r.Perm(15)
	var dets []Detection
	for i, s := range scores {
		dets = append(dets, Detection{X: i * 20, Y: 0, W: 10, H: 10, Score: float64(s+1) / 100})
	}
	got := Deduplicate(dets, 0.3, 10)
	if len(got) != 10 {
		t.Fatalf("expected 10 detections, got %d", len(got))
	}
	for i, d := range got {
		want := float64(15-i) / 100
		if math.Abs(d.Score-want) > 1e-12 {
			t.Fatalf("position %d: expected score %.2f, got %.2f", i, want, d.Score)
		}
	}
}

func TestTopK_Unlimited(t *testing.T) {
	dets := []Detection{{Score: 0.2}, {Score: 0.7}, {Score: 0.5}}
	got := TopK(dets, 0)
	if len(got) != 3 || got[0].Score != 0.7 || got[2].Score != 0.2 {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize(nil); got != "No detections" {
		t.Fatalf("unexpected empty summary %q", got)
	}
	got := Summarize([]Detection{{X: 3, Y: 4, Score: 0.91, TemplateID: "ana", Category: classify.Blue}})
	if got != "1 detections: ana (BLUE)@3,4 0.91" {
		t.Fatalf("unexpected summary %q", got)
	}
}
