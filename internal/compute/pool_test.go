package compute

import (
	"sync/atomic"
	"testing"
)

func TestParallelCoversEveryIndex(t *testing.T) {
	for _, n := range []int{0, 1, 3, 7, 100} {
		hits := make([]int32, n)
		Parallel(n, func(i int) {
			atomic.AddInt32(&hits[i], 1)
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d ran %d times", n, i, h)
			}
		}
	}
}

func TestParallelIndependentResults(t *testing.T) {
	out := make([]int, 64)
	Parallel(len(out), func(i int) {
		out[i] = i * i
	})
	for i, v := range out {
		if v != i*i {
			t.Fatalf("index %d holds %d", i, v)
		}
	}
}
