package words

import (
	"math/rand"
	"testing"
)

func TestSample_DistinctWordsFromPool(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	got := Sample(rng, 3)
	if len(got) != 3 {
		t.Fatalf("len=%d want=3", len(got))
	}
	seen := map[string]bool{}
	for _, w := range got {
		if !Contains(w) {
			t.Fatalf("word %q not in pool", w)
		}
		if seen[w] {
			t.Fatalf("duplicate word %q in one offer", w)
		}
		seen[w] = true
	}
}

func TestSample_Clamping(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	if got := Sample(rng, 0); got != nil {
		t.Fatalf("n=0 got=%v want=nil", got)
	}
	if got := Sample(rng, -2); got != nil {
		t.Fatalf("n<0 got=%v want=nil", got)
	}
	if got := Sample(rng, PoolSize()+10); len(got) != PoolSize() {
		t.Fatalf("len=%d want=%d", len(got), PoolSize())
	}
}

func TestSample_Deterministic(t *testing.T) {
	a := Sample(rand.New(rand.NewSource(42)), 3)
	b := Sample(rand.New(rand.NewSource(42)), 3)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged: %v vs %v", a, b)
		}
	}
}
