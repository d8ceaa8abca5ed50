package survey

import (
	"math"
	"testing"
)

var forest = []float64{1, 1.5, 2}

func TestRatePerSec(t *testing.T) {
	cases := []struct {
		name string
		slot int
		bird Bird
		want float64
	}{
		{"native tier1 slot0", 0, Bird{1, "forest"}, 2},
		{"foreign tier1 slot0", 0, Bird{1, "mountain"}, 1},
		{"native tier3 slot2", 2, Bird{3, "forest"}, 12},
		{"no unlocked slot", -1, Bird{3, "forest"}, 0},
	}
	for _, c := range cases {
		if got := RatePerSec(forest, c.slot, "forest", c.bird); got != c.want {
			t.Fatalf("%s: expected %v got %v", c.name, c.want, got)
		}
	}
}

func TestContributionOverTwoHundredSeconds(t *testing.T) {
	got := Contribution(forest, 0, "forest", Bird{1, "forest"}, 200_000)
	if got != 400 {
		t.Fatalf("expected 400, got %v", got)
	}
}

func TestContributionAdditiveOverSplits(t *testing.T) {
	b := Bird{4, "coastal"}
	whole := Contribution(forest, 1, "forest", b, 60_000)
	sum := 0.0
	for i := 0; i < 3750; i++ {
		sum += Contribution(forest, 1, "forest", b, 16)
	}
	if math.Abs(whole-sum) > 1e-6 {
		t.Fatalf("expected %v, got %v", whole, sum)
	}
}

func TestRollTier(t *testing.T) {
	odds := TierOdds{Same: 0.5, Up: 0.3}
	cases := []struct {
		roll        float64
		around, max int
		starter     bool
		want        int
	}{
		{0.1, 2, 5, false, 2},
		{0.6, 2, 5, false, 3},
		{0.9, 2, 5, false, 1},
		{0.9, 1, 5, false, 1},
		{0.6, 5, 5, false, 5},
		{0.6, 3, 3, false, 3},
		{0.6, 3, 5, true, 1},
		{0.1, 0, 5, false, 1},
	}
	for _, c := range cases {
		if got := RollTier(c.roll, c.around, c.max, c.starter, odds); got != c.want {
			t.Fatalf("RollTier(%v,%d,%d,%v): expected %d got %d", c.roll, c.around, c.max, c.starter, c.want, got)
		}
	}
}

func TestCompleteToleratesTickRounding(t *testing.T) {
	sum := 0.0
	for i := 0; i < 12500; i++ {
		sum += Contribution(forest, 0, "forest", Bird{1, "forest"}, 16)
	}
	if !Complete(sum, 400) {
		t.Fatalf("12500 ticks of 16ms at 2/s should complete a 400 survey, got %.17g", sum)
	}
	if !Complete(400, 400) || !Complete(401, 400) {
		t.Fatalf("progress at or past cost must complete")
	}
	if Complete(399.99, 400) {
		t.Fatalf("progress short of cost must not complete")
	}
}
