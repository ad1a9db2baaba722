package ledger

import "testing"

func TestKesEquivalent(t *testing.T) {
	cases := []struct {
		sek, rate, want float64
	}{
		{10000, 12.10, 121000},
		{500, 13.25, 6625},
		{1, 0.5, 0.5},
		{2500.50, 12, 30006},
		{0, 12.10, 0},
	}
	for _, tc := range cases {
		if got := KesEquivalent(tc.sek, tc.rate); got != tc.want {
			t.Errorf("KesEquivalent(%v, %v) = %v, want %v", tc.sek, tc.rate, got, tc.want)
		}
	}
}

func TestFloorShare(t *testing.T) {
	cases := []struct {
		total, ratio, totalRatio, want float64
	}{
		{100000, 30, 100, 30000},
		{100000, 70, 100, 70000},
		{100, 1, 3, 33},
		{10, 1, 3, 3},
		{100000, 0, 100, 0},
	}
	for _, tc := range cases {
		if got := FloorShare(tc.total, tc.ratio, tc.totalRatio); got != tc.want {
			t.Errorf("FloorShare(%v, %v, %v) = %v, want %v", tc.total, tc.ratio, tc.totalRatio, got, tc.want)
		}
	}
}

// Sum of floor shares never exceeds the total, and the undistributed
// remainder is smaller than the number of groups with a positive ratio.
func TestFloorShareTruncationBound(t *testing.T) {
	totals := []float64{1, 7, 99, 1000, 99999, 123457}
	ratioSets := [][]float64{
		{1, 1, 1},
		{30, 70},
		{3, 5, 7, 11},
		{0.5, 1.5, 2},
		{1},
	}
	for _, total := range totals {
		for _, ratios := range ratioSets {
			var totalRatio float64
			for _, r := range ratios {
				totalRatio += r
			}
			var sum float64
			positive := 0
			for _, r := range ratios {
				if r > 0 {
					positive++
				}
				sum += FloorShare(total, r, totalRatio)
			}
			if sum > total {
				t.Fatalf("shares %v of total %v sum to %v > total", ratios, total, sum)
			}
			if total-sum >= float64(positive) {
				t.Fatalf("remainder %v for total %v ratios %v not < %d", total-sum, total, ratios, positive)
			}
		}
	}
}

func TestEqualSplit(t *testing.T) {
	cases := []struct {
		total float64
		n     int
		want  float64
	}{
		{10000, 3, 3333},
		{10000, 4, 2500},
		{9999, 10000, 0},
		{1, 1, 1},
		{100, 0, 0},
	}
	for _, tc := range cases {
		if got := EqualSplit(tc.total, tc.n); got != tc.want {
			t.Errorf("EqualSplit(%v, %d) = %v, want %v", tc.total, tc.n, got, tc.want)
		}
	}
}

func TestEqualSplitTruncationBound(t *testing.T) {
	for _, total := range []float64{1, 10, 9999, 10000, 123456} {
		for _, n := range []int{1, 2, 3, 7, 50} {
			per := EqualSplit(total, n)
			paid := per * float64(n)
			if paid > total {
				t.Fatalf("EqualSplit(%v, %d): paid %v exceeds total", total, n, paid)
			}
			if total-paid >= float64(n) {
				t.Fatalf("EqualSplit(%v, %d): remainder %v not < n", total, n, total-paid)
			}
		}
	}
}

func TestCentsEqual(t *testing.T) {
	if !CentsEqual(0.1+0.2, 0.3) {
		t.Error("0.1+0.2 should equal 0.3 at cent granularity")
	}
	if !CentsEqual(121000.004, 121000.0) {
		t.Error("sub-cent difference should be equal")
	}
	if CentsEqual(121000.01, 121000.0) {
		t.Error("one-cent difference must not be equal")
	}
}
