package stats

import "testing"

func TestAggregates(t *testing.T) {
	values := []float64{4, 1, 3, 2}

	if got := Sum(values); got != 10 {
		t.Fatalf("Sum = %v", got)
	}
	if got := Mean(values); got != 2.5 {
		t.Fatalf("Mean = %v", got)
	}
	if got := Max(values); got != 4 {
		t.Fatalf("Max = %v", got)
	}
	if Mean(nil) != 0 || Max(nil) != 0 || Percentile(nil, 50) != 0 {
		t.Fatalf("expected zero for empty input")
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{40, 10, 30, 20}

	cases := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{50, 25},
		{100, 40},
		{90, 37},
		{-5, 10},
		{150, 40},
	}
	for _, tc := range cases {
		if got := Percentile(values, tc.p); got < tc.want-1e-9 || got > tc.want+1e-9 {
			t.Fatalf("Percentile(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
	if values[0] != 40 {
		t.Fatalf("input was modified")
	}
}
