package clustering

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPercentile(t *testing.T) {
	cases := []struct {
		data []float64
		q    float64
		want float64
	}{
		{[]float64{1, 2, 3, 4, 5}, 0.5, 3},
		{[]float64{1, 2, 3, 4, 5}, 0.25, 2},
		{[]float64{1, 2, 3, 4}, 0.25, 1.75},
		{[]float64{1, 2, 3, 4}, 0.75, 3.25},
		{[]float64{1, 2, 3, 4}, 0.5, 2.5},
		{[]float64{7}, 0.75, 7},
	}
	for _, c := range cases {
		if got := percentile(c.data, c.q); got != c.want {
			t.Errorf("percentile(%v, %v): got %v, want %v", c.data, c.q, got, c.want)
		}
	}
}

func TestRobustScaler(t *testing.T) {
	X := [][]float64{
		{1, 10},
		{2, 10},
		{3, 10},
		{4, 10},
		{5, 10},
	}
	s := FitRobustScaler(X)

	if diff := cmp.Diff([]float64{3, 10}, s.Center()); diff != "" {
		t.Errorf("Center (-want +got):\n%s", diff)
	}
	// constant column keeps scale 1
	if diff := cmp.Diff([]float64{2, 1}, s.Scale()); diff != "" {
		t.Errorf("Scale (-want +got):\n%s", diff)
	}

	got := s.Transform([]float64{5, 12})
	if diff := cmp.Diff([]float64{1, 2}, got); diff != "" {
		t.Errorf("Transform (-want +got):\n%s", diff)
	}
	back := s.InverseTransform(got)
	if diff := cmp.Diff([]float64{5, 12}, back); diff != "" {
		t.Errorf("InverseTransform (-want +got):\n%s", diff)
	}
}

func TestRobustScalerAccessorsCopy(t *testing.T) {
	s := FitRobustScaler([][]float64{{1}, {2}, {3}})
	c := s.Center()
	c[0] = 99
	if s.Center()[0] != 2 {
		t.Errorf("Center leaked internal slice: got %v", s.Center())
	}
}
