package matutils

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestVecClipBounds(t *testing.T) {
	a := mat.NewVecDense(3, []float64{-5, 0.5, 5})
	lower := mat.NewVecDense(3, []float64{-1, -1, -1})
	upper := mat.NewVecDense(3, []float64{1, 1, 2})

	VecClipBounds(a, lower, upper)

	want := []float64{-1, 0.5, 2}
	for i, w := range want {
		if a.AtVec(i) != w {
			t.Errorf("index %v: want(%v) have(%v)", i, w, a.AtVec(i))
		}
	}
}

func TestDenseData(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	r, c, data := DenseData(m.Slice(0, 2, 1, 3).(*mat.Dense))

	if r != 2 || c != 2 {
		t.Fatalf("dims: want(2, 2) have(%v, %v)", r, c)
	}
	want := []float64{2, 3, 5, 6}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("data[%v]: want(%v) have(%v)", i, want[i], data[i])
		}
	}
}
