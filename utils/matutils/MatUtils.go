// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// VecClipBounds performs an element-wise clipping of a vector's values
// such that a[i] lies in [lower[i], upper[i]]. Nil bounds leave the
// vector untouched.
func VecClipBounds(a *mat.VecDense, lower, upper mat.Vector) {
	if lower == nil || upper == nil {
		return
	}

	for i := 0; i < a.Len(); i++ {
		value := a.AtVec(i)

		if value < lower.AtVec(i) {
			a.SetVec(i, lower.AtVec(i))
		} else if value > upper.AtVec(i) {
			a.SetVec(i, upper.AtVec(i))
		}
	}
}

// DenseData returns a copy of the backing data of a matrix in row
// major order together with its dimensions
func DenseData(m *mat.Dense) (rows, cols int, data []float64) {
	rows, cols = m.Dims()
	data = make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, m.RawRowView(i)...)
	}
	return rows, cols, data
}
