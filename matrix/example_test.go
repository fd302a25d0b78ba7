// SPDX-License-Identifier: MIT

package matrix_test

import (
	"fmt"

	"github.com/katalvlaran/dqmc/matrix"
)

// ExampleSplitScales shows the large/small split applied before assembling
// a Green's function: every scale ends up on exactly one side of 1.
func ExampleSplitScales() {
	dmax, dmin := matrix.SplitScales([]float64{1e12, 3, 1, 0.25, 1e-12})
	fmt.Println(dmax)
	fmt.Println(dmin)

	// Output:
	// [1e+12 3 1 1 1]
	// [1 1 1 0.25 1e-12]
}

// ExampleMaxAbsDiff computes the wrap-error metric between two matrices.
func ExampleMaxAbsDiff() {
	a, _ := matrix.Identity(2)
	b, _ := matrix.Identity(2)
	b.Set(0, 1, 1e-9)
	d, _ := matrix.MaxAbsDiff(a, b)
	fmt.Println(d)

	// Output:
	// 1e-09
}
