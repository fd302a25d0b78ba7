// SPDX-License-Identifier: MIT

// Package matrix_test provides benchmarks for the decompositions the
// stabilized stack chooses between, on graded inputs.
package matrix_test

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dqmc/matrix"
)

// benchSizes are the matrix sizes to benchmark.
var benchSizes = []int{16, 64, 128}

// sinks to defeat dead-code elimination
var (
	sinkM *mat.Dense
	sinkV []float64
	sinkF float64
)

func gradedScales(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.Pow(10, 8-16*float64(i)/float64(n))
	}

	return s
}

func BenchmarkSVD(b *testing.B) {
	b.ReportAllocs()
	for _, n := range benchSizes {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			A := GradedDense(b, gradedScales(n), 1337)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				u, s, _, err := matrix.SVD(A)
				if err != nil {
					b.Fatal(err)
				}
				sinkM, sinkV = u, s
			}
		})
	}
}

func BenchmarkPivotedQR(b *testing.B) {
	b.ReportAllocs()
	for _, n := range benchSizes {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			A := GradedDense(b, gradedScales(n), 1337)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				q, r, _, err := matrix.PivotedQR(A)
				if err != nil {
					b.Fatal(err)
				}
				sinkM, sinkF = q, r.At(0, 0)
			}
		})
	}
}

func BenchmarkScaleRows(b *testing.B) {
	b.ReportAllocs()
	for _, n := range benchSizes {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			A := RandFilledDense(b, n, n, 7)
			d := make([]float64, n)
			for i := range d {
				d[i] = 1
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := matrix.ScaleRows(A, d); err != nil {
					b.Fatal(err)
				}
			}
			sinkM = A
		})
	}
}
