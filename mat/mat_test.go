package mat

import (
	"flag"
	"fmt"
	"log"
	"math"
	"testing"
)

func TestSlice(t *testing.T) {
	t.Parallel()
	tests := []struct {
		m *COO
		y [2]int
		x [2]int
		s *COO
	}{
		{
			m: M([][]complex64{
				{0, 1, 2, 3},
				{4, 5, 6, 7},
				{8, 9, 10, 11},
				{12, 13, 14, 15},
			}),
			y: [2]int{-3, -1},
			x: [2]int{1, 3},
			s: M([][]complex64{
				{5, 6},
				{9, 10},
			}),
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s", test.m), func(t *testing.T) {
			t.Parallel()
			s := test.m.Slice(test.y, test.x)
			if !s.Equal(test.s) {
				t.Fatalf("%s, expected %s", s, test.s)
			}
		})
	}
}

func TestAdd(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a          *COO
		c          complex64
		b          *COO
		z          *COO
		numNonZero int
	}{
		{
			a: M([][]complex64{
				{1, 0},
				{0, 2i},
			}),
			c: 1i,
			b: M([][]complex64{
				{1i, 0},
				{2, -5},
			}),
			z: M([][]complex64{
				{0, 0},
				{2i, -3i},
			}),
			numNonZero: 2,
		},
		// Disjoint sparsity patterns.
		{
			a: M([][]complex64{
				{1, 0},
				{0, -1},
			}),
			c: 2,
			b: M([][]complex64{
				{0, 3},
				{-1, 0},
			}),
			z: M([][]complex64{
				{1, 6},
				{-2, -1},
			}),
			numNonZero: 4,
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s", test.a), func(t *testing.T) {
			t.Parallel()
			test.a.Add(test.c, test.b)
			if !test.a.Equal(test.z) {
				t.Fatalf("%s, expected %s", test.a, test.z)
			}
			if len(test.a.Data) != test.numNonZero {
				t.Fatalf("%d, expected %d", len(test.a.Data), test.numNonZero)
			}
		})
	}
}

func TestKron(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a *COO
		b *COO
		c *COO
	}{
		{
			a: M(PauliZ),
			b: M(PauliX),
			c: M([][]complex64{
				{0, 1, 0, 0},
				{1, 0, 0, 0},
				{0, 0, 0, -1},
				{0, 0, -1, 0},
			}),
		},
		{
			a: M(PauliY),
			b: M(PauliY),
			c: M([][]complex64{
				{0, 0, 0, -1},
				{0, 0, 1, 0},
				{0, 1, 0, 0},
				{-1, 0, 0, 0},
			}),
		},
		// Scalar kronecker.
		{
			a: M([][]complex64{{-2}}),
			b: M([][]complex64{
				{1, 2},
				{3, 4},
			}),
			c: M([][]complex64{
				{-2, -4},
				{-6, -8},
			}),
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s", test.a), func(t *testing.T) {
			t.Parallel()
			test.a.Kron(test.b)
			if !test.a.Equal(test.c) {
				t.Fatalf("%s, expected %s", test.a, test.c)
			}
		})
	}
}

func TestMulVec(t *testing.T) {
	t.Parallel()
	m := M([][]complex64{
		{0, 1i},
		{-1, 2},
	})
	x := []complex128{3, 4i}
	dst := make([]complex128, 2)
	m.MulVec(dst, x)

	expected := []complex128{-4, -3 + 8i}
	for i, v := range dst {
		if v != expected[i] {
			t.Fatalf("%d %v, expected %v", i, v, expected[i])
		}
	}
}

func TestEigenSym(t *testing.T) {
	t.Parallel()
	heisenberg := M(PauliX)
	heisenberg.Kron(M(PauliX))
	yy := M(PauliY)
	yy.Kron(M(PauliY))
	heisenberg.Add(1, yy)
	zz := M(PauliZ)
	zz.Kron(M(PauliZ))
	heisenberg.Add(1, zz)

	tests := []struct {
		m    *COO
		vals []float64
	}{
		{
			m:    M(PauliX),
			vals: []float64{-1, 1},
		},
		// XX + YY + ZZ has the singlet at -3 and the triplet at 1.
		{
			m:    heisenberg,
			vals: []float64{-3, 1, 1, 1},
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s", test.m), func(t *testing.T) {
			t.Parallel()
			vals, vecs := test.m.EigenSym()
			if len(vals) != len(test.vals) {
				t.Fatalf("%d, expected %d", len(vals), len(test.vals))
			}
			for i, v := range vals {
				if math.Abs(v-test.vals[i]) > 1e-12 {
					t.Fatalf("%d %f, expected %f", i, v, test.vals[i])
				}
			}

			// Eigenvector columns reconstruct m = V diag(vals) V^T.
			n := test.m.Rows()
			dense := test.m.Dense()
			for a := 0; a < n; a++ {
				for b := 0; b < n; b++ {
					var v float64
					for k := 0; k < n; k++ {
						v += vecs.At(a, k) * vals[k] * vecs.At(b, k)
					}
					if math.Abs(v-float64(real(dense[a][b]))) > 1e-12 {
						t.Fatalf("%d %d %f, expected %f", a, b, v, real(dense[a][b]))
					}
				}
			}
		})
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
