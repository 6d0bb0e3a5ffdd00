// Package exactdiag computes exact time evolution of small XXZ chains by
// dense diagonalization. It serves as the reference oracle for the TEBD
// engine; memory grows as 4^L, so it is only tractable for short chains.
package exactdiag

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"

	"qxxz"
	"qxxz/mat"
)

// maxL bounds the dense Hamiltonian at 2^14 x 2^14.
const maxL = 14

// Magnetization holds site-averaged magnetization trajectories,
// one entry per requested time.
type Magnetization struct {
	T  []float64
	Sx []float64
	Sy []float64
	Sz []float64
}

// Magnetizations evolves the product state with Bloch angles (theta, phi) at
// every site under the model Hamiltonian, and returns the site-averaged
// magnetizations at the requested times.
//
// The Hamiltonian is diagonalized once; each time point is then
//
//	psi(t) = V exp(-i*t*diag(vals)) V^T psi(0).
func Magnetizations(model qxxz.Model, theta, phi float64, times []float64) (Magnetization, error) {
	l := model.Chain.L
	if l > maxL {
		return Magnetization{}, qxxz.ConfigurationError{Msg: errors.Errorf("L %d > %d is intractable for dense diagonalization", l, maxL).Error()}
	}
	dim := 1 << l

	buf := mat.COOZeros(1, 1)
	h := mat.COOZeros(dim, dim)
	model.Hamiltonian(h, buf)
	vals, vecs := h.EigenSym()

	mx := mat.COOZeros(dim, dim)
	qxxz.OperatorSum(mx, l, mat.PauliX, buf)
	my := mat.COOZeros(dim, dim)
	qxxz.OperatorSum(my, l, mat.PauliY, buf)
	mz := mat.COOZeros(dim, dim)
	qxxz.OperatorSum(mz, l, mat.PauliZ, buf)

	psi0 := productState(l, theta, phi)
	// c = V^T psi(0), fixed for all times.
	c := make([]complex128, dim)
	for k := 0; k < dim; k++ {
		for a := 0; a < dim; a++ {
			c[k] += complex(vecs.At(a, k), 0) * psi0[a]
		}
	}

	m := Magnetization{
		T:  make([]float64, 0, len(times)),
		Sx: make([]float64, 0, len(times)),
		Sy: make([]float64, 0, len(times)),
		Sz: make([]float64, 0, len(times)),
	}
	psi := make([]complex128, dim)
	mpsi := make([]complex128, dim)
	ct := make([]complex128, dim)
	for _, t := range times {
		for k := 0; k < dim; k++ {
			ct[k] = cmplx.Exp(complex(0, -t*vals[k])) * c[k]
		}
		for a := 0; a < dim; a++ {
			psi[a] = 0
			for k := 0; k < dim; k++ {
				psi[a] += complex(vecs.At(a, k), 0) * ct[k]
			}
		}

		m.T = append(m.T, t)
		m.Sx = append(m.Sx, expect(mx, psi, mpsi)/float64(l))
		m.Sy = append(m.Sy, expect(my, psi, mpsi)/float64(l))
		m.Sz = append(m.Sz, expect(mz, psi, mpsi)/float64(l))
	}
	return m, nil
}

// productState returns the 2^l state vector of the uniform Bloch product
// state, with site 0 as the most significant qubit.
func productState(l int, theta, phi float64) []complex128 {
	c0 := complex(math.Cos(theta/2), 0)
	c1 := cmplx.Exp(complex(0, phi)) * complex(math.Sin(theta/2), 0)

	psi := []complex128{1}
	for i := 0; i < l; i++ {
		next := make([]complex128, 0, 2*len(psi))
		for _, v := range psi {
			next = append(next, v*c0, v*c1)
		}
		psi = next
	}
	return psi
}

// expect returns <psi|m|psi>, assumed real. mpsi is a scratch buffer.
func expect(m *mat.COO, psi, mpsi []complex128) float64 {
	m.MulVec(mpsi, psi)
	var v complex128
	for a := range psi {
		v += cmplx.Conj(psi[a]) * mpsi[a]
	}
	return real(v)
}
