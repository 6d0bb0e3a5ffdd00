// Package qxxz builds spin-1/2 Heisenberg XXZ chains.
//
// The Hamiltonian is
//
//	H = sum_{<i,j>} Jxy*(XiXj + YiYj) + Jz*ZiZj + hz*sum_i Zi
//
// where X, Y, Z are the Pauli operators and <i,j> runs over the
// nearest-neighbor bonds of the chain.
package qxxz

import (
	"fmt"

	"qxxz/mat"
)

var (
	identity = mat.COOIdentity(2)
)

// ConfigurationError is an invalid configuration, detected before any state
// is mutated.
type ConfigurationError struct {
	Msg string
}

func (e ConfigurationError) Error() string { return e.Msg }

type BoundaryCondition string

const (
	Open     BoundaryCondition = "open"
	Periodic BoundaryCondition = "periodic"
)

// Chain is a 1-D lattice of L spin-1/2 sites.
type Chain struct {
	L  int
	BC BoundaryCondition
}

func NewChain(l int, bc BoundaryCondition) (Chain, error) {
	if l < 2 {
		return Chain{}, ConfigurationError{Msg: fmt.Sprintf("L %d < 2", l)}
	}
	switch bc {
	case Open, Periodic:
	default:
		return Chain{}, ConfigurationError{Msg: fmt.Sprintf("unknown boundary condition %q", bc)}
	}
	return Chain{L: l, BC: bc}, nil
}

// Bonds returns the coupled site pairs.
// Open chains have L-1 bonds, periodic ones also wrap L-1 to 0.
func (c Chain) Bonds() [][2]int {
	bonds := make([][2]int, 0, c.L)
	for i := 0; i < c.L-1; i++ {
		bonds = append(bonds, [2]int{i, i + 1})
	}
	if c.BC == Periodic {
		bonds = append(bonds, [2]int{c.L - 1, 0})
	}
	return bonds
}

// Model is an XXZ chain with a uniform Z field.
type Model struct {
	Chain Chain
	Jxy   float64
	Jz    float64
	Hz    float64
}

func XXZChain(chain Chain, jxy, jz, hz float64) Model {
	return Model{Chain: chain, Jxy: jxy, Jz: jz, Hz: hz}
}

// BondTerms returns the two-site Hamiltonian of every bond, each a 4x4
// operator on the pair's Hilbert space:
//
//	h = Jxy*(XX + YY) + Jz*ZZ + hz*(wl*ZI + wr*IZ)
//
// The on-site field of a site is split by wl, wr = 1/(number of bonds
// containing the site), so that summing the bond terms recovers the full
// Hamiltonian with on-site terms counted once each.
func (m Model) BondTerms() []*mat.COO {
	bondsOf := make([]int, m.Chain.L)
	for _, b := range m.Chain.Bonds() {
		bondsOf[b[0]]++
		bondsOf[b[1]]++
	}

	terms := make([]*mat.COO, 0, m.Chain.L)
	for _, b := range m.Chain.Bonds() {
		h := mat.COOZeros(4, 4)

		xx := mat.M(mat.PauliX)
		xx.Kron(mat.M(mat.PauliX))
		h.Add(complex(float32(m.Jxy), 0), xx)

		yy := mat.M(mat.PauliY)
		yy.Kron(mat.M(mat.PauliY))
		h.Add(complex(float32(m.Jxy), 0), yy)

		zz := mat.M(mat.PauliZ)
		zz.Kron(mat.M(mat.PauliZ))
		h.Add(complex(float32(m.Jz), 0), zz)

		zi := mat.M(mat.PauliZ)
		zi.Kron(mat.COOIdentity(2))
		h.Add(complex(float32(m.Hz/float64(bondsOf[b[0]])), 0), zi)

		iz := mat.COOIdentity(2)
		iz.Kron(mat.M(mat.PauliZ))
		h.Add(complex(float32(m.Hz/float64(bondsOf[b[1]])), 0), iz)

		terms = append(terms, h)
	}
	return terms
}

// Hamiltonian builds the dense 2^L x 2^L Hamiltonian into h.
// buf is a reusable buffer for the Kronecker chains.
func (m Model) Hamiltonian(h, buf *mat.COO) {
	l := m.Chain.L
	h.Zeros(1<<l, 1<<l)

	for _, b := range m.Chain.Bonds() {
		twoSite(h, l, b, mat.PauliX, mat.PauliX, complex(float32(m.Jxy), 0), buf)
		twoSite(h, l, b, mat.PauliY, mat.PauliY, complex(float32(m.Jxy), 0), buf)
		twoSite(h, l, b, mat.PauliZ, mat.PauliZ, complex(float32(m.Jz), 0), buf)
	}
	for i := 0; i < l; i++ {
		oneSite(h, l, i, mat.PauliZ, complex(float32(m.Hz), 0), buf)
	}
}

// OperatorSum builds sum_i op_i over all l sites into h.
func OperatorSum(h *mat.COO, l int, op [][]complex64, buf *mat.COO) {
	h.Zeros(1<<l, 1<<l)
	for i := 0; i < l; i++ {
		oneSite(h, l, i, op, 1, buf)
	}
}

func twoSite(h *mat.COO, l int, b [2]int, opI, opJ [][]complex64, coeff complex64, system *mat.COO) {
	system.Scalar(1)
	for s := 0; s < l; s++ {
		switch {
		case s == b[0]:
			system.Kron(mat.M(opI))
		case s == b[1]:
			system.Kron(mat.M(opJ))
		default:
			system.Kron(identity)
		}
	}

	h.Add(coeff, system)
}

func oneSite(h *mat.COO, l int, i int, op [][]complex64, coeff complex64, system *mat.COO) {
	system.Scalar(1)
	for s := 0; s < l; s++ {
		switch {
		case s == i:
			system.Kron(mat.M(op))
		default:
			system.Kron(identity)
		}
	}

	h.Add(coeff, system)
}
