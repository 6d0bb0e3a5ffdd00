// Package mps implements finite matrix product states for TEBD time
// evolution.
//
// States are kept in right-canonical form: site tensors B with axes
// (left bond, physical, right bond), plus the singular value spectrum of
// every bond. This is the representation of Section 4.4, The density-matrix
// renormalization group in the age of matrix product states, Ulrich
// Schollwock.
package mps

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"

	"qxxz"
	"qxxz/mat"
)

const (
	mpsLeftAxis  = 0
	mpsUpAxis    = 1
	mpsRightAxis = 2

	// physD is the local Hilbert space dimension of a spin-1/2 site.
	physD = 2

	// svdFloor is the double precision noise floor below which singular
	// values are always discarded. Keeping exact zeros would produce
	// unnormalizable canonical tensors.
	svdFloor = 1e-14
)

// BlochState is a single qubit state on the Bloch sphere,
// [cos(theta/2), exp(i*phi)*sin(theta/2)].
type BlochState struct {
	Theta float64
	Phi   float64
}

// State is a finite matrix product state.
type State struct {
	// Bs are the right-canonical site tensors, axes (left, physical, right).
	Bs []*tensor.Dense
	// Ss[i] are the singular values on the bond to the left of site i.
	// Ss[0] is the trivial boundary spectrum {1}.
	Ss [][]float64

	bufs [4]*tensor.Dense
}

// FromProductState builds an unentangled state of l sites.
// states holds either a single Bloch state replicated at every site, or one
// state per site. All bonds start with dimension 1.
func FromProductState(l int, states []BlochState) (*State, error) {
	if l < 2 {
		return nil, qxxz.ConfigurationError{Msg: fmt.Sprintf("L %d < 2", l)}
	}
	if len(states) != 1 && len(states) != l {
		return nil, qxxz.ConfigurationError{Msg: fmt.Sprintf("%d bloch states for %d sites", len(states), l)}
	}

	s := &State{Bs: make([]*tensor.Dense, 0, l), Ss: make([][]float64, 0, l)}
	for i := 0; i < l; i++ {
		bloch := states[0]
		if len(states) == l {
			bloch = states[i]
		}
		c0 := complex(math.Cos(bloch.Theta/2), 0)
		c1 := cmplx.Exp(complex(0, bloch.Phi)) * complex(math.Sin(bloch.Theta/2), 0)

		b := tensor.Zeros(1, physD, 1)
		b.SetAt([]int{0, 0, 0}, complex64(c0))
		b.SetAt([]int{0, 1, 0}, complex64(c1))
		s.Bs = append(s.Bs, b)
		s.Ss = append(s.Ss, []float64{1})
	}
	for i := range s.bufs {
		s.bufs[i] = tensor.Zeros(1)
	}
	return s, nil
}

// Len returns the number of sites.
func (s *State) Len() int { return len(s.Bs) }

// BondDim returns the dimension of the bond to the left of site i.
func (s *State) BondDim(i int) int { return len(s.Ss[i]) }

// Gate converts a d^2 x d^2 two-site operator into the axis layout expected
// by ApplyTwoSiteGate, (out_i, out_j, in_i, in_j).
func Gate(m [][]complex64) *tensor.Dense {
	if len(m) != physD*physD || len(m[0]) != physD*physD {
		panic(fmt.Sprintf("%d %d", len(m), len(m[0])))
	}
	return tensor.T2(m).Reshape(physD, physD, physD, physD)
}

// ExpectationValue returns the expectation value of the 2x2 operator op at
// every site. The state is not mutated.
func (s *State) ExpectationValue(op [][]complex64) []complex64 {
	opT := tensor.T2(op)
	vals := make([]complex64, 0, len(s.Bs))
	for i := range s.Bs {
		// theta is the one-site wavefunction Lambda_i . B_i.
		theta := s.oneSiteTheta(i)

		// x is of shape (out, left, right).
		x := tensor.Product(s.bufs[2], opT, theta, [][2]int{{1, mpsUpAxis}})
		// y is of shape (right.conj, right); its trace is the expectation
		// value, since the tensors right of site i are right-canonical.
		y := tensor.Product(s.bufs[3], theta.Conj(), x, [][2]int{{mpsLeftAxis, 1}, {mpsUpAxis, 0}})

		var v complex64
		for k := 0; k < y.Shape()[0]; k++ {
			v += y.At(k, k)
		}
		vals = append(vals, v)
	}
	return vals
}

// EntanglementEntropy returns the von Neumann entropy -sum s^2*ln(s^2) of
// every interior bond, computed from the bond's normalized singular values.
// Bonds of dimension 1 have zero entropy.
func (s *State) EntanglementEntropy() []float64 {
	entropies := make([]float64, 0, len(s.Bs)-1)
	for i := 1; i < len(s.Bs); i++ {
		var norm2 float64
		for _, v := range s.Ss[i] {
			norm2 += v * v
		}

		var entropy float64
		for _, v := range s.Ss[i] {
			p := v * v / norm2
			if p > 1e-30 {
				entropy += -p * math.Log(p)
			}
		}
		entropies = append(entropies, entropy)
	}
	return entropies
}

// ApplyTwoSiteGate contracts gate into the two-site tensor of sites
// (bond, bond+1), factorizes it back by SVD, truncates singular values below
// max(svdMin, noise floor) and beyond chiMax, and renormalizes. The bond
// dimension never falls below 1.
// It returns the discarded weight, the normalized sum of squared discarded
// singular values.
func (s *State) ApplyTwoSiteGate(bond int, gate *tensor.Dense, chiMax int, svdMin float64) (float64, error) {
	if chiMax < 1 {
		return 0, qxxz.ConfigurationError{Msg: fmt.Sprintf("chi_max %d < 1", chiMax)}
	}
	if svdMin < 0 {
		return 0, qxxz.ConfigurationError{Msg: fmt.Sprintf("svd_min %f < 0", svdMin)}
	}
	if bond < 0 || bond >= len(s.Bs)-1 {
		panic(fmt.Sprintf("%d %d", bond, len(s.Bs)))
	}
	i, j := bond, bond+1
	dL := s.Bs[i].Shape()[mpsLeftAxis]
	dR := s.Bs[j].Shape()[mpsRightAxis]

	// theta = Lambda_i . B_i . B_j, axes (left, up_i, up_j, right).
	lb := tensor.Product(s.bufs[0], s.lambda(i), s.Bs[i], [][2]int{{1, mpsLeftAxis}})
	theta := tensor.Product(s.bufs[1], lb, s.Bs[j], [][2]int{{2, mpsLeftAxis}})

	// Contract the gate, axes (out_i, out_j, left, right), and reorder to
	// (left, out_i, out_j, right).
	gtheta := tensor.Product(s.bufs[2], gate, theta, [][2]int{{2, 1}, {3, 2}})
	thetaM := resetCopy(s.bufs[3], gtheta.Transpose(2, 0, 1, 3)).Reshape(dL*physD, physD*dR)

	u, sv, vh, err := mat.SVD(promote(thetaM.ToSlice2()))
	if err != nil {
		return 0, errors.Wrap(err, fmt.Sprintf("bond %d", bond))
	}

	// Truncate: the singular value threshold and the bond dimension cap,
	// whichever is stricter.
	cutoff := math.Max(svdMin, svdFloor)
	k := 0
	for k < len(sv) && sv[k] >= cutoff {
		k++
	}
	if k > chiMax {
		k = chiMax
	}
	if k < 1 {
		k = 1
	}

	var total, kept float64
	for _, v := range sv {
		total += v * v
	}
	for _, v := range sv[:k] {
		kept += v * v
	}
	var eps float64
	if total > 0 {
		eps = (total - kept) / total
	}
	if eps < 0 {
		eps = 0
	}

	// Renormalize the kept spectrum.
	norm := math.Sqrt(kept)
	snew := make([]float64, k)
	for m := range snew {
		snew[m] = sv[m] / norm
	}

	// New right tensor: the V^H part is right-canonical by construction.
	bj := make([][]complex64, k)
	for r := 0; r < k; r++ {
		bj[r] = make([]complex64, physD*dR)
		for c := 0; c < physD*dR; c++ {
			bj[r][c] = complex64(vh[r][c])
		}
	}

	// New left tensor: Lambda_i^{-1} . U . diag(snew) restores the
	// right-canonical form of site i.
	bi := make([][]complex64, dL*physD)
	for r := 0; r < dL*physD; r++ {
		bi[r] = make([]complex64, k)
		inv := 1 / math.Max(s.Ss[i][r/physD], svdFloor)
		for c := 0; c < k; c++ {
			bi[r][c] = complex64(u[r][c] * complex(snew[c]*inv, 0))
		}
	}

	s.Bs[i] = tensor.T2(bi).Reshape(dL, physD, k)
	s.Bs[j] = tensor.T2(bj).Reshape(k, physD, dR)
	s.Ss[j] = snew
	return eps, nil
}

// InnerProduct computes <x|y>.
// See Section 4.2.1 Efficient evaluation of contractions, Ulrich Schollwock.
func InnerProduct(x, y *State) complex64 {
	if len(x.Bs) != len(y.Bs) {
		panic(fmt.Sprintf("%d %d", len(x.Bs), len(y.Bs)))
	}

	bufs := [2]*tensor.Dense{tensor.Zeros(1), tensor.Zeros(1)}
	f := ones(bufs[0], 1, 1)
	const fTopAxis, fBottomAxis = 0, 1
	for i, xi := range x.Bs {
		yi := y.Bs[i]

		fyi := tensor.Product(bufs[1], f, yi, [][2]int{{fBottomAxis, mpsLeftAxis}})
		f = tensor.Product(bufs[0], xi.Conj(), fyi, [][2]int{{mpsLeftAxis, fTopAxis}, {mpsUpAxis, mpsUpAxis}})
	}

	return f.At(0, 0)
}

// Norm returns sqrt(<s|s>).
func (s *State) Norm() float64 {
	return math.Sqrt(cmplx.Abs(complex128(InnerProduct(s, s))))
}

// oneSiteTheta returns Lambda_i . B_i, axes (left, up, right).
// The result aliases s.bufs[1].
func (s *State) oneSiteTheta(i int) *tensor.Dense {
	return tensor.Product(s.bufs[1], s.lambda(i), s.Bs[i], [][2]int{{1, mpsLeftAxis}})
}

// lambda returns diag(Ss[i]).
func (s *State) lambda(i int) *tensor.Dense {
	d := len(s.Ss[i])
	lam := tensor.Zeros(d, d)
	for k, v := range s.Ss[i] {
		lam.SetAt([]int{k, k}, complex(float32(v), 0))
	}
	return lam
}

// vector contracts the state into the full 2^L state vector, with site 0 as
// the most significant qubit. Only tractable for small L.
func (s *State) vector() []complex64 {
	bufs := [2]*tensor.Dense{tensor.Zeros(1), tensor.Zeros(1)}

	cur := s.Bs[0]
	for i := 1; i < len(s.Bs); i++ {
		dst := bufs[i%2]
		axes := [][2]int{{len(cur.Shape()) - 1, mpsLeftAxis}}
		cur = tensor.Product(dst, cur, s.Bs[i], axes)
	}

	vec := make([]complex64, 0, 1<<len(s.Bs))
	for _, v := range cur.All() {
		vec = append(vec, v)
	}
	return vec
}

func promote(a [][]complex64) [][]complex128 {
	b := make([][]complex128, len(a))
	for i, row := range a {
		b[i] = make([]complex128, len(row))
		for j, v := range row {
			b[i][j] = complex128(v)
		}
	}
	return b
}

func resetCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	zeroDigit := make([]int, len(shape))
	dst.Reset(shape...).Set(zeroDigit, src)
	return dst
}

func ones(t *tensor.Dense, shape ...int) *tensor.Dense {
	t.Reset(shape...)
	for ijk := range t.All() {
		t.SetAt(ijk, 1)
	}
	return t
}
