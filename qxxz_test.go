package qxxz

import (
	"flag"
	"fmt"
	"log"
	"math"
	"testing"

	"qxxz/mat"
)

func TestNewChain(t *testing.T) {
	t.Parallel()
	tests := []struct {
		l  int
		bc BoundaryCondition
		ok bool
	}{
		{l: 2, bc: Open, ok: true},
		{l: 5, bc: Periodic, ok: true},
		{l: 1, bc: Open, ok: false},
		{l: 4, bc: BoundaryCondition("moebius"), ok: false},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d %s", test.l, test.bc), func(t *testing.T) {
			t.Parallel()
			_, err := NewChain(test.l, test.bc)
			if test.ok != (err == nil) {
				t.Fatalf("%v, expected ok %v", err, test.ok)
			}
			if err != nil {
				if _, ok := err.(ConfigurationError); !ok {
					t.Fatalf("%T %v", err, err)
				}
			}
		})
	}
}

func TestBonds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		chain Chain
		bonds [][2]int
	}{
		{
			chain: Chain{L: 4, BC: Open},
			bonds: [][2]int{{0, 1}, {1, 2}, {2, 3}},
		},
		{
			chain: Chain{L: 4, BC: Periodic},
			bonds: [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d %s", test.chain.L, test.chain.BC), func(t *testing.T) {
			t.Parallel()
			bonds := test.chain.Bonds()
			if len(bonds) != len(test.bonds) {
				t.Fatalf("%v, expected %v", bonds, test.bonds)
			}
			for i, b := range bonds {
				if b != test.bonds[i] {
					t.Fatalf("%v, expected %v", bonds, test.bonds)
				}
			}
		})
	}
}

// TestBondTermsSum checks that embedding every bond term in the full Hilbert
// space and summing recovers the Hamiltonian, so that the Trotter gates and
// the exact diagonalization oracle describe the same physics.
func TestBondTermsSum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		l   int
		bc  BoundaryCondition
		jxy float64
		jz  float64
		hz  float64
	}{
		{l: 2, bc: Open, jxy: -0.1, jz: -0.5, hz: 0.7},
		{l: 5, bc: Open, jxy: -0.1, jz: -0.5, hz: 0.7},
		{l: 4, bc: Open, jxy: 1, jz: 0, hz: -2},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d %s %f %f %f", test.l, test.bc, test.jxy, test.jz, test.hz), func(t *testing.T) {
			t.Parallel()
			chain, err := NewChain(test.l, test.bc)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			m := XXZChain(chain, test.jxy, test.jz, test.hz)

			dim := 1 << test.l
			sum := mat.COOZeros(dim, dim)
			for k, term := range m.BondTerms() {
				bond := chain.Bonds()[k]
				embedded := mat.COOZeros(1, 1)
				embedded.Scalar(1)
				for s := 0; s < bond[0]; s++ {
					embedded.Kron(mat.COOIdentity(2))
				}
				embedded.Kron(term)
				for s := bond[1] + 1; s < test.l; s++ {
					embedded.Kron(mat.COOIdentity(2))
				}
				sum.Add(1, embedded)
			}

			h := mat.COOZeros(dim, dim)
			buf := mat.COOZeros(1, 1)
			m.Hamiltonian(h, buf)

			hDense, sumDense := h.Dense(), sum.Dense()
			for i := 0; i < dim; i++ {
				for j := 0; j < dim; j++ {
					d := hDense[i][j] - sumDense[i][j]
					if math.Abs(float64(real(d)))+math.Abs(float64(imag(d))) > 1e-5 {
						t.Fatalf("%d %d %v, expected %v", i, j, sumDense[i][j], hDense[i][j])
					}
				}
			}
		})
	}
}

// TestHamiltonianEigenvalues checks a single bond against the analytic
// spectrum {Jz+2hz, Jz-2hz, -Jz+2Jxy, -Jz-2Jxy}.
func TestHamiltonianEigenvalues(t *testing.T) {
	t.Parallel()
	const jxy, jz, hz = -0.1, -0.5, 0.7
	chain, err := NewChain(2, Open)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	m := XXZChain(chain, jxy, jz, hz)

	h := mat.COOZeros(4, 4)
	buf := mat.COOZeros(1, 1)
	m.Hamiltonian(h, buf)
	vals, _ := h.EigenSym()

	expected := []float64{jz - 2*hz, -jz + 2*jxy, -jz - 2*jxy, jz + 2*hz}
	for i, v := range vals {
		if math.Abs(v-expected[i]) > 1e-6 {
			t.Fatalf("%d %f, expected %f", i, v, expected[i])
		}
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
