package mat

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
)

const (
	// svdTol is the relative orthogonality threshold of a column pair.
	svdTol = 1e-14
	// svdMaxSweeps bounds the Jacobi iteration.
	svdMaxSweeps = 64
)

// SVD computes the singular value decomposition a = u @ diag(s) @ vh by
// one-sided Jacobi rotations (Hestenes' method).
// u is len(a) x k and vh is k x len(a[0]), where k = min(len(a), len(a[0])).
// Singular values are sorted in descending order.
// Columns of u whose singular value is exactly zero are left as zero vectors.
//
// References:
//   - Jacobi's method is more accurate than QR, James Demmel and Kresimir Veselic
func SVD(a [][]complex128) ([][]complex128, []float64, [][]complex128, error) {
	m, n := len(a), len(a[0])
	if m < n {
		// a.H = u2 @ diag(s) @ vh2 implies a = vh2.H @ diag(s) @ u2.H.
		u2, s, vh2, err := SVD(conjTranspose(a))
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "")
		}
		return conjTranspose(vh2), s, conjTranspose(u2), nil
	}

	// w holds the columns of a, rotated in place until mutually orthogonal.
	w := make([][]complex128, n)
	for j := range w {
		w[j] = make([]complex128, m)
		for i := 0; i < m; i++ {
			w[j][i] = a[i][j]
		}
	}
	// v accumulates the rotations, columns of the right singular matrix.
	v := make([][]complex128, n)
	for j := range v {
		v[j] = make([]complex128, n)
		v[j][j] = 1
	}

	converged := false
	for sweep := 0; sweep < svdMaxSweeps && !converged; sweep++ {
		converged = true
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				var alpha, beta float64
				var gamma complex128
				for i := 0; i < m; i++ {
					wp, wq := w[p][i], w[q][i]
					alpha += real(wp)*real(wp) + imag(wp)*imag(wp)
					beta += real(wq)*real(wq) + imag(wq)*imag(wq)
					gamma += cmplx.Conj(wp) * wq
				}
				g := cmplx.Abs(gamma)
				if g <= svdTol*math.Sqrt(alpha*beta) {
					continue
				}
				converged = false

				// Diagonalize the 2x2 Gram matrix [[alpha, gamma], [conj(gamma), beta]].
				phase := gamma / complex(g, 0)
				tau := (beta - alpha) / (2 * g)
				t := 1 / (math.Abs(tau) + math.Sqrt(1+tau*tau))
				if tau < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(1+t*t)

				rotate(w[p], w[q], c, t, phase)
				rotate(v[p], v[q], c, t, phase)
			}
		}
	}
	if !converged {
		return nil, nil, nil, errors.Errorf("no convergence in %d sweeps, %d %d", svdMaxSweeps, m, n)
	}

	// Column norms are the singular values.
	s := make([]float64, n)
	for j := range w {
		var norm2 float64
		for _, wi := range w[j] {
			norm2 += real(wi)*real(wi) + imag(wi)*imag(wi)
		}
		s[j] = math.Sqrt(norm2)
	}
	perm := make([]int, n)
	for j := range perm {
		perm[j] = j
	}
	// Stable sort keeps zero columns last deterministically.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if s[perm[j]] > s[perm[i]] {
				perm[i], perm[j] = perm[j], perm[i]
			}
		}
	}

	u := make([][]complex128, m)
	for i := range u {
		u[i] = make([]complex128, n)
	}
	vh := make([][]complex128, n)
	for j := range vh {
		vh[j] = make([]complex128, n)
	}
	sorted := make([]float64, n)
	for k, pj := range perm {
		sorted[k] = s[pj]
		if s[pj] > 0 {
			for i := 0; i < m; i++ {
				u[i][k] = w[pj][i] / complex(s[pj], 0)
			}
		}
		for i := 0; i < n; i++ {
			vh[k][i] = cmplx.Conj(v[pj][i])
		}
	}

	return u, sorted, vh, nil
}

// rotate applies the unitary [[c, s], [-s*conj(phase), c*conj(phase)]] to the
// column pair (p, q) from the right, with s = c*t.
func rotate(p, q []complex128, c, t float64, phase complex128) {
	cs := complex(c, 0)
	sn := complex(c*t, 0)
	pc := cmplx.Conj(phase)
	for i := range p {
		pi, qi := p[i], q[i]
		p[i] = cs*pi - sn*pc*qi
		q[i] = sn*pi + cs*pc*qi
	}
}

func conjTranspose(a [][]complex128) [][]complex128 {
	m, n := len(a), len(a[0])
	t := make([][]complex128, n)
	for i := range t {
		t[i] = make([]complex128, m)
		for j := 0; j < m; j++ {
			t[i][j] = cmplx.Conj(a[j][i])
		}
	}
	return t
}
