// Package mat implements the sparse and dense linear algebra used by the
// XXZ chain simulations.
package mat

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	PauliX = [][]complex64{
		{0, 1},
		{1, 0},
	}
	PauliY = [][]complex64{
		{0, -1i},
		{1i, 0},
	}
	PauliZ = [][]complex64{
		{1, 0},
		{0, -1},
	}
)

type vRowCol struct {
	v   complex64
	row int
	col int
}

// COO is a sparse matrix in coordinate format, sorted in row major order.
type COO struct {
	rows int
	cols int
	Data []vRowCol

	m map[[2]int]complex64
}

func M(dense [][]complex64) *COO {
	m := &COO{rows: len(dense), cols: len(dense[0]), Data: make([]vRowCol, 0), m: make(map[[2]int]complex64)}
	for i, row := range dense {
		for j, v := range row {
			if v == 0 {
				continue
			}
			m.Data = append(m.Data, vRowCol{v: v, row: i, col: j})
		}
	}
	return m
}

func COOZeros(rows, cols int) *COO {
	m := M([][]complex64{{0}})
	m.Zeros(rows, cols)
	return m
}

func COOIdentity(rows int) *COO {
	m := COOZeros(rows, rows)
	for i := 0; i < rows; i++ {
		m.Data = append(m.Data, vRowCol{v: 1, row: i, col: i})
	}
	return m
}

func (m *COO) Rows() int { return m.rows }
func (m *COO) Cols() int { return m.cols }

func (m *COO) Zeros(rows, cols int) {
	m.rows, m.cols = rows, cols
	m.Data = m.Data[:0]
}

// Scalar turns m into the 1x1 matrix [[v]], the seed of a Kron chain.
func (m *COO) Scalar(v complex64) {
	m.rows, m.cols = 1, 1
	m.Data = m.Data[:0]
	m.Data = append(m.Data, vRowCol{v: v, row: 0, col: 0})
}

func (a *COO) Equal(b *COO) bool {
	if a.rows != b.rows {
		return false
	}
	if a.cols != b.cols {
		return false
	}
	if len(a.Data) != len(b.Data) {
		return false
	}
	for i, av := range a.Data {
		if av != b.Data[i] {
			return false
		}
	}
	return true
}

func (m *COO) Slice(yBoundN, xBoundN [2]int) *COO {
	yBound, xBound := yBoundN, xBoundN
	for i := 0; i < 2; i++ {
		if yBound[i] < 0 {
			yBound[i] += m.rows
		}
		if xBound[i] < 0 {
			xBound[i] += m.cols
		}
	}

	s := &COO{rows: yBound[1] - yBound[0], cols: xBound[1] - xBound[0], Data: make([]vRowCol, 0), m: make(map[[2]int]complex64)}
	for _, v := range m.Data {
		if v.row < yBound[0] {
			continue
		}
		if v.row >= yBound[1] {
			break
		}
		if v.col < xBound[0] || v.col >= xBound[1] {
			continue
		}
		s.Data = append(s.Data, vRowCol{v: v.v, row: v.row - yBound[0], col: v.col - xBound[0]})
	}
	return s
}

// Add does a += c*b, where b is a matrix of the same shape.
func (a *COO) Add(c complex64, b *COO) {
	if !(b.rows == a.rows && b.cols == a.cols) {
		panic(fmt.Sprintf("%d %d, %d %d", a.rows, a.cols, b.rows, b.cols))
	}

	clear(b.m)
	for _, v := range b.Data {
		b.m[[2]int{v.row, v.col}] = v.v
	}

	for i, av := range a.Data {
		byx := [2]int{av.row, av.col}
		bv := b.m[byx]
		delete(b.m, byx)

		a.Data[i].v = av.v + c*bv
	}

	a.Data = slices.DeleteFunc(a.Data, func(v vRowCol) bool {
		return v.v == 0
	})
	for yx, bv := range b.m {
		a.Data = append(a.Data, vRowCol{v: c * bv, row: yx[0], col: yx[1]})
	}
	slices.SortFunc(a.Data, rowMajor)
	clear(b.m)
}

// Kron does a = kron(a, b).
func (a *COO) Kron(b *COO) {
	rows := a.rows * b.rows
	cols := a.cols * b.cols
	a.rows, a.cols = rows, cols

	prevElemNum := len(a.Data)
	for i := prevElemNum - 1; i >= 0; i-- {
		av := a.Data[i]
		a.Data[i].v = 0
		for _, bv := range b.Data {
			ky := av.row*b.rows + bv.row
			kx := av.col*b.cols + bv.col
			a.Data = append(a.Data, vRowCol{v: av.v * bv.v, row: ky, col: kx})
		}
	}

	a.Data = slices.DeleteFunc(a.Data, func(v vRowCol) bool {
		return v.v == 0
	})
	slices.SortFunc(a.Data, rowMajor)
}

func (m *COO) Dense() [][]complex64 {
	dense := make([][]complex64, m.rows)
	for i := range dense {
		dense[i] = make([]complex64, m.cols)
	}

	for _, v := range m.Data {
		dense[v.row][v.col] = v.v
	}

	return dense
}

// MulVec does dst = m @ x.
func (m *COO) MulVec(dst, x []complex128) {
	if len(x) != m.cols || len(dst) != m.rows {
		panic(fmt.Sprintf("%d %d, %d %d", len(dst), len(x), m.rows, m.cols))
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, v := range m.Data {
		dst[v.row] += complex128(v.v) * x[v.col]
	}
}

func (m *COO) String() string {
	clear(m.m)
	for _, v := range m.Data {
		m.m[[2]int{v.row, v.col}] = v.v
	}

	lines := []string{}
	for i := 0; i < m.rows; i++ {
		cs := []string{}
		for j := 0; j < m.cols; j++ {
			v := m.m[[2]int{i, j}]
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		l := strings.Join(cs, "\t")
		lines = append(lines, l)
	}

	clear(m.m)
	return strings.Join(lines, "\n")
}

// EigenSym diagonalizes a real symmetric matrix.
// Eigenvalues are in ascending order, with the corresponding eigenvectors
// in the columns of the returned matrix.
// The XXZ Hamiltonian and its bond terms are always real symmetric, since
// both kron(PauliY, PauliY) and the remaining Pauli words are real.
func (m *COO) EigenSym() ([]float64, *mat.Dense) {
	if m.rows != m.cols {
		panic(fmt.Sprintf("%d %d", m.rows, m.cols))
	}
	sym := mat.NewSymDense(m.rows, nil)
	for _, v := range m.Data {
		if imag(v.v) != 0 {
			panic("not real")
		}
		if v.col >= v.row {
			sym.SetSym(v.row, v.col, float64(real(v.v)))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		panic("eig.Factorize failed")
	}
	vals := eig.Values(nil)
	vecs := mat.NewDense(m.rows, m.cols, nil)
	eig.VectorsTo(vecs)

	return vals, vecs
}

func rowMajor(a, b vRowCol) int {
	if c := cmp.Compare(a.row, b.row); c != 0 {
		return c
	}
	return cmp.Compare(a.col, b.col)
}

func format(v float32) string {
	// If v is 0 or -0, return "0" immediately to avoid returning "-0".
	if v == 0 {
		return " 0"
	}

	s := fmt.Sprintf("%v", v)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}
