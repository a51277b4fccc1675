package gonumExtensions

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Zeros is an (r by c) matrix of zeros. Unlike mat.Dense either dimension may
// be zero, which is how empty blocks are carried through block assembly.
type Zeros struct {
	r, c int
}

// NewZeros returns a (r by c) zero matrix. It panics on negative dimensions.
func NewZeros(r, c int) Zeros {
	if r < 0 || c < 0 {
		panic(mat.ErrNegativeDimension)
	}
	return Zeros{r: r, c: c}
}

// Dims returns the dimensions of the zero matrix.
func (z Zeros) Dims() (r, c int) {
	return z.r, z.c
}

// At returns 0 for any valid index.
func (z Zeros) At(i, j int) float64 {
	if i < 0 || i >= z.r || j < 0 || j >= z.c {
		panic(mat.ErrIndexOutOfRange)
	}
	return 0
}

// T returns the transposed zero matrix.
func (z Zeros) T() mat.Matrix {
	return Zeros{r: z.c, c: z.r}
}

// IsEmpty reports whether m has a zero length dimension.
func IsEmpty(m mat.Matrix) bool {
	r, c := m.Dims()
	return r == 0 || c == 0
}

// isZero reports whether m is known to be all zeros without reading it.
func isZero(m mat.Matrix) bool {
	if IsEmpty(m) {
		return true
	}
	_, ok := m.(Zeros)
	return ok
}

// Copy returns a deep copy of m. Empty matrices are returned as Zeros.
func Copy(m mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return Zeros{r: r, c: c}
	}
	return mat.DenseCopyOf(m)
}

// Ones returns a (m by n) matrix filled with ones
func Ones(m, n int) mat.Matrix {
	return Full(m, n, 1.)
}

// Full returns a (m by n) matrix filled with value
func Full(m, n int, value float64) mat.Matrix {
	if m == 0 || n == 0 || value == 0 {
		return NewZeros(m, n)
	}
	data := make([]float64, m*n)
	for index := range data {
		data[index] = value
	}
	return mat.NewDense(m, n, data)
}

// Eye returns the (n by n) identity matrix
func Eye(n int) mat.Matrix {
	if n == 0 {
		return NewZeros(0, 0)
	}
	data := make([]float64, n)
	for entry := range data {
		data[entry] = 1
	}
	return mat.NewDiagDense(n, data)
}

// NANORINF checks if there are any NAN or INF in matrix
func NANORINF(matrix mat.Matrix) bool {
	if isZero(matrix) {
		return false
	}
	m, n := matrix.Dims()
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			if math.IsNaN(matrix.At(row, col)) || math.IsInf(matrix.At(row, col), 0) {
				return true
			}
		}
	}
	return false
}
